package performance

import (
	"math"
	"testing"
)

func TestIrradiationZeroNominal(t *testing.T) {
	if got := Irradiation(42.5, 0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestIrradiation(t *testing.T) {
	got := Irradiation(10, 100)
	want := 136.1
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestInsolation(t *testing.T) {
	if got := Insolation(250); got != 6000 {
		t.Fatalf("expected 6000, got %v", got)
	}
}

func TestCUF(t *testing.T) {
	cases := []struct {
		name    string
		daily   float64
		nominal float64
		want    float64
	}{
		{"zero nominal", 12, 0, 0},
		{"full day at nominal", 240, 10, 100},
		{"half utilization", 120, 10, 50},
		{"zero energy", 0, 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CUF(tc.daily, tc.nominal)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestPRZeroDenominator(t *testing.T) {
	if got := PR(5, 0, 100); got != 0 {
		t.Fatalf("expected 0 for zero nominal, got %v", got)
	}
	if got := PR(5, 100, 0); got != 0 {
		t.Fatalf("expected 0 for zero irradiation, got %v", got)
	}
}

func TestPRFiniteAndNonNegative(t *testing.T) {
	for _, oap := range []float64{0, 0.1, 5, 999} {
		for _, nominal := range []float64{0, 0.5, 10, 5000} {
			irr := Irradiation(oap, nominal)
			pr := PR(oap, nominal, irr)
			if math.IsNaN(pr) || math.IsInf(pr, 0) {
				t.Fatalf("pr not finite for oap=%v nominal=%v", oap, nominal)
			}
			if pr < 0 {
				t.Fatalf("pr negative for oap=%v nominal=%v", oap, nominal)
			}
			cuf := CUF(oap, nominal)
			if math.IsNaN(cuf) || math.IsInf(cuf, 0) || cuf < 0 {
				t.Fatalf("cuf invalid for oap=%v nominal=%v: %v", oap, nominal, cuf)
			}
		}
	}
}

func TestSpecificYield(t *testing.T) {
	if got := SpecificYield(16, 0); got != 0 {
		t.Fatalf("expected 0 for zero nominal, got %v", got)
	}
	if got := SpecificYield(16, 4); got != 4 {
		t.Fatalf("expected 4, got %v", got)
	}
}

func TestDelta(t *testing.T) {
	end := 120.5
	start := 100.0
	got := Delta(&end, &start)
	if got == nil || *got != 20.5 {
		t.Fatalf("expected 20.5, got %v", got)
	}
	if Delta(nil, &start) != nil {
		t.Fatalf("expected nil delta for missing end")
	}
	if Delta(&end, nil) != nil {
		t.Fatalf("expected nil delta for missing start")
	}
}
