package integration_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	masterdata "solarpark-cloud/internal/masterdata/domain"
	masterdatarepo "solarpark-cloud/internal/masterdata/infrastructure/postgres"
	telemetry "solarpark-cloud/internal/telemetry/domain"
	telemetrypostgres "solarpark-cloud/internal/telemetry/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestReadingQueriesAgainstPostgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"locations", "devices", "inverter_readings"} {
		if !tableExists(db, table) {
			t.Skipf("%s missing; run migrations", table)
		}
	}

	ctx := context.Background()
	locationID := "it-loc-1"
	deviceID := "it-dev-1"
	imei := "860000000099001"

	_, _ = db.ExecContext(ctx, `DELETE FROM inverter_readings WHERE device_id = $1`, deviceID)
	_, _ = db.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, deviceID)
	_, _ = db.ExecContext(ctx, `DELETE FROM location_users WHERE location_id = $1`, locationID)
	_, _ = db.ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, locationID)

	locations := masterdatarepo.NewLocationRepository(db)
	devices := masterdatarepo.NewDeviceRepository(db)
	readings := telemetrypostgres.NewReadingRepository(db)

	now := time.Now().UTC()
	if err := locations.Save(ctx, &masterdata.Location{
		ID:          locationID,
		Name:        "Integration Park",
		Vendor:      masterdata.VendorSungrow,
		CapacityKWp: 100,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		t.Fatalf("save location: %v", err)
	}
	if err := devices.Save(ctx, &masterdata.Device{
		ID:         deviceID,
		Name:       "Integration Inverter",
		IMEI:       imei,
		LocationID: locationID,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		t.Fatalf("save device: %v", err)
	}

	dayStart := now.AddDate(0, 0, -1).Truncate(24 * time.Hour)
	for hour := 8; hour <= 17; hour++ {
		daily := float64(hour-8) * 50
		total := 10000 + daily
		power := 40.0
		if err := readings.Insert(ctx, &telemetry.Reading{
			DeviceID:    deviceID,
			IMEI:        imei,
			DailyEnergy: &daily,
			TotalEnergy: &total,
			ActivePower: &power,
			AlarmStatus: telemetry.AlarmStatusOnline,
			IsActive:    true,
			CreatedAt:   dayStart.Add(time.Duration(hour) * time.Hour),
		}); err != nil {
			t.Fatalf("insert reading hour %d: %v", hour, err)
		}
	}

	dayEnd := dayStart.Add(24 * time.Hour)

	// Stamped exactly at the boundary; must fall into the next period.
	boundaryDaily := 5.0
	boundaryTotal := 10455.0
	boundaryPower := 38.0
	if err := readings.Insert(ctx, &telemetry.Reading{
		DeviceID:    deviceID,
		IMEI:        imei,
		DailyEnergy: &boundaryDaily,
		TotalEnergy: &boundaryTotal,
		ActivePower: &boundaryPower,
		AlarmStatus: telemetry.AlarmStatusOnline,
		IsActive:    true,
		CreatedAt:   dayEnd,
	}); err != nil {
		t.Fatalf("insert boundary reading: %v", err)
	}

	latest, err := readings.LatestBefore(ctx, locationID, dayEnd)
	if err != nil {
		t.Fatalf("LatestBefore: %v", err)
	}
	if latest == nil || latest.DailyEnergy == nil || *latest.DailyEnergy != 450 {
		t.Fatalf("expected latest daily energy 450, got %+v", latest)
	}

	nextStart, err := readings.EarliestAfter(ctx, locationID, dayEnd)
	if err != nil {
		t.Fatalf("EarliestAfter at boundary: %v", err)
	}
	if nextStart == nil || nextStart.DailyEnergy == nil || *nextStart.DailyEnergy != 5 {
		t.Fatalf("expected boundary reading to open the next period, got %+v", nextStart)
	}

	earliest, err := readings.EarliestAfter(ctx, locationID, dayStart)
	if err != nil {
		t.Fatalf("EarliestAfter: %v", err)
	}
	if earliest == nil || earliest.DailyEnergy == nil || *earliest.DailyEnergy != 0 {
		t.Fatalf("expected earliest daily energy 0, got %+v", earliest)
	}

	listed, err := readings.ListRange(ctx, locationID, dayStart, dayEnd)
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(listed) != 10 {
		t.Fatalf("expected 10 readings, got %d", len(listed))
	}
	for i := 1; i < len(listed); i++ {
		if listed[i].CreatedAt.Before(listed[i-1].CreatedAt) {
			t.Fatalf("expected ascending order at index %d", i)
		}
	}

	agg, err := readings.DayAggregates(ctx, locationID, dayStart, dayEnd)
	if err != nil {
		t.Fatalf("DayAggregates: %v", err)
	}
	if agg.Count != 10 || agg.MaxActivePower != 40 {
		t.Fatalf("unexpected aggregates: %+v", agg)
	}

	count, err := readings.CountByDevice(ctx, deviceID)
	if err != nil {
		t.Fatalf("CountByDevice: %v", err)
	}
	if count != 10 {
		t.Fatalf("expected 10 readings for device, got %d", count)
	}

	found, err := devices.FindActiveByIMEI(ctx, imei)
	if err != nil {
		t.Fatalf("FindActiveByIMEI: %v", err)
	}
	if found == nil || found.ID != deviceID {
		t.Fatalf("expected device %s, got %+v", deviceID, found)
	}
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
