// Package inverter handles telemetry ingestion from inverter monitoring
// units.
package inverter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"solarpark-cloud/internal/observability/metrics"
	telemetry "solarpark-cloud/internal/telemetry/domain"
)

// Ingestor decodes and persists a telemetry payload.
type Ingestor interface {
	Ingest(ctx context.Context, payload []byte) (*telemetry.Reading, error)
}

// IngestHandler handles telemetry ingestion from inverter devices.
type IngestHandler struct {
	service Ingestor
	logger  *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service Ingestor, logger *log.Logger) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("inverter ingest: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{service: service, logger: logger}, nil
}

// ServeHTTP ingests one telemetry payload.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Printf("inverter ingest: read body error: %v", err)
		respondDetail(w, http.StatusBadRequest, "read body error")
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		return
	}
	defer r.Body.Close()

	_, err = h.service.Ingest(r.Context(), body)
	if err != nil {
		status, detail, reason := classify(err)
		if status == http.StatusInternalServerError {
			h.logger.Printf("inverter ingest: %v", err)
		}
		metrics.IncIngestError(reason)
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		respondDetail(w, status, detail)
		return
	}

	metrics.ObserveIngest(metrics.ResultSuccess, time.Since(start))
	respondDetail(w, http.StatusOK, "Inverter data saved successfully!")
}

// classify maps ingest errors to an HTTP status, a user-facing detail
// string, and a metrics reason label.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, telemetry.ErrMissingIMEI):
		return http.StatusBadRequest, "IMEI number is required!", "missing_imei"
	case errors.Is(err, telemetry.ErrUnknownDevice):
		return http.StatusBadRequest, "Device not found!", "unknown_device"
	case errors.Is(err, telemetry.ErrUnsupportedVendor):
		return http.StatusBadRequest, "Inverter vendor is not supported!", "unsupported_vendor"
	case errors.Is(err, telemetry.ErrMalformedRegisters):
		return http.StatusBadRequest, "Malformed register payload!", "malformed_registers"
	default:
		return http.StatusInternalServerError, "internal error", "internal"
	}
}

func respondDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
