package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"solarpark-cloud/internal/audit"
	"solarpark-cloud/internal/auth"
	registryapp "solarpark-cloud/internal/masterdata/application"
	masterdata "solarpark-cloud/internal/masterdata/domain"
	telemetry "solarpark-cloud/internal/telemetry/domain"
)

const dateLayout = "2006-01-02"

// Handler serves location and device registry endpoints.
type Handler struct {
	registry    *registryapp.RegistryService
	readings    telemetry.ReadingQuery
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(registry *registryapp.RegistryService, readings telemetry.ReadingQuery, auditLogger audit.Logger) (*Handler, error) {
	if registry == nil {
		return nil, errors.New("registry handler: nil service")
	}
	return &Handler{registry: registry, readings: readings, auditLogger: auditLogger}, nil
}

type locationPayload struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Address     string   `json:"address,omitempty"`
	Pincode     string   `json:"pincode,omitempty"`
	Latitude    float64  `json:"latitude,omitempty"`
	Longitude   float64  `json:"longitude,omitempty"`
	CapacityKWp float64  `json:"capacity_kwp"`
	Vendor      string   `json:"vendor"`
	UserIDs     []string `json:"user_ids,omitempty"`
	IsSuspended bool     `json:"is_suspended"`
	IsActive    bool     `json:"is_active"`
}

type devicePayload struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	IMEI        string `json:"imei"`
	LocationID  string `json:"location_id,omitempty"`
	IsSuspended bool   `json:"is_suspended"`
	IsActive    bool   `json:"is_active"`
}

// ServeHTTP routes registry requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/locations":
		h.handleLocations(w, r)
	case path == "/api/v1/locations/summary":
		h.handleLocationSummary(w, r)
	case strings.HasPrefix(path, "/api/v1/locations/"):
		h.handleLocationByID(w, r, strings.TrimPrefix(path, "/api/v1/locations/"))
	case path == "/api/v1/devices":
		h.handleDevices(w, r)
	case strings.HasPrefix(path, "/api/v1/devices/"):
		h.handleDeviceByID(w, r, strings.TrimPrefix(path, "/api/v1/devices/"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleLocations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userID := ""
		if auth.RoleFromContext(r.Context()) != auth.RoleAdmin {
			userID = auth.SubjectFromContext(r.Context())
		}
		list, err := h.registry.ListLocations(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, toLocationPayloads(list))
	case http.MethodPost:
		var req locationPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		location := locationFromPayload(req)
		if err := h.registry.SaveLocation(r.Context(), location); err != nil {
			respondRegistryError(w, err)
			return
		}
		h.logAudit(r, "location.save", "location", location.ID, location.ID)
		w.WriteHeader(http.StatusCreated)
		respondJSON(w, toLocationPayload(*location))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleLocationByID(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		location, err := h.registry.GetLocation(r.Context(), id)
		if err != nil {
			respondRegistryError(w, err)
			return
		}
		if !h.visible(r, location) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		respondJSON(w, toLocationPayload(*location))
	case http.MethodPut:
		var req locationPayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		req.ID = id
		location := locationFromPayload(req)
		if err := h.registry.SaveLocation(r.Context(), location); err != nil {
			respondRegistryError(w, err)
			return
		}
		h.logAudit(r, "location.save", "location", id, id)
		respondJSON(w, toLocationPayload(*location))
	case http.MethodDelete:
		if err := h.registry.DeleteLocation(r.Context(), id); err != nil {
			respondRegistryError(w, err)
			return
		}
		h.logAudit(r, "location.delete", "location", id, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleDevices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := h.registry.ListDevices(r.Context(), r.URL.Query().Get("location_id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, toDevicePayloads(list))
	case http.MethodPost:
		var req devicePayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		device := deviceFromPayload(req)
		if err := h.registry.SaveDevice(r.Context(), device); err != nil {
			respondRegistryError(w, err)
			return
		}
		h.logAudit(r, "device.save", "device", device.ID, device.LocationID)
		w.WriteHeader(http.StatusCreated)
		respondJSON(w, toDevicePayload(*device))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleDeviceByID(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		device, err := h.registry.GetDevice(r.Context(), id)
		if err != nil {
			respondRegistryError(w, err)
			return
		}
		respondJSON(w, toDevicePayload(*device))
	case http.MethodPut:
		var req devicePayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		req.ID = id
		device := deviceFromPayload(req)
		if err := h.registry.SaveDevice(r.Context(), device); err != nil {
			respondRegistryError(w, err)
			return
		}
		h.logAudit(r, "device.save", "device", id, device.LocationID)
		respondJSON(w, toDevicePayload(*device))
	case http.MethodDelete:
		if err := h.registry.DeleteDevice(r.Context(), id); err != nil {
			respondRegistryError(w, err)
			return
		}
		h.logAudit(r, "device.delete", "device", id, "")
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type locationSummary struct {
	LocationID     string  `json:"location_id"`
	Name           string  `json:"name"`
	CapacityKWp    float64 `json:"capacity_kwp"`
	Samples        int64   `json:"samples"`
	AvgDailyEnergy float64 `json:"avg_daily_energy"`
	MinActivePower float64 `json:"min_active_power"`
	MaxActivePower float64 `json:"max_active_power"`
}

func (h *Handler) handleLocationSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.readings == nil {
		http.Error(w, "summary not available", http.StatusServiceUnavailable)
		return
	}
	day, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	dayStart := day.UTC()
	dayEnd := dayStart.Add(24 * time.Hour)

	userID := ""
	if auth.RoleFromContext(r.Context()) != auth.RoleAdmin {
		userID = auth.SubjectFromContext(r.Context())
	}
	locations, err := h.registry.ListLocations(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	summaries := make([]locationSummary, 0, len(locations))
	for _, location := range locations {
		aggregates, err := h.readings.DayAggregates(r.Context(), location.ID, dayStart, dayEnd)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		summary := locationSummary{
			LocationID:  location.ID,
			Name:        location.Name,
			CapacityKWp: location.CapacityKWp,
		}
		if aggregates != nil {
			summary.Samples = aggregates.Count
			summary.AvgDailyEnergy = aggregates.AvgDailyEnergy
			summary.MinActivePower = aggregates.MinActivePower
			summary.MaxActivePower = aggregates.MaxActivePower
		}
		summaries = append(summaries, summary)
	}
	respondJSON(w, summaries)
}

func (h *Handler) visible(r *http.Request, location *masterdata.Location) bool {
	if location == nil {
		return false
	}
	if auth.RoleFromContext(r.Context()) == auth.RoleAdmin {
		return true
	}
	subject := auth.SubjectFromContext(r.Context())
	if subject == "" {
		return true
	}
	return location.OwnedBy(subject)
}

func (h *Handler) logAudit(r *http.Request, action, resourceType, resourceID, locationID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		LocationID:   locationID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, masterdata.ErrLocationNotFound), errors.Is(err, masterdata.ErrDeviceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, masterdata.ErrDuplicateIMEI),
		errors.Is(err, masterdata.ErrLocationHasDevices),
		errors.Is(err, masterdata.ErrDeviceHasReadings):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, masterdata.ErrUnsupportedVendorTag),
		errors.Is(err, masterdata.ErrEmptyLocationName),
		errors.Is(err, masterdata.ErrEmptyIMEI):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}

func locationFromPayload(req locationPayload) *masterdata.Location {
	return &masterdata.Location{
		ID:          req.ID,
		Name:        req.Name,
		Address:     req.Address,
		Pincode:     req.Pincode,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CapacityKWp: req.CapacityKWp,
		Vendor:      masterdata.Vendor(req.Vendor),
		UserIDs:     req.UserIDs,
		IsSuspended: req.IsSuspended,
		IsActive:    req.IsActive,
	}
}

func toLocationPayload(location masterdata.Location) locationPayload {
	return locationPayload{
		ID:          location.ID,
		Name:        location.Name,
		Address:     location.Address,
		Pincode:     location.Pincode,
		Latitude:    location.Latitude,
		Longitude:   location.Longitude,
		CapacityKWp: location.CapacityKWp,
		Vendor:      string(location.Vendor),
		UserIDs:     location.UserIDs,
		IsSuspended: location.IsSuspended,
		IsActive:    location.IsActive,
	}
}

func toLocationPayloads(list []masterdata.Location) []locationPayload {
	result := make([]locationPayload, 0, len(list))
	for _, location := range list {
		result = append(result, toLocationPayload(location))
	}
	return result
}

func deviceFromPayload(req devicePayload) *masterdata.Device {
	return &masterdata.Device{
		ID:          req.ID,
		Name:        req.Name,
		IMEI:        req.IMEI,
		LocationID:  req.LocationID,
		IsSuspended: req.IsSuspended,
		IsActive:    req.IsActive,
	}
}

func toDevicePayload(device masterdata.Device) devicePayload {
	return devicePayload{
		ID:          device.ID,
		Name:        device.Name,
		IMEI:        device.IMEI,
		LocationID:  device.LocationID,
		IsSuspended: device.IsSuspended,
		IsActive:    device.IsActive,
	}
}

func toDevicePayloads(list []masterdata.Device) []devicePayload {
	result := make([]devicePayload, 0, len(list))
	for _, device := range list {
		result = append(result, toDevicePayload(device))
	}
	return result
}
