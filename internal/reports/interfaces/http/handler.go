package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"solarpark-cloud/internal/audit"
	"solarpark-cloud/internal/auth"
	masterdata "solarpark-cloud/internal/masterdata/domain"
	reportapp "solarpark-cloud/internal/reports/application"
	reports "solarpark-cloud/internal/reports/domain"
	"solarpark-cloud/internal/reports/interfaces"
)

const dateLayout = "2006-01-02"

// Handler serves report endpoints.
type Handler struct {
	service     *reportapp.Service
	owners      auth.LocationOwnerChecker
	auditLogger audit.Logger
}

// NewHandler constructs a Handler. The owner checker is optional; without
// it any authenticated operator may report on any location.
func NewHandler(service *reportapp.Service, auditLogger audit.Logger, opts ...HandlerOption) (*Handler, error) {
	if service == nil {
		return nil, errors.New("report handler: nil service")
	}
	handler := &Handler{service: service, auditLogger: auditLogger}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithOwnerChecker enables per-location ownership checks on submit.
func WithOwnerChecker(owners auth.LocationOwnerChecker) HandlerOption {
	return func(h *Handler) { h.owners = owners }
}

type reportPayload struct {
	ID                 string   `json:"id"`
	OwnerID            string   `json:"owner_id"`
	Name               string   `json:"name"`
	Frequency          string   `json:"frequency,omitempty"`
	Category           string   `json:"category,omitempty"`
	LocationIDs        []string `json:"location_ids"`
	FromDate           string   `json:"from_date"`
	ToDate             string   `json:"to_date"`
	Status             string   `json:"status"`
	Message            string   `json:"message,omitempty"`
	GeneratedLocations []string `json:"generated_locations,omitempty"`
	CreatedAt          string   `json:"created_at"`
	FinishedAt         string   `json:"finished_at,omitempty"`
}

// ServeHTTP routes report requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/reports":
		h.handleReports(w, r)
	case strings.HasPrefix(path, "/api/v1/reports/"):
		rest := strings.TrimPrefix(path, "/api/v1/reports/")
		parts := strings.Split(rest, "/")
		switch {
		case len(parts) == 1 && parts[0] != "":
			h.handleGet(w, r, parts[0])
		case len(parts) == 2 && parts[1] == "download":
			h.handleDownload(w, r, parts[0])
		case len(parts) == 2 && parts[1] == "summary.pdf":
			h.handleSummaryPDF(w, r, parts[0])
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleReports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		owner := auth.SubjectFromContext(r.Context())
		if owner == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		list, err := h.service.ListByOwner(r.Context(), owner)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		payloads := make([]reportPayload, 0, len(list))
		for i := range list {
			payloads = append(payloads, toReportPayload(&list[i]))
		}
		respondJSON(w, http.StatusOK, payloads)
	case http.MethodPost:
		h.handleSubmit(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	owner := auth.SubjectFromContext(r.Context())
	if owner == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		Name        string   `json:"name"`
		Frequency   string   `json:"frequency"`
		Category    string   `json:"category"`
		LocationIDs []string `json:"location_ids"`
		FromDate    string   `json:"from_date"`
		ToDate      string   `json:"to_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	from, err := time.Parse(dateLayout, req.FromDate)
	if err != nil {
		http.Error(w, "from_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(dateLayout, req.ToDate)
	if err != nil {
		http.Error(w, "to_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	if h.owners != nil && auth.RoleFromContext(r.Context()) != auth.RoleAdmin {
		for _, locationID := range req.LocationIDs {
			if err := h.owners.EnsureLocationOwner(r.Context(), owner, locationID); err != nil {
				respondOwnerError(w, err)
				return
			}
		}
	}

	report, err := h.service.Submit(r.Context(), reportapp.SubmitRequest{
		OwnerID:     owner,
		Name:        req.Name,
		Frequency:   req.Frequency,
		Category:    req.Category,
		LocationIDs: req.LocationIDs,
		FromDate:    from.UTC(),
		ToDate:      to.UTC(),
	})
	if err != nil {
		respondReportError(w, err)
		return
	}
	h.logAudit(r, "report.submit", report.ID)
	respondJSON(w, http.StatusAccepted, toReportPayload(report))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	report, ok := h.loadOwned(w, r, id)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, toReportPayload(report))
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	report, ok := h.loadOwned(w, r, id)
	if !ok {
		return
	}
	path, err := h.service.Archive(r.Context(), report.ID)
	if err != nil {
		respondReportError(w, err)
		return
	}
	h.logAudit(r, "report.download", report.ID)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	w.Header().Set("Content-Type", "application/zip")
	http.ServeFile(w, r, path)
}

func (h *Handler) handleSummaryPDF(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	report, ok := h.loadOwned(w, r, id)
	if !ok {
		return
	}
	data, err := interfaces.BuildReportPDF(report)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.logAudit(r, "report.summary_pdf", report.ID)
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(data)
}

// loadOwned loads a report and enforces owner-or-admin visibility. A
// missing report and a foreign report both read as 404 so report ids are
// not probeable.
func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request, id string) (*reports.Report, bool) {
	report, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondReportError(w, err)
		return nil, false
	}
	if auth.RoleFromContext(r.Context()) != auth.RoleAdmin {
		subject := auth.SubjectFromContext(r.Context())
		if !report.OwnedBy(subject) {
			http.Error(w, reports.ErrReportNotFound.Error(), http.StatusNotFound)
			return nil, false
		}
	}
	return report, true
}

func (h *Handler) logAudit(r *http.Request, action, reportID string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "report",
		ResourceID:   reportID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reports.ErrReportNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, reports.ErrArtifactNotReady):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, reports.ErrNoLocations),
		errors.Is(err, reports.ErrInvalidRange),
		errors.Is(err, masterdata.ErrLocationNotFound):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondOwnerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrNotFound):
		http.Error(w, "location not found", http.StatusBadRequest)
	case errors.Is(err, auth.ErrNotOwner):
		http.Error(w, "location not owned by requester", http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func toReportPayload(report *reports.Report) reportPayload {
	payload := reportPayload{
		ID:                 report.ID,
		OwnerID:            report.OwnerID,
		Name:               report.Name,
		Frequency:          report.Frequency,
		Category:           report.Category,
		LocationIDs:        report.LocationIDs,
		FromDate:           report.FromDate.Format(dateLayout),
		ToDate:             report.ToDate.Format(dateLayout),
		Status:             string(report.Status),
		Message:            report.Message,
		GeneratedLocations: report.GeneratedLocations,
		CreatedAt:          report.CreatedAt.Format(time.RFC3339),
	}
	if report.FinishedAt != nil {
		payload.FinishedAt = report.FinishedAt.Format(time.RFC3339)
	}
	return payload
}
