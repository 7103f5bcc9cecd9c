package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rpattn/formexport/internal/auth"
	"github.com/rpattn/formexport/internal/config"
	"github.com/rpattn/formexport/internal/metrics"
)

// SettingsUpdater validates and applies new export settings.
type SettingsUpdater interface {
	Update(settings config.Settings) error
}

type Handler struct {
	service  *Service
	settings SettingsUpdater
	metrics  *metrics.Collector
	logger   *slog.Logger
}

func NewHTTPHandler(service *Service, settings SettingsUpdater, collector *metrics.Collector) *Handler {
	return &Handler{
		service:  service,
		settings: settings,
		metrics:  collector,
		logger:   slog.Default().With("component", "export_http"),
	}
}

// Queue starts an export for the calling account.
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	job, err := h.service.Queue(r.Context(), account)
	if err != nil {
		h.logger.Error("queue export failed", "account", account.AccountName, "error", err)
		http.Error(w, "An error occurred while exporting submissions.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// Status reports one of the caller's jobs.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	account, _ := auth.AccountFromContext(r.Context())
	job, err := h.service.GetJob(chi.URLParam(r, "jobId"))
	if err != nil || job.Account.ID != account.ID {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Cancel stops one of the caller's running jobs.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	account, _ := auth.AccountFromContext(r.Context())
	jobID := chi.URLParam(r, "jobId")
	job, err := h.service.GetJob(jobID)
	if err != nil || job.Account.ID != account.ID {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if err := h.service.Cancel(jobID); err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	h.logger.Info("export cancel requested", "job_id", jobID, "account", account.AccountName)
	job, _ = h.service.GetJob(jobID)
	writeJSON(w, http.StatusAccepted, job)
}

type pendingResponse struct {
	Filename    string `json:"filename"`
	DownloadURL string `json:"downloadUrl"`
}

// Pending hands out the caller's finished archive exactly once.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	filename, ok := h.service.Handoff().Take(account.ID)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	downloadURL, err := h.service.BuildDownloadURL(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, pendingResponse{Filename: filename, DownloadURL: downloadURL})
}

// Download streams an archive to a caller holding a signed token. Without a
// token it relies on an account placed in the context by the admin routes.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if err := ValidateFilename(filename); err != nil {
		h.metrics.ObserveDownload("rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		if err := h.service.ValidateDownloadToken(filename, token); err != nil {
			h.metrics.ObserveDownload("rejected")
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
	} else if _, ok := auth.AccountFromContext(r.Context()); !ok {
		h.metrics.ObserveDownload("rejected")
		http.Error(w, "missing download token", http.StatusForbidden)
		return
	}

	err := h.service.ResponseForFilename(w, r, filename)
	var notFound *NotFoundError
	switch {
	case err == nil:
		h.metrics.ObserveDownload("served")
	case errors.As(err, &notFound):
		h.metrics.ObserveDownload("not_found")
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidFilename):
		h.metrics.ObserveDownload("rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("download failed", "filename", filename, "error", err)
		http.Error(w, "download failed", http.StatusInternalServerError)
	}
}

// GetSettings returns the export settings in effect.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Settings())
}

// UpdateSettings validates and stores new export settings.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if h.settings == nil {
		http.Error(w, "settings are read-only", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var payload config.Settings
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	if err := h.settings.Update(payload); err != nil {
		if errors.Is(err, config.ErrInvalidSettings) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("update settings failed", "error", err)
		http.Error(w, "update settings failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Settings())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
