package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coah80/mediaconv/internal/alerts"
	"github.com/coah80/mediaconv/internal/config"
	"github.com/coah80/mediaconv/internal/logger"
	"github.com/coah80/mediaconv/internal/services"
)

var routesLogger = logger.Get("Routes")

const multipartMemory = 32 << 20

// Converter is the pipeline behind POST /convert.
type Converter interface {
	Convert(ctx context.Context, req services.ConversionRequest) (*services.Result, error)
}

type ConvertHandler struct {
	cfg       *config.Config
	converter Converter
	jobs      *services.JobTracker
	alerts    *alerts.Notifier
}

func NewConvertHandler(cfg *config.Config, converter Converter, jobs *services.JobTracker, notifier *alerts.Notifier) *ConvertHandler {
	return &ConvertHandler{cfg: cfg, converter: converter, jobs: jobs, alerts: notifier}
}

func ConvertRoutes(r chi.Router, h *ConvertHandler, middlewares ...func(http.Handler) http.Handler) {
	r.With(middlewares...).Post("/convert", h.handleConvert)
}

func (h *ConvertHandler) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.cfg.MaxContentLength {
		respondFailure(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxContentLength)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondFailure(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		respondFailure(w, http.StatusBadRequest, msgBadForm)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	req := services.ConversionRequest{
		Format:   formValueOr(r, "format", config.DefaultFormat),
		Separate: r.FormValue("useSpleeter") == "on",
		URL:      r.FormValue("url"),
	}
	if r.MultipartForm != nil {
		req.Files = r.MultipartForm.File["files"]
	}
	if err := services.CheckInput(req); err != nil {
		status, message := errorResponse(err)
		respondFailure(w, status, message)
		return
	}

	check := h.jobs.CanStartJob()
	if !check.OK {
		respondFailure(w, http.StatusServiceUnavailable, check.Reason)
		return
	}
	defer h.jobs.ReleaseJob()

	res, err := h.run(r.Context(), req)
	if err != nil {
		status, message := errorResponse(err)
		if status >= http.StatusInternalServerError {
			routesLogger.Emit(logger.ERROR, "[%s] Conversion failed: %v\n", jobID(err), err)
			h.alerts.ConversionFailed(jobID(err), sourceLabel(req), err)
		}
		respondFailure(w, status, message)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"zip_url": res.ZipURL,
		"size_mb": res.SizeMB,
	})
}

// run keeps a panic inside the pipeline from escaping the request. The
// workspace is still released by the converter's own deferred cleanup.
func (h *ConvertHandler) run(ctx context.Context, req services.ConversionRequest) (res *services.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("internal error: %v", rec)
		}
	}()
	return h.converter.Convert(ctx, req)
}

func sourceLabel(req services.ConversionRequest) string {
	if req.URL != "" {
		return req.URL
	}
	return fmt.Sprintf("%d uploaded file(s)", len(req.Files))
}

func jobID(err error) string {
	var je *services.JobError
	if errors.As(err, &je) {
		return je.ID
	}
	return "-"
}
