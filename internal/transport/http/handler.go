package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oziev02/ImageGallery/internal/domain"
	"github.com/oziev02/ImageGallery/internal/service"
)

type Handler struct {
	gallery  service.GalleryService
	previews service.PreviewService
	logger   *slog.Logger
}

func NewHandler(gallery service.GalleryService, previews service.PreviewService, logger *slog.Logger) *Handler {
	return &Handler{
		gallery:  gallery,
		previews: previews,
		logger:   logger,
	}
}

// Routes returns the router with middleware and all gallery routes mounted
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health)

	r.Route("/api/gallery", func(r chi.Router) {
		r.Get("/", h.GetGallery)
		r.Patch("/preferences", h.UpdatePreferences)

		r.Post("/images", h.AddImage)
		r.Post("/images/older", h.LoadOlder)
		r.Post("/images/newer", h.LoadNewer)
		r.Delete("/images/{uuid}", h.DeleteImage)
		r.Get("/images/{uuid}/preview", h.GetPreview)

		r.Put("/current", h.SetCurrentImage)
		r.Post("/current/next", h.SelectNext)
		r.Post("/current/prev", h.SelectPrev)

		r.Put("/intermediate", h.SetIntermediateImage)
		r.Delete("/intermediate", h.ClearIntermediateImage)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetGallery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gallery.Snapshot())
}

func (h *Handler) AddImage(w http.ResponseWriter, r *http.Request) {
	var img domain.Image
	if !h.decode(w, r, &img) {
		return
	}

	state, err := h.gallery.AddImage(r.Context(), img)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")
	if id == "" {
		h.writeError(w, r, domain.ErrInvalidImageID)
		return
	}

	state, err := h.gallery.DeleteImage(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) LoadOlder(w http.ResponseWriter, r *http.Request) {
	state, err := h.gallery.LoadOlder(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) LoadNewer(w http.ResponseWriter, r *http.Request) {
	state, err := h.gallery.LoadNewer(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")

	width := 0
	if widthStr := r.URL.Query().Get("width"); widthStr != "" {
		parsed, err := strconv.Atoi(widthStr)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "width must be a positive integer"})
			return
		}
		width = parsed
	}

	preview, err := h.previews.Render(r.Context(), id, width)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", preview.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(preview.Data)))
	_, _ = w.Write(preview.Data)
}

func (h *Handler) SetCurrentImage(w http.ResponseWriter, r *http.Request) {
	var img domain.Image
	if !h.decode(w, r, &img) {
		return
	}
	if err := img.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.gallery.SelectImage(img))
}

func (h *Handler) SelectNext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gallery.SelectNext())
}

func (h *Handler) SelectPrev(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gallery.SelectPrev())
}

func (h *Handler) SetIntermediateImage(w http.ResponseWriter, r *http.Request) {
	var img domain.Image
	if !h.decode(w, r, &img) {
		return
	}
	if err := img.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.gallery.SetIntermediateImage(img))
}

func (h *Handler) ClearIntermediateImage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gallery.ClearIntermediateImage())
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var update service.PreferencesUpdate
	if !h.decode(w, r, &update) {
		return
	}

	state, err := h.gallery.UpdatePreferences(update)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrImageNotFound), errors.Is(err, domain.ErrAssetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidImageID),
		errors.Is(err, domain.ErrInvalidImageURL),
		errors.Is(err, domain.ErrInvalidObjectFit),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, service.ErrInvalidPreference):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
