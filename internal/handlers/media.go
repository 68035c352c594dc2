package handlers

import (
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/giftwrap/api/internal/platform/auth"
	"github.com/giftwrap/api/internal/platform/httpx"
	"github.com/giftwrap/api/internal/services"
)

// The multipart ceiling matches the largest per-kind limit plus form overhead.
const maxMediaRequestBody = int64(101 * 1024 * 1024)

// MediaHandlers exposes the admin media upload endpoint.
type MediaHandlers struct {
	mediasvc services.MediaService
}

// NewMediaHandlers constructs a media handler set.
func NewMediaHandlers(svc services.MediaService) *MediaHandlers {
	return &MediaHandlers{mediasvc: svc}
}

// Routes registers the media endpoints. Uploads require an admin session.
func (h *MediaHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.With(auth.RequireAdmin).Post("/upload", h.upload)
}

func (h *MediaHandlers) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.mediasvc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "media service not available", http.StatusServiceUnavailable))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMediaRequestBody)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "upload exceeds allowed size", http.StatusRequestEntityTooLarge))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "multipart field \"file\" is required", http.StatusBadRequest))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if mediaType, _, parseErr := mime.ParseMediaType(contentType); parseErr == nil {
		contentType = mediaType
	}

	media, err := h.mediasvc.Upload(ctx, services.MediaUploadCommand{
		FileName:    header.Filename,
		ContentType: contentType,
		SizeBytes:   header.Size,
		Body:        file,
	})
	if err != nil {
		writeMediaError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]any{
		"kind":        media.Kind,
		"url":         media.URL,
		"objectPath":  media.ObjectPath,
		"contentType": media.ContentType,
		"sizeBytes":   media.SizeBytes,
		"uploadedAt":  formatTime(media.UploadedAt),
	})
}

func writeMediaError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrMediaTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", err.Error(), http.StatusRequestEntityTooLarge))
	case errors.Is(err, services.ErrMediaUnsupportedType):
		httpx.WriteError(ctx, w, httpx.NewError("unsupported_media_type", err.Error(), http.StatusUnsupportedMediaType))
	case errors.Is(err, services.ErrMediaInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("media_unavailable", "unable to store media", http.StatusServiceUnavailable))
	}
}
