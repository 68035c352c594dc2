package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/giftwrap/api/internal/platform/auth"
	"github.com/giftwrap/api/internal/platform/httpx"
	"github.com/giftwrap/api/internal/platform/textutil"
	"github.com/giftwrap/api/internal/services"
)

const maxContentRequestBody = 256 * 1024

// ContentHandlers exposes the editable content fields.
type ContentHandlers struct {
	contentsvc services.ContentService
}

// NewContentHandlers constructs a content handler set.
func NewContentHandlers(svc services.ContentService) *ContentHandlers {
	return &ContentHandlers{contentsvc: svc}
}

// Routes registers the content endpoints. Reading is public; writing
// requires an admin session.
func (h *ContentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getAll)
	r.With(auth.RequireAdmin).Put("/", h.update)
}

func (h *ContentHandlers) getAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.contentsvc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "content service not available", http.StatusServiceUnavailable))
		return
	}

	content, err := h.contentsvc.GetAll(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "unable to load content", http.StatusServiceUnavailable))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"fields": content})
}

type contentUpdateRequest struct {
	Fields map[string]string `json:"fields"`
}

func (h *ContentHandlers) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.contentsvc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "content service not available", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxContentRequestBody)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		}
		return
	}

	var req contentUpdateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	fields := textutil.NormalizeStringMap(req.Fields)
	if len(fields) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "fields is required", http.StatusBadRequest))
		return
	}

	results, err := h.contentsvc.Update(ctx, fields)
	if err != nil {
		if errors.Is(err, services.ErrContentInvalidInput) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "unable to update content", http.StatusServiceUnavailable))
		return
	}

	payload := make([]map[string]any, 0, len(results))
	failed := 0
	for _, result := range results {
		entry := map[string]any{"key": result.Key}
		if result.Err != nil {
			failed++
			entry["error"] = result.Err.Error()
		} else {
			entry["value"] = result.Value
		}
		payload = append(payload, entry)
	}

	status := http.StatusOK
	if failed > 0 && failed == len(results) {
		status = http.StatusBadRequest
	} else if failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSONResponse(w, status, map[string]any{"results": payload})
}
