package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/giftwrap/api/internal/gate"
	"github.com/giftwrap/api/internal/platform/httpx"
	"github.com/giftwrap/api/internal/services"
)

// ExperienceHandlers serves the main-experience payload. It sits behind the
// entry ticket issued when the gift is opened, not behind the date gate.
type ExperienceHandlers struct {
	contentsvc services.ContentService
	tickets    gate.TicketSigner
}

// NewExperienceHandlers constructs an experience handler set.
func NewExperienceHandlers(svc services.ContentService, tickets gate.TicketSigner) *ExperienceHandlers {
	return &ExperienceHandlers{contentsvc: svc, tickets: tickets}
}

// Routes registers the experience endpoints.
func (h *ExperienceHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.get)
}

func (h *ExperienceHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.contentsvc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "experience content not available", http.StatusServiceUnavailable))
		return
	}

	flags := gate.ReadFlags(r)
	if !h.tickets.Verify(flags.EntryTicket) {
		httpx.WriteError(ctx, w, httpx.NewError("entry_required", "open the gift to enter", http.StatusForbidden))
		return
	}

	content, err := h.contentsvc.GetAll(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "unable to load content", http.StatusServiceUnavailable))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"fields": content})
}
