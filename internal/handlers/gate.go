package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giftwrap/api/internal/gate"
	"github.com/giftwrap/api/internal/platform/auth"
	"github.com/giftwrap/api/internal/platform/httpx"
	"github.com/giftwrap/api/internal/services"
)

const maxGateRequestBody = 4 * 1024

// GateHandlers exposes the unlock state machine over HTTP and guards the
// site pages through its interceptor middleware.
type GateHandlers struct {
	gatesvc   services.GateService
	cookies   gate.Writer
	tickets   gate.TicketSigner
	ticketTTL time.Duration
}

// NewGateHandlers constructs a gate handler set.
func NewGateHandlers(svc services.GateService, cookies gate.Writer, tickets gate.TicketSigner, ticketTTL time.Duration) *GateHandlers {
	if ticketTTL <= 0 {
		ticketTTL = 12 * time.Hour
	}
	return &GateHandlers{
		gatesvc:   svc,
		cookies:   cookies,
		tickets:   tickets,
		ticketTTL: ticketTTL,
	}
}

// Routes registers the gate endpoints.
func (h *GateHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/state", h.state)
	r.Post("/unlock", h.unlock)
	r.Post("/open", h.open)
	r.Post("/music", h.music)
	r.With(auth.RequireAdmin).Post("/reset", h.reset)
}

// Interceptor evaluates every page request against the gate before serving
// it, redirecting visitors who are on the wrong side of the gate.
func (h *GateHandlers) Interceptor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		flags := gate.ReadFlags(r)
		// A forged or expired ticket is the same as no ticket.
		if !h.tickets.Verify(flags.EntryTicket) {
			flags.EntryTicket = ""
		}

		decision, err := h.gatesvc.Decide(ctx, r.URL.Path, flags)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("gate_unavailable", "unable to evaluate access", http.StatusServiceUnavailable))
			return
		}
		if !decision.Allowed {
			http.Redirect(w, r, decision.RedirectTo, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *GateHandlers) state(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flags := gate.ReadFlags(r)

	if r.URL.Query().Get("preview") == "true" && isGateAdmin(r, flags) {
		// Admin preview of the pending-open view; visitor cookies stay untouched.
		flags.Unlocked = true
		flags.Opened = false
	} else {
		// Returning to the gift page always silences audio.
		h.cookies.SetMusic(w, false)
		flags.MusicPlaying = false
	}

	state, err := h.gatesvc.State(ctx, flags)
	if err != nil {
		writeGateError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildGateStatePayload(state))
}

func (h *GateHandlers) unlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flags := gate.ReadFlags(r)

	state, err := h.gatesvc.Unlock(ctx, services.UnlockCommand{
		Flags: flags,
		Admin: isGateAdmin(r, flags),
	})
	if err != nil {
		writeGateError(w, r, err)
		return
	}

	h.cookies.SetUnlocked(w)
	writeJSONResponse(w, http.StatusOK, buildGateStatePayload(state))
}

func (h *GateHandlers) open(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flags := gate.ReadFlags(r)

	state, err := h.gatesvc.Open(ctx, services.UnlockCommand{
		Flags: flags,
		Admin: isGateAdmin(r, flags),
	})
	if err != nil {
		writeGateError(w, r, err)
		return
	}

	h.cookies.SetUnlocked(w)
	h.cookies.SetOpened(w)
	if !h.tickets.Verify(flags.EntryTicket) {
		h.cookies.SetEntryTicket(w, h.tickets.Issue(), h.ticketTTL)
	}
	writeJSONResponse(w, http.StatusOK, buildGateStatePayload(state))
}

type musicRequest struct {
	Playing bool `json:"playing"`
}

func (h *GateHandlers) music(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxGateRequestBody)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		}
		return
	}

	var req musicRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	h.cookies.SetMusic(w, req.Playing)

	flags := gate.ReadFlags(r)
	flags.MusicPlaying = req.Playing
	state, err := h.gatesvc.State(ctx, flags)
	if err != nil {
		writeGateError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildGateStatePayload(state))
}

// reset clears the visitor-facing flags so the experience replays from the
// countdown. Admin cookies are left untouched.
func (h *GateHandlers) reset(w http.ResponseWriter, r *http.Request) {
	h.cookies.ClearAll(w)
	w.WriteHeader(http.StatusNoContent)
}

func isGateAdmin(r *http.Request, flags gate.Flags) bool {
	return flags.AdminBypass || auth.IsAdmin(r.Context())
}

func buildGateStatePayload(state services.GateState) map[string]any {
	return map[string]any{
		"stage":        string(state.Stage),
		"unlocked":     state.Unlocked,
		"opened":       state.Opened,
		"musicPlaying": state.MusicPlaying,
		"adminBypass":  state.AdminBypass,
		"unlockAt":     formatTime(state.UnlockAt),
		"serverNow":    formatTime(state.ServerNow),
	}
}

func writeGateError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrGateStillLocked):
		httpx.WriteError(ctx, w, httpx.NewError("still_locked", "the gift is not unlockable yet", http.StatusForbidden))
	case errors.Is(err, services.ErrGateNotUnlocked):
		httpx.WriteError(ctx, w, httpx.NewError("not_unlocked", "unlock the gift before opening it", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("gate_unavailable", "unable to evaluate the gate", http.StatusServiceUnavailable))
	}
}
