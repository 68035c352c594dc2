package gate

import (
	"net/http"
	"time"
)

// Cookie names form the persisted-flag contract. Every read and write of
// gate state goes through this file; no other package may name these keys.
const (
	CookieUnlocked    = "gift_unlocked"
	CookieOpened      = "gift_opened"
	CookieAdminBypass = "admin_bypass"
	CookieAdminToken  = "admin_access"
	CookieMusic       = "music_playing"
	CookieEntryTicket = "experience_session"

	// CookieLegacyUnlocked is the flag name written by an older page variant.
	// It is honoured on read as an alias of CookieUnlocked and never written.
	CookieLegacyUnlocked = "countdownCompleted"

	flagTrue = "true"
)

// Flags is the decoded persisted gate state for one browser.
type Flags struct {
	Unlocked     bool
	Opened       bool
	AdminBypass  bool
	MusicPlaying bool
	EntryTicket  string
	AdminToken   string
}

// ReadFlags decodes the gate cookies from a request. Malformed or absent
// cookies decode to false: the gate fails closed toward "locked".
func ReadFlags(r *http.Request) Flags {
	if r == nil {
		return Flags{}
	}
	flags := Flags{
		Unlocked:     cookieIsTrue(r, CookieUnlocked) || cookieIsTrue(r, CookieLegacyUnlocked),
		Opened:       cookieIsTrue(r, CookieOpened),
		AdminBypass:  cookieIsTrue(r, CookieAdminBypass),
		MusicPlaying: cookieIsTrue(r, CookieMusic),
	}
	if c, err := r.Cookie(CookieEntryTicket); err == nil {
		flags.EntryTicket = c.Value
	}
	if c, err := r.Cookie(CookieAdminToken); err == nil {
		flags.AdminToken = c.Value
	}
	// Opening implies unlocking; reconcile stale cookie combinations.
	if flags.Opened {
		flags.Unlocked = true
	}
	return flags
}

func cookieIsTrue(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	if err != nil {
		return false
	}
	return c.Value == flagTrue
}

// Writer persists gate flags as cookies with consistent attributes.
type Writer struct {
	Secure       bool
	PersistedTTL time.Duration
	SessionOnly  bool
}

func (wr Writer) persistent(name string) *http.Cookie {
	ttl := wr.PersistedTTL
	if ttl <= 0 {
		ttl = 365 * 24 * time.Hour
	}
	return &http.Cookie{
		Name:     name,
		Value:    flagTrue,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: false, // the page script reads these for its own re-check
		Secure:   wr.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetUnlocked persists the monotonic unlocked flag.
func (wr Writer) SetUnlocked(w http.ResponseWriter) {
	http.SetCookie(w, wr.persistent(CookieUnlocked))
}

// SetOpened persists the opened flag.
func (wr Writer) SetOpened(w http.ResponseWriter) {
	http.SetCookie(w, wr.persistent(CookieOpened))
}

// SetMusic records the session-scoped music flag.
func (wr Writer) SetMusic(w http.ResponseWriter, playing bool) {
	value := "false"
	if playing {
		value = flagTrue
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieMusic,
		Value:    value,
		Path:     "/",
		Secure:   wr.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetEntryTicket issues the session-only main-experience ticket.
func (wr Writer) SetEntryTicket(w http.ResponseWriter, ticket string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     CookieEntryTicket,
		Value:    ticket,
		Path:     "/",
		HttpOnly: true,
		Secure:   wr.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl / time.Second)
	}
	http.SetCookie(w, c)
}

// ClearAll expires every visitor-facing flag together. This is the admin
// reset support operation, not part of the normal flow.
func (wr Writer) ClearAll(w http.ResponseWriter) {
	for _, name := range []string{CookieUnlocked, CookieOpened, CookieLegacyUnlocked, CookieMusic, CookieEntryTicket} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Secure:   wr.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
