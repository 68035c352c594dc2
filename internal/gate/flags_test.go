package gate

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func requestWithCookies(cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/gift", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func TestReadFlags_Defaults(t *testing.T) {
	flags := ReadFlags(requestWithCookies())
	if flags.Unlocked || flags.Opened || flags.AdminBypass || flags.MusicPlaying {
		t.Fatalf("expected all flags false on first visit, got %+v", flags)
	}
}

func TestReadFlags_MalformedValuesFailClosed(t *testing.T) {
	flags := ReadFlags(requestWithCookies(
		&http.Cookie{Name: CookieUnlocked, Value: "yes"},
		&http.Cookie{Name: CookieAdminBypass, Value: "1"},
	))
	if flags.Unlocked || flags.AdminBypass {
		t.Fatalf("expected malformed cookie values to decode false, got %+v", flags)
	}
}

func TestReadFlags_LegacyUnlockedAlias(t *testing.T) {
	flags := ReadFlags(requestWithCookies(&http.Cookie{Name: CookieLegacyUnlocked, Value: "true"}))
	if !flags.Unlocked {
		t.Fatalf("expected legacy countdownCompleted cookie to count as unlocked")
	}
}

func TestReadFlags_OpenedImpliesUnlocked(t *testing.T) {
	flags := ReadFlags(requestWithCookies(&http.Cookie{Name: CookieOpened, Value: "true"}))
	if !flags.Opened || !flags.Unlocked {
		t.Fatalf("expected opened to imply unlocked, got %+v", flags)
	}
}

func TestWriter_SetUnlockedPersists(t *testing.T) {
	wr := Writer{Secure: true, PersistedTTL: 24 * time.Hour}
	rec := httptest.NewRecorder()
	wr.SetUnlocked(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieUnlocked || c.Value != "true" {
		t.Fatalf("unexpected cookie %s=%s", c.Name, c.Value)
	}
	if c.MaxAge != int((24 * time.Hour).Seconds()) {
		t.Fatalf("expected persisted max-age, got %d", c.MaxAge)
	}
	if !c.Secure {
		t.Fatalf("expected secure cookie")
	}
}

func TestWriter_ClearAllExpiresVisitorFlags(t *testing.T) {
	wr := Writer{}
	rec := httptest.NewRecorder()
	wr.ClearAll(rec)

	expired := map[string]bool{}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			expired[c.Name] = true
		}
	}
	for _, name := range []string{CookieUnlocked, CookieOpened, CookieLegacyUnlocked, CookieMusic, CookieEntryTicket} {
		if !expired[name] {
			t.Fatalf("expected %s to be expired, got %v", name, expired)
		}
	}
	if expired[CookieAdminBypass] || expired[CookieAdminToken] {
		t.Fatalf("reset must not clear admin cookies")
	}
}

func TestWriter_EntryTicketIsHTTPOnly(t *testing.T) {
	wr := Writer{}
	rec := httptest.NewRecorder()
	wr.SetEntryTicket(rec, "ticket-123", time.Hour)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieEntryTicket || c.Value != "ticket-123" {
		t.Fatalf("unexpected cookie %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly {
		t.Fatalf("entry ticket must be http-only")
	}
}
