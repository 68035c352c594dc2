package gate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/oklog/ulid/v2"
)

// TicketSigner mints and verifies the entry ticket carried by the
// experience_session cookie. Tickets are a ulid plus an HMAC tag over it, so
// a hand-set cookie value never passes the main-experience guard.
type TicketSigner struct {
	key []byte
}

// NewTicketSigner builds a signer keyed with the given secret. The session
// signing key is reused here; the ticket guards page access only.
func NewTicketSigner(key string) TicketSigner {
	return TicketSigner{key: []byte(key)}
}

// Issue mints a fresh signed ticket.
func (s TicketSigner) Issue() string {
	id := ulid.Make().String()
	return id + "." + s.tag(id)
}

// Verify reports whether the ticket was issued by this signer.
func (s TicketSigner) Verify(ticket string) bool {
	id, tag, found := strings.Cut(ticket, ".")
	if !found || id == "" {
		return false
	}
	return hmac.Equal([]byte(tag), []byte(s.tag(id)))
}

func (s TicketSigner) tag(id string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
