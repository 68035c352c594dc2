package gate

import (
	"strings"
	"testing"
)

func TestTicketSignerRoundTrip(t *testing.T) {
	signer := NewTicketSigner("signing-key")

	ticket := signer.Issue()
	if !signer.Verify(ticket) {
		t.Fatalf("issued ticket %q must verify", ticket)
	}
	if other := signer.Issue(); other == ticket {
		t.Fatal("tickets must be unique per issue")
	}
}

func TestTicketSignerRejectsForgeries(t *testing.T) {
	signer := NewTicketSigner("signing-key")

	for _, ticket := range []string{"", "no-tag", ".tag-only", "id.wrong-tag"} {
		if signer.Verify(ticket) {
			t.Fatalf("ticket %q must not verify", ticket)
		}
	}

	// A ticket signed under a different key is a forgery here.
	other := NewTicketSigner("other-key").Issue()
	if signer.Verify(other) {
		t.Fatal("foreign-key ticket must not verify")
	}

	// Swapping the id while keeping the tag breaks the signature.
	_, tag, _ := strings.Cut(signer.Issue(), ".")
	if signer.Verify("01ARZ3NDEKTSV4RRFFQ69G5FAV." + tag) {
		t.Fatal("tag must bind to its id")
	}
}
