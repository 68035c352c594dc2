package domain

import "time"

// Well-known content keys. Every key has a default so the site renders
// even before the admin has customised anything.
const (
	ContentKeyCountdownTarget    = "countdown_target"
	ContentKeySiteTitle          = "site_title"
	ContentKeyRecipientName      = "recipient_name"
	ContentKeyWelcomeMessageHTML = "welcome_message_html"
	ContentKeyMusicURL           = "music_url"
	ContentKeyGiftImageURL       = "gift_image_url"
)

// ContentField is a single editable text value identified by key.
type ContentField struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// DefaultContent returns the built-in value for every known key. Stored
// fields overlay these defaults; unknown stored keys pass through as-is.
func DefaultContent() map[string]string {
	return map[string]string{
		ContentKeyCountdownTarget:    "",
		ContentKeySiteTitle:          "Happy Birthday",
		ContentKeyRecipientName:      "",
		ContentKeyWelcomeMessageHTML: "<p>Welcome! Something special is waiting for you.</p>",
		ContentKeyMusicURL:           "",
		ContentKeyGiftImageURL:       "",
	}
}

// IsHTMLContentKey reports whether values stored under key are rendered
// as HTML and therefore must be sanitised before persisting.
func IsHTMLContentKey(key string) bool {
	const suffix = "_html"
	return len(key) > len(suffix) && key[len(key)-len(suffix):] == suffix
}
