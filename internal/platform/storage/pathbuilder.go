package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"
)

// MediaKind groups uploads for storage layout and size-policy decisions.
type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
)

// KindForContentType maps a declared MIME type to a media kind. Unknown types
// map to the empty kind so callers can reject them.
func KindForContentType(contentType string) MediaKind {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return KindImage
	case strings.HasPrefix(contentType, "video/"):
		return KindVideo
	case strings.HasPrefix(contentType, "audio/"):
		return KindAudio
	default:
		return ""
	}
}

// BuildMediaPath composes the object key for an uploaded media file:
// media/<kind>/<ulid><ext>. The original file name only contributes its
// extension; everything else is replaced so names never collide or leak.
func BuildMediaPath(kind MediaKind, fileName string) (string, error) {
	if kind != KindImage && kind != KindVideo && kind != KindAudio {
		return "", fmt.Errorf("storage: unsupported media kind %q", kind)
	}
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if !validExtension(ext) {
		ext = ""
	}
	return fmt.Sprintf("media/%s/%s%s", kind, ulid.Make().String(), ext), nil
}

func validExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
