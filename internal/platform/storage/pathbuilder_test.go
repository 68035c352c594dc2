package storage

import (
	"strings"
	"testing"
)

func TestKindForContentType(t *testing.T) {
	cases := []struct {
		contentType string
		want        MediaKind
	}{
		{"image/png", KindImage},
		{"image/webp", KindImage},
		{"video/mp4", KindVideo},
		{"audio/mpeg", KindAudio},
		{"AUDIO/MP3", KindAudio},
		{"application/pdf", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := KindForContentType(tc.contentType); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.contentType, tc.want, got)
		}
	}
}

func TestBuildMediaPath_Layout(t *testing.T) {
	got, err := BuildMediaPath(KindImage, "birthday photo.PNG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "media/image/") {
		t.Fatalf("expected media/image/ prefix, got %s", got)
	}
	if !strings.HasSuffix(got, ".png") {
		t.Fatalf("expected lowercased extension, got %s", got)
	}
}

func TestBuildMediaPath_DropsSuspiciousExtension(t *testing.T) {
	got, err := BuildMediaPath(KindVideo, "clip.mp4.exe../../etc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "..") || strings.Contains(got, "etc") {
		t.Fatalf("expected sanitised path, got %s", got)
	}
}

func TestBuildMediaPath_UniquePerCall(t *testing.T) {
	a, _ := BuildMediaPath(KindAudio, "track.mp3")
	b, _ := BuildMediaPath(KindAudio, "track.mp3")
	if a == b {
		t.Fatalf("expected unique object paths, got %s twice", a)
	}
}

func TestBuildMediaPath_RejectsUnknownKind(t *testing.T) {
	if _, err := BuildMediaPath(MediaKind("document"), "file.pdf"); err == nil {
		t.Fatalf("expected error for unsupported kind")
	}
}

func TestPublicURL_EscapesSegments(t *testing.T) {
	u := &Uploader{bucket: "gift-media"}
	got := u.PublicURL("media/image/abc def.png")
	want := "https://storage.googleapis.com/gift-media/media/image/abc%20def.png"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestPublicURL_UsesBaseOverride(t *testing.T) {
	u := &Uploader{bucket: "gift-media", publicBaseURL: "https://cdn.example.com"}
	got := u.PublicURL("/media/image/abc.png")
	want := "https://cdn.example.com/media/image/abc.png"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
