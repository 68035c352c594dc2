package services

import (
	"context"
	"io"
	"time"

	domain "github.com/giftwrap/api/internal/domain"
	"github.com/giftwrap/api/internal/gate"
)

// GateState is the gate's answer to "where does this visitor stand".
type GateState struct {
	Stage        gate.Stage
	UnlockAt     time.Time
	ServerNow    time.Time
	Unlocked     bool
	Opened       bool
	MusicPlaying bool
	AdminBypass  bool
}

// UnlockCommand carries the input for an unlock attempt.
type UnlockCommand struct {
	Flags gate.Flags
	Admin bool
}

// GateService owns the unlock state machine and route gating decisions.
type GateService interface {
	// State reports the visitor's current stage and the active unlock time.
	State(ctx context.Context, flags gate.Flags) (GateState, error)
	// Unlock attempts the locked to unlocked transition. It fails while the
	// unlock time is in the future unless the caller holds admin bypass.
	Unlock(ctx context.Context, cmd UnlockCommand) (GateState, error)
	// Open performs the unlocked to opened transition. Opening before
	// unlocking fails.
	Open(ctx context.Context, cmd UnlockCommand) (GateState, error)
	// Decide evaluates the route interceptor for a page path.
	Decide(ctx context.Context, path string, flags gate.Flags) (gate.Decision, error)
	// UnlockTime resolves the currently configured unlock time.
	UnlockTime(ctx context.Context) (time.Time, error)
}

// ContentUpdateResult reports the per-key outcome of a content update.
type ContentUpdateResult struct {
	Key   string
	Value string
	Err   error
}

// ContentService exposes the editable content fields with defaults applied.
type ContentService interface {
	// GetAll returns the effective content map: stored values overlaid on
	// the built-in defaults. When the store cannot be read it returns the
	// defaults alone.
	GetAll(ctx context.Context) (map[string]string, error)
	// Update upserts each supplied key independently and reports per-key
	// outcomes. One failing key does not abort the rest.
	Update(ctx context.Context, fields map[string]string) ([]ContentUpdateResult, error)
	// InvalidateCache drops the cached snapshot so the next read hits the
	// repository.
	InvalidateCache()
}

// MediaUploadCommand carries a single file upload.
type MediaUploadCommand struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// MediaService validates and stores uploaded media files.
type MediaService interface {
	Upload(ctx context.Context, cmd MediaUploadCommand) (domain.UploadedMedia, error)
}

// SystemService provides health reports for the readiness endpoint.
type SystemService interface {
	HealthReport(ctx context.Context) (domain.SystemHealthReport, error)
}

// ContentEventPublisher announces content changes to other instances.
type ContentEventPublisher interface {
	PublishContentUpdated(ctx context.Context, keys []string) (string, error)
}
