package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	domain "github.com/giftwrap/api/internal/domain"
	pstorage "github.com/giftwrap/api/internal/platform/storage"
)

const (
	maxImageUploadSize = int64(10 * 1024 * 1024)  // 10 MiB
	maxVideoUploadSize = int64(100 * 1024 * 1024) // 100 MiB
	maxAudioUploadSize = int64(100 * 1024 * 1024) // 100 MiB
)

var (
	// ErrMediaInvalidInput indicates the caller provided an invalid argument.
	ErrMediaInvalidInput = errors.New("media: invalid input")
	// ErrMediaTooLarge indicates the file exceeds the ceiling for its kind.
	ErrMediaTooLarge = errors.New("media: file too large")
	// ErrMediaUnsupportedType indicates a content type outside image, video and audio.
	ErrMediaUnsupportedType = errors.New("media: unsupported content type")
	// ErrMediaStorageFailure wraps upload failures from the bucket.
	ErrMediaStorageFailure = errors.New("media: storage failure")
)

var mediaSizeCeilings = map[pstorage.MediaKind]int64{
	pstorage.KindImage: maxImageUploadSize,
	pstorage.KindVideo: maxVideoUploadSize,
	pstorage.KindAudio: maxAudioUploadSize,
}

// MediaUploader abstracts the bucket uploader for tests.
type MediaUploader interface {
	Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (pstorage.UploadedObject, error)
	Delete(ctx context.Context, objectPath string) error
}

// MediaServiceDeps wires dependencies for the media service implementation.
type MediaServiceDeps struct {
	Uploader MediaUploader
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type mediaService struct {
	uploader MediaUploader
	clock    func() time.Time
	logger   func(context.Context, string, map[string]any)
}

// NewMediaService constructs a MediaService backed by the provided dependencies.
func NewMediaService(deps MediaServiceDeps) (MediaService, error) {
	if deps.Uploader == nil {
		return nil, errors.New("media service: uploader is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &mediaService{
		uploader: deps.Uploader,
		clock:    func() time.Time { return clock().UTC() },
		logger:   logger,
	}, nil
}

func (s *mediaService) Upload(ctx context.Context, cmd MediaUploadCommand) (domain.UploadedMedia, error) {
	if cmd.Body == nil {
		return domain.UploadedMedia{}, fmt.Errorf("%w: body is required", ErrMediaInvalidInput)
	}

	contentType := strings.ToLower(strings.TrimSpace(cmd.ContentType))
	if contentType == "" {
		return domain.UploadedMedia{}, fmt.Errorf("%w: content_type is required", ErrMediaInvalidInput)
	}
	kind := pstorage.KindForContentType(contentType)
	if kind == "" {
		return domain.UploadedMedia{}, fmt.Errorf("%w: %s", ErrMediaUnsupportedType, contentType)
	}

	ceiling := mediaSizeCeilings[kind]
	if cmd.SizeBytes <= 0 {
		return domain.UploadedMedia{}, fmt.Errorf("%w: size must be positive", ErrMediaInvalidInput)
	}
	if cmd.SizeBytes > ceiling {
		return domain.UploadedMedia{}, fmt.Errorf("%w: %d bytes exceeds the %s ceiling (%d)", ErrMediaTooLarge, cmd.SizeBytes, kind, ceiling)
	}

	objectPath, err := pstorage.BuildMediaPath(kind, cmd.FileName)
	if err != nil {
		return domain.UploadedMedia{}, fmt.Errorf("%w: %v", ErrMediaInvalidInput, err)
	}

	s.logger(ctx, "media.upload.started", map[string]any{
		"kind":        string(kind),
		"contentType": contentType,
		"size":        cmd.SizeBytes,
	})

	// A declared size below the real one is caught here: the reader is
	// capped one byte past the ceiling so oversized bodies fail fast.
	body := io.LimitReader(cmd.Body, ceiling+1)
	object, err := s.uploader.Upload(ctx, objectPath, contentType, body)
	if err != nil {
		return domain.UploadedMedia{}, fmt.Errorf("%w: %v", ErrMediaStorageFailure, err)
	}
	if object.Size > ceiling {
		// The declared size lied; the committed object must not linger.
		if deleteErr := s.uploader.Delete(ctx, object.ObjectPath); deleteErr != nil {
			s.logger(ctx, "media.upload.orphan", map[string]any{
				"path":  object.ObjectPath,
				"error": deleteErr.Error(),
			})
		}
		return domain.UploadedMedia{}, fmt.Errorf("%w: body exceeds the %s ceiling (%d)", ErrMediaTooLarge, kind, ceiling)
	}

	uploaded := domain.UploadedMedia{
		Kind:        string(kind),
		ObjectPath:  object.ObjectPath,
		URL:         object.URL,
		ContentType: contentType,
		SizeBytes:   object.Size,
		UploadedAt:  s.clock(),
	}

	s.logger(ctx, "media.upload.completed", map[string]any{
		"kind": string(kind),
		"path": uploaded.ObjectPath,
		"size": uploaded.SizeBytes,
	})
	return uploaded, nil
}
