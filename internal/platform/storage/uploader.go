package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const (
	defaultCacheControl  = "public, max-age=31536000, immutable"
	defaultUploadTimeout = 2 * time.Minute
)

var (
	errInvalidBucket      = errors.New("storage: bucket name is required")
	errInvalidObject      = errors.New("storage: object name is required")
	errContentTypeMissing = errors.New("storage: content type is required")
)

// UploadedObject describes a stored media object and its durable public URL.
type UploadedObject struct {
	Bucket      string
	ObjectPath  string
	ContentType string
	Size        int64
	URL         string
}

// Uploader streams media bytes to a bucket and returns the public URL the
// content store records as a field value.
type Uploader struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
	timeout       time.Duration
}

// UploaderOption customises uploader behaviour.
type UploaderOption func(*Uploader)

// WithPublicBaseURL overrides the URL prefix used for returned object URLs
// (e.g. a CDN host in front of the bucket).
func WithPublicBaseURL(base string) UploaderOption {
	return func(u *Uploader) {
		u.publicBaseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithUploadTimeout bounds a single object write.
func WithUploadTimeout(d time.Duration) UploaderOption {
	return func(u *Uploader) {
		if d > 0 {
			u.timeout = d
		}
	}
}

// NewUploader constructs an Uploader bound to one bucket.
func NewUploader(client *storage.Client, bucket string, opts ...UploaderOption) (*Uploader, error) {
	if client == nil {
		return nil, errors.New("storage: client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}

	u := &Uploader{
		client:  client,
		bucket:  bucket,
		timeout: defaultUploadTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u, nil
}

// Upload writes the object and returns its description. The write is bounded
// by the configured timeout; a failed write never leaves a partial object
// visible because the bucket writer only commits on Close.
func (u *Uploader) Upload(ctx context.Context, objectPath, contentType string, body io.Reader) (UploadedObject, error) {
	if u == nil || u.client == nil {
		return UploadedObject{}, errors.New("storage: uploader is not initialised")
	}
	objectPath = strings.Trim(strings.TrimSpace(objectPath), "/")
	if objectPath == "" {
		return UploadedObject{}, errInvalidObject
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return UploadedObject{}, errContentTypeMissing
	}
	if body == nil {
		return UploadedObject{}, errors.New("storage: body is required")
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	writer := u.client.Bucket(u.bucket).Object(objectPath).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = defaultCacheControl

	written, err := io.Copy(writer, body)
	if err != nil {
		_ = writer.Close()
		return UploadedObject{}, fmt.Errorf("storage: write object %s: %w", objectPath, err)
	}
	if err := writer.Close(); err != nil {
		return UploadedObject{}, fmt.Errorf("storage: commit object %s: %w", objectPath, err)
	}

	return UploadedObject{
		Bucket:      u.bucket,
		ObjectPath:  objectPath,
		ContentType: contentType,
		Size:        written,
		URL:         u.PublicURL(objectPath),
	}, nil
}

// Delete removes an object. Deleting an object that is already gone is not
// an error.
func (u *Uploader) Delete(ctx context.Context, objectPath string) error {
	if u == nil || u.client == nil {
		return errors.New("storage: uploader is not initialised")
	}
	objectPath = strings.Trim(strings.TrimSpace(objectPath), "/")
	if objectPath == "" {
		return errInvalidObject
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	err := u.client.Bucket(u.bucket).Object(objectPath).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("storage: delete object %s: %w", objectPath, err)
	}
	return nil
}

// PublicURL resolves the durable URL for an object path.
func (u *Uploader) PublicURL(objectPath string) string {
	objectPath = strings.Trim(strings.TrimSpace(objectPath), "/")
	if u.publicBaseURL != "" {
		return u.publicBaseURL + "/" + escapePath(objectPath)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, escapePath(objectPath))
}

func escapePath(objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
