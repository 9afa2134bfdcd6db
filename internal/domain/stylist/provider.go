package stylist

import (
	"context"
	"time"
)

// Provider is the uniform capability contract every advice backend satisfies.
// Backends without image support must return an error carrying the
// images_unsupported code from GenerateImage so callers can fall back
// distinctly from transient failures.
type Provider interface {
	Key() string
	SupportsImages() bool
	GenerateAdvice(ctx context.Context, city, season string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (ImageRef, error)
}

// ImageRef is a provider image result: either a direct external URL or an
// embedded blob that still needs a stable retrieval handle.
type ImageRef struct {
	URL      string
	Data     []byte
	MimeType string
}

// IsData reports whether the result is an embedded blob rather than a URL.
func (r ImageRef) IsData() bool {
	return r.URL == "" && len(r.Data) > 0
}

// ProviderSource resolves configured backends for the orchestrator.
type ProviderSource interface {
	// Primary returns the backend configured to answer advice requests.
	Primary() (Provider, error)

	// ImageBackend returns an image-capable backend: the primary when it
	// supports images, otherwise a substitute.
	ImageBackend() (Provider, error)

	// PrimaryKey returns the configured primary key without constructing
	// the backend, for quota lookups and response payloads.
	PrimaryKey() string
}

// ImageBlob is an embedded image held by the transient store.
type ImageBlob struct {
	Data     []byte    `json:"data"`
	MimeType string    `json:"mimeType"`
	StoredAt time.Time `json:"storedAt"`
}

// ImageStore keeps embedded blobs addressable for a bounded retention
// window. Fetch reports ok=false for unknown or expired handles.
type ImageStore interface {
	Save(ctx context.Context, id string, blob ImageBlob) error
	Fetch(ctx context.Context, id string) (ImageBlob, bool, error)
}
