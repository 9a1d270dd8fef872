package imagery

import (
	"context"
	"image"
	"time"
)

// Geocoder resolves free text to a single coordinate. A miss is ErrNotFound.
type Geocoder interface {
	Name() string
	Resolve(ctx context.Context, text string) (Coordinate, error)
}

// OriginLocator resolves an IP address to a coordinate. An empty ip means the
// caller's own network origin. A miss is ErrUnavailable.
type OriginLocator interface {
	Locate(ctx context.Context, ip string) (Coordinate, error)
}

// Client abstracts the satellite imagery metadata API.
type Client interface {
	Fetch(ctx context.Context, coord Coordinate, date time.Time) (Record, error)
}

// RangeClient is implemented by clients that need a separate instance for
// range acquisitions, where every date must reach the upstream.
type RangeClient interface {
	ForRange() Client
}

// AccessLinker builds a shareable link to the imagery API for a point and date.
type AccessLinker interface {
	AccessURL(coord Coordinate, date time.Time) string
}

// ImageFetcher dereferences a record URL into a decoded image.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) (image.Image, error)
}

// Renderer turns a non-empty FrameSequence into an Artifact on disk.
type Renderer interface {
	Render(frames FrameSequence, format Format) (Artifact, error)
}

// Message is a single outbound notification.
type Message struct {
	Subject        string
	HTMLBody       string
	To             string
	AttachmentPath string
}

// Notifier delivers one message. Failures are *DeliveryError.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Archive persists fetched records for later review.
type Archive interface {
	SaveRecord(ctx context.Context, sessionID string, rec Record) error
	ListRecords(ctx context.Context, sessionID string, limit int) ([]Record, error)
}
