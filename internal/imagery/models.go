package imagery

import (
	"fmt"
	"image"
	"time"
)

// Coordinate is a WGS84 point. Lat must be in [-90,90] and Lon in [-180,180].
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports ErrInvalidCoordinate when the point is outside geographic ranges.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Record is the metadata returned by the imagery API for one point and date.
// Metadata holds the upstream JSON object untouched.
type Record struct {
	Coordinate Coordinate     `json:"coordinate"`
	Date       time.Time      `json:"date"`
	URL        string         `json:"url,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	FetchedAt  time.Time      `json:"fetchedAt"`
}

// HasImage reports whether the record references a downloadable image.
func (r Record) HasImage() bool {
	return r.URL != ""
}

// Frame is one decoded image paired with the date it was captured for.
type Frame struct {
	Date  time.Time
	Image image.Image
}

// FrameSequence is ordered by Date ascending.
type FrameSequence []Frame

// Dates returns the frame dates in sequence order.
func (s FrameSequence) Dates() []time.Time {
	dates := make([]time.Time, 0, len(s))
	for _, f := range s {
		dates = append(dates, f.Date)
	}
	return dates
}

// Format is the container used for a rendered animation.
type Format string

const (
	FormatGIF Format = "gif"
	FormatAVI Format = "avi"
)

// ParseFormat maps user input to a Format; empty input yields def.
func ParseFormat(s string, def Format) (Format, error) {
	switch Format(s) {
	case "":
		return def, nil
	case FormatGIF, FormatAVI:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported animation format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatAVI {
		return "video/x-msvideo"
	}
	return "image/gif"
}

// Artifact is a rendered animation on disk.
type Artifact struct {
	Path      string    `json:"path"`
	Format    Format    `json:"format"`
	Frames    int       `json:"frames"`
	Dates     []string  `json:"dates"`
	CreatedAt time.Time `json:"createdAt"`
}
