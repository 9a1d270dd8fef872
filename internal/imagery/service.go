package imagery

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Dependencies are the collaborators a Service orchestrates. Locator,
// Notifier, Archive and Linker are optional.
type Dependencies struct {
	Geocoder Geocoder
	Locator  OriginLocator
	Client   Client
	Acquirer *Acquirer
	Renderer Renderer
	Notifier Notifier
	Archive  Archive
	Linker   AccessLinker

	StepDays      int
	DefaultFormat Format
	Now           func() time.Time
}

// Service implements the dashboard operations on an explicit Session.
// A failing operation never mutates the session.
type Service struct {
	deps Dependencies
}

// NewService creates a new Service.
func NewService(deps Dependencies) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.StepDays <= 0 {
		deps.StepDays = DefaultStepDays
	}
	if deps.DefaultFormat == "" {
		deps.DefaultFormat = FormatGIF
	}
	return &Service{deps: deps}
}

// DefaultFormat is the animation format used when callers do not choose one.
func (s *Service) DefaultFormat() Format {
	return s.deps.DefaultFormat
}

// SetLocation stores a directly entered coordinate.
func (s *Service) SetLocation(sess *Session, coord Coordinate) error {
	if err := coord.Validate(); err != nil {
		return err
	}
	sess.SetCoordinate(coord)
	return nil
}

// ResolveLocation geocodes text and stores the result on success.
func (s *Service) ResolveLocation(ctx context.Context, sess *Session, text string) (Coordinate, error) {
	if strings.TrimSpace(text) == "" {
		return Coordinate{}, ErrNotFound
	}
	coord, err := s.deps.Geocoder.Resolve(ctx, text)
	if err != nil {
		return Coordinate{}, err
	}
	if err := coord.Validate(); err != nil {
		return Coordinate{}, err
	}
	sess.SetCoordinate(coord)
	log.Printf("INFO: session %s resolved %q to %s", sess.ID(), text, coord)
	return coord, nil
}

// ResolveFromNetworkOrigin locates ip (or the service's own origin when
// empty) and stores the result on success.
func (s *Service) ResolveFromNetworkOrigin(ctx context.Context, sess *Session, ip string) (Coordinate, error) {
	if s.deps.Locator == nil {
		return Coordinate{}, ErrUnavailable
	}
	coord, err := s.deps.Locator.Locate(ctx, ip)
	if err != nil {
		return Coordinate{}, err
	}
	if err := coord.Validate(); err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	sess.SetCoordinate(coord)
	return coord, nil
}

// FetchImagery looks up imagery for the session location on date.
func (s *Service) FetchImagery(ctx context.Context, sess *Session, date time.Time) (Record, error) {
	coord, ok := sess.Coordinate()
	if !ok {
		return Record{}, ErrNoLocation
	}

	rec, err := s.deps.Client.Fetch(ctx, coord, date)
	if err != nil {
		return Record{}, err
	}
	sess.SetRecord(rec)

	if s.deps.Archive != nil {
		if err := s.deps.Archive.SaveRecord(ctx, sess.ID(), rec); err != nil {
			log.Printf("ERROR: failed to archive record for session %s: %v", sess.ID(), err)
		}
	}
	return rec, nil
}

// Animate acquires frames between start and end and renders them. The
// report is returned even when no artifact could be produced.
func (s *Service) Animate(ctx context.Context, sess *Session, start, end time.Time, format Format) (Artifact, AcquireReport, error) {
	coord, ok := sess.Coordinate()
	if !ok {
		return Artifact{}, AcquireReport{}, ErrNoLocation
	}
	if format == "" {
		format = s.deps.DefaultFormat
	}

	rng := NewDateRange(start, end, s.deps.StepDays)
	if n := rng.Len(); n > MaxSamples {
		return Artifact{}, AcquireReport{}, fmt.Errorf("%w: %d dates requested, limit is %d", ErrRangeTooLong, n, MaxSamples)
	}
	frames, report := s.deps.Acquirer.Acquire(ctx, coord, rng)
	if len(frames) == 0 {
		return Artifact{}, report, ErrEmptyInput
	}

	art, err := s.deps.Renderer.Render(frames, format)
	if err != nil {
		return Artifact{}, report, err
	}
	sess.ReplaceArtifact(art)

	log.Printf("INFO: session %s rendered %d frames to %s", sess.ID(), art.Frames, art.Path)
	return art, report, nil
}

// Notify emails a summary of the session to recipient, attaching the
// current animation when one exists.
func (s *Service) Notify(ctx context.Context, sess *Session, recipient string) error {
	if s.deps.Notifier == nil {
		return &DeliveryError{Recipient: recipient, Err: fmt.Errorf("mail relay is not configured")}
	}
	coord, ok := sess.Coordinate()
	if !ok {
		return ErrNoLocation
	}

	now := s.deps.Now()
	var (
		recPtr *Record
		artPtr *Artifact
		link   string
	)
	if rec, ok := sess.Record(); ok {
		recPtr = &rec
	}
	if art, ok := sess.Artifact(); ok {
		artPtr = &art
	}
	if s.deps.Linker != nil {
		link = s.deps.Linker.AccessURL(coord, now)
	}

	body, err := buildSummary(coord, recPtr, artPtr, link, now)
	if err != nil {
		return fmt.Errorf("build summary: %w", err)
	}

	msg := Message{
		Subject:  summarySubject,
		HTMLBody: body,
		To:       recipient,
	}
	if artPtr != nil {
		msg.AttachmentPath = artPtr.Path
	}
	return s.deps.Notifier.Send(ctx, msg)
}

// History lists archived records for the session, newest first.
func (s *Service) History(ctx context.Context, sess *Session, limit int) ([]Record, error) {
	if s.deps.Archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.deps.Archive.ListRecords(ctx, sess.ID(), limit)
}
