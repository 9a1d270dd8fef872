package imagery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const isoDate = "2006-01-02"

// DateFailure records a date skipped because the question could not be answered.
type DateFailure struct {
	Date    string `json:"date"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

// AcquireReport summarises one acquisition run.
type AcquireReport struct {
	Requested  int           `json:"requested"`
	Frames     int           `json:"frames"`
	NoCoverage []string      `json:"noCoverage,omitempty"`
	NoImage    []string      `json:"noImage,omitempty"`
	Failures   []DateFailure `json:"failures,omitempty"`
}

// Err joins every per-date failure into one error, or returns nil.
func (r AcquireReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Date, f.Err))
	}
	return errors.Join(errs...)
}

// Acquirer walks a DateRange and collects one frame per date with imagery.
type Acquirer struct {
	client  Client
	images  ImageFetcher
	workers int
}

// NewAcquirer creates an Acquirer. workers <= 1 runs strictly sequentially.
func NewAcquirer(client Client, images ImageFetcher, workers int) *Acquirer {
	if workers < 1 {
		workers = 1
	}
	if rc, ok := client.(RangeClient); ok {
		client = rc.ForRange()
	}
	return &Acquirer{
		client:  client,
		images:  images,
		workers: workers,
	}
}

type sampleKind int

const (
	sampleFrame sampleKind = iota
	sampleNoCoverage
	sampleNoImage
	sampleFailed
)

type sample struct {
	kind  sampleKind
	date  time.Time
	image image.Image
	err   error
}

// Acquire issues exactly one metadata call per date in rng and returns the
// frames in date order. Dates without imagery or with failures are skipped.
func (a *Acquirer) Acquire(ctx context.Context, coord Coordinate, rng DateRange) (FrameSequence, AcquireReport) {
	dates := rng.Dates()
	results := make([]sample, len(dates))

	if a.workers <= 1 || len(dates) <= 1 {
		for i, d := range dates {
			results[i] = a.sample(ctx, coord, d)
		}
	} else {
		sem := semaphore.NewWeighted(int64(a.workers))
		var wg sync.WaitGroup
		for i, d := range dates {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = sample{kind: sampleFailed, date: d, err: &TransportError{Service: "imagery", Err: err}}
				continue
			}
			wg.Add(1)
			go func(i int, d time.Time) {
				defer wg.Done()
				defer sem.Release(1)
				results[i] = a.sample(ctx, coord, d)
			}(i, d)
		}
		wg.Wait()
	}

	report := AcquireReport{Requested: len(dates)}
	frames := make(FrameSequence, 0, len(dates))
	for _, r := range results {
		day := r.date.Format(isoDate)
		switch r.kind {
		case sampleFrame:
			frames = append(frames, Frame{Date: r.date, Image: r.image})
		case sampleNoCoverage:
			report.NoCoverage = append(report.NoCoverage, day)
		case sampleNoImage:
			report.NoImage = append(report.NoImage, day)
		case sampleFailed:
			report.Failures = append(report.Failures, DateFailure{Date: day, Message: r.err.Error(), Err: r.err})
		}
	}
	report.Frames = len(frames)

	if err := report.Err(); err != nil {
		log.Printf("acquire: %d of %d dates failed for %s: %v", len(report.Failures), report.Requested, coord, err)
	}
	return frames, report
}

func (a *Acquirer) sample(ctx context.Context, coord Coordinate, date time.Time) sample {
	rec, err := a.client.Fetch(ctx, coord, date)
	switch {
	case errors.Is(err, ErrNoCoverage):
		return sample{kind: sampleNoCoverage, date: date}
	case err != nil:
		return sample{kind: sampleFailed, date: date, err: err}
	case !rec.HasImage():
		return sample{kind: sampleNoImage, date: date}
	}

	img, err := a.images.FetchImage(ctx, rec.URL)
	if err != nil {
		return sample{kind: sampleFailed, date: date, err: err}
	}
	return sample{kind: sampleFrame, date: date, image: img}
}
