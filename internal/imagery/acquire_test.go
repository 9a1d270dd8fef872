package imagery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"
)

type fetchResult struct {
	rec Record
	err error
}

// fakeClient answers with an image URL for every date unless overridden.
type fakeClient struct {
	mu     sync.Mutex
	calls  []time.Time
	byDate map[string]fetchResult
	delay  func(time.Time) time.Duration
}

func (f *fakeClient) Fetch(ctx context.Context, coord Coordinate, date time.Time) (Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, date)
	f.mu.Unlock()

	if f.delay != nil {
		time.Sleep(f.delay(date))
	}
	key := date.Format(isoDate)
	if r, ok := f.byDate[key]; ok {
		return r.rec, r.err
	}
	return Record{
		Coordinate: coord,
		Date:       date,
		URL:        "https://images.test/" + key + ".png",
		Metadata:   map[string]any{"date": key},
	}, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeImages struct {
	fail map[string]error
}

func (f *fakeImages) FetchImage(ctx context.Context, url string) (image.Image, error) {
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), nil
}

var testCoord = Coordinate{Lat: 29.78, Lon: -95.33}

func TestAcquireSkipsDatesWithoutImagery(t *testing.T) {
	client := &fakeClient{byDate: map[string]fetchResult{
		"2023-01-31": {err: fmt.Errorf("%w: status 404", ErrNoCoverage)},
		"2023-03-01": {rec: Record{Metadata: map[string]any{"id": "x"}}},
	}}
	acq := NewAcquirer(client, &fakeImages{}, 1)

	frames, report := acq.Acquire(context.Background(), testCoord, NewDateRange(day("2023-01-01"), day("2023-03-01"), 30))

	if client.callCount() != 3 {
		t.Fatalf("expected exactly 3 upstream calls, got %d", client.callCount())
	}
	if len(frames) != 1 || frames[0].Date.Format(isoDate) != "2023-01-01" {
		t.Fatalf("expected a single frame for 2023-01-01, got %v", frames.Dates())
	}
	if report.Requested != 3 || report.Frames != 1 {
		t.Fatalf("unexpected report counts: %+v", report)
	}
	if len(report.NoCoverage) != 1 || report.NoCoverage[0] != "2023-01-31" {
		t.Fatalf("expected no coverage on 2023-01-31, got %v", report.NoCoverage)
	}
	if len(report.NoImage) != 1 || report.NoImage[0] != "2023-03-01" {
		t.Fatalf("expected no image on 2023-03-01, got %v", report.NoImage)
	}
	if err := report.Err(); err != nil {
		t.Fatalf("skipped dates are not failures, got %v", err)
	}
}

func TestAcquireReportsTransportFailures(t *testing.T) {
	boom := &TransportError{Service: "imagery", Err: errors.New("connection refused")}
	client := &fakeClient{byDate: map[string]fetchResult{
		"2023-01-31": {err: boom},
	}}
	images := &fakeImages{fail: map[string]error{
		"https://images.test/2023-03-01.png": &TransportError{Service: "image", Err: errors.New("reset")},
	}}
	acq := NewAcquirer(client, images, 1)

	frames, report := acq.Acquire(context.Background(), testCoord, NewDateRange(day("2023-01-01"), day("2023-03-01"), 30))

	if len(frames) != 1 {
		t.Fatalf("expected the loop to continue past failures, got %d frames", len(frames))
	}
	if len(report.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %+v", report.Failures)
	}
	err := report.Err()
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected joined error to contain a TransportError, got %v", err)
	}
	if Classify(err) != OutcomeTransport {
		t.Fatalf("expected transport outcome, got %s", Classify(err))
	}
}

func TestAcquireParallelKeepsDateOrder(t *testing.T) {
	rng := NewDateRange(day("2022-01-01"), day("2022-12-31"), 30)
	last := rng.End
	client := &fakeClient{
		// Earlier dates answer last.
		delay: func(d time.Time) time.Duration {
			return time.Duration(last.Sub(d).Hours()/24) * 50 * time.Microsecond
		},
	}
	acq := NewAcquirer(client, &fakeImages{}, 4)

	frames, report := acq.Acquire(context.Background(), testCoord, rng)

	want := rng.Dates()
	if client.callCount() != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), client.callCount())
	}
	if len(frames) != len(want) || report.Frames != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(frames))
	}
	for i, f := range frames {
		if !f.Date.Equal(want[i]) {
			t.Fatalf("frame %d out of order: expected %s, got %s", i, want[i].Format(isoDate), f.Date.Format(isoDate))
		}
	}
}

func TestAcquireEmptyRange(t *testing.T) {
	client := &fakeClient{}
	frames, report := NewAcquirer(client, &fakeImages{}, 2).
		Acquire(context.Background(), testCoord, NewDateRange(day("2023-03-01"), day("2023-01-01"), 30))

	if len(frames) != 0 || report.Requested != 0 || client.callCount() != 0 {
		t.Fatalf("inverted range must not call upstream: frames=%d report=%+v calls=%d", len(frames), report, client.callCount())
	}
}
