package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/landsat-dashboard/internal/imagery"
	"github.com/i474232898/landsat-dashboard/internal/store"
)

type stubGeocoder struct{}

func (stubGeocoder) Name() string { return "stub" }

func (stubGeocoder) Resolve(ctx context.Context, text string) (imagery.Coordinate, error) {
	if text == "Houston" {
		return imagery.Coordinate{Lat: 29.7604, Lon: -95.3698}, nil
	}
	return imagery.Coordinate{}, imagery.ErrNotFound
}

// stubClient has coverage everywhere except on the equator.
type stubClient struct{}

func (stubClient) Fetch(ctx context.Context, coord imagery.Coordinate, date time.Time) (imagery.Record, error) {
	if coord.Lat == 0 {
		return imagery.Record{}, fmt.Errorf("%w: status 404", imagery.ErrNoCoverage)
	}
	day := date.Format("2006-01-02")
	return imagery.Record{
		Coordinate: coord,
		Date:       date,
		URL:        "https://img.test/" + day + ".png",
		Metadata:   map[string]any{"date": day, "id": "LC8_L1T", "url": "https://img.test/" + day + ".png"},
	}, nil
}

type stubImages struct{}

func (stubImages) FetchImage(ctx context.Context, url string) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

type stubRenderer struct {
	dir string
}

func (r stubRenderer) Render(frames imagery.FrameSequence, format imagery.Format) (imagery.Artifact, error) {
	f, err := os.CreateTemp(r.dir, "animation-*."+string(format))
	if err != nil {
		return imagery.Artifact{}, err
	}
	_, _ = f.WriteString("GIF89a")
	f.Close()
	return imagery.Artifact{Path: f.Name(), Format: format, Frames: len(frames)}, nil
}

type stubNotifier struct {
	sent []imagery.Message
}

func (n *stubNotifier) Send(ctx context.Context, msg imagery.Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *stubNotifier) {
	t.Helper()
	notifier := &stubNotifier{}
	svc := imagery.NewService(imagery.Dependencies{
		Geocoder: stubGeocoder{},
		Client:   stubClient{},
		Acquirer: imagery.NewAcquirer(stubClient{}, stubImages{}, 1),
		Renderer: stubRenderer{dir: t.TempDir()},
		Notifier: notifier,
	})
	sessions := store.NewSessionStore()
	t.Cleanup(sessions.Close)

	app := fiber.New()
	RegisterRoutes(app, svc, sessions, time.Minute)
	return app, notifier
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func newSession(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, body := call(t, app, http.MethodPost, "/api/v1/sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("session id missing: %v", body)
	}
	return id
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

func TestSessionLifecycle(t *testing.T) {
	app, _ := newTestApp(t)
	id := newSession(t, app)

	resp, _ := call(t, app, http.MethodGet, "/api/v1/sessions/"+id, nil)
	expectStatus(t, resp, http.StatusOK)

	resp, _ = call(t, app, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	expectStatus(t, resp, http.StatusNoContent)

	resp, _ = call(t, app, http.MethodGet, "/api/v1/sessions/"+id, nil)
	expectStatus(t, resp, http.StatusNotFound)
}

// TestLocationValidation verifies that directly entered coordinates are range checked.
func TestLocationValidation(t *testing.T) {
	app, _ := newTestApp(t)
	id := newSession(t, app)
	path := "/api/v1/sessions/" + id + "/location"

	resp, _ := call(t, app, http.MethodPut, path, map[string]any{"lat": 95.0, "lon": 10.0})
	expectStatus(t, resp, http.StatusBadRequest)

	resp, _ = call(t, app, http.MethodPut, path, map[string]any{"lon": 10.0})
	expectStatus(t, resp, http.StatusBadRequest)

	resp, body := call(t, app, http.MethodPut, path, map[string]any{"lat": 0.0, "lon": 0.0})
	expectStatus(t, resp, http.StatusOK)
	if body["coordinate"] == nil {
		t.Fatalf("coordinate missing from response: %v", body)
	}
}

func TestGeocodeNotFoundKeepsLocation(t *testing.T) {
	app, _ := newTestApp(t)
	id := newSession(t, app)
	base := "/api/v1/sessions/" + id

	resp, _ := call(t, app, http.MethodPost, base+"/location/geocode", map[string]string{"query": "Houston"})
	expectStatus(t, resp, http.StatusOK)

	resp, _ = call(t, app, http.MethodPost, base+"/location/geocode", map[string]string{"query": "Nowhere12345XYZ"})
	expectStatus(t, resp, http.StatusNotFound)

	_, body := call(t, app, http.MethodGet, base, nil)
	coord, _ := body["coordinate"].(map[string]any)
	if coord == nil || coord["lat"] != 29.7604 {
		t.Fatalf("expected Houston to remain selected, got %v", body["coordinate"])
	}
}

func TestImageryAndExport(t *testing.T) {
	app, _ := newTestApp(t)
	id := newSession(t, app)
	base := "/api/v1/sessions/" + id

	resp, _ := call(t, app, http.MethodPost, base+"/imagery", map[string]string{"date": "2023-01-01"})
	expectStatus(t, resp, http.StatusConflict)

	resp, _ = call(t, app, http.MethodGet, base+"/imagery/export?format=csv", nil)
	expectStatus(t, resp, http.StatusConflict)

	call(t, app, http.MethodPut, base+"/location", map[string]any{"lat": 29.78, "lon": -95.33})

	resp, _ = call(t, app, http.MethodPost, base+"/imagery", map[string]string{"date": "01/02/2023"})
	expectStatus(t, resp, http.StatusBadRequest)

	resp, body := call(t, app, http.MethodPost, base+"/imagery", map[string]string{"date": "2023-01-01"})
	expectStatus(t, resp, http.StatusOK)
	if body["url"] != "https://img.test/2023-01-01.png" {
		t.Fatalf("unexpected record: %v", body)
	}

	resp, _ = call(t, app, http.MethodGet, base+"/imagery/export?format=csv", nil)
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "landsat_data.csv") {
		t.Fatalf("unexpected content disposition %q", cd)
	}

	resp, _ = call(t, app, http.MethodGet, base+"/imagery/export?format=xml", nil)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestImageryNoCoverage(t *testing.T) {
	app, _ := newTestApp(t)
	id := newSession(t, app)
	base := "/api/v1/sessions/" + id

	call(t, app, http.MethodPut, base+"/location", map[string]any{"lat": 0.0, "lon": 10.0})
	resp, _ := call(t, app, http.MethodPost, base+"/imagery", map[string]string{"date": "2023-01-01"})
	expectStatus(t, resp, http.StatusNotFound)
}

func TestAnimation(t *testing.T) {
	app, _ := newTestApp(t)
	id := newSession(t, app)
	base := "/api/v1/sessions/" + id

	resp, _ := call(t, app, http.MethodGet, base+"/animation", nil)
	expectStatus(t, resp, http.StatusConflict)

	call(t, app, http.MethodPut, base+"/location", map[string]any{"lat": 0.0, "lon": 10.0})
	resp, body := call(t, app, http.MethodPost, base+"/animation", map[string]string{"start": "2023-01-01", "end": "2023-03-01"})
	expectStatus(t, resp, http.StatusUnprocessableEntity)
	report, _ := body["report"].(map[string]any)
	if report == nil || report["requested"] != float64(3) {
		t.Fatalf("expected report with 3 requested dates, got %v", body)
	}

	resp, _ = call(t, app, http.MethodPost, base+"/animation", map[string]string{"start": "2023-01-01", "end": "2023-03-01", "format": "mp4"})
	expectStatus(t, resp, http.StatusBadRequest)

	call(t, app, http.MethodPut, base+"/location", map[string]any{"lat": 29.78, "lon": -95.33})
	resp, body = call(t, app, http.MethodPost, base+"/animation", map[string]string{"start": "2023-01-01", "end": "2023-03-01"})
	expectStatus(t, resp, http.StatusOK)
	art, _ := body["artifact"].(map[string]any)
	if art == nil || art["frames"] != float64(3) || art["format"] != "gif" {
		t.Fatalf("unexpected artifact: %v", body)
	}

	resp, _ = call(t, app, http.MethodGet, base+"/animation", nil)
	expectStatus(t, resp, http.StatusOK)
}

func TestNotify(t *testing.T) {
	app, notifier := newTestApp(t)
	id := newSession(t, app)
	base := "/api/v1/sessions/" + id

	resp, _ := call(t, app, http.MethodPost, base+"/notify", map[string]string{"recipient": "not-an-email"})
	expectStatus(t, resp, http.StatusBadRequest)

	resp, _ = call(t, app, http.MethodPost, base+"/notify", map[string]string{"recipient": "user@example.com"})
	expectStatus(t, resp, http.StatusConflict)

	call(t, app, http.MethodPut, base+"/location", map[string]any{"lat": 29.78, "lon": -95.33})
	resp, _ = call(t, app, http.MethodPost, base+"/notify", map[string]string{"recipient": "user@example.com"})
	expectStatus(t, resp, http.StatusOK)

	if len(notifier.sent) != 1 || notifier.sent[0].To != "user@example.com" {
		t.Fatalf("expected one message to user@example.com, got %+v", notifier.sent)
	}
}
