package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

func TestNominatimResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "landsat-test", r.Header.Get("User-Agent"))
		switch r.URL.Query().Get("q") {
		case "Houston":
			_, _ = w.Write([]byte(`[{"lat":"29.7589382","lon":"-95.3676974","display_name":"Houston, Texas"}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.Client(), srv.URL, "landsat-test")

	coord, err := p.Resolve(context.Background(), "Houston")
	require.NoError(t, err)
	assert.InDelta(t, 29.7589382, coord.Lat, 1e-9)
	assert.InDelta(t, -95.3676974, coord.Lon, 1e-9)

	_, err = p.Resolve(context.Background(), "Nowhere12345XYZ")
	assert.ErrorIs(t, err, imagery.ErrNotFound)

	_, err = p.Resolve(context.Background(), "  ")
	assert.ErrorIs(t, err, imagery.ErrNotFound)
}

func TestNominatimServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewNominatimProvider(srv.Client(), srv.URL, "").Resolve(context.Background(), "Paris")
	assert.Equal(t, imagery.OutcomeTransport, imagery.Classify(err))
}

func TestIPAPILocate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/json/8.8.8.8", "/json/":
			_, _ = w.Write([]byte(`{"status":"success","lat":37.751,"lon":-97.822}`))
		default:
			_, _ = w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
		}
	}))
	defer srv.Close()

	p := NewIPAPIProvider(srv.Client(), srv.URL)

	coord, err := p.Locate(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, imagery.Coordinate{Lat: 37.751, Lon: -97.822}, coord)

	_, err = p.Locate(context.Background(), "")
	require.NoError(t, err)

	_, err = p.Locate(context.Background(), "10.0.0.1")
	assert.ErrorIs(t, err, imagery.ErrUnavailable)
}

// fakeGoogle serves Geocoding API responses keyed by the decoded address.
func fakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("address") {
		case "Lisbon":
			assert.Equal(t, "key", r.URL.Query().Get("key"))
			_, _ = w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":38.72,"lng":-9.14}}}]}`))
		case "Rock & Roll Hall of Fame":
			_, _ = w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":41.5085,"lng":-81.6954}}}]}`))
		case "Nowhere12345XYZ":
			_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
		case "Denied":
			_, _ = w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`))
		default:
			_, _ = w.Write([]byte(`{"status":"OVER_DAILY_LIMIT","results":[]}`))
		}
	}))
	t.Cleanup(srv.Close)

	prev := geocoder.ApiUrl
	geocoder.ApiUrl = srv.URL + "/maps/api/geocode/json?"
	t.Cleanup(func() { geocoder.ApiUrl = prev })
	return srv
}

func TestGoogleGeocoderResolve(t *testing.T) {
	fakeGoogle(t)
	p := NewGoogleGeocoderProvider("key")

	coord, err := p.Resolve(context.Background(), "Lisbon")
	require.NoError(t, err)
	assert.Equal(t, imagery.Coordinate{Lat: 38.72, Lon: -9.14}, coord)

	coord, err = p.Resolve(context.Background(), "Rock & Roll Hall of Fame")
	require.NoError(t, err, "reserved characters must reach the upstream intact")
	assert.Equal(t, imagery.Coordinate{Lat: 41.5085, Lon: -81.6954}, coord)

	_, err = p.Resolve(context.Background(), "Nowhere12345XYZ")
	assert.ErrorIs(t, err, imagery.ErrNotFound)

	_, err = p.Resolve(context.Background(), "Denied")
	assert.Equal(t, imagery.OutcomeTransport, imagery.Classify(err))
	assert.Contains(t, err.Error(), "API key is invalid")
}

func TestGoogleGeocoderUnknownStatus(t *testing.T) {
	fakeGoogle(t)
	p := NewGoogleGeocoderProvider("key")

	var err error
	require.NotPanics(t, func() {
		_, err = p.Resolve(context.Background(), "Quota")
	})
	assert.Equal(t, imagery.OutcomeTransport, imagery.Classify(err))

	// The next call must not be blocked by the failed one.
	done := make(chan error, 1)
	go func() {
		_, err := p.Resolve(context.Background(), "Lisbon")
		done <- err
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("geocoder stayed locked after an unexpected response")
	}
}

type stubGeocoder struct {
	coord imagery.Coordinate
	err   error
	calls int
}

func (s *stubGeocoder) Name() string { return "stub" }

func (s *stubGeocoder) Resolve(ctx context.Context, text string) (imagery.Coordinate, error) {
	s.calls++
	return s.coord, s.err
}

func TestGeocoderChain(t *testing.T) {
	miss := &stubGeocoder{err: imagery.ErrNotFound}
	down := &stubGeocoder{err: &imagery.TransportError{Service: "stub", Err: errors.New("timeout")}}
	hit := &stubGeocoder{coord: imagery.Coordinate{Lat: 1, Lon: 2}}

	coord, err := NewGeocoderChain(miss, down, hit).Resolve(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, imagery.Coordinate{Lat: 1, Lon: 2}, coord)

	_, err = NewGeocoderChain(miss, &stubGeocoder{err: imagery.ErrNotFound}).Resolve(context.Background(), "x")
	assert.ErrorIs(t, err, imagery.ErrNotFound)

	_, err = NewGeocoderChain(miss, down).Resolve(context.Background(), "x")
	assert.Equal(t, imagery.OutcomeTransport, imagery.Classify(err))
}
