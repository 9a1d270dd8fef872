package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/landsat-dashboard/internal/common"
	"github.com/i474232898/landsat-dashboard/internal/imagery"
	"github.com/sony/gobreaker"
)

const (
	// DefaultNASABaseURL is the Earth imagery assets endpoint.
	DefaultNASABaseURL = "https://api.nasa.gov/planetary/earth/assets"
	// DemoAPIKey is NASA's public, rate-limited key. It is the only key ever
	// placed in shareable links.
	DemoAPIKey = "DEMO_KEY"
	// DefaultDim is the width and height of the requested tile in degrees.
	DefaultDim = 0.1
)

// NASAConfig configures the imagery client.
type NASAConfig struct {
	BaseURL    string
	APIKey     string
	Dim        float64
	MaxRetries int
}

// NASAProvider implements imagery.Client against the NASA Earth API.
type NASAProvider struct {
	name    string
	apiKey  string
	baseURL string
	dim     float64
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewNASAProvider(client *http.Client, cfg NASAConfig) *NASAProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNASABaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = DemoAPIKey
	}
	if cfg.Dim <= 0 {
		cfg.Dim = DefaultDim
	}
	backoff := defaultBackoff()
	if cfg.MaxRetries > 0 {
		backoff.MaxRetries = cfg.MaxRetries
	}

	return &NASAProvider{
		name:    "nasa-earth",
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		dim:     cfg.Dim,
		// Any non-2xx answer, rate limiting included, is no coverage.
		httpCfg: HTTPClientConfig{
			Client:        client,
			Backoff:       backoff,
			PassRateLimit: true,
		},
		circuit: newCircuitBreaker("nasa-earth"),
		now:     time.Now,
	}
}

func (p *NASAProvider) Name() string {
	return p.name
}

// Fetch returns a record for any 2xx response, imagery.ErrNoCoverage for any
// other status and *imagery.TransportError when the API could not be reached.
func (p *NASAProvider) Fetch(ctx context.Context, coord imagery.Coordinate, date time.Time) (imagery.Record, error) {
	buildRequest := func() (*http.Request, error) {
		u := p.assetsURL(coord, date, p.apiKey)
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return imagery.Record{}, &imagery.TransportError{Service: p.name, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return imagery.Record{}, fmt.Errorf("%w: %s returned status %d", imagery.ErrNoCoverage, p.name, resp.StatusCode)
	}

	var payload map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return imagery.Record{}, &imagery.TransportError{Service: p.name, Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload == nil {
		payload = map[string]any{}
	}

	imageURL, _ := payload["url"].(string)

	return imagery.Record{
		Coordinate: coord,
		Date:       date,
		URL:        imageURL,
		Metadata:   payload,
		FetchedAt:  p.now().UTC(),
	}, nil
}

// ForRange returns a client sharing this one's settings but not its breaker.
// A range acquisition must reach the API once per date, and its failures must
// not open the breaker for other sessions.
func (p *NASAProvider) ForRange() imagery.Client {
	scoped := *p
	scoped.circuit = nil
	return &scoped
}

// AccessURL builds a shareable link using the public demo key.
func (p *NASAProvider) AccessURL(coord imagery.Coordinate, date time.Time) string {
	return p.assetsURL(coord, date, DemoAPIKey)
}

func (p *NASAProvider) assetsURL(coord imagery.Coordinate, date time.Time, key string) string {
	values := url.Values{}
	values.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	values.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	values.Set("date", common.FormatDate(date))
	values.Set("dim", strconv.FormatFloat(p.dim, 'f', -1, 64))
	values.Set("api_key", key)
	return fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
}
