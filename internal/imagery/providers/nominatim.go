package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/landsat-dashboard/internal/imagery"
	"github.com/sony/gobreaker"
)

// DefaultNominatimBaseURL is the public OpenStreetMap Nominatim instance.
const DefaultNominatimBaseURL = "https://nominatim.openstreetmap.org"

// NominatimProvider implements imagery.Geocoder using OpenStreetMap Nominatim.
type NominatimProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewNominatimProvider creates a geocoder. Nominatim's usage policy requires
// an identifying User-Agent.
func NewNominatimProvider(client *http.Client, baseURL, userAgent string) *NominatimProvider {
	if baseURL == "" {
		baseURL = DefaultNominatimBaseURL
	}
	return &NominatimProvider{
		name:    "nominatim",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:    client,
			Backoff:   defaultBackoff(),
			UserAgent: userAgent,
		},
		circuit: newCircuitBreaker("nominatim"),
	}
}

func (p *NominatimProvider) Name() string {
	return p.name
}

func (p *NominatimProvider) Resolve(ctx context.Context, text string) (imagery.Coordinate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return imagery.Coordinate{}, imagery.ErrNotFound
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", text)
		values.Set("format", "json")
		values.Set("limit", "1")

		u := fmt.Sprintf("%s/search?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return imagery.Coordinate{}, &imagery.TransportError{Service: p.name, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return imagery.Coordinate{}, &imagery.TransportError{Service: p.name, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	var payload []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return imagery.Coordinate{}, &imagery.TransportError{Service: p.name, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(payload) == 0 {
		return imagery.Coordinate{}, imagery.ErrNotFound
	}

	lat, err := strconv.ParseFloat(payload[0].Lat, 64)
	if err != nil {
		return imagery.Coordinate{}, fmt.Errorf("%w: bad latitude %q", imagery.ErrNotFound, payload[0].Lat)
	}
	lon, err := strconv.ParseFloat(payload[0].Lon, 64)
	if err != nil {
		return imagery.Coordinate{}, fmt.Errorf("%w: bad longitude %q", imagery.ErrNotFound, payload[0].Lon)
	}
	return imagery.Coordinate{Lat: lat, Lon: lon}, nil
}
