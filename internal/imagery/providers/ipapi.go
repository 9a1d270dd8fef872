package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/landsat-dashboard/internal/imagery"
	"github.com/sony/gobreaker"
)

// DefaultIPAPIBaseURL is the ip-api.com JSON endpoint.
const DefaultIPAPIBaseURL = "http://ip-api.com"

// IPAPIProvider implements imagery.OriginLocator using ip-api.com.
type IPAPIProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewIPAPIProvider(client *http.Client, baseURL string) *IPAPIProvider {
	if baseURL == "" {
		baseURL = DefaultIPAPIBaseURL
	}
	return &IPAPIProvider{
		name:    "ip-api",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newCircuitBreaker("ip-api"),
	}
}

func (p *IPAPIProvider) Name() string {
	return p.name
}

// Locate resolves ip, or the caller's own origin when ip is empty.
func (p *IPAPIProvider) Locate(ctx context.Context, ip string) (imagery.Coordinate, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/json/%s?fields=status,message,lat,lon", p.baseURL, url.PathEscape(strings.TrimSpace(ip)))
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

	var payload struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return imagery.Coordinate{}, &imagery.TransportError{Service: p.name, Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.Status != "success" {
		return imagery.Coordinate{}, fmt.Errorf("%w: %s", imagery.ErrUnavailable, payload.Message)
	}
	return imagery.Coordinate{Lat: payload.Lat, Lon: payload.Lon}, nil
}
