package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/landsat-dashboard/internal/common"
	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

// GoogleGeocoderProvider implements imagery.Geocoder with the Google
// Geocoding API through kelvins/geocoder.
type GoogleGeocoderProvider struct {
	name   string
	apiKey string
}

// geocoder.ApiKey is package-global, so calls are serialised.
var googleKeyMu sync.Mutex

func NewGoogleGeocoderProvider(apiKey string) *GoogleGeocoderProvider {
	return &GoogleGeocoderProvider{
		name:   "google",
		apiKey: apiKey,
	}
}

func (p *GoogleGeocoderProvider) Name() string {
	return p.name
}

func (p *GoogleGeocoderProvider) Resolve(ctx context.Context, text string) (imagery.Coordinate, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return imagery.Coordinate{}, imagery.ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return imagery.Coordinate{}, &imagery.TransportError{Service: p.name, Err: err}
	}

	loc, err := p.geocode(text)
	if err != nil {
		if common.HasAny(err.Error(), "no results") {
			return imagery.Coordinate{}, imagery.ErrNotFound
		}
		return imagery.Coordinate{}, &imagery.TransportError{Service: p.name, Err: err}
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return imagery.Coordinate{}, imagery.ErrNotFound
	}
	return imagery.Coordinate{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}

// geocode calls the library with the key installed. The library splices the
// address into the URL unescaped and indexes the first result for statuses it
// does not know, so the text is escaped here and a panic becomes an error.
func (p *GoogleGeocoderProvider) geocode(text string) (loc geocoder.Location, err error) {
	googleKeyMu.Lock()
	defer googleKeyMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected geocoding response: %v", r)
		}
	}()

	geocoder.ApiKey = p.apiKey
	return geocoder.Geocoding(geocoder.Address{Street: url.QueryEscape(text)})
}
