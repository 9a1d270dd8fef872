package providers

import (
	"context"
	"errors"
	"log"

	"github.com/i474232898/landsat-dashboard/internal/imagery"
)

// GeocoderChain asks each geocoder in turn and returns the first match.
// It reports ErrNotFound only when every geocoder answered "not found";
// otherwise the first transport failure is returned.
type GeocoderChain struct {
	geocoders []imagery.Geocoder
}

func NewGeocoderChain(geocoders ...imagery.Geocoder) *GeocoderChain {
	return &GeocoderChain{geocoders: geocoders}
}

func (c *GeocoderChain) Name() string {
	return "chain"
}

func (c *GeocoderChain) Resolve(ctx context.Context, text string) (imagery.Coordinate, error) {
	var firstErr error
	for _, g := range c.geocoders {
		coord, err := g.Resolve(ctx, text)
		if err == nil {
			return coord, nil
		}
		if !errors.Is(err, imagery.ErrNotFound) {
			log.Printf("geocoder %s failed for %q: %v", g.Name(), text, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return imagery.Coordinate{}, firstErr
	}
	return imagery.Coordinate{}, imagery.ErrNotFound
}
