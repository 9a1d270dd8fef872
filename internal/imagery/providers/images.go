package providers

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"

	// Decoders for the formats imagery URLs commonly point at.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/i474232898/landsat-dashboard/internal/imagery"
	"github.com/sony/gobreaker"
)

// maxImageBytes caps a single downloaded image.
const maxImageBytes = 32 << 20

// ImageDownloader implements imagery.ImageFetcher. Decoded images are kept
// in a bounded LRU keyed by URL; a zero cache size disables caching.
type ImageDownloader struct {
	name    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	cache   *lru.Cache[string, image.Image]
}

func NewImageDownloader(client *http.Client, cacheSize int) (*ImageDownloader, error) {
	d := &ImageDownloader{
		name: "image-download",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff(),
		},
		circuit: newCircuitBreaker("image-download"),
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, image.Image](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create image cache: %w", err)
		}
		d.cache = cache
	}
	return d, nil
}

func (d *ImageDownloader) FetchImage(ctx context.Context, url string) (image.Image, error) {
	if d.cache != nil {
		if img, ok := d.cache.Get(url); ok {
			return img, nil
		}
	}

	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	}

	resp, err := doRequestWithResilience(ctx, d.httpCfg, d.circuit, buildRequest)
	if err != nil {
		return nil, &imagery.TransportError{Service: d.name, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, &imagery.TransportError{Service: d.name, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("decode image from %s: %w", url, err)
	}
	if d.cache != nil {
		d.cache.Add(url, img)
	}
	return img, nil
}
