package staticmap

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"github.com/paulmach/orb/maptile"
)

// ErrTileFetch wraps every tile download or decode failure.
var ErrTileFetch = errors.New("tile fetch failed")

// TileSource returns the raster image of one slippy-map tile.
type TileSource interface {
	Tile(ctx context.Context, t maptile.Tile) (image.Image, error)
}

// HTTPTiles downloads tiles from a URL template.
type HTTPTiles struct {
	Template  string
	UserAgent string
	Client    *http.Client
}

// NewHTTPTiles returns a fetcher with a per-request timeout.
func NewHTTPTiles(template, userAgent string, timeout time.Duration) *HTTPTiles {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTiles{
		Template:  template,
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
	}
}

// Tile implements TileSource.
func (h *HTTPTiles) Tile(ctx context.Context, t maptile.Tile) (image.Image, error) {
	url := TileURL(h.Template, int(t.Z), int(t.X), int(t.Y))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTileFetch, err)
	}
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTileFetch, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", ErrTileFetch, url, resp.StatusCode)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTileFetch, url, err)
	}
	return img, nil
}
