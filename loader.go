package loupe

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Fetcher loads and decodes the image named by src.
type Fetcher interface {
	Fetch(ctx context.Context, src string) (image.Image, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, src string) (image.Image, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, src string) (image.Image, error) {
	return f(ctx, src)
}

// ErrEmptySource is returned when src is blank.
var ErrEmptySource = errors.New("empty source")

// SourceFetcher loads http(s) URLs, file:// URLs and plain paths. It decodes
// PNG, JPEG, GIF, WebP, BMP and TIFF.
type SourceFetcher struct {
	// Client performs HTTP requests. Defaults to a client with a 30 second
	// timeout.
	Client *http.Client
}

var defaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// Fetch loads src. The context cancels an HTTP request in flight.
func (f SourceFetcher) Fetch(ctx context.Context, src string) (image.Image, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, ErrEmptySource
	}
	u, err := url.Parse(src)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return f.fetchHTTP(ctx, src)
		case "file":
			return decodeFile(u.Path)
		}
	}
	return decodeFile(src)
}

func (f SourceFetcher) fetchHTTP(ctx context.Context, src string) (image.Image, error) {
	client := f.Client
	if client == nil {
		client = defaultHTTPClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get: status %s", resp.Status)
	}
	return decode(resp.Body)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("decode %s: empty image", format)
	}
	return img, nil
}

// loadResult is the single value a fetch goroutine delivers.
type loadResult struct {
	img     image.Image
	err     error
	elapsed time.Duration
}

// startFetch runs f in a goroutine and returns a buffered channel that
// receives exactly one result.
func startFetch(ctx context.Context, f Fetcher, src string) <-chan loadResult {
	ch := make(chan loadResult, 1)
	go func() {
		start := time.Now()
		img, err := f.Fetch(ctx, src)
		if err == nil && img == nil {
			err = errors.New("fetcher returned no image")
		}
		ch <- loadResult{img: img, err: err, elapsed: time.Since(start)}
	}()
	return ch
}
