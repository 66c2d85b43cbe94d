package loupe

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// Screenshot queues a labeled capture of the canvas. Queued captures are
// written at the end of the next Update as PNG files in Options.ScreenshotDir
// with a timestamped filename. The renderer must implement Snapshotter.
func (v *Viewer) Screenshot(label string) {
	v.screenshotQueue = append(v.screenshotQueue, label)
}

// flushScreenshots writes every queued capture and returns the paths written.
func (v *Viewer) flushScreenshots() []string {
	if len(v.screenshotQueue) == 0 {
		return nil
	}
	defer func() { v.screenshotQueue = v.screenshotQueue[:0] }()

	snap, ok := v.renderer.(Snapshotter)
	if !ok || !v.loaded {
		v.log.Warn("screenshot skipped", slog.Int("queued", len(v.screenshotQueue)), slog.Bool("loaded", v.loaded))
		return nil
	}
	img := snap.Snapshot()
	if img == nil {
		return nil
	}
	dir := v.opts.ScreenshotDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.log.Warn("screenshot mkdir", slog.String("dir", dir), slog.Any("err", err))
		return nil
	}

	stamp := v.clock.Now().Format("20060102_150405")
	var paths []string
	for _, label := range v.screenshotQueue {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(path, img); err != nil {
			v.log.Warn("screenshot", slog.Any("err", err))
			continue
		}
		v.log.Debug("screenshot written", slog.String("path", path))
		paths = append(paths, path)
	}
	v.lastScreenshots = paths
	return paths
}

// readPixels copies a GPU image into straight-alpha NRGBA.
func readPixels(src *ebiten.Image) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := make([]byte, 4*w*h)
	src.ReadPixels(pixels)
	return unpremultiply(pixels, w, h)
}

// unpremultiply converts premultiplied RGBA bytes to straight alpha.
func unpremultiply(pixels []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i+3 < len(pixels) && i+3 < len(img.Pix); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		if a > 0 && a < 255 {
			r = uint8(min(int(r)*255/int(a), 255))
			g = uint8(min(int(g)*255/int(a), 255))
			b = uint8(min(int(b)*255/int(a), 255))
		}
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
