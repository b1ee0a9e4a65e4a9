// Package media stores profile icons.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"strconv"

	"moneyshelf/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// IconSize bounds both icon dimensions.
	IconSize = 256
	// MaxIconUploadBytes is the largest accepted upload.
	MaxIconUploadBytes = 5 << 20
	// MaxIconPixels caps the decoded size, since a small file can declare huge dimensions.
	MaxIconPixels = 24_000_000
	iconQuality   = 80
)

// IconStore writes square-bounded WebP icons named after the user ID.
type IconStore struct {
	dir string
}

// NewIconStore returns a store rooted at dir.
func NewIconStore(dir string) *IconStore {
	return &IconStore{dir: dir}
}

// Dir is the directory icons are written to.
func (s *IconStore) Dir() string {
	return s.dir
}

// Save decodes content, scales it to fit IconSize x IconSize and writes
// <userID>.webp, replacing any earlier icon. It returns the filename.
func (s *IconStore) Save(ctx context.Context, userID uint, content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("icon file is empty")
	}
	if len(content) > MaxIconUploadBytes {
		return "", models.NewValidationError("icon file is too large")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("unsupported image format")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxIconPixels {
		return "", models.NewValidationError("icon dimensions are too large")
	}

	src, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("unsupported image format")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, resizeToFit(src, IconSize, IconSize), &webp.Options{Quality: iconQuality}); err != nil {
		return "", models.NewInternalError(fmt.Errorf("encode webp: %w", err))
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", models.NewPersistenceError(err)
	}
	name := strconv.FormatUint(uint64(userID), 10) + ".webp"
	if err := os.WriteFile(filepath.Join(s.dir, name), buf.Bytes(), 0o644); err != nil {
		return "", models.NewPersistenceError(err)
	}
	return name, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
