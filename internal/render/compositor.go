package render

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ImageCompositor stamps image placements onto rendered PDFs. An image that
// cannot be resolved or decoded is skipped; a missing decorative image must
// not fail the whole document.
type ImageCompositor struct {
	AssetDir string // static image assets referenced by placement key
	Log      *slog.Logger
}

// Composite applies the placements and returns a new PDF path derived from
// the input; the input file is never rewritten in place. Inline bytes take
// precedence over a static asset with the same key.
func (c *ImageCompositor) Composite(pdfPath string, placements []Placement, inline map[string][]byte) (string, error) {
	out := strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + "-final.pdf"

	current := pdfPath
	applied := 0
	for i, p := range placements {
		data := c.resolve(p.Key, inline)
		if data == nil {
			c.log().Warn("No image source for placement, skipping.", "key", p.Key)
			continue
		}
		encoded, width, err := normalizeImage(data)
		if err != nil {
			c.log().Warn("Image failed to decode, skipping placement.", "key", p.Key, "error", err)
			continue
		}

		wm, err := imageWatermark(encoded, p, width)
		if err != nil {
			c.log().Warn("Could not build image stamp, skipping placement.", "key", p.Key, "error", err)
			continue
		}

		next := out
		if i < len(placements)-1 {
			next = fmt.Sprintf("%s.stamp%d.pdf", strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)), i)
		}
		pages := []string{strconv.Itoa(p.Page + 1)}
		if err := api.AddWatermarksFile(current, next, pages, wm, nil); err != nil {
			return "", fmt.Errorf("failed to stamp image %s: %w", p.Key, err)
		}
		if current != pdfPath {
			os.Remove(current)
		}
		current = next
		applied++
	}

	// Always hand back a distinct file, even when every placement was skipped.
	if current != out {
		if err := copyFile(current, out); err != nil {
			return "", err
		}
		if current != pdfPath {
			os.Remove(current)
		}
	}
	return out, nil
}

func (c *ImageCompositor) resolve(key string, inline map[string][]byte) []byte {
	if data, ok := inline[key]; ok && len(data) > 0 {
		return data
	}
	if c.AssetDir == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(c.AssetDir, key))
	if err != nil {
		return nil
	}
	return data
}

// normalizeImage decodes the bytes as PNG, then JPEG, and re-encodes to PNG
// for stamping. It returns the pixel width so the stamp can be scaled to the
// placement rectangle.
func normalizeImage(data []byte) ([]byte, int, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		var jerr error
		img, jerr = jpeg.Decode(bytes.NewReader(data))
		if jerr != nil {
			return nil, 0, fmt.Errorf("not a PNG (%v) nor a JPEG (%v)", err, jerr)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, 0, fmt.Errorf("failed to re-encode image: %w", err)
	}
	return buf.Bytes(), img.Bounds().Dx(), nil
}

func imageWatermark(encoded []byte, p Placement, pixelWidth int) (*model.Watermark, error) {
	// pdfcpu renders an image at one point per pixel at scale 1, so the
	// absolute scale factor maps the pixel width onto the placement width.
	scale := 1.0
	if pixelWidth > 0 && p.Width > 0 {
		scale = p.Width / float64(pixelWidth)
	}
	if scale > 1 {
		scale = 1
	}
	desc := fmt.Sprintf("pos:bl, off:%.1f %.1f, rot:0, sc:%.4f abs", p.X, p.Y, scale)
	return api.ImageWatermarkForReader(bytes.NewReader(encoded), desc, true, false, types.POINTS)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

func (c *ImageCompositor) log() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}
