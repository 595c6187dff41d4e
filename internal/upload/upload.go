// Package upload turns user-supplied image bytes into a downscaled inline
// data URI suitable for storing in the user collection.
package upload

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/starford/vitrine/internal/apperr"
)

// Output formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// Config is the downscale and encode policy.
type Config struct {
	MaxWidth  int
	MaxHeight int
	Quality   int    // JPEG quality, 1-100
	Format    string // FormatJPEG or FormatPNG
	MaxBytes  int64  // input size cap
}

// DefaultConfig bounds images to 1200×1200 and encodes JPEG at quality 70.
func DefaultConfig() Config {
	return Config{MaxWidth: 1200, MaxHeight: 1200, Quality: 70, Format: FormatJPEG, MaxBytes: 20 << 20}
}

// Result is a processed image.
type Result struct {
	DataURI string
	Width   int
	Height  int
	Bytes   int // encoded size
}

// Processor applies a Config to uploaded images.
type Processor struct {
	cfg Config
}

// NewProcessor creates a Processor, filling zero fields from DefaultConfig.
func NewProcessor(cfg Config) *Processor {
	def := DefaultConfig()
	if cfg.MaxWidth <= 0 {
		cfg.MaxWidth = def.MaxWidth
	}
	if cfg.MaxHeight <= 0 {
		cfg.MaxHeight = def.MaxHeight
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = def.Quality
	}
	if cfg.Format != FormatPNG {
		cfg.Format = FormatJPEG
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = def.MaxBytes
	}
	return &Processor{cfg: cfg}
}

// Config returns the effective policy.
func (p *Processor) Config() Config { return p.cfg }

// Process reads an image from r, fits it inside the configured bounding box
// without upscaling, and re-encodes it.
func (p *Processor) Process(r io.Reader) (Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.cfg.MaxBytes+1))
	if err != nil {
		return Result{}, fmt.Errorf("upload: read: %w", err)
	}
	if int64(len(data)) > p.cfg.MaxBytes {
		return Result{}, fmt.Errorf("upload: larger than %d bytes: %w", p.cfg.MaxBytes, apperr.ErrInvalid)
	}
	if len(data) == 0 {
		return Result{}, fmt.Errorf("upload: empty file: %w", apperr.ErrInvalid)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Result{}, fmt.Errorf("upload: %s: %w", mt.String(), apperr.ErrNotImage)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("upload: decode %s: %w", mt.String(), apperr.ErrNotImage)
	}

	img := p.fit(src)

	var buf bytes.Buffer
	mime := "image/jpeg"
	switch p.cfg.Format {
	case FormatPNG:
		mime = "image/png"
		err = imaging.Encode(&buf, img, imaging.PNG)
	default:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.cfg.Quality))
	}
	if err != nil {
		return Result{}, fmt.Errorf("upload: encode: %w", err)
	}

	b := img.Bounds()
	return Result{
		DataURI: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:   b.Dx(),
		Height:  b.Dy(),
		Bytes:   buf.Len(),
	}, nil
}

func (p *Processor) fit(src image.Image) image.Image {
	b := src.Bounds()
	if b.Dx() <= p.cfg.MaxWidth && b.Dy() <= p.cfg.MaxHeight {
		return src
	}
	return imaging.Fit(src, p.cfg.MaxWidth, p.cfg.MaxHeight, imaging.Lanczos)
}
