package upload

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/starford/vitrine/internal/apperr"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestProcess_DownscalesPreservingAspect(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	res, err := p.Process(bytes.NewReader(pngBytes(t, 2400, 1200)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Width != 1200 || res.Height != 600 {
		t.Errorf("size = %dx%d, want 1200x600", res.Width, res.Height)
	}
	if !strings.HasPrefix(res.DataURI, "data:image/jpeg;base64,") {
		t.Errorf("data uri prefix = %q", res.DataURI[:30])
	}
	if res.Bytes == 0 {
		t.Error("encoded size is zero")
	}
}

func TestProcess_NoUpscale(t *testing.T) {
	p := NewProcessor(Config{Format: FormatPNG})
	res, err := p.Process(bytes.NewReader(pngBytes(t, 300, 200)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Width != 300 || res.Height != 200 {
		t.Errorf("size = %dx%d, want unchanged 300x200", res.Width, res.Height)
	}
	if !strings.HasPrefix(res.DataURI, "data:image/png;base64,") {
		t.Errorf("want png data uri")
	}
}

func TestProcess_RejectsNonImage(t *testing.T) {
	p := NewProcessor(DefaultConfig())
	_, err := p.Process(strings.NewReader("%PDF-1.4 definitely not a photo"))
	if !errors.Is(err, apperr.ErrNotImage) {
		t.Errorf("err = %v, want ErrNotImage", err)
	}
}

func TestProcess_SizeCap(t *testing.T) {
	p := NewProcessor(Config{MaxBytes: 16})
	_, err := p.Process(bytes.NewReader(pngBytes(t, 50, 50)))
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestNewProcessorDefaults(t *testing.T) {
	cfg := NewProcessor(Config{Quality: 500, Format: "gif"}).Config()
	if cfg.Quality != 70 || cfg.Format != FormatJPEG || cfg.MaxWidth != 1200 {
		t.Errorf("cfg = %+v", cfg)
	}
}
