package photo

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestShrinkLeavesSmallImages(t *testing.T) {
	t.Parallel()

	in := pngOf(t, 64, 32)
	out, changed, err := NewShrinker(128, 0).Shrink(in)
	if err != nil {
		t.Fatalf("Shrink: %v", err)
	}
	if changed || !bytes.Equal(in, out) {
		t.Fatalf("small image must pass through")
	}
}

func TestShrinkFitsLongestSide(t *testing.T) {
	t.Parallel()

	out, changed, err := NewShrinker(100, 80).Shrink(pngOf(t, 400, 200))
	if err != nil {
		t.Fatalf("Shrink: %v", err)
	}
	if !changed {
		t.Fatalf("expected resize")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("format = %s", format)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Fatalf("size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestShrinkRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, _, err := NewShrinker(0, 0).Shrink([]byte("not an image")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewShrinkerDefaults(t *testing.T) {
	t.Parallel()

	s := NewShrinker(-1, 101)
	if s.MaxSide != DefaultMaxSide || s.Quality != DefaultQuality {
		t.Fatalf("defaults = %+v", s)
	}
}

func TestLocationWithoutExif(t *testing.T) {
	t.Parallel()

	if _, ok := Location(pngOf(t, 8, 8)); ok {
		t.Fatalf("png has no gps")
	}
	if _, ok := Location(nil); ok {
		t.Fatalf("empty input has no gps")
	}
}
