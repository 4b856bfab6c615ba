// Package photo does the small amount of image work ingestion needs:
// reading the camera GPS tag and shrinking frames before detection
package photo

import (
	"bytes"
	"fmt"
	"image"

	"mdms/internal/core/geo"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// DefaultMaxSide bounds the longest edge handed to the detector
const DefaultMaxSide = 1280

// DefaultQuality is the jpeg quality used on re-encode
const DefaultQuality = 85

// Location reads the EXIF GPS position, ok is false when the file carries
// none or the position is not a usable point
func Location(data []byte) (geo.Point, bool) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return geo.Point{}, false
	}
	lat, lng, err := x.LatLong()
	if err != nil {
		return geo.Point{}, false
	}
	p := geo.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return geo.Point{}, false
	}
	return p, true
}

// Shrinker downsizes images ahead of detection
type Shrinker struct {
	MaxSide int
	Quality int
}

// NewShrinker applies defaults to non positive values
func NewShrinker(maxSide, quality int) Shrinker {
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return Shrinker{MaxSide: maxSide, Quality: quality}
}

// Shrink decodes data honouring the EXIF orientation, fits it inside
// MaxSide x MaxSide and re-encodes it as jpeg
// changed is false when the image already fit and data is returned as is
func (s Shrinker) Shrink(data []byte) (out []byte, changed bool, err error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false, fmt.Errorf("photo: decode: %w", err)
	}
	if fits(img.Bounds(), s.MaxSide) {
		return data, false, nil
	}
	img = imaging.Fit(img, s.MaxSide, s.MaxSide, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.Quality)); err != nil {
		return nil, false, fmt.Errorf("photo: encode: %w", err)
	}
	return buf.Bytes(), true, nil
}

func fits(b image.Rectangle, side int) bool {
	return b.Dx() <= side && b.Dy() <= side
}
