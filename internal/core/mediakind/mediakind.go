// Package mediakind sniffs uploaded bytes into the image or video variant
package mediakind

import (
	"strings"

	perr "mdms/internal/platform/errors"

	"github.com/gabriel-vasile/mimetype"
)

// Name is the persisted kind label
type Name string

// Kind labels
const (
	NameImage Name = "image"
	NameVideo Name = "video"
)

// Kind is the tagged media variant, either Image or Video
type Kind interface {
	Name() Name
	ContentType() string
	Extension() string
	isKind()
}

// Image is a still photo
type Image struct {
	MIME string
	Ext  string
}

// Video is a clip whose frames the detector samples
type Video struct {
	MIME string
	Ext  string
}

func (Image) Name() Name            { return NameImage }
func (i Image) ContentType() string { return i.MIME }
func (i Image) Extension() string   { return i.Ext }
func (Image) isKind()               {}
func (Video) Name() Name            { return NameVideo }
func (v Video) ContentType() string { return v.MIME }
func (v Video) Extension() string   { return v.Ext }
func (Video) isKind()               {}

var imageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/heic", "image/heif", "image/gif", "image/bmp", "image/tiff"}

var videoTypes = []string{"video/mp4", "video/quicktime", "video/webm", "video/x-matroska", "video/3gpp", "video/x-msvideo", "video/mpeg"}

// Sniff decides the kind from content alone, the client header and file name are ignored
func Sniff(data []byte) (Kind, error) {
	if len(data) == 0 {
		return nil, perr.UnsupportedMediaf("empty file")
	}
	m := mimetype.Detect(data)
	for _, t := range imageTypes {
		if m.Is(t) {
			return Image{MIME: t, Ext: m.Extension()}, nil
		}
	}
	for _, t := range videoTypes {
		if m.Is(t) {
			return Video{MIME: t, Ext: m.Extension()}, nil
		}
	}
	return nil, perr.UnsupportedMediaf("unsupported media type %s", baseType(m.String()))
}

// FromName rebuilds a Kind from its stored label and content type
func FromName(name Name, contentType string) (Kind, bool) {
	switch name {
	case NameImage:
		return Image{MIME: contentType}, true
	case NameVideo:
		return Video{MIME: contentType}, true
	}
	return nil, false
}

func baseType(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
