package images

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format is an accepted image encoding.
type Format struct {
	ContentType string
	Ext         string // canonical extension, with the dot
	aliases     []string
}

var (
	FormatJPEG = Format{ContentType: "image/jpeg", Ext: ".jpg", aliases: []string{".jpg", ".jpeg", ".jpe"}}
	FormatPNG  = Format{ContentType: "image/png", Ext: ".png", aliases: []string{".png"}}
	FormatGIF  = Format{ContentType: "image/gif", Ext: ".gif", aliases: []string{".gif"}}
	FormatWebP = Format{ContentType: "image/webp", Ext: ".webp", aliases: []string{".webp"}}
)

// DetectFormat identifies an image by its magic bytes. The client's
// filename and Content-Type header are never trusted for this.
func DetectFormat(data []byte) (Format, bool) {
	switch {
	case len(data) < 8:
		return Format{}, false
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return FormatJPEG, true
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return FormatPNG, true
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return FormatGIF, true
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP, true
	default:
		return Format{}, false
	}
}

// ExtensionFor keeps the extension of the uploaded filename when it agrees
// with the detected format, and falls back to the canonical one otherwise.
func (f Format) ExtensionFor(uploadName string) string {
	ext := strings.ToLower(filepath.Ext(uploadName))
	for _, alias := range f.aliases {
		if ext == alias {
			return ext
		}
	}
	return f.Ext
}
