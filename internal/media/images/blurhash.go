package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// blurHashSize bounds the thumbnail the hash is computed from.
const blurHashSize = 64

// Inspection is what an accepted upload reveals about itself.
type Inspection struct {
	Format   Format
	Width    int
	Height   int
	BlurHash string
}

// Inspect checks that data is a decodable image of an accepted format and
// computes its BlurHash placeholder.
func Inspect(data []byte) (*Inspection, error) {
	format, ok := DetectFormat(data)
	if !ok {
		return nil, ErrUnsupportedFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	hash, err := blurhash.Encode(4, 3, thumbnail(img))
	if err != nil {
		return nil, fmt.Errorf("encode blurhash: %w", err)
	}

	b := img.Bounds()
	return &Inspection{Format: format, Width: b.Dx(), Height: b.Dy(), BlurHash: hash}, nil
}

// thumbnail scales img to fit blurHashSize, keeping the aspect ratio.
func thumbnail(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= blurHashSize && h <= blurHashSize {
		return img
	}

	dw, dh := blurHashSize, blurHashSize
	if w > h {
		dh = max(1, h*blurHashSize/w)
	} else {
		dw = max(1, w*blurHashSize/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
