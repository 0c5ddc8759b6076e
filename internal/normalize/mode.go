package normalize

import (
	"image"

	"github.com/disintegration/imaging"
)

// ColorMode is the pixel layout of a decoded image.
type ColorMode int

const (
	ModeOther ColorMode = iota
	ModePalette
	ModeCMYK
	ModeRGB
	ModeRGBA
	ModeGray
)

func (m ColorMode) String() string {
	switch m {
	case ModePalette:
		return "P"
	case ModeCMYK:
		return "CMYK"
	case ModeRGB:
		return "RGB"
	case ModeRGBA:
		return "RGBA"
	case ModeGray:
		return "L"
	default:
		return "other"
	}
}

// ModeOf classifies img by its concrete type. RGBA-backed images that are
// fully opaque report ModeRGB.
func ModeOf(img image.Image) ColorMode {
	switch m := img.(type) {
	case *image.Paletted:
		return ModePalette
	case *image.CMYK:
		return ModeCMYK
	case *image.Gray, *image.Gray16:
		return ModeGray
	case *image.YCbCr:
		return ModeRGB
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.NYCbCrA:
		if o, ok := m.(interface{ Opaque() bool }); ok && o.Opaque() {
			return ModeRGB
		}
		return ModeRGBA
	default:
		return ModeOther
	}
}

// NormalizeMode converts palette and CMYK images to opaque RGB. Other modes
// are returned untouched with converted == false.
func NormalizeMode(img image.Image) (out image.Image, converted bool) {
	switch ModeOf(img) {
	case ModePalette, ModeCMYK:
		return toRGB(img), true
	default:
		return img, false
	}
}

func toRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
