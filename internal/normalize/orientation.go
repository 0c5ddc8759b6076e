package normalize

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	exif "github.com/dsoprea/go-exif/v3"
)

// Orientation is the EXIF orientation tag value (1..8).
type Orientation int

const (
	OrientationUnspecified Orientation = 0
	OrientationNormal      Orientation = 1
	OrientationFlipH       Orientation = 2
	OrientationRotate180   Orientation = 3
	OrientationFlipV       Orientation = 4
	OrientationTranspose   Orientation = 5
	OrientationRotate270   Orientation = 6
	OrientationTransverse  Orientation = 7
	OrientationRotate90    Orientation = 8
)

const orientationTagID = 0x0112

// ErrNoOrientation is returned when the image carries no EXIF block or the
// block has no orientation tag.
var ErrNoOrientation = errors.New("no orientation tag")

// ErrBadOrientation wraps unusable orientation metadata.
var ErrBadOrientation = errors.New("malformed orientation tag")

// ReadOrientation extracts the orientation tag from an encoded image. The
// EXIF block is located inside the container first.
func ReadOrientation(data []byte) (Orientation, error) {
	raw, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errorsIsNoExif(err) {
			return OrientationUnspecified, ErrNoOrientation
		}
		return OrientationUnspecified, fmt.Errorf("%w: %v", ErrBadOrientation, err)
	}

	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return OrientationUnspecified, fmt.Errorf("%w: %v", ErrBadOrientation, err)
	}

	for _, tag := range tags {
		if tag.TagId != orientationTagID {
			continue
		}
		value, ok := firstInt(tag.Value)
		if !ok {
			return OrientationUnspecified, fmt.Errorf("%w: unexpected value type %T", ErrBadOrientation, tag.Value)
		}
		if value < int(OrientationNormal) || value > int(OrientationRotate90) {
			return OrientationUnspecified, fmt.Errorf("%w: value %d out of range", ErrBadOrientation, value)
		}
		return Orientation(value), nil
	}
	return OrientationUnspecified, ErrNoOrientation
}

// ApplyOrientation transforms img so that it displays upright. Unspecified
// and normal orientations return img unchanged.
func ApplyOrientation(img image.Image, o Orientation) image.Image {
	switch o {
	case OrientationFlipH:
		return imaging.FlipH(img)
	case OrientationRotate180:
		return imaging.Rotate180(img)
	case OrientationFlipV:
		return imaging.FlipV(img)
	case OrientationTranspose:
		return imaging.Transpose(img)
	case OrientationRotate270:
		return imaging.Rotate270(img)
	case OrientationTransverse:
		return imaging.Transverse(img)
	case OrientationRotate90:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func firstInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case []uint16:
		if len(v) > 0 {
			return int(v[0]), true
		}
	case []uint32:
		if len(v) > 0 {
			return int(v[0]), true
		}
	case []int32:
		if len(v) > 0 {
			return int(v[0]), true
		}
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func errorsIsNoExif(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exif.ErrNoExif) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no exif")
}
