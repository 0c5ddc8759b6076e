package normalize

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/tiff"
)

const (
	tagXResolution    = 282
	tagYResolution    = 283
	tagResolutionUnit = 296

	typeShort    = 3
	typeRational = 5

	resolutionUnitInch = 2
)

func encodeTIFF(w io.Writer, img image.Image, dpi int) error {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return err
	}
	data := buf.Bytes()
	if err := setTIFFResolution(data, dpi); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

type ifdEntry struct {
	offset int // position of the 12-byte entry
	tag    uint16
	typ    uint16
	count  uint32
}

func tiffByteOrder(data []byte) (binary.ByteOrder, error) {
	if len(data) < 8 {
		return nil, errors.New("tiff: header too short")
	}
	switch string(data[:4]) {
	case "II*\x00":
		return binary.LittleEndian, nil
	case "MM\x00*":
		return binary.BigEndian, nil
	default:
		return nil, errors.New("tiff: bad byte order mark")
	}
}

// firstIFD lists the entries of the first image file directory.
func firstIFD(data []byte) (binary.ByteOrder, []ifdEntry, error) {
	bo, err := tiffByteOrder(data)
	if err != nil {
		return nil, nil, err
	}
	off := int(bo.Uint32(data[4:8]))
	if off+2 > len(data) {
		return nil, nil, errors.New("tiff: IFD offset out of range")
	}
	n := int(bo.Uint16(data[off : off+2]))
	if off+2+12*n > len(data) {
		return nil, nil, errors.New("tiff: IFD truncated")
	}
	entries := make([]ifdEntry, 0, n)
	for i := 0; i < n; i++ {
		p := off + 2 + 12*i
		entries = append(entries, ifdEntry{
			offset: p,
			tag:    bo.Uint16(data[p : p+2]),
			typ:    bo.Uint16(data[p+2 : p+4]),
			count:  bo.Uint32(data[p+4 : p+8]),
		})
	}
	return bo, entries, nil
}

// setTIFFResolution rewrites the resolution rationals of the first IFD in
// place. The tiff encoder always emits them, fixed at 72 dpi.
func setTIFFResolution(data []byte, dpi int) error {
	bo, entries, err := firstIFD(data)
	if err != nil {
		return err
	}
	found := 0
	for _, e := range entries {
		switch e.tag {
		case tagXResolution, tagYResolution:
			if e.typ != typeRational || e.count != 1 {
				return fmt.Errorf("tiff: unexpected resolution entry type %d", e.typ)
			}
			at := int(bo.Uint32(data[e.offset+8 : e.offset+12]))
			if at+8 > len(data) {
				return errors.New("tiff: resolution value out of range")
			}
			bo.PutUint32(data[at:at+4], uint32(dpi))
			bo.PutUint32(data[at+4:at+8], 1)
			found++
		case tagResolutionUnit:
			if e.typ == typeShort {
				bo.PutUint16(data[e.offset+8:e.offset+10], resolutionUnitInch)
			}
		}
	}
	if found != 2 {
		return errors.New("tiff: resolution tags missing")
	}
	return nil
}

// ReadTIFFDPI returns the resolution recorded in the first IFD of a TIFF
// file, in dots per inch.
func ReadTIFFDPI(data []byte) (x, y int, err error) {
	bo, entries, err := firstIFD(data)
	if err != nil {
		return 0, 0, err
	}
	got := map[uint16]int{}
	for _, e := range entries {
		if (e.tag != tagXResolution && e.tag != tagYResolution) || e.typ != typeRational {
			continue
		}
		at := int(bo.Uint32(data[e.offset+8 : e.offset+12]))
		if at+8 > len(data) {
			return 0, 0, errors.New("tiff: resolution value out of range")
		}
		num, den := bo.Uint32(data[at:at+4]), bo.Uint32(data[at+4:at+8])
		if den == 0 {
			return 0, 0, errors.New("tiff: zero resolution denominator")
		}
		got[e.tag] = int(num / den)
	}
	x, okX := got[tagXResolution]
	y, okY := got[tagYResolution]
	if !okX || !okY {
		return 0, 0, errors.New("tiff: resolution tags missing")
	}
	return x, y, nil
}
