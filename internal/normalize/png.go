package normalize

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"math"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

const inchesPerMetre = 1 / 0.0254

func encodePNG(w io.Writer, img image.Image, dpi int) error {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return err
	}
	return writePNGWithDPI(bytes.NewReader(buf.Bytes()), w, dpi)
}

// writePNGWithDPI copies a PNG stream, dropping any pHYs chunk and inserting
// a fresh one right after IHDR.
func writePNGWithDPI(r io.Reader, w io.Writer, dpi int) error {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return err
	}
	if !bytes.Equal(sig, pngSignature) {
		return fmt.Errorf("invalid PNG signature")
	}
	if _, err := w.Write(sig); err != nil {
		return err
	}

	ppm := uint32(math.Round(float64(dpi) * inchesPerMetre))
	phys := make([]byte, 9)
	binary.BigEndian.PutUint32(phys[0:4], ppm)
	binary.BigEndian.PutUint32(phys[4:8], ppm)
	phys[8] = 1 // unit: metre

	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(r, lenBuf); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		length := binary.BigEndian.Uint32(lenBuf)

		typeBuf := make([]byte, 4)
		if _, err := io.ReadFull(r, typeBuf); err != nil {
			return err
		}
		chunkName := string(typeBuf)

		if chunkName == "pHYs" {
			if _, err := io.CopyN(io.Discard, r, int64(length)+4); err != nil {
				return err
			}
			continue
		}

		if _, err := w.Write(lenBuf); err != nil {
			return err
		}
		if _, err := w.Write(typeBuf); err != nil {
			return err
		}
		if _, err := io.CopyN(w, r, int64(length)+4); err != nil {
			return err
		}

		switch chunkName {
		case "IHDR":
			if _, err := w.Write(buildPNGChunk("pHYs", phys)); err != nil {
				return err
			}
		case "IEND":
			return nil
		}
	}
}

func buildPNGChunk(chunkType string, data []byte) []byte {
	chunk := make([]byte, 0, 12+len(data))
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(data)))
	chunk = append(chunk, chunkType...)
	chunk = append(chunk, data...)
	return binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))
}

// ReadPNGDPI returns the horizontal and vertical resolution recorded in the
// pHYs chunk of a PNG stream, rounded to whole dots per inch.
func ReadPNGDPI(r io.Reader) (x, y int, err error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return 0, 0, err
	}
	if !bytes.Equal(sig, pngSignature) {
		return 0, 0, errors.New("invalid PNG signature")
	}

	for {
		header := make([]byte, 8)
		if _, err := io.ReadFull(r, header); err != nil {
			return 0, 0, fmt.Errorf("pHYs chunk not found: %w", err)
		}
		length := binary.BigEndian.Uint32(header[:4])
		switch string(header[4:8]) {
		case "pHYs":
			data := make([]byte, length)
			if _, err := io.ReadFull(r, data); err != nil {
				return 0, 0, err
			}
			if length != 9 || data[8] != 1 {
				return 0, 0, errors.New("pHYs chunk has no metric unit")
			}
			x = int(math.Round(float64(binary.BigEndian.Uint32(data[0:4])) / inchesPerMetre))
			y = int(math.Round(float64(binary.BigEndian.Uint32(data[4:8])) / inchesPerMetre))
			return x, y, nil
		case "IEND":
			return 0, 0, errors.New("pHYs chunk not found")
		default:
			if _, err := io.CopyN(io.Discard, r, int64(length)+4); err != nil {
				return 0, 0, err
			}
		}
	}
}
