package imgutil

import (
	"bytes"
	"errors"
	"io"
	"os"
)

// Kind identifies an image container by its leading bytes.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindTIFF
	KindBMP
	KindWEBP
	KindHEIF
	KindPNM
	KindGIF
)

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindTIFF:
		return "tiff"
	case KindBMP:
		return "bmp"
	case KindWEBP:
		return "webp"
	case KindHEIF:
		return "heif"
	case KindPNM:
		return "pnm"
	case KindGIF:
		return "gif"
	default:
		return "unknown"
	}
}

// HeaderSize is the number of leading bytes DetectHeader needs.
const HeaderSize = 12

var (
	pngSig    = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig   = []byte{0xff, 0xd8, 0xff}
	tiffSigLE = []byte{0x49, 0x49, 0x2a, 0x00}
	tiffSigBE = []byte{0x4d, 0x4d, 0x00, 0x2a}
	bmpSig    = []byte("BM")
	gifSig    = []byte("GIF8")
	riffSig   = []byte("RIFF")
	webpSig   = []byte("WEBP")
	ftypSig   = []byte("ftyp")

	heifBrands = [][]byte{
		[]byte("heic"), []byte("heix"), []byte("hevc"), []byte("hevx"),
		[]byte("heim"), []byte("heis"), []byte("mif1"), []byte("msf1"),
	}
)

// DetectHeader inspects the first HeaderSize bytes of a file for known signatures.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < HeaderSize {
		return KindUnknown, errors.New("header too short")
	}

	switch {
	case bytes.HasPrefix(header, jpegSig):
		return KindJPEG, nil
	case bytes.HasPrefix(header, pngSig):
		return KindPNG, nil
	case bytes.HasPrefix(header, tiffSigLE), bytes.HasPrefix(header, tiffSigBE):
		return KindTIFF, nil
	case bytes.HasPrefix(header, gifSig):
		return KindGIF, nil
	case bytes.HasPrefix(header, riffSig) && bytes.Equal(header[8:12], webpSig):
		return KindWEBP, nil
	case bytes.Equal(header[4:8], ftypSig) && isHEIFBrand(header[8:12]):
		return KindHEIF, nil
	case bytes.HasPrefix(header, bmpSig):
		return KindBMP, nil
	case header[0] == 'P' && header[1] >= '1' && header[1] <= '6' && isPNMSpace(header[2]):
		return KindPNM, nil
	}

	return KindUnknown, nil
}

// SniffFile reads the leading bytes of a file to determine its type.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads HeaderSize bytes from r and determines its type.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return KindUnknown, nil
		}
		return KindUnknown, err
	}

	return DetectHeader(header)
}

// SniffBytes is SniffReader for an in-memory buffer. Short buffers are unknown.
func SniffBytes(data []byte) Kind {
	if len(data) < HeaderSize {
		return KindUnknown
	}
	kind, _ := DetectHeader(data[:HeaderSize])
	return kind
}

func isHEIFBrand(brand []byte) bool {
	for _, b := range heifBrands {
		if bytes.Equal(brand, b) {
			return true
		}
	}
	return false
}

func isPNMSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\r' || b == '\t'
}
