// Package normalize converts raster images into OCR-friendly containers.
//
// A conversion decodes the whole source into memory, folds palette and CMYK
// data into RGB, rotates or flips the pixels according to the EXIF
// orientation tag, and encodes the result as PNG or TIFF with the requested
// resolution recorded in the container:
//
//   - PNG: maximum deflate compression and a pHYs chunk in pixels per metre.
//   - TIFF: Deflate compression and XResolution/YResolution in pixels per inch.
//
// Files whose extension is already OCR-friendly are never opened.
package normalize
