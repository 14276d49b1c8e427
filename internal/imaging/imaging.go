// Package imaging normalizes uploaded resource photos: it validates the
// format, caps the dimensions and re-encodes everything as JPEG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"

	"golang.org/x/image/draw"

	_ "image/png"
)

// MaxDimension caps the width and height of stored photos.
const MaxDimension = 800

const jpegQuality = 85

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Process validates and normalizes an uploaded photo. The format is
// sniffed from the bytes, never trusted from client headers. Returns
// the re-encoded JPEG data and its MIME type.
func Process(r io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("reading photo: %w", err)
	}

	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, "", fmt.Errorf("unsupported photo format %s, only JPEG and PNG are accepted", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding photo: %w", err)
	}

	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encoding photo: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// fit scales the image down so neither dimension exceeds max, keeping
// the aspect ratio. Images already within bounds pass through.
func fit(img image.Image, max int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= max && h <= max {
		return img
	}

	newW, newH := max, max
	if w > h {
		newH = h * max / w
	} else {
		newW = w * max / h
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
