package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	_ "image/jpeg" // register JPEG decoding for model responses
)

// ToGrayscale re-encodes the image with every pixel collapsed to its gray
// value. Accepts PNG or JPEG input; output is always PNG.
func ToGrayscale(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode grayscale png: %w", err)
	}
	return buf.Bytes(), nil
}
