// Package imaging implements the background-subtraction primitives the
// blob detector is built from: grayscale conversion, difference
// thresholding, morphological cleanup, polygon masking, and connected
// component extraction. Every function operates on raw 8-bit single
// channel planes addressed row-major by (width, height); there is no
// hidden state and no input buffer is modified in place.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

// Plane is an 8-bit grayscale image: one byte per pixel, row-major.
type Plane struct {
	Pix    []byte
	Width  int
	Height int
}

// ToGray decodes a JPEG and emits a single-channel 8-bit plane using
// standard luma weights (the same weights image/color.GrayModel uses).
func ToGray(jpegBytes []byte) (*Plane, error) {
	img, err := jpeg.Decode(bytes.NewReader(jpegBytes))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode jpeg: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, w*h)

	gray, ok := img.(*image.Gray)
	if ok {
		for y := 0; y < h; y++ {
			copy(pix[y*w:(y+1)*w], gray.Pix[y*gray.Stride:y*gray.Stride+w])
		}
		return &Plane{Pix: pix, Width: w, Height: h}, nil
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			pix[y*w+x] = color.GrayModel.Convert(c).(color.Gray).Y
		}
	}
	return &Plane{Pix: pix, Width: w, Height: h}, nil
}

// MeanLuma returns the average pixel value of a plane.
func MeanLuma(p *Plane) byte {
	if len(p.Pix) == 0 {
		return 0
	}
	var sum int
	for _, v := range p.Pix {
		sum += int(v)
	}
	return byte(sum / len(p.Pix))
}
