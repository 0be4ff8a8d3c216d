package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropRGBA returns the top-left width×height window of an interleaved RGBA
// buffer of size srcW×srcH. Samples are copied unchanged; no resampling.
func CropRGBA(pix []byte, srcW, srcH, width, height int) ([]byte, error) {
	if len(pix) != 4*srcW*srcH {
		return nil, fmt.Errorf("%w: RGBA buffer is %d bytes, want 4*%d*%d", ErrMalformedBuffer, len(pix), srcW, srcH)
	}
	if width <= 0 || height <= 0 || width > srcW || height > srcH {
		return nil, fmt.Errorf("crop region %dx%d outside buffer bounds %dx%d", width, height, srcW, srcH)
	}

	// NRGBA keeps the bytes verbatim: no alpha premultiplication on copy.
	src := &image.NRGBA{
		Pix:    pix,
		Stride: 4 * srcW,
		Rect:   image.Rect(0, 0, srcW, srcH),
	}
	cropped := imaging.Crop(src, image.Rect(0, 0, width, height))
	return cropped.Pix, nil
}

// CropPlanar returns the top-left width×height window of every plane of a
// planar buffer holding the given number of srcW×srcH planes.
func CropPlanar(pix []byte, planes, srcW, srcH, width, height int) ([]byte, error) {
	if len(pix) != planes*srcW*srcH {
		return nil, fmt.Errorf("%w: planar buffer is %d bytes, want %d*%d*%d",
			ErrMalformedBuffer, len(pix), planes, srcW, srcH)
	}
	if width <= 0 || height <= 0 || width > srcW || height > srcH {
		return nil, fmt.Errorf("crop region %dx%d outside buffer bounds %dx%d", width, height, srcW, srcH)
	}

	out := make([]byte, 0, planes*width*height)
	for p := 0; p < planes; p++ {
		plane := pix[p*srcW*srcH : (p+1)*srcW*srcH]
		for y := 0; y < height; y++ {
			out = append(out, plane[y*srcW:y*srcW+width]...)
		}
	}
	return out, nil
}
