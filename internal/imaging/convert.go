package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ToRegion converts a decoded image into a Region carrying both an RGBA and a
// planar YUV 4:4:4 buffer.
//
// # RGBA
//
// The image is normalised to non-premultiplied 8-bit RGBA, the layout a
// device-side bitmap dump uses.
//
// # YUV
//
// When the decoder kept the image in Y'CbCr (baseline JPEG), the native
// samples are used directly and chroma is replicated to full resolution.
// Other images are converted from RGB with the BT.601 full-range matrix.
func ToRegion(img image.Image) *Region {
	nrgba := imaging.Clone(img)
	w := nrgba.Rect.Dx()
	h := nrgba.Rect.Dy()

	return &Region{
		Width:  w,
		Height: h,
		RGBA:   nrgba.Pix,
		YUV:    planarYUV(img, nrgba),
	}
}

func planarYUV(img image.Image, nrgba *image.NRGBA) []byte {
	w := nrgba.Rect.Dx()
	h := nrgba.Rect.Dy()
	n := w * h
	out := make([]byte, 3*n)
	yp, up, vp := out[:n], out[n:2*n], out[2*n:]

	if ycc, ok := img.(*image.YCbCr); ok {
		b := ycc.Bounds()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				yi := ycc.YOffset(b.Min.X+x, b.Min.Y+y)
				ci := ycc.COffset(b.Min.X+x, b.Min.Y+y)
				i := y*w + x
				yp[i] = ycc.Y[yi]
				up[i] = ycc.Cb[ci]
				vp[i] = ycc.Cr[ci]
			}
		}
		return out
	}

	for i := 0; i < n; i++ {
		p := nrgba.Pix[4*i : 4*i+3]
		yp[i], up[i], vp[i] = color.RGBToYCbCr(p[0], p[1], p[2])
	}
	return out
}
