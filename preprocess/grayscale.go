package preprocess

import (
	"errors"
	"image"
	"image/color"
)

// ErrEmptyImage is returned for nil or zero-area images.
var ErrEmptyImage = errors.New("preprocess: empty image")

// Grayscale converts img to an 8-bit grayscale image with its origin at (0,0).
//
// Luma follows the ITU-R BT.601 weights used by color.GrayModel. Pixels with
// transparency are composited over white first, so text drawn on a
// transparent background stays dark on light.
func Grayscale(img image.Image) (*image.Gray, error) {
	if isEmpty(img) {
		return nil, ErrEmptyImage
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[y*src.Stride:y*src.Stride+w])
		}
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := src.PixOffset(x+b.Min.X, y+b.Min.Y)
				p := src.Pix[i : i+4 : i+4]
				r, g, bl, a := uint32(p[0]), uint32(p[1]), uint32(p[2]), uint32(p[3])
				r = (r*a + 255*(255-a)) / 255
				g = (g*a + 255*(255-a)) / 255
				bl = (bl*a + 255*(255-a)) / 255
				dst.Pix[y*dst.Stride+x] = luma8(r, g, bl)
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Pix[y*dst.Stride+x] = grayOverWhite(img.At(x+b.Min.X, y+b.Min.Y))
			}
		}
	}
	return dst, nil
}

// luma8 applies the color.GrayModel weights to 8-bit channels.
func luma8(r, g, b uint32) uint8 {
	r, g, b = r*0x101, g*0x101, b*0x101
	return uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
}

func grayOverWhite(c color.Color) uint8 {
	r, g, b, a := c.RGBA()
	if a == 0xffff {
		return uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
	}
	// RGBA() is alpha-premultiplied: add the white that shows through.
	bg := 0xffff - a
	r, g, b = r+bg, g+bg, b+bg
	return uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
}

func isEmpty(img image.Image) bool {
	if img == nil {
		return true
	}
	return img.Bounds().Empty()
}
