package preprocess

import (
	"fmt"
	"image"
	"math"
)

// DenoiseParams configures the non-local-means filter.
type DenoiseParams struct {
	// H is the filter strength. Larger values remove more noise and more
	// detail.
	H float64
	// TemplateWindow is the side of the square patch compared between
	// pixels. Must be odd.
	TemplateWindow int
	// SearchWindow is the side of the square area searched for similar
	// patches. Must be odd.
	SearchWindow int
}

// DefaultDenoise returns the parameters tuned for scanned text.
func DefaultDenoise() DenoiseParams {
	return DenoiseParams{H: 10, TemplateWindow: 7, SearchWindow: 21}
}

// Validate checks that the windows are odd and positive and that H is positive.
func (p DenoiseParams) Validate() error {
	if p.H <= 0 {
		return fmt.Errorf("preprocess: denoise strength must be positive, got %v", p.H)
	}
	if p.TemplateWindow < 1 || p.TemplateWindow%2 == 0 {
		return fmt.Errorf("preprocess: template window must be odd and positive, got %d", p.TemplateWindow)
	}
	if p.SearchWindow < 1 || p.SearchWindow%2 == 0 {
		return fmt.Errorf("preprocess: search window must be odd and positive, got %d", p.SearchWindow)
	}
	return nil
}

// Weights below this are treated as zero.
const minWeight = 0.001

// Output is computed in square tiles; tiles whose neighborhood is a single
// intensity are copied through untouched.
const denoiseTile = 32

// Denoise applies non-local-means filtering to g.
//
// Each output pixel is the weighted mean of the pixels in its search window,
// where a candidate's weight is exp(-d/h²) and d is the mean squared
// difference between the template patches around the two pixels. Borders
// are handled by reflection.
func Denoise(g *image.Gray, p DenoiseParams) (*image.Gray, error) {
	if g == nil || g.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	rt := p.TemplateWindow / 2
	rs := p.SearchWindow / 2
	pad := rt + rs

	padded, stride := reflectPad(g, pad)
	active := activeMask(padded, stride, w, h, pad)
	lut := weightTable(p)

	dst := image.NewGray(image.Rect(0, 0, w, h))

	n := denoiseTile
	side := n + 2*rt
	diff := make([]int64, (side+1)*(side+1))
	sums := make([]float64, n*n)
	wsums := make([]float64, n*n)

	for ty := 0; ty < h; ty += n {
		for tx := 0; tx < w; tx += n {
			tw, th := min(n, w-tx), min(n, h-ty)

			hasActive := false
			for y := ty; y < ty+th && !hasActive; y++ {
				for x := tx; x < tx+tw; x++ {
					if active[y*w+x] {
						hasActive = true
						break
					}
				}
			}
			if !hasActive {
				for y := ty; y < ty+th; y++ {
					copy(dst.Pix[y*dst.Stride+tx:y*dst.Stride+tx+tw], padded[(y+pad)*stride+tx+pad:])
				}
				continue
			}

			clear(sums)
			clear(wsums)
			rw, rh := tw+2*rt, th+2*rt
			is := rw + 1

			for dy := -rs; dy <= rs; dy++ {
				for dx := -rs; dx <= rs; dx++ {
					// Integral image of squared differences between the tile's
					// neighborhood and the same area shifted by (dx, dy).
					for i := 0; i <= rw; i++ {
						diff[i] = 0
					}
					for j := 0; j < rh; j++ {
						py := ty + pad - rt + j
						row := padded[py*stride:]
						shifted := padded[(py+dy)*stride:]
						var acc int64
						diff[(j+1)*is] = 0
						for i := 0; i < rw; i++ {
							px := tx + pad - rt + i
							d := int64(row[px]) - int64(shifted[px+dx])
							acc += d * d
							diff[(j+1)*is+i+1] = diff[j*is+i+1] + acc
						}
					}

					for y := 0; y < th; y++ {
						for x := 0; x < tw; x++ {
							if !active[(ty+y)*w+tx+x] {
								continue
							}
							ssd := diff[(y+2*rt+1)*is+x+2*rt+1] - diff[y*is+x+2*rt+1] -
								diff[(y+2*rt+1)*is+x] + diff[y*is+x]
							if ssd >= int64(len(lut)) {
								continue
							}
							wt := lut[ssd]
							v := padded[(ty+y+pad+dy)*stride+tx+x+pad+dx]
							sums[y*n+x] += wt * float64(v)
							wsums[y*n+x] += wt
						}
					}
				}
			}

			for y := 0; y < th; y++ {
				out := dst.Pix[(ty+y)*dst.Stride+tx:]
				for x := 0; x < tw; x++ {
					if !active[(ty+y)*w+tx+x] {
						out[x] = padded[(ty+y+pad)*stride+tx+x+pad]
						continue
					}
					out[x] = clamp8(math.Round(sums[y*n+x] / wsums[y*n+x]))
				}
			}
		}
	}
	return dst, nil
}

// weightTable maps a patch's summed squared difference to its weight. The
// table stops where the weight drops below minWeight.
func weightTable(p DenoiseParams) []float64 {
	area := float64(p.TemplateWindow * p.TemplateWindow)
	hh := p.H * p.H
	limit := int(math.Ceil(area * hh * math.Log(1/minWeight)))
	lut := make([]float64, 0, limit+1)
	for ssd := 0; ssd <= limit; ssd++ {
		wt := math.Exp(-float64(ssd) / area / hh)
		if wt < minWeight {
			break
		}
		lut = append(lut, wt)
	}
	return lut
}

// reflectPad copies g into a buffer with pad pixels of mirrored border on
// every side (reflection excludes the edge pixel itself).
func reflectPad(g *image.Gray, pad int) ([]uint8, int) {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	stride := w + 2*pad
	out := make([]uint8, stride*(h+2*pad))
	for y := 0; y < h+2*pad; y++ {
		sy := mirror(y-pad, h)
		src := g.Pix[g.PixOffset(b.Min.X, sy+b.Min.Y):]
		row := out[y*stride : (y+1)*stride]
		for x := range row {
			row[x] = src[mirror(x-pad, w)]
		}
	}
	return out, stride
}

func mirror(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

// activeMask marks the pixels whose full search neighborhood (search window
// plus template margin) contains more than one intensity. All other pixels
// are fixed points of the filter.
func activeMask(padded []uint8, stride, w, h, pad int) []bool {
	ph := h + 2*pad
	k := 2*pad + 1

	// Horizontal min/max over k pixels, for each padded row and image column.
	rowMin := make([]uint8, ph*w)
	rowMax := make([]uint8, ph*w)
	for y := 0; y < ph; y++ {
		row := padded[y*stride:]
		for x := 0; x < w; x++ {
			lo, hi := row[x], row[x]
			for i := 1; i < k; i++ {
				v := row[x+i]
				lo = min(lo, v)
				hi = max(hi, v)
			}
			rowMin[y*w+x] = lo
			rowMax[y*w+x] = hi
		}
	}

	active := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lo, hi := rowMin[y*w+x], rowMax[y*w+x]
			for i := 1; i < k && lo == hi; i++ {
				lo = min(lo, rowMin[(y+i)*w+x])
				hi = max(hi, rowMax[(y+i)*w+x])
			}
			active[y*w+x] = lo != hi
		}
	}
	return active
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
