package preprocess

import "image"

// Histogram counts the pixels of g at each intensity.
func Histogram(g *image.Gray) [256]int {
	var hist [256]int
	b := g.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[g.PixOffset(b.Min.X, y):g.PixOffset(b.Max.X, y)]
		for _, v := range row {
			hist[v]++
		}
	}
	return hist
}

// OtsuThreshold returns the global threshold that maximizes the
// between-class variance of g's histogram. Pixels strictly above the
// threshold are foreground.
//
// A single-intensity image yields 0.
func OtsuThreshold(g *image.Gray) uint8 {
	hist := Histogram(g)

	var total, sum float64
	for i, n := range hist {
		total += float64(n)
		sum += float64(i) * float64(n)
	}
	if total == 0 {
		return 0
	}

	var (
		wB, sumB float64
		best     = -1.0
		t        int
	)
	for i := 0; i < 256; i++ {
		wB += float64(hist[i])
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(hist[i])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			t = i
		}
	}
	return uint8(t)
}

// Binarize maps pixels above t to 255 and all others to 0.
func Binarize(g *image.Gray, t uint8) *image.Gray {
	b := g.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := g.Pix[g.PixOffset(b.Min.X, y):g.PixOffset(b.Max.X, y)]
		out := dst.Pix[(y-b.Min.Y)*dst.Stride:]
		for x, v := range src {
			if v > t {
				out[x] = 255
			} else {
				out[x] = 0
			}
		}
	}
	return dst
}
