package preprocess

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"
)

// createTextImage draws dark bars on a light background with mild color noise.
func createTextImage(width, height int) *image.RGBA {
	rng := rand.New(rand.NewSource(7))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(220 + rng.Intn(20))
			if y%12 >= 4 && y%12 < 8 && x%10 < 7 {
				v = uint8(30 + rng.Intn(20))
			}
			img.Set(x, y, color.RGBA{v, v - 10, v, 255})
		}
	}
	return img
}

func TestGrayscale(t *testing.T) {
	t.Run("origin reset", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(5, 5, 15, 10))
		g, err := Grayscale(src)
		if err != nil {
			t.Fatalf("Grayscale() error = %v", err)
		}
		if g.Bounds() != image.Rect(0, 0, 10, 5) {
			t.Errorf("Bounds() = %v", g.Bounds())
		}
	})

	t.Run("transparent is white", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
		src.SetNRGBA(1, 0, color.NRGBA{0, 0, 0, 255})
		g, err := Grayscale(src)
		if err != nil {
			t.Fatal(err)
		}
		if g.GrayAt(0, 0).Y != 255 || g.GrayAt(1, 0).Y != 0 {
			t.Errorf("pixels = %v, %v", g.GrayAt(0, 0), g.GrayAt(1, 0))
		}
	})

	t.Run("empty", func(t *testing.T) {
		for _, img := range []image.Image{nil, image.NewGray(image.Rect(0, 0, 0, 10))} {
			if _, err := Grayscale(img); !errors.Is(err, ErrEmptyImage) {
				t.Errorf("Grayscale() error = %v, want ErrEmptyImage", err)
			}
		}
	})
}

func TestOtsuThresholdBimodal(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range g.Pix {
		if i%3 == 0 {
			g.Pix[i] = 40
		} else {
			g.Pix[i] = 200
		}
	}

	th := OtsuThreshold(g)
	if th < 40 || th >= 200 {
		t.Fatalf("OtsuThreshold() = %d, want in [40, 200)", th)
	}

	bin := Binarize(g, th)
	for i, v := range bin.Pix {
		want := uint8(255)
		if g.Pix[i] == 40 {
			want = 0
		}
		if v != want {
			t.Fatalf("pixel %d = %d, want %d", i, v, want)
		}
	}
}

func TestOtsuThresholdUniform(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range g.Pix {
		g.Pix[i] = 128
	}
	if th := OtsuThreshold(g); th != 0 {
		t.Errorf("OtsuThreshold() = %d, want 0", th)
	}
}

func TestDenoiseParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       DenoiseParams
		wantErr bool
	}{
		{"default", DefaultDenoise(), false},
		{"even template", DenoiseParams{H: 10, TemplateWindow: 6, SearchWindow: 21}, true},
		{"zero search", DenoiseParams{H: 10, TemplateWindow: 7, SearchWindow: 0}, true},
		{"zero strength", DenoiseParams{H: 0, TemplateWindow: 7, SearchWindow: 21}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDenoiseUniformIsFixedPoint(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 40, 40))
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	out, err := Denoise(g, DefaultDenoise())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Pix, g.Pix) {
		t.Error("uniform image changed")
	}
}

func TestDenoiseReducesNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := image.NewGray(image.Rect(0, 0, 48, 48))
	for i := range g.Pix {
		g.Pix[i] = uint8(128 + rng.Intn(9) - 4)
	}

	out, err := Denoise(g, DefaultDenoise())
	if err != nil {
		t.Fatal(err)
	}
	if variance(out.Pix) >= variance(g.Pix)/2 {
		t.Errorf("variance %v -> %v, want at least halved", variance(g.Pix), variance(out.Pix))
	}
}

func TestDenoiseSmallImage(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 2))
	copy(g.Pix, []uint8{0, 255, 0, 255, 0, 255})
	out, err := Denoise(g, DefaultDenoise())
	if err != nil {
		t.Fatalf("Denoise() error = %v", err)
	}
	if out.Bounds() != g.Bounds() {
		t.Errorf("Bounds() = %v", out.Bounds())
	}
}

func TestPipelineDeterministic(t *testing.T) {
	img := createTextImage(64, 48)
	p := Default()

	first, err := p.RunPNG(img)
	if err != nil {
		t.Fatalf("RunPNG() error = %v", err)
	}
	second, err := p.RunPNG(img)
	if err != nil {
		t.Fatalf("RunPNG() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("RunPNG() output differs between runs")
	}
}

func TestPipelineOutputIsBinaryShape(t *testing.T) {
	img := createTextImage(64, 48)
	out, err := Pipeline{Denoise: DefaultDenoise(), SkipDenoise: true}.Run(img)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range out.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("binarized pixel %d", v)
		}
	}
	// Bars are dark, background light.
	if out.GrayAt(2, 5).Y != 0 || out.GrayAt(2, 1).Y != 255 {
		t.Errorf("bar=%d background=%d", out.GrayAt(2, 5).Y, out.GrayAt(2, 1).Y)
	}
}

func TestPipelineEmpty(t *testing.T) {
	if _, err := Default().Run(image.NewRGBA(image.Rectangle{})); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Run() error = %v, want ErrEmptyImage", err)
	}
}

func variance(px []uint8) float64 {
	var sum, sq float64
	for _, v := range px {
		sum += float64(v)
		sq += float64(v) * float64(v)
	}
	n := float64(len(px))
	mean := sum / n
	return sq/n - mean*mean
}
