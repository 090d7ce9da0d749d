//go:build gocv

package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// gradient returns a w x h image whose channels vary with x and y.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 7), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func matFromImage(t *testing.T, img image.Image) gocv.Mat {
	t.Helper()
	m, err := gocv.ImageToMatRGB(img)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestLetterboxMat_MatchesLetterbox(t *testing.T) {
	noUpscale := DefaultLetterboxOptions()
	noUpscale.Target = Size{Width: 64, Height: 64}
	noUpscale.AllowUpscale = false

	fixed := DefaultLetterboxOptions()
	fixed.Target = Size{Width: 20, Height: 20}
	fixed.Mode = LetterboxFixed

	tests := []struct {
		name string
		img  image.Image
		opts LetterboxOptions
	}{
		// Exact copy, so any content must match.
		{name: "pad only", img: gradient(40, 20), opts: noUpscale},
		// Interpolation differs between backends; uniform content does not.
		{name: "resize and pad", img: solid(40, 20, color.RGBA{R: 200, G: 100, B: 50, A: 255}), opts: fixed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := Letterbox(tt.img, tt.opts)
			require.NoError(t, err)

			m, plan, err := LetterboxMat(matFromImage(t, tt.img), tt.opts)
			require.NoError(t, err)
			defer m.Close()
			assert.Equal(t, want.LetterboxPlan, plan)

			got, err := m.ToImage()
			require.NoError(t, err)
			require.Equal(t, want.Image.Bounds(), got.Bounds())

			b := got.Bounds()
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					w := want.Image.RGBAAt(x, y)
					g := color.RGBAModel.Convert(got.At(x, y)).(color.RGBA)
					assert.InDelta(t, int(w.R), int(g.R), 1, "R at %d,%d", x, y)
					assert.InDelta(t, int(w.G), int(g.G), 1, "G at %d,%d", x, y)
					assert.InDelta(t, int(w.B), int(g.B), 1, "B at %d,%d", x, y)
				}
			}
		})
	}
}

func TestLetterboxMat_Empty(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()

	m, _, err := LetterboxMat(empty, DefaultLetterboxOptions())
	defer m.Close()
	assert.ErrorIs(t, err, ErrInvalidInput)
}
