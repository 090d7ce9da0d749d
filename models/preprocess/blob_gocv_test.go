//go:build gocv

package preprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-yolo/images"
)

func TestBlobFromMat_MatchesPack(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 12, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 12; x++ {
			src.SetRGBA(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 40), B: 90, A: 255})
		}
	}
	opts := images.DefaultLetterboxOptions()
	opts.Target = images.Size{Width: 16, Height: 16}
	opts.AllowUpscale = false

	lb, err := images.Letterbox(src, opts)
	require.NoError(t, err)

	mat, err := gocv.ImageToMatRGB(src)
	require.NoError(t, err)
	defer mat.Close()
	padded, plan, err := images.LetterboxMat(mat, opts)
	require.NoError(t, err)
	defer padded.Close()
	require.Equal(t, lb.LetterboxPlan, plan)

	modes := []struct {
		name string
		mode ColorMode
	}{
		{name: "rgb", mode: ColorModeRGB},
		{name: "bgr", mode: ColorModeBGR},
	}
	for _, tt := range modes {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPackConfig()
			cfg.ColorMode = tt.mode
			packer, err := NewPacker(cfg, nil)
			require.NoError(t, err)

			want, err := packer.Pack(lb.Image)
			require.NoError(t, err)
			got, err := BlobFromMat(padded, cfg)
			require.NoError(t, err)

			assert.Equal(t, want.Shape, got.Shape)
			assert.InDeltaSlice(t, want.Data, got.Data, 1e-5)
		})
	}
}

func TestBlobFromMat_Rejects(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	_, err := BlobFromMat(empty, DefaultPackConfig())
	assert.ErrorIs(t, err, images.ErrInvalidInput)

	m := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3)
	defer m.Close()
	_, err = BlobFromMat(m, PackConfig{ChannelOrder: ChannelOrderHWC})
	assert.ErrorIs(t, err, images.ErrInvalidInput)
}
