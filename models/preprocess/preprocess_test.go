package preprocess

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-yolo/images"
)

// twoByOne returns a 2x1 image with a red pixel followed by a blue one.
func twoByOne() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(1, 0, color.RGBA{B: 51, A: 255})
	return img
}

func TestPack_Layouts(t *testing.T) {
	tests := []struct {
		name     string
		config   PackConfig
		expected []float32
	}{
		{
			name:   "RGB planar",
			config: DefaultPackConfig(),
			// R plane, G plane, B plane
			expected: []float32{1, 0, 0, 0, 0, 0.2},
		},
		{
			name:     "BGR planar",
			config:   PackConfig{ColorMode: ColorModeBGR},
			expected: []float32{0, 0.2, 0, 0, 1, 0},
		},
		{
			name:     "RGB interleaved",
			config:   PackConfig{ChannelOrder: ChannelOrderHWC},
			expected: []float32{1, 0, 0, 0, 0, 0.2},
		},
		{
			name:     "raw values",
			config:   PackConfig{ChannelOrder: ChannelOrderHWC, Normalization: NormalizeNone},
			expected: []float32{255, 0, 0, 0, 0, 51},
		},
		{
			name:     "minus one to one",
			config:   PackConfig{Normalization: NormalizeMinusOneToOne},
			expected: []float32{1, -1, -1, -1, -1, 51/127.5 - 1},
		},
		{
			name: "standardize",
			config: PackConfig{
				Normalization: NormalizeStandardize,
				Mean:          [3]float32{5, 0, 1},
				Std:           [3]float32{10, 1, 2},
			},
			expected: []float32{25, -0.5, 0, 0, -0.5, 25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPacker(tt.config, nil)
			require.NoError(t, err)

			tensor, err := p.Pack(twoByOne())
			require.NoError(t, err)
			require.Len(t, tensor.Data, 6)
			assert.InDeltaSlice(t, tt.expected, tensor.Data, 1e-6)
			assert.Equal(t, Shape{Batch: 1, Channels: 3, Height: 1, Width: 2}, tensor.Shape)
		})
	}
}

// TestPack_GenericImage checks images that are not *image.RGBA take the slow path.
func TestPack_GenericImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	img.SetNRGBA(10, 10, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(11, 10, color.NRGBA{B: 51, A: 255})

	p, err := NewPacker(DefaultPackConfig(), nil)
	require.NoError(t, err)

	tensor, err := p.Pack(img)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{1, 0, 0, 0, 0, 0.2}, tensor.Data, 1e-6)
}

func TestPack_Range(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}

	p, err := NewPacker(DefaultPackConfig(), nil)
	require.NoError(t, err)
	tensor, err := p.Pack(img)
	require.NoError(t, err)

	for _, v := range tensor.Data {
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1))
	}
	assert.Equal(t, []int64{1, 3, 16, 16}, tensor.Dims())
	assert.Equal(t, []int{1, 3, 16, 16}, []int(tensor.Dense().Shape()))
}

func TestPack_Invalid(t *testing.T) {
	p, err := NewPacker(DefaultPackConfig(), nil)
	require.NoError(t, err)

	_, err = p.Pack(nil)
	assert.True(t, errors.Is(err, images.ErrInvalidInput))

	_, err = NewPacker(PackConfig{Normalization: NormalizeStandardize}, nil)
	assert.True(t, errors.Is(err, images.ErrInvalidInput))
}

func TestTensor_Release(t *testing.T) {
	pool := NewPool()
	p, err := NewPacker(DefaultPackConfig(), pool)
	require.NoError(t, err)

	tensor, err := p.Pack(twoByOne())
	require.NoError(t, err)
	require.NoError(t, tensor.Validate())

	tensor.Release()
	assert.True(t, tensor.Released())
	assert.Nil(t, tensor.Data)
	assert.Error(t, tensor.Validate())

	// A second release must not hand the buffer out twice.
	tensor.Release()

	var nilTensor *Tensor
	nilTensor.Release()
}

func TestTensor_Validate(t *testing.T) {
	tensor := &Tensor{Data: make([]float32, 5), Shape: Shape{Batch: 1, Channels: 3, Height: 1, Width: 2}}
	err := tensor.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, images.ErrInvalidInput))

	tensor = &Tensor{Shape: Shape{Batch: 1, Channels: 3}}
	assert.True(t, errors.Is(tensor.Validate(), images.ErrInvalidInput))
}

func TestPreprocessor(t *testing.T) {
	pre, err := NewPreprocessor(DefaultConfig())
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 1280, 720))
	res, err := pre.Preprocess(img)
	require.NoError(t, err)
	defer res.Tensor.Release()

	assert.Equal(t, Shape{Batch: 1, Channels: 3, Height: 384, Width: 640}, res.Tensor.Shape)
	assert.Equal(t, float32(0.5), res.Letterbox.RatioX)
	assert.Equal(t, 12, res.Letterbox.Top)

	// Padding rows hold the normalized pad gray.
	assert.InDelta(t, 114.0/255.0, res.Tensor.Data[0], 1e-6)
}

func TestPreprocessor_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Letterbox.Target = images.Size{}
	_, err := NewPreprocessor(cfg)
	assert.True(t, errors.Is(err, images.ErrInvalidInput))

	pre, err := NewPreprocessor(DefaultConfig())
	require.NoError(t, err)
	_, err = pre.Preprocess(image.NewRGBA(image.Rectangle{}))
	assert.True(t, errors.Is(err, images.ErrInvalidInput))
}

func TestPreprocessor_Concurrent(t *testing.T) {
	pre, err := NewPreprocessor(DefaultConfig())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(size int) {
			defer wg.Done()
			res, err := pre.Preprocess(image.NewRGBA(image.Rect(0, 0, size, size)))
			if assert.NoError(t, err) {
				assert.NoError(t, res.Tensor.Validate())
				res.Tensor.Release()
			}
		}(64 + i*32)
	}
	wg.Wait()
}
