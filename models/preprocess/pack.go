package preprocess

import (
	"image"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-yolo/images"
)

// ColorMode is the channel order the network expects.
type ColorMode int

const (
	// ColorModeRGB packs red, green, blue.
	ColorModeRGB ColorMode = iota
	// ColorModeBGR packs blue, green, red.
	ColorModeBGR
)

// ParseColorMode maps "rgb" or "bgr" to a ColorMode. An empty name selects RGB.
func ParseColorMode(name string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rgb":
		return ColorModeRGB, nil
	case "bgr":
		return ColorModeBGR, nil
	}
	return 0, errors.Wrapf(images.ErrInvalidInput, "unknown color mode %q", name)
}

// NormalizationType selects how 8-bit channel values map to floats.
type NormalizationType int

const (
	// NormalizeZeroToOne divides by 255.
	NormalizeZeroToOne NormalizationType = iota
	// NormalizeNone keeps raw 0-255 values.
	NormalizeNone
	// NormalizeMinusOneToOne maps to [-1, 1].
	NormalizeMinusOneToOne
	// NormalizeStandardize applies (v - mean) / std per channel, in 0-255 units.
	NormalizeStandardize
)

// PackConfig configures the tensor packer.
type PackConfig struct {
	ColorMode     ColorMode
	ChannelOrder  ChannelOrder
	Normalization NormalizationType
	// Mean and Std are used by NormalizeStandardize, in packed channel order.
	Mean [3]float32
	Std  [3]float32
}

// DefaultPackConfig returns the YOLOv5 layout: RGB, planar, scaled to [0, 1].
func DefaultPackConfig() PackConfig {
	return PackConfig{
		ColorMode:     ColorModeRGB,
		ChannelOrder:  ChannelOrderCHW,
		Normalization: NormalizeZeroToOne,
	}
}

// Validate rejects standardization with a zero deviation.
func (c PackConfig) Validate() error {
	if c.Normalization == NormalizeStandardize {
		for i, s := range c.Std {
			if s == 0 {
				return errors.Wrapf(images.ErrInvalidInput, "std[%d] must be non-zero", i)
			}
		}
	}
	return nil
}

// Packer converts images into tensors, recycling buffers through a Pool.
type Packer struct {
	config PackConfig
	pool   *Pool
}

// NewPacker creates a packer. A nil pool allocates a fresh buffer per tensor.
func NewPacker(config PackConfig, pool *Pool) (*Packer, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "pack config")
	}
	return &Packer{config: config, pool: pool}, nil
}

// Pack converts img into a [1, 3, H, W] tensor (or [1, H, W, 3] for HWC).
//
// Arguments:
//   - img: The (letterboxed) image.
//
// Returns:
//   - *Tensor: The packed tensor; call Release once inference is done.
//   - error: images.ErrInvalidInput for a nil or empty image.
func (p *Packer) Pack(img image.Image) (*Tensor, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.Wrap(images.ErrInvalidInput, "cannot pack an empty image")
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	shape := Shape{Batch: 1, Channels: 3, Height: h, Width: w}

	var data []float32
	if p.pool != nil {
		data = p.pool.get(shape.Len())
	} else {
		data = make([]float32, shape.Len())
	}

	norm := p.normalizer()
	plane := w * h
	index := func(x, y, c int) int {
		if p.config.ChannelOrder == ChannelOrderHWC {
			return (y*w+x)*3 + c
		}
		return c*plane + y*w + x
	}
	// Source channel for each packed channel.
	src := [3]int{0, 1, 2}
	if p.config.ColorMode == ColorModeBGR {
		src = [3]int{2, 1, 0}
	}

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < h; y++ {
			row := rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < w; x++ {
				px := row[x*4 : x*4+3]
				for c := 0; c < 3; c++ {
					data[index(x, y, c)] = norm(c, px[src[c]])
				}
			}
		}
	} else {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				px := [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8)}
				for c := 0; c < 3; c++ {
					data[index(x, y, c)] = norm(c, px[src[c]])
				}
			}
		}
	}

	return &Tensor{Data: data, Shape: shape, Layout: p.config.ChannelOrder, pool: p.pool}, nil
}

func (p *Packer) normalizer() func(c int, v uint8) float32 {
	switch p.config.Normalization {
	case NormalizeNone:
		return func(_ int, v uint8) float32 { return float32(v) }
	case NormalizeMinusOneToOne:
		return func(_ int, v uint8) float32 { return float32(v)/127.5 - 1 }
	case NormalizeStandardize:
		mean, std := p.config.Mean, p.config.Std
		return func(c int, v uint8) float32 { return (float32(v) - mean[c]) / std[c] }
	default:
		return func(_ int, v uint8) float32 { return float32(v) / 255 }
	}
}
