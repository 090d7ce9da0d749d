// Package preprocess - Letterboxing and packing images into model input tensors.
package preprocess

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-yolo/images"
)

// ChannelOrder selects how channel values are laid out in the tensor.
type ChannelOrder int

const (
	// ChannelOrderCHW is the planar layout: every value of channel 0, then
	// channel 1, then channel 2.
	ChannelOrderCHW ChannelOrder = iota
	// ChannelOrderHWC interleaves channels per pixel.
	ChannelOrderHWC
)

// Shape describes a 4D image tensor.
type Shape struct {
	Batch    int
	Channels int
	Height   int
	Width    int
}

// Len returns the number of elements the shape holds.
func (s Shape) Len() int {
	return s.Batch * s.Channels * s.Height * s.Width
}

// Dims returns the dimensions laid out for order.
func (s Shape) Dims(order ChannelOrder) []int64 {
	if order == ChannelOrderHWC {
		return []int64{int64(s.Batch), int64(s.Height), int64(s.Width), int64(s.Channels)}
	}
	return []int64{int64(s.Batch), int64(s.Channels), int64(s.Height), int64(s.Width)}
}

// Validate reports images.ErrInvalidInput when any dimension is not positive.
func (s Shape) Validate() error {
	if s.Batch <= 0 || s.Channels <= 0 || s.Height <= 0 || s.Width <= 0 {
		return errors.Wrapf(images.ErrInvalidInput, "tensor shape %s must be positive", s)
	}
	return nil
}

func (s Shape) String() string {
	return fmt.Sprintf("[%d %d %d %d]", s.Batch, s.Channels, s.Height, s.Width)
}

// Tensor is a flat float32 buffer with explicit shape metadata. Tensors
// obtained from a Packer must be released exactly once after inference.
type Tensor struct {
	Data   []float32
	Shape  Shape
	Layout ChannelOrder

	pool     *Pool
	released bool
}

// Dims returns the tensor dimensions in its own layout.
func (t *Tensor) Dims() []int64 {
	return t.Shape.Dims(t.Layout)
}

// Validate checks the shape and that the buffer length matches it.
func (t *Tensor) Validate() error {
	if t == nil {
		return errors.Wrap(images.ErrInvalidInput, "nil tensor")
	}
	if t.released {
		return errors.Wrap(images.ErrInvalidInput, "tensor already released")
	}
	if err := t.Shape.Validate(); err != nil {
		return err
	}
	if len(t.Data) != t.Shape.Len() {
		return errors.Wrapf(images.ErrInvalidInput, "tensor has %d values, shape %s needs %d",
			len(t.Data), t.Shape, t.Shape.Len())
	}
	return nil
}

// Dense wraps the buffer in a gorgonia tensor without copying.
func (t *Tensor) Dense() *tensor.Dense {
	dims := t.Dims()
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(t.Data))
}

// Release returns the buffer to its pool. Calling it more than once is a no-op.
func (t *Tensor) Release() {
	if t == nil || t.released {
		return
	}
	t.released = true
	if t.pool != nil {
		t.pool.put(t.Data)
	}
	t.Data = nil
}

// Released reports whether Release has been called.
func (t *Tensor) Released() bool {
	return t.released
}

// Pool recycles tensor buffers between frames.
type Pool struct {
	pool sync.Pool
}

// NewPool creates an empty buffer pool.
func NewPool() *Pool {
	return &Pool{}
}

func (p *Pool) get(n int) []float32 {
	if v, ok := p.pool.Get().(*[]float32); ok && cap(*v) >= n {
		return (*v)[:n]
	}
	return make([]float32, n)
}

func (p *Pool) put(buf []float32) {
	if cap(buf) == 0 {
		return
	}
	buf = buf[:0]
	p.pool.Put(&buf)
}
