package postprocess

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ErrShapeMismatch is returned when a raw output buffer does not match its
// declared shape.
var ErrShapeMismatch = errors.New("output shape mismatch")

// boxAttributes is the number of leading columns per row: cx, cy, w, h, objectness.
const boxAttributes = 5

// Output is a typed view over a raw [1, N, 5+C] detection output.
type Output struct {
	Data        []float32
	Predictions int
	Attributes  int
}

// NewOutput validates data against shape and wraps it.
//
// Arguments:
//   - data: The flat row-major output buffer.
//   - shape: [1, N, 5+C], or [N, 5+C] for models that drop the batch axis.
//
// Returns:
//   - *Output: The view over data.
//   - error: ErrShapeMismatch when the shape is malformed or disagrees with len(data).
func NewOutput(data []float32, shape []int64) (*Output, error) {
	switch len(shape) {
	case 2:
		shape = append([]int64{1}, shape...)
	case 3:
	default:
		return nil, errors.Wrapf(ErrShapeMismatch, "want rank 3 output, got shape %v", shape)
	}

	if shape[0] != 1 {
		return nil, errors.Wrapf(ErrShapeMismatch, "batch must be 1, got %d", shape[0])
	}
	if shape[1] < 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "negative prediction count %d", shape[1])
	}
	if shape[2] < boxAttributes+1 {
		return nil, errors.Wrapf(ErrShapeMismatch, "need at least %d attributes per row, got %d",
			boxAttributes+1, shape[2])
	}
	if want := shape[1] * shape[2]; int64(len(data)) != want {
		return nil, errors.Wrapf(ErrShapeMismatch, "shape %v needs %d values, got %d", shape, want, len(data))
	}

	return &Output{
		Data:        data,
		Predictions: int(shape[1]),
		Attributes:  int(shape[2]),
	}, nil
}

// OutputFromDense wraps a float32 gorgonia tensor.
func OutputFromDense(t *tensor.Dense) (*Output, error) {
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.Wrapf(ErrShapeMismatch, "want float32 output, got %v", t.Dtype())
	}
	dims := t.Shape()
	shape := make([]int64, len(dims))
	for i, d := range dims {
		shape[i] = int64(d)
	}
	return NewOutput(data, shape)
}

// NumClasses returns the number of class scores per row.
func (o *Output) NumClasses() int {
	return o.Attributes - boxAttributes
}

// Shape returns the [1, N, 5+C] shape of the view.
func (o *Output) Shape() []int64 {
	return []int64{1, int64(o.Predictions), int64(o.Attributes)}
}

// Row returns the attributes of prediction i.
func (o *Output) Row(i int) []float32 {
	start := i * o.Attributes
	return o.Data[start : start+o.Attributes : start+o.Attributes]
}
