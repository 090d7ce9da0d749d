package images

import (
	"image"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCalculateIoU validates the IoU implementation against known cases.
func TestCalculateIoU(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Box
		expected float32
	}{
		{name: "Identical boxes", a: Box{0, 0, 100, 100}, b: Box{0, 0, 100, 100}, expected: 1},
		{name: "No overlap", a: Box{0, 0, 100, 100}, b: Box{200, 200, 100, 100}, expected: 0},
		{name: "Touching edges", a: Box{0, 0, 100, 100}, b: Box{100, 0, 100, 100}, expected: 0},
		// intersection=2500, union=17500
		{name: "Quarter overlap", a: Box{0, 0, 100, 100}, b: Box{50, 50, 100, 100}, expected: 1.0 / 7.0},
		{name: "One inside other", a: Box{0, 0, 100, 100}, b: Box{25, 25, 50, 50}, expected: 0.25},
		{name: "Zero width", a: Box{0, 0, 0, 100}, b: Box{0, 0, 100, 100}, expected: 0},
		{name: "Negative height", a: Box{0, 0, 10, -10}, b: Box{0, -10, 10, 10}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CalculateIoU(tt.a, tt.b), 1e-5)
			assert.InDelta(t, tt.expected, CalculateIoU(tt.b, tt.a), 1e-5, "IoU must be symmetric")
		})
	}
}

// TestCalculateIoU_Bounds checks IoU stays in [0,1] and IoU(a,a)=1 for random boxes.
func TestCalculateIoU_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		a := Box{rng.Float32() * 500, rng.Float32() * 500, 1 + rng.Float32()*200, 1 + rng.Float32()*200}
		b := Box{rng.Float32() * 500, rng.Float32() * 500, 1 + rng.Float32()*200, 1 + rng.Float32()*200}

		iou := CalculateIoU(a, b)
		require.GreaterOrEqual(t, iou, float32(0))
		require.LessOrEqual(t, iou, float32(1))
		require.Equal(t, float32(1), CalculateIoU(a, a))
	}
}

func TestBoxFromCenter(t *testing.T) {
	b := BoxFromCenter(100, 100, 50, 50)
	assert.Equal(t, Box{X: 75, Y: 75, Width: 50, Height: 50}, b)
	assert.Equal(t, float32(125), b.Right())
	assert.Equal(t, float32(125), b.Bottom())
	assert.Equal(t, float32(2500), b.Area())
	assert.Equal(t, image.Rect(75, 75, 125, 125), b.Rectangle())
}

func TestSizeValidate(t *testing.T) {
	require.NoError(t, Size{Width: 1, Height: 1}.Validate())

	for _, s := range []Size{{0, 10}, {10, 0}, {-1, 5}} {
		err := s.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput), "size %s", s)
	}
}
