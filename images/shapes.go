// Package images - Image geometry, letterboxing and decoding utilities.
package images

import (
	"fmt"
	"image"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// ErrInvalidInput is returned when an image, size or option cannot be processed.
var ErrInvalidInput = errors.New("invalid input")

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width"  yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// SizeOf returns the pixel dimensions of img.
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{Width: b.Dx(), Height: b.Dy()}
}

// Validate reports ErrInvalidInput when either dimension is not positive.
func (s Size) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return errors.Wrapf(ErrInvalidInput, "size %s must be positive", s)
	}
	return nil
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Box is an axis-aligned box in (x, y, width, height) form where (x, y) is the
// top-left corner.
type Box struct {
	X, Y, Width, Height float32
}

// BoxFromCenter converts a center-form (cx, cy, w, h) box to top-left form.
func BoxFromCenter(cx, cy, w, h float32) Box {
	return Box{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float32 { return b.X + b.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float32 { return b.Y + b.Height }

// Area returns the box area, or 0 for degenerate boxes.
func (b Box) Area() float32 {
	w, h := b.Right()-b.X, b.Bottom()-b.Y
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Rectangle rounds the box to the nearest integer pixel rectangle.
func (b Box) Rectangle() image.Rectangle {
	x, y := int(math32.Round(b.X)), int(math32.Round(b.Y))
	return image.Rectangle{
		Min: image.Pt(x, y),
		Max: image.Pt(x+int(math32.Round(b.Width)), y+int(math32.Round(b.Height))),
	}
}

// CalculateIoU measures how much two boxes overlap as
//
//	IoU = Area of Intersection / Area of Union
//
// A value of 1 means the boxes are identical and 0 means they are disjoint or
// only touch along an edge. The intersection corners are the maximum of the two
// top-left corners and the minimum of the two bottom-right corners; when the
// resulting width or height is not positive there is no overlap. The union
// follows inclusion-exclusion: Area(A) + Area(B) - Area(Intersection).
//
// Arguments:
//   - a: The first box.
//   - b: The second box.
//
// Returns:
//   - float32: The IoU in [0, 1]. Degenerate boxes always yield 0.
func CalculateIoU(a, b Box) float32 {
	interW := math32.Min(a.Right(), b.Right()) - math32.Max(a.X, b.X)
	interH := math32.Min(a.Bottom(), b.Bottom()) - math32.Max(a.Y, b.Y)
	if interW <= 0 || interH <= 0 {
		return 0
	}

	inter := interW * interH
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return math32.Min(inter/union, 1)
}
