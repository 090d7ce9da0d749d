package postprocess

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-yolo/images"
)

func roundInt(v float32) int {
	return int(math32.Round(v))
}

// ScaleCoords maps a box from a resized frame back to the original image using
// only the two shapes. The ratio and padding are recomputed assuming an
// aspect-preserving letterbox that centered the image; padding is truncated to
// whole pixels. Use Unletterbox when the LetterboxPlan is available.
//
// Arguments:
//   - resized: The size of the frame the box is expressed in.
//   - original: The original image size.
//   - box: The box in the resized frame.
//
// Returns:
//   - image.Rectangle: The box in original-image pixels, unclamped.
//   - error: images.ErrInvalidInput when either size is not positive.
func ScaleCoords(resized, original images.Size, box images.Box) (image.Rectangle, error) {
	if err := resized.Validate(); err != nil {
		return image.Rectangle{}, errors.Wrap(err, "resized frame")
	}
	if err := original.Validate(); err != nil {
		return image.Rectangle{}, errors.Wrap(err, "original image")
	}

	ratio := math32.Min(
		float32(resized.Height)/float32(original.Height),
		float32(resized.Width)/float32(original.Width),
	)
	padX := float32(int((float32(resized.Width) - float32(original.Width)*ratio) / 2))
	padY := float32(int((float32(resized.Height) - float32(original.Height)*ratio) / 2))

	return rect(
		roundInt((box.X-padX)/ratio),
		roundInt((box.Y-padY)/ratio),
		roundInt(box.Width/ratio),
		roundInt(box.Height/ratio),
	), nil
}

// Unletterbox inverts the exact transform described by plan, including the
// per-axis ratios of stretch-fill mode.
func Unletterbox(plan images.LetterboxPlan, box images.Box) image.Rectangle {
	return rect(
		roundInt((box.X-float32(plan.Left))/plan.RatioX),
		roundInt((box.Y-float32(plan.Top))/plan.RatioY),
		roundInt(box.Width/plan.RatioX),
		roundInt(box.Height/plan.RatioY),
	)
}

// ClampRect bounds every corner of r to [0, size].
func ClampRect(r image.Rectangle, size images.Size) image.Rectangle {
	clamp := func(v, hi int) int { return min(max(v, 0), hi) }
	return image.Rectangle{
		Min: image.Pt(clamp(r.Min.X, size.Width), clamp(r.Min.Y, size.Height)),
		Max: image.Pt(clamp(r.Max.X, size.Width), clamp(r.Max.Y, size.Height)),
	}
}

// rect builds a rectangle from top-left and size without canonicalizing.
func rect(x, y, w, h int) image.Rectangle {
	return image.Rectangle{Min: image.Pt(x, y), Max: image.Pt(x+w, y+h)}
}
