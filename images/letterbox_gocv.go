//go:build gocv

package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

func (f ResampleFilter) gocvInterpolation() gocv.InterpolationFlags {
	switch f {
	case ResampleNearest:
		return gocv.InterpolationNearestNeighbor
	case ResampleBicubic:
		return gocv.InterpolationCubic
	case ResampleLanczos3:
		return gocv.InterpolationLanczos4
	default:
		return gocv.InterpolationLinear
	}
}

// LetterboxMat is the OpenCV counterpart of Letterbox. It produces the same
// geometry, resizing with gocv.Resize and padding with gocv.CopyMakeBorder.
// The caller owns the returned Mat and must Close it.
func LetterboxMat(src gocv.Mat, opts LetterboxOptions) (gocv.Mat, LetterboxPlan, error) {
	if src.Empty() {
		return gocv.NewMat(), LetterboxPlan{}, errors.Wrap(ErrInvalidInput, "empty mat")
	}
	plan, err := PlanLetterbox(Size{Width: src.Cols(), Height: src.Rows()}, opts)
	if err != nil {
		return gocv.NewMat(), LetterboxPlan{}, err
	}

	resized := gocv.NewMat()
	defer resized.Close()
	if plan.NeedsResize() {
		size := image.Pt(plan.Unpadded.Width, plan.Unpadded.Height)
		gocv.Resize(src, &resized, size, 0, 0, opts.Filter.gocvInterpolation())
	} else {
		src.CopyTo(&resized)
	}

	dst := gocv.NewMat()
	gocv.CopyMakeBorder(resized, &dst, plan.Top, plan.Bottom, plan.Left, plan.Right, gocv.BorderConstant, opts.Color)
	return dst, plan, nil
}
