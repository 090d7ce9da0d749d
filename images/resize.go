package images

import (
	"image"
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// ResampleFilter selects the interpolation kernel used when resizing.
type ResampleFilter int

const (
	// ResampleBilinear is the default and matches the usual YOLO preprocessing.
	ResampleBilinear ResampleFilter = iota
	// ResampleNearest picks the nearest source pixel.
	ResampleNearest
	// ResampleBicubic uses a cubic kernel.
	ResampleBicubic
	// ResampleLanczos3 uses a Lanczos kernel with a=3.
	ResampleLanczos3
)

var resampleNames = map[ResampleFilter]string{
	ResampleBilinear: "bilinear",
	ResampleNearest:  "nearest",
	ResampleBicubic:  "bicubic",
	ResampleLanczos3: "lanczos3",
}

func (f ResampleFilter) String() string {
	if name, ok := resampleNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseResampleFilter maps a filter name to a ResampleFilter. An empty name
// selects ResampleBilinear.
func ParseResampleFilter(name string) (ResampleFilter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ResampleBilinear, nil
	}
	for f, n := range resampleNames {
		if n == name {
			return f, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidInput, "unknown resample filter %q", name)
}

func (f ResampleFilter) interpolation() resize.InterpolationFunction {
	switch f {
	case ResampleNearest:
		return resize.NearestNeighbor
	case ResampleBicubic:
		return resize.Bicubic
	case ResampleLanczos3:
		return resize.Lanczos3
	default:
		return resize.Bilinear
	}
}

// Resize scales img to exactly width x height pixels.
//
// Arguments:
//   - img: The source image.
//   - width: The target width in pixels.
//   - height: The target height in pixels.
//   - filter: The interpolation kernel.
//
// Returns:
//   - image.Image: The resized image.
//   - error: ErrInvalidInput when the image is empty or the target is not positive.
func Resize(img image.Image, width, height int, filter ResampleFilter) (image.Image, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.Wrap(ErrInvalidInput, "cannot resize an empty image")
	}
	if err := (Size{Width: width, Height: height}).Validate(); err != nil {
		return nil, err
	}
	return resize.Resize(uint(width), uint(height), img, filter.interpolation()), nil
}
