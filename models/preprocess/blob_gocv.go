//go:build gocv

package preprocess

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-yolo/images"
)

// BlobFromMat packs a letterboxed BGR Mat with gocv.BlobFromImage. Only the
// default planar [0, 1] layout is supported; the channel order follows
// config.ColorMode.
func BlobFromMat(m gocv.Mat, config PackConfig) (*Tensor, error) {
	if m.Empty() {
		return nil, errors.Wrap(images.ErrInvalidInput, "empty mat")
	}
	if config.ChannelOrder != ChannelOrderCHW || config.Normalization != NormalizeZeroToOne {
		return nil, errors.Wrap(images.ErrInvalidInput, "blob packing supports CHW [0,1] only")
	}

	swapRB := config.ColorMode == ColorModeRGB
	size := image.Pt(m.Cols(), m.Rows())
	blob := gocv.BlobFromImage(m, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), swapRB, false)
	defer blob.Close()

	values, err := blob.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "read blob")
	}

	shape := Shape{Batch: 1, Channels: 3, Height: m.Rows(), Width: m.Cols()}
	if len(values) != shape.Len() {
		return nil, errors.Wrapf(images.ErrInvalidInput, "blob has %d values, want %d", len(values), shape.Len())
	}
	return &Tensor{Data: append([]float32(nil), values...), Shape: shape}, nil
}
