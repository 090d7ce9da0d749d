//go:build gocv

package detector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models/preprocess"
)

// DetectMat runs the pipeline on a BGR Mat, letterboxing and packing with
// OpenCV instead of the pure-Go path.
func (d *Detector) DetectMat(ctx context.Context, frame gocv.Mat) ([]Detection, error) {
	start := time.Now()
	cfg := d.pre.Config()

	padded, plan, err := images.LetterboxMat(frame, cfg.Letterbox)
	if err != nil {
		return nil, errors.Wrap(err, "preprocess: letterbox")
	}
	defer padded.Close()

	input, err := preprocess.BlobFromMat(padded, cfg.Pack)
	if err != nil {
		return nil, errors.Wrap(err, "preprocess: pack")
	}
	return d.run(ctx, input, plan, start)
}
