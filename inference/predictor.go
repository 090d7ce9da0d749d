// Package inference - The model execution boundary of the detection pipeline.
package inference

import (
	"context"

	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/nvr-ai/go-yolo/models/preprocess"
)

// Predictor runs a network on a packed input tensor and returns its raw
// [1, N, 5+C] output. Implementations must not retain the input tensor after
// Predict returns.
type Predictor interface {
	Predict(ctx context.Context, input *preprocess.Tensor) (*postprocess.Output, error)
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc func(ctx context.Context, input *preprocess.Tensor) (*postprocess.Output, error)

// Predict calls f(ctx, input).
func (f PredictorFunc) Predict(ctx context.Context, input *preprocess.Tensor) (*postprocess.Output, error) {
	return f(ctx, input)
}
