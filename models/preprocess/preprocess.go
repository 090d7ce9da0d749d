package preprocess

import (
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-yolo/images"
)

// Config combines the letterbox and packing options.
type Config struct {
	Letterbox images.LetterboxOptions
	Pack      PackConfig
}

// DefaultConfig returns 640x640 stride-aligned letterboxing and RGB CHW packing.
func DefaultConfig() Config {
	return Config{
		Letterbox: images.DefaultLetterboxOptions(),
		Pack:      DefaultPackConfig(),
	}
}

// Result is a packed tensor plus the letterbox geometry that produced it.
type Result struct {
	Tensor    *Tensor
	Letterbox images.LetterboxPlan
}

// Preprocessor letterboxes images and packs them into pooled tensors.
// It is safe for concurrent use.
type Preprocessor struct {
	config Config
	packer *Packer
}

// NewPreprocessor validates config and creates a preprocessor with its own
// buffer pool.
func NewPreprocessor(config Config) (*Preprocessor, error) {
	if err := config.Letterbox.Validate(); err != nil {
		return nil, err
	}
	packer, err := NewPacker(config.Pack, NewPool())
	if err != nil {
		return nil, err
	}
	return &Preprocessor{config: config, packer: packer}, nil
}

// Config returns the preprocessor configuration.
func (p *Preprocessor) Config() Config {
	return p.config
}

// Preprocess letterboxes img and packs the result.
//
// Arguments:
//   - img: The original image.
//
// Returns:
//   - *Result: The tensor and letterbox geometry. The caller must Release the tensor.
//   - error: images.ErrInvalidInput wrapped with the failing stage.
func (p *Preprocessor) Preprocess(img image.Image) (*Result, error) {
	lb, err := images.Letterbox(img, p.config.Letterbox)
	if err != nil {
		return nil, errors.Wrap(err, "letterbox")
	}

	t, err := p.packer.Pack(lb.Image)
	if err != nil {
		return nil, errors.Wrap(err, "pack")
	}

	return &Result{Tensor: t, Letterbox: lb.LetterboxPlan}, nil
}
