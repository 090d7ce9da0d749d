// Package detector - The end-to-end YOLO detection pipeline.
package detector

import (
	"image/color"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/nvr-ai/go-yolo/models/preprocess"
)

// Config represents the detection pipeline configuration.
type Config struct {
	// TargetWidth and TargetHeight are the network input size.
	TargetWidth  int `json:"target_width"  yaml:"target_width"`
	TargetHeight int `json:"target_height" yaml:"target_height"`

	// ConfidenceThreshold filters rows by objectness and boxes by confidence.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`

	// IoUThreshold controls Non-Maximum Suppression.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`

	// Stride is the padding multiple in stride_aligned mode.
	Stride int `json:"stride" yaml:"stride"`

	AllowUpscale bool `json:"allow_upscale" yaml:"allow_upscale"`

	// PaddingColor is a hex color such as "#727272".
	PaddingColor string `json:"padding_color" yaml:"padding_color"`

	// LetterboxMode is one of stride_aligned, stretch_fill or fixed. Empty
	// picks fixed for a static model input and stride_aligned otherwise.
	LetterboxMode string `json:"letterbox_mode" yaml:"letterbox_mode"`

	// ColorMode is the channel order the model expects: rgb or bgr.
	ColorMode string `json:"color_mode" yaml:"color_mode"`

	// ResampleFilter is one of bilinear, nearest, bicubic or lanczos3.
	ResampleFilter string `json:"resample_filter" yaml:"resample_filter"`

	// ClampBoxes bounds output boxes to the original image.
	ClampBoxes bool `json:"clamp_boxes" yaml:"clamp_boxes"`

	ClassAwareNMS bool `json:"class_aware_nms" yaml:"class_aware_nms"`
	MaxDetections int  `json:"max_detections"  yaml:"max_detections"`

	// ClassNames is a newline-delimited class list; COCO labels when empty.
	ClassNames string `json:"class_names" yaml:"class_names"`

	// RelevantClasses lists labels to report (empty = all classes).
	RelevantClasses []string `json:"relevant_classes" yaml:"relevant_classes"`

	// MaxConcurrency bounds DetectBatch.
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency"`
}

// DefaultConfig returns the YOLOv5 defaults: a 640x640 target, letterbox mode
// chosen by FitInputDims (stride-aligned until a static input is seen),
// confidence 0.3 and IoU 0.4.
//
// Returns:
//   - Config: The default configuration.
func DefaultConfig() Config {
	return Config{
		TargetWidth:         640,
		TargetHeight:        640,
		ConfidenceThreshold: 0.3,
		IoUThreshold:        0.4,
		Stride:              32,
		AllowUpscale:        true,
		PaddingColor:        "#727272",
		LetterboxMode:       "",
		ColorMode:           "rgb",
		ResampleFilter:      images.ResampleBilinear.String(),
		MaxConcurrency:      4,
	}
}

// FitInputDims adapts the config to the model's declared NCHW input shape.
// When height and width are static the target becomes that size and, unless
// a letterbox mode was set explicitly, the mode becomes fixed so every tensor
// matches the model. Dynamic (non-positive) axes leave the config unchanged.
//
// Arguments:
//   - dims: The model input shape, e.g. from inference.Session.InputDims.
//
// Returns:
//   - Config: The adapted configuration.
func (c Config) FitInputDims(dims []int64) Config {
	if len(dims) != 4 || dims[2] <= 0 || dims[3] <= 0 {
		return c
	}
	c.TargetHeight = int(dims[2])
	c.TargetWidth = int(dims[3])
	if c.LetterboxMode == "" {
		c.LetterboxMode = images.LetterboxFixed.String()
	}
	return c
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
//
// Arguments:
//   - path: Path to the YAML file.
//
// Returns:
//   - Config: The merged configuration.
//   - error: An I/O, parse or validation error.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate checks every option that would otherwise fail mid-pipeline.
func (c Config) Validate() error {
	if _, err := c.preprocessConfig(); err != nil {
		return err
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.Wrapf(images.ErrInvalidInput, "confidence_threshold %v outside [0, 1]", c.ConfidenceThreshold)
	}
	if c.IoUThreshold < 0 || c.IoUThreshold > 1 {
		return errors.Wrapf(images.ErrInvalidInput, "iou_threshold %v outside [0, 1]", c.IoUThreshold)
	}
	if c.MaxDetections < 0 {
		return errors.Wrapf(images.ErrInvalidInput, "max_detections %d is negative", c.MaxDetections)
	}
	return nil
}

func (c Config) preprocessConfig() (preprocess.Config, error) {
	mode, err := images.ParseLetterboxMode(c.LetterboxMode)
	if err != nil {
		return preprocess.Config{}, err
	}
	filter, err := images.ParseResampleFilter(c.ResampleFilter)
	if err != nil {
		return preprocess.Config{}, err
	}
	pad, err := ParseColor(c.PaddingColor)
	if err != nil {
		return preprocess.Config{}, err
	}
	colorMode, err := preprocess.ParseColorMode(c.ColorMode)
	if err != nil {
		return preprocess.Config{}, err
	}

	cfg := preprocess.Config{
		Letterbox: images.LetterboxOptions{
			Target:       images.Size{Width: c.TargetWidth, Height: c.TargetHeight},
			Mode:         mode,
			Stride:       c.Stride,
			AllowUpscale: c.AllowUpscale,
			Color:        pad,
			Filter:       filter,
		},
		Pack: preprocess.DefaultPackConfig(),
	}
	cfg.Pack.ColorMode = colorMode
	if err := cfg.Letterbox.Validate(); err != nil {
		return preprocess.Config{}, err
	}
	return cfg, nil
}

func (c Config) nmsConfig() postprocess.NMSConfig {
	return postprocess.NMSConfig{
		ConfidenceThreshold: c.ConfidenceThreshold,
		IoUThreshold:        c.IoUThreshold,
		ClassAware:          c.ClassAwareNMS,
		MaxDetections:       c.MaxDetections,
	}
}

// ParseColor parses a hex color ("#727272" or "#777"). An empty string yields
// the default YOLO gray.
func ParseColor(hex string) (color.RGBA, error) {
	if hex == "" {
		return images.DefaultPadColor, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(images.ErrInvalidInput, "padding color %q: %v", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
