package detector

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/inference"
	"github.com/nvr-ai/go-yolo/models"
	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/nvr-ai/go-yolo/models/preprocess"
)

// Detector runs letterbox, packing, inference, decoding, suppression and
// rescaling for one image at a time. It is safe for concurrent use when its
// Predictor is.
type Detector struct {
	config    Config
	predictor inference.Predictor
	pre       *preprocess.Preprocessor
	nms       postprocess.NMSConfig
	classes   models.ClassSet
	relevant  map[string]struct{}
	log       logrus.FieldLogger

	classesSet bool
}

// Option customizes a Detector.
type Option func(*Detector)

// WithLogger sets the logger used for per-image debug entries.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Detector) { d.log = log }
}

// WithClasses sets the labels for class ids, taking precedence over
// Config.ClassNames.
func WithClasses(classes models.ClassSet) Option {
	return func(d *Detector) {
		d.classes = classes
		d.classesSet = true
	}
}

// New creates a detector.
//
// Arguments:
//   - predictor: The inference backend.
//   - config: The pipeline configuration.
//   - opts: Optional settings.
//
// Returns:
//   - *Detector: The detector.
//   - error: A validation or class-loading error.
func New(predictor inference.Predictor, config Config, opts ...Option) (*Detector, error) {
	if predictor == nil {
		return nil, errors.New("predictor is required")
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	preCfg, err := config.preprocessConfig()
	if err != nil {
		return nil, err
	}
	pre, err := preprocess.NewPreprocessor(preCfg)
	if err != nil {
		return nil, err
	}

	d := &Detector{
		config:    config,
		predictor: predictor,
		pre:       pre,
		nms:       config.nmsConfig(),
		classes:   models.YOLOClasses,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if !d.classesSet && config.ClassNames != "" {
		if d.classes, err = models.LoadClassNames(config.ClassNames); err != nil {
			return nil, err
		}
	}
	if len(config.RelevantClasses) > 0 {
		d.relevant = make(map[string]struct{}, len(config.RelevantClasses))
		for _, name := range config.RelevantClasses {
			d.relevant[name] = struct{}{}
		}
	}

	return d, nil
}

// Classes returns the label set in use.
func (d *Detector) Classes() models.ClassSet {
	return d.classes
}

// Detect runs the full pipeline on img.
//
// Arguments:
//   - ctx: Checked before inference.
//   - img: The original image.
//
// Returns:
//   - []Detection: Detections in original-image pixels, highest confidence
//     first. An image with no objects yields an empty, non-nil slice.
//   - error: images.ErrInvalidInput, postprocess.ErrShapeMismatch or a
//     predictor error, wrapped with the failing stage.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	start := time.Now()

	in, err := d.pre.Preprocess(img)
	if err != nil {
		return nil, errors.Wrap(err, "preprocess")
	}
	return d.run(ctx, in.Tensor, in.Letterbox, start)
}

// run executes inference and postprocessing on a packed tensor, releasing it
// on every path.
func (d *Detector) run(ctx context.Context, input *preprocess.Tensor, plan images.LetterboxPlan, start time.Time) ([]Detection, error) {
	defer input.Release()
	preprocessed := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := d.predictor.Predict(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "inference")
	}
	if out == nil {
		return nil, errors.Wrap(postprocess.ErrShapeMismatch, "inference returned no output")
	}
	inferred := time.Now()

	candidates := postprocess.Decode(out, d.nms.ConfidenceThreshold)
	keep := postprocess.ApplyNMS(candidates, d.nms)

	detections := make([]Detection, 0, len(keep))
	for _, idx := range keep {
		c := candidates[idx]
		label := d.classes.Name(c.ClassID)
		if d.relevant != nil {
			if _, ok := d.relevant[label]; !ok {
				continue
			}
		}

		box := postprocess.Unletterbox(plan, c.Box)
		if d.config.ClampBoxes {
			box = postprocess.ClampRect(box, plan.Original)
		}
		detections = append(detections, Detection{
			Box:        box,
			Confidence: c.Confidence,
			ClassID:    c.ClassID,
			Label:      label,
		})
	}

	d.log.WithFields(logrus.Fields{
		"width":       plan.Original.Width,
		"height":      plan.Original.Height,
		"ratio":       plan.RatioX,
		"pad_left":    plan.Left,
		"pad_top":     plan.Top,
		"candidates":  len(candidates),
		"kept":        len(detections),
		"preprocess":  preprocessed.Sub(start),
		"inference":   inferred.Sub(preprocessed),
		"postprocess": time.Since(inferred),
	}).Debug("detection complete")

	return detections, nil
}

// DetectBatch runs Detect on every image with at most Config.MaxConcurrency
// images in flight. Each image gets its own tensor and candidate lists.
//
// Returns:
//   - [][]Detection: Results aligned with imgs.
//   - error: The first failure, annotated with the image index.
func (d *Detector) DetectBatch(ctx context.Context, imgs []image.Image) ([][]Detection, error) {
	limit := d.config.MaxConcurrency
	if limit <= 0 {
		limit = 1
	}

	results := make([][]Detection, len(imgs))
	errs := make([]error, len(imgs))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, img := range imgs {
		wg.Add(1)
		go func(idx int, img image.Image) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = d.Detect(ctx, img)
		}(i, img)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "image %d", i)
		}
	}
	return results, nil
}

// Plan returns the letterbox geometry Detect would use for an image of size.
func (d *Detector) Plan(size images.Size) (images.LetterboxPlan, error) {
	return images.PlanLetterbox(size, d.pre.Config().Letterbox)
}
