package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-yolo/detector"
	"github.com/nvr-ai/go-yolo/images"
	"github.com/nvr-ai/go-yolo/inference"
	"github.com/nvr-ai/go-yolo/util"
)

type options struct {
	modelPath   string
	imagePath   string
	classesPath string
	configPath  string
	ortLib      string
	mode        string
	conf        float64
	iou         float64
	threads     int
	best        bool
	verbose     bool
}

func initLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func main() {
	var opts options
	flag.StringVar(&opts.modelPath, "model", "yolov5s.onnx", "Path to YOLO ONNX model file")
	flag.StringVar(&opts.imagePath, "image", "", "Path to an image file or a directory of images")
	flag.StringVar(&opts.classesPath, "classes", "", "Newline-delimited class names (COCO when empty)")
	flag.StringVar(&opts.configPath, "config", "", "YAML detector configuration")
	flag.StringVar(&opts.ortLib, "ort-lib", "", "Path to the onnxruntime shared library")
	flag.StringVar(&opts.mode, "mode", "", "Letterbox mode: stride_aligned, stretch_fill or fixed")
	flag.Float64Var(&opts.conf, "conf", 0.3, "Confidence threshold")
	flag.Float64Var(&opts.iou, "iou", 0.4, "IoU threshold for non-max suppression")
	flag.IntVar(&opts.threads, "threads", 0, "Intra-op threads (0 = runtime default)")
	flag.BoolVar(&opts.best, "best", false, "Print only the highest-confidence detection's corners")
	flag.BoolVar(&opts.verbose, "v", false, "Enable debug logging")
	flag.Parse()

	log := initLogger(opts.verbose)
	if opts.imagePath == "" {
		log.Error("-image is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, log); err != nil {
		log.WithError(err).Error("detection failed")
		stop()
		os.Exit(1)
	}
}

// loadConfig layers the YAML file (if any) and explicitly set flags over the defaults.
func loadConfig(opts options) (detector.Config, error) {
	cfg := detector.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = detector.LoadConfig(opts.configPath); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "conf":
			cfg.ConfidenceThreshold = float32(opts.conf)
		case "iou":
			cfg.IoUThreshold = float32(opts.iou)
		case "mode":
			cfg.LetterboxMode = opts.mode
		case "classes":
			cfg.ClassNames = opts.classesPath
		}
	})
	return cfg, cfg.Validate()
}

type frame struct {
	name string
	img  image.Image
}

func loadFrames(path string) ([]frame, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if !info.IsDir() {
		img, err := images.Load(path)
		if err != nil {
			return nil, err
		}
		return []frame{{name: path, img: img}}, nil
	}

	files, err := util.LoadDirectoryImageFiles(path)
	if err != nil {
		return nil, err
	}
	frames := make([]frame, 0, len(files))
	for _, f := range files {
		img, _, err := images.Decode(bytes.NewReader(f.Data))
		if err != nil {
			return nil, errors.Wrap(err, f.Path)
		}
		frames = append(frames, frame{name: f.Path, img: img})
	}
	return frames, nil
}

func run(ctx context.Context, opts options, log *logrus.Logger) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	frames, err := loadFrames(opts.imagePath)
	if err != nil {
		return err
	}

	session, err := inference.NewSession(inference.SessionConfig{
		ModelPath:      opts.modelPath,
		SharedLibPath:  opts.ortLib,
		IntraOpThreads: opts.threads,
	}, log)
	if err != nil {
		return err
	}
	defer session.Close()

	cfg = cfg.FitInputDims(session.InputDims())
	log.WithFields(logrus.Fields{
		"target_width":  cfg.TargetWidth,
		"target_height": cfg.TargetHeight,
		"mode":          cfg.LetterboxMode,
	}).Debug("letterbox target")

	det, err := detector.New(session, cfg, detector.WithLogger(log))
	if err != nil {
		return err
	}

	for _, f := range frames {
		detections, err := det.Detect(ctx, f.img)
		if err != nil {
			return errors.Wrap(err, f.name)
		}
		if len(detections) == 0 {
			log.WithField("image", f.name).Info("no object found")
			continue
		}

		if opts.best {
			best, _ := detector.Best(detections)
			tl, br := best.TopLeft(), best.BottomRight()
			fmt.Printf("%s: %s\n", f.name, best.Label)
			fmt.Printf("Left up point: %d, %d\n", tl.X, tl.Y)
			fmt.Printf("Right down point: %d, %d\n", br.X, br.Y)
			continue
		}
		for _, d := range detections {
			fmt.Printf("%s: %s\n", f.name, d)
		}
	}

	stats := session.Stats()
	log.WithFields(logrus.Fields{
		"images":     len(frames),
		"inferences": stats.Inferences,
		"average":    stats.Average(),
	}).Info("done")
	return nil
}
