//go:build gocv

package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-yolo/detector"
	"github.com/nvr-ai/go-yolo/inference"
)

func main() {
	var (
		deviceID   int
		modelPath  string
		configPath string
		ortLib     string
	)
	flag.IntVar(&deviceID, "device", 0, "Video capture device ID")
	flag.StringVar(&modelPath, "model", "yolov5s.onnx", "Path to YOLO ONNX model file")
	flag.StringVar(&configPath, "config", "", "YAML detector configuration")
	flag.StringVar(&ortLib, "ort-lib", "", "Path to the onnxruntime shared library")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := detector.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = detector.LoadConfig(configPath); err != nil {
			log.WithError(err).Fatal("cannot load config")
		}
	}

	session, err := inference.NewSession(inference.SessionConfig{ModelPath: modelPath, SharedLibPath: ortLib}, log)
	if err != nil {
		log.WithError(err).Fatal("cannot create session")
	}
	defer session.Close()

	cfg = cfg.FitInputDims(session.InputDims())
	det, err := detector.New(session, cfg, detector.WithLogger(log))
	if err != nil {
		log.WithError(err).Fatal("cannot create detector")
	}

	// open webcam
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		log.WithError(err).Fatal("cannot open video capture")
	}
	defer webcam.Close()

	window := gocv.NewWindow("YOLO Detect")
	defer window.Close()

	img := gocv.NewMat()
	defer img.Close()

	green := color.RGBA{0, 255, 0, 0}

	// FPS tracking variables
	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	log.WithField("device", deviceID).Info("start reading camera device")
	for {
		if ok := webcam.Read(&img); !ok {
			log.WithField("device", deviceID).Error("cannot read device")
			os.Exit(1)
		}
		if img.Empty() {
			continue
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}

		detections, err := det.DetectMat(context.Background(), img)
		if err != nil {
			log.WithError(err).Warn("detection failed")
			continue
		}

		for _, d := range detections {
			gocv.Rectangle(&img, d.Box, green, 2)
			gocv.PutText(&img, fmt.Sprintf("%s %.2f", d.Label, d.Confidence),
				d.Box.Min.Add(image.Pt(0, -4)), gocv.FontHersheyPlain, 1.2, green, 2)
		}
		gocv.PutText(&img, fmt.Sprintf("FPS: %.1f", fps), image.Pt(8, 20), gocv.FontHersheyPlain, 1.2, green, 2)

		window.IMShow(img)
		if window.WaitKey(1) == 27 {
			return
		}
	}
}
