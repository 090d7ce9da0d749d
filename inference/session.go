package inference

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-yolo/models/postprocess"
	"github.com/nvr-ai/go-yolo/models/preprocess"
)

// SessionConfig configures an onnxruntime session.
type SessionConfig struct {
	// The path to the ONNX model file.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// The onnxruntime shared library; GetSharedLibPath() when empty.
	SharedLibPath string `json:"shared_lib_path" yaml:"shared_lib_path"`
	// Input and output names; the model's first input/output when empty.
	InputName  string `json:"input_name"  yaml:"input_name"`
	OutputName string `json:"output_name" yaml:"output_name"`
	// Thread pool sizes; 0 keeps the runtime default.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads"`
	InterOpThreads int `json:"inter_op_threads" yaml:"inter_op_threads"`
}

// Stats are cumulative run statistics for a Session.
type Stats struct {
	Inferences int64
	Total      time.Duration
}

// Average returns the mean inference time.
func (s Stats) Average() time.Duration {
	if s.Inferences == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Inferences)
}

// Session is a Predictor backed by onnxruntime. Input tensors are created per
// call so the model may accept any input height and width.
type Session struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	inputDims  []int64
	log        logrus.FieldLogger

	mu    sync.Mutex
	stats Stats
}

var errSessionClosed = errors.New("session is closed")

var initOnce sync.Once
var initErr error

func initEnvironment(libPath string) error {
	initOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		if _, err := os.Stat(libPath); err != nil {
			initErr = errors.Wrapf(err, "onnxruntime library not found at %s", libPath)
			return
		}
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			initErr = errors.Wrap(err, "error initializing ORT environment")
		}
	})
	return initErr
}

// NewSession loads a model and prepares it for inference.
//
// Order of operations:
//  1. Environment setup: loads the native library once per process.
//  2. Model inspection: resolves input/output names and the declared input shape.
//  3. Session options: thread pools and graph optimization level.
//  4. Session creation.
//
// Arguments:
//   - cfg: The session configuration.
//   - log: Logger for lifecycle events; a standard logger when nil.
//
// Returns:
//   - *Session: The ready session. Close it when done.
//   - error: An error if any step fails.
func NewSession(cfg SessionConfig, log logrus.FieldLogger) (*Session, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.ModelPath == "" {
		return nil, errors.New("model path is required")
	}
	libPath := cfg.SharedLibPath
	if libPath == "" {
		libPath = GetSharedLibPath()
	}
	if err := initEnvironment(libPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading model info from %s", cfg.ModelPath)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.Errorf("model %s has %d inputs and %d outputs", cfg.ModelPath, len(inputs), len(outputs))
	}

	s := &Session{inputName: cfg.InputName, outputName: cfg.OutputName, log: log}
	if s.inputName == "" {
		s.inputName = inputs[0].Name
	}
	if s.outputName == "" {
		s.outputName = outputs[0].Name
	}
	for _, in := range inputs {
		if in.Name == s.inputName {
			s.inputDims = append([]int64(nil), in.Dimensions...)
		}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating ORT session options")
	}
	defer options.Destroy()

	if cfg.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
			return nil, errors.Wrap(err, "error setting intra-op threads")
		}
	}
	if cfg.InterOpThreads > 0 {
		if err := options.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
			return nil, errors.Wrap(err, "error setting inter-op threads")
		}
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return nil, errors.Wrap(err, "error setting graph optimization level")
	}

	s.session, err = ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{s.inputName}, []string{s.outputName}, options)
	if err != nil {
		return nil, errors.Wrap(err, "error creating ORT session")
	}

	log.WithFields(logrus.Fields{
		"model":  cfg.ModelPath,
		"input":  s.inputName,
		"output": s.outputName,
		"dims":   s.inputDims,
	}).Info("onnx session ready")

	return s, nil
}

// InputDims returns the input shape declared by the model; dynamic axes are -1.
func (s *Session) InputDims() []int64 {
	return append([]int64(nil), s.inputDims...)
}

// Predict runs the model on input. Calls are serialized.
func (s *Session) Predict(ctx context.Context, input *preprocess.Tensor) (*postprocess.Output, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if err := input.Validate(); err != nil {
		return nil, errors.Wrap(err, "input tensor")
	}
	if s.closed() {
		return nil, errSessionClosed
	}

	in, err := ort.NewTensor(ort.NewShape(input.Dims()...), input.Data)
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	defer in.Destroy()

	outputs := []ort.Value{nil}
	err = s.timed(func(session *ort.DynamicAdvancedSession) error {
		return session.Run([]ort.Value{in}, outputs)
	})
	if errors.Is(err, errSessionClosed) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "error running ORT session")
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.Wrapf(postprocess.ErrShapeMismatch, "want float32 output, got %T", outputs[0])
	}

	// The native buffer is freed on return.
	data := append([]float32(nil), out.GetData()...)
	return postprocess.NewOutput(data, out.GetShape())
}

// timed runs fn with the session lock held. Only fn's duration is added to
// the stats, not the wait for the lock.
func (s *Session) timed(fn func(*ort.DynamicAdvancedSession) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return errSessionClosed
	}

	start := time.Now()
	err := fn(s.session)
	s.stats.Inferences++
	s.stats.Total += time.Since(start)
	return err
}

func (s *Session) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session == nil
}

// Stats returns cumulative run statistics.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close releases the native session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	if err != nil {
		return errors.Wrap(err, "error destroying ORT session")
	}
	s.log.WithField("inferences", s.stats.Inferences).Debug("onnx session closed")
	return nil
}
