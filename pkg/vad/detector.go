//go:build vad

package vad

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ModelVersion selects the tensor layout of the Silero export being loaded.
type ModelVersion int

const (
	// ModelV5 takes a single 2x1x128 state tensor and expects the last 64
	// samples of the previous window prepended to the input.
	ModelV5 ModelVersion = iota
	// ModelV4 takes separate 2x1x64 h and c LSTM tensors.
	ModelV4
)

const (
	v5StateLen   = 2 * 1 * 128
	v5ContextLen = 64
	v4StateLen   = 2 * 1 * 64
)

// runtimeInitialized tracks whether the ONNX runtime has been initialized.
var (
	runtimeInitialized bool
	runtimeMu          sync.Mutex
)

// InitRuntime initializes the ONNX runtime environment.
// libraryPath can be empty to use auto-detection, or specify the path to libonnxruntime.so.
// This should be called once at application startup before creating any detectors.
func InitRuntime(libraryPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if runtimeInitialized {
		return nil
	}

	if libraryPath == "" {
		libraryPath = findONNXRuntimeLibrary()
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	runtimeInitialized = true
	return nil
}

// DestroyRuntime destroys the ONNX runtime environment.
// This should be called once at application shutdown.
func DestroyRuntime() error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if !runtimeInitialized {
		return nil
	}

	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("failed to destroy ONNX runtime: %w", err)
	}

	runtimeInitialized = false
	return nil
}

// findONNXRuntimeLibrary tries to find the ONNX Runtime shared library.
func findONNXRuntimeLibrary() string {
	paths := []string{
		os.Getenv("ONNXRUNTIME_LIB"),
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/opt/onnxruntime/lib/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}

	if ldPath := os.Getenv("LD_LIBRARY_PATH"); ldPath != "" {
		for _, dir := range filepath.SplitList(ldPath) {
			paths = append(paths, filepath.Join(dir, "libonnxruntime.so"))
		}
	}
	if dyldPath := os.Getenv("DYLD_LIBRARY_PATH"); dyldPath != "" {
		for _, dir := range filepath.SplitList(dyldPath) {
			paths = append(paths, filepath.Join(dir, "libonnxruntime.dylib"))
		}
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// DetectorConfig holds configuration for creating a VAD detector.
type DetectorConfig struct {
	// The path to the ONNX Silero VAD model file to load.
	ModelPath string
	// The sampling rate of the input audio samples. Supported values are 8000 and 16000.
	SampleRate int
	// Version is the tensor layout of the model file.
	Version ModelVersion
	// WindowSize, when set, zero-pads shorter windows (the tail of a clip) up to
	// this many samples. ModelV5 rejects windows of any other size.
	WindowSize int
}

// IsValid validates the detector configuration.
func (c DetectorConfig) IsValid() error {
	if c.ModelPath == "" {
		return fmt.Errorf("invalid ModelPath: should not be empty")
	}

	if c.SampleRate != 8000 && c.SampleRate != 16000 {
		return fmt.Errorf("invalid SampleRate: valid values are 8000 and 16000")
	}

	if c.Version != ModelV5 && c.Version != ModelV4 {
		return fmt.Errorf("invalid Version: %d", c.Version)
	}

	if c.WindowSize < 0 {
		return fmt.Errorf("invalid WindowSize: %d", c.WindowSize)
	}

	return nil
}

// Detector scores audio windows with a Silero VAD model. It implements Source.
type Detector struct {
	session *ort.DynamicAdvancedSession
	cfg     DetectorConfig

	inputNames  []string
	outputNames []string

	mu sync.Mutex
}

// NewDetector loads the model. The runtime is initialized on first use if
// InitRuntime has not been called.
func NewDetector(cfg DetectorConfig) (*Detector, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	runtimeMu.Lock()
	ready := runtimeInitialized
	runtimeMu.Unlock()
	if !ready {
		if err := InitRuntime(""); err != nil {
			return nil, fmt.Errorf("ONNX runtime not initialized: %w", err)
		}
	}

	d := &Detector{cfg: cfg}
	switch cfg.Version {
	case ModelV4:
		d.inputNames = []string{"input", "sr", "h", "c"}
		d.outputNames = []string{"output", "hn", "cn"}
	default:
		d.inputNames = []string{"input", "state", "sr"}
		d.outputNames = []string{"output", "stateN"}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("failed to set graph optimization level: %w", err)
	}
	// The state is sequential; more threads only add scheduling overhead.
	if err := options.SetIntraOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("failed to set inter-op threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		d.inputNames,
		d.outputNames,
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	d.session = session
	return d, nil
}

// InitialState implements Source.
func (d *Detector) InitialState() State {
	if d.cfg.Version == ModelV4 {
		return NewState(make([]float32, v4StateLen), make([]float32, v4StateLen))
	}
	return NewState(make([]float32, v5StateLen))
}

// Infer implements Source.
func (d *Detector) Infer(window []float32, st State) (float32, State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return 0, st, ErrClosed
	}

	pcm := window
	if d.cfg.WindowSize > 0 && len(pcm) < d.cfg.WindowSize {
		pcm = make([]float32, d.cfg.WindowSize)
		copy(pcm, window)
	}

	if d.cfg.Version == ModelV4 {
		return d.inferV4(pcm, st)
	}
	return d.inferV5(pcm, st)
}

func (d *Detector) inferV5(window []float32, st State) (float32, State, error) {
	tensors := st.tensors
	if len(tensors) != 1 || len(tensors[0]) != v5StateLen {
		return 0, st, fmt.Errorf("unexpected state layout for v5 model")
	}

	// Prepend the tail of the previous window, except on the first call.
	pcm := window
	if st.steps > 0 && len(st.context) == v5ContextLen {
		pcm = make([]float32, 0, v5ContextLen+len(window))
		pcm = append(pcm, st.context...)
		pcm = append(pcm, window...)
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(pcm))), pcm)
	if err != nil {
		return 0, st, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	// NewTensor keeps a reference to its backing slice, so hand it a copy.
	stateTensor, err := ort.NewTensor(ort.NewShape(2, 1, 128), clone(tensors[0]))
	if err != nil {
		return 0, st, fmt.Errorf("failed to create state tensor: %w", err)
	}
	defer stateTensor.Destroy()

	srTensor, err := d.sampleRateTensor()
	if err != nil {
		return 0, st, err
	}
	defer srTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, st, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	stateNTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, 128))
	if err != nil {
		return 0, st, fmt.Errorf("failed to create stateN tensor: %w", err)
	}
	defer stateNTensor.Destroy()

	inputs := []ort.Value{inputTensor, stateTensor, srTensor}
	outputs := []ort.Value{outputTensor, stateNTensor}
	if err := d.session.Run(inputs, outputs); err != nil {
		return 0, st, fmt.Errorf("failed to run inference: %w", err)
	}

	prob, err := firstValue(outputTensor)
	if err != nil {
		return 0, st, err
	}

	next := st.Advance(stateNTensor.GetData())
	if len(window) >= v5ContextLen {
		next = next.WithContext(window[len(window)-v5ContextLen:])
	}
	return prob, next, nil
}

func (d *Detector) inferV4(window []float32, st State) (float32, State, error) {
	tensors := st.tensors
	if len(tensors) != 2 || len(tensors[0]) != v4StateLen || len(tensors[1]) != v4StateLen {
		return 0, st, fmt.Errorf("unexpected state layout for v4 model")
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(window))), clone(window))
	if err != nil {
		return 0, st, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	srTensor, err := d.sampleRateTensor()
	if err != nil {
		return 0, st, err
	}
	defer srTensor.Destroy()

	hTensor, err := ort.NewTensor(ort.NewShape(2, 1, 64), clone(tensors[0]))
	if err != nil {
		return 0, st, fmt.Errorf("failed to create h tensor: %w", err)
	}
	defer hTensor.Destroy()

	cTensor, err := ort.NewTensor(ort.NewShape(2, 1, 64), clone(tensors[1]))
	if err != nil {
		return 0, st, fmt.Errorf("failed to create c tensor: %w", err)
	}
	defer cTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return 0, st, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	hnTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, 64))
	if err != nil {
		return 0, st, fmt.Errorf("failed to create hn tensor: %w", err)
	}
	defer hnTensor.Destroy()

	cnTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, 64))
	if err != nil {
		return 0, st, fmt.Errorf("failed to create cn tensor: %w", err)
	}
	defer cnTensor.Destroy()

	inputs := []ort.Value{inputTensor, srTensor, hTensor, cTensor}
	outputs := []ort.Value{outputTensor, hnTensor, cnTensor}
	if err := d.session.Run(inputs, outputs); err != nil {
		return 0, st, fmt.Errorf("failed to run inference: %w", err)
	}

	prob, err := firstValue(outputTensor)
	if err != nil {
		return 0, st, err
	}
	return prob, st.Advance(hnTensor.GetData(), cnTensor.GetData()), nil
}

func (d *Detector) sampleRateTensor() (*ort.Tensor[int64], error) {
	t, err := ort.NewTensor(ort.NewShape(1), []int64{int64(d.cfg.SampleRate)})
	if err != nil {
		return nil, fmt.Errorf("failed to create sr tensor: %w", err)
	}
	return t, nil
}

func firstValue(t *ort.Tensor[float32]) (float32, error) {
	data := t.GetData()
	if len(data) == 0 {
		return 0, fmt.Errorf("empty output from inference")
	}
	return data[0], nil
}

// Close releases the ONNX session. The runtime itself stays initialized.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil
	}
	if err := d.session.Destroy(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	d.session = nil
	return nil
}

// Ensure Detector implements Source at compile time.
var _ Source = (*Detector)(nil)
