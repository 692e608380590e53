// Package vad is the boundary between the segmentation code and the neural
// network that scores audio windows.
//
// The Silero model runs through onnxruntime_go, which needs the ONNX Runtime
// shared library at run time and cgo at build time, so the ONNX Detector is only
// compiled with the `vad` build tag. Everything else in this package, including
// the window iterator and MockDetector, builds without it.
//
// Usage:
//
//	// Initialize the ONNX runtime (call once at startup)
//	if err := vad.InitRuntime(""); err != nil {
//	    log.Fatal(err)
//	}
//	defer vad.DestroyRuntime()
//
//	det, err := vad.NewDetector(vad.DetectorConfig{
//	    ModelPath:  "path/to/silero_vad.onnx",
//	    SampleRate: 16000,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer det.Close()
//
//	probs, err := vad.Probabilities(ctx, det, samples, 512)
package vad
