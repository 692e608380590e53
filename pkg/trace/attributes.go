package trace

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys used throughout the application
const (
	AttrRequestID = "request.id"

	// Audio attributes
	AttrAudioSampleRate = "audio.sample_rate"
	AttrAudioSamples    = "audio.samples"
	AttrAudioFormat     = "audio.format"
	AttrAudioDataSize   = "audio.data_size"

	// VAD attributes
	AttrVADWindowSize = "vad.window_size"
	AttrVADWindows    = "vad.windows"
	AttrVADThreshold  = "vad.threshold"

	// Segmentation attributes
	AttrSegmentCount  = "segment.count"
	AttrSpeechSeconds = "segment.speech_seconds"

	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// AudioAttrs creates attributes describing a decoded clip
func AudioAttrs(sampleRate, samples int, format string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrAudioSampleRate, sampleRate),
		attribute.Int(AttrAudioSamples, samples),
		attribute.String(AttrAudioFormat, format),
	}
}

// VADAttrs creates attributes for a window scan
func VADAttrs(windowSize, windows int, threshold float32) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrVADWindowSize, windowSize),
		attribute.Int(AttrVADWindows, windows),
		attribute.Float64(AttrVADThreshold, float64(threshold)),
	}
}

// SegmentAttrs creates attributes for a segmentation result
func SegmentAttrs(count int, speechSeconds float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrSegmentCount, count),
		attribute.Float64(AttrSpeechSeconds, speechSeconds),
	}
}

// ErrorAttrs creates attributes for errors
func ErrorAttrs(errType, errMsg string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, errType),
		attribute.String(AttrErrorMessage, errMsg),
	}
}
