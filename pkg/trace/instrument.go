package trace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentDecode creates a span for turning an encoded payload into samples
func InstrumentDecode(ctx context.Context, format string, dataSize int) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("audio.decode.%s", format),
		trace.WithAttributes(
			attribute.String(AttrAudioFormat, format),
			attribute.Int(AttrAudioDataSize, dataSize),
		),
	)
}

// InstrumentInference creates a span covering the model scan over a whole clip
func InstrumentInference(ctx context.Context, windowSize, windows int, threshold float32) (context.Context, trace.Span) {
	return StartSpan(ctx, "vad.inference",
		trace.WithAttributes(VADAttrs(windowSize, windows, threshold)...),
	)
}

// InstrumentSegmentation creates a span for the state machine and padding pass
func InstrumentSegmentation(ctx context.Context, probs int) (context.Context, trace.Span) {
	return StartSpan(ctx, "vad.segmentation",
		trace.WithAttributes(
			attribute.Int(AttrVADWindows, probs),
		),
	)
}

// InstrumentRequest creates the root span of one HTTP or CLI run
func InstrumentRequest(ctx context.Context, name, requestID string) (context.Context, trace.Span) {
	return StartSpan(ctx, name,
		trace.WithAttributes(
			attribute.String(AttrRequestID, requestID),
		),
	)
}
