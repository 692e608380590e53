//go:build ffmpeg

package audio

import (
	"fmt"

	"github.com/asticode/go-astiav"
)

// Resampler converts mono 16-bit audio between sample rates with libswresample.
type Resampler struct {
	ctx      *astiav.SoftwareResampleContext
	inFrame  *astiav.Frame
	outFrame *astiav.Frame
	inRate   int
	outRate  int
}

// NewResampler allocates the ffmpeg contexts. Call Free when done.
func NewResampler(inRate, outRate int) (*Resampler, error) {
	if inRate <= 0 {
		return nil, fmt.Errorf("invalid input sample rate: %d", inRate)
	}
	if outRate <= 0 {
		return nil, fmt.Errorf("invalid output sample rate: %d", outRate)
	}

	r := &Resampler{
		inRate:  inRate,
		outRate: outRate,
	}

	r.ctx = astiav.AllocSoftwareResampleContext()
	if r.ctx == nil {
		return nil, fmt.Errorf("failed to allocate resample context")
	}

	r.inFrame = astiav.AllocFrame()
	if r.inFrame == nil {
		r.Free()
		return nil, fmt.Errorf("failed to allocate input frame")
	}

	r.outFrame = astiav.AllocFrame()
	if r.outFrame == nil {
		r.Free()
		return nil, fmt.Errorf("failed to allocate output frame")
	}

	return r, nil
}

// Free releases the ffmpeg contexts.
func (r *Resampler) Free() {
	if r.ctx != nil {
		r.ctx.Free()
		r.ctx = nil
	}
	if r.inFrame != nil {
		r.inFrame.Free()
		r.inFrame = nil
	}
	if r.outFrame != nil {
		r.outFrame.Free()
		r.outFrame = nil
	}
}

// Convert resamples one block of samples.
func (r *Resampler) Convert(samples []float32) ([]float32, error) {
	const align = 0

	if len(samples) == 0 {
		return nil, nil
	}
	input := EncodePCM16(samples)

	r.inFrame.Unref()
	r.outFrame.Unref()

	r.inFrame.SetChannelLayout(astiav.ChannelLayoutMono)
	r.inFrame.SetSampleFormat(astiav.SampleFormatS16)
	r.inFrame.SetSampleRate(r.inRate)
	r.inFrame.SetNbSamples(len(samples))

	r.outFrame.SetChannelLayout(astiav.ChannelLayoutMono)
	r.outFrame.SetSampleFormat(astiav.SampleFormatS16)
	r.outFrame.SetSampleRate(r.outRate)
	r.outFrame.SetNbSamples(max(1, len(samples)*r.outRate/r.inRate))

	if err := r.inFrame.AllocBuffer(align); err != nil {
		return nil, fmt.Errorf("failed to allocate input buffer: %w", err)
	}
	if err := r.outFrame.AllocBuffer(align); err != nil {
		return nil, fmt.Errorf("failed to allocate output buffer: %w", err)
	}
	if err := r.inFrame.MakeWritable(); err != nil {
		return nil, fmt.Errorf("making frame writable failed: %w", err)
	}

	// ffmpeg may want a larger, aligned buffer
	size, err := r.inFrame.SamplesBufferSize(align)
	if err != nil {
		return nil, fmt.Errorf("failed to get buffer size: %w", err)
	}
	if len(input) < size {
		padded := make([]byte, size)
		copy(padded, input)
		input = padded
	}
	if err := r.inFrame.Data().SetBytes(input[:size], align); err != nil {
		return nil, fmt.Errorf("setting frame's data failed: %w", err)
	}

	if err := r.ctx.ConvertFrame(r.inFrame, r.outFrame); err != nil {
		return nil, fmt.Errorf("failed to resample: %w", err)
	}

	out, err := r.outFrame.Data().Bytes(align)
	if err != nil {
		return nil, fmt.Errorf("getting output data failed: %w", err)
	}
	return DecodePCM16(out[:len(out)&^1])
}

// Resample converts a whole clip from one rate to another.
func Resample(samples []float32, from, to int) ([]float32, error) {
	if from == to {
		return samples, nil
	}
	r, err := NewResampler(from, to)
	if err != nil {
		return nil, err
	}
	defer r.Free()
	return r.Convert(samples)
}
