package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedFormat is returned for payloads this package cannot decode.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

const pcm16Scale = 32768.0

// DecodePCM16 converts little-endian signed 16-bit samples to [-1, 1).
func DecodePCM16(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: pcm16 payload has odd length %d", ErrUnsupportedFormat, len(data))
	}

	out := make([]float32, len(data)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(data[i*2:]))) / pcm16Scale
	}
	return out, nil
}

// EncodePCM16 converts normalized samples to little-endian signed 16-bit,
// clipping to [-1, 1].
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(floatToInt16(s)))
	}
	return out
}

// DecodeFloat32 reads little-endian IEEE 754 samples. Values are passed
// through unchanged.
func DecodeFloat32(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: f32 payload length %d is not a multiple of 4", ErrUnsupportedFormat, len(data))
	}

	out := make([]float32, len(data)/4)
	for i := range out {
		v := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("%w: non-finite sample at %d", ErrUnsupportedFormat, i)
		}
		out[i] = v
	}
	return out, nil
}

// EncodeFloat32 writes samples as little-endian IEEE 754.
func EncodeFloat32(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

func floatToInt16(s float32) int16 {
	v := math.Round(float64(s) * 32767)
	return int16(max(-32768, min(32767, v)))
}
