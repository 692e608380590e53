package audio

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format names an input encoding.
type Format string

const (
	FormatWAV   Format = "wav"
	FormatPCM16 Format = "pcm16"
	FormatF32   Format = "f32"
	FormatMuLaw Format = "mulaw"
)

// ParseFormat accepts the format names case-insensitively. An empty name means WAV.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatWAV, nil
	case FormatWAV, FormatPCM16, FormatF32, FormatMuLaw:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// FormatForPath guesses the format from a file extension. Unknown extensions
// give WAV.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pcm", ".raw", ".s16":
		return FormatPCM16
	case ".f32":
		return FormatF32
	case ".ulaw", ".mulaw", ".mu":
		return FormatMuLaw
	default:
		return FormatWAV
	}
}

// Decode turns a complete payload into a clip at sampleRate. Raw formats are
// assumed to already be at sampleRate.
func Decode(format Format, data []byte, sampleRate int) (Clip, error) {
	var (
		samples []float32
		err     error
	)
	switch format {
	case FormatWAV:
		return DecodeWAV(bytes.NewReader(data), sampleRate)
	case FormatPCM16:
		samples, err = DecodePCM16(data)
	case FormatF32:
		samples, err = DecodeFloat32(data)
	case FormatMuLaw:
		samples = DecodeMuLaw(data)
	default:
		return Clip{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Clip{}, err
	}
	return Clip{Samples: samples, SampleRate: sampleRate}, nil
}

// Encode writes samples to w in format. Only WAV carries the sample rate; the
// raw formats write bare samples.
func Encode(w io.WriteSeeker, format Format, samples []float32, sampleRate int) error {
	var data []byte
	switch format {
	case FormatWAV:
		return EncodeWAV(w, samples, sampleRate)
	case FormatPCM16:
		data = EncodePCM16(samples)
	case FormatF32:
		data = EncodeFloat32(samples)
	case FormatMuLaw:
		data = EncodeMuLaw(samples)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	_, err := w.Write(data)
	return err
}
