// Package audio turns encoded clips into the mono float32 samples the VAD
// models read, and writes extracted speech back out as WAV.
//
// Accepted inputs are WAV files (any channel count, 16, 24 or 32-bit integer PCM), raw
// little-endian 16-bit PCM, raw little-endian float32 and G.711 μ-law. Raw
// formats carry no header and are taken to be 16 kHz mono. WAV files at
// another rate are resampled when the package is built with the ffmpeg tag,
// and rejected otherwise.
package audio
