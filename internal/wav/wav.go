// Package wav encodes canonical PCM into RIFF/WAVE containers.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/anand-san/murmur/internal/pcm"
)

const (
	// HeaderSize is the RIFF descriptor, fmt sub-chunk and data sub-chunk header.
	HeaderSize     = 44
	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
)

var errShortHeader = errors.New("wav header shorter than 44 bytes")

// Header mirrors the fields written by Encode.
type Header struct {
	FileSize      uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// Encode serializes interleaved samples with a 44-byte PCM header.
// Empty input yields a valid container with a zero-length data chunk.
func Encode(samples []int16, channels uint16, sampleRate uint32) ([]byte, error) {
	if channels == 0 {
		return nil, fmt.Errorf("encode wav: channel count must be > 0")
	}
	if sampleRate == 0 {
		return nil, fmt.Errorf("encode wav: sample rate must be > 0")
	}
	if len(samples)%int(channels) != 0 {
		return nil, fmt.Errorf("encode wav: %d samples is not a whole number of %d-channel frames", len(samples), channels)
	}
	dataSize := uint64(len(samples)) * bytesPerSample
	if dataSize > math.MaxUint32-36 {
		return nil, fmt.Errorf("encode wav: data size %d exceeds RIFF limit", dataSize)
	}

	blockAlign := channels * bytesPerSample
	out := make([]byte, HeaderSize, HeaderSize+int(dataSize))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], channels)
	binary.LittleEndian.PutUint32(out[24:28], sampleRate)
	binary.LittleEndian.PutUint32(out[28:32], sampleRate*uint32(blockAlign))
	binary.LittleEndian.PutUint16(out[32:34], blockAlign)
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	return append(out, pcm.Bytes(samples)...), nil
}

// ParseHeader reads the fixed 44-byte header written by Encode.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errShortHeader
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Header{}, fmt.Errorf("not a RIFF/WAVE container")
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		return Header{}, fmt.Errorf("unexpected wav chunk layout")
	}

	return Header{
		FileSize:      binary.LittleEndian.Uint32(data[4:8]),
		AudioFormat:   binary.LittleEndian.Uint16(data[20:22]),
		Channels:      binary.LittleEndian.Uint16(data[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(data[24:28]),
		ByteRate:      binary.LittleEndian.Uint32(data[28:32]),
		BlockAlign:    binary.LittleEndian.Uint16(data[32:34]),
		BitsPerSample: binary.LittleEndian.Uint16(data[34:36]),
		DataSize:      binary.LittleEndian.Uint32(data[40:44]),
	}, nil
}

// Duration converts a PCM16 byte length into playback time.
func Duration(dataBytes int, sampleRate int, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	bytesPerSecond := float64(sampleRate * channels * bytesPerSample)
	return time.Duration(float64(dataBytes) / bytesPerSecond * float64(time.Second))
}
