package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wavHeader is the 44-byte canonical RIFF/WAVE header for PCM data.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// EncodeWAV wraps mono PCM-16 samples in a WAV container.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio samples")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	dataSize := uint32(len(samples) * 2)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeWAV parses a mono PCM-16 WAV clip and returns its samples and
// sample rate.
func DecodeWAV(data []byte) ([]int16, int, error) {
	if len(data) < 44 {
		return nil, 0, fmt.Errorf("WAV data too short: need at least 44 bytes, got %d", len(data))
	}

	var header wavHeader
	buf := bytes.NewReader(data)
	if err := binary.Read(buf, binary.LittleEndian, &header); err != nil {
		return nil, 0, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if string(header.ChunkID[:]) != "RIFF" || string(header.Format[:]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a WAV file")
	}
	if string(header.Subchunk1ID[:]) != "fmt " || string(header.Subchunk2ID[:]) != "data" {
		return nil, 0, fmt.Errorf("invalid WAV file: missing fmt or data chunk")
	}
	if header.AudioFormat != 1 {
		return nil, 0, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", header.AudioFormat)
	}
	if header.BitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", header.BitsPerSample)
	}
	if header.NumChannels != 1 {
		return nil, 0, fmt.Errorf("unsupported channel count: %d (only mono is supported)", header.NumChannels)
	}

	numSamples := int(header.Subchunk2Size) / 2
	if numSamples <= 0 || 44+numSamples*2 > len(data) {
		return nil, 0, fmt.Errorf("invalid WAV data size: %d", header.Subchunk2Size)
	}

	samples := make([]int16, numSamples)
	if err := binary.Read(buf, binary.LittleEndian, samples); err != nil {
		return nil, 0, fmt.Errorf("failed to read audio data: %w", err)
	}
	return samples, int(header.SampleRate), nil
}

// FloatToPCM16 converts float32 samples in [-1,1] to 16-bit PCM.
func FloatToPCM16(frame []float32) []int16 {
	out := make([]int16, len(frame))
	for i, v := range frame {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = int16(v * 32767)
	}
	return out
}
