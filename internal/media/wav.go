package media

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const defaultBitDepth = 16

// ReadWAV decodes a wav file into a PCM buffer.
func ReadWAV(path string) (*audio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav %s: %w", path, err)
	}
	return buf, nil
}

// WriteWAV encodes a PCM buffer to a wav file.
func WriteWAV(path string, buf *audio.IntBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav %s: %w", path, err)
	}
	defer f.Close()

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = defaultBitDepth
	}

	encoder := wav.NewEncoder(f, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, 1)
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to encode wav %s: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav %s: %w", path, err)
	}
	return nil
}

// Concat joins PCM buffers end to end. All buffers must share one format.
func Concat(bufs ...*audio.IntBuffer) (*audio.IntBuffer, error) {
	if len(bufs) == 0 {
		return nil, fmt.Errorf("nothing to concatenate")
	}

	first := bufs[0]
	total := 0
	for _, b := range bufs {
		if b.Format.SampleRate != first.Format.SampleRate ||
			b.Format.NumChannels != first.Format.NumChannels {
			return nil, fmt.Errorf("mismatched audio formats: %d/%dch vs %d/%dch",
				first.Format.SampleRate, first.Format.NumChannels,
				b.Format.SampleRate, b.Format.NumChannels)
		}
		total += len(b.Data)
	}

	data := make([]int, 0, total)
	for _, b := range bufs {
		data = append(data, b.Data...)
	}

	return &audio.IntBuffer{
		Format: &audio.Format{
			SampleRate:  first.Format.SampleRate,
			NumChannels: first.Format.NumChannels,
		},
		SourceBitDepth: first.SourceBitDepth,
		Data:           data,
	}, nil
}

// Slice cuts the [startMs, endMs) range out of a PCM buffer.
func Slice(buf *audio.IntBuffer, startMs, endMs float64) *audio.IntBuffer {
	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels

	startFrame := int(startMs * float64(buf.Format.SampleRate) / 1000)
	endFrame := int(endMs * float64(buf.Format.SampleRate) / 1000)

	if startFrame < 0 {
		startFrame = 0
	}
	if endFrame > frames {
		endFrame = frames
	}
	if startFrame > endFrame {
		startFrame = endFrame
	}

	data := make([]int, (endFrame-startFrame)*channels)
	copy(data, buf.Data[startFrame*channels:endFrame*channels])

	return &audio.IntBuffer{
		Format: &audio.Format{
			SampleRate:  buf.Format.SampleRate,
			NumChannels: buf.Format.NumChannels,
		},
		SourceBitDepth: buf.SourceBitDepth,
		Data:           data,
	}
}

// DurationSeconds returns the play time of a PCM buffer.
func DurationSeconds(buf *audio.IntBuffer) float64 {
	if buf.Format.SampleRate == 0 || buf.Format.NumChannels == 0 {
		return 0
	}
	frames := len(buf.Data) / buf.Format.NumChannels
	return float64(frames) / float64(buf.Format.SampleRate)
}
