package media

import (
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toneBuffer builds a mono PCM buffer of the given duration filled with a
// constant sample value, so concatenation order is observable in the data.
func toneBuffer(t *testing.T, seconds float64, sampleRate, value int) *audio.IntBuffer {
	t.Helper()
	frames := int(seconds * float64(sampleRate))
	data := make([]int, frames)
	for i := range data {
		data[i] = value
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: 16,
		Data:           data,
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	buf := toneBuffer(t, 0.5, 8000, 100)

	require.NoError(t, WriteWAV(path, buf))

	got, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, got.Format.SampleRate)
	assert.Equal(t, 1, got.Format.NumChannels)
	assert.Equal(t, buf.Data, got.Data)
}

func TestConcat_OrderPreserved(t *testing.T) {
	a := toneBuffer(t, 0.1, 8000, 1)
	b := toneBuffer(t, 0.1, 8000, 2)
	c := toneBuffer(t, 0.1, 8000, 3)

	joined, err := Concat(a, b, c)
	require.NoError(t, err)

	require.Len(t, joined.Data, len(a.Data)+len(b.Data)+len(c.Data))
	assert.Equal(t, 1, joined.Data[0])
	assert.Equal(t, 2, joined.Data[len(a.Data)])
	assert.Equal(t, 3, joined.Data[len(a.Data)+len(b.Data)])
}

func TestConcat_RejectsMixedFormats(t *testing.T) {
	a := toneBuffer(t, 0.1, 8000, 1)
	b := toneBuffer(t, 0.1, 16000, 2)

	_, err := Concat(a, b)
	require.Error(t, err)
}

func TestConcat_Empty(t *testing.T) {
	_, err := Concat()
	require.Error(t, err)
}

func TestSlice(t *testing.T) {
	buf := toneBuffer(t, 1.0, 8000, 7)

	cut := Slice(buf, 250, 750)
	assert.Len(t, cut.Data, 4000)
	assert.InDelta(t, 0.5, DurationSeconds(cut), 1e-9)

	// Out-of-range bounds clamp instead of panicking.
	over := Slice(buf, 900, 5000)
	assert.InDelta(t, 0.1, DurationSeconds(over), 1e-3)

	empty := Slice(buf, 800, 200)
	assert.Empty(t, empty.Data)
}

func TestDurationSeconds(t *testing.T) {
	buf := toneBuffer(t, 2.0, 8000, 0)
	assert.InDelta(t, 2.0, DurationSeconds(buf), 1e-9)

	stereo := &audio.IntBuffer{
		Format: &audio.Format{SampleRate: 8000, NumChannels: 2},
		Data:   make([]int, 16000),
	}
	assert.InDelta(t, 1.0, DurationSeconds(stereo), 1e-9)
}
