package audio_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/genservices/internal/audio"
)

func TestEncodePCM16RoundTripsThroughInspect(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, 24000*2) // one second of mono silence at 24 kHz
	wav := audio.EncodePCM16(pcm, 24000, 1)

	assert.Len(t, wav, 44+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))

	info, err := audio.Inspect(wav)
	require.NoError(t, err)
	assert.Equal(t, 24000, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, 16, info.BitsPerSample)
	assert.Equal(t, len(pcm), info.DataBytes)
	assert.InDelta(t, 1.0, info.Duration(), 0.0001)
}

func TestEncodePCM16DropsPartialFrame(t *testing.T) {
	t.Parallel()

	wav := audio.EncodePCM16([]byte{1, 2, 3}, 22050, 1)
	info, err := audio.Inspect(wav)
	require.NoError(t, err)
	assert.Equal(t, 2, info.DataBytes)
}

func TestInspectSkipsUnknownChunks(t *testing.T) {
	t.Parallel()

	wav := audio.EncodePCM16(make([]byte, 8), 16000, 1)

	// Splice a LIST chunk between the header and fmt.
	list := append([]byte("LIST"), 4, 0, 0, 0, 'I', 'N', 'F', 'O')
	spliced := append(append(append([]byte{}, wav[:12]...), list...), wav[12:]...)

	info, err := audio.Inspect(spliced)
	require.NoError(t, err)
	assert.Equal(t, 16000, info.SampleRate)
	assert.Equal(t, 8, info.DataBytes)
}

func TestInspectRejectsNonWAV(t *testing.T) {
	t.Parallel()

	for name, data := range map[string][]byte{
		"empty": nil,
		"mp3":   []byte("ID3\x04\x00\x00\x00\x00\x00\x00\x00\x00"),
		"riff without fmt": func() []byte {
			b := []byte("RIFF\x00\x00\x00\x00WAVEdata\x02\x00\x00\x00\x00\x00")
			return b
		}(),
	} {
		_, err := audio.Inspect(data)
		assert.True(t, errors.Is(err, audio.ErrNotWAV), name)
	}
}
