package session

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"epis-realtime/server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWAV constructs a minimal canonical 16-bit PCM mono WAV file holding
// silence for the given duration, enough for the decoder to compute a
// duration from the header and data chunk size alone.
func buildWAV(t *testing.T, duration time.Duration, sampleRate int) []byte {
	t.Helper()
	return buildWAVChannels(t, duration, sampleRate, 1)
}

// buildWAVChannels is buildWAV with an explicit channel count, for exercising
// the surround-audio rejection path.
func buildWAVChannels(t *testing.T, duration time.Duration, sampleRate int, numChannels int) []byte {
	t.Helper()

	numSamples := int(duration.Seconds() * float64(sampleRate))
	bitsPerSample := 16
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := numSamples * blockAlign

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	return buf.Bytes()
}

func TestWavDuration_MatchesRequestedLength(t *testing.T) {
	data := buildWAV(t, 2*time.Second, 16000)

	d, err := wavDuration(data)

	require.NoError(t, err)
	assert.InDelta(t, 2.0, d.Seconds(), 0.01)
}

func TestWavDuration_RejectsGarbage(t *testing.T) {
	_, err := wavDuration([]byte("not a wav file"))
	assert.Error(t, err)
}

func TestIsTooLong_UnderAndOverCap(t *testing.T) {
	short := models.AudioFrame{Bytes: buildWAV(t, 3*time.Second, 16000), Format: models.AudioWav}
	tooLong, err := isTooLong(short)
	require.NoError(t, err)
	assert.False(t, tooLong)

	long := models.AudioFrame{Bytes: buildWAV(t, 15*time.Second, 16000), Format: models.AudioWav}
	tooLong, err = isTooLong(long)
	require.NoError(t, err)
	assert.True(t, tooLong)
}

func TestIsTooLong_NonWavFormatSkipsCheck(t *testing.T) {
	frame := models.AudioFrame{Bytes: []byte{0x01, 0x02}, Format: models.AudioMp3}
	tooLong, err := isTooLong(frame)
	require.NoError(t, err)
	assert.False(t, tooLong)
}

func TestIsSurroundAudio_MonoAndStereoPass(t *testing.T) {
	mono := models.AudioFrame{Bytes: buildWAVChannels(t, time.Second, 16000, 1), Format: models.AudioWav}
	surround, err := isSurroundAudio(mono)
	require.NoError(t, err)
	assert.False(t, surround)

	stereo := models.AudioFrame{Bytes: buildWAVChannels(t, time.Second, 16000, 2), Format: models.AudioWav}
	surround, err = isSurroundAudio(stereo)
	require.NoError(t, err)
	assert.False(t, surround)
}

func TestIsSurroundAudio_MoreThanStereoRejected(t *testing.T) {
	frame := models.AudioFrame{Bytes: buildWAVChannels(t, time.Second, 16000, 6), Format: models.AudioWav}
	surround, err := isSurroundAudio(frame)
	require.NoError(t, err)
	assert.True(t, surround)
}

func TestIsSurroundAudio_NonWavFormatSkipsCheck(t *testing.T) {
	frame := models.AudioFrame{Bytes: []byte{0x01, 0x02}, Format: models.AudioMp3}
	surround, err := isSurroundAudio(frame)
	require.NoError(t, err)
	assert.False(t, surround)
}

func TestIsSurroundAudio_RejectsGarbage(t *testing.T) {
	frame := models.AudioFrame{Bytes: []byte("not a wav file"), Format: models.AudioWav}
	_, err := isSurroundAudio(frame)
	assert.Error(t, err)
}
