package session

import (
	"bytes"
	"time"

	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"

	"github.com/go-audio/wav"
)

// maxPromptDuration is the longest inbound WAV prompt the loop accepts,
// checked from the header alone — no full PCM decode needed.
const maxPromptDuration = models.MaxPromptDurationSeconds * time.Second

// maxChannels is the highest channel count the transcription provider
// accepts; anything beyond stereo is surround audio, which it rejects.
const maxChannels = 2

// wavDuration reads just enough of a WAV file to compute its duration.
func wavDuration(data []byte) (time.Duration, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return 0, errors.New(errors.ErrValidation, "not a valid WAV file")
	}
	return decoder.Duration()
}

// isTooLong reports whether a WAV-format audio frame exceeds the duration cap.
func isTooLong(frame models.AudioFrame) (bool, error) {
	if frame.Format != models.AudioWav {
		return false, nil
	}
	d, err := wavDuration(frame.Bytes)
	if err != nil {
		return false, err
	}
	return d > maxPromptDuration, nil
}

// isSurroundAudio reports whether a WAV-format audio frame carries more
// channels than the transcription provider supports.
func isSurroundAudio(frame models.AudioFrame) (bool, error) {
	if frame.Format != models.AudioWav {
		return false, nil
	}
	decoder := wav.NewDecoder(bytes.NewReader(frame.Bytes))
	if !decoder.IsValidFile() {
		return false, errors.New(errors.ErrValidation, "not a valid WAV file")
	}
	return int(decoder.NumChans) > maxChannels, nil
}
