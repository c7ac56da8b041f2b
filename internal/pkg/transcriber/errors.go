package transcriber

import (
	"bitbucket.org/airenas/callsight/internal/pkg/blob"
	"github.com/pkg/errors"
)

var (
	//ErrNoAPIKey indicates the speech service credential is missing
	ErrNoAPIKey = errors.New("No transcription API key configured")
	//ErrPlaceholderAudio indicates the call points to a placeholder object, not real audio
	ErrPlaceholderAudio = errors.New("Audio reference is a placeholder")
	//ErrTooShort indicates the service returned no usable text
	ErrTooShort = errors.New("Transcription result is too short")
	//ErrRateLimited indicates the speech service refused the call quota
	ErrRateLimited = errors.New("Speech service rate limit reached")
)

//UserMessage maps a failure to text readable by the call owner.
//The text is stored as the failed call's transcript
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoAPIKey):
		return "Transcription is not available: the speech service is not configured."
	case errors.Is(err, ErrPlaceholderAudio):
		return "Transcription failed: no audio recording was found for this call."
	case errors.Is(err, blob.ErrNotFound):
		return "Transcription failed: the audio file could not be loaded from storage."
	case errors.Is(err, ErrTooShort):
		return "Transcription failed: no speech was recognized in the recording."
	case errors.Is(err, ErrRateLimited):
		return "Transcription failed: the speech service is over its usage limit. The call can be submitted again later."
	}
	return "Transcription failed: the speech service did not return a result. The call can be submitted again."
}
