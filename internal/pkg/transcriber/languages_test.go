package transcriber

import (
	"testing"

	"bitbucket.org/airenas/callsight/internal/pkg/blob"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct{ v, e string }{
		{"english", "en"},
		{"English", "en"},
		{" ARABIC ", "ar"},
		{"spanish", "es"},
		{"en", "en"},
		{"lt", "lt"},
		{"", ""},
		{"auto", ""},
		{"detect", ""},
		{"port", "pt"},
		{"klingon", "klingon"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.e, NormalizeLanguage(tc.v), "for "+tc.v)
	}
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, UserMessage(ErrNoAPIKey), "not configured")
	assert.Contains(t, UserMessage(ErrPlaceholderAudio), "no audio")
	assert.Contains(t, UserMessage(ErrTooShort), "no speech")
	assert.Contains(t, UserMessage(ErrRateLimited), "usage limit")
	assert.Contains(t, UserMessage(errors.Wrap(blob.ErrNotFound, "olia")), "could not be loaded")
	assert.Contains(t, UserMessage(assert.AnError), "did not return")
}
