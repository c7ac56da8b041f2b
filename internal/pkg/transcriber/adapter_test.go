package transcriber

import (
	"io"
	"testing"

	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type testRecognizer struct {
	res   *Result
	err   error
	fail  int
	calls []Options
}

func (r *testRecognizer) Recognize(fileName string, file io.Reader, opts Options) (*Result, error) {
	r.calls = append(r.calls, opts)
	if len(r.calls) <= r.fail {
		return nil, errors.New("olia")
	}
	return r.res, r.err
}

type noWaitBackoff struct{}

func (nb noWaitBackoff) Get() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
}

func newTestAdapter(t *testing.T, r Recognizer) *Adapter {
	t.Helper()
	a, err := NewAdapter(r)
	assert.Nil(t, err)
	a.bp = noWaitBackoff{}
	a.tmpDir = t.TempDir()
	return a
}

func testCall() *persistence.Call {
	return &persistence.Call{ID: 1, FileName: "f.mp3", BlobKey: "u1/f.mp3"}
}

func TestTranscribe(t *testing.T) {
	r := &testRecognizer{res: &Result{Text: "  a quite long recognized text  ", Language: "en"}}
	a := newTestAdapter(t, r)
	res, err := a.Transcribe(testCall(), []byte("audio"))
	assert.Nil(t, err)
	assert.Equal(t, "a quite long recognized text", res.Text)
	assert.Equal(t, 1, len(r.calls))
}

func TestTranscribe_RetriesFailure(t *testing.T) {
	r := &testRecognizer{res: &Result{Text: "a quite long recognized text"}, fail: 2}
	a := newTestAdapter(t, r)
	res, err := a.Transcribe(testCall(), []byte("audio"))
	assert.Nil(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 3, len(r.calls))
}

func TestTranscribe_FailsAfterAttempts(t *testing.T) {
	r := &testRecognizer{fail: 10}
	a := newTestAdapter(t, r)
	_, err := a.Transcribe(testCall(), []byte("audio"))
	assert.NotNil(t, err)
	assert.Equal(t, 3, len(r.calls))
}

func TestTranscribe_TooShort(t *testing.T) {
	r := &testRecognizer{res: &Result{Text: "hi"}}
	a := newTestAdapter(t, r)
	_, err := a.Transcribe(testCall(), []byte("audio"))
	assert.True(t, errors.Is(err, ErrTooShort))
}

func TestTranscribe_NoKeyNotRetried(t *testing.T) {
	r := &testRecognizer{err: ErrNoAPIKey}
	a := newTestAdapter(t, r)
	_, err := a.Transcribe(testCall(), []byte("audio"))
	assert.True(t, errors.Is(err, ErrNoAPIKey))
	assert.Equal(t, 1, len(r.calls))
}

func TestTranscribe_Placeholder(t *testing.T) {
	r := &testRecognizer{res: &Result{Text: "a quite long recognized text"}}
	a := newTestAdapter(t, r)
	call := testCall()
	call.BlobKey = "mock/f.mp3"
	_, err := a.Transcribe(call, []byte("audio"))
	assert.True(t, errors.Is(err, ErrPlaceholderAudio))
	assert.Equal(t, 0, len(r.calls))
}

func TestTranscribe_DropsHintOnFailure(t *testing.T) {
	r := &testRecognizer{fail: 1, res: &Result{Text: "a quite long recognized text"}}
	a := newTestAdapter(t, r)
	call := testCall()
	call.Language = "english"
	res, err := a.Transcribe(call, []byte("audio"))
	assert.Nil(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 2, len(r.calls))
	assert.Equal(t, "en", r.calls[0].Language)
	assert.Equal(t, "", r.calls[1].Language)
}

func TestTranscribe_FallsBackToPlainText(t *testing.T) {
	r := &testRecognizer{fail: 1, res: &Result{Text: "a quite long recognized text"}}
	a := newTestAdapter(t, r)
	a.detailed = true
	res, err := a.Transcribe(testCall(), []byte("audio"))
	assert.Nil(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 2, len(r.calls))
	assert.True(t, r.calls[0].Detailed)
	assert.False(t, r.calls[1].Detailed)
}

func TestOptionVariants(t *testing.T) {
	vs := optionVariants(Options{Language: "en", Detailed: true})
	assert.Equal(t, 3, len(vs))
	assert.Equal(t, Options{Language: "en", Detailed: true}, vs[0])
	assert.Equal(t, Options{Language: "", Detailed: true}, vs[1])
	assert.Equal(t, Options{Language: "", Detailed: false}, vs[2])
	assert.Equal(t, 1, len(optionVariants(Options{})))
}
