package transcriber

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const minTranscriptLen = 10

//Recognizer does one speech service call
type Recognizer interface {
	Recognize(fileName string, file io.Reader, opts Options) (*Result, error)
}

type backoffProvider interface {
	Get() backoff.BackOff
}

type retryBackoff struct{}

func (rb retryBackoff) Get() backoff.BackOff {
	return backoff.WithMaxRetries(backoff.NewConstantBackOff(2*time.Second), 2)
}

//Adapter turns a call's audio into text using the speech service.
//A failed service call is retried, a placeholder or missing credential is not
type Adapter struct {
	recognizer Recognizer
	bp         backoffProvider
	detailed   bool
	tmpDir     string
}

//NewAdapter creates the transcription adapter
func NewAdapter(recognizer Recognizer) (*Adapter, error) {
	if recognizer == nil {
		return nil, errors.New("No recognizer provided")
	}
	return &Adapter{recognizer: recognizer, bp: retryBackoff{},
		detailed: cmdapp.Config.GetBool("transcriber.detailed"),
		tmpDir:   os.TempDir()}, nil
}

//Transcribe recognizes text from the call's audio bytes
func (a *Adapter) Transcribe(call *persistence.Call, data []byte) (*Result, error) {
	if strings.HasPrefix(call.BlobKey, "mock/") {
		return nil, ErrPlaceholderAudio
	}
	fName, err := a.saveTemp(call.FileName, data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't save audio file")
	}
	defer func() { cmdapp.LogIf(os.Remove(fName)) }()

	opts := Options{Language: NormalizeLanguage(call.Language),
		Translate: call.Translate, Detailed: a.detailed}

	var res *Result
	op := func() error {
		var err error
		res, err = a.recognizeOnce(fName, call.FileName, opts)
		if err == nil && len(strings.TrimSpace(res.Text)) < minTranscriptLen {
			return ErrTooShort
		}
		if errors.Is(err, ErrNoAPIKey) {
			return backoff.Permanent(err)
		}
		if err != nil {
			cmdapp.Log.Warnf("Transcription attempt for call %d failed: %v", call.ID, err)
		}
		return err
	}
	err = backoff.Retry(op, a.bp.Get())
	if err != nil {
		return nil, err
	}
	res.Text = strings.TrimSpace(res.Text)
	return res, nil
}

func (a *Adapter) recognizeOnce(fName, origName string, opts Options) (*Result, error) {
	f, err := os.Open(fName)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open audio file")
	}
	defer f.Close()

	var res *Result
	for i, o := range optionVariants(opts) {
		if i > 0 {
			if errors.Is(err, ErrNoAPIKey) {
				return nil, err
			}
			cmdapp.Log.Warnf("Retrying with language '%s', detailed %t", o.Language, o.Detailed)
			if _, sErr := f.Seek(0, io.SeekStart); sErr != nil {
				return nil, err
			}
		}
		res, err = a.recognizer.Recognize(origName, f, o)
		if err == nil {
			return res, nil
		}
	}
	return nil, err
}

//optionVariants lists fallbacks for one attempt: drop the language hint,
//then drop the timed segment request
func optionVariants(opts Options) []Options {
	res := []Options{opts}
	if opts.Language != "" {
		noHint := opts
		noHint.Language = ""
		res = append(res, noHint)
	}
	if opts.Detailed {
		plain := res[len(res)-1]
		plain.Detailed = false
		res = append(res, plain)
	}
	return res
}

func (a *Adapter) saveTemp(origName string, data []byte) (string, error) {
	ext := filepath.Ext(origName)
	fName := filepath.Join(a.tmpDir, uuid.New().String()+ext)
	err := os.WriteFile(fName, data, 0600)
	if err != nil {
		return "", err
	}
	return fName, nil
}
