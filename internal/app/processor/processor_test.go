package processor

import (
	"strings"
	"testing"

	"bitbucket.org/airenas/callsight/internal/pkg/blob"
	"bitbucket.org/airenas/callsight/internal/pkg/insights"
	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"bitbucket.org/airenas/callsight/internal/pkg/status"
	"bitbucket.org/airenas/callsight/internal/pkg/transcriber"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type fakeCallStore struct {
	calls     map[int64]*persistence.Call
	statusErr error
}

func (f *fakeCallStore) Get(id int64) (*persistence.Call, error) {
	return f.calls[id], nil
}

func (f *fakeCallStore) UpdateStatus(id int64, st string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	if c, ok := f.calls[id]; ok {
		c.Status = st
	}
	return nil
}

func (f *fakeCallStore) SetDuration(id int64, seconds int) error {
	if c, ok := f.calls[id]; ok {
		c.Duration = &seconds
	}
	return nil
}

func (f *fakeCallStore) ListByStatus(st string) ([]*persistence.Call, error) {
	var res []*persistence.Call
	for _, c := range f.calls {
		if c.Status == st {
			res = append(res, c)
		}
	}
	return res, nil
}

type fakeTranscriptStore struct {
	saved    map[int64]*persistence.Transcript
	failures int
	tries    int
}

func (f *fakeTranscriptStore) Save(data *persistence.Transcript) error {
	f.tries++
	if f.tries <= f.failures {
		return errors.New("olia")
	}
	f.saved[data.CallID] = data
	return nil
}

func (f *fakeTranscriptStore) Get(callID int64) (*persistence.Transcript, error) {
	return f.saved[callID], nil
}

type fakeInsightsStore struct {
	calls     *fakeCallStore
	saved     map[int64]*persistence.Insights
	failures  int
	tries     int
	hideSaved bool
}

func (f *fakeInsightsStore) SaveWithStatus(data *persistence.Insights, score int, st string) error {
	f.tries++
	if f.tries <= f.failures {
		return errors.New("olia")
	}
	f.saved[data.CallID] = data
	if c, ok := f.calls.calls[data.CallID]; ok {
		c.Status = st
		c.Score = &score
	}
	return nil
}

func (f *fakeInsightsStore) Get(callID int64) (*persistence.Insights, error) {
	if f.hideSaved {
		return nil, nil
	}
	return f.saved[callID], nil
}

type fakeTenantStore struct {
	tenant *persistence.Tenant
}

func (f *fakeTenantStore) Get(id int64) (*persistence.Tenant, error) {
	return f.tenant, nil
}

type fakeTranscriber struct {
	res   *transcriber.Result
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(call *persistence.Call, data []byte) (*transcriber.Result, error) {
	f.calls++
	return f.res, f.err
}

type testData struct {
	worker      *Worker
	calls       *fakeCallStore
	transcripts *fakeTranscriptStore
	insights    *fakeInsightsStore
	transcriber *fakeTranscriber
}

func newTestData(t *testing.T) *testData {
	t.Helper()
	res := &testData{}
	res.calls = &fakeCallStore{calls: map[int64]*persistence.Call{
		1: {ID: 1, TenantID: 2, FileName: "f.mp3", BlobKey: "u1/f.mp3",
			Status: status.Name(status.Processing)}}}
	res.transcripts = &fakeTranscriptStore{saved: map[int64]*persistence.Transcript{}}
	res.insights = &fakeInsightsStore{calls: res.calls, saved: map[int64]*persistence.Insights{}}
	res.transcriber = &fakeTranscriber{res: &transcriber.Result{
		Text: "Great, we are definitely interested in the demo.", Language: "en"}}

	store := blob.NewMemoryStore()
	assert.Nil(t, store.Put("b", "u1/f.mp3", []byte("audio")))

	var err error
	res.worker, err = NewWorker(res.calls, res.transcripts, res.insights,
		&fakeTenantStore{tenant: &persistence.Tenant{ID: 2, Bucket: "b"}}, store,
		res.transcriber, insights.NewGenerator(nil), nil)
	assert.Nil(t, err)
	return res
}

func TestProcess(t *testing.T) {
	d := newTestData(t)
	err := d.worker.Process(1)
	assert.Nil(t, err)
	call := d.calls.calls[1]
	assert.Equal(t, status.Name(status.Processed), call.Status)
	assert.NotNil(t, call.Score)
	assert.NotNil(t, d.transcripts.saved[1])
	assert.NotNil(t, d.insights.saved[1])
}

func TestProcess_NoCall(t *testing.T) {
	d := newTestData(t)
	err := d.worker.Process(10)
	assert.NotNil(t, err)
}

func TestProcess_NoCredential(t *testing.T) {
	d := newTestData(t)
	d.transcriber.err = transcriber.ErrNoAPIKey
	err := d.worker.Process(1)
	var procErr *ProcError
	assert.True(t, errors.As(err, &procErr))
	assert.Equal(t, KindConfiguration, procErr.Kind)
	assert.Equal(t, status.Name(status.Failed), d.calls.calls[1].Status)
	assert.Contains(t, d.transcripts.saved[1].Text, "not configured")
}

func TestProcess_TranscriptionFails(t *testing.T) {
	d := newTestData(t)
	d.transcriber.err = errors.New("olia")
	err := d.worker.Process(1)
	var procErr *ProcError
	assert.True(t, errors.As(err, &procErr))
	assert.Equal(t, KindTranscription, procErr.Kind)
	assert.Equal(t, status.Name(status.Failed), d.calls.calls[1].Status)
	assert.Contains(t, d.transcripts.saved[1].Text, "Transcription failed")
	assert.Nil(t, d.insights.saved[1])
}

func TestProcess_MissingAudio(t *testing.T) {
	d := newTestData(t)
	d.calls.calls[1].BlobKey = "u1/other.mp3"
	d.calls.calls[1].FileName = "other.mp3"
	err := d.worker.Process(1)
	var procErr *ProcError
	assert.True(t, errors.As(err, &procErr))
	assert.Equal(t, KindTranscription, procErr.Kind)
	assert.Equal(t, status.Name(status.Failed), d.calls.calls[1].Status)
	assert.Contains(t, d.transcripts.saved[1].Text, "could not be loaded")
}

func TestProcess_SavesReportedDuration(t *testing.T) {
	d := newTestData(t)
	d.transcriber.res.Duration = 12.4
	assert.Nil(t, d.worker.Process(1))
	call := d.calls.calls[1]
	assert.NotNil(t, call.Duration)
	assert.Equal(t, 12, *call.Duration)
}

func TestProcess_KeepsExtractedDuration(t *testing.T) {
	d := newTestData(t)
	sec := 30
	d.calls.calls[1].Duration = &sec
	d.transcriber.res.Duration = 12.4
	assert.Nil(t, d.worker.Process(1))
	assert.Equal(t, 30, *d.calls.calls[1].Duration)
}

func TestProcess_FailsWhenCommitNotReadable(t *testing.T) {
	d := newTestData(t)
	d.insights.hideSaved = true
	err := d.worker.Process(1)
	var procErr *ProcError
	assert.True(t, errors.As(err, &procErr))
	assert.Equal(t, KindPersistence, procErr.Kind)
}

func TestProcess_RetriesTranscriptSaveTruncated(t *testing.T) {
	d := newTestData(t)
	d.transcripts.failures = 1
	d.transcriber.res.Text = strings.Repeat("a long transcript piece ", 10000)
	assert.Nil(t, d.worker.Process(1))
	saved := d.transcripts.saved[1]
	assert.NotNil(t, saved)
	assert.Equal(t, maxStoredTranscript, len(saved.Text))
	assert.Equal(t, 2, d.transcripts.tries)
}

func TestProcess_RevertsWhenTranscriptSaveFails(t *testing.T) {
	d := newTestData(t)
	d.transcripts.failures = 10
	err := d.worker.Process(1)
	var procErr *ProcError
	assert.True(t, errors.As(err, &procErr))
	assert.Equal(t, KindPersistence, procErr.Kind)
	assert.Equal(t, status.Name(status.Processing), d.calls.calls[1].Status)
}

func TestProcess_InsightsRetry(t *testing.T) {
	d := newTestData(t)
	d.insights.failures = 1
	err := d.worker.Process(1)
	assert.Nil(t, err)
	assert.Equal(t, status.Name(status.Processed), d.calls.calls[1].Status)
	assert.Equal(t, 2, d.insights.tries)
}

func TestProcess_EmergencyInsights(t *testing.T) {
	d := newTestData(t)
	d.insights.failures = 2
	err := d.worker.Process(1)
	assert.Nil(t, err)
	assert.Equal(t, status.Name(status.Processed), d.calls.calls[1].Status)
	assert.Equal(t, 3, d.insights.tries)
	assert.Contains(t, d.insights.saved[1].Summary, "f.mp3")
}

func TestProcess_RevertsOnCommitFailure(t *testing.T) {
	d := newTestData(t)
	d.insights.failures = 10
	err := d.worker.Process(1)
	var procErr *ProcError
	assert.True(t, errors.As(err, &procErr))
	assert.Equal(t, KindPersistence, procErr.Kind)
	assert.Equal(t, status.Name(status.Processing), d.calls.calls[1].Status)
}

func TestProcess_Idempotent(t *testing.T) {
	d := newTestData(t)
	assert.Nil(t, d.worker.Process(1))
	first := d.insights.saved[1]
	assert.Nil(t, d.worker.Process(1))
	assert.Equal(t, status.Name(status.Processed), d.calls.calls[1].Status)
	assert.NotNil(t, d.insights.saved[1])
	assert.Equal(t, first.Sentiment, d.insights.saved[1].Sentiment)
}

func TestProcess_Diarizes(t *testing.T) {
	d := newTestData(t)
	d.transcriber.res.Segments = []transcriber.Segment{
		{Start: 0, End: 2, Text: "What is your current budget for this?"},
		{Start: 2.1, End: 4, Text: "We have around fifty thousand allocated"}}
	assert.Nil(t, d.worker.Process(1))
	saved := d.transcripts.saved[1]
	assert.Contains(t, saved.Text, "Speaker 1: ")
	assert.Contains(t, saved.Text, "Speaker 2: ")
	assert.Equal(t, "heuristic-turns", saved.Method)
}

func TestSafetyPass_Promotes(t *testing.T) {
	d := newTestData(t)
	score := 70
	d.calls.calls[1].Score = &score
	d.insights.saved[1] = &persistence.Insights{CallID: 1, OverallScore: score}
	d.worker.SafetyPass()
	assert.Equal(t, status.Name(status.Processed), d.calls.calls[1].Status)
}

func TestSafetyPass_LeavesIncomplete(t *testing.T) {
	d := newTestData(t)
	d.worker.SafetyPass()
	assert.Equal(t, status.Name(status.Processing), d.calls.calls[1].Status)
}
