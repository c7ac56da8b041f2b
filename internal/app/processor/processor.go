package processor

import (
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/blob"
	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/diarize"
	"bitbucket.org/airenas/callsight/internal/pkg/insights"
	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"bitbucket.org/airenas/callsight/internal/pkg/status"
	"bitbucket.org/airenas/callsight/internal/pkg/transcriber"
	"github.com/pkg/errors"
)

//CallStore provides call records
type CallStore interface {
	Get(id int64) (*persistence.Call, error)
	UpdateStatus(id int64, st string) error
	SetDuration(id int64, seconds int) error
	ListByStatus(st string) ([]*persistence.Call, error)
}

//TranscriptStore saves and loads transcripts
type TranscriptStore interface {
	Save(data *persistence.Transcript) error
	Get(callID int64) (*persistence.Transcript, error)
}

//InsightsStore saves insights together with the final call status
type InsightsStore interface {
	SaveWithStatus(data *persistence.Insights, score int, st string) error
	Get(callID int64) (*persistence.Insights, error)
}

//TenantStore provides tenant records
type TenantStore interface {
	Get(id int64) (*persistence.Tenant, error)
}

//Transcriber turns call audio into text
type Transcriber interface {
	Transcribe(call *persistence.Call, data []byte) (*transcriber.Result, error)
}

//Generator produces the call analysis, it always returns a record
type Generator interface {
	Generate(text string, language string) *insights.Record
}

//DurationExtractor gets audio length in seconds from the blob store
type DurationExtractor func(store blob.Store, bucket, key, fileName string) (int, error)

//Worker processes one call at a time
type Worker struct {
	calls       CallStore
	transcripts TranscriptStore
	insights    InsightsStore
	tenants     TenantStore
	blobs       blob.Provider
	transcriber Transcriber
	generator   Generator
	duration    DurationExtractor
}

//NewWorker creates the call processor
func NewWorker(calls CallStore, transcripts TranscriptStore, insightsStore InsightsStore,
	tenants TenantStore, blobs blob.Provider, tr Transcriber, gen Generator,
	duration DurationExtractor) (*Worker, error) {
	if calls == nil || transcripts == nil || insightsStore == nil || tenants == nil ||
		blobs == nil || tr == nil || gen == nil {
		return nil, errors.New("Missing processor dependency")
	}
	return &Worker{calls: calls, transcripts: transcripts, insights: insightsStore,
		tenants: tenants, blobs: blobs, transcriber: tr, generator: gen,
		duration: duration}, nil
}

//Process takes the call through the whole pipeline.
//On return the call is PROCESSED or FAILED, never stuck in between
func (w *Worker) Process(callID int64) error {
	cmdapp.Log.Infof("Processing call %d", callID)
	start := time.Now()

	call, err := w.calls.Get(callID)
	if err != nil {
		return procErr(KindPersistence, err)
	}
	if call == nil {
		return procErr(KindOther, errors.Errorf("No call %d", callID))
	}

	if err := w.calls.UpdateStatus(callID, status.Name(status.Processing)); err != nil {
		return procErr(KindPersistence, err)
	}

	tenant, store, err := w.resolveStore(call)
	if err != nil {
		return w.fail(call, procErr(KindConfiguration, err))
	}
	data, usedKey, err := blob.FetchWithAltKeys(store, tenant.Bucket, call.BlobKey, call.FileName)
	if err != nil {
		return w.fail(call, procErr(KindTranscription,
			errors.Wrapf(err, "Can't load audio for call %d", callID)))
	}
	cmdapp.Log.Debugf("Loaded %d audio bytes from %s", len(data), usedKey)

	w.extractDuration(call, store, tenant.Bucket, usedKey)

	trRes, err := w.transcriber.Transcribe(call, data)
	if err != nil {
		kind := KindTranscription
		if errors.Is(err, transcriber.ErrNoAPIKey) {
			kind = KindConfiguration
		}
		return w.fail(call, procErr(kind, err))
	}

	w.saveReportedDuration(call, trRes.Duration)

	text, method := w.composeTranscript(trRes)
	if err := w.saveTranscript(&persistence.Transcript{CallID: callID,
		TenantID: call.TenantID, Text: text, Language: trRes.Language,
		Method: method}); err != nil {
		return w.revert(call, procErr(KindPersistence, err))
	}

	record := w.generator.Generate(text, trRes.Language)
	if err := w.commitInsights(call, record); err != nil {
		return w.revert(call, err)
	}

	if err := w.verify(callID); err != nil {
		return procErr(KindPersistence, err)
	}
	cmdapp.Log.Infof("Processed call %d in %s", callID, time.Since(start))
	return nil
}

//SafetyPass repairs calls left without a final state.
//A PROCESSING call that already has insights and a score is promoted to PROCESSED,
//missing durations are extracted again
func (w *Worker) SafetyPass() {
	calls, err := w.calls.ListByStatus(status.Name(status.Processing))
	if err != nil {
		cmdapp.Log.Errorf("Safety pass can't list calls: %v", err)
		return
	}
	for _, call := range calls {
		ins, err := w.insights.Get(call.ID)
		if err != nil {
			cmdapp.Log.Errorf("Safety pass can't check call %d: %v", call.ID, err)
			continue
		}
		if ins != nil && call.Score != nil {
			cmdapp.Log.Infof("Promoting stuck call %d to PROCESSED", call.ID)
			cmdapp.LogIf(w.calls.UpdateStatus(call.ID, status.Name(status.Processed)))
		}
		if call.Duration == nil {
			if tenant, store, err := w.resolveStore(call); err == nil {
				w.extractDuration(call, store, tenant.Bucket, call.BlobKey)
			}
		}
	}
}

func (w *Worker) resolveStore(call *persistence.Call) (*persistence.Tenant, blob.Store, error) {
	tenant, err := w.tenants.Get(call.TenantID)
	if err != nil {
		return nil, nil, err
	}
	if tenant == nil {
		return nil, nil, errors.Errorf("No tenant %d for call %d", call.TenantID, call.ID)
	}
	store, err := w.blobs.ForTenant(tenant)
	if err != nil {
		return nil, nil, err
	}
	return tenant, store, nil
}

//saveReportedDuration keeps the length the speech service measured
//when the duration service did not supply one
func (w *Worker) saveReportedDuration(call *persistence.Call, seconds float64) {
	if call.Duration != nil || seconds <= 0 {
		return
	}
	sec := int(seconds + 0.5)
	if sec < 1 {
		sec = 1
	}
	if err := w.calls.SetDuration(call.ID, sec); err != nil {
		cmdapp.Log.Warnf("Can't save duration for call %d: %v", call.ID, err)
		return
	}
	call.Duration = &sec
}

//extractDuration is best effort, the call is processed with or without it
func (w *Worker) extractDuration(call *persistence.Call, store blob.Store, bucket, key string) {
	if w.duration == nil || call.Duration != nil {
		return
	}
	sec, err := w.duration(store, bucket, key, call.FileName)
	if err != nil {
		cmdapp.Log.Warnf("Can't extract duration for call %d: %v", call.ID, err)
		return
	}
	if err := w.calls.SetDuration(call.ID, sec); err != nil {
		cmdapp.Log.Warnf("Can't save duration for call %d: %v", call.ID, err)
		return
	}
	call.Duration = &sec
}

func (w *Worker) composeTranscript(trRes *transcriber.Result) (string, string) {
	if len(trRes.Segments) > 0 {
		segments := make([]diarize.Segment, 0, len(trRes.Segments))
		for _, s := range trRes.Segments {
			segments = append(segments, diarize.Segment{Start: s.Start, End: s.End, Text: s.Text})
		}
		if res := diarize.Speakers(segments); res != "" {
			return res, diarize.Method
		}
	}
	return trRes.Text, ""
}

//maxStoredTranscript bounds the text kept on a retried transcript save
const maxStoredTranscript = 100000

//saveTranscript retries a failed write once with the text cut down,
//oversized documents are the usual write failure here
func (w *Worker) saveTranscript(data *persistence.Transcript) error {
	err := w.transcripts.Save(data)
	if err == nil {
		return nil
	}
	cmdapp.Log.Warnf("Retrying transcript save for call %d with truncated text: %v", data.CallID, err)
	if len(data.Text) > maxStoredTranscript {
		data.Text = data.Text[:maxStoredTranscript]
	}
	return w.transcripts.Save(data)
}

func (w *Worker) commitInsights(call *persistence.Call, record *insights.Record) *ProcError {
	err := w.saveInsights(call, record)
	if err == nil {
		return nil
	}
	cmdapp.Log.Warnf("Retrying insights commit for call %d: %v", call.ID, err)
	if err = w.saveInsights(call, record); err == nil {
		return nil
	}
	cmdapp.Log.Warnf("Committing emergency insights for call %d: %v", call.ID, err)
	transcript, _ := w.transcripts.Get(call.ID)
	text := ""
	if transcript != nil {
		text = transcript.Text
	}
	if err = w.saveInsights(call, insights.Emergency(call.FileName, text)); err != nil {
		return procErr(KindPersistence, err)
	}
	return nil
}

func (w *Worker) saveInsights(call *persistence.Call, record *insights.Record) error {
	data, err := record.ToPersistence(call.ID, call.TenantID)
	if err != nil {
		return err
	}
	return w.insights.SaveWithStatus(data, record.OverallScore, status.Name(status.Processed))
}

//fail moves the call to FAILED and leaves the explanation as its transcript
func (w *Worker) fail(call *persistence.Call, procErr *ProcError) error {
	cmdapp.Log.Errorf("Call %d failed: %v", call.ID, procErr)
	if err := w.transcripts.Save(&persistence.Transcript{CallID: call.ID,
		TenantID: call.TenantID, Text: transcriber.UserMessage(procErr.Err)}); err != nil {
		cmdapp.Log.Errorf("Can't save failure transcript for call %d: %v", call.ID, err)
	}
	if err := w.calls.UpdateStatus(call.ID, status.Name(status.Failed)); err != nil {
		cmdapp.Log.Errorf("Can't mark call %d failed: %v", call.ID, err)
	}
	return procErr
}

//revert returns the call to PROCESSING so a later pass can pick it up
func (w *Worker) revert(call *persistence.Call, procErr *ProcError) error {
	cmdapp.Log.Errorf("Call %d commit failed, reverting to PROCESSING: %v", call.ID, procErr)
	cmdapp.LogIf(w.calls.UpdateStatus(call.ID, status.Name(status.Processing)))
	return procErr
}

//verify reads the committed records back so a partial commit does not pass silently
func (w *Worker) verify(callID int64) error {
	transcript, err := w.transcripts.Get(callID)
	if err != nil {
		return errors.Wrapf(err, "Can't read back transcript for call %d", callID)
	}
	if transcript == nil {
		return errors.Errorf("No transcript after commit for call %d", callID)
	}
	ins, err := w.insights.Get(callID)
	if err != nil {
		return errors.Wrapf(err, "Can't read back insights for call %d", callID)
	}
	if ins == nil {
		return errors.Errorf("No insights after commit for call %d", callID)
	}
	cmdapp.Log.Infof("Verified call %d: transcript %d chars, score %d, %d topics", callID,
		len(transcript.Text), ins.OverallScore, len(persistence.DecodeList(ins.KeyTopics)))
	return nil
}
