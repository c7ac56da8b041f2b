package audio

import (
	"bytes"
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/blob"
	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

//ExtractWithRetry loads audio from the blob store and asks the extractor for its length.
//Alternative object keys are tried when the primary key is missing.
//Returns duration in full seconds
func ExtractWithRetry(extractor Extractor, store blob.Store, bucket, key, fileName string, attempts int) (int, error) {
	if extractor == nil {
		return 0, errors.New("No duration extractor")
	}
	if attempts < 1 {
		attempts = 1
	}
	data, usedKey, err := blob.FetchWithAltKeys(store, bucket, key, fileName)
	if err != nil {
		return 0, errors.Wrap(err, "Can't load audio for duration")
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(time.Second)
		}
		d, err := extractor.Get(fileName, bytes.NewReader(data))
		if err != nil {
			lastErr = err
			cmdapp.Log.Warnf("Duration attempt %d failed for %s: %v", i+1, usedKey, err)
			continue
		}
		sec := int(d.Round(time.Second) / time.Second)
		if sec < 1 && d > 0 {
			sec = 1
		}
		return sec, nil
	}
	return 0, errors.Wrap(lastErr, "Can't extract duration")
}
