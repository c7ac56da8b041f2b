package blob

import (
	"path"
	"strings"

	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

//CallsPrefix is the conventional storage prefix for call recordings
const CallsPrefix = "calls/"

// FetchWithAltKeys downloads an object trying the primary key first,
// then the conventional calls/<filename> key and the bare file name.
// Uploads done outside the backend often register keys that miss the prefix
func FetchWithAltKeys(store Store, bucket, key, fileName string) ([]byte, string, error) {
	keys := altKeys(key, fileName)
	var lastErr error
	for _, k := range keys {
		data, err := store.Get(bucket, k)
		if err == nil {
			if k != key {
				cmdapp.Log.Infof("Found blob with alternate key: %s", k)
			}
			return data, k, nil
		}
		lastErr = err
		if !errors.Is(err, ErrNotFound) {
			return nil, "", err
		}
	}
	return nil, "", errors.Wrapf(lastErr, "Can't download blob, tried keys: %s",
		strings.Join(keys, ", "))
}

func altKeys(key, fileName string) []string {
	res := []string{key}
	add := func(k string) {
		if k == "" {
			return
		}
		for _, e := range res {
			if e == k {
				return
			}
		}
		res = append(res, k)
	}
	if fileName == "" {
		fileName = path.Base(key)
	}
	add(CallsPrefix + fileName)
	add(fileName)
	return res
}
