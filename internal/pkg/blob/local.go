package blob

import (
	"os"
	"path/filepath"
	"strings"

	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"github.com/pkg/errors"
)

// LocalStore keeps objects as files under root/bucket/key.
// It backs development and on-prem deployments where no cloud bucket is available
type LocalStore struct {
	root string
}

//NewLocalStore creates LocalStore instance
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("No storage path provided")
	}
	cmdapp.Log.Infof("Init local blob storage at: %s", root)
	return &LocalStore{root: root}, nil
}

//Get reads object bytes
func (ls *LocalStore) Get(bucket, key string) ([]byte, error) {
	data, err := os.ReadFile(ls.path(bucket, key))
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	if err != nil {
		return nil, errors.Wrap(err, "Can't read "+key)
	}
	return data, nil
}

//Put stores object bytes
func (ls *LocalStore) Put(bucket, key string, data []byte) error {
	fn := ls.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
		return errors.Wrap(err, "Can't create dir for "+key)
	}
	return errors.Wrap(os.WriteFile(fn, data, 0644), "Can't write "+key)
}

//Delete removes object, no error when missing
func (ls *LocalStore) Delete(bucket, key string) error {
	err := os.Remove(ls.path(bucket, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

//List returns objects by prefix
func (ls *LocalStore) List(bucket, prefix string) ([]Object, error) {
	var res []Object
	base := filepath.Join(ls.root, bucket)
	err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		key := strings.TrimPrefix(filepath.ToSlash(strings.TrimPrefix(path, base)), "/")
		if strings.HasPrefix(key, prefix) {
			res = append(res, Object{Key: key, Size: info.Size(), Modified: info.ModTime()})
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return res, err
}

//ForTenant lets the local store serve as a Provider, tenant credentials select the bucket only
func (ls *LocalStore) ForTenant(tenant *persistence.Tenant) (Store, error) {
	if tenant == nil || tenant.Bucket == "" {
		return nil, errors.New("No tenant bucket configured")
	}
	return ls, nil
}

func (ls *LocalStore) path(bucket, key string) string {
	return filepath.Join(ls.root, bucket, filepath.FromSlash(key))
}
