package blob

import (
	"sort"
	"strings"
	"sync"
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"github.com/pkg/errors"
)

//MemoryStore is an in-memory Store used in tests
type MemoryStore struct {
	m    sync.Mutex
	data map[string][]byte
}

//NewMemoryStore creates MemoryStore instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

//Get implements Store
func (ms *MemoryStore) Get(bucket, key string) ([]byte, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	d, ok := ms.data[bucket+"/"+key]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	return d, nil
}

//Put implements Store
func (ms *MemoryStore) Put(bucket, key string, data []byte) error {
	ms.m.Lock()
	defer ms.m.Unlock()
	ms.data[bucket+"/"+key] = data
	return nil
}

//Delete implements Store
func (ms *MemoryStore) Delete(bucket, key string) error {
	ms.m.Lock()
	defer ms.m.Unlock()
	delete(ms.data, bucket+"/"+key)
	return nil
}

//List implements Store
func (ms *MemoryStore) List(bucket, prefix string) ([]Object, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	var res []Object
	for k, v := range ms.data {
		if strings.HasPrefix(k, bucket+"/"+prefix) {
			res = append(res, Object{Key: strings.TrimPrefix(k, bucket+"/"),
				Size: int64(len(v)), Modified: time.Now()})
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Key < res[j].Key })
	return res, nil
}

//ForTenant implements Provider
func (ms *MemoryStore) ForTenant(tenant *persistence.Tenant) (Store, error) {
	return ms, nil
}
