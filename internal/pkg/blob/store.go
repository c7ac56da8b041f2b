package blob

import (
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"github.com/pkg/errors"
)

//ErrNotFound indicates missing object in the store
var ErrNotFound = errors.New("Object not found")

//Object describes one stored item
type Object struct {
	Key      string
	Size     int64
	Modified time.Time
}

//Store is an abstract tenant scoped object storage
type Store interface {
	Get(bucket, key string) ([]byte, error)
	Put(bucket, key string, data []byte) error
	Delete(bucket, key string) error
	List(bucket, prefix string) ([]Object, error)
}

//Provider resolves a store using tenant credentials
type Provider interface {
	ForTenant(tenant *persistence.Tenant) (Store, error)
}
