package mongo

import (
	"context"

	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// TenantStore reads tenant records from mongo db
type TenantStore struct {
	SessionProvider *SessionProvider
}

//NewTenantStore creates TenantStore instance
func NewTenantStore(sessionProvider *SessionProvider) (*TenantStore, error) {
	f := TenantStore{SessionProvider: sessionProvider}
	return &f, nil
}

// Get retrieves tenant by ID
func (ts *TenantStore) Get(id int64) (*persistence.Tenant, error) {
	ctx, cancel := mongoContext()
	defer cancel()

	session, err := ts.SessionProvider.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(tenantTable)
	var res persistence.Tenant
	err = c.FindOne(ctx, bson.M{"ID": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Can't get tenant")
	}
	return &res, nil
}

// ListActive returns tenants whose bucket should be scanned
func (ts *TenantStore) ListActive() ([]*persistence.Tenant, error) {
	ctx, cancel := mongoContext()
	defer cancel()

	session, err := ts.SessionProvider.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(tenantTable)
	cursor, err := c.Find(ctx, bson.M{"status": "active"})
	if err != nil {
		return nil, errors.Wrap(err, "Can't list tenants")
	}
	defer cursor.Close(ctx)
	var res []*persistence.Tenant
	for cursor.Next(ctx) {
		var t persistence.Tenant
		if err = cursor.Decode(&t); err != nil {
			return nil, errors.Wrap(err, "Can't decode tenant")
		}
		res = append(res, &t)
	}
	return res, cursor.Err()
}
