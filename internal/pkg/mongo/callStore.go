package mongo

import (
	"context"
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CallStore persists call records in mongo db
type CallStore struct {
	SessionProvider *SessionProvider
}

//NewCallStore creates CallStore instance
func NewCallStore(sessionProvider *SessionProvider) (*CallStore, error) {
	f := CallStore{SessionProvider: sessionProvider}
	return &f, nil
}

// Insert assigns a new ID and saves the call
func (cs *CallStore) Insert(call *persistence.Call) error {
	cmdapp.Log.Infof("Saving call %s for tenant %d", call.FileName, call.TenantID)

	ctx, cancel := mongoContext()
	defer cancel()

	session, err := cs.SessionProvider.NewSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())

	id, err := nextID(ctx, session, callTable)
	if err != nil {
		return errors.Wrap(err, "Can't get new call ID")
	}
	call.ID = id
	if call.Uploaded.IsZero() {
		call.Uploaded = time.Now()
	}
	c := session.Client().Database(store).Collection(callTable)
	_, err = c.InsertOne(ctx, call)
	return err
}

// Get retrieves call by ID
func (cs *CallStore) Get(id int64) (*persistence.Call, error) {
	ctx, cancel := mongoContext()
	defer cancel()

	session, err := cs.SessionProvider.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(callTable)
	var res persistence.Call
	err = c.FindOne(ctx, bson.M{"ID": id}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Can't get call")
	}
	return &res, nil
}

// UpdateStatus sets the call status
func (cs *CallStore) UpdateStatus(id int64, status string) error {
	ctx, cancel := mongoContext()
	defer cancel()

	session, err := cs.SessionProvider.NewSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(callTable)
	return c.FindOneAndUpdate(ctx, bson.M{"ID": id},
		bson.M{"$set": bson.M{"status": sanitize(status)}}).Err()
}

// SetDuration sets call length in seconds
func (cs *CallStore) SetDuration(id int64, seconds int) error {
	ctx, cancel := mongoContext()
	defer cancel()

	session, err := cs.SessionProvider.NewSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(callTable)
	return c.FindOneAndUpdate(ctx, bson.M{"ID": id},
		bson.M{"$set": bson.M{"duration": seconds}}).Err()
}

// ListByStatus returns calls with the wanted status
func (cs *CallStore) ListByStatus(status string) ([]*persistence.Call, error) {
	ctx, cancel := mongoContext()
	defer cancel()

	session, err := cs.SessionProvider.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(callTable)
	cursor, err := c.Find(ctx, bson.M{"status": sanitize(status)})
	if err != nil {
		return nil, errors.Wrap(err, "Can't list calls")
	}
	defer cursor.Close(ctx)
	var res []*persistence.Call
	for cursor.Next(ctx) {
		var call persistence.Call
		if err = cursor.Decode(&call); err != nil {
			return nil, errors.Wrap(err, "Can't decode call")
		}
		res = append(res, &call)
	}
	return res, cursor.Err()
}

// ExistsByBlobKey tells if a call is already registered for the tenant's object
func (cs *CallStore) ExistsByBlobKey(tenantID int64, blobKey string) (bool, error) {
	ctx, cancel := mongoContext()
	defer cancel()

	session, err := cs.SessionProvider.NewSession()
	if err != nil {
		return false, err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(callTable)
	err = c.FindOne(ctx, bson.M{"tenantID": tenantID, "blobKey": sanitize(blobKey)},
		options.FindOne().SetProjection(bson.M{"ID": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func nextID(ctx context.Context, session mongo.Session, name string) (int64, error) {
	c := session.Client().Database(store).Collection(counterTable)
	var res struct {
		Value int64 `bson:"value"`
	}
	err := c.FindOneAndUpdate(ctx, bson.M{"ID": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).
			SetReturnDocument(options.After)).Decode(&res)
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}
