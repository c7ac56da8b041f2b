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

// TranscriptStore persists call transcripts in mongo db
type TranscriptStore struct {
	SessionProvider *SessionProvider
}

//NewTranscriptStore creates TranscriptStore instance
func NewTranscriptStore(sessionProvider *SessionProvider) (*TranscriptStore, error) {
	f := TranscriptStore{SessionProvider: sessionProvider}
	return &f, nil
}

// Save upserts the transcript of a call. A call keeps at most one transcript
func (ts *TranscriptStore) Save(data *persistence.Transcript) error {
	cmdapp.Log.Infof("Saving transcript for call %d", data.CallID)

	ctx, cancel := mongoContext()
	defer cancel()

	session, err := ts.SessionProvider.NewSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())

	if data.Created.IsZero() {
		data.Created = time.Now()
	}
	c := session.Client().Database(store).Collection(transcriptTable)
	return c.FindOneAndUpdate(ctx, bson.M{"callID": data.CallID},
		bson.M{"$set": bson.M{"tenantID": data.TenantID, "text": data.Text,
			"language": sanitize(data.Language), "method": sanitize(data.Method),
			"created": data.Created}},
		upsertOptions()).Err()
}

//upsertOptions asks for the post image, the default pre image is null on
//a fresh insert and the driver turns that into ErrNoDocuments
func upsertOptions() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
}

// Get retrieves transcript by call ID
func (ts *TranscriptStore) Get(callID int64) (*persistence.Transcript, error) {
	ctx, cancel := mongoContext()
	defer cancel()

	session, err := ts.SessionProvider.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(transcriptTable)
	var res persistence.Transcript
	err = c.FindOne(ctx, bson.M{"callID": callID}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Can't get transcript")
	}
	return &res, nil
}
