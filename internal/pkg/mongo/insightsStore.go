package mongo

import (
	"context"
	"time"

	"bitbucket.org/airenas/callsight/internal/pkg/cmdapp"
	"bitbucket.org/airenas/callsight/internal/pkg/persistence"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// InsightsStore persists call analysis records in mongo db
type InsightsStore struct {
	SessionProvider *SessionProvider
}

//NewInsightsStore creates InsightsStore instance
func NewInsightsStore(sessionProvider *SessionProvider) (*InsightsStore, error) {
	f := InsightsStore{SessionProvider: sessionProvider}
	return &f, nil
}

// SaveWithStatus replaces the call's insights and moves the call to the new
// status with the score in one transaction. Either everything lands or nothing does
func (is *InsightsStore) SaveWithStatus(data *persistence.Insights, score int, status string) error {
	cmdapp.Log.Infof("Committing insights for call %d, status %s", data.CallID, status)

	ctx, cancel := mongoContext()
	defer cancel()

	session, err := is.SessionProvider.NewSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())

	if data.Created.IsZero() {
		data.Created = time.Now()
	}
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		db := sc.Client().Database(store)
		if _, err := db.Collection(insightsTable).DeleteMany(sc, bson.M{"callID": data.CallID}); err != nil {
			return nil, err
		}
		if _, err := db.Collection(insightsTable).InsertOne(sc, data); err != nil {
			return nil, err
		}
		res, err := db.Collection(callTable).UpdateOne(sc, bson.M{"ID": data.CallID},
			bson.M{"$set": bson.M{"status": sanitize(status), "score": score}})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, errors.Errorf("No call %d", data.CallID)
		}
		return nil, nil
	})
	return err
}

// Get retrieves insights by call ID
func (is *InsightsStore) Get(callID int64) (*persistence.Insights, error) {
	ctx, cancel := mongoContext()
	defer cancel()

	session, err := is.SessionProvider.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(context.Background())

	c := session.Client().Database(store).Collection(insightsTable)
	var res persistence.Insights
	err = c.FindOne(ctx, bson.M{"callID": callID}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Can't get insights")
	}
	return &res, nil
}
