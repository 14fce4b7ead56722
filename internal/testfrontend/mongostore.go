package testfrontend

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/flamesh/flame"
)

// applicationDoc is the persisted shape of one registered application.
type applicationDoc struct {
	ID          string              `bson:"_id"`
	Application flame.Application   `bson:"application"`
}

// OpenMongoCollection dials uri and returns the named collection in db,
// along with a close func releasing the client. It exists so a long-lived
// reference frontend (run outside of tests, e.g. local integration setups)
// can keep its application registry across restarts instead of losing it
// whenever the in-memory Store is recreated.
func OpenMongoCollection(uri, db, collection string) (*mongo.Collection, func() error, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo %s: %w", uri, err)
	}
	return client.Database(db).Collection(collection), client.Disconnect, nil
}

// SaveApplications upserts every registered application into coll, keyed by
// application id.
func (s *Store) SaveApplications(ctx context.Context, coll *mongo.Collection) error {
	s.mu.Lock()
	docs := make([]applicationDoc, 0, len(s.apps))
	for id, app := range s.apps {
		docs = append(docs, applicationDoc{ID: string(id), Application: app})
	}
	s.mu.Unlock()

	for _, doc := range docs {
		filter := bson.M{"_id": doc.ID}
		update := bson.M{"$set": doc}
		if _, err := coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true)); err != nil {
			return fmt.Errorf("persist application %s: %w", doc.ID, err)
		}
	}
	return nil
}

// LoadApplications adds every document found in coll to the Store's
// application registry, overwriting entries with the same id; entries not
// in coll are kept. Used for restoring state at process startup.
func (s *Store) LoadApplications(ctx context.Context, coll *mongo.Collection) error {
	cursor, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("load applications: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []applicationDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return fmt.Errorf("decode applications: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.apps[flame.ApplicationID(doc.ID)] = doc.Application
	}
	return nil
}
