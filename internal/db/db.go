package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrUnavailable is returned by every store operation when the handle was
// never initialized (DATABASE_URL unset or the connect failed). It is never
// conflated with not-found.
var ErrUnavailable = errors.New("db: not configured")

// DB wraps the mongo client and the selected database. A nil *DB is a valid
// "store unavailable" handle: every method on it returns ErrUnavailable.
type DB struct {
	client   *mongo.Client
	database *mongo.Database
}

// Connect opens a client for uri and pings the deployment so an unreachable
// store fails here rather than on the first request.
func Connect(ctx context.Context, uri, name string) (*DB, error) {
	if uri == "" {
		return nil, ErrUnavailable
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetConnectTimeout(5 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	return &DB{client: client, database: client.Database(name)}, nil
}

// Ping checks reachability of the deployment.
func (d *DB) Ping(ctx context.Context) error {
	if d == nil || d.client == nil {
		return ErrUnavailable
	}
	return d.client.Ping(ctx, nil)
}

// Name returns the selected database name, or "" when unavailable.
func (d *DB) Name() string {
	if d == nil || d.database == nil {
		return ""
	}
	return d.database.Name()
}

// CollectionNames lists the collection names in the selected database.
func (d *DB) CollectionNames(ctx context.Context) ([]string, error) {
	if d == nil || d.database == nil {
		return nil, ErrUnavailable
	}
	names, err := d.database.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("db: list collections: %w", err)
	}
	return names, nil
}

// EnsureIndexes creates the unique email index that backs the duplicate
// check on signup. Two concurrent signups can both pass the existence
// lookup; the index makes the second insert fail instead of storing a
// duplicate.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	if d == nil || d.database == nil {
		return ErrUnavailable
	}
	_, err := d.database.Collection(userCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("db: create email index: %w", err)
	}
	return nil
}

// Close disconnects the client. Safe on a nil handle.
func (d *DB) Close(ctx context.Context) error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Disconnect(ctx)
}
