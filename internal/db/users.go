package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/gramtop961/backend/internal/models"
)

const userCollection = "user"

// ErrDuplicateEmail reports a unique-index conflict on insert.
var ErrDuplicateEmail = errors.New("db: email already registered")

// Users is the gateway for the "user" collection. It tolerates a nil
// receiver or a nil underlying handle, surfacing ErrUnavailable instead.
type Users struct {
	db *DB
}

func NewUsers(db *DB) *Users { return &Users{db: db} }

func (s *Users) coll() *mongo.Collection {
	if s == nil || s.db == nil || s.db.database == nil {
		return nil
	}
	return s.db.database.Collection(userCollection)
}

// FindByEmail returns at most limit users whose email exactly matches
// email. Callers are expected to lowercase the email first.
func (s *Users) FindByEmail(ctx context.Context, email string, limit int64) ([]models.User, error) {
	coll := s.coll()
	if coll == nil {
		return nil, ErrUnavailable
	}

	cur, err := coll.Find(ctx, bson.M{"email": email}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("db: find by email: %w", err)
	}

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("db: decode users: %w", err)
	}
	return users, nil
}

// FindByID looks a user up by its hex id. Returns (nil, nil) when no such
// user exists or the id is not a valid ObjectID.
func (s *Users) FindByID(ctx context.Context, id string) (*models.User, error) {
	coll := s.coll()
	if coll == nil {
		return nil, ErrUnavailable
	}

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var u models.User
	err = coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db: find by id: %w", err)
	}
	return &u, nil
}

// Insert creates u, fills in its store-generated id and returns the id in
// hex. A unique-index conflict on email comes back as ErrDuplicateEmail.
func (s *Users) Insert(ctx context.Context, u *models.User) (string, error) {
	coll := s.coll()
	if coll == nil {
		return "", ErrUnavailable
	}

	res, err := coll.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateEmail
		}
		return "", fmt.Errorf("db: insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		u.ID = oid
	}
	return u.ID.Hex(), nil
}
