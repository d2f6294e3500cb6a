package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ntuclms/lms-client/internal/core/domain"
)

const stateCollection = "client_state"

// TokenStore keeps the session token as a single document keyed by the
// configured token key.
type TokenStore struct {
	coll *mongo.Collection
	key  string
}

func NewTokenStore(db *mongo.Database, key string) *TokenStore {
	return &TokenStore{coll: db.Collection(stateCollection), key: key}
}

type stateDoc struct {
	Key       string `bson:"_id"`
	Value     string `bson:"value"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (s *TokenStore) Load(ctx context.Context) (string, error) {
	var doc stateDoc
	if err := s.coll.FindOne(ctx, s.filter()).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.ErrTokenNotFound
		}
		return "", fmt.Errorf("find token: %w", err)
	}
	if doc.Value == "" {
		return "", domain.ErrTokenNotFound
	}
	return doc.Value, nil
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	doc := stateDoc{Key: s.key, Value: token, UpdatedAt: time.Now().UTC().Unix()}
	_, err := s.coll.ReplaceOne(ctx, s.filter(), doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

func (s *TokenStore) Delete(ctx context.Context) error {
	if _, err := s.coll.DeleteOne(ctx, s.filter()); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (s *TokenStore) filter() bson.M {
	return bson.M{"_id": s.key}
}
