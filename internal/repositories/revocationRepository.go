package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"galleria/internal/database"
	"galleria/internal/utils"
)

// RevocationStore remembers logged-out tokens until they would have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// tokenDigest keeps raw bearer tokens out of storage.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type mongoRevocationStore struct {
	db  database.Service
	now func() time.Time
}

func NewMongoRevocationStore(db database.Service) RevocationStore {
	return &mongoRevocationStore{db: db, now: time.Now}
}

func (s *mongoRevocationStore) collection() *mongo.Collection {
	return s.db.Database().Collection(database.RevokedTokensCollection)
}

// EnsureIndexes lets Mongo drop entries once their token has expired.
func (s *mongoRevocationStore) EnsureIndexes(ctx context.Context) error {
	if err := utils.CreateUniqueIndex(ctx, s.collection(), bson.D{{Key: "token", Value: 1}}, "revoked token", nil); err != nil {
		return err
	}
	return utils.CreateTTLIndex(ctx, s.collection(), "expires_at")
}

func (s *mongoRevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	timer := utils.NewQueryTimer("revoke", "revocation")
	defer timer.Done()

	digest := tokenDigest(token)
	update := bson.M{"$setOnInsert": bson.M{
		"token":      digest,
		"expires_at": expiresAt.UTC(),
		"created_at": s.now().UTC(),
	}}
	_, err := s.collection().UpdateOne(ctx, bson.M{"token": digest}, update, options.Update().SetUpsert(true))
	if err != nil {
		timer.Fail()
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *mongoRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	timer := utils.NewQueryTimer("isRevoked", "revocation")
	defer timer.Done()

	// The TTL monitor runs about once a minute, so expiry is checked here as well.
	filter := bson.M{"token": tokenDigest(token), "expires_at": bson.M{"$gt": s.now().UTC()}}
	count, err := s.collection().CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		timer.Fail()
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return count > 0, nil
}

const revokedKeyPrefix = "revoked:"

type redisRevocationStore struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewRedisRevocationStore(client redis.Cmdable) RevocationStore {
	return &redisRevocationStore{client: client, now: time.Now}
}

func revokedKey(token string) string {
	return revokedKeyPrefix + tokenDigest(token)
}

func (s *redisRevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		// already expired, nothing to remember
		return nil
	}
	if err := s.client.Set(ctx, revokedKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *redisRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}
