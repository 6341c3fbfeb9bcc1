package utils

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CaseInsensitive is the collation used for case-insensitive name lookups and uniqueness.
var CaseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// CreateUniqueIndex creates a unique index on the specified collection and keys.
// A non-nil collation makes the uniqueness check follow that collation.
func CreateUniqueIndex(ctx context.Context, collection *mongo.Collection, keys interface{}, fieldName string, collation *options.Collation) error {
	opts := options.Index().SetUnique(true)
	if collation != nil {
		opts.SetCollation(collation)
	}

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s already exists", fieldName)
		}
		return fmt.Errorf("failed to create index for %s: %w", fieldName, err)
	}
	return nil
}

// CreateIndex creates a plain secondary index.
func CreateIndex(ctx context.Context, collection *mongo.Collection, keys interface{}) error {
	if _, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys}); err != nil {
		return fmt.Errorf("failed to create index on %s: %w", collection.Name(), err)
	}
	return nil
}

// CreateTTLIndex expires documents once the time stored in field has passed.
func CreateTTLIndex(ctx context.Context, collection *mongo.Collection, field string) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	if _, err := collection.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create ttl index on %s.%s: %w", collection.Name(), field, err)
	}
	return nil
}

// SearchFilter builds the filter shared by the search endpoints: a case-insensitive
// substring match on field ANDed with an optional exact match on active.
func SearchFilter(field, query string, active *bool) bson.M {
	filter := bson.M{}
	if q := strings.TrimSpace(query); q != "" {
		filter[field] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}}
	}
	if active != nil {
		filter["active"] = *active
	}
	return filter
}

// TotalPages is ceil(total/limit).
func TotalPages(total, limit int64) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
