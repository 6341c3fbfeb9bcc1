package repositories

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

func findNewestFirst() *options.FindOptions {
	return options.Find().SetSort(newestFirst)
}

// joinParent appends the stages that attach {_id, name} of the referenced parent
// document as field `as`. Documents whose parent is gone are dropped.
func joinParent(pipeline mongo.Pipeline, from, localField, as string, fields ...string) mongo.Pipeline {
	project := bson.D{}
	for _, f := range fields {
		project = append(project, bson.E{Key: f, Value: 1})
	}
	project = append(project, bson.E{Key: as, Value: bson.D{
		{Key: "_id", Value: "$" + as + "._id"},
		{Key: "name", Value: "$" + as + ".name"},
	}})

	return append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "localField", Value: localField},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: as},
		}}},
		bson.D{{Key: "$unwind", Value: "$" + as}},
		bson.D{{Key: "$project", Value: project}},
	)
}

func matchSorted(filter bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: newestFirst}},
	}
}

// facetPage splits the joined stream into a total count and one page of data,
// so both are computed over the same documents.
func facetPage(pipeline mongo.Pipeline, page, limit int64) mongo.Pipeline {
	return append(pipeline, bson.D{{Key: "$facet", Value: bson.D{
		{Key: "total", Value: bson.A{bson.D{{Key: "$count", Value: "count"}}}},
		{Key: "data", Value: bson.A{
			bson.D{{Key: "$skip", Value: pageSkip(page, limit)}},
			bson.D{{Key: "$limit", Value: limit}},
		}},
	}}})
}

// pageSkip is (page-1)*limit, saturating at MaxInt64 so far-out pages stay empty instead of wrapping negative.
func pageSkip(page, limit int64) int64 {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return (page - 1) * limit
}

type facetResult[T any] struct {
	Total []struct {
		Count int64 `bson:"count"`
	} `bson:"total"`
	Data []T `bson:"data"`
}

func (f facetResult[T]) count() int64 {
	if len(f.Total) == 0 {
		return 0
	}
	return f.Total[0].Count
}

func updateReturningAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// IndexEnsurer is implemented by stores that own Mongo indexes.
type IndexEnsurer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates the indexes of every store that owns some.
func EnsureIndexes(ctx context.Context, stores ...interface{}) error {
	for _, s := range stores {
		if e, ok := s.(IndexEnsurer); ok {
			if err := e.EnsureIndexes(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
