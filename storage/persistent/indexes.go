package persistent

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// listOrder is newest first, ties broken by _id so cursors never skip or repeat.
var listOrder = bson.D{
	{Key: "createdAt", Value: -1},
	{Key: "_id", Value: -1},
}

func ensurePostsIndexes(ctx context.Context, posts *mongo.Collection) error {
	indexModels := []mongo.IndexModel{
		{
			Keys: listOrder,
		},
	}
	opts := options.CreateIndexes().SetMaxTime(10 * time.Second)

	_, err := posts.Indexes().CreateMany(ctx, indexModels, opts)
	if err != nil {
		return fmt.Errorf("failed to ensure indexes %w", err)
	}
	return nil
}
