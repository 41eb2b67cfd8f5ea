package persistent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"postboard/storage"
	"postboard/storage/models"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const postsCollection = "posts"

// Post is the document shape of the posts collection.
type Post struct {
	Id        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Author    string             `bson:"author"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
	Tags      []string           `bson:"tags"`
}

func (p *Post) ToModel() models.Post {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Post{
		Id:        p.Id.Hex(),
		Title:     p.Title,
		Content:   p.Content,
		Author:    p.Author,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
		Tags:      tags,
	}
}

type MongoStorage struct {
	client *mongo.Client
	posts  *mongo.Collection
}

func CreateMongoStorage(ctx context.Context, dbUrl, dbName string) (*MongoStorage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(dbUrl))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	posts := client.Database(dbName).Collection(postsCollection)
	if err := ensurePostsIndexes(ctx, posts); err != nil {
		return nil, err
	}
	return &MongoStorage{
		client: client,
		posts:  posts,
	}, nil
}

func (s *MongoStorage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// now is truncated to the millisecond so values read back equal the ones written.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *MongoStorage) ListPage(ctx context.Context, size int, after storage.Cursor) (storage.Page, error) {
	if size < 1 {
		return storage.Page{}, fmt.Errorf("page size %d: %w", size, storage.ReadFailed)
	}
	filter := bson.D{}
	if after != "" {
		cursorAt, cursorId, err := storage.DecodeCursor(after)
		if err != nil {
			return storage.Page{}, err
		}
		cursorMongoId, err := primitive.ObjectIDFromHex(cursorId)
		if err != nil {
			return storage.Page{}, fmt.Errorf("cursor id %s: %w", cursorId, storage.InvalidCursor)
		}
		filter = bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "createdAt", Value: bson.D{{Key: "$lt", Value: cursorAt}}}},
			bson.D{
				{Key: "createdAt", Value: cursorAt},
				{Key: "_id", Value: bson.D{{Key: "$lt", Value: cursorMongoId}}},
			},
		}}}
	}

	opts := options.Find()
	opts.SetSort(listOrder)
	opts.SetLimit(int64(size + 1))

	posts, err := s.find(ctx, filter, opts)
	if err != nil {
		return storage.Page{}, err
	}
	if len(posts) <= size {
		return storage.Page{Posts: posts}, nil
	}
	posts = posts[:size]
	last := posts[size-1]
	return storage.Page{Posts: posts, Next: storage.EncodeCursor(last.CreatedAt, last.Id)}, nil
}

func (s *MongoStorage) ScanAll(ctx context.Context) ([]models.Post, error) {
	opts := options.Find()
	opts.SetSort(listOrder)
	return s.find(ctx, bson.D{}, opts)
}

func (s *MongoStorage) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]models.Post, error) {
	cursor, err := s.posts.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("Failed to find posts: %s", err.Error())
		return nil, fmt.Errorf("failed to find posts: %w", storage.ReadFailed)
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		err := cursor.Close(ctx)
		if err != nil {
			log.Printf("Cursor closing failed: %s", err.Error())
		}
	}(cursor, ctx)

	posts := make([]models.Post, 0)
	for cursor.Next(ctx) {
		var nextPost Post
		if err = cursor.Decode(&nextPost); err != nil {
			log.Printf("Failed to decode post: %s", err.Error())
			return nil, fmt.Errorf("decode error: %w", storage.ReadFailed)
		}
		posts = append(posts, nextPost.ToModel())
	}
	if err := cursor.Err(); err != nil {
		log.Printf("Cursor iteration failed: %s", err.Error())
		return nil, fmt.Errorf("failed to read posts: %w", storage.ReadFailed)
	}
	return posts, nil
}

func (s *MongoStorage) GetPost(ctx context.Context, postId string) (models.Post, error) {
	var result Post
	postMongoId, err := primitive.ObjectIDFromHex(postId)
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to convert provided id to Mongo object id: %w", storage.NotFoundError)
	}
	err = s.posts.FindOne(ctx, bson.M{"_id": postMongoId}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Post{}, fmt.Errorf("no document with id %v: %w", postId, storage.NotFoundError)
		}
		log.Printf("Failed to find post %s: %s", postId, err.Error())
		return models.Post{}, fmt.Errorf("failed to find post %s: %w", postId, storage.ReadFailed)
	}
	return result.ToModel(), nil
}

func (s *MongoStorage) AddPost(ctx context.Context, in models.PostInput) (string, error) {
	createdAt := now()
	post := Post{
		Title:     in.Title,
		Content:   in.Content,
		Author:    models.AnonymousAuthor,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Tags:      in.NormalizedTags(),
	}
	res, err := s.posts.InsertOne(ctx, post)
	if err != nil {
		log.Printf("Failed to insert post: %s", err.Error())
		return "", fmt.Errorf("failed to insert post: %w", storage.WriteFailed)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id %v: %w", res.InsertedID, storage.WriteFailed)
	}
	return id.Hex(), nil
}

func (s *MongoStorage) UpdatePost(ctx context.Context, postId string, in models.PostInput) error {
	postMongoId, err := primitive.ObjectIDFromHex(postId)
	if err != nil {
		return fmt.Errorf("failed to convert provided id to Mongo object id: %w", storage.NotFoundError)
	}
	update := bson.M{
		"$set": bson.M{
			"title":   in.Title,
			"content": in.Content,
			"tags":    in.NormalizedTags(),
		},
		// $max: updatedAt never moves backwards.
		"$max": bson.M{
			"updatedAt": now(),
		},
	}
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": postMongoId}, update)
	if err != nil {
		log.Printf("Failed to update post %s: %s", postId, err.Error())
		return fmt.Errorf("failed to update post %s: %w", postId, storage.WriteFailed)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no document with id %v: %w", postId, storage.NotFoundError)
	}
	return nil
}

func (s *MongoStorage) RemovePost(ctx context.Context, postId string) error {
	postMongoId, err := primitive.ObjectIDFromHex(postId)
	if err != nil {
		return fmt.Errorf("failed to convert provided id to Mongo object id: %w", storage.NotFoundError)
	}
	if _, err := s.posts.DeleteOne(ctx, bson.M{"_id": postMongoId}); err != nil {
		log.Printf("Failed to delete post %s: %s", postId, err.Error())
		return fmt.Errorf("failed to delete post %s: %w", postId, storage.DeleteFailed)
	}
	return nil
}
