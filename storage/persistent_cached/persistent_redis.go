package persistent_cached

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"postboard/storage"
	"postboard/storage/models"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	cacheKeyPrefix  = "post:"
	DefaultCacheTTL = time.Hour
)

func cacheKey(postId string) string {
	return cacheKeyPrefix + postId
}

func saveToCache(ctx context.Context, client *redis.Client, post models.Post, ttl time.Duration) {
	j, err := json.Marshal(post)
	if err != nil {
		log.Printf("Failed to dump post %s for redis: %s", post.Id, err.Error())
		return
	}
	err = client.Set(ctx, cacheKey(post.Id), j, ttl).Err()
	if err != nil {
		log.Printf("Failed to save post to redis: %s", err.Error())
	}
}

func getFromCache(ctx context.Context, client *redis.Client, postId string) (models.Post, bool) {
	val, err := client.Get(ctx, cacheKey(postId)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Failed to get post from redis: %s", err.Error())
		}
		return models.Post{}, false
	}
	var p models.Post
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		log.Printf("Failed to parse cached post %s: %s", postId, err.Error())
		return models.Post{}, false
	}
	return p, true
}

func removeFromCache(ctx context.Context, client *redis.Client, postId string) {
	err := client.Del(ctx, cacheKey(postId)).Err()
	if err != nil {
		log.Printf("Failed to remove post from redis: %s", err.Error())
	}
}

// CreatePersistentStorageCachedWithRedis wraps a store with a read-through
// cache for single-post lookups. Lists and scans always hit the store.
func CreatePersistentStorageCachedWithRedis(persistentStorage storage.Storage, redisUrl string, ttl time.Duration) *PersistentStorageWithCache {
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisUrl,
	})
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &PersistentStorageWithCache{
		client:            redisClient,
		persistentStorage: persistentStorage,
		ttl:               ttl,
	}
}

type PersistentStorageWithCache struct {
	client            *redis.Client
	persistentStorage storage.Storage
	ttl               time.Duration
}

func (s *PersistentStorageWithCache) Close() error {
	return s.client.Close()
}

func (s *PersistentStorageWithCache) ListPage(ctx context.Context, size int, after storage.Cursor) (storage.Page, error) {
	return s.persistentStorage.ListPage(ctx, size, after)
}

func (s *PersistentStorageWithCache) ScanAll(ctx context.Context) ([]models.Post, error) {
	return s.persistentStorage.ScanAll(ctx)
}

func (s *PersistentStorageWithCache) GetPost(ctx context.Context, postId string) (models.Post, error) {
	if p, found := getFromCache(ctx, s.client, postId); found {
		return p, nil
	}
	post, err := s.persistentStorage.GetPost(ctx, postId)
	if err == nil {
		saveToCache(ctx, s.client, post, s.ttl)
	}
	return post, err
}

func (s *PersistentStorageWithCache) AddPost(ctx context.Context, in models.PostInput) (string, error) {
	return s.persistentStorage.AddPost(ctx, in)
}

func (s *PersistentStorageWithCache) UpdatePost(ctx context.Context, postId string, in models.PostInput) error {
	err := s.persistentStorage.UpdatePost(ctx, postId, in)
	if err == nil {
		removeFromCache(ctx, s.client, postId)
	}
	return err
}

func (s *PersistentStorageWithCache) RemovePost(ctx context.Context, postId string) error {
	err := s.persistentStorage.RemovePost(ctx, postId)
	if err == nil {
		removeFromCache(ctx, s.client, postId)
	}
	return err
}
