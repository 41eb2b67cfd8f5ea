package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"postboard/handlers"
	"postboard/storage"
	"postboard/storage/in_memory"
	"postboard/storage/persistent"
	"postboard/storage/persistent_cached"
	"postboard/storage/postgres"
	"postboard/storage/remote"
	"postboard/utils"
	"time"
)

type StorageMode string

const (
	InMemory       StorageMode = "inmemory"
	Mongo          StorageMode = "mongo"
	MongoWithCache StorageMode = "cached"
	Postgres       StorageMode = "postgres"
	Remote         StorageMode = "remote"
)

type AppMode string

const (
	ServerMode AppMode = "server"
	BrowseMode AppMode = "browse"
)

// CreateStorage builds the store selected by STORAGE_MODE. The returned func
// releases its connections.
func CreateStorage(ctx context.Context) (storage.Storage, func(), error) {
	storageMode := StorageMode(utils.GetEnvVarWithDefault("STORAGE_MODE", string(InMemory)))
	switch storageMode {
	case InMemory:
		return in_memory.CreateInMemoryStorage(), func() {}, nil
	case Mongo, MongoWithCache:
		mongoUrl := utils.GetEnvVar("MONGO_URL")
		mongoDbName := utils.GetEnvVar("MONGO_DBNAME")
		mongoStorage, err := persistent.CreateMongoStorage(ctx, mongoUrl, mongoDbName)
		if err != nil {
			return nil, nil, err
		}
		closeMongo := func() {
			if err := mongoStorage.Close(context.Background()); err != nil {
				log.Printf("Failed to disconnect from mongo: %s", err.Error())
			}
		}
		if storageMode == Mongo {
			return mongoStorage, closeMongo, nil
		}
		redisUrl, found := os.LookupEnv("REDIS_URL")
		if !found {
			panic("'REDIS_URL' was not specified for 'cached' STORAGE_MODE")
		}
		ttl := time.Duration(utils.GetEnvIntWithDefault("REDIS_TTL_SECONDS", 3600)) * time.Second
		cached := persistent_cached.CreatePersistentStorageCachedWithRedis(mongoStorage, redisUrl, ttl)
		return cached, func() {
			if err := cached.Close(); err != nil {
				log.Printf("Failed to close redis client: %s", err.Error())
			}
			closeMongo()
		}, nil
	case Postgres:
		pgStorage, err := postgres.CreatePostgresStorage(ctx, utils.GetEnvVar("POSTGRES_URL"))
		if err != nil {
			return nil, nil, err
		}
		return pgStorage, pgStorage.Close, nil
	case Remote:
		return remote.CreateClient(utils.GetEnvVar("API_URL")), func() {}, nil
	default:
		panic("Invalid 'STORAGE_MODE'")
	}
}

func CreateServer(s storage.Storage) *http.Server {
	port := utils.GetEnvVarWithDefault("SERVER_PORT", "8080")

	return &http.Server{
		Handler:      handlers.NewRouter(s),
		Addr:         "0.0.0.0:" + port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
}

func main() {
	appMode := utils.GetEnvVarWithDefault("APP_MODE", string(ServerMode))

	ctx := context.Background()
	s, closeStorage, err := CreateStorage(ctx)
	if err != nil {
		log.Fatalf("Failed to create storage: %s", err.Error())
	}
	defer closeStorage()

	switch AppMode(appMode) {
	case ServerMode:
		srv := CreateServer(s)
		log.Printf("Start serving on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("Server stopped: %s", err.Error())
		}
	case BrowseMode:
		if err := Browse(ctx, s, os.Stdin, os.Stdout); err != nil {
			log.Printf("Browser stopped: %s", err.Error())
		}
	default:
		panic("Invalid 'APP_MODE'")
	}
}
