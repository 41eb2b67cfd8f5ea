// Package postgres keeps posts in a single PostgreSQL table. The schema is
// applied with goose from the embedded migrations on startup.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"log"
	"postboard/storage"
	"postboard/storage/models"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const postColumns = `id::text, title, content, author, created_at, updated_at, tags`

type PostgresStorage struct {
	pool *pgxpool.Pool
}

func CreatePostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStorage{pool: pool}, nil
}

func migrate(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Close() {
	s.pool.Close()
}

// now is truncated to the microsecond, the resolution of timestamptz.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func scanPosts(rows pgx.Rows) ([]models.Post, error) {
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.Id, &p.Title, &p.Content, &p.Author, &p.CreatedAt, &p.UpdatedAt, &p.Tags); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		p.UpdatedAt = p.UpdatedAt.UTC()
		if p.Tags == nil {
			p.Tags = []string{}
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *PostgresStorage) ListPage(ctx context.Context, size int, after storage.Cursor) (storage.Page, error) {
	if size < 1 {
		return storage.Page{}, fmt.Errorf("page size %d: %w", size, storage.ReadFailed)
	}
	var (
		rows pgx.Rows
		err  error
	)
	if after == "" {
		rows, err = s.pool.Query(ctx,
			`SELECT `+postColumns+` FROM posts ORDER BY created_at DESC, id DESC LIMIT $1`,
			size+1)
	} else {
		cursorAt, cursorId, decodeErr := storage.DecodeCursor(after)
		if decodeErr != nil {
			return storage.Page{}, decodeErr
		}
		if _, parseErr := uuid.Parse(cursorId); parseErr != nil {
			return storage.Page{}, fmt.Errorf("cursor id %s: %w", cursorId, storage.InvalidCursor)
		}
		rows, err = s.pool.Query(ctx,
			`SELECT `+postColumns+` FROM posts
			WHERE (created_at, id) < ($1, $2::uuid)
			ORDER BY created_at DESC, id DESC LIMIT $3`,
			cursorAt, cursorId, size+1)
	}
	if err != nil {
		log.Printf("Failed to list posts: %s", err.Error())
		return storage.Page{}, fmt.Errorf("failed to list posts: %w", storage.ReadFailed)
	}
	posts, err := scanPosts(rows)
	if err != nil {
		log.Printf("Failed to read posts: %s", err.Error())
		return storage.Page{}, fmt.Errorf("failed to read posts: %w", storage.ReadFailed)
	}
	if len(posts) <= size {
		return storage.Page{Posts: posts}, nil
	}
	posts = posts[:size]
	last := posts[size-1]
	return storage.Page{Posts: posts, Next: storage.EncodeCursor(last.CreatedAt, last.Id)}, nil
}

func (s *PostgresStorage) ScanAll(ctx context.Context) ([]models.Post, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+postColumns+` FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		log.Printf("Failed to scan posts: %s", err.Error())
		return nil, fmt.Errorf("failed to scan posts: %w", storage.ReadFailed)
	}
	posts, err := scanPosts(rows)
	if err != nil {
		log.Printf("Failed to read posts: %s", err.Error())
		return nil, fmt.Errorf("failed to read posts: %w", storage.ReadFailed)
	}
	return posts, nil
}

func (s *PostgresStorage) GetPost(ctx context.Context, postId string) (models.Post, error) {
	if _, err := uuid.Parse(postId); err != nil {
		return models.Post{}, fmt.Errorf("malformed post id %s: %w", postId, storage.NotFoundError)
	}
	rows, err := s.pool.Query(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1::uuid`, postId)
	if err != nil {
		log.Printf("Failed to find post %s: %s", postId, err.Error())
		return models.Post{}, fmt.Errorf("failed to find post %s: %w", postId, storage.ReadFailed)
	}
	posts, err := scanPosts(rows)
	if err != nil {
		log.Printf("Failed to read post %s: %s", postId, err.Error())
		return models.Post{}, fmt.Errorf("failed to read post %s: %w", postId, storage.ReadFailed)
	}
	if len(posts) == 0 {
		return models.Post{}, fmt.Errorf("no row with id %v: %w", postId, storage.NotFoundError)
	}
	return posts[0], nil
}

func (s *PostgresStorage) AddPost(ctx context.Context, in models.PostInput) (string, error) {
	id := uuid.New().String()
	createdAt := now()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO posts (id, title, content, author, created_at, updated_at, tags)
		VALUES ($1::uuid, $2, $3, $4, $5, $5, $6)`,
		id, in.Title, in.Content, models.AnonymousAuthor, createdAt, in.NormalizedTags())
	if err != nil {
		log.Printf("Failed to insert post: %s", err.Error())
		return "", fmt.Errorf("failed to insert post: %w", storage.WriteFailed)
	}
	return id, nil
}

func (s *PostgresStorage) UpdatePost(ctx context.Context, postId string, in models.PostInput) error {
	if _, err := uuid.Parse(postId); err != nil {
		return fmt.Errorf("malformed post id %s: %w", postId, storage.NotFoundError)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE posts SET title = $2, content = $3, tags = $4, updated_at = GREATEST(updated_at, $5)
		WHERE id = $1::uuid`,
		postId, in.Title, in.Content, in.NormalizedTags(), now())
	if err != nil {
		log.Printf("Failed to update post %s: %s", postId, err.Error())
		return fmt.Errorf("failed to update post %s: %w", postId, storage.WriteFailed)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no row with id %v: %w", postId, storage.NotFoundError)
	}
	return nil
}

func (s *PostgresStorage) RemovePost(ctx context.Context, postId string) error {
	if _, err := uuid.Parse(postId); err != nil {
		return fmt.Errorf("malformed post id %s: %w", postId, storage.NotFoundError)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1::uuid`, postId); err != nil {
		log.Printf("Failed to delete post %s: %s", postId, err.Error())
		return fmt.Errorf("failed to delete post %s: %w", postId, storage.DeleteFailed)
	}
	return nil
}

// Truncate removes every post. Used by tests to start from an empty table.
func (s *PostgresStorage) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE posts`)
	return err
}
