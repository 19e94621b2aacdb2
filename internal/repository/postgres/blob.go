package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/rehablink/physio-api/internal/repository"
)

type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type blobStore struct {
	db *sqlx.DB
}

// NewBlobStore connects to Postgres and ensures the collections table
// exists. Each collection lives in a single row, overwritten on every save.
func NewBlobStore(cfg Config) (repository.BlobStore, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to ensure collections table: %w", err)
	}

	return &blobStore{db: db}, nil
}

func (s *blobStore) Save(ctx context.Context, collection string, blob []byte) error {
	query := `
		INSERT INTO collections (name, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET data = $2, updated_at = $3
	`
	if _, err := s.db.ExecContext(ctx, query, collection, blob, time.Now()); err != nil {
		return fmt.Errorf("failed to save collection %s: %w", collection, err)
	}
	return nil
}

func (s *blobStore) Load(ctx context.Context, collection string) ([]byte, error) {
	query := `SELECT data FROM collections WHERE name = $1`

	var blob []byte
	err := s.db.GetContext(ctx, &blob, query, collection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoBlob
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collection %s: %w", collection, err)
	}
	return blob, nil
}

func (s *blobStore) Close() error {
	return s.db.Close()
}
