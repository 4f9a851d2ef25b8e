package database

import (
	"context"
	"fmt"
)

const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type StoreOptions struct {
	Kind        string
	DataDir     string
	SQLitePath  string
	RedisURL    string
	RedisPrefix string
}

// NewRepository opens the seen-entry backend selected by opts.Kind.
func NewRepository(ctx context.Context, opts StoreOptions) (SeenRepository, error) {
	var (
		repo SeenRepository
		err  error
	)

	switch opts.Kind {
	case StoreFile, "":
		repo, err = NewFileRepository(opts.DataDir)
	case StoreSQLite:
		repo, err = NewSQLiteRepository(opts.SQLitePath)
	case StoreRedis:
		repo, err = NewRedisRepository(ctx, opts.RedisURL, opts.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown store %q", opts.Kind)
	}
	if err != nil {
		return nil, err
	}

	return repo, nil
}
