package cache

import (
	"context"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

// Backend names a cache implementation.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
	BackendMongo Backend = "mongo"
	BackendNone  Backend = "none"
)

// Options select and configure a backend for [Open].
type Options struct {
	Backend Backend
	// Dir is the FileCache directory.
	Dir   string
	Redis RedisOptions
	Mongo MongoOptions
}

// Open creates the configured cache. An empty backend means file.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case BackendFile, "":
		if opts.Dir == "" {
			return nil, ferrors.New(ferrors.ErrCodeInvalidConfig, "file cache requires a directory")
		}
		c, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeCache, err, "open file cache %s", opts.Dir)
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, opts.Redis)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeCache, err, "open redis cache")
		}
		return c, nil
	case BackendMongo:
		c, err := NewMongoCache(ctx, opts.Mongo)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeCache, err, "open mongo cache")
		}
		return c, nil
	case BackendNone:
		return NewNullCache(), nil
	}
	return nil, ferrors.New(ferrors.ErrCodeInvalidConfig, "unknown cache backend %q", opts.Backend)
}
