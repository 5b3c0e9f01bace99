package localstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/ordinaryYT/jacweb1/pkg/database"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
	"github.com/ordinaryYT/jacweb1/pkg/redis"
)

// Open builds a backend from a DSN:
//
//	memory://
//	file://<path>
//	sqlite://<path>
//	redis://... | rediss://...
//	postgres://... | postgresql://...
//
// An empty DSN is memory://.
func Open(ctx context.Context, dsn string, logger logging.Logger) (Backend, error) {
	dsn = strings.TrimSpace(dsn)
	scheme, rest, ok := strings.Cut(dsn, "://")
	if dsn == "" {
		scheme, ok = "memory", true
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
	}

	log := logger.WithField("backend", strings.ToLower(scheme))
	switch strings.ToLower(scheme) {
	case "memory":
		log.Warn("Using in-memory local store; saved state is lost on exit")
		return NewMemory(), nil
	case "file":
		if rest == "" {
			return nil, fmt.Errorf("%w: file path is required", ErrUnsupportedDSN)
		}
		log.WithField("path", rest).Info("Using file local store")
		return NewFile(rest), nil
	case "sqlite":
		store, err := OpenSQLite(ctx, rest)
		if err != nil {
			return nil, err
		}
		log.WithField("path", rest).Info("Using sqlite local store")
		return store, nil
	case "redis", "rediss":
		client, err := redis.NewClientFromURL(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("Using redis local store")
		return NewRedis(client, DefaultRedisPrefix), nil
	case "postgres", "postgresql":
		cfg := database.DefaultConfig()
		cfg.URL = dsn
		db, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		store := NewSQL(db, DialectPostgres)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("Using postgres local store")
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
	}
}
