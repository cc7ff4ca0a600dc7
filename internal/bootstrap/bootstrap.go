// Package bootstrap builds the process-wide dependencies chosen by config.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ahmethakanbesel/jobmanager/internal/config"
	"github.com/ahmethakanbesel/jobmanager/internal/job"
	"github.com/ahmethakanbesel/jobmanager/internal/platform/mongo"
	"github.com/ahmethakanbesel/jobmanager/internal/platform/redis"
	"github.com/ahmethakanbesel/jobmanager/internal/platform/sqlite"
	jobrepo "github.com/ahmethakanbesel/jobmanager/internal/repository/job"
)

// BackendInMemory is the name reported for the in-process store.
const BackendInMemory = "in-memory"

// InitLogger installs the default slog logger.
func InitLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Backend is the job store selected for this process.
type Backend struct {
	Store job.Store
	// Name is reported by the health endpoint.
	Name  string
	close func() error
}

// Close releases the backend's connection, if any.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenStore returns the in-memory store unless the document store toggle is
// set. A document store that cannot be reached is logged and replaced by the
// in-memory store, so the process always starts.
func OpenStore(ctx context.Context, cfg config.Config) *Backend {
	if !cfg.DocumentStore {
		return memoryBackend()
	}

	b, err := openDocumentStore(ctx, cfg)
	if err != nil {
		slog.Error("document store unavailable, falling back to in-memory store",
			"driver", cfg.Driver, "error", err)
		return memoryBackend()
	}
	slog.Info("using document store", "driver", cfg.Driver)
	return b
}

func memoryBackend() *Backend {
	return &Backend{Store: jobrepo.NewMemoryStore(), Name: BackendInMemory}
}

func openDocumentStore(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		client, err := mongo.Open(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		col := client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)
		return &Backend{
			Store: jobrepo.NewMongoStore(col),
			Name:  string(config.DriverMongo),
			close: func() error { return client.Disconnect(context.Background()) },
		}, nil

	case config.DriverRedis:
		client, err := redis.Open(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store: jobrepo.NewRedisStore(client, cfg.Redis.Prefix),
			Name:  string(config.DriverRedis),
			close: client.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Store: jobrepo.NewRepository(db.DB),
			Name:  string(config.DriverSQLite),
			close: db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown document store driver %q", cfg.Driver)
	}
}
