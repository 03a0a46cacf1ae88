package memo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"sumcache/config"
	"sumcache/internal/storage"
)

// StoreResult holds the initialized record store and the storage connection it owns, if any.
type StoreResult struct {
	Store   Store
	Storage storage.Storage
}

// Close releases resources held by the record store.
func (r *StoreResult) Close() error {
	var errs []error
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store close: %w", err))
		}
	}
	if r.Storage != nil {
		if err := r.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}

// Ping checks the backing storage. Memory stores are always reachable.
func (r *StoreResult) Ping(ctx context.Context) error {
	if r.Storage == nil {
		return nil
	}
	return r.Storage.Ping(ctx)
}

// NewStore creates a record store from app configuration.
func NewStore(ctx context.Context, cfg *config.Config) (*StoreResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Storage.Type == config.StorageMemory {
		return &StoreResult{Store: NewMemoryStore()}, nil
	}

	st, err := storage.New(ctx, buildStorageConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	store, err := createStore(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &StoreResult{
		Store:   store,
		Storage: st,
	}, nil
}

// NewStoreWithSharedStorage creates a record store on a connection owned by the caller.
// Close on the result leaves the shared connection open.
func NewStoreWithSharedStorage(ctx context.Context, shared storage.Storage) (*StoreResult, error) {
	if shared == nil {
		return nil, fmt.Errorf("shared storage is required")
	}
	store, err := createStore(ctx, shared)
	if err != nil {
		return nil, err
	}
	return &StoreResult{
		Store: store,
	}, nil
}

func buildStorageConfig(cfg *config.Config) storage.Config {
	storageCfg := storage.Config{
		Type: cfg.Storage.Type,
		SQLite: storage.SQLiteConfig{
			Path: cfg.Storage.SQLite.Path,
		},
		PostgreSQL: storage.PostgreSQLConfig{
			URL:      cfg.Storage.PostgreSQL.URL,
			MaxConns: cfg.Storage.PostgreSQL.MaxConns,
		},
		MongoDB: storage.MongoDBConfig{
			URL:      cfg.Storage.MongoDB.URL,
			Database: cfg.Storage.MongoDB.Database,
		},
	}

	if storageCfg.Type == "" {
		storageCfg.Type = storage.TypeSQLite
	}
	if storageCfg.SQLite.Path == "" {
		storageCfg.SQLite.Path = storage.DefaultSQLitePath
	}
	if storageCfg.MongoDB.Database == "" {
		storageCfg.MongoDB.Database = "sumcache"
	}
	return storageCfg
}

func createStore(ctx context.Context, st storage.Storage) (Store, error) {
	switch st.Type() {
	case storage.TypeSQLite:
		return NewSQLiteStore(st.SQLiteDB())
	case storage.TypePostgreSQL:
		pool := st.PostgreSQLPool()
		if pool == nil {
			return nil, fmt.Errorf("PostgreSQL pool is nil")
		}
		pgxPool, ok := pool.(*pgxpool.Pool)
		if !ok {
			return nil, fmt.Errorf("invalid PostgreSQL pool type: %T", pool)
		}
		return NewPostgreSQLStore(ctx, pgxPool)
	case storage.TypeMongoDB:
		db := st.MongoDatabase()
		if db == nil {
			return nil, fmt.Errorf("MongoDB database is nil")
		}
		mongoDB, ok := db.(*mongo.Database)
		if !ok {
			return nil, fmt.Errorf("invalid MongoDB database type: %T", db)
		}
		return NewMongoDBStore(mongoDB)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", st.Type())
	}
}
