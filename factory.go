package policycache

import (
	"context"
	"fmt"
)

// NewStore returns a concrete store for the requested driver, wrapped with
// the configured compression, size limit and encryption. Construction
// failures are reported by every call on the returned store.
// @group Constructors
//
// Example: select driver explicitly
//
//	ctx := context.Background()
//	store := policycache.NewStore(ctx, policycache.StoreConfig{
//		Driver: policycache.DriverMemory,
//	})
//	fmt.Println(store.Driver()) // memory
func NewStore(ctx context.Context, cfg StoreConfig) Store {
	cfg = cfg.withDefaults()
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return &errorStore{driver: cfg.Driver, err: err}
	}
	return store
}

func buildStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	var (
		base Store
		err  error
	)
	switch cfg.Driver {
	case DriverMemory:
		base = newMemoryStore()
	case DriverNull:
		base = newNullStore()
	case DriverFile:
		base = newFileStore(cfg.FileDir)
	case DriverRedis:
		if cfg.RedisClient == nil {
			return nil, errRedisUnavailable
		}
		base = newRedisStore(cfg.RedisClient, cfg.Prefix)
	case DriverNATS:
		if cfg.NATSKeyValue == nil {
			return nil, errNATSUnavailable
		}
		base = newNATSStore(cfg.NATSKeyValue, cfg.Prefix)
	case DriverDynamo:
		base, err = newDynamoStore(ctx, cfg)
	case DriverSQL:
		base, err = newSQLStore(cfg)
	default:
		return nil, fmt.Errorf("policycache: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	// Compress before encrypting; ciphertext does not compress.
	sealed, err := newEncryptingStore(base, cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	return newShapingStore(sealed, cfg.Compression, cfg.MaxValueBytes), nil
}

// NewStoreWith builds a store using a driver and a set of functional options.
// @group Constructors
//
// Example: redis store (options)
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
//	store := policycache.NewStoreWith(ctx, policycache.DriverRedis,
//		policycache.WithRedisClient(redisClient),
//		policycache.WithPrefix("app"),
//		policycache.WithCompression(policycache.CompressionSnappy),
//	)
//	fmt.Println(store.Driver()) // redis
func NewStoreWith(ctx context.Context, driver Driver, opts ...StoreOption) Store {
	cfg := StoreConfig{Driver: driver}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	return NewStore(ctx, cfg)
}

// NewMemoryStore is a convenience for an in-process store.
// @group Constructors
func NewMemoryStore(ctx context.Context, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverMemory, opts...)
}

// NewNullStore returns a store that remembers nothing.
// @group Constructors
func NewNullStore(ctx context.Context, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverNull, opts...)
}

// NewFileStore is a convenience for a filesystem-backed store.
// @group Constructors
//
// Example: file helper
//
//	store := policycache.NewFileStore(ctx, "/tmp/my-cache")
//	fmt.Println(store.Driver()) // file
func NewFileStore(ctx context.Context, dir string, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverFile, append([]StoreOption{WithFileDir(dir)}, opts...)...)
}

// NewRedisStore is a convenience for a redis-backed store. Redis client is required.
// @group Constructors
func NewRedisStore(ctx context.Context, client RedisClient, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverRedis, append([]StoreOption{WithRedisClient(client)}, opts...)...)
}

// NewNATSStore is a convenience for a JetStream key-value backed store.
// @group Constructors
func NewNATSStore(ctx context.Context, kv NATSKeyValue, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverNATS, append([]StoreOption{WithNATSKeyValue(kv)}, opts...)...)
}

// NewDynamoStore is a convenience for a DynamoDB-backed store.
// @group Constructors
func NewDynamoStore(ctx context.Context, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverDynamo, opts...)
}

// NewSQLStore is a convenience for a database/sql backed store.
// @group Constructors
//
// Example: sqlite
//
//	store := policycache.NewSQLStore(ctx, "sqlite", "file:cache.db", "")
//	fmt.Println(store.Driver()) // sql
func NewSQLStore(ctx context.Context, driverName, dsn, table string, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverSQL, append([]StoreOption{WithSQL(driverName, dsn, table)}, opts...)...)
}
