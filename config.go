package policycache

import (
	"os"
	"path/filepath"

	"github.com/goforj/policycache/cachecore"
)

const (
	defaultCachePrefix  = "app"
	defaultDynamoTable  = "policycache_records"
	defaultDynamoRegion = "us-east-1"
)

func defaultFileDir() string {
	return filepath.Join(os.TempDir(), "policycache-file")
}

// StoreConfig controls how a Store is constructed.
type StoreConfig struct {
	cachecore.BaseConfig

	Driver Driver

	// FileDir controls where the file driver writes records.
	FileDir string

	// RedisClient is required when DriverRedis is used.
	RedisClient RedisClient

	// NATSKeyValue is required when DriverNATS is used.
	NATSKeyValue NATSKeyValue

	// DynamoClient overrides the client built from DynamoRegion/DynamoEndpoint.
	DynamoClient   DynamoAPI
	DynamoRegion   string
	DynamoEndpoint string
	DynamoTable    string

	// SQLDriverName selects the database/sql driver: sqlite, pgx or mysql.
	SQLDriverName string
	SQLDSN        string
	SQLTable      string
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.Prefix == "" {
		c.Prefix = defaultCachePrefix
	}
	if c.Compression == "" {
		c.Compression = CompressionNone
	}
	if c.FileDir == "" {
		c.FileDir = defaultFileDir()
	}
	if c.DynamoTable == "" {
		c.DynamoTable = defaultDynamoTable
	}
	if c.DynamoRegion == "" {
		c.DynamoRegion = defaultDynamoRegion
	}
	if c.SQLTable == "" {
		c.SQLTable = defaultSQLTable
	}
	return c
}
