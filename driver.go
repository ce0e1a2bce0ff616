package policycache

import "github.com/goforj/policycache/cachecore"

// Driver identifies a store backend.
type Driver = cachecore.Driver

// Store is the byte-level persistence contract behind StoreStorage.
type Store = cachecore.Store

const (
	DriverNull   = cachecore.DriverNull
	DriverFile   = cachecore.DriverFile
	DriverMemory = cachecore.DriverMemory
	DriverDynamo = cachecore.DriverDynamo
	DriverSQL    = cachecore.DriverSQL
	DriverRedis  = cachecore.DriverRedis
	DriverNATS   = cachecore.DriverNATS
)
