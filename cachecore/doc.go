// Package cachecore holds the store contract and shared configuration types used
// by policycache drivers, so helper packages such as cachetest can depend on them
// without importing the root package.
package cachecore
