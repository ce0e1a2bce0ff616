package cachecore

// BaseConfig contains shared, backend-agnostic driver configuration.
type BaseConfig struct {
	// Prefix namespaces keys on shared backends.
	Prefix string
	// Compression is applied to values before they reach the backend.
	Compression CompressionCodec
	// MaxValueBytes rejects encoded values above this size when > 0.
	MaxValueBytes int
	// EncryptionKey enables AES-GCM at rest when set (16, 24 or 32 bytes).
	EncryptionKey []byte
}
