package domain

// Hasher is the core port for any hashing strategy. The speech
// adapters use it to key synthesized-audio caches.
type Hasher interface {
	Hash(data []byte) string
}
