package types

// Cache is a thread-safe key-value store with optional expiration, used for
// runtime shared data such as streamed sequence assets.
type Cache interface {
	// Set stores a value. ttl is a duration string such as "10m"; an empty
	// ttl means the item never expires. Returns an error on a bad ttl.
	Set(key string, value interface{}, ttl string) error
	// Get returns the stored value, or nil if absent or expired.
	Get(key string) interface{}
	// Has reports whether key exists and has not expired.
	Has(key string) bool
	// Delete removes an item.
	Delete(key string) error
	// DeleteByPrefix removes every item whose key has the given prefix.
	DeleteByPrefix(prefix string) error
}
