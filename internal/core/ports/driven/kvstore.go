package driven

import "context"

// KVStore is the persisted key/value store holding the agent's last known state.
type KVStore interface {
	// Get returns the values of the requested keys. Missing keys are absent
	// from the result. With no keys, every entry is returned.
	Get(ctx context.Context, keys ...string) (map[string]string, error)

	// Set writes all entries in one operation.
	Set(ctx context.Context, entries map[string]string) error

	// Remove deletes the given keys. Missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error

	// Clear deletes every entry.
	Clear(ctx context.Context) error
}
