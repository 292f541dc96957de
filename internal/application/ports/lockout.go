package ports

import "context"

// ResolveLockoutStore tracks failed bearer-token resolutions per caller key
// (e.g. token kind + client IP) and enforces a cooldown after repeated
// failures, damping brute-force guessing of secrets.
type ResolveLockoutStore interface {
	// IsLocked returns true if the key is locked, and the remaining cooldown.
	IsLocked(ctx context.Context, key string) (locked bool, retryAfterSeconds int)
	// RecordFailure records a failed resolution; may lock the key after N failures.
	RecordFailure(ctx context.Context, key string)
	// RecordSuccess clears the failure count for the key.
	RecordSuccess(ctx context.Context, key string)
}
