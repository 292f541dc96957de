package retention

import (
	"context"
	"time"

	"github.com/trackroom/trackroom/internal/application/ports"
)

// RunPruneDeadTokens deletes tokens that have been expired, consumed, or
// revoked for longer than retainDays. Live tokens are never touched, so a
// pruned table still resolves every link that should resolve. Call
// periodically (e.g. daily cron). retainDays 0 = no-op.
func RunPruneDeadTokens(ctx context.Context, store ports.TokenStore, retainDays int) (pruned int64, err error) {
	if retainDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-time.Duration(retainDays) * 24 * time.Hour)
	return store.DeleteDeadBefore(ctx, cutoff)
}
