package locker

import "context"

// AdvisoryLocker runs fn only if the lock for key is free. It reports false
// without calling fn when another holder has it. Lock and unlock happen on
// the same session, which session-level advisory locks require.
type AdvisoryLocker interface {
	TryWithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) (bool, error)
}
