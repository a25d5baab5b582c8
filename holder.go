package neoclient

import (
	"context"
	"sync/atomic"
)

// runnerHolder owns the runner of one execution together with the two ways
// of ending it. finish guarantees that only one of them ever runs.
type runnerHolder struct {
	runner   Runner
	commit   func(ctx context.Context) error
	rollback func(ctx context.Context) error
	finished atomic.Bool
}

func noop(context.Context) error { return nil }

// joinedHolder wraps a transaction owned by someone else. Its outcome is
// decided by that owner, so both signals do nothing.
func joinedHolder(tx Transaction) *runnerHolder {
	return &runnerHolder{runner: tx, commit: noop, rollback: noop}
}

// finish commits when failed is false and rolls back otherwise. Only the
// first call has an effect; later calls return nil. The release runs on a
// context detached from ctx's cancellation so that an abandoned execution
// still gets cleaned up.
func (h *runnerHolder) finish(ctx context.Context, failed bool) error {
	if !h.finished.CompareAndSwap(false, true) {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	if failed {
		return h.rollback(ctx)
	}
	return h.commit(ctx)
}
