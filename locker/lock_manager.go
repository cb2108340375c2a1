package locker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"heapdb/common"
	"heapdb/disk/pages"
	"heapdb/metrics"
	"heapdb/transaction"
)

// ErrDeadLock is the cause of an abort when a lock could not be granted before the timeout. Waiting is the only
// deadlock detection there is, so a transaction that merely waited too long is aborted as well.
var ErrDeadLock = errors.New("deadlock detected")

type LockMode int

const (
	SharedLock LockMode = iota
	ExclusiveLock
)

func (m LockMode) String() string {
	if m == ExclusiveLock {
		return "exclusive"
	}
	return "shared"
}

// AbortError is returned when a lock request is abandoned. It matches common.ErrTransactionAborted with errors.Is
// and unwraps to the reason the request was abandoned.
type AbortError struct {
	TxnID  transaction.TxnID
	PageID pages.PageID
	Mode   LockMode
	cause  error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("%v: %v could not get %v lock on page %v: %v",
		common.ErrTransactionAborted, e.TxnID, e.Mode, e.PageID, e.cause)
}

func (e *AbortError) Is(target error) bool {
	return target == common.ErrTransactionAborted
}

func (e *AbortError) Unwrap() error {
	return e.cause
}

type lockState struct {
	owners map[transaction.TxnID]LockMode

	// waitCh is closed and replaced whenever an owner leaves, waking every waiter to retry.
	waitCh chan struct{}
}

// LockManager grants shared and exclusive page locks to transactions. Locks are held until they are released
// explicitly or the transaction completes; a request that cannot be granted within the timeout aborts.
type LockManager struct {
	mu       sync.Mutex
	locks    map[pages.PageID]*lockState
	txnLocks map[transaction.TxnID]map[pages.PageID]LockMode

	timeout time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*LockManager)

func WithLogger(log *zap.Logger) Option {
	return func(lm *LockManager) {
		if log != nil {
			lm.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(lm *LockManager) { lm.metrics = m }
}

func NewLockManager(timeout time.Duration, opts ...Option) *LockManager {
	if timeout <= 0 {
		timeout = common.DefaultLockTimeout
	}

	lm := &LockManager{
		locks:    make(map[pages.PageID]*lockState),
		txnLocks: make(map[transaction.TxnID]map[pages.PageID]LockMode),
		timeout:  timeout,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(lm)
	}
	return lm
}

func (lm *LockManager) AcquireShared(ctx context.Context, tid transaction.TxnID, pid pages.PageID) error {
	return lm.AcquireLock(ctx, tid, pid, SharedLock)
}

func (lm *LockManager) AcquireExclusive(ctx context.Context, tid transaction.TxnID, pid pages.PageID) error {
	return lm.AcquireLock(ctx, tid, pid, ExclusiveLock)
}

// AcquireLock blocks until tid holds a lock on pid that satisfies mode. Holding an exclusive lock satisfies both
// modes. A shared holder asking for exclusive is upgraded in place when it is the only owner, otherwise it gives up
// its shared lock and waits for the exclusive one like any other request.
func (lm *LockManager) AcquireLock(ctx context.Context, tid transaction.TxnID, pid pages.PageID, mode LockMode) error {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		lm.mu.Lock()
		ls := lm.state(pid)
		held, holds := ls.owners[tid]
		if holds && (held == ExclusiveLock || mode == SharedLock) {
			lm.mu.Unlock()
			return nil
		}

		if canAcquire(ls, tid, mode) {
			lm.grant(ls, tid, pid, mode)
			lm.mu.Unlock()
			lm.metrics.LockGranted(mode.String())
			return nil
		}

		if holds && held == SharedLock && mode == ExclusiveLock {
			// another reader is in the way, waiting while holding the shared lock would deadlock two upgraders
			lm.release(tid, pid)
			ls = lm.state(pid)
		}
		wait := ls.waitCh
		lm.mu.Unlock()

		if timer == nil {
			timer = time.NewTimer(lm.timeout)
		}

		select {
		case <-wait:
		case <-timer.C:
			return lm.abort(tid, pid, mode, ErrDeadLock)
		case <-ctx.Done():
			return lm.abort(tid, pid, mode, ctx.Err())
		}
	}
}

// ReleaseLock releases the lock tid holds on pid. It is a no-op if there is none.
func (lm *LockManager) ReleaseLock(tid transaction.TxnID, pid pages.PageID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.release(tid, pid)
}

// ReleaseLocks releases every lock held by tid.
func (lm *LockManager) ReleaseLocks(tid transaction.TxnID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	for pid := range lm.txnLocks[tid] {
		lm.release(tid, pid)
	}
	delete(lm.txnLocks, tid)
}

func (lm *LockManager) HoldsLock(tid transaction.TxnID, pid pages.PageID) bool {
	_, ok := lm.Mode(tid, pid)
	return ok
}

// Mode returns the mode of the lock tid holds on pid.
func (lm *LockManager) Mode(tid transaction.TxnID, pid pages.PageID) (LockMode, bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	mode, ok := lm.txnLocks[tid][pid]
	return mode, ok
}

// IsLocked returns true if any transaction holds a lock on pid.
func (lm *LockManager) IsLocked(pid pages.PageID) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	ls, ok := lm.locks[pid]
	return ok && len(ls.owners) > 0
}

// LockedPages returns the pages tid holds a lock on, ordered by file and page number.
func (lm *LockManager) LockedPages(tid transaction.TxnID) []pages.PageID {
	lm.mu.Lock()
	res := make([]pages.PageID, 0, len(lm.txnLocks[tid]))
	for pid := range lm.txnLocks[tid] {
		res = append(res, pid)
	}
	lm.mu.Unlock()

	sort.Slice(res, func(i, j int) bool {
		if res[i].FileID != res[j].FileID {
			return res[i].FileID < res[j].FileID
		}
		return res[i].PageNo < res[j].PageNo
	})
	return res
}

func (lm *LockManager) abort(tid transaction.TxnID, pid pages.PageID, mode LockMode, cause error) error {
	lm.metrics.LockTimeout()
	lm.log.Debug("lock request abandoned",
		zap.Stringer("txn", tid),
		zap.Stringer("page", pid),
		zap.Stringer("mode", mode),
		zap.Error(cause))

	return &AbortError{TxnID: tid, PageID: pid, Mode: mode, cause: cause}
}

// state returns the lock state of pid, creating it if needed. lm.mu must be held.
func (lm *LockManager) state(pid pages.PageID) *lockState {
	ls, ok := lm.locks[pid]
	if !ok {
		ls = &lockState{
			owners: make(map[transaction.TxnID]LockMode),
			waitCh: make(chan struct{}),
		}
		lm.locks[pid] = ls
	}
	return ls
}

// grant records the lock both on the page and on the transaction. lm.mu must be held.
func (lm *LockManager) grant(ls *lockState, tid transaction.TxnID, pid pages.PageID, mode LockMode) {
	ls.owners[tid] = mode

	held, ok := lm.txnLocks[tid]
	if !ok {
		held = make(map[pages.PageID]LockMode)
		lm.txnLocks[tid] = held
	}
	held[pid] = mode
}

// release must be called with lm.mu held.
func (lm *LockManager) release(tid transaction.TxnID, pid pages.PageID) {
	ls, ok := lm.locks[pid]
	if !ok {
		return
	}
	if _, ok := ls.owners[tid]; !ok {
		return
	}

	delete(ls.owners, tid)
	if held, ok := lm.txnLocks[tid]; ok {
		delete(held, pid)
		if len(held) == 0 {
			delete(lm.txnLocks, tid)
		}
	}

	close(ls.waitCh)
	ls.waitCh = make(chan struct{})
	if len(ls.owners) == 0 {
		delete(lm.locks, pid)
	}
}

// canAcquire returns true if tid can be granted mode on a page without waiting.
func canAcquire(ls *lockState, tid transaction.TxnID, mode LockMode) bool {
	if len(ls.owners) == 0 {
		return true
	}

	if mode == SharedLock {
		for owner, ownerMode := range ls.owners {
			if owner != tid && ownerMode == ExclusiveLock {
				return false
			}
		}
		return true
	}

	// exclusive: only possible when tid is the sole owner, which is the upgrade case
	_, ok := ls.owners[tid]
	return ok && len(ls.owners) == 1
}
