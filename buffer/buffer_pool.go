package buffer

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"heapdb/catalog"
	"heapdb/common"
	"heapdb/disk/pages"
	"heapdb/locker"
	"heapdb/metrics"
	"heapdb/transaction"
)

// FileResolver maps a table id to the file that stores it. Page ids carry the table id as their file id.
type FileResolver interface {
	GetDbFile(tableID int) (catalog.DbFile, error)
}

type frame struct {
	page pages.Page
}

// BufferPool caches a bounded number of pages and is the only way pages are read or mutated. Every page handed out
// is locked by the requesting transaction first. Dirty pages are never evicted, they reach disk when their
// transaction commits and are dropped when it aborts.
type BufferPool struct {
	poolSize    int
	frames      []frame
	pageMap     map[pages.PageID]int // page id => index of the frame that keeps the page
	emptyFrames []int                // indexes of frames that hold no page
	Replacer    IReplacer

	files FileResolver
	lm    *locker.LockManager

	// lock covers pageMap, frames, emptyFrames and Replacer so that lookup, load and eviction are one step.
	lock sync.Mutex

	log     *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*BufferPool)

func WithLogger(log *zap.Logger) Option {
	return func(b *BufferPool) {
		if log != nil {
			b.log = log
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *BufferPool) { b.metrics = m }
}

func NewBufferPool(poolSize int, files FileResolver, lm *locker.LockManager, opts ...Option) *BufferPool {
	if poolSize < 1 {
		poolSize = common.DefaultPoolPages
	}

	emptyFrames := make([]int, poolSize)
	for i := 0; i < poolSize; i++ {
		emptyFrames[i] = i
	}

	bp := &BufferPool{
		poolSize:    poolSize,
		frames:      make([]frame, poolSize),
		pageMap:     make(map[pages.PageID]int, poolSize),
		emptyFrames: emptyFrames,
		Replacer:    NewLruReplacer(poolSize),
		files:       files,
		lm:          lm,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(bp)
	}
	return bp
}

func (b *BufferPool) GetPage(tid transaction.TxnID, pid pages.PageID, perm transaction.Permission) (pages.Page, error) {
	return b.GetPageContext(context.Background(), tid, pid, perm)
}

// GetPageContext locks pid for tid in the mode perm needs, then returns the resident page, reading it from its file
// if it is not cached. Waiting for the lock ends when the lock timeout elapses or ctx is done and the returned error
// then matches common.ErrTransactionAborted.
func (b *BufferPool) GetPageContext(ctx context.Context, tid transaction.TxnID, pid pages.PageID, perm transaction.Permission) (pages.Page, error) {
	mode := locker.SharedLock
	if perm == transaction.ReadWrite {
		mode = locker.ExclusiveLock
	}

	// never wait for a lock while holding the pool lock, holders would not be able to complete
	if err := b.lm.AcquireLock(ctx, tid, pid, mode); err != nil {
		return nil, err
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	if frameIdx, ok := b.pageMap[pid]; ok {
		b.Replacer.Touch(frameIdx)
		b.metrics.BufferHit()
		return b.frames[frameIdx].page, nil
	}

	b.metrics.BufferMiss()
	file, err := b.files.GetDbFile(pid.FileID)
	if err != nil {
		return nil, err
	}

	frameIdx, err := b.reserveFrame()
	if err != nil {
		return nil, err
	}

	p, err := file.ReadPage(pid)
	if err != nil {
		b.emptyFrames = append(b.emptyFrames, frameIdx)
		return nil, err
	}
	if p.GetID() != pid {
		b.emptyFrames = append(b.emptyFrames, frameIdx)
		return nil, errors.Wrapf(common.ErrInvalidState, "read page %v while asking for %v", p.GetID(), pid)
	}

	b.place(frameIdx, p)
	return p, nil
}

// InsertTuple adds t to the table and keeps the pages it dirtied resident, marked dirty by tid.
func (b *BufferPool) InsertTuple(tid transaction.TxnID, tableID int, t *catalog.Tuple) error {
	file, err := b.files.GetDbFile(tableID)
	if err != nil {
		return err
	}

	dirtied, err := file.InsertTuple(tid, t)
	if err != nil {
		return err
	}

	return b.installDirty(tid, dirtied)
}

// DeleteTuple removes t from the table it was read from. t must carry a record id.
func (b *BufferPool) DeleteTuple(tid transaction.TxnID, t *catalog.Tuple) error {
	if t.Rid == nil {
		return errors.Wrap(common.ErrInvalidState, "cannot delete a tuple without record id")
	}

	file, err := b.files.GetDbFile(t.Rid.PageID.FileID)
	if err != nil {
		return err
	}

	dirtied, err := file.DeleteTuple(tid, t)
	if err != nil {
		return err
	}

	return b.installDirty(tid, dirtied)
}

// TransactionComplete ends tid. On commit every page tid dirtied is written to disk, on abort those pages are
// dropped so the next reader sees the last committed version. When a write fails during commit the pages not yet
// written are dropped as on abort and the error is returned. Locks of tid are released in every case.
func (b *BufferPool) TransactionComplete(tid transaction.TxnID, commit bool) error {
	defer b.lm.ReleaseLocks(tid)

	b.lock.Lock()
	defer b.lock.Unlock()

	if commit {
		err := b.flushPages(tid)
		if err == nil {
			return nil
		}
		// pages left unwritten must not outlive tid's locks
		b.discardDirty(tid)
		b.log.Error("commit failed, dropped unwritten pages", zap.Stringer("txn", tid), zap.Error(err))
		return errors.Wrapf(err, "commit of %v", tid)
	}

	b.discardDirty(tid)
	return nil
}

// DiscardPage drops pid from the cache without writing it.
func (b *BufferPool) DiscardPage(pid pages.PageID) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if frameIdx, ok := b.pageMap[pid]; ok {
		b.discard(pid, frameIdx)
		b.metrics.SetResidentPages(len(b.pageMap))
	}
}

// FlushAllPages writes every dirty page to disk. Pages of running transactions are written as well, so it must not
// be mixed with aborts that are still pending.
func (b *BufferPool) FlushAllPages() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	for _, frameIdx := range b.pageMap {
		p := b.frames[frameIdx].page
		if _, dirty := p.IsDirty(); dirty {
			if err := b.flushPage(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// FlushPages writes the pages dirtied by tid to disk.
func (b *BufferPool) FlushPages(tid transaction.TxnID) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.flushPages(tid)
}

func (b *BufferPool) HoldsLock(tid transaction.TxnID, pid pages.PageID) bool {
	return b.lm.HoldsLock(tid, pid)
}

// UnsafeReleasePage releases the lock tid holds on pid before tid completes, breaking two phase locking. Callers
// use it for pages they only inspected.
func (b *BufferPool) UnsafeReleasePage(tid transaction.TxnID, pid pages.PageID) {
	b.lm.ReleaseLock(tid, pid)
}

// Size returns the number of resident pages.
func (b *BufferPool) Size() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.pageMap)
}

func (b *BufferPool) Capacity() int {
	return b.poolSize
}

func (b *BufferPool) Contains(pid pages.PageID) bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	_, ok := b.pageMap[pid]
	return ok
}

// installDirty marks pages dirty by tid and makes them the resident copy of their ids, replacing any other copy.
func (b *BufferPool) installDirty(tid transaction.TxnID, dirtied []pages.Page) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	for _, p := range dirtied {
		p.MarkDirty(true, tid)

		if frameIdx, ok := b.pageMap[p.GetID()]; ok {
			b.frames[frameIdx].page = p
			b.Replacer.Touch(frameIdx)
			continue
		}

		frameIdx, err := b.reserveFrame()
		if err != nil {
			return err
		}
		b.place(frameIdx, p)
	}
	return nil
}

// reserveFrame returns an empty frame, evicting a page if there is none. b.lock must be held.
func (b *BufferPool) reserveFrame() (int, error) {
	if n := len(b.emptyFrames); n > 0 {
		frameIdx := b.emptyFrames[n-1]
		b.emptyFrames = b.emptyFrames[:n-1]
		return frameIdx, nil
	}

	return b.evictVictim()
}

// evictVictim empties the least recently used frame whose page is clean and not locked by any transaction. Since
// only clean pages qualify nothing is written. b.lock must be held.
func (b *BufferPool) evictVictim() (int, error) {
	frameIdx, err := b.Replacer.ChooseVictim(func(frameIdx int) bool {
		p := b.frames[frameIdx].page
		if _, dirty := p.IsDirty(); dirty {
			return false
		}
		return !b.lm.IsLocked(p.GetID())
	})
	if err != nil {
		return 0, errors.Wrapf(common.ErrCacheExhausted, "all %d pages are dirty or locked", b.poolSize)
	}

	victim := b.frames[frameIdx].page.GetID()
	delete(b.pageMap, victim)
	b.frames[frameIdx].page = nil
	b.metrics.BufferEviction()
	b.log.Debug("evicted page", zap.Stringer("page", victim))
	return frameIdx, nil
}

// place puts p in the reserved frame. b.lock must be held.
func (b *BufferPool) place(frameIdx int, p pages.Page) {
	b.frames[frameIdx].page = p
	b.pageMap[p.GetID()] = frameIdx
	b.Replacer.Touch(frameIdx)
	b.metrics.SetResidentPages(len(b.pageMap))
}

// discard must be called with b.lock held.
func (b *BufferPool) discard(pid pages.PageID, frameIdx int) {
	delete(b.pageMap, pid)
	b.Replacer.Remove(frameIdx)
	b.frames[frameIdx].page = nil
	b.emptyFrames = append(b.emptyFrames, frameIdx)
}

// discardDirty drops every page dirtied by tid. b.lock must be held.
func (b *BufferPool) discardDirty(tid transaction.TxnID) {
	for pid, frameIdx := range b.pageMap {
		if dirtier, dirty := b.frames[frameIdx].page.IsDirty(); dirty && dirtier == tid {
			b.discard(pid, frameIdx)
			b.log.Debug("dropped page", zap.Stringer("txn", tid), zap.Stringer("page", pid))
		}
	}
	b.metrics.SetResidentPages(len(b.pageMap))
}

// flushPages must be called with b.lock held.
func (b *BufferPool) flushPages(tid transaction.TxnID) error {
	for _, frameIdx := range b.pageMap {
		p := b.frames[frameIdx].page
		if dirtier, dirty := p.IsDirty(); dirty && dirtier == tid {
			if err := b.flushPage(p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *BufferPool) flushPage(p pages.Page) error {
	file, err := b.files.GetDbFile(p.GetID().FileID)
	if err != nil {
		return err
	}

	if err := file.WritePage(p); err != nil {
		return err
	}

	p.MarkDirty(false, transaction.NoTxn)
	b.metrics.BufferFlush()
	b.log.Debug("flushed page", zap.Stringer("page", p.GetID()))
	return nil
}
