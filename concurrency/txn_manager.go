package concurrency

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"heapdb/buffer"
	"heapdb/common"
	"heapdb/transaction"
)

// Transaction is a running transaction handed out by TxnManager.Begin.
type Transaction struct {
	id      transaction.TxnID
	started time.Time
}

func (t *Transaction) GetID() transaction.TxnID {
	return t.id
}

func (t *Transaction) Started() time.Time {
	return t.started
}

// TxnManager keeps track of running transactions.
type TxnManager interface {
	Begin() *Transaction
	Commit(*Transaction) error
	CommitByID(transaction.TxnID) error
	Abort(*Transaction) error
	AbortByID(transaction.TxnID) error

	ActiveTransactions() []transaction.TxnID
}

var _ TxnManager = &TxnManagerImpl{}

type TxnManagerImpl struct {
	actives map[transaction.TxnID]*Transaction
	mut     sync.Mutex
	pool    *buffer.BufferPool
	log     *zap.Logger
}

func NewTxnManager(pool *buffer.BufferPool, log *zap.Logger) *TxnManagerImpl {
	if log == nil {
		log = zap.NewNop()
	}

	return &TxnManagerImpl{
		actives: map[transaction.TxnID]*Transaction{},
		pool:    pool,
		log:     log,
	}
}

func (t *TxnManagerImpl) Begin() *Transaction {
	txn := &Transaction{id: transaction.NewTxnID(), started: time.Now()}

	t.mut.Lock()
	t.actives[txn.id] = txn
	t.mut.Unlock()

	return txn
}

// Commit writes every page the transaction dirtied and releases its locks.
func (t *TxnManagerImpl) Commit(txn *Transaction) error {
	return t.CommitByID(txn.GetID())
}

// Abort drops every page the transaction dirtied and releases its locks.
func (t *TxnManagerImpl) Abort(txn *Transaction) error {
	return t.AbortByID(txn.GetID())
}

func (t *TxnManagerImpl) CommitByID(id transaction.TxnID) error {
	return t.complete(id, true)
}

func (t *TxnManagerImpl) AbortByID(id transaction.TxnID) error {
	return t.complete(id, false)
}

// ActiveTransactions returns ids of running transactions in ascending order.
func (t *TxnManagerImpl) ActiveTransactions() []transaction.TxnID {
	t.mut.Lock()
	res := make([]transaction.TxnID, 0, len(t.actives))
	for id := range t.actives {
		res = append(res, id)
	}
	t.mut.Unlock()

	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Run executes fn in a new transaction. The transaction commits if fn returns nil and aborts otherwise, in which
// case fn's error is returned.
func (t *TxnManagerImpl) Run(fn func(txn *Transaction) error) error {
	txn := t.Begin()
	if err := fn(txn); err != nil {
		if abortErr := t.Abort(txn); abortErr != nil {
			t.log.Error("abort failed", zap.Stringer("txn", txn.GetID()), zap.Error(abortErr))
		}
		return err
	}

	return t.Commit(txn)
}

func (t *TxnManagerImpl) complete(id transaction.TxnID, commit bool) error {
	t.mut.Lock()
	txn, ok := t.actives[id]
	if !ok {
		t.mut.Unlock()
		return errors.Wrapf(common.ErrInvalidState, "%v is not running", id)
	}
	delete(t.actives, id)
	t.mut.Unlock()

	err := t.pool.TransactionComplete(id, commit)
	t.log.Debug("transaction completed",
		zap.Stringer("txn", id),
		zap.Bool("commit", commit),
		zap.Duration("elapsed", time.Since(txn.started)),
		zap.Error(err))
	return err
}
