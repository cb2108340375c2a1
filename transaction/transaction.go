package transaction

import (
	"fmt"
	"sync/atomic"
)

// TxnID identifies one transaction. It carries no structure; the only guarantee is that two transactions
// started by the same process never share an id.
type TxnID uint64

// NoTxn is the zero TxnID. It is never allocated and marks clean pages.
const NoTxn TxnID = 0

var txnCounter atomic.Uint64

// NewTxnID allocates a new unique transaction id.
func NewTxnID() TxnID {
	return TxnID(txnCounter.Add(1))
}

func (t TxnID) String() string {
	return fmt.Sprintf("txn-%d", uint64(t))
}

// Permission is the access a transaction requests on a page.
type Permission int

const (
	ReadOnly Permission = iota
	ReadWrite
)

func (p Permission) String() string {
	switch p {
	case ReadOnly:
		return "READ_ONLY"
	case ReadWrite:
		return "READ_WRITE"
	default:
		return fmt.Sprintf("Permission(%d)", int(p))
	}
}
