package common

import "github.com/pkg/errors"

// Error kinds shared by every component. Callers discriminate them with errors.Is; components wrap them with
// context but never replace them.
var (
	// ErrTransactionAborted means a lock could not be granted in time. The transaction is doomed and its caller
	// must abort it.
	ErrTransactionAborted = errors.New("transaction aborted")

	// ErrCacheExhausted means the buffer pool is full and none of its pages can be evicted.
	ErrCacheExhausted = errors.New("buffer pool exhausted: no evictable page")

	// ErrStorageIO means the underlying file could not be read or written.
	ErrStorageIO = errors.New("storage io failure")

	// ErrInvalidState means an operation was invoked in a state it is not defined for.
	ErrInvalidState = errors.New("invalid state")
)
