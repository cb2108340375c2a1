package executors

import (
	"heapdb/catalog"
	"heapdb/execution"
)

// ErrNoTuple is returned by Next when the executor is exhausted.
type ErrNoTuple struct{}

func (e ErrNoTuple) Error() string {
	return "no tuple"
}

type IExecutor interface {
	// Init prepares the executor, and its children, to yield tuples from the start.
	Init() error

	// Next yields next tuple from executor
	Next() (*catalog.Tuple, error)

	GetExecutorCtx() *execution.ExecutorContext

	// GetOutSchema returns the schema of the yielded tuples
	GetOutSchema() catalog.Schema

	Close()
}

type BaseExecutor struct {
	executorCtx *execution.ExecutorContext
}

func (e *BaseExecutor) GetExecutorCtx() *execution.ExecutorContext {
	return e.executorCtx
}
