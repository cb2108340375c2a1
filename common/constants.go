package common

import "time"

const (
	// DefaultPageSize is the size of every page on disk and in the buffer pool unless configured otherwise.
	DefaultPageSize = 4096

	// DefaultPoolPages is the number of pages the buffer pool caches by default.
	DefaultPoolPages = 50

	// DefaultLockTimeout is how long a lock request waits before the requesting transaction is considered
	// deadlocked and must abort.
	DefaultLockTimeout = time.Second

	DefaultHistogramBuckets = 100

	// DefaultIOCostPerPage is the cost the optimizer assigns to reading a single page from disk.
	DefaultIOCostPerPage = 1000
)
