package disk

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"heapdb/common"
)

// IDiskManager reads and writes fixed size pages of a single file. Page k occupies bytes
// [k*pageSize, (k+1)*pageSize), there is no file header.
type IDiskManager interface {
	ReadPage(pageNo int) ([]byte, error)
	WritePage(pageNo int, data []byte) error
	NumPages() int
	PageSize() int
	Sync() error
	Close() error
	Path() string
}

var _ IDiskManager = &Manager{}

type Manager struct {
	file     *os.File
	filename string
	pageSize int
	// numPages is the file length in pages. It is taken from the file at open and grown by WritePage, so it never
	// depends on a later stat.
	numPages int

	// flushInstantly makes every write fsync the file. When it is false data might be lost after a successful
	// write if power is lost before the os flushes its buffers.
	flushInstantly bool

	mu  sync.Mutex
	log *zap.Logger
}

type ManagerOption func(*Manager)

func WithFsync(fsync bool) ManagerOption {
	return func(m *Manager) { m.flushInstantly = fsync }
}

func WithLogger(log *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewDiskManager opens the page file at path, creating it if it does not exist. The returned bool is true when the
// file is newly created.
func NewDiskManager(path string, pageSize int, opts ...ManagerOption) (*Manager, bool, error) {
	if pageSize <= 0 {
		return nil, false, errors.Wrapf(common.ErrInvalidState, "page size must be positive, got %d", pageSize)
	}

	d := &Manager{filename: path, pageSize: pageSize, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, false, errors.Wrapf(common.ErrStorageIO, "open %s: %v", path, err)
	}

	stats, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, false, errors.Wrapf(common.ErrStorageIO, "stat %s: %v", path, err)
	}

	d.file = f
	d.numPages = int(stats.Size() / int64(pageSize))
	d.log.Debug("page file opened", zap.String("path", path), zap.Int64("size", stats.Size()))
	return d, stats.Size() == 0, nil
}

func (d *Manager) ReadPage(pageNo int) ([]byte, error) {
	if pageNo < 0 {
		return nil, errors.Wrapf(common.ErrInvalidState, "negative page number %d", pageNo)
	}

	data := make([]byte, d.pageSize)
	n, err := d.file.ReadAt(data, int64(pageNo)*int64(d.pageSize))
	if err != nil && !(err == io.EOF && n == d.pageSize) {
		if err == io.EOF {
			return nil, errors.Wrapf(common.ErrStorageIO, "short read of page %d in %s: got %d bytes", pageNo, d.filename, n)
		}
		return nil, errors.Wrapf(common.ErrStorageIO, "read page %d in %s: %v", pageNo, d.filename, err)
	}

	return data, nil
}

// WritePage overwrites page pageNo. Writing past the end of the file extends it.
func (d *Manager) WritePage(pageNo int, data []byte) error {
	if len(data) != d.pageSize {
		return errors.Wrapf(common.ErrInvalidState, "page data is %d bytes, page size is %d", len(data), d.pageSize)
	}
	if pageNo < 0 {
		return errors.Wrapf(common.ErrInvalidState, "negative page number %d", pageNo)
	}

	// WriteAt is safe for concurrent use but extending the file and syncing are serialized to keep NumPages
	// monotonic for readers.
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.file.WriteAt(data, int64(pageNo)*int64(d.pageSize)); err != nil {
		return errors.Wrapf(common.ErrStorageIO, "write page %d in %s: %v", pageNo, d.filename, err)
	}
	if pageNo >= d.numPages {
		d.numPages = pageNo + 1
	}

	if d.flushInstantly {
		if err := d.file.Sync(); err != nil {
			return errors.Wrapf(common.ErrStorageIO, "sync %s: %v", d.filename, err)
		}
	}

	return nil
}

// NumPages returns the number of whole pages in the file.
func (d *Manager) NumPages() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.numPages
}

func (d *Manager) PageSize() int {
	return d.pageSize
}

func (d *Manager) Path() string {
	return d.filename
}

func (d *Manager) Sync() error {
	if err := d.file.Sync(); err != nil {
		return errors.Wrapf(common.ErrStorageIO, "sync %s: %v", d.filename, err)
	}
	return nil
}

func (d *Manager) Close() error {
	if err := d.file.Close(); err != nil {
		return errors.Wrapf(common.ErrStorageIO, "close %s: %v", d.filename, err)
	}
	return nil
}
