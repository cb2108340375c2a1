// Package db wires the storage components of heapdb into one instance rooted at a data directory.
package db

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"heapdb/buffer"
	"heapdb/catalog"
	"heapdb/common"
	"heapdb/concurrency"
	"heapdb/config"
	"heapdb/disk"
	"heapdb/disk/pages"
	"heapdb/disk/structures"
	"heapdb/execution"
	"heapdb/execution/executors"
	"heapdb/execution/plans"
	"heapdb/locker"
	"heapdb/logger"
	"heapdb/metrics"
	"heapdb/optimizer"
	"heapdb/transaction"
)

var ErrClosed = errors.New("database is closed")

// Table is an open table: its heap file and the page file under it.
type Table struct {
	Name string
	File *structures.HeapFile
	Disk *disk.Manager
}

// DB owns every component of one instance. Nothing in heapdb is global, two DBs in a process share nothing.
type DB struct {
	id       uuid.UUID
	cfg      *config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	catalog *catalog.InMemCatalog
	lm      *locker.LockManager
	pool    *buffer.BufferPool
	tm      *concurrency.TxnManagerImpl

	mu     sync.Mutex
	tables map[string]*Table
	schema *schemaFile
	closed bool
}

// Open creates the data directory if needed and reopens every table listed in it.
func Open(cfg *config.Config) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, errors.Wrapf(common.ErrStorageIO, "create data dir %s: %v", cfg.DataDir, err)
	}

	id := uuid.New()
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("instance", id.String()))

	d := &DB{
		id:      id,
		cfg:     cfg,
		log:     log,
		catalog: catalog.NewCatalog(),
		tables:  make(map[string]*Table),
	}

	if cfg.Metrics.Enabled {
		d.registry = prometheus.NewRegistry()
		if d.metrics, err = metrics.New(d.registry); err != nil {
			return nil, err
		}
	}

	d.lm = locker.NewLockManager(cfg.LockTimeout, locker.WithLogger(log), locker.WithMetrics(d.metrics))
	d.pool = buffer.NewBufferPool(cfg.PoolPages, d.catalog, d.lm, buffer.WithLogger(log), buffer.WithMetrics(d.metrics))
	d.tm = concurrency.NewTxnManager(d.pool, log)

	if d.schema, err = readSchemaFile(d.schemaPath()); err != nil {
		return nil, err
	}
	for _, def := range d.schema.Tables {
		schema, err := def.schema()
		if err != nil {
			d.closeTables()
			return nil, err
		}
		if _, err := d.openTable(def.Name, schema); err != nil {
			d.closeTables()
			return nil, err
		}
	}

	log.Info("database opened",
		zap.String("data_dir", cfg.DataDir),
		zap.Int("page_size", cfg.PageSize),
		zap.Int("pool_pages", cfg.PoolPages),
		zap.Int("tables", len(d.tables)))
	return d, nil
}

func (d *DB) ID() uuid.UUID {
	return d.id
}

func (d *DB) Config() *config.Config {
	return d.cfg
}

func (d *DB) Logger() *zap.Logger {
	return d.log
}

func (d *DB) Pool() *buffer.BufferPool {
	return d.pool
}

func (d *DB) Catalog() catalog.Catalog {
	return d.catalog
}

func (d *DB) Txns() *concurrency.TxnManagerImpl {
	return d.tm
}

func (d *DB) LockManager() *locker.LockManager {
	return d.lm
}

// Registry returns the registry metrics are recorded in, nil when metrics are disabled.
func (d *DB) Registry() *prometheus.Registry {
	return d.registry
}

// CreateTable creates an empty table stored in <data_dir>/<name>.dat.
func (d *DB) CreateTable(name string, schema catalog.Schema) (*Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if err := validTableName(name); err != nil {
		return nil, err
	}
	if _, ok := d.tables[name]; ok {
		return nil, errors.Wrap(catalog.ErrTableExists, name)
	}
	if _, err := os.Stat(d.tablePath(name)); err == nil {
		return nil, errors.Wrapf(catalog.ErrTableExists, "page file of %s exists", name)
	}

	return d.registerTable(name, schema)
}

// RestoreTable creates table name from a stream written by Snapshot. The snapshot's page size must match the
// instance's.
func (d *DB) RestoreTable(name string, schema catalog.Schema, r io.Reader) (*Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if err := validTableName(name); err != nil {
		return nil, err
	}
	if _, ok := d.tables[name]; ok {
		return nil, errors.Wrap(catalog.ErrTableExists, name)
	}

	path := d.tablePath(name)
	pageSize, numPages, err := disk.Restore(r, path)
	if err != nil {
		return nil, err
	}
	if pageSize != d.cfg.PageSize {
		common.Remove(path)
		return nil, errors.Wrapf(common.ErrInvalidState, "snapshot has %d byte pages, instance uses %d", pageSize, d.cfg.PageSize)
	}

	t, err := d.registerTable(name, schema)
	if err != nil {
		common.Remove(path)
		return nil, err
	}
	d.log.Info("table restored", zap.String("table", name), zap.Int("pages", numPages))
	return t, nil
}

// Snapshot writes the committed pages of table name to w. It runs in its own transaction holding a shared lock on
// every page it copies, so it waits for writers of the table to finish and never sees half of a commit. Commit
// flushes, so the file holds exactly the committed state once those locks are granted. A writer that keeps its
// locks past the lock timeout makes Snapshot fail with common.ErrTransactionAborted.
func (d *DB) Snapshot(name string, w io.Writer) (int, error) {
	t, err := d.Table(name)
	if err != nil {
		return 0, err
	}

	var n int
	err = d.tm.Run(func(txn *concurrency.Transaction) error {
		numPages := t.Disk.NumPages()
		for pageNo := 0; pageNo < numPages; pageNo++ {
			pid := pages.PageID{FileID: t.File.GetID(), PageNo: pageNo}
			if err := d.lm.AcquireShared(context.Background(), txn.GetID(), pid); err != nil {
				return err
			}
		}

		var copyErr error
		n, copyErr = disk.SnapshotPages(t.Disk, numPages, w)
		return copyErr
	})
	return n, err
}

func (d *DB) Table(name string) (*Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	t, ok := d.tables[name]
	if !ok {
		return nil, errors.Wrap(catalog.ErrTableNotFound, name)
	}
	return t, nil
}

// Tables returns names of all tables in ascending order.
func (d *DB) Tables() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.tables))
	for name := range d.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats scans table name and builds its statistics.
func (d *DB) Stats(name string) (*optimizer.TableStats, error) {
	t, err := d.Table(name)
	if err != nil {
		return nil, err
	}
	return optimizer.ComputeTableStats(d.pool, t.File, common.DefaultIOCostPerPage, d.cfg.HistogramBuckets)
}

// Execute runs plan in txn and returns every tuple it yields. It neither commits nor aborts txn.
func (d *DB) Execute(txn transaction.TxnID, plan plans.IPlanNode) ([]*catalog.Tuple, error) {
	exec, err := executors.CreateExecutor(execution.NewExecutorContext(txn, d.catalog, d.pool), plan)
	if err != nil {
		return nil, err
	}
	return executors.Drain(exec)
}

// Close aborts running transactions, writes every cached page and closes all page files.
func (d *DB) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	for _, tid := range d.tm.ActiveTransactions() {
		if err := d.tm.AbortByID(tid); err != nil {
			d.log.Warn("failed to abort transaction on close", zap.Stringer("txn", tid), zap.Error(err))
		}
	}

	err := d.pool.FlushAllPages()
	if cerr := d.closeTables(); err == nil {
		err = cerr
	}
	d.log.Info("database closed", zap.Error(err))
	_ = d.log.Sync()
	return err
}

func (d *DB) registerTable(name string, schema catalog.Schema) (*Table, error) {
	t, err := d.openTable(name, schema)
	if err != nil {
		return nil, err
	}

	d.schema.Tables = append(d.schema.Tables, toTableDef(name, schema))
	if err := writeSchemaFile(d.schemaPath(), d.schema); err != nil {
		d.schema.Tables = d.schema.Tables[:len(d.schema.Tables)-1]
		return nil, err
	}
	return t, nil
}

func (d *DB) openTable(name string, schema catalog.Schema) (*Table, error) {
	path := d.tablePath(name)
	dm, created, err := disk.NewDiskManager(path, d.cfg.PageSize, disk.WithLogger(d.log))
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*Table, error) {
		_ = dm.Close()
		if created {
			common.Remove(path)
		}
		return nil, err
	}

	file, err := structures.NewHeapFile(dm, schema, d.pool, d.log)
	if err != nil {
		return fail(err)
	}
	if err := d.catalog.AddTable(file, name); err != nil {
		return fail(err)
	}

	t := &Table{Name: name, File: file, Disk: dm}
	d.tables[name] = t
	return t, nil
}

func (d *DB) closeTables() error {
	var err error
	for _, t := range d.tables {
		if cerr := t.Disk.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// validTableName rejects names that would place the page file outside the data directory.
func validTableName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.Wrapf(ErrInvalidSchema, "bad table name %q", name)
	}
	return nil
}

func (d *DB) tablePath(name string) string {
	return filepath.Join(d.cfg.DataDir, name+".dat")
}

func (d *DB) schemaPath() string {
	return filepath.Join(d.cfg.DataDir, schemaFileName)
}
