package optimizer

import (
	"math"

	"github.com/pkg/errors"

	"heapdb/buffer"
	"heapdb/catalog"
	"heapdb/catalog/db_types"
	"heapdb/common"
	"heapdb/disk/structures"
	"heapdb/transaction"
)

var ErrNoHistogram = errors.New("column has no histogram")

// TableStats summarizes one table for the optimizer: its size in pages and tuples and a histogram per integer column.
type TableStats struct {
	numPages      int
	numTuples     int
	ioCostPerPage int
	histograms    map[int]*IntHistogram
}

// ComputeTableStats scans the table twice in its own read only transaction, once to find the range of every
// integer column and once to fill the histograms.
func ComputeTableStats(pool *buffer.BufferPool, file *structures.HeapFile, ioCostPerPage, buckets int) (ts *TableStats, err error) {
	tid := transaction.NewTxnID()
	defer func() {
		if cerr := pool.TransactionComplete(tid, err == nil); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cols := file.GetSchema().GetColumns()
	intCols := make([]int, 0, len(cols))
	for i, col := range cols {
		if col.TypeId.KindID == db_types.IntegerKind {
			intCols = append(intCols, i)
		}
	}

	mins := make(map[int]int, len(intCols))
	maxs := make(map[int]int, len(intCols))
	numTuples := 0
	err = scan(file, tid, func(t *catalog.Tuple) {
		for _, i := range intCols {
			v := int(t.GetValue(i).AsInt())
			if numTuples == 0 || v < mins[i] {
				mins[i] = v
			}
			if numTuples == 0 || v > maxs[i] {
				maxs[i] = v
			}
		}
		numTuples++
	})
	if err != nil {
		return nil, err
	}

	histograms := make(map[int]*IntHistogram, len(intCols))
	for _, i := range intCols {
		histograms[i] = NewIntHistogram(buckets, mins[i], maxs[i])
	}

	err = scan(file, tid, func(t *catalog.Tuple) {
		for _, i := range intCols {
			histograms[i].AddValue(int(t.GetValue(i).AsInt()))
		}
	})
	if err != nil {
		return nil, err
	}

	return &TableStats{
		numPages:      file.NumPages(),
		numTuples:     numTuples,
		ioCostPerPage: ioCostPerPage,
		histograms:    histograms,
	}, nil
}

// EstimateScanCost returns the cost of reading every page of the table once.
func (s *TableStats) EstimateScanCost() float64 {
	return float64(s.numPages) * float64(s.ioCostPerPage)
}

// EstimateCardinality returns the number of tuples a predicate with the given selectivity is expected to pass.
func (s *TableStats) EstimateCardinality(selectivity float64) int {
	return int(math.Round(float64(s.numTuples) * clamp(selectivity)))
}

func (s *TableStats) TotalTuples() int {
	return s.numTuples
}

// EstimateSelectivity estimates the fraction of tuples for which "column op v" holds. Only integer columns have
// histograms.
func (s *TableStats) EstimateSelectivity(colIdx int, op db_types.CompOp, v *db_types.Value) (float64, error) {
	h, ok := s.histograms[colIdx]
	if !ok {
		return 0, errors.Wrapf(ErrNoHistogram, "column %d", colIdx)
	}
	if v.Kind() != db_types.IntegerKind {
		return 0, errors.Wrapf(common.ErrInvalidState, "cannot compare integer column %d with %v", colIdx, v)
	}

	return h.EstimateSelectivity(op, int(v.AsInt())), nil
}

// AvgSelectivity returns the average equality selectivity of an integer column.
func (s *TableStats) AvgSelectivity(colIdx int) (float64, error) {
	h, ok := s.histograms[colIdx]
	if !ok {
		return 0, errors.Wrapf(ErrNoHistogram, "column %d", colIdx)
	}
	return h.AvgSelectivity(), nil
}

func (s *TableStats) Histogram(colIdx int) (*IntHistogram, bool) {
	h, ok := s.histograms[colIdx]
	return h, ok
}

func scan(file *structures.HeapFile, tid transaction.TxnID, fn func(t *catalog.Tuple)) error {
	it := file.Iterator(tid)
	if err := it.Open(); err != nil {
		return err
	}
	defer it.Close()

	for {
		ok, err := it.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		t, err := it.Next()
		if err != nil {
			return err
		}
		fn(t)
	}
}
