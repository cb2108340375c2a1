package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"heapdb/catalog/db_types"
)

func uniform(buckets, min, max int) *IntHistogram {
	h := NewIntHistogram(buckets, min, max)
	for v := min; v <= max; v++ {
		h.AddValue(v)
	}
	return h
}

func TestIntHistogram_Round_Trip(t *testing.T) {
	h := uniform(10, 0, 99)

	assert.InDelta(t, 0.01, h.EstimateSelectivity(db_types.Equal, 50), 1e-9)
	assert.Equal(t, 0.0, h.EstimateSelectivity(db_types.GreaterThan, 99))
	assert.Equal(t, 0.0, h.EstimateSelectivity(db_types.LessThan, 0))
	assert.Equal(t, 1.0, h.EstimateSelectivity(db_types.GreaterThanOrEqual, 0))
}

func TestIntHistogram_Width(t *testing.T) {
	assert.Equal(t, 10, NewIntHistogram(10, 0, 99).width)
	assert.Equal(t, 11, NewIntHistogram(10, 0, 100).width)
	assert.Equal(t, 1, NewIntHistogram(100, 1, 10).width)
	assert.Equal(t, 1, NewIntHistogram(3, 5, 5).width)
}

func TestIntHistogram_Buckets_Sum_To_Total(t *testing.T) {
	h := NewIntHistogram(7, -20, 33)
	for v := -20; v <= 33; v += 3 {
		h.AddValue(v)
	}
	h.AddValue(100)

	sum := 0
	for _, c := range h.buckets {
		sum += c
	}
	assert.Equal(t, h.Total(), sum)
	assert.Equal(t, 18, sum)
}

func TestIntHistogram_Uniform_Is_Exact(t *testing.T) {
	h := uniform(10, 0, 99)

	for v := 0; v < 100; v++ {
		assert.InDelta(t, float64(99-v)/100, h.EstimateSelectivity(db_types.GreaterThan, v), 1e-9, "> %d", v)
		assert.InDelta(t, float64(100-v)/100, h.EstimateSelectivity(db_types.GreaterThanOrEqual, v), 1e-9, ">= %d", v)
		assert.InDelta(t, float64(v)/100, h.EstimateSelectivity(db_types.LessThan, v), 1e-9, "< %d", v)
		assert.InDelta(t, float64(v+1)/100, h.EstimateSelectivity(db_types.LessThanOrEqual, v), 1e-9, "<= %d", v)
		assert.InDelta(t, 0.99, h.EstimateSelectivity(db_types.NotEqual, v), 1e-9, "<> %d", v)
	}
}

func TestIntHistogram_Out_Of_Range(t *testing.T) {
	h := uniform(10, 0, 99)

	assert.Equal(t, 0.0, h.EstimateSelectivity(db_types.Equal, -1))
	assert.Equal(t, 0.0, h.EstimateSelectivity(db_types.Equal, 100))
	assert.Equal(t, 1.0, h.EstimateSelectivity(db_types.NotEqual, 100))
	assert.Equal(t, 1.0, h.EstimateSelectivity(db_types.GreaterThan, -5))
	assert.Equal(t, 0.0, h.EstimateSelectivity(db_types.GreaterThan, 500))
	assert.Equal(t, 1.0, h.EstimateSelectivity(db_types.LessThan, 500))
	assert.Equal(t, 0.0, h.EstimateSelectivity(db_types.LessThanOrEqual, -5))
}

func TestIntHistogram_Skewed_Stays_In_Unit_Range(t *testing.T) {
	h := NewIntHistogram(3, 0, 8)
	for i := 0; i < 50; i++ {
		h.AddValue(4)
	}
	h.AddValue(0)

	ops := []db_types.CompOp{db_types.Equal, db_types.NotEqual, db_types.LessThan, db_types.LessThanOrEqual,
		db_types.GreaterThan, db_types.GreaterThanOrEqual}
	for _, op := range ops {
		for v := -2; v <= 10; v++ {
			s := h.EstimateSelectivity(op, v)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestIntHistogram_Empty(t *testing.T) {
	h := NewIntHistogram(10, 0, 99)
	assert.Equal(t, 0.0, h.EstimateSelectivity(db_types.Equal, 5))
	assert.Equal(t, 0.0, h.EstimateSelectivity(db_types.GreaterThan, 50))
	assert.Equal(t, 0.0, h.EstimateSelectivity(db_types.LessThanOrEqual, 50))
	assert.Equal(t, 0.0, h.AvgSelectivity())

	// out of range values short-circuit regardless of the counts
	assert.Equal(t, 1.0, h.EstimateSelectivity(db_types.GreaterThan, -1))
	assert.Equal(t, 1.0, h.EstimateSelectivity(db_types.GreaterThanOrEqual, 0))
	assert.Equal(t, 1.0, h.EstimateSelectivity(db_types.LessThan, 100))
	assert.Equal(t, 1.0, h.EstimateSelectivity(db_types.LessThanOrEqual, 99))
	assert.Equal(t, 0.0, h.EstimateSelectivity(db_types.LessThan, 0))
	assert.Equal(t, 0.0, h.EstimateSelectivity(db_types.GreaterThan, 99))
	assert.Equal(t, 1.0, h.EstimateSelectivity(db_types.NotEqual, 5))
	assert.Equal(t, 1.0, h.EstimateSelectivity(db_types.NotEqual, 500))
}

func TestIntHistogram_AvgSelectivity(t *testing.T) {
	h := uniform(10, 0, 99)
	assert.InDelta(t, 0.01, h.AvgSelectivity(), 1e-9)

	single := NewIntHistogram(10, 0, 9)
	for i := 0; i < 20; i++ {
		single.AddValue(3)
	}
	assert.InDelta(t, 1.0, single.AvgSelectivity(), 1e-9)
}

func TestIntHistogram_String(t *testing.T) {
	h := uniform(2, 0, 3)
	assert.Equal(t, "IntHistogram(min=0 max=3 width=2 total=4 buckets=[2 2])", h.String())
}
