package optimizer

import (
	"fmt"
	"strings"

	"heapdb/catalog/db_types"
)

// IntHistogram is an equal width histogram over the integers in [min, max]. It is built by AddValue before planning
// and only read afterwards, concurrent estimates are safe once building is done.
type IntHistogram struct {
	buckets []int
	min     int
	max     int
	width   int
	total   int
}

// NewIntHistogram splits [min, max] into buckets buckets of width ceil((max-min+1)/buckets), at least 1.
func NewIntHistogram(buckets, min, max int) *IntHistogram {
	if buckets < 1 {
		buckets = 1
	}
	if max < min {
		max = min
	}

	width := (max - min + buckets) / buckets
	if width < 1 {
		width = 1
	}

	return &IntHistogram{
		buckets: make([]int, buckets),
		min:     min,
		max:     max,
		width:   width,
	}
}

// AddValue counts v. Values outside [min, max] are not counted.
func (h *IntHistogram) AddValue(v int) {
	if v < h.min || v > h.max {
		return
	}
	h.buckets[h.bucket(v)]++
	h.total++
}

// EstimateSelectivity returns the estimated fraction of counted values for which "value op v" holds. Values outside
// [min, max] decide the answer on their own, even before anything is counted.
func (h *IntHistogram) EstimateSelectivity(op db_types.CompOp, v int) float64 {
	switch op {
	case db_types.Equal:
		return h.equal(v)
	case db_types.NotEqual:
		return clamp(1 - h.equal(v))
	case db_types.GreaterThan:
		if v < h.min {
			return 1
		}
		if v >= h.max {
			return 0
		}
		b := h.bucket(v)
		return h.above(b, h.right(b)-v-1)
	case db_types.GreaterThanOrEqual:
		if v <= h.min {
			return 1
		}
		if v > h.max {
			return 0
		}
		b := h.bucket(v)
		return h.above(b, h.right(b)-v)
	case db_types.LessThan:
		if v <= h.min {
			return 0
		}
		if v > h.max {
			return 1
		}
		b := h.bucket(v)
		return h.below(b, v-h.left(b))
	case db_types.LessThanOrEqual:
		if v < h.min {
			return 0
		}
		if v >= h.max {
			return 1
		}
		b := h.bucket(v)
		return h.below(b, v-h.left(b)+1)
	default:
		panic(fmt.Sprintf("unknown comparison: %v", op))
	}
}

// AvgSelectivity is the expected selectivity of an equality predicate with a value drawn from the counted values.
func (h *IntHistogram) AvgSelectivity() float64 {
	if h.total == 0 {
		return 0
	}

	sum := 0.0
	for _, count := range h.buckets {
		sum += float64(count) * float64(count)
	}
	return clamp(sum / (float64(h.width) * float64(h.total) * float64(h.total)))
}

func (h *IntHistogram) Total() int {
	return h.total
}

func (h *IntHistogram) String() string {
	counts := make([]string, len(h.buckets))
	for i, c := range h.buckets {
		counts[i] = fmt.Sprint(c)
	}
	return fmt.Sprintf("IntHistogram(min=%d max=%d width=%d total=%d buckets=[%s])",
		h.min, h.max, h.width, h.total, strings.Join(counts, " "))
}

func (h *IntHistogram) equal(v int) float64 {
	if v < h.min || v > h.max || h.total == 0 {
		return 0
	}
	return clamp(float64(h.buckets[h.bucket(v)]) / (float64(h.width) * float64(h.total)))
}

// above returns the fraction of values in buckets after b plus the given number of values' share of bucket b.
func (h *IntHistogram) above(b, valuesInBucket int) float64 {
	items := 0
	for i := b + 1; i < len(h.buckets); i++ {
		items += h.buckets[i]
	}
	return h.withPartial(items, b, valuesInBucket)
}

// below returns the fraction of values in buckets before b plus the given number of values' share of bucket b.
func (h *IntHistogram) below(b, valuesInBucket int) float64 {
	items := 0
	for i := 0; i < b; i++ {
		items += h.buckets[i]
	}
	return h.withPartial(items, b, valuesInBucket)
}

func (h *IntHistogram) withPartial(items, b, valuesInBucket int) float64 {
	if h.total == 0 {
		return 0
	}
	partial := float64(h.buckets[b]) * float64(valuesInBucket) / float64(h.width)
	return clamp((float64(items) + partial) / float64(h.total))
}

func (h *IntHistogram) bucket(v int) int {
	return (v - h.min) / h.width
}

func (h *IntHistogram) left(b int) int {
	return h.min + b*h.width
}

func (h *IntHistogram) right(b int) int {
	return h.left(b) + h.width
}

func clamp(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
