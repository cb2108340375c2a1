package buffer

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func all(int) bool { return true }

func TestLruReplacerShouldReturnError_When_No_Possible_Victim_Is_Found(t *testing.T) {
	PoolSize := 32
	r := NewLruReplacer(PoolSize)
	for i := 0; i < PoolSize; i++ {
		r.Touch(i)
	}
	v, err := r.ChooseVictim(func(int) bool { return false })
	assert.Equal(t, nilFrame, v)
	assert.True(t, errors.Is(err, ErrNoVictim))
	assert.Equal(t, PoolSize, r.Len())
}

func TestLruReplacer_Chooses_Least_Recently_Used(t *testing.T) {
	r := NewLruReplacer(4)
	r.Touch(0)
	r.Touch(1)
	r.Touch(2)
	r.Touch(0)

	assert.Equal(t, []int{0, 2, 1}, r.order())

	v, err := r.ChooseVictim(all)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = r.ChooseVictim(all)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, r.Len())
}

func TestLruReplacer_Skips_Frames_That_Cannot_Be_Evicted(t *testing.T) {
	r := NewLruReplacer(4)
	for i := 0; i < 4; i++ {
		r.Touch(i)
	}

	v, err := r.ChooseVictim(func(idx int) bool { return idx >= 2 })
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, []int{3, 1, 0}, r.order())
}

func TestLruReplacer_Remove(t *testing.T) {
	r := NewLruReplacer(3)
	r.Touch(0)
	r.Touch(1)
	r.Touch(2)

	r.Remove(1)
	r.Remove(1)
	assert.Equal(t, []int{2, 0}, r.order())

	r.Remove(0)
	r.Remove(2)
	assert.Equal(t, 0, r.Len())
	_, err := r.ChooseVictim(all)
	assert.Error(t, err)

	r.Touch(1)
	assert.Equal(t, []int{1}, r.order())
}
