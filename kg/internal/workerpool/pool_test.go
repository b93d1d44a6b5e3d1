package workerpool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPreservesOrder(t *testing.T) {
	p := New(4)
	inputs := []int{1, 2, 3, 4, 5}
	results, err := Run(p, inputs, func(in int) (int, error) { return in * in, nil })
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9, 16, 25}, results)
}

func TestRunPropagatesFirstError(t *testing.T) {
	p := New(2)
	inputs := []int{1, 2, 3}
	_, err := Run(p, inputs, func(in int) (int, error) {
		if in == 2 {
			return 0, errors.New("boom")
		}
		return in, nil
	})
	require.Error(t, err)
}

func TestMergeCombinesPerWorkerAccumulators(t *testing.T) {
	p := New(4)
	inputs := []int{1, 2, 3, 4, 5, 6}
	total, err := Merge(p, inputs,
		func() *int { v := 0; return &v },
		func(in int, acc *int) error { *acc += in; return nil },
		func(dst, src *int) { *dst += *src },
	)
	require.NoError(t, err)
	assert.Equal(t, 21, *total)
}
