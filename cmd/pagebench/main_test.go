package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPct(t *testing.T) {
	var vs []time.Duration
	for i := 100; i >= 1; i-- {
		vs = append(vs, time.Duration(i)*time.Millisecond)
	}
	assert.Equal(t, 50*time.Millisecond, pct(vs, 0.50))
	assert.Equal(t, 95*time.Millisecond, pct(vs, 0.95))
	assert.Equal(t, 99*time.Millisecond, pct(vs, 0.99))
	assert.Equal(t, time.Duration(0), pct(nil, 0.5))
	// 输入不被排序
	assert.Equal(t, 100*time.Millisecond, vs[0])
}

func TestAvg(t *testing.T) {
	assert.Equal(t, 2*time.Second, avg([]time.Duration{time.Second, 3 * time.Second}))
	assert.Equal(t, time.Duration(0), avg(nil))
}

func TestEnvDepths(t *testing.T) {
	t.Setenv("DEPTHS", "0, 10,x,-1,200")
	assert.Equal(t, []int{0, 10, 200}, envDepths([]int{1}))

	t.Setenv("DEPTHS", "")
	assert.Equal(t, []int{1}, envDepths([]int{1}))
}

func TestMeasure(t *testing.T) {
	calls := 0
	recs, n, err := measure(context.Background(), func(_ context.Context, skip, take int) (int, error) {
		calls++
		return take, nil
	}, 0, 7, 3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.Equal(t, 7, n)
	assert.Equal(t, 3, calls)

	_, _, err = measure(context.Background(), func(context.Context, int, int) (int, error) {
		return 0, errors.New("boom")
	}, 0, 1, 3)
	assert.EqualError(t, err, "boom")
}
