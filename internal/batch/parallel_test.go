package batch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestParallelFor_CoversEveryIndexOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, n := range []int{0, 1, 7, 255, 256, 1000, 4097} {
		hits := make([]int, n)
		ParallelFor(n, 64, func(start, end int) {
			for i := start; i < end; i++ {
				hits[i]++
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, h)
			}
		}
	}
}

func TestParallelFor_SerialBelowChunk(t *testing.T) {
	calls := 0
	ParallelFor(10, 64, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)
}

func TestParallelFor_WaitsForEveryRange(t *testing.T) {
	defer goleak.VerifyNone(t)

	saved := Workers
	Workers = 4
	defer func() { Workers = saved }()

	var done atomic.Int64
	ParallelFor(1000, 10, func(start, end int) {
		time.Sleep(time.Millisecond)
		done.Add(int64(end - start))
	})
	assert.Equal(t, int64(1000), done.Load())
}

func TestAllIndices(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3}, AllIndices(4))
	assert.Empty(t, AllIndices(0))
}
