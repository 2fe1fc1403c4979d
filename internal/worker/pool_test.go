package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poorfish/maptoposter/internal/pipeline"
)

// mockGenerator simulates poster generation for testing
type mockGenerator struct {
	delay     time.Duration
	fail      map[string]bool // cities that fail
	degraded  map[string]bool // cities whose refinement fails
	callCount atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32
}

func (m *mockGenerator) Generate(ctx context.Context, job pipeline.Job) (*pipeline.Output, error) {
	m.callCount.Add(1)
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		cur := m.maxActive.Load()
		if n <= cur || m.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(m.delay):
	}

	if m.fail[job.City] {
		return nil, errors.New("simulated failure")
	}
	status := pipeline.StatusComplete
	if m.degraded[job.City] {
		status = pipeline.StatusDegraded
	}
	return &pipeline.Output{Status: status, Paths: []string{"/tmp/" + job.City + ".svg"}}, nil
}

func tasks(cities ...string) []Task {
	out := make([]Task, len(cities))
	for i, c := range cities {
		out[i] = Task{Name: c, Job: pipeline.Job{City: c}}
	}
	return out
}

func TestPool_BasicExecution(t *testing.T) {
	gen := &mockGenerator{delay: 10 * time.Millisecond}
	pool := New(Config{Workers: 2, Generator: gen})

	input := tasks("paris", "tokyo", "lima")
	results := pool.Run(context.Background(), input)

	require.Len(t, results, len(input))
	for i, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, input[i].Name, r.Task.Name, "results keep task order")
		require.NotNil(t, r.Output)
		assert.NotEmpty(t, r.Output.Paths)
	}
	assert.Equal(t, int32(len(input)), gen.callCount.Load())
}

func TestPool_Parallelism(t *testing.T) {
	gen := &mockGenerator{delay: 30 * time.Millisecond}
	pool := New(Config{Workers: 3, Generator: gen})

	pool.Run(context.Background(), tasks("a", "b", "c", "d", "e", "f"))

	assert.LessOrEqual(t, gen.maxActive.Load(), int32(3))
	assert.Greater(t, gen.maxActive.Load(), int32(1))
}

func TestPool_ErrorsAndDegraded(t *testing.T) {
	gen := &mockGenerator{
		fail:     map[string]bool{"b": true},
		degraded: map[string]bool{"c": true},
	}
	pool := New(Config{Workers: 2, Generator: gen})

	results := pool.Run(context.Background(), tasks("a", "b", "c"))
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.False(t, results[0].Degraded())
	assert.Error(t, results[1].Err)
	assert.False(t, results[1].Degraded())
	assert.NoError(t, results[2].Err)
	assert.True(t, results[2].Degraded())
}

func TestPool_Cancellation(t *testing.T) {
	gen := &mockGenerator{delay: time.Second}
	pool := New(Config{Workers: 1, Generator: gen})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	results := pool.Run(ctx, tasks("a", "b", "c"))

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.DeadlineExceeded)
	}
	assert.Equal(t, int32(1), gen.callCount.Load(), "queued tasks are not started after cancellation")
}

func TestPool_ProgressCallback(t *testing.T) {
	gen := &mockGenerator{fail: map[string]bool{"b": true}}

	var (
		mu    sync.Mutex
		calls [][3]int
	)
	pool := New(Config{
		Workers:   2,
		Generator: gen,
		OnProgress: func(completed, total, failed int) {
			mu.Lock()
			calls = append(calls, [3]int{completed, total, failed})
			mu.Unlock()
		},
	})

	pool.Run(context.Background(), tasks("a", "b", "c", "d"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 4)
	last := calls[len(calls)-1]
	assert.Equal(t, [3]int{4, 4, 1}, last)
	for i, c := range calls {
		assert.Equal(t, i+1, c[0])
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	pool := New(Config{Workers: 2, Generator: &mockGenerator{}})
	assert.Nil(t, pool.Run(context.Background(), nil))
}

func TestPool_DefaultsToOneWorker(t *testing.T) {
	pool := New(Config{Generator: &mockGenerator{}})
	assert.Equal(t, 1, pool.workers)
}
