package ei

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shardkeeper/pkg/model"
)

func TestQueuePushPopFIFO(t *testing.T) {
	q := NewQueue(10)
	q.Push(model.ExecutorOnline("exe1"))
	q.Push(model.JobAdded("jobA"))

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, model.EventExecutorOnline, first.Kind)

	second, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, model.EventJobAdded, second.Kind)
}

func TestQueueCoalescesSameEntityEvents(t *testing.T) {
	q := NewQueue(10)
	q.Push(model.ExecutorOnline("exe1"))
	q.Push(model.ExecutorOnline("exe1"))
	q.Push(model.ExecutorOffline("exe2"))

	e, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "exe1", e.Executor)

	e, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, "exe2", e.Executor)

	assertQueueEmpty(t, q)
}

func TestQueueDoesNotCoalesceEntitylessEvents(t *testing.T) {
	q := NewQueue(10)
	q.Push(model.Resync)
	q.Push(model.Resync)

	_, ok := q.Pop()
	require.True(t, ok)
	_, ok = q.Pop()
	require.True(t, ok, "entityless events are never coalesced, both pushes must be observable")
}

func TestQueueDegradesToResyncOnOverflow(t *testing.T) {
	q := NewQueue(2)
	q.Push(model.ExecutorOnline("exe1"))
	q.Push(model.JobAdded("jobA"))
	q.Push(model.JobAdded("jobB")) // over capacity, degrades

	e, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, model.EventResync, e.Kind)
	assertQueueEmpty(t, q)
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewQueue(10)
	done := make(chan model.ShardingEvent, 1)
	go func() {
		e, ok := q.Pop()
		if ok {
			done <- e
		}
	}()

	select {
	case <-done:
		t.Fatal("Pop returned before any event was pushed")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(model.JobAdded("jobA"))

	select {
	case e := <-done:
		assert.Equal(t, "jobA", e.Job)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up after Push")
	}
}

func TestQueueCloseUnblocksPop(t *testing.T) {
	q := NewQueue(10)
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock a pending Pop")
	}
}

func TestQueuePushAfterCloseIsNoOp(t *testing.T) {
	q := NewQueue(10)
	q.Close()
	q.Push(model.JobAdded("jobA"))

	_, ok := q.Pop()
	assert.False(t, ok)
}

func assertQueueEmpty(t *testing.T, q *Queue) {
	t.Helper()
	q.Close()
	_, ok := q.Pop()
	assert.False(t, ok)
}
