package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunQueueSet_FIFO(t *testing.T) {
	rq := NewRunQueueSet()
	for id := EntityID(1); id <= 3; id++ {
		require.NoError(t, rq.Push(ClassNormal, newEntity(id, ClassNormal)))
	}
	assert.Equal(t, 3, rq.Len(ClassNormal))

	for id := EntityID(1); id <= 3; id++ {
		e, err := rq.PopFront(ClassNormal)
		require.NoError(t, err)
		assert.Equal(t, id, e.ID())
	}
	assert.Equal(t, 0, rq.Total())
	require.NoError(t, rq.Check())
}

func TestRunQueueSet_PushMovesExisting(t *testing.T) {
	rq := NewRunQueueSet()
	a := newEntity(1, ClassRealtime)
	require.NoError(t, rq.Push(ClassDaemon, a))
	require.NoError(t, rq.Push(ClassRealtime, a))

	assert.Equal(t, 0, rq.Len(ClassDaemon))
	assert.Equal(t, 1, rq.Len(ClassRealtime))
	c, ok := rq.Lookup(a.ID())
	require.True(t, ok)
	assert.Equal(t, ClassRealtime, c)
	require.NoError(t, rq.Check())
}

func TestRunQueueSet_RemoveByIdentity(t *testing.T) {
	rq := NewRunQueueSet()
	a, b, c := newEntity(1, ClassNormal), newEntity(2, ClassNormal), newEntity(3, ClassNormal)
	require.NoError(t, rq.Push(ClassNormal, a))
	require.NoError(t, rq.Push(ClassNormal, b))
	require.NoError(t, rq.Push(ClassNormal, c))

	got, ok, err := rq.Remove(b.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, b, got)

	_, ok, err = rq.Remove(b.ID())
	require.NoError(t, err)
	assert.False(t, ok, "second remove is a no-op")

	assert.Equal(t, [NumClasses][]EntityID{{}, {}, {1, 3}, {}}, rq.Snapshot())
	require.NoError(t, rq.Check())
}

func TestRunQueueSet_RemoveUnlinkedIndexEntry(t *testing.T) {
	rq := NewRunQueueSet()
	a := newEntity(1, ClassNormal)
	require.NoError(t, rq.Push(ClassNormal, a))

	// unlink behind the index's back
	rq.queues[ClassNormal].Remove(rq.index[a.ID()].elem)
	require.Error(t, rq.Check())

	_, ok, err := rq.Remove(a.ID())
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Error(t, rq.Push(ClassRealtime, a))
}

func TestRunQueueSet_PopFrontEmpty(t *testing.T) {
	rq := NewRunQueueSet()
	_, err := rq.PopFront(ClassRealtime)
	assert.Error(t, err)
}

func TestRunQueueSet_PopFrontUnindexed(t *testing.T) {
	rq := NewRunQueueSet()
	rq.queues[ClassInteractive].PushBack(newEntity(9, ClassInteractive))

	_, err := rq.PopFront(ClassInteractive)
	assert.Error(t, err)
	assert.Error(t, rq.Check())
}

func TestRunQueueSet_Reset(t *testing.T) {
	rq := NewRunQueueSet()
	require.NoError(t, rq.Push(ClassRealtime, newEntity(1, ClassRealtime)))
	require.NoError(t, rq.Push(ClassDaemon, newEntity(2, ClassDaemon)))
	rq.Reset()

	assert.Equal(t, 0, rq.Total())
	_, ok := rq.Lookup(1)
	assert.False(t, ok)
}
