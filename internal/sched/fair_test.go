package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFair_LeastRuntimeFirst(t *testing.T) {
	s := NewFair()
	s.Init()
	a := &entity{id: 1, runtime: 30 * time.Millisecond}
	b := &entity{id: 2, runtime: 10 * time.Millisecond}
	c := &entity{id: 3, runtime: 10 * time.Millisecond}
	s.Admit(a)
	s.Admit(b)
	s.Admit(c)

	e, ok := s.PickNext()
	require.True(t, ok)
	assert.Equal(t, EntityID(2), e.ID(), "ties broken by id")
}

func TestFair_RekeysDispatchedEntity(t *testing.T) {
	s := NewFair()
	s.Init()
	a := &entity{id: 1}
	b := &entity{id: 2, runtime: 5 * time.Millisecond}
	s.Admit(a)
	s.Admit(b)

	e, _ := s.PickNext()
	require.Equal(t, a.ID(), e.ID())

	// host accounts the slice a just ran
	a.runtime = 20 * time.Millisecond
	e, _ = s.PickNext()
	assert.Equal(t, b.ID(), e.ID())

	b.runtime = 40 * time.Millisecond
	e, _ = s.PickNext()
	assert.Equal(t, a.ID(), e.ID())
}

func TestFair_EvictAndIdle(t *testing.T) {
	s := NewFair()
	s.Init()
	a := &entity{id: 1, prio: int(ClassDaemon)}
	s.Admit(a)
	assert.Equal(t, []EntityID{1}, s.Snapshot()[ClassDaemon])

	s.PickNext()
	s.Evict(a)
	s.Evict(a)

	_, ok := s.PickNext()
	assert.False(t, ok)
}
