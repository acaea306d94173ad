// internal/sched/algorithm.go

package sched

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Algorithm is a pluggable run-queue policy. Admit, Evict and PickNext never
// block; implementations guard their own state.
type Algorithm interface {
	// Name returns the short label the algorithm is selected by.
	Name() string

	// Init empties the run-queues. Called once before any other method.
	Init()

	// Admit makes e eligible for selection.
	Admit(e Entity)

	// Evict removes e from eligibility. Evicting an entity that is not
	// queued is a no-op.
	Evict(e Entity)

	// PickNext returns the next entity to dispatch, or false when idle.
	PickNext() (Entity, bool)
}

// ErrUnknownAlgorithm is returned by New for names nothing registered.
var ErrUnknownAlgorithm = errors.New("unknown scheduling algorithm")

// InvariantError reports a broken run-queue invariant. Algorithms panic with
// it and refuse further work; it is never returned as an ordinary error.
type InvariantError struct {
	Algorithm string
	Op        string
	Err       error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: run-queue invariant violated: %v", e.Algorithm, e.Op, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// Factory constructs a fresh algorithm instance.
type Factory func() Algorithm

var registry = struct {
	mu        sync.RWMutex
	factories map[string]Factory
}{factories: map[string]Factory{}}

// Register installs an algorithm factory under name.
func Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("sched: algorithm name is required")
	}
	if factory == nil {
		return fmt.Errorf("sched: factory is required for %s", name)
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.factories[name]; exists {
		return fmt.Errorf("sched: algorithm %s already registered", name)
	}
	registry.factories[name] = factory
	return nil
}

// MustRegister panics if registration fails.
func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}

// New constructs and initialises the algorithm registered under name.
func New(name string) (Algorithm, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[name]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
	algo := factory()
	algo.Init()
	return algo, nil
}

// Names returns the registered algorithm names, sorted.
func Names() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	MustRegister("adv", func() Algorithm { return NewMLFQ() })
	MustRegister("mq", func() Algorithm { return NewMultiQueue() })
	MustRegister("cfs", func() Algorithm { return NewFair() })
}
