// internal/sched/scheduler.go

package sched

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mlfq/internal/job"
)

// ErrDuplicateTask is returned by Add for an ID the host already owns.
var ErrDuplicateTask = errors.New("task already exists")

// Inspector is implemented by algorithms that can report their queues.
type Inspector interface {
	Snapshot() [NumClasses][]EntityID
}

// Scheduler is the host side of scheduling: it owns the tasks and the tick
// clock, drives an Algorithm on every scheduling event, runs the chosen task
// for one slice and streams state changes.
type Scheduler struct {
	// Scheduler-related
	mu           sync.Mutex // protects the host state below
	runID        uuid.UUID
	algo         Algorithm
	tick         time.Duration
	sliceTicks   int64 // number of ticks a task runs before it is preempted
	wakeTicks    int64 // number of ticks a blocked task sleeps
	exitWhenIdle bool
	clock        *TickClock
	tasks        map[EntityID]*Task // tasks the host owns, queued or not
	sleepers     *binaryheap.Heap   // blocked tasks ordered by wake tick
	ranTotals    map[EntityID]int64 // cumulative ticks per task
	err          error              // set when the algorithm halted

	statusCh  chan StatusEvent
	emitMu    sync.RWMutex
	closed    bool
	backlogMu sync.Mutex
	started   bool          // Run has started consuming statusCh
	backlog   []StatusEvent // events emitted before Run

	// logging-related
	log       *zap.Logger
	metrics   *Metrics
	csvFile   *os.File
	csvWriter *csv.Writer
}

type sleeper struct {
	wakeAt int64
	task   *Task
}

// NewScheduler creates a host for algo with the given configuration.
// A nil logger disables logging.
func NewScheduler(cfg Config, algo Algorithm, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.New()

	return &Scheduler{
		runID:        runID,
		algo:         algo,
		tick:         time.Duration(cfg.TickMS) * time.Millisecond,
		sliceTicks:   int64(cfg.SliceTicks),
		wakeTicks:    int64(cfg.WakeTicks),
		exitWhenIdle: cfg.ExitWhenIdle,
		clock:        NewTickClock(256), // buffer size for tick events
		tasks:        make(map[EntityID]*Task),
		sleepers:     binaryheap.NewWith(sleeperCmp),
		ranTotals:    make(map[EntityID]int64),
		statusCh:     make(chan StatusEvent, 256), // buffered channel for status events
		log: log.With(
			zap.String("run_id", runID.String()),
			zap.String("algorithm", algo.Name()),
		),
	}
}

// EnableCSVLogging opens the given file path for CSV logging of events.
// Must be called before Run().
func (s *Scheduler) EnableCSVLogging(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)

	// write header
	w.Write([]string{"run_id", "timestamp", "tick", "event", "task_id", "class", "ran_ticks", "runtime_ms"})
	w.Flush()
	s.csvFile = f
	s.csvWriter = w
	return nil
}

// EnableMetrics makes the scheduler update m as it runs.
// Must be called before Run().
func (s *Scheduler) EnableMetrics(m *Metrics) {
	s.metrics = m
}

// RunID identifies this scheduler instance in logs and CSV rows.
func (s *Scheduler) RunID() uuid.UUID { return s.runID }

// Run drives the scheduling loop until ctx is done, or until every task has
// finished when ExitWhenIdle is set. It returns the invariant error if the
// algorithm halted.
func (s *Scheduler) Run(ctx context.Context) error {
	s.clock.Start(s.tick)

	// events from Add calls made before Run go out first
	s.backlogMu.Lock()
	s.started = true
	backlog := s.backlog
	s.backlog = nil
	s.backlogMu.Unlock()
	for _, ev := range backlog {
		s.handleEvent(ev)
	}

	// start loop
	go s.loop(ctx)

	// consume events
	for ev := range s.statusCh {
		s.handleEvent(ev)
	}

	if s.csvFile != nil {
		s.csvWriter.Flush()
		s.csvFile.Close()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Add hands a task to the host and admits it to the algorithm.
func (s *Scheduler) Add(t *Task) error {
	s.mu.Lock()
	if _, dup := s.tasks[t.ID()]; dup {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrDuplicateTask, t.ID())
	}
	s.tasks[t.ID()] = t
	s.ranTotals[t.ID()] = 0
	s.mu.Unlock()

	if err := s.guard(func() { s.algo.Admit(t) }); err != nil {
		return err
	}
	s.emit(s.event(StatusAdmit, t, 0))
	return nil
}

// Stats returns the cumulative ticks every task has run for.
func (s *Scheduler) Stats() map[EntityID]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[EntityID]int64, len(s.ranTotals))
	for id, n := range s.ranTotals {
		out[id] = n
	}
	return out
}

// Pending returns the number of tasks that have not finished yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// loop runs the main dispatch loop, which is responsible for selecting the next task
func (s *Scheduler) loop(ctx context.Context) {
	defer func() {
		// stop the underlying clock to release its goroutine
		s.clock.Stop()
		s.closeEvents()
	}()

	idle := false
	for {
		// 1) check shutdown
		if ctx.Err() != nil {
			return
		}

		// 2) blocked tasks whose wake tick has passed become runnable again
		if err := s.wakeSleepers(); err != nil {
			s.fail(err)
			return
		}

		// 3) scheduling event
		var next Entity
		var ok bool
		if err := s.guard(func() { next, ok = s.algo.PickNext() }); err != nil {
			s.fail(err)
			return
		}
		s.observeDepths()

		// 4) idle case: nothing runnable, still drive one tick
		if !ok {
			if s.exitWhenIdle && s.drained() {
				return
			}
			if !idle {
				idle = true
				s.emit(StatusEvent{Time: time.Now(), Kind: StatusIdle})
			}
			select {
			case <-ctx.Done():
				return
			case _, open := <-s.clock.Ch:
				if !open {
					return
				}
			}
			s.emit(StatusEvent{Time: time.Now(), Kind: StatusTick})
			continue
		}
		idle = false

		s.mu.Lock()
		t, known := s.tasks[next.ID()]
		s.mu.Unlock()
		if !known {
			// the algorithm still references a task the host has dropped
			s.log.Warn("evicting unknown entity", zap.Uint64("task", uint64(next.ID())))
			if err := s.guard(func() { s.algo.Evict(next) }); err != nil {
				s.fail(err)
				return
			}
			continue
		}

		// 5) run one slice
		s.emit(s.event(StatusDispatch, t, 0))
		ranTicks, err := s.runSlice(ctx, t)
		t.account(time.Duration(ranTicks) * s.tick)

		s.mu.Lock()
		s.ranTotals[t.ID()] += ranTicks
		s.mu.Unlock()

		// 6) finish, block or leave the task where the algorithm put it
		kind := StatusPreempt
		switch {
		case errors.Is(err, job.ErrBlocked):
			kind = StatusBlock
			if gerr := s.guard(func() { s.algo.Evict(t) }); gerr != nil {
				s.fail(gerr)
				return
			}
			s.mu.Lock()
			s.sleepers.Push(sleeper{wakeAt: s.clock.Count() + s.wakeTicks, task: t})
			s.mu.Unlock()
		case err == nil || !(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
			kind = StatusFinish
			if err != nil {
				s.log.Warn("task failed", zap.Uint64("task", uint64(t.ID())), zap.Error(err))
			}
			if gerr := s.guard(func() { s.algo.Evict(t) }); gerr != nil {
				s.fail(gerr)
				return
			}
			s.mu.Lock()
			delete(s.tasks, t.ID())
			s.mu.Unlock()
		}

		// 7) emit final event
		s.emit(s.event(kind, t, ranTicks))
	}
}

// runSlice runs t until it returns or sliceTicks ticks have passed and
// reports how many ticks it ran.
func (s *Scheduler) runSlice(ctx context.Context, t *Task) (int64, error) {
	startTick := s.clock.Count()
	runCtx, cancel := context.WithCancel(ctx)
	watchDone := make(chan struct{})

	// watcher: cancel the dispatched context(task) after sliceTicks
	go func() {
		defer close(watchDone)
		defer cancel()
		for i := int64(0); i < s.sliceTicks; i++ {
			select {
			case <-runCtx.Done():
				return
			case _, open := <-s.clock.Ch:
				if !open {
					return
				}
				s.emit(StatusEvent{Time: time.Now(), Kind: StatusTick})
			}
		}
	}()

	// While the watcher above is running, we can run the dispatched task.
	err := t.Run(runCtx)
	cancel()
	<-watchDone

	// how many ticks did we really run?
	ranTicks := s.clock.Count() - startTick
	if ranTicks <= 0 {
		ranTicks = 1
	}
	return ranTicks, err
}

func (s *Scheduler) wakeSleepers() error {
	now := s.clock.Count()
	for {
		s.mu.Lock()
		v, ok := s.sleepers.Peek()
		if !ok || v.(sleeper).wakeAt > now {
			s.mu.Unlock()
			return nil
		}
		s.sleepers.Pop()
		s.mu.Unlock()

		t := v.(sleeper).task
		if err := s.guard(func() { s.algo.Admit(t) }); err != nil {
			return err
		}
		s.emit(s.event(StatusWake, t, 0))
	}
}

func (s *Scheduler) drained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks) == 0 && s.sleepers.Empty()
}

// guard runs fn and turns an algorithm's invariant panic into an error.
func (s *Scheduler) guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InvariantError)
			if !ok {
				panic(r)
			}
			err = ie
		}
	}()
	fn()
	return nil
}

func (s *Scheduler) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()

	s.log.Error("scheduling halted", zap.Error(err))
	s.emit(StatusEvent{Time: time.Now(), Kind: StatusHalt})
}

func (s *Scheduler) observeDepths() {
	if s.metrics == nil {
		return
	}
	if in, ok := s.algo.(Inspector); ok {
		s.metrics.setDepths(in.Snapshot())
	}
}

func (s *Scheduler) event(kind StatusKind, t *Task, ranTicks int64) StatusEvent {
	return StatusEvent{
		Time:     time.Now(),
		Kind:     kind,
		TaskID:   t.ID(),
		Class:    t.Class(),
		Runtime:  t.CPURuntime(),
		RanTicks: ranTicks,
	}
}

func (s *Scheduler) emit(ev StatusEvent) {
	// nothing drains statusCh until Run, so hold events back instead
	s.backlogMu.Lock()
	if !s.started {
		s.backlog = append(s.backlog, ev)
		s.backlogMu.Unlock()
		return
	}
	s.backlogMu.Unlock()

	s.emitMu.RLock()
	defer s.emitMu.RUnlock()
	if s.closed {
		return
	}
	s.statusCh <- ev
}

func (s *Scheduler) closeEvents() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.closed = true
	close(s.statusCh)
}

func (s *Scheduler) handleEvent(ev StatusEvent) {
	s.metrics.observe(ev)

	// ticks occur periodically, keep them out of the normal output
	if ev.Kind == StatusTick {
		s.log.Debug("tick", zap.Int64("tick", s.clock.Count()))
		return
	}

	if ev.Kind == StatusIdle || ev.Kind == StatusHalt {
		s.log.Info(ev.Kind.String(), zap.Int64("tick", s.clock.Count()))
		s.writeCSV(ev)
		return
	}

	s.mu.Lock()
	total := s.ranTotals[ev.TaskID]
	s.mu.Unlock()

	s.log.Info(ev.Kind.String(),
		zap.Int64("tick", s.clock.Count()),
		zap.Uint64("task", uint64(ev.TaskID)),
		zap.Stringer("class", ev.Class),
		zap.Int64("ran_ticks", ev.RanTicks),
		zap.Int64("ran_total", total),
		zap.Duration("runtime", ev.Runtime),
	)

	s.writeCSV(ev)
}

// writeCSV appends ev to the CSV log, if one is enabled.
func (s *Scheduler) writeCSV(ev StatusEvent) {
	if s.csvWriter != nil {
		rec := []string{
			s.runID.String(),
			ev.Time.Format(time.RFC3339Nano),
			strconv.FormatInt(s.clock.Count(), 10),
			ev.Kind.String(),
			strconv.FormatUint(uint64(ev.TaskID), 10),
			ev.Class.String(),
			strconv.FormatInt(ev.RanTicks, 10),
			strconv.FormatInt(ev.Runtime.Milliseconds(), 10),
		}
		s.csvWriter.Write(rec)
		s.csvWriter.Flush()
	}
}

// sleeperCmp orders blocked tasks by wake tick, then task ID.
func sleeperCmp(a, b any) int {
	sa, sb := a.(sleeper), b.(sleeper)
	switch {
	case sa.wakeAt < sb.wakeAt:
		return -1
	case sa.wakeAt > sb.wakeAt:
		return 1
	case sa.task.ID() < sb.task.ID():
		return -1
	case sa.task.ID() > sb.task.ID():
		return 1
	default:
		return 0
	}
}
