package refresh

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/robfig/cron/v3"
	"github.com/samber/mo"
	"go.uber.org/atomic"

	"github.com/KonishchevDmitry/headlined/internal/util"
	"github.com/KonishchevDmitry/headlined/pkg/aggregate"
	"github.com/KonishchevDmitry/headlined/pkg/feed"
)

const DefaultSchedule = "@every 15m"

var ErrStopped = errors.New("the scheduler has stopped")

type State int

const (
	Running State = iota
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Option func(o *options)

type options struct {
	schedule cron.Schedule
	devel    bool
	engine   []aggregate.Option
}

func Schedule(schedule cron.Schedule) Option {
	return func(o *options) {
		o.schedule = schedule
	}
}

// Devel disables periodic refreshes: cycles are run only on demand.
func Devel() Option {
	return func(o *options) {
		o.devel = true
	}
}

func Concurrency(limit int) Option {
	return func(o *options) {
		o.engine = append(o.engine, aggregate.Concurrency(limit))
	}
}

// Scheduler periodically runs refresh cycles and keeps the latest result. When paused, periodic cycles are skipped;
// resuming runs a cycle immediately.
type Scheduler struct {
	metrics
	engine  *aggregate.Engine
	sources []feed.Source
	options options

	force     chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once
	waitGroup sync.WaitGroup
	cycles    atomic.Int64

	lock    util.GuardedLock
	state   State
	result  mo.Option[*aggregate.Result]
	waiters []chan<- *aggregate.Result
}

func New(resolver aggregate.Resolver, sources []feed.Source, opts ...Option) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(DefaultSchedule)
	if err != nil {
		return nil, err
	}

	options := options{schedule: schedule}
	for _, opt := range opts {
		opt(&options)
	}

	if len(sources) == 0 {
		return nil, errors.New("no sources are configured")
	}

	metrics := makeMetrics()
	engine := aggregate.New(resolver, append(options.engine, aggregate.FetchDuration(metrics.fetchDuration))...)

	return &Scheduler{
		metrics: metrics,
		engine:  engine,
		sources: sources,
		options: options,

		force:   make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}, nil
}

// Start starts the daemon which runs the first cycle right away.
func (s *Scheduler) Start(ctx context.Context) {
	s.trigger()
	s.waitGroup.Go(func() {
		s.daemon(ctx)
	})
}

func (s *Scheduler) Stop(ctx context.Context) {
	logging.L(ctx).Infof("Stopping the scheduler...")
	s.stopOnce.Do(func() {
		close(s.stopped)
	})
	s.waitGroup.Wait()
	logging.L(ctx).Infof("The scheduler has stopped.")
}

func (s *Scheduler) State() State {
	lock := s.lock.Lock()
	defer lock.Unlock()
	return s.state
}

// Pause skips periodic cycles until Resume is called. An in-progress cycle is not affected.
func (s *Scheduler) Pause(ctx context.Context) {
	lock := s.lock.Lock()
	defer lock.Unlock()

	if s.state == Paused {
		return
	}

	logging.L(ctx).Infof("Pausing periodic refreshes.")
	s.state = Paused
}

// Resume resumes periodic cycles and runs one immediately.
func (s *Scheduler) Resume(ctx context.Context) {
	lock := s.lock.Lock()
	defer lock.UnlockIfLocked()

	if s.state == Running {
		return
	}

	logging.L(ctx).Infof("Resuming periodic refreshes.")
	s.state = Running
	lock.Unlock()

	s.trigger()
}

// Refresh requests an out-of-schedule cycle.
func (s *Scheduler) Refresh(ctx context.Context) {
	logging.L(ctx).Infof("Refresh is requested.")
	s.trigger()
}

// Cycles returns the number of completed cycles.
func (s *Scheduler) Cycles() int64 {
	return s.cycles.Load()
}

// Get returns the latest result waiting for the first cycle to complete if needed.
func (s *Scheduler) Get(ctx context.Context) (*aggregate.Result, error) {
	lock := s.lock.Lock()
	defer lock.UnlockIfLocked()

	if result, ok := s.result.Get(); ok {
		return result, nil
	}

	waiter := make(chan *aggregate.Result, 1)
	s.waiters = append(s.waiters, waiter)
	lock.Unlock()

	select {
	case result := <-waiter:
		return result, nil

	case <-s.stopped:
		return nil, ErrStopped

	case <-ctx.Done():
		lock.Lock()
		if index := slices.Index(s.waiters, waiter); index != -1 {
			s.waiters = slices.Delete(s.waiters, index, index+1)
		}
		return nil, ctx.Err()
	}
}

func (s *Scheduler) trigger() {
	select {
	case s.force <- struct{}{}:
	default:
	}
}

func (s *Scheduler) daemon(ctx context.Context) {
	updateTimer := time.NewTimer(time.Hour)
	updateTimer.Stop()
	defer updateTimer.Stop()

	for {
		select {
		case <-updateTimer.C:
			if s.State() == Paused {
				logging.L(ctx).Debugf("Skipping the scheduled refresh: the scheduler is paused.")
				continue
			}

		case <-s.force:
			updateTimer.Stop()

		case <-s.stopped:
			return
		}

		s.cycle(ctx)

		if !s.options.devel {
			now := time.Now()
			updateTimer.Reset(s.options.schedule.Next(now).Sub(now))
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	result := s.engine.RunCycle(ctx, s.sources)
	s.metrics.observe(result)
	s.cycles.Inc()

	lock := s.lock.Lock()
	s.result = mo.Some(result)
	waiters := s.waiters
	s.waiters = nil
	lock.Unlock()

	for _, waiter := range waiters {
		waiter <- result
	}
}
