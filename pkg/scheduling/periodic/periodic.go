package periodic

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	arterrors "github.com/vnykmshr/asyncrt/pkg/common/errors"
	"github.com/vnykmshr/asyncrt/pkg/common/validation"
	"github.com/vnykmshr/asyncrt/pkg/metrics"
	"github.com/vnykmshr/asyncrt/pkg/scheduling/asynctask"
)

var (
	// ErrDuplicateID is returned when an entry with the same id exists.
	ErrDuplicateID = errors.New("entry already exists")

	// ErrNotFound is returned for an unknown entry id.
	ErrNotFound = errors.New("entry not found")
)

// Entry describes a scheduled submission.
type Entry struct {
	ID       string
	NextRun  time.Time
	Interval time.Duration // zero for one-shot and cron entries
	Cron     string
	Runs     int
	Created  time.Time
}

// Config holds planner configuration.
type Config struct {
	// Scheduler receives every submission. Required.
	Scheduler *asynctask.Scheduler

	// Location is used to evaluate cron expressions. Defaults to time.Local.
	Location *time.Location

	// TickInterval is how often due entries are checked (default: 50ms).
	TickInterval time.Duration

	// MaxEntries caps the number of live entries (default: 10000).
	MaxEntries int

	Logger  *slog.Logger
	Metrics *metrics.Registry
}

type entry struct {
	id       string
	item     any
	opts     []asynctask.Option
	runAt    time.Time
	interval time.Duration
	cronExpr string
	schedule cron.Schedule
	runs     int
	created  time.Time
}

// Planner submits work items into an asynctask.Scheduler when they fall due.
// Every submission is fire-and-forget: the handle is released right away and
// the task still runs.
type Planner struct {
	sched        *asynctask.Scheduler
	location     *time.Location
	tickInterval time.Duration
	maxEntries   int
	parser       cron.Parser
	logger       *slog.Logger
	metrics      *metrics.Registry

	mu      sync.RWMutex
	entries map[string]*entry
	done    chan struct{}
	stopped chan struct{}
	running bool
}

// New creates a planner. It does nothing until Start.
func New(config Config) (*Planner, error) {
	if config.Scheduler == nil {
		return nil, arterrors.NewValidationError("periodic", "scheduler", nil, "cannot be nil")
	}

	location := config.Location
	if location == nil {
		location = time.Local
	}
	tickInterval := config.TickInterval
	if tickInterval <= 0 {
		tickInterval = 50 * time.Millisecond
	}
	maxEntries := config.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Planner{
		sched:        config.Scheduler,
		location:     location,
		tickInterval: tickInterval,
		maxEntries:   maxEntries,
		parser:       cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		logger:       logger.With("component", "periodic", "scheduler", config.Scheduler.Name()),
		metrics:      config.Metrics,
		entries:      make(map[string]*entry),
	}, nil
}

// At submits item once at runAt.
func (p *Planner) At(id string, item any, runAt time.Time, opts ...asynctask.Option) error {
	if runAt.IsZero() {
		return arterrors.NewValidationError("periodic", "runAt", runAt, "cannot be zero")
	}
	return p.add(&entry{id: id, item: item, opts: opts, runAt: runAt})
}

// After submits item once after delay.
func (p *Planner) After(id string, item any, delay time.Duration, opts ...asynctask.Option) error {
	return p.At(id, item, time.Now().Add(delay), opts...)
}

// Every submits item now and then every interval.
func (p *Planner) Every(id string, item any, interval time.Duration, opts ...asynctask.Option) error {
	if err := validation.ValidatePositiveDuration("periodic", "interval", interval); err != nil {
		return err
	}
	return p.add(&entry{id: id, item: item, opts: opts, runAt: time.Now(), interval: interval})
}

// Cron submits item on a cron schedule. Both five-field and six-field
// (with seconds) expressions are accepted, as are descriptors like @hourly.
func (p *Planner) Cron(id, expr string, item any, opts ...asynctask.Option) error {
	if err := validation.ValidateNotEmpty("periodic", "expr", expr); err != nil {
		return err
	}
	schedule, err := p.parser.Parse(expr)
	if err != nil {
		return arterrors.NewValidationError("periodic", "expr", expr, err.Error())
	}
	return p.add(&entry{
		id:       id,
		item:     item,
		opts:     opts,
		runAt:    schedule.Next(time.Now().In(p.location)),
		cronExpr: expr,
		schedule: schedule,
	})
}

// Validate reports whether expr is a valid cron expression.
func (p *Planner) Validate(expr string) error {
	_, err := p.parser.Parse(expr)
	return err
}

func (p *Planner) add(e *entry) error {
	if err := validation.ValidateNotEmpty("periodic", "id", e.id); err != nil {
		return err
	}
	if len(e.id) > 255 {
		return arterrors.NewValidationError("periodic", "id", e.id, "too long").WithHint("max 255 characters")
	}
	if err := validation.ValidateNotNil("periodic", "item", e.item); err != nil {
		return err
	}
	e.created = time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[e.id]; exists {
		return fmt.Errorf("schedule %q: %w", e.id, ErrDuplicateID)
	}
	if len(p.entries) >= p.maxEntries {
		return fmt.Errorf("cannot add schedule %q: maximum number of entries (%d) reached", e.id, p.maxEntries)
	}
	p.entries[e.id] = e
	return nil
}

// Cancel removes an entry. Submissions already made are unaffected.
func (p *Planner) Cancel(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[id]; exists {
		delete(p.entries, id)
		return true
	}
	return false
}

// CancelAll removes every entry.
func (p *Planner) CancelAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = make(map[string]*entry)
}

// Next returns the next submission time of an entry.
func (p *Planner) Next(id string) (time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	e, exists := p.entries[id]
	if !exists {
		return time.Time{}, fmt.Errorf("schedule %q: %w", id, ErrNotFound)
	}
	return e.runAt, nil
}

// List returns all entries ordered by next run time.
func (p *Planner) List() []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Entry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, Entry{
			ID:       e.id,
			NextRun:  e.runAt,
			Interval: e.interval,
			Cron:     e.cronExpr,
			Runs:     e.runs,
			Created:  e.created,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NextRun.Before(out[j].NextRun)
	})
	return out
}

// Start begins checking for due entries.
func (p *Planner) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("planner already running: %w", arterrors.ErrInvalidState)
	}
	p.running = true
	p.done = make(chan struct{})
	p.stopped = make(chan struct{})

	go p.run(p.done, p.stopped)
	return nil
}

// Stop halts the planner and waits for its loop to exit. It does not
// terminate the scheduler.
func (p *Planner) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.done)
	stopped := p.stopped
	p.mu.Unlock()

	<-stopped
}

func (p *Planner) run(done, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(p.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			p.fire(now)
		}
	}
}

// fire submits every due entry and reschedules the repeating ones.
func (p *Planner) fire(now time.Time) {
	p.mu.Lock()
	var due []*entry
	for id, e := range p.entries {
		if e.runAt.After(now) {
			continue
		}
		due = append(due, e)
		e.runs++

		switch {
		case e.interval > 0:
			e.runAt = now.Add(e.interval)
		case e.schedule != nil:
			e.runAt = e.schedule.Next(now.In(p.location))
		default:
			delete(p.entries, id)
		}
	}
	p.mu.Unlock()

	for _, e := range due {
		p.submit(e)
	}
}

func (p *Planner) submit(e *entry) {
	opts := append([]asynctask.Option{asynctask.AfterReleased()}, e.opts...)
	task, err := p.sched.Submit(e.item, opts...)
	if err != nil {
		p.logger.Warn("scheduled submission rejected", "schedule", e.id, "error", err)
		if p.metrics != nil {
			p.metrics.PeriodicErrors.WithLabelValues(e.id).Inc()
		}
		return
	}
	task.Release()
	if p.metrics != nil {
		p.metrics.PeriodicSubmissions.WithLabelValues(e.id).Inc()
	}
}
