package rdm

import (
	"time"

	"github.com/gopatchy/artnode/artnet/addr"
)

// SchedulerConfig controls discovery batching, pacing, and backoff,
// per spec.md §4.8.
type SchedulerConfig struct {
	BatchSize   int           // default 64
	StepDelay   time.Duration // default 50ms
	MaxBackoff  time.Duration // default 1s
}

// DefaultSchedulerConfig matches spec.md §4.8's stated defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{BatchSize: 64, StepDelay: 50 * time.Millisecond, MaxBackoff: time.Second}
}

// Scheduler is a FIFO of chunked discovery tasks with exponential backoff
// between dispatches.
type Scheduler struct {
	Config       SchedulerConfig
	queue        []Task
	lastDispatch time.Time
	backoff      time.Duration
}

// NewScheduler returns an empty scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	return &Scheduler{Config: cfg}
}

// Schedule enqueues a discovery task, chunked into batches of
// Config.BatchSize port-addresses. A full-mode task resets backoff, per
// spec.md §4.8 "a full discovery resets backoff".
func (s *Scheduler) Schedule(mode DiscoveryMode, ports []addr.PortAddress, reason string, now time.Time) []Task {
	if mode == ModeFull {
		s.backoff = 0
	}

	batch := s.Config.BatchSize
	if batch <= 0 {
		batch = 64
	}

	var tasks []Task
	if len(ports) == 0 {
		tasks = append(tasks, NewTask(mode, nil, reason, now))
	}
	for i := 0; i < len(ports); i += batch {
		end := i + batch
		if end > len(ports) {
			end = len(ports)
		}
		tasks = append(tasks, NewTask(mode, ports[i:end], reason, now))
	}
	s.queue = append(s.queue, tasks...)
	return tasks
}

// Dispatch pops and returns the next due task, or nil if the queue is
// empty or StepDelay (adjusted by backoff) hasn't elapsed since the last
// dispatch.
func (s *Scheduler) Dispatch(now time.Time) *Task {
	if len(s.queue) == 0 {
		return nil
	}
	wait := s.Config.StepDelay + s.backoff
	if !s.lastDispatch.IsZero() && now.Sub(s.lastDispatch) < wait {
		return nil
	}

	task := s.queue[0]
	s.queue = s.queue[1:]
	s.lastDispatch = now

	s.backoff *= 2
	if s.backoff == 0 {
		s.backoff = s.Config.StepDelay
	}
	if s.backoff > s.Config.MaxBackoff {
		s.backoff = s.Config.MaxBackoff
	}

	return &task
}

// Pending reports how many tasks remain queued.
func (s *Scheduler) Pending() int { return len(s.queue) }

// RDM parameter IDs referenced by background-queue severity mapping,
// per spec.md §4.8.
const (
	PidStatusMessage = 0x0030
	PidQueuedMessage = 0x0020
)

// Severity classifies a background-queue policy byte into the PIDs
// spec.md §4.8 derives from it.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityAdvisory
	SeverityWarning
	SeverityError
	SeverityVendor
	SeverityDisabled
	SeverityReserved
)

// PidsForSeverity returns the RDM parameter IDs a background poll should
// request for the given severity.
func PidsForSeverity(s Severity) []uint16 {
	switch s {
	case SeverityAdvisory:
		return []uint16{PidStatusMessage}
	case SeverityWarning, SeverityError:
		return []uint16{PidStatusMessage, PidQueuedMessage}
	default:
		return nil
	}
}

// BackgroundQueueConfig controls the background RDM poll rotation.
type BackgroundQueueConfig struct {
	Supported    bool
	Policy       uint8
	Severity     Severity
	PollInterval time.Duration // default 500ms
	MaxTargetsPerPoll int       // default 4
}

// DefaultBackgroundQueueConfig matches spec.md §4.8's stated defaults.
func DefaultBackgroundQueueConfig() BackgroundQueueConfig {
	return BackgroundQueueConfig{PollInterval: 500 * time.Millisecond, MaxTargetsPerPoll: 4}
}

// BackgroundQueue rotates through responders, polling up to
// MaxTargetsPerPoll per interval.
type BackgroundQueue struct {
	Config   BackgroundQueueConfig
	nextPoll time.Time
	cursor   int
}

// NewBackgroundQueue returns a background queue with the given config.
func NewBackgroundQueue(cfg BackgroundQueueConfig) *BackgroundQueue {
	return &BackgroundQueue{Config: cfg}
}

// Poll returns the next batch of responders to poll, advancing the
// rotation cursor, or nil if not supported or not yet due.
func (q *BackgroundQueue) Poll(now time.Time, responders [][6]byte) [][6]byte {
	if !q.Config.Supported || len(responders) == 0 {
		return nil
	}
	if !q.nextPoll.IsZero() && now.Before(q.nextPoll) {
		return nil
	}

	max := q.Config.MaxTargetsPerPoll
	if max <= 0 {
		max = 4
	}
	if max > len(responders) {
		max = len(responders)
	}

	var batch [][6]byte
	for i := 0; i < max; i++ {
		batch = append(batch, responders[(q.cursor+i)%len(responders)])
	}
	q.cursor = (q.cursor + max) % len(responders)

	interval := q.Config.PollInterval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	q.nextPoll = now.Add(interval)

	return batch
}
