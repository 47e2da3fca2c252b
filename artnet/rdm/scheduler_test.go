package rdm

import (
	"testing"
	"time"

	"github.com/gopatchy/artnode/artnet/addr"
)

func TestScheduleChunksIntoBatches(t *testing.T) {
	s := NewScheduler(SchedulerConfig{BatchSize: 2, StepDelay: time.Millisecond, MaxBackoff: time.Second})
	ports := []addr.PortAddress{1, 2, 3, 4, 5}
	tasks := s.Schedule(ModeFull, ports, "manual", time.Unix(0, 0))

	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3 batches of <=2", len(tasks))
	}
	if len(tasks[0].Ports) != 2 || len(tasks[2].Ports) != 1 {
		t.Fatalf("unexpected batch sizes: %v %v %v", tasks[0].Ports, tasks[1].Ports, tasks[2].Ports)
	}
}

func TestDispatchRespectsStepDelayAndBackoff(t *testing.T) {
	s := NewScheduler(SchedulerConfig{BatchSize: 64, StepDelay: 50 * time.Millisecond, MaxBackoff: 200 * time.Millisecond})
	t0 := time.Unix(0, 0)
	s.Schedule(ModeIncremental, []addr.PortAddress{1}, "idle", t0)
	s.Schedule(ModeIncremental, []addr.PortAddress{2}, "idle", t0)

	if task := s.Dispatch(t0); task == nil {
		t.Fatal("first dispatch should succeed immediately")
	}
	if task := s.Dispatch(t0.Add(10 * time.Millisecond)); task != nil {
		t.Fatal("second dispatch before step_delay+backoff should be withheld")
	}
	if task := s.Dispatch(t0.Add(100 * time.Millisecond)); task == nil {
		t.Fatal("dispatch after delay elapses should succeed")
	}
}

func TestFullDiscoveryResetsBackoff(t *testing.T) {
	s := NewScheduler(SchedulerConfig{BatchSize: 64, StepDelay: 10 * time.Millisecond, MaxBackoff: time.Second})
	t0 := time.Unix(0, 0)
	s.Schedule(ModeIncremental, []addr.PortAddress{1}, "idle", t0)
	s.Dispatch(t0)
	if s.backoff == 0 {
		t.Fatal("backoff should grow after first dispatch")
	}

	s.Schedule(ModeFull, []addr.PortAddress{2}, "manual", t0)
	if s.backoff != 0 {
		t.Fatal("scheduling a full discovery should reset backoff")
	}
}

func TestPidsForSeverity(t *testing.T) {
	if pids := PidsForSeverity(SeverityAdvisory); len(pids) != 1 || pids[0] != PidStatusMessage {
		t.Fatalf("advisory pids = %v", pids)
	}
	if pids := PidsForSeverity(SeverityWarning); len(pids) != 2 {
		t.Fatalf("warning pids = %v, want 2", pids)
	}
	if pids := PidsForSeverity(SeverityNone); pids != nil {
		t.Fatalf("none severity should request no pids, got %v", pids)
	}
}

func TestBackgroundQueueRotatesTargets(t *testing.T) {
	q := NewBackgroundQueue(BackgroundQueueConfig{Supported: true, PollInterval: 10 * time.Millisecond, MaxTargetsPerPoll: 2})
	responders := [][6]byte{{1}, {2}, {3}}
	t0 := time.Unix(0, 0)

	batch1 := q.Poll(t0, responders)
	if len(batch1) != 2 {
		t.Fatalf("got %d targets, want 2", len(batch1))
	}
	if q.Poll(t0.Add(time.Millisecond), responders) != nil {
		t.Fatal("poll before interval elapses should return nil")
	}
	batch2 := q.Poll(t0.Add(20*time.Millisecond), responders)
	if len(batch2) != 2 {
		t.Fatalf("got %d targets, want 2", len(batch2))
	}
	if batch2[0] != responders[2] {
		t.Fatalf("expected rotation to continue from cursor, got %v", batch2)
	}
}

func TestBackgroundQueueDisabledReturnsNil(t *testing.T) {
	q := NewBackgroundQueue(DefaultBackgroundQueueConfig())
	if q.Poll(time.Unix(0, 0), [][6]byte{{1}}) != nil {
		t.Fatal("unsupported queue must never return a batch")
	}
}
