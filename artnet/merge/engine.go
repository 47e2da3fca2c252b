// Package merge implements the per-port HTP/LTP source-merge engine: up to
// two DMX sources per Port-Address, evicted after 10s of silence, combined
// by the port's configured mode. Grounded on gopatchy-artmap/senders/senders.go's
// TTL-map idiom, generalized into a pure function of an explicit `now`
// (no internal clock or lock — the state machine shell owns both, per the
// "single mutable struct with one outer mutex" guidance) instead of the
// teacher's time.Now()-calling methods.
package merge

import (
	"time"

	"github.com/gopatchy/artnode/artnet/addr"
)

// Mode is a port's merge policy.
type Mode int

const (
	ModeHTP Mode = iota
	ModeLTP
)

// SourceKey identifies one sender of DMX data to a port: the originating
// host plus the ArtDmx Physical port field, per spec.md §3's
// `source_key = (sender_host, physical_port)`.
type SourceKey struct {
	Host     string
	Physical uint8
}

// Source is one sender's last-known frame.
type Source struct {
	Data      []byte
	Length    uint16
	UpdatedAt time.Time
}

// sourceTTL is how long a source may go without an update before it is
// evicted from a port, per spec.md §3.
const sourceTTL = 10 * time.Second

// portState tracks a single Port-Address's active sources and the last
// merged output, so a rejected third source still has something to
// re-emit (spec.md §4.3: "reject the frame but keep emitting the port's
// last output").
type portState struct {
	sources      map[SourceKey]Source
	lastOutput   []byte
	lastLength   uint16
	cancelArmed  bool
	twoActive    bool
}

// Engine holds merge state for every Port-Address a node serves.
type Engine struct {
	ports map[addr.PortAddress]*portState
}

// New returns an empty merge engine.
func New() *Engine {
	return &Engine{ports: map[addr.PortAddress]*portState{}}
}

// ArmCancelMerge marks a port's source table to be cleared on its next
// ingest, per ArtAddress command 0x01 (spec.md §4.2).
func (e *Engine) ArmCancelMerge(port addr.PortAddress) {
	e.state(port).cancelArmed = true
}

func (e *Engine) state(port addr.PortAddress) *portState {
	ps, ok := e.ports[port]
	if !ok {
		ps = &portState{sources: map[SourceKey]Source{}}
		e.ports[port] = ps
	}
	return ps
}

// Result reports the outcome of an Ingest call.
type Result struct {
	Output       []byte
	Length       uint16
	Merged       bool // true if this call produced new output (vs. a reject holding last output)
	Rejected     bool // true if a 3rd source was turned away
	TwoActive    bool // true while two sources are active; buildPollReply does not read it, so replies never carry good-output-a's 0x08 bit
}

// Ingest adds or refreshes a source's frame for a port and returns the
// merged result, per spec.md §4.3. Sources older than sourceTTL are pruned
// first; a cancel-merge arm clears the table before pruning/inserting.
func (e *Engine) Ingest(now time.Time, port addr.PortAddress, key SourceKey, data []byte, mode Mode) Result {
	ps := e.state(port)

	if ps.cancelArmed {
		ps.sources = map[SourceKey]Source{}
		ps.cancelArmed = false
	}

	e.prune(ps, now)

	_, exists := ps.sources[key]
	if !exists && len(ps.sources) >= 2 {
		ps.twoActive = len(ps.sources) == 2
		return Result{Output: ps.lastOutput, Length: ps.lastLength, Rejected: true, TwoActive: ps.twoActive}
	}

	ps.sources[key] = Source{Data: data, Length: uint16(len(data)), UpdatedAt: now}

	var out []byte
	switch len(ps.sources) {
	case 1:
		out = data
	default:
		out = e.mergeTwo(ps, mode)
	}

	ps.lastOutput = out
	ps.lastLength = uint16(len(out))
	ps.twoActive = len(ps.sources) == 2

	return Result{Output: out, Length: ps.lastLength, Merged: true, TwoActive: ps.twoActive}
}

func (e *Engine) prune(ps *portState, now time.Time) {
	cutoff := now.Add(-sourceTTL)
	for k, s := range ps.sources {
		if s.UpdatedAt.Before(cutoff) {
			delete(ps.sources, k)
		}
	}
}

// mergeTwo combines exactly two active sources per mode: HTP takes the
// pairwise max over the common length, LTP clones the most recently
// updated source, per spec.md §4.3.
func (e *Engine) mergeTwo(ps *portState, mode Mode) []byte {
	var keys []SourceKey
	for k := range ps.sources {
		keys = append(keys, k)
	}
	a, b := ps.sources[keys[0]], ps.sources[keys[1]]

	if mode == ModeLTP {
		if b.UpdatedAt.After(a.UpdatedAt) {
			return b.Data
		}
		return a.Data
	}

	n := len(a.Data)
	if len(b.Data) < n {
		n = len(b.Data)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		if a.Data[i] > b.Data[i] {
			out[i] = a.Data[i]
		} else {
			out[i] = b.Data[i]
		}
	}
	return out
}

// LastOutput returns a port's most recently merged frame, for callers
// recording a failsafe scene from live output.
func (e *Engine) LastOutput(port addr.PortAddress) []byte {
	ps, ok := e.ports[port]
	if !ok {
		return nil
	}
	return ps.lastOutput
}

// SourceCount reports how many sources are currently active on a port,
// for introspection/metrics.
func (e *Engine) SourceCount(port addr.PortAddress) int {
	ps, ok := e.ports[port]
	if !ok {
		return 0
	}
	return len(ps.sources)
}
