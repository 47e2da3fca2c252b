// Package sync implements the ArtSync buffering engine: stage frames per
// Port-Address while in sync mode, release them atomically in arrival
// order on a valid ArtSync, and fall back to immediate mode after 4s of
// silence, per spec.md §4.4. Pure and clock-injected like artnet/merge —
// no teacher analogue exists for this engine (ArtSync is absent from
// gopatchy-artmap), so it is built directly to the specification in the
// idiom the rest of this module establishes.
package sync

import (
	"sort"
	"time"

	"github.com/gopatchy/artnode/artnet/addr"
)

// Mode is the node's configured sync behavior.
type Mode int

const (
	ModeImmediate Mode = iota
	ModeArtSync
)

// fallbackTimeout is how long without an ArtSync before buffering
// auto-reverts to immediate mode, per spec.md §4.4.
const fallbackTimeout = 4 * time.Second

// bufferTTL is how stale a staged frame may be before it is dropped; the
// check runs each time a new frame is staged, per spec.md §3's default
// buffer-TTL.
const bufferTTL = time.Second

// StagedFrame is one port's buffered frame awaiting release.
type StagedFrame struct {
	Port       addr.PortAddress
	Sender     string
	Data       []byte
	ReceivedAt time.Time
}

// Engine tracks sync mode and the staging buffer for one node.
type Engine struct {
	Configured   Mode
	active       bool
	lastSyncAt   time.Time
	waitingSince time.Time
	buffer       map[addr.PortAddress]StagedFrame
	lastDMXSender map[addr.PortAddress]string
}

// New returns an engine with sync disabled (immediate mode).
func New(configured Mode) *Engine {
	return &Engine{Configured: configured, buffer: map[addr.PortAddress]StagedFrame{}, lastDMXSender: map[addr.PortAddress]string{}}
}

// Active reports whether sync mode is currently in effect (distinct from
// Configured: a configured sync mode auto-reverts after fallbackTimeout).
func (e *Engine) Active() bool { return e.active }

// NoteDMXSender records which host most recently sent ArtDmx to a port,
// used to validate ArtSync's sender-match rule.
func (e *Engine) NoteDMXSender(port addr.PortAddress, sender string) {
	e.lastDMXSender[port] = sender
}

// Stage buffers a frame for later release. Called instead of merging
// immediately when sync mode is active.
func (e *Engine) Stage(now time.Time, port addr.PortAddress, sender string, data []byte) {
	if e.waitingSince.IsZero() {
		e.waitingSince = now
	}
	e.pruneStale(now)
	e.buffer[port] = StagedFrame{Port: port, Sender: sender, Data: data, ReceivedAt: now}
}

// Drop discards a port's staged frame without releasing it, used when an
// ArtAddress port-direction change invalidates anything already buffered.
func (e *Engine) Drop(port addr.PortAddress) {
	delete(e.buffer, port)
}

func (e *Engine) pruneStale(now time.Time) {
	cutoff := now.Add(-bufferTTL)
	for k, f := range e.buffer {
		if f.ReceivedAt.Before(cutoff) {
			delete(e.buffer, k)
		}
	}
}

// SyncOutcome describes what handling an ArtSync packet did.
type SyncOutcome struct {
	Ignored bool
	Reason  string
	Frames  []StagedFrame // in received_at order, for the caller to run through merge
}

// HandleSync processes an inbound ArtSync. Ignored per spec.md §4.2 if
// sync mode is not configured, or if the sender doesn't match the most
// recent ArtDmx sender for any buffered port (merge-reordering guard).
func (e *Engine) HandleSync(now time.Time, sender string) SyncOutcome {
	if e.Configured != ModeArtSync {
		return SyncOutcome{Ignored: true, Reason: "not-configured"}
	}

	for port := range e.buffer {
		if last, ok := e.lastDMXSender[port]; ok && last != sender {
			return SyncOutcome{Ignored: true, Reason: "sender-mismatch"}
		}
	}

	e.active = true
	e.lastSyncAt = now

	frames := make([]StagedFrame, 0, len(e.buffer))
	for _, f := range e.buffer {
		frames = append(frames, f)
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].ReceivedAt.Before(frames[j].ReceivedAt) })

	e.buffer = map[addr.PortAddress]StagedFrame{}
	e.waitingSince = time.Time{}

	return SyncOutcome{Frames: frames}
}

// Tick reverts to immediate mode and drops the buffer if fallbackTimeout
// has elapsed since the later of waitingSince/lastSyncAt, per spec.md
// §4.4's "4s without ArtSync reverts to immediate mode".
func (e *Engine) Tick(now time.Time) {
	ref := e.lastSyncAt
	if e.waitingSince.After(ref) {
		ref = e.waitingSince
	}
	if ref.IsZero() {
		return
	}
	if now.Sub(ref) >= fallbackTimeout {
		e.active = false
		e.buffer = map[addr.PortAddress]StagedFrame{}
		e.waitingSince = time.Time{}
	}
}
