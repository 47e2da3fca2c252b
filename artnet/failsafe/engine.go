// Package failsafe implements the idle-timeout replacement-data engine:
// hold/zero/full/scene behavior when a port stops receiving ArtDmx, per
// spec.md §4.5. No teacher analogue exists for this engine either; built
// directly to the specification, mirroring artnet/sync's pure,
// clock-injected style.
package failsafe

import (
	"time"

	"github.com/gopatchy/artnode/artnet/addr"
)

// Mode is a port's failsafe behavior once it goes idle.
type Mode int

const (
	ModeHold Mode = iota
	ModeZero
	ModeFull
	ModeScene
)

// Config controls when and how the failsafe sweep acts.
type Config struct {
	Enabled      bool
	IdleTimeout  time.Duration // default 6s
	TickInterval time.Duration // default 100ms, minimum 10ms
}

// DefaultConfig matches spec.md §3's stated defaults.
func DefaultConfig() Config {
	return Config{Enabled: false, IdleTimeout: 6 * time.Second, TickInterval: 100 * time.Millisecond}
}

// lastOutput records a port's most recent real ArtDmx data, so zero/full
// substitution can match its length and scene playback has a baseline.
type lastOutput struct {
	Data      []byte
	UpdatedAt time.Time
}

// playback records an in-progress failsafe substitution for a port.
type playback struct {
	Mode      Mode
	EngagedAt time.Time
}

// Engine tracks per-port recorded scenes, last real output, and active
// playback.
type Engine struct {
	Config    Config
	scenes    map[addr.PortAddress][]byte
	lastOut   map[addr.PortAddress]lastOutput
	playbacks map[addr.PortAddress]playback
	modes     map[addr.PortAddress]Mode
}

// New returns an engine with the given config and no recorded scenes.
func New(cfg Config) *Engine {
	return &Engine{
		Config:    cfg,
		scenes:    map[addr.PortAddress][]byte{},
		lastOut:   map[addr.PortAddress]lastOutput{},
		playbacks: map[addr.PortAddress]playback{},
		modes:     map[addr.PortAddress]Mode{},
	}
}

// SetMode sets a port's failsafe mode (driven by ArtAddress command bytes
// 0x08-0x0B, per spec.md §4.2).
func (e *Engine) SetMode(port addr.PortAddress, mode Mode) {
	e.modes[port] = mode
}

// RecordScene stores the current data as the port's failsafe scene,
// driven by ArtAddress command 0x0C.
func (e *Engine) RecordScene(port addr.PortAddress, data []byte) {
	scene := make([]byte, len(data))
	copy(scene, data)
	e.scenes[port] = scene
}

// NoteRealOutput records that real (non-failsafe) ArtDmx data arrived for
// a port and clears any active playback, per spec.md §4.5 "when normal
// ArtDmx arrives again for that port, clear the playback entry".
func (e *Engine) NoteRealOutput(now time.Time, port addr.PortAddress, data []byte) (wasPlaying bool) {
	cp := make([]byte, len(data))
	copy(cp, data)
	e.lastOut[port] = lastOutput{Data: cp, UpdatedAt: now}
	_, wasPlaying = e.playbacks[port]
	delete(e.playbacks, port)
	return wasPlaying
}

// Substitution is one port's failsafe replacement emitted by a sweep.
type Substitution struct {
	Port   addr.PortAddress
	Data   []byte
	Mode   Mode
	Engaged bool // true the tick this playback started, for one-shot logging
}

// Sweep runs the idle-timeout check across every port with recorded
// output, per spec.md §4.5. Ports in ModeHold never produce a
// substitution (the spec's "hold" semantics: keep emitting nothing new).
func (e *Engine) Sweep(now time.Time) []Substitution {
	if !e.Config.Enabled {
		return nil
	}

	var out []Substitution
	for port, last := range e.lastOut {
		mode := e.modes[port]
		if mode == ModeHold {
			continue
		}
		if now.Sub(last.UpdatedAt) < e.Config.IdleTimeout {
			continue
		}

		_, alreadyPlaying := e.playbacks[port]
		data := e.replacementData(port, mode, len(last.Data))
		if data == nil {
			continue // e.g. scene mode with no recorded scene
		}

		e.playbacks[port] = playback{Mode: mode, EngagedAt: now}
		out = append(out, Substitution{Port: port, Data: data, Mode: mode, Engaged: !alreadyPlaying})
	}
	return out
}

func (e *Engine) replacementData(port addr.PortAddress, mode Mode, length int) []byte {
	switch mode {
	case ModeZero:
		return make([]byte, length)
	case ModeFull:
		data := make([]byte, length)
		for i := range data {
			data[i] = 0xFF
		}
		return data
	case ModeScene:
		scene, ok := e.scenes[port]
		if !ok {
			return nil
		}
		return scene
	default:
		return nil
	}
}

// Playing reports whether a port currently has an active failsafe
// playback.
func (e *Engine) Playing(port addr.PortAddress) bool {
	_, ok := e.playbacks[port]
	return ok
}
