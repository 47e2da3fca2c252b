package machine

import (
	"time"

	"github.com/gopatchy/artnode/artnet/addr"
	"github.com/gopatchy/artnode/artnet/diag"
	"github.com/gopatchy/artnode/artnet/discovery"
	"github.com/gopatchy/artnode/artnet/failsafe"
	"github.com/gopatchy/artnode/artnet/firmware"
	"github.com/gopatchy/artnode/artnet/merge"
	"github.com/gopatchy/artnode/artnet/program"
	"github.com/gopatchy/artnode/artnet/rdm"
	"github.com/gopatchy/artnode/artnet/sync"
	"github.com/gopatchy/artnode/artnet/trigger"
)

// portConfig is the per-Port-Address configuration ArtAddress can mutate
// at runtime: merge mode, direction (input serves ArtDmx inbound vs.
// output), wire protocol, and RDM enablement.
type portConfig struct {
	MergeMode merge.Mode
	Output    bool // true: sends DMX out; false: accepts DMX in
	Protocol  string // "artnet" | "sacn"
	RdmEnabled bool
	Style     string // "delta" | "continuous"
	OutputLabel string
	InputLabel  string
}

// Config seeds a new State.
type Config struct {
	Identity        program.Identity
	Defaults        program.Defaults
	Network         program.NetworkState
	NetworkDefaults program.NetworkDefaults
	NodeOem         uint16
	NodeEsta        uint16

	SyncMode            sync.Mode
	Failsafe            failsafe.Config
	ReplyOnChangeLimit  int
	ReplyOnChangePolicy discovery.EvictionPolicy
	Diag                diag.Config
	TriggerMinInterval  time.Duration
	Scheduler           rdm.SchedulerConfig
	Background          rdm.BackgroundQueueConfig

	KeepAliveIdle time.Duration // default 900ms; keepAliveFrames does not read it and emits every tick
	PeerExpiry    time.Duration // default, generous: drop peers that stop polling entirely
}

// DefaultConfig returns the defaults spec.md §3/§6 name for every engine.
func DefaultConfig() Config {
	return Config{
		NodeOem:             0xFFFF,
		NodeEsta:            0x7FF0,
		SyncMode:            sync.ModeImmediate,
		Failsafe:            failsafe.DefaultConfig(),
		ReplyOnChangeLimit:  1,
		ReplyOnChangePolicy: discovery.PolicyPreferExisting,
		Diag:                diag.DefaultConfig(),
		TriggerMinInterval:  trigger.DefaultMinInterval,
		Scheduler:           rdm.DefaultSchedulerConfig(),
		Background:          rdm.DefaultBackgroundQueueConfig(),
		KeepAliveIdle:       900 * time.Millisecond,
		PeerExpiry:          time.Hour,
	}
}

// State is the single mutable aggregate Step operates on: one node's
// complete runtime state, per spec.md §2's "node state is created by
// initial_state(config) once and mutated exclusively by step".
type State struct {
	Config Config

	Identity program.Identity
	Network  program.NetworkState

	Merge     *merge.Engine
	Sync      *sync.Engine
	Failsafe  *failsafe.Engine
	Discovery *discovery.Engine
	Diag      *diag.Engine
	TOD       *rdm.TOD
	Scheduler *rdm.Scheduler
	Background *rdm.BackgroundQueue
	Firmware  *firmware.Engine
	Trigger   *trigger.Engine

	ports map[addr.PortAddress]*portConfig

	sequence uint8 // outbound ArtDmx sequence counter for synthesized frames
}

// New builds initial_state(config): one instance of every sub-engine,
// wired together, with no ports configured; a port's config is created the
// first time an event names it (ArtDmx, send-dmx, ArtAddress, ArtCommand).
func New(cfg Config) *State {
	return &State{
		Config:    cfg,
		Identity:  cfg.Identity,
		Network:   cfg.Network,
		Merge:     merge.New(),
		Sync:      sync.New(cfg.SyncMode),
		Failsafe:  failsafe.New(cfg.Failsafe),
		Discovery: discovery.New(cfg.ReplyOnChangeLimit, cfg.ReplyOnChangePolicy),
		Diag:      diag.New(cfg.Diag),
		TOD:       rdm.NewTOD(),
		Scheduler: rdm.NewScheduler(cfg.Scheduler),
		Background: rdm.NewBackgroundQueue(cfg.Background),
		Firmware:  firmware.New(),
		Trigger:   trigger.New(cfg.NodeOem, cfg.TriggerMinInterval),
		ports:     map[addr.PortAddress]*portConfig{},
	}
}

func (s *State) port(pa addr.PortAddress) *portConfig {
	p, ok := s.ports[pa]
	if !ok {
		p = &portConfig{Output: true, Protocol: "artnet", Style: "delta"}
		s.ports[pa] = p
	}
	return p
}
