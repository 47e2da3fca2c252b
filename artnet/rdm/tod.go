// Package rdm implements the RDM Table-of-Devices state, discovery task
// scheduler, and background-queue rotation described in spec.md §4.8. No
// teacher analogue exists (gopatchy-artmap never implements RDM), so this
// is built directly to the specification, reusing the TTL/queue idioms
// established elsewhere in this module. Task identifiers use
// github.com/google/uuid the way a services-oriented Go repo in the
// example pack would stamp a job id, rather than a bare incrementing int.
package rdm

import (
	"time"

	"github.com/google/uuid"

	"github.com/gopatchy/artnode/artnet/addr"
)

// Port is one port's known RDM device table.
type Port struct {
	PortAddress addr.PortAddress
	BindIndex   uint8
	RdmVersion  uint8
	Uids        [][6]byte
	Discovering bool
	Incremental bool
}

// TOD tracks per-port RDM device tables.
type TOD struct {
	ports map[addr.PortAddress]*Port
}

// NewTOD returns an empty table-of-devices state.
func NewTOD() *TOD {
	return &TOD{ports: map[addr.PortAddress]*Port{}}
}

func (t *TOD) port(pa addr.PortAddress) *Port {
	p, ok := t.ports[pa]
	if !ok {
		p = &Port{PortAddress: pa}
		t.ports[pa] = p
	}
	return p
}

// Ports returns every Port-Address with tracked RDM state.
func (t *TOD) Ports() []addr.PortAddress {
	out := make([]addr.PortAddress, 0, len(t.ports))
	for pa := range t.ports {
		out = append(out, pa)
	}
	return out
}

// SetUids replaces a port's known UID list (e.g. after discovery completes).
func (t *TOD) SetUids(pa addr.PortAddress, uids [][6]byte) {
	t.port(pa).Uids = uids
}

// Pages returns a port's current UID list, chunked into pages of at most
// maxPerPacket (spec.md §4.8: 200 UIDs per ArtTodData). A port with no
// UIDs yields one empty page.
func (t *TOD) Pages(pa addr.PortAddress, maxPerPacket int) [][][6]byte {
	uids := t.port(pa).Uids
	if len(uids) == 0 {
		return [][][6]byte{{}}
	}
	var pages [][][6]byte
	for i := 0; i < len(uids); i += maxPerPacket {
		end := i + maxPerPacket
		if end > len(uids) {
			end = len(uids)
		}
		pages = append(pages, uids[i:end])
	}
	return pages
}

// CommandResponse returns the ArtTodData command_response byte: 0xFF (NAK)
// while discovery is running for the port, else 0x00.
func (t *TOD) CommandResponse(pa addr.PortAddress) uint8 {
	if t.port(pa).Discovering {
		return 0xFF
	}
	return 0x00
}

// ArtTodControl commands, per spec.md §4.8.
const (
	ControlFlush  = 0x01
	ControlEnd    = 0x02
	ControlIncOn  = 0x03
	ControlIncOff = 0x04
)

// ApplyControl applies an ArtTodControl command to a port and reports
// whether a full discovery should now be scheduled.
func (t *TOD) ApplyControl(pa addr.PortAddress, command uint8) (scheduleFullDiscovery bool) {
	p := t.port(pa)
	switch command {
	case ControlFlush:
		p.Uids = nil
		p.Discovering = true
		return true
	case ControlEnd:
		p.Discovering = false
		return false
	case ControlIncOn:
		p.Incremental = true
		return false
	case ControlIncOff:
		p.Incremental = false
		return false
	default:
		return false
	}
}

// DiscoveryMode distinguishes a full sweep from an incremental one.
type DiscoveryMode int

const (
	ModeFull DiscoveryMode = iota
	ModeIncremental
)

// Task is one queued discovery job.
type Task struct {
	ID          string
	Mode        DiscoveryMode
	Ports       []addr.PortAddress
	Reason      string
	RequestedAt time.Time
}

// NewTask builds a discovery task with a fresh identifier.
func NewTask(mode DiscoveryMode, ports []addr.PortAddress, reason string, requestedAt time.Time) Task {
	return Task{ID: uuid.NewString(), Mode: mode, Ports: ports, Reason: reason, RequestedAt: requestedAt}
}
