// Package program implements remote node-identity and network
// programming: applying ArtAddress's flagged-update field encoding and
// command dispatch table, and ArtIpProg's network-config bits, per
// spec.md §4.2/§4.9. No teacher analogue exists for remote programming
// (gopatchy-artmap is receive-only); built directly to the specification.
package program

import (
	"fmt"
	"strings"

	"github.com/gopatchy/artnode/artnet/wire"
)

// Identity is the subset of node state ArtAddress can mutate.
type Identity struct {
	ShortName   string
	LongName    string
	NetSwitch   uint8
	SubSwitch   uint8
	SwIn        [4]uint8
	SwOut       [4]uint8
	AcnPriority uint8
}

// Defaults supplies factory-reset values for the flagged-update encoding.
type Defaults struct {
	ShortName   string
	LongName    string
	NetSwitch   uint8
	SubSwitch   uint8
	SwIn        [4]uint8
	SwOut       [4]uint8
	AcnPriority uint8
}

// flaggedByte implements spec.md §4.2's "flagged update" encoding: 0
// resets to the default; the MSB set writes the low `bits`-wide field
// from the incoming byte; anything else is ignored (no change).
func flaggedByte(current, incoming, def uint8, bits uint8) (next uint8, changed bool) {
	switch {
	case incoming == 0:
		if current == def {
			return current, false
		}
		return def, true
	case incoming&0x80 != 0:
		mask := uint8(1)<<bits - 1
		v := incoming & mask
		if v == current {
			return current, false
		}
		return v, true
	default:
		return current, false
	}
}

// flaggedName resets to def on an all-zero incoming value, otherwise
// applies the incoming NUL-trimmed string if non-empty.
func flaggedName(current, incoming, def string) (next string, changed bool) {
	trimmed := strings.TrimRight(incoming, "\x00")
	switch {
	case incoming == "" || allZero(incoming):
		if current == def {
			return current, false
		}
		return def, true
	case trimmed != "":
		if trimmed == current {
			return current, false
		}
		return trimmed, true
	default:
		return current, false
	}
}

func allZero(s string) bool {
	for _, b := range []byte(s) {
		if b != 0 {
			return false
		}
	}
	return true
}

// Change describes one field Apply mutated.
type Change struct {
	Field string
	From  interface{}
	To    interface{}
}

// CommandInfo describes which ArtAddress command byte executed and what
// it meant, for the diagnostic-acknowledgement generator, per spec.md
// §4.9.
type CommandInfo struct {
	Command          uint8
	Port             int // -1 if not port-scoped
	Applied          bool
	Message          string
	FailsafeDirective string // "hold" | "zero" | "full" | "scene" | "record" | ""
	MergeDirective   *MergeDirective
	FlushSubscribers bool
	RdmDirective     *RdmDirective
}

// MergeDirective requests a merge-mode change for one port.
type MergeDirective struct {
	Port int
	Mode string // "htp" | "ltp"
}

// RdmDirective requests enabling/disabling RDM on one port.
type RdmDirective struct {
	Port    int
	Enabled bool
}

// Priority returns the diagnostic priority an acknowledgement should
// carry: 0x10 applied, 0x80 error, per spec.md §4.2.
func (c CommandInfo) Priority() uint8 {
	if c.Applied {
		return wire.DiagPriorityLow
	}
	return wire.DiagPriorityHigh
}

// Apply mutates identity per an ArtAddress packet's flagged fields and
// returns the resulting identity, the field diff, and the command's
// structured description, per spec.md §4.2/§4.9. It never mutates pkt.
func Apply(current Identity, defaults Defaults, pkt *wire.AddressPacket) (Identity, []Change, CommandInfo) {
	next := current
	var changes []Change

	if v, ch := flaggedByte(current.NetSwitch, pkt.NetSwitch, defaults.NetSwitch, 7); ch {
		next.NetSwitch = v
		changes = append(changes, Change{"net-switch", current.NetSwitch, v})
	}
	if v, ch := flaggedByte(current.SubSwitch, pkt.SubSwitch, defaults.SubSwitch, 4); ch {
		next.SubSwitch = v
		changes = append(changes, Change{"sub-switch", current.SubSwitch, v})
	}
	if v, ch := flaggedByte(current.AcnPriority, pkt.AcnPriority, defaults.AcnPriority, 4); ch {
		next.AcnPriority = v
		changes = append(changes, Change{"acn-priority", current.AcnPriority, v})
	}
	for i := 0; i < 4; i++ {
		if v, ch := flaggedByte(current.SwIn[i], pkt.SwIn[i], defaults.SwIn[i], 4); ch {
			next.SwIn[i] = v
			changes = append(changes, Change{fmt.Sprintf("sw-in[%d]", i), current.SwIn[i], v})
		}
		if v, ch := flaggedByte(current.SwOut[i], pkt.SwOut[i], defaults.SwOut[i], 4); ch {
			next.SwOut[i] = v
			changes = append(changes, Change{fmt.Sprintf("sw-out[%d]", i), current.SwOut[i], v})
		}
	}
	if v, ch := flaggedName(current.ShortName, string(pkt.ShortName[:]), defaults.ShortName); ch {
		next.ShortName = v
		changes = append(changes, Change{"short-name", current.ShortName, v})
	}
	if v, ch := flaggedName(current.LongName, string(pkt.LongName[:]), defaults.LongName); ch {
		next.LongName = v
		changes = append(changes, Change{"long-name", current.LongName, v})
	}

	info := describeCommand(pkt.Command)
	return next, changes, info
}

// describeCommand decodes an ArtAddress command byte into a structured
// description, per the dispatch table in spec.md §4.2.
func describeCommand(cmd uint8) CommandInfo {
	switch {
	case cmd == 0:
		return CommandInfo{Command: cmd, Port: -1}
	case cmd == wire.CmdCancelMerge:
		return CommandInfo{Command: cmd, Port: -1, Applied: true, Message: "merge cancel armed"}
	case cmd == wire.CmdLedNormal:
		return CommandInfo{Command: cmd, Port: -1, Applied: true, Message: "indicator LED: normal"}
	case cmd == wire.CmdLedMute:
		return CommandInfo{Command: cmd, Port: -1, Applied: true, Message: "indicator LED: mute"}
	case cmd == wire.CmdLedLocate:
		return CommandInfo{Command: cmd, Port: -1, Applied: true, Message: "indicator LED: locate"}
	case cmd == wire.CmdFailsafeHold:
		return CommandInfo{Command: cmd, Port: -1, Applied: true, Message: "failsafe mode: hold", FailsafeDirective: "hold"}
	case cmd == wire.CmdFailsafeZero:
		return CommandInfo{Command: cmd, Port: -1, Applied: true, Message: "failsafe mode: zero", FailsafeDirective: "zero"}
	case cmd == wire.CmdFailsafeFull:
		return CommandInfo{Command: cmd, Port: -1, Applied: true, Message: "failsafe mode: full", FailsafeDirective: "full"}
	case cmd == wire.CmdFailsafeScene:
		return CommandInfo{Command: cmd, Port: -1, Applied: true, Message: "failsafe mode: scene", FailsafeDirective: "scene"}
	case cmd == wire.CmdFailsafeRecord:
		return CommandInfo{Command: cmd, Port: -1, Applied: true, Message: "failsafe scene recorded", FailsafeDirective: "record"}
	case inRange(cmd, wire.CmdMergeLTPBase, wire.CmdMergeLTPTop):
		port := int(cmd - wire.CmdMergeLTPBase)
		return CommandInfo{Command: cmd, Port: port, Applied: true, Message: fmt.Sprintf("port %d merge mode: LTP", port), MergeDirective: &MergeDirective{Port: port, Mode: "ltp"}}
	case inRange(cmd, wire.CmdMergeHTPBase, wire.CmdMergeHTPTop):
		port := int(cmd - wire.CmdMergeHTPBase)
		return CommandInfo{Command: cmd, Port: port, Applied: true, Message: fmt.Sprintf("port %d merge mode: HTP", port), MergeDirective: &MergeDirective{Port: port, Mode: "htp"}}
	case inRange(cmd, wire.CmdPortOutputBase, wire.CmdPortOutputTop):
		port := int(cmd - wire.CmdPortOutputBase)
		return CommandInfo{Command: cmd, Port: port, Applied: true, Message: fmt.Sprintf("port %d set to output", port)}
	case inRange(cmd, wire.CmdPortInputBase, wire.CmdPortInputTop):
		port := int(cmd - wire.CmdPortInputBase)
		return CommandInfo{Command: cmd, Port: port, Applied: true, Message: fmt.Sprintf("port %d set to input", port), FlushSubscribers: true}
	case inRange(cmd, wire.CmdProtocolArtNetBase, wire.CmdProtocolArtNetTop):
		port := int(cmd - wire.CmdProtocolArtNetBase)
		return CommandInfo{Command: cmd, Port: port, Applied: true, Message: fmt.Sprintf("port %d protocol: Art-Net", port)}
	case inRange(cmd, wire.CmdProtocolSacnBase, wire.CmdProtocolSacnTop):
		port := int(cmd - wire.CmdProtocolSacnBase)
		return CommandInfo{Command: cmd, Port: port, Applied: true, Message: fmt.Sprintf("port %d protocol: sACN", port)}
	case inRange(cmd, wire.CmdClearOutputBase, wire.CmdClearOutputTop):
		port := int(cmd - wire.CmdClearOutputBase)
		return CommandInfo{Command: cmd, Port: port, Applied: true, Message: fmt.Sprintf("port %d output buffer cleared", port)}
	case inRange(cmd, wire.CmdStyleDeltaBase, wire.CmdStyleDeltaTop):
		port := int(cmd - wire.CmdStyleDeltaBase)
		return CommandInfo{Command: cmd, Port: port, Applied: true, Message: fmt.Sprintf("port %d style: delta", port)}
	case inRange(cmd, wire.CmdStyleContinuousBase, wire.CmdStyleContinuousTop):
		port := int(cmd - wire.CmdStyleContinuousBase)
		return CommandInfo{Command: cmd, Port: port, Applied: true, Message: fmt.Sprintf("port %d style: continuous", port)}
	case inRange(cmd, wire.CmdRdmEnableBase, wire.CmdRdmEnableTop):
		port := int(cmd - wire.CmdRdmEnableBase)
		return CommandInfo{Command: cmd, Port: port, Applied: true, Message: fmt.Sprintf("port %d RDM enabled", port), RdmDirective: &RdmDirective{Port: port, Enabled: true}}
	case inRange(cmd, wire.CmdRdmDisableBase, wire.CmdRdmDisableTop):
		port := int(cmd - wire.CmdRdmDisableBase)
		return CommandInfo{Command: cmd, Port: port, Applied: true, Message: fmt.Sprintf("port %d RDM disabled", port), RdmDirective: &RdmDirective{Port: port, Enabled: false}}
	case inRange(cmd, wire.CmdBgQueuePolicyBase, wire.CmdBgQueuePolicyTop):
		policy := cmd & 0x0F
		return CommandInfo{Command: cmd, Port: -1, Applied: true, Message: fmt.Sprintf("background-queue policy: %d", policy)}
	default:
		return CommandInfo{Command: cmd, Port: -1, Applied: false, Message: fmt.Sprintf("unrecognized command byte 0x%02X", cmd)}
	}
}

func inRange(v, lo, hi uint8) bool { return v >= lo && v <= hi }
