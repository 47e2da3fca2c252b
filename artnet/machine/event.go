// Package machine wires every other artnet/ engine into the single pure
// dispatcher spec.md §2/§4.2 describes: Step(state, event) -> (state',
// effects). No teacher analogue exists for this package — gopatchy-artmap
// handles each opcode with a direct callback inside its receiver loop
// instead of a pure state machine — so it is built directly to the
// specification, in the naming and error-handling register the rest of
// this module established.
package machine

import (
	"time"

	"github.com/gopatchy/artnode/artnet/wire"
)

// Event is the sum type Step consumes. Concrete types: RxPacket, Tick,
// ConfigUpdate, Command.
type Event interface {
	isEvent()
}

// RxPacket is a decoded inbound datagram.
type RxPacket struct {
	Packet    wire.Packet
	Sender    string // host:port
	Timestamp time.Time
}

func (RxPacket) isEvent() {}

// Tick is the periodic timer event driving sync fallback, failsafe sweep,
// keep-alive DMX, and the RDM schedulers.
type Tick struct {
	Timestamp time.Time
}

func (Tick) isEvent() {}

// ConfigUpdate replaces part of the node's external configuration.
type ConfigUpdate struct {
	Identity *IdentityUpdate
	Network  *NetworkUpdate
}

func (ConfigUpdate) isEvent() {}

// IdentityUpdate carries a partial identity replacement.
type IdentityUpdate struct {
	ShortName, LongName string
	NetSwitch, SubSwitch uint8
}

// NetworkUpdate carries a partial network-config replacement.
type NetworkUpdate struct {
	IP, Mask, Gateway [4]byte
	Port              uint16
}

// Command is an operator-issued intent, dispatched by Command.Name.
type Command struct {
	Name string // "send-dmx" | "send-rdm" | "send-poll-reply" | "snapshot" | "send-diagnostic" | "apply-state"
	Port uint16 // Port-Address, for port-scoped commands

	// Data carries command-specific payload bytes: DMX levels for
	// send-dmx, the raw RDM command-class+parameter bytes for send-rdm
	// (first byte is the command class), a pre-built packet for
	// send-poll-reply.
	Data []byte

	// Message doubles as the diagnostic text for send-diagnostic and the
	// unicast "host:port" target for send-rdm and the delayed
	// send-poll-reply (ArtRdm and ArtPollReply must never be broadcast).
	Message   string
	Timestamp time.Time
}

func (Command) isEvent() {}
