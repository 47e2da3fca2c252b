package machine

import (
	"github.com/gopatchy/artnode/artnet/addr"
	"github.com/gopatchy/artnode/artnet/wire"
)

// Effect is the sum type Step produces. The core never performs I/O
// itself; the shell executes these values, per spec.md §4.2.
type Effect interface {
	isEffect()
}

// TxPacket requests a datagram be sent.
type TxPacket struct {
	Op        wire.Opcode
	Data      []byte
	Target    string // empty = broadcast, subject to Broadcast being allowed
	Reply     bool   // true if this is a direct reply to the event's sender
	Broadcast bool
}

func (TxPacket) isEffect() {}

// CallbackEffect surfaces a decoded event to application code.
type CallbackEffect struct {
	Key     string
	Payload interface{}
}

func (CallbackEffect) isEffect() {}

// LogEffect is a structured log line the shell should emit.
type LogEffect struct {
	Level   string // "debug" | "info" | "warn" | "error"
	Message string
	Data    map[string]interface{}
}

func (LogEffect) isEffect() {}

// ScheduleEffect asks the shell to re-deliver an event after a delay,
// used for ArtPoll's deferred reply (handlePoll always sets DelayMs to 0).
type ScheduleEffect struct {
	DelayMs int
	Event   Event
}

func (ScheduleEffect) isEffect() {}

// DMXFrameEffect is the merged/synced/failsafe output for one port,
// handed to the shell's DMX-output sink.
type DMXFrameEffect struct {
	Port     addr.PortAddress
	Sequence uint8
	Data     []byte
	Length   int
}

func (DMXFrameEffect) isEffect() {}
