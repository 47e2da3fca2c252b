package machine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gopatchy/artnode/artnet/addr"
	"github.com/gopatchy/artnode/artnet/failsafe"
	"github.com/gopatchy/artnode/artnet/merge"
	"github.com/gopatchy/artnode/artnet/rdm"
	"github.com/gopatchy/artnode/artnet/sync"
	"github.com/gopatchy/artnode/artnet/wire"
)

func TestDMXIngressEmitsDMXFrame(t *testing.T) {
	s := New(DefaultConfig())
	now := time.Unix(0, 0)

	effects := Step(s, RxPacket{
		Packet:    &wire.DMXPacket{Net: 1, SubNet: 2, Universe: 3, Data: []byte{0xFF, 0x00, 0x80}},
		Sender:    "10.0.0.5:6454",
		Timestamp: now,
	})

	var frame *DMXFrameEffect
	for i := range effects {
		if f, ok := effects[i].(DMXFrameEffect); ok {
			frame = &f
		}
	}
	require.NotNil(t, frame, "expected a DMXFrameEffect, got %+v", effects)
	require.Equal(t, addr.Compose(1, 2, 3), frame.Port)
	require.Equal(t, []byte{0xFF, 0x00, 0x80}, frame.Data)
}

func TestDMXDuringSyncStagesInsteadOfEmitting(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SyncMode = sync.ModeArtSync
	s := New(cfg)
	now := time.Unix(0, 0)
	sender := "10.0.0.5:6454"

	// First frame establishes the last-DMX-sender record; the ArtSync
	// that follows activates sync mode for subsequent frames.
	Step(s, RxPacket{Packet: &wire.DMXPacket{Universe: 1, Data: []byte{1, 2, 3}}, Sender: sender, Timestamp: now})
	Step(s, RxPacket{Packet: &wire.SyncPacket{}, Sender: sender, Timestamp: now})

	effects := Step(s, RxPacket{Packet: &wire.DMXPacket{Universe: 1, Data: []byte{4, 5, 6}}, Sender: sender, Timestamp: now})
	for _, e := range effects {
		_, ok := e.(DMXFrameEffect)
		require.False(t, ok, "should not emit a DMXFrameEffect while staged pending ArtSync")
	}
}

func TestAddressMergeDirectiveAppliesToPort(t *testing.T) {
	s := New(DefaultConfig())
	now := time.Unix(0, 0)

	Step(s, RxPacket{Packet: &wire.AddressPacket{Command: wire.CmdMergeLTPBase + 2}, Sender: "10.0.0.1:6454", Timestamp: now})

	pc := s.port(addr.PortAddress(2))
	require.Equal(t, merge.ModeLTP, pc.MergeMode)
}

func TestIPProgReplyMirrorsAppliedState(t *testing.T) {
	s := New(DefaultConfig())
	effects := Step(s, RxPacket{
		Packet: &wire.IPProgPacket{Command: wire.IPProgCmdEnable | wire.IPProgCmdProgramIP, ProgIP: [4]byte{192, 168, 1, 9}},
		Sender: "10.0.0.1:6454", Timestamp: time.Unix(0, 0),
	})

	var found bool
	for _, e := range effects {
		if tx, ok := e.(TxPacket); ok && tx.Op == wire.OpIpProgReply {
			found = true
		}
	}
	require.True(t, found, "expected an ArtIpProgReply effect, got %+v", effects)
	require.Equal(t, [4]byte{192, 168, 1, 9}, s.Network.IP)
}

func TestTriggerIngressDispatchesAndThrottles(t *testing.T) {
	s := New(DefaultConfig())
	now := time.Unix(0, 0)

	effects := Step(s, RxPacket{Packet: &wire.TriggerPacket{OemFilter: 0xFFFF, Key: 1, SubKey: 2}, Timestamp: now})
	require.NotEmpty(t, effects, "expected effects for an accepted trigger")

	effects = Step(s, RxPacket{Packet: &wire.TriggerPacket{OemFilter: 0xFFFF, Key: 1, SubKey: 2}, Timestamp: now.Add(time.Millisecond)})
	found := false
	for _, e := range effects {
		if cb, ok := e.(CallbackEffect); ok && cb.Key == "trigger" {
			found = true
		}
	}
	require.True(t, found, "expected a trigger callback even when throttled")
}

func TestTickRunsFailsafeSweep(t *testing.T) {
	s := New(DefaultConfig())
	s.Config.Failsafe.Enabled = true
	s.Failsafe.Config.Enabled = true
	now := time.Unix(0, 0)
	port := addr.Compose(0, 0, 1)

	Step(s, RxPacket{Packet: &wire.DMXPacket{Universe: 1, Data: []byte{0x11, 0x22}}, Sender: "a", Timestamp: now})
	s.Failsafe.SetMode(port, failsafe.ModeZero)

	effects := Step(s, Tick{Timestamp: now.Add(10 * time.Second)})
	var sawFailsafe bool
	for _, e := range effects {
		if _, ok := e.(DMXFrameEffect); ok {
			sawFailsafe = true
		}
	}
	require.True(t, sawFailsafe, "expected a failsafe substitution frame, got %+v", effects)
}

func TestCommandSendDMXAssignsSequence(t *testing.T) {
	s := New(DefaultConfig())
	now := time.Unix(0, 0)

	e1 := Step(s, Command{Name: "send-dmx", Port: uint16(addr.Compose(0, 0, 0)), Data: []byte{9}, Timestamp: now})
	var seq uint8
	for _, e := range e1 {
		if f, ok := e.(DMXFrameEffect); ok {
			seq = f.Sequence
		}
	}
	require.Equal(t, uint8(1), seq, "first send-dmx sequence")
}

func TestCommandSendRdmRequiresTarget(t *testing.T) {
	s := New(DefaultConfig())
	effects := Step(s, Command{Name: "send-rdm", Timestamp: time.Unix(0, 0)})
	require.Len(t, effects, 1)
	_, ok := effects[0].(LogEffect)
	require.True(t, ok, "got %+v, want LogEffect", effects[0])
}

func TestCommandSendRdmBuildsUnicastRequest(t *testing.T) {
	s := New(DefaultConfig())
	port := addr.Compose(1, 2, 3)
	effects := Step(s, Command{
		Name:      "send-rdm",
		Port:      uint16(port),
		Data:      []byte{wire.RdmClassSet, 0xAA, 0xBB},
		Message:   "10.0.0.9:6454",
		Timestamp: time.Unix(0, 0),
	})
	require.Len(t, effects, 1)
	tx, ok := effects[0].(TxPacket)
	require.True(t, ok, "got %+v, want TxPacket", effects[0])
	require.False(t, tx.Broadcast, "ArtRdm must never be broadcast")
	require.Equal(t, "10.0.0.9:6454", tx.Target)

	decoded, err := wire.Decode(tx.Data)
	require.NoError(t, err)
	rdmPkt, ok := decoded.(*wire.RdmPacket)
	require.True(t, ok, "got %T, want *wire.RdmPacket", decoded)
	require.Equal(t, uint8(wire.RdmClassSet), rdmPkt.CommandClass)
	require.Equal(t, port.Net(), rdmPkt.Net)
	require.Equal(t, port.SubNet()<<4|port.Universe(), rdmPkt.SubUni)
}

func TestCommandApplyStateUpdatesIdentity(t *testing.T) {
	s := New(DefaultConfig())
	effects := Step(s, Command{
		Name:      "apply-state",
		Port:      uint16(addr.Compose(5, 6, 0)),
		Message:   "new-name",
		Timestamp: time.Unix(0, 0),
	})
	require.Equal(t, "new-name", s.Identity.ShortName)
	require.Equal(t, uint8(5), s.Identity.NetSwitch)
	require.Equal(t, uint8(6), s.Identity.SubSwitch)
	require.Len(t, effects, 1)
}

func TestUnknownOpcodeProducesGenericCallback(t *testing.T) {
	s := New(DefaultConfig())
	effects := Step(s, RxPacket{Packet: &wire.GenericPacket{Op: wire.OpMedia}, Timestamp: time.Unix(0, 0)})
	require.Len(t, effects, 1)
	cb, ok := effects[0].(CallbackEffect)
	require.True(t, ok)
	require.Equal(t, "unhandled", cb.Key)
}

func TestTodRequestRepliesUnicastNotBroadcast(t *testing.T) {
	s := New(DefaultConfig())
	port := addr.Compose(1, 2, 3)
	s.TOD.SetUids(port, [][6]byte{{1, 2, 3, 4, 5, 6}})

	effects := Step(s, RxPacket{
		Packet:    &wire.TodRequestPacket{Net: 1, Addresses: []uint8{uint8(2)<<4 | 3}},
		Sender:    "10.0.0.7:6454",
		Timestamp: time.Unix(0, 0),
	})

	require.Len(t, effects, 1)
	tx, ok := effects[0].(TxPacket)
	require.True(t, ok, "got %+v, want TxPacket", effects[0])
	require.Equal(t, wire.OpTodData, tx.Op)
	require.False(t, tx.Broadcast, "ArtTodData must never be broadcast")
	require.Equal(t, "10.0.0.7:6454", tx.Target)
	require.True(t, tx.Reply)

	decoded, err := wire.Decode(tx.Data)
	require.NoError(t, err)
	data, ok := decoded.(*wire.TodDataPacket)
	require.True(t, ok)
	require.Equal(t, [][6]byte{{1, 2, 3, 4, 5, 6}}, data.Uids)
}

func TestTodControlAlwaysRepliesAndSchedulesOnFlush(t *testing.T) {
	s := New(DefaultConfig())
	port := addr.Compose(1, 2, 3)
	s.TOD.SetUids(port, [][6]byte{{9, 9, 9, 9, 9, 9}})

	effects := Step(s, RxPacket{
		Packet:    &wire.TodControlPacket{Net: 1, Command: rdm.ControlFlush, Address: uint8(2)<<4 | 3},
		Sender:    "10.0.0.8:6454",
		Timestamp: time.Unix(0, 0),
	})

	var tx *TxPacket
	var logged bool
	for i := range effects {
		if p, ok := effects[i].(TxPacket); ok {
			tx = &p
		}
		if _, ok := effects[i].(LogEffect); ok {
			logged = true
		}
	}
	require.NotNil(t, tx, "ArtTodControl must always reply with an ArtTodData snapshot, got %+v", effects)
	require.Equal(t, wire.OpTodData, tx.Op)
	require.False(t, tx.Broadcast)
	require.Equal(t, "10.0.0.8:6454", tx.Target)
	require.True(t, logged, "ControlFlush should schedule a full discovery and log it")
}

func TestTodControlIncOnRepliesWithoutScheduling(t *testing.T) {
	s := New(DefaultConfig())
	effects := Step(s, RxPacket{
		Packet:    &wire.TodControlPacket{Net: 0, Command: rdm.ControlIncOn, Address: 0},
		Sender:    "10.0.0.8:6454",
		Timestamp: time.Unix(0, 0),
	})

	require.Len(t, effects, 1, "IncOn should only reply, not schedule a discovery")
	tx, ok := effects[0].(TxPacket)
	require.True(t, ok, "got %+v, want TxPacket", effects[0])
	require.Equal(t, wire.OpTodData, tx.Op)
	require.Equal(t, "10.0.0.8:6454", tx.Target)
}
