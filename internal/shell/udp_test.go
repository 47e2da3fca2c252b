package shell

import (
	"net"
	"testing"
	"time"

	"github.com/gopatchy/artnode/artnet/machine"
	"github.com/gopatchy/artnode/artnet/wire"
	"github.com/gopatchy/artnode/internal/logging"
)

type recordingSink struct {
	frames []machine.DMXFrameEffect
}

func (s *recordingSink) Output(f machine.DMXFrameEffect) {
	s.frames = append(s.frames, f)
}

func testNode(t *testing.T) (*Node, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	node, err := NewNode(machine.DefaultConfig(), "127.0.0.1:0", nil, logging.New("error", "console"), nil, sink, "")
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	t.Cleanup(func() { node.Close() })
	return node, sink
}

func TestHandleDecodedEmitsDMXFrame(t *testing.T) {
	node, sink := testNode(t)
	pkt := &wire.DMXPacket{Universe: 1, Data: []byte{1, 2, 3}}
	node.handleDecoded(&net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 6454}, pkt, time.Unix(0, 0))

	if len(sink.frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(sink.frames))
	}
	if string(sink.frames[0].Data) != "\x01\x02\x03" {
		t.Fatalf("unexpected frame data: %v", sink.frames[0].Data)
	}
}

func TestResolveTargetsBroadcastsWhenNoTarget(t *testing.T) {
	node, _ := testNode(t)
	node.broadcast = []*net.UDPAddr{{IP: net.IPv4bcast, Port: wire.Port}}

	targets, err := node.resolveTargets(machine.TxPacket{Broadcast: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 1 || !targets[0].IP.Equal(net.IPv4bcast) {
		t.Fatalf("unexpected targets: %v", targets)
	}
}

func TestResolveTargetsUsesExplicitAddress(t *testing.T) {
	node, _ := testNode(t)
	targets, err := node.resolveTargets(machine.TxPacket{Target: "10.0.0.9:6454"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 1 || targets[0].Port != 6454 {
		t.Fatalf("unexpected targets: %v", targets)
	}
}

func TestEnqueueDeliversCommand(t *testing.T) {
	node, sink := testNode(t)
	node.Enqueue(machine.Command{Name: "send-dmx", Port: 0, Data: []byte{9}})

	if len(sink.frames) != 1 {
		t.Fatalf("got %d frames, want 1 from send-dmx command", len(sink.frames))
	}
}
