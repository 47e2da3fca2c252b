// Package shell is the I/O boundary: it owns the UDP socket(s), runs
// machine.Step against real time and real packets, and executes the
// effects Step returns. Grounded on gopatchy-artmap/artnet/receiver.go +
// sender.go (done-channel receive loop, WriteToUDP send, sequence
// tracking) generalized from "call a fixed PacketHandler method" to
// "feed machine.Step and execute whatever Effect values come back".
package shell

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/gopatchy/artnode/artnet/machine"
	"github.com/gopatchy/artnode/artnet/wire"
	"github.com/gopatchy/artnode/internal/logging"
	"github.com/gopatchy/artnode/internal/metrics"
)

// maxDatagram is large enough for any Art-Net 4 packet (ArtFirmwareMaster
// carries the biggest fixed payload: a 40-byte header plus a 512-byte
// block, 552 bytes in all).
const maxDatagram = 2048

// DMXSink receives merged/synced/failsafe DMX output for transmission to
// local hardware (a DMX512 interface, sACN bridge, whatever the caller
// wires in) — Node has no opinion on what happens to it.
type DMXSink interface {
	Output(frame machine.DMXFrameEffect)
}

// Node owns one machine.State plus the UDP socket(s) that feed it events
// and carry out its effects.
type Node struct {
	state *machine.State
	log   *logging.Logger
	mx    *metrics.Registry
	sink  DMXSink

	conn      *net.UDPConn
	pconn     *ipv4.PacketConn
	sendCM    *ipv4.ControlMessage
	broadcast []*net.UDPAddr

	mu       sync.Mutex
	done     chan struct{}
	wg       sync.WaitGroup
	tickEvery time.Duration
}

// NewNode binds listenAddr and prepares a Node ready for Run. ifaceName, if
// non-empty, scopes every broadcast send to that interface via an
// ipv4.PacketConn control message — needed on a multi-homed host where the
// kernel's default route would otherwise pick the wrong NIC for an
// Art-Net broadcast, the way gopatchy-artmap/sacn/sender.go scopes its
// multicast sends with ipv4.PacketConn.SetMulticastInterface.
func NewNode(cfg machine.Config, listenAddr string, broadcast []*net.UDPAddr, log *logging.Logger, mx *metrics.Registry, sink DMXSink, ifaceName string) (*Node, error) {
	addr, err := net.ResolveUDPAddr("udp4", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("shell: resolve listen address %q: %w", listenAddr, err)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("shell: listen %s: %w", listenAddr, err)
	}
	if err := conn.SetWriteBuffer(65536); err != nil {
		conn.Close()
		return nil, fmt.Errorf("shell: set write buffer: %w", err)
	}
	if err := setBroadcastAndReusePort(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("shell: set socket options: %w", err)
	}

	n := &Node{
		state:     machine.New(cfg),
		log:       log,
		mx:        mx,
		sink:      sink,
		conn:      conn,
		broadcast: broadcast,
		done:      make(chan struct{}),
		tickEvery: 100 * time.Millisecond,
	}

	if ifaceName != "" {
		iface, err := net.InterfaceByName(ifaceName)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("shell: resolve bind interface %q: %w", ifaceName, err)
		}
		n.pconn = ipv4.NewPacketConn(conn)
		n.sendCM = &ipv4.ControlMessage{IfIndex: iface.Index}
	}

	return n, nil
}

// setBroadcastAndReusePort applies the two socket options a shared
// Art-Net receiver needs: SO_BROADCAST (datagrams sent to a broadcast
// address are otherwise rejected by the kernel) and SO_REUSEPORT (lets a
// second node process, or gopatchy-artmap itself, bind the same port on
// the same host for side-by-side testing).
func setBroadcastAndReusePort(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		if sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); sockErr != nil {
			return
		}
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// State returns the node's current machine state, for the HTTP
// introspection endpoints. Callers must not mutate it.
func (n *Node) State() *machine.State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// LocalAddr returns the bound UDP address.
func (n *Node) LocalAddr() net.Addr { return n.conn.LocalAddr() }

// Run starts the receive loop and the tick timer; it blocks until ctx is
// canceled or Close is called.
func (n *Node) Run(ctx context.Context) {
	n.wg.Add(2)
	go n.receiveLoop()
	go n.tickLoop(ctx)
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	n.Close()
	n.wg.Wait()
}

// Close stops the receive and tick loops and releases the socket.
func (n *Node) Close() error {
	select {
	case <-n.done:
	default:
		close(n.done)
	}
	return n.conn.Close()
}

func (n *Node) receiveLoop() {
	defer n.wg.Done()
	buf := make([]byte, maxDatagram)

	for {
		select {
		case <-n.done:
			return
		default:
		}

		nRead, src, err := n.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-n.done:
				return
			default:
				n.log.EmitEffect("udp read error", "warn", map[string]interface{}{"error": err.Error()})
				continue
			}
		}
		n.handleDatagram(src, append([]byte(nil), buf[:nRead]...))
	}
}

func (n *Node) handleDatagram(src *net.UDPAddr, data []byte) {
	pkt, err := wire.Decode(data)
	if err != nil {
		if n.mx != nil {
			n.mx.DecodeErrors.WithLabelValues(decodeErrorReason(err)).Inc()
		}
		return
	}
	n.handleDecoded(src, pkt, time.Now())
}

// handleDecoded feeds an already-decoded packet into the state machine,
// shared by the UDP receive loop and PcapNode's capture loop.
func (n *Node) handleDecoded(src *net.UDPAddr, pkt wire.Packet, now time.Time) {
	if n.mx != nil {
		n.mx.PacketsReceived.WithLabelValues(opcodeName(pkt.Opcode())).Inc()
	}
	n.step(machine.RxPacket{Packet: pkt, Sender: src.String(), Timestamp: now})
}

// decodeErrorReason classifies a wire.Decode error for the decode_errors
// metric without leaking the offending bytes into a label value.
func decodeErrorReason(err error) string {
	var werr *wire.Error
	if errors.As(err, &werr) {
		return werr.Kind.String()
	}
	return "unknown"
}

func opcodeName(op wire.Opcode) string {
	return fmt.Sprintf("0x%04X", uint16(op))
}

func (n *Node) tickLoop(ctx context.Context) {
	defer n.wg.Done()
	ticker := time.NewTicker(n.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case now := <-ticker.C:
			n.step(machine.Tick{Timestamp: now})
		}
	}
}

// Enqueue feeds an operator-issued machine.Command through the state
// machine, for cmd/artnode's CLI subcommands and the HTTP control
// endpoints.
func (n *Node) Enqueue(cmd machine.Command) {
	if cmd.Timestamp.IsZero() {
		cmd.Timestamp = time.Now()
	}
	n.step(cmd)
}

func (n *Node) step(ev machine.Event) {
	n.mu.Lock()
	effects := machine.Step(n.state, ev)
	n.mu.Unlock()

	for _, e := range effects {
		n.execute(e)
	}
}

func (n *Node) execute(e machine.Effect) {
	switch eff := e.(type) {
	case machine.TxPacket:
		n.send(eff)
	case machine.LogEffect:
		n.log.EmitEffect(eff.Message, eff.Level, eff.Data)
	case machine.DMXFrameEffect:
		if n.sink != nil {
			n.sink.Output(eff)
		}
	case machine.ScheduleEffect:
		n.schedule(eff)
	case machine.CallbackEffect:
		// No external subscriber wiring beyond logging/metrics at this
		// layer; cmd/artnode's introspection server reads state directly.
	}
}

func (n *Node) send(tx machine.TxPacket) {
	targets, err := n.resolveTargets(tx)
	if err != nil {
		n.log.EmitEffect("failed to resolve tx target", "warn", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, addr := range targets {
		if err := n.writeTo(tx.Data, addr); err != nil {
			n.log.EmitEffect("udp write error", "warn", map[string]interface{}{"target": addr.String(), "error": err.Error()})
			continue
		}
		if n.mx != nil {
			n.mx.PacketsSent.WithLabelValues(opcodeName(tx.Op)).Inc()
		}
	}
}

// writeTo sends through the bound-interface ipv4.PacketConn when one was
// configured (so broadcasts leave on the intended NIC), falling back to
// the plain UDPConn otherwise.
func (n *Node) writeTo(data []byte, addr *net.UDPAddr) error {
	if n.pconn != nil {
		_, err := n.pconn.WriteTo(data, n.sendCM, addr)
		return err
	}
	_, err := n.conn.WriteToUDP(data, addr)
	return err
}

func (n *Node) resolveTargets(tx machine.TxPacket) ([]*net.UDPAddr, error) {
	if tx.Broadcast || (tx.Target == "" && !tx.Reply) {
		return n.broadcast, nil
	}
	addr, err := net.ResolveUDPAddr("udp4", tx.Target)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", tx.Target, err)
	}
	return []*net.UDPAddr{addr}, nil
}

func (n *Node) schedule(eff machine.ScheduleEffect) {
	delay := time.Duration(eff.DelayMs) * time.Millisecond
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-n.done:
			return
		case <-timer.C:
			n.step(eff.Event)
		}
	}()
}
