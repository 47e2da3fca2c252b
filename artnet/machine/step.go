package machine

import (
	"net"

	"github.com/gopatchy/artnode/artnet/wire"
)

// Step is the pure dispatcher spec.md §4.2 names: no I/O, it only mutates
// the engines inside state and returns the effects the shell must
// perform.
func Step(s *State, ev Event) []Effect {
	switch e := ev.(type) {
	case RxPacket:
		return stepRxPacket(s, e)
	case Tick:
		return stepTick(s, e)
	case ConfigUpdate:
		return stepConfig(s, e)
	case Command:
		return stepCommand(s, e)
	default:
		return nil
	}
}

// stepRxPacket dispatches a decoded datagram by its concrete wire type,
// per spec.md §4.2 "dispatch is by opcode for rx_packet".
func stepRxPacket(s *State, e RxPacket) []Effect {
	switch p := e.Packet.(type) {
	case *wire.DMXPacket:
		return handleDMX(s, e.Timestamp, e.Sender, p)
	case *wire.SyncPacket:
		return handleSync(s, e.Timestamp, e.Sender)
	case *wire.PollPacket:
		return handlePoll(s, e.Timestamp, e.Sender, p)
	case *wire.AddressPacket:
		return handleAddress(s, e.Timestamp, e.Sender, p)
	case *wire.IPProgPacket:
		return handleIPProg(s, e.Sender, p)
	case *wire.TriggerPacket:
		return handleTrigger(s, e.Timestamp, p)
	case *wire.CommandPacket:
		return handleCommand(s, p)
	case *wire.FirmwareMasterPacket:
		return handleFirmwareMaster(s, e.Timestamp, e.Sender, p)
	case *wire.TodRequestPacket:
		return handleTodRequest(s, e.Sender, p)
	case *wire.TodControlPacket:
		return handleTodControl(s, e.Timestamp, e.Sender, p)
	case *wire.RdmPacket:
		return []Effect{CallbackEffect{Key: "rdm", Payload: rxPayload(p, e.Sender)}}
	case *wire.RdmSubPacket:
		return []Effect{CallbackEffect{Key: "rdm-sub", Payload: rxPayload(p, e.Sender)}}
	case *wire.DiagDataPacket:
		return []Effect{CallbackEffect{Key: "artdiagdata", Payload: rxPayload(p, e.Sender)}}
	default:
		return []Effect{CallbackEffect{Key: string(opcodeKeyword(e.Packet.Opcode())), Payload: rxPayload(e.Packet, e.Sender)}}
	}
}

type rxEnvelope struct {
	Packet interface{}
	Sender string
}

func rxPayload(p wire.Packet, sender string) rxEnvelope {
	return rxEnvelope{Packet: p, Sender: sender}
}

func opcodeKeyword(op wire.Opcode) string {
	switch op {
	case wire.OpPollReply:
		return "artpollreply"
	case wire.OpDataReply:
		return "artdatareply"
	case wire.OpFirmwareReply:
		return "artfirmwarereply"
	case wire.OpTimeCode:
		return "arttimecode"
	case wire.OpInput:
		return "input"
	case wire.OpDirectory, wire.OpDirectoryReply:
		return "directory"
	default:
		return "unhandled"
	}
}

// splitSender parses a "host:port" sender address, tolerating a bare
// host (falls back to the standard Art-Net port).
func splitSender(sender string) (host string, port uint16) {
	h, p, err := net.SplitHostPort(sender)
	if err != nil {
		return sender, wire.Port
	}
	var pn int
	for _, c := range p {
		if c < '0' || c > '9' {
			return h, wire.Port
		}
		pn = pn*10 + int(c-'0')
	}
	return h, uint16(pn)
}
