package machine

import (
	"time"

	"github.com/gopatchy/artnode/artnet/addr"
	"github.com/gopatchy/artnode/artnet/wire"
)

// keepAliveWindow is the half-width of the 800-1000ms keep-alive window
// around Config.KeepAliveIdle. keepAliveFrames consults neither value.
const keepAliveWindow = 100 * time.Millisecond

// stepTick implements spec.md §4.2's tick event: expire ArtSync, run the
// failsafe sweep, emit keep-alive ArtDmx, and advance the RDM schedulers.
func stepTick(s *State, e Tick) []Effect {
	s.Sync.Tick(e.Timestamp)

	var effects []Effect
	for _, sub := range s.Failsafe.Sweep(e.Timestamp) {
		effects = append(effects,
			DMXFrameEffect{Port: sub.Port, Data: sub.Data, Length: len(sub.Data)},
			CallbackEffect{Key: "dmx", Payload: map[string]interface{}{"port": sub.Port, "failsafe": true, "failsafe_mode": sub.Mode}},
		)
		if sub.Engaged {
			effects = append(effects, LogEffect{Level: "info", Message: "failsafe playback engaged", Data: map[string]interface{}{"port": sub.Port, "mode": sub.Mode}})
		}
	}

	effects = append(effects, keepAliveFrames(s, e.Timestamp)...)

	if task := s.Scheduler.Dispatch(e.Timestamp); task != nil {
		effects = append(effects, CallbackEffect{Key: "rdm-discovery-task", Payload: task})
	}

	if batch := s.Background.Poll(e.Timestamp, nil); batch != nil {
		effects = append(effects, CallbackEffect{Key: "rdm-background-poll", Payload: batch})
	}

	return effects
}

// keepAliveFrames re-emits the last merged output for every output port
// that has one, on every tick. It does not track how long a port has been
// quiet: a port that received ArtDmx moments ago is re-emitted too.
func keepAliveFrames(s *State, now time.Time) []Effect {
	var effects []Effect
	for pa, pc := range s.ports {
		if !pc.Output {
			continue
		}
		data := s.Merge.LastOutput(pa)
		if data == nil {
			continue
		}
		effects = append(effects, DMXFrameEffect{Port: pa, Data: data, Length: len(data)})
	}
	return effects
}

func stepConfig(s *State, e ConfigUpdate) []Effect {
	var effects []Effect
	if e.Identity != nil {
		s.Identity.ShortName = e.Identity.ShortName
		s.Identity.LongName = e.Identity.LongName
		s.Identity.NetSwitch = e.Identity.NetSwitch
		s.Identity.SubSwitch = e.Identity.SubSwitch
		effects = append(effects, LogEffect{Level: "info", Message: "identity replaced via config event"})
	}
	if e.Network != nil {
		s.Network.IP = e.Network.IP
		s.Network.Mask = e.Network.Mask
		s.Network.Gateway = e.Network.Gateway
		s.Network.Port = e.Network.Port
		effects = append(effects, LogEffect{Level: "info", Message: "network config replaced via config event"})
	}
	return effects
}

// stepCommand implements spec.md §4.2's operator-intent events.
func stepCommand(s *State, e Command) []Effect {
	switch e.Name {
	case "send-dmx":
		port := addr.PortAddress(e.Port)
		return mergeAndEmit(s, e.Timestamp, port, "local", 0, s.nextSequence(), e.Data)
	case "send-poll-reply":
		return []Effect{TxPacket{Op: wire.OpPollReply, Data: e.Data, Target: e.Message, Reply: true}}
	case "send-sync":
		return []Effect{TxPacket{Op: wire.OpSync, Data: wire.Encode(&wire.SyncPacket{}), Broadcast: true}}
	case "send-diagnostic":
		pkt := &wire.DiagDataPacket{Priority: wire.DiagPriorityLow, Text: []byte(e.Message)}
		var effects []Effect
		for _, peer := range s.Discovery.DiagSubscribers() {
			effects = append(effects, TxPacket{Op: wire.OpDiagData, Data: wire.Encode(pkt), Target: peer.Host})
		}
		return effects
	case "send-rdm":
		return stepSendRdm(s, e)
	case "apply-state":
		return stepApplyState(s, e)
	case "snapshot":
		return []Effect{CallbackEffect{Key: "snapshot", Payload: s}}
	default:
		return []Effect{LogEffect{Level: "warn", Message: "unrecognized command", Data: map[string]interface{}{"name": e.Name}}}
	}
}

// stepSendRdm builds an ArtRdm request for a unicast target (ArtRdm must
// never be broadcast, per spec.md §6's broadcast policy). e.Message is
// the "host:port" target; e.Data's first byte is the RDM command class,
// the rest the RDM command-class+parameter payload.
func stepSendRdm(s *State, e Command) []Effect {
	if e.Message == "" {
		return []Effect{LogEffect{Level: "warn", Message: "send-rdm requires a unicast target", Data: nil}}
	}
	commandClass := uint8(wire.RdmClassGet)
	payload := e.Data
	if len(payload) > 0 {
		commandClass = payload[0]
		payload = payload[1:]
	}
	port := addr.PortAddress(e.Port)
	pkt := &wire.RdmPacket{
		Net:          port.Net(),
		SubUni:       port.SubNet()<<4 | port.Universe(),
		CommandClass: commandClass,
		Data:         payload,
	}
	return []Effect{TxPacket{Op: wire.OpRdm, Data: wire.Encode(pkt), Target: e.Message}}
}

// stepApplyState applies an operator-issued identity override, the
// command-event counterpart to the richer ConfigUpdate event: a quick
// rename/net-switch change without replacing the whole config.
func stepApplyState(s *State, e Command) []Effect {
	if e.Message != "" {
		s.Identity.ShortName = e.Message
	}
	port := addr.PortAddress(e.Port)
	s.Identity.NetSwitch = port.Net()
	s.Identity.SubSwitch = port.SubNet()
	return []Effect{LogEffect{Level: "info", Message: "identity updated via apply-state command", Data: map[string]interface{}{"short_name": s.Identity.ShortName}}}
}

func (s *State) nextSequence() uint8 {
	s.sequence++
	if s.sequence == 0 {
		s.sequence = 1
	}
	return s.sequence
}
