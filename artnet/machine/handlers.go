package machine

import (
	"time"

	"github.com/gopatchy/artnode/artnet/addr"
	"github.com/gopatchy/artnode/artnet/failsafe"
	"github.com/gopatchy/artnode/artnet/firmware"
	"github.com/gopatchy/artnode/artnet/merge"
	"github.com/gopatchy/artnode/artnet/program"
	"github.com/gopatchy/artnode/artnet/rdm"
	"github.com/gopatchy/artnode/artnet/trigger"
	"github.com/gopatchy/artnode/artnet/wire"
)

// handleDMX implements spec.md §4.2's ArtDmx ingress: compute the
// Port-Address, remember the peer, stage-or-merge depending on sync
// state, and clear any failsafe playback the real data now supersedes.
// Port-Address 0 is accepted with a warning log effect.
func handleDMX(s *State, now time.Time, sender string, p *wire.DMXPacket) []Effect {
	port := addr.Compose(p.Net, p.SubNet, p.Universe)
	s.Sync.NoteDMXSender(port, sender)

	var effects []Effect
	if warn, _ := addr.Validate(port); warn {
		effects = append(effects, LogEffect{Level: "warn", Message: "ArtDmx on deprecated Port-Address 0", Data: map[string]interface{}{"sender": sender}})
	}

	if s.Sync.Active() {
		s.Sync.Stage(now, port, sender, p.Data)
		return append(effects, LogEffect{Level: "debug", Message: "staged ArtDmx pending sync", Data: map[string]interface{}{"port": port}})
	}

	return append(effects, mergeAndEmit(s, now, port, sender, p.Physical, p.Sequence, p.Data)...)
}

func mergeAndEmit(s *State, now time.Time, port addr.PortAddress, sender string, physical uint8, sequence uint8, data []byte) []Effect {
	pc := s.port(port)
	result := s.Merge.Ingest(now, port, merge.SourceKey{Host: sender, Physical: physical}, data, pc.MergeMode)

	var effects []Effect
	effects = append(effects,
		CallbackEffect{Key: "dmx", Payload: map[string]interface{}{"port": port, "sender": sender, "data": result.Output, "rejected": result.Rejected}},
		DMXFrameEffect{Port: port, Sequence: sequence, Data: result.Output, Length: int(result.Length)},
	)

	if wasPlaying := s.Failsafe.NoteRealOutput(now, port, result.Output); wasPlaying {
		effects = append(effects, LogEffect{Level: "info", Message: "failsafe playback cleared by live output", Data: map[string]interface{}{"port": port}})
	}
	return effects
}

// handleSync implements spec.md §4.2/§4.4's ArtSync ingress: release the
// buffer in received_at order through merge when accepted.
func handleSync(s *State, now time.Time, sender string) []Effect {
	outcome := s.Sync.HandleSync(now, sender)
	if outcome.Ignored {
		return []Effect{LogEffect{Level: "debug", Message: "ArtSync ignored", Data: map[string]interface{}{"reason": outcome.Reason}}}
	}

	var effects []Effect
	for _, frame := range outcome.Frames {
		effects = append(effects, mergeAndEmit(s, now, frame.Port, frame.Sender, 0, 0, frame.Data)...)
	}
	effects = append(effects, CallbackEffect{Key: "sync", Payload: map[string]interface{}{"frames": len(outcome.Frames)}})
	return effects
}

// handlePoll implements spec.md §4.2/§4.6's ArtPoll ingress: update
// subscriber state, enforce reply-on-change limits, and queue a reply. The
// reply is sent at once when the poller set suppress-delay; otherwise it is
// handed back as a ScheduleEffect whose DelayMs is always 0 (no random
// delay is chosen).
func handlePoll(s *State, now time.Time, sender string, p *wire.PollPacket) []Effect {
	host, port := splitSender(sender)
	result := s.Discovery.HandlePoll(now, host, port, p.Flags, p.DiagPriority, addr.PortAddress(p.TargetPortBottom), addr.PortAddress(p.TargetPortTop))

	var effects []Effect
	for _, demoted := range result.Demoted {
		effects = append(effects, LogEffect{Level: "info", Message: "reply-on-change subscriber demoted", Data: map[string]interface{}{"host": demoted.Host}})
	}

	reply := buildPollReply(s)
	data := wire.Encode(reply)
	tx := TxPacket{Op: wire.OpPollReply, Data: data, Target: sender}

	if result.Peer.SuppressDelay {
		effects = append(effects, tx)
	} else {
		effects = append(effects, ScheduleEffect{DelayMs: 0, Event: Command{Name: "send-poll-reply", Data: data, Message: sender, Timestamp: now}})
	}

	if result.DiagRegistered {
		s.Diag.Refresh(now, sender)
	}
	return effects
}

// buildPollReply assembles an ArtPollReply snapshot from the subset of
// node identity machine.State tracks. Fields with no runtime equivalent
// (MAC, bind-IP) are left zero; the shell transmits the encoded reply
// unchanged.
func buildPollReply(s *State) *wire.PollReplyPacket {
	numPorts := uint16(len(s.ports))
	if numPorts > 4 {
		numPorts = 4
	}
	var goodOutputA [4]byte
	goodOutputA[0] = 0 // sent as zero: the merge engine's two-source state is not reported, so bit 0x08 is never set

	return &wire.PollReplyPacket{
		IP:          s.Network.IP,
		Port:        wire.Port,
		VersionInfo: 1,
		NetSwitch:   s.Identity.NetSwitch,
		SubSwitch:   s.Identity.SubSwitch,
		Oem:         s.Config.NodeOem,
		EstaMan:     s.Config.NodeEsta,
		ShortName:   s.Identity.ShortName,
		LongName:    s.Identity.LongName,
		NumPorts:    numPorts,
		GoodOutputA: goodOutputA,
		SwIn:        s.Identity.SwIn,
		SwOut:       s.Identity.SwOut,
		BindIndex:   1,
		Priority:    s.Identity.AcnPriority,
	}
}

// handleAddress implements spec.md §4.2/§4.9's ArtAddress ingress: apply
// the flagged-update fields, dispatch the command byte, and fan out an
// updated ArtPollReply to reply-on-change peers.
func handleAddress(s *State, now time.Time, sender string, p *wire.AddressPacket) []Effect {
	next, changes, info := program.Apply(s.Identity, s.Config.Defaults, p)
	s.Identity = next

	var effects []Effect
	for _, c := range changes {
		effects = append(effects, LogEffect{Level: "info", Message: "identity field updated", Data: map[string]interface{}{"field": c.Field, "from": c.From, "to": c.To}})
	}

	if info.MergeDirective != nil {
		pc := s.port(addr.PortAddress(info.MergeDirective.Port))
		if info.MergeDirective.Mode == "htp" {
			pc.MergeMode = merge.ModeHTP
		} else {
			pc.MergeMode = merge.ModeLTP
		}
	}

	if info.RdmDirective != nil {
		s.port(addr.PortAddress(info.RdmDirective.Port)).RdmEnabled = info.RdmDirective.Enabled
	}

	if info.Command == wire.CmdCancelMerge {
		for pa := range s.ports {
			s.Merge.ArmCancelMerge(pa)
		}
	}

	if info.Applied && info.Port >= 0 {
		pc := s.port(addr.PortAddress(info.Port))
		switch info.Command &^ 0x03 {
		case wire.CmdPortOutputBase:
			pc.Output = true
		case wire.CmdPortInputBase:
			pc.Output = false
		case wire.CmdProtocolArtNetBase:
			pc.Protocol = "artnet"
		case wire.CmdProtocolSacnBase:
			pc.Protocol = "sacn"
		case wire.CmdStyleDeltaBase:
			pc.Style = "delta"
		case wire.CmdStyleContinuousBase:
			pc.Style = "continuous"
		}
	}

	if info.Command >= wire.CmdBgQueuePolicyBase && info.Command <= wire.CmdBgQueuePolicyTop {
		s.Background.Config.Policy = info.Command & 0x0F
	}

	if info.FlushSubscribers && info.Port >= 0 {
		s.Sync.Drop(addr.PortAddress(info.Port))
	}

	if info.FailsafeDirective != "" {
		effects = append(effects, applyFailsafeDirective(s, info.FailsafeDirective)...)
	}

	ackPriority := info.Priority()
	effects = append(effects, LogEffect{Level: "info", Message: info.Message, Data: map[string]interface{}{"command": info.Command, "priority": ackPriority}})

	if s.Diag.Allow(now, sender) {
		ack := &wire.DiagDataPacket{Priority: ackPriority, Text: []byte(info.Message)}
		effects = append(effects, TxPacket{Op: wire.OpDiagData, Data: wire.Encode(ack), Target: sender, Reply: true})
	}

	reply := wire.Encode(buildPollReply(s))
	effects = append(effects, TxPacket{Op: wire.OpPollReply, Data: reply, Target: sender, Reply: true})
	for _, peer := range s.Discovery.ReplyOnChangePeers() {
		effects = append(effects, TxPacket{Op: wire.OpPollReply, Data: reply, Target: peer.Host})
	}

	return effects
}

func applyFailsafeDirective(s *State, directive string) []Effect {
	var effects []Effect
	switch directive {
	case "hold":
		for pa := range s.ports {
			s.Failsafe.SetMode(pa, failsafe.ModeHold)
		}
	case "zero":
		for pa := range s.ports {
			s.Failsafe.SetMode(pa, failsafe.ModeZero)
		}
	case "full":
		for pa := range s.ports {
			s.Failsafe.SetMode(pa, failsafe.ModeFull)
		}
	case "scene":
		for pa := range s.ports {
			s.Failsafe.SetMode(pa, failsafe.ModeScene)
		}
	case "record":
		for pa := range s.ports {
			if data := s.Merge.LastOutput(pa); data != nil {
				s.Failsafe.RecordScene(pa, data)
			}
		}
		effects = append(effects, LogEffect{Level: "info", Message: "failsafe scene recorded"})
	}
	return effects
}

// handleIPProg implements spec.md §4.2's ArtIpProg ingress.
func handleIPProg(s *State, sender string, p *wire.IPProgPacket) []Effect {
	s.Network = program.ApplyIPProg(s.Network, s.Config.NetworkDefaults, p)
	reply := program.Reply(s.Network)
	return []Effect{
		CallbackEffect{Key: "ipprog", Payload: s.Network},
		TxPacket{Op: wire.OpIpProgReply, Data: wire.Encode(reply), Target: sender, Reply: true},
	}
}

// handleTrigger implements spec.md §4.2's ArtTrigger ingress.
func handleTrigger(s *State, now time.Time, p *wire.TriggerPacket) []Effect {
	result := s.Trigger.Handle(now, p.OemFilter, p.Key, p.SubKey)
	if !result.Accepted {
		return nil
	}
	return []Effect{
		CallbackEffect{Key: "trigger", Payload: result},
		LogEffect{Level: "info", Message: "trigger", Data: map[string]interface{}{"ack": trigger.AckMessage(result)}},
	}
}

// handleCommand implements spec.md §4.2's ArtCommand ingress.
func handleCommand(s *State, p *wire.CommandPacket) []Effect {
	directives, ok := trigger.ParseCommand(s.Config.NodeEsta, p.EstaManFilter, p.Data)
	if !ok {
		return nil
	}
	labels := trigger.PortLabels(directives)
	for _, l := range labels {
		pc := s.port(addr.PortAddress(l.Port))
		if l.Output {
			pc.OutputLabel = l.Text
		} else {
			pc.InputLabel = l.Text
		}
	}
	return []Effect{CallbackEffect{Key: "command", Payload: directives}}
}

// handleFirmwareMaster implements spec.md §4.7's ArtFirmwareMaster ingress.
func handleFirmwareMaster(s *State, now time.Time, sender string, p *wire.FirmwareMasterPacket) []Effect {
	host, port := splitSender(sender)
	result := s.Firmware.HandleBlock(now, firmware.SessionKey{Host: host, Port: port}, p)

	reply := &wire.FirmwareReplyPacket{Type: result.Reply}
	effects := []Effect{TxPacket{Op: wire.OpFirmwareReply, Data: wire.Encode(reply), Target: sender, Reply: true}}

	if result.Fail != "" {
		effects = append(effects, LogEffect{Level: "warn", Message: "firmware transfer failed", Data: map[string]interface{}{"reason": result.Fail}})
	}
	if result.Completed {
		effects = append(effects, CallbackEffect{Key: "firmware", Payload: result.Session})
	}
	return effects
}

// todDataEffects builds the unicast ArtTodData reply (one TxPacket per
// UID page) for pa, per spec.md §6's broadcast policy: ArtTodData must
// never be broadcast, so every page is addressed straight back to sender.
func todDataEffects(s *State, sender string, pa addr.PortAddress) []Effect {
	var effects []Effect
	pages := s.TOD.Pages(pa, wire.MaxTodUIDsPerPacket)
	for _, page := range pages {
		data := wire.Encode(&wire.TodDataPacket{
			Net: pa.Net(), Address: uint8(pa.SubNet())<<4 | pa.Universe(),
			CommandResponse: s.TOD.CommandResponse(pa), UidTotal: uint16(len(page)), Uids: page,
		})
		effects = append(effects, TxPacket{Op: wire.OpTodData, Data: data, Target: sender, Reply: true})
	}
	return effects
}

// handleTodRequest implements spec.md §4.8's ArtTodRequest ingress.
func handleTodRequest(s *State, sender string, p *wire.TodRequestPacket) []Effect {
	ports := p.Addresses
	var targets []addr.PortAddress
	if len(ports) == 0 {
		targets = s.TOD.Ports()
	} else {
		for _, a := range ports {
			targets = append(targets, addr.Compose(p.Net, (a>>4)&0x0F, a&0x0F))
		}
	}

	var effects []Effect
	for _, pa := range targets {
		effects = append(effects, todDataEffects(s, sender, pa)...)
	}
	return effects
}

// handleTodControl implements spec.md §4.8's ArtTodControl ingress: the
// control is always followed by a TOD snapshot reply, whichever command
// ran, plus a full-discovery schedule when ApplyControl calls for one.
func handleTodControl(s *State, now time.Time, sender string, p *wire.TodControlPacket) []Effect {
	pa := addr.Compose(p.Net, (p.Address>>4)&0x0F, p.Address&0x0F)
	scheduleFull := s.TOD.ApplyControl(pa, p.Command)

	effects := todDataEffects(s, sender, pa)
	if scheduleFull {
		s.Scheduler.Schedule(rdm.ModeFull, []addr.PortAddress{pa}, "tod-control-flush", now)
		effects = append(effects, LogEffect{Level: "info", Message: "full RDM discovery scheduled", Data: map[string]interface{}{"port": pa}})
	}
	return effects
}
