package wire

// PollPacket is ArtPoll (opcode 0x2000). Flags bit meanings per spec.md
// §4.2: 0 suppress-delay, 1 reply-on-change, 2 diag-request, 3
// diag-unicast, 4 VLC-disable, 5 targeted-mode.
type PollPacket struct {
	ProtocolVersion  uint16
	Flags            uint8
	DiagPriority     uint8
	TargetPortTop    uint16
	TargetPortBottom uint16
}

func (p *PollPacket) Opcode() Opcode { return OpPoll }

const (
	FlagSuppressDelay  = 1 << 0
	FlagReplyOnChange  = 1 << 1
	FlagDiagRequest    = 1 << 2
	FlagDiagUnicast    = 1 << 3
	FlagVLCDisable     = 1 << 4
	FlagTargetedMode   = 1 << 5
)

const pollLen = 18

func decodePoll(r *reader) (*PollPacket, error) {
	version, ok1 := r.u16be()
	flags, ok2 := r.u8()
	prio, ok3 := r.u8()
	top, ok4 := r.u16be()
	bottom, ok5 := r.u16be()
	if !(ok1 && ok2 && ok3 && ok4 && ok5) {
		return nil, errTruncated(uint16(OpPoll), pollLen, r.pos)
	}
	return &PollPacket{
		ProtocolVersion:  version,
		Flags:            flags,
		DiagPriority:     prio,
		TargetPortTop:    top,
		TargetPortBottom: bottom,
	}, nil
}

func encodePoll(p *PollPacket) []byte {
	w := newWriter(pollLen)
	header(w, OpPoll)
	w.u8(p.Flags)
	w.u8(p.DiagPriority)
	w.u16be(p.TargetPortTop)
	w.u16be(p.TargetPortBottom)
	return w.buf
}

// PollReplyPacket is ArtPollReply (opcode 0x2100): a full node-identity
// snapshot for one port page. The IP address and Port fields are the one
// exception to "all multibyte fields are big-endian" (spec.md §6): Port is
// transmitted little-endian.
type PollReplyPacket struct {
	IP          [4]byte
	Port        uint16 // little-endian on the wire
	VersionInfo uint16
	NetSwitch   uint8
	SubSwitch   uint8
	Oem         uint16
	UbeaVersion uint8
	Status1     uint8
	EstaMan     uint16
	ShortName   string
	LongName    string
	NodeReport  string
	NumPorts    uint16
	PortTypes   [4]byte
	GoodInput   [4]byte
	GoodOutputA [4]byte
	GoodOutputB [4]byte
	SwIn        [4]byte
	SwOut       [4]byte
	SwVideo     uint8
	SwMacro     uint8
	SwRemote    uint8
	Style       uint8
	MAC         [6]byte
	BindIP      [4]byte
	BindIndex   uint8
	Status2     uint8
	Status3     uint8
	Priority    uint8
	RefreshRate uint16
	BgQueuePolicy uint8
}

func (p *PollReplyPacket) Opcode() Opcode { return OpPollReply }

const (
	pollReplyFillerLen = 20
	pollReplyLen       = 239
)

func decodePollReply(r *reader) (*PollReplyPacket, error) {
	ip, ok1 := r.ipv4()
	port, ok2 := r.u16le()
	version, ok3 := r.u16be()
	netSwitch, ok4 := r.u8()
	subSwitch, ok5 := r.u8()
	oem, ok6 := r.u16be()
	ubea, ok7 := r.u8()
	status1, ok8 := r.u8()
	estaMan, ok9 := r.u16be()
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7 && ok8 && ok9) {
		return nil, errTruncated(uint16(OpPollReply), pollReplyLen, r.pos)
	}
	shortName, ok := r.fixedString(18)
	if !ok {
		return nil, errTruncated(uint16(OpPollReply), pollReplyLen, r.pos)
	}
	longName, ok := r.fixedString(64)
	if !ok {
		return nil, errTruncated(uint16(OpPollReply), pollReplyLen, r.pos)
	}
	nodeReport, ok := r.fixedString(64)
	if !ok {
		return nil, errTruncated(uint16(OpPollReply), pollReplyLen, r.pos)
	}
	numPorts, ok := r.u16be()
	if !ok {
		return nil, errTruncated(uint16(OpPollReply), pollReplyLen, r.pos)
	}

	p := &PollReplyPacket{
		IP: ip, Port: port, VersionInfo: version, NetSwitch: netSwitch,
		SubSwitch: subSwitch, Oem: oem, UbeaVersion: ubea, Status1: status1,
		EstaMan: estaMan, ShortName: shortName, LongName: longName,
		NodeReport: nodeReport, NumPorts: numPorts,
	}

	fields := []*[4]byte{&p.PortTypes, &p.GoodInput, &p.GoodOutputA, &p.GoodOutputB, &p.SwIn, &p.SwOut}
	for _, f := range fields {
		b, ok := r.fixedBytes(4)
		if !ok {
			return nil, errTruncated(uint16(OpPollReply), pollReplyLen, r.pos)
		}
		copy(f[:], b)
	}

	p.SwVideo, _ = r.u8()
	p.SwMacro, _ = r.u8()
	p.SwRemote, _ = r.u8()
	p.Style, _ = r.u8()

	mac, ok := r.fixedBytes(6)
	if !ok {
		return nil, errTruncated(uint16(OpPollReply), pollReplyLen, r.pos)
	}
	copy(p.MAC[:], mac)

	bindIP, ok := r.ipv4()
	if !ok {
		return nil, errTruncated(uint16(OpPollReply), pollReplyLen, r.pos)
	}
	p.BindIP = bindIP

	p.BindIndex, _ = r.u8()
	p.Status2, _ = r.u8()
	p.Status3, _ = r.u8()
	p.Priority, _ = r.u8()
	p.RefreshRate, _ = r.u16be()
	p.BgQueuePolicy, _ = r.u8()

	return p, nil
}

func encodePollReply(p *PollReplyPacket) []byte {
	w := newWriter(pollReplyLen)
	w.bytes(HeaderID[:])
	w.u16le(uint16(OpPollReply))
	w.ipv4(p.IP)
	w.u16le(p.Port)
	w.u16be(p.VersionInfo)
	w.u8(p.NetSwitch)
	w.u8(p.SubSwitch)
	w.u16be(p.Oem)
	w.u8(p.UbeaVersion)
	w.u8(p.Status1)
	w.u16be(p.EstaMan)
	w.fixedString(p.ShortName, 18)
	w.fixedString(p.LongName, 64)
	w.fixedString(p.NodeReport, 64)
	w.u16be(p.NumPorts)
	w.bytes(p.PortTypes[:])
	w.bytes(p.GoodInput[:])
	w.bytes(p.GoodOutputA[:])
	w.bytes(p.GoodOutputB[:])
	w.bytes(p.SwIn[:])
	w.bytes(p.SwOut[:])
	w.u8(p.SwVideo)
	w.u8(p.SwMacro)
	w.u8(p.SwRemote)
	w.u8(p.Style)
	w.bytes(p.MAC[:])
	w.ipv4(p.BindIP)
	w.u8(p.BindIndex)
	w.u8(p.Status2)
	w.u8(p.Status3)
	w.u8(p.Priority)
	w.u16be(p.RefreshRate)
	w.u8(p.BgQueuePolicy)
	w.zero(pollReplyFillerLen)
	return w.buf
}
