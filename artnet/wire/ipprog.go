package wire

// IPProgPacket is ArtIpProg (opcode 0xF800): remote network programming.
// Command bit meanings per spec.md §4.2: 7 enable, 6 DHCP, 4
// program-gateway, 3 reset-to-default, 2 program-IP, 1 program-mask, 0
// program-port.
type IPProgPacket struct {
	ProtocolVersion uint16
	Command         uint8
	ProgIP          [4]byte
	ProgMask        [4]byte
	ProgPort        uint16
	ProgGateway     [4]byte
}

func (p *IPProgPacket) Opcode() Opcode { return OpIpProg }

const (
	IPProgCmdProgramPort    = 1 << 0
	IPProgCmdProgramMask    = 1 << 1
	IPProgCmdProgramIP      = 1 << 2
	IPProgCmdResetDefault   = 1 << 3
	IPProgCmdProgramGateway = 1 << 4
	IPProgCmdDHCP           = 1 << 6
	IPProgCmdEnable         = 1 << 7
)

const ipProgLen = 30

func decodeIPProg(r *reader) (*IPProgPacket, error) {
	version, ok1 := r.u16be()
	r.skip(2) // filler
	command, ok2 := r.u8()
	r.skip(1) // filler
	if !(ok1 && ok2) {
		return nil, errTruncated(uint16(OpIpProg), ipProgLen, r.pos)
	}
	progIP, ok3 := r.ipv4()
	progMask, ok4 := r.ipv4()
	progPort, ok5 := r.u16be()
	progGw, ok6 := r.ipv4()
	if !(ok3 && ok4 && ok5 && ok6) {
		return nil, errTruncated(uint16(OpIpProg), ipProgLen, r.pos)
	}
	return &IPProgPacket{
		ProtocolVersion: version, Command: command,
		ProgIP: progIP, ProgMask: progMask, ProgPort: progPort, ProgGateway: progGw,
	}, nil
}

func encodeIPProg(p *IPProgPacket) []byte {
	w := newWriter(ipProgLen)
	header(w, OpIpProg)
	w.zero(2)
	w.u8(p.Command)
	w.zero(1)
	w.ipv4(p.ProgIP)
	w.ipv4(p.ProgMask)
	w.u16be(p.ProgPort)
	w.ipv4(p.ProgGateway)
	return w.buf
}

// IPProgReplyPacket is ArtIpProgReply (opcode 0xF900): mirrors the
// resulting network state after an ArtIpProg command.
type IPProgReplyPacket struct {
	ProtocolVersion uint16
	ProgIP          [4]byte
	ProgMask        [4]byte
	ProgPort        uint16
	ProgGateway     [4]byte
	Status          uint8 // bit 6: DHCP active, per spec.md §4.2
}

func (p *IPProgReplyPacket) Opcode() Opcode { return OpIpProgReply }

const (
	IPProgStatusDHCPActive = 1 << 6
)

const (
	ipProgReplyMinLen   = 31
	ipProgReplyTotalLen = 36
)

func decodeIPProgReply(r *reader) (*IPProgReplyPacket, error) {
	version, ok1 := r.u16be()
	r.skip(4) // filler
	progIP, ok2 := r.ipv4()
	progMask, ok3 := r.ipv4()
	progPort, ok4 := r.u16be()
	progGw, ok5 := r.ipv4()
	status, ok6 := r.u8()
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return nil, errTruncated(uint16(OpIpProgReply), ipProgReplyMinLen, r.pos)
	}
	return &IPProgReplyPacket{
		ProtocolVersion: version, ProgIP: progIP, ProgMask: progMask,
		ProgPort: progPort, ProgGateway: progGw, Status: status,
	}, nil
}

func encodeIPProgReply(p *IPProgReplyPacket) []byte {
	w := newWriter(ipProgReplyTotalLen)
	header(w, OpIpProgReply)
	w.zero(4)
	w.ipv4(p.ProgIP)
	w.ipv4(p.ProgMask)
	w.u16be(p.ProgPort)
	w.ipv4(p.ProgGateway)
	w.u8(p.Status)
	w.zero(ipProgReplyTotalLen - ipProgReplyMinLen)
	return w.buf
}
