package wire

// AddressPacket is ArtAddress (opcode 0x6000): remote node-identity/port
// programming. Each of NetSwitch/SubSwitch/ShortName/LongName/SwIn/SwOut/
// AcnPriority carries the "flagged update" encoding spec.md §4.2
// describes (0 = factory reset, MSB set = apply low bits, else ignore);
// wire.AddressPacket only transports the raw bytes — artnet/program
// interprets them.
type AddressPacket struct {
	ProtocolVersion uint16
	NetSwitch       uint8
	BindIndex       uint8
	ShortName       [18]byte // raw, NOT NUL-trimmed: bit 7 of byte 0 carries the flag
	LongName        [64]byte
	SwIn            [4]byte
	SwOut           [4]byte
	SubSwitch       uint8
	AcnPriority     uint8
	Command         uint8
}

func (p *AddressPacket) Opcode() Opcode { return OpAddress }

const addressLen = 107

func decodeAddress(r *reader) (*AddressPacket, error) {
	version, ok1 := r.u16be()
	netSwitch, ok2 := r.u8()
	bindIndex, ok3 := r.u8()
	if !(ok1 && ok2 && ok3) {
		return nil, errTruncated(uint16(OpAddress), addressLen, r.pos)
	}
	p := &AddressPacket{ProtocolVersion: version, NetSwitch: netSwitch, BindIndex: bindIndex}

	shortName, ok := r.fixedBytes(18)
	if !ok {
		return nil, errTruncated(uint16(OpAddress), addressLen, r.pos)
	}
	copy(p.ShortName[:], shortName)

	longName, ok := r.fixedBytes(64)
	if !ok {
		return nil, errTruncated(uint16(OpAddress), addressLen, r.pos)
	}
	copy(p.LongName[:], longName)

	swIn, ok := r.fixedBytes(4)
	if !ok {
		return nil, errTruncated(uint16(OpAddress), addressLen, r.pos)
	}
	copy(p.SwIn[:], swIn)

	swOut, ok := r.fixedBytes(4)
	if !ok {
		return nil, errTruncated(uint16(OpAddress), addressLen, r.pos)
	}
	copy(p.SwOut[:], swOut)

	subSwitch, ok4 := r.u8()
	acnPriority, ok5 := r.u8()
	command, ok6 := r.u8()
	if !(ok4 && ok5 && ok6) {
		return nil, errTruncated(uint16(OpAddress), addressLen, r.pos)
	}
	p.SubSwitch = subSwitch
	p.AcnPriority = acnPriority
	p.Command = command

	return p, nil
}

func encodeAddress(p *AddressPacket) []byte {
	w := newWriter(addressLen)
	header(w, OpAddress)
	w.u8(p.NetSwitch)
	w.u8(p.BindIndex)
	w.bytes(p.ShortName[:])
	w.bytes(p.LongName[:])
	w.bytes(p.SwIn[:])
	w.bytes(p.SwOut[:])
	w.u8(p.SubSwitch)
	w.u8(p.AcnPriority)
	w.u8(p.Command)
	return w.buf
}

// Art-Net command dispatch table byte values (ArtAddress §4.2).
const (
	CmdCancelMerge      = 0x01
	CmdLedNormal        = 0x02
	CmdLedMute          = 0x03
	CmdLedLocate        = 0x04
	CmdFailsafeHold     = 0x08
	CmdFailsafeZero     = 0x09
	CmdFailsafeFull     = 0x0A
	CmdFailsafeScene    = 0x0B
	CmdFailsafeRecord   = 0x0C
	CmdMergeLTPBase     = 0x10 // + port index 0..3
	CmdMergeLTPTop      = 0x13
	CmdPortOutputBase   = 0x20
	CmdPortOutputTop    = 0x23
	CmdPortInputBase    = 0x30
	CmdPortInputTop     = 0x33
	CmdMergeHTPBase     = 0x50
	CmdMergeHTPTop      = 0x53
	CmdProtocolArtNetBase = 0x60
	CmdProtocolArtNetTop  = 0x63
	CmdProtocolSacnBase   = 0x70
	CmdProtocolSacnTop    = 0x73
	CmdClearOutputBase    = 0x90
	CmdClearOutputTop     = 0x93
	CmdStyleDeltaBase     = 0xA0
	CmdStyleDeltaTop      = 0xA3
	CmdStyleContinuousBase = 0xB0
	CmdStyleContinuousTop  = 0xB3
	CmdRdmEnableBase      = 0xC0
	CmdRdmEnableTop       = 0xC3
	CmdRdmDisableBase     = 0xD0
	CmdRdmDisableTop      = 0xD3
	CmdBgQueuePolicyBase  = 0xE0
	CmdBgQueuePolicyTop   = 0xEF
)
