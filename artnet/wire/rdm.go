package wire

// RDM command-class values recognized inside ArtRdm, per spec.md §4.8.
const (
	RdmClassGet      = 0x20
	RdmClassGetResp  = 0x21
	RdmClassSet      = 0x30
	RdmClassSetResp  = 0x31
)

const (
	rdmHeaderLen = 24
	rdmMaxLen    = 255
)

// RdmPacket is ArtRdm (opcode 0x8300): an encapsulated RDM request or
// response. Data is a zero-copy view into the decode buffer (spec.md §3
// buffer-lifetime contract).
type RdmPacket struct {
	ProtocolVersion uint16
	RdmVersion      uint8
	Net             uint8
	SubUni          uint8
	CommandClass    uint8
	Data            []byte
}

func (p *RdmPacket) Opcode() Opcode { return OpRdm }

func isRecognizedRdmClass(c uint8) bool {
	switch c {
	case RdmClassGet, RdmClassGetResp, RdmClassSet, RdmClassSetResp:
		return true
	default:
		return false
	}
}

func decodeRdm(r *reader, buf []byte) (*RdmPacket, error) {
	if len(buf) < rdmHeaderLen {
		return nil, errTruncated(uint16(OpRdm), rdmHeaderLen, len(buf))
	}
	if len(buf) > rdmMaxLen {
		return nil, &Error{Kind: KindPayloadTooLarge, Opcode: uint16(OpRdm), Expected: rdmMaxLen, Actual: len(buf)}
	}
	version, _ := r.u16be()
	rdmVersion, _ := r.u8()
	net, _ := r.u8()
	subUni, _ := r.u8()
	r.skip(5) // spare
	commandClass, _ := r.u8()
	r.skip(3) // spare

	if !isRecognizedRdmClass(commandClass) {
		return nil, &Error{Kind: KindFieldMismatch, Opcode: uint16(OpRdm), Field: "command-class", Actual: int(commandClass)}
	}

	return &RdmPacket{
		ProtocolVersion: version,
		RdmVersion:      rdmVersion,
		Net:             net,
		SubUni:          subUni,
		CommandClass:    commandClass,
		Data:            buf[rdmHeaderLen:],
	}, nil
}

func encodeRdm(p *RdmPacket) []byte {
	w := newWriter(rdmHeaderLen + len(p.Data))
	header(w, OpRdm)
	w.u8(p.RdmVersion)
	w.u8(p.Net)
	w.u8(p.SubUni)
	w.zero(5)
	w.u8(p.CommandClass)
	w.zero(3)
	w.bytes(p.Data)
	return w.buf
}

const rdmSubHeaderLen = 32

// RdmSubPacket is ArtRdmSub (opcode 0x8400): batched GET/SET across a
// contiguous run of sub-devices, per spec.md §4.8. SubDevice wraps modulo
// 2^16 over SubCount devices.
type RdmSubPacket struct {
	ProtocolVersion uint16
	RdmVersion      uint8
	UID             [6]byte
	CommandClass    uint8
	ParameterID     uint16
	SubDevice       uint16
	SubCount        uint16
	Data            []byte
}

func (p *RdmSubPacket) Opcode() Opcode { return OpRdmSub }

func decodeRdmSub(r *reader, buf []byte) (*RdmSubPacket, error) {
	if len(buf) < rdmSubHeaderLen {
		return nil, errTruncated(uint16(OpRdmSub), rdmSubHeaderLen, len(buf))
	}
	version, _ := r.u16be()
	rdmVersion, _ := r.u8()
	r.skip(1) // filler
	uid, _ := r.uid()
	r.skip(1) // filler
	commandClass, _ := r.u8()
	parameterID, _ := r.u16be()
	subDevice, _ := r.u16be()
	subCount, _ := r.u16be()
	r.skip(4) // spare

	if subCount == 0 {
		return nil, &Error{Kind: KindFieldMismatch, Opcode: uint16(OpRdmSub), Field: "sub-count", Actual: 0}
	}

	payload := buf[rdmSubHeaderLen:]
	if len(payload)%2 != 0 {
		return nil, &Error{Kind: KindUnalignedBlock, Opcode: uint16(OpRdmSub), Actual: len(payload)}
	}

	var wantLen int
	switch commandClass {
	case RdmClassGet, RdmClassSetResp:
		wantLen = 0
	case RdmClassGetResp, RdmClassSet:
		wantLen = 2 * int(subCount)
	default:
		return nil, &Error{Kind: KindFieldMismatch, Opcode: uint16(OpRdmSub), Field: "command-class", Actual: int(commandClass)}
	}
	if len(payload) != wantLen {
		return nil, &Error{Kind: KindFieldMismatch, Opcode: uint16(OpRdmSub), Field: "payload-length", Expected: wantLen, Actual: len(payload)}
	}

	return &RdmSubPacket{
		ProtocolVersion: version, RdmVersion: rdmVersion, UID: uid,
		CommandClass: commandClass, ParameterID: parameterID,
		SubDevice: subDevice, SubCount: subCount, Data: payload,
	}, nil
}

func encodeRdmSub(p *RdmSubPacket) []byte {
	w := newWriter(rdmSubHeaderLen + len(p.Data))
	header(w, OpRdmSub)
	w.u8(p.RdmVersion)
	w.zero(1)
	w.uid(p.UID)
	w.zero(1)
	w.u8(p.CommandClass)
	w.u16be(p.ParameterID)
	w.u16be(p.SubDevice)
	w.u16be(p.SubCount)
	w.zero(4)
	w.bytes(p.Data)
	return w.buf
}
