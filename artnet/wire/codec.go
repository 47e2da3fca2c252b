package wire

// Packet is implemented by every decoded Art-Net payload. Opcode returns
// the wire opcode so a generic caller (e.g. machine.Step) can dispatch
// without a type switch when it only needs the tag.
type Packet interface {
	Opcode() Opcode
}

// Header is the 4-byte portion common to every packet after the 8-byte
// ID: opcode (LE u16) + protocol version (BE u16). Decode consumes the
// opcode and each per-opcode decoder reads the version; kept here for
// encoders that need to re-emit it.
type Header struct {
	Opcode          Opcode
	ProtocolVersion uint16
}

// minHeaderLen is ID(8) + opcode(2); protocol version is absent from a few
// tiny packets in the wild but spec.md assumes it in the common layout, so
// decoders that need it check length themselves.
const minHeaderLen = 10

// Decode validates the header magic, reads the opcode, and dispatches to
// the per-opcode decoder. Errors are always a recoverable *Error per
// spec.md §7 — Decode never panics on malformed input (spec.md §8
// "for any garbage byte sequence ... never crashes").
func Decode(buf []byte) (Packet, error) {
	if len(buf) < minHeaderLen {
		return nil, errTruncated(0, minHeaderLen, len(buf))
	}
	for i := 0; i < 8; i++ {
		if buf[i] != HeaderID[i] {
			return nil, errInvalidHeader()
		}
	}

	r := newReader(buf)
	r.skip(8)
	opcodeVal, _ := r.u16le()
	op := Opcode(opcodeVal)

	switch op {
	case OpDmx:
		return decodeDMX(r, buf)
	case OpNzs:
		return decodeNzs(r, buf)
	case OpSync:
		return decodeSync(r)
	case OpPoll:
		return decodePoll(r)
	case OpPollReply:
		return decodePollReply(r)
	case OpAddress:
		return decodeAddress(r)
	case OpInput:
		return decodeInput(r)
	case OpIpProg:
		return decodeIPProg(r)
	case OpIpProgReply:
		return decodeIPProgReply(r)
	case OpTodRequest:
		return decodeTodRequest(r)
	case OpTodData:
		return decodeTodData(r)
	case OpTodControl:
		return decodeTodControl(r)
	case OpRdm:
		return decodeRdm(r, buf)
	case OpRdmSub:
		return decodeRdmSub(r, buf)
	case OpTrigger:
		return decodeTrigger(r, buf)
	case OpCommand:
		return decodeCommand(r, buf)
	case OpDiagData:
		return decodeDiagData(r, buf)
	case OpDataRequest:
		return decodeDataRequest(r)
	case OpDataReply:
		return decodeDataReply(r, buf)
	case OpFirmwareMaster:
		return decodeFirmwareMaster(r, buf)
	case OpFirmwareReply:
		return decodeFirmwareReply(r)
	case OpTimeCode:
		return decodeTimeCode(r)
	default:
		if IsGeneric(op) {
			return decodeGeneric(r, op, buf)
		}
		return nil, errUnknownOpcode(opcodeVal)
	}
}

// Encode writes p's wire form. Unsupported packet types are a programmer
// error (spec.md §7 "unsupported opcode in encode") and panic rather than
// returning a recoverable error.
func Encode(p Packet) []byte {
	switch v := p.(type) {
	case *DMXPacket:
		return encodeDMX(v)
	case *NzsPacket:
		return encodeNzs(v)
	case *SyncPacket:
		return encodeSync(v)
	case *PollPacket:
		return encodePoll(v)
	case *PollReplyPacket:
		return encodePollReply(v)
	case *AddressPacket:
		return encodeAddress(v)
	case *InputPacket:
		return encodeInput(v)
	case *IPProgPacket:
		return encodeIPProg(v)
	case *IPProgReplyPacket:
		return encodeIPProgReply(v)
	case *TodRequestPacket:
		return encodeTodRequest(v)
	case *TodDataPacket:
		return encodeTodData(v)
	case *TodControlPacket:
		return encodeTodControl(v)
	case *RdmPacket:
		return encodeRdm(v)
	case *RdmSubPacket:
		return encodeRdmSub(v)
	case *TriggerPacket:
		return encodeTrigger(v)
	case *CommandPacket:
		return encodeCommand(v)
	case *DiagDataPacket:
		return encodeDiagData(v)
	case *DataRequestPacket:
		return encodeDataRequest(v)
	case *DataReplyPacket:
		return encodeDataReply(v)
	case *FirmwareMasterPacket:
		return encodeFirmwareMaster(v)
	case *FirmwareReplyPacket:
		return encodeFirmwareReply(v)
	case *TimeCodePacket:
		return encodeTimeCode(v)
	case *GenericPacket:
		return encodeGeneric(v)
	default:
		panic("artnet/wire: Encode: unsupported packet type")
	}
}

// header writes the 8-byte ID + LE opcode + BE protocol version common
// prefix every concrete encoder starts with.
func header(w *writer, op Opcode) {
	w.bytes(HeaderID[:])
	w.u16le(uint16(op))
	w.u16be(ProtocolVersion)
}
