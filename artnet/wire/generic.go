package wire

// GenericPacket is the passthrough form for every opcode in genericOpcodes:
// Media/Video/Mac/File/Directory/TimeSync families whose payload layout
// spec.md leaves undocumented. Only the common header is parsed; Payload is
// a zero-copy view of everything after the protocol version field, valid
// only for the duration of the decode callback per the buffer-lifetime
// contract.
type GenericPacket struct {
	Op              Opcode
	ProtocolVersion uint16
	Payload         []byte
}

func (p *GenericPacket) Opcode() Opcode { return p.Op }

const genericHeaderLen = 12

func decodeGeneric(r *reader, op Opcode, buf []byte) (*GenericPacket, error) {
	if len(buf) < genericHeaderLen {
		return nil, errTruncated(uint16(op), genericHeaderLen, len(buf))
	}
	version, _ := r.u16be()
	return &GenericPacket{Op: op, ProtocolVersion: version, Payload: buf[genericHeaderLen:]}, nil
}

func encodeGeneric(p *GenericPacket) []byte {
	w := newWriter(genericHeaderLen + len(p.Payload))
	header(w, p.Op)
	w.bytes(p.Payload)
	return w.buf
}
