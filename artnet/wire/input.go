package wire

// InputPacket is ArtInput (opcode 0x7000): per-port input disable/enable.
// Input[i] bit 0 set = disable DMX input on port i.
type InputPacket struct {
	ProtocolVersion uint16
	BindIndex       uint8
	NumPorts        uint16
	Input           [4]byte
}

func (p *InputPacket) Opcode() Opcode { return OpInput }

const inputLen = 20

func decodeInput(r *reader) (*InputPacket, error) {
	version, ok1 := r.u16be()
	bindIndex, ok2 := r.u8()
	r.skip(1) // filler
	numPorts, ok3 := r.u16be()
	if !(ok1 && ok2 && ok3) {
		return nil, errTruncated(uint16(OpInput), inputLen, r.pos)
	}
	input, ok := r.fixedBytes(4)
	if !ok {
		return nil, errTruncated(uint16(OpInput), inputLen, r.pos)
	}
	p := &InputPacket{ProtocolVersion: version, BindIndex: bindIndex, NumPorts: numPorts}
	copy(p.Input[:], input)
	return p, nil
}

func encodeInput(p *InputPacket) []byte {
	w := newWriter(inputLen)
	header(w, OpInput)
	w.u8(p.BindIndex)
	w.u8(0)
	w.u16be(p.NumPorts)
	w.bytes(p.Input[:])
	return w.buf
}
