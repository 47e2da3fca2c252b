package wire

// DiagDataPacket is ArtDiagData (opcode 0x2300): a human-readable
// diagnostic message, fanned out to subscribed controllers per spec.md
// §4.2/§4.6. Priority follows DMX-style priority bytes (0x10 applied /
// 0x80 error, per spec.md's ArtAddress ack convention).
type DiagDataPacket struct {
	ProtocolVersion uint16
	Priority        uint8
	LogicalPort     uint8
	Text            []byte // ASCII, NUL-terminated on the wire
}

func (p *DiagDataPacket) Opcode() Opcode { return OpDiagData }

const diagDataHeaderLen = 20

// Standard diagnostic priority levels.
const (
	DiagPriorityLow     = 0x10
	DiagPriorityMedium  = 0x40
	DiagPriorityHigh    = 0x80
	DiagPriorityCritical = 0xE0
	DiagPriorityVolatile = 0xF0
)

func decodeDiagData(r *reader, buf []byte) (*DiagDataPacket, error) {
	if len(buf) < diagDataHeaderLen {
		return nil, errTruncated(uint16(OpDiagData), diagDataHeaderLen, len(buf))
	}
	version, _ := r.u16be()
	r.skip(1) // filler
	priority, _ := r.u8()
	r.skip(2) // filler
	logicalPort, _ := r.u8()
	r.skip(1) // spare
	length, _ := r.u16be()

	dataLen := int(length)
	avail := len(buf) - diagDataHeaderLen
	if dataLen > avail {
		dataLen = avail
	}
	text := buf[diagDataHeaderLen : diagDataHeaderLen+dataLen]
	// trim trailing NUL the sender may have included
	for len(text) > 0 && text[len(text)-1] == 0 {
		text = text[:len(text)-1]
	}

	return &DiagDataPacket{ProtocolVersion: version, Priority: priority, LogicalPort: logicalPort, Text: text}, nil
}

func encodeDiagData(p *DiagDataPacket) []byte {
	w := newWriter(diagDataHeaderLen + len(p.Text) + 1)
	header(w, OpDiagData)
	w.zero(1)
	w.u8(p.Priority)
	w.zero(2)
	w.u8(p.LogicalPort)
	w.zero(1)
	w.u16be(uint16(len(p.Text) + 1))
	w.bytes(p.Text)
	w.u8(0)
	return w.buf
}
