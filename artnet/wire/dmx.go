package wire

// DMXPacket is ArtDmx (opcode 0x5000), the hot-path universe-data packet.
// Data is a zero-copy view into the buffer Decode was called with — valid
// only for the duration of the callback that received it, per spec.md §3's
// buffer-lifetime contract. Callers that need to retain it must copy.
type DMXPacket struct {
	ProtocolVersion uint16
	Sequence        uint8
	Physical        uint8
	Net             uint8
	SubNet          uint8
	Universe        uint8
	Length          uint16
	Data            []byte
}

func (p *DMXPacket) Opcode() Opcode { return OpDmx }

const dmxHeaderLen = 18

func decodeDMX(r *reader, buf []byte) (*DMXPacket, error) {
	if len(buf) < dmxHeaderLen {
		return nil, errTruncated(uint16(OpDmx), dmxHeaderLen, len(buf))
	}
	version, _ := r.u16be()
	seq, _ := r.u8()
	phys, _ := r.u8()
	subUni, _ := r.u8() // low byte of Sub-Net/Universe, per Art-Net's split BindIndex-less layout
	net, _ := r.u8()
	length, _ := r.u16be()

	dataLen := int(length)
	if dataLen > 512 {
		dataLen = 512
	}
	if len(buf) < dmxHeaderLen+dataLen {
		dataLen = len(buf) - dmxHeaderLen
	}
	var data []byte
	if dataLen > 0 {
		data = buf[dmxHeaderLen : dmxHeaderLen+dataLen]
	}

	return &DMXPacket{
		ProtocolVersion: version,
		Sequence:        seq,
		Physical:        phys,
		Net:             net & 0x7F,
		SubNet:          (subUni >> 4) & 0x0F,
		Universe:        subUni & 0x0F,
		Length:          length,
		Data:            data,
	}, nil
}

func encodeDMX(p *DMXPacket) []byte {
	if len(p.Data) > 512 {
		panic("artnet/wire: ArtDmx payload exceeds 512 bytes")
	}
	w := newWriter(dmxHeaderLen + len(p.Data))
	header(w, OpDmx)
	w.u8(p.Sequence)
	w.u8(p.Physical)
	w.u8((p.SubNet&0x0F)<<4 | (p.Universe & 0x0F))
	w.u8(p.Net & 0x7F)
	w.u16be(uint16(len(p.Data)))
	w.bytes(p.Data)
	return w.buf
}
