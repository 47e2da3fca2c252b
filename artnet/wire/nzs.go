package wire

// NzsPacket is ArtNzs (opcode 0x5100), used for non-zero start-code DMX
// data, or VLC (Visible Light Communication) data when the start code is
// 0x91 and the "ALE" magic follows the header, per spec.md §4.1.
type NzsPacket struct {
	ProtocolVersion uint16
	Sequence        uint8
	StartCode       uint8
	SubUni          uint8
	Net             uint8
	Length          uint16
	Data            []byte

	VLC *VLCPayload // non-nil when this Nzs frame is sniffed as VLC
}

func (p *NzsPacket) Opcode() Opcode { return OpNzs }

// VLCPayload is the 22-byte VLC sub-header plus checksummed payload that
// rides inside an ArtNzs frame with StartCode 0x91, per spec.md §4.1.
type VLCPayload struct {
	Flags       uint16
	TransCount  uint16
	SlotCount   uint16
	Payload     []byte // post-sub-header payload, excluding the trailing checksum
	Checksum    uint16
	ChecksumOK  bool
}

const (
	nzsHeaderLen  = 18
	vlcMagicLen   = 3
	vlcSubHdrLen  = 22
	startCodeVLC  = 0x91
	startCodeZero = 0x00
	startCodeTest = 0xCC
)

var vlcMagic = [3]byte{0x41, 0x4C, 0x45} // "ALE"

func decodeNzs(r *reader, buf []byte) (*NzsPacket, error) {
	if len(buf) < nzsHeaderLen {
		return nil, errTruncated(uint16(OpNzs), nzsHeaderLen, len(buf))
	}
	version, _ := r.u16be()
	seq, _ := r.u8()
	startCode, _ := r.u8()
	subUni, _ := r.u8()
	net, _ := r.u8()
	length, _ := r.u16be()

	dataLen := int(length)
	if dataLen > 512 {
		dataLen = 512
	}
	if len(buf) < nzsHeaderLen+dataLen {
		dataLen = len(buf) - nzsHeaderLen
	}
	var data []byte
	if dataLen > 0 {
		data = buf[nzsHeaderLen : nzsHeaderLen+dataLen]
	}

	p := &NzsPacket{
		ProtocolVersion: version,
		Sequence:        seq,
		StartCode:       startCode,
		SubUni:          subUni,
		Net:             net & 0x7F,
		Length:          length,
		Data:            data,
	}

	if startCode == startCodeVLC && len(data) >= vlcMagicLen &&
		data[0] == vlcMagic[0] && data[1] == vlcMagic[1] && data[2] == vlcMagic[2] {
		p.VLC = parseVLC(data[vlcMagicLen:])
	}

	return p, nil
}

func parseVLC(buf []byte) *VLCPayload {
	if len(buf) < vlcSubHdrLen {
		return nil
	}
	vr := newReader(buf)
	flags, _ := vr.u16be()
	transCount, _ := vr.u16be()
	slotCount, _ := vr.u16be()
	vr.skip(vlcSubHdrLen - 6) // remaining reserved sub-header bytes

	rest := vr.rest()
	if len(rest) < 2 {
		return &VLCPayload{Flags: flags, TransCount: transCount, SlotCount: slotCount}
	}
	payload := rest[:len(rest)-2]
	wantChecksum := uint16(rest[len(rest)-2])<<8 | uint16(rest[len(rest)-1])
	got := WrapAddChecksum(payload)

	return &VLCPayload{
		Flags:      flags,
		TransCount: transCount,
		SlotCount:  slotCount,
		Payload:    payload,
		Checksum:   wantChecksum,
		ChecksumOK: wantChecksum == got,
	}
}

func encodeNzs(p *NzsPacket) []byte {
	if len(p.Data) > 512 {
		panic("artnet/wire: ArtNzs payload exceeds 512 bytes")
	}
	w := newWriter(nzsHeaderLen + len(p.Data))
	header(w, OpNzs)
	w.u8(p.Sequence)
	w.u8(p.StartCode)
	w.u8(p.SubUni)
	w.u8(p.Net & 0x7F)
	w.u16be(uint16(len(p.Data)))
	w.bytes(p.Data)
	return w.buf
}
