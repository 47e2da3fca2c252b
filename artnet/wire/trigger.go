package wire

// TriggerPacket is ArtTrigger (opcode 0x9900): a rate-limited out-of-band
// directive (key/sub-key + vendor payload), per spec.md §4.2. OemFilter
// 0xFFFF matches any node (general OEM); anything else is vendor-specific.
type TriggerPacket struct {
	ProtocolVersion uint16
	OemFilter       uint16
	Key             uint8
	SubKey          uint8
	Data            []byte
}

func (p *TriggerPacket) Opcode() Opcode { return OpTrigger }

const triggerHeaderLen = 18

// General-OEM trigger keys, Table 7 of spec.md §4.2.
const (
	TriggerKeyAscii = 0x00
	TriggerKeyMacro = 0x01
	TriggerKeySoft  = 0x02
	TriggerKeyShow  = 0x03
)

func decodeTrigger(r *reader, buf []byte) (*TriggerPacket, error) {
	if len(buf) < triggerHeaderLen {
		return nil, errTruncated(uint16(OpTrigger), triggerHeaderLen, len(buf))
	}
	version, _ := r.u16be()
	r.skip(2) // filler
	oemFilter, _ := r.u16be()
	key, _ := r.u8()
	subKey, _ := r.u8()
	return &TriggerPacket{
		ProtocolVersion: version, OemFilter: oemFilter, Key: key, SubKey: subKey,
		Data: buf[triggerHeaderLen:],
	}, nil
}

func encodeTrigger(p *TriggerPacket) []byte {
	w := newWriter(triggerHeaderLen + len(p.Data))
	header(w, OpTrigger)
	w.zero(2)
	w.u16be(p.OemFilter)
	w.u8(p.Key)
	w.u8(p.SubKey)
	w.bytes(p.Data)
	return w.buf
}
