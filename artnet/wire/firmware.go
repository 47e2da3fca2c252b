package wire

// ArtFirmwareMaster block types, per spec.md §4.7.
const (
	FirmwareBlockFirmFirst = 0x00
	FirmwareBlockFirmCont  = 0x01
	FirmwareBlockFirmLast  = 0x02
	FirmwareBlockUbeaFirst = 0x03
	FirmwareBlockUbeaCont  = 0x04
	FirmwareBlockUbeaLast  = 0x05
)

// ArtFirmwareReply status codes, per spec.md §4.7.
const (
	FirmwareReplyBlockGood = 0x00
	FirmwareReplyAllGood   = 0x01
	FirmwareReplyBlockFail = 0xFF
)

const (
	firmwareMasterHeaderLen = 40
	firmwareBlockDataLen    = 512
)

// FirmwareMasterPacket is ArtFirmwareMaster (opcode 0xF200): one block of a
// firmware or UBEA upload, tracked by session per spec.md §4.7 (BlockID
// sequencing, wrap-add Checksum, secondary-length verification against the
// session's advertised total).
type FirmwareMasterPacket struct {
	ProtocolVersion uint16
	BlockType       uint8
	BlockID         uint8
	FirmwareLength  uint32
	Data            []byte // always firmwareBlockDataLen bytes on the wire, trailing-zero padded
}

func (p *FirmwareMasterPacket) Opcode() Opcode { return OpFirmwareMaster }

func decodeFirmwareMaster(r *reader, buf []byte) (*FirmwareMasterPacket, error) {
	if len(buf) < firmwareMasterHeaderLen+firmwareBlockDataLen {
		return nil, errTruncated(uint16(OpFirmwareMaster), firmwareMasterHeaderLen+firmwareBlockDataLen, len(buf))
	}
	version, _ := r.u16be()
	blockType, _ := r.u8()
	blockID, _ := r.u8()
	length, _ := r.u32be()
	r.skip(firmwareMasterHeaderLen - 18) // spare, name/reserved fields reserved for vendor use

	return &FirmwareMasterPacket{
		ProtocolVersion: version, BlockType: blockType, BlockID: blockID,
		FirmwareLength: length, Data: buf[firmwareMasterHeaderLen : firmwareMasterHeaderLen+firmwareBlockDataLen],
	}, nil
}

func encodeFirmwareMaster(p *FirmwareMasterPacket) []byte {
	w := newWriter(firmwareMasterHeaderLen + firmwareBlockDataLen)
	header(w, OpFirmwareMaster)
	w.u8(p.BlockType)
	w.u8(p.BlockID)
	w.u32be(p.FirmwareLength)
	w.zero(firmwareMasterHeaderLen - 18)
	data := p.Data
	if len(data) > firmwareBlockDataLen {
		data = data[:firmwareBlockDataLen]
	}
	w.bytes(data)
	w.zero(firmwareBlockDataLen - len(data))
	return w.buf
}

const firmwareReplyLen = 28

// FirmwareReplyPacket is ArtFirmwareReply (opcode 0xF300): a node's
// per-block or final acknowledgement during a firmware transfer.
type FirmwareReplyPacket struct {
	ProtocolVersion uint16
	Type            uint8
}

func (p *FirmwareReplyPacket) Opcode() Opcode { return OpFirmwareReply }

func decodeFirmwareReply(r *reader) (*FirmwareReplyPacket, error) {
	version, ok1 := r.u16be()
	typ, ok2 := r.u8()
	ok3 := r.skip(firmwareReplyLen - 13)
	if !(ok1 && ok2 && ok3) {
		return nil, errTruncated(uint16(OpFirmwareReply), firmwareReplyLen, r.pos)
	}
	return &FirmwareReplyPacket{ProtocolVersion: version, Type: typ}, nil
}

func encodeFirmwareReply(p *FirmwareReplyPacket) []byte {
	w := newWriter(firmwareReplyLen)
	header(w, OpFirmwareReply)
	w.u8(p.Type)
	w.zero(firmwareReplyLen - 13)
	return w.buf
}
