package wire

// TodRequestPacket is ArtTodRequest (opcode 0x8000): a controller asking
// for the Table-of-Devices on one or more ports, per spec.md §4.8.
// Addresses holds (sub-net<<4|universe) bytes; an empty list means "all
// ports on Net".
type TodRequestPacket struct {
	ProtocolVersion uint16
	Net             uint8
	Command         uint8
	Addresses       []uint8
}

func (p *TodRequestPacket) Opcode() Opcode { return OpTodRequest }

const todRequestMinLen = 15

func decodeTodRequest(r *reader) (*TodRequestPacket, error) {
	version, ok1 := r.u16be()
	net, ok2 := r.u8()
	command, ok3 := r.u8()
	addrCount, ok4 := r.u8()
	if !(ok1 && ok2 && ok3 && ok4) {
		return nil, errTruncated(uint16(OpTodRequest), todRequestMinLen, r.pos)
	}
	addrs, ok := r.fixedBytes(int(addrCount))
	if !ok {
		return nil, errTruncated(uint16(OpTodRequest), todRequestMinLen+int(addrCount), r.pos)
	}
	return &TodRequestPacket{ProtocolVersion: version, Net: net, Command: command, Addresses: addrs}, nil
}

func encodeTodRequest(p *TodRequestPacket) []byte {
	w := newWriter(todRequestMinLen + len(p.Addresses))
	header(w, OpTodRequest)
	w.u8(p.Net)
	w.u8(p.Command)
	w.u8(uint8(len(p.Addresses)))
	w.bytes(p.Addresses)
	return w.buf
}

// TodDataPacket is ArtTodData (opcode 0x8100): the reply carrying a
// port's known RDM UIDs, up to 200 per packet per spec.md §4.8.
type TodDataPacket struct {
	ProtocolVersion  uint16
	RdmVersion       uint8
	Port             uint8
	BindIndex        uint8
	Net              uint8
	CommandResponse  uint8 // 0xFF = NAK (discovery in progress)
	Address          uint8
	UidTotal         uint16
	BlockCount       uint8
	Uids             [][6]byte
}

func (p *TodDataPacket) Opcode() Opcode { return OpTodData }

const MaxTodUIDsPerPacket = 200
const todDataMinLen = 28

func decodeTodData(r *reader) (*TodDataPacket, error) {
	version, ok1 := r.u16be()
	rdmVersion, ok2 := r.u8()
	port, ok3 := r.u8()
	r.skip(6) // spare
	bindIndex, ok4 := r.u8()
	net, ok5 := r.u8()
	cmdResp, ok6 := r.u8()
	address, ok7 := r.u8()
	uidTotal, ok8 := r.u16be()
	blockCount, ok9 := r.u8()
	uidCount, ok10 := r.u8()
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7 && ok8 && ok9 && ok10) {
		return nil, errTruncated(uint16(OpTodData), todDataMinLen, r.pos)
	}
	uids := make([][6]byte, 0, uidCount)
	for i := 0; i < int(uidCount); i++ {
		u, ok := r.uid()
		if !ok {
			return nil, errTruncated(uint16(OpTodData), todDataMinLen+6*int(uidCount), r.pos)
		}
		uids = append(uids, u)
	}
	return &TodDataPacket{
		ProtocolVersion: version, RdmVersion: rdmVersion, Port: port, BindIndex: bindIndex,
		Net: net, CommandResponse: cmdResp, Address: address, UidTotal: uidTotal,
		BlockCount: blockCount, Uids: uids,
	}, nil
}

func encodeTodData(p *TodDataPacket) []byte {
	if len(p.Uids) > MaxTodUIDsPerPacket {
		panic("artnet/wire: ArtTodData: too many UIDs for one packet")
	}
	w := newWriter(todDataMinLen + 6*len(p.Uids))
	header(w, OpTodData)
	w.u8(p.RdmVersion)
	w.u8(p.Port)
	w.zero(6)
	w.u8(p.BindIndex)
	w.u8(p.Net)
	w.u8(p.CommandResponse)
	w.u8(p.Address)
	w.u16be(p.UidTotal)
	w.u8(p.BlockCount)
	w.u8(uint8(len(p.Uids)))
	for _, u := range p.Uids {
		w.uid(u)
	}
	return w.buf
}

// ArtTodControl command values, per spec.md §4.8.
const (
	TodControlFlush  = 0x01
	TodControlEnd    = 0x02
	TodControlIncOn  = 0x03
	TodControlIncOff = 0x04
)

// TodControlPacket is ArtTodControl (opcode 0x8200): flush/end/toggle
// incremental discovery for one port.
type TodControlPacket struct {
	ProtocolVersion uint16
	Net             uint8
	Command         uint8
	Address         uint8
}

func (p *TodControlPacket) Opcode() Opcode { return OpTodControl }

const todControlLen = 16

func decodeTodControl(r *reader) (*TodControlPacket, error) {
	version, ok1 := r.u16be()
	r.skip(1) // filler
	net, ok2 := r.u8()
	command, ok3 := r.u8()
	address, ok4 := r.u8()
	if !(ok1 && ok2 && ok3 && ok4) {
		return nil, errTruncated(uint16(OpTodControl), todControlLen, r.pos)
	}
	return &TodControlPacket{ProtocolVersion: version, Net: net, Command: command, Address: address}, nil
}

func encodeTodControl(p *TodControlPacket) []byte {
	w := newWriter(todControlLen)
	header(w, OpTodControl)
	w.zero(1)
	w.u8(p.Net)
	w.u8(p.Command)
	w.u8(p.Address)
	return w.buf
}
