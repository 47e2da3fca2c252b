package wire

// Opcode identifies an Art-Net packet type. The wire value is transmitted
// little-endian at header offset 8, per spec.md §4.1/§6.
type Opcode uint16

const (
	OpPoll              Opcode = 0x2000
	OpPollReply         Opcode = 0x2100
	OpDiagData          Opcode = 0x2300
	OpCommand           Opcode = 0x2400
	OpDataRequest       Opcode = 0x2700
	OpDataReply         Opcode = 0x2800
	OpDmx               Opcode = 0x5000
	OpNzs               Opcode = 0x5100
	OpSync              Opcode = 0x5200
	OpAddress           Opcode = 0x6000
	OpInput             Opcode = 0x7000
	OpTodRequest        Opcode = 0x8000
	OpTodData           Opcode = 0x8100
	OpTodControl        Opcode = 0x8200
	OpRdm               Opcode = 0x8300
	OpRdmSub            Opcode = 0x8400
	OpMedia             Opcode = 0x9000
	OpMediaPatch        Opcode = 0x9100
	OpMediaControl      Opcode = 0x9200
	OpMediaControlReply Opcode = 0x9300
	OpTimeCode          Opcode = 0x9700
	OpTimeSync          Opcode = 0x9800
	OpTrigger           Opcode = 0x9900
	OpDirectory         Opcode = 0x9A00
	OpDirectoryReply    Opcode = 0x9B00
	OpVideoSetup        Opcode = 0xA010
	OpVideoPalette      Opcode = 0xA020
	OpVideoData         Opcode = 0xA040
	OpMacMaster         Opcode = 0xF000
	OpMacSlave          Opcode = 0xF100
	OpFirmwareMaster    Opcode = 0xF200
	OpFirmwareReply     Opcode = 0xF300
	OpFileTnMaster      Opcode = 0xF400
	OpFileFnMaster      Opcode = 0xF500
	OpFileFnReply       Opcode = 0xF600
	OpIpProg            Opcode = 0xF800
	OpIpProgReply       Opcode = 0xF900
)

// Port is the standard Art-Net UDP port (0x1936), per spec.md §6.
const Port = 6454

// ProtocolVersion is the Art-Net 4 protocol version carried at header
// offset 10 (big-endian) in every packet.
const ProtocolVersion = 14

// HeaderID is the fixed 8-byte packet identifier every Art-Net datagram
// starts with ("Art-Net\0").
var HeaderID = [8]byte{'A', 'r', 't', '-', 'N', 'e', 't', 0x00}

// genericOpcodes are the passthrough families spec.md §4.1 calls
// "generic-payload opcodes": only the 12-byte common header is defined,
// the remainder is opaque. Layouts are undocumented (spec.md §9 Open
// Questions #2) so decoding further would be guesswork.
var genericOpcodes = map[Opcode]bool{
	OpMedia:             true,
	OpMediaPatch:        true,
	OpMediaControl:      true,
	OpMediaControlReply: true,
	OpTimeSync:          true,
	OpDirectory:         true,
	OpDirectoryReply:    true,
	OpVideoSetup:        true,
	OpVideoPalette:      true,
	OpVideoData:         true,
	OpMacMaster:         true,
	OpMacSlave:          true,
	OpFileTnMaster:      true,
	OpFileFnMaster:      true,
	OpFileFnReply:       true,
}

// IsGeneric reports whether op is a passthrough/opaque-payload opcode.
func IsGeneric(op Opcode) bool {
	return genericOpcodes[op]
}
