package program

import "github.com/gopatchy/artnode/artnet/wire"

// NetworkState is the subset of node state ArtIpProg can mutate.
type NetworkState struct {
	IP      [4]byte
	Mask    [4]byte
	Port    uint16
	Gateway [4]byte
	DHCP    bool
}

// NetworkDefaults supplies factory-reset values for ArtIpProg's
// reset-to-default bit.
type NetworkDefaults struct {
	IP      [4]byte
	Mask    [4]byte
	Port    uint16
	Gateway [4]byte
}

// ApplyIPProg mutates net according to an ArtIpProg command byte, per
// spec.md §4.2: DHCP-set or explicit reset overrides individual program
// bits; the resulting DHCP-active status bit is re-derived.
func ApplyIPProg(current NetworkState, defaults NetworkDefaults, pkt *wire.IPProgPacket) NetworkState {
	if pkt.Command&wire.IPProgCmdEnable == 0 {
		return current
	}

	next := current

	if pkt.Command&wire.IPProgCmdResetDefault != 0 {
		next.IP = defaults.IP
		next.Mask = defaults.Mask
		next.Port = defaults.Port
		next.Gateway = defaults.Gateway
		next.DHCP = false
		return next
	}

	if pkt.Command&wire.IPProgCmdDHCP != 0 {
		next.DHCP = true
		return next
	}

	next.DHCP = false
	if pkt.Command&wire.IPProgCmdProgramIP != 0 {
		next.IP = pkt.ProgIP
	}
	if pkt.Command&wire.IPProgCmdProgramMask != 0 {
		next.Mask = pkt.ProgMask
	}
	if pkt.Command&wire.IPProgCmdProgramPort != 0 {
		next.Port = pkt.ProgPort
	}
	if pkt.Command&wire.IPProgCmdProgramGateway != 0 {
		next.Gateway = pkt.ProgGateway
	}
	return next
}

// Reply builds the ArtIpProgReply mirroring net's current state, per
// spec.md §4.2.
func Reply(net NetworkState) *wire.IPProgReplyPacket {
	var status uint8
	if net.DHCP {
		status |= wire.IPProgStatusDHCPActive
	}
	return &wire.IPProgReplyPacket{
		ProgIP: net.IP, ProgMask: net.Mask, ProgPort: net.Port, ProgGateway: net.Gateway,
		Status: status,
	}
}
