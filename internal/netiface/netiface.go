// Package netiface auto-detects the interface, IP, MAC, and broadcast
// address a node binds to, generalized from gopatchy-artmap/main.go's
// detectLocalInterface/detectBroadcastAddrs (loopback/down skip, IPv4-only,
// mask-derived broadcast) into a reusable lookup keyed by interface name
// or "auto".
package netiface

import (
	"fmt"
	"net"
	"strings"
)

// Interface is the subset of a network interface's identity
// machine.buildPollReply and the UDP shell both need.
type Interface struct {
	Name      string
	IP        [4]byte
	Mask      [4]byte
	Broadcast [4]byte
	MAC       [6]byte
}

// candidates lists the up, non-loopback, IPv4-bearing interfaces on this
// host, in the order net.Interfaces() returns them.
func candidates() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("netiface: enumerate interfaces: %w", err)
	}

	var out []Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil || len(ipnet.Mask) != 4 {
				continue
			}

			var ip, mask, bcast [4]byte
			copy(ip[:], ip4)
			copy(mask[:], ipnet.Mask)
			for i := 0; i < 4; i++ {
				bcast[i] = ip[i] | ^mask[i]
			}

			var mac [6]byte
			copy(mac[:], iface.HardwareAddr)

			out = append(out, Interface{Name: iface.Name, IP: ip, Mask: mask, Broadcast: bcast, MAC: mac})
		}
	}
	return out, nil
}

// Select picks one interface by name, or auto-detects the first up,
// non-loopback, IPv4 interface when name is "" or "auto", preferring 2.x,
// then 10.x, then the other RFC1918 ranges (172.16-31.x/192.168.x) over
// anything else the way a lighting-network node typically expects to bind
// (spec.md §6's bind.host=0.0.0.0 default).
func Select(name string) (Interface, error) {
	ifaces, err := candidates()
	if err != nil {
		return Interface{}, err
	}
	if len(ifaces) == 0 {
		return Interface{}, fmt.Errorf("netiface: no usable network interface found")
	}

	if name != "" && name != "auto" {
		for _, iface := range ifaces {
			if iface.Name == name {
				return iface, nil
			}
		}
		return Interface{}, fmt.Errorf("netiface: interface %q not found or has no IPv4 address", name)
	}

	for _, first := range []byte{2, 10} {
		for _, iface := range ifaces {
			if iface.IP[0] == first {
				return iface, nil
			}
		}
	}
	for _, iface := range ifaces {
		if isPrivate(iface.IP) {
			return iface, nil
		}
	}
	return ifaces[0], nil
}

func isPrivate(ip [4]byte) bool {
	switch {
	case ip[0] == 10:
		return true
	case ip[0] == 172 && ip[1] >= 16 && ip[1] <= 31:
		return true
	case ip[0] == 192 && ip[1] == 168:
		return true
	default:
		return false
	}
}

// Broadcasts returns every candidate interface's broadcast address as a
// UDP target, deduplicated, generalizing detectBroadcastAddrs to return
// plain values instead of *net.UDPAddr so callers pick the port.
func Broadcasts() ([][4]byte, error) {
	ifaces, err := candidates()
	if err != nil {
		return nil, err
	}
	seen := make(map[[4]byte]bool, len(ifaces))
	var out [][4]byte
	for _, iface := range ifaces {
		if seen[iface.Broadcast] {
			continue
		}
		seen[iface.Broadcast] = true
		out = append(out, iface.Broadcast)
	}
	return out, nil
}

// ParseBroadcastList splits a comma-separated broadcast address list the
// way main.go's -artnet-broadcast flag historically accepted, returning
// nil for "" or the literal value "auto"; start-node then sends to the
// selected interface's broadcast address.
func ParseBroadcastList(raw string) ([]net.IP, error) {
	if raw == "" || raw == "auto" {
		return nil, nil
	}
	var out []net.IP
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ip := net.ParseIP(part)
		if ip == nil {
			return nil, fmt.Errorf("netiface: invalid broadcast address %q", part)
		}
		out = append(out, ip)
	}
	return out, nil
}
