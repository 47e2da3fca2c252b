// Package addr implements the Port-Address algebra: the 15-bit
// (Net, Sub-Net, Universe) triple Art-Net 4 uses to name a single DMX
// universe, grounded on gopatchy-artmap/artnet/protocol.go's Universe type
// and generalized to the full compose/split/validate contract.
package addr

import "fmt"

// PortAddress is a 15-bit address: (Net << 8) | (SubNet << 4) | Universe.
// Net spans [0,127], SubNet and Universe each span [0,15].
type PortAddress uint16

// Max is the largest value a 15-bit Port-Address can take (Net=127,
// SubNet=15, Universe=15).
const Max PortAddress = 0x7FFF

// Compose builds a PortAddress from its three fields, masking each to its
// valid bit width the way gopatchy-artmap's NewUniverse does.
func Compose(net, subNet, universe uint8) PortAddress {
	return PortAddress(uint16(net&0x7F)<<8 | uint16(subNet&0x0F)<<4 | uint16(universe&0x0F))
}

// Net returns the 7-bit net field.
func (p PortAddress) Net() uint8 { return uint8((p >> 8) & 0x7F) }

// SubNet returns the 4-bit sub-net field.
func (p PortAddress) SubNet() uint8 { return uint8((p >> 4) & 0x0F) }

// Universe returns the 4-bit universe field.
func (p PortAddress) Universe() uint8 { return uint8(p & 0x0F) }

func (p PortAddress) String() string {
	return fmt.Sprintf("%d.%d.%d", p.Net(), p.SubNet(), p.Universe())
}

// Validate reports whether p is in range and, if Port-Address 0, a
// warning the caller should surface as an effect rather than a hard
// rejection (spec's open question: 0 is accepted-with-warning, 32768+
// is rejected).
func Validate(p PortAddress) (warn bool, err error) {
	if p > Max {
		return false, fmt.Errorf("addr: port-address %d exceeds 15-bit range (max %d)", p, Max)
	}
	return p == 0, nil
}

// InRange reports whether p falls within [low, high] inclusive, comparing
// in either order (targeted-mode bounds may arrive swapped).
func InRange(p, low, high PortAddress) bool {
	if low > high {
		low, high = high, low
	}
	return p >= low && p <= high
}

// FromSwitches derives a PortAddress from a node's net/sub-net switches
// plus a per-port sw-in/sw-out nibble, the fallback path spec.md §4.6
// describes for targeted-mode filtering when no explicit port-addresses
// or port-types data is available.
func FromSwitches(netSwitch, subSwitch, portNibble uint8) PortAddress {
	return Compose(netSwitch, subSwitch, portNibble)
}
