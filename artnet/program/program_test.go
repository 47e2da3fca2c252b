package program

import (
	"testing"

	"github.com/gopatchy/artnode/artnet/wire"
)

func TestApplyNoOpPacketProducesNoChanges(t *testing.T) {
	defaults := Defaults{NetSwitch: 1, SubSwitch: 2}
	current := Identity{NetSwitch: 1, SubSwitch: 2}
	pkt := &wire.AddressPacket{} // all-zero flagged fields except those matching defaults already

	// Zero value on a field already at its default is a no-op under the
	// flagged-update encoding (0 => reset to default, already there).
	_, changes, info := Apply(current, defaults, pkt)
	if len(changes) != 0 {
		t.Fatalf("expected no changes for a no-op packet, got %+v", changes)
	}
	if info.Applied {
		t.Fatalf("command byte 0 should not be 'applied', got %+v", info)
	}
}

func TestFlaggedByteAppliesMSBField(t *testing.T) {
	defaults := Defaults{}
	current := Identity{SubSwitch: 0}
	pkt := &wire.AddressPacket{SubSwitch: 0x80 | 0x05}

	next, changes, _ := Apply(current, defaults, pkt)
	if next.SubSwitch != 5 {
		t.Fatalf("SubSwitch = %d, want 5", next.SubSwitch)
	}
	if len(changes) != 1 || changes[0].Field != "sub-switch" {
		t.Fatalf("got changes %+v", changes)
	}
}

func TestFlaggedByteIgnoresNonMSBNonZero(t *testing.T) {
	defaults := Defaults{}
	current := Identity{SubSwitch: 3}
	pkt := &wire.AddressPacket{SubSwitch: 0x05} // MSB clear, non-zero: ignored

	next, changes, _ := Apply(current, defaults, pkt)
	if next.SubSwitch != 3 {
		t.Fatalf("SubSwitch should be unchanged, got %d", next.SubSwitch)
	}
	if len(changes) != 0 {
		t.Fatalf("expected no changes, got %+v", changes)
	}
}

func TestCommandDispatchTable(t *testing.T) {
	cases := []struct {
		cmd  uint8
		port int
	}{
		{wire.CmdMergeLTPBase + 2, 2},
		{wire.CmdMergeHTPBase + 1, 1},
		{wire.CmdPortInputBase + 3, 3},
		{wire.CmdRdmEnableBase, 0},
	}
	for _, c := range cases {
		_, _, info := Apply(Identity{}, Defaults{}, &wire.AddressPacket{Command: c.cmd})
		if !info.Applied || info.Port != c.port {
			t.Fatalf("cmd 0x%02X: got %+v, want applied port=%d", c.cmd, info, c.port)
		}
	}
}

func TestPortInputFlushesSubscribers(t *testing.T) {
	_, _, info := Apply(Identity{}, Defaults{}, &wire.AddressPacket{Command: wire.CmdPortInputBase + 1})
	if !info.FlushSubscribers {
		t.Fatal("port-input command should set FlushSubscribers")
	}
}

func TestFailsafeDirectives(t *testing.T) {
	_, _, info := Apply(Identity{}, Defaults{}, &wire.AddressPacket{Command: wire.CmdFailsafeZero})
	if info.FailsafeDirective != "zero" {
		t.Fatalf("got %q, want zero", info.FailsafeDirective)
	}
}

func TestUnrecognizedCommandNotApplied(t *testing.T) {
	_, _, info := Apply(Identity{}, Defaults{}, &wire.AddressPacket{Command: 0x40})
	if info.Applied {
		t.Fatalf("command 0x40 is unrecognized and should not be applied: %+v", info)
	}
	if info.Priority() != wire.DiagPriorityHigh {
		t.Fatalf("unapplied command should carry error priority, got 0x%02X", info.Priority())
	}
}

func TestIPProgRequiresEnableBit(t *testing.T) {
	current := NetworkState{IP: [4]byte{10, 0, 0, 1}}
	pkt := &wire.IPProgPacket{Command: wire.IPProgCmdProgramIP, ProgIP: [4]byte{192, 168, 1, 1}}

	next := ApplyIPProg(current, NetworkDefaults{}, pkt)
	if next.IP != current.IP {
		t.Fatalf("IP should be unchanged without the enable bit, got %v", next.IP)
	}
}

func TestIPProgProgramsIP(t *testing.T) {
	current := NetworkState{IP: [4]byte{10, 0, 0, 1}}
	pkt := &wire.IPProgPacket{Command: wire.IPProgCmdEnable | wire.IPProgCmdProgramIP, ProgIP: [4]byte{192, 168, 1, 1}}

	next := ApplyIPProg(current, NetworkDefaults{}, pkt)
	if next.IP != [4]byte{192, 168, 1, 1} {
		t.Fatalf("IP = %v, want programmed value", next.IP)
	}
}

func TestIPProgDHCPOverridesProgramBits(t *testing.T) {
	current := NetworkState{IP: [4]byte{10, 0, 0, 1}}
	pkt := &wire.IPProgPacket{
		Command: wire.IPProgCmdEnable | wire.IPProgCmdDHCP | wire.IPProgCmdProgramIP,
		ProgIP:  [4]byte{192, 168, 1, 1},
	}

	next := ApplyIPProg(current, NetworkDefaults{}, pkt)
	if next.IP != current.IP {
		t.Fatalf("DHCP should override explicit IP programming, got %v", next.IP)
	}
	if !next.DHCP {
		t.Fatal("expected DHCP active")
	}
	if Reply(next).Status&wire.IPProgStatusDHCPActive == 0 {
		t.Fatal("expected DHCP-active status bit in reply")
	}
}

func TestIPProgResetToDefault(t *testing.T) {
	current := NetworkState{IP: [4]byte{192, 168, 1, 1}, DHCP: true}
	defaults := NetworkDefaults{IP: [4]byte{2, 0, 0, 1}}
	pkt := &wire.IPProgPacket{Command: wire.IPProgCmdEnable | wire.IPProgCmdResetDefault}

	next := ApplyIPProg(current, defaults, pkt)
	if next.IP != defaults.IP || next.DHCP {
		t.Fatalf("got %+v, want reset to defaults", next)
	}
}
