package addr

import "testing"

func TestComposeMatchesLiteralScenario(t *testing.T) {
	p := Compose(1, 2, 3)
	if p != 291 {
		t.Fatalf("Compose(1,2,3) = %d, want 291", p)
	}
	if p.Net() != 1 || p.SubNet() != 2 || p.Universe() != 3 {
		t.Fatalf("split mismatch: net=%d sub=%d uni=%d", p.Net(), p.SubNet(), p.Universe())
	}
}

func TestValidateBoundaries(t *testing.T) {
	if warn, err := Validate(0); err != nil || !warn {
		t.Fatalf("Validate(0) = warn=%v err=%v, want warn=true err=nil", warn, err)
	}
	if _, err := Validate(Max); err != nil {
		t.Fatalf("Validate(Max) unexpected error: %v", err)
	}
	if _, err := Validate(Max + 1); err == nil {
		t.Fatal("Validate(Max+1) expected an error")
	}
}

func TestInRangeHandlesSwappedBounds(t *testing.T) {
	if !InRange(100, 200, 50) {
		t.Fatal("InRange should tolerate low > high by swapping")
	}
	if InRange(10, 50, 200) {
		t.Fatal("InRange(10, [50,200]) should be false")
	}
}

func FuzzComposeSplitRoundtrip(f *testing.F) {
	f.Add(uint8(0), uint8(0), uint8(0))
	f.Add(uint8(127), uint8(15), uint8(15))
	f.Add(uint8(200), uint8(20), uint8(20)) // out-of-range inputs get masked

	f.Fuzz(func(t *testing.T, net, sub, uni uint8) {
		p := Compose(net, sub, uni)
		if p > Max {
			t.Fatalf("Compose produced out-of-range address %d", p)
		}
		if p.Net() != net&0x7F || p.SubNet() != sub&0x0F || p.Universe() != uni&0x0F {
			t.Fatalf("roundtrip mismatch for (%d,%d,%d): got (%d,%d,%d)",
				net, sub, uni, p.Net(), p.SubNet(), p.Universe())
		}
	})
}
