package netiface

import "testing"

func TestIsPrivateRecognizesRFC1918Ranges(t *testing.T) {
	cases := map[[4]byte]bool{
		{10, 0, 0, 1}:     true,
		{172, 16, 0, 1}:   true,
		{172, 31, 255, 1}: true,
		{172, 32, 0, 1}:   false,
		{192, 168, 1, 1}:  true,
		{192, 169, 1, 1}:  false,
		{8, 8, 8, 8}:      false,
	}
	for ip, want := range cases {
		if got := isPrivate(ip); got != want {
			t.Errorf("isPrivate(%v) = %v, want %v", ip, got, want)
		}
	}
}

func TestParseBroadcastListAuto(t *testing.T) {
	for _, in := range []string{"", "auto"} {
		out, err := ParseBroadcastList(in)
		if err != nil || out != nil {
			t.Errorf("ParseBroadcastList(%q) = %v, %v; want nil, nil", in, out, err)
		}
	}
}

func TestParseBroadcastListSplitsAndTrims(t *testing.T) {
	out, err := ParseBroadcastList("10.0.0.255, 192.168.1.255")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d addresses, want 2", len(out))
	}
}

func TestParseBroadcastListRejectsInvalidAddress(t *testing.T) {
	if _, err := ParseBroadcastList("not-an-ip"); err == nil {
		t.Fatal("expected an error for an invalid broadcast address")
	}
}

func TestSelectFailsWithUnknownInterfaceName(t *testing.T) {
	if _, err := Select("definitely-not-a-real-interface-0"); err == nil {
		t.Fatal("expected an error for an unrecognized interface name")
	}
}
