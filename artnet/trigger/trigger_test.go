package trigger

import (
	"testing"
	"time"
)

func TestHandleRejectsForeignOem(t *testing.T) {
	e := New(0x1234, time.Millisecond)
	r := e.Handle(time.Unix(0, 0), 0x5678, KeyAscii, 1)
	if r.Accepted {
		t.Fatalf("got %+v, want rejected", r)
	}
}

func TestHandleAcceptsWildcardOem(t *testing.T) {
	e := New(0x1234, 50*time.Millisecond)
	r := e.Handle(time.Unix(0, 0), 0xFFFF, KeyMacro, 7)
	if !r.Accepted || r.Throttled {
		t.Fatalf("got %+v, want accepted and not throttled", r)
	}
}

func TestHandleThrottlesWithinInterval(t *testing.T) {
	e := New(0x1234, 50*time.Millisecond)
	now := time.Unix(0, 0)
	e.Handle(now, 0xFFFF, KeyShow, 1)

	r := e.Handle(now.Add(10*time.Millisecond), 0xFFFF, KeyShow, 1)
	if !r.Accepted || !r.Throttled {
		t.Fatalf("got %+v, want throttled", r)
	}

	r = e.Handle(now.Add(60*time.Millisecond), 0xFFFF, KeyShow, 1)
	if r.Throttled {
		t.Fatalf("got %+v, want not throttled after interval elapses", r)
	}
}

func TestHandleBucketsVendorKeysByOem(t *testing.T) {
	e := New(0x1234, 50*time.Millisecond)
	now := time.Unix(0, 0)
	e.Handle(now, 0xAAAA, 0x80, 1) // vendor key (not one of the general-OEM keys)

	r := e.Handle(now.Add(time.Millisecond), 0xBBBB, 0x80, 1)
	if r.Throttled {
		t.Fatal("different vendor OEM should not share a rate-limit bucket")
	}
}

func TestPruneEvictsOldHistory(t *testing.T) {
	e := New(0x1234, 10*time.Millisecond)
	now := time.Unix(0, 0)
	e.Handle(now, 0xFFFF, KeySoft, 1)

	e.Handle(now.Add(200*time.Millisecond), 0xFFFF, KeySoft, 2)
	if _, ok := e.last[historyKey{key: KeySoft, subKey: 1}]; ok {
		t.Fatal("stale history entry should have been pruned")
	}
}

func TestParseCommandRejectsForeignEsta(t *testing.T) {
	_, ok := ParseCommand(0x7FF0, 0x1111, []byte("SwoutText1=Stage Left"))
	if ok {
		t.Fatal("expected rejection for mismatched ESTA filter")
	}
}

func TestParseCommandSplitsDirectives(t *testing.T) {
	directives, ok := ParseCommand(0x7FF0, 0xFFFF, []byte("SwoutText1=Stage Left&SwinText2=House\x00\x00"))
	if !ok {
		t.Fatal("expected acceptance for wildcard ESTA filter")
	}
	if len(directives) != 2 {
		t.Fatalf("got %d directives, want 2: %+v", len(directives), directives)
	}
	if directives[0].Key != "SwoutText1" || directives[0].Value != "Stage Left" {
		t.Fatalf("got %+v", directives[0])
	}
	if directives[1].Value != "House" {
		t.Fatalf("got %+v, want NUL-stripped value", directives[1])
	}
}

func TestParseCommandTruncatesLongValues(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = 'x'
	}
	directives, _ := ParseCommand(0x7FF0, 0xFFFF, append([]byte("SwoutText="), long...))
	if len(directives[0].Value) != maxDirectiveValueLen {
		t.Fatalf("value length = %d, want %d", len(directives[0].Value), maxDirectiveValueLen)
	}
}

func TestPortLabelsExtractsRecognizedKeys(t *testing.T) {
	directives := []Directive{
		{Key: "SwoutText1", Value: "Stage Left"},
		{Key: "swintext2", Value: "House"},
		{Key: "Unrelated", Value: "ignored"},
	}
	labels := PortLabels(directives)
	if len(labels) != 2 {
		t.Fatalf("got %d labels, want 2: %+v", len(labels), labels)
	}
	if labels[0].Port != 1 || !labels[0].Output || labels[0].Text != "Stage Left" {
		t.Fatalf("got %+v", labels[0])
	}
	if labels[1].Port != 2 || labels[1].Output {
		t.Fatalf("got %+v", labels[1])
	}
}

func TestPortLabelsDefaultsToPortZeroWithoutSuffix(t *testing.T) {
	labels := PortLabels([]Directive{{Key: "SwoutText", Value: "Main"}})
	if len(labels) != 1 || labels[0].Port != 0 {
		t.Fatalf("got %+v, want port 0", labels)
	}
}
