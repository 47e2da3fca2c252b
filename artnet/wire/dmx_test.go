package wire

import (
	"bytes"
	"testing"
)

func TestDMXEncodeLiteral(t *testing.T) {
	p := &DMXPacket{
		Sequence: 1, Physical: 0,
		Net: 1, SubNet: 2, Universe: 3,
		Data: []byte{0xFF, 0x00, 0x80},
	}
	got := Encode(p)
	want := []byte{
		0x41, 0x72, 0x74, 0x2D, 0x4E, 0x65, 0x74, 0x00, // "Art-Net\0"
		0x00, 0x50, // opcode LE
		0x00, 0x0E, // protocol version BE
		0x01, 0x00, // sequence, physical
		0x23, 0x01, // sub-net/universe, net
		0x00, 0x03, // length BE
		0xFF, 0x00, 0x80,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("encode mismatch:\n got  % X\n want % X", got, want)
	}

	decoded, err := Decode(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	dmx, ok := decoded.(*DMXPacket)
	if !ok {
		t.Fatalf("decode returned %T, want *DMXPacket", decoded)
	}
	portAddress := int(dmx.Net)<<8 | int(dmx.SubNet)<<4 | int(dmx.Universe)
	if portAddress != 291 {
		t.Fatalf("port-address = %d, want 291", portAddress)
	}
	if !bytes.Equal(dmx.Data, []byte{0xFF, 0x00, 0x80}) {
		t.Fatalf("data = % X, want FF 00 80", dmx.Data)
	}
}

func TestDMXRejectsOversizePayload(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic encoding a >512 byte ArtDmx payload")
		}
	}()
	Encode(&DMXPacket{Data: make([]byte, 513)})
}

func TestDMXTruncated(t *testing.T) {
	buf := Encode(&DMXPacket{Data: []byte{1, 2, 3}})
	_, err := Decode(buf[:dmxHeaderLen-1])
	if err == nil {
		t.Fatal("expected truncation error")
	}
	werr, ok := err.(*Error)
	if !ok || werr.Kind != KindTruncated {
		t.Fatalf("got %v, want KindTruncated", err)
	}
}

func FuzzDMXRoundtrip(f *testing.F) {
	f.Add(uint8(1), uint8(0), uint8(1), uint8(2), uint8(3), []byte{0xFF, 0x00, 0x80})
	f.Add(uint8(255), uint8(1), uint8(127), uint8(15), uint8(15), make([]byte, 512))
	f.Add(uint8(0), uint8(0), uint8(0), uint8(0), uint8(0), []byte{})

	f.Fuzz(func(t *testing.T, seq, phys, net, sub, uni uint8, data []byte) {
		if len(data) > 512 {
			data = data[:512]
		}
		p := &DMXPacket{
			Sequence: seq, Physical: phys,
			Net: net & 0x7F, SubNet: sub & 0x0F, Universe: uni & 0x0F,
			Data: data,
		}
		buf := Encode(p)
		decoded, err := Decode(buf)
		if err != nil {
			t.Fatalf("decode after encode failed: %v", err)
		}
		got, ok := decoded.(*DMXPacket)
		if !ok {
			t.Fatalf("decoded %T, want *DMXPacket", decoded)
		}
		if got.Sequence != p.Sequence || got.Physical != p.Physical ||
			got.Net != p.Net || got.SubNet != p.SubNet || got.Universe != p.Universe {
			t.Fatalf("roundtrip field mismatch: got %+v, want %+v", got, p)
		}
		if !bytes.Equal(got.Data, p.Data) {
			t.Fatalf("roundtrip data mismatch: got % X, want % X", got.Data, p.Data)
		}
	})
}
