package wire

import "encoding/binary"

// reader walks a byte slice front-to-back with bounds checking, the way
// gopatchy-artmap/artnet/protocol.go's parseXPacket functions index
// directly into `data`, but centralized so every opcode decoder shares one
// bounds-checked cursor instead of repeating `len(data) < N` guards.
type reader struct {
	buf []byte
	pos int
}

func newReader(buf []byte) *reader {
	return &reader{buf: buf}
}

func (r *reader) need(n int) bool {
	return r.pos+n <= len(r.buf)
}

func (r *reader) u8() (uint8, bool) {
	if !r.need(1) {
		return 0, false
	}
	v := r.buf[r.pos]
	r.pos++
	return v, true
}

func (r *reader) u16le() (uint16, bool) {
	if !r.need(2) {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, true
}

func (r *reader) u16be() (uint16, bool) {
	if !r.need(2) {
		return 0, false
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, true
}

func (r *reader) u32be() (uint32, bool) {
	if !r.need(4) {
		return 0, false
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, true
}

func (r *reader) ipv4() ([4]byte, bool) {
	var ip [4]byte
	if !r.need(4) {
		return ip, false
	}
	copy(ip[:], r.buf[r.pos:r.pos+4])
	r.pos += 4
	return ip, true
}

func (r *reader) uid() ([6]byte, bool) {
	var uid [6]byte
	if !r.need(6) {
		return uid, false
	}
	copy(uid[:], r.buf[r.pos:r.pos+6])
	r.pos += 6
	return uid, true
}

// fixedString reads n bytes and trims at the first NUL, matching spec.md
// §4.1's "read until first null up to length" rule.
func (r *reader) fixedString(n int) (string, bool) {
	if !r.need(n) {
		return "", false
	}
	raw := r.buf[r.pos : r.pos+n]
	r.pos += n
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i]), true
		}
	}
	return string(raw), true
}

// fixedBytes reads n raw bytes into a fresh copy (safe to retain).
func (r *reader) fixedBytes(n int) ([]byte, bool) {
	if !r.need(n) {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, true
}

// rest returns a zero-copy view of everything left in the buffer.
func (r *reader) rest() []byte {
	return r.buf[r.pos:]
}

// skip advances without reading (reserved/filler/spare fields).
func (r *reader) skip(n int) bool {
	if !r.need(n) {
		return false
	}
	r.pos += n
	return true
}

// writer appends the wire form of a packet, growing as needed, mirroring
// gopatchy-artmap/artnet/protocol.go's BuildXPacket `buf := make([]byte, N)`
// + index-assignment style but via append so variable payloads don't need
// a precomputed total length up front.
type writer struct {
	buf []byte
}

func newWriter(capHint int) *writer {
	return &writer{buf: make([]byte, 0, capHint)}
}

func (w *writer) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) u16le(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) u16be(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) u32be(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) ipv4(v [4]byte) {
	w.buf = append(w.buf, v[:]...)
}

func (w *writer) uid(v [6]byte) {
	w.buf = append(w.buf, v[:]...)
}

// fixedString writes s left-justified and NUL-padded to n bytes, truncating
// if s is longer.
func (w *writer) fixedString(s string, n int) {
	var b = make([]byte, n)
	copy(b, s)
	w.buf = append(w.buf, b...)
}

func (w *writer) bytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *writer) zero(n int) {
	w.buf = append(w.buf, make([]byte, n)...)
}

// WrapAddChecksum computes the 16-bit wrap-add checksum spec.md §4.1/§4.7
// use for VLC and firmware payload integrity: `(acc + byte) & 0xFFFF` over
// every byte, never promoted to a signed type.
func WrapAddChecksum(data []byte) uint16 {
	var acc uint16
	for _, b := range data {
		acc = (acc + uint16(b)) & 0xFFFF
	}
	return acc
}
