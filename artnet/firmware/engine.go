// Package firmware implements the ArtFirmwareMaster transfer session
// table and integrity verification described in spec.md §4.7. No teacher
// analogue exists (gopatchy-artmap never implements firmware transfer);
// built directly to the specification. Session identifiers use
// github.com/google/uuid, matching this module's convention for
// non-wire-visible job/session ids (see artnet/rdm.Task).
package firmware

import (
	"time"

	"github.com/google/uuid"

	"github.com/gopatchy/artnode/artnet/wire"
)

// headerBufferLen is the size of the header region whose first two bytes
// carry the checksum and whose bytes [1056:1060) carry the secondary
// data-words count, per spec.md §4.7.
const headerBufferLen = 1060

// FailReason enumerates session failures, per spec.md §4.7.
type FailReason string

const (
	FailMissingSession      FailReason = "missing-session"
	FailTransferMismatch    FailReason = "transfer-mismatch"
	FailUnexpectedBlock     FailReason = "unexpected-block"
	FailLengthOverflow      FailReason = "length-overflow"
	FailFirmwareLengthMismatch FailReason = "firmware-length-mismatch"
	FailChecksumMismatch    FailReason = "checksum-mismatch"
)

// sessionTTL is how long a session may go without an update before it
// times out, per spec.md §4.7.
const sessionTTL = 30 * time.Second

// SessionKey identifies a transfer by its sender.
type SessionKey struct {
	Host string
	Port uint16
}

// Session tracks one in-progress firmware/UBEA transfer.
type Session struct {
	ID               string
	Transfer         uint8 // the BlockType family (firmware vs. ubea) this session started with
	FirmwareLength   uint32 // words, per the first ArtFirmwareMaster
	TotalBytes       int
	ReceivedBytes    int
	ReceivedBlocks   int
	ExpectedBlockID  uint8
	HeaderBuffer     []byte
	HeaderReceived   bool
	HeaderTotalBytes int
	PayloadSum       uint16
	ExpectedChecksum uint16
	StartedAt        time.Time
	UpdatedAt        time.Time
}

// Engine holds the session table for one node.
type Engine struct {
	sessions map[SessionKey]*Session
}

// New returns an engine with no active sessions.
func New() *Engine {
	return &Engine{sessions: map[SessionKey]*Session{}}
}

func isFirst(blockType uint8) bool {
	return blockType == wire.FirmwareBlockFirmFirst || blockType == wire.FirmwareBlockUbeaFirst
}

func isLast(blockType uint8) bool {
	return blockType == wire.FirmwareBlockFirmLast || blockType == wire.FirmwareBlockUbeaLast
}

func family(blockType uint8) uint8 {
	switch blockType {
	case wire.FirmwareBlockFirmFirst, wire.FirmwareBlockFirmCont, wire.FirmwareBlockFirmLast:
		return wire.FirmwareBlockFirmFirst
	default:
		return wire.FirmwareBlockUbeaFirst
	}
}

// Result reports the outcome of one ArtFirmwareMaster block.
type Result struct {
	Reply     uint8 // wire.FirmwareReplyBlockGood / AllGood / BlockFail
	Fail      FailReason
	Completed bool
	Session   *Session
}

// HandleBlock processes one ArtFirmwareMaster block for a session, per
// spec.md §4.7.
func (e *Engine) HandleBlock(now time.Time, key SessionKey, p *wire.FirmwareMasterPacket) Result {
	s, exists := e.sessions[key]

	if isFirst(p.BlockType) {
		s = &Session{
			ID: uuid.NewString(), Transfer: family(p.BlockType),
			FirmwareLength: p.FirmwareLength, TotalBytes: int(2 * p.FirmwareLength),
			ExpectedBlockID: 0, StartedAt: now, UpdatedAt: now,
		}
		e.sessions[key] = s
	} else if !exists {
		return Result{Reply: wire.FirmwareReplyBlockFail, Fail: FailMissingSession}
	} else if family(p.BlockType) != s.Transfer {
		e.drop(key)
		return Result{Reply: wire.FirmwareReplyBlockFail, Fail: FailTransferMismatch}
	}

	if p.BlockID != s.ExpectedBlockID {
		e.drop(key)
		return Result{Reply: wire.FirmwareReplyBlockFail, Fail: FailUnexpectedBlock}
	}

	if len(p.Data)%2 != 0 {
		e.drop(key)
		return Result{Reply: wire.FirmwareReplyBlockFail, Fail: FailLengthOverflow}
	}

	if s.ReceivedBytes+len(p.Data) > s.TotalBytes {
		e.drop(key)
		return Result{Reply: wire.FirmwareReplyBlockFail, Fail: FailLengthOverflow}
	}

	if !s.HeaderReceived {
		s.HeaderBuffer = append(s.HeaderBuffer, p.Data...)
		if len(s.HeaderBuffer) >= headerBufferLen {
			header := s.HeaderBuffer[:headerBufferLen]
			s.ExpectedChecksum = uint16(header[0])<<8 | uint16(header[1])
			dataWords := uint32(header[1056])<<24 | uint32(header[1057])<<16 | uint32(header[1058])<<8 | uint32(header[1059])
			headerWords := headerBufferLen / 2
			s.HeaderTotalBytes = 2 * (headerWords + int(dataWords))
			s.HeaderReceived = true

			if s.HeaderTotalBytes != s.TotalBytes {
				e.drop(key)
				return Result{Reply: wire.FirmwareReplyBlockFail, Fail: FailFirmwareLengthMismatch}
			}

			s.PayloadSum = wrapAddSeeded(0, header[2:])
			if overflow := s.HeaderBuffer[headerBufferLen:]; len(overflow) > 0 {
				s.PayloadSum = wrapAddSeeded(s.PayloadSum, overflow)
			}
			s.HeaderBuffer = nil
		}
	} else {
		s.PayloadSum = wrapAddSeeded(s.PayloadSum, p.Data)
	}

	s.ReceivedBytes += len(p.Data)
	s.ReceivedBlocks++
	s.ExpectedBlockID++
	s.UpdatedAt = now

	if !isLast(p.BlockType) {
		return Result{Reply: wire.FirmwareReplyBlockGood, Session: s}
	}

	complement := ^s.PayloadSum
	if complement != s.ExpectedChecksum {
		e.drop(key)
		return Result{Reply: wire.FirmwareReplyBlockFail, Fail: FailChecksumMismatch}
	}

	completed := *s
	e.drop(key)
	return Result{Reply: wire.FirmwareReplyAllGood, Completed: true, Session: &completed}
}

// wrapAddSeeded continues wire.WrapAddChecksum's accumulation from a
// prior running sum, so a session can fold each block's bytes into the
// total as they arrive instead of retaining the entire payload.
func wrapAddSeeded(seed uint16, data []byte) uint16 {
	acc := seed
	for _, b := range data {
		acc = (acc + uint16(b)) & 0xFFFF
	}
	return acc
}

func (e *Engine) drop(key SessionKey) {
	delete(e.sessions, key)
}

// ExpireSessions drops sessions idle past sessionTTL.
func (e *Engine) ExpireSessions(now time.Time) {
	cutoff := now.Add(-sessionTTL)
	for k, s := range e.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(e.sessions, k)
		}
	}
}

// Active reports whether a session exists for key.
func (e *Engine) Active(key SessionKey) bool {
	_, ok := e.sessions[key]
	return ok
}
