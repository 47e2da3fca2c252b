// Package trigger implements ArtTrigger's rate-limited dispatch and
// ArtCommand's directive parsing, per spec.md §4.2. No teacher analogue
// exists for either (gopatchy-artmap is receive-only DMX plumbing); built
// directly to the specification, following the bounded TTL-map idiom the
// teacher uses for peer/source bookkeeping elsewhere in this module.
package trigger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// General-OEM trigger keys, Table 7 of spec.md §4.2.
const (
	KeyAscii = 0x00
	KeyMacro = 0x01
	KeySoft  = 0x02
	KeyShow  = 0x03
)

// oemAny is the wildcard OemFilter value matching any node.
const oemAny = 0xFFFF

// DefaultMinInterval is the default rate-limit interval between triggers
// sharing a history key, per spec.md §6 `triggers.min-interval-ms`.
const DefaultMinInterval = 50 * time.Millisecond

// historyKey identifies one rate-limit bucket: general-OEM triggers bucket
// by (key, sub-key); vendor triggers bucket by (vendor-oem, key, sub-key).
type historyKey struct {
	oem    uint16
	key    uint8
	subKey uint8
}

// Engine rate-limits inbound ArtTrigger packets for one node.
type Engine struct {
	NodeOem     uint16
	MinInterval time.Duration
	last        map[historyKey]time.Time
}

// New returns an engine with the given node OEM and minimum interval
// between triggers sharing a history key. A zero interval uses
// DefaultMinInterval.
func New(nodeOem uint16, minInterval time.Duration) *Engine {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Engine{NodeOem: nodeOem, MinInterval: minInterval, last: map[historyKey]time.Time{}}
}

// Result reports how an ArtTrigger packet was handled.
type Result struct {
	Accepted bool
	Throttled bool
	Key       uint8
	SubKey    uint8
	Vendor    bool
}

// Handle decides whether an ArtTrigger packet should be dispatched, per
// spec.md §4.2: accept if the target OEM is the wildcard or matches the
// node, then rate-limit per history key, pruning entries older than
// 16×interval so the map never grows unbounded.
func (e *Engine) Handle(now time.Time, oemFilter uint16, key, subKey uint8) Result {
	if oemFilter != oemAny && oemFilter != e.NodeOem {
		return Result{Accepted: false}
	}

	vendor := key != KeyAscii && key != KeyMacro && key != KeySoft && key != KeyShow
	hk := historyKey{key: key, subKey: subKey}
	if vendor {
		hk.oem = oemFilter
	}

	e.prune(now)

	if last, ok := e.last[hk]; ok && now.Sub(last) < e.MinInterval {
		return Result{Accepted: true, Throttled: true, Key: key, SubKey: subKey, Vendor: vendor}
	}

	e.last[hk] = now
	return Result{Accepted: true, Key: key, SubKey: subKey, Vendor: vendor}
}

// prune drops history entries older than 16×interval, per spec.md §4.2's
// "bounded history map pruned at 16 × interval".
func (e *Engine) prune(now time.Time) {
	cutoff := now.Add(-16 * e.MinInterval)
	for k, t := range e.last {
		if t.Before(cutoff) {
			delete(e.last, k)
		}
	}
}

// Directive is one parsed ArtCommand key=value pair.
type Directive struct {
	Key   string
	Value string
}

const maxDirectiveValueLen = 512

// ParseCommand parses an ArtCommand payload's `key=value&key=value...`
// body into directives, accepting only if the target ESTA filter is the
// wildcard or matches the node, per spec.md §4.2. Values are sanitized:
// trailing NULs stripped, surrounding whitespace trimmed, truncated to
// 512 bytes.
func ParseCommand(nodeEsta uint16, estaFilter uint16, data []byte) ([]Directive, bool) {
	if estaFilter != oemAny && estaFilter != nodeEsta {
		return nil, false
	}

	text := strings.TrimRight(string(data), "\x00")
	if text == "" {
		return nil, true
	}

	var directives []Directive
	for _, pair := range strings.Split(text, "&") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = sanitizeValue(v)
		directives = append(directives, Directive{Key: k, Value: v})
	}
	return directives, true
}

func sanitizeValue(v string) string {
	v = strings.TrimRight(v, "\x00")
	v = strings.TrimSpace(v)
	if len(v) > maxDirectiveValueLen {
		v = v[:maxDirectiveValueLen]
	}
	return v
}

// PortLabelDirective is a recognized SwoutText/SwinText directive applying
// a label to one port.
type PortLabelDirective struct {
	Port   int
	Output bool
	Text   string
}

// PortLabels extracts recognized SwoutText[n]/SwinText[n] directives
// (case-insensitive key match) from a parsed directive set, per spec.md
// §4.2. Unrecognized keys are ignored.
func PortLabels(directives []Directive) []PortLabelDirective {
	var out []PortLabelDirective
	for _, d := range directives {
		key := strings.ToLower(d.Key)
		switch {
		case strings.HasPrefix(key, "swouttext"):
			out = append(out, PortLabelDirective{Port: portIndex(key, "swouttext"), Output: true, Text: d.Value})
		case strings.HasPrefix(key, "swintext"):
			out = append(out, PortLabelDirective{Port: portIndex(key, "swintext"), Output: false, Text: d.Value})
		}
	}
	return out
}

// portIndex extracts a trailing numeric port suffix from a key like
// "SwoutText1"; returns 0 if absent, matching an unindexed single-port
// directive.
func portIndex(key, prefix string) int {
	suffix := key[min(len(prefix), len(key)):]
	if suffix == "" {
		return 0
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// AckMessage formats a human-readable acknowledgement for a dispatched
// trigger, for the diagnostic-acknowledgement generator.
func AckMessage(r Result) string {
	if r.Throttled {
		return fmt.Sprintf("trigger key=0x%02X sub-key=0x%02X throttled", r.Key, r.SubKey)
	}
	return fmt.Sprintf("trigger key=0x%02X sub-key=0x%02X dispatched", r.Key, r.SubKey)
}
