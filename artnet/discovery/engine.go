// Package discovery implements the node side of ArtPoll handling: peer
// subscriber tracking, reply-on-change limit enforcement, targeted-mode
// port-address filtering, and diagnostic-subscriber registration, per
// spec.md §4.6. Grounded on gopatchy-artmap/artnet/discovery.go's
// TTL-map-of-peers idiom (there: a controller tracking discovered nodes by
// last-seen; here: a node tracking subscriber peers by last-seen), with
// time.Now() calls replaced by an explicit `now` parameter to keep the
// engine pure and testable.
package discovery

import (
	"sort"
	"time"

	"github.com/gopatchy/artnode/artnet/addr"
)

// ArtPoll TalkToMe flag bits, per spec.md §4.2.
const (
	FlagSuppressDelay  = 1 << 0
	FlagReplyOnChange  = 1 << 1
	FlagDiagRequest    = 1 << 2
	FlagDiagUnicast    = 1 << 3
	FlagVLCDisable     = 1 << 4
	FlagTargetedMode   = 1 << 5
)

// EvictionPolicy governs which reply-on-change peers survive when the
// subscriber limit is exceeded.
type EvictionPolicy int

const (
	PolicyPreferExisting EvictionPolicy = iota
	PolicyPreferLatest
)

// peerKey identifies a peer by its UDP source.
type peerKey struct {
	Host string
	Port uint16
}

// Peer is one controller or node that has polled this node.
type Peer struct {
	Host                   string
	Port                   uint16
	LastSeen               time.Time
	ReplyOnChange          bool
	ReplyOnChangeGrantedAt time.Time
	TargetEnabled          bool
	TargetTop              addr.PortAddress
	TargetBottom           addr.PortAddress
	SuppressDelay          bool
	DiagSubscriber         bool
	DiagPriority           uint8
	DiagUnicast            bool
}

// Engine tracks subscriber peers for one node.
type Engine struct {
	ReplyOnChangeLimit int
	Policy             EvictionPolicy
	peers              map[peerKey]*Peer
}

// New returns an engine with the given reply-on-change limit (0 = no
// limit) and eviction policy.
func New(limit int, policy EvictionPolicy) *Engine {
	return &Engine{ReplyOnChangeLimit: limit, Policy: policy, peers: map[peerKey]*Peer{}}
}

// PollResult is the outcome of handling one ArtPoll: the updated peer, any
// peers just demoted by the subscriber limit, and whether a diagnostic
// subscription was (re)established. It does not list matched port pages;
// PageMatch answers that per page.
type PollResult struct {
	Peer          *Peer
	Demoted       []*Peer
	DiagRegistered bool
}

// HandlePoll updates a peer's subscription state from an inbound ArtPoll
// and enforces the reply-on-change limit, per spec.md §4.2/§4.6.
func (e *Engine) HandlePoll(now time.Time, host string, port uint16, flags uint8, diagPriority uint8, targetBottom, targetTop addr.PortAddress) PollResult {
	key := peerKey{Host: host, Port: port}
	p, ok := e.peers[key]
	if !ok {
		p = &Peer{Host: host, Port: port}
		e.peers[key] = p
	}
	p.LastSeen = now
	p.SuppressDelay = flags&FlagSuppressDelay != 0
	p.TargetEnabled = flags&FlagTargetedMode != 0
	p.TargetBottom = targetBottom
	p.TargetTop = targetTop

	wantsReplyOnChange := flags&FlagReplyOnChange != 0
	if wantsReplyOnChange && !p.ReplyOnChange {
		p.ReplyOnChange = true
		p.ReplyOnChangeGrantedAt = now
	} else if !wantsReplyOnChange {
		p.ReplyOnChange = false
		p.ReplyOnChangeGrantedAt = time.Time{}
	}

	diagRegistered := false
	if flags&FlagDiagRequest != 0 {
		p.DiagSubscriber = true
		p.DiagPriority = diagPriority
		p.DiagUnicast = flags&FlagDiagUnicast != 0
		diagRegistered = true
	}

	demoted := e.enforceLimit()

	return PollResult{Peer: p, Demoted: demoted, DiagRegistered: diagRegistered}
}

// enforceLimit is a pure function from the current peer set + limit +
// policy to a demoted set, per spec.md §4.6: prefer-existing keeps the
// oldest grants, prefer-latest keeps the newest.
func (e *Engine) enforceLimit() []*Peer {
	if e.ReplyOnChangeLimit <= 0 {
		return nil
	}

	var subscribed []*Peer
	for _, p := range e.peers {
		if p.ReplyOnChange {
			subscribed = append(subscribed, p)
		}
	}
	if len(subscribed) <= e.ReplyOnChangeLimit {
		return nil
	}

	sort.Slice(subscribed, func(i, j int) bool {
		if e.Policy == PolicyPreferLatest {
			return subscribed[i].ReplyOnChangeGrantedAt.After(subscribed[j].ReplyOnChangeGrantedAt)
		}
		return subscribed[i].ReplyOnChangeGrantedAt.Before(subscribed[j].ReplyOnChangeGrantedAt)
	})

	var demoted []*Peer
	for _, p := range subscribed[e.ReplyOnChangeLimit:] {
		p.ReplyOnChange = false
		p.ReplyOnChangeGrantedAt = time.Time{}
		demoted = append(demoted, p)
	}
	return demoted
}

// ReplyOnChangePeers returns every peer currently subscribed to
// reply-on-change updates, for fan-out when node state changes.
func (e *Engine) ReplyOnChangePeers() []*Peer {
	var out []*Peer
	for _, p := range e.peers {
		if p.ReplyOnChange {
			out = append(out, p)
		}
	}
	return out
}

// DiagSubscribers returns every peer subscribed to diagnostic messages.
func (e *Engine) DiagSubscribers() []*Peer {
	var out []*Peer
	for _, p := range e.peers {
		if p.DiagSubscriber {
			out = append(out, p)
		}
	}
	return out
}

// PageMatch reports whether a port page matches a peer's targeted-mode
// filter, per spec.md §4.6: a page matches iff any of its addresses falls
// in [min(bottom,top), max(bottom,top)]; with targeting disabled,
// everything matches.
func PageMatch(p *Peer, pageAddresses []addr.PortAddress) bool {
	if !p.TargetEnabled {
		return true
	}
	for _, a := range pageAddresses {
		if addr.InRange(a, p.TargetBottom, p.TargetTop) {
			return true
		}
	}
	return false
}

// Expire drops peers not seen within maxAge, the generalization of
// gopatchy-artmap/artnet/discovery.go's cleanup() sweep.
func (e *Engine) Expire(now time.Time, maxAge time.Duration) {
	cutoff := now.Add(-maxAge)
	for k, p := range e.peers {
		if p.LastSeen.Before(cutoff) {
			delete(e.peers, k)
		}
	}
}

// Peers returns every tracked peer, for introspection.
func (e *Engine) Peers() []*Peer {
	out := make([]*Peer, 0, len(e.peers))
	for _, p := range e.peers {
		out = append(out, p)
	}
	return out
}
