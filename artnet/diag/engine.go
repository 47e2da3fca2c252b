// Package diag implements the diagnostic-subscriber rate/TTL registry and
// the warning-threshold latch described in spec.md §3: subscribers expire
// after a TTL, a warning flag latches once a configured threshold of
// live subscribers is crossed and releases when it drops back below, and
// an optional per-subscriber rate limit throttles delivery.
package diag

import "time"

// Config controls TTL, warning threshold, and rate limiting.
type Config struct {
	TTL             time.Duration // default 30s
	WarningThreshold int          // default 32
	RateLimit       time.Duration // 0 disables
}

// DefaultConfig matches spec.md §3's stated defaults.
func DefaultConfig() Config {
	return Config{TTL: 30 * time.Second, WarningThreshold: 32}
}

type subscriber struct {
	lastRefresh time.Time
	lastSentAt  time.Time
}

// Engine tracks diagnostic subscribers for one node.
type Engine struct {
	Config  Config
	subs    map[string]*subscriber
	warning bool
}

// New returns an engine with the given config.
func New(cfg Config) *Engine {
	return &Engine{Config: cfg, subs: map[string]*subscriber{}}
}

// Refresh registers or renews a subscriber, pruning anything past TTL and
// re-evaluating the warning latch, per spec.md §3 "on every refresh,
// entries older than TTL are pruned; warning flag latches/releases around
// threshold crossings".
func (e *Engine) Refresh(now time.Time, peer string) {
	e.prune(now)
	s, ok := e.subs[peer]
	if !ok {
		s = &subscriber{}
		e.subs[peer] = s
	}
	s.lastRefresh = now
	e.updateWarning()
}

func (e *Engine) prune(now time.Time) {
	cutoff := now.Add(-e.Config.TTL)
	for k, s := range e.subs {
		if s.lastRefresh.Before(cutoff) {
			delete(e.subs, k)
		}
	}
}

func (e *Engine) updateWarning() {
	if e.Config.WarningThreshold <= 0 {
		return
	}
	count := len(e.subs)
	if !e.warning && count >= e.Config.WarningThreshold {
		e.warning = true
	} else if e.warning && count < e.Config.WarningThreshold {
		e.warning = false
	}
}

// Warning reports whether the subscriber-count warning is currently
// latched.
func (e *Engine) Warning() bool { return e.warning }

// Count returns the number of live subscribers.
func (e *Engine) Count() int { return len(e.subs) }

// Allow reports whether a message may be sent to peer now, honoring the
// configured rate limit, and records the send if so.
func (e *Engine) Allow(now time.Time, peer string) bool {
	s, ok := e.subs[peer]
	if !ok {
		return false
	}
	if e.Config.RateLimit > 0 && !s.lastSentAt.IsZero() && now.Sub(s.lastSentAt) < e.Config.RateLimit {
		return false
	}
	s.lastSentAt = now
	return true
}
