// Package sched tracks the fetch lifecycle of every cache key and decides
// when a refresh may start.
//
// Each key is Idle, InFlight, or Backoff. At most one fetch per key is ever
// in flight; duplicate requests coalesce into the running one. Failures put
// the key into a doubling, capped backoff that only a success resets.
// Scheduled ticks respect backoff; an operator-requested refresh does not.
//
// A Scheduler is not safe for concurrent use; the engine goroutine owns it.
// All methods take the current time so decisions stay deterministic in
// tests.
package sched

import (
	"time"

	"github.com/roeyazroel/linear-dash/internal/store"
)

// Phase is the lifecycle phase of one key's fetching.
type Phase int

const (
	// PhaseIdle means nothing is happening for the key.
	PhaseIdle Phase = iota
	// PhaseInFlight means a fetch is running.
	PhaseInFlight
	// PhaseBackoff means the last fetch failed and retries are on hold.
	PhaseBackoff
)

// String returns a short label for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseInFlight:
		return "in-flight"
	case PhaseBackoff:
		return "backoff"
	default:
		return "idle"
	}
}

type keyState struct {
	phase   Phase
	started time.Time
	until   time.Time
	// delay is the wait the next failure will impose, doubling up to the
	// scheduler's limit. Zero means the base delay has not been used yet.
	delay time.Duration
}

// Scheduler decides when fetches start for each cache key.
type Scheduler struct {
	base  time.Duration
	limit time.Duration
	keys  map[store.Key]*keyState
}

// New creates a scheduler with the given base backoff delay and cap.
func New(base, limit time.Duration) *Scheduler {
	if base <= 0 {
		base = 5 * time.Second
	}
	if limit < base {
		limit = base
	}
	return &Scheduler{
		base:  base,
		limit: limit,
		keys:  make(map[store.Key]*keyState),
	}
}

// StartTick begins a scheduled fetch if the key is idle. It returns false
// while a fetch is in flight or the key is backing off.
func (s *Scheduler) StartTick(key store.Key, now time.Time) bool {
	st := s.ensure(key)
	switch st.phase {
	case PhaseInFlight:
		return false
	case PhaseBackoff:
		if now.Before(st.until) {
			return false
		}
	}
	st.phase = PhaseInFlight
	st.started = now
	return true
}

// StartManual begins an operator-requested fetch. Backoff does not block
// it, but a fetch already in flight still coalesces.
func (s *Scheduler) StartManual(key store.Key, now time.Time) bool {
	st := s.ensure(key)
	if st.phase == PhaseInFlight {
		return false
	}
	st.phase = PhaseInFlight
	st.started = now
	return true
}

// Succeed records a successful completion. The key returns to Idle and its
// backoff ladder resets.
func (s *Scheduler) Succeed(key store.Key, now time.Time) {
	st := s.ensure(key)
	st.phase = PhaseIdle
	st.started = time.Time{}
	st.until = time.Time{}
	st.delay = 0
}

// Fail records a failed completion. The key backs off until now plus the
// current ladder delay, or the server's retry hint when that is longer.
// Each failure doubles the next delay up to the cap; only Succeed resets it.
func (s *Scheduler) Fail(key store.Key, now time.Time, retryAfter time.Duration) {
	st := s.ensure(key)
	if st.delay == 0 {
		st.delay = s.base
	}

	wait := st.delay
	if retryAfter > wait {
		wait = retryAfter
	}

	st.phase = PhaseBackoff
	st.started = time.Time{}
	st.until = now.Add(wait)

	st.delay *= 2
	if st.delay > s.limit {
		st.delay = s.limit
	}
}

// Phase returns the key's current phase, treating an expired backoff as
// idle.
func (s *Scheduler) Phase(key store.Key, now time.Time) Phase {
	st, ok := s.keys[key]
	if !ok {
		return PhaseIdle
	}
	if st.phase == PhaseBackoff && !now.Before(st.until) {
		return PhaseIdle
	}
	return st.phase
}

// InFlight reports whether a fetch for the key is running.
func (s *Scheduler) InFlight(key store.Key) bool {
	st, ok := s.keys[key]
	return ok && st.phase == PhaseInFlight
}

// BackoffUntil returns the key's backoff deadline, zero when the key is not
// backing off.
func (s *Scheduler) BackoffUntil(key store.Key) time.Time {
	st, ok := s.keys[key]
	if !ok || st.phase != PhaseBackoff {
		return time.Time{}
	}
	return st.until
}

func (s *Scheduler) ensure(key store.Key) *keyState {
	st, ok := s.keys[key]
	if !ok {
		st = &keyState{}
		s.keys[key] = st
	}
	return st
}
