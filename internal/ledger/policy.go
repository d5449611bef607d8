package ledger

import (
	"time"

	"tournament-bot/internal/models"
)

// Policy holds the configured confirmation and expiry constants. Its
// decision functions are pure so they can be tested against synthetic
// clocks.
type Policy struct {
	// PendingTTL is the maximum age a pending entry may reach before the
	// expiry sweep evicts it.
	PendingTTL time.Duration

	// RateWindow and RateLimit bound accepted submissions per user: at most
	// RateLimit rating submissions inside any RateWindow span.
	RateWindow time.Duration
	RateLimit  int
}

// IsExpired reports whether a pending entry is past its time-to-live.
func (p Policy) IsExpired(e models.PendingRegistration, now time.Time) bool {
	return now.Sub(e.SubmittedAt) > p.PendingTTL
}

// IsRateLimited reports whether a user with the given submission history
// must be refused a new submission at time now.
func (p Policy) IsRateLimited(w Window, now time.Time) bool {
	return w.countSince(now.Add(-p.RateWindow)) >= p.RateLimit
}

// Window is one user's sliding record of accepted submission times.
type Window struct {
	calls []time.Time
}

func (w Window) countSince(cutoff time.Time) int {
	n := 0
	for _, t := range w.calls {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

// record notes an accepted submission and drops entries older than span.
func (w Window) record(now time.Time, span time.Duration) Window {
	cutoff := now.Add(-span)
	kept := w.calls[:0:0]
	for _, t := range w.calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return Window{calls: append(kept, now)}
}
