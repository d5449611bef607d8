package ledger

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tournament-bot/internal/models"
	"tournament-bot/internal/validation"
)

// Key identifies one registration slot.
type Key struct {
	UserID     int64
	Tournament models.Tournament
}

// Ledger owns all pending and confirmed registration state. Every mutation
// goes through an apply method under a single lock; a rejected call leaves
// the state exactly as it was. Reads hand out copies, never internal maps.
type Ledger struct {
	mu sync.Mutex

	rules  validation.Rules
	policy Policy

	pending   map[Key]models.PendingRegistration
	confirmed map[Key]models.ConfirmedRegistration
	names     map[int64]string // team name carry-over per user
	windows   map[int64]Window
	counters  models.Counters

	now func() time.Time
}

func New(rules validation.Rules, policy Policy) *Ledger {
	return &Ledger{
		rules:     rules,
		policy:    policy,
		pending:   map[Key]models.PendingRegistration{},
		confirmed: map[Key]models.ConfirmedRegistration{},
		names:     map[int64]string{},
		windows:   map[int64]Window{},
		now:       time.Now,
	}
}

// ApplySetName validates and records a user's team name. The name is set on
// every tournament slot: existing pending entries are updated in place, and
// a name-only pending entry is created where none exists yet. It also
// carries forward to any future submission by the same user.
func (l *Ledger) ApplySetName(userID int64, username, name, lang string) (string, error) {
	sanitized, err := l.rules.TeamName(name)
	if err != nil {
		return "", reject(RejectValidation, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.names[userID] = sanitized
	for _, t := range models.Tournaments {
		k := Key{UserID: userID, Tournament: t}
		if p, ok := l.pending[k]; ok {
			p.TeamName = sanitized
			p.Username = username
			l.pending[k] = p
			continue
		}
		l.pending[k] = models.PendingRegistration{
			UserID:      userID,
			Username:    username,
			Tournament:  t,
			TeamName:    sanitized,
			SubmittedAt: l.now(),
			Language:    lang,
		}
	}
	return sanitized, nil
}

// ApplyRegisterRating stages a rating submission for (user, tournament).
// The rate limit is checked before validation so abusive users cost a
// bounded amount of work. On success the pending entry is overwritten
// wholesale (last write wins), carrying the user's known team name.
func (l *Ledger) ApplyRegisterRating(userID int64, username string, t models.Tournament, rating int, lang string) (models.PendingRegistration, error) {
	if !t.Valid() {
		return models.PendingRegistration{}, reject(RejectValidation, fmt.Errorf("unknown tournament %q", t))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.policy.IsRateLimited(l.windows[userID], now) {
		return models.PendingRegistration{}, reject(RejectRateLimited, fmt.Errorf("user %d over %d submissions per %s", userID, l.policy.RateLimit, l.policy.RateWindow))
	}
	if err := l.rules.Rating(rating, t); err != nil {
		return models.PendingRegistration{}, reject(RejectValidation, err)
	}

	entry := models.PendingRegistration{
		UserID:      userID,
		Username:    username,
		Tournament:  t,
		TeamName:    l.names[userID],
		Rating:      rating,
		HasRating:   true,
		SubmittedAt: now,
		Language:    lang,
	}
	k := Key{UserID: userID, Tournament: t}
	if prev, ok := l.pending[k]; ok && prev.HasRating {
		log.Printf("ledger: overwriting pending %s rating for user %d: %d -> %d", t.Label(), userID, prev.Rating, rating)
	}
	l.pending[k] = entry

	l.windows[userID] = l.windows[userID].record(now, l.policy.RateWindow)
	l.counters.TotalSubmissions++
	l.counters.LastSubmissionAt = now
	return entry, nil
}

// ApplyConfirm promotes a complete pending entry to a confirmed record.
// Authorization of adminName happened upstream; the ledger only trusts it
// for the audit trail. A key that is already confirmed rejects a plain
// confirm; force re-runs the full validate-and-confirm path over the new
// pending entry, which is the only way to overwrite a confirmed record.
func (l *Ledger) ApplyConfirm(adminName, targetUser string, t models.Tournament, force bool) (models.ConfirmedRegistration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	userID, ok := l.findPendingUser(targetUser)
	if !ok {
		return models.ConfirmedRegistration{}, reject(RejectNoPending, fmt.Errorf("no pending entry for @%s", targetUser))
	}
	k := Key{UserID: userID, Tournament: t}
	p, ok := l.pending[k]
	if !ok {
		return models.ConfirmedRegistration{}, reject(RejectNoPending, fmt.Errorf("no pending %s entry for @%s", t.Label(), targetUser))
	}
	if !p.Complete() {
		return models.ConfirmedRegistration{}, reject(RejectIncomplete, fmt.Errorf("pending %s entry for @%s lacks team name or rating", t.Label(), targetUser))
	}
	if _, exists := l.confirmed[k]; exists && !force {
		return models.ConfirmedRegistration{}, reject(RejectAlreadyConfirmed, fmt.Errorf("@%s already confirmed in %s", targetUser, t.Label()))
	}

	// Never trust staged values at confirmation time.
	name, err := l.rules.TeamName(p.TeamName)
	if err != nil {
		return models.ConfirmedRegistration{}, reject(RejectValidation, err)
	}
	if err := l.rules.Rating(p.Rating, t); err != nil {
		return models.ConfirmedRegistration{}, reject(RejectValidation, err)
	}

	rec := models.ConfirmedRegistration{
		ID:          uuid.NewString(),
		UserID:      p.UserID,
		Username:    p.Username,
		Tournament:  t,
		TeamName:    name,
		Rating:      p.Rating,
		SubmittedAt: p.SubmittedAt,
		ConfirmedAt: l.now(),
		ConfirmedBy: adminName,
	}
	l.confirmed[k] = rec
	delete(l.pending, k)
	l.counters.ConfirmedTotal++
	l.counters.LastConfirmationAt = rec.ConfirmedAt
	return rec, nil
}

// ExpireStale evicts every pending entry older than the policy TTL and
// returns the count removed. Safe to call at any cadence; a second call
// with the same clock removes nothing.
func (l *Ledger) ExpireStale(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for k, p := range l.pending {
		if l.policy.IsExpired(p, now) {
			delete(l.pending, k)
			removed++
		}
	}
	l.counters.ExpiredRegistrations += removed
	return removed
}

// PendingTournaments lists the formats a user currently has a pending entry
// in, used when a confirmation does not name a tournament.
func (l *Ledger) PendingTournaments(targetUser string) []models.Tournament {
	l.mu.Lock()
	defer l.mu.Unlock()

	uid, ok := l.findPendingUser(targetUser)
	if !ok {
		return nil
	}
	out := []models.Tournament{}
	for _, t := range models.Tournaments {
		if _, ok := l.pending[Key{UserID: uid, Tournament: t}]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Pending returns a copy of the staged entry for (user, tournament).
func (l *Ledger) Pending(userID int64, t models.Tournament) (models.PendingRegistration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.pending[Key{UserID: userID, Tournament: t}]
	return p, ok
}

// Confirmed returns a copy of the confirmed record for (user, tournament).
func (l *Ledger) Confirmed(userID int64, t models.Tournament) (models.ConfirmedRegistration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.confirmed[Key{UserID: userID, Tournament: t}]
	return c, ok
}

// TeamName reports the carry-over name recorded for a user.
func (l *Ledger) TeamName(userID int64) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name, ok := l.names[userID]
	return name, ok
}

// ListConfirmed returns confirmed registrations for a tournament ordered by
// confirmation time, oldest first.
func (l *Ledger) ListConfirmed(t models.Tournament) []models.ConfirmedRegistration {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []models.ConfirmedRegistration{}
	for k, c := range l.confirmed {
		if k.Tournament == t {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConfirmedAt.Before(out[j].ConfirmedAt) })
	return out
}

// ListPending returns every staged entry ordered by submission time.
func (l *Ledger) ListPending() []models.PendingRegistration {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.PendingRegistration, 0, len(l.pending))
	for _, p := range l.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].UserID < out[j].UserID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}

// Stats aggregates the ledger into the admin read model.
func (l *Ledger) Stats() models.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := models.Stats{
		PendingTotal:     len(l.pending),
		TotalSubmissions: l.counters.TotalSubmissions,
		ConfirmedTotal:   l.counters.ConfirmedTotal,
		LastSubmissionAt: l.counters.LastSubmissionAt,
	}
	for _, t := range models.Tournaments {
		ts := models.TournamentStats{Tournament: t}
		sum := 0
		for k, c := range l.confirmed {
			if k.Tournament != t {
				continue
			}
			if ts.Confirmed == 0 || c.Rating < ts.MinRating {
				ts.MinRating = c.Rating
			}
			if c.Rating > ts.MaxRating {
				ts.MaxRating = c.Rating
			}
			sum += c.Rating
			ts.Confirmed++
		}
		if ts.Confirmed > 0 {
			ts.AvgRating = float64(sum) / float64(ts.Confirmed)
		}
		for k := range l.pending {
			if k.Tournament == t {
				ts.Pending++
			}
		}
		st.PerTournament = append(st.PerTournament, ts)
	}
	return st
}

// Snapshot serializes the full ledger state for the persistence
// collaborator.
func (l *Ledger) Snapshot() models.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := models.Snapshot{
		TeamNames: make(map[int64]string, len(l.names)),
		Counters:  l.counters,
		SavedAt:   l.now(),
	}
	for _, p := range l.pending {
		snap.Pending = append(snap.Pending, p)
	}
	for _, c := range l.confirmed {
		snap.Confirmed = append(snap.Confirmed, c)
	}
	for id, name := range l.names {
		snap.TeamNames[id] = name
	}
	sort.Slice(snap.Pending, func(i, j int) bool { return snap.Pending[i].SubmittedAt.Before(snap.Pending[j].SubmittedAt) })
	sort.Slice(snap.Confirmed, func(i, j int) bool { return snap.Confirmed[i].ConfirmedAt.Before(snap.Confirmed[j].ConfirmedAt) })
	return snap
}

// Restore replaces the ledger state with a loaded snapshot. Meant for
// startup only; rate-limit windows start empty after a restore.
func (l *Ledger) Restore(snap models.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending = map[Key]models.PendingRegistration{}
	l.confirmed = map[Key]models.ConfirmedRegistration{}
	l.names = map[int64]string{}
	l.windows = map[int64]Window{}
	for _, p := range snap.Pending {
		l.pending[Key{UserID: p.UserID, Tournament: p.Tournament}] = p
	}
	for _, c := range snap.Confirmed {
		l.confirmed[Key{UserID: c.UserID, Tournament: c.Tournament}] = c
	}
	for id, name := range snap.TeamNames {
		l.names[id] = name
	}
	l.counters = snap.Counters
}

// Clear wipes every registration, name and counter.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending = map[Key]models.PendingRegistration{}
	l.confirmed = map[Key]models.ConfirmedRegistration{}
	l.names = map[int64]string{}
	l.windows = map[int64]Window{}
	l.counters = models.Counters{}
}

// findPendingUser resolves a username to a user ID via the staged entries.
// Caller holds l.mu.
func (l *Ledger) findPendingUser(username string) (int64, bool) {
	for _, p := range l.pending {
		if strings.EqualFold(p.Username, username) {
			return p.UserID, true
		}
	}
	return 0, false
}
