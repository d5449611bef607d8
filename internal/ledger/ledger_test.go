package ledger

import (
	"errors"
	"testing"
	"time"

	"tournament-bot/internal/models"
	"tournament-bot/internal/validation"
)

func testLedger(t *testing.T) (*Ledger, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(
		validation.Rules{MaxTeamNameLen: 50, MinRating: 0, MaxRating: 100},
		Policy{PendingTTL: 24 * time.Hour, RateWindow: time.Minute, RateLimit: 3},
	)
	l.now = func() time.Time { return now }
	return l, &now
}

func rejectKind(t *testing.T, err error) RejectKind {
	t.Helper()
	var rej *Reject
	if !errors.As(err, &rej) {
		t.Fatalf("err = %v, want *Reject", err)
	}
	return rej.Kind
}

func TestApplyRegisterRating_Roundtrip(t *testing.T) {
	l, _ := testLedger(t)

	for _, rating := range []int{0, 1, 42, 99, 100} {
		entry, err := l.ApplyRegisterRating(1, "alice99", models.TournamentVSA, rating, "en")
		if err != nil {
			t.Fatalf("ApplyRegisterRating(%d): %v", rating, err)
		}
		if entry.Rating != rating || !entry.HasRating {
			t.Errorf("returned entry rating = %d (has=%v), want %d", entry.Rating, entry.HasRating, rating)
		}
		p, ok := l.Pending(1, models.TournamentVSA)
		if !ok || p.Rating != rating {
			t.Errorf("Pending after submit = (%+v, %v), want rating %d", p, ok, rating)
		}
		// New window per rating to stay under the rate limit.
		l.windows = map[int64]Window{}
	}
}

func TestApplyRegisterRating_OutOfRange(t *testing.T) {
	l, _ := testLedger(t)

	for _, rating := range []int{-1, 101, 150} {
		_, err := l.ApplyRegisterRating(1, "alice99", models.TournamentVSA, rating, "en")
		if kind := rejectKind(t, err); kind != RejectValidation {
			t.Fatalf("ApplyRegisterRating(%d) kind = %v, want RejectValidation", rating, kind)
		}
		if !errors.Is(err, validation.ErrOutOfRange) {
			t.Errorf("ApplyRegisterRating(%d) err = %v, want ErrOutOfRange", rating, err)
		}
		if _, ok := l.Pending(1, models.TournamentVSA); ok {
			t.Errorf("ledger mutated by rejected rating %d", rating)
		}
	}
}

func TestApplyRegisterRating_Overwrite(t *testing.T) {
	l, _ := testLedger(t)

	if _, err := l.ApplyRegisterRating(1, "alice99", models.TournamentVSA, 10, "en"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.ApplyRegisterRating(1, "alice99", models.TournamentVSA, 20, "en"); err != nil {
		t.Fatal(err)
	}
	p, ok := l.Pending(1, models.TournamentVSA)
	if !ok {
		t.Fatal("no pending entry")
	}
	if p.Rating != 20 {
		t.Errorf("pending rating = %d, want 20 (last write wins)", p.Rating)
	}
}

func TestApplySetName(t *testing.T) {
	l, _ := testLedger(t)

	name, err := l.ApplySetName(1, "alice99", "Foxes", "en")
	if err != nil {
		t.Fatalf("ApplySetName: %v", err)
	}
	if name != "Foxes" {
		t.Errorf("sanitized = %q, want Foxes", name)
	}
	// A name-only pending entry exists for every tournament.
	for _, tt := range models.Tournaments {
		p, ok := l.Pending(1, tt)
		if !ok {
			t.Fatalf("no pending %s entry after set name", tt)
		}
		if p.TeamName != "Foxes" || p.HasRating {
			t.Errorf("pending %s = %+v, want name-only Foxes", tt, p)
		}
	}

	// Invalid name leaves everything untouched.
	if _, err := l.ApplySetName(1, "alice99", "a", "en"); err == nil {
		t.Fatal("ApplySetName accepted invalid name")
	}
	if p, _ := l.Pending(1, models.TournamentVSA); p.TeamName != "Foxes" {
		t.Errorf("rejected set name mutated pending entry: %+v", p)
	}
}

func TestTeamNameCarriesForward(t *testing.T) {
	l, _ := testLedger(t)

	if _, err := l.ApplySetName(1, "alice99", "Foxes", "en"); err != nil {
		t.Fatal(err)
	}
	entry, err := l.ApplyRegisterRating(1, "alice99", models.TournamentH2H, 38, "en")
	if err != nil {
		t.Fatal(err)
	}
	if entry.TeamName != "Foxes" {
		t.Errorf("team name = %q, want carried-over Foxes", entry.TeamName)
	}
}

func TestApplyConfirm_RequiresCompleteness(t *testing.T) {
	l, _ := testLedger(t)

	// Name only: incomplete.
	if _, err := l.ApplySetName(1, "alice99", "Foxes", "en"); err != nil {
		t.Fatal(err)
	}
	_, err := l.ApplyConfirm("admin_user", "alice99", models.TournamentVSA, false)
	if kind := rejectKind(t, err); kind != RejectIncomplete {
		t.Fatalf("confirm on name-only entry kind = %v, want RejectIncomplete", kind)
	}

	// After the rating arrives, confirmation succeeds.
	if _, err := l.ApplyRegisterRating(1, "alice99", models.TournamentVSA, 42, "en"); err != nil {
		t.Fatal(err)
	}
	rec, err := l.ApplyConfirm("admin_user", "alice99", models.TournamentVSA, false)
	if err != nil {
		t.Fatalf("confirm after rating: %v", err)
	}
	if rec.TeamName != "Foxes" || rec.Rating != 42 || rec.ConfirmedBy != "admin_user" {
		t.Errorf("confirmed = %+v, want Foxes/42 by admin_user", rec)
	}
	if rec.ID == "" {
		t.Error("confirmed record has no receipt ID")
	}
	if _, ok := l.Pending(1, models.TournamentVSA); ok {
		t.Error("pending entry survived confirmation")
	}
	if _, ok := l.Confirmed(1, models.TournamentVSA); !ok {
		t.Error("confirmed record not stored")
	}
}

func TestApplyConfirm_NoPending(t *testing.T) {
	l, _ := testLedger(t)

	_, err := l.ApplyConfirm("admin_user", "ghost_user", models.TournamentVSA, false)
	if kind := rejectKind(t, err); kind != RejectNoPending {
		t.Fatalf("kind = %v, want RejectNoPending", kind)
	}
}

func TestApplyConfirm_RatingOnly(t *testing.T) {
	l, _ := testLedger(t)

	// Rating without a team name is incomplete too.
	if _, err := l.ApplyRegisterRating(1, "alice99", models.TournamentVSA, 42, "en"); err != nil {
		t.Fatal(err)
	}
	_, err := l.ApplyConfirm("admin_user", "alice99", models.TournamentVSA, false)
	if kind := rejectKind(t, err); kind != RejectIncomplete {
		t.Fatalf("kind = %v, want RejectIncomplete", kind)
	}
}

func TestApplyConfirm_AlreadyConfirmed(t *testing.T) {
	l, _ := testLedger(t)

	mustRegister(t, l, 1, "alice99", models.TournamentVSA, "Foxes", 42)
	if _, err := l.ApplyConfirm("admin_user", "alice99", models.TournamentVSA, false); err != nil {
		t.Fatal(err)
	}

	// Resubmission creates a fresh pending entry; a plain confirm refuses
	// to overwrite while force re-runs the full path.
	if _, err := l.ApplyRegisterRating(1, "alice99", models.TournamentVSA, 55, "en"); err != nil {
		t.Fatal(err)
	}
	_, err := l.ApplyConfirm("admin_user", "alice99", models.TournamentVSA, false)
	if kind := rejectKind(t, err); kind != RejectAlreadyConfirmed {
		t.Fatalf("kind = %v, want RejectAlreadyConfirmed", kind)
	}

	rec, err := l.ApplyConfirm("admin_user", "alice99", models.TournamentVSA, true)
	if err != nil {
		t.Fatalf("force confirm: %v", err)
	}
	if rec.Rating != 55 {
		t.Errorf("overwritten rating = %d, want 55", rec.Rating)
	}
}

func TestRateLimit(t *testing.T) {
	l, now := testLedger(t)

	for i := 0; i < 3; i++ {
		if _, err := l.ApplyRegisterRating(1, "alice99", models.TournamentVSA, 10+i, "en"); err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
		*now = now.Add(10 * time.Second)
	}

	// Fourth submission inside the window is refused regardless of content.
	_, err := l.ApplyRegisterRating(1, "alice99", models.TournamentVSA, 42, "en")
	if kind := rejectKind(t, err); kind != RejectRateLimited {
		t.Fatalf("kind = %v, want RejectRateLimited", kind)
	}
	if p, _ := l.Pending(1, models.TournamentVSA); p.Rating != 12 {
		t.Errorf("rate-limited submission mutated state: rating %d", p.Rating)
	}

	// Other users are unaffected.
	if _, err := l.ApplyRegisterRating(2, "bobby_tables", models.TournamentVSA, 42, "en"); err != nil {
		t.Errorf("other user limited: %v", err)
	}

	// Once the window slides past, the user may submit again.
	*now = now.Add(2 * time.Minute)
	if _, err := l.ApplyRegisterRating(1, "alice99", models.TournamentVSA, 42, "en"); err != nil {
		t.Errorf("submission after window: %v", err)
	}
}

func TestExpireStale(t *testing.T) {
	l, now := testLedger(t)

	submitted := *now
	mustRegister(t, l, 1, "alice99", models.TournamentVSA, "Foxes", 42)

	// Within TTL nothing expires.
	if n := l.ExpireStale(submitted.Add(23 * time.Hour)); n != 0 {
		t.Fatalf("ExpireStale within TTL removed %d", n)
	}

	later := submitted.Add(25 * time.Hour)
	// Name-only H2H entry plus the complete VSA entry.
	if n := l.ExpireStale(later); n != 2 {
		t.Fatalf("ExpireStale removed %d, want 2", n)
	}
	if _, ok := l.Pending(1, models.TournamentVSA); ok {
		t.Error("stale entry still present")
	}

	// Idempotent: the second sweep with the same clock removes zero.
	if n := l.ExpireStale(later); n != 0 {
		t.Errorf("second ExpireStale removed %d, want 0", n)
	}
}

func TestRegistrationScenario(t *testing.T) {
	l, _ := testLedger(t)

	// "Bot, my nick Foxes"
	if _, err := l.ApplySetName(42, "alice99", "Foxes", "en"); err != nil {
		t.Fatal(err)
	}
	p, ok := l.Pending(42, models.TournamentVSA)
	if !ok || p.TeamName != "Foxes" || p.HasRating {
		t.Fatalf("after set name: %+v, want name-only Foxes", p)
	}

	// "Bot, my VSA rating 42"
	if _, err := l.ApplyRegisterRating(42, "alice99", models.TournamentVSA, 42, "en"); err != nil {
		t.Fatal(err)
	}
	p, _ = l.Pending(42, models.TournamentVSA)
	if p.Rating != 42 || p.TeamName != "Foxes" {
		t.Fatalf("after rating: %+v", p)
	}

	// Admin confirms alice/VSA.
	rec, err := l.ApplyConfirm("admin_user", "alice99", models.TournamentVSA, false)
	if err != nil {
		t.Fatal(err)
	}
	if rec.TeamName != "Foxes" || rec.Rating != 42 {
		t.Errorf("confirmed = %+v, want {Foxes 42}", rec)
	}
	if _, ok := l.Pending(42, models.TournamentVSA); ok {
		t.Error("pending not removed after confirm")
	}
}

func TestListConfirmedOrder(t *testing.T) {
	l, now := testLedger(t)

	users := []struct {
		id   int64
		name string
	}{{1, "alice99"}, {2, "bobby_tables"}, {3, "carol_jones"}}

	for i, u := range users {
		mustRegister(t, l, u.id, u.name, models.TournamentVSA, "Team"+u.name, 10+i)
		if _, err := l.ApplyConfirm("admin_user", u.name, models.TournamentVSA, false); err != nil {
			t.Fatal(err)
		}
		*now = now.Add(time.Minute)
	}

	got := l.ListConfirmed(models.TournamentVSA)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].ConfirmedAt.Before(got[i-1].ConfirmedAt) {
			t.Errorf("list not ordered by ConfirmedAt at %d", i)
		}
	}
	if l.ListConfirmed(models.TournamentH2H) == nil {
		t.Error("empty list should be non-nil")
	}
}

func TestStats(t *testing.T) {
	l, _ := testLedger(t)

	mustRegister(t, l, 1, "alice99", models.TournamentVSA, "Foxes", 40)
	mustRegister(t, l, 2, "bobby_tables", models.TournamentVSA, "Owls", 60)
	if _, err := l.ApplyConfirm("admin_user", "alice99", models.TournamentVSA, false); err != nil {
		t.Fatal(err)
	}
	if _, err := l.ApplyConfirm("admin_user", "bobby_tables", models.TournamentVSA, false); err != nil {
		t.Fatal(err)
	}

	st := l.Stats()
	var vsa models.TournamentStats
	for _, ts := range st.PerTournament {
		if ts.Tournament == models.TournamentVSA {
			vsa = ts
		}
	}
	if vsa.Confirmed != 2 || vsa.MinRating != 40 || vsa.MaxRating != 60 || vsa.AvgRating != 50 {
		t.Errorf("vsa stats = %+v, want 2 confirmed, ratings 40..60 avg 50", vsa)
	}
	if st.ConfirmedTotal != 2 {
		t.Errorf("confirmed total = %d, want 2", st.ConfirmedTotal)
	}
	if st.TotalSubmissions != 2 {
		t.Errorf("total submissions = %d, want 2", st.TotalSubmissions)
	}
}

func TestSnapshotRestore(t *testing.T) {
	l, _ := testLedger(t)

	mustRegister(t, l, 1, "alice99", models.TournamentVSA, "Foxes", 42)
	if _, err := l.ApplyConfirm("admin_user", "alice99", models.TournamentVSA, false); err != nil {
		t.Fatal(err)
	}
	mustRegister(t, l, 2, "bobby_tables", models.TournamentH2H, "Owls", 38)

	snap := l.Snapshot()

	restored, _ := testLedger(t)
	restored.Restore(snap)

	if _, ok := restored.Confirmed(1, models.TournamentVSA); !ok {
		t.Error("confirmed record lost in snapshot roundtrip")
	}
	if p, ok := restored.Pending(2, models.TournamentH2H); !ok || p.Rating != 38 {
		t.Errorf("pending entry lost in snapshot roundtrip: %+v, %v", p, ok)
	}
	if name, ok := restored.TeamName(2); !ok || name != "Owls" {
		t.Errorf("team name carry-over lost: %q, %v", name, ok)
	}
	if restored.Stats().ConfirmedTotal != 1 {
		t.Error("counters lost in snapshot roundtrip")
	}
}

func TestConcurrentSubmissions(t *testing.T) {
	l, _ := testLedger(t)

	done := make(chan bool)
	for i := 0; i < 8; i++ {
		go func(id int64) {
			defer func() { done <- true }()
			if _, err := l.ApplySetName(id, "user_"+string(rune('a'+id)), "Team X", "en"); err != nil {
				t.Errorf("set name %d: %v", id, err)
			}
			if _, err := l.ApplyRegisterRating(id, "user_"+string(rune('a'+id)), models.TournamentVSA, 50, "en"); err != nil {
				t.Errorf("register %d: %v", id, err)
			}
		}(int64(i + 1))
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	for id := int64(1); id <= 8; id++ {
		p, ok := l.Pending(id, models.TournamentVSA)
		if !ok || p.Rating != 50 || p.TeamName != "Team X" {
			t.Errorf("user %d entry = %+v, %v", id, p, ok)
		}
	}
}

// mustRegister stages a complete pending entry.
func mustRegister(t *testing.T, l *Ledger, id int64, username string, tt models.Tournament, team string, rating int) {
	t.Helper()
	if _, err := l.ApplySetName(id, username, team, "en"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.ApplyRegisterRating(id, username, tt, rating, "en"); err != nil {
		t.Fatal(err)
	}
}
