package models

import (
	"strings"
	"time"
)

// Tournament is one of the two fixed competition formats.
type Tournament string

const (
	TournamentVSA Tournament = "vsa"
	TournamentH2H Tournament = "h2h"
)

// Tournaments lists every supported format, in display order.
var Tournaments = []Tournament{TournamentVSA, TournamentH2H}

func ParseTournament(s string) (Tournament, bool) {
	switch Tournament(strings.ToLower(strings.TrimSpace(s))) {
	case TournamentVSA:
		return TournamentVSA, true
	case TournamentH2H:
		return TournamentH2H, true
	}
	return "", false
}

func (t Tournament) Valid() bool {
	return t == TournamentVSA || t == TournamentH2H
}

func (t Tournament) Label() string { return strings.ToUpper(string(t)) }

// IntentKind tags the closed set of commands the parser can produce.
type IntentKind int

const (
	IntentUnknown IntentKind = iota
	IntentSetTeamName
	IntentRegisterRating
	IntentConfirm
)

// Intent is a structured command extracted from free chat text.
// Fields beyond Kind are populated only for the matching variant.
type Intent struct {
	Kind IntentKind

	TeamName string // IntentSetTeamName

	Tournament Tournament // IntentRegisterRating; optional for IntentConfirm
	Rating     int        // IntentRegisterRating

	TargetUser string // IntentConfirm, @-stripped
	Delta      int    // IntentConfirm, weight of the confirmation vote
}

// PendingRegistration is the staging record for one (user, tournament) pair,
// awaiting admin confirmation.
type PendingRegistration struct {
	UserID      int64      `json:"user_id"`
	Username    string     `json:"username"`
	Tournament  Tournament `json:"tournament"`
	TeamName    string     `json:"team_name,omitempty"`
	Rating      int        `json:"rating"`
	HasRating   bool       `json:"has_rating"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Language    string     `json:"language"`
}

// Complete reports whether the entry carries everything confirmation needs.
func (p PendingRegistration) Complete() bool {
	return p.TeamName != "" && p.HasRating
}

// ConfirmedRegistration is the finalized, admin-approved record.
type ConfirmedRegistration struct {
	ID          string     `json:"id"`
	UserID      int64      `json:"user_id"`
	Username    string     `json:"username"`
	Tournament  Tournament `json:"tournament"`
	TeamName    string     `json:"team_name"`
	Rating      int        `json:"rating"`
	SubmittedAt time.Time  `json:"submitted_at"`
	ConfirmedAt time.Time  `json:"confirmed_at"`
	ConfirmedBy string     `json:"confirmed_by"`
}

// Counters tracks submission totals across the ledger's lifetime.
type Counters struct {
	TotalSubmissions     int       `json:"total_submissions"`
	ConfirmedTotal       int       `json:"confirmed_total"`
	LastSubmissionAt     time.Time `json:"last_submission_at"`
	LastConfirmationAt   time.Time `json:"last_confirmation_at"`
	ExpiredRegistrations int       `json:"expired_registrations"`
}

// Snapshot is the full serialized ledger state handed to the persistence
// collaborator. In-memory state remains the source of truth between saves.
type Snapshot struct {
	Pending   []PendingRegistration   `json:"pending"`
	Confirmed []ConfirmedRegistration `json:"confirmed"`
	TeamNames map[int64]string        `json:"team_names"`
	Counters  Counters                `json:"counters"`
	SavedAt   time.Time               `json:"saved_at"`
}

// TournamentStats aggregates registrations for one format.
type TournamentStats struct {
	Tournament Tournament `json:"tournament"`
	Confirmed  int        `json:"confirmed"`
	Pending    int        `json:"pending"`
	MinRating  int        `json:"min_rating"`
	MaxRating  int        `json:"max_rating"`
	AvgRating  float64    `json:"avg_rating"`
}

// Stats is the ledger-wide read model shown to admins.
type Stats struct {
	PerTournament    []TournamentStats `json:"per_tournament"`
	PendingTotal     int               `json:"pending_total"`
	TotalSubmissions int               `json:"total_submissions"`
	ConfirmedTotal   int               `json:"confirmed_total"`
	LastSubmissionAt time.Time         `json:"last_submission_at"`
}
