package validation

import (
	"errors"
	"strings"
	"testing"

	"tournament-bot/internal/models"
)

func testRules() Rules {
	return Rules{MaxTeamNameLen: 50, MinRating: 0, MaxRating: 100}
}

func TestRules_TeamName(t *testing.T) {
	r := testRules()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"plain", "Foxes", "Foxes", nil},
		{"cyrillic", "Лисы", "Лисы", nil},
		{"punctuation", "Top-1 [RU]", "Top-1 [RU]", nil},
		{"trimmed", "  Foxes  ", "Foxes", nil},
		{"control chars stripped", "Fox\x00es", "Foxes", nil},
		{"empty", "", "", ErrEmpty},
		{"whitespace only", "   ", "", ErrEmpty},
		{"one char", "F", "", ErrTooShort},
		{"too long", strings.Repeat("a", 55), "", ErrTooLong},
		{"emoji", "Foxes 🦊", "", ErrInvalidChars},
		{"doubled spaces", "Night  Owls", "", ErrInvalidChars},
		{"forbidden", "Admin", "", ErrForbiddenWord},
		{"forbidden lowercase", "bot", "", ErrForbiddenWord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.TeamName(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("TeamName(%q) err = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("TeamName(%q) unexpected err: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("TeamName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRules_Rating(t *testing.T) {
	r := testRules()

	tests := []struct {
		rating int
		ok     bool
	}{
		{0, true},
		{42, true},
		{100, true},
		{-1, false},
		{101, false},
		{150, false},
	}

	for _, tt := range tests {
		for _, tournament := range models.Tournaments {
			err := r.Rating(tt.rating, tournament)
			if tt.ok && err != nil {
				t.Errorf("Rating(%d, %s) unexpected err: %v", tt.rating, tournament, err)
			}
			if !tt.ok && !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Rating(%d, %s) err = %v, want ErrOutOfRange", tt.rating, tournament, err)
			}
		}
	}
}

func TestUsername(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"alice99", "alice99", false},
		{"@alice99", "alice99", false},
		{"a_b_c_1", "a_b_c_1", false},
		{"", "", true},
		{"abcd", "", true},                 // too short
		{"1alice", "", true},               // must start with a letter
		{"алиса99", "", true},              // non-ASCII
		{"name with space", "", true},
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "", true}, // 33 chars
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Username(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Username(%q) = %q, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Username(%q) unexpected err: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Username(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
