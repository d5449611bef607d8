package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"tournament-bot/internal/models"
)

var (
	ErrEmpty         = errors.New("empty value")
	ErrTooShort      = errors.New("value too short")
	ErrTooLong       = errors.New("value too long")
	ErrInvalidChars  = errors.New("invalid characters")
	ErrForbiddenWord = errors.New("forbidden word")
	ErrOutOfRange    = errors.New("rating out of range")
)

// Rules carries the configured field limits. Methods are pure: they never
// touch the ledger or any other shared state.
type Rules struct {
	MaxTeamNameLen int
	MinRating      int
	MaxRating      int
}

var (
	teamNameRe = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ0-9\s\-_.\[\]]+$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// Team names that collide with bot/admin vocabulary are rejected outright.
var forbiddenNames = map[string]bool{
	"admin":     true,
	"bot":       true,
	"moderator": true,
	"null":      true,
	"undefined": true,
}

// TeamName sanitizes and validates a team name, returning the value that
// should be stored. Control characters are stripped before any length check.
func (r Rules) TeamName(s string) (string, error) {
	name := stripControl(strings.TrimSpace(s))
	if name == "" {
		return "", ErrEmpty
	}
	if len([]rune(name)) < 2 {
		return "", fmt.Errorf("team name must be at least 2 characters: %w", ErrTooShort)
	}
	if len([]rune(name)) > r.MaxTeamNameLen {
		return "", fmt.Errorf("team name cannot exceed %d characters: %w", r.MaxTeamNameLen, ErrTooLong)
	}
	if !teamNameRe.MatchString(name) {
		return "", ErrInvalidChars
	}
	if strings.Contains(name, "  ") {
		return "", fmt.Errorf("consecutive spaces: %w", ErrInvalidChars)
	}
	if forbiddenNames[strings.ToLower(name)] {
		return "", ErrForbiddenWord
	}
	return name, nil
}

// Rating checks the inclusive configured range. Bounds are resolved per
// tournament so future per-format ranges don't change any caller.
func (r Rules) Rating(n int, t models.Tournament) error {
	min, max := r.ratingBounds(t)
	if n < min || n > max {
		return fmt.Errorf("rating %d not in [%d, %d]: %w", n, min, max, ErrOutOfRange)
	}
	return nil
}

func (r Rules) ratingBounds(models.Tournament) (int, int) {
	return r.MinRating, r.MaxRating
}

// Username validates a Telegram username and returns it without the leading @.
func Username(s string) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(s), "@")
	if name == "" {
		return "", ErrEmpty
	}
	if len(name) < 5 {
		return "", fmt.Errorf("username must be at least 5 characters: %w", ErrTooShort)
	}
	if len(name) > 32 {
		return "", fmt.Errorf("username cannot exceed 32 characters: %w", ErrTooLong)
	}
	if !usernameRe.MatchString(name) {
		return "", ErrInvalidChars
	}
	return name, nil
}

func stripControl(s string) string {
	b := strings.Builder{}
	for _, r := range s {
		if r >= 32 || r == '\t' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
