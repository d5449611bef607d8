package nlp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"tournament-bot/internal/models"
)

// Parser turns free-form chat text into a typed Intent using ordered regex
// pattern tables per language. Unparseable text yields IntentUnknown, never
// an error: ambiguous natural language must not crash the pipeline.
type Parser struct {
	tables map[string][]pattern
	langs  []string // table evaluation order for fallback
}

type pattern struct {
	re    *regexp.Regexp
	build func(m []string) models.Intent
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

func NewParser() *Parser {
	return &Parser{
		tables: map[string][]pattern{
			"ru": buildRU(),
			"en": buildEN(),
		},
		langs: []string{"en", "ru"},
	}
}

// Parse matches text against the hinted language's patterns first, then the
// remaining supported languages. First matching pattern wins.
func (p *Parser) Parse(text, languageHint string) models.Intent {
	msg := normalize(text)
	if msg == "" {
		return models.Intent{Kind: models.IntentUnknown}
	}

	if table, ok := p.tables[languageHint]; ok {
		if in, ok := match(table, msg); ok {
			return in
		}
	}
	for _, lang := range p.langs {
		if lang == languageHint {
			continue
		}
		if in, ok := match(p.tables[lang], msg); ok {
			return in
		}
	}
	return models.Intent{Kind: models.IntentUnknown}
}

// DetectLanguage picks the pattern table for an utterance. Any Cyrillic rune
// selects Russian; otherwise a bot-keyword probe selects English; otherwise
// the configured fallback applies.
func DetectLanguage(text, fallback string) string {
	for _, r := range text {
		if (r >= 'а' && r <= 'я') || (r >= 'А' && r <= 'Я') || r == 'ё' || r == 'Ё' {
			return "ru"
		}
	}
	lower := strings.ToLower(text)
	for _, kw := range []string{"bot", "nick", "team", "rating", "confirm"} {
		if strings.Contains(lower, kw) {
			return "en"
		}
	}
	return fallback
}

// Supported reports whether a pattern table exists for the language.
func (p *Parser) Supported(lang string) bool {
	_, ok := p.tables[lang]
	return ok
}

func match(table []pattern, msg string) (models.Intent, bool) {
	for _, pt := range table {
		if m := pt.re.FindStringSubmatch(msg); m != nil {
			return pt.build(m), true
		}
	}
	return models.Intent{}, false
}

// normalize strips HTML tags and surrounding space. Casing is preserved so
// captured team names keep the form the user typed; patterns themselves
// match case-insensitively.
func normalize(text string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(text, ""))
}

func compile(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + expr)
}

// Pattern tables. Order matters: name-setting first, then rating
// registration per tournament, then admin confirmation. Every pattern
// anchors a keyword so arbitrary chat text cannot false-positive, and
// numeric captures accept integer literals only.

func buildRU() []pattern {
	ps := []pattern{
		team(`^бот,?\s*мой\s+ник\s+(.+)$`),
		team(`^бот,?\s*название\s+команды\s+(.+)$`),
		team(`^бот,?\s*команда\s+(.+)$`),
	}
	for _, t := range models.Tournaments {
		tag := regexp.QuoteMeta(string(t))
		ps = append(ps,
			rating(t, `^бот,?\s*мой\s+рекорд\s+в\s+`+tag+`\s+х?\s*(\d+)\s*$`),
			rating(t, `^бот,?\s*`+tag+`\s+рейтинг\s+(\d+)\s*$`),
			rating(t, `^бот,?\s*рейтинг\s+`+tag+`\s+(\d+)\s*$`),
			rating(t, `^бот,?\s*`+tag+`\s+х?\s*(\d+)\s*$`),
		)
	}
	ps = append(ps,
		confirm(`^(?:бот,?\s*)?подтвердить\s+@?(\w+)(?:\s+(vsa|h2h))?\s*$`, 1, 2, 0),
		confirmDelta(`^(?:бот,?\s*)?@?(\w+)\s*\+(\d+)(?:\s+(vsa|h2h))?\s*$`, 1, 2, 3),
		confirm(`^(?:бот,?\s*)?@?(\w+)\s+подтвержд[её]н(?:\s+(vsa|h2h))?\s*$`, 1, 2, 0),
	)
	return ps
}

func buildEN() []pattern {
	ps := []pattern{
		team(`^bot,?\s*my\s+nick(?:name)?\s+(.+)$`),
		team(`^bot,?\s*team\s+name\s+(.+)$`),
		team(`^bot,?\s*my\s+team\s+(.+)$`),
	}
	for _, t := range models.Tournaments {
		tag := regexp.QuoteMeta(string(t))
		ps = append(ps,
			rating(t, `^bot,?\s*my\s+`+tag+`\s+(?:rating|record)\s+(\d+)\s*$`),
			rating(t, `^bot,?\s*`+tag+`\s+rating\s+(\d+)\s*$`),
			rating(t, `^bot,?\s*`+tag+`\s+(\d+)\s*$`),
		)
	}
	ps = append(ps,
		confirm(`^(?:bot,?\s*)?confirm\s+@?(\w+)(?:\s+(vsa|h2h))?\s*$`, 1, 2, 0),
		confirmDelta(`^(?:bot,?\s*)?@?(\w+)\s*\+(\d+)(?:\s+(vsa|h2h))?\s*$`, 1, 2, 3),
		confirm(`^(?:bot,?\s*)?@?(\w+)\s+confirmed(?:\s+(vsa|h2h))?\s*$`, 1, 2, 0),
	)
	return ps
}

func team(expr string) pattern {
	return pattern{
		re: compile(expr),
		build: func(m []string) models.Intent {
			return models.Intent{Kind: models.IntentSetTeamName, TeamName: strings.TrimSpace(m[1])}
		},
	}
}

func rating(t models.Tournament, expr string) pattern {
	return pattern{
		re: compile(expr),
		build: func(m []string) models.Intent {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return models.Intent{Kind: models.IntentUnknown}
			}
			return models.Intent{Kind: models.IntentRegisterRating, Tournament: t, Rating: n}
		},
	}
}

// confirm builds an admin-confirmation pattern. userIdx/tournamentIdx/deltaIdx
// name the capture groups; an index of 0 means the group is absent.
func confirm(expr string, userIdx, tournamentIdx, deltaIdx int) pattern {
	return pattern{
		re: compile(expr),
		build: func(m []string) models.Intent {
			in := models.Intent{Kind: models.IntentConfirm, Delta: 1}
			in.TargetUser = strings.TrimPrefix(m[userIdx], "@")
			if tournamentIdx > 0 && m[tournamentIdx] != "" {
				if t, ok := models.ParseTournament(m[tournamentIdx]); ok {
					in.Tournament = t
				}
			}
			if deltaIdx > 0 && m[deltaIdx] != "" {
				if d, err := strconv.Atoi(m[deltaIdx]); err == nil {
					in.Delta = d
				}
			}
			return in
		},
	}
}

func confirmDelta(expr string, userIdx, deltaIdx, tournamentIdx int) pattern {
	return pattern{
		re: compile(expr),
		build: func(m []string) models.Intent {
			in := models.Intent{Kind: models.IntentConfirm, Delta: 1}
			in.TargetUser = strings.TrimPrefix(m[userIdx], "@")
			if d, err := strconv.Atoi(m[deltaIdx]); err == nil {
				in.Delta = d
			}
			if tournamentIdx > 0 && m[tournamentIdx] != "" {
				if t, ok := models.ParseTournament(m[tournamentIdx]); ok {
					in.Tournament = t
				}
			}
			return in
		},
	}
}

// Examples returns sample commands for the /help reply.
func Examples(lang string) []string {
	if lang == "ru" {
		return []string{
			"Бот, мой ник TeamAwesome",
			"Бот, мой рекорд в VSA 42",
			"Бот, мой рекорд в H2H 38",
			fmt.Sprintf("Подтвердить @username %s", models.TournamentVSA),
		}
	}
	return []string{
		"Bot, my nick TeamAwesome",
		"Bot, my VSA rating 42",
		"Bot, my H2H rating 38",
		fmt.Sprintf("Confirm @username %s", models.TournamentVSA),
	}
}
