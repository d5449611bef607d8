package locale

import (
	"log"
	"strings"
)

// Localizer resolves response strings per language with English fallback.
type Localizer struct {
	texts map[string]map[string]string
	def   string
}

func New(defaultLang string) *Localizer {
	if _, ok := texts[defaultLang]; !ok {
		defaultLang = "en"
	}
	return &Localizer{texts: texts, def: defaultLang}
}

// Text returns the localized string for key, falling back to English and
// then to a visible placeholder so missing keys surface in chat, not panics.
func (l *Localizer) Text(key, lang string) string {
	table, ok := l.texts[lang]
	if !ok {
		table = l.texts["en"]
	}
	if s, ok := table[key]; ok {
		return s
	}
	if s, ok := l.texts["en"][key]; ok {
		return s
	}
	log.Printf("locale: missing text %q", key)
	return "missing text: " + key
}

// Resolve maps a Telegram language code onto a supported table, trying the
// language family (en-US -> en) before the configured default.
func (l *Localizer) Resolve(code string) string {
	if code == "" {
		return l.def
	}
	if _, ok := l.texts[code]; ok {
		return code
	}
	base := strings.SplitN(strings.SplitN(code, "-", 2)[0], "_", 2)[0]
	if _, ok := l.texts[base]; ok {
		return base
	}
	return l.def
}

// Supported returns the language codes with a string table.
func (l *Localizer) Supported() []string {
	out := make([]string, 0, len(l.texts))
	for lang := range l.texts {
		out = append(out, lang)
	}
	return out
}
