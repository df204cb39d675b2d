// Package localization holds the translated notification texts, one JSON
// file per language code ("hi.json" -> "hi").
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// DefaultLanguage answers keys missing from the requested language.
const DefaultLanguage = "en"

//go:embed locales/*.json
var embedded embed.FS

type messages map[string]string

// Localizer is read-only after construction and safe for concurrent use.
type Localizer struct {
	byLang map[string]messages
}

// Default returns a Localizer over the locales compiled into the binary.
func Default() (*Localizer, error) {
	return NewLocalizer(embedded, "locales")
}

// NewLocalizer loads every "<lang>.json" directly under dir.
func NewLocalizer(fsys fs.FS, dir string) (*Localizer, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list locales in %s: %w", dir, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no locales found in %s", dir)
	}

	l := &Localizer{byLang: make(map[string]messages, len(names))}
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", name, err)
		}
		var m messages
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", name, err)
		}
		l.byLang[strings.TrimSuffix(path.Base(name), ".json")] = m
	}
	return l, nil
}

// GetString resolves key in lang, then in DefaultLanguage, then returns key.
func (l *Localizer) GetString(lang, key string) string {
	for _, candidate := range []string{lang, DefaultLanguage} {
		if s, ok := l.byLang[candidate][key]; ok {
			return s
		}
	}
	return key
}

// Format is GetString followed by fmt.Sprintf with args.
func (l *Localizer) Format(lang, key string, args ...interface{}) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}

// Languages lists the loaded language codes in sorted order.
func (l *Localizer) Languages() []string {
	out := make([]string, 0, len(l.byLang))
	for lang := range l.byLang {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
