// Package lang loads localized bot strings from TOML locale files.
package lang

import (
	"embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed locales/*.toml
var locales embed.FS

// Manager resolves localized strings for one language code, loaded once at
// startup and read-only afterwards.
type Manager struct {
	code     string
	sections map[string]map[string]string
}

// Load reads the locale for code. A locale file on disk at
// lang/<code>.toml takes precedence over the embedded copy, so operators
// can override shipped strings.
func Load(code string) (*Manager, error) {
	data, err := os.ReadFile(fmt.Sprintf("lang/%s.toml", code))
	if err != nil {
		data, err = locales.ReadFile(fmt.Sprintf("locales/%s.toml", code))
		if err != nil {
			return nil, fmt.Errorf("locale %q not found: %w", code, err)
		}
	}

	m := &Manager{code: code, sections: map[string]map[string]string{}}
	if err := toml.Unmarshal(data, &m.sections); err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", code, err)
	}
	return m, nil
}

// Code returns the loaded language code.
func (m *Manager) Code() string { return m.code }

// Loc returns the localized string for section/key. A missing entry falls
// back to "section.key" so a typo shows up in chat instead of crashing.
func (m *Manager) Loc(section, key string) string {
	if s, ok := m.sections[section]; ok {
		if v, ok := s[key]; ok {
			return v
		}
	}
	slog.Warn("Missing locale string", "lang", m.code, "section", section, "key", key)
	return section + "." + key
}
