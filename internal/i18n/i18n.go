// Package i18n loads the localized message catalogs screens render
// from. Catalogs are YAML files embedded in the binary; unknown keys
// fall back to English and finally to the key itself so a missing
// translation never blanks a prompt.
package i18n

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// DefaultLanguage backs every catalog lookup.
const DefaultLanguage = "en"

// Catalog resolves message keys for one language. Immutable after Load;
// safe for concurrent use by all sessions sharing a language.
type Catalog struct {
	lang     string
	messages map[string]string
	fallback map[string]string
}

// Load reads the embedded catalog for lang. Unknown languages are an
// error; the caller decides whether to fall back to the default.
func Load(lang string) (*Catalog, error) {
	messages, err := readCatalog(lang)
	if err != nil {
		return nil, err
	}

	c := &Catalog{lang: lang, messages: messages}
	if lang != DefaultLanguage {
		c.fallback, err = readCatalog(DefaultLanguage)
		if err != nil {
			return nil, fmt.Errorf("fallback catalog: %w", err)
		}
	}
	return c, nil
}

// LoadOrDefault returns the catalog for lang, or the English catalog
// when lang is unknown. User records can carry stale language codes.
func LoadOrDefault(lang string) *Catalog {
	if lang == "" {
		lang = DefaultLanguage
	}
	c, err := Load(lang)
	if err != nil {
		c, err = Load(DefaultLanguage)
		if err != nil {
			// The English catalog is embedded; failing to parse it is
			// a build defect, not a runtime condition.
			panic(fmt.Sprintf("i18n: embedded default catalog: %v", err))
		}
	}
	return c
}

func readCatalog(lang string) (map[string]string, error) {
	data, err := catalogFS.ReadFile("catalogs/" + lang + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no catalog for language %q", lang)
	}

	var nested map[string]any
	if err := yaml.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", lang, err)
	}

	flat := make(map[string]string)
	flatten("", nested, flat)
	return flat, nil
}

// flatten turns nested YAML maps into dotted keys: login: {prompt: x}
// becomes "login.prompt".
func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}
}

// Language returns the catalog's language code.
func (c *Catalog) Language() string {
	return c.lang
}

// T resolves a message key and applies fmt formatting when args are
// given. Missing keys resolve through the English fallback, then to the
// key itself.
func (c *Catalog) T(key string, args ...any) string {
	msg, ok := c.messages[key]
	if !ok && c.fallback != nil {
		msg, ok = c.fallback[key]
	}
	if !ok {
		msg = key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Has reports whether the key resolves without falling back to itself.
func (c *Catalog) Has(key string) bool {
	if _, ok := c.messages[key]; ok {
		return true
	}
	_, ok := c.fallback[key]
	return ok
}

// Languages lists the embedded catalog language codes.
func Languages() []string {
	entries, err := catalogFS.ReadDir("catalogs")
	if err != nil {
		return []string{DefaultLanguage}
	}
	var langs []string
	for _, e := range entries {
		name := e.Name()
		if len(name) > len(".yaml") {
			langs = append(langs, name[:len(name)-len(".yaml")])
		}
	}
	sort.Strings(langs)
	return langs
}
