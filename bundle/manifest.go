// Package bundle implements the locale manifest described in §6: a JSON
// document naming a default locale and, per locale, a display name, a
// relative path to that locale's .ftl file, locale aliases, and default
// variable values layered bundle-wide and per-entry.
package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/loctree/fluent/fluenterr"
)

// SupportedVersion is the only manifest schema version this package reads.
const SupportedVersion = 1

// DefaultValue is the string|long|double|bool tagged union a manifest's
// "defaults" maps hold.
type DefaultValue struct {
	Str    string
	Long   int64
	Double float64
	Bool   bool
	Kind   DefaultKind
}

type DefaultKind int

const (
	DefaultString DefaultKind = iota
	DefaultLong
	DefaultDouble
	DefaultBool
)

// wireDefaultValue is the manifest's on-disk shape for a DefaultValue: a
// tagged object, e.g. {"type": "string", "value": "Acme"}.
type wireDefaultValue struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value"`
}

func (d DefaultValue) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case DefaultLong:
		return json.Marshal(wireDefaultValue{Type: "long", Value: d.Long})
	case DefaultDouble:
		return json.Marshal(wireDefaultValue{Type: "double", Value: d.Double})
	case DefaultBool:
		return json.Marshal(wireDefaultValue{Type: "bool", Value: d.Bool})
	default:
		return json.Marshal(wireDefaultValue{Type: "string", Value: d.Str})
	}
}

func (d *DefaultValue) UnmarshalJSON(data []byte) error {
	var w wireDefaultValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch w.Type {
	case "string":
		s, _ := w.Value.(string)
		*d = DefaultValue{Str: s, Kind: DefaultString}
	case "bool":
		b, _ := w.Value.(bool)
		*d = DefaultValue{Bool: b, Kind: DefaultBool}
	case "long":
		n, _ := w.Value.(float64)
		*d = DefaultValue{Long: int64(n), Kind: DefaultLong}
	case "double":
		n, _ := w.Value.(float64)
		*d = DefaultValue{Double: n, Kind: DefaultDouble}
	default:
		return fmt.Errorf("bundle: unsupported default value type %q", w.Type)
	}

	return nil
}

// LocaleEntry is one locale's manifest record.
type LocaleEntry struct {
	DisplayName string                  `json:"display_name"`
	Path        string                  `json:"path"`
	Aliases     []string                `json:"aliases,omitempty"`
	Defaults    map[string]DefaultValue `json:"defaults,omitempty"`
}

// LocaleEntries is the manifest's "entries" object: locale records keyed
// by code, preserving manifest declaration order the way ast.AttributeMap
// preserves attribute order — §4.8's closest-locale search walks entries
// in this order, not Go's randomized map iteration order.
type LocaleEntries struct {
	codes  []string
	byCode map[string]LocaleEntry
}

func newLocaleEntries() *LocaleEntries {
	return &LocaleEntries{byCode: make(map[string]LocaleEntry)}
}

func (le *LocaleEntries) add(code string, e LocaleEntry) {
	if _, ok := le.byCode[code]; !ok {
		le.codes = append(le.codes, code)
	}

	le.byCode[code] = e
}

// Get returns the entry for code, if declared.
func (le *LocaleEntries) Get(code string) (LocaleEntry, bool) {
	e, ok := le.byCode[code]
	return e, ok
}

// Codes returns every declared locale code in manifest declaration order.
func (le *LocaleEntries) Codes() []string {
	return le.codes
}

func (le *LocaleEntries) Len() int {
	return len(le.codes)
}

func (le *LocaleEntries) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("bundle: \"entries\" must be a JSON object")
	}

	*le = *newLocaleEntries()

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}

		code, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("bundle: expected a string key in \"entries\"")
		}

		var entry LocaleEntry
		if err := dec.Decode(&entry); err != nil {
			return err
		}

		le.add(code, entry)
	}

	return nil
}

func (le *LocaleEntries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, code := range le.codes {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(code)
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(le.byCode[code])
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Manifest is the bundle.json document: a version tag, the fallback
// locale, per-locale entries keyed by locale code, and bundle-wide
// defaults that every locale's entry-level defaults may override.
type Manifest struct {
	Version       int                     `json:"version"`
	DefaultLocale string                  `json:"default_locale"`
	Entries       *LocaleEntries          `json:"entries"`
	Defaults      map[string]DefaultValue `json:"defaults,omitempty"`
}

// ParseManifest decodes and validates data as a Manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &fluenterr.BundleError{Message: "invalid manifest JSON: " + err.Error()}
	}

	if m.Version != SupportedVersion {
		return nil, &fluenterr.BundleError{
			Message: fmt.Sprintf("unsupported manifest version %d, expected %d", m.Version, SupportedVersion),
		}
	}

	if m.Entries == nil {
		m.Entries = newLocaleEntries()
	}

	if _, ok := m.Entries.Get(m.DefaultLocale); !ok {
		return nil, &fluenterr.BundleError{Message: "default_locale " + m.DefaultLocale + " has no entry"}
	}

	return &m, nil
}

// resolveLocale finds the manifest entry matching locale, trying an exact
// locale-code match first, then an alias match (walked in manifest
// declaration order, per §4.8), falling back to m.DefaultLocale. It
// returns the resolved locale code and its entry.
func (m *Manifest) resolveLocale(locale string) (string, LocaleEntry, bool) {
	if e, ok := m.Entries.Get(locale); ok {
		return locale, e, true
	}

	for _, code := range m.Entries.Codes() {
		e, _ := m.Entries.Get(code)

		for _, alias := range e.Aliases {
			if alias == locale {
				return code, e, true
			}
		}
	}

	if e, ok := m.Entries.Get(m.DefaultLocale); ok {
		return m.DefaultLocale, e, true
	}

	return "", LocaleEntry{}, false
}

// defaultsFor merges bundle-wide defaults with locale's own, entry-level
// defaults winning on a key collision.
func (m *Manifest) defaultsFor(entry LocaleEntry) map[string]DefaultValue {
	merged := make(map[string]DefaultValue, len(m.Defaults)+len(entry.Defaults))

	for k, v := range m.Defaults {
		merged[k] = v
	}

	for k, v := range entry.Defaults {
		merged[k] = v
	}

	return merged
}
