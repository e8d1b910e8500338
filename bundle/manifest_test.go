package bundle

import "testing"

const sampleManifest = `{
  "version": 1,
  "default_locale": "en",
  "defaults": {
    "app-name": {"type": "string", "value": "Acme"}
  },
  "entries": {
    "en": {
      "display_name": "English",
      "path": "en.ftl"
    },
    "de": {
      "display_name": "Deutsch",
      "path": "de.ftl",
      "aliases": ["de-DE", "de-AT"],
      "defaults": {
        "max-items": {"type": "long", "value": 5}
      }
    }
  }
}`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	if m.DefaultLocale != "en" {
		t.Fatalf("DefaultLocale = %q, want %q", m.DefaultLocale, "en")
	}

	if m.Entries.Len() != 2 {
		t.Fatalf("Entries.Len() = %d, want 2", m.Entries.Len())
	}

	if codes := m.Entries.Codes(); len(codes) != 2 || codes[0] != "en" || codes[1] != "de" {
		t.Fatalf("Entries.Codes() = %v, want declaration order [en de]", codes)
	}

	appName := m.Defaults["app-name"]
	if appName.Kind != DefaultString || appName.Str != "Acme" {
		t.Fatalf("Defaults[app-name] = %+v", appName)
	}
}

func TestParseManifestRejectsUnsupportedVersion(t *testing.T) {
	_, err := ParseManifest([]byte(`{"version": 2, "default_locale": "en", "entries": {"en": {"display_name": "E", "path": "en.ftl"}}}`))
	if err == nil {
		t.Fatal("ParseManifest accepted an unsupported version")
	}
}

func TestParseManifestRejectsMissingDefaultLocale(t *testing.T) {
	_, err := ParseManifest([]byte(`{"version": 1, "default_locale": "fr", "entries": {"en": {"display_name": "E", "path": "en.ftl"}}}`))
	if err == nil {
		t.Fatal("ParseManifest accepted a default_locale with no matching entry")
	}
}

func TestResolveLocaleByAlias(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	code, entry, ok := m.resolveLocale("de-AT")
	if !ok || code != "de" || entry.DisplayName != "Deutsch" {
		t.Fatalf("resolveLocale(de-AT) = %q, %+v, %v", code, entry, ok)
	}
}

func TestResolveLocaleFallsBackToDefault(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	code, _, ok := m.resolveLocale("fr")
	if !ok || code != "en" {
		t.Fatalf("resolveLocale(fr) = %q, _, %v, want en, true", code, ok)
	}
}

func TestDefaultsForMergesBundleAndEntry(t *testing.T) {
	m, err := ParseManifest([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	de, ok := m.Entries.Get("de")
	if !ok {
		t.Fatal("Entries.Get(de) found nothing")
	}

	merged := m.defaultsFor(de)

	if merged["app-name"].Str != "Acme" {
		t.Fatalf("merged[app-name] = %+v, want bundle-wide default", merged["app-name"])
	}

	if merged["max-items"].Long != 5 {
		t.Fatalf("merged[max-items] = %+v, want entry-level default", merged["max-items"])
	}
}
