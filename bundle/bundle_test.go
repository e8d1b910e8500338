package bundle

import (
	"context"
	"io"
	"strings"
	"testing"
)

const twoLocaleManifest = `{
  "version": 1,
  "default_locale": "en",
  "entries": {
    "en": {"display_name": "English", "path": "en.ftl"},
    "de": {"display_name": "Deutsch", "path": "de.ftl", "aliases": ["de-DE"]}
  }
}`

func sources() map[string]string {
	return map[string]string{
		"en.ftl": "greeting = Hello\n",
		"de.ftl": "greeting = Hallo\n",
	}
}

func TestLoadLocale(t *testing.T) {
	m, err := ParseManifest([]byte(twoLocaleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	src := sources()

	opens := 0

	b := New(m, func(path string) (io.Reader, error) {
		opens++
		return strings.NewReader(src[path]), nil
	}, nil, nil)

	lf, err := b.LoadLocale("de-DE")
	if err != nil {
		t.Fatalf("LoadLocale: %v", err)
	}

	s, err := lf.FormatMessage("greeting", nil)
	if err != nil {
		t.Fatalf("FormatMessage: %v", err)
	}

	if s != "Hallo" {
		t.Fatalf("FormatMessage(greeting) = %q, want %q", s, "Hallo")
	}

	if _, err := b.LoadLocale("de"); err != nil {
		t.Fatalf("second LoadLocale: %v", err)
	}

	if opens != 1 {
		t.Fatalf("opens = %d, want 1 (cached on second request)", opens)
	}
}

func TestLoadLocaleUnknownFallsBackToDefault(t *testing.T) {
	m, err := ParseManifest([]byte(twoLocaleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	src := sources()

	b := New(m, func(path string) (io.Reader, error) { return strings.NewReader(src[path]), nil }, nil, nil)

	lf, err := b.LoadLocale("fr")
	if err != nil {
		t.Fatalf("LoadLocale: %v", err)
	}

	s, err := lf.FormatMessage("greeting", nil)
	if err != nil {
		t.Fatalf("FormatMessage: %v", err)
	}

	if s != "Hello" {
		t.Fatalf("FormatMessage(greeting) = %q, want %q", s, "Hello")
	}
}

func TestLoadLocaleAsyncWithoutOpenerErrors(t *testing.T) {
	m, err := ParseManifest([]byte(twoLocaleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	b := New(m, func(string) (io.Reader, error) { return strings.NewReader(""), nil }, nil, nil)

	if _, err := b.LoadLocaleAsync(context.Background(), "en"); err == nil {
		t.Fatal("LoadLocaleAsync with no AsyncOpener returned no error")
	}
}

func TestLoadLocaleAsync(t *testing.T) {
	m, err := ParseManifest([]byte(twoLocaleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	src := sources()

	b := New(m, nil, func(path string) <-chan OpenResult {
		ch := make(chan OpenResult, 1)
		ch <- OpenResult{Reader: strings.NewReader(src[path])}

		return ch
	}, nil)

	lf, err := b.LoadLocaleAsync(context.Background(), "en")
	if err != nil {
		t.Fatalf("LoadLocaleAsync: %v", err)
	}

	s, err := lf.FormatMessage("greeting", nil)
	if err != nil {
		t.Fatalf("FormatMessage: %v", err)
	}

	if s != "Hello" {
		t.Fatalf("FormatMessage(greeting) = %q, want %q", s, "Hello")
	}
}

func TestLoadLocaleAsyncCancellation(t *testing.T) {
	m, err := ParseManifest([]byte(twoLocaleManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}

	b := New(m, nil, func(path string) <-chan OpenResult {
		// Never delivers: the caller's context must be what unblocks LoadLocaleAsync.
		return make(chan OpenResult)
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.LoadLocaleAsync(ctx, "en"); err == nil {
		t.Fatal("LoadLocaleAsync with a cancelled context returned no error")
	}
}
