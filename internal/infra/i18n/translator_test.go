//go:build !integration

package i18n

import (
	"testing"
	"testing/fstest"

	"gopkg.in/yaml.v3"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes([]byte("greeting: Olá\nwelcome_user: Olá %s"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "Olá" {
			t.Errorf("wanted 'Olá', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted 'nonexistent_key', got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("welcome_user", "Ana"); got != "Olá Ana" {
			t.Errorf("wanted 'Olá Ana', got '%s'", got)
		}
	})
}

func TestNewTranslatorFallsBackToDefaultLanguage(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/pt-BR.yaml": {Data: []byte("a: um\nb: dois")},
		"locales/en.yaml":    {Data: []byte("a: one")},
	}
	tr, err := NewTranslator(fsys, "en")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	if got := tr.T("a"); got != "one" {
		t.Errorf("a = %q, want one", got)
	}
	if got := tr.T("b"); got != "dois" {
		t.Errorf("b = %q, want fallback dois", got)
	}
	if tr.Lang() != "en" {
		t.Errorf("Lang() = %q", tr.Lang())
	}
}

func TestNewTranslatorMissingLocale(t *testing.T) {
	if _, err := NewTranslator(fstest.MapFS{}, "de"); err == nil {
		t.Fatal("expected error for missing locale")
	}
}

// Every shipped locale must parse and carry the same keys.
func TestEmbeddedLocalesAreComplete(t *testing.T) {
	load := func(lang string) map[string]string {
		t.Helper()
		data, err := LocalesFS.ReadFile("locales/" + lang + ".yaml")
		if err != nil {
			t.Fatalf("read %s: %v", lang, err)
		}
		var m map[string]string
		if err := yaml.Unmarshal(data, &m); err != nil {
			t.Fatalf("parse %s: %v", lang, err)
		}
		return m
	}
	pt, en := load("pt-BR"), load("en")
	for k := range pt {
		if _, ok := en[k]; !ok {
			t.Errorf("en.yaml is missing %q", k)
		}
	}
	for k := range en {
		if _, ok := pt[k]; !ok {
			t.Errorf("pt-BR.yaml is missing %q", k)
		}
	}
}
