package i18n

import (
	"strings"
	"testing"
)

func TestLoadEnglish(t *testing.T) {
	c, err := Load("en")
	if err != nil {
		t.Fatalf("Load(en): %v", err)
	}
	if got := c.T("welcome.invalid"); !strings.Contains(got, "L, R, G or Q") {
		t.Errorf("welcome.invalid = %q", got)
	}
}

func TestLoadJapaneseFallsBackToEnglish(t *testing.T) {
	c, err := Load("ja")
	if err != nil {
		t.Fatalf("Load(ja): %v", err)
	}
	if got := c.T("login.invalid"); !strings.Contains(got, "ユーザー名") {
		t.Errorf("ja login.invalid = %q", got)
	}
	// A key absent from both catalogs resolves to itself.
	if got := c.T("no.such.key"); got != "no.such.key" {
		t.Errorf("missing key = %q", got)
	}
}

func TestUnknownLanguage(t *testing.T) {
	if _, err := Load("xx"); err == nil {
		t.Error("expected error for unknown language")
	}
	c := LoadOrDefault("xx")
	if c.Language() != DefaultLanguage {
		t.Errorf("LoadOrDefault fell back to %q", c.Language())
	}
}

func TestFormatting(t *testing.T) {
	c := LoadOrDefault("en")
	got := c.T("login.locked", 90)
	if !strings.Contains(got, "90") {
		t.Errorf("login.locked = %q, want the retry seconds interpolated", got)
	}
}

func TestLanguages(t *testing.T) {
	langs := Languages()
	want := map[string]bool{"en": false, "ja": false}
	for _, l := range langs {
		if _, ok := want[l]; ok {
			want[l] = true
		}
	}
	for l, seen := range want {
		if !seen {
			t.Errorf("Languages() missing %q (got %v)", l, langs)
		}
	}
}

func TestCatalogsShareKeys(t *testing.T) {
	en, err := Load("en")
	if err != nil {
		t.Fatal(err)
	}
	ja, err := Load("ja")
	if err != nil {
		t.Fatal(err)
	}
	for key := range en.messages {
		if _, ok := ja.messages[key]; !ok {
			t.Errorf("ja catalog missing key %s", key)
		}
	}
	for key := range ja.messages {
		if _, ok := en.messages[key]; !ok {
			t.Errorf("en catalog missing key %s", key)
		}
	}
}
