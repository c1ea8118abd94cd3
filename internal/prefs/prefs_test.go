package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		want    string
	}{
		{name: "missing file", content: nil, want: defaultTheme},
		{name: "stored theme", content: ptr("theme = \"Kanagawa\"\n"), want: "Kanagawa"},
		{name: "empty theme", content: ptr("theme = \"\"\n"), want: defaultTheme},
		{name: "blank theme", content: ptr("theme = \"   \"\n"), want: defaultTheme},
		{name: "invalid toml", content: ptr("not valid toml {{{\n"), want: defaultTheme},
		{name: "unknown keys ignored", content: ptr("theme = \"Slate\"\nview = \"logs\"\n"), want: "Slate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "prefs.toml")
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0o644); err != nil {
					t.Fatalf("WriteFile: %v", err)
				}
			}

			p, err := Load(path)
			if err != nil {
				t.Fatalf("Load(%s) error = %v", tt.name, err)
			}
			if p.Theme != tt.want {
				t.Fatalf("Theme = %q, want %q", p.Theme, tt.want)
			}
		})
	}
}

func TestDefaultPathResolvesUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := Save("", Prefs{Theme: "Kanagawa"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".config", "arbox", "prefs.toml")); err != nil {
		t.Fatalf("prefs not written under HOME: %v", err)
	}

	p, err := Load(DefaultPath())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != "Kanagawa" {
		t.Fatalf("Theme = %q, want Kanagawa", p.Theme)
	}
}

func TestSaveOverwritesPreviousTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "prefs.toml")

	for _, theme := range []string{"Kanagawa", "Slate"} {
		if err := Save(path, Prefs{Theme: theme}); err != nil {
			t.Fatalf("Save(%s) returned error: %v", theme, err)
		}
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != "Slate" {
		t.Fatalf("Theme = %q, want last saved Slate", p.Theme)
	}
}

func ptr(s string) *string { return &s }
