package jinjac

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileIsZeroValue(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	if cfg.LogLevel != "" || cfg.SourceName != "" || len(cfg.Defines) != 0 {
		t.Errorf("got %+v, want a zero Config", cfg)
	}
}

func TestLoadConfigParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jinjac.yml")
	data := "log_level: DEBUG\nsource_name: site\ndefines:\n  build: \"42\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "DEBUG" || cfg.SourceName != "site" || cfg.Defines["build"] != "42" {
		t.Errorf("got %+v", cfg)
	}
}

func TestDefinesTransformPrependsAssigns(t *testing.T) {
	cfg := Config{Defines: map[string]string{"site": "jinjac"}}
	tmpl := parse(t, "{{ site }}")
	transformed, err := cfg.DefinesTransform()(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	as, ok := transformed.Body.Body[0].(*Assign)
	if !ok {
		t.Fatalf("got %T, want *Assign prepended", transformed.Body.Body[0])
	}
	v := as.Pattern.(*Variable)
	if v.Name != "site" {
		t.Errorf("Pattern.Name = %q, want site", v.Name)
	}
	s := as.Value.(*StringLit)
	if s.Value != "jinjac" {
		t.Errorf("Value.Value = %q, want jinjac", s.Value)
	}
}

func TestDefinesTransformNoopWhenEmpty(t *testing.T) {
	cfg := Config{}
	tmpl := parse(t, "{{ x }}")
	transformed, err := cfg.DefinesTransform()(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	if len(transformed.Body.Body) != 1 {
		t.Fatalf("got %d placeables, want 1 unchanged", len(transformed.Body.Body))
	}
}
