package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, v, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected http addr %q", cfg.HTTP.Addr)
	}
	if cfg.Export.Archiver != "command" || cfg.Export.ZipBinary != "zip" {
		t.Fatalf("unexpected archiver defaults %+v", cfg.Export)
	}
	if cfg.Export.JobTimeout != 30*time.Minute {
		t.Fatalf("unexpected job timeout %s", cfg.Export.JobTimeout)
	}
	if cfg.Retention.Schedule != "@hourly" {
		t.Fatalf("unexpected retention schedule %q", cfg.Retention.Schedule)
	}
	if cfg.Export.Location() != time.UTC {
		t.Fatalf("expected UTC location")
	}

	store, err := NewSettingsStore(v)
	if err != nil {
		t.Fatalf("NewSettingsStore returned error: %v", err)
	}
	want := Settings{TmpFolderScheme: "temporary://pii_data/", TmpFilesMaxAge: 21600, UseZipPassword: true}
	if got := store.Current(); got != want {
		t.Fatalf("unexpected settings %+v", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FORMEXPORT_HTTP_ADDR", ":9999")
	t.Setenv("FORMEXPORT_EXPORT_USE_ZIP_PASSWORD", "false")
	t.Setenv("FORMEXPORT_EXPORT_ARCHIVER", "native")
	t.Setenv("FORMEXPORT_DATABASE_HOST", "db.internal")

	cfg, v, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTP.Addr != ":9999" || cfg.Database.Host != "db.internal" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	store, err := NewSettingsStore(v)
	if err != nil {
		t.Fatalf("NewSettingsStore returned error: %v", err)
	}
	if store.Current().UseZipPassword {
		t.Fatalf("expected password protection to be disabled")
	}
}

func TestLoadRejectsNativeArchiverWithPassword(t *testing.T) {
	t.Setenv("FORMEXPORT_EXPORT_ARCHIVER", "native")

	if _, _, err := Load(t.TempDir()); !errors.Is(err, ErrInvalidSettings) {
		t.Fatalf("expected ErrInvalidSettings, got %v", err)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("export:\n  tmp_folder_scheme: private://exports/\n  tmp_files_max_age: 60\nstorage:\n  schemes:\n    private: /srv/private\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, v, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage["private"] != "/srv/private" {
		t.Fatalf("unexpected storage schemes %+v", cfg.Storage)
	}
	store, err := NewSettingsStore(v)
	if err != nil {
		t.Fatalf("NewSettingsStore returned error: %v", err)
	}
	if got := store.Current(); got.TmpFolderScheme != "private://exports/" || got.TmpFilesMaxAge != 60 {
		t.Fatalf("unexpected settings %+v", got)
	}
}
