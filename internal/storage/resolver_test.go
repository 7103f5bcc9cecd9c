package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolverRealpath(t *testing.T) {
	resolver := NewResolver(map[string]string{"php://": "/tmp", "temporary": "/var/tmp"})

	cases := []struct {
		uri  string
		want string
	}{
		{"php://pii_data/filename.csv", "/tmp/pii_data/filename.csv"},
		{"php://pii_data/filename.zip", "/tmp/pii_data/filename.zip"},
		{"temporary://export.zip", "/var/tmp/export.zip"},
		{"TEMPORARY://a/b.csv", "/var/tmp/a/b.csv"},
	}
	for _, tc := range cases {
		got, err := resolver.Realpath(tc.uri)
		if err != nil {
			t.Fatalf("Realpath(%q) returned error: %v", tc.uri, err)
		}
		if got != tc.want {
			t.Fatalf("Realpath(%q) = %q, want %q", tc.uri, got, tc.want)
		}
	}
}

func TestResolverRejectsUnknownSchemeAndEscapes(t *testing.T) {
	resolver := NewResolver(map[string]string{"temporary": "/var/tmp"})

	if _, err := resolver.Realpath("s3://bucket/key"); !errors.Is(err, ErrUnknownScheme) {
		t.Fatalf("expected ErrUnknownScheme, got %v", err)
	}
	if _, err := resolver.Realpath("temporary://../etc/passwd"); err == nil {
		t.Fatalf("expected escape to be rejected")
	}
}

func TestResolverBasename(t *testing.T) {
	resolver := NewResolver(nil)
	if got := resolver.Basename("temporary://pii_data/webform_csv_data-1542374348.zip"); got != "webform_csv_data-1542374348.zip" {
		t.Fatalf("unexpected basename %q", got)
	}
	if got := resolver.Basename("php://pii_data/filename.zip"); got != "filename.zip" {
		t.Fatalf("unexpected basename %q", got)
	}
}

func TestDestination(t *testing.T) {
	cases := []struct {
		scheme, name, ext, want string
	}{
		{"php://pii_data/", "filename", ".csv", "php://pii_data/filename.csv"},
		{"temp://", "filename", ".zip", "temp://filename.zip"},
	}
	for _, tc := range cases {
		if got := Destination(tc.scheme, tc.name, tc.ext); got != tc.want {
			t.Fatalf("Destination(%q, %q, %q) = %q, want %q", tc.scheme, tc.name, tc.ext, got, tc.want)
		}
	}
}

func TestPrepareDirectory(t *testing.T) {
	root := t.TempDir()
	resolver := NewResolver(map[string]string{"temporary": root})

	dir, err := resolver.PrepareDirectory("temporary://pii_data/")
	if err != nil {
		t.Fatalf("PrepareDirectory returned error: %v", err)
	}
	if dir != filepath.Join(root, "pii_data") {
		t.Fatalf("unexpected directory %q", dir)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory to exist: %v", err)
	}
}
