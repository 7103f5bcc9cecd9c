package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func writeScript(t *testing.T, exitCode int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-zip")
	script := fmt.Sprintf("#!/bin/sh\necho \"zip warning: failure $*\" >&2\nexit %d\n", exitCode)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCommandArchiverDescribe(t *testing.T) {
	archiver := NewCommandArchiver("")

	withPassword := archiver.Describe("/tmp/pii_data/filename.csv", "/tmp/pii_data/filename.zip", "123")
	if withPassword != `zip -jP "123" /tmp/pii_data/filename.zip /tmp/pii_data/filename.csv` {
		t.Fatalf("unexpected command %q", withPassword)
	}
	plain := archiver.Describe("/tmp/pii_data/filename.csv", "/tmp/pii_data/filename.zip", "")
	if plain != "zip -j /tmp/pii_data/filename.zip /tmp/pii_data/filename.csv" {
		t.Fatalf("unexpected command %q", plain)
	}
}

func TestCommandArchiverArgs(t *testing.T) {
	archiver := NewCommandArchiver("zip")

	args := archiver.Args("in.csv", "out.zip", "s3cret")
	want := []string{"-jP", "s3cret", "out.zip", "in.csv"}
	if fmt.Sprint(args) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, args)
	}
	args = archiver.Args("in.csv", "out.zip", "")
	for _, arg := range args {
		if arg == "-jP" || arg == "s3cret" {
			t.Fatalf("password argument leaked into %v", args)
		}
	}
}

func TestCommandArchiverNonZeroExit(t *testing.T) {
	for _, code := range []int{12, 15, 18, 127} {
		archiver := NewCommandArchiver(writeScript(t, code))
		err := archiver.Compress(context.Background(), "/tmp/in.csv", "/tmp/out.zip", "")
		var archiveErr *ArchiveError
		if !errors.As(err, &archiveErr) {
			t.Fatalf("exit %d: expected ArchiveError, got %v", code, err)
		}
		if archiveErr.ExitCode != code {
			t.Fatalf("expected exit code %d, got %d", code, archiveErr.ExitCode)
		}
		if archiveErr.Output == "" {
			t.Fatalf("expected captured diagnostic output")
		}
	}
}

func TestCommandArchiverMissingBinary(t *testing.T) {
	archiver := NewCommandArchiver("command_which_doesnt_exist")
	err := archiver.Compress(context.Background(), "/tmp/in.csv", "/tmp/out.zip", "")
	var archiveErr *ArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("expected ArchiveError, got %v", err)
	}
	if archiveErr.ExitCode != 127 {
		t.Fatalf("expected exit code 127, got %d", archiveErr.ExitCode)
	}
}

func TestCommandArchiverMissingSource(t *testing.T) {
	if _, err := exec.LookPath("zip"); err != nil {
		t.Skip("zip binary not installed")
	}
	dir := t.TempDir()
	archiver := NewCommandArchiver("zip")
	err := archiver.Compress(context.Background(), filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.zip"), "")
	var archiveErr *ArchiveError
	if !errors.As(err, &archiveErr) || archiveErr.ExitCode == 0 {
		t.Fatalf("expected non-zero ArchiveError, got %v", err)
	}
}

func TestCommandArchiverCreatesArchive(t *testing.T) {
	if _, err := exec.LookPath("zip"); err != nil {
		t.Skip("zip binary not installed")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "export.csv")
	if err := os.WriteFile(src, []byte("BRAND\nNESTLE\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	dest := filepath.Join(dir, "export.zip")

	if err := NewCommandArchiver("zip").Compress(context.Background(), src, dest, "123"); err != nil {
		t.Fatalf("compress returned error: %v", err)
	}
	info, err := os.Stat(dest)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected archive at %s: %v", dest, err)
	}
}
