package archive

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// exitCommandNotFound mirrors the shell status for a missing executable.
const exitCommandNotFound = 127

// CommandArchiver shells out to the Info-ZIP "zip" utility.
type CommandArchiver struct {
	binary string
}

// NewCommandArchiver returns an archiver running binary, "zip" when empty.
func NewCommandArchiver(binary string) *CommandArchiver {
	if strings.TrimSpace(binary) == "" {
		binary = "zip"
	}
	return &CommandArchiver{binary: binary}
}

// Args builds the argument list: -j junks paths, -P sets the password.
func (a *CommandArchiver) Args(src, dest, password string) []string {
	if password != "" {
		return []string{"-jP", password, dest, src}
	}
	return []string{"-j", dest, src}
}

// Describe renders the invocation in shell form.
func (a *CommandArchiver) Describe(src, dest, password string) string {
	command := a.binary + " -j"
	if password != "" {
		command += `P "` + password + `"`
	}
	return command + " " + dest + " " + src
}

// Compress runs the archiver once and blocks until it exits.
func (a *CommandArchiver) Compress(ctx context.Context, src, dest, password string) error {
	cmd := exec.CommandContext(ctx, a.binary, a.Args(src, dest, password)...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("archiver interrupted: %w", ctxErr)
	}
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		return &ArchiveError{ExitCode: exitErr.ExitCode(), Output: string(output), Err: err}
	case errors.Is(err, exec.ErrNotFound):
		return &ArchiveError{ExitCode: exitCommandNotFound, Output: err.Error(), Err: err}
	default:
		return &ArchiveError{ExitCode: -1, Output: string(output), Err: err}
	}
}
