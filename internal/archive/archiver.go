package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEncryptionUnsupported is returned by archivers that cannot encrypt.
var ErrEncryptionUnsupported = errors.New("archiver does not support password protection")

// Archiver compresses exactly one source file into dest, dropping its directory
// path inside the archive. A non-empty password encrypts the archive.
type Archiver interface {
	Compress(ctx context.Context, src, dest, password string) error
}

// Describer renders the invocation an archiver would perform, for logs and tests.
type Describer interface {
	Describe(src, dest, password string) string
}

// ArchiveError reports a failed archiver run together with its exit status and output.
type ArchiveError struct {
	ExitCode int
	Output   string
	Err      error
}

func (e *ArchiveError) Error() string {
	msg := fmt.Sprintf("Exit code: %d", e.ExitCode)
	if output := strings.TrimSpace(e.Output); output != "" {
		msg += ". " + output
	}
	return msg
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// New returns the archiver registered under kind ("command" or "native").
func New(kind, binary string) (Archiver, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "command":
		return NewCommandArchiver(binary), nil
	case "native":
		return NewNativeArchiver(), nil
	default:
		return nil, fmt.Errorf("unsupported archiver %q", kind)
	}
}
