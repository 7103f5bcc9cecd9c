package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownScheme is returned when a URI uses a scheme with no configured root.
var ErrUnknownScheme = errors.New("unknown storage scheme")

const schemeSeparator = "://"

// Resolver maps stream wrapper style URIs such as "temporary://pii_data/x.zip"
// onto directories of the local file system.
type Resolver struct {
	roots map[string]string
}

// NewResolver builds a resolver from scheme name to root directory,
// e.g. {"temporary": "/tmp"}. Scheme names may be given with or without "://".
func NewResolver(roots map[string]string) *Resolver {
	normalized := make(map[string]string, len(roots))
	for scheme, root := range roots {
		name := strings.TrimSuffix(strings.TrimSpace(scheme), schemeSeparator)
		if name == "" || strings.TrimSpace(root) == "" {
			continue
		}
		normalized[strings.ToLower(name)] = filepath.Clean(root)
	}
	return &Resolver{roots: normalized}
}

// DefaultRoots returns the roots used when nothing is configured.
func DefaultRoots() map[string]string {
	return map[string]string{
		"temporary": os.TempDir(),
		"private":   filepath.Join(os.TempDir(), "private"),
	}
}

// Realpath resolves uri to an absolute local path. Plain paths are cleaned and returned as-is.
func (r *Resolver) Realpath(uri string) (string, error) {
	scheme, target, ok := split(uri)
	if !ok {
		if strings.TrimSpace(uri) == "" {
			return "", errors.New("empty path")
		}
		return filepath.Abs(filepath.Clean(uri))
	}
	root, found := r.roots[scheme]
	if !found {
		return "", fmt.Errorf("%w: %s", ErrUnknownScheme, scheme)
	}
	resolved := filepath.Join(root, filepath.FromSlash(target))
	if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes scheme root", uri)
	}
	return resolved, nil
}

// Basename returns the final element of uri.
func (r *Resolver) Basename(uri string) string {
	if _, target, ok := split(uri); ok {
		uri = target
	}
	return filepath.Base(filepath.FromSlash(uri))
}

// PrepareDirectory makes sure the directory a scheme prefix points at exists.
func (r *Resolver) PrepareDirectory(schemePrefix string) (string, error) {
	dir, err := r.Realpath(schemePrefix)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", schemePrefix, err)
	}
	return dir, nil
}

// Destination joins a scheme prefix, a bare filename and an extension, e.g.
// Destination("temporary://pii_data/", "export", ".csv").
func Destination(scheme, filename, ext string) string {
	return scheme + filename + ext
}

func split(uri string) (scheme, target string, ok bool) {
	idx := strings.Index(uri, schemeSeparator)
	if idx <= 0 {
		return "", "", false
	}
	return strings.ToLower(uri[:idx]), uri[idx+len(schemeSeparator):], true
}
