package archive

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/rpattn/formexport/internal/storage"
)

const (
	passwordLength   = 16
	passwordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Service turns an exported CSV into a zip archive next to it.
type Service struct {
	resolver *storage.Resolver
	archiver Archiver
	logger   *slog.Logger
}

func NewService(resolver *storage.Resolver, archiver Archiver) *Service {
	return &Service{
		resolver: resolver,
		archiver: archiver,
		logger:   slog.Default().With("component", "archive"),
	}
}

// GeneratePassword returns a random password drawn from an unambiguous alphabet.
func (s *Service) GeneratePassword() (string, error) {
	buf := make([]byte, passwordLength)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// FileDestination returns the archive URI for filename under scheme.
func (s *Service) FileDestination(scheme, filename string) string {
	return storage.Destination(scheme, filename, ".zip")
}

// Invocation renders the archiver call CreateZipArchive would make.
func (s *Service) Invocation(scheme, filename, password string) (string, error) {
	src, dest, err := s.paths(scheme, filename)
	if err != nil {
		return "", err
	}
	describer, ok := s.archiver.(Describer)
	if !ok {
		return "", fmt.Errorf("archiver %T cannot describe its invocation", s.archiver)
	}
	return describer.Describe(src, dest, password), nil
}

// CreateZipArchive compresses <scheme><filename>.csv into <scheme><filename>.zip
// and returns the archive URI. An empty password builds an unencrypted archive.
func (s *Service) CreateZipArchive(ctx context.Context, scheme, filename, password string) (string, error) {
	src, dest, err := s.paths(scheme, filename)
	if err != nil {
		return "", err
	}
	if err := s.archiver.Compress(ctx, src, dest, password); err != nil {
		s.logger.Error("archive creation failed",
			"filename", filename,
			"encrypted", password != "",
			"error", err,
		)
		return "", err
	}
	s.logger.Info("archive created", "filename", filename, "encrypted", password != "")
	return s.FileDestination(scheme, filename), nil
}

func (s *Service) paths(scheme, filename string) (string, string, error) {
	src, err := s.resolver.Realpath(storage.Destination(scheme, filename, ".csv"))
	if err != nil {
		return "", "", fmt.Errorf("resolve archive source: %w", err)
	}
	dest, err := s.resolver.Realpath(s.FileDestination(scheme, filename))
	if err != nil {
		return "", "", fmt.Errorf("resolve archive destination: %w", err)
	}
	return src, dest, nil
}
