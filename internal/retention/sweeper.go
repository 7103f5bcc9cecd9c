package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rpattn/formexport/internal/export"
	"github.com/rpattn/formexport/internal/metrics"
	"github.com/rpattn/formexport/internal/storage"
)

// Sweeper deletes generated CSV and zip files older than tmp_files_max_age.
type Sweeper struct {
	resolver *storage.Resolver
	settings export.SettingsSource
	metrics  *metrics.Collector
	now      func() time.Time
	logger   *slog.Logger
}

func NewSweeper(resolver *storage.Resolver, settings export.SettingsSource, collector *metrics.Collector) *Sweeper {
	return &Sweeper{
		resolver: resolver,
		settings: settings,
		metrics:  collector,
		now:      time.Now,
		logger:   slog.Default().With("component", "retention.sweeper"),
	}
}

// Sweep removes expired export files and returns how many were deleted.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	settings := s.settings.Current()
	if err := settings.Validate(); err != nil {
		return 0, err
	}
	dir, err := s.resolver.Realpath(settings.TmpFolderScheme)
	if err != nil {
		return 0, fmt.Errorf("resolve export directory: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read export directory: %w", err)
	}

	cutoff := s.now().Add(-time.Duration(settings.TmpFilesMaxAge) * time.Second)
	deleted := 0
	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if entry.IsDir() || !isExportFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", entry.Name(), err))
			continue
		}
		deleted++
		s.logger.Debug("expired export removed", "file", entry.Name(), "modified", info.ModTime())
	}
	s.metrics.FilesSwept(deleted)
	return deleted, errors.Join(errs...)
}

func isExportFile(name string) bool {
	if !strings.HasPrefix(name, export.FilenamePrefix) {
		return false
	}
	ext := filepath.Ext(name)
	return ext == ".csv" || ext == ".zip"
}
