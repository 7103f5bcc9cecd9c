package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ErrInvalidSettings is wrapped by every settings validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

const (
	keyTmpFolderScheme = "export.tmp_folder_scheme"
	keyTmpFilesMaxAge  = "export.tmp_files_max_age"
	keyUseZipPassword  = "export.use_zip_password"
	keyArchiver        = "export.archiver"
)

// Settings are the administrator editable export options.
type Settings struct {
	// TmpFolderScheme is the storage prefix generated files live under, e.g. "temporary://pii_data/".
	TmpFolderScheme string `json:"tmp_folder_scheme"`
	// TmpFilesMaxAge is the retention threshold in seconds.
	TmpFilesMaxAge int `json:"tmp_files_max_age"`
	// UseZipPassword toggles password protected archives.
	UseZipPassword bool `json:"use_zip_password"`
}

// Validate checks the settings the way the settings form does.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.TmpFolderScheme) == "" {
		return fmt.Errorf("%w: tmp_folder_scheme is required", ErrInvalidSettings)
	}
	if !strings.Contains(s.TmpFolderScheme, "://") {
		return fmt.Errorf("%w: tmp_folder_scheme must look like scheme://path/", ErrInvalidSettings)
	}
	if s.TmpFilesMaxAge <= 0 {
		return fmt.Errorf("%w: tmp_files_max_age needs to be a positive number", ErrInvalidSettings)
	}
	return nil
}

// checkArchiver rejects password protection for archivers that cannot encrypt.
func checkArchiver(kind string, usePassword bool) error {
	if usePassword && strings.EqualFold(strings.TrimSpace(kind), "native") {
		return fmt.Errorf("%w: the native archiver cannot encrypt, disable use_zip_password or use the command archiver", ErrInvalidSettings)
	}
	return nil
}

// SettingsStore serves the current settings and keeps them in sync with the config file.
type SettingsStore struct {
	mu       sync.RWMutex
	v        *viper.Viper
	archiver string
	current  Settings
	onChange []func(Settings)
}

// NewSettingsStore reads the current settings from v. The archiver kind is
// fixed for the lifetime of the store.
func NewSettingsStore(v *viper.Viper) (*SettingsStore, error) {
	store := &SettingsStore{v: v, archiver: v.GetString(keyArchiver)}
	settings := settingsFrom(v)
	if err := store.validate(settings); err != nil {
		return nil, err
	}
	store.current = settings
	return store, nil
}

func (s *SettingsStore) validate(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return checkArchiver(s.archiver, settings.UseZipPassword)
}

// Current returns a snapshot of the settings.
func (s *SettingsStore) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnChange registers fn to run after every successful update or reload.
func (s *SettingsStore) OnChange(fn func(Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Update validates and applies settings, persisting them when a config file is in use.
func (s *SettingsStore) Update(settings Settings) error {
	settings.TmpFolderScheme = strings.TrimSpace(settings.TmpFolderScheme)
	if err := s.validate(settings); err != nil {
		return err
	}
	s.mu.Lock()
	s.v.Set(keyTmpFolderScheme, settings.TmpFolderScheme)
	s.v.Set(keyTmpFilesMaxAge, settings.TmpFilesMaxAge)
	s.v.Set(keyUseZipPassword, settings.UseZipPassword)
	if s.v.ConfigFileUsed() != "" {
		if err := s.v.WriteConfig(); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("persist settings: %w", err)
		}
	}
	s.current = settings
	listeners := append([]func(Settings){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(settings)
	}
	return nil
}

// Watch reloads the settings whenever the config file changes on disk.
// Invalid edits are reported to onError and the previous settings are kept.
func (s *SettingsStore) Watch(onError func(error)) {
	s.v.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}
		s.reload(onError)
	})
	s.v.WatchConfig()
}

func (s *SettingsStore) reload(onError func(error)) {
	s.mu.Lock()
	settings := settingsFrom(s.v)
	if err := s.validate(settings); err != nil {
		s.mu.Unlock()
		if onError != nil {
			onError(err)
		}
		return
	}
	s.current = settings
	listeners := append([]func(Settings){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(settings)
	}
}

func settingsFrom(v *viper.Viper) Settings {
	return Settings{
		TmpFolderScheme: strings.TrimSpace(v.GetString(keyTmpFolderScheme)),
		TmpFilesMaxAge:  v.GetInt(keyTmpFilesMaxAge),
		UseZipPassword:  v.GetBool(keyUseZipPassword),
	}
}
