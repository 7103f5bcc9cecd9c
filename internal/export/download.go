package export

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// NotFoundError reports that a requested archive does not exist.
type NotFoundError struct {
	Filename string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("archive %s not found", e.Filename)
}

// ErrInvalidFilename is returned for download names that are not plain file names.
var ErrInvalidFilename = errors.New("invalid archive filename")

// ValidateFilename rejects names that could leave the export directory.
func ValidateFilename(filename string) error {
	if strings.TrimSpace(filename) == "" ||
		strings.ContainsAny(filename, `/\:`) ||
		strings.Contains(filename, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return nil
}

// ResponseForFilename streams <scheme><filename>.zip as an attachment.
func (s *Service) ResponseForFilename(w http.ResponseWriter, r *http.Request, filename string) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}
	uri := s.archives.FileDestination(s.settings.Current().TmpFolderScheme, filename)
	path, err := s.resolver.Realpath(uri)
	if err != nil {
		return fmt.Errorf("resolve archive: %w", err)
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &NotFoundError{Filename: filename}
		}
		return fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}
	if info.IsDir() {
		return &NotFoundError{Filename: filename}
	}

	name := s.resolver.Basename(uri)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", name))
	http.ServeContent(w, r, name, info.ModTime(), file)
	return nil
}

// BuildDownloadURL signs a short-lived download URL for filename.
func (s *Service) BuildDownloadURL(filename string) (string, error) {
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	values := url.Values{}
	values.Set("token", s.downloadSigner.Sign(filename, s.now()))
	return fmt.Sprintf("/zip_download/%s?%s", url.PathEscape(filename), values.Encode()), nil
}

// ValidateDownloadToken ensures token was issued for filename and has not expired.
func (s *Service) ValidateDownloadToken(filename, token string) error {
	return s.downloadSigner.Verify(filename, token, s.now())
}
