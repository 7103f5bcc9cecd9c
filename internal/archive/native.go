package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// NativeArchiver builds unencrypted archives in process.
type NativeArchiver struct{}

func NewNativeArchiver() *NativeArchiver {
	return &NativeArchiver{}
}

// Describe renders a pseudo invocation for logs.
func (a *NativeArchiver) Describe(src, dest, password string) string {
	return fmt.Sprintf("native-zip %s %s", dest, src)
}

func (a *NativeArchiver) Compress(ctx context.Context, src, dest, password string) (err error) {
	if password != "" {
		return ErrEncryptionUnsupported
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open archive source: %w", err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat archive source: %w", err)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close archive: %w", closeErr)
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	zw := zip.NewWriter(out)
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("build archive header: %w", err)
	}
	header.Name = filepath.Base(src)
	header.Method = zip.Deflate
	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create archive entry: %w", err)
	}
	if _, err := io.Copy(entry, in); err != nil {
		return fmt.Errorf("compress %s: %w", src, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}
