package csvexport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/rpattn/formexport/internal/domain"
	"github.com/rpattn/formexport/internal/storage"
)

// FileOpenError reports that the export file could not be opened for writing.
type FileOpenError struct {
	Path string
	Err  error
}

func (e *FileOpenError) Error() string {
	return fmt.Sprintf("open %s for write: %v", e.Path, e.Err)
}

func (e *FileOpenError) Unwrap() error {
	return e.Err
}

// FileDestination returns the CSV location for filename under scheme.
func FileDestination(scheme, filename string) string {
	return storage.Destination(scheme, filename, ".csv")
}

// Writer owns the export file for the duration of one job and flushes after
// every row, so rows written before a failure stay on disk.
type Writer struct {
	path     string
	file     *os.File
	buffered *bufio.Writer
	counter  *countingWriter
	csv      *csv.Writer
	location *time.Location
}

// Open truncates or creates path and returns a writer positioned at its start.
func Open(path string, loc *time.Location) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}
	buffered := bufio.NewWriterSize(file, 64<<10)
	counter := &countingWriter{writer: buffered}
	if loc == nil {
		loc = time.UTC
	}
	return &Writer{
		path:     path,
		file:     file,
		buffered: buffered,
		counter:  counter,
		csv:      csv.NewWriter(counter),
		location: loc,
	}, nil
}

// WriteHeader writes the column titles and returns the number of bytes written.
func (w *Writer) WriteHeader() (int, error) {
	before := w.counter.count
	header := domain.CSVHeader
	if err := w.csv.Write(header[:]); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("flush header: %w", err)
	}
	return int(w.counter.count - before), nil
}

// AppendRow formats record and writes it as one line.
func (w *Writer) AppendRow(record domain.Record) error {
	row := FormatRow(record, w.location)
	if err := w.csv.Write(row.Strings()); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush row: %w", err)
	}
	return nil
}

// Flush pushes buffered CSV data to the operating system.
func (w *Writer) Flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	return w.buffered.Flush()
}

// BytesWritten returns the number of bytes handed to the file so far.
func (w *Writer) BytesWritten() int64 {
	return w.counter.count
}

// Close flushes, syncs and closes the file. It is safe to call more than once.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	file := w.file
	w.file = nil
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("final flush: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("sync %s: %w", w.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}
	return nil
}

type countingWriter struct {
	writer *bufio.Writer
	count  int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	c.count += int64(n)
	return n, err
}
