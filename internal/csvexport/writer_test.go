package csvexport

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpattn/formexport/internal/domain"
)

func TestFileDestination(t *testing.T) {
	require.Equal(t, "php://pii_data/filename.csv", FileDestination("php://pii_data/", "filename"))
	require.Equal(t, "temp://filename.csv", FileDestination("temp://", "filename"))
}

func TestWriterHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	writer, err := Open(path, time.UTC)
	require.NoError(t, err)

	n, err := writer.WriteHeader()
	require.NoError(t, err)
	require.Equal(t, 135, n)
	require.NoError(t, writer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strings.Join(domain.CSVHeader[:], ",")+"\n", string(data))
}

func TestWriterAppendsFormattedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	writer, err := Open(path, time.UTC)
	require.NoError(t, err)
	_, err = writer.WriteHeader()
	require.NoError(t, err)

	require.NoError(t, writer.AppendRow(domain.Record{
		"langcode":         "de",
		"created":          "1523864610",
		"worldcup_gender":  "Male",
		"worldcup_surname": `O"Brien, Jr`,
	}))
	require.NoError(t, writer.AppendRow(domain.Record{"langcode": "fr"}))

	// Rows are flushed as they are appended.
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.EqualValues(t, writer.BytesWritten(), len(onDisk))
	require.NoError(t, writer.Close())
	require.NoError(t, writer.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Len(t, records[1], domain.ColumnCount)
	require.Equal(t, `O"Brien, Jr`, records[1][3])
	require.Equal(t, "16-04-2018 07:43:30", records[1][7])
	require.Equal(t, "2", records[2][2])
	require.Equal(t, "", records[2][3])
}

func TestOpenFailureIsFileOpenError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "export.csv")
	_, err := Open(path, nil)
	require.Error(t, err)

	var openErr *FileOpenError
	require.True(t, errors.As(err, &openErr))
	require.Equal(t, path, openErr.Path)
	require.True(t, errors.Is(err, os.ErrNotExist))
}
