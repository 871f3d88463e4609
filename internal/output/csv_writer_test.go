package output

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mnbizdata/filings-crawler/internal/registry"
)

func testRecord(fileNumber int64) *registry.BusinessRecord {
	return &registry.BusinessRecord{
		FileNumber:   fileNumber,
		BusinessName: "Test Business",
		Type:         registry.TypeAssumedName,
		ScrapedAt:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriterWritesHeaderOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ShardFileName(0))

	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(context.Background(), testRecord(1)))
	require.NoError(t, w.Close())

	// Reopening must append, not rewrite the header.
	w, err = NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(context.Background(), testRecord(2)))
	require.NoError(t, w.Close())

	rows := readAll(t, path)
	require.Len(t, rows, 3)
	require.Equal(t, registry.Columns, rows[0])
	require.Equal(t, "1", rows[1][0])
	require.Equal(t, "2", rows[2][0])
}

func TestCSVWriterRowIsDurableBeforeReturn(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ShardFileName(1))
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.Append(context.Background(), testRecord(42)))

	// Read without closing the writer: the row must already be on disk.
	rows := readAll(t, path)
	require.Len(t, rows, 2)
	require.Equal(t, "42", rows[1][0])

	require.NoError(t, w.Close())
}

func TestCSVWriterRejectsInvalidRecord(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ShardFileName(2))
	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	defer w.Close()

	bad := testRecord(3)
	bad.Manager = "not allowed on assumed names"
	err = w.Append(context.Background(), bad)
	require.ErrorIs(t, err, registry.ErrInvalidRecord)

	rows := readAll(t, path)
	require.Len(t, rows, 1, "invalid records must not reach the dataset")
}

func TestShardFileName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "businesses_worker_4.csv", ShardFileName(4))
}
