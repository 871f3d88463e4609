package export

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mnbizdata/filings-crawler/internal/merge"
	"github.com/mnbizdata/filings-crawler/internal/registry"
)

func TestRunExportsDataset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	scraped := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := []*registry.BusinessRecord{
		{
			FileNumber:   100,
			BusinessName: "A Co",
			Type:         registry.TypeAssumedName,
			FilingDate:   "2019-05-02",
			Status:       "Active",
			ScrapedAt:    scraped,
		},
		{
			FileNumber:   200,
			BusinessName: "B Coop",
			Type:         registry.TypeCooperative,
			FilingDate:   "2021-01-10",
			Status:       "Inactive",
			ScrapedAt:    scraped,
		},
	}

	input := filepath.Join(dir, merge.MergedFileName)
	require.NoError(t, merge.WriteDataset(input, records))

	dbPath := filepath.Join(dir, "businesses.db")
	n, err := New(zap.NewNop()).Run(context.Background(), input, dbPath)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM businesses").Scan(&count))
	require.Equal(t, 2, count)

	var name, status string
	err = db.QueryRow("SELECT business_name, status FROM businesses WHERE file_number = 200").
		Scan(&name, &status)
	require.NoError(t, err)
	require.Equal(t, "B Coop", name)
	require.Equal(t, "Inactive", status)
}

func TestRunReplacesPreviousExport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	scraped := time.Now().UTC()
	first := []*registry.BusinessRecord{
		{FileNumber: 1, BusinessName: "Old", Type: registry.TypeAssumedName, ScrapedAt: scraped},
		{FileNumber: 2, BusinessName: "Stale", Type: registry.TypeAssumedName, ScrapedAt: scraped},
	}
	second := []*registry.BusinessRecord{
		{FileNumber: 3, BusinessName: "Fresh", Type: registry.TypeAssumedName, ScrapedAt: scraped},
	}

	input := filepath.Join(dir, merge.MergedFileName)
	dbPath := filepath.Join(dir, "businesses.db")
	exporter := New(zap.NewNop())

	require.NoError(t, merge.WriteDataset(input, first))
	_, err := exporter.Run(context.Background(), input, dbPath)
	require.NoError(t, err)

	require.NoError(t, merge.WriteDataset(input, second))
	n, err := exporter.Run(context.Background(), input, dbPath)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM businesses").Scan(&count))
	require.Equal(t, 1, count)
}

func TestRunFailsOnMissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := New(zap.NewNop()).Run(context.Background(), filepath.Join(dir, "nope.csv"), filepath.Join(dir, "out.db"))
	require.Error(t, err)
}
