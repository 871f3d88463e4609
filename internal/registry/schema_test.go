package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRowRoundTrip(t *testing.T) {
	t.Parallel()

	scraped := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	rec := &BusinessRecord{
		FileNumber:       123456,
		BusinessName:     "North Star Bakery LLC",
		Statute:          "322C",
		Type:             TypeLLCDomestic,
		HomeJurisdiction: "Minnesota",
		FilingDate:       "2019-05-02",
		Status:           "Active / In Good Standing",
		RenewalDueDate:   "2026-12-31",
		Manager:          "A. Larsen",
		Principal: AddressComponents{
			StreetNumber: "123", StreetName: "Main", StreetType: "St",
			Unit: "Suite 4", City: "Minneapolis", State: "MN", Zip: "55401",
			Raw: "123 Main St Suite 4, Minneapolis, MN 55401",
		},
		RegisteredOffice: AddressComponents{
			Raw: "PO Box 99, Saint Paul, MN 55102",
		},
		Applicant: AddressComponents{
			ContactName: "A. Larsen",
			City:        "Duluth", State: "MN", Zip: "55802",
			Raw: "Duluth, MN 55802",
		},
		RegisteredAgentName: "Gopher Agents Inc",
		FilingHistory: []string{
			"Original Filing | 2019-05-02 | 1098765432",
			"Annual Renewal | 2020-01-15 | 1123456789",
		},
		ScrapedAt: scraped,
	}

	row := rec.Row()
	require.Len(t, row, len(Columns))

	back, err := RecordFromRow(row)
	require.NoError(t, err)
	require.Equal(t, rec, back)
}

func TestRowJoinsFilingHistory(t *testing.T) {
	t.Parallel()

	rec := &BusinessRecord{
		FileNumber:    7,
		Type:          TypeAssumedName,
		FilingHistory: []string{"a | b", "c | d"},
	}
	row := rec.Row()
	require.Equal(t, "a | b ;; c | d", row[50])
}

func TestRecordFromRowRejectsBadRows(t *testing.T) {
	t.Parallel()

	_, err := RecordFromRow([]string{"1", "short"})
	require.Error(t, err)

	row := make([]string, len(Columns))
	row[0] = "not-a-number"
	_, err = RecordFromRow(row)
	require.Error(t, err)
}

func TestRecordFromRowAcceptsLegacyScrapedAt(t *testing.T) {
	t.Parallel()

	row := make([]string, len(Columns))
	row[0] = "55"
	row[51] = "2023-11-04"
	rec, err := RecordFromRow(row)
	require.NoError(t, err)
	require.Equal(t, time.Date(2023, 11, 4, 0, 0, 0, 0, time.UTC), rec.ScrapedAt)
}
