package address

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mnbizdata/filings-crawler/internal/registry"
)

func TestParseSingleLineWithUnit(t *testing.T) {
	t.Parallel()

	got := Parse("123 Main St Suite 4, Minneapolis, MN 55401")
	require.Equal(t, registry.AddressComponents{
		StreetNumber: "123",
		StreetName:   "Main",
		StreetType:   "St",
		Unit:         "Suite 4",
		City:         "Minneapolis",
		State:        "MN",
		Zip:          "55401",
		Raw:          "123 Main St Suite 4, Minneapolis, MN 55401",
	}, got)
}

func TestParseMultiLine(t *testing.T) {
	t.Parallel()

	raw := "456 Oak Avenue N\nSte 210\nSaint Paul, MN 55102-1234\nUSA"
	got := Parse(raw)
	require.Equal(t, "456", got.StreetNumber)
	require.Equal(t, "Oak", got.StreetName)
	require.Equal(t, "Ave", got.StreetType)
	require.Equal(t, "N", got.StreetDirection)
	require.Equal(t, "Ste 210", got.Unit)
	require.Equal(t, "Saint Paul", got.City)
	require.Equal(t, "MN", got.State)
	require.Equal(t, "55102-1234", got.Zip)
	require.Equal(t, raw, got.Raw)
}

func TestParseCanonicalizesStreetType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want string
	}{
		{"10 Birch Street, Duluth, MN 55802", "St"},
		{"10 Birch Str, Duluth, MN 55802", "St"},
		{"10 Birch Boulevard, Duluth, MN 55802", "Blvd"},
		{"10 Birch Pkwy., Duluth, MN 55802", "Pkwy"},
	}
	for _, tc := range cases {
		got := Parse(tc.raw)
		require.Equal(t, tc.want, got.StreetType, "raw: %s", tc.raw)
		require.Equal(t, "Birch", got.StreetName)
	}
}

func TestParseHyphenatedStreetNumber(t *testing.T) {
	t.Parallel()

	got := Parse("123-125 Lake Dr, Bemidji, MN 56601")
	require.Equal(t, "123-125", got.StreetNumber)
	require.Equal(t, "Lake", got.StreetName)
	require.Equal(t, "Dr", got.StreetType)
}

func TestParseEnDashZip(t *testing.T) {
	t.Parallel()

	got := Parse("77 River Rd\nWinona, MN 55987–0001")
	require.Equal(t, "55987-0001", got.Zip)
}

func TestParsePOBoxStaysUnstructured(t *testing.T) {
	t.Parallel()

	raw := "PO Box 64090\nSaint Paul, MN 55164"
	got := Parse(raw)
	require.Equal(t, registry.AddressComponents{Raw: raw}, got)
}

func TestParseUnparseableCityLineLeavesFieldsEmpty(t *testing.T) {
	t.Parallel()

	got := Parse("88 Spruce Ln\nSomewhere Unknown 123456789")
	require.Equal(t, "88", got.StreetNumber)
	require.Empty(t, got.City)
	require.Empty(t, got.State)
	require.Empty(t, got.Zip)
}

func TestParseEmptyInput(t *testing.T) {
	t.Parallel()

	require.True(t, Parse("").Empty())
	got := Parse("  \n  ")
	require.Equal(t, "  \n  ", got.Raw)
	require.Empty(t, got.City)
}
