package parser

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mnbizdata/filings-crawler/internal/registry"
)

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

const llcDetailPage = `<html><body>
<h2>North Star Bakery LLC</h2>
<dl>
<dt>Business Type</dt><dd>Limited Liability Company (Domestic)</dd>
<dt>MN Statute</dt><dd>322C</dd>
<dt>Home Jurisdiction</dt><dd>Minnesota</dd>
<dt>Filing Date</dt><dd>05/02/2019</dd>
<dt>Status</dt><dd>Active / In Good Standing</dd>
<dt>Renewal Due Date</dt><dd>12/31/2026</dd>
<dt>Registered Agent(s)</dt><dd>Gopher Agents Inc</dd>
<dt>Manager</dt><dd>A. Larsen</dd>
<dt>Principal Place of Business Address</dt><dd>123 Main St Suite 4
Minneapolis, MN 55401</dd>
<dt>Registered Office Address</dt><dd>PO Box 99
Saint Paul, MN 55102</dd>
</dl>
<table>
<thead><tr><th>Filing Date</th><th>Filing</th></tr></thead>
<tbody>
<tr><td>05/02/2019</td><td>Original Filing</td></tr>
<tr><td>01/15/2020</td><td>Annual Renewal</td></tr>
</tbody>
</table>
</body></html>`

const trademarkDetailPage = `<html><body>
<h2>LOON STATE ROASTERS</h2>
<dl>
<dt>Business Type</dt><dd>Trademark - Service Mark</dd>
<dt>Mark Type</dt><dd>Words and Design</dd>
<dt>Filing Date</dt><dd>03/10/2021</dd>
<dt>Status</dt><dd>Active</dd>
</dl>
<table>
<thead><tr><th>Applicant Name</th><th>Applicant Address</th></tr></thead>
<tbody>
<tr><td>Loon State Holdings</td><td>500 Hennepin Ave
Minneapolis, MN 55403</td></tr>
</tbody>
</table>
</body></html>`

func TestParseLLCDetailPage(t *testing.T) {
	t.Parallel()

	p := New(fixedClock{t: testNow})
	rec, err := p.Parse(123456, "", []byte(llcDetailPage))
	require.NoError(t, err)

	require.Equal(t, int64(123456), rec.FileNumber)
	require.Equal(t, "North Star Bakery LLC", rec.BusinessName, "name should fall back to the page heading")
	require.Equal(t, registry.TypeLLCDomestic, rec.Type)
	require.Equal(t, "322C", rec.Statute)
	require.Equal(t, "Minnesota", rec.HomeJurisdiction)
	require.Equal(t, "2019-05-02", rec.FilingDate)
	require.Equal(t, "2026-12-31", rec.RenewalDueDate)
	require.Equal(t, "Active / In Good Standing", rec.Status)
	require.Equal(t, "Gopher Agents Inc", rec.RegisteredAgentName)
	require.Equal(t, "A. Larsen", rec.Manager)
	require.Equal(t, testNow, rec.ScrapedAt)

	require.Equal(t, "123", rec.Principal.StreetNumber)
	require.Equal(t, "Main", rec.Principal.StreetName)
	require.Equal(t, "St", rec.Principal.StreetType)
	require.Equal(t, "Suite 4", rec.Principal.Unit)
	require.Equal(t, "Minneapolis", rec.Principal.City)
	require.Equal(t, "MN", rec.Principal.State)
	require.Equal(t, "55401", rec.Principal.Zip)

	require.Empty(t, rec.RegisteredOffice.StreetNumber, "PO Box stays unstructured")
	require.Contains(t, rec.RegisteredOffice.Raw, "PO Box 99")

	require.Equal(t, []string{
		"05/02/2019 | Original Filing",
		"01/15/2020 | Annual Renewal",
	}, rec.FilingHistory)
}

func TestParseTrademarkDetailPage(t *testing.T) {
	t.Parallel()

	p := New(fixedClock{t: testNow})
	rec, err := p.Parse(77, "LOON STATE ROASTERS", []byte(trademarkDetailPage))
	require.NoError(t, err)

	require.Equal(t, registry.TypeServiceMark, rec.Type)
	require.Equal(t, "Words and Design", rec.MarkType)
	require.Equal(t, "2021-03-10", rec.FilingDate)

	require.Equal(t, "Loon State Holdings", rec.Applicant.ContactName)
	require.Equal(t, "500", rec.Applicant.StreetNumber)
	require.Equal(t, "Hennepin", rec.Applicant.StreetName)
	require.Equal(t, "Ave", rec.Applicant.StreetType)
	require.Equal(t, "Minneapolis", rec.Applicant.City)
}

func TestParseRejectsUnknownBusinessType(t *testing.T) {
	t.Parallel()

	page := `<html><body><dl><dt>Business Type</dt><dd>Sole Proprietorship</dd></dl></body></html>`
	p := New(fixedClock{t: testNow})
	_, err := p.Parse(9, "Acme", []byte(page))
	require.ErrorIs(t, err, registry.ErrParseMismatch)
}

func TestParseRejectsMissingFileNumber(t *testing.T) {
	t.Parallel()

	p := New(fixedClock{t: testNow})
	_, err := p.Parse(0, "Acme", []byte(llcDetailPage))
	require.ErrorIs(t, err, registry.ErrParseMismatch)
}

func TestParseDropsVariantFieldsFromOtherTypes(t *testing.T) {
	t.Parallel()

	page := `<html><body><dl>
<dt>Business Type</dt><dd>Assumed Name</dd>
<dt>Mark Type</dt><dd>Design</dd>
<dt>Manager</dt><dd>Nobody</dd>
</dl></body></html>`
	p := New(fixedClock{t: testNow})
	rec, err := p.Parse(11, "Acme", []byte(page))
	require.NoError(t, err)
	require.Equal(t, registry.TypeAssumedName, rec.Type)
	require.Empty(t, rec.MarkType)
	require.Empty(t, rec.Manager)
}

func TestParseCapsFilingHistory(t *testing.T) {
	t.Parallel()

	var rows strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&rows, "<tr><td>01/01/2020</td><td>Event %d</td></tr>", i)
	}
	page := fmt.Sprintf(`<html><body><dl>
<dt>Business Type</dt><dd>Cooperative</dd>
</dl>
<table><thead><tr><th>Filing</th></tr></thead><tbody>%s</tbody></table>
</body></html>`, rows.String())

	p := New(fixedClock{t: testNow})
	rec, err := p.Parse(12, "Co-op", []byte(page))
	require.NoError(t, err)
	require.Len(t, rec.FilingHistory, maxFilingHistory)
}

func TestParseFirstLabelWins(t *testing.T) {
	t.Parallel()

	page := `<html><body><dl>
<dt>Business Type</dt><dd>Cooperative</dd>
<dt>Status</dt><dd>Active</dd>
<dt>Status</dt><dd>Dissolved</dd>
</dl></body></html>`
	p := New(fixedClock{t: testNow})
	rec, err := p.Parse(13, "Co-op", []byte(page))
	require.NoError(t, err)
	require.Equal(t, "Active", rec.Status)
}
