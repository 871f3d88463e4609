// Package parser classifies detail-page payloads and extracts typed
// business records from them.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mnbizdata/filings-crawler/internal/address"
	"github.com/mnbizdata/filings-crawler/internal/registry"
)

// maxFilingHistory caps the number of filing events kept per record.
const maxFilingHistory = 20

// labelFields maps normalized dt labels to setters on the record. Address
// blocks are handled separately because their labels overlap ("principal
// place of business address" also contains "business").
var labelFields = []struct {
	key string
	set func(*registry.BusinessRecord, string)
}{
	{"mn statute", func(r *registry.BusinessRecord, v string) { setField(&r.Statute, v) }},
	{"home jurisdiction", func(r *registry.BusinessRecord, v string) { setField(&r.HomeJurisdiction, v) }},
	{"filing date", func(r *registry.BusinessRecord, v string) { setField(&r.FilingDate, v) }},
	{"date of incorporation", func(r *registry.BusinessRecord, v string) { setField(&r.FilingDate, v) }},
	{"renewal due date", func(r *registry.BusinessRecord, v string) { setField(&r.RenewalDueDate, v) }},
	{"status", func(r *registry.BusinessRecord, v string) { setField(&r.Status, v) }},
	{"registered agent", func(r *registry.BusinessRecord, v string) { setField(&r.RegisteredAgentName, v) }},
}

// setField implements first-match-wins: repeated labels never overwrite.
func setField(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func setIfEmpty(m map[string]string, key, v string) {
	if m[key] == "" {
		m[key] = v
	}
}

// Parser turns raw detail-page payloads into BusinessRecords.
type Parser struct {
	clock registry.Clock
}

// New constructs a Parser.
func New(clock registry.Clock) *Parser {
	return &Parser{clock: clock}
}

// Parse extracts a record for fileNumber from the payload. It returns an
// error wrapping registry.ErrParseMismatch when the payload shape is not
// recognized: an unknown business type tag or a missing file number.
// Records are never fabricated from unrecognized payloads.
func (p *Parser) Parse(fileNumber int64, businessName string, payload []byte) (*registry.BusinessRecord, error) {
	if fileNumber <= 0 {
		return nil, fmt.Errorf("%w: missing file number", registry.ErrParseMismatch)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", registry.ErrParseMismatch, err)
	}

	rec := &registry.BusinessRecord{
		FileNumber:   fileNumber,
		BusinessName: businessName,
		ScrapedAt:    p.clock.Now(),
	}
	if rec.BusinessName == "" {
		rec.BusinessName = cleanText(doc.Find("h2").First().Text())
	}

	typeLabel, typeSpecific := p.extractDefinitions(doc, rec)

	tag, ok := registry.ClassifyBusinessType(typeLabel)
	if !ok {
		return nil, fmt.Errorf("%w: business type %q", registry.ErrParseMismatch, typeLabel)
	}
	rec.Type = tag
	applyTypeSpecific(rec, typeSpecific)

	p.extractApplicant(doc, rec)
	p.extractFilingHistory(doc, rec)

	rec.FilingDate = toISODate(rec.FilingDate)
	rec.RenewalDueDate = toISODate(rec.RenewalDueDate)

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// extractDefinitions walks the dt/dd pairs, filling common fields and
// address blocks, and returns the raw business-type label plus the
// type-specific values for later variant-checked assignment.
func (p *Parser) extractDefinitions(doc *goquery.Document, rec *registry.BusinessRecord) (string, map[string]string) {
	var typeLabel string
	typeSpecific := make(map[string]string)

	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		label := strings.ToLower(cleanText(dt.Text()))
		dd := dt.Next()
		if !dd.Is("dd") {
			return
		}
		value := cleanBlock(dd.Text())
		if label == "" || value == "" {
			return
		}

		switch {
		case strings.Contains(label, "principal place of business") && strings.Contains(label, "address"):
			rec.Principal = address.Parse(value)
		case strings.Contains(label, "principal executive office") && strings.Contains(label, "address"):
			rec.ExecutiveOffice = address.Parse(value)
		case strings.Contains(label, "registered office") && strings.Contains(label, "address"):
			rec.RegisteredOffice = address.Parse(value)
		case strings.Contains(label, "business type"):
			if typeLabel == "" {
				typeLabel = value
			}
		case strings.Contains(label, "mark type"):
			setIfEmpty(typeSpecific, "mark_type", value)
		case strings.Contains(label, "number of shares"):
			setIfEmpty(typeSpecific, "number_of_shares", value)
		case strings.Contains(label, "chief executive officer"):
			setIfEmpty(typeSpecific, "chief_executive_officer", value)
		case strings.Contains(label, "manager"):
			setIfEmpty(typeSpecific, "manager", value)
		default:
			for _, f := range labelFields {
				if strings.Contains(label, f.key) {
					f.set(rec, value)
					break
				}
			}
		}
	})
	return typeLabel, typeSpecific
}

// applyTypeSpecific assigns variant fields only where the classified tag
// allows them; values scraped off mislabeled pages are dropped rather than
// smeared across variants.
func applyTypeSpecific(rec *registry.BusinessRecord, fields map[string]string) {
	switch rec.Type {
	case registry.TypeTrademark, registry.TypeServiceMark:
		rec.MarkType = fields["mark_type"]
	case registry.TypeCorporationDomestic, registry.TypeCorporationForeign:
		rec.NumberOfShares = fields["number_of_shares"]
		rec.ChiefExecutiveOfficer = fields["chief_executive_officer"]
	case registry.TypeLLCDomestic, registry.TypeLLCForeign:
		rec.Manager = fields["manager"]
	}
}

func (p *Parser) extractApplicant(doc *goquery.Document, rec *registry.BusinessRecord) {
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if !tableHasHeader(table, "applicant") && !tableHasHeader(table, "markholder") {
			return true
		}
		cells := table.Find("tbody tr").First().Find("td")
		if cells.Length() >= 2 {
			name := cleanText(cells.Eq(0).Text())
			raw := cleanBlock(cells.Eq(1).Text())
			rec.Applicant = address.Parse(raw)
			rec.Applicant.ContactName = name
		}
		return false
	})
}

func (p *Parser) extractFilingHistory(doc *goquery.Document, rec *registry.BusinessRecord) {
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if !tableHasHeader(table, "filing") || tableHasHeader(table, "applicant") {
			return true
		}
		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			if len(rec.FilingHistory) >= maxFilingHistory {
				return
			}
			var cells []string
			row.Find("td").Each(func(_ int, cell *goquery.Selection) {
				if text := cleanText(cell.Text()); text != "" {
					cells = append(cells, text)
				}
			})
			if len(cells) > 0 {
				rec.FilingHistory = append(rec.FilingHistory, strings.Join(cells, " | "))
			}
		})
		return false
	})
}

func tableHasHeader(table *goquery.Selection, substr string) bool {
	found := false
	table.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(th.Text()), substr) {
			found = true
			return false
		}
		return true
	})
	return found
}

// cleanText collapses a single-line value to normalized whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanBlock preserves line breaks (address blocks depend on them) while
// trimming each line.
func cleanBlock(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
