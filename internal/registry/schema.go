package registry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// historySeparator joins filing-history events inside one CSV cell.
const historySeparator = " ;; "

// Columns is the fixed shard-output row schema. Every shard output and the
// canonical dataset share this exact column set and order, which is what
// makes the merge pass possible.
var Columns = []string{
	"file_number",
	"business_name",
	"mn_statute",
	"business_type",
	"home_jurisdiction",
	"filing_date",
	"status",
	"renewal_due_date",

	"mark_type",
	"number_of_shares",
	"chief_executive_officer",
	"manager",

	"principal_street_number",
	"principal_street_name",
	"principal_street_type",
	"principal_street_direction",
	"principal_unit",
	"principal_city",
	"principal_state",
	"principal_zip",
	"principal_address_raw",

	"reg_office_street_number",
	"reg_office_street_name",
	"reg_office_street_type",
	"reg_office_street_direction",
	"reg_office_unit",
	"reg_office_city",
	"reg_office_state",
	"reg_office_zip",
	"reg_office_address_raw",

	"exec_office_street_number",
	"exec_office_street_name",
	"exec_office_street_type",
	"exec_office_street_direction",
	"exec_office_unit",
	"exec_office_city",
	"exec_office_state",
	"exec_office_zip",
	"exec_office_address_raw",

	"applicant_name",
	"applicant_street_number",
	"applicant_street_name",
	"applicant_street_type",
	"applicant_street_direction",
	"applicant_unit",
	"applicant_city",
	"applicant_state",
	"applicant_zip",
	"applicant_address_raw",

	"registered_agent_name",
	"filing_history",
	"scraped_at",
}

// Row flattens the record into the fixed column order of Columns.
func (r *BusinessRecord) Row() []string {
	row := make([]string, 0, len(Columns))
	row = append(row,
		strconv.FormatInt(r.FileNumber, 10),
		r.BusinessName,
		r.Statute,
		string(r.Type),
		r.HomeJurisdiction,
		r.FilingDate,
		r.Status,
		r.RenewalDueDate,
		r.MarkType,
		r.NumberOfShares,
		r.ChiefExecutiveOfficer,
		r.Manager,
	)
	row = appendAddress(row, r.Principal, false)
	row = appendAddress(row, r.RegisteredOffice, false)
	row = appendAddress(row, r.ExecutiveOffice, false)
	row = appendAddress(row, r.Applicant, true)
	row = append(row,
		r.RegisteredAgentName,
		strings.Join(r.FilingHistory, historySeparator),
		r.ScrapedAt.UTC().Format(time.RFC3339),
	)
	return row
}

func appendAddress(row []string, a AddressComponents, withContact bool) []string {
	if withContact {
		row = append(row, a.ContactName)
	}
	return append(row,
		a.StreetNumber,
		a.StreetName,
		a.StreetType,
		a.StreetDirection,
		a.Unit,
		a.City,
		a.State,
		a.Zip,
		a.Raw,
	)
}

// RecordFromRow is the inverse of Row, used by the merge pass.
func RecordFromRow(row []string) (*BusinessRecord, error) {
	if len(row) != len(Columns) {
		return nil, fmt.Errorf("row has %d fields, schema has %d", len(row), len(Columns))
	}
	fileNumber, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse file_number %q: %w", row[0], err)
	}

	rec := &BusinessRecord{
		FileNumber:            fileNumber,
		BusinessName:          row[1],
		Statute:               row[2],
		Type:                  BusinessType(row[3]),
		HomeJurisdiction:      row[4],
		FilingDate:            row[5],
		Status:                row[6],
		RenewalDueDate:        row[7],
		MarkType:              row[8],
		NumberOfShares:        row[9],
		ChiefExecutiveOfficer: row[10],
		Manager:               row[11],
		Principal:             addressFromRow(row[12:21], ""),
		RegisteredOffice:      addressFromRow(row[21:30], ""),
		ExecutiveOffice:       addressFromRow(row[30:39], ""),
		Applicant:             addressFromRow(row[40:49], row[39]),
		RegisteredAgentName:   row[49],
	}
	if row[50] != "" {
		rec.FilingHistory = strings.Split(row[50], historySeparator)
	}
	rec.ScrapedAt, err = parseScrapedAt(row[51])
	if err != nil {
		return nil, fmt.Errorf("parse scraped_at %q: %w", row[51], err)
	}
	return rec, nil
}

func addressFromRow(fields []string, contact string) AddressComponents {
	return AddressComponents{
		StreetNumber:    fields[0],
		StreetName:      fields[1],
		StreetType:      fields[2],
		StreetDirection: fields[3],
		Unit:            fields[4],
		City:            fields[5],
		State:           fields[6],
		Zip:             fields[7],
		Raw:             fields[8],
		ContactName:     contact,
	}
}

func parseScrapedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	// Older datasets carried a bare date.
	return time.Parse("2006-01-02", s)
}
