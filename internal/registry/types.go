// Package registry defines core types shared across subsystems.
package registry

import (
	"fmt"
	"time"
)

// BusinessType is the closed set of entity classifications the portal uses.
type BusinessType string

// Business type tags recognized by the record parser.
const (
	TypeAssumedName         BusinessType = "Assumed Name"
	TypeTrademark           BusinessType = "Trademark"
	TypeServiceMark         BusinessType = "Trademark - Service Mark"
	TypeCorporationDomestic BusinessType = "Business Corporation (Domestic)"
	TypeCorporationForeign  BusinessType = "Business Corporation (Foreign)"
	TypeLLCDomestic         BusinessType = "Limited Liability Company (Domestic)"
	TypeLLCForeign          BusinessType = "Limited Liability Company (Foreign)"
	TypeLimitedPartnership  BusinessType = "Limited Partnership"
	TypeNonprofit           BusinessType = "Nonprofit Corporation"
	TypeCooperative         BusinessType = "Cooperative"
)

// AddressRole identifies the function of an address block within a record.
type AddressRole string

// Address roles extracted from a detail page.
const (
	RolePrincipal        AddressRole = "principal"
	RoleRegisteredOffice AddressRole = "registered_office"
	RoleExecutiveOffice  AddressRole = "executive_office"
	RoleApplicant        AddressRole = "applicant"
)

// AddressComponents holds the decomposed parts of a postal address.
// Raw always carries the original string verbatim; structured fields are
// empty whenever they could not be extracted with confidence.
type AddressComponents struct {
	StreetNumber    string
	StreetName      string
	StreetType      string
	StreetDirection string
	Unit            string
	City            string
	State           string
	Zip             string
	Raw             string
	// ContactName is populated for applicant/markholder blocks only.
	ContactName string
}

// Empty reports whether the block carries no data at all, raw included.
func (a AddressComponents) Empty() bool {
	return a == AddressComponents{}
}

// BusinessRecord is one scraped business filing. FileNumber is the unique
// key in the canonical dataset; every other field is optional.
type BusinessRecord struct {
	FileNumber       int64
	BusinessName     string
	Statute          string
	Type             BusinessType
	HomeJurisdiction string
	FilingDate       string
	Status           string
	RenewalDueDate   string

	// Type-specific fields. Which of these may be set is determined by
	// Type; Validate enforces the variant.
	MarkType              string
	NumberOfShares        string
	ChiefExecutiveOfficer string
	Manager               string

	Principal        AddressComponents
	RegisteredOffice AddressComponents
	ExecutiveOffice  AddressComponents
	Applicant        AddressComponents

	RegisteredAgentName string
	FilingHistory       []string
	ScrapedAt           time.Time
}

// Validate checks the type-specific fields against the record's variant.
func (r *BusinessRecord) Validate() error {
	if r.FileNumber <= 0 {
		return fmt.Errorf("%w: file number must be positive", ErrInvalidRecord)
	}
	if r.Type != "" && !KnownBusinessType(r.Type) {
		return fmt.Errorf("%w: unknown business type %q", ErrInvalidRecord, r.Type)
	}
	if r.MarkType != "" && r.Type != TypeTrademark && r.Type != TypeServiceMark {
		return fmt.Errorf("%w: mark type set on %q", ErrInvalidRecord, r.Type)
	}
	if (r.NumberOfShares != "" || r.ChiefExecutiveOfficer != "") &&
		r.Type != TypeCorporationDomestic && r.Type != TypeCorporationForeign {
		return fmt.Errorf("%w: corporation fields set on %q", ErrInvalidRecord, r.Type)
	}
	if r.Manager != "" && r.Type != TypeLLCDomestic && r.Type != TypeLLCForeign {
		return fmt.Errorf("%w: manager set on %q", ErrInvalidRecord, r.Type)
	}
	return nil
}

// KnownBusinessType reports whether t is one of the closed set of tags.
func KnownBusinessType(t BusinessType) bool {
	switch t {
	case TypeAssumedName, TypeTrademark, TypeServiceMark,
		TypeCorporationDomestic, TypeCorporationForeign,
		TypeLLCDomestic, TypeLLCForeign,
		TypeLimitedPartnership, TypeNonprofit, TypeCooperative:
		return true
	}
	return false
}

// Shard is a contiguous, exclusive sub-range of the file-number space
// assigned to exactly one coordinator.
type Shard struct {
	ID    int
	Start int64
	End   int64
}

// Size returns the number of ids covered by the shard.
func (s Shard) Size() int64 {
	return s.End - s.Start + 1
}

// Checkpoint is the durable resume position for one shard. LastProcessedID
// is monotonically non-decreasing and is only advanced after the
// corresponding output row, if any, is durably written.
type Checkpoint struct {
	ShardID           int       `json:"shard_id"`
	LastProcessedID   int64     `json:"last_processed_id"`
	ConsecutiveMisses int       `json:"consecutive_misses"`
	UpdatedAt         time.Time `json:"updated_at"`
}
