package merge

import (
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/mnbizdata/filings-crawler/internal/parser"
	"github.com/mnbizdata/filings-crawler/internal/registry"
)

// FilterResult reports what a year-filter pass produced. The source dataset
// is never modified.
type FilterResult struct {
	OutputPath string
	TotalRead  int
	Kept       int
	ByType     map[registry.BusinessType]int
	ByStatus   map[string]int
	ByYear     map[int]int
}

// FilterByYear derives a view of the dataset at inputPath keeping only
// records whose filing year is minYear or later. Records without a parseable
// filing year are dropped from the view. The view is written next to the
// input as businesses_since_<year>.csv.
func (m *Merger) FilterByYear(inputPath string, minYear int) (FilterResult, error) {
	if minYear <= 0 {
		return FilterResult{}, fmt.Errorf("minimum year must be positive, got %d", minYear)
	}

	records, err := ReadDataset(inputPath)
	if err != nil {
		return FilterResult{}, err
	}

	res := FilterResult{
		TotalRead: len(records),
		ByType:    make(map[registry.BusinessType]int),
		ByStatus:  make(map[string]int),
		ByYear:    make(map[int]int),
	}

	var kept []*registry.BusinessRecord
	for _, rec := range records {
		year := parser.FilingYear(rec.FilingDate)
		if year < minYear {
			continue
		}
		kept = append(kept, rec)
		res.ByType[rec.Type]++
		res.ByStatus[rec.Status]++
		res.ByYear[year]++
	}
	res.Kept = len(kept)

	res.OutputPath = filepath.Join(filepath.Dir(inputPath), fmt.Sprintf("businesses_since_%d.csv", minYear))
	if err := WriteDataset(res.OutputPath, kept); err != nil {
		return FilterResult{}, err
	}

	m.logger.Info("Filter complete",
		zap.Int("min_year", minYear),
		zap.Int("total_read", res.TotalRead),
		zap.Int("kept", res.Kept),
		zap.String("output", res.OutputPath),
	)
	return res, nil
}

// Years returns the distinct filing years in the result, ascending.
func (r FilterResult) Years() []int {
	years := make([]int, 0, len(r.ByYear))
	for y := range r.ByYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
