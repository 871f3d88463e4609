// Package merge consolidates shard outputs into a canonical deduplicated
// dataset and derives filtered views from it.
package merge

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/mnbizdata/filings-crawler/internal/registry"
)

// Canonical dataset file names.
const (
	MergedFileName = "businesses_merged.csv"
	AllFileName    = "businesses_all.csv"
)

// Options controls which inputs a merge consumes.
type Options struct {
	// Dir is the directory holding the shard outputs.
	Dir string
	// IncludeAll also folds in a pre-existing businesses.csv dataset, and
	// names the result businesses_all.csv instead of businesses_merged.csv.
	IncludeAll bool
}

// Result reports what a merge pass produced.
type Result struct {
	OutputPath string
	Inputs     []string
	RowsRead   int
	Records    int
	Duplicates int
	BadRows    int
}

// Merger deduplicates shard outputs by file number.
type Merger struct {
	logger *zap.Logger
}

// New constructs a Merger.
func New(logger *zap.Logger) *Merger {
	return &Merger{logger: logger}
}

// Run merges all shard outputs in opts.Dir into one canonical dataset
// sorted by file number. When the same file number appears more than once
// the row with the latest scraped_at wins; on a tie the later input wins.
// Inputs are read in sorted filename order so the result is deterministic.
func (m *Merger) Run(opts Options) (Result, error) {
	inputs, err := collectInputs(opts)
	if err != nil {
		return Result{}, err
	}
	if len(inputs) == 0 {
		return Result{}, fmt.Errorf("no shard outputs found in %s", opts.Dir)
	}

	res := Result{Inputs: inputs}
	byFileNumber := make(map[int64]*registry.BusinessRecord)

	for _, path := range inputs {
		if err := m.readFile(path, byFileNumber, &res); err != nil {
			return Result{}, err
		}
	}

	records := make([]*registry.BusinessRecord, 0, len(byFileNumber))
	for _, rec := range byFileNumber {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].FileNumber < records[j].FileNumber
	})
	res.Records = len(records)
	res.Duplicates = res.RowsRead - res.BadRows - res.Records

	name := MergedFileName
	if opts.IncludeAll {
		name = AllFileName
	}
	res.OutputPath = filepath.Join(opts.Dir, name)
	if err := WriteDataset(res.OutputPath, records); err != nil {
		return Result{}, err
	}

	m.logger.Info("Merge complete",
		zap.Int("inputs", len(inputs)),
		zap.Int("rows_read", res.RowsRead),
		zap.Int("records", res.Records),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("bad_rows", res.BadRows),
		zap.String("output", res.OutputPath),
	)
	return res, nil
}

func collectInputs(opts Options) ([]string, error) {
	inputs, err := filepath.Glob(filepath.Join(opts.Dir, "businesses_worker_*.csv"))
	if err != nil {
		return nil, fmt.Errorf("glob shard outputs: %w", err)
	}
	sort.Strings(inputs)

	if opts.IncludeAll {
		existing := filepath.Join(opts.Dir, "businesses.csv")
		if _, err := os.Stat(existing); err == nil {
			// The historical dataset goes first so fresher shard rows win ties.
			inputs = append([]string{existing}, inputs...)
		}
	}
	return inputs, nil
}

func (m *Merger) readFile(path string, byFileNumber map[int64]*registry.BusinessRecord, res *Result) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if header {
			header = false
			continue
		}
		res.RowsRead++

		rec, err := registry.RecordFromRow(row)
		if err != nil {
			res.BadRows++
			m.logger.Warn("Skipping malformed row", zap.String("file", path), zap.Error(err))
			continue
		}
		prev, ok := byFileNumber[rec.FileNumber]
		if !ok || !rec.ScrapedAt.Before(prev.ScrapedAt) {
			byFileNumber[rec.FileNumber] = rec
		}
	}
}

// WriteDataset writes records to path in the canonical schema.
func WriteDataset(path string, records []*registry.BusinessRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(registry.Columns); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.Row()); err != nil {
			_ = f.Close()
			return fmt.Errorf("write record %d: %w", rec.FileNumber, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// ReadDataset loads a canonical dataset from path.
func ReadDataset(path string) ([]*registry.BusinessRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	var records []*registry.BusinessRecord
	header := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if header {
			header = false
			continue
		}
		rec, err := registry.RecordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		records = append(records, rec)
	}
}
