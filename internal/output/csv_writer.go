// Package output appends validated records to shard-local CSV datasets.
package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mnbizdata/filings-crawler/internal/registry"
)

// ShardFileName returns the output file name for one worker shard.
func ShardFileName(shardID int) string {
	return fmt.Sprintf("businesses_worker_%d.csv", shardID)
}

// CSVWriter appends rows in the fixed registry schema. Every append is
// flushed and fsynced before returning: the coordinator persists its
// checkpoint only after Append returns, so a checkpoint can never point
// past unsaved data.
type CSVWriter struct {
	file *os.File
	w    *csv.Writer
	path string
}

// NewCSVWriter opens (or creates) the dataset at path, writing the header
// row only when the file is new or empty.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	cw := &CSVWriter{file: file, w: csv.NewWriter(file), path: path}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat output file: %w", err)
	}
	if info.Size() == 0 {
		if err := cw.writeRow(registry.Columns); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	return cw, nil
}

// Append validates rec and durably writes its row.
func (cw *CSVWriter) Append(_ context.Context, rec *registry.BusinessRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if err := cw.writeRow(rec.Row()); err != nil {
		return fmt.Errorf("append record %d: %w", rec.FileNumber, err)
	}
	return nil
}

func (cw *CSVWriter) writeRow(row []string) error {
	if err := cw.w.Write(row); err != nil {
		return err
	}
	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		return err
	}
	return cw.file.Sync()
}

// Path returns the location of the shard dataset.
func (cw *CSVWriter) Path() string {
	return cw.path
}

// Close flushes and closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		_ = cw.file.Close()
		return err
	}
	return cw.file.Close()
}
