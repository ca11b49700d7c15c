package ingest

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tallyhq/tally/internal/table"
)

// Source is one file handed to the pipeline.
type Source struct {
	Filename string
	Data     []byte
	Password string // only used for encrypted spreadsheets
}

// Normalized is a successfully normalized source.
type Normalized struct {
	Detection
	Batch
}

// Pipeline reads a source, picks a normalizer and runs it. It never
// touches the ledger.
type Pipeline struct {
	registry *Registry
}

// NewPipeline creates a Pipeline over registry.
func NewPipeline(registry *Registry) *Pipeline {
	return &Pipeline{registry: registry}
}

// Normalize classifies src and maps it to canonical records. Failures are
// returned as *Error with one of the Err* kinds.
func (p *Pipeline) Normalize(src Source) (*Normalized, error) {
	name := filepath.Base(src.Filename)
	container, ok := ContainerFor(name)
	if !ok {
		return nil, fail(ErrUnsupportedFormat, name, fmt.Errorf("extension %q is not .csv, .xlsx or .xls", filepath.Ext(name)))
	}

	det := Detection{Container: container}
	var tbl *table.Table

	switch container {
	case ContainerDelimited:
		t, err := table.ReadDelimited(src.Data)
		if err != nil {
			return nil, fail(ErrParseFailure, name, err)
		}
		tbl = t

	case ContainerSpreadsheet:
		grid, encrypted, err := readWorkbook(name, src)
		det.Encrypted = encrypted
		if err != nil {
			return nil, err
		}
		det.HeaderRow, _ = HeaderRow(grid)
		tbl = table.FromGrid(grid, det.HeaderRow)
	}

	if len(tbl.Columns) == 0 {
		return nil, fail(ErrEmptyResult, name, errors.New("no header row"))
	}

	n := p.registry.Detect(tbl)
	if n == nil {
		return nil, fail(ErrUnsupportedFormat, name, fmt.Errorf("no normalizer matches columns %q", tbl.Columns))
	}
	det.Format = n.Format()

	batch, err := n.Normalize(tbl)
	if err != nil {
		return nil, fail(ErrParseFailure, name, err)
	}
	if len(batch.Records) == 0 {
		return nil, fail(ErrEmptyResult, name, fmt.Errorf("%d of %d rows unusable", batch.Skipped, tbl.Len()))
	}

	return &Normalized{Detection: det, Batch: batch}, nil
}

// readWorkbook returns the first sheet of src. Encrypted workbooks are
// tried with an empty password first, then with src.Password.
func readWorkbook(name string, src Source) (grid [][]string, encrypted bool, err error) {
	if !table.IsEncrypted(src.Data) {
		grid, err := table.ReadSpreadsheet(src.Data, "")
		if err != nil {
			return nil, false, fail(ErrParseFailure, name, err)
		}
		return grid, false, nil
	}

	if table.IsLegacyWorkbook(src.Data) {
		return nil, false, fail(ErrParseFailure, name, errors.New("legacy binary workbooks are not supported; save as .xlsx or CSV"))
	}

	passwords := []string{""}
	if src.Password != "" {
		passwords = append(passwords, src.Password)
	}
	var lastErr error
	for _, pw := range passwords {
		grid, err := table.ReadSpreadsheet(src.Data, pw)
		if err == nil {
			return grid, true, nil
		}
		lastErr = err
	}
	if src.Password == "" {
		lastErr = errors.New("no password supplied")
	}
	return nil, true, fail(ErrUnsupportedEncryption, name, lastErr)
}
