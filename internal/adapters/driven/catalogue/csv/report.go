package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
	"github.com/custodia-labs/litreview/internal/logger"
)

// Ensure Report implements the interface.
var _ driven.ReportSink = (*Report)(nil)

// Assessment columns appended to each catalogue file.
const (
	ScoreColumn      = "Literature Support Score (1-100)"
	PapersColumn     = "Number of Papers Reviewed"
	SupportingColumn = "Supporting Papers"
	EvidenceColumn   = "Key Evidence Summary"
	ConfidenceColumn = "Assessment Confidence"
	UpdatedColumn    = "Last Updated"
)

// AssessmentColumns lists the report columns in the order they are appended.
var AssessmentColumns = []string{
	ScoreColumn,
	PapersColumn,
	SupportingColumn,
	EvidenceColumn,
	ConfidenceColumn,
	UpdatedColumn,
}

const timestampLayout = "2006-01-02 15:04:05"

// Report writes assessments into the catalogue file that holds each fact.
// The fact-to-file map comes from the loader, so only the owning file is read and rewritten.
type Report struct {
	loader *Loader
	mu     sync.Mutex
	now    func() time.Time
}

// NewReport creates a report over the files read by loader.
func NewReport(loader *Loader) *Report {
	return &Report{loader: loader, now: time.Now}
}

// UpdateFact fills the assessment columns of the row for a.FactNumber.
func (r *Report) UpdateFact(ctx context.Context, a *domain.Assessment) error {
	if a == nil {
		return fmt.Errorf("update report: nil assessment: %w", domain.ErrInvalidInput)
	}

	path, ok := r.loader.fileFor(a.FactNumber)
	if !ok {
		// The loader has not run in this process yet.
		if _, err := r.loader.LoadFacts(ctx); err != nil {
			return fmt.Errorf("index catalogue: %w", err)
		}
		if path, ok = r.loader.fileFor(a.FactNumber); !ok {
			return fmt.Errorf("fact %d: %w", a.FactNumber, domain.ErrNotFound)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := readAll(path)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("fact %d in %s: %w", a.FactNumber, filepath.Base(path), domain.ErrNotFound)
	}

	header := ensureColumns(records[0])
	records[0] = header

	numCol := columnIndex(header, NumberColumn)
	row := findRow(records[1:], numCol, a.FactNumber)
	if row < 0 {
		return fmt.Errorf("fact %d in %s: %w", a.FactNumber, filepath.Base(path), domain.ErrNotFound)
	}
	for i := range records {
		records[i] = pad(records[i], len(header))
	}
	record := records[row+1]

	updated := a.CreatedAt
	if updated.IsZero() {
		updated = r.now()
	}
	values := map[string]string{
		ScoreColumn:      strconv.Itoa(a.Verdict.Score),
		PapersColumn:     strconv.Itoa(a.Diagnostics.RetrievedChunks),
		SupportingColumn: strings.Join(a.Verdict.SupportingPapers, ", "),
		EvidenceColumn:   a.Verdict.KeyEvidence,
		ConfidenceColumn: a.Verdict.Confidence.String(),
		UpdatedColumn:    updated.Local().Format(timestampLayout),
	}
	for col, v := range values {
		record[columnIndex(header, col)] = v
	}

	if err := writeAll(path, records); err != nil {
		return err
	}
	logger.Debug("Updated %s with fact #%d", filepath.Base(path), a.FactNumber)
	return nil
}

// ensureColumns appends any missing assessment column to header.
func ensureColumns(header []string) []string {
	for _, col := range AssessmentColumns {
		if columnIndex(header, col) < 0 {
			header = append(header, col)
		}
	}
	return header
}

func findRow(rows [][]string, numCol, n int) int {
	if numCol < 0 {
		return -1
	}
	for i, rec := range rows {
		if numCol >= len(rec) {
			continue
		}
		if v, err := strconv.Atoi(strings.TrimSpace(rec[numCol])); err == nil && v == n {
			return i
		}
	}
	return -1
}

func pad(record []string, n int) []string {
	for len(record) < n {
		record = append(record, "")
	}
	return record
}

func readAll(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

// writeAll replaces path through a temp file in the same directory,
// keeping the permissions of the file it replaces.
func writeAll(path string, records [][]string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.csv")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp report: %w", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(records); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
