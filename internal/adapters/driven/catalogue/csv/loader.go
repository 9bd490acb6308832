// Package csv reads the stylized fact catalogue from per-section CSV files
// and writes assessment results back into them.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
	"github.com/custodia-labs/litreview/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.CatalogueSource = (*Loader)(nil)

// Column names used by the catalogue files.
const (
	NumberColumn       = "Number"
	DefaultClaimColumn = "DEB Stylized Fact"
)

// Loader reads every *.csv file in a directory as one catalogue section.
type Loader struct {
	dir         string
	claimColumn string

	mu    sync.RWMutex
	files map[int]string // fact number -> file path, filled by LoadFacts
}

// Option configures a Loader.
type Option func(*Loader)

// WithClaimColumn sets the header of the column holding the claim text.
func WithClaimColumn(name string) Option {
	return func(l *Loader) {
		if name != "" {
			l.claimColumn = name
		}
	}
}

// NewLoader creates a catalogue loader for dir.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{
		dir:         dir,
		claimColumn: DefaultClaimColumn,
		files:       make(map[int]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the catalogue directory.
func (l *Loader) Dir() string {
	return l.dir
}

// LoadFacts reads all catalogue files in name order and returns the facts sorted by number.
func (l *Loader) LoadFacts(ctx context.Context) ([]domain.Fact, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list catalogue files: %w", err)
	}
	sort.Strings(paths)

	var facts []domain.Fact
	files := make(map[int]string)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := l.loadFile(path)
		if err != nil {
			return nil, err
		}
		for _, f := range loaded {
			if prev, ok := files[f.Number]; ok {
				return nil, fmt.Errorf("fact %d in %s and %s: %w",
					f.Number, filepath.Base(prev), f.SourceFile, domain.ErrDuplicateFact)
			}
			files[f.Number] = path
		}
		logger.Debug("Loaded %d facts from %s", len(loaded), filepath.Base(path))
		facts = append(facts, loaded...)
	}

	if len(facts) == 0 {
		return nil, fmt.Errorf("load catalogue from %s: %w", l.dir, domain.ErrCatalogueEmpty)
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].Number < facts[j].Number })

	l.mu.Lock()
	l.files = files
	l.mu.Unlock()

	logger.Info("Loaded %d facts from %d catalogue files", len(facts), len(paths))
	return facts, nil
}

// fileFor returns the catalogue file holding fact n, if LoadFacts has seen it.
func (l *Loader) fileFor(n int) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	path, ok := l.files[n]
	return path, ok
}

func (l *Loader) loadFile(path string) ([]domain.Fact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	numCol := columnIndex(header, NumberColumn)
	claimCol := columnIndex(header, l.claimColumn)
	if numCol < 0 || claimCol < 0 {
		return nil, fmt.Errorf("%s: missing %q or %q column: %w",
			filepath.Base(path), NumberColumn, l.claimColumn, domain.ErrInvalidInput)
	}

	name := filepath.Base(path)
	section := SectionName(strings.TrimSuffix(name, filepath.Ext(name)))

	var facts []domain.Fact
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if numCol >= len(record) || strings.TrimSpace(record[numCol]) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(record[numCol]))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: bad fact number %q: %w",
				name, line, record[numCol], domain.ErrInvalidInput)
		}
		var text string
		if claimCol < len(record) {
			text = strings.TrimSpace(record[claimCol])
		}
		facts = append(facts, domain.Fact{
			Number:     n,
			Text:       text,
			Section:    section,
			SourceFile: name,
		})
	}
	return facts, nil
}

// SectionName turns a file stem such as "energy_budget" into "Energy Budget".
func SectionName(stem string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(stem, "_", " "))
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		// Excel writes a BOM before the first header.
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == name {
			return i
		}
	}
	return -1
}
