// Package latex imports a stylized fact catalogue from a LaTeX table document.
//
// Facts are read from table rows of the form "N & claim & & & \\" and grouped
// under the most recent \section{...} header. WriteCSV turns the result into the
// per-section CSV files read by the csv catalogue loader.
package latex

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/logger"
)

var (
	sectionPattern = regexp.MustCompile(`\\section\{([^}]+)\}`)
	factPattern    = regexp.MustCompile(`(\d+)\s+&\s+([^&]+?)&\s+&\s+&\s+\\\\`)

	unsafeChars = regexp.MustCompile(`[^\w\s-]`)
	separators  = regexp.MustCompile(`[-\s]+`)
)

// CSVHeader is the header written to each generated catalogue file.
var CSVHeader = []string{"Number", "DEB Stylized Fact", "Accuracy", "I have an explanation", "Importance"}

// Section is one \section of the source document and the facts listed under it.
type Section struct {
	Name  string
	Facts []domain.Fact
}

// Parse reads sections and fact rows from r.
// Rows before the first section header are ignored. A repeated section
// name continues the earlier section.
func Parse(r io.Reader) ([]Section, error) {
	var (
		sections []Section
		index    = make(map[string]int)
		current  = -1
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := sectionPattern.FindStringSubmatch(line); m != nil {
			name := m[1]
			i, ok := index[name]
			if !ok {
				sections = append(sections, Section{Name: name})
				i = len(sections) - 1
				index[name] = i
			}
			current = i
			continue
		}
		if current < 0 {
			continue
		}

		m := factPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("parse fact number %q: %w", m[1], domain.ErrInvalidInput)
		}
		sections[current].Facts = append(sections[current].Facts, domain.Fact{
			Number:  n,
			Text:    strings.TrimSpace(m[2]),
			Section: sections[current].Name,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read latex source: %w", err)
	}
	return sections, nil
}

// ParseFile parses the LaTeX document at path.
func ParseFile(path string) ([]Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// FileName converts a section name into a catalogue file stem,
// e.g. "Growth & Reproduction" becomes "growth_reproduction".
func FileName(section string) string {
	name := unsafeChars.ReplaceAllString(section, "")
	name = separators.ReplaceAllString(name, "_")
	return strings.ToLower(name)
}

// WriteCSV writes one CSV file per non-empty section into dir and returns the paths written.
func WriteCSV(dir string, sections []Section) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create catalogue dir: %w", err)
	}

	var written []string
	for _, s := range sections {
		if len(s.Facts) == 0 {
			continue
		}
		path := filepath.Join(dir, FileName(s.Name)+".csv")
		if err := writeSection(path, s); err != nil {
			return written, err
		}
		logger.Info("Created %s (%d facts)", filepath.Base(path), len(s.Facts))
		written = append(written, path)
	}
	return written, nil
}

func writeSection(path string, s Section) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	records := make([][]string, 0, len(s.Facts)+1)
	records = append(records, CSVHeader)
	for _, fact := range s.Facts {
		records = append(records, []string{strconv.Itoa(fact.Number), fact.Text, "", "", ""})
	}
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// CountFacts returns the total number of facts across sections.
func CountFacts(sections []Section) int {
	n := 0
	for _, s := range sections {
		n += len(s.Facts)
	}
	return n
}
