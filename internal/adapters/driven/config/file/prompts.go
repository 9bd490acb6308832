package file

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed prompts_readme.md
var promptsReadme string

// promptSpec is a built-in prompt and, for templates, the fmt verbs a
// customised copy must keep. A nil verbs list means the text is used as is.
type promptSpec struct {
	text  string
	verbs []string
}

var builtinPrompts = map[string]promptSpec{
	driven.PromptAssessmentSystem: {text: domain.DefaultAssessmentSystemPrompt},
	driven.PromptAssessmentUser:   {text: domain.DefaultAssessmentUserPrompt, verbs: []string{"%d", "%s", "%s"}},
}

// fmtVerb matches a single fmt verb, skipping escaped percent signs.
var fmtVerb = regexp.MustCompile(`%%|%[-+# 0]*[0-9]*(?:\.[0-9]+)?[a-zA-Z]`)

// PromptStore serves judge prompts from <dir>/<name>.txt. The directory is
// seeded with the built-in prompts on first use so users have something to
// edit; nothing touches the disk before that.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore returns a store rooted at dir, or ~/.litreview/prompts when
// dir is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".litreview", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the prompt called name. A missing file yields the built-in
// prompt; a file whose fmt verbs differ from the built-in one is rejected
// with ErrInvalidInput.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := builtinPrompts[name]

	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		if known {
			return builtin.text, nil
		}
		return "", s.seedErr
	}

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	data, err := os.ReadFile(s.path(name))
	switch {
	case errors.Is(err, fs.ErrNotExist) && known:
		return builtin.text, nil
	case err != nil:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	text := strings.TrimSpace(string(data))
	if known && builtin.verbs != nil {
		if err := checkVerbs(text, builtin.verbs); err != nil {
			return "", fmt.Errorf("%w: prompt %q: %w", domain.ErrInvalidInput, name, err)
		}
	}

	s.mu.Lock()
	s.cache[name] = text
	s.mu.Unlock()
	return text, nil
}

// Reload drops cached prompts so edits are picked up.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// seed creates the directory and writes any built-in prompt or README that
// is not there yet. Existing files are never overwritten.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	files := map[string]string{"README.md": promptsReadme}
	for name, p := range builtinPrompts {
		files[name+".txt"] = p.text
	}
	for file, content := range files {
		if err := writeIfMissing(filepath.Join(s.dir, file), content); err != nil {
			s.seedErr = fmt.Errorf("seed %s: %w", file, err)
			return
		}
	}
}

func writeIfMissing(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// checkVerbs reports whether text uses exactly the wanted verbs, in order.
func checkVerbs(text string, want []string) error {
	var got []string
	for _, v := range fmtVerb.FindAllString(text, -1) {
		if v != "%%" {
			got = append(got, v)
		}
	}
	if slices.Equal(got, want) {
		return nil
	}
	return fmt.Errorf("placeholders %v, want %v", got, want)
}
