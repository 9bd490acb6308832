package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".litreview", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	// Load triggers lazy init
	_, err = store.Load(driven.PromptAssessmentSystem)
	require.NoError(t, err)

	for _, f := range []string{"assessment_system.txt", "assessment_user.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	system, err := store.Load(driven.PromptAssessmentSystem)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(domain.DefaultAssessmentSystemPrompt), system)
	assert.Contains(t, system, "SCORING SCALE (1-100)")

	user, err := store.Load(driven.PromptAssessmentUser)
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(domain.DefaultAssessmentUserPrompt), user)
}

func TestPromptStore_DefaultUserPrompt_FormatsFact(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	tmpl, err := store.Load(driven.PromptAssessmentUser)
	require.NoError(t, err)

	rendered := fmt.Sprintf(tmpl, 12, "Reserve density scales with length", "[Document 1: a.pdf (similarity: 0.812)]\nexcerpt\n")
	assert.Contains(t, rendered, "STYLIZED FACT #12:")
	assert.Contains(t, rendered, `"Reserve density scales with length"`)
	assert.Contains(t, rendered, "excerpt")
	assert.NotContains(t, rendered, "%!")
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()

	customContent := "Fact %d: %s\nEvidence:\n%s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assessment_user.txt"), []byte(customContent), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAssessmentUser)

	require.NoError(t, err)
	assert.Equal(t, customContent, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptAssessmentSystem) // Trigger init
	require.NoError(t, os.Remove(filepath.Join(dir, "assessment_system.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptAssessmentSystem)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAssessmentSystemPrompt, prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptAssessmentSystem)
	require.NoError(t, err)

	modified := "Score strictly."
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assessment_system.txt"), []byte(modified), 0600))

	// Cached until reload.
	cached, err := store.Load(driven.PromptAssessmentSystem)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	reloaded, err := store.Load(driven.PromptAssessmentSystem)
	require.NoError(t, err)
	assert.Equal(t, modified, reloaded)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)

	results := make(chan string, goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptAssessmentUser)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- prompt
		}()
	}
	wg.Wait()
	close(results)

	var first string
	for prompt := range results {
		if first == "" {
			first = prompt
			continue
		}
		assert.Equal(t, first, prompt)
	}
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	customContent := "pre-existing reviewer instructions"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assessment_system.txt"), []byte(customContent), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, _ = store.Load(driven.PromptAssessmentUser)

	data, err := os.ReadFile(filepath.Join(dir, "assessment_system.txt"))
	require.NoError(t, err)
	assert.Equal(t, customContent, string(data))
}

func TestPromptStore_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assessment_system.txt"), []byte("\n\n  prompt content  \n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAssessmentSystem)
	require.NoError(t, err)

	assert.Equal(t, "prompt content", prompt)
}

func TestPromptStore_Load_RejectsBrokenTemplate(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing context", "Fact %d: %s"},
		{"reordered", "%s (fact %d)\n%s"},
		{"extra verb", "Fact %d %s %s %v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "assessment_user.txt"), []byte(tt.content), 0600))
			store, err := NewPromptStore(dir)
			require.NoError(t, err)

			_, err = store.Load(driven.PromptAssessmentUser)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestPromptStore_Load_AllowsEscapedPercent(t *testing.T) {
	dir := t.TempDir()
	content := "Fact %d (top 10%%): %s\n%s"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assessment_user.txt"), []byte(content), 0600))
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	got, err := store.Load(driven.PromptAssessmentUser)

	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestPromptStore_SystemPromptMayContainPercent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assessment_system.txt"), []byte("Give 50% weight to reviews."), 0600))
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	got, err := store.Load(driven.PromptAssessmentSystem)

	require.NoError(t, err)
	assert.Equal(t, "Give 50% weight to reviews.", got)
}

func TestCheckVerbs(t *testing.T) {
	assert.NoError(t, checkVerbs("#%d %s %s", []string{"%d", "%s", "%s"}))
	assert.NoError(t, checkVerbs("100%% sure #%d %s %s", []string{"%d", "%s", "%s"}))
	assert.Error(t, checkVerbs("#%d %q %s", []string{"%d", "%s", "%s"}))
}
