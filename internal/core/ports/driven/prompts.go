package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the embedded default
	// or an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptAssessmentSystem is the judge's system prompt.
	// This prompt has no format placeholders.
	PromptAssessmentSystem = "assessment_system"

	// PromptAssessmentUser frames one fact and its literature excerpts.
	// The template expects %d (fact number), %s (fact text) and %s (context) placeholders.
	PromptAssessmentUser = "assessment_user"
)
