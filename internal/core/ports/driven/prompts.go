package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswerSystem is the grounded-answer system prompt.
	// Placeholders, in order: %[1]s context, %[2]s don't-know phrase,
	// %[3]d sentence limit, %[4]s closing phrase.
	PromptAnswerSystem = "answer_system"

	// PromptCondenseQuestion rewrites a follow-up into a standalone question.
	// Placeholders: %[1]s serialized history, %[2]s follow-up question.
	PromptCondenseQuestion = "condense_question"
)
