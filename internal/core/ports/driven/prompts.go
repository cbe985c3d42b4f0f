package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAskSystem is the system prompt used when answering questions
	// from retrieved passages. It has no format placeholders.
	PromptAskSystem = "ask_system"
)

// PromptStoreAware is implemented by services whose prompts can be
// replaced after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store. Without one, built-in
	// prompts are used.
	SetPromptStore(store PromptStore)
}
