package domain

// Answer is a synthesized response to a question over indexed pages.
type Answer struct {
	Question string       `json:"question"`
	Text     string       `json:"answer"`
	Sources  []QueryMatch `json:"sources"`

	// Model is the LLM that produced Text, empty when no LLM was used.
	Model string `json:"model,omitempty"`
}
