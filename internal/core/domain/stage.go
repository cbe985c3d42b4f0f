package domain

import "fmt"

// Stage identifies one step of the ingestion pipeline.
type Stage string

// Pipeline stages in execution order.
const (
	StageParse Stage = "parse"
	StageEmbed Stage = "embed"
	StageIndex Stage = "index"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageParse, StageEmbed, StageIndex}

// IsValid returns true if the stage is recognised.
func (s Stage) IsValid() bool {
	switch s {
	case StageParse, StageEmbed, StageIndex:
		return true
	default:
		return false
	}
}

// Ordinal returns the 1-based position of the stage, or 0 if unknown.
func (s Stage) Ordinal() int {
	for i, st := range Stages {
		if st == s {
			return i + 1
		}
	}
	return 0
}

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// Description returns a human-readable description of the stage.
func (s Stage) Description() string {
	switch s {
	case StageParse:
		return "Parse PDF (document service)"
	case StageEmbed:
		return "Generate embeddings (embedding service)"
	case StageIndex:
		return "Sync vectors (vector store)"
	default:
		return "Unknown"
	}
}

// ParseStage converts a string to a Stage.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: unknown stage %q (want parse, embed or index)", ErrInvalidInput, s)
	}
	return st, nil
}
