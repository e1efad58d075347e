package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// RunID identifies one analysis run (one family of questions corrected together).
	RunID ID
	// QuestionKey identifies a survey question or workflow metric within a run.
	QuestionKey ID
	// GroupKey identifies a cohort ("v1.0", "v2.0", ...) in a comparison.
	GroupKey ID
)

// String conversions for domain IDs
func (id RunID) String() string      { return ID(id).String() }
func (k QuestionKey) String() string { return ID(k).String() }
func (k GroupKey) String() string    { return ID(k).String() }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// ParseQuestionKey parses a string into QuestionKey
func ParseQuestionKey(s string) (QuestionKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("question key cannot be empty")
	}
	return QuestionKey(s), nil
}

// ParseGroupKey parses a string into GroupKey
func ParseGroupKey(s string) (GroupKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("group key cannot be empty")
	}
	return GroupKey(s), nil
}
