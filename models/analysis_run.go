package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"pubstats/domain/core"
	"pubstats/domain/stats"
)

// JSONBDocument is a custom type for PostgreSQL JSONB columns holding a
// pre-marshaled document
type JSONBDocument json.RawMessage

// Value implements driver.Valuer interface
func (j JSONBDocument) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface
func (j *JSONBDocument) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[:0], v...)
		return nil
	case string:
		*j = JSONBDocument(v)
		return nil
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}
}

// MarshalJSON passes the stored document through unchanged
func (j JSONBDocument) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

// UnmarshalJSON stores the raw document
func (j *JSONBDocument) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

// AnalysisRun is the archived record of one family analysis
type AnalysisRun struct {
	ID               string        `json:"id" db:"id"`
	FamilyHash       string        `json:"family_hash" db:"family_hash"`
	Alpha            float64       `json:"alpha" db:"alpha"`
	Method           string        `json:"method" db:"method"`
	QuestionCount    int           `json:"question_count" db:"question_count"`
	SignificantCount int           `json:"significant_count" db:"significant_count"`
	Payload          JSONBDocument `json:"payload" db:"payload"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
}

// NewAnalysisRun builds an archive record from a completed analysis
func NewAnalysisRun(id core.RunID, familyHash core.FamilyHash, cfg stats.AnalysisConfig, questionCount, significantCount int, payload []byte) *AnalysisRun {
	return &AnalysisRun{
		ID:               id.String(),
		FamilyHash:       familyHash.String(),
		Alpha:            cfg.Alpha,
		Method:           string(cfg.Method),
		QuestionCount:    questionCount,
		SignificantCount: significantCount,
		Payload:          JSONBDocument(payload),
		CreatedAt:        time.Now().UTC(),
	}
}
