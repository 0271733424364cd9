package models

import (
	"time"
)

type Step string

const (
	StepIdle        Step = "idle"
	StepStarted     Step = "started"
	StepNormalizing Step = "normalizing"
	StepIndexing    Step = "indexing"
	StepScoring     Step = "scoring"
	StepCompleted   Step = "completed"
	StepFailed      Step = "failed"
)

// Valid reports whether the step is a known run step
func (s Step) Valid() bool {
	switch s {
	case StepIdle, StepStarted, StepNormalizing, StepIndexing, StepScoring, StepCompleted, StepFailed:
		return true
	}
	return false
}

// DocumentInput is one named text submitted for comparison
type DocumentInput struct {
	ID   string `json:"id" binding:"required"`
	Text string `json:"text"`
}

// CompareRequest represents a request to compare a set of documents
type CompareRequest struct {
	RunID     string          `json:"runId" binding:"omitempty,uuid"`
	Documents []DocumentInput `json:"documents" binding:"required,min=2,dive"`
	KGrams    int             `json:"kGrams" binding:"omitempty,min=1"`
	Window    int             `json:"window" binding:"omitempty,min=1"`
	StopWords []string        `json:"stopWords"`
	Preset    string          `json:"preset"`
	Strict    bool            `json:"strict"`
	MinScore  float64         `json:"minScore" binding:"omitempty,min=0,max=1"`
}

// DocumentSummary describes a fingerprinted document in responses
type DocumentSummary struct {
	ID               string `json:"id"`
	NormalizedLength int    `json:"normalizedLength"`
	Lines            int    `json:"lines"`
	Fingerprints     int    `json:"fingerprints"`
}

// MatchResult is one ranked directional comparison
type MatchResult struct {
	Suspect string  `json:"suspect"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
	Risk    string  `json:"risk"`
	Lines   []int   `json:"lines"`
}

// CompareResponse represents the response from the compare endpoint
type CompareResponse struct {
	RunID      string            `json:"runId"`
	KGrams     int               `json:"kGrams"`
	Window     int               `json:"window"`
	Documents  []DocumentSummary `json:"documents"`
	Results    []MatchResult     `json:"results"`
	SharedHash int               `json:"sharedHashes"`
	Duration   time.Duration     `json:"durationNs"`
}

// StatusResponse represents the tracked step of a run
type StatusResponse struct {
	RunID string `json:"runId"`
	Step  Step   `json:"step"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	RunID string `json:"runId,omitempty"`
}
