// Package domain contains the generation pipeline's request, event and
// cost types. Cost and markup normalization are pure functions so they
// can be tested without a provider or a store.
package domain

import (
	"github.com/bwmarrin/snowflake"
)

// DocumentKind identifies one generated document body.
type DocumentKind string

const (
	DocumentWorksheet  DocumentKind = "worksheet"
	DocumentLessonPlan DocumentKind = "lesson_plan"
	DocumentAnswerKey  DocumentKind = "answer_key"
)

// documentOrder fixes the generation sequence. The worksheet always
// comes first because later documents reference its content.
var documentOrder = []DocumentKind{DocumentWorksheet, DocumentLessonPlan, DocumentAnswerKey}

// OrderDocuments returns the requested kinds deduplicated and sorted
// into the fixed generation order. Unknown kinds are dropped.
func OrderDocuments(requested []DocumentKind) []DocumentKind {
	want := make(map[DocumentKind]bool, len(requested))
	for _, kind := range requested {
		want[kind] = true
	}
	ordered := make([]DocumentKind, 0, len(documentOrder))
	for _, kind := range documentOrder {
		if want[kind] {
			ordered = append(ordered, kind)
		}
	}
	return ordered
}

// VisualRichness levels accepted in Options.
const (
	VisualLow    = "low"
	VisualMedium = "medium"
	VisualHigh   = "high"
)

// Options are the user-chosen knobs that drive the credit cost.
type Options struct {
	QuestionCount     int    `json:"question_count"`
	IncludeAnswerKey  bool   `json:"include_answer_key"`
	IncludeLessonPlan bool   `json:"include_lesson_plan"`
	PremiumMode       bool   `json:"premium_mode"`
	VisualRichness    string `json:"visual_richness"`
}

// Request describes one pipeline run.
type Request struct {
	ProjectID snowflake.ID
	UserID    string
	JobID     string
	Title     string
	Subject   string
	Grade     string
	Documents []DocumentKind
	Options   Options
	Provider  string
	Model     string
}

// Mode names the generation mode recorded on the version row.
func (r Request) Mode() string {
	if r.Options.PremiumMode {
		return "premium"
	}
	return "standard"
}

// Outcome summarizes a finished run for the caller.
type Outcome struct {
	JobID           string         `json:"job_id"`
	ProjectID       snowflake.ID   `json:"project_id"`
	VersionID       snowflake.ID   `json:"version_id"`
	Documents       []DocumentKind `json:"documents"`
	Provider        string         `json:"provider"`
	Model           string         `json:"model"`
	ReservedCredits int64          `json:"reserved_credits"`
	ActualCredits   int64          `json:"actual_credits"`
	RefundedCredits int64          `json:"refunded_credits"`
}

// Event types emitted through the progress sink.
const (
	EventTypeProgress = "progress"
	EventTypeComplete = "complete"
	EventTypeError    = "error"
)

// Event is one progress notification. Exactly one terminal event
// (complete or error) is emitted per run, always last.
type Event struct {
	Type     string       `json:"type"`
	Step     DocumentKind `json:"step,omitempty"`
	Progress int          `json:"progress"`
	Message  string       `json:"message,omitempty"`
	Result   *Outcome     `json:"result,omitempty"`
}

// EventSink receives progress events as they occur. The pipeline makes
// no assumption about how the caller transports them.
type EventSink func(Event)
