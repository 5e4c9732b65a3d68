package api

import (
	"github.com/spanqa/spanqa/batch"
)

// StreamRequest opens a batch stream over a dataset reachable from
// the server. Zero-valued knobs fall back to the server defaults.
type StreamRequest struct {
	ContextPath  string `json:"context_path"`
	QuestionPath string `json:"question_path"`
	AnswerPath   string `json:"answer_path"`

	// UUIDPath optionally adds a line-aligned identifier stream for
	// inference mode.
	UUIDPath string `json:"uuid_path,omitempty"`

	BatchSize   int     `json:"batch_size,omitempty"`
	ContextLen  int     `json:"context_len,omitempty"`
	QuestionLen int     `json:"question_len,omitempty"`
	WordLen     int     `json:"word_len,omitempty"`
	DiscardLong *bool   `json:"discard_long,omitempty"`
	Seed        *uint64 `json:"seed,omitempty"`
}

type StreamResponse struct {
	ID string `json:"id"`
}

// NextResponse carries one batch, or Done once the stream is
// exhausted. A done response also closes the stream server-side.
type NextResponse struct {
	Done  bool         `json:"done"`
	Batch *batch.Batch `json:"batch,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type VersionResponse struct {
	Version string `json:"version"`
}
