package model

import (
	"errors"
	"strings"
	"time"
)

// StructuredSummary is the validated result of a summarization pass.
type StructuredSummary struct {
	Abstract    string       `json:"abstract"`
	KeyPoints   []string     `json:"key_points"`
	Decisions   []string     `json:"decisions"`
	ActionItems []ActionItem `json:"action_items"`
}

// ActionItem is one extracted follow-up. AssigneeHint is a free-text name or
// the literal "TBD"; DeadlineHint is a date string or empty.
type ActionItem struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	AssigneeHint string `json:"assigned_to"`
	DeadlineHint string `json:"deadline,omitempty"`
}

// Validate rejects summaries the capability returned malformed.
func (s *StructuredSummary) Validate() error {
	if strings.TrimSpace(s.Abstract) == "" {
		return errors.New("summary: abstract is empty")
	}
	for _, item := range s.ActionItems {
		if strings.TrimSpace(item.Title) == "" {
			return errors.New("summary: action item without title")
		}
	}
	return nil
}

// TicketRef identifies one task created by the ticketing pipeline.
type TicketRef struct {
	TaskID     uint      `json:"task_id"`
	Title      string    `json:"title"`
	AssigneeID uint      `json:"assignee_id"`
	Deadline   time.Time `json:"deadline"`
	Priority   string    `json:"priority"`
}

// PipelineResult reports the outcome of the auto-summary pipeline.
type PipelineResult struct {
	SummaryGenerated bool        `json:"summary_generated"`
	Reason           string      `json:"reason,omitempty"`
	TicketsCreated   int         `json:"tickets_created"`
	Tickets          []TicketRef `json:"tickets"`
}

// ChunkRequest is the request body for POST /meetings/:id/live/chunks.
// Audio is base64 over the wire; the service contract is bytes in.
type ChunkRequest struct {
	Audio    string `json:"audio"`
	MimeType string `json:"mime_type"`
}

// ChunkResponse is the response for an ingested chunk.
type ChunkResponse struct {
	Text           string `json:"text"`
	InterimSummary string `json:"interim_summary,omitempty"`
	Length         int    `json:"length"`
}

// LiveStatusResponse is the response for GET /meetings/:id/live.
type LiveStatusResponse struct {
	Active        bool       `json:"active"`
	TranscriptID  uint       `json:"transcript_id,omitempty"`
	Length        int        `json:"length"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
}

// TranscriptResponse is the API view of a transcript.
type TranscriptResponse struct {
	ID                uint               `json:"id"`
	MeetingID         uint               `json:"meeting_id"`
	RawText           string             `json:"raw_text"`
	SummaryText       string             `json:"summary_text,omitempty"`
	StructuredSummary *StructuredSummary `json:"structured_summary,omitempty"`
	Minutes           string             `json:"minutes,omitempty"`
	ProcessingStatus  string             `json:"processing_status"`
	UpdatedAt         time.Time          `json:"updated_at"`
}
