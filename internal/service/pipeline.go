package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/psds-microservice/meeting-service/internal/capability"
	"github.com/psds-microservice/meeting-service/internal/errs"
	"github.com/psds-microservice/meeting-service/internal/model"
	"github.com/psds-microservice/meeting-service/internal/storage"
	"go.uber.org/zap"
)

// Pipeline turns a completed meeting's transcript into a structured summary
// and materializes each action item as a task.
type Pipeline struct {
	store      storage.Store
	summarizer capability.Summarizer
	log        *zap.Logger
	now        func() time.Time

	defaultDeadlineDays int
}

// NewPipeline creates the auto-summary pipeline.
func NewPipeline(store storage.Store, summarizer capability.Summarizer, defaultDeadlineDays int, log *zap.Logger) *Pipeline {
	if defaultDeadlineDays <= 0 {
		defaultDeadlineDays = 7
	}
	return &Pipeline{
		store:               store,
		summarizer:          summarizer,
		log:                 log,
		now:                 time.Now,
		defaultDeadlineDays: defaultDeadlineDays,
	}
}

// Run executes the pipeline for one meeting. A missing or empty transcript is
// a successful no-op. Summarization failure is fatal and marks the transcript
// failed; a single action item failing to materialize is logged and skipped.
func (p *Pipeline) Run(ctx context.Context, meetingID uint) (*model.PipelineResult, error) {
	m, err := p.store.GetMeeting(meetingID)
	if err != nil {
		return nil, err
	}

	t, err := p.store.GetTranscriptByMeeting(meetingID)
	if errors.Is(err, errs.ErrTranscriptNotFound) {
		return &model.PipelineResult{SummaryGenerated: false, Reason: "no transcript", Tickets: []model.TicketRef{}}, nil
	}
	if err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(t.RawText)
	if raw == "" {
		return &model.PipelineResult{SummaryGenerated: false, Reason: "no transcript", Tickets: []model.TicketRef{}}, nil
	}

	if err := p.store.SetTranscriptStatus(t.ID, model.ProcessingProcessing); err != nil {
		p.log.Warn("mark transcript processing failed", zap.Uint("transcript_id", t.ID), zap.Error(err))
	}

	sum, err := p.summarizer.Summarize(ctx, raw)
	if err != nil {
		if serr := p.store.SetTranscriptStatus(t.ID, model.ProcessingFailed); serr != nil {
			p.log.Warn("mark transcript failed failed", zap.Uint("transcript_id", t.ID), zap.Error(serr))
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrCapability, err)
	}

	structured, err := json.Marshal(sum)
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	items, err := json.Marshal(sum.ActionItems)
	if err != nil {
		return nil, fmt.Errorf("marshal action items: %w", err)
	}
	t.SummaryText = sum.Abstract
	t.StructuredSummary = string(structured)
	t.ActionItems = string(items)
	t.Minutes = FormatMinutes(m, sum)
	t.ProcessingStatus = string(model.ProcessingCompleted)
	if err := p.store.SaveTranscript(t); err != nil {
		return nil, err
	}

	result := &model.PipelineResult{SummaryGenerated: true, Tickets: []model.TicketRef{}}
	for _, item := range sum.ActionItems {
		ref, err := p.materialize(m, item)
		if err != nil {
			p.log.Warn("action item ticket skipped",
				zap.Uint("meeting_id", meetingID),
				zap.String("title", item.Title),
				zap.Error(err))
			continue
		}
		result.Tickets = append(result.Tickets, *ref)
		result.TicketsCreated++
	}

	p.log.Info("auto-summary pipeline done",
		zap.Uint("meeting_id", meetingID),
		zap.Int("tickets_created", result.TicketsCreated),
		zap.Int("action_items", len(sum.ActionItems)))
	return result, nil
}

// materialize creates one task from one action item: assignee resolution,
// deadline defaulting, keyword priority inference.
func (p *Pipeline) materialize(m *model.Meeting, item model.ActionItem) (*model.TicketRef, error) {
	assignee := ResolveAssignee(p.store, item.AssigneeHint, m.OrganizerID)
	deadline := ResolveDeadline(item.DeadlineHint, p.now(), p.defaultDeadlineDays)
	priority := InferPriority(item.Title + " " + item.Description)

	meetingID := m.ID
	task := &model.Task{
		Title:       item.Title,
		Description: item.Description,
		Deadline:    deadline,
		Status:      model.TaskPending,
		Priority:    priority,
		MeetingID:   &meetingID,
		AssigneeID:  assignee,
		AssignerID:  m.OrganizerID,
	}
	if err := p.store.CreateTask(task); err != nil {
		return nil, err
	}
	return &model.TicketRef{
		TaskID:     task.ID,
		Title:      task.Title,
		AssigneeID: task.AssigneeID,
		Deadline:   task.Deadline,
		Priority:   task.Priority,
	}, nil
}

// FormatMinutes serializes the structured summary as formatted minutes text.
func FormatMinutes(m *model.Meeting, sum *model.StructuredSummary) string {
	var sb strings.Builder
	sb.WriteString("# Minutes: " + m.Title + "\n\n")
	sb.WriteString(m.Datetime.Format("2006-01-02 15:04") + "\n\n")
	sb.WriteString("## Abstract\n\n" + sum.Abstract + "\n")
	if len(sum.KeyPoints) > 0 {
		sb.WriteString("\n## Key Points\n\n")
		for _, kp := range sum.KeyPoints {
			sb.WriteString("- " + kp + "\n")
		}
	}
	if len(sum.Decisions) > 0 {
		sb.WriteString("\n## Decisions\n\n")
		for _, d := range sum.Decisions {
			sb.WriteString("- " + d + "\n")
		}
	}
	if len(sum.ActionItems) > 0 {
		sb.WriteString("\n## Action Items\n\n")
		for _, item := range sum.ActionItems {
			line := "- " + item.Title
			if item.AssigneeHint != "" {
				line += " (" + item.AssigneeHint
				if item.DeadlineHint != "" {
					line += ", due " + item.DeadlineHint
				}
				line += ")"
			}
			sb.WriteString(line + "\n")
		}
	}
	return sb.String()
}
