package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/psds-microservice/meeting-service/internal/errs"
	"github.com/psds-microservice/meeting-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPipelineFixture(t *testing.T) (*memStore, *fakeSummarizer, *Pipeline) {
	t.Helper()
	store := newMemStore()
	sum := &fakeSummarizer{}
	p := NewPipeline(store, sum, 7, zap.NewNop())
	return store, sum, p
}

func TestPipelineNoTranscript(t *testing.T) {
	store, sum, p := newPipelineFixture(t)
	org := store.addUser("Org")
	m := store.addMeeting(model.MeetingCompleted, time.Now(), org.ID)

	result, err := p.Run(context.Background(), m.ID)
	require.NoError(t, err, "a meeting without a recording is not an error")
	assert.False(t, result.SummaryGenerated)
	assert.Equal(t, "no transcript", result.Reason)
	assert.Zero(t, result.TicketsCreated)
	assert.Zero(t, sum.callCount())
}

func TestPipelineEmptyTranscript(t *testing.T) {
	store, sum, p := newPipelineFixture(t)
	org := store.addUser("Org")
	m := store.addMeeting(model.MeetingCompleted, time.Now(), org.ID)
	store.addTranscript(m.ID, "   ")

	result, err := p.Run(context.Background(), m.ID)
	require.NoError(t, err)
	assert.False(t, result.SummaryGenerated)
	assert.Zero(t, sum.callCount())
}

func TestPipelineMeetingNotFound(t *testing.T) {
	_, _, p := newPipelineFixture(t)
	_, err := p.Run(context.Background(), 404)
	assert.ErrorIs(t, err, errs.ErrMeetingNotFound)
}

func TestPipelineZeroActionItems(t *testing.T) {
	store, sum, p := newPipelineFixture(t)
	org := store.addUser("Org")
	m := store.addMeeting(model.MeetingCompleted, time.Now(), org.ID)
	tr := store.addTranscript(m.ID, "we talked, nothing to do")
	sum.summary = &model.StructuredSummary{
		Abstract:  "a short chat",
		KeyPoints: []string{"nothing actionable"},
	}

	result, err := p.Run(context.Background(), m.ID)
	require.NoError(t, err)
	assert.True(t, result.SummaryGenerated)
	assert.Zero(t, result.TicketsCreated)
	assert.Empty(t, result.Tickets)

	fresh, _ := store.GetTranscript(tr.ID)
	assert.Equal(t, "a short chat", fresh.SummaryText)
	assert.NotEmpty(t, fresh.StructuredSummary)
	assert.NotEmpty(t, fresh.Minutes)
	assert.Equal(t, string(model.ProcessingCompleted), fresh.ProcessingStatus)
}

func TestPipelineAssigneeAndDeadlineResolution(t *testing.T) {
	store, sum, p := newPipelineFixture(t)
	org := store.addUser("Org")
	m := store.addMeeting(model.MeetingCompleted, time.Now(), org.ID)
	store.addTranscript(m.ID, "long discussion")

	processedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return processedAt }

	// no user named "Jane" exists: both fall back to the organizer
	sum.summary = &model.StructuredSummary{
		Abstract: "decisions were made",
		ActionItems: []model.ActionItem{
			{Title: "Fix docs", AssigneeHint: "Jane"},
			{Title: "urgent patch", AssigneeHint: "TBD", DeadlineHint: "2020-01-01"},
		},
	}

	result, err := p.Run(context.Background(), m.ID)
	require.NoError(t, err)
	assert.True(t, result.SummaryGenerated)
	require.Equal(t, 2, result.TicketsCreated)

	first := result.Tickets[0]
	assert.Equal(t, org.ID, first.AssigneeID)
	assert.Equal(t, processedAt.AddDate(0, 0, 7), first.Deadline, "default deadline is 7 days from processing")
	assert.Equal(t, model.PriorityMedium, first.Priority)

	second := result.Tickets[1]
	assert.Equal(t, org.ID, second.AssigneeID)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), second.Deadline)
	assert.Equal(t, model.PriorityHigh, second.Priority, `"urgent" in the title`)

	task, err := store.GetTask(first.TaskID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskPending, task.Status)
	require.NotNil(t, task.MeetingID)
	assert.Equal(t, m.ID, *task.MeetingID)
	assert.Equal(t, org.ID, task.AssignerID)
}

func TestPipelineAssigneeSubstringMatch(t *testing.T) {
	store, sum, p := newPipelineFixture(t)
	org := store.addUser("Org")
	jane := store.addUser("Jane Doe")
	m := store.addMeeting(model.MeetingCompleted, time.Now(), org.ID)
	store.addTranscript(m.ID, "assignments")
	sum.summary = &model.StructuredSummary{
		Abstract:    "handover",
		ActionItems: []model.ActionItem{{Title: "Write report", AssigneeHint: "jane"}},
	}

	result, err := p.Run(context.Background(), m.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.TicketsCreated)
	assert.Equal(t, jane.ID, result.Tickets[0].AssigneeID)
}

func TestPipelinePartialTicketFailure(t *testing.T) {
	store, sum, p := newPipelineFixture(t)
	org := store.addUser("Org")
	m := store.addMeeting(model.MeetingCompleted, time.Now(), org.ID)
	store.addTranscript(m.ID, "three items")
	sum.summary = &model.StructuredSummary{
		Abstract: "busy meeting",
		ActionItems: []model.ActionItem{
			{Title: "first", AssigneeHint: "TBD"},
			{Title: "broken", AssigneeHint: "TBD"},
			{Title: "third", AssigneeHint: "TBD"},
		},
	}
	store.failTaskTitles["broken"] = errors.New("constraint violated")

	result, err := p.Run(context.Background(), m.ID)
	require.NoError(t, err, "one failed item must not fail the pipeline")
	assert.True(t, result.SummaryGenerated)
	assert.Equal(t, 2, result.TicketsCreated)
	require.Len(t, result.Tickets, 2)
	assert.Equal(t, "first", result.Tickets[0].Title)
	assert.Equal(t, "third", result.Tickets[1].Title)
}

func TestPipelineSummarizationFailureFatal(t *testing.T) {
	store, sum, p := newPipelineFixture(t)
	org := store.addUser("Org")
	m := store.addMeeting(model.MeetingCompleted, time.Now(), org.ID)
	tr := store.addTranscript(m.ID, "some text")
	sum.err = errors.New("model unavailable")

	_, err := p.Run(context.Background(), m.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCapability)

	fresh, _ := store.GetTranscript(tr.ID)
	assert.Equal(t, string(model.ProcessingFailed), fresh.ProcessingStatus)

	// the meeting itself stays completed; the pipeline never rolls back
	freshM, _ := store.GetMeeting(m.ID)
	assert.Equal(t, string(model.MeetingCompleted), freshM.Status)
}

func TestFormatMinutes(t *testing.T) {
	m := &model.Meeting{Title: "Budget review", Datetime: time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)}
	sum := &model.StructuredSummary{
		Abstract:  "budget approved",
		KeyPoints: []string{"Q1 spend on target"},
		Decisions: []string{"approve budget"},
		ActionItems: []model.ActionItem{
			{Title: "publish numbers", AssigneeHint: "Jane", DeadlineHint: "2026-02-10"},
		},
	}
	minutes := FormatMinutes(m, sum)
	assert.Contains(t, minutes, "# Minutes: Budget review")
	assert.Contains(t, minutes, "budget approved")
	assert.Contains(t, minutes, "- Q1 spend on target")
	assert.Contains(t, minutes, "- approve budget")
	assert.Contains(t, minutes, "publish numbers (Jane, due 2026-02-10)")
}
