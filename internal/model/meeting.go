package model

import "time"

// MeetingStatus represents meeting lifecycle state.
type MeetingStatus string

const (
	MeetingScheduled   MeetingStatus = "scheduled"
	MeetingInProgress  MeetingStatus = "in-progress"
	MeetingCompleted   MeetingStatus = "completed"
	MeetingRescheduled MeetingStatus = "rescheduled"
	MeetingCancelled   MeetingStatus = "cancelled"
)

// Terminal reports whether no further lifecycle transitions are defined.
// rescheduled is a dead-end but not terminal: it still accepts cancel.
func (s MeetingStatus) Terminal() bool {
	return s == MeetingCompleted || s == MeetingCancelled
}

// ProcessingStatus tracks the last transcript operation outcome.
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingProcessing ProcessingStatus = "processing"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

// Task status / priority values.
const (
	TaskPending    = "pending"
	TaskInProgress = "in-progress"
	TaskCompleted  = "completed"
	TaskOverdue    = "overdue"
	TaskCancelled  = "cancelled"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// CreateMeetingRequest is the request body for POST /meetings.
type CreateMeetingRequest struct {
	Title        string    `json:"title" binding:"required"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	Datetime     time.Time `json:"datetime" binding:"required"`
	OrganizerID  uint      `json:"organizer_id" binding:"required"`
	Participants []string  `json:"participants"`
}

// UpdateMeetingRequest is the request body for PATCH /meetings/:id.
// A status edit is routed through the status machine (cancel and reschedule only).
type UpdateMeetingRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	Datetime    *time.Time `json:"datetime"`
	Status      *string    `json:"status"`
}

// MeetingResponse is the API view of a meeting (not GORM entity).
type MeetingResponse struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	Datetime     time.Time `json:"datetime"`
	Status       string    `json:"status"`
	OrganizerID  uint      `json:"organizer_id"`
	TranscriptID *uint     `json:"transcript_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// MeetingToResponse converts the entity to its API view.
func MeetingToResponse(m *Meeting) MeetingResponse {
	resp := MeetingResponse{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Location:    m.Location,
		Datetime:    m.Datetime,
		Status:      m.Status,
		OrganizerID: m.OrganizerID,
		CreatedAt:   m.CreatedAt,
	}
	if m.Transcript != nil {
		id := m.Transcript.ID
		resp.TranscriptID = &id
	}
	return resp
}

// CheckInRequest is the request body for POST /meetings/:id/attendance.
type CheckInRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Method string `json:"method"`
}

// CreateTaskRequest is the request body for POST /tasks.
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Priority    string     `json:"priority"`
	MeetingID   *uint      `json:"meeting_id"`
	AssigneeID  uint       `json:"assignee_id" binding:"required"`
	AssignerID  uint       `json:"assigner_id" binding:"required"`
}

// UpdateTaskRequest is the request body for PATCH /tasks/:id.
type UpdateTaskRequest struct {
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Description *string `json:"description"`
}

// TaskResponse is the API view of a task.
type TaskResponse struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Deadline    time.Time  `json:"deadline"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	MeetingID   *uint      `json:"meeting_id,omitempty"`
	AssigneeID  uint       `json:"assignee_id"`
	AssignerID  uint       `json:"assigner_id"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TaskToResponse converts the entity to its API view.
func TaskToResponse(t *Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		Status:      t.Status,
		Priority:    t.Priority,
		MeetingID:   t.MeetingID,
		AssigneeID:  t.AssigneeID,
		AssignerID:  t.AssignerID,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
	}
}
