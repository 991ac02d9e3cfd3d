// Package storage defines the persistence boundary. Services depend on Store
// so tests can run against an in-memory implementation.
package storage

import (
	"time"

	"github.com/psds-microservice/meeting-service/internal/model"
)

// TaskFilter narrows ListTasks. Zero values mean "no filter".
type TaskFilter struct {
	MeetingID  *uint
	AssigneeID *uint
	Status     string
}

// Store is the system of record for all flat entities.
type Store interface {
	// Meetings
	CreateMeeting(m *model.Meeting) error
	GetMeeting(id uint) (*model.Meeting, error)
	ListMeetings(status string) ([]model.Meeting, error)
	SaveMeeting(m *model.Meeting) error
	// UpdateMeetingStatus applies from→to only if the row still holds from;
	// returns errs.ErrInvalidTransition when the guard fails and
	// errs.ErrMeetingNotFound when the meeting does not exist.
	UpdateMeetingStatus(id uint, from, to model.MeetingStatus) error
	// DueScheduled returns scheduled meetings with datetime <= now.
	DueScheduled(now time.Time) ([]model.Meeting, error)

	// Transcripts
	CreateTranscript(t *model.Transcript) error
	GetTranscript(id uint) (*model.Transcript, error)
	GetTranscriptByMeeting(meetingID uint) (*model.Transcript, error)
	SaveTranscript(t *model.Transcript) error
	UpdateTranscriptText(id uint, raw string) error
	SetTranscriptStatus(id uint, status model.ProcessingStatus) error

	// Tasks
	CreateTask(t *model.Task) error
	GetTask(id uint) (*model.Task, error)
	ListTasks(f TaskFilter) ([]model.Task, error)
	SaveTask(t *model.Task) error

	// Users
	GetUser(id uint) (*model.User, error)
	// FindUserByName does a case-insensitive substring match; first match wins.
	FindUserByName(hint string) (*model.User, error)

	// Attendance
	CreateAttendance(a *model.Attendance) error
	ListAttendance(meetingID uint) ([]model.Attendance, error)
}
