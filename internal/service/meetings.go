package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/psds-microservice/meeting-service/internal/errs"
	"github.com/psds-microservice/meeting-service/internal/model"
	"github.com/psds-microservice/meeting-service/internal/storage"
	"go.uber.org/zap"
)

// PipelineRunner is the completion hook: the auto-summary pipeline.
type PipelineRunner interface {
	Run(ctx context.Context, meetingID uint) (*model.PipelineResult, error)
}

// MeetingService owns the meeting status machine: legal transitions, the
// periodic sweep, and the completion trigger for the summary pipeline.
type MeetingService struct {
	store    storage.Store
	hub      Broadcaster
	pipeline PipelineRunner
	log      *zap.Logger
	now      func() time.Time
}

// NewMeetingService creates the meeting service. pipeline may be nil (tests).
func NewMeetingService(store storage.Store, hub Broadcaster, pipeline PipelineRunner, log *zap.Logger) *MeetingService {
	return &MeetingService{
		store:    store,
		hub:      hub,
		pipeline: pipeline,
		log:      log,
		now:      time.Now,
	}
}

// Create schedules a new meeting.
func (s *MeetingService) Create(req *model.CreateMeetingRequest) (*model.Meeting, error) {
	if _, err := s.store.GetUser(req.OrganizerID); err != nil {
		return nil, err
	}
	participants := ""
	if len(req.Participants) > 0 {
		raw, err := json.Marshal(req.Participants)
		if err != nil {
			return nil, fmt.Errorf("participants: %w", err)
		}
		participants = string(raw)
	}
	m := &model.Meeting{
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		Datetime:     req.Datetime,
		Status:       string(model.MeetingScheduled),
		OrganizerID:  req.OrganizerID,
		Participants: participants,
	}
	if err := s.store.CreateMeeting(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns a meeting with its transcript reference.
func (s *MeetingService) Get(id uint) (*model.Meeting, error) {
	return s.store.GetMeeting(id)
}

// List returns meetings, optionally filtered by status.
func (s *MeetingService) List(status string) ([]model.Meeting, error) {
	return s.store.ListMeetings(status)
}

// Update edits meeting fields. A status edit only accepts "cancelled" or
// "rescheduled", and only from a non-terminal state; other lifecycle moves
// go through Start/Stop.
func (s *MeetingService) Update(id uint, req *model.UpdateMeetingRequest) (*model.Meeting, error) {
	m, err := s.store.GetMeeting(id)
	if err != nil {
		return nil, err
	}
	if req.Status != nil {
		to := model.MeetingStatus(*req.Status)
		if to != model.MeetingCancelled && to != model.MeetingRescheduled {
			return nil, errs.ErrInvalidTransition
		}
		if model.MeetingStatus(m.Status).Terminal() {
			return nil, errs.ErrInvalidTransition
		}
		m.Status = string(to)
	}
	if req.Title != nil {
		m.Title = *req.Title
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.Location != nil {
		m.Location = *req.Location
	}
	if req.Datetime != nil {
		m.Datetime = *req.Datetime
	}
	if err := s.store.SaveMeeting(m); err != nil {
		return nil, err
	}
	if req.Status != nil {
		s.hub.Publish(m.ID, EventStatusChanged, map[string]string{"status": m.Status})
	}
	return m, nil
}

// Start performs scheduled → in-progress. Starting a meeting that is already
// in progress is an idempotent success; terminal states reject.
func (s *MeetingService) Start(ctx context.Context, id uint) (*model.Meeting, error) {
	err := s.store.UpdateMeetingStatus(id, model.MeetingScheduled, model.MeetingInProgress)
	if err != nil {
		if !errors.Is(err, errs.ErrInvalidTransition) {
			return nil, err
		}
		// Guard failed: re-read the authoritative status.
		m, gerr := s.store.GetMeeting(id)
		if gerr != nil {
			return nil, gerr
		}
		if m.Status == string(model.MeetingInProgress) {
			return m, nil
		}
		return nil, errs.ErrInvalidTransition
	}
	s.hub.Publish(id, EventStatusChanged, map[string]string{"status": string(model.MeetingInProgress)})
	return s.store.GetMeeting(id)
}

// Stop performs in-progress → completed and asynchronously triggers the
// auto-summary pipeline. Pipeline failure never rolls back the stop.
func (s *MeetingService) Stop(ctx context.Context, id uint) (*model.Meeting, error) {
	if err := s.store.UpdateMeetingStatus(id, model.MeetingInProgress, model.MeetingCompleted); err != nil {
		return nil, err
	}
	s.hub.Publish(id, EventStatusChanged, map[string]string{"status": string(model.MeetingCompleted)})
	s.triggerPipeline(id)
	return s.store.GetMeeting(id)
}

// triggerPipeline fires the summary pipeline in the background. Skips when a
// summary is already present so a double completion path cannot duplicate
// tickets; the explicit summary endpoint regenerates regardless.
func (s *MeetingService) triggerPipeline(id uint) {
	if s.pipeline == nil {
		return
	}
	t, err := s.store.GetTranscriptByMeeting(id)
	if err == nil && t.SummaryText != "" {
		s.log.Info("summary already present, skipping pipeline", zap.Uint("meeting_id", id))
		return
	}
	go func() {
		if _, err := s.pipeline.Run(context.Background(), id); err != nil {
			s.log.Error("auto-summary pipeline failed", zap.Uint("meeting_id", id), zap.Error(err))
		}
	}()
}

// SweepDue promotes every scheduled meeting whose datetime has elapsed.
// A failure on one meeting does not abort the rest.
func (s *MeetingService) SweepDue(ctx context.Context) int {
	due, err := s.store.DueScheduled(s.now())
	if err != nil {
		s.log.Error("sweep: list due meetings failed", zap.Error(err))
		return 0
	}
	promoted := 0
	for _, m := range due {
		err := s.store.UpdateMeetingStatus(m.ID, model.MeetingScheduled, model.MeetingInProgress)
		if err != nil {
			// Lost the race with an explicit start or a concurrent sweep tick.
			if !errors.Is(err, errs.ErrInvalidTransition) {
				s.log.Warn("sweep: transition failed", zap.Uint("meeting_id", m.ID), zap.Error(err))
			}
			continue
		}
		s.hub.Publish(m.ID, EventStatusChanged, map[string]string{"status": string(model.MeetingInProgress)})
		promoted++
	}
	return promoted
}

// CheckIn records attendance for a meeting and broadcasts the change.
func (s *MeetingService) CheckIn(meetingID uint, req *model.CheckInRequest) (*model.Attendance, error) {
	if _, err := s.store.GetMeeting(meetingID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(req.UserID); err != nil {
		return nil, err
	}
	method := req.Method
	if method == "" {
		method = "qr"
	}
	a := &model.Attendance{
		MeetingID:   meetingID,
		UserID:      req.UserID,
		Method:      method,
		CheckedInAt: s.now(),
	}
	if err := s.store.CreateAttendance(a); err != nil {
		return nil, err
	}
	s.hub.Publish(meetingID, EventAttendanceChanged, map[string]interface{}{
		"user_id":       req.UserID,
		"method":        method,
		"checked_in_at": a.CheckedInAt,
	})
	return a, nil
}

// Attendance lists check-ins for a meeting.
func (s *MeetingService) Attendance(meetingID uint) ([]model.Attendance, error) {
	if _, err := s.store.GetMeeting(meetingID); err != nil {
		return nil, err
	}
	return s.store.ListAttendance(meetingID)
}
