package service

import (
	"time"

	"github.com/psds-microservice/meeting-service/internal/errs"
	"github.com/psds-microservice/meeting-service/internal/model"
	"github.com/psds-microservice/meeting-service/internal/storage"
	"go.uber.org/zap"
)

// TaskService manages tasks, including the lazy overdue promotion: a pending
// task whose deadline has passed is promoted the next time it is read, not by
// a background job.
type TaskService struct {
	store storage.Store
	log   *zap.Logger
	now   func() time.Time
}

// NewTaskService creates the task service.
func NewTaskService(store storage.Store, log *zap.Logger) *TaskService {
	return &TaskService{store: store, log: log, now: time.Now}
}

// Create creates a task directly (outside the pipeline).
func (s *TaskService) Create(req *model.CreateTaskRequest) (*model.Task, error) {
	if _, err := s.store.GetUser(req.AssigneeID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(req.AssignerID); err != nil {
		return nil, err
	}
	if req.MeetingID != nil {
		if _, err := s.store.GetMeeting(*req.MeetingID); err != nil {
			return nil, err
		}
	}
	deadline := s.now().AddDate(0, 0, 7)
	if req.Deadline != nil {
		deadline = *req.Deadline
	}
	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	t := &model.Task{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    deadline,
		Status:      model.TaskPending,
		Priority:    priority,
		MeetingID:   req.MeetingID,
		AssigneeID:  req.AssigneeID,
		AssignerID:  req.AssignerID,
	}
	if err := s.store.CreateTask(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns a task, applying the overdue promotion.
func (s *TaskService) Get(id uint) (*model.Task, error) {
	t, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	s.applyOverdue(t)
	return t, nil
}

// List returns tasks for a filter, applying the overdue promotion to each.
func (s *TaskService) List(f storage.TaskFilter) ([]model.Task, error) {
	tasks, err := s.store.ListTasks(f)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		s.applyOverdue(&tasks[i])
	}
	return tasks, nil
}

// Update edits status/priority/description; completing a task stamps
// CompletedAt.
func (s *TaskService) Update(id uint, req *model.UpdateTaskRequest) (*model.Task, error) {
	t, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if req.Status != nil {
		switch *req.Status {
		case model.TaskPending, model.TaskInProgress, model.TaskCompleted, model.TaskOverdue, model.TaskCancelled:
		default:
			return nil, errs.ErrInvalidTransition
		}
		t.Status = *req.Status
		if t.Status == model.TaskCompleted {
			done := s.now()
			t.CompletedAt = &done
		}
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if err := s.store.SaveTask(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) applyOverdue(t *model.Task) {
	if t.Status != model.TaskPending || !t.Deadline.Before(s.now()) {
		return
	}
	t.Status = model.TaskOverdue
	if err := s.store.SaveTask(t); err != nil {
		s.log.Warn("persist overdue promotion failed", zap.Uint("task_id", t.ID), zap.Error(err))
	}
}
