package storage

import (
	"errors"
	"time"

	"github.com/psds-microservice/meeting-service/internal/errs"
	"github.com/psds-microservice/meeting-service/internal/model"
	"gorm.io/gorm"
)

// GormStore implements Store on top of GORM/Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates the Postgres-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateMeeting(m *model.Meeting) error {
	return s.db.Create(m).Error
}

func (s *GormStore) GetMeeting(id uint) (*model.Meeting, error) {
	var ent model.Meeting
	if err := s.db.Preload("Transcript").Where("id = ?", id).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrMeetingNotFound
		}
		return nil, err
	}
	return &ent, nil
}

func (s *GormStore) ListMeetings(status string) ([]model.Meeting, error) {
	var out []model.Meeting
	q := s.db.Order("datetime")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) SaveMeeting(m *model.Meeting) error {
	return s.db.Save(m).Error
}

// UpdateMeetingStatus is the check-then-act guard for transitions: the UPDATE
// only matches when the row still holds the expected status.
func (s *GormStore) UpdateMeetingStatus(id uint, from, to model.MeetingStatus) error {
	res := s.db.Model(&model.Meeting{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.Model(&model.Meeting{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.ErrMeetingNotFound
		}
		return errs.ErrInvalidTransition
	}
	return nil
}

func (s *GormStore) DueScheduled(now time.Time) ([]model.Meeting, error) {
	var out []model.Meeting
	err := s.db.
		Where("status = ? AND datetime <= ?", string(model.MeetingScheduled), now).
		Order("datetime").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) CreateTranscript(t *model.Transcript) error {
	return s.db.Create(t).Error
}

func (s *GormStore) GetTranscript(id uint) (*model.Transcript, error) {
	var ent model.Transcript
	if err := s.db.Where("id = ?", id).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTranscriptNotFound
		}
		return nil, err
	}
	return &ent, nil
}

func (s *GormStore) GetTranscriptByMeeting(meetingID uint) (*model.Transcript, error) {
	var ent model.Transcript
	if err := s.db.Where("meeting_id = ?", meetingID).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTranscriptNotFound
		}
		return nil, err
	}
	return &ent, nil
}

func (s *GormStore) SaveTranscript(t *model.Transcript) error {
	return s.db.Save(t).Error
}

func (s *GormStore) UpdateTranscriptText(id uint, raw string) error {
	return s.db.Model(&model.Transcript{}).Where("id = ?", id).Update("raw_text", raw).Error
}

func (s *GormStore) SetTranscriptStatus(id uint, status model.ProcessingStatus) error {
	return s.db.Model(&model.Transcript{}).Where("id = ?", id).
		Update("processing_status", string(status)).Error
}

func (s *GormStore) CreateTask(t *model.Task) error {
	return s.db.Create(t).Error
}

func (s *GormStore) GetTask(id uint) (*model.Task, error) {
	var ent model.Task
	if err := s.db.Where("id = ?", id).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTaskNotFound
		}
		return nil, err
	}
	return &ent, nil
}

func (s *GormStore) ListTasks(f TaskFilter) ([]model.Task, error) {
	q := s.db.Order("deadline")
	if f.MeetingID != nil {
		q = q.Where("meeting_id = ?", *f.MeetingID)
	}
	if f.AssigneeID != nil {
		q = q.Where("assignee_id = ?", *f.AssigneeID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []model.Task
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) SaveTask(t *model.Task) error {
	return s.db.Save(t).Error
}

func (s *GormStore) GetUser(id uint) (*model.User, error) {
	var ent model.User
	if err := s.db.Where("id = ?", id).First(&ent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}
	return &ent, nil
}

func (s *GormStore) FindUserByName(hint string) (*model.User, error) {
	var ent model.User
	err := s.db.Where("LOWER(name) LIKE LOWER(?)", "%"+hint+"%").
		Order("id").First(&ent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}
	return &ent, nil
}

func (s *GormStore) CreateAttendance(a *model.Attendance) error {
	return s.db.Create(a).Error
}

func (s *GormStore) ListAttendance(meetingID uint) ([]model.Attendance, error) {
	var out []model.Attendance
	if err := s.db.Where("meeting_id = ?", meetingID).Order("checked_in_at").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
