package model

import "time"

// User — учётная запись (GORM). Roles: admin, secretary, official.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:120;not null"`
	Email     string    `gorm:"size:255;not null;uniqueIndex"`
	Role      string    `gorm:"size:20;not null;default:official"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// Meeting — сущность заседания (GORM).
type Meeting struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"size:255;not null"`
	Description string    `gorm:"type:text"`
	Location    string    `gorm:"size:255"`
	Datetime    time.Time `gorm:"column:datetime;not null;index"`
	Status      string    `gorm:"size:20;not null;default:scheduled;index"` // scheduled, in-progress, completed, rescheduled, cancelled
	OrganizerID uint      `gorm:"not null;index"`
	// Participants is a JSON array of user ids or invite emails.
	Participants string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	Transcript *Transcript `gorm:"foreignKey:MeetingID"`
}

func (Meeting) TableName() string { return "meetings" }

// Transcript — стенограмма заседания, 1:1 с Meeting (GORM).
type Transcript struct {
	ID       uint `gorm:"primaryKey"`
	MeetingID uint `gorm:"not null;uniqueIndex"`
	// RawText is the accumulated transcription; the live session flushes into it.
	RawText           string    `gorm:"type:text"`
	SummaryText       string    `gorm:"type:text"`
	StructuredSummary string    `gorm:"type:text"` // JSON StructuredSummary
	ActionItems       string    `gorm:"type:text"` // JSON []ActionItem
	Minutes           string    `gorm:"type:text"`
	ProcessingStatus  string    `gorm:"size:20;not null;default:pending"` // pending, processing, completed, failed
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (Transcript) TableName() string { return "transcripts" }

// Task — поручение/тикет (GORM).
type Task struct {
	ID          uint       `gorm:"primaryKey"`
	Title       string     `gorm:"size:255;not null"`
	Description string     `gorm:"type:text"`
	Deadline    time.Time  `gorm:"not null;index"`
	Status      string     `gorm:"size:20;not null;default:pending;index"` // pending, in-progress, completed, overdue, cancelled
	Priority    string     `gorm:"size:10;not null;default:medium"`        // low, medium, high
	MeetingID   *uint      `gorm:"index"`
	AssigneeID  uint       `gorm:"not null;index"`
	AssignerID  uint       `gorm:"not null"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`
}

func (Task) TableName() string { return "tasks" }

// Attendance — отметка присутствия (GORM).
type Attendance struct {
	ID          uint      `gorm:"primaryKey"`
	MeetingID   uint      `gorm:"not null;index;uniqueIndex:idx_attendance_meeting_user,priority:1"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_attendance_meeting_user,priority:2"`
	Method      string    `gorm:"size:20;not null;default:qr"` // qr, manual
	CheckedInAt time.Time `gorm:"column:checked_in_at;not null"`
}

func (Attendance) TableName() string { return "attendances" }
