package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StudySession records one stretch of studying a subject. EndTime nil
// means the session is still running; Duration is derived from the two
// timestamps and persisted together with EndTime.
type StudySession struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_sessions_user_time,priority:1" json:"user_id"`
	SubjectID uuid.UUID      `gorm:"type:uuid;not null;index" json:"subject_id"`
	StartTime time.Time      `gorm:"not null;index:idx_sessions_user_time,priority:2" json:"start_time"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Duration  *time.Duration `json:"duration,omitempty"`
	Notes     string         `gorm:"type:text" json:"notes"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Subject *Subject `gorm:"foreignKey:SubjectID;constraint:OnDelete:CASCADE" json:"subject,omitempty"`
}

func (s *StudySession) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID, err = uuid.NewV7()
	}
	return
}

func (s *StudySession) IsActive() bool {
	return s.EndTime == nil
}

// Pomodoro duration bounds, in minutes.
const (
	PomodoroWorkMin      = 1
	PomodoroWorkMax      = 120
	PomodoroBreakMin     = 1
	PomodoroBreakMax     = 30
	PomodoroLongBreakMin = 1
	PomodoroLongBreakMax = 60
	PomodoroSessionsMin  = 1
	PomodoroSessionsMax  = 10

	PomodoroDefaultWork      = 25
	PomodoroDefaultBreak     = 5
	PomodoroDefaultLongBreak = 15
	PomodoroDefaultSessions  = 4
)

// PomodoroSettings is the per-user timer configuration, provisioned at
// registration together with the profile.
type PomodoroSettings struct {
	UserID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	WorkDuration           int       `gorm:"not null;default:25" json:"work_duration"`
	BreakDuration          int       `gorm:"not null;default:5" json:"break_duration"`
	LongBreakDuration      int       `gorm:"not null;default:15" json:"long_break_duration"`
	SessionsUntilLongBreak int       `gorm:"not null;default:4" json:"sessions_until_long_break"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PomodoroSettings) TableName() string {
	return "pomodoro_settings"
}

// DefaultPomodoroSettings returns the provisioning values for a new user.
func DefaultPomodoroSettings(userID uuid.UUID) PomodoroSettings {
	return PomodoroSettings{
		UserID:                 userID,
		WorkDuration:           PomodoroDefaultWork,
		BreakDuration:          PomodoroDefaultBreak,
		LongBreakDuration:      PomodoroDefaultLongBreak,
		SessionsUntilLongBreak: PomodoroDefaultSessions,
	}
}

// Alarm is a user-configured recurring alert. Days holds weekday numbers
// 0-6 (0=Monday) as a JSON array.
type Alarm struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Time      string         `gorm:"size:5;not null" json:"time"` // "HH:MM"
	Days      datatypes.JSON `gorm:"type:jsonb" json:"days"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (a *Alarm) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

const PostItDefaultColor = "#ffeb3b"

// PostIt is a sticky note pinned on the user's desktop at a free x/y
// position.
type PostIt struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Content   string    `gorm:"size:500;not null" json:"content"`
	Color     string    `gorm:"size:7;not null;default:'#ffeb3b'" json:"color"`
	PositionX int       `gorm:"default:0" json:"position_x"`
	PositionY int       `gorm:"default:0" json:"position_y"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (p *PostIt) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID, err = uuid.NewV7()
	}
	return
}
