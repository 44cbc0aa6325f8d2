package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationGeneral        NotificationType = "GEN"
	NotificationAlarm          NotificationType = "ALM"
	NotificationPomodoro       NotificationType = "POM"
	NotificationFriendRequest  NotificationType = "FRQ"
	NotificationStudyMilestone NotificationType = "STM"
	NotificationAchievement    NotificationType = "ACH"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "L"
	PriorityMedium NotificationPriority = "M"
	PriorityHigh   NotificationPriority = "H"
)

// NotificationTarget is the closed set of entity kinds a notification may
// point at. Empty means the notification stands alone.
type NotificationTarget string

const (
	TargetNone          NotificationTarget = ""
	TargetAlarm         NotificationTarget = "alarm"
	TargetPomodoro      NotificationTarget = "pomodoro"
	TargetFriendRequest NotificationTarget = "friend_request"
	TargetStudySession  NotificationTarget = "study_session"
	TargetPost          NotificationTarget = "post"
)

type Notification struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID            `gorm:"type:uuid;not null;index:idx_notifications_user_time,priority:1" json:"user_id"`
	Type        NotificationType     `gorm:"size:3;not null;default:'GEN';index" json:"type"`
	Title       string               `gorm:"size:255;not null" json:"title"`
	Message     string               `gorm:"type:text" json:"message"`
	Link        *string              `gorm:"size:500" json:"link,omitempty"`
	Priority    NotificationPriority `gorm:"size:1;not null;default:'M'" json:"priority"`
	TargetKind  NotificationTarget   `gorm:"size:20;default:''" json:"target_kind"`
	TargetID    *uuid.UUID           `gorm:"type:uuid" json:"target_id,omitempty"`
	IsRead      bool                 `gorm:"default:false;index:idx_notifications_state,priority:1" json:"is_read"`
	IsDismissed bool                 `gorm:"default:false;index:idx_notifications_state,priority:2" json:"is_dismissed"`
	CreatedAt   time.Time            `gorm:"autoCreateTime;index:idx_notifications_user_time,priority:2,sort:desc" json:"created_at"`
	ReadAt      *time.Time           `json:"read_at,omitempty"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID, err = uuid.NewV7()
	}
	return
}

// IsRecent reports whether the notification is less than 24 hours old.
// Computed at read time, never stored.
func (n *Notification) IsRecent() bool {
	return time.Since(n.CreatedAt) < 24*time.Hour
}
