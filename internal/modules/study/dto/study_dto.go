package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartSessionInput struct {
	Subject string `json:"subject" binding:"required,min=1,max=100"`
	Notes   string `json:"notes" binding:"omitempty,max=2000"`
}

type EndSessionInput struct {
	Notes *string `json:"notes" binding:"omitempty,max=2000"`
}

type SessionResponse struct {
	ID              uuid.UUID  `json:"id"`
	SubjectID       uuid.UUID  `json:"subject_id"`
	SubjectName     string     `json:"subject_name,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	Notes           string     `json:"notes"`
	IsActive        bool       `json:"is_active"`
}

type SubjectTotal struct {
	SubjectID    uuid.UUID `json:"subject_id"`
	SubjectName  string    `json:"subject_name"`
	SessionCount int64     `json:"session_count"`
	TotalSeconds float64   `json:"total_seconds"`
}

type StudyStatsResponse struct {
	SessionCount int64          `json:"session_count"`
	TotalSeconds float64        `json:"total_seconds"`
	BySubject    []SubjectTotal `json:"by_subject"`
}

type UpdatePomodoroInput struct {
	WorkDuration           *int `json:"work_duration"`
	BreakDuration          *int `json:"break_duration"`
	LongBreakDuration      *int `json:"long_break_duration"`
	SessionsUntilLongBreak *int `json:"sessions_until_long_break"`
}

type CreateAlarmInput struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Time     string `json:"time" binding:"required"`
	Days     []int  `json:"days" binding:"omitempty,max=7,dive,min=0,max=6"`
	IsActive *bool  `json:"is_active"`
}

type CreatePostItInput struct {
	Content   string `json:"content" binding:"required,min=1,max=500"`
	Color     string `json:"color" binding:"omitempty,hexcolor"`
	PositionX int    `json:"position_x"`
	PositionY int    `json:"position_y"`
}

type UpdatePostItInput struct {
	Content   *string `json:"content" binding:"omitempty,min=1,max=500"`
	Color     *string `json:"color" binding:"omitempty,hexcolor"`
	PositionX *int    `json:"position_x"`
	PositionY *int    `json:"position_y"`
}

type UpdateAlarmInput struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Time     *string `json:"time"`
	Days     *[]int  `json:"days" binding:"omitempty,max=7,dive,min=0,max=6"`
	IsActive *bool   `json:"is_active"`
}
