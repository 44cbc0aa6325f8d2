package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreatePostInput struct {
	Caption  string   `json:"caption" binding:"omitempty,max=1000"`
	Subjects []string `json:"subjects" binding:"omitempty,max=10,dive,min=1,max=100"`
	IsPublic *bool    `json:"is_public"`
}

type UpdatePostInput struct {
	Caption  *string   `json:"caption" binding:"omitempty,max=1000"`
	Subjects *[]string `json:"subjects" binding:"omitempty,max=10,dive,min=1,max=100"`
	IsPublic *bool     `json:"is_public"`
}

type SubjectInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

type PostResponse struct {
	ID             uuid.UUID     `json:"id"`
	UserID         uuid.UUID     `json:"user_id"`
	Username       string        `json:"username,omitempty"`
	Caption        string        `json:"caption"`
	ImageURL       *string       `json:"image_url,omitempty"`
	IsPublic       bool          `json:"is_public"`
	Subjects       []SubjectInfo `json:"subjects"`
	LikeCount      int64         `json:"like_count"`
	SaveCount      int64         `json:"save_count"`
	LikedByViewer  bool          `json:"liked_by_viewer"`
	SavedByViewer  bool          `json:"saved_by_viewer"`
	RelevanceScore float64       `json:"relevance_score"`
	CreatedAt      time.Time     `json:"created_at"`
}

type ToggleResponse struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}
