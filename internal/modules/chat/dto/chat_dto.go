package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartConversationInput struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
}

type SendMessageInput struct {
	Content string `json:"content" binding:"required,max=5000"`
}

type ParticipantInfo struct {
	UserID            uuid.UUID `json:"user_id"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
}

type MessageResponse struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	SenderUsername string    `json:"sender_username,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationSummary struct {
	ID                 uuid.UUID        `json:"id"`
	OtherParticipant   *ParticipantInfo `json:"other_participant,omitempty"`
	LastMessagePreview string           `json:"last_message_preview"`
	LastMessageAt      *time.Time       `json:"last_message_at,omitempty"`
	UnreadCount        int64            `json:"unread_count"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

type MarkReadResponse struct {
	MarkedRead int64 `json:"marked_read"`
}
