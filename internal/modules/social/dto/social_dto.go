package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendFriendRequestInput struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
}

type FollowInput struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
}

type UpdateProfileInput struct {
	Bio *string `json:"bio" binding:"omitempty,max=500"`
}

type RequesterInfo struct {
	ProfileID         uuid.UUID `json:"profile_id"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
}

type FriendRequestResponse struct {
	ID          uuid.UUID      `json:"id"`
	FromID      uuid.UUID      `json:"from_profile_id"`
	ToID        uuid.UUID      `json:"to_profile_id"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	RespondedAt *time.Time     `json:"responded_at,omitempty"`
	Requester   *RequesterInfo `json:"requester,omitempty"`
}

type ProfileResponse struct {
	UserID            uuid.UUID `json:"user_id"`
	Username          string    `json:"username"`
	Bio               string    `json:"bio"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	FriendCount       int64     `json:"friend_count"`
	FollowerCount     int64     `json:"follower_count"`
	FollowingCount    int64     `json:"following_count"`
	IsFriend          bool      `json:"is_friend"`
	IsFollowing       bool      `json:"is_following"`
}

type FriendInfo struct {
	UserID            uuid.UUID `json:"user_id"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	FriendsSince      time.Time `json:"friends_since"`
}
