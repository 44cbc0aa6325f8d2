package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed request between two profiles. The (from,to)
// pair is unique; accepted and rejected are terminal states.
type FriendRequest struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	FromProfileID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_friend_request_pair,priority:1" json:"from_profile_id"`
	ToProfileID   uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_friend_request_pair,priority:2" json:"to_profile_id"`
	Status        FriendRequestStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	RespondedAt   *time.Time          `json:"responded_at,omitempty"`

	FromProfile *Profile `gorm:"foreignKey:FromProfileID;references:UserID;constraint:OnDelete:CASCADE" json:"from_profile,omitempty"`
	ToProfile   *Profile `gorm:"foreignKey:ToProfileID;references:UserID;constraint:OnDelete:CASCADE" json:"to_profile,omitempty"`
}

func (f *FriendRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}

func (f *FriendRequest) IsPending() bool {
	return f.Status == FriendRequestPending
}

// Friendship is an undirected edge stored once in canonical order
// (UserID1 < UserID2 by string comparison). Both directions of the
// symmetric relation read from this single row.
type Friendship struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID1   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_pair,priority:1" json:"user_id_1"`
	UserID2   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_friendship_pair,priority:2" json:"user_id_2"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	User1 *User `gorm:"foreignKey:UserID1;constraint:OnDelete:CASCADE" json:"-"`
	User2 *User `gorm:"foreignKey:UserID2;constraint:OnDelete:CASCADE" json:"-"`
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}

// EnsureCanonicalOrder swaps the pair so UserID1 sorts before UserID2.
// Must be called before persisting.
func (f *Friendship) EnsureCanonicalOrder() {
	if strings.Compare(f.UserID1.String(), f.UserID2.String()) > 0 {
		f.UserID1, f.UserID2 = f.UserID2, f.UserID1
	}
}

// CanonicalPair returns any two user ids in canonical storage order.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) > 0 {
		return b, a
	}
	return a, b
}

// Follow is a directed edge: follower watches followee.
type Follow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FollowerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair,priority:1" json:"follower_id"`
	FolloweeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair,priority:2;index" json:"followee_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Follower *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followee *User `gorm:"foreignKey:FolloweeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID, err = uuid.NewV7()
	}
	return
}
