package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *entity.User {
	tb.Helper()
	u := &entity.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "pw",
		IsActive:     true,
		Profile:      &entity.Profile{},
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedFriendRequest(tb testing.TB, ctx context.Context, tx *gorm.DB, fromID, toID uuid.UUID) *entity.FriendRequest {
	tb.Helper()
	fr := &entity.FriendRequest{
		FromProfileID: fromID,
		ToProfileID:   toID,
		Status:        entity.FriendRequestPending,
	}
	if err := tx.WithContext(ctx).Create(fr).Error; err != nil {
		tb.Fatalf("seed friend request: %v", err)
	}
	return fr
}

func SeedFriendship(tb testing.TB, ctx context.Context, tx *gorm.DB, a, b uuid.UUID) *entity.Friendship {
	tb.Helper()
	f := &entity.Friendship{UserID1: a, UserID2: b}
	f.EnsureCanonicalOrder()
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed friendship: %v", err)
	}
	return f
}

func SeedConversation(tb testing.TB, ctx context.Context, tx *gorm.DB, a, b uuid.UUID) *entity.Conversation {
	tb.Helper()
	c := &entity.Conversation{
		UpdatedAt: time.Now(),
		Participants: []entity.ConversationParticipant{
			{UserID: a},
			{UserID: b},
		},
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation: %v", err)
	}
	return c
}

func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, conversationID, senderID uuid.UUID, content string) *entity.Message {
	tb.Helper()
	m := &entity.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	read := &entity.MessageRead{MessageID: m.ID, UserID: senderID}
	if err := tx.WithContext(ctx).Create(read).Error; err != nil {
		tb.Fatalf("seed sender read row: %v", err)
	}
	return m
}

func SeedSubject(tb testing.TB, ctx context.Context, tx *gorm.DB, name, slug string) *entity.Subject {
	tb.Helper()
	s := &entity.Subject{Name: name, Slug: slug}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed subject: %v", err)
	}
	return s
}

func SeedPost(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, caption string, isPublic bool) *entity.Post {
	tb.Helper()
	p := &entity.Post{
		UserID:   userID,
		Caption:  caption,
		IsPublic: isPublic,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed post: %v", err)
	}
	return p
}

func SeedStudySession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, subjectID uuid.UUID, start time.Time) *entity.StudySession {
	tb.Helper()
	s := &entity.StudySession{
		UserID:    userID,
		SubjectID: subjectID,
		StartTime: start,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed study session: %v", err)
	}
	return s
}

func SeedNotification(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string) *entity.Notification {
	tb.Helper()
	n := &entity.Notification{
		UserID:   userID,
		Type:     entity.NotificationGeneral,
		Title:    title,
		Priority: entity.PriorityMedium,
	}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed notification: %v", err)
	}
	return n
}
