package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository interface {
	FindConversationByPair(ctx context.Context, a, b uuid.UUID) (*entity.Conversation, error)
	FindConversationByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	CreateConversation(ctx context.Context, conv *entity.Conversation) error
	DeleteConversation(ctx context.Context, id uuid.UUID) error
	TouchConversation(ctx context.Context, id uuid.UUID, at time.Time) error
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]entity.Conversation, error)

	CreateMessage(ctx context.Context, msg *entity.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]entity.Message, error)
	LastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error)

	CreateMessageRead(ctx context.Context, read *entity.MessageRead) error
	MarkConversationRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// FindConversationByPair returns the two-party conversation both users are in,
// or nil when none exists yet.
func (r *chatRepository) FindConversationByPair(ctx context.Context, a, b uuid.UUID) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_participants p1 ON p1.conversation_id = conversations.id AND p1.user_id = ?", a).
		Joins("JOIN conversation_participants p2 ON p2.conversation_id = conversations.id AND p2.user_id = ?", b).
		Preload("Participants.User.Profile").
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

func (r *chatRepository) FindConversationByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants.User.Profile").
		First(&conv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *chatRepository) CreateConversation(ctx context.Context, conv *entity.Conversation) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

// DeleteConversation removes the conversation together with its messages,
// read rows and participants in one transaction.
func (r *chatRepository) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		messageIDs := tx.Model(&entity.Message{}).
			Select("id").
			Where("conversation_id = ?", id)
		if err := tx.Where("message_id IN (?)", messageIDs).
			Delete(&entity.MessageRead{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).
			Delete(&entity.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).
			Delete(&entity.ConversationParticipant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Conversation{}, "id = ?", id).Error
	})
}

func (r *chatRepository) TouchConversation(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", at).Error
}

func (r *chatRepository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *chatRepository) ListConversations(ctx context.Context, userID uuid.UUID) ([]entity.Conversation, error) {
	var convs []entity.Conversation
	err := r.db.WithContext(ctx).
		Joins("JOIN conversation_participants p ON p.conversation_id = conversations.id AND p.user_id = ?", userID).
		Preload("Participants.User.Profile").
		Order("conversations.updated_at DESC").
		Find(&convs).Error
	return convs, err
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *entity.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// ListMessages returns messages oldest first. The id tiebreak keeps the order
// stable for messages created in the same instant.
func (r *chatRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]entity.Message, error) {
	var messages []entity.Message
	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Preload("Sender").
		Order("created_at ASC, id ASC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&messages).Error
	return messages, err
}

func (r *chatRepository) LastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error) {
	var msg entity.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *chatRepository) CreateMessageRead(ctx context.Context, read *entity.MessageRead) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(read).Error
}

// MarkConversationRead inserts a read row for every message in the
// conversation the user has not read yet, and reports how many it inserted.
// Calling it again is a no-op.
func (r *chatRepository) MarkConversationRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		INSERT INTO message_reads (message_id, user_id, read_at)
		SELECT m.id, ?, NOW()
		FROM messages m
		WHERE m.conversation_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads mr
			WHERE mr.message_id = m.id AND mr.user_id = ?
		  )`, userID, conversationID, userID)
	return result.RowsAffected, result.Error
}

func (r *chatRepository) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ?", conversationID).
		Where("NOT EXISTS (SELECT 1 FROM message_reads mr WHERE mr.message_id = messages.id AND mr.user_id = ?)", userID).
		Count(&count).Error
	return count, err
}
