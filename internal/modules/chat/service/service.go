package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/chat/dto"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/chat/repository"
	userRepo "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/user/repository"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/apperror"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/ratelimiter"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// PreviewLimit is the maximum rune length of a conversation's last message
// preview.
const PreviewLimit = 80

// MessagePreview truncates message content for conversation listings.
func MessagePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewLimit {
		return content
	}
	return string(runes[:PreviewLimit-3]) + "..."
}

type ChatService interface {
	StartConversation(ctx context.Context, userID uuid.UUID, input dto.StartConversationInput) (*entity.Conversation, error)
	SendMessage(ctx context.Context, userID, conversationID uuid.UUID, input dto.SendMessageInput) (*entity.Message, error)
	MarkRead(ctx context.Context, userID, conversationID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID, conversationID uuid.UUID) (int64, error)
	ListMessages(ctx context.Context, userID, conversationID uuid.UUID, limit, offset int) ([]dto.MessageResponse, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]dto.ConversationSummary, error)
	DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error
}

type chatService struct {
	db           *gorm.DB
	repo         repository.ChatRepository
	users        userRepo.UserRepository
	redisClient  *redis.Client
	messageLimit time.Duration
}

func NewChatService(db *gorm.DB, repo repository.ChatRepository, users userRepo.UserRepository, redisClient *redis.Client, messageLimit time.Duration) ChatService {
	return &chatService{
		db:           db,
		repo:         repo,
		users:        users,
		redisClient:  redisClient,
		messageLimit: messageLimit,
	}
}

// StartConversation returns the existing conversation for the pair, creating
// it first when the two users have never talked.
func (s *chatService) StartConversation(ctx context.Context, userID uuid.UUID, input dto.StartConversationInput) (*entity.Conversation, error) {
	other, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if other.ID == userID {
		return nil, fmt.Errorf("cannot start a conversation with yourself: %w", apperror.ErrInvalidInput)
	}

	var conv *entity.Conversation
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.NewChatRepository(tx)

		existing, err := txRepo.FindConversationByPair(ctx, userID, other.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			conv = existing
			return nil
		}

		created := &entity.Conversation{
			UpdatedAt: time.Now(),
			Participants: []entity.ConversationParticipant{
				{UserID: userID},
				{UserID: other.ID},
			},
		}
		if err := txRepo.CreateConversation(ctx, created); err != nil {
			return err
		}
		conv = created
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return conv, nil
}

func (s *chatService) SendMessage(ctx context.Context, userID, conversationID uuid.UUID, input dto.SendMessageInput) (*entity.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, fmt.Errorf("message content cannot be empty: %w", apperror.ErrInvalidInput)
	}

	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	if err := ratelimiter.Check(ctx, s.redisClient, userID, "message", s.messageLimit); err != nil {
		return nil, err
	}

	var msg *entity.Message
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.NewChatRepository(tx)

		created := &entity.Message{
			ConversationID: conversationID,
			SenderID:       userID,
			Content:        content,
		}
		if err := txRepo.CreateMessage(ctx, created); err != nil {
			return err
		}

		// The sender has read their own message by definition.
		if err := txRepo.CreateMessageRead(ctx, &entity.MessageRead{
			MessageID: created.ID,
			UserID:    userID,
		}); err != nil {
			return err
		}

		if err := txRepo.TouchConversation(ctx, conversationID, created.CreatedAt); err != nil {
			return err
		}

		msg = created
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return msg, nil
}

func (s *chatService) MarkRead(ctx context.Context, userID, conversationID uuid.UUID) (int64, error) {
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return 0, err
	}
	return s.repo.MarkConversationRead(ctx, conversationID, userID)
}

func (s *chatService) UnreadCount(ctx context.Context, userID, conversationID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, nil
	}
	return s.repo.UnreadCount(ctx, conversationID, userID)
}

func (s *chatService) ListMessages(ctx context.Context, userID, conversationID uuid.UUID, limit, offset int) ([]dto.MessageResponse, error) {
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		item := dto.MessageResponse{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			SenderID:       m.SenderID,
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
		}
		if m.Sender != nil {
			item.SenderUsername = m.Sender.Username
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *chatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]dto.ConversationSummary, error) {
	convs, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary := dto.ConversationSummary{
			ID:        conv.ID,
			UpdatedAt: conv.UpdatedAt,
		}

		for _, p := range conv.Participants {
			if p.UserID == userID || p.User == nil {
				continue
			}
			info := &dto.ParticipantInfo{
				UserID:   p.UserID,
				Username: p.User.Username,
			}
			if p.User.Profile != nil {
				info.ProfilePictureURL = p.User.Profile.ProfilePictureURL
			}
			summary.OtherParticipant = info
		}

		last, err := s.repo.LastMessage(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			summary.LastMessagePreview = MessagePreview(last.Content)
			at := last.CreatedAt
			summary.LastMessageAt = &at
		}

		if summary.UnreadCount, err = s.repo.UnreadCount(ctx, conv.ID, userID); err != nil {
			return nil, err
		}

		out = append(out, summary)
	}
	return out, nil
}

func (s *chatService) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	if err := s.requireParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.repo.DeleteConversation(ctx, conversationID)
}

func (s *chatService) requireParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	if _, err := s.repo.FindConversationByID(ctx, conversationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	ok, err := s.repo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not a participant of this conversation: %w", apperror.ErrForbidden)
	}
	return nil
}
