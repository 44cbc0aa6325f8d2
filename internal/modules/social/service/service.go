package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/social/dto"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/social/repository"
	userRepo "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/user/repository"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/apperror"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationCreator is the slice of the notification service the social
// graph needs for its side effects.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, notification *entity.Notification) error
}

type SocialService interface {
	// SendFriendRequest returns the created or affected request. A nil
	// request with nil error means the call was a no-op (already friends,
	// or a terminal request for this pair already exists).
	SendFriendRequest(ctx context.Context, fromUserID uuid.UUID, input dto.SendFriendRequestInput) (*entity.FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, actorUserID, requestID uuid.UUID) (*entity.FriendRequest, error)
	RejectFriendRequest(ctx context.Context, actorUserID, requestID uuid.UUID) (*entity.FriendRequest, error)
	RemoveFriend(ctx context.Context, userID uuid.UUID, username string) error
	FollowUser(ctx context.Context, followerID uuid.UUID, input dto.FollowInput) error
	UnfollowUser(ctx context.Context, followerID uuid.UUID, input dto.FollowInput) error
	IsFriend(ctx context.Context, a, b uuid.UUID) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	GetProfile(ctx context.Context, username string, viewerID uuid.UUID) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileInput) (*entity.Profile, error)
	UploadProfilePicture(ctx context.Context, userID uuid.UUID, r io.Reader, fileName string) (string, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]dto.FriendInfo, error)
	ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]dto.FriendRequestResponse, error)
}

type socialService struct {
	db           *gorm.DB
	repo         repository.SocialRepository
	users        userRepo.UserRepository
	notifier     NotificationCreator
	imageStorage storage.ImageStorage
}

func NewSocialService(db *gorm.DB, repo repository.SocialRepository, users userRepo.UserRepository, notifier NotificationCreator, imageStorage storage.ImageStorage) SocialService {
	return &socialService{
		db:           db,
		repo:         repo,
		users:        users,
		notifier:     notifier,
		imageStorage: imageStorage,
	}
}

func (s *socialService) SendFriendRequest(ctx context.Context, fromUserID uuid.UUID, input dto.SendFriendRequestInput) (*entity.FriendRequest, error) {
	target, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if target.ID == fromUserID {
		return nil, fmt.Errorf("cannot send a friend request to yourself: %w", apperror.ErrInvalidInput)
	}

	areFriends, err := s.repo.AreFriends(ctx, fromUserID, target.ID)
	if err != nil {
		return nil, err
	}
	if areFriends {
		return nil, nil
	}

	// A pending request in the reverse direction means both sides want the
	// friendship: accept that one instead of creating a crossed duplicate.
	reverse, err := s.repo.FindPendingByPair(ctx, target.ID, fromUserID)
	if err != nil {
		return nil, err
	}
	if reverse != nil {
		return s.acceptTx(ctx, fromUserID, reverse.ID)
	}

	existing, err := s.repo.FindRequestByPair(ctx, fromUserID, target.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.IsPending() {
			// Re-send is idempotent
			return existing, nil
		}
		return nil, nil
	}

	request := &entity.FriendRequest{
		FromProfileID: fromUserID,
		ToProfileID:   target.ID,
		Status:        entity.FriendRequestPending,
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	s.notifyRequestReceived(ctx, request, fromUserID)

	return request, nil
}

func (s *socialService) AcceptFriendRequest(ctx context.Context, actorUserID, requestID uuid.UUID) (*entity.FriendRequest, error) {
	return s.acceptTx(ctx, actorUserID, requestID)
}

// acceptTx flips the request to accepted and creates the friendship edge in
// one transaction, so an accepted request without its edge is never visible.
func (s *socialService) acceptTx(ctx context.Context, actorUserID, requestID uuid.UUID) (*entity.FriendRequest, error) {
	var accepted *entity.FriendRequest

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := repository.NewSocialRepository(tx)

		request, err := txRepo.FindRequestByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.ErrNotFound
			}
			return err
		}

		if request.ToProfileID != actorUserID {
			return fmt.Errorf("only the recipient may respond: %w", apperror.ErrForbidden)
		}
		if !request.IsPending() {
			return fmt.Errorf("request already %s: %w", request.Status, apperror.ErrConflict)
		}

		now := time.Now()
		request.Status = entity.FriendRequestAccepted
		request.RespondedAt = &now
		if err := txRepo.SaveRequest(ctx, request); err != nil {
			return err
		}

		areFriends, err := txRepo.AreFriends(ctx, request.FromProfileID, request.ToProfileID)
		if err != nil {
			return err
		}
		if !areFriends {
			friendship := &entity.Friendship{
				UserID1: request.FromProfileID,
				UserID2: request.ToProfileID,
			}
			if err := txRepo.CreateFriendship(ctx, friendship); err != nil {
				return err
			}
		}

		accepted = request
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notifyRequestAccepted(ctx, accepted)

	return accepted, nil
}

func (s *socialService) RejectFriendRequest(ctx context.Context, actorUserID, requestID uuid.UUID) (*entity.FriendRequest, error) {
	request, err := s.repo.FindRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if request.ToProfileID != actorUserID {
		return nil, fmt.Errorf("only the recipient may respond: %w", apperror.ErrForbidden)
	}
	if !request.IsPending() {
		return nil, fmt.Errorf("request already %s: %w", request.Status, apperror.ErrConflict)
	}

	now := time.Now()
	request.Status = entity.FriendRequestRejected
	request.RespondedAt = &now
	if err := s.repo.SaveRequest(ctx, request); err != nil {
		return nil, err
	}

	return request, nil
}

func (s *socialService) RemoveFriend(ctx context.Context, userID uuid.UUID, username string) error {
	other, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	// Deleting an absent edge is a no-op by design of the canonical pair
	return s.repo.DeleteFriendship(ctx, userID, other.ID)
}

func (s *socialService) FollowUser(ctx context.Context, followerID uuid.UUID, input dto.FollowInput) error {
	target, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if target.ID == followerID {
		return fmt.Errorf("cannot follow yourself: %w", apperror.ErrInvalidInput)
	}

	following, err := s.repo.IsFollowing(ctx, followerID, target.ID)
	if err != nil {
		return err
	}
	if following {
		return nil
	}

	return s.repo.CreateFollow(ctx, &entity.Follow{
		FollowerID: followerID,
		FolloweeID: target.ID,
	})
}

func (s *socialService) UnfollowUser(ctx context.Context, followerID uuid.UUID, input dto.FollowInput) error {
	target, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	return s.repo.DeleteFollow(ctx, followerID, target.ID)
}

func (s *socialService) IsFriend(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return s.repo.AreFriends(ctx, a, b)
}

func (s *socialService) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	return s.repo.IsFollowing(ctx, followerID, followeeID)
}

func (s *socialService) GetProfile(ctx context.Context, username string, viewerID uuid.UUID) (*dto.ProfileResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	resp := &dto.ProfileResponse{
		UserID:   user.ID,
		Username: user.Username,
	}
	if user.Profile != nil {
		resp.Bio = user.Profile.Bio
		resp.ProfilePictureURL = user.Profile.ProfilePictureURL
	}

	if resp.FriendCount, err = s.repo.CountFriends(ctx, user.ID); err != nil {
		return nil, err
	}
	if resp.FollowerCount, err = s.repo.CountFollowers(ctx, user.ID); err != nil {
		return nil, err
	}
	if resp.FollowingCount, err = s.repo.CountFollowing(ctx, user.ID); err != nil {
		return nil, err
	}

	if viewerID != uuid.Nil && viewerID != user.ID {
		if resp.IsFriend, err = s.repo.AreFriends(ctx, viewerID, user.ID); err != nil {
			return nil, err
		}
		if resp.IsFollowing, err = s.repo.IsFollowing(ctx, viewerID, user.ID); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

func (s *socialService) UpdateProfile(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileInput) (*entity.Profile, error) {
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if input.Bio != nil {
		profile.Bio = *input.Bio
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *socialService) UploadProfilePicture(ctx context.Context, userID uuid.UUID, r io.Reader, fileName string) (string, error) {
	if s.imageStorage == nil {
		return "", apperror.ErrInternal
	}

	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.ErrNotFound
		}
		return "", err
	}

	url, err := s.imageStorage.UploadImage(ctx, r, "profile_pictures", fileName)
	if err != nil {
		return "", err
	}

	old := profile.ProfilePictureURL
	profile.ProfilePictureURL = &url
	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return "", err
	}

	if old != nil && *old != "" {
		if err := s.imageStorage.DeleteImage(ctx, *old); err != nil {
			log.Printf("failed to delete old profile picture: %v", err)
		}
	}

	return url, nil
}

func (s *socialService) ListFriends(ctx context.Context, userID uuid.UUID) ([]dto.FriendInfo, error) {
	friendships, err := s.repo.FriendshipsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends := make([]dto.FriendInfo, 0, len(friendships))
	for _, f := range friendships {
		other := f.User1
		if f.UserID1 == userID {
			other = f.User2
		}
		if other == nil {
			continue
		}
		info := dto.FriendInfo{
			UserID:       other.ID,
			Username:     other.Username,
			FriendsSince: f.CreatedAt,
		}
		if other.Profile != nil {
			info.ProfilePictureURL = other.Profile.ProfilePictureURL
		}
		friends = append(friends, info)
	}

	return friends, nil
}

func (s *socialService) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]dto.FriendRequestResponse, error) {
	requests, err := s.repo.PendingRequestsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.FriendRequestResponse, 0, len(requests))
	for _, req := range requests {
		item := dto.FriendRequestResponse{
			ID:          req.ID,
			FromID:      req.FromProfileID,
			ToID:        req.ToProfileID,
			Status:      string(req.Status),
			CreatedAt:   req.CreatedAt,
			RespondedAt: req.RespondedAt,
		}
		if req.FromProfile != nil && req.FromProfile.User != nil {
			item.Requester = &dto.RequesterInfo{
				ProfileID:         req.FromProfileID,
				Username:          req.FromProfile.User.Username,
				ProfilePictureURL: req.FromProfile.ProfilePictureURL,
			}
		}
		out = append(out, item)
	}

	return out, nil
}

func (s *socialService) notifyRequestReceived(ctx context.Context, request *entity.FriendRequest, fromUserID uuid.UUID) {
	if s.notifier == nil {
		return
	}

	sender, err := s.users.FindByID(ctx, fromUserID)
	if err != nil {
		log.Printf("failed to load requester %s for notification: %v", fromUserID, err)
		return
	}

	requestID := request.ID
	notif := &entity.Notification{
		UserID:     request.ToProfileID,
		Type:       entity.NotificationFriendRequest,
		Title:      "New friend request",
		Message:    fmt.Sprintf("%s sent you a friend request", sender.Username),
		Priority:   entity.PriorityMedium,
		TargetKind: entity.TargetFriendRequest,
		TargetID:   &requestID,
	}
	if err := s.notifier.CreateNotification(ctx, notif); err != nil {
		log.Printf("failed to create friend request notification: %v", err)
	}
}

func (s *socialService) notifyRequestAccepted(ctx context.Context, request *entity.FriendRequest) {
	if s.notifier == nil || request == nil {
		return
	}

	accepter, err := s.users.FindByID(ctx, request.ToProfileID)
	if err != nil {
		log.Printf("failed to load accepter %s for notification: %v", request.ToProfileID, err)
		return
	}

	requestID := request.ID
	notif := &entity.Notification{
		UserID:     request.FromProfileID,
		Type:       entity.NotificationFriendRequest,
		Title:      "Friend request accepted",
		Message:    fmt.Sprintf("%s accepted your friend request", accepter.Username),
		Priority:   entity.PriorityMedium,
		TargetKind: entity.TargetFriendRequest,
		TargetID:   &requestID,
	}
	if err := s.notifier.CreateNotification(ctx, notif); err != nil {
		log.Printf("failed to create acceptance notification: %v", err)
	}
}
