package repository

import (
	"context"
	"errors"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SocialRepository interface {
	FindProfile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, profile *entity.Profile) error

	CreateRequest(ctx context.Context, req *entity.FriendRequest) error
	SaveRequest(ctx context.Context, req *entity.FriendRequest) error
	FindRequestByID(ctx context.Context, id uuid.UUID) (*entity.FriendRequest, error)
	// FindRequestByPair looks up the request in the given direction
	// regardless of status; returns nil when absent.
	FindRequestByPair(ctx context.Context, fromID, toID uuid.UUID) (*entity.FriendRequest, error)
	FindPendingByPair(ctx context.Context, fromID, toID uuid.UUID) (*entity.FriendRequest, error)
	PendingRequestsFor(ctx context.Context, profileID uuid.UUID) ([]*entity.FriendRequest, error)

	CreateFriendship(ctx context.Context, f *entity.Friendship) error
	DeleteFriendship(ctx context.Context, a, b uuid.UUID) error
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
	FriendshipsOf(ctx context.Context, userID uuid.UUID) ([]*entity.Friendship, error)
	CountFriends(ctx context.Context, userID uuid.UUID) (int64, error)

	CreateFollow(ctx context.Context, f *entity.Follow) error
	DeleteFollow(ctx context.Context, followerID, followeeID uuid.UUID) error
	IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error)
}

type socialRepository struct {
	db *gorm.DB
}

func NewSocialRepository(db *gorm.DB) SocialRepository {
	return &socialRepository{db: db}
}

func (r *socialRepository) FindProfile(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *socialRepository) UpdateProfile(ctx context.Context, profile *entity.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *socialRepository) CreateRequest(ctx context.Context, req *entity.FriendRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *socialRepository) SaveRequest(ctx context.Context, req *entity.FriendRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *socialRepository) FindRequestByID(ctx context.Context, id uuid.UUID) (*entity.FriendRequest, error) {
	var req entity.FriendRequest
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *socialRepository) FindRequestByPair(ctx context.Context, fromID, toID uuid.UUID) (*entity.FriendRequest, error) {
	var req entity.FriendRequest
	err := r.db.WithContext(ctx).
		Where("from_profile_id = ? AND to_profile_id = ?", fromID, toID).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *socialRepository) FindPendingByPair(ctx context.Context, fromID, toID uuid.UUID) (*entity.FriendRequest, error) {
	var req entity.FriendRequest
	err := r.db.WithContext(ctx).
		Where("from_profile_id = ? AND to_profile_id = ? AND status = ?",
			fromID, toID, entity.FriendRequestPending).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *socialRepository) PendingRequestsFor(ctx context.Context, profileID uuid.UUID) ([]*entity.FriendRequest, error) {
	var requests []*entity.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("FromProfile").
		Preload("FromProfile.User").
		Where("to_profile_id = ? AND status = ?", profileID, entity.FriendRequestPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *socialRepository) CreateFriendship(ctx context.Context, f *entity.Friendship) error {
	f.EnsureCanonicalOrder()
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *socialRepository) DeleteFriendship(ctx context.Context, a, b uuid.UUID) error {
	lo, hi := entity.CanonicalPair(a, b)
	return r.db.WithContext(ctx).
		Where("user_id_1 = ? AND user_id_2 = ?", lo, hi).
		Delete(&entity.Friendship{}).Error
}

func (r *socialRepository) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	lo, hi := entity.CanonicalPair(a, b)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Friendship{}).
		Where("user_id_1 = ? AND user_id_2 = ?", lo, hi).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *socialRepository) FriendshipsOf(ctx context.Context, userID uuid.UUID) ([]*entity.Friendship, error) {
	var friendships []*entity.Friendship
	err := r.db.WithContext(ctx).
		Preload("User1").
		Preload("User1.Profile").
		Preload("User2").
		Preload("User2.Profile").
		Where("user_id_1 = ? OR user_id_2 = ?", userID, userID).
		Order("created_at DESC").
		Find(&friendships).Error
	return friendships, err
}

func (r *socialRepository) CountFriends(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Friendship{}).
		Where("user_id_1 = ? OR user_id_2 = ?", userID, userID).
		Count(&count).Error
	return count, err
}

func (r *socialRepository) CreateFollow(ctx context.Context, f *entity.Follow) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *socialRepository) DeleteFollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&entity.Follow{}).Error
}

func (r *socialRepository) IsFollowing(ctx context.Context, followerID, followeeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *socialRepository) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Follow{}).
		Where("followee_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *socialRepository) CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Follow{}).
		Where("follower_id = ?", userID).
		Count(&count).Error
	return count, err
}
