package repository

import (
	"context"
	"errors"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error)
	Update(ctx context.Context, post *entity.Post) error
	ReplaceSubjects(ctx context.Context, post *entity.Post, subjects []entity.Subject) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListPublic(ctx context.Context, limit, offset int) ([]entity.Post, error)
	ListByUser(ctx context.Context, userID uuid.UUID, includePrivate bool, limit, offset int) ([]entity.Post, error)
	ListSavedBy(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Post, error)

	FindOrCreateSubject(ctx context.Context, name, slug string) (*entity.Subject, error)

	CountLikes(ctx context.Context, postID uuid.UUID) (int64, error)
	CountSaves(ctx context.Context, postID uuid.UUID) (int64, error)
	HasLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	HasSaved(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	CreateLike(ctx context.Context, like *entity.PostLike) error
	DeleteLike(ctx context.Context, postID, userID uuid.UUID) error
	CreateSave(ctx context.Context, save *entity.PostSave) error
	DeleteSave(ctx context.Context, postID, userID uuid.UUID) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	var post entity.Post
	err := r.db.WithContext(ctx).
		Preload("User.Profile").
		Preload("Subjects").
		First(&post, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *entity.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) ReplaceSubjects(ctx context.Context, post *entity.Post, subjects []entity.Subject) error {
	return r.db.WithContext(ctx).Model(post).Association("Subjects").Replace(subjects)
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Select("Subjects").Delete(&entity.Post{ID: id}).Error
}

func (r *postRepository) ListPublic(ctx context.Context, limit, offset int) ([]entity.Post, error) {
	var posts []entity.Post
	q := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Preload("User.Profile").
		Preload("Subjects").
		Order("created_at DESC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListByUser(ctx context.Context, userID uuid.UUID, includePrivate bool, limit, offset int) ([]entity.Post, error) {
	var posts []entity.Post
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("User.Profile").
		Preload("Subjects").
		Order("created_at DESC").
		Offset(offset)
	if !includePrivate {
		q = q.Where("is_public = ?", true)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&posts).Error
	return posts, err
}

func (r *postRepository) ListSavedBy(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Post, error) {
	var posts []entity.Post
	q := r.db.WithContext(ctx).
		Joins("JOIN post_saves ps ON ps.post_id = posts.id AND ps.user_id = ?", userID).
		Preload("User.Profile").
		Preload("Subjects").
		Order("ps.created_at DESC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&posts).Error
	return posts, err
}

func (r *postRepository) FindOrCreateSubject(ctx context.Context, name, slug string) (*entity.Subject, error) {
	var subject entity.Subject
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&subject).Error
	if err == nil {
		return &subject, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	subject = entity.Subject{Name: name, Slug: slug}
	if err := r.db.WithContext(ctx).Create(&subject).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *postRepository) CountLikes(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.PostLike{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}

func (r *postRepository) CountSaves(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.PostSave{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}

func (r *postRepository) HasLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *postRepository) HasSaved(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.PostSave{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *postRepository) CreateLike(ctx context.Context, like *entity.PostLike) error {
	return r.db.WithContext(ctx).Create(like).Error
}

func (r *postRepository) DeleteLike(ctx context.Context, postID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&entity.PostLike{}, "post_id = ? AND user_id = ?", postID, userID).Error
}

func (r *postRepository) CreateSave(ctx context.Context, save *entity.PostSave) error {
	return r.db.WithContext(ctx).Create(save).Error
}

func (r *postRepository) DeleteSave(ctx context.Context, postID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&entity.PostSave{}, "post_id = ? AND user_id = ?", postID, userID).Error
}
