package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/post/dto"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/post/repository"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/apperror"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/ratelimiter"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	likeWeight = 1.0
	saveWeight = 1.5
)

// RelevanceScore ranks a post by engagement. Saves weigh more than likes
// because bookmarking signals stronger intent than a tap.
func RelevanceScore(likes, saves int64) float64 {
	return float64(likes)*likeWeight + float64(saves)*saveWeight
}

var slugInvalidChars = regexp.MustCompile("[^a-z0-9 ]+")

// Slugify lowercases a subject name and keeps only [a-z0-9-].
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = strings.ReplaceAll(slug, " ", "-")
	return strings.Trim(slug, "-")
}

// PostIndexer pushes posts into the search index. A nil indexer disables
// indexing.
type PostIndexer interface {
	IndexPost(ctx context.Context, post *entity.Post) error
	RemovePost(ctx context.Context, postID uuid.UUID) error
}

type PostService interface {
	CreatePost(ctx context.Context, userID uuid.UUID, input dto.CreatePostInput, image io.Reader, imageName string) (*dto.PostResponse, error)
	UpdatePost(ctx context.Context, userID, postID uuid.UUID, input dto.UpdatePostInput) (*dto.PostResponse, error)
	DeletePost(ctx context.Context, userID, postID uuid.UUID) error
	GetPost(ctx context.Context, viewerID, postID uuid.UUID) (*dto.PostResponse, error)
	ToggleLike(ctx context.Context, userID, postID uuid.UUID) (*dto.ToggleResponse, error)
	ToggleSave(ctx context.Context, userID, postID uuid.UUID) (*dto.ToggleResponse, error)
	Feed(ctx context.Context, viewerID uuid.UUID, limit, offset int) ([]dto.PostResponse, error)
	ListByUser(ctx context.Context, viewerID uuid.UUID, username string, limit, offset int) ([]dto.PostResponse, error)
	ListSaved(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.PostResponse, error)
}

// UserFinder resolves usernames for post listings.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
}

type postService struct {
	repo         repository.PostRepository
	users        UserFinder
	imageStorage storage.ImageStorage
	indexer      PostIndexer
	redisClient  *redis.Client
	postLimit    time.Duration
}

func NewPostService(repo repository.PostRepository, users UserFinder, imageStorage storage.ImageStorage, indexer PostIndexer, redisClient *redis.Client, postLimit time.Duration) PostService {
	return &postService{
		repo:         repo,
		users:        users,
		imageStorage: imageStorage,
		indexer:      indexer,
		redisClient:  redisClient,
		postLimit:    postLimit,
	}
}

func (s *postService) CreatePost(ctx context.Context, userID uuid.UUID, input dto.CreatePostInput, image io.Reader, imageName string) (*dto.PostResponse, error) {
	// A post needs a caption or an image; image-only posts are fine.
	caption := strings.TrimSpace(input.Caption)
	if caption == "" && image == nil {
		return nil, fmt.Errorf("post needs a caption or an image: %w", apperror.ErrInvalidInput)
	}

	if err := ratelimiter.Check(ctx, s.redisClient, userID, "post", s.postLimit); err != nil {
		return nil, err
	}

	subjects, err := s.resolveSubjects(ctx, input.Subjects)
	if err != nil {
		_ = ratelimiter.Clear(ctx, s.redisClient, userID, "post")
		return nil, err
	}

	post := &entity.Post{
		UserID:   userID,
		Caption:  caption,
		IsPublic: true,
		Subjects: subjects,
	}
	if input.IsPublic != nil {
		post.IsPublic = *input.IsPublic
	}

	if image != nil && s.imageStorage != nil {
		url, err := s.imageStorage.UploadImage(ctx, image, "posts", imageName)
		if err != nil {
			_ = ratelimiter.Clear(ctx, s.redisClient, userID, "post")
			return nil, err
		}
		post.ImageURL = &url
	}

	if err := s.repo.Create(ctx, post); err != nil {
		_ = ratelimiter.Clear(ctx, s.redisClient, userID, "post")
		return nil, err
	}

	s.indexPost(ctx, post)

	return s.buildResponse(ctx, post, userID)
}

func (s *postService) UpdatePost(ctx context.Context, userID, postID uuid.UUID, input dto.UpdatePostInput) (*dto.PostResponse, error) {
	post, err := s.findOwned(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	if input.Caption != nil {
		caption := strings.TrimSpace(*input.Caption)
		if caption == "" {
			return nil, fmt.Errorf("caption cannot be empty: %w", apperror.ErrInvalidInput)
		}
		post.Caption = caption
	}
	if input.IsPublic != nil {
		post.IsPublic = *input.IsPublic
	}

	if input.Subjects != nil {
		subjects, err := s.resolveSubjects(ctx, *input.Subjects)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceSubjects(ctx, post, subjects); err != nil {
			return nil, err
		}
		post.Subjects = subjects
	}

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.indexPost(ctx, post)

	return s.buildResponse(ctx, post, userID)
}

func (s *postService) DeletePost(ctx context.Context, userID, postID uuid.UUID) error {
	post, err := s.findOwned(ctx, userID, postID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		return err
	}

	s.invalidateCounts(ctx, postID)

	if post.ImageURL != nil && s.imageStorage != nil {
		if err := s.imageStorage.DeleteImage(ctx, *post.ImageURL); err != nil {
			log.Printf("failed to delete post image: %v", err)
		}
	}

	if s.indexer != nil {
		if err := s.indexer.RemovePost(ctx, postID); err != nil {
			log.Printf("failed to remove post %s from search index: %v", postID, err)
		}
	}

	return nil
}

func (s *postService) GetPost(ctx context.Context, viewerID, postID uuid.UUID) (*dto.PostResponse, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	// Private posts are visible only to their owner.
	if !post.IsPublic && post.UserID != viewerID {
		return nil, apperror.ErrNotFound
	}

	return s.buildResponse(ctx, post, viewerID)
}

// ToggleLike flips the viewer's like on a post and returns the new state.
// An anonymous viewer is a no-op.
func (s *postService) ToggleLike(ctx context.Context, userID, postID uuid.UUID) (*dto.ToggleResponse, error) {
	if userID == uuid.Nil {
		count, err := s.repo.CountLikes(ctx, postID)
		if err != nil {
			return nil, err
		}
		return &dto.ToggleResponse{Active: false, Count: count}, nil
	}

	if _, err := s.visiblePost(ctx, userID, postID); err != nil {
		return nil, err
	}

	liked, err := s.repo.HasLiked(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if liked {
		err = s.repo.DeleteLike(ctx, postID, userID)
	} else {
		err = s.repo.CreateLike(ctx, &entity.PostLike{PostID: postID, UserID: userID})
	}
	if err != nil {
		return nil, err
	}

	s.invalidateCounts(ctx, postID)

	count, err := s.repo.CountLikes(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &dto.ToggleResponse{Active: !liked, Count: count}, nil
}

func (s *postService) ToggleSave(ctx context.Context, userID, postID uuid.UUID) (*dto.ToggleResponse, error) {
	if userID == uuid.Nil {
		count, err := s.repo.CountSaves(ctx, postID)
		if err != nil {
			return nil, err
		}
		return &dto.ToggleResponse{Active: false, Count: count}, nil
	}

	if _, err := s.visiblePost(ctx, userID, postID); err != nil {
		return nil, err
	}

	saved, err := s.repo.HasSaved(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if saved {
		err = s.repo.DeleteSave(ctx, postID, userID)
	} else {
		err = s.repo.CreateSave(ctx, &entity.PostSave{PostID: postID, UserID: userID})
	}
	if err != nil {
		return nil, err
	}

	s.invalidateCounts(ctx, postID)

	count, err := s.repo.CountSaves(ctx, postID)
	if err != nil {
		return nil, err
	}
	return &dto.ToggleResponse{Active: !saved, Count: count}, nil
}

func (s *postService) Feed(ctx context.Context, viewerID uuid.UUID, limit, offset int) ([]dto.PostResponse, error) {
	posts, err := s.repo.ListPublic(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.buildResponses(ctx, posts, viewerID)
}

func (s *postService) ListByUser(ctx context.Context, viewerID uuid.UUID, username string, limit, offset int) ([]dto.PostResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	includePrivate := user.ID == viewerID
	posts, err := s.repo.ListByUser(ctx, user.ID, includePrivate, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.buildResponses(ctx, posts, viewerID)
}

func (s *postService) ListSaved(ctx context.Context, userID uuid.UUID, limit, offset int) ([]dto.PostResponse, error) {
	posts, err := s.repo.ListSavedBy(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	// Saved listings may contain posts made private after saving; the owner
	// keeps seeing their own.
	visible := posts[:0]
	for _, p := range posts {
		if p.IsPublic || p.UserID == userID {
			visible = append(visible, p)
		}
	}
	return s.buildResponses(ctx, visible, userID)
}

func (s *postService) resolveSubjects(ctx context.Context, names []string) ([]entity.Subject, error) {
	subjects := make([]entity.Subject, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		slug := Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true

		subject, err := s.repo.FindOrCreateSubject(ctx, name, slug)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, *subject)
	}
	return subjects, nil
}

func (s *postService) findOwned(ctx context.Context, userID, postID uuid.UUID) (*entity.Post, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if post.UserID != userID {
		return nil, fmt.Errorf("only the author may modify this post: %w", apperror.ErrForbidden)
	}
	return post, nil
}

func (s *postService) visiblePost(ctx context.Context, viewerID, postID uuid.UUID) (*entity.Post, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	if !post.IsPublic && post.UserID != viewerID {
		return nil, apperror.ErrNotFound
	}
	return post, nil
}

func countsCacheKey(postID uuid.UUID) string {
	return "post:counts:" + postID.String()
}

// engagementCounts reads like/save counts through a redis hash, falling back
// to the database and repopulating on miss.
func (s *postService) engagementCounts(ctx context.Context, postID uuid.UUID) (likes, saves int64, err error) {
	if s.redisClient != nil {
		vals, err := s.redisClient.HMGet(ctx, countsCacheKey(postID), "likes", "saves").Result()
		if err == nil && vals[0] != nil && vals[1] != nil {
			l, lok := parseCount(vals[0])
			sv, sok := parseCount(vals[1])
			if lok && sok {
				return l, sv, nil
			}
		}
	}

	if likes, err = s.repo.CountLikes(ctx, postID); err != nil {
		return 0, 0, err
	}
	if saves, err = s.repo.CountSaves(ctx, postID); err != nil {
		return 0, 0, err
	}

	if s.redisClient != nil {
		key := countsCacheKey(postID)
		if err := s.redisClient.HSet(ctx, key, "likes", likes, "saves", saves).Err(); err == nil {
			s.redisClient.Expire(ctx, key, time.Hour)
		}
	}
	return likes, saves, nil
}

func (s *postService) invalidateCounts(ctx context.Context, postID uuid.UUID) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, countsCacheKey(postID)).Err(); err != nil {
		log.Printf("failed to invalidate count cache for post %s: %v", postID, err)
	}
}

func parseCount(v interface{}) (int64, bool) {
	str, ok := v.(string)
	if !ok {
		return 0, false
	}
	var n int64
	if _, err := fmt.Sscanf(str, "%d", &n); err != nil {
		return 0, false
	}
	return n, true
}

func (s *postService) indexPost(ctx context.Context, post *entity.Post) {
	if s.indexer == nil {
		return
	}
	if !post.IsPublic {
		if err := s.indexer.RemovePost(ctx, post.ID); err != nil {
			log.Printf("failed to remove private post %s from search index: %v", post.ID, err)
		}
		return
	}
	if err := s.indexer.IndexPost(ctx, post); err != nil {
		log.Printf("failed to index post %s: %v", post.ID, err)
	}
}

func (s *postService) buildResponse(ctx context.Context, post *entity.Post, viewerID uuid.UUID) (*dto.PostResponse, error) {
	likes, saves, err := s.engagementCounts(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.PostResponse{
		ID:             post.ID,
		UserID:         post.UserID,
		Caption:        post.Caption,
		ImageURL:       post.ImageURL,
		IsPublic:       post.IsPublic,
		LikeCount:      likes,
		SaveCount:      saves,
		RelevanceScore: RelevanceScore(likes, saves),
		CreatedAt:      post.CreatedAt,
		Subjects:       make([]dto.SubjectInfo, 0, len(post.Subjects)),
	}
	if post.User != nil {
		resp.Username = post.User.Username
	}
	for _, subj := range post.Subjects {
		resp.Subjects = append(resp.Subjects, dto.SubjectInfo{ID: subj.ID, Name: subj.Name, Slug: subj.Slug})
	}

	if viewerID != uuid.Nil {
		if resp.LikedByViewer, err = s.repo.HasLiked(ctx, post.ID, viewerID); err != nil {
			return nil, err
		}
		if resp.SavedByViewer, err = s.repo.HasSaved(ctx, post.ID, viewerID); err != nil {
			return nil, err
		}
	}

	return resp, nil
}

func (s *postService) buildResponses(ctx context.Context, posts []entity.Post, viewerID uuid.UUID) ([]dto.PostResponse, error) {
	out := make([]dto.PostResponse, 0, len(posts))
	for i := range posts {
		resp, err := s.buildResponse(ctx, &posts[i], viewerID)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}
