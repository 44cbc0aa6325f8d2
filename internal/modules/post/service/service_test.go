package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/post/dto"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/post/repository"
	userRepo "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/user/repository"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/testutil"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newService(tx *gorm.DB) PostService {
	return NewPostService(repository.NewPostRepository(tx), userRepo.NewUserRepository(tx), nil, nil, nil, 0)
}

func TestRelevanceScore(t *testing.T) {
	cases := []struct {
		likes, saves int64
		want         float64
	}{
		{0, 0, 0},
		{1, 0, 1.0},
		{0, 1, 1.5},
		{4, 2, 7.0},
		{10, 10, 25.0},
	}
	for _, c := range cases {
		if got := RelevanceScore(c.likes, c.saves); got != c.want {
			t.Fatalf("RelevanceScore(%d, %d) = %v, want %v", c.likes, c.saves, got, c.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Linear Algebra", "linear-algebra"},
		{"C++ Basics", "c-basics"},
		{" Organic Chemistry ", "organic-chemistry"},
		{"Déjà Vu", "dj-vu"},
		{"math", "math"},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCreatePostResolvesSubjects(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	svc := newService(tx)

	post, err := svc.CreatePost(ctx, alice.ID, dto.CreatePostInput{
		Caption:  "study notes",
		Subjects: []string{"Linear Algebra", "linear algebra", "  ", "Calculus"},
	}, nil, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Duplicate and blank names collapse away.
	if len(post.Subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d: %+v", len(post.Subjects), post.Subjects)
	}
	if !post.IsPublic {
		t.Fatalf("posts default to public")
	}
}

func TestCreatePostRejectsEmptyPost(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	svc := newService(tx)

	_, err := svc.CreatePost(ctx, alice.ID, dto.CreatePostInput{Caption: "   "}, nil, "")
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

type stubImageStorage struct{}

func (stubImageStorage) UploadImage(_ context.Context, _ io.Reader, folder, fileName string) (string, error) {
	return "https://images.example.com/" + folder + "/" + fileName, nil
}

func (stubImageStorage) DeleteImage(context.Context, string) error { return nil }

func TestCreatePostImageOnly(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	svc := NewPostService(repository.NewPostRepository(tx), userRepo.NewUserRepository(tx), stubImageStorage{}, nil, nil, 0)

	post, err := svc.CreatePost(ctx, alice.ID, dto.CreatePostInput{Caption: "  "}, strings.NewReader("image-bytes"), "desk.png")
	if err != nil {
		t.Fatalf("image-only create: %v", err)
	}
	if post.Caption != "" {
		t.Fatalf("caption = %q, want empty", post.Caption)
	}
	if post.ImageURL == nil || *post.ImageURL == "" {
		t.Fatalf("image url missing: %+v", post.ImageURL)
	}
}

func TestToggleLikeOnOff(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	post := testutil.SeedPost(t, ctx, tx, alice.ID, "hello", true)
	svc := newService(tx)

	res, err := svc.ToggleLike(ctx, bob.ID, post.ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !res.Active || res.Count != 1 {
		t.Fatalf("after like: active=%v count=%d", res.Active, res.Count)
	}

	res, err = svc.ToggleLike(ctx, bob.ID, post.ID)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if res.Active || res.Count != 0 {
		t.Fatalf("after unlike: active=%v count=%d", res.Active, res.Count)
	}
}

func TestToggleSaveOnOff(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	post := testutil.SeedPost(t, ctx, tx, alice.ID, "hello", true)
	svc := newService(tx)

	res, err := svc.ToggleSave(ctx, bob.ID, post.ID)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !res.Active || res.Count != 1 {
		t.Fatalf("after save: active=%v count=%d", res.Active, res.Count)
	}

	res, err = svc.ToggleSave(ctx, bob.ID, post.ID)
	if err != nil {
		t.Fatalf("unsave: %v", err)
	}
	if res.Active || res.Count != 0 {
		t.Fatalf("after unsave: active=%v count=%d", res.Active, res.Count)
	}
}

func TestToggleLikeAnonymousIsReadOnly(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	post := testutil.SeedPost(t, ctx, tx, alice.ID, "hello", true)
	svc := newService(tx)

	if _, err := svc.ToggleLike(ctx, bob.ID, post.ID); err != nil {
		t.Fatalf("like: %v", err)
	}

	res, err := svc.ToggleLike(ctx, uuid.Nil, post.ID)
	if err != nil {
		t.Fatalf("anonymous toggle: %v", err)
	}
	if res.Active || res.Count != 1 {
		t.Fatalf("anonymous toggle must not change state: active=%v count=%d", res.Active, res.Count)
	}
}

func TestPrivatePostHiddenFromOthers(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	post := testutil.SeedPost(t, ctx, tx, alice.ID, "secret", false)
	svc := newService(tx)

	if _, err := svc.GetPost(ctx, bob.ID, post.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-owner, got %v", err)
	}

	got, err := svc.GetPost(ctx, alice.ID, post.ID)
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if got.Caption != "secret" {
		t.Fatalf("unexpected caption %q", got.Caption)
	}
}

func TestUpdatePostOwnerOnly(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	mallory := testutil.SeedUser(t, ctx, tx, "mallory")
	post := testutil.SeedPost(t, ctx, tx, alice.ID, "original", true)
	svc := newService(tx)

	caption := "changed"
	_, err := svc.UpdatePost(ctx, mallory.ID, post.ID, dto.UpdatePostInput{Caption: &caption})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	updated, err := svc.UpdatePost(ctx, alice.ID, post.ID, dto.UpdatePostInput{Caption: &caption})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Caption != "changed" {
		t.Fatalf("caption = %q, want %q", updated.Caption, "changed")
	}
}

func TestDeletePostOwnerOnly(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	mallory := testutil.SeedUser(t, ctx, tx, "mallory")
	post := testutil.SeedPost(t, ctx, tx, alice.ID, "hello", true)
	svc := newService(tx)

	if err := svc.DeletePost(ctx, mallory.ID, post.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.DeletePost(ctx, alice.ID, post.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := svc.GetPost(ctx, alice.ID, post.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestListSavedHidesPostsMadePrivate(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	post := testutil.SeedPost(t, ctx, tx, alice.ID, "hello", true)
	svc := newService(tx)

	if _, err := svc.ToggleSave(ctx, bob.ID, post.ID); err != nil {
		t.Fatalf("save: %v", err)
	}

	saved, err := svc.ListSaved(ctx, bob.ID, 10, 0)
	if err != nil {
		t.Fatalf("list saved: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved post, got %d", len(saved))
	}

	isPublic := false
	if _, err := svc.UpdatePost(ctx, alice.ID, post.ID, dto.UpdatePostInput{IsPublic: &isPublic}); err != nil {
		t.Fatalf("make private: %v", err)
	}

	saved, err = svc.ListSaved(ctx, bob.ID, 10, 0)
	if err != nil {
		t.Fatalf("list saved: %v", err)
	}
	if len(saved) != 0 {
		t.Fatalf("private post should drop out of saved listing, got %d", len(saved))
	}
}

func TestListByUserHidesPrivateFromOthers(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	testutil.SeedPost(t, ctx, tx, alice.ID, "public", true)
	testutil.SeedPost(t, ctx, tx, alice.ID, "private", false)
	svc := newService(tx)

	posts, err := svc.ListByUser(ctx, bob.ID, "alice", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("viewer should see 1 post, got %d", len(posts))
	}

	posts, err = svc.ListByUser(ctx, alice.ID, "alice", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("owner should see 2 posts, got %d", len(posts))
	}
}
