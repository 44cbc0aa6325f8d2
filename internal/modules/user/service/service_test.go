package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/user/dto"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/user/repository"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/testutil"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/apperror"
	"gorm.io/gorm"
)

func newService(tx *gorm.DB) AuthService {
	return NewAuthService(repository.NewUserRepository(tx))
}

func TestRegisterProvisionsProfileAndSettings(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newService(tx)

	res, err := svc.Register(ctx, dto.RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "correct horse",
		Bio:      "first year",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatalf("expected an access token")
	}
	if res.User.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", res.User.Email)
	}
	if res.User.PasswordHash != "" {
		t.Fatalf("password hash leaked in response")
	}
	if res.Profile == nil || res.Profile.Bio != "first year" {
		t.Fatalf("profile not provisioned: %+v", res.Profile)
	}

	var settings entity.PomodoroSettings
	if err := tx.WithContext(ctx).First(&settings, "user_id = ?", res.User.ID).Error; err != nil {
		t.Fatalf("pomodoro settings not provisioned: %v", err)
	}
	if settings.WorkDuration != entity.PomodoroDefaultWork {
		t.Fatalf("work = %d, want default %d", settings.WorkDuration, entity.PomodoroDefaultWork)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newService(tx)

	testutil.SeedUser(t, ctx, tx, "alice")

	_, err := svc.Register(ctx, dto.RegisterInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "correct horse",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newService(tx)

	if _, err := svc.Register(ctx, dto.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := svc.Login(ctx, dto.LoginInput{Email: "ALICE@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatalf("expected an access token")
	}

	_, err = svc.Login(ctx, dto.LoginInput{Email: "alice@example.com", Password: "wrong"})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	_, err = svc.Login(ctx, dto.LoginInput{Email: "nobody@example.com", Password: "correct horse"})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown email, got %v", err)
	}
}

func TestSearchUsersEmptyQuery(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newService(tx)

	testutil.SeedUser(t, ctx, tx, "alice")

	users, err := svc.SearchUsers(ctx, "   ", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("blank query should match nothing, got %d", len(users))
	}

	users, err = svc.SearchUsers(ctx, "ali", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 match, got %d", len(users))
	}
	if users[0].PasswordHash != "" {
		t.Fatalf("password hash leaked in search results")
	}
}
