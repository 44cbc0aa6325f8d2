package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/notification/repository"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/testutil"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newService(tx *gorm.DB) NotificationService {
	return NewNotificationService(repository.NewNotificationRepository(tx), nil)
}

func TestNotificationChannelFormat(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	want := "user_notifications:00000000-0000-0000-0000-000000000001"
	if got := NotificationChannel(id); got != want {
		t.Fatalf("channel = %q, want %q", got, want)
	}
}

func TestCreateNotificationAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	svc := newService(tx)

	n := &entity.Notification{UserID: alice.ID, Title: "hello"}
	if err := svc.CreateNotification(ctx, n); err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.Type != entity.NotificationGeneral {
		t.Fatalf("type = %q, want %q", n.Type, entity.NotificationGeneral)
	}
	if n.Priority != entity.PriorityMedium {
		t.Fatalf("priority = %q, want %q", n.Priority, entity.PriorityMedium)
	}
}

func TestMarkAsReadSetsTimestamp(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	n := testutil.SeedNotification(t, ctx, tx, alice.ID, "hello")
	svc := newService(tx)

	if err := svc.MarkAsRead(ctx, alice.ID, n.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	var reloaded entity.Notification
	if err := tx.WithContext(ctx).First(&reloaded, "id = ?", n.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.IsRead {
		t.Fatalf("notification should be read")
	}
	if reloaded.ReadAt == nil {
		t.Fatalf("single mark read records the timestamp")
	}
}

func TestMarkAllAsReadSkipsTimestamp(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	testutil.SeedNotification(t, ctx, tx, alice.ID, "one")
	testutil.SeedNotification(t, ctx, tx, alice.ID, "two")
	svc := newService(tx)

	marked, err := svc.MarkAllAsRead(ctx, alice.ID)
	if err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if marked != 2 {
		t.Fatalf("marked = %d, want 2", marked)
	}

	var notifications []entity.Notification
	if err := tx.WithContext(ctx).Where("user_id = ?", alice.ID).Find(&notifications).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	for _, n := range notifications {
		if !n.IsRead {
			t.Fatalf("notification %s should be read", n.ID)
		}
		if n.ReadAt != nil {
			t.Fatalf("bulk mark read leaves read_at empty, got %v", n.ReadAt)
		}
	}

	marked, err = svc.MarkAllAsRead(ctx, alice.ID)
	if err != nil {
		t.Fatalf("second mark all: %v", err)
	}
	if marked != 0 {
		t.Fatalf("second mark all = %d, want 0", marked)
	}
}

func TestMarkAsReadOwnerOnly(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	mallory := testutil.SeedUser(t, ctx, tx, "mallory")
	n := testutil.SeedNotification(t, ctx, tx, alice.ID, "hello")
	svc := newService(tx)

	if err := svc.MarkAsRead(ctx, mallory.ID, n.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.MarkAsRead(ctx, alice.ID, uuid.New()); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDismissHidesFromListings(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	kept := testutil.SeedNotification(t, ctx, tx, alice.ID, "kept")
	dismissed := testutil.SeedNotification(t, ctx, tx, alice.ID, "dismissed")
	svc := newService(tx)

	if err := svc.Dismiss(ctx, alice.ID, dismissed.ID); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	list, err := svc.GetNotifications(ctx, alice.ID, false, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != kept.ID {
		t.Fatalf("dismissed notification should be hidden, got %d entries", len(list))
	}

	count, err := svc.UnreadCount(ctx, alice.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 1 {
		t.Fatalf("unread count = %d, want 1", count)
	}
}

func TestUnreadOnlyFilter(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	read := testutil.SeedNotification(t, ctx, tx, alice.ID, "read")
	unread := testutil.SeedNotification(t, ctx, tx, alice.ID, "unread")
	svc := newService(tx)

	if err := svc.MarkAsRead(ctx, alice.ID, read.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	list, err := svc.GetNotifications(ctx, alice.ID, true, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != unread.ID {
		t.Fatalf("unread filter should return only the unread notification")
	}
}
