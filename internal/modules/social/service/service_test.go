package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/entity"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/social/dto"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/social/repository"
	userRepo "github.com/Emiliano-Blackbird/my-wood-desktop/internal/modules/user/repository"
	"github.com/Emiliano-Blackbird/my-wood-desktop/internal/testutil"
	"github.com/Emiliano-Blackbird/my-wood-desktop/pkg/apperror"
	"gorm.io/gorm"
)

func newService(tx *gorm.DB) SocialService {
	return NewSocialService(tx, repository.NewSocialRepository(tx), userRepo.NewUserRepository(tx), nil, nil)
}

func TestSendFriendRequestCreatesPending(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")

	svc := newService(tx)

	req, err := svc.SendFriendRequest(ctx, alice.ID, dto.SendFriendRequestInput{Username: bob.Username})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if req == nil || req.Status != entity.FriendRequestPending {
		t.Fatalf("expected pending request, got %+v", req)
	}
	if req.FromProfileID != alice.ID || req.ToProfileID != bob.ID {
		t.Fatalf("wrong endpoints: %+v", req)
	}
}

func TestSendFriendRequestToSelfRejected(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	svc := newService(tx)

	_, err := svc.SendFriendRequest(ctx, alice.ID, dto.SendFriendRequestInput{Username: alice.Username})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSendFriendRequestIdempotentResend(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	svc := newService(tx)

	first, err := svc.SendFriendRequest(ctx, alice.ID, dto.SendFriendRequestInput{Username: bob.Username})
	if err != nil {
		t.Fatalf("first send: %v", err)
	}
	second, err := svc.SendFriendRequest(ctx, alice.ID, dto.SendFriendRequestInput{Username: bob.Username})
	if err != nil {
		t.Fatalf("second send: %v", err)
	}
	if second == nil || second.ID != first.ID {
		t.Fatalf("re-send should return the same pending request")
	}
}

func TestSendFriendRequestMergesReversePending(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	svc := newService(tx)

	if _, err := svc.SendFriendRequest(ctx, bob.ID, dto.SendFriendRequestInput{Username: alice.Username}); err != nil {
		t.Fatalf("bob's send: %v", err)
	}

	// Alice sending back should accept bob's pending request instead of
	// creating a crossed duplicate.
	merged, err := svc.SendFriendRequest(ctx, alice.ID, dto.SendFriendRequestInput{Username: bob.Username})
	if err != nil {
		t.Fatalf("alice's send: %v", err)
	}
	if merged == nil || merged.Status != entity.FriendRequestAccepted {
		t.Fatalf("expected accepted request, got %+v", merged)
	}
	if merged.FromProfileID != bob.ID {
		t.Fatalf("merged request should be bob's original")
	}
	if merged.RespondedAt == nil {
		t.Fatal("responded_at should be set on accept")
	}

	friends, err := svc.IsFriend(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("IsFriend: %v", err)
	}
	if !friends {
		t.Fatal("merge should create the friendship")
	}
}

func TestAcceptFriendRequestSymmetric(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	svc := newService(tx)

	req, err := svc.SendFriendRequest(ctx, alice.ID, dto.SendFriendRequestInput{Username: bob.Username})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := svc.AcceptFriendRequest(ctx, bob.ID, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	for _, pair := range [][2]*entity.User{{alice, bob}, {bob, alice}} {
		friends, err := svc.IsFriend(ctx, pair[0].ID, pair[1].ID)
		if err != nil {
			t.Fatalf("IsFriend: %v", err)
		}
		if !friends {
			t.Fatalf("friendship should read the same from both sides")
		}
	}
}

func TestAcceptFriendRequestOnlyRecipient(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	mallory := testutil.SeedUser(t, ctx, tx, "mallory")
	svc := newService(tx)

	req, err := svc.SendFriendRequest(ctx, alice.ID, dto.SendFriendRequestInput{Username: bob.Username})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := svc.AcceptFriendRequest(ctx, mallory.ID, req.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.AcceptFriendRequest(ctx, alice.ID, req.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("sender accepting own request should be forbidden, got %v", err)
	}
}

func TestAcceptTerminalRequestConflicts(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	svc := newService(tx)

	req, err := svc.SendFriendRequest(ctx, alice.ID, dto.SendFriendRequestInput{Username: bob.Username})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.AcceptFriendRequest(ctx, bob.ID, req.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if _, err := svc.AcceptFriendRequest(ctx, bob.ID, req.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("double accept should conflict, got %v", err)
	}
	if _, err := svc.RejectFriendRequest(ctx, bob.ID, req.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("reject after accept should conflict, got %v", err)
	}
}

func TestSendFriendRequestWhenAlreadyFriendsNoOp(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	testutil.SeedFriendship(t, ctx, tx, alice.ID, bob.ID)
	svc := newService(tx)

	req, err := svc.SendFriendRequest(ctx, alice.ID, dto.SendFriendRequestInput{Username: bob.Username})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if req != nil {
		t.Fatalf("already friends should be a no-op, got %+v", req)
	}
}

func TestRemoveFriendBothDirections(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	testutil.SeedFriendship(t, ctx, tx, bob.ID, alice.ID)
	svc := newService(tx)

	if err := svc.RemoveFriend(ctx, alice.ID, bob.Username); err != nil {
		t.Fatalf("remove: %v", err)
	}

	friends, err := svc.IsFriend(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("IsFriend: %v", err)
	}
	if friends {
		t.Fatal("removal should delete the edge for both sides")
	}

	// Removing again is a no-op
	if err := svc.RemoveFriend(ctx, alice.ID, bob.Username); err != nil {
		t.Fatalf("second remove should be a no-op: %v", err)
	}
}

func TestFollowUnfollow(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	svc := newService(tx)

	if err := svc.FollowUser(ctx, alice.ID, dto.FollowInput{Username: bob.Username}); err != nil {
		t.Fatalf("follow: %v", err)
	}
	// Duplicate follow is a no-op
	if err := svc.FollowUser(ctx, alice.ID, dto.FollowInput{Username: bob.Username}); err != nil {
		t.Fatalf("duplicate follow: %v", err)
	}

	following, err := svc.IsFollowing(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("IsFollowing: %v", err)
	}
	if !following {
		t.Fatal("alice should follow bob")
	}

	// Follow is directed
	reverse, err := svc.IsFollowing(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("IsFollowing reverse: %v", err)
	}
	if reverse {
		t.Fatal("bob should not follow alice")
	}

	if err := svc.UnfollowUser(ctx, alice.ID, dto.FollowInput{Username: bob.Username}); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	following, _ = svc.IsFollowing(ctx, alice.ID, bob.ID)
	if following {
		t.Fatal("unfollow should remove the edge")
	}
}

func TestListPendingRequestsOnlyIncoming(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))

	alice := testutil.SeedUser(t, ctx, tx, "alice")
	bob := testutil.SeedUser(t, ctx, tx, "bob")
	carol := testutil.SeedUser(t, ctx, tx, "carol")
	svc := newService(tx)

	if _, err := svc.SendFriendRequest(ctx, alice.ID, dto.SendFriendRequestInput{Username: bob.Username}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.SendFriendRequest(ctx, bob.ID, dto.SendFriendRequestInput{Username: carol.Username}); err != nil {
		t.Fatalf("send: %v", err)
	}

	pending, err := svc.ListPendingRequests(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("bob should have exactly one incoming request, got %d", len(pending))
	}
	if pending[0].FromID != alice.ID {
		t.Fatalf("expected request from alice, got %s", pending[0].FromID)
	}
	if pending[0].Requester == nil || pending[0].Requester.Username != "alice" {
		t.Fatalf("requester info should be populated")
	}
}
