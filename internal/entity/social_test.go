package entity

import (
	"testing"

	"github.com/google/uuid"
)

func TestEnsureCanonicalOrderSwaps(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	f := &Friendship{UserID1: b, UserID2: a}
	f.EnsureCanonicalOrder()
	if f.UserID1 != a || f.UserID2 != b {
		t.Fatalf("expected (%s,%s), got (%s,%s)", a, b, f.UserID1, f.UserID2)
	}

	// Already canonical stays put
	f.EnsureCanonicalOrder()
	if f.UserID1 != a || f.UserID2 != b {
		t.Fatalf("canonical pair changed on second call")
	}
}

func TestCanonicalPairCommutative(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	x1, y1 := CanonicalPair(a, b)
	x2, y2 := CanonicalPair(b, a)
	if x1 != x2 || y1 != y2 {
		t.Fatalf("CanonicalPair is not commutative: (%s,%s) vs (%s,%s)", x1, y1, x2, y2)
	}
}

func TestFriendRequestIsPending(t *testing.T) {
	fr := &FriendRequest{Status: FriendRequestPending}
	if !fr.IsPending() {
		t.Fatal("pending request should report pending")
	}
	fr.Status = FriendRequestAccepted
	if fr.IsPending() {
		t.Fatal("accepted request should not report pending")
	}
}
