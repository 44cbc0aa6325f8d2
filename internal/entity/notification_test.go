package entity

import (
	"testing"
	"time"
)

func TestNotificationIsRecent(t *testing.T) {
	n := &Notification{CreatedAt: time.Now().Add(-23 * time.Hour)}
	if !n.IsRecent() {
		t.Fatal("23h old notification should be recent")
	}

	n.CreatedAt = time.Now().Add(-25 * time.Hour)
	if n.IsRecent() {
		t.Fatal("25h old notification should not be recent")
	}
}
