package services

import (
	"context"
	"testing"
	"time"

	"github.com/skillhive/backend/internal/models"
)

func TestDeliver_DedupKeyIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)

	user := createTestUser(t, db, "Reader")
	task := NewNotificationTask(user.ID, models.NotifyApplicationCreated, "Title", "Body", "/project/1")

	for i := 0; i < 3; i++ {
		if err := svc.ProcessTask(context.Background(), task); err != nil {
			t.Fatalf("ProcessTask round %d: %v", i, err)
		}
	}

	var count int64
	db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&count)
	if count != 1 {
		t.Errorf("notification rows = %d, want 1", count)
	}
}

func TestMarkRead_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)

	owner := createTestUser(t, db, "Owner")
	other := createTestUser(t, db, "Other")

	n := &models.Notification{UserID: owner.ID, Type: models.NotifySwapAccepted, Title: "t", DedupKey: "k1"}
	if err := db.Create(n).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	// Someone else marking it is a silent no-op.
	if err := svc.MarkRead(other.ID, n.ID); err != nil {
		t.Fatalf("MarkRead as other: %v", err)
	}
	var stored models.Notification
	db.First(&stored, n.ID)
	if stored.ReadAt != nil {
		t.Fatalf("notification read by non-owner")
	}

	if err := svc.MarkRead(owner.ID, n.ID); err != nil {
		t.Fatalf("MarkRead as owner: %v", err)
	}
	db.First(&stored, n.ID)
	if stored.ReadAt == nil {
		t.Fatalf("notification not marked read by owner")
	}

	// Marking a missing notification is also a silent no-op.
	if err := svc.MarkRead(owner.ID, 9999); err != nil {
		t.Fatalf("MarkRead missing: %v", err)
	}
}

func TestUnreadCountAndMarkAllRead(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)

	user := createTestUser(t, db, "Reader")
	now := time.Now()
	seed := []models.Notification{
		{UserID: user.ID, Title: "a", DedupKey: "a"},
		{UserID: user.ID, Title: "b", DedupKey: "b"},
		{UserID: user.ID, Title: "c", DedupKey: "c", ReadAt: &now},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}

	count, err := svc.UnreadCount(user.ID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 2 {
		t.Errorf("unread = %d, want 2", count)
	}

	affected, err := svc.MarkAllRead(user.ID)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if affected != 2 {
		t.Errorf("affected = %d, want 2", affected)
	}

	count, _ = svc.UnreadCount(user.ID)
	if count != 0 {
		t.Errorf("unread after MarkAllRead = %d, want 0", count)
	}
}

func TestList_NewestFirstOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)

	user := createTestUser(t, db, "Reader")
	other := createTestUser(t, db, "Other")

	old := models.Notification{UserID: user.ID, Title: "old", DedupKey: "old", CreatedAt: time.Now().Add(-time.Hour)}
	fresh := models.Notification{UserID: user.ID, Title: "fresh", DedupKey: "fresh", CreatedAt: time.Now()}
	foreign := models.Notification{UserID: other.ID, Title: "foreign", DedupKey: "foreign"}
	for _, n := range []*models.Notification{&old, &fresh, &foreign} {
		if err := db.Create(n).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	list, err := svc.List(user.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("notifications = %d, want 2", len(list))
	}
	if list[0].Title != "fresh" {
		t.Errorf("first = %q, want fresh", list[0].Title)
	}
}

func TestDeliver_PublishesToHub(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)

	user := createTestUser(t, db, "Reader")
	id, ch := GetEventHub().Subscribe(user.ID)
	defer GetEventHub().Unsubscribe(id)

	task := NewNotificationTask(user.ID, models.NotifySwapDeclined, "Swap declined", "Body", "/skill-swaps")
	if err := svc.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}

	select {
	case event := <-ch:
		if event.UserID != user.ID || event.Type != models.NotifySwapDeclined {
			t.Errorf("event = %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}
