package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/skillhive/backend/internal/models"
	"github.com/skillhive/backend/pkg/response"
)

func TestSubmit_CreatesPendingApplication(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	applicant := createTestUser(t, db, "Applicant")
	project := createTestProject(t, db, creator.ID, "Build a compiler")

	app, err := svc.Submit(context.Background(), project.ID, applicant.ID, "count me in")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if app.Status != models.StatusPending {
		t.Errorf("status = %q, want %q", app.Status, models.StatusPending)
	}
	if app.PendingKey == nil || *app.PendingKey != models.ApplicationPendingKey(project.ID, applicant.ID) {
		t.Errorf("pending key not set correctly: %v", app.PendingKey)
	}

	// The creator is notified.
	var notifications []models.Notification
	if err := db.Where("user_id = ?", creator.ID).Find(&notifications).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	if len(notifications) != 1 {
		t.Fatalf("creator notifications = %d, want 1", len(notifications))
	}
	if notifications[0].Type != models.NotifyApplicationCreated {
		t.Errorf("notification type = %q, want %q", notifications[0].Type, models.NotifyApplicationCreated)
	}
}

func TestSubmit_SecondPendingIsConflict(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	applicant := createTestUser(t, db, "Applicant")
	project := createTestProject(t, db, creator.ID, "Project")

	if _, err := svc.Submit(context.Background(), project.ID, applicant.ID, "first"); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	_, err := svc.Submit(context.Background(), project.ID, applicant.ID, "second")
	assertAppError(t, err, 409)

	var count int64
	db.Model(&models.Application{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 1 {
		t.Errorf("applications = %d, want 1", count)
	}
}

func TestSubmit_GuardErrors(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	member := createTestUser(t, db, "Member")
	project := createTestProject(t, db, creator.ID, "Project")
	if err := db.Create(&models.ProjectMember{ProjectID: project.ID, UserID: member.ID}).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}

	tests := []struct {
		name        string
		projectID   uint
		applicantID uint
		wantStatus  int
	}{
		{"project not found", 9999, member.ID, 404},
		{"creator applies to own project", project.ID, creator.ID, 409},
		{"existing member applies", project.ID, member.ID, 409},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.projectID, tt.applicantID, "")
			assertAppError(t, err, tt.wantStatus)
		})
	}
}

func TestTransition_AcceptAddsMemberAndNotifies(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	applicant := createTestUser(t, db, "Applicant")
	project := createTestProject(t, db, creator.ID, "Project")

	app, err := svc.Submit(context.Background(), project.ID, applicant.ID, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	result, err := svc.Transition(context.Background(), app.ID, creator.ID, models.StatusAccepted)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", result.Warnings)
	}
	if result.Application.Status != models.StatusAccepted {
		t.Errorf("status = %q, want accepted", result.Application.Status)
	}

	var memberCount int64
	db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, applicant.ID).
		Count(&memberCount)
	if memberCount != 1 {
		t.Errorf("member rows = %d, want 1", memberCount)
	}

	var n models.Notification
	if err := db.Where("user_id = ? AND type = ?", applicant.ID, models.NotifyApplicationAccepted).First(&n).Error; err != nil {
		t.Fatalf("applicant notification missing: %v", err)
	}

	// The pending key is freed, so stale lookups cannot collide.
	var stored models.Application
	if err := db.First(&stored, app.ID).Error; err != nil {
		t.Fatalf("reload application: %v", err)
	}
	if stored.PendingKey != nil {
		t.Errorf("pending key = %v, want nil after decision", *stored.PendingKey)
	}
}

func TestTransition_DeclineDoesNotAddMember(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	applicant := createTestUser(t, db, "Applicant")
	project := createTestProject(t, db, creator.ID, "Project")

	app, _ := svc.Submit(context.Background(), project.ID, applicant.ID, "")
	result, err := svc.Transition(context.Background(), app.ID, creator.ID, models.StatusDeclined)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if result.Application.Status != models.StatusDeclined {
		t.Errorf("status = %q, want declined", result.Application.Status)
	}

	var memberCount int64
	db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, applicant.ID).
		Count(&memberCount)
	if memberCount != 0 {
		t.Errorf("member rows = %d, want 0", memberCount)
	}
}

func TestTransition_OnlyCreatorMayDecide(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	applicant := createTestUser(t, db, "Applicant")
	outsider := createTestUser(t, db, "Outsider")
	project := createTestProject(t, db, creator.ID, "Project")

	app, _ := svc.Submit(context.Background(), project.ID, applicant.ID, "")

	for _, caller := range []uint{applicant.ID, outsider.ID} {
		_, err := svc.Transition(context.Background(), app.ID, caller, models.StatusAccepted)
		assertAppError(t, err, 403)
	}

	// A forbidden attempt leaves the application untouched.
	var stored models.Application
	db.First(&stored, app.ID)
	if stored.Status != models.StatusPending {
		t.Errorf("status after forbidden attempts = %q, want pending", stored.Status)
	}
}

func TestTransition_SecondDecisionLoses(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	applicant := createTestUser(t, db, "Applicant")
	project := createTestProject(t, db, creator.ID, "Project")

	app, _ := svc.Submit(context.Background(), project.ID, applicant.ID, "")

	if _, err := svc.Transition(context.Background(), app.ID, creator.ID, models.StatusAccepted); err != nil {
		t.Fatalf("first Transition: %v", err)
	}
	_, err := svc.Transition(context.Background(), app.ID, creator.ID, models.StatusDeclined)
	assertAppError(t, err, 422)

	var stored models.Application
	db.First(&stored, app.ID)
	if stored.Status != models.StatusAccepted {
		t.Errorf("status = %q, want the first decision to stand", stored.Status)
	}
}

func TestSubmit_ConcurrentDuplicates(t *testing.T) {
	db := newTestDB(t)
	singleConn(t, db)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	applicant := createTestUser(t, db, "Applicant")
	project := createTestProject(t, db, creator.ID, "Project")

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Submit(context.Background(), project.ID, applicant.ID, "race")
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assertAppError(t, err, 409)
	}
	if created != 1 {
		t.Errorf("successful submits = %d, want 1", created)
	}

	var count int64
	db.Model(&models.Application{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 1 {
		t.Errorf("applications = %d, want 1", count)
	}
}

func TestTransition_ConcurrentDecisionsSingleWinner(t *testing.T) {
	db := newTestDB(t)
	singleConn(t, db)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	applicant := createTestUser(t, db, "Applicant")
	project := createTestProject(t, db, creator.ID, "Project")
	app, err := svc.Submit(context.Background(), project.ID, applicant.ID, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	decisions := []string{models.StatusAccepted, models.StatusDeclined}
	errs := make([]error, len(decisions))
	var wg sync.WaitGroup
	for i := range decisions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Transition(context.Background(), app.ID, creator.ID, decisions[i])
		}(i)
	}
	wg.Wait()

	var winner string
	var loserErr *response.AppError
	for i, err := range errs {
		if err == nil {
			winner = decisions[i]
			continue
		}
		if loserErr != nil {
			t.Fatalf("both decisions rejected: %v / %v", errs[0], errs[1])
		}
		if !errors.As(err, &loserErr) || loserErr.HTTPStatus != 422 {
			t.Fatalf("loser error = %v, want status 422", err)
		}
	}
	if winner == "" || loserErr == nil {
		t.Fatalf("want exactly one winner and one 422, got %v / %v", errs[0], errs[1])
	}

	var stored models.Application
	db.First(&stored, app.ID)
	if stored.Status != winner {
		t.Errorf("status = %q, want winning decision %q", stored.Status, winner)
	}
	// The conflict message names the status that actually won.
	if !strings.Contains(loserErr.Message, winner) {
		t.Errorf("conflict message = %q, want it to mention %q", loserErr.Message, winner)
	}
}

func TestTransition_InvalidTargetStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	applicant := createTestUser(t, db, "Applicant")
	project := createTestProject(t, db, creator.ID, "Project")
	app, _ := svc.Submit(context.Background(), project.ID, applicant.ID, "")

	_, err := svc.Transition(context.Background(), app.ID, creator.ID, "withdrawn")
	assertAppError(t, err, 400)
}

func TestSubmit_ReapplyAfterDecline(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	applicant := createTestUser(t, db, "Applicant")
	project := createTestProject(t, db, creator.ID, "Project")

	app, _ := svc.Submit(context.Background(), project.ID, applicant.ID, "first try")
	if _, err := svc.Transition(context.Background(), app.ID, creator.ID, models.StatusDeclined); err != nil {
		t.Fatalf("decline: %v", err)
	}

	// The declined application freed its pending key.
	if _, err := svc.Submit(context.Background(), project.ID, applicant.ID, "second try"); err != nil {
		t.Fatalf("resubmit after decline: %v", err)
	}

	var count int64
	db.Model(&models.Application{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 2 {
		t.Errorf("applications = %d, want 2", count)
	}
}

func TestEnsureMembership_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	member := createTestUser(t, db, "Member")
	project := createTestProject(t, db, creator.ID, "Project")

	for i := 0; i < 3; i++ {
		if err := svc.ensureMembership(project.ID, member.ID); err != nil {
			t.Fatalf("ensureMembership round %d: %v", i, err)
		}
	}

	var count int64
	db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, member.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("member rows = %d, want 1", count)
	}
}

func TestListForProject_CreatorOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewApplicationService(db)

	creator := createTestUser(t, db, "Creator")
	applicant := createTestUser(t, db, "Applicant")
	project := createTestProject(t, db, creator.ID, "Project")
	svc.Submit(context.Background(), project.ID, applicant.ID, "")

	apps, err := svc.ListForProject(project.ID, creator.ID)
	if err != nil {
		t.Fatalf("ListForProject as creator: %v", err)
	}
	if len(apps) != 1 {
		t.Errorf("applications = %d, want 1", len(apps))
	}

	_, err = svc.ListForProject(project.ID, applicant.ID)
	assertAppError(t, err, 403)
}

func assertAppError(t *testing.T, err error, wantStatus int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", wantStatus)
	}
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *response.AppError, got %T: %v", err, err)
	}
	if appErr.HTTPStatus != wantStatus {
		t.Fatalf("status = %d, want %d (%v)", appErr.HTTPStatus, wantStatus, err)
	}
}
