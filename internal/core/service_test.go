package core_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"communitycore/internal/core"
	blobmemory "communitycore/internal/infra/blob/memory"
	"communitycore/internal/infra/persistence/memory"
	"communitycore/pkg/domain"
)

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

var fixedNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...core.Option) (*core.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore(nil)
	opts = append(opts, core.WithClock(func() time.Time { return fixedNow }))
	return core.NewService(store, opts...), store
}

type recordedObservation struct {
	operation string
	success   bool
}

type fakeRecorder struct {
	mu           sync.Mutex
	observations []recordedObservation
}

func (r *fakeRecorder) Observe(_ context.Context, operation string, success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observations = append(r.observations, recordedObservation{operation: operation, success: success})
}

func (r *fakeRecorder) last(t *testing.T) recordedObservation {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.observations) == 0 {
		t.Fatal("expected at least one observation")
	}
	return r.observations[len(r.observations)-1]
}

func TestServiceCreateAndUpdateUser(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.CreateUser(ctx, domain.User{Name: "Aida", Email: "aida@example.org", UserType: "donor"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	updated, _, err := svc.UpdateUser(ctx, created.ID, func(u *domain.User) error {
		u.Bio = strPtr("community volunteer")
		return nil
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Bio == nil || *updated.Bio != "community volunteer" {
		t.Fatalf("unexpected bio %v", updated.Bio)
	}
	if updated.Name != "Aida" {
		t.Fatal("update must preserve untouched fields")
	}

	stored, ok := store.GetUser(created.ID)
	if !ok || stored.Bio == nil {
		t.Fatal("update not visible through store")
	}
}

func TestServiceOperationsRecordMetrics(t *testing.T) {
	rec := &fakeRecorder{}
	svc, _ := newTestService(t, core.WithMetrics(rec))
	ctx := context.Background()

	if _, _, err := svc.CreateUser(ctx, domain.User{Name: "Metric", Email: "metric@example.org"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	obs := rec.last(t)
	if obs.operation != "create_user" || !obs.success {
		t.Fatalf("unexpected observation %+v", obs)
	}

	if _, _, err := svc.UpdateDonation(ctx, "missing", func(*domain.Donation) error { return nil }); err == nil {
		t.Fatal("expected update of missing donation to fail")
	}
	obs = rec.last(t)
	if obs.operation != "update_donation" || obs.success {
		t.Fatalf("expected failed observation, got %+v", obs)
	}
}

func TestRegisterVolunteer(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	start := fixedNow.Add(48 * time.Hour)
	activity, _, err := svc.CreateActivity(ctx, domain.Activity{
		OrganizerID:   "org-1",
		Title:         "Food bank shift",
		Description:   "Sorting",
		Location:      domain.GeoPoint{Lat: 3.1, Lng: 101.6},
		StartTime:     start,
		EndTime:       start.Add(2 * time.Hour),
		MaxVolunteers: intPtr(1),
	})
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}

	registration, _, err := svc.RegisterVolunteer(ctx, activity.ID, "vol-1", strPtr("see you there"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registration.Status != domain.RegistrationStatusPending {
		t.Fatalf("expected pending registration, got %s", registration.Status)
	}

	refreshed, _ := store.GetActivity(activity.ID)
	if refreshed.CurrentVolunteers != 1 {
		t.Fatalf("expected volunteer count bumped, got %d", refreshed.CurrentVolunteers)
	}

	// Second signup exceeds MaxVolunteers.
	if _, _, err := svc.RegisterVolunteer(ctx, activity.ID, "vol-2", nil); err == nil {
		t.Fatal("expected capacity error")
	} else if !strings.Contains(err.Error(), "capacity") {
		t.Fatalf("unexpected error %v", err)
	}
	if got := len(store.ListVolunteerRegistrations("vol-2")); got != 0 {
		t.Fatalf("rejected signup must not persist a registration, got %d", got)
	}

	if _, _, err := svc.RegisterVolunteer(ctx, "missing-activity", "vol-3", nil); !domain.IsNotFound(err) {
		t.Fatalf("expected not-found for missing activity, got %v", err)
	}
}

func seedMatchingFixtures(t *testing.T, svc *core.Service) (userID, donationID, activityID string) {
	t.Helper()
	ctx := context.Background()

	user, _, err := svc.CreateUser(ctx, domain.User{
		Name:     "Seeker",
		Email:    "seeker@example.org",
		Location: &domain.GeoPoint{Lat: 3.139, Lng: 101.6869},
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, _, err := svc.CreateRequest(ctx, domain.Request{
		RequesterID: user.ID,
		Type:        "goods",
		Title:       "Winter clothes",
		Description: "For three children",
		Urgency:     domain.UrgencyHigh,
	}); err != nil {
		t.Fatalf("create request: %v", err)
	}

	donation, _, err := svc.CreateDonation(ctx, domain.Donation{
		DonorID:  "donor-9",
		Type:     "goods",
		Title:    "Jackets",
		Location: &domain.GeoPoint{Lat: 3.14, Lng: 101.69},
	})
	if err != nil {
		t.Fatalf("create donation: %v", err)
	}

	// Wrong type: never suggested against a goods request.
	if _, _, err := svc.CreateDonation(ctx, domain.Donation{DonorID: "donor-9", Type: "funds", Title: "Cash"}); err != nil {
		t.Fatalf("create donation: %v", err)
	}

	start := fixedNow.Add(24 * time.Hour)
	activity, _, err := svc.CreateActivity(ctx, domain.Activity{
		OrganizerID: "org-2",
		Title:       "Clothing drive",
		Description: "Sorting donations",
		Location:    domain.GeoPoint{Lat: 3.15, Lng: 101.7},
		StartTime:   start,
		EndTime:     start.Add(3 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}

	// Already started: excluded from suggestions.
	past := fixedNow.Add(-time.Hour)
	if _, _, err := svc.CreateActivity(ctx, domain.Activity{
		OrganizerID: "org-2",
		Title:       "Finished drive",
		Description: "Done",
		Location:    domain.GeoPoint{Lat: 3.15, Lng: 101.7},
		StartTime:   past,
		EndTime:     past.Add(time.Hour),
	}); err != nil {
		t.Fatalf("create activity: %v", err)
	}

	return user.ID, donation.ID, activity.ID
}

func TestSuggestMatches(t *testing.T) {
	svc, store := newTestService(t)
	userID, donationID, activityID := seedMatchingFixtures(t, svc)

	matches, _, err := svc.SuggestMatches(context.Background(), userID, 0)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected donation and activity suggestions, got %d", len(matches))
	}

	// The typed donation against a high-urgency request outscores the activity.
	first, second := matches[0], matches[1]
	if first.Target.Kind != domain.MatchTargetDonation || first.Target.ID != donationID {
		t.Fatalf("expected donation suggestion first, got %+v", first.Target)
	}
	if second.Target.Kind != domain.MatchTargetActivity || second.Target.ID != activityID {
		t.Fatalf("expected activity suggestion second, got %+v", second.Target)
	}
	if first.Score <= second.Score {
		t.Fatalf("expected descending scores, got %f then %f", first.Score, second.Score)
	}
	for _, m := range matches {
		if m.Status != domain.MatchStatusPending {
			t.Fatalf("expected pending match, got %s", m.Status)
		}
		if m.UserID != userID || m.Reason == nil || *m.Reason == "" {
			t.Fatalf("expected populated match, got %+v", m)
		}
		if m.Score <= 0 || m.Score > 1 {
			t.Fatalf("score out of range: %f", m.Score)
		}
	}

	// Suggestions are persisted.
	persisted := store.ListMatches(userID)
	if len(persisted) != 2 {
		t.Fatalf("expected persisted matches, got %d", len(persisted))
	}
}

func TestSuggestMatchesLimitAndMissingUser(t *testing.T) {
	svc, _ := newTestService(t)
	userID, _, _ := seedMatchingFixtures(t, svc)

	matches, _, err := svc.SuggestMatches(context.Background(), userID, 1)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected limit applied, got %d", len(matches))
	}

	if _, _, err := svc.SuggestMatches(context.Background(), "missing-user", 0); !domain.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestMarkNotificationReadThroughService(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	created, _, err := svc.Notify(ctx, domain.Notification{UserID: "u-1", Type: "match", Title: "New match", Message: "check it"})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if _, err := svc.MarkNotificationRead(ctx, created.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if _, err := svc.MarkNotificationRead(ctx, "missing"); err != nil {
		t.Fatalf("mark read of missing id must be a no-op, got %v", err)
	}

	notifications := store.ListNotifications("u-1")
	if len(notifications) != 1 || !notifications[0].Read {
		t.Fatalf("expected read notification, got %+v", notifications)
	}
}

func TestAttachDonationImage(t *testing.T) {
	blobs := blobmemory.New()
	svc, store := newTestService(t, core.WithBlobStore(blobs))
	ctx := context.Background()

	donation, _, err := svc.CreateDonation(ctx, domain.Donation{DonorID: "u-1", Type: "goods", Title: "Bicycle"})
	if err != nil {
		t.Fatalf("create donation: %v", err)
	}

	updated, err := svc.AttachDonationImage(ctx, donation.ID, "front.jpg", "image/jpeg", bytes.NewReader([]byte("jpeg-bytes")))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(updated.Images) != 1 {
		t.Fatalf("expected one image reference, got %v", updated.Images)
	}
	if !strings.Contains(updated.Images[0], donation.ID) {
		t.Fatalf("image reference should be keyed by donation, got %q", updated.Images[0])
	}

	stored, _ := store.GetDonation(donation.ID)
	if len(stored.Images) != 1 {
		t.Fatal("image reference not persisted")
	}
	infos, err := blobs.List(ctx, "donations/")
	if err != nil || len(infos) != 1 {
		t.Fatalf("expected one stored blob, got %v (%v)", infos, err)
	}

	if _, err := svc.AttachDonationImage(ctx, "missing", "x.jpg", "image/jpeg", bytes.NewReader(nil)); !domain.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestAttachRequestImageRequiresBlobStore(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	request, _, err := svc.CreateRequest(ctx, domain.Request{RequesterID: "u-1", Type: "goods", Title: "Desks", Description: "For a tuition center"})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if _, err := svc.AttachRequestImage(ctx, request.ID, "room.jpg", "image/jpeg", bytes.NewReader(nil)); !errors.Is(err, core.ErrNoBlobStore) {
		t.Fatalf("expected ErrNoBlobStore, got %v", err)
	}
}

func TestAttachRequestImage(t *testing.T) {
	blobs := blobmemory.New()
	svc, _ := newTestService(t, core.WithBlobStore(blobs))
	ctx := context.Background()

	request, _, err := svc.CreateRequest(ctx, domain.Request{RequesterID: "u-1", Type: "goods", Title: "Desks", Description: "For a tuition center"})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	updated, err := svc.AttachRequestImage(ctx, request.ID, "room.jpg", "image/jpeg", bytes.NewReader([]byte("bytes")))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(updated.Images) != 1 {
		t.Fatalf("expected one image reference, got %v", updated.Images)
	}
}

type warnOnCreateRule struct{}

func (warnOnCreateRule) Name() string { return "warn-on-create" }

func (warnOnCreateRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, c := range changes {
		if c.Action == domain.ActionCreate {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "warn-on-create",
				Severity: domain.SeverityWarn,
				Message:  "created during freeze window",
				Entity:   c.Entity,
			})
		}
	}
	return res, nil
}

func TestWarningViolationsCommitAndSurface(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(warnOnCreateRule{})
	store := memory.NewStore(engine)
	svc := core.NewService(store)
	ctx := context.Background()

	created, res, err := svc.CreateUser(ctx, domain.User{Name: "Warned", Email: "warned@example.org"})
	if err != nil {
		t.Fatalf("warn severity must not block commit: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Severity != domain.SeverityWarn {
		t.Fatalf("expected surfaced warning, got %+v", res.Violations)
	}
	if _, ok := store.GetUser(created.ID); !ok {
		t.Fatal("warned create must still commit")
	}
}
