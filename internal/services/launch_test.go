package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/princeprakhar/marketplace-backend/internal/events"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"github.com/princeprakhar/marketplace-backend/internal/testutil"
	"gorm.io/gorm"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func seedLaunchAt(t *testing.T, db *gorm.DB, l models.Launch) *models.Launch {
	t.Helper()
	if l.Title == "" {
		l.Title = "Launch"
	}
	if l.Tagline == "" {
		l.Tagline = "Ship it"
	}
	if err := db.Create(&l).Error; err != nil {
		t.Fatalf("seed launch: %v", err)
	}
	return &l
}

func launchIDs(launches []models.Launch) []uint {
	ids := make([]uint, 0, len(launches))
	for _, l := range launches {
		ids = append(ids, l.ID)
	}
	return ids
}

func sameIDs(got, want []uint) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestListLaunches_Filters(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewLaunchService(db, nil)
	product := testutil.SeedProduct(t, db, "acme-crm")

	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tuesday := monday.Add(24 * time.Hour)
	popular := seedLaunchAt(t, db, models.Launch{ProductID: product.ID, Status: models.LaunchLive, UpvoteCount: 9, LaunchedAt: &monday})
	featured := seedLaunchAt(t, db, models.Launch{ProductID: product.ID, Status: models.LaunchLive, UpvoteCount: 3, Featured: true, LaunchedAt: &tuesday})
	draft := seedLaunchAt(t, db, models.Launch{ProductID: product.ID, Status: models.LaunchDraft})
	ctx := context.Background()

	tests := []struct {
		name   string
		filter LaunchFilter
		want   []uint
	}{
		{"defaults to live by upvotes", LaunchFilter{}, []uint{popular.ID, featured.ID}},
		{"status", LaunchFilter{Status: "draft"}, []uint{draft.ID}},
		{"featured", LaunchFilter{Featured: true}, []uint{featured.ID}},
		{"date", LaunchFilter{Date: "2026-03-02"}, []uint{popular.ID}},
		{"limit", LaunchFilter{Limit: 1}, []uint{popular.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListLaunches(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListLaunches: %v", err)
			}
			if ids := launchIDs(got); !sameIDs(ids, tt.want) {
				t.Errorf("ids: got %v, want %v", ids, tt.want)
			}
		})
	}

	got, err := svc.ListLaunches(ctx, LaunchFilter{})
	if err != nil {
		t.Fatalf("ListLaunches: %v", err)
	}
	if got[0].Product == nil || got[0].Product.Slug != "acme-crm" {
		t.Errorf("product should be preloaded, got %+v", got[0].Product)
	}
}

func TestListLaunches_RejectsBadFilter(t *testing.T) {
	svc := NewLaunchService(testutil.NewDB(t), nil)

	for _, filter := range []LaunchFilter{{Status: "SHIPPED"}, {Date: "03/02/2026"}} {
		if _, err := svc.ListLaunches(context.Background(), filter); !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("%+v: expected ErrInvalidFilter, got %v", filter, err)
		}
	}
}

func TestTodayLaunches(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewLaunchService(db, nil)
	now := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
	svc.now = fixedClock(now)
	product := testutil.SeedProduct(t, db, "acme-crm")

	morning := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	yesterday := morning.Add(-time.Second)
	today := seedLaunchAt(t, db, models.Launch{ProductID: product.ID, Status: models.LaunchLive, LaunchedAt: &morning})
	seedLaunchAt(t, db, models.Launch{ProductID: product.ID, Status: models.LaunchLive, LaunchedAt: &yesterday})
	seedLaunchAt(t, db, models.Launch{ProductID: product.ID, Status: models.LaunchCompleted, LaunchedAt: &morning})

	got, err := svc.TodayLaunches(context.Background(), 0)
	if err != nil {
		t.Fatalf("TodayLaunches: %v", err)
	}
	if got.Date != "2026-03-02" || got.Count != 1 || got.Launches[0].ID != today.ID {
		t.Errorf("got date=%s count=%d ids=%v", got.Date, got.Count, launchIDs(got.Launches))
	}
}

func TestGetLaunch_CountsViews(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewLaunchService(db, nil)
	product := testutil.SeedProduct(t, db, "acme-crm")
	launch := testutil.SeedLaunch(t, db, product.ID)
	ctx := context.Background()

	if _, err := svc.GetLaunch(ctx, launch.ID); err != nil {
		t.Fatalf("GetLaunch: %v", err)
	}
	got, err := svc.GetLaunch(ctx, launch.ID)
	if err != nil {
		t.Fatalf("GetLaunch: %v", err)
	}
	if got.ViewCount != 2 || got.Product == nil {
		t.Errorf("got view_count=%d product=%v", got.ViewCount, got.Product)
	}

	var nf *NotFoundError
	if _, err := svc.GetLaunch(ctx, launch.ID+1); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestCreateLaunch(t *testing.T) {
	db := testutil.NewDB(t)
	pub := &recordingPublisher{}
	svc := NewLaunchService(db, pub)
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(now)
	maker := testutil.SeedUser(t, db, "maker@example.com", models.RoleUser)
	product := testutil.SeedProduct(t, db, "acme-crm")
	ctx := context.Background()

	draft, err := svc.CreateLaunch(ctx, maker.ID, CreateLaunchRequest{ProductID: product.ID, Title: " Acme 2.0 ", Tagline: "Faster CRM"})
	if err != nil {
		t.Fatalf("CreateLaunch: %v", err)
	}
	if draft.Status != models.LaunchDraft || draft.MakerID != maker.ID || draft.Title != "Acme 2.0" || draft.LaunchedAt != nil {
		t.Errorf("draft: got %+v", draft)
	}

	live, err := svc.CreateLaunch(ctx, maker.ID, CreateLaunchRequest{ProductID: product.ID, Title: "Acme 3.0", Tagline: "Fastest", Status: "live"})
	if err != nil {
		t.Fatalf("CreateLaunch live: %v", err)
	}
	if live.Status != models.LaunchLive || live.LaunchedAt == nil || !live.LaunchedAt.Equal(now) {
		t.Errorf("live: got status=%s launched_at=%v", live.Status, live.LaunchedAt)
	}
	if !pub.has(events.LaunchCreated) {
		t.Errorf("expected %s event, got %v", events.LaunchCreated, pub.types())
	}

	var nf *NotFoundError
	_, err = svc.CreateLaunch(ctx, maker.ID, CreateLaunchRequest{ProductID: product.ID + 9, Title: "x", Tagline: "y"})
	if !errors.As(err, &nf) || nf.Resource != "Product" {
		t.Errorf("unknown product: got %v", err)
	}

	var verr *ValidationError
	_, err = svc.CreateLaunch(ctx, maker.ID, CreateLaunchRequest{ProductID: product.ID, Title: "x", Tagline: "y", Status: "shipped"})
	if !errors.As(err, &verr) || verr.Details[0].Field != "status" {
		t.Errorf("bad status: got %v", err)
	}
}

func TestUpdateLaunch_Permissions(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewLaunchService(db, nil)
	maker := testutil.SeedUser(t, db, "maker@example.com", models.RoleUser)
	stranger := testutil.SeedUser(t, db, "eve@example.com", models.RoleUser)
	admin := testutil.SeedUser(t, db, "admin@example.com", models.RoleAdmin)
	product := testutil.SeedProduct(t, db, "acme-crm")
	launch := seedLaunchAt(t, db, models.Launch{ProductID: product.ID, MakerID: maker.ID, Status: models.LaunchDraft})
	ctx := context.Background()

	title := "Renamed"
	if _, err := svc.UpdateLaunch(ctx, launch.ID, stranger.ID, false, UpdateLaunchRequest{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger: expected ErrForbidden, got %v", err)
	}

	featured := true
	if _, err := svc.UpdateLaunch(ctx, launch.ID, maker.ID, false, UpdateLaunchRequest{Featured: &featured}); !errors.Is(err, ErrForbidden) {
		t.Errorf("maker featuring: expected ErrForbidden, got %v", err)
	}

	status := "LIVE"
	got, err := svc.UpdateLaunch(ctx, launch.ID, maker.ID, false, UpdateLaunchRequest{Title: &title, Status: &status})
	if err != nil {
		t.Fatalf("maker update: %v", err)
	}
	if got.Title != "Renamed" || got.Status != models.LaunchLive || got.LaunchedAt == nil {
		t.Errorf("maker update: got %+v", got)
	}

	got, err = svc.UpdateLaunch(ctx, launch.ID, admin.ID, true, UpdateLaunchRequest{Featured: &featured})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if !got.Featured {
		t.Error("admin should be able to feature a launch")
	}
}

func TestDeleteLaunch_RemovesUpvotesAndComments(t *testing.T) {
	db := testutil.NewDB(t)
	pub := &recordingPublisher{}
	svc := NewLaunchService(db, pub)
	maker := testutil.SeedUser(t, db, "maker@example.com", models.RoleUser)
	stranger := testutil.SeedUser(t, db, "eve@example.com", models.RoleUser)
	product := testutil.SeedProduct(t, db, "acme-crm")
	launch := seedLaunchAt(t, db, models.Launch{ProductID: product.ID, MakerID: maker.ID, Status: models.LaunchLive})
	other := testutil.SeedLaunch(t, db, product.ID)
	ctx := context.Background()

	if _, err := svc.ToggleUpvote(ctx, launch.ID, stranger.ID); err != nil {
		t.Fatalf("ToggleUpvote: %v", err)
	}
	seedComment(t, db, launch.ID, stranger.ID, nil, "nice")
	seedComment(t, db, other.ID, stranger.ID, nil, "kept")

	if err := svc.DeleteLaunch(ctx, launch.ID, stranger.ID, false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger delete: expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteLaunch(ctx, launch.ID, maker.ID, false); err != nil {
		t.Fatalf("DeleteLaunch: %v", err)
	}

	var launches, upvotes, comments int64
	db.Model(&models.Launch{}).Count(&launches)
	db.Model(&models.Upvote{}).Count(&upvotes)
	db.Model(&models.Comment{}).Count(&comments)
	if launches != 1 || upvotes != 0 || comments != 1 {
		t.Errorf("after delete: launches=%d upvotes=%d comments=%d", launches, upvotes, comments)
	}
	if !pub.has(events.LaunchDeleted) {
		t.Errorf("expected %s event, got %v", events.LaunchDeleted, pub.types())
	}
}
