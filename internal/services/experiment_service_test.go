package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/validator/backend/internal/config"
	"github.com/validator/backend/internal/models"
)

type fakeExperimentStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Experiment
}

func newFakeExperimentStore() *fakeExperimentStore {
	return &fakeExperimentStore{rows: map[uuid.UUID]*models.Experiment{}}
}

func (f *fakeExperimentStore) Create(_ context.Context, e *models.Experiment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	cp := *e
	f.rows[e.ID] = &cp
	return nil
}

func (f *fakeExperimentStore) GetByID(_ context.Context, id uuid.UUID) (*models.Experiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (f *fakeExperimentStore) GetBySlug(_ context.Context, slug string) (*models.Experiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.Slug == slug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeExperimentStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Experiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Experiment
	for _, e := range f.rows {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeExperimentStore) SetRemoteIDs(_ context.Context, id uuid.UUID, campaignID, adsetID, adID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	e.CampaignID = &campaignID
	e.AdSetID = &adsetID
	e.AdID = &adID
	return nil
}

func (f *fakeExperimentStore) SetAdID(_ context.Context, id uuid.UUID, userID uuid.UUID, adID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok || e.UserID != userID {
		return false, nil
	}
	e.AdID = &adID
	return true, nil
}

func (f *fakeExperimentStore) DeleteByIDAndUser(_ context.Context, id uuid.UUID, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok || e.UserID != userID {
		return false, nil
	}
	delete(f.rows, id)
	return true, nil
}

type fakeWaitlistStore struct {
	mu      sync.Mutex
	entries []models.WaitlistEntry
}

func (f *fakeWaitlistStore) Create(_ context.Context, w *models.WaitlistEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.ID = uuid.New()
	w.CreatedAt = time.Now()
	f.entries = append(f.entries, *w)
	return nil
}

func (f *fakeWaitlistStore) ListBySlug(_ context.Context, slug string) ([]models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.WaitlistEntry
	for _, e := range f.entries {
		if e.Slug == slug {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeWaitlistStore) CountBySlug(ctx context.Context, slug string) (int, error) {
	entries, _ := f.ListBySlug(ctx, slug)
	return len(entries), nil
}

func (f *fakeWaitlistStore) DeleteBySlug(_ context.Context, slug string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.entries[:0]
	var n int64
	for _, e := range f.entries {
		if e.Slug == slug {
			n++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return n, nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (f *fakeAuditStore) Log(_ context.Context, entry models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type experimentFixture struct {
	svc      *ExperimentService
	store    *fakeExperimentStore
	waitlist *fakeWaitlistStore
	audit    *fakeAuditStore
	api      *fakeGraphAPI
	mailer   *fakeMailer
	user     *models.User
}

func newExperimentFixture(t *testing.T, api *fakeGraphAPI) *experimentFixture {
	t.Helper()
	log := zap.NewNop()
	cfg := &config.Config{
		DefaultCountry:  "US",
		EstimateCPMLow:  4.0,
		EstimateCPMHigh: 9.0,
		PublicBaseURL:   "https://validator.example",
	}
	gen, err := NewGenerator(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("generator: %v", err)
	}
	mailer := &fakeMailer{}
	ads := NewAdsService(api, NewRollback(api, mailer, log), nil, cfg, log)
	store := newFakeExperimentStore()
	waitlist := &fakeWaitlistStore{}
	audit := &fakeAuditStore{}
	svc := NewExperimentService(store, waitlist, audit, gen, ads, api, mailer, cfg, log)
	return &experimentFixture{
		svc:      svc,
		store:    store,
		waitlist: waitlist,
		audit:    audit,
		api:      api,
		mailer:   mailer,
		user:     &models.User{ID: uuid.New(), Email: "owner@example.com"},
	}
}

func TestCreateLandingOnly(t *testing.T) {
	fx := newExperimentFixture(t, &fakeGraphAPI{configured: true})

	exp, err := fx.svc.Create(context.Background(), fx.user, CreateExperimentInput{
		IdeaName:        "Plant Sitter",
		IdeaDescription: "Match plant owners with local sitters.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp.Slug == "" || !strings.HasPrefix(exp.Slug, "plant-sitter-") {
		t.Errorf("slug = %q", exp.Slug)
	}
	if exp.Landing.HeroTitle == "" {
		t.Errorf("landing not generated: %+v", exp.Landing)
	}
	if exp.HasCampaign() {
		t.Errorf("no campaign requested but remote ids set: %+v", exp)
	}
	if len(fx.api.calls) != 0 {
		t.Errorf("remote calls without RunAds: %v", fx.api.calls)
	}
}

func TestCreateWithAds(t *testing.T) {
	fx := newExperimentFixture(t, &fakeGraphAPI{configured: true})

	exp, err := fx.svc.Create(context.Background(), fx.user, CreateExperimentInput{
		IdeaName:        "Plant Sitter",
		IdeaDescription: "Match plant owners with local sitters.",
		RunAds:          true,
		Campaign: CampaignInput{
			DailyBudget:  5,
			DurationDays: 7,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exp.HasCampaign() {
		t.Fatalf("campaign ids missing: %+v", exp)
	}
	if *exp.CampaignID != "cmp-1" || *exp.AdSetID != "set-1" || *exp.AdID != "ad-1" {
		t.Fatalf("remote ids = %v %v %v", *exp.CampaignID, *exp.AdSetID, *exp.AdID)
	}

	stored, err := fx.store.GetByID(context.Background(), exp.ID)
	if err != nil {
		t.Fatalf("stored row: %v", err)
	}
	if !stored.HasCampaign() {
		t.Fatalf("remote ids not persisted: %+v", stored)
	}
}

func TestCreateChainFailureKeepsLandingExperiment(t *testing.T) {
	fx := newExperimentFixture(t, &fakeGraphAPI{configured: true, failStep: "creative"})

	exp, err := fx.svc.Create(context.Background(), fx.user, CreateExperimentInput{
		IdeaName:        "Plant Sitter",
		IdeaDescription: "Match plant owners with local sitters.",
		RunAds:          true,
		Campaign:        CampaignInput{DailyBudget: 5, DurationDays: 7},
	})
	var cerr *ChainError
	if !errors.As(err, &cerr) {
		t.Fatalf("want ChainError, got %v", err)
	}
	if exp == nil {
		t.Fatal("experiment must survive a chain failure")
	}

	stored, err2 := fx.store.GetByID(context.Background(), exp.ID)
	if err2 != nil {
		t.Fatalf("stored row: %v", err2)
	}
	if stored.HasCampaign() || stored.CampaignID != nil {
		t.Fatalf("remote ids must not be persisted after rollback: %+v", stored)
	}
}

func TestCreateInvalidCampaignInputPersistsNothing(t *testing.T) {
	fx := newExperimentFixture(t, &fakeGraphAPI{configured: true})

	_, err := fx.svc.Create(context.Background(), fx.user, CreateExperimentInput{
		IdeaName:        "Plant Sitter",
		IdeaDescription: "Match plant owners with local sitters.",
		RunAds:          true,
		Campaign:        CampaignInput{DailyBudget: 0, DurationDays: 0},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	for _, field := range []string{"dailyBudget", "durationDays"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("missing violation for %s: %v", field, verr.Fields)
		}
	}

	fx.store.mu.Lock()
	rows := len(fx.store.rows)
	fx.store.mu.Unlock()
	if rows != 0 {
		t.Fatalf("rejected request persisted %d experiment row(s)", rows)
	}
	if len(fx.api.calls) != 0 {
		t.Fatalf("rejected request issued remote calls: %v", fx.api.calls)
	}
}

func TestCreateRequiredFields(t *testing.T) {
	fx := newExperimentFixture(t, &fakeGraphAPI{configured: true})

	_, err := fx.svc.Create(context.Background(), fx.user, CreateExperimentInput{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["ideaName"]; !ok {
		t.Errorf("missing ideaName violation: %v", verr.Fields)
	}
	if _, ok := verr.Fields["ideaDescription"]; !ok {
		t.Errorf("missing ideaDescription violation: %v", verr.Fields)
	}
}

func TestGetOwnership(t *testing.T) {
	fx := newExperimentFixture(t, &fakeGraphAPI{configured: true})
	exp, err := fx.svc.Create(context.Background(), fx.user, CreateExperimentInput{
		IdeaName:        "Idea",
		IdeaDescription: "Desc",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := fx.svc.Get(context.Background(), exp.ID, fx.user.ID); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := fx.svc.Get(context.Background(), exp.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if _, err := fx.svc.Get(context.Background(), uuid.New(), fx.user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDeleteForbiddenLeavesRow(t *testing.T) {
	fx := newExperimentFixture(t, &fakeGraphAPI{configured: true})
	exp, err := fx.svc.Create(context.Background(), fx.user, CreateExperimentInput{
		IdeaName:        "Idea",
		IdeaDescription: "Desc",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := fx.svc.Delete(context.Background(), exp.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if _, err := fx.store.GetByID(context.Background(), exp.ID); err != nil {
		t.Fatalf("row must survive a forbidden delete: %v", err)
	}
}

func TestDeleteWithCampaignCleansRemoteAndWaitlist(t *testing.T) {
	fx := newExperimentFixture(t, &fakeGraphAPI{configured: true})
	exp, err := fx.svc.Create(context.Background(), fx.user, CreateExperimentInput{
		IdeaName:        "Idea",
		IdeaDescription: "Desc",
		RunAds:          true,
		Campaign:        CampaignInput{DailyBudget: 5, DurationDays: 7},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := fx.svc.WaitlistSignup(context.Background(), exp.Slug, "fan@example.com", nil); err != nil {
		t.Fatalf("signup: %v", err)
	}

	res, err := fx.svc.Delete(context.Background(), exp.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Lineage resolves to set-1/cmp-1; the ad itself comes from the row.
	got := map[string]bool{}
	for _, id := range res.RemoteDeleted {
		got[id] = true
	}
	for _, id := range []string{"ad-1", "set-1", "cmp-1"} {
		if !got[id] {
			t.Errorf("remote id %s not deleted: %v", id, res.RemoteDeleted)
		}
	}
	if res.WaitlistRows != 1 {
		t.Errorf("waitlist rows = %d, want 1", res.WaitlistRows)
	}
	if _, err := fx.store.GetByID(context.Background(), exp.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("local row must be gone, got %v", err)
	}
}

func TestDeleteRemoteFailureStillDeletesLocally(t *testing.T) {
	api := &fakeGraphAPI{configured: true}
	fx := newExperimentFixture(t, api)
	exp, err := fx.svc.Create(context.Background(), fx.user, CreateExperimentInput{
		IdeaName:        "Idea",
		IdeaDescription: "Desc",
		RunAds:          true,
		Campaign:        CampaignInput{DailyBudget: 5, DurationDays: 7},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	api.deleteErr = errors.New("platform down")
	res, err := fx.svc.Delete(context.Background(), exp.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("delete must succeed despite remote failures: %v", err)
	}
	if len(res.RemoteFailed) != 3 || len(res.RemoteDeleted) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if _, err := fx.store.GetByID(context.Background(), exp.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Errorf("local row must be gone, got %v", err)
	}
	fx.mailer.mu.Lock()
	defer fx.mailer.mu.Unlock()
	if len(fx.mailer.subjects) == 0 {
		t.Error("orphan report not sent")
	}
}

func TestWaitlistSignupValidation(t *testing.T) {
	fx := newExperimentFixture(t, &fakeGraphAPI{configured: true})

	_, err := fx.svc.WaitlistSignup(context.Background(), "any-slug", "not-an-email", nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}

	_, err = fx.svc.WaitlistSignup(context.Background(), "no-such-slug", "a@example.com", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown slug, got %v", err)
	}
}

func TestFeedback(t *testing.T) {
	fx := newExperimentFixture(t, &fakeGraphAPI{configured: true})

	if err := fx.svc.Feedback(context.Background(), "u@example.com", "   "); err == nil {
		t.Fatal("blank feedback must be rejected")
	}
	if err := fx.svc.Feedback(context.Background(), "u@example.com", "love it"); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	fx.mailer.mu.Lock()
	defer fx.mailer.mu.Unlock()
	if len(fx.mailer.bodies) != 1 || !strings.Contains(fx.mailer.bodies[0], "love it") {
		t.Fatalf("bodies = %v", fx.mailer.bodies)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Plant Sitter":        "plant-sitter",
		"  AI  Résumé!! Tool": "ai-r-sum-tool",
		"???":                 "experiment",
		"UPPER case 123":      "upper-case-123",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
