package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/validator/backend/internal/config"
	"github.com/validator/backend/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// ContentRejectedError carries the moderation verdict for an idea that was
// refused before any resource was created.
type ContentRejectedError struct {
	Verdict *ContentVerdict
}

func (e *ContentRejectedError) Error() string {
	return "idea rejected by content review: " + e.Verdict.Reason
}

// ExperimentStore is the persistence surface the service needs; implemented
// by repositories.ExperimentRepo.
type ExperimentStore interface {
	Create(ctx context.Context, e *models.Experiment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Experiment, error)
	GetBySlug(ctx context.Context, slug string) (*models.Experiment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Experiment, error)
	SetRemoteIDs(ctx context.Context, id uuid.UUID, campaignID, adsetID, adID string) error
	SetAdID(ctx context.Context, id uuid.UUID, userID uuid.UUID, adID string) (bool, error)
	DeleteByIDAndUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (bool, error)
}

type WaitlistStore interface {
	Create(ctx context.Context, w *models.WaitlistEntry) error
	ListBySlug(ctx context.Context, slug string) ([]models.WaitlistEntry, error)
	CountBySlug(ctx context.Context, slug string) (int, error)
	DeleteBySlug(ctx context.Context, slug string) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

type CreateExperimentInput struct {
	IdeaName        string
	IdeaDescription string
	RunAds          bool
	Campaign        CampaignInput
}

// ExperimentService owns the experiment lifecycle: copy generation, local
// persistence, the optional remote campaign chain and the deletion
// orchestrator that unwinds both.
type ExperimentService struct {
	experiments ExperimentStore
	waitlist    WaitlistStore
	audit       AuditStore
	generator   *Generator
	ads         *AdsService
	api         GraphAPI
	mailer      Mailer
	cfg         *config.Config
	log         *zap.Logger
}

func NewExperimentService(
	experiments ExperimentStore,
	waitlist WaitlistStore,
	audit AuditStore,
	generator *Generator,
	ads *AdsService,
	api GraphAPI,
	mailer Mailer,
	cfg *config.Config,
	log *zap.Logger,
) *ExperimentService {
	return &ExperimentService{
		experiments: experiments,
		waitlist:    waitlist,
		audit:       audit,
		generator:   generator,
		ads:         ads,
		api:         api,
		mailer:      mailer,
		cfg:         cfg,
		log:         log,
	}
}

// LandingURL is the public address of an experiment's landing page; ad
// clicks resolve here.
func (s *ExperimentService) LandingURL(slug string) string {
	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/l/" + slug
}

// Create generates copy, persists the experiment and, when ads were
// requested, runs the remote creation chain. The experiment is persisted
// BEFORE the chain runs: a chain failure returns the created landing-only
// experiment together with the *ChainError, never a dangling remote chain.
func (s *ExperimentService) Create(ctx context.Context, user *models.User, in CreateExperimentInput) (*models.Experiment, error) {
	fields := map[string]string{}
	if strings.TrimSpace(in.IdeaName) == "" {
		fields["ideaName"] = "ideaName is required"
	}
	if strings.TrimSpace(in.IdeaDescription) == "" {
		fields["ideaDescription"] = "ideaDescription is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	// Campaign input is checked before the first side effect (generation,
	// persistence), so a 400 never leaves a row behind. Fields the caller
	// left blank get the same defaults the chain will use.
	if in.RunAds {
		pre := in.Campaign
		if pre.URL == "" {
			pre.URL = s.LandingURL("pending")
		}
		if pre.ProjectName == "" {
			pre.ProjectName = strings.TrimSpace(in.IdeaName)
		}
		if verr := pre.Validate(); verr != nil {
			return nil, verr
		}
	}

	verdict, err := s.generator.ValidateContent(ctx, in.IdeaName, in.IdeaDescription)
	if err != nil {
		return nil, err
	}
	if !verdict.Valid {
		return nil, &ContentRejectedError{Verdict: verdict}
	}

	landing, err := s.generator.GenerateLanding(ctx, in.IdeaName, in.IdeaDescription)
	if err != nil {
		return nil, err
	}

	exp := &models.Experiment{
		Slug:            s.newSlug(ctx, in.IdeaName),
		UserID:          user.ID,
		IdeaName:        strings.TrimSpace(in.IdeaName),
		IdeaDescription: strings.TrimSpace(in.IdeaDescription),
		Landing:         *landing,
	}

	if in.RunAds {
		creative, err := s.generator.GenerateAdCopy(ctx, in.IdeaName, in.IdeaDescription, s.LandingURL(exp.Slug))
		if err != nil {
			return nil, err
		}
		exp.AdCreative = creative
	}

	if err := s.experiments.Create(ctx, exp); err != nil {
		return nil, fmt.Errorf("persist experiment: %w", err)
	}
	s.auditLog(ctx, user.ID, "experiment.created", exp.ID, nil)

	if !in.RunAds {
		return exp, nil
	}

	campaign := in.Campaign
	if campaign.URL == "" {
		campaign.URL = s.LandingURL(exp.Slug)
	}
	if campaign.ProjectName == "" {
		campaign.ProjectName = exp.IdeaName
	}
	if campaign.Message == "" && exp.AdCreative != nil {
		campaign.Message = exp.AdCreative.Message
	}
	if campaign.Headline == "" && exp.AdCreative != nil {
		campaign.Headline = exp.AdCreative.Headline
	}

	res, err := s.ads.CreateCampaignChain(ctx, user.Email, campaign)
	if err != nil {
		// The landing-only experiment stands; the caller decides whether
		// to retry the campaign.
		s.auditLog(ctx, user.ID, "experiment.campaign_failed", exp.ID, map[string]any{
			"error": err.Error(),
		})
		return exp, err
	}

	if err := s.experiments.SetRemoteIDs(ctx, exp.ID, res.CampaignID, res.AdSetID, res.AdID); err != nil {
		return exp, fmt.Errorf("persist remote ids: %w", err)
	}
	exp.CampaignID = &res.CampaignID
	exp.AdSetID = &res.AdSetID
	exp.AdID = &res.AdID
	exp.CampaignSettings = &res.CampaignSettings
	s.auditLog(ctx, user.ID, "experiment.campaign_created", exp.ID, map[string]any{
		"campaign_id": res.CampaignID,
		"ad_id":       res.AdID,
	})
	return exp, nil
}

// Get returns the experiment after checking ownership.
func (s *ExperimentService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Experiment, error) {
	exp, err := s.experiments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if exp.UserID != userID {
		return nil, ErrForbidden
	}
	return exp, nil
}

// GetBySlug is the public, unauthenticated read used by the landing page.
func (s *ExperimentService) GetBySlug(ctx context.Context, slug string) (*models.Experiment, error) {
	exp, err := s.experiments.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return exp, nil
}

func (s *ExperimentService) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Experiment, error) {
	return s.experiments.ListByUser(ctx, userID)
}

// UpdateAdID repoints an experiment at a different remote ad.
func (s *ExperimentService) UpdateAdID(ctx context.Context, id, userID uuid.UUID, adID string) error {
	if strings.TrimSpace(adID) == "" {
		return &ValidationError{Fields: map[string]string{"adId": "adId is required"}}
	}
	ok, err := s.experiments.SetAdID(ctx, id, userID, adID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.auditLog(ctx, userID, "experiment.ad_id_updated", id, map[string]any{"ad_id": adID})
	return nil
}

type DeletionResult struct {
	RemoteDeleted []string `json:"remoteDeleted"`
	RemoteFailed  []string `json:"remoteFailed,omitempty"`
	WaitlistRows  int64    `json:"waitlistRows"`
}

// Delete unwinds one experiment: best-effort remote cleanup first, then the
// local row and its waitlist entries. Remote failures never block the local
// delete; they are reported to the operator instead.
func (s *ExperimentService) Delete(ctx context.Context, id, userID uuid.UUID) (*DeletionResult, error) {
	exp, err := s.experiments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if exp.UserID != userID {
		return nil, ErrForbidden
	}

	result := &DeletionResult{RemoteDeleted: []string{}}

	if exp.HasCampaign() && s.api.Configured() {
		targets := s.remoteTargets(ctx, exp)
		var mu sync.Mutex
		var g errgroup.Group
		for _, id := range targets {
			id := id
			g.Go(func() error {
				if err := s.api.DeleteNode(ctx, id); err != nil {
					s.log.Warn("remote cleanup failed during experiment deletion",
						zap.String("remote_id", id), zap.Error(err))
					mu.Lock()
					result.RemoteFailed = append(result.RemoteFailed, id)
					mu.Unlock()
					return nil
				}
				mu.Lock()
				result.RemoteDeleted = append(result.RemoteDeleted, id)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		if len(result.RemoteFailed) > 0 {
			report := fmt.Sprintf(
				"Experiment %s (%s) was deleted locally but these remote nodes could not be removed: %s",
				exp.ID, exp.IdeaName, strings.Join(result.RemoteFailed, ", "),
			)
			if err := s.mailer.Send(ctx, "Orphaned ad resources after experiment deletion", report); err != nil {
				s.log.Warn("orphan report not sent", zap.Error(err))
			}
		}
	}

	deleted, err := s.experiments.DeleteByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrNotFound
	}

	rows, err := s.waitlist.DeleteBySlug(ctx, exp.Slug)
	if err != nil {
		s.log.Warn("waitlist cascade failed", zap.String("slug", exp.Slug), zap.Error(err))
	}
	result.WaitlistRows = rows

	s.auditLog(ctx, userID, "experiment.deleted", id, map[string]any{
		"remote_deleted": result.RemoteDeleted,
		"remote_failed":  result.RemoteFailed,
	})
	return result, nil
}

// remoteTargets resolves the full id set to clean up. The live lineage fetch
// is authoritative, because the stored parent ids can be stale after a
// manual repoint; stored ids are the fallback when the platform is
// unreachable.
func (s *ExperimentService) remoteTargets(ctx context.Context, exp *models.Experiment) []string {
	adID := ""
	if exp.AdID != nil {
		adID = *exp.AdID
	}

	var ids []string
	if adID != "" {
		ids = append(ids, adID)
	}

	if lineage, err := s.api.GetAdLineage(ctx, adID); err == nil {
		ids = append(ids, lineage.AdSetID, lineage.CampaignID)
	} else {
		s.log.Warn("ad lineage fetch failed, falling back to stored ids",
			zap.String("ad_id", adID), zap.Error(err))
		if exp.AdSetID != nil {
			ids = append(ids, *exp.AdSetID)
		}
		if exp.CampaignID != nil {
			ids = append(ids, *exp.CampaignID)
		}
	}
	return dedupe(ids)
}

// WaitlistSignup records a public signup against a live experiment slug.
func (s *ExperimentService) WaitlistSignup(ctx context.Context, slug, email string, name *string) (*models.WaitlistEntry, error) {
	fields := map[string]string{}
	if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "email must be a valid address"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.GetBySlug(ctx, slug); err != nil {
		return nil, err
	}

	entry := &models.WaitlistEntry{Slug: slug, Email: email, Name: name}
	if err := s.waitlist.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// WaitlistEntries lists signups for an experiment the caller owns.
func (s *ExperimentService) WaitlistEntries(ctx context.Context, id, userID uuid.UUID) ([]models.WaitlistEntry, error) {
	exp, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.waitlist.ListBySlug(ctx, exp.Slug)
}

// Feedback forwards a user message to the operator mailbox.
func (s *ExperimentService) Feedback(ctx context.Context, userEmail, message string) error {
	if strings.TrimSpace(message) == "" {
		return &ValidationError{Fields: map[string]string{"message": "message is required"}}
	}
	body := fmt.Sprintf("From: %s\n\n%s", userEmail, message)
	if err := s.mailer.Send(ctx, "User feedback", body); err != nil {
		s.log.Warn("feedback mail not sent", zap.Error(err))
	}
	if s.audit != nil {
		entry := models.AuditLog{
			ActorType:  "system",
			Action:     "feedback.received",
			EntityType: "feedback",
			Meta:       map[string]any{"from": userEmail},
		}
		if err := s.audit.Log(ctx, entry); err != nil {
			s.log.Warn("audit write failed", zap.String("action", entry.Action), zap.Error(err))
		}
	}
	return nil
}

// newSlug derives a URL slug from the idea name with a random suffix for
// uniqueness; a direct collision check covers the pathological case.
func (s *ExperimentService) newSlug(ctx context.Context, ideaName string) string {
	base := slugify(ideaName)
	for i := 0; i < 3; i++ {
		slug := base + "-" + randomSuffix(4)
		if _, err := s.experiments.GetBySlug(ctx, slug); errors.Is(err, pgx.ErrNoRows) {
			return slug
		}
	}
	return base + "-" + randomSuffix(8)
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "experiment"
	}
	if len(out) > 48 {
		out = strings.Trim(out[:48], "-")
	}
	return out
}

func randomSuffix(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return hex.EncodeToString([]byte{byte(n)})
	}
	return hex.EncodeToString(buf)[:n]
}

func (s *ExperimentService) auditLog(ctx context.Context, actor uuid.UUID, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := models.AuditLog{
		ActorUserID: &actor,
		ActorType:   "user",
		Action:      action,
		EntityType:  "experiment",
		EntityID:    &entityID,
		Meta:        meta,
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
