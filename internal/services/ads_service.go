package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/validator/backend/internal/config"
	"github.com/validator/backend/internal/meta"
	"github.com/validator/backend/internal/models"
)

// GraphAPI is the slice of the ad platform client the orchestrators need.
type GraphAPI interface {
	Configured() bool
	CreateCampaign(ctx context.Context, name string) (string, error)
	CreateAdSet(ctx context.Context, p meta.AdSetParams) (string, error)
	CreateCreative(ctx context.Context, p meta.CreativeParams) (string, error)
	CreateAd(ctx context.Context, p meta.AdParams) (string, error)
	DeleteNode(ctx context.Context, id string) error
	UpdateCampaignStatus(ctx context.Context, id, status string) error
	GetAdLineage(ctx context.Context, adID string) (meta.Lineage, error)
	GetInsights(ctx context.Context, adID string) (*meta.Insights, error)
	GetPreview(ctx context.Context, adID, format string) (string, error)
}

// ErrAdPlatformNotConfigured distinguishes missing credentials from upstream
// failures; both map to HTTP 500 but the message differs.
var ErrAdPlatformNotConfigured = errors.New("ad platform credentials are not configured")

// ValidationError aggregates every invalid field of a request. No remote call
// is issued while it is non-empty.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// ChainError wraps a mid-chain creation failure together with the rollback
// outcome, so the caller never believes a resource exists after compensation.
type ChainError struct {
	Step     string
	Err      error
	Rollback *RollbackResult
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("campaign creation failed at %s: %v", e.Step, e.Err)
}

func (e *ChainError) Unwrap() error { return e.Err }

type CampaignInput struct {
	URL              string
	ProjectName      string
	Message          string
	CallToActionType string
	AdName           string
	Country          string
	DurationDays     float64
	DailyBudget      float64
	PictureURL       string
	Headline         string
}

type CampaignResult struct {
	CampaignID       string                  `json:"campaignId"`
	AdSetID          string                  `json:"adSetId"`
	CreativeID       string                  `json:"creativeId"`
	AdID             string                  `json:"adId"`
	Status           string                  `json:"status"`
	CampaignSettings models.CampaignSettings `json:"campaignSettings"`
}

type CampaignDeletion struct {
	DeletedVia   string `json:"deletedVia"`
	FallbackFrom string `json:"fallbackFrom,omitempty"`
}

type EstimateResult struct {
	ImpressionsMin int64 `json:"impressionsMin"`
	ImpressionsMax int64 `json:"impressionsMax"`
}

var supportedCountries = map[string]string{
	"US": "United States", "GB": "United Kingdom", "CA": "Canada",
	"AU": "Australia", "DE": "Germany", "FR": "France", "ES": "Spain",
	"IT": "Italy", "NL": "Netherlands", "BR": "Brazil", "MX": "Mexico",
	"IN": "India", "JP": "Japan", "SE": "Sweden", "PL": "Poland",
}

// SupportedCountries returns the targetable country codes and display names.
func SupportedCountries() map[string]string {
	out := make(map[string]string, len(supportedCountries))
	for k, v := range supportedCountries {
		out[k] = v
	}
	return out
}

var callToActionTypes = []string{
	"LEARN_MORE", "SIGN_UP", "SUBSCRIBE", "GET_OFFER", "CONTACT_US", "DOWNLOAD",
}

func CallToActionTypes() []string {
	return append([]string(nil), callToActionTypes...)
}

func isValidCallToAction(t string) bool {
	for _, v := range callToActionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// AdsService drives the remote 4-step creation chain and its compensating
// rollback, plus the per-campaign deletion variant and ad read endpoints.
type AdsService struct {
	api      GraphAPI
	rollback *Rollback
	rdb      *redis.Client
	cfg      *config.Config
	log      *zap.Logger
}

func NewAdsService(api GraphAPI, rollback *Rollback, rdb *redis.Client, cfg *config.Config, log *zap.Logger) *AdsService {
	return &AdsService{api: api, rollback: rollback, rdb: rdb, cfg: cfg, log: log}
}

// Validate checks the input without touching the network. Violations are
// aggregated so the caller can report every bad field at once.
func (in *CampaignInput) Validate() *ValidationError {
	fields := map[string]string{}

	if in.URL == "" {
		fields["url"] = "url is required"
	} else if u, err := url.Parse(in.URL); err != nil || !u.IsAbs() || u.Host == "" {
		fields["url"] = "url must be a well-formed absolute URL"
	}

	if strings.TrimSpace(in.ProjectName) == "" {
		fields["projectName"] = "projectName is required"
	}

	if math.IsNaN(in.DurationDays) || math.IsInf(in.DurationDays, 0) || in.DurationDays < 1 {
		fields["durationDays"] = "durationDays must be a number >= 1"
	}

	if math.IsNaN(in.DailyBudget) || math.IsInf(in.DailyBudget, 0) || in.DailyBudget < 1 {
		fields["dailyBudget"] = "dailyBudget must be a number >= 1"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// TotalBudget derives the cent-rounded campaign total.
func TotalBudget(dailyBudget, durationDays float64) float64 {
	return math.Round(dailyBudget*durationDays*100) / 100
}

func (s *AdsService) normalizeCountry(country string) string {
	code := strings.ToUpper(strings.TrimSpace(country))
	if _, ok := supportedCountries[code]; ok {
		return code
	}
	return s.cfg.DefaultCountry
}

// CreateCampaignChain runs the strict Campaign -> AdSet -> Creative -> Ad
// sequence. Each step embeds the previous step's id, so the order is fixed.
// A failure at any step past the first compensates by deleting everything
// created so far before the error is surfaced.
func (s *AdsService) CreateCampaignChain(ctx context.Context, userEmail string, in CampaignInput) (*CampaignResult, error) {
	if verr := in.Validate(); verr != nil {
		return nil, verr
	}
	if !s.api.Configured() {
		return nil, ErrAdPlatformNotConfigured
	}

	country := s.normalizeCountry(in.Country)
	cta := in.CallToActionType
	if !isValidCallToAction(cta) {
		cta = "LEARN_MORE"
	}
	adName := in.AdName
	if adName == "" {
		adName = in.ProjectName + " Ad"
	}

	settings := models.CampaignSettings{
		DailyBudget:  in.DailyBudget,
		DurationDays: int(in.DurationDays),
		TotalBudget:  TotalBudget(in.DailyBudget, in.DurationDays),
	}

	state := models.ChainNotStarted
	var ids models.ChainIDs

	advance := func(to string) {
		if !models.IsValidChainTransition(state, to) {
			s.log.Error("invalid chain transition",
				zap.String("from", state), zap.String("to", to))
		}
		state = to
	}

	abort := func(step string, err error) error {
		toDelete := models.CompensationIDs(state, ids)
		if len(toDelete) == 0 {
			advance(models.ChainFailed)
			return &ChainError{Step: step, Err: err}
		}
		s.log.Error("creation chain aborted, rolling back",
			zap.String("step", step),
			zap.String("state", state),
			zap.Strings("created", toDelete),
			zap.Error(err),
		)
		res := s.rollback.Run(ctx, RollbackContext{
			UserEmail:   userEmail,
			ProjectName: in.ProjectName,
			URL:         in.URL,
			Country:     country,
			Reason:      fmt.Sprintf("%s failed: %v", step, err),
			CreatedIDs:  toDelete,
		})
		advance(models.ChainRolledBack)
		return &ChainError{Step: step, Err: err, Rollback: res}
	}

	campaignID, err := s.api.CreateCampaign(ctx, in.ProjectName+" Campaign")
	if err != nil {
		return nil, abort("campaign creation", err)
	}
	ids.CampaignID = campaignID
	advance(models.ChainCampaignCreated)

	adsetID, err := s.api.CreateAdSet(ctx, meta.AdSetParams{
		Name:             in.ProjectName + " AdSet",
		CampaignID:       campaignID,
		DailyBudgetCents: int64(math.Round(in.DailyBudget * 100)),
		Country:          country,
		EndTime:          time.Now().Add(time.Duration(in.DurationDays) * 24 * time.Hour),
	})
	if err != nil {
		return nil, abort("adset creation", err)
	}
	ids.AdSetID = adsetID
	advance(models.ChainAdSetCreated)

	creativeID, err := s.api.CreateCreative(ctx, meta.CreativeParams{
		Name:             in.ProjectName + " Creative",
		Link:             in.URL,
		Message:          in.Message,
		Headline:         in.Headline,
		PictureURL:       in.PictureURL,
		CallToActionType: cta,
	})
	if err != nil {
		return nil, abort("creative creation", err)
	}
	ids.CreativeID = creativeID
	advance(models.ChainCreativeCreated)

	adID, err := s.api.CreateAd(ctx, meta.AdParams{
		Name:       adName,
		AdSetID:    adsetID,
		CreativeID: creativeID,
	})
	if err != nil {
		return nil, abort("ad creation", err)
	}
	ids.AdID = adID
	advance(models.ChainAdCreated)

	s.log.Info("campaign chain created",
		zap.String("campaign_id", campaignID),
		zap.String("adset_id", adsetID),
		zap.String("ad_id", adID),
	)

	return &CampaignResult{
		CampaignID:       campaignID,
		AdSetID:          adsetID,
		CreativeID:       creativeID,
		AdID:             adID,
		Status:           meta.StatusActive,
		CampaignSettings: settings,
	}, nil
}

// DeleteCampaign tries the hard delete first; when the platform signals that
// the node does not support deletion it falls back to transitioning the
// campaign into the terminal DELETED status.
func (s *AdsService) DeleteCampaign(ctx context.Context, campaignID string) (*CampaignDeletion, error) {
	if !s.api.Configured() {
		return nil, ErrAdPlatformNotConfigured
	}

	err := s.api.DeleteNode(ctx, campaignID)
	if err == nil {
		return &CampaignDeletion{DeletedVia: "delete"}, nil
	}

	var ge *meta.GraphError
	if errors.As(err, &ge) && ge.IsUnsupportedDelete() {
		if stErr := s.api.UpdateCampaignStatus(ctx, campaignID, meta.StatusDeleted); stErr != nil {
			return nil, stErr
		}
		s.log.Info("campaign hard delete unsupported, fell back to status transition",
			zap.String("campaign_id", campaignID),
		)
		return &CampaignDeletion{DeletedVia: "status", FallbackFrom: ge.Message}, nil
	}

	return nil, err
}

// Insights fetches performance metrics for an ad, serving from the redis
// cache when fresh.
func (s *AdsService) Insights(ctx context.Context, adID string) (*meta.Insights, error) {
	if !s.api.Configured() {
		return nil, ErrAdPlatformNotConfigured
	}

	cacheKey := "insights:" + adID
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var ins meta.Insights
			if json.Unmarshal(cached, &ins) == nil {
				return &ins, nil
			}
		}
	}

	ins, err := s.api.GetInsights(ctx, adID)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(ins); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, payload, s.cfg.InsightsCacheTTL).Err(); err != nil {
				s.log.Warn("insights cache write failed", zap.Error(err))
			}
		}
	}
	return ins, nil
}

func (s *AdsService) Preview(ctx context.Context, adID, format string) (string, error) {
	if !s.api.Configured() {
		return "", ErrAdPlatformNotConfigured
	}
	return s.api.GetPreview(ctx, adID, format)
}

// EstimateImpressions projects an impression range for a budget from the
// configured CPM band. Pure arithmetic; no remote call.
func (s *AdsService) EstimateImpressions(in CampaignInput) (*EstimateResult, error) {
	fields := map[string]string{}
	if math.IsNaN(in.DurationDays) || math.IsInf(in.DurationDays, 0) || in.DurationDays < 1 {
		fields["durationDays"] = "durationDays must be a number >= 1"
	}
	if math.IsNaN(in.DailyBudget) || math.IsInf(in.DailyBudget, 0) || in.DailyBudget < 1 {
		fields["dailyBudget"] = "dailyBudget must be a number >= 1"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	// A misconfigured CPM bound of zero would divide to +Inf.
	low, high := s.cfg.EstimateCPMLow, s.cfg.EstimateCPMHigh
	if low <= 0 {
		low = 4.0
	}
	if high <= 0 {
		high = 9.0
	}

	total := TotalBudget(in.DailyBudget, in.DurationDays)
	return &EstimateResult{
		ImpressionsMin: int64(total / high * 1000),
		ImpressionsMax: int64(total / low * 1000),
	}, nil
}
