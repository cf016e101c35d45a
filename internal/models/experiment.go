package models

import (
	"time"

	"github.com/google/uuid"
)

// Landing is the generated landing-page document, stored as JSONB.
type Landing struct {
	HeroTitle    string    `json:"hero_title"`
	HeroSubtitle string    `json:"hero_subtitle"`
	Benefits     []string  `json:"benefits"`
	FAQ          []FAQItem `json:"faq"`
	CTAText      string    `json:"cta_text"`
	Theme        string    `json:"theme"`
}

type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type CampaignSettings struct {
	DailyBudget  float64 `json:"daily_budget"`
	DurationDays int     `json:"duration_days"`
	TotalBudget  float64 `json:"total_budget"`
}

type AdCreative struct {
	Headline   string `json:"headline"`
	Message    string `json:"message"`
	PictureURL string `json:"picture_url,omitempty"`
}

// Experiment is one validation project: a landing page plus an optional live
// ad campaign. The three remote identifiers are written together, only after
// the full creation chain succeeded; a landing-only experiment keeps all
// three NULL.
type Experiment struct {
	ID               uuid.UUID         `json:"id"`
	Slug             string            `json:"slug"`
	UserID           uuid.UUID         `json:"user_id"`
	IdeaName         string            `json:"idea_name"`
	IdeaDescription  string            `json:"idea_description"`
	Landing          Landing           `json:"landing"`
	CampaignSettings *CampaignSettings `json:"campaign_settings,omitempty"`
	AdCreative       *AdCreative       `json:"ad_creative,omitempty"`
	CampaignID       *string           `json:"campaign_id,omitempty"`
	AdSetID          *string           `json:"adset_id,omitempty"`
	AdID             *string           `json:"ad_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// HasCampaign reports whether the experiment references a live remote chain.
func (e *Experiment) HasCampaign() bool {
	return e.AdID != nil && *e.AdID != ""
}
