package meta

import (
	"fmt"
	"strings"
	"time"
)

// GraphError is the structured error payload the Graph API returns under the
// top-level "error" key.
type GraphError struct {
	Message        string `json:"message"`
	Type           string `json:"type"`
	Code           int    `json:"code"`
	ErrorSubcode   int    `json:"error_subcode,omitempty"`
	ErrorUserTitle string `json:"error_user_title,omitempty"`
	ErrorUserMsg   string `json:"error_user_msg,omitempty"`
	TraceID        string `json:"fbtrace_id,omitempty"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph api error %d (%s): %s", e.Code, e.Type, e.Message)
}

// IsUnsupportedDelete reports whether the platform rejected a hard delete for
// a node type that only supports the status-transition form of deletion.
func (e *GraphError) IsUnsupportedDelete() bool {
	if e.Code == codeUnsupportedRequest {
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "unsupported delete request")
}

const codeUnsupportedRequest = 100

// Campaign objective and status values used by this application.
const (
	ObjectiveTraffic = "OUTCOME_TRAFFIC"
	StatusActive     = "ACTIVE"
	StatusDeleted    = "DELETED"
)

type AdSetParams struct {
	Name             string
	CampaignID       string
	DailyBudgetCents int64
	Country          string
	EndTime          time.Time
}

type CreativeParams struct {
	Name             string
	Link             string
	Message          string
	Headline         string
	PictureURL       string
	CallToActionType string
}

type AdParams struct {
	Name       string
	AdSetID    string
	CreativeID string
}

// Lineage is the parent chain of an Ad, fetched live from the platform.
type Lineage struct {
	AdSetID    string
	CampaignID string
}

type Insights struct {
	Impressions            string         `json:"impressions"`
	Clicks                 string         `json:"clicks"`
	Spend                  string         `json:"spend"`
	CPC                    string         `json:"cpc"`
	CTR                    string         `json:"ctr"`
	Actions                []InsightValue `json:"actions,omitempty"`
	Reach                  string         `json:"reach"`
	Frequency              string         `json:"frequency"`
	CostPerInlineLinkClick string         `json:"cost_per_inline_link_click"`
	InlineLinkClicks       string         `json:"inline_link_clicks"`
}

type InsightValue struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}
