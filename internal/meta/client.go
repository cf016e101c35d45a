package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client is a thin wrapper over the ad platform's versioned Graph API. All
// calls are context-bounded; the caller decides what a failure means.
type Client struct {
	baseURL     string
	accessToken string
	adAccountID string
	pageID      string
	httpClient  *http.Client
	log         *zap.Logger
}

func NewClient(baseURL, accessToken, adAccountID, pageID string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		adAccountID: adAccountID,
		pageID:      pageID,
		httpClient:  &http.Client{Timeout: timeout},
		log:         log,
	}
}

// Configured reports whether the client carries everything needed to create
// campaign resources.
func (c *Client) Configured() bool {
	return c.accessToken != "" && c.adAccountID != "" && c.pageID != ""
}

type idResponse struct {
	ID string `json:"id"`
}

type graphErrorBody struct {
	Error *GraphError `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.accessToken)

	var req *http.Request
	var err error
	endpoint := c.baseURL + path
	switch method {
	case http.MethodGet, http.MethodDelete:
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+params.Encode(), nil)
	default:
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ad platform unavailable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var errBody graphErrorBody
		if jsonErr := json.Unmarshal(body, &errBody); jsonErr == nil && errBody.Error != nil {
			return errBody.Error
		}
		return fmt.Errorf("ad platform returned %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode ad platform response: %w", err)
		}
	}
	return nil
}

func (c *Client) CreateCampaign(ctx context.Context, name string) (string, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("objective", ObjectiveTraffic)
	params.Set("status", StatusActive)
	params.Set("special_ad_categories", "[]")

	var res idResponse
	if err := c.do(ctx, http.MethodPost, "/act_"+c.adAccountID+"/campaigns", params, &res); err != nil {
		return "", err
	}
	c.log.Info("campaign created", zap.String("campaign_id", res.ID))
	return res.ID, nil
}

func (c *Client) CreateAdSet(ctx context.Context, p AdSetParams) (string, error) {
	targeting := map[string]any{
		"geo_locations":       map[string]any{"countries": []string{p.Country}},
		"age_min":             18,
		"age_max":             50,
		"publisher_platforms": []string{"facebook", "instagram"},
		"device_platforms":    []string{"mobile"},
	}
	targetingJSON, err := json.Marshal(targeting)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("campaign_id", p.CampaignID)
	params.Set("daily_budget", strconv.FormatInt(p.DailyBudgetCents, 10))
	params.Set("billing_event", "IMPRESSIONS")
	params.Set("optimization_goal", "LINK_CLICKS")
	params.Set("bid_strategy", "LOWEST_COST_WITHOUT_CAP")
	params.Set("targeting", string(targetingJSON))
	params.Set("end_time", p.EndTime.UTC().Format(time.RFC3339))
	params.Set("status", StatusActive)

	var res idResponse
	if err := c.do(ctx, http.MethodPost, "/act_"+c.adAccountID+"/adsets", params, &res); err != nil {
		return "", err
	}
	c.log.Info("adset created", zap.String("adset_id", res.ID))
	return res.ID, nil
}

func (c *Client) CreateCreative(ctx context.Context, p CreativeParams) (string, error) {
	linkData := map[string]any{
		"link":    p.Link,
		"message": p.Message,
		"call_to_action": map[string]any{
			"type":  p.CallToActionType,
			"value": map[string]any{"link": p.Link},
		},
	}
	if p.Headline != "" {
		linkData["name"] = p.Headline
	}
	if p.PictureURL != "" {
		linkData["picture"] = p.PictureURL
	}
	storySpec, err := json.Marshal(map[string]any{
		"page_id":   c.pageID,
		"link_data": linkData,
	})
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("object_story_spec", string(storySpec))

	var res idResponse
	if err := c.do(ctx, http.MethodPost, "/act_"+c.adAccountID+"/adcreatives", params, &res); err != nil {
		return "", err
	}
	c.log.Info("creative created", zap.String("creative_id", res.ID))
	return res.ID, nil
}

func (c *Client) CreateAd(ctx context.Context, p AdParams) (string, error) {
	creative, err := json.Marshal(map[string]string{"creative_id": p.CreativeID})
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("name", p.Name)
	params.Set("adset_id", p.AdSetID)
	params.Set("creative", string(creative))
	params.Set("status", StatusActive)

	var res idResponse
	if err := c.do(ctx, http.MethodPost, "/act_"+c.adAccountID+"/ads", params, &res); err != nil {
		return "", err
	}
	c.log.Info("ad created", zap.String("ad_id", res.ID))
	return res.ID, nil
}

// DeleteNode issues a hard delete of any Graph node (campaign, adset,
// creative or ad).
func (c *Client) DeleteNode(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/"+id, nil, nil)
}

// UpdateCampaignStatus transitions a campaign to the given status; used as the
// fallback when a hard delete is rejected.
func (c *Client) UpdateCampaignStatus(ctx context.Context, campaignID, status string) error {
	params := url.Values{}
	params.Set("status", status)
	return c.do(ctx, http.MethodPost, "/"+campaignID, params, nil)
}

// GetAdLineage fetches the live AdSet and Campaign ids for an Ad. Stored ids
// may be stale; the platform is authoritative.
func (c *Client) GetAdLineage(ctx context.Context, adID string) (Lineage, error) {
	params := url.Values{}
	params.Set("fields", "adset_id,campaign_id")

	var res struct {
		AdSetID    string `json:"adset_id"`
		CampaignID string `json:"campaign_id"`
	}
	if err := c.do(ctx, http.MethodGet, "/"+adID, params, &res); err != nil {
		return Lineage{}, err
	}
	return Lineage{AdSetID: res.AdSetID, CampaignID: res.CampaignID}, nil
}

func (c *Client) GetInsights(ctx context.Context, adID string) (*Insights, error) {
	params := url.Values{}
	params.Set("fields", "impressions,clicks,spend,cpc,ctr,actions,reach,frequency,cost_per_inline_link_click,inline_link_clicks")

	var res struct {
		Data []Insights `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/"+adID+"/insights", params, &res); err != nil {
		return nil, err
	}
	if len(res.Data) == 0 {
		return &Insights{}, nil
	}
	return &res.Data[0], nil
}

// GetPreview returns the rendered preview iframe markup for an ad.
func (c *Client) GetPreview(ctx context.Context, adID, format string) (string, error) {
	if format == "" {
		format = "MOBILE_FEED_STANDARD"
	}
	params := url.Values{}
	params.Set("ad_format", format)

	var res struct {
		Data []struct {
			Body string `json:"body"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/"+adID+"/previews", params, &res); err != nil {
		return "", err
	}
	if len(res.Data) == 0 {
		return "", fmt.Errorf("no preview returned for ad %s", adID)
	}
	return res.Data[0].Body, nil
}
