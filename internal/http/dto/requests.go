package dto

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CampaignSettingsRequest struct {
	DurationDays float64 `json:"durationDays"`
	DailyBudget  float64 `json:"dailyBudget"`
}

type CampaignRequest struct {
	URL              string                  `json:"url"`
	ProjectName      string                  `json:"projectName"`
	Message          string                  `json:"message"`
	CallToActionType string                  `json:"callToActionType"`
	AdName           string                  `json:"adName"`
	Country          string                  `json:"country"`
	Headline         string                  `json:"headline"`
	PictureURL       string                  `json:"pictureUrl"`
	CampaignSettings CampaignSettingsRequest `json:"campaignSettings"`
}

type CreateExperimentRequest struct {
	IdeaName        string           `json:"ideaName"`
	IdeaDescription string           `json:"ideaDescription"`
	RunAds          bool             `json:"runAds"`
	Campaign        *CampaignRequest `json:"campaign,omitempty"`
}

type UpdateAdRequest struct {
	AdID string `json:"adId"`
}

type WaitlistSignupRequest struct {
	Slug  string  `json:"slug"`
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
}

type FeedbackRequest struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

type EstimateRequest struct {
	DailyBudget  float64 `json:"dailyBudget"`
	DurationDays float64 `json:"durationDays"`
	Country      string  `json:"country,omitempty"`
}

type ValidateContentRequest struct {
	IdeaName        string `json:"ideaName"`
	IdeaDescription string `json:"ideaDescription"`
}
