package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/validator/backend/internal/http/dto"
	"github.com/validator/backend/internal/services"
)

type AdsHandler struct {
	ads       *services.AdsService
	generator *services.Generator
	preview   *services.LinkPreviewer
	log       *zap.Logger
}

func NewAdsHandler(ads *services.AdsService, generator *services.Generator, preview *services.LinkPreviewer, log *zap.Logger) *AdsHandler {
	return &AdsHandler{ads: ads, generator: generator, preview: preview, log: log}
}

func (h *AdsHandler) DeleteCampaign(c *fiber.Ctx) error {
	campaignID := c.Params("id")
	if campaignID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("campaign id is required"))
	}

	res, err := h.ads.DeleteCampaign(c.Context(), campaignID)
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.OK(res))
}

func (h *AdsHandler) GetInsights(c *fiber.Ctx) error {
	adID := c.Params("adID")
	if adID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("ad id is required"))
	}

	ins, err := h.ads.Insights(c.Context(), adID)
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.OK(ins))
}

func (h *AdsHandler) GetPreview(c *fiber.Ctx) error {
	adID := c.Params("adID")
	if adID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("ad id is required"))
	}

	body, err := h.ads.Preview(c.Context(), adID, c.Query("format"))
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.OK(fiber.Map{"body": body}))
}

func (h *AdsHandler) Estimate(c *fiber.Ctx) error {
	var req dto.EstimateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("invalid request body"))
	}

	res, err := h.ads.EstimateImpressions(services.CampaignInput{
		DailyBudget:  req.DailyBudget,
		DurationDays: req.DurationDays,
		Country:      req.Country,
	})
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.OK(res))
}

func (h *AdsHandler) ValidateContent(c *fiber.Ctx) error {
	var req dto.ValidateContentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("invalid request body"))
	}
	if req.IdeaName == "" && req.IdeaDescription == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("ideaName or ideaDescription is required"))
	}

	verdict, err := h.generator.ValidateContent(c.Context(), req.IdeaName, req.IdeaDescription)
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.OK(verdict))
}

// LinkPreview scrapes OpenGraph tags of an external page to prefill the ad
// creative form.
func (h *AdsHandler) LinkPreview(c *fiber.Ctx) error {
	raw := c.Query("url")
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("url query parameter is required"))
	}
	if u, err := url.Parse(raw); err != nil || !u.IsAbs() || u.Host == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("url must be a well-formed absolute URL"))
	}

	preview, err := h.preview.Fetch(c.Context(), raw)
	if err != nil {
		h.log.Warn("link preview fetch failed", zap.String("url", raw), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.Err("target page could not be fetched"))
	}
	return c.JSON(dto.OK(preview))
}
