package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/validator/backend/internal/http/dto"
	"github.com/validator/backend/internal/middleware"
	"github.com/validator/backend/internal/models"
	"github.com/validator/backend/internal/services"
)

type ExperimentHandler struct {
	experiments *services.ExperimentService
	log         *zap.Logger
}

func NewExperimentHandler(experiments *services.ExperimentService, log *zap.Logger) *ExperimentHandler {
	return &ExperimentHandler{experiments: experiments, log: log}
}

func campaignInputFromRequest(req *dto.CampaignRequest) services.CampaignInput {
	if req == nil {
		return services.CampaignInput{}
	}
	return services.CampaignInput{
		URL:              req.URL,
		ProjectName:      req.ProjectName,
		Message:          req.Message,
		CallToActionType: req.CallToActionType,
		AdName:           req.AdName,
		Country:          req.Country,
		Headline:         req.Headline,
		PictureURL:       req.PictureURL,
		DurationDays:     req.CampaignSettings.DurationDays,
		DailyBudget:      req.CampaignSettings.DailyBudget,
	}
}

func (h *ExperimentHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateExperimentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("invalid request body"))
	}

	user := &models.User{ID: middleware.GetUserID(c), Email: middleware.GetUserEmail(c)}
	exp, err := h.experiments.Create(c.Context(), user, services.CreateExperimentInput{
		IdeaName:        req.IdeaName,
		IdeaDescription: req.IdeaDescription,
		RunAds:          req.RunAds,
		Campaign:        campaignInputFromRequest(req.Campaign),
	})
	if err != nil {
		// A chain failure still produced a landing-only experiment; return
		// both so the client can retry the campaign without regenerating.
		var cerr *services.ChainError
		if errors.As(err, &cerr) && exp != nil {
			body := fiber.Map{
				"success":    false,
				"error":      cerr.Error(),
				"step":       cerr.Step,
				"experiment": exp,
			}
			if cerr.Rollback != nil {
				body["rollback"] = cerr.Rollback
			}
			return c.Status(fiber.StatusInternalServerError).JSON(body)
		}
		return respondServiceError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.OK(exp))
}

func (h *ExperimentHandler) List(c *fiber.Ctx) error {
	exps, err := h.experiments.ListByUser(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	if exps == nil {
		exps = []models.Experiment{}
	}
	return c.JSON(dto.OK(exps))
}

func (h *ExperimentHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("invalid experiment id"))
	}

	exp, err := h.experiments.Get(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.OK(exp))
}

func (h *ExperimentHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("invalid experiment id"))
	}

	res, err := h.experiments.Delete(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.OK(res))
}

func (h *ExperimentHandler) UpdateAd(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("invalid experiment id"))
	}

	var req dto.UpdateAdRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("invalid request body"))
	}

	if err := h.experiments.UpdateAdID(c.Context(), id, middleware.GetUserID(c), req.AdID); err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.OK(nil))
}

func (h *ExperimentHandler) WaitlistEntries(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("invalid experiment id"))
	}

	entries, err := h.experiments.WaitlistEntries(c.Context(), id, middleware.GetUserID(c))
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	if entries == nil {
		entries = []models.WaitlistEntry{}
	}
	return c.JSON(dto.OK(entries))
}
