package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/validator/backend/internal/http/dto"
	"github.com/validator/backend/internal/services"
)

type FeedbackHandler struct {
	experiments *services.ExperimentService
	log         *zap.Logger
}

func NewFeedbackHandler(experiments *services.ExperimentService, log *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{experiments: experiments, log: log}
}

func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("invalid request body"))
	}

	email := req.Email
	if email == "" {
		email = "anonymous"
	}

	if err := h.experiments.Feedback(c.Context(), email, req.Message); err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.JSON(dto.OK(nil))
}
