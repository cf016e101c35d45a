package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/validator/backend/internal/http/dto"
	"github.com/validator/backend/internal/services"
)

type WaitlistHandler struct {
	experiments *services.ExperimentService
	log         *zap.Logger
}

func NewWaitlistHandler(experiments *services.ExperimentService, log *zap.Logger) *WaitlistHandler {
	return &WaitlistHandler{experiments: experiments, log: log}
}

// Signup is public: anyone landing on an experiment page can join its
// waitlist.
func (h *WaitlistHandler) Signup(c *fiber.Ctx) error {
	var req dto.WaitlistSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Err("invalid request body"))
	}
	if req.Slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:            "validation failed",
			ValidationErrors: map[string]string{"slug": "slug is required"},
		})
	}

	entry, err := h.experiments.WaitlistSignup(c.Context(), req.Slug, req.Email, req.Name)
	if err != nil {
		return respondServiceError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK(entry))
}
