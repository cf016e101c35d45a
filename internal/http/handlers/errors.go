package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/validator/backend/internal/http/dto"
	"github.com/validator/backend/internal/meta"
	"github.com/validator/backend/internal/services"
)

// respondServiceError maps service-layer errors onto the response envelope.
func respondServiceError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:            "validation failed",
			ValidationErrors: verr.Fields,
		})
	}

	var rej *services.ContentRejectedError
	if errors.As(err, &rej) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ContentRejectedResponse{
			Error:      "idea rejected by content review",
			Reason:     rej.Verdict.Reason,
			Category:   rej.Verdict.Category,
			Suggestion: rej.Verdict.Suggestion,
		})
	}

	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.Err("not found"))
	}
	if errors.Is(err, services.ErrForbidden) {
		return c.Status(fiber.StatusForbidden).JSON(dto.Err("forbidden"))
	}
	if errors.Is(err, services.ErrAdPlatformNotConfigured) {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("ad platform is not configured"))
	}

	var cerr *services.ChainError
	if errors.As(err, &cerr) {
		body := fiber.Map{
			"success": false,
			"error":   cerr.Error(),
			"step":    cerr.Step,
		}
		if cerr.Rollback != nil {
			body["rollback"] = cerr.Rollback
		}
		var ge *meta.GraphError
		if errors.As(cerr.Err, &ge) {
			body["upstream"] = ge
		}
		return c.Status(fiber.StatusInternalServerError).JSON(body)
	}

	var ge *meta.GraphError
	if errors.As(err, &ge) {
		log.Error("graph api error", zap.Int("code", ge.Code), zap.String("message", ge.Message))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success":  false,
			"error":    "ad platform request failed",
			"upstream": ge,
		})
	}

	log.Error("unhandled service error", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(dto.Err("internal server error"))
}
