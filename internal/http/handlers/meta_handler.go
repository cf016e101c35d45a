package handlers

import (
	"sort"

	"github.com/gofiber/fiber/v2"

	"github.com/validator/backend/internal/http/dto"
	"github.com/validator/backend/internal/services"
)

type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type MetaCountry struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

func (h *MetaHandler) GetCountries(c *fiber.Ctx) error {
	countries := services.SupportedCountries()
	out := make([]MetaCountry, 0, len(countries))
	for code, label := range countries {
		out = append(out, MetaCountry{Code: code, Label: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return c.JSON(dto.OK(out))
}

func (h *MetaHandler) GetCallToActionTypes(c *fiber.Ctx) error {
	return c.JSON(dto.OK(services.CallToActionTypes()))
}
