package handlers

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/validator/backend/internal/services"
)

// LandingHandler serves the public, server-rendered landing page of an
// experiment. This is the destination ad clicks resolve to.
type LandingHandler struct {
	experiments *services.ExperimentService
	tmpl        *template.Template
	log         *zap.Logger
}

func NewLandingHandler(experiments *services.ExperimentService, log *zap.Logger) *LandingHandler {
	return &LandingHandler{
		experiments: experiments,
		tmpl:        template.Must(template.New("landing").Parse(landingTemplate)),
		log:         log,
	}
}

func (h *LandingHandler) Render(c *fiber.Ctx) error {
	slug := c.Params("slug")

	exp, err := h.experiments.GetBySlug(c.Context(), slug)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("Page not found")
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, fiber.Map{
		"Slug":    exp.Slug,
		"Landing": exp.Landing,
	}); err != nil {
		h.log.Error("landing render failed", zap.String("slug", slug), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("Internal error")
	}

	c.Set("Content-Type", fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

const landingTemplate = `<!DOCTYPE html>
<html lang="en" data-theme="{{.Landing.Theme}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Landing.HeroTitle}}</title>
<meta property="og:title" content="{{.Landing.HeroTitle}}">
<meta property="og:description" content="{{.Landing.HeroSubtitle}}">
</head>
<body>
<main>
<h1>{{.Landing.HeroTitle}}</h1>
<p>{{.Landing.HeroSubtitle}}</p>
{{if .Landing.Benefits}}
<ul>
{{range .Landing.Benefits}}<li>{{.}}</li>
{{end}}</ul>
{{end}}
<form method="post" action="/api/v1/waitlist" data-slug="{{.Slug}}">
<input type="hidden" name="slug" value="{{.Slug}}">
<input type="email" name="email" placeholder="you@example.com" required>
<button type="submit">{{.Landing.CTAText}}</button>
</form>
{{if .Landing.FAQ}}
<section>
{{range .Landing.FAQ}}<details><summary>{{.Question}}</summary><p>{{.Answer}}</p></details>
{{end}}</section>
{{end}}
</main>
</body>
</html>`
