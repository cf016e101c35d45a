package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// LinkPreview is the OpenGraph summary of an external URL, used to prefill
// the ad creative form.
type LinkPreview struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

type LinkPreviewer struct {
	httpClient *http.Client
	log        *zap.Logger
}

func NewLinkPreviewer(timeout time.Duration, log *zap.Logger) *LinkPreviewer {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &LinkPreviewer{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Fetch scrapes the OpenGraph tags of a page, falling back to <title> and
// the meta description when the page carries no og: tags.
func (p *LinkPreviewer) Fetch(ctx context.Context, pageURL string) (*LinkPreview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	preview := &LinkPreview{
		Title:       metaProperty(doc, "og:title"),
		Description: metaProperty(doc, "og:description"),
		ImageURL:    metaProperty(doc, "og:image"),
	}

	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if preview.Description == "" {
		doc.Find(`meta[name="description"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
			if content, ok := s.Attr("content"); ok {
				preview.Description = strings.TrimSpace(content)
				return false
			}
			return true
		})
	}

	return preview, nil
}

func metaProperty(doc *goquery.Document, property string) string {
	var value string
	doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if content, ok := s.Attr("content"); ok && strings.TrimSpace(content) != "" {
			value = strings.TrimSpace(content)
			return false
		}
		return true
	})
	return value
}
