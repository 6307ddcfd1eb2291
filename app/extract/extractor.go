package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/clipvault/clipvault/app/errs"
)

const (
	minImageSize = 200
	maxImages    = 10
)

// Extractor turns a page URL into readable content: readability for the
// article body, goquery for images and metadata the readability pass drops.
type Extractor struct {
	fetcher *Fetcher
}

func NewExtractor(fetcher *Fetcher) *Extractor {
	return &Extractor{fetcher: fetcher}
}

func (e *Extractor) Run(ctx context.Context, pageURL string) (*ExtractedContent, error) {
	data, err := e.fetcher.Run(ctx, pageURL)
	if err != nil {
		return nil, &errs.ExtractionError{URL: pageURL, Err: err}
	}

	content, err := e.Parse(data, pageURL)
	if err != nil {
		return nil, &errs.ExtractionError{URL: pageURL, Err: err}
	}

	return content, nil
}

// Parse extracts content from already-fetched HTML.
func (e *Extractor) Parse(data []byte, pageURL string) (*ExtractedContent, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty")
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return nil, fmt.Errorf("no content extracted from HTML data")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	content := &ExtractedContent{
		Title:       article.Title,
		Text:        article.TextContent,
		HTML:        article.Content,
		URL:         pageURL,
		Images:      extractImages(doc, parsedURL),
		Author:      extractAuthor(doc, article.Byline),
		PublishDate: extractPublishDate(doc),
		Excerpt:     article.Excerpt,
	}

	if content.Title == "" {
		content.Title = doc.Find("title").First().Text()
	}

	slog.Debug("Content extracted successfully",
		"title", content.Title,
		"content_length", len(content.HTML),
		"images", len(content.Images))

	return content, nil
}

// extractImages collects article images, skipping thumbnails, decorative
// elements and data URIs. Declared width/height below 200px disqualifies an
// image; undeclared sizes pass through since only the page knows them.
func extractImages(doc *goquery.Document, base *url.URL) []ImageRef {
	var images []ImageRef

	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(images) >= maxImages {
			return false
		}

		width := attrInt(sel, "width")
		height := attrInt(sel, "height")
		if (width > 0 && width < minImageSize) || (height > 0 && height < minImageSize) {
			return true
		}

		class, _ := sel.Attr("class")
		class = strings.ToLower(class)
		if strings.Contains(class, "ad") || strings.Contains(class, "icon") || strings.Contains(class, "logo") {
			return true
		}

		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, _ = sel.Attr("data-src")
		}
		if src == "" || strings.HasPrefix(src, "data:") {
			return true
		}

		if resolved, err := base.Parse(src); err == nil {
			src = resolved.String()
		}

		alt, _ := sel.Attr("alt")
		images = append(images, ImageRef{URL: src, Alt: alt, Width: width, Height: height})
		return true
	})

	return images
}

func attrInt(sel *goquery.Selection, name string) int {
	v, ok := sel.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if err != nil {
		return 0
	}
	return n
}

var authorSelectors = []string{
	`meta[name="author"]`,
	`meta[property="article:author"]`,
	`meta[property="og:article:author"]`,
	`[rel="author"]`,
	".author",
	".author-name",
	".byline",
}

func extractAuthor(doc *goquery.Document, byline string) string {
	for _, selector := range authorSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if goquery.NodeName(sel) == "meta" {
			if content, ok := sel.Attr("content"); ok && content != "" {
				return content
			}
			continue
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			return text
		}
	}
	return byline
}

var publishDateSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[property="og:article:published_time"]`,
	`meta[name="publish-date"]`,
	`meta[name="date"]`,
	"time[datetime]",
	".publish-date",
	".post-date",
	".entry-date",
}

func extractPublishDate(doc *goquery.Document) string {
	for _, selector := range publishDateSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if goquery.NodeName(sel) == "meta" {
			if content, ok := sel.Attr("content"); ok && content != "" {
				return content
			}
			continue
		}
		if goquery.NodeName(sel) == "time" {
			if datetime, ok := sel.Attr("datetime"); ok && datetime != "" {
				return datetime
			}
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			return text
		}
	}
	return ""
}
