package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/clipvault/clipvault/app/extract"
	"github.com/clipvault/clipvault/app/markdown"
)

const (
	fetchTimeout       = 30 * time.Second
	maxSubfolderLength = 50
	maxBodySize        = 20 << 20 // 20 MB per image
)

// Localizer downloads article images into the vault attachment folder so the
// saved document survives the original page going away. Failures are per-image;
// one broken URL never sinks the rest.
type Localizer struct {
	httpClient       *http.Client
	writer           FileWriter
	attachmentFolder string
	userAgent        string
}

// FileWriter is satisfied by vault.Writer.
type FileWriter interface {
	Write(relPath string, data []byte) (string, error)
}

type Result struct {
	// Succeeded maps original image URLs to vault-relative markdown paths.
	Succeeded map[string]string
	Failed    []Failure
}

type Failure struct {
	URL    string
	Reason string
}

type download struct {
	originalURL string
	relPath     string
	reason      string
}

func NewLocalizer(writer FileWriter, attachmentFolder string, userAgent string) *Localizer {
	return &Localizer{
		httpClient:       &http.Client{Timeout: fetchTimeout},
		writer:           writer,
		attachmentFolder: attachmentFolder,
		userAgent:        userAgent,
	}
}

// Localize fetches all images concurrently and stores them under
// {attachmentFolder}/{sanitized title}/. Returned paths are relative to the
// document's own folder, hence the "../" prefix.
func (l *Localizer) Localize(ctx context.Context, imgs []extract.ImageRef, title string) *Result {
	result := &Result{Succeeded: make(map[string]string)}
	if len(imgs) == 0 {
		return result
	}

	subfolder := markdown.SanitizeTitle(title, maxSubfolderLength)
	if subfolder == "" {
		subfolder = "article"
	}

	results := make(chan download, len(imgs))
	var wg sync.WaitGroup

	for i, img := range imgs {
		wg.Add(1)
		go func(ordinal int, imageURL string) {
			defer wg.Done()

			relPath, err := l.fetchOne(ctx, imageURL, subfolder, ordinal)
			if err != nil {
				results <- download{originalURL: imageURL, reason: err.Error()}
				return
			}
			results <- download{originalURL: imageURL, relPath: relPath}
		}(i+1, img.URL)
	}

	wg.Wait()
	close(results)

	for d := range results {
		if d.reason != "" {
			result.Failed = append(result.Failed, Failure{URL: d.originalURL, Reason: d.reason})
			continue
		}
		result.Succeeded[d.originalURL] = d.relPath
	}

	slog.Debug("Image localization finished",
		"total", len(imgs), "succeeded", len(result.Succeeded), "failed", len(result.Failed))

	return result
}

func (l *Localizer) fetchOne(ctx context.Context, imageURL string, subfolder string, ordinal int) (string, error) {
	if err := validateURL(imageURL); err != nil {
		return "", err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid request: %w", err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read failed: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty response body")
	}

	ext := extensionFor(imageURL, resp.Header.Get("Content-Type"))
	filename := fmt.Sprintf("image-%d-%d%s", ordinal, time.Now().UnixMilli(), ext)

	finalRel, err := l.writer.Write(path.Join(l.attachmentFolder, subfolder, filename), data)
	if err != nil {
		return "", fmt.Errorf("save failed: %w", err)
	}

	// Markdown paths are resolved relative to the note, which lives one
	// level above the attachment folder.
	return "../" + strings.ReplaceAll(finalRel, "\\", "/"), nil
}

func validateURL(imageURL string) error {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return fmt.Errorf("invalid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	return nil
}

var knownExtensions = map[string]string{
	".jpg":  ".jpg",
	".jpeg": ".jpeg",
	".png":  ".png",
	".gif":  ".gif",
	".webp": ".webp",
	".svg":  ".svg",
	".bmp":  ".bmp",
}

var contentTypeExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
}

// extensionFor picks a file extension from the URL path, falling back to the
// response content type and finally to .jpg.
func extensionFor(imageURL string, contentType string) string {
	if parsed, err := url.Parse(imageURL); err == nil {
		ext := strings.ToLower(path.Ext(parsed.Path))
		if known, ok := knownExtensions[ext]; ok {
			return known
		}
	}

	mediaType := contentType
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = mediaType[:idx]
	}
	if ext, ok := contentTypeExtensions[strings.TrimSpace(mediaType)]; ok {
		return ext
	}

	return ".jpg"
}
