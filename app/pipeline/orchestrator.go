package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/clipvault/clipvault/app/database"
	"github.com/clipvault/clipvault/app/errs"
	"github.com/clipvault/clipvault/app/extract"
	"github.com/clipvault/clipvault/app/markdown"
)

// Orchestrator drives the save-article pipeline: extract, summarize, tag,
// localize images, render, then preview-or-save. Runs are serialized by the
// task scheduler; only the preview confirm/cancel entry points race with a
// run, which is what the mutex guards.
type Orchestrator struct {
	extractor        ContentExtractor
	llmFactory       LlmFactory
	writerFactory    WriterFactory
	localizerFactory LocalizerFactory
	settings         SettingsSource
	archive          ArticleArchive
	hub              *Hub

	newRenderer func(convertHTML bool) Renderer

	mu      sync.Mutex
	pending *PendingPreview
}

// PendingPreview is a rendered run suspended for human confirmation.
type PendingPreview struct {
	Markdown  string `json:"markdown"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	CharCount int    `json:"char_count"`

	article *database.Article
	writer  FileWriter
}

func NewOrchestrator(extractor ContentExtractor, llmFactory LlmFactory,
	writerFactory WriterFactory, localizerFactory LocalizerFactory,
	settings SettingsSource, archive ArticleArchive, hub *Hub) *Orchestrator {
	return &Orchestrator{
		extractor:        extractor,
		llmFactory:       llmFactory,
		writerFactory:    writerFactory,
		localizerFactory: localizerFactory,
		settings:         settings,
		archive:          archive,
		hub:              hub,
		newRenderer: func(convertHTML bool) Renderer {
			return markdown.NewGenerator(convertHTML)
		},
	}
}

// Run executes one save for pageURL. Progress and outcome are reported via
// the status hub; the returned error duplicates the terminal status for the
// caller's logging only.
func (o *Orchestrator) Run(ctx context.Context, pageURL string) error {
	// A new run supersedes any preview still waiting.
	o.mu.Lock()
	o.pending = nil
	o.mu.Unlock()

	o.hub.Publish(StatusEvent{Stage: StageExtracting, URL: pageURL})

	content, err := o.extractor.Run(ctx, pageURL)
	if err != nil {
		return o.fail(pageURL, err)
	}

	settings, err := o.settings.Get()
	if err != nil {
		return o.fail(pageURL, err)
	}

	svc, err := o.llmFactory(settings.ActiveLlm())
	if err != nil {
		return o.fail(pageURL, err)
	}

	o.hub.Publish(StatusEvent{Stage: StageSummarizing, URL: pageURL})

	summary, err := svc.Summarize(ctx, content)
	if err != nil {
		return o.fail(pageURL, err)
	}

	var tags []string
	if settings.EnableTagExtraction {
		tags, err = svc.ExtractTags(ctx, content, settings.MaxTags)
		if err != nil {
			// Tags are cosmetic; degrade to none instead of aborting.
			slog.Warn("Tag extraction failed, continuing without tags", "url", pageURL, "error", err)
			tags = nil
		}
	}

	writer := o.writerFactory(settings.SavePath)

	var imageMapping map[string]string
	if settings.LocalizeImages && len(content.Images) > 0 {
		localizer := o.localizerFactory(writer, settings.AttachmentFolder)
		imageMapping = o.localizeImages(ctx, localizer, content, pageURL)
	}

	renderer := o.newRenderer(settings.ConvertHTML)
	doc, err := renderer.Run(markdown.Input{
		Title:        content.Title,
		URL:          content.URL,
		Author:       content.Author,
		PublishDate:  content.PublishDate,
		HTML:         content.HTML,
		Images:       toRenderImages(content.Images),
		Summary:      summary,
		ImageMapping: imageMapping,
		Tags:         tags,
	})
	if err != nil {
		return o.fail(pageURL, err)
	}

	article := &database.Article{
		URL:        content.URL,
		Title:      content.Title,
		Author:     content.Author,
		Summary:    summary,
		Tags:       tags,
		Provider:   svc.ProviderName(),
		ImageCount: len(imageMapping),
	}

	if settings.EnablePreview {
		o.mu.Lock()
		o.pending = &PendingPreview{
			Markdown:  doc,
			Title:     content.Title,
			URL:       content.URL,
			CharCount: len(doc),
			article:   article,
			writer:    writer,
		}
		o.mu.Unlock()

		o.hub.Publish(StatusEvent{Stage: StagePending, URL: pageURL, Message: "Waiting for confirmation"})
		return nil
	}

	return o.save(doc, article, writer)
}

func (o *Orchestrator) localizeImages(ctx context.Context, localizer ImageLocalizer,
	content *extract.ExtractedContent, pageURL string) map[string]string {
	result := localizer.Localize(ctx, content.Images, content.Title)
	if result == nil || len(result.Succeeded) == 0 {
		// All images failed; render falls back to the original remote URLs.
		slog.Warn("Image localization produced nothing, keeping remote URLs", "url", pageURL)
		return nil
	}
	for _, failure := range result.Failed {
		slog.Warn("Image not localized", "image", failure.URL, "reason", failure.Reason)
	}
	return result.Succeeded
}

// PendingPreview returns the suspended run awaiting confirmation, or nil.
func (o *Orchestrator) PendingPreview() *PendingPreview {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// ConfirmSave completes a suspended preview. An edited markdown string, when
// non-empty, replaces the rendered one.
func (o *Orchestrator) ConfirmSave(editedMarkdown string) error {
	o.mu.Lock()
	pending := o.pending
	o.pending = nil
	o.mu.Unlock()

	if pending == nil {
		return fmt.Errorf("no preview is pending")
	}

	doc := pending.Markdown
	if editedMarkdown != "" {
		doc = editedMarkdown
	}

	return o.save(doc, pending.article, pending.writer)
}

// CancelSave discards a suspended preview without writing anything.
func (o *Orchestrator) CancelSave() error {
	o.mu.Lock()
	pending := o.pending
	o.pending = nil
	o.mu.Unlock()

	if pending == nil {
		return fmt.Errorf("no preview is pending")
	}

	o.hub.Publish(StatusEvent{
		Stage:       StageError,
		URL:         pending.URL,
		Message:     "Save cancelled",
		Recoverable: true,
	})

	return nil
}

func (o *Orchestrator) save(doc string, article *database.Article, writer FileWriter) error {
	if previous, err := o.archive.GetByURL(article.URL); err == nil && len(previous) > 0 {
		slog.Info("URL was saved before, writing another copy", "url", article.URL, "previous_saves", len(previous))
	}

	relPath, err := writer.Write(markdown.SafeFilename(article.Title), []byte(doc))
	if err != nil {
		return o.fail(article.URL, err)
	}

	article.FilePath = relPath
	if _, err := o.archive.Insert(article); err != nil {
		// The file is already on disk; a broken archive must not turn a
		// successful save into a reported failure.
		slog.Error("Failed to archive saved article", "url", article.URL, "error", err)
	}

	slog.Info("Article saved", "url", article.URL, "file", relPath, "provider", article.Provider)

	o.hub.Publish(StatusEvent{Stage: StageSuccess, URL: article.URL, Message: relPath})

	return nil
}

func (o *Orchestrator) fail(pageURL string, err error) error {
	message, recoverable := errs.UserMessage(err)

	slog.Error("Save run failed", "url", pageURL, "error", err)

	o.hub.Publish(StatusEvent{
		Stage:       StageError,
		URL:         pageURL,
		Message:     message,
		Recoverable: recoverable,
	})

	return err
}

func toRenderImages(refs []extract.ImageRef) []markdown.Image {
	if len(refs) == 0 {
		return nil
	}
	imgs := make([]markdown.Image, len(refs))
	for i, ref := range refs {
		imgs[i] = markdown.Image{URL: ref.URL, Alt: ref.Alt}
	}
	return imgs
}
