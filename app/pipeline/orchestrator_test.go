package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/clipvault/clipvault/app/config"
	"github.com/clipvault/clipvault/app/database"
	"github.com/clipvault/clipvault/app/errs"
	"github.com/clipvault/clipvault/app/extract"
	"github.com/clipvault/clipvault/app/images"
)

type fakeExtractor struct {
	content *extract.ExtractedContent
	err     error
}

func (f *fakeExtractor) Run(ctx context.Context, pageURL string) (*extract.ExtractedContent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

type fakeLlm struct {
	summary    string
	summaryErr error
	tags       []string
	tagsErr    error
}

func (f *fakeLlm) Summarize(ctx context.Context, content *extract.ExtractedContent) (string, error) {
	return f.summary, f.summaryErr
}

func (f *fakeLlm) ExtractTags(ctx context.Context, content *extract.ExtractedContent, maxTags int) ([]string, error) {
	return f.tags, f.tagsErr
}

func (f *fakeLlm) ProviderName() string { return "fake" }

type fakeLocalizer struct {
	result *images.Result
}

func (f *fakeLocalizer) Localize(ctx context.Context, imgs []extract.ImageRef, title string) *images.Result {
	return f.result
}

type fakeWriter struct {
	files map[string]string
	err   error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{files: make(map[string]string)}
}

func (f *fakeWriter) Write(relPath string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.files[relPath] = string(data)
	return relPath, nil
}

type fakeSettings struct {
	settings config.Settings
}

func (f *fakeSettings) Get() (*config.Settings, error) {
	s := f.settings
	return &s, nil
}

type fakeArchive struct {
	inserted []*database.Article
}

func (f *fakeArchive) Insert(article *database.Article) (int64, error) {
	f.inserted = append(f.inserted, article)
	return int64(len(f.inserted)), nil
}

func (f *fakeArchive) GetByURL(url string) ([]database.Article, error) {
	var out []database.Article
	for _, a := range f.inserted {
		if a.URL == url {
			out = append(out, *a)
		}
	}
	return out, nil
}

type testHarness struct {
	orchestrator *Orchestrator
	writer       *fakeWriter
	archive      *fakeArchive
	hub          *Hub
	events       <-chan StatusEvent
}

func newHarness(extractor *fakeExtractor, llm *fakeLlm, localizer *fakeLocalizer, writer *fakeWriter, settings config.Settings) *testHarness {
	hub := NewHub()
	archive := &fakeArchive{}

	factory := func(provider *config.LlmProvider) (LlmService, error) {
		if provider == nil {
			return nil, &errs.ConfigError{Field: "provider", Message: "no LLM provider configured"}
		}
		return llm, nil
	}

	o := NewOrchestrator(extractor, factory,
		func(root string) FileWriter { return writer },
		func(w FileWriter, folder string) ImageLocalizer { return localizer },
		&fakeSettings{settings: settings}, archive, hub)

	events, _ := hub.Subscribe()

	return &testHarness{orchestrator: o, writer: writer, archive: archive, hub: hub, events: events}
}

func (h *testHarness) stages() []Stage {
	var stages []Stage
	for {
		select {
		case ev := <-h.events:
			stages = append(stages, ev.Stage)
		default:
			return stages
		}
	}
}

func testContent() *extract.ExtractedContent {
	return &extract.ExtractedContent{
		Title:  "Test Article",
		Text:   "Body text.",
		HTML:   "<p>Body text.</p>",
		URL:    "https://example.com/post",
		Author: "Jane",
	}
}

func defaultSettings() config.Settings {
	return config.Settings{
		SavePath:            "/vault",
		AttachmentFolder:    "attachments",
		MaxTags:             5,
		EnableTagExtraction: true,
		ActiveLlmID:         "p1",
		LlmProviders:        []config.LlmProvider{{ID: "p1", Kind: config.KindOpenAI, APIKey: "k"}},
	}
}

func TestOrchestrator_SuccessfulRun(t *testing.T) {
	writer := newFakeWriter()
	h := newHarness(
		&fakeExtractor{content: testContent()},
		&fakeLlm{summary: "The summary.", tags: []string{"golang"}},
		&fakeLocalizer{}, writer, defaultSettings())

	if err := h.orchestrator.Run(context.Background(), "https://example.com/post"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(writer.files) != 1 {
		t.Fatalf("Expected one saved file, got %d", len(writer.files))
	}
	for name, doc := range writer.files {
		if !strings.HasSuffix(name, ".md") {
			t.Errorf("Expected markdown filename, got %q", name)
		}
		if !strings.Contains(doc, "The summary.") {
			t.Errorf("Expected summary in saved document")
		}
		if !strings.Contains(doc, "tags: [read-later, golang]") {
			t.Errorf("Expected tags in frontmatter:\n%s", doc)
		}
	}

	if len(h.archive.inserted) != 1 {
		t.Fatalf("Expected an archive record, got %d", len(h.archive.inserted))
	}
	if h.archive.inserted[0].Provider != "fake" {
		t.Errorf("Unexpected provider in archive: %q", h.archive.inserted[0].Provider)
	}

	stages := h.stages()
	want := []Stage{StageIdle, StageExtracting, StageSummarizing, StageSuccess}
	if len(stages) != len(want) {
		t.Fatalf("Expected stages %v, got %v", want, stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("Stage %d: expected %s, got %s", i, want[i], stages[i])
		}
	}
}

func TestOrchestrator_SummarizeFailureAbortsBeforeSave(t *testing.T) {
	writer := newFakeWriter()
	h := newHarness(
		&fakeExtractor{content: testContent()},
		&fakeLlm{summaryErr: &errs.LlmError{Provider: "openai", Kind: errs.LlmStatus, StatusCode: 401, Message: "Incorrect API key"}},
		&fakeLocalizer{}, writer, defaultSettings())

	err := h.orchestrator.Run(context.Background(), "https://example.com/post")
	if err == nil {
		t.Fatal("Expected the run to fail")
	}

	if len(writer.files) != 0 {
		t.Error("Expected no file written on fatal summarization failure")
	}
	if len(h.archive.inserted) != 0 {
		t.Error("Expected no archive record on fatal failure")
	}

	last := h.hub.Last()
	if last.Stage != StageError {
		t.Errorf("Expected terminal error status, got %s", last.Stage)
	}
	if !strings.Contains(last.Message, "Incorrect API key") {
		t.Errorf("Expected upstream message in status, got %q", last.Message)
	}
}

func TestOrchestrator_TagFailureDegrades(t *testing.T) {
	writer := newFakeWriter()
	h := newHarness(
		&fakeExtractor{content: testContent()},
		&fakeLlm{summary: "s", tagsErr: fmt.Errorf("tag model exploded")},
		&fakeLocalizer{}, writer, defaultSettings())

	if err := h.orchestrator.Run(context.Background(), "https://example.com/post"); err != nil {
		t.Fatalf("Expected run to survive tag failure, got %v", err)
	}

	if len(writer.files) != 1 {
		t.Fatalf("Expected the document saved despite tag failure")
	}
	for _, doc := range writer.files {
		if !strings.Contains(doc, "tags: [read-later]") {
			t.Errorf("Expected base tag only:\n%s", doc)
		}
	}
}

func TestOrchestrator_AllImagesFailedKeepsRemoteURLs(t *testing.T) {
	content := testContent()
	content.Images = []extract.ImageRef{{URL: "https://cdn.example.com/a.jpg", Alt: "pic"}}

	settings := defaultSettings()
	settings.LocalizeImages = true

	writer := newFakeWriter()
	h := newHarness(
		&fakeExtractor{content: content},
		&fakeLlm{summary: "s"},
		&fakeLocalizer{result: &images.Result{Failed: []images.Failure{{URL: "https://cdn.example.com/a.jpg", Reason: "timeout"}}}},
		writer, settings)

	if err := h.orchestrator.Run(context.Background(), "https://example.com/post"); err != nil {
		t.Fatalf("Expected run to survive image failures, got %v", err)
	}

	for _, doc := range writer.files {
		if !strings.Contains(doc, "![pic](https://cdn.example.com/a.jpg)") {
			t.Errorf("Expected original remote URL in document:\n%s", doc)
		}
	}
}

func TestOrchestrator_PartialImageMapping(t *testing.T) {
	content := testContent()
	content.Images = []extract.ImageRef{
		{URL: "https://cdn.example.com/a.jpg", Alt: "a"},
		{URL: "https://cdn.example.com/b.jpg", Alt: "b"},
	}

	settings := defaultSettings()
	settings.LocalizeImages = true

	writer := newFakeWriter()
	h := newHarness(
		&fakeExtractor{content: content},
		&fakeLlm{summary: "s"},
		&fakeLocalizer{result: &images.Result{
			Succeeded: map[string]string{"https://cdn.example.com/a.jpg": "../attachments/t/image-1-1.jpg"},
			Failed:    []images.Failure{{URL: "https://cdn.example.com/b.jpg", Reason: "404"}},
		}},
		writer, settings)

	if err := h.orchestrator.Run(context.Background(), "https://example.com/post"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, doc := range writer.files {
		if !strings.Contains(doc, "![a](../attachments/t/image-1-1.jpg)") {
			t.Errorf("Expected localized path for succeeded image:\n%s", doc)
		}
		if !strings.Contains(doc, "![b](https://cdn.example.com/b.jpg)") {
			t.Errorf("Expected original URL for failed image:\n%s", doc)
		}
	}
}

func TestOrchestrator_NoProviderConfigured(t *testing.T) {
	settings := defaultSettings()
	settings.ActiveLlmID = ""
	settings.LlmProviders = nil

	writer := newFakeWriter()
	h := newHarness(&fakeExtractor{content: testContent()}, &fakeLlm{}, &fakeLocalizer{}, writer, settings)

	if err := h.orchestrator.Run(context.Background(), "https://example.com/post"); err == nil {
		t.Fatal("Expected a configuration error")
	}

	last := h.hub.Last()
	if last.Stage != StageError || !last.Recoverable {
		t.Errorf("Expected recoverable error status, got %+v", last)
	}
}

func TestOrchestrator_PreviewConfirm(t *testing.T) {
	settings := defaultSettings()
	settings.EnablePreview = true

	writer := newFakeWriter()
	h := newHarness(&fakeExtractor{content: testContent()}, &fakeLlm{summary: "s"}, &fakeLocalizer{}, writer, settings)

	if err := h.orchestrator.Run(context.Background(), "https://example.com/post"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(writer.files) != 0 {
		t.Fatal("Expected no save while preview is pending")
	}
	if h.hub.Last().Stage != StagePending {
		t.Errorf("Expected pending status, got %s", h.hub.Last().Stage)
	}

	pending := h.orchestrator.PendingPreview()
	if pending == nil {
		t.Fatal("Expected a pending preview")
	}
	if pending.Title != "Test Article" || pending.CharCount != len(pending.Markdown) {
		t.Errorf("Unexpected preview metadata: %+v", pending)
	}

	if err := h.orchestrator.ConfirmSave("# Edited by the user"); err != nil {
		t.Fatalf("ConfirmSave failed: %v", err)
	}

	if len(writer.files) != 1 {
		t.Fatalf("Expected one saved file after confirm")
	}
	for _, doc := range writer.files {
		if doc != "# Edited by the user" {
			t.Errorf("Expected edited markdown to win, got %q", doc)
		}
	}
	if h.hub.Last().Stage != StageSuccess {
		t.Errorf("Expected success after confirm, got %s", h.hub.Last().Stage)
	}
	if h.orchestrator.PendingPreview() != nil {
		t.Error("Expected pending state cleared after confirm")
	}
}

func TestOrchestrator_PreviewCancel(t *testing.T) {
	settings := defaultSettings()
	settings.EnablePreview = true

	writer := newFakeWriter()
	h := newHarness(&fakeExtractor{content: testContent()}, &fakeLlm{summary: "s"}, &fakeLocalizer{}, writer, settings)

	if err := h.orchestrator.Run(context.Background(), "https://example.com/post"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if err := h.orchestrator.CancelSave(); err != nil {
		t.Fatalf("CancelSave failed: %v", err)
	}

	if len(writer.files) != 0 {
		t.Error("Expected nothing written after cancel")
	}
	last := h.hub.Last()
	if last.Stage != StageError || last.Message != "Save cancelled" {
		t.Errorf("Expected cancelled status, got %+v", last)
	}
	if h.orchestrator.PendingPreview() != nil {
		t.Error("Expected pending state cleared after cancel")
	}

	if err := h.orchestrator.ConfirmSave(""); err == nil {
		t.Error("Expected ConfirmSave to fail with no pending preview")
	}
}

func TestOrchestrator_ExtractionFailure(t *testing.T) {
	writer := newFakeWriter()
	h := newHarness(
		&fakeExtractor{err: &errs.ExtractionError{URL: "https://example.com/post", Err: fmt.Errorf("boom")}},
		&fakeLlm{}, &fakeLocalizer{}, writer, defaultSettings())

	if err := h.orchestrator.Run(context.Background(), "https://example.com/post"); err == nil {
		t.Fatal("Expected extraction failure to abort the run")
	}

	if len(writer.files) != 0 {
		t.Error("Expected no file written")
	}
	if h.hub.Last().Stage != StageError {
		t.Errorf("Expected error status, got %s", h.hub.Last().Stage)
	}
}
