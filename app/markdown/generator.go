package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
)

// baseTag is always present in the frontmatter tag array.
const baseTag = "read-later"

const maxFilenameLength = 100

// Generator renders an archived article as a Markdown document with YAML
// frontmatter. It performs no I/O; everything it needs comes in as arguments.
type Generator struct {
	convertHTML bool
	converter   *htmltomd.Converter
	now         func() time.Time
}

func NewGenerator(convertHTML bool) *Generator {
	g := &Generator{
		convertHTML: convertHTML,
		now:         time.Now,
	}
	if convertHTML {
		g.converter = htmltomd.NewConverter("", true, nil)
	}
	return g
}

// Input carries everything the renderer needs for one document.
type Input struct {
	Title       string
	URL         string
	Author      string
	PublishDate string
	HTML        string
	Images      []Image
	Summary     string
	// ImageMapping maps original image URLs to localized relative paths.
	// Nil means no localization happened; missing entries fall back to the
	// original URL.
	ImageMapping map[string]string
	Tags         []string
}

type Image struct {
	URL string
	Alt string
}

func (g *Generator) Run(input Input) (string, error) {
	frontmatter := g.frontmatter(input)
	body, err := g.body(input)
	if err != nil {
		return "", err
	}

	return frontmatter + "\n\n" + body, nil
}

func (g *Generator) frontmatter(input Input) string {
	author := input.Author
	if author == "" {
		author = "unknown"
	}

	tags := []string{baseTag}
	seen := map[string]bool{baseTag: true}
	for _, tag := range input.Tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	escaped := make([]string, len(tags))
	for i, tag := range tags {
		escaped[i] = escapeYaml(tag)
	}

	return fmt.Sprintf(`---
title: %s
url: %s
author: %s
saved: %s
tags: [%s]
---`,
		escapeYaml(input.Title),
		input.URL,
		escapeYaml(author),
		g.now().UTC().Format(time.RFC3339),
		strings.Join(escaped, ", "))
}

func (g *Generator) body(input Input) (string, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", input.Title)
	fmt.Fprintf(&sb, "> Source: [%s](%s)\n", input.URL, input.URL)
	fmt.Fprintf(&sb, "> Saved: %s", g.now().Format("2006-01-02 15:04"))

	if input.Author != "" {
		fmt.Fprintf(&sb, "\n> Author: %s", input.Author)
	}
	if input.PublishDate != "" {
		fmt.Fprintf(&sb, "\n> Published: %s", input.PublishDate)
	}

	sb.WriteString("\n\n## AI Summary\n\n")
	sb.WriteString(input.Summary)

	original := input.HTML
	if g.convertHTML {
		converted, err := g.converter.ConvertString(input.HTML)
		if err != nil {
			return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
		}
		original = converted
	}

	sb.WriteString("\n\n## Original Content\n\n")
	sb.WriteString(original)

	if len(input.Images) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(imageSection(input.Images, input.ImageMapping))
	}

	return sb.String(), nil
}

func imageSection(images []Image, mapping map[string]string) string {
	var sb strings.Builder
	sb.WriteString("## Images\n\n")

	for i, img := range images {
		alt := img.Alt
		if alt == "" {
			alt = fmt.Sprintf("image %d", i+1)
		}

		src := img.URL
		if local, ok := mapping[img.URL]; ok {
			src = local
		}

		fmt.Fprintf(&sb, "![%s](%s)\n\n", alt, src)
	}

	return sb.String()
}

// yamlSpecial matches characters that force quoting in a YAML scalar. A
// hyphen only needs quoting in leading position.
var yamlSpecial = regexp.MustCompile("[:\\[\\]{}&*#?|<>=!%@`'\"]")

func escapeYaml(text string) string {
	if text == "" {
		return ""
	}
	if strings.HasPrefix(text, "-") || yamlSpecial.MatchString(text) {
		return `"` + strings.ReplaceAll(text, `"`, `\"`) + `"`
	}
	return text
}

var unsafeFilenameChars = regexp.MustCompile(`[/\\?%*:|"<>]`)
var whitespaceRun = regexp.MustCompile(`\s+`)
var hyphenRun = regexp.MustCompile(`-+`)

// SanitizeTitle strips path-hostile characters, collapses whitespace and
// hyphen runs, caps the length and trims leading/trailing hyphens. Shared by
// filename and attachment-subfolder derivation.
func SanitizeTitle(title string, maxLength int) string {
	s := unsafeFilenameChars.ReplaceAllString(title, "-")
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = hyphenRun.ReplaceAllString(s, "-")
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	return strings.Trim(s, "-")
}

// SafeFilename derives a document filename from the article title, with a
// millisecond timestamp to keep repeat saves distinguishable.
func SafeFilename(title string) string {
	name := SanitizeTitle(title, maxFilenameLength)
	if name == "" {
		name = "article"
	}
	return fmt.Sprintf("%s-%d.md", name, time.Now().UnixMilli())
}
