package llm

import (
	"fmt"
	"strings"

	"github.com/clipvault/clipvault/app/extract"
)

// maxPromptChars bounds request size and cost for every provider.
const maxPromptChars = 8000

const maxTagLength = 30

const summarySystemPrompt = "You are a professional content summarization assistant. " +
	"Summarize the core content of the article, covering: 1) main points " +
	"2) key information 3) important conclusions. Stay concise but complete, " +
	"targeting 300-500 characters."

const tagSystemPrompt = "You are a professional content analysis assistant. " +
	"Extract the most relevant keywords from the article as tags. Tags should be " +
	"short and accurate, representing the article's topics and core concepts. " +
	"Return only the tag list, comma separated, with no other explanation."

// prepareContent truncates the article to the prompt budget, preferring the
// plain text body and falling back to the extracted HTML when text is empty.
func prepareContent(content *extract.ExtractedContent) string {
	text := content.Text
	if text == "" {
		text = content.HTML
	}
	if len(text) > maxPromptChars {
		return text[:maxPromptChars]
	}
	return text
}

func summaryUserMessage(content *extract.ExtractedContent) string {
	return fmt.Sprintf("Summarize the following article:\n\nTitle: %s\n\nContent: %s",
		content.Title, prepareContent(content))
}

func tagUserMessage(content *extract.ExtractedContent, maxTags int) string {
	return fmt.Sprintf("Extract the %d most relevant keyword tags from the following article:\n\n"+
		"Title: %s\n\nContent: %s\n\n"+
		"Return only the tags, comma separated, for example: technology,programming,AI",
		maxTags, content.Title, prepareContent(content))
}

// ParseTags tokenizes an LLM tag response on half- and full-width commas and
// semicolons plus newlines, trims each token, drops empty and over-length
// entries, and caps the result at maxTags preserving response order.
func ParseTags(text string, maxTags int) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ',', '，', ';', '；', '\n':
			return true
		}
		return false
	})

	tags := make([]string, 0, maxTags)
	for _, field := range fields {
		tag := strings.TrimSpace(field)
		if tag == "" || len([]rune(tag)) > maxTagLength {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}

	return tags
}
