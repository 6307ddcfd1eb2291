package feed

import (
	"bytes"
	"cmp"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// Entry is one article reference pulled from a feed.
type Entry struct {
	Title string
	Link  string
}

// Parser turns RSS/Atom payloads into a list of article links for bulk import.
type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses data and returns the feed title plus its entries in feed order.
// Entries without a link are dropped.
func (p *Parser) Run(data []byte) (string, []Entry, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		link := cmp.Or(item.Link, item.GUID)
		if link == "" {
			continue
		}
		entries = append(entries, Entry{
			Title: item.Title,
			Link:  link,
		})
	}

	return parsed.Title, entries, nil
}
