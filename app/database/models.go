package database

import (
	"time"
)

// Article is one saved-article record in the archive.
type Article struct {
	ID         int64
	URL        string
	Title      string
	Author     string
	Summary    string
	Tags       []string
	FilePath   string
	Provider   string
	ImageCount int
	SavedAt    time.Time
}
