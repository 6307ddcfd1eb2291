package database

import (
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestArticleRepository_InsertAndGetRecent(t *testing.T) {
	repo := NewArticleRepository(testDB(t))

	id, err := repo.Insert(&Article{
		URL:      "https://example.com/first",
		Title:    "First",
		Author:   "Jane",
		Summary:  "summary",
		Tags:     []string{"golang", "testing"},
		FilePath: "First-123.md",
		Provider: "openai",
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == 0 {
		t.Error("Expected a non-zero id")
	}

	if _, err := repo.Insert(&Article{URL: "https://example.com/second", Title: "Second", FilePath: "Second-124.md"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	articles, err := repo.GetRecent(10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(articles))
	}

	var first *Article
	for i := range articles {
		if articles[i].Title == "First" {
			first = &articles[i]
		}
	}
	if first == nil {
		t.Fatal("Expected the first article in results")
	}
	if len(first.Tags) != 2 || first.Tags[0] != "golang" {
		t.Errorf("Unexpected tags: %v", first.Tags)
	}
}

func TestArticleRepository_GetByURL(t *testing.T) {
	repo := NewArticleRepository(testDB(t))

	for i := 0; i < 2; i++ {
		if _, err := repo.Insert(&Article{URL: "https://example.com/dup", Title: "Dup", FilePath: "Dup.md"}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if _, err := repo.Insert(&Article{URL: "https://example.com/other", Title: "Other", FilePath: "Other.md"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	articles, err := repo.GetByURL("https://example.com/dup")
	if err != nil {
		t.Fatalf("GetByURL failed: %v", err)
	}
	if len(articles) != 2 {
		t.Errorf("Expected 2 saves of the same URL, got %d", len(articles))
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 total articles, got %d", count)
	}
}
