package database

import (
	"fmt"
	"strings"
	"time"
)

// SQLArticleRepository handles archive queries for saved articles
type SQLArticleRepository struct {
	db *DB
}

var _ ArticleRepository = (*SQLArticleRepository)(nil)

func NewArticleRepository(db *DB) *SQLArticleRepository {
	return &SQLArticleRepository{db: db}
}

func (r *SQLArticleRepository) Insert(article *Article) (int64, error) {
	savedAt := article.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	result, err := r.db.Exec(`
		INSERT INTO articles (url, title, author, summary, tags, file_path, provider, image_count, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, article.URL, article.Title, article.Author, article.Summary,
		strings.Join(article.Tags, ","), article.FilePath, article.Provider,
		article.ImageCount, savedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert article: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted article id: %w", err)
	}

	return id, nil
}

func (r *SQLArticleRepository) GetRecent(limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT id, url, title, author, summary, tags, file_path, provider, image_count, saved_at
		FROM articles
		ORDER BY saved_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

func (r *SQLArticleRepository) GetByURL(url string) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT id, url, title, author, summary, tags, file_path, provider, image_count, saved_at
		FROM articles
		WHERE url = ?
		ORDER BY saved_at DESC
	`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles by url: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

func (r *SQLArticleRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanArticles(rows rowScanner) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		var tags string
		err := rows.Scan(&a.ID, &a.URL, &a.Title, &a.Author, &a.Summary,
			&tags, &a.FilePath, &a.Provider, &a.ImageCount, &a.SavedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		if tags != "" {
			a.Tags = strings.Split(tags, ",")
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}
