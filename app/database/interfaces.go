package database

type ArticleRepository interface {
	Insert(article *Article) (int64, error)
	GetRecent(limit int) ([]Article, error)
	GetByURL(url string) ([]Article, error)
	Count() (int, error)
}
