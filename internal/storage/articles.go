package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hoanghai1803/newswire/internal/models"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

const articleColumns = `id, external_id, title, content, source, source_url, published_at,
	category, author, image_url, relevance_score, reading_time_minutes, fetched_at, created_at`

// ArticleQuery filters and paginates stored articles.
type ArticleQuery struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

// ArticlePage is one page of stored articles.
type ArticlePage struct {
	Data       []models.StoredArticle `json:"data"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// StoreArticles inserts articles that are not stored yet, in one
// transaction, and returns how many rows were new. An article already
// stored under the same source URL, or the same title and source, is
// skipped. Articles without a URL are stored with a NULL source_url.
func (s *Store) StoreArticles(ctx context.Context, articles []models.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO articles (id, external_id, title, content, source, source_url,
			published_at, category, author, image_url, relevance_score, reading_time_minutes, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	fetchedAt := formatTime(s.now())
	inserted := 0
	for i := range articles {
		a := &articles[i]

		// An estimated publication time is the fetch time, not a real date.
		var publishedAt *string
		if !a.TimeEstimated {
			publishedAt = formatTimePtr(a.PublishedAt)
		}
		category := a.Category
		if category == "" {
			category = models.CategoryOther
		}

		res, err := stmt.ExecContext(ctx,
			uuid.NewString(), nullableString(a.ID), a.Title, nullableString(a.Content),
			a.Source, nullableString(a.SourceURL), publishedAt, string(category),
			nullableString(a.Author), nullableString(a.ImageURL), a.RelevanceScore,
			a.ReadingTimeMinutes, fetchedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("storing article %q: %w", a.Title, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("reading affected rows: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return inserted, nil
}

// GetArticle returns the stored article with the given id.
// Returns nil, ErrNotFound if no matching row exists.
func (s *Store) GetArticle(ctx context.Context, id string) (*models.StoredArticle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)

	a, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting article: %w", err)
	}
	return a, nil
}

// ListArticles returns stored articles, newest first, filtered by category
// and an optional full-text search.
func (s *Store) ListArticles(ctx context.Context, q ArticleQuery) (*ArticlePage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultPageLimit
	}
	q.Limit = min(q.Limit, maxPageLimit)

	var (
		where []string
		args  []any
	)
	if c := strings.TrimSpace(q.Category); c != "" && c != "all" {
		where = append(where, "category = ?")
		args = append(args, strings.ToLower(c))
	}
	if match := ftsQuery(q.Search); match != "" {
		where = append(where, "pk IN (SELECT rowid FROM articles_fts WHERE articles_fts MATCH ?)")
		args = append(args, match)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting articles: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles`+clause+`
		 ORDER BY COALESCE(published_at, fetched_at) DESC, pk DESC
		 LIMIT ? OFFSET ?`,
		append(args, q.Limit, (q.Page-1)*q.Limit)...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	data, err := scanArticles(rows)
	if err != nil {
		return nil, err
	}

	return &ArticlePage{
		Data:       data,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}, nil
}

// SearchArticles performs a full-text search over stored titles, content
// and sources using FTS5, best matches first.
func (s *Store) SearchArticles(ctx context.Context, query string, limit int) ([]models.StoredArticle, error) {
	match := ftsQuery(query)
	if match == "" {
		return []models.StoredArticle{}, nil
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, a.external_id, a.title, a.content, a.source, a.source_url, a.published_at,
				a.category, a.author, a.image_url, a.relevance_score, a.reading_time_minutes,
				a.fetched_at, a.created_at
		 FROM articles_fts fts
		 JOIN articles a ON a.pk = fts.rowid
		 WHERE articles_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching articles: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// ftsQuery turns free text into an FTS5 query that matches every word,
// quoting each one so user punctuation cannot break the query syntax.
func ftsQuery(text string) string {
	words := strings.Fields(text)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " ")
}

// scanner is a minimal interface satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (*models.StoredArticle, error) {
	var (
		a           models.StoredArticle
		externalID  sql.NullString
		content     sql.NullString
		sourceURL   sql.NullString
		publishedAt sql.NullString
		category    string
		author      sql.NullString
		imageURL    sql.NullString
		readingTime sql.NullInt64
		fetchedAt   string
		createdAt   string
	)

	if err := row.Scan(
		&a.ID, &externalID, &a.Title, &content, &a.Source, &sourceURL, &publishedAt,
		&category, &author, &imageURL, &a.RelevanceScore, &readingTime,
		&fetchedAt, &createdAt,
	); err != nil {
		return nil, err
	}

	a.ExternalID = externalID.String
	a.Content = content.String
	a.SourceURL = sourceURL.String
	a.PublishedAt = parseTimePtr(publishedAt)
	a.Category = models.Category(category)
	a.Author = author.String
	a.ImageURL = imageURL.String
	a.ReadingTimeMinutes = int(readingTime.Int64)
	a.FetchedAt = parseTime(fetchedAt)
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]models.StoredArticle, error) {
	articles := []models.StoredArticle{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating articles: %w", err)
	}
	return articles, nil
}
