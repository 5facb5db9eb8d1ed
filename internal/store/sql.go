package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/intent-feedx/feedx/internal/models"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL driver and placeholder style
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var contentColumns = []string{
	"id", "url", "source_type", "title", "snippet", "author_name", "published_at",
	"thumbnail_url", "source_metadata", "keyword", "search_date", "created_at", "deleted_at",
}

// SQLStore implements ContentStore and KeywordStore on database/sql
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
	now     func() time.Time
}

var (
	_ ContentStore = (*SQLStore)(nil)
	_ KeywordStore = (*SQLStore)(nil)
)

// Open connects to the database and creates the tables if they are missing
func Open(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	var schema []string
	switch dialect {
	case Postgres:
		schema = postgresSchema
	case SQLite:
		schema = sqliteSchema
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dialect)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == SQLite {
		// one connection keeps :memory: databases shared and serializes writers
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	logrus.Infof("Connected to %s database", dialect)
	return New(db, dialect), nil
}

// New wraps an existing connection without touching the schema
func New(db *sql.DB, dialect Dialect) *SQLStore {
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == Postgres {
		placeholder = sq.Dollar
	}

	return &SQLStore{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:     time.Now,
	}
}

// Close releases the connection pool
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// InsertNew inserts contents in one transaction with the URL as conflict target.
// Conflicting rows are skipped and the existing row is kept.
func (s *SQLStore) InsertNew(ctx context.Context, contents []models.Content) (int, error) {
	if len(contents) == 0 {
		return 0, nil
	}

	for i := range contents {
		if err := contents[i].Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := s.now().UTC()
	inserted := 0

	for _, c := range contents {
		metadata, err := json.Marshal(c.SourceMetadata)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal metadata for %s: %w", c.URL, err)
		}

		query, args, err := s.builder.
			Insert("contents").
			Columns("url", "source_type", "title", "snippet", "author_name", "published_at",
				"thumbnail_url", "source_metadata", "keyword", "search_date", "created_at").
			Values(c.URL, string(c.SourceType), c.Title, c.Snippet, nullString(c.AuthorName),
				nullString(c.PublishedAt), nullString(c.ThumbnailURL), string(metadata),
				c.Keyword, c.SearchDate, createdAt).
			Suffix("ON CONFLICT (url) DO NOTHING").
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build insert: %w", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert content %s: %w", c.URL, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit contents: %w", err)
	}

	return inserted, nil
}

// LoadExistingURLs returns every stored URL, deleted or not
func (s *SQLStore) LoadExistingURLs(ctx context.Context) (models.URLSet, error) {
	query, args, err := s.builder.Select("url").From("contents").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query urls: %w", err)
	}
	defer rows.Close()

	urls := make(models.URLSet)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls.Add(url)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return urls, nil
}

// SoftDelete hides the content at url from the live feed
func (s *SQLStore) SoftDelete(ctx context.Context, url string) error {
	return s.setDeletedAt(ctx, url, s.now().UTC())
}

// Restore brings a soft-deleted content back to the live feed
func (s *SQLStore) Restore(ctx context.Context, url string) error {
	return s.setDeletedAt(ctx, url, nil)
}

func (s *SQLStore) setDeletedAt(ctx context.Context, url string, value any) error {
	query, args, err := s.builder.
		Update("contents").
		Set("deleted_at", value).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update content %s: %w", url, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("content %s: %w", url, models.ErrNotFound)
	}

	return nil
}

// List returns one page of the feed, newest first
func (s *SQLStore) List(ctx context.Context, filter ContentFilter) (*ContentPage, error) {
	page := filter.Page
	if page < 0 {
		page = 0
	}
	offset := page * PageSize

	where := sq.And{}
	if filter.Deleted {
		where = append(where, sq.NotEq{"deleted_at": nil})
	} else {
		where = append(where, sq.Eq{"deleted_at": nil})
	}
	if filter.SourceType != "" {
		where = append(where, sq.Eq{"source_type": string(filter.SourceType)})
	}

	countQuery, countArgs, err := s.builder.Select("COUNT(*)").From("contents").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count: %w", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count contents: %w", err)
	}

	query, args, err := s.builder.
		Select(contentColumns...).
		From("contents").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(PageSize).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contents: %w", err)
	}
	defer rows.Close()

	contents := make([]models.Content, 0, PageSize)
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return &ContentPage{
		Contents:   contents,
		HasMore:    offset+PageSize < total,
		TotalCount: total,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContent(row scanner) (*models.Content, error) {
	var (
		c                                  models.Content
		sourceType                         string
		author, published, thumb, metadata sql.NullString
		deletedAt                          sql.NullTime
	)

	err := row.Scan(&c.ID, &c.URL, &sourceType, &c.Title, &c.Snippet, &author, &published,
		&thumb, &metadata, &c.Keyword, &c.SearchDate, &c.CreatedAt, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan content: %w", err)
	}

	c.SourceType = models.SourceType(sourceType)
	c.AuthorName = author.String
	c.PublishedAt = published.String
	c.ThumbnailURL = thumb.String
	if deletedAt.Valid {
		t := deletedAt.Time
		c.DeletedAt = &t
	}

	if metadata.Valid {
		if err := c.SourceMetadata.Decode(c.SourceType, []byte(metadata.String)); err != nil {
			logrus.Warnf("Ignoring unreadable metadata for %s: %v", c.URL, err)
		}
	}

	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
