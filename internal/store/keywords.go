package store

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/intent-feedx/feedx/internal/models"
)

var keywordColumns = []string{"slug", "query", "enabled", "sources", "created_at"}

func (s *SQLStore) ListKeywords(ctx context.Context) ([]models.Keyword, error) {
	return s.queryKeywords(ctx, nil)
}

func (s *SQLStore) ListEnabledKeywords(ctx context.Context) ([]models.Keyword, error) {
	return s.queryKeywords(ctx, sq.Eq{"enabled": true})
}

func (s *SQLStore) queryKeywords(ctx context.Context, where sq.Sqlizer) ([]models.Keyword, error) {
	builder := s.builder.Select(keywordColumns...).From("keywords").OrderBy("created_at", "slug")
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	defer rows.Close()

	keywords := []models.Keyword{}
	for rows.Next() {
		kw, err := scanKeyword(rows)
		if err != nil {
			return nil, err
		}
		keywords = append(keywords, *kw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return keywords, nil
}

func (s *SQLStore) GetKeyword(ctx context.Context, id string) (*models.Keyword, error) {
	query, args, err := s.builder.Select(keywordColumns...).From("keywords").Where(sq.Eq{"slug": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	kw, err := scanKeyword(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("keyword %s: %w", id, models.ErrNotFound)
		}
		return nil, err
	}

	return kw, nil
}

// CreateKeyword inserts kw; an existing slug yields ErrDuplicate
func (s *SQLStore) CreateKeyword(ctx context.Context, kw models.Keyword) error {
	sources, err := json.Marshal(kw.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	createdAt := kw.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}

	query, args, err := s.builder.
		Insert("keywords").
		Columns(keywordColumns...).
		Values(kw.ID, kw.Query, kw.Enabled, string(sources), createdAt).
		Suffix("ON CONFLICT (slug) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert keyword %s: %w", kw.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("keyword %s: %w", kw.ID, models.ErrDuplicate)
	}

	return nil
}

func (s *SQLStore) UpdateKeyword(ctx context.Context, id string, update KeywordUpdate) (*models.Keyword, error) {
	set := map[string]any{}
	if update.Enabled != nil {
		set["enabled"] = *update.Enabled
	}
	if update.Sources != nil {
		sources, err := json.Marshal(update.Sources)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal sources: %w", err)
		}
		set["sources"] = string(sources)
	}

	if len(set) == 0 {
		return s.GetKeyword(ctx, id)
	}

	query, args, err := s.builder.Update("keywords").SetMap(set).Where(sq.Eq{"slug": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update keyword %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("keyword %s: %w", id, models.ErrNotFound)
	}

	return s.GetKeyword(ctx, id)
}

func (s *SQLStore) DeleteKeyword(ctx context.Context, id string) error {
	query, args, err := s.builder.Delete("keywords").Where(sq.Eq{"slug": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete keyword %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("keyword %s: %w", id, models.ErrNotFound)
	}

	return nil
}

func scanKeyword(row scanner) (*models.Keyword, error) {
	var (
		kw      models.Keyword
		sources string
	)

	if err := row.Scan(&kw.ID, &kw.Query, &kw.Enabled, &sources, &kw.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan keyword: %w", err)
	}

	if sources != "" {
		if err := json.Unmarshal([]byte(sources), &kw.Sources); err != nil {
			return nil, fmt.Errorf("keyword %s has unreadable sources: %w", kw.ID, err)
		}
	}
	if len(kw.Sources) == 0 {
		kw.Sources = []models.SourceType{models.SourceTwitter}
	}

	return &kw, nil
}
