package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"audiencesync/internal/domain"
)

const uniqueViolation = "23505"

const tagColumns = `id, name, external_id, created_at, updated_at`

type tagRepository struct {
	DB *sql.DB
}

// NewTagRepository returns a domain.TagRepository implemented with Postgres.
func NewTagRepository(db *sql.DB) domain.TagRepository {
	return &tagRepository{DB: db}
}

func (r *tagRepository) FindOrCreate(ctx context.Context, name string, externalID int) (*domain.Tag, error) {
	tag, err := r.scanOne(r.DB.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name = $1 AND external_id = $2`, name, externalID))
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	tag, err = r.scanOne(r.DB.QueryRowContext(ctx,
		`INSERT INTO tags (name, external_id) VALUES ($1, $2) RETURNING `+tagColumns, name, externalID))
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == uniqueViolation {
			return nil, fmt.Errorf("tag %q: %w", name, domain.ErrDuplicateName)
		}
		return nil, err
	}
	return tag, nil
}

func (r *tagRepository) FindByName(ctx context.Context, name string) (*domain.Tag, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name = $1`, name))
}

func (r *tagRepository) GetByID(ctx context.Context, id string) (*domain.Tag, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = $1`, id))
}

func (r *tagRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Tag, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY name LIMIT $1 OFFSET $2`,
		params.Limit(), params.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.ExternalID, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, &tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateName changes the name only. external_id is never part of an UPDATE
// statement, which is what makes it write-once.
func (r *tagRepository) UpdateName(ctx context.Context, id, name string) (*domain.Tag, error) {
	tag, err := r.scanOne(r.DB.QueryRowContext(ctx,
		`UPDATE tags SET name = $2, updated_at = NOW() WHERE id = $1 RETURNING `+tagColumns, id, name))
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == uniqueViolation {
			return nil, fmt.Errorf("tag %q: %w", name, domain.ErrDuplicateName)
		}
		return nil, err
	}
	return tag, nil
}

func (r *tagRepository) scanOne(row *sql.Row) (*domain.Tag, error) {
	var tag domain.Tag
	err := row.Scan(&tag.ID, &tag.Name, &tag.ExternalID, &tag.CreatedAt, &tag.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &tag, nil
}
