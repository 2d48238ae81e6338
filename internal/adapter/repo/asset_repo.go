package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

const defaultPageSize = 20

// AssetRepositoryPG implements domain.AssetRepository.
type AssetRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAssetRepository creates a new asset repository backed by PostgreSQL.
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepositoryPG {
	return &AssetRepositoryPG{pool: pool}
}

// Create inserts a generated asset record.
func (r *AssetRepositoryPG) Create(ctx context.Context, asset *domain.Asset) error {
	query := `
INSERT INTO generated_assets (
    asset_id, task_id, content_type, url, thumbnail_url, prompt, model, published, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.pool.Exec(ctx, query,
		asset.AssetID,
		asset.TaskID,
		asset.ContentType,
		asset.URL,
		asset.ThumbnailURL,
		asset.Prompt,
		asset.Model,
		asset.Published,
		asset.CreatedAt,
	)
	return err
}

// GetByID fetches an asset by its identifier.
func (r *AssetRepositoryPG) GetByID(ctx context.Context, assetID string) (*domain.Asset, error) {
	query := `
SELECT asset_id, task_id, content_type, url, thumbnail_url, prompt, model, published, created_at
FROM generated_assets
WHERE asset_id = $1;
`
	row := r.pool.QueryRow(ctx, query, assetID)
	var asset domain.Asset
	if err := row.Scan(
		&asset.AssetID,
		&asset.TaskID,
		&asset.ContentType,
		&asset.URL,
		&asset.ThumbnailURL,
		&asset.Prompt,
		&asset.Model,
		&asset.Published,
		&asset.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// List returns a page of assets matching the filter, newest first, together
// with the total match count.
func (r *AssetRepositoryPG) List(ctx context.Context, filter domain.AssetFilter) ([]domain.Asset, int, error) {
	var conditions []string
	var args []any
	if filter.ContentType != "" {
		args = append(args, filter.ContentType)
		conditions = append(conditions, fmt.Sprintf("content_type = $%d", len(args)))
	}
	if filter.PublishedOnly {
		conditions = append(conditions, "published = TRUE")
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM generated_assets " + where + ";"
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	size := filter.Size
	if size <= 0 {
		size = defaultPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	args = append(args, size, (page-1)*size)
	query := fmt.Sprintf(`
SELECT asset_id, task_id, content_type, url, thumbnail_url, prompt, model, published, created_at
FROM generated_assets
%s
ORDER BY created_at DESC
LIMIT $%d OFFSET $%d;
`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		var asset domain.Asset
		if err := rows.Scan(
			&asset.AssetID,
			&asset.TaskID,
			&asset.ContentType,
			&asset.URL,
			&asset.ThumbnailURL,
			&asset.Prompt,
			&asset.Model,
			&asset.Published,
			&asset.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

// SetPublished toggles gallery visibility for an asset.
func (r *AssetRepositoryPG) SetPublished(ctx context.Context, assetID string, published bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE generated_assets SET published = $2 WHERE asset_id = $1;`,
		assetID, published)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes an asset record.
func (r *AssetRepositoryPG) Delete(ctx context.Context, assetID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM generated_assets WHERE asset_id = $1;`,
		assetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
