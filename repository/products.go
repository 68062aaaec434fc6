package repository

import (
	"context"
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront/models"
	"github.com/uptrace/bun"
)

const (
	DefaultFeaturedLimit = 10
	MaxFeaturedLimit     = 20
)

// Products is the catalog repository
type Products interface {
	Repository[*models.Product]

	ListPublished(ctx context.Context, opts ListOptions) ([]*models.Product, int, error)
	ListFeatured(ctx context.Context, limit int) ([]*models.Product, error)
	IncrementViewCount(ctx context.Context, id int64) error
}

type products struct {
	Repository[*models.Product]
	db *bun.DB
}

var _ Products = (*products)(nil)

func NewProductsRepository(db *bun.DB) Products {
	return &products{
		Repository: NewRepository[*models.Product](db, ModelHandlers[*models.Product]{
			NewRecord: func() *models.Product { return &models.Product{} },
			GetID: func(p *models.Product) int64 {
				if p == nil {
					return 0
				}
				return p.ID
			},
			SetID: func(p *models.Product, id int64) {
				if p != nil {
					p.ID = id
				}
			},
			UpdatedAtColumn: "updated_at",
		}),
		db: db,
	}
}

func (p *products) ListPublished(ctx context.Context, opts ListOptions) ([]*models.Product, int, error) {
	return p.List(ctx, opts, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.is_published = ?", true)
	})
}

// ListFeatured returns published featured products, newest first
func (p *products) ListFeatured(ctx context.Context, limit int) ([]*models.Product, error) {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}
	if limit > MaxFeaturedLimit {
		limit = MaxFeaturedLimit
	}

	records := make([]*models.Product, 0)
	err := p.db.NewSelect().
		Model(&records).
		Where("?TableAlias.is_published = ?", true).
		Where("?TableAlias.is_featured = ?", true).
		Order("created_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list featured products")
	}
	return records, nil
}

// IncrementViewCount adds one view in a single statement
func (p *products) IncrementViewCount(ctx context.Context, id int64) error {
	res, err := p.db.NewUpdate().
		Model((*models.Product)(nil)).
		Set("view_count = view_count + 1").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to increment view count")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return NewRecordNotFound().WithMetadata(map[string]any{"id": id})
	}
	return nil
}
