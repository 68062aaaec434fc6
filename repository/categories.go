package repository

import (
	"context"

	"github.com/goliatone/go-storefront/models"
	"github.com/uptrace/bun"
)

// Categories is the product category repository
type Categories interface {
	Repository[*models.ProductCategory]

	ListActive(ctx context.Context, opts ListOptions) ([]*models.ProductCategory, int, error)
}

type categories struct {
	Repository[*models.ProductCategory]
}

var _ Categories = (*categories)(nil)

func NewCategoriesRepository(db *bun.DB) Categories {
	return &categories{
		Repository: NewRepository[*models.ProductCategory](db, ModelHandlers[*models.ProductCategory]{
			NewRecord: func() *models.ProductCategory { return &models.ProductCategory{} },
			GetID: func(c *models.ProductCategory) int64 {
				if c == nil {
					return 0
				}
				return c.ID
			},
			SetID: func(c *models.ProductCategory, id int64) {
				if c != nil {
					c.ID = id
				}
			},
			UpdatedAtColumn: "updated_at",
		}),
	}
}

func (c *categories) ListActive(ctx context.Context, opts ListOptions) ([]*models.ProductCategory, int, error) {
	return c.List(ctx, opts, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.is_active = ?", true)
	})
}
