package repository

import (
	"context"

	"github.com/goliatone/go-storefront/models"
	"github.com/uptrace/bun"
)

// Orders is the orders repository. Checkout is not implemented so only
// reads are exposed over HTTP.
type Orders interface {
	Repository[*models.Order]

	ListByUser(ctx context.Context, userID int64, opts ListOptions) ([]*models.Order, int, error)
}

type orders struct {
	Repository[*models.Order]
}

var _ Orders = (*orders)(nil)

func NewOrdersRepository(db *bun.DB) Orders {
	return &orders{
		Repository: NewRepository[*models.Order](db, ModelHandlers[*models.Order]{
			NewRecord: func() *models.Order { return &models.Order{} },
			GetID: func(o *models.Order) int64 {
				if o == nil {
					return 0
				}
				return o.ID
			},
			SetID: func(o *models.Order, id int64) {
				if o != nil {
					o.ID = id
				}
			},
			UpdatedAtColumn: "updated_at",
		}),
	}
}

func (o *orders) ListByUser(ctx context.Context, userID int64, opts ListOptions) ([]*models.Order, int, error) {
	return o.List(ctx, opts, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Items").Where("?TableAlias.user_id = ?", userID)
	})
}
