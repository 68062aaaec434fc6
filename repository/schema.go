package repository

import (
	"context"
	"fmt"

	"github.com/goliatone/go-storefront/models"
	"github.com/uptrace/bun"
)

// Models lists every table in creation order
var Models = []any{
	(*models.User)(nil),
	(*models.ProductCategory)(nil),
	(*models.Product)(nil),
	(*models.Order)(nil),
	(*models.OrderItem)(nil),
	(*models.Payment)(nil),
}

// CreateSchema creates missing tables. It is idempotent.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range Models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}
