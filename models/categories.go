package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// ProductCategory groups catalog products
type ProductCategory struct {
	bun.BaseModel `bun:"table:product_categories,alias:cat"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull,unique" json:"name"`
	Slug          string    `bun:"slug,notnull,unique" json:"slug"`
	Description   string    `bun:"description" json:"description,omitempty"`
	Active        bool      `bun:"is_active,notnull" json:"is_active"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

var _ bun.BeforeAppendModelHook = (*ProductCategory)(nil)

func (c *ProductCategory) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if c == nil {
		return nil
	}
	stampTimestamps(query, &c.CreatedAt, &c.UpdatedAt)
	return nil
}
