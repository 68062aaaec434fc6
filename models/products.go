package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// DefaultCurrency is used when a product is created without one
const DefaultCurrency = "USD"

// Product is a digital good listed in the catalog
type Product struct {
	bun.BaseModel `bun:"table:products,alias:prd"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	Slug          string    `bun:"slug,notnull,unique" json:"slug"`
	Description   string    `bun:"description" json:"description,omitempty"`
	PriceCents    int64     `bun:"price_cents,notnull" json:"price_cents"`
	Currency      string    `bun:"currency,notnull" json:"currency"`
	FileKey       string    `bun:"file_key" json:"-"`
	Published     bool      `bun:"is_published,notnull" json:"is_published"`
	Featured      bool      `bun:"is_featured,notnull" json:"is_featured"`
	ViewCount     int64     `bun:"view_count,notnull" json:"view_count"`
	CategoryID    *int64    `bun:"category_id" json:"category_id,omitempty"`
	CreatedByID   int64     `bun:"created_by_id" json:"created_by_id,omitempty"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt     time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

var _ bun.BeforeAppendModelHook = (*Product)(nil)

// BeforeAppendModel stamps timestamps and fills the default currency
func (p *Product) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if p == nil {
		return nil
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	stampTimestamps(query, &p.CreatedAt, &p.UpdatedAt)
	return nil
}
