package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// OrderStatus is the order lifecycle state
type OrderStatus = string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

// Order groups the products a user is buying
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:ord"`
	ID            int64        `bun:"id,pk,autoincrement" json:"id"`
	Reference     uuid.UUID    `bun:"reference,notnull,unique,type:uuid" json:"reference"`
	UserID        int64        `bun:"user_id,notnull" json:"user_id"`
	Status        OrderStatus  `bun:"status,notnull" json:"status"`
	TotalCents    int64        `bun:"total_cents,notnull" json:"total_cents"`
	Currency      string       `bun:"currency,notnull" json:"currency"`
	Items         []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
	CreatedAt     time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time    `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
	DeletedAt     time.Time    `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

var _ bun.BeforeAppendModelHook = (*Order)(nil)

// BeforeAppendModel assigns a reference and default values on insert
func (o *Order) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if o == nil {
		return nil
	}
	if _, ok := query.(*bun.InsertQuery); ok {
		if o.Reference == uuid.Nil {
			o.Reference = uuid.New()
		}
		if o.Status == "" {
			o.Status = OrderPending
		}
		if o.Currency == "" {
			o.Currency = DefaultCurrency
		}
	}
	stampTimestamps(query, &o.CreatedAt, &o.UpdatedAt)
	return nil
}

// OrderItem is a single product line in an order
type OrderItem struct {
	bun.BaseModel  `bun:"table:order_items,alias:oitm"`
	ID             int64 `bun:"id,pk,autoincrement" json:"id"`
	OrderID        int64 `bun:"order_id,notnull" json:"order_id"`
	ProductID      int64 `bun:"product_id,notnull" json:"product_id"`
	Quantity       int   `bun:"quantity,notnull" json:"quantity"`
	UnitPriceCents int64 `bun:"unit_price_cents,notnull" json:"unit_price_cents"`
}

// Payment records a payment attempt against an order.
// Payment processing is not implemented, the table exists for the schema.
type Payment struct {
	bun.BaseModel `bun:"table:payments,alias:pay"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	OrderID       int64     `bun:"order_id,notnull" json:"order_id"`
	Provider      string    `bun:"provider,notnull" json:"provider"`
	Status        string    `bun:"status,notnull" json:"status"`
	AmountCents   int64     `bun:"amount_cents,notnull" json:"amount_cents"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

var _ bun.BeforeAppendModelHook = (*Payment)(nil)

// BeforeAppendModel stamps timestamps
func (p *Payment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if p == nil {
		return nil
	}
	stampTimestamps(query, &p.CreatedAt, &p.UpdatedAt)
	return nil
}
