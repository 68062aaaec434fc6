// Package models holds the bun models persisted by the storefront: users,
// product categories, products, orders and payments.
package models
