package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/models"
	"github.com/goliatone/go-storefront/repository"
)

type OrderListResponse struct {
	Items  []*models.Order `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type OrdersController struct {
	Logger auth.Logger
	Orders repository.Orders
}

// List returns the caller's orders
func (o *OrdersController) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	opts := listOptions(c).Normalize()
	items, total, err := o.Orders.ListByUser(c.UserContext(), user.ID, opts)
	if err != nil {
		return err
	}

	return c.JSON(OrderListResponse{
		Items:  items,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// Create answers 501 until checkout exists
func (o *OrdersController) Create(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotImplemented).JSON(ErrorResponse{
		Detail: "checkout is not implemented",
		Code:   TextCodeNotImplemented,
	})
}
