package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/models"
	"github.com/goliatone/go-storefront/repository"
)

type CategoryListResponse struct {
	Items  []*models.ProductCategory `json:"items"`
	Total  int                       `json:"total"`
	Limit  int                       `json:"limit"`
	Offset int                       `json:"offset"`
}

type CategoriesController struct {
	Logger     auth.Logger
	Categories repository.Categories
}

// List returns active categories
func (cc *CategoriesController) List(c *fiber.Ctx) error {
	opts := listOptions(c)

	items, total, err := cc.Categories.ListActive(c.UserContext(), opts)
	if err != nil {
		return err
	}

	opts = opts.Normalize()
	return c.JSON(CategoryListResponse{
		Items:  items,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

func (cc *CategoriesController) Create(c *fiber.Ctx) error {
	payload := new(CategoryCreatePayload)
	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	category, err := cc.Categories.Create(c.UserContext(), &models.ProductCategory{
		Name:        strings.TrimSpace(payload.Name),
		Slug:        payload.Slug,
		Description: payload.Description,
		Active:      true,
	})
	if err != nil {
		if column, ok := repository.UniqueViolationColumn(err); ok {
			return conflict("category "+strings.TrimPrefix(column, "product_categories.")+" already in use", "DUPLICATE_CATEGORY")
		}
		return err
	}

	cc.Logger.Info("category created", "category_id", category.ID)
	return c.Status(fiber.StatusCreated).JSON(category)
}
