package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/middleware/jwtware"
	"github.com/goliatone/go-storefront/models"
	"github.com/goliatone/go-storefront/repository"
)

// Viewer describes the caller of an optional-auth endpoint
type Viewer struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Superuser bool   `json:"is_superuser"`
}

type ProductResponse struct {
	*models.Product
	Viewer *Viewer `json:"viewer,omitempty"`
}

type ProductListResponse struct {
	Items  []*models.Product `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Viewer *Viewer           `json:"viewer,omitempty"`
}

type ProductsController struct {
	Logger     auth.Logger
	Products   repository.Products
	Categories repository.Categories
}

// List returns published products. Superusers also see drafts.
func (p *ProductsController) List(c *fiber.Ctx) error {
	opts := listOptions(c)
	viewer := viewerFrom(c)

	var (
		items []*models.Product
		total int
		err   error
	)
	if viewer != nil && viewer.Superuser {
		items, total, err = p.Products.List(c.UserContext(), opts)
	} else {
		items, total, err = p.Products.ListPublished(c.UserContext(), opts)
	}
	if err != nil {
		return err
	}

	opts = opts.Normalize()
	return c.JSON(ProductListResponse{
		Items:  items,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
		Viewer: viewer,
	})
}

// Featured returns published featured products, newest first
func (p *ProductsController) Featured(c *fiber.Ctx) error {
	items, err := p.Products.ListFeatured(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items})
}

func (p *ProductsController) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	product, err := p.Products.GetByID(c.UserContext(), id)
	return p.render(c, product, err)
}

func (p *ProductsController) GetBySlug(c *fiber.Ctx) error {
	product, err := p.Products.GetByField(c.UserContext(), "slug", c.Params("slug"))
	return p.render(c, product, err)
}

func (p *ProductsController) render(c *fiber.Ctx, product *models.Product, err error) error {
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return notFound("product not found")
		}
		return err
	}

	viewer := viewerFrom(c)
	if !product.Published && (viewer == nil || !viewer.Superuser) {
		return notFound("product not found")
	}

	if err := p.Products.IncrementViewCount(c.UserContext(), product.ID); err != nil {
		p.Logger.Warn("failed to count product view", "product_id", product.ID, "error", err)
	} else {
		product.ViewCount++
	}

	return c.JSON(ProductResponse{Product: product, Viewer: viewer})
}

func (p *ProductsController) Create(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	payload := new(ProductCreatePayload)
	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	if err := p.ensureSlugFree(c, payload.Slug, 0); err != nil {
		return err
	}

	if err := p.ensureCategory(c, payload.CategoryID); err != nil {
		return err
	}

	product, err := p.Products.Create(c.UserContext(), &models.Product{
		Name:        strings.TrimSpace(payload.Name),
		Slug:        payload.Slug,
		Description: payload.Description,
		PriceCents:  payload.PriceCents,
		Currency:    payload.Currency,
		Published:   payload.Published,
		Featured:    payload.Featured,
		CategoryID:  payload.CategoryID,
		CreatedByID: user.ID,
	})
	if err != nil {
		return err
	}

	p.Logger.Info("product created", "product_id", product.ID, "user_id", user.ID)
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (p *ProductsController) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	payload := new(ProductUpdatePayload)
	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	record := &models.Product{ID: id}
	columns := make([]string, 0, 8)

	if payload.Name != nil {
		record.Name = strings.TrimSpace(*payload.Name)
		columns = append(columns, "name")
	}
	if payload.Slug != nil {
		if err := p.ensureSlugFree(c, *payload.Slug, id); err != nil {
			return err
		}
		record.Slug = *payload.Slug
		columns = append(columns, "slug")
	}
	if payload.Description != nil {
		record.Description = *payload.Description
		columns = append(columns, "description")
	}
	if payload.PriceCents != nil {
		record.PriceCents = *payload.PriceCents
		columns = append(columns, "price_cents")
	}
	if payload.Currency != nil {
		record.Currency = *payload.Currency
		columns = append(columns, "currency")
	}
	if payload.Published != nil {
		record.Published = *payload.Published
		columns = append(columns, "is_published")
	}
	if payload.Featured != nil {
		record.Featured = *payload.Featured
		columns = append(columns, "is_featured")
	}
	if payload.CategoryID != nil {
		if err := p.ensureCategory(c, payload.CategoryID); err != nil {
			return err
		}
		record.CategoryID = payload.CategoryID
		columns = append(columns, "category_id")
	}

	var product *models.Product
	if len(columns) == 0 {
		product, err = p.Products.GetByID(c.UserContext(), id)
	} else {
		product, err = p.Products.Update(c.UserContext(), record, columns...)
	}
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return notFound("product not found")
		}
		return err
	}

	return c.JSON(product)
}

func (p *ProductsController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	if err := p.Products.SoftDelete(c.UserContext(), id); err != nil {
		if repository.IsRecordNotFound(err) {
			return notFound("product not found")
		}
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (p *ProductsController) ensureSlugFree(c *fiber.Ctx, slug string, ownID int64) error {
	existing, err := p.Products.GetByField(c.UserContext(), "slug", slug)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != ownID {
		return conflict("slug already in use", "DUPLICATE_SLUG")
	}
	return nil
}

// ensureCategory accepts a nil id or one naming an active category
func (p *ProductsController) ensureCategory(c *fiber.Ctx, id *int64) error {
	if id == nil {
		return nil
	}

	category, err := p.Categories.GetByID(c.UserContext(), *id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return badRequest("category not found")
		}
		return err
	}
	if !category.Active {
		return badRequest("category not found")
	}
	return nil
}

func viewerFrom(c *fiber.Ctx) *Viewer {
	user, ok := jwtware.IdentityFromLocals(c).Get()
	if !ok {
		return nil
	}
	return &Viewer{ID: user.ID, Username: user.Username, Superuser: user.Superuser}
}

func listOptions(c *fiber.Ctx) repository.ListOptions {
	return repository.ListOptions{
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
}
