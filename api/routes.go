package api

import (
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/middleware/jwtware"
	"github.com/goliatone/go-storefront/models"
	"github.com/goliatone/go-storefront/repository"
)

const APIPrefix = "/api/v1"

// Dependencies wires the HTTP layer to the services
type Dependencies struct {
	Sessions    SessionIssuer
	Accounts    AccountService
	Resolver    jwtware.IdentityResolver
	Categories  repository.Categories
	Products    repository.Products
	Orders      repository.Orders
	Logger      auth.Logger
	Debug       bool
	CORSOrigins []string
	// AccessLog enables fiber's request logger when set
	AccessLog io.Writer
}

// NewApp builds the fiber application with every route registered
func NewApp(deps Dependencies) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = defLogger()
	}

	app := fiber.New(fiber.Config{
		AppName:               "storefront",
		ErrorHandler:          ErrorHandler(deps.Logger),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())

	if deps.AccessLog != nil {
		app.Use(logger.New(logger.Config{Output: deps.AccessLog}))
	}

	if len(deps.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(deps.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		}))
	}

	RegisterRoutes(app, deps)
	return app
}

// RegisterRoutes mounts health and the versioned API on router
func RegisterRoutes(router fiber.Router, deps Dependencies) {
	if deps.Logger == nil {
		deps.Logger = defLogger()
	}

	required := guard(deps, jwtware.PolicyRequired, nil)
	optional := guard(deps, jwtware.PolicyOptional, nil)
	active := guard(deps, jwtware.PolicyActive, nil)
	admin := guard(deps, jwtware.PolicyActive, jwtware.RequireSuperuser)

	authController := &AuthController{
		Debug:    deps.Debug,
		Logger:   deps.Logger,
		Sessions: deps.Sessions,
		Accounts: deps.Accounts,
	}
	users := &UsersController{Logger: deps.Logger, Accounts: deps.Accounts}
	categories := &CategoriesController{Logger: deps.Logger, Categories: deps.Categories}
	products := &ProductsController{Logger: deps.Logger, Products: deps.Products, Categories: deps.Categories}
	orders := &OrdersController{Logger: deps.Logger, Orders: deps.Orders}

	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := router.Group(APIPrefix)

	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", authController.Register)
	authRoutes.Post("/login", authController.Login)
	authRoutes.Post("/refresh", authController.Refresh)
	authRoutes.Post("/logout", required, authController.Logout)
	authRoutes.Get("/me", active, authController.Me)

	userRoutes := v1.Group("/users")
	userRoutes.Get("/me", active, users.Me)
	userRoutes.Patch("/me", active, users.UpdateMe)
	userRoutes.Put("/me", active, users.UpdateMe)
	userRoutes.Put("/me/password", active, users.ChangePassword)
	userRoutes.Get("/:id", active, users.Get)
	userRoutes.Post("/:id/deactivate", admin, users.Deactivate)
	userRoutes.Post("/:id/activate", admin, users.Activate)

	productRoutes := v1.Group("/products")
	productRoutes.Get("/", optional, products.List)
	productRoutes.Get("/categories", categories.List)
	productRoutes.Post("/categories", admin, categories.Create)
	productRoutes.Get("/featured", products.Featured)
	productRoutes.Get("/slug/:slug", optional, products.GetBySlug)
	productRoutes.Get("/:id", optional, products.Get)
	productRoutes.Post("/", admin, products.Create)
	productRoutes.Patch("/:id", admin, products.Update)
	productRoutes.Delete("/:id", admin, products.Delete)

	orderRoutes := v1.Group("/orders")
	orderRoutes.Get("/", active, orders.List)
	orderRoutes.Post("/", active, orders.Create)
}

// guard returns resolution middleware that defers errors to the app handler
func guard(deps Dependencies, policy jwtware.Policy, authorize func(*models.User) error) fiber.Handler {
	return jwtware.New(jwtware.Config{
		Resolver:  deps.Resolver,
		Policy:    policy,
		Authorize: authorize,
		ErrorHandler: func(_ *fiber.Ctx, err error) error {
			return err
		},
	})
}

func defLogger() auth.Logger {
	return slog.Default().With("component", "api")
}
