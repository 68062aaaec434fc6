package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/middleware/jwtware"
	"github.com/goliatone/go-storefront/models"
)

// SessionIssuer issues and rotates token pairs
type SessionIssuer interface {
	Login(ctx context.Context, identifier, secret string) (auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Logout(ctx context.Context, user *models.User) error
}

// AccountService manages user accounts
type AccountService interface {
	Register(ctx context.Context, msg auth.RegisterUserMessage) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, update auth.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, id int64, current, next string) error
	SetActive(ctx context.Context, id int64, active bool) (*models.User, error)
}

type AuthController struct {
	Debug    bool
	Logger   auth.Logger
	Sessions SessionIssuer
	Accounts AccountService
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)
	if err := c.BodyParser(payload); err != nil {
		a.Logger.Debug("register user parse payload", "error", err)
		return badRequest("failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	user, err := a.Accounts.Register(c.UserContext(), payload.Message())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(map[string]string{"username": payload.Username}))
		fmt.Println("=========================")
	}

	pair, err := a.Sessions.Login(c.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return err
	}

	return c.JSON(pair)
}

func (a *AuthController) Refresh(c *fiber.Ctx) error {
	payload := new(RefreshRequest)
	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	pair, err := a.Sessions.Refresh(c.UserContext(), payload.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(pair)
}

// Me returns the resolved user
func (a *AuthController) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// Logout only acknowledges. Issued tokens stay valid until they expire.
func (a *AuthController) Logout(c *fiber.Ctx) error {
	user, _ := jwtware.UserFromLocals(c)
	if err := a.Sessions.Logout(c.UserContext(), user); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "successfully logged out"})
}
