package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-storefront/auth"
	"github.com/goliatone/go-storefront/middleware/jwtware"
	"github.com/goliatone/go-storefront/models"
)

type UsersController struct {
	Logger   auth.Logger
	Accounts AccountService
}

func (u *UsersController) Me(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

func (u *UsersController) UpdateMe(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	payload := new(ProfileUpdatePayload)
	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	updated, err := u.Accounts.UpdateProfile(c.UserContext(), user.ID, payload.Update())
	if err != nil {
		return userError(err)
	}
	return c.JSON(updated)
}

// ChangePassword requires the current password
func (u *UsersController) ChangePassword(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	payload := new(PasswordChangePayload)
	if err := c.BodyParser(payload); err != nil {
		return badRequest("failed to parse request body")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	if err := u.Accounts.ChangePassword(c.UserContext(), user.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		return userError(err)
	}

	return c.JSON(fiber.Map{"message": "password updated successfully"})
}

func (u *UsersController) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	user, err := u.Accounts.GetByID(c.UserContext(), id)
	if err != nil {
		return userError(err)
	}
	return c.JSON(user)
}

func (u *UsersController) Deactivate(c *fiber.Ctx) error {
	return u.setActive(c, false)
}

func (u *UsersController) Activate(c *fiber.Ctx) error {
	return u.setActive(c, true)
}

func (u *UsersController) setActive(c *fiber.Ctx, active bool) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	user, err := u.Accounts.SetActive(c.UserContext(), id, active)
	if err != nil {
		return userError(err)
	}

	u.Logger.Info("user status changed", "user_id", id, "active", active)
	return c.JSON(user)
}

func currentUser(c *fiber.Ctx) (*models.User, error) {
	if user, ok := jwtware.UserFromLocals(c); ok {
		return user, nil
	}
	return nil, auth.NewUnauthorized(auth.MsgCouldNotValidate)
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, badRequest("id must be a positive integer")
	}
	return int64(id), nil
}

func userError(err error) error {
	if errors.Is(err, auth.ErrIdentityNotFound) {
		return notFound("user not found")
	}
	return err
}
