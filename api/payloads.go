package api

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-storefront/auth"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// LoginRequest accepts JSON or form bodies. Username may be an email.
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	Email    string `form:"email" json:"email"`
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	FullName string `form:"full_name" json:"full_name"`
	Phone    string `form:"phone_number" json:"phone_number"`
	Bio      string `form:"bio" json:"bio"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50), validation.Match(usernamePattern)),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 128)),
		validation.Field(&r.FullName, validation.Length(0, 200)),
		validation.Field(&r.Phone, validation.By(validPhone)),
		validation.Field(&r.Bio, validation.Length(0, 2000)),
	)
}

func (r RegistrationCreatePayload) Message() auth.RegisterUserMessage {
	return auth.RegisterUserMessage{
		Email:    r.Email,
		Username: r.Username,
		Password: r.Password,
		FullName: r.FullName,
		Phone:    r.Phone,
		Bio:      r.Bio,
	}
}

// ProfileUpdatePayload holds the editable profile fields. Passwords are
// changed through PasswordChangePayload.
type ProfileUpdatePayload struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone_number"`
	Bio      *string `json:"bio"`
}

func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(3, 254), is.Email),
		validation.Field(&r.Username, validation.NilOrNotEmpty, validation.Length(3, 50), validation.Match(usernamePattern)),
		validation.Field(&r.FullName, validation.Length(0, 200)),
		validation.Field(&r.Phone, validation.By(validPhone)),
		validation.Field(&r.Bio, validation.Length(0, 2000)),
	)
}

func (r ProfileUpdatePayload) Update() auth.ProfileUpdate {
	return auth.ProfileUpdate{
		Email:    r.Email,
		Username: r.Username,
		FullName: r.FullName,
		Phone:    r.Phone,
		Bio:      r.Bio,
	}
}

type PasswordChangePayload struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r PasswordChangePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 128)),
	)
}

type CategoryCreatePayload struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (r CategoryCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Slug, validation.Required, validation.Length(1, 100), validation.Match(slugPattern)),
	)
}

type ProductCreatePayload struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
	Published   bool   `json:"is_published"`
	Featured    bool   `json:"is_featured"`
	CategoryID  *int64 `json:"category_id"`
}

func (r ProductCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Slug, validation.Required, validation.Length(1, 255), validation.Match(slugPattern)),
		validation.Field(&r.PriceCents, validation.Min(0)),
		validation.Field(&r.Currency, validation.Match(currencyPattern)),
		validation.Field(&r.CategoryID, validation.Min(int64(1))),
	)
}

type ProductUpdatePayload struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	Currency    *string `json:"currency"`
	Published   *bool   `json:"is_published"`
	Featured    *bool   `json:"is_featured"`
	CategoryID  *int64  `json:"category_id"`
}

func (r ProductUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Slug, validation.NilOrNotEmpty, validation.Length(1, 255), validation.Match(slugPattern)),
		validation.Field(&r.PriceCents, validation.Min(0)),
		validation.Field(&r.Currency, validation.NilOrNotEmpty, validation.Match(currencyPattern)),
		validation.Field(&r.CategoryID, validation.Min(int64(1))),
	)
}

func validPhone(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case *string:
		if v == nil {
			return nil
		}
		raw = *v
	default:
		return errors.New("must be a string")
	}

	if strings.TrimSpace(raw) == "" {
		return nil
	}

	if _, err := auth.NormalizePhone(raw); err != nil {
		return errors.New("must be a valid phone number")
	}
	return nil
}
