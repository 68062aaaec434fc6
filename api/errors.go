package api

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-storefront/auth"
)

const (
	TextCodeValidation     = "VALIDATION"
	TextCodeNotFound       = "NOT_FOUND"
	TextCodeNotImplemented = "NOT_IMPLEMENTED"
	TextCodeInternal       = "INTERNAL"
)

// ErrorResponse is the body written for every failed request
type ErrorResponse struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ErrorHandler renders err as an ErrorResponse. Unauthorized errors
// carry the bearer challenge header.
func ErrorHandler(logger auth.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := toErrorResponse(err)

		if challenge, ok := auth.Challenge(err); ok {
			c.Set(fiber.HeaderWWWAuthenticate, challenge)
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		} else {
			logger.Debug("request rejected", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
		}

		return c.Status(status).JSON(body)
	}
}

func toErrorResponse(err error) (int, ErrorResponse) {
	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		return http.StatusUnprocessableEntity, ErrorResponse{
			Detail: "validation failed",
			Code:   TextCodeValidation,
			Errors: FormatValidationErrorToMap(validationErrs),
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorResponse{Detail: fiberErr.Message}
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		status := richErr.Code
		if status < 400 || status > 599 {
			status = statusFromCategory(richErr.Category)
		}

		code := richErr.TextCode
		if code == "" && status == http.StatusUnprocessableEntity {
			code = TextCodeValidation
		}

		if status >= http.StatusInternalServerError {
			return status, ErrorResponse{Detail: "internal server error", Code: TextCodeInternal}
		}
		return status, ErrorResponse{Detail: richErr.Message, Code: code}
	}

	return http.StatusInternalServerError, ErrorResponse{Detail: "internal server error", Code: TextCodeInternal}
}

func statusFromCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FormatValidationErrorToMap flattens ozzo errors into field messages
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var validationErrs validation.Errors
	if !errors.As(err, &validationErrs) {
		if err != nil {
			out["error"] = err.Error()
		}
		return out
	}

	for field, fieldErr := range validationErrs {
		if fieldErr != nil {
			out[field] = fieldErr.Error()
		}
	}
	return out
}

func notFound(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryNotFound).
		WithCode(goerrors.CodeNotFound).
		WithTextCode(TextCodeNotFound)
}

func badRequest(message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode("BAD_REQUEST")
}

func conflict(message, textCode string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryConflict).
		WithCode(http.StatusConflict).
		WithTextCode(textCode)
}
