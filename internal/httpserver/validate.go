package httpserver

import (
	"net/http"
	"regexp"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
)

// Input validation runs before the orchestrator; failures are returned as a
// structured list of field-level errors.

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 8

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func validateEmail(email string) []fieldError {
	if email == "" {
		return []fieldError{{Field: "email", Message: "email is required"}}
	}
	if !emailPattern.MatchString(email) {
		return []fieldError{{Field: "email", Message: "email is not valid"}}
	}
	return nil
}

func validatePassword(field, password string) []fieldError {
	if password == "" {
		return []fieldError{{Field: field, Message: field + " is required"}}
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return []fieldError{{Field: field, Message: field + " must be at least 8 characters"}}
	}
	return nil
}

func validationFailed(c echo.Context, errs []fieldError) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"message": "validation failed",
		"errors":  errs,
	})
}
