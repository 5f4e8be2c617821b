package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/super-skeleton/auth-service/internal/logging"
	"github.com/super-skeleton/auth-service/internal/service"
)

// Fixed bodies for the endpoints that must not reveal whether an account
// exists. Known and unknown emails get byte-identical responses.
const (
	resetRequestedBody      = "If an account with that email exists, a password reset link has been sent."
	verificationResentBody  = "If an account with that email exists and is unverified, a verification email has been sent."
	passwordResetDoneBody   = "Password has been reset successfully."
	emailVerifiedBody       = "Email verified successfully."
	emailVerifyFailedBody   = "Invalid or expired verification token."
	invalidCredentialsBody  = "Invalid credentials."
	accountLockedBody       = "Account is locked due to too many failed login attempts."
	emailNotVerifiedBody    = "Email address has not been verified."
	emailAlreadyExistsBody  = "An account with that email already exists."
	invalidRefreshTokenBody = "Invalid refresh token."
	expiredRefreshTokenBody = "Refresh token has expired."
)

type AuthHTTP struct {
	Svc *service.AuthService
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHTTP) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}

	var errs []fieldError
	errs = append(errs, validateEmail(req.Email)...)
	errs = append(errs, validatePassword("password", req.Password)...)
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	user, err := h.Svc.Register(c.Request().Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			return c.JSON(http.StatusConflict, echo.Map{"message": emailAlreadyExistsBody})
		}
		return h.internalError(c, "register_failed", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Registration successful. Please check your email to verify your account.",
		"user": service.PublicUser{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		},
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" || req.Password == "" {
		return validationFailed(c, []fieldError{{Field: "identifier", Message: "identifier and password are required"}})
	}

	result, err := h.Svc.Login(c.Request().Context(), identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": invalidCredentialsBody})
		case errors.Is(err, service.ErrAccountLocked):
			return c.JSON(http.StatusForbidden, echo.Map{"message": accountLockedBody})
		case errors.Is(err, service.ErrEmailNotVerified):
			return c.JSON(http.StatusForbidden, echo.Map{"message": emailNotVerifiedBody})
		default:
			return h.internalError(c, "login_failed", err)
		}
	}

	return c.JSON(http.StatusOK, result)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}

	token := req.RefreshToken
	if token == "" {
		if cookie, err := c.Cookie(refreshTokenCookie); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": invalidRefreshTokenBody})
	}

	pair, err := h.Svc.Refresh(c.Request().Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": invalidRefreshTokenBody})
		case errors.Is(err, service.ErrExpiredRefreshToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": expiredRefreshTokenBody})
		case errors.Is(err, service.ErrUserNotFoundForToken):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "Account no longer exists."})
		default:
			return h.internalError(c, "refresh_failed", err)
		}
	}

	return c.JSON(http.StatusOK, pair)
}

// Logout answers 204 no matter what: unknown tokens, repeat calls and even
// storage failures all look the same to the client.
func (h *AuthHTTP) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}

	token := req.RefreshToken
	if token == "" {
		if cookie, err := c.Cookie(refreshTokenCookie); err == nil {
			token = cookie.Value
		}
	}

	// Best effort: the client is logging out either way.
	if token != "" {
		if err := h.Svc.Logout(c.Request().Context(), token); err != nil {
			logging.FromContext(c.Request().Context()).Error("logout_failed", "error", err)
		}
	}

	c.SetCookie(deleteCookie(accessTokenCookie, "/", h.secureCookies(c)))
	c.SetCookie(deleteCookie(refreshTokenCookie, refreshCookiePath, h.secureCookies(c)))

	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) VerifyEmail(c echo.Context) error {
	ok, err := h.Svc.VerifyEmail(c.Request().Context(), c.Param("token"))
	if err != nil {
		return h.internalError(c, "verify_email_failed", err)
	}
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": emailVerifyFailedBody})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": emailVerifiedBody})
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if errs := validateEmail(req.Email); errs != nil {
		return validationFailed(c, errs)
	}

	if err := h.Svc.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return h.internalError(c, "reset_request_failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": resetRequestedBody})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}

	var errs []fieldError
	if req.Token == "" {
		errs = append(errs, fieldError{Field: "token", Message: "token is required"})
	}
	errs = append(errs, validatePassword("new_password", req.NewPassword)...)
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	if err := h.Svc.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrExpiredToken):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid or expired reset token."})
		case errors.Is(err, service.ErrPasswordResetFailed):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Password reset failed."})
		default:
			return h.internalError(c, "reset_failed", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": passwordResetDoneBody})
}

func (h *AuthHTTP) ResendVerificationEmail(c echo.Context) error {
	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}
	if errs := validateEmail(req.Email); errs != nil {
		return validationFailed(c, errs)
	}

	if err := h.Svc.ResendVerificationEmail(c.Request().Context(), req.Email); err != nil {
		return h.internalError(c, "resend_verification_failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": verificationResentBody})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	userID, _ := c.Get(userIDContextKey).(string)

	user, err := h.Svc.GetCurrentUser(c.Request().Context(), userID)
	if err != nil {
		return h.internalError(c, "me_failed", err)
	}
	if user == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Account no longer exists."})
	}

	return c.JSON(http.StatusOK, user)
}

func (h *AuthHTTP) internalError(c echo.Context, event string, err error) error {
	logging.FromContext(c.Request().Context()).Error(event, "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal server error"})
}

func (h *AuthHTTP) secureCookies(c echo.Context) bool {
	return c.Scheme() == "https"
}
