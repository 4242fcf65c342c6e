package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/WanDrewBerry/mall-map-backend/internal/logging"
	authmw "github.com/WanDrewBerry/mall-map-backend/internal/middleware/auth"
	"github.com/WanDrewBerry/mall-map-backend/internal/mykafka"
	"github.com/WanDrewBerry/mall-map-backend/internal/repo"
	"github.com/WanDrewBerry/mall-map-backend/internal/service"
	"github.com/WanDrewBerry/mall-map-backend/internal/tokens"
)

type AuthHandler struct {
	Svc      *service.AuthService
	Verifier *authmw.Verifier
	Producer *mykafka.Producer
	Secure   bool
}

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) publishUserEvent(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["user_id"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Username, email, and password are required.")
	}

	res, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateIdentity) {
			return echo.NewHTTPError(http.StatusBadRequest, "Email or username is already registered.")
		}
		l.Error("register_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error during registration.")
	}

	c.SetCookie(tokens.RefreshCookie(res.RefreshToken, res.RefreshExp, h.Secure))

	h.publishUserEvent(c, map[string]any{
		"type":     "user_registered",
		"user_id":  res.User.ID,
		"username": res.User.Username,
	})

	l.Info("register_success", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "Registration successful!",
		"accessToken": res.AccessToken,
		"user":        res.User,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required.")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		// unknown email and wrong password are indistinguishable here
		if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrBadCredential) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password.")
		}
		l.Error("login_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error during login.")
	}

	c.SetCookie(tokens.RefreshCookie(res.RefreshToken, res.RefreshExp, h.Secure))

	h.publishUserEvent(c, map[string]any{
		"type":     "user_logged_in",
		"user_id":  res.User.ID,
		"username": res.User.Username,
	})

	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Login successful!",
		"accessToken": res.AccessToken,
		"user":        res.User,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	accessToken := authmw.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))

	var refreshToken string
	if ck, err := c.Cookie(tokens.RefreshCookieName); err == nil {
		refreshToken = ck.Value
	}

	h.Svc.Logout(ctx, accessToken, refreshToken)
	c.SetCookie(tokens.DeleteRefreshCookie(h.Secure))

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Logged out successfully.",
	})
}

// Status is a UI probe, not a guard: it always answers 200 and reports
// whether the presented token still names a live session.
func (h *AuthHandler) Status(c echo.Context) error {
	ctx := c.Request().Context()

	identity, err := h.Verifier.Verify(ctx, c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		switch {
		case errors.Is(err, authmw.ErrMissingToken):
			return c.JSON(http.StatusOK, echo.Map{"status": false, "message": "User is not authenticated."})
		case errors.Is(err, authmw.ErrBlocklistedToken):
			return c.JSON(http.StatusOK, echo.Map{"status": false, "message": "User is logged out."})
		default:
			return c.JSON(http.StatusOK, echo.Map{"status": false, "message": "Invalid or expired token."})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"status": true, "user": identity})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	ck, err := c.Cookie(tokens.RefreshCookieName)
	if err != nil || ck.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Refresh token missing. Please log in again.")
	}

	res, err := h.Svc.Refresh(ctx, ck.Value)
	if err != nil {
		if errors.Is(err, repo.ErrRefreshInvalid) || errors.Is(err, repo.ErrNotFound) {
			c.SetCookie(tokens.DeleteRefreshCookie(h.Secure))
			return echo.NewHTTPError(http.StatusUnauthorized, authmw.UniformAuthMessage)
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error during refresh.")
	}

	c.SetCookie(tokens.RefreshCookie(res.RefreshToken, res.RefreshExp, h.Secure))

	l.Info("refresh_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"status":      true,
		"accessToken": res.AccessToken,
	})
}

// Profile returns the verified identity of the caller.
func (h *AuthHandler) Profile(c echo.Context) error {
	identity := authmw.IdentityFrom(c)
	if identity == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, authmw.UniformAuthMessage)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Profile accessed",
		"user":    identity,
	})
}
