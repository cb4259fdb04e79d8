package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/psmarket/product_api/internal/hash"
	"github.com/psmarket/product_api/internal/logging"
	"github.com/psmarket/product_api/internal/models"
	"github.com/psmarket/product_api/internal/mykafka"
	"github.com/psmarket/product_api/internal/repo"
	"github.com/psmarket/product_api/internal/service/token"
)

// UserStore is the user collection surface the auth handlers use.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuthHandler struct {
	Store    UserStore
	Tokens   *token.Service
	Producer *mykafka.Producer
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// Register creates an account. The password is hashed before it ever
// reaches the store. Duplicate emails are not rejected here; login picks
// whichever document findOne returns first.
func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Name == "" && req.Email == "" && req.Password == "" {
		l.Warn("register_error", "status", 400, "reason", "empty body")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "User details can't be empty"})
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash password", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}

	created, err := h.Store.Create(ctx, &user)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	h.publish(c, created.ID.Hex(), map[string]any{
		"type":   "user_registered",
		"userID": created.ID.Hex(),
		"email":  created.Email,
	})

	l.Info("register_success")
	return c.JSON(http.StatusCreated, created)
}

// Login verifies credentials and answers with a bearer token carrying the
// email as the "user" claim. A wrong password keeps its historical 500
// response.
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Email == "" && req.Password == "" {
		l.Warn("login_error", "status", 400, "reason", "empty body")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Login details can't be empty"})
	}

	user, err := h.Store.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_error", "status", 404, "reason", "user not found")
			return c.JSON(http.StatusNotFound, echo.Map{"message": "User not found"})
		}
		l.Error("login_error", "status", 500, "reason", "cannot look up user", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_error", "status", 500, "reason", "invalid password")
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "invalid password"})
	}

	tok, err := h.Tokens.Issue(req.Email)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot sign token", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	h.publish(c, user.ID.Hex(), map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID.Hex(),
		"email":  user.Email,
	})

	l.Info("login_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful", "token": tok})
}
