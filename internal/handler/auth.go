package handler

import (
	"log/slog"
	"net/http"

	"task_service/internal/service"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// POST /api/v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	const op = "handler.Register"

	log := h.log.With(slog.String("op", op))

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "name, email and password are required")

		return
	}

	user, err := h.serviceLayer.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		failWith(c, log, err)

		return
	}

	c.JSON(http.StatusCreated, user)
}

// POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	const op = "handler.Login"

	log := h.log.With(slog.String("op", op))

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "email and password are required")

		return
	}

	pair, err := h.serviceLayer.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failWith(c, log, err)

		return
	}

	c.JSON(http.StatusOK, pair)
}

// POST /api/v1/auth/refresh
func (h *Handler) RefreshTokens(c *gin.Context) {
	const op = "handler.RefreshTokens"

	log := h.log.With(slog.String("op", op))

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug("not given refresh token", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "refresh_token is required")

		return
	}

	pair, err := h.serviceLayer.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		failWith(c, log, err)

		return
	}

	c.JSON(http.StatusOK, pair)
}

// POST /api/v1/auth/logout
//
// Tokens are not tracked server side; the client is expected to drop them.
func (h *Handler) Logout(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}

	h.log.Info("user logout", slog.String("user_id", user.ID.String()))

	c.JSON(http.StatusOK, messageResponse{Message: "successfully logged out"})
}

// GET /api/v1/auth/me
func (h *Handler) GetProfile(c *gin.Context) {
	user, ok := mustUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, user)
}
