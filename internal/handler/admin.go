package handler

import (
	"log/slog"
	"net/http"

	"task_service/internal/models"

	"github.com/gin-gonic/gin"
)

type roleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// GET /api/v1/admin/users
func (h *Handler) GetAllUsers(c *gin.Context) {
	const op = "handler.GetAllUsers"

	log := h.log.With(slog.String("op", op))

	actor, ok := mustUser(c)
	if !ok {
		return
	}

	users, err := h.serviceLayer.ListUsers(c.Request.Context(), actor)
	if err != nil {
		failWith(c, log, err)

		return
	}

	c.JSON(http.StatusOK, users)
}

// PUT /api/v1/admin/users/:id/role
func (h *Handler) ChangeRole(c *gin.Context) {
	const op = "handler.ChangeRole"

	log := h.log.With(slog.String("op", op))

	actor, ok := mustUser(c)
	if !ok {
		return
	}

	targetID, ok := pathID(c, "user")
	if !ok {
		return
	}

	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug("failed to bind JSON in change role", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "role is required")

		return
	}

	user, err := h.serviceLayer.ChangeRole(c.Request.Context(), actor, targetID, req.Role)
	if err != nil {
		failWith(c, log, err)

		return
	}

	c.JSON(http.StatusOK, user)
}

// DELETE /api/v1/admin/users/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	const op = "handler.DeleteUser"

	log := h.log.With(slog.String("op", op))

	actor, ok := mustUser(c)
	if !ok {
		return
	}

	targetID, ok := pathID(c, "user")
	if !ok {
		return
	}

	if err := h.serviceLayer.DeleteUser(c.Request.Context(), actor, targetID); err != nil {
		failWith(c, log, err)

		return
	}

	c.Status(http.StatusNoContent)
}
