package handler

import (
	"log/slog"
	"net/http"

	"task_service/internal/models"

	"github.com/gin-gonic/gin"
)

// POST /api/v1/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	const op = "handler.CreateTask"

	log := h.log.With(slog.String("op", op))

	actor, ok := mustUser(c)
	if !ok {
		return
	}

	var req models.NewTask
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	task, err := h.serviceLayer.CreateTask(c.Request.Context(), actor, req)
	if err != nil {
		failWith(c, log, err)

		return
	}

	c.JSON(http.StatusCreated, task)
}

// GET /api/v1/tasks?status=&priority=&search=
func (h *Handler) ListTasks(c *gin.Context) {
	const op = "handler.ListTasks"

	log := h.log.With(slog.String("op", op))

	actor, ok := mustUser(c)
	if !ok {
		return
	}

	filter := models.TaskFilter{
		Status:   models.Status(c.Query("status")),
		Priority: models.Priority(c.Query("priority")),
		Search:   c.Query("search"),
	}

	tasks, err := h.serviceLayer.ListTasks(c.Request.Context(), actor, filter)
	if err != nil {
		failWith(c, log, err)

		return
	}

	c.JSON(http.StatusOK, tasks)
}

// GET /api/v1/tasks/statistics
func (h *Handler) TaskStatistics(c *gin.Context) {
	const op = "handler.TaskStatistics"

	log := h.log.With(slog.String("op", op))

	actor, ok := mustUser(c)
	if !ok {
		return
	}

	stats, err := h.serviceLayer.TaskStatistics(c.Request.Context(), actor)
	if err != nil {
		failWith(c, log, err)

		return
	}

	c.JSON(http.StatusOK, stats)
}

// GET /api/v1/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	const op = "handler.GetTask"

	log := h.log.With(slog.String("op", op))

	actor, ok := mustUser(c)
	if !ok {
		return
	}

	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	task, err := h.serviceLayer.GetTask(c.Request.Context(), actor, taskID)
	if err != nil {
		failWith(c, log, err)

		return
	}

	c.JSON(http.StatusOK, task)
}

// PUT /api/v1/tasks/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	const op = "handler.UpdateTask"

	log := h.log.With(slog.String("op", op))

	actor, ok := mustUser(c)
	if !ok {
		return
	}

	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	var upd models.TaskUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		log.Debug("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	task, err := h.serviceLayer.UpdateTask(c.Request.Context(), actor, taskID, upd)
	if err != nil {
		failWith(c, log, err)

		return
	}

	c.JSON(http.StatusOK, task)
}

// DELETE /api/v1/tasks/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	const op = "handler.DeleteTask"

	log := h.log.With(slog.String("op", op))

	actor, ok := mustUser(c)
	if !ok {
		return
	}

	taskID, ok := pathID(c, "task")
	if !ok {
		return
	}

	if err := h.serviceLayer.DeleteTask(c.Request.Context(), actor, taskID); err != nil {
		failWith(c, log, err)

		return
	}

	c.Status(http.StatusNoContent)
}
