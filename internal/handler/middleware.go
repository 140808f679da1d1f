package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"task_service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const userKey = "user"

// AuthMiddleware resolves the bearer token to a user and stores it in the
// context under userKey.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "handler.AuthMiddleware"

		log := h.log.With(slog.String("op", op))

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			newErrorResponse(c, http.StatusUnauthorized, "empty authorization header")

			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			newErrorResponse(c, http.StatusUnauthorized, "invalid authorization header")

			return
		}

		user, err := h.serviceLayer.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			failWith(c, log, err)

			return
		}

		c.Set(userKey, user)

		c.Next()
	}
}

// currentUser returns the user stored by AuthMiddleware.
func currentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// mustUser aborts with 401 when the route was mounted without AuthMiddleware.
func mustUser(c *gin.Context) (models.User, bool) {
	user, ok := currentUser(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "invalid token")
	}
	return user, ok
}

func pathID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid "+what+" id")

		return uuid.Nil, false
	}
	return id, true
}

// RequestLogger logs method, path, status and latency of every request.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.String("client_ip", c.ClientIP()),
			slog.String("latency", time.Since(start).String()),
		)
	}
}
