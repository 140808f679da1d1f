package handler

import (
	"log/slog"
	"net/http"

	"task_service/internal/apperr"
	"task_service/internal/service"

	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v1"

type Handler struct {
	serviceLayer service.Service
	log          *slog.Logger
}

type errorResponse struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Message: errMessage})
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindUnauthenticated: http.StatusUnauthorized,
	apperr.KindForbidden:       http.StatusForbidden,
	apperr.KindNotFound:        http.StatusNotFound,
	apperr.KindBadRequest:      http.StatusBadRequest,
}

// failWith maps err to a status code. Internal errors are logged and hidden
// from the client.
func failWith(c *gin.Context, log *slog.Logger, err error) {
	status, ok := kindStatus[apperr.KindOf(err)]
	if !ok {
		log.Error("request failed", slog.Any("error", err))

		newErrorResponse(c, http.StatusInternalServerError, "internal error")

		return
	}

	log.Debug("request rejected", slog.Int("status", status), slog.String("reason", apperr.Message(err)))

	newErrorResponse(c, status, apperr.Message(err))
}

func NewHandler(srvc service.Service, lgr *slog.Logger) *Handler {
	return &Handler{
		serviceLayer: srvc,
		log:          lgr,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.log))

	router.GET("/health", h.Health)

	api := router.Group(apiPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshTokens)

		secured := auth.Group("", h.AuthMiddleware())
		secured.POST("/logout", h.Logout)
		secured.GET("/me", h.GetProfile)
	}

	tasks := api.Group("/tasks", h.AuthMiddleware())
	{
		tasks.POST("", h.CreateTask)
		tasks.GET("", h.ListTasks)
		tasks.GET("/statistics", h.TaskStatistics)
		tasks.GET("/:id", h.GetTask)
		tasks.PUT("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)
	}

	admin := api.Group("/admin", h.AuthMiddleware())
	{
		admin.GET("/users", h.GetAllUsers)
		admin.PUT("/users/:id/role", h.ChangeRole)
		admin.DELETE("/users/:id", h.DeleteUser)
	}

	return router
}

// GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
