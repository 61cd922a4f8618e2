package task

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/shared/response"
	"github.com/worldboard/server/internal/utils/middleware"
)

// Handler handles HTTP requests for task lists.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new task handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers task routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	worlds := r.Group("/worlds/:id/tasks")
	{
		worlds.GET("", h.ListTasks)
		worlds.POST("", h.CreateTask)
		worlds.PUT("/positions", h.Reorder)
	}

	tasks := r.Group("/tasks")
	{
		tasks.POST("/:id/toggle", h.ToggleCompletion)
		tasks.PUT("/:id/note", h.SetNote)
		tasks.DELETE("/:id", h.DeleteTask)
	}
}

// ListTasks handles listing a world's tasks.
//
//	@Summary		List tasks
//	@Tags			Tasks
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id			path		string	true	"World ID"
//	@Param			order_by	query		string	false	"position or created_at"	default(position)
//	@Success		200			{object}	model.TaskList
//	@Failure		403			{object}	map[string]string
//	@Failure		404			{object}	map[string]string
//	@Router			/worlds/{id}/tasks [get]
func (h *Handler) ListTasks(c *gin.Context) {
	worldID, ok := h.parseID(c)
	if !ok {
		return
	}

	orderBy, err := ParseOrderBy(c.Query("order_by"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}

	list, err := h.service.ListTasks(c.Request.Context(), middleware.GetUserID(c), worldID, orderBy)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateTask handles adding a task.
//
//	@Summary		Create task
//	@Tags			Tasks
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string				true	"World ID"
//	@Param			request	body		CreateTaskRequest	true	"Task"
//	@Success		201		{object}	model.Task
//	@Failure		403		{object}	map[string]string
//	@Failure		422		{object}	map[string]string
//	@Router			/worlds/{id}/tasks [post]
func (h *Handler) CreateTask(c *gin.Context) {
	worldID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), middleware.GetUserID(c), worldID, &req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// Reorder handles a full reorder batch.
//
//	@Summary		Reorder tasks
//	@Description	Assign positions 0..n-1 to every task in the world in one batch
//	@Tags			Tasks
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string			true	"World ID"
//	@Param			request	body		ReorderRequest	true	"Positions"
//	@Success		200		{object}	ReorderResponse
//	@Failure		403		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Failure		422		{object}	map[string]string
//	@Router			/worlds/{id}/tasks/positions [put]
func (h *Handler) Reorder(c *gin.Context) {
	worldID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	version, err := h.service.Reorder(c.Request.Context(), middleware.GetUserID(c), worldID, req.Positions)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ReorderResponse{Version: version})
}

// ToggleCompletion handles flipping a task's completion flag.
//
//	@Summary		Toggle task
//	@Tags			Tasks
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Task ID"
//	@Success		200	{object}	model.Task
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/tasks/{id}/toggle [post]
func (h *Handler) ToggleCompletion(c *gin.Context) {
	taskID, ok := h.parseID(c)
	if !ok {
		return
	}

	task, err := h.service.ToggleCompletion(c.Request.Context(), middleware.GetUserID(c), taskID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// SetNote handles replacing a task's note.
//
//	@Summary		Set task note
//	@Tags			Tasks
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string			true	"Task ID"
//	@Param			request	body		SetNoteRequest	true	"Note"
//	@Success		200		{object}	model.Task
//	@Failure		403		{object}	map[string]string
//	@Failure		422		{object}	map[string]string
//	@Router			/tasks/{id}/note [put]
func (h *Handler) SetNote(c *gin.Context) {
	taskID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req SetNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task, err := h.service.SetNote(c.Request.Context(), middleware.GetUserID(c), taskID, req.Note)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles deleting a task.
//
//	@Summary		Delete task
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Task ID"
//	@Success		204
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/tasks/{id} [delete]
func (h *Handler) DeleteTask(c *gin.Context) {
	taskID, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(c.Request.Context(), middleware.GetUserID(c), taskID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
