package world

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/shared/response"
	"github.com/worldboard/server/internal/utils/middleware"
	"github.com/worldboard/server/internal/utils/pagination"
)

// Handler handles HTTP requests for worlds, memberships and invites.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new world handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers world routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	worlds := r.Group("/worlds")
	{
		worlds.POST("", h.CreateWorld)
		worlds.GET("", h.ListMyWorlds)
		worlds.GET("/:id", h.GetWorld)
		worlds.PATCH("/:id", h.RenameWorld)
		worlds.PUT("/:id/theme", h.SetTheme)
		worlds.DELETE("/:id", h.DeleteWorld)

		// Members
		worlds.GET("/:id/members", h.ListMembers)
		worlds.POST("/:id/invites", h.Invite)
		worlds.POST("/:id/leave", h.Leave)
		worlds.PUT("/:id/card-style", h.SetCardStyle)
	}

	r.DELETE("/memberships/:id", h.Kick)

	invites := r.Group("/invites")
	{
		invites.GET("", h.ListMyInvites)
		invites.POST("/:id/accept", h.AcceptInvite)
		invites.POST("/:id/decline", h.DeclineInvite)
	}
}

// ========== World Handlers ==========

// CreateWorld handles world creation.
//
//	@Summary		Create world
//	@Description	Create a world owned by the caller, optionally inviting a first member
//	@Tags			Worlds
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateWorldRequest	true	"Create world request"
//	@Success		201		{object}	model.World
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		422		{object}	map[string]string
//	@Router			/worlds [post]
func (h *Handler) CreateWorld(c *gin.Context) {
	var req CreateWorldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	world, err := h.service.CreateWorld(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, world)
}

// ListMyWorlds handles listing the caller's worlds.
//
//	@Summary		List my worlds
//	@Tags			Worlds
//	@Produce		json
//	@Security		BearerAuth
//	@Param			page		query		int	false	"Page"		default(1)
//	@Param			page_size	query		int	false	"Page size"	default(20)
//	@Success		200			{object}	WorldListResponse
//	@Router			/worlds [get]
func (h *Handler) ListMyWorlds(c *gin.Context) {
	p, err := pagination.FromQuery(c)
	if err != nil {
		response.BadRequest(c, "page and page_size must be positive; page_size at most 100")
		return
	}

	resp, err := h.service.ListMyWorlds(c.Request.Context(), middleware.GetUserID(c), p)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetWorld handles getting a world.
//
//	@Summary		Get world
//	@Tags			Worlds
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"World ID"
//	@Success		200	{object}	WorldDetail
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/worlds/{id} [get]
func (h *Handler) GetWorld(c *gin.Context) {
	worldID, ok := h.parseID(c)
	if !ok {
		return
	}

	detail, err := h.service.GetWorld(c.Request.Context(), middleware.GetUserID(c), worldID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// RenameWorld handles renaming a world.
//
//	@Summary		Rename world
//	@Tags			Worlds
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string				true	"World ID"
//	@Param			request	body		RenameWorldRequest	true	"New name"
//	@Success		200		{object}	model.World
//	@Failure		403		{object}	map[string]string
//	@Router			/worlds/{id} [patch]
func (h *Handler) RenameWorld(c *gin.Context) {
	worldID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req RenameWorldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	world, err := h.service.RenameWorld(c.Request.Context(), middleware.GetUserID(c), worldID, req.Name)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, world)
}

// SetTheme handles changing a world's theme.
//
//	@Summary		Set world theme
//	@Tags			Worlds
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string			true	"World ID"
//	@Param			request	body		SetThemeRequest	true	"Theme"
//	@Success		200		{object}	model.World
//	@Failure		403		{object}	map[string]string
//	@Failure		422		{object}	map[string]string
//	@Router			/worlds/{id}/theme [put]
func (h *Handler) SetTheme(c *gin.Context) {
	worldID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req SetThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	world, err := h.service.SetTheme(c.Request.Context(), middleware.GetUserID(c), worldID, req.Theme)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, world)
}

// DeleteWorld handles deleting a world.
//
//	@Summary		Delete world
//	@Tags			Worlds
//	@Security		BearerAuth
//	@Param			id	path	string	true	"World ID"
//	@Success		204
//	@Failure		403	{object}	map[string]string
//	@Router			/worlds/{id} [delete]
func (h *Handler) DeleteWorld(c *gin.Context) {
	worldID, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteWorld(c.Request.Context(), middleware.GetUserID(c), worldID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ========== Member Handlers ==========

// ListMembers handles listing a world's members.
//
//	@Summary		List members
//	@Tags			Members
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"World ID"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		403	{object}	map[string]string
//	@Router			/worlds/{id}/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	worldID, ok := h.parseID(c)
	if !ok {
		return
	}

	members, err := h.service.ListMembers(c.Request.Context(), middleware.GetUserID(c), worldID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// Invite handles inviting a user by username.
//
//	@Summary		Invite member
//	@Tags			Members
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string			true	"World ID"
//	@Param			request	body		InviteRequest	true	"Invitee"
//	@Success		201		{object}	model.Membership
//	@Failure		403		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Router			/worlds/{id}/invites [post]
func (h *Handler) Invite(c *gin.Context) {
	worldID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	membership, err := h.service.Invite(c.Request.Context(), middleware.GetUserID(c), worldID, req.Username)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, membership)
}

// Leave handles leaving a world.
//
//	@Summary		Leave world
//	@Tags			Members
//	@Security		BearerAuth
//	@Param			id	path	string	true	"World ID"
//	@Success		204
//	@Failure		409	{object}	map[string]string
//	@Router			/worlds/{id}/leave [post]
func (h *Handler) Leave(c *gin.Context) {
	worldID, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Leave(c.Request.Context(), middleware.GetUserID(c), worldID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetCardStyle handles setting the caller's card style.
//
//	@Summary		Set my card style
//	@Tags			Members
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string				true	"World ID"
//	@Param			request	body		SetCardStyleRequest	true	"Card style"
//	@Success		200		{object}	model.Membership
//	@Failure		422		{object}	map[string]string
//	@Router			/worlds/{id}/card-style [put]
func (h *Handler) SetCardStyle(c *gin.Context) {
	worldID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req SetCardStyleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	membership, err := h.service.SetCardStyle(c.Request.Context(), middleware.GetUserID(c), worldID, req.CardStyle)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

// Kick handles removing a member or cancelling an invite.
//
//	@Summary		Remove member
//	@Tags			Members
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Membership ID"
//	@Success		204
//	@Failure		403	{object}	map[string]string
//	@Failure		409	{object}	map[string]string
//	@Router			/memberships/{id} [delete]
func (h *Handler) Kick(c *gin.Context) {
	membershipID, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Kick(c.Request.Context(), middleware.GetUserID(c), membershipID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ========== Invite Handlers ==========

// ListMyInvites handles listing the caller's pending invites.
//
//	@Summary		List my invites
//	@Tags			Invites
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string]interface{}
//	@Router			/invites [get]
func (h *Handler) ListMyInvites(c *gin.Context) {
	invites, err := h.service.ListMyInvites(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// AcceptInvite handles accepting an invite.
//
//	@Summary		Accept invite
//	@Tags			Invites
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Membership ID"
//	@Success		200	{object}	model.Membership
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Failure		409	{object}	map[string]string
//	@Router			/invites/{id}/accept [post]
func (h *Handler) AcceptInvite(c *gin.Context) {
	membershipID, ok := h.parseID(c)
	if !ok {
		return
	}

	membership, err := h.service.AcceptInvite(c.Request.Context(), middleware.GetUserID(c), membershipID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

// DeclineInvite handles declining an invite.
//
//	@Summary		Decline invite
//	@Tags			Invites
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Membership ID"
//	@Success		204
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Router			/invites/{id}/decline [post]
func (h *Handler) DeclineInvite(c *gin.Context) {
	membershipID, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeclineInvite(c.Request.Context(), middleware.GetUserID(c), membershipID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ========== Helpers ==========

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
