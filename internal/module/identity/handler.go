package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/model"
	"github.com/worldboard/server/internal/shared/response"
	"github.com/worldboard/server/internal/utils/middleware"
)

// UpdateProfileRequest sets the caller's display profile.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required,min=1,max=64"`
	AvatarURL   string `json:"avatar_url" binding:"omitempty,url,max=512"`
}

// Handler serves profile reads and, in directory mode, profile writes.
type Handler struct {
	provider  Provider
	directory *Directory
	cache     *Cached
	logger    *zap.Logger
}

// NewHandler creates a new profile handler. directory and cache may be nil.
func NewHandler(provider Provider, directory *Directory, cache *Cached, logger *zap.Logger) *Handler {
	return &Handler{
		provider:  provider,
		directory: directory,
		cache:     cache,
		logger:    logger,
	}
}

// RegisterRoutes registers profile routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profiles/:user_id", h.GetProfile)
	if h.directory != nil {
		r.PUT("/profile", h.UpdateProfile)
	}
}

// GetProfile returns a user's display profile.
//
//	@Summary		Get profile
//	@Tags			Profiles
//	@Produce		json
//	@Security		BearerAuth
//	@Param			user_id	path		string	true	"User ID"
//	@Success		200		{object}	model.Profile
//	@Failure		404		{object}	map[string]string
//	@Router			/profiles/{user_id} [get]
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.provider.GetProfile(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile registers the caller's profile under the username in their token.
//
//	@Summary		Update my profile
//	@Tags			Profiles
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		UpdateProfileRequest	true	"Profile"
//	@Success		200		{object}	model.Profile
//	@Failure		400		{object}	map[string]string
//	@Router			/profile [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	username := c.GetString(middleware.UsernameKey)
	if username == "" {
		response.BadRequest(c, "token carries no username")
		return
	}

	profile := &model.Profile{
		UserID:      middleware.GetUserID(c),
		Username:    username,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	}
	ctx := c.Request.Context()
	if err := h.directory.Upsert(ctx, profile); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, profile.UserID, profile.Username); err != nil {
			h.logger.Warn("identity cache invalidate failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, profile)
}
