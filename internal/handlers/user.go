package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/safefloor/safefloor-backend/internal/logger"
	pkgerrors "github.com/safefloor/safefloor-backend/internal/pkg/errors"
	"github.com/safefloor/safefloor-backend/internal/repos"
	"github.com/safefloor/safefloor-backend/internal/services"
)

type UserHandler struct {
	log          *logger.Logger
	userService  services.UserService
	entryService services.EntryService
	badgeService services.BadgeService
}

func NewUserHandler(log *logger.Logger, userService services.UserService, entryService services.EntryService, badgeService services.BadgeService) *UserHandler {
	return &UserHandler{
		log:          log.With("handler", "UserHandler"),
		userService:  userService,
		entryService: entryService,
		badgeService: badgeService,
	}
}

type createUserRequest struct {
	Name string `json:"name"`
}

// POST /api/users
func (uh *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	user, err := uh.userService.Create(c.Request.Context(), req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, user)
}

// GET /api/users
func (uh *UserHandler) List(c *gin.Context) {
	users, err := uh.userService.List(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, users)
}

// GET /api/users/:id
func (uh *UserHandler) Get(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := uh.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}

// PUT /api/users/:id
func (uh *UserHandler) Rename(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	user, err := uh.userService.Rename(c.Request.Context(), userID, req.Name)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}

// DELETE /api/users/:id
func (uh *UserHandler) Delete(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := uh.userService.Delete(c.Request.Context(), userID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/users/:id/entries
func (uh *UserHandler) ListEntries(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := uh.userService.GetByID(c.Request.Context(), userID); err != nil {
		RespondServiceError(c, err)
		return
	}
	entries, err := uh.entryService.List(c.Request.Context(), repos.EntryFilter{UserID: &userID})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, entries)
}

// GET /api/users/:id/badge
// Renders the badge card as PNG. Works without the bucket; nothing is stored
// on this path.
func (uh *UserHandler) GetBadge(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if uh.badgeService == nil {
		RespondError(c, http.StatusServiceUnavailable, "badge_unavailable", fmt.Errorf("badge rendering is not configured"))
		return
	}
	user, err := uh.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	buf, err := uh.badgeService.RenderBadge(user)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// POST /api/users/:id/badge
// Regenerates the badge. An optional multipart "photo" file puts an uploaded
// photo on the card instead of generated initials.
func (uh *UserHandler) RegenerateBadge(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if uh.badgeService == nil {
		RespondError(c, http.StatusServiceUnavailable, "badge_unavailable", fmt.Errorf("badge rendering is not configured"))
		return
	}
	user, err := uh.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	if fileHeader, fErr := c.FormFile("photo"); fErr == nil {
		f, err := fileHeader.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		defer f.Close()
		raw, err := io.ReadAll(f)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		err = uh.badgeService.CreateAndUploadBadgeFromPhoto(c.Request.Context(), user, raw)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
	} else if err := uh.badgeService.CreateAndUploadBadge(c.Request.Context(), user); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"badge_url": user.BadgeURL})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid %s", pkgerrors.ErrValidation, name))
		return 0, false
	}
	return id, true
}
