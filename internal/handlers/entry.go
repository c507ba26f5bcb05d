package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/safefloor/safefloor-backend/internal/logger"
	"github.com/safefloor/safefloor-backend/internal/repos"
	"github.com/safefloor/safefloor-backend/internal/services"
)

// uploads larger than this are rejected before they hit the detector
const maxEntryImageBytes = 10 << 20

type EntryHandler struct {
	log          *logger.Logger
	entryService services.EntryService
}

func NewEntryHandler(log *logger.Logger, entryService services.EntryService) *EntryHandler {
	return &EntryHandler{
		log:          log.With("handler", "EntryHandler"),
		entryService: entryService,
	}
}

// POST /api/entries
// Records a room entry from an explicit equipment observation. The approval
// decision comes back inline.
func (eh *EntryHandler) Create(c *gin.Context) {
	var req services.CreateEntryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	entry, err := eh.entryService.Create(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, entry)
}

// POST /api/entries/upload-image
// Multipart form: user_id, room_name, image. Equipment presence is detected
// from the photo.
func (eh *EntryHandler) CreateFromImage(c *gin.Context) {
	userID, err := strconv.ParseInt(c.PostForm("user_id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid user_id"))
		return
	}
	roomName := c.PostForm("room_name")

	fileHeader, err := c.FormFile("image")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("image file is required"))
		return
	}
	if fileHeader.Size > maxEntryImageBytes {
		RespondError(c, http.StatusRequestEntityTooLarge, "image_too_large", fmt.Errorf("image exceeds %d bytes", maxEntryImageBytes))
		return
	}
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

	entry, err := eh.entryService.CreateFromImage(c.Request.Context(), services.ImageEntryInput{
		UserID:   userID,
		RoomName: roomName,
		Image:    raw,
		Filename: fileHeader.Filename,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, entry)
}

// GET /api/entries?user_id=&room_name=&limit=
func (eh *EntryHandler) List(c *gin.Context) {
	var filter repos.EntryFilter
	if v := c.Query("user_id"); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid user_id"))
			return
		}
		filter.UserID = &userID
	}
	filter.RoomName = c.Query("room_name")
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid limit"))
			return
		}
		filter.Limit = limit
	}

	entries, err := eh.entryService.List(c.Request.Context(), filter)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, entries)
}

// GET /api/entries/:id
func (eh *EntryHandler) Get(c *gin.Context) {
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}
	entry, err := eh.entryService.GetByID(c.Request.Context(), entryID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, entry)
}

// DELETE /api/entries/:id
func (eh *EntryHandler) Delete(c *gin.Context) {
	entryID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := eh.entryService.Delete(c.Request.Context(), entryID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
