package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safefloor/safefloor-backend/internal/logger"
	"github.com/safefloor/safefloor-backend/internal/services"
	"github.com/safefloor/safefloor-backend/internal/types"
)

type PolicyHandler struct {
	log           *logger.Logger
	policyService services.PolicyService
	entryService  services.EntryService
}

func NewPolicyHandler(log *logger.Logger, policyService services.PolicyService, entryService services.EntryService) *PolicyHandler {
	return &PolicyHandler{
		log:           log.With("handler", "PolicyHandler"),
		policyService: policyService,
		entryService:  entryService,
	}
}

// POST /api/room-configurations
func (ph *PolicyHandler) Create(c *gin.Context) {
	var req services.PolicyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	policy, err := ph.policyService.Upsert(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondCreated(c, policy)
}

// GET /api/room-configurations?include_inactive=true
func (ph *PolicyHandler) List(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	policies, err := ph.policyService.List(c.Request.Context(), includeInactive)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, policies)
}

// GET /api/room-configurations/:room
func (ph *PolicyHandler) Get(c *gin.Context) {
	policy, err := ph.policyService.GetByRoom(c.Request.Context(), c.Param("room"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, policy)
}

// PUT /api/room-configurations/:room
// Full replace; the room name in the path wins over any in the body.
func (ph *PolicyHandler) Replace(c *gin.Context) {
	var req services.PolicyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	req.RoomName = c.Param("room")
	policy, err := ph.policyService.Upsert(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, policy)
}

// DELETE /api/room-configurations/:room
// Deactivates instead of deleting so historical entries keep their room.
func (ph *PolicyHandler) Deactivate(c *gin.Context) {
	if err := ph.policyService.Deactivate(c.Request.Context(), c.Param("room")); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type testObservationRequest struct {
	Equipment types.EquipmentMap `json:"equipment"`
}

// POST /api/room-configurations/:room/test
// Dry-run: scores a sample observation without recording anything.
func (ph *PolicyHandler) TestObservation(c *gin.Context) {
	var req testObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	result, policy, err := ph.policyService.TestObservation(c.Request.Context(), c.Param("room"), req.Equipment)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"room_name": policy.RoomName,
		"result":    result,
	})
}

// POST /api/room-configurations/:room/recalculate-entries
func (ph *PolicyHandler) RecalculateEntries(c *gin.Context) {
	report, err := ph.entryService.RecalculateForRoom(c.Request.Context(), c.Param("room"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, report)
}

// GET /api/room-configurations/analytics/summary
func (ph *PolicyHandler) AnalyticsSummary(c *gin.Context) {
	summary, err := ph.entryService.Analytics(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, summary)
}
