package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/safefloor/safefloor-backend/internal/logger"
	"github.com/safefloor/safefloor-backend/internal/repos"
	"github.com/safefloor/safefloor-backend/internal/services"
)

type RoomHandler struct {
	log           *logger.Logger
	policyService services.PolicyService
	entryService  services.EntryService
}

func NewRoomHandler(log *logger.Logger, policyService services.PolicyService, entryService services.EntryService) *RoomHandler {
	return &RoomHandler{
		log:           log.With("handler", "RoomHandler"),
		policyService: policyService,
		entryService:  entryService,
	}
}

type roomSummary struct {
	RoomName          string   `json:"room_name"`
	EntryThreshold    float64  `json:"entry_threshold"`
	RequiredEquipment []string `json:"required_equipment"`
	Description       string   `json:"description,omitempty"`
}

// GET /api/rooms
// The door-station view: active rooms and what each one checks for.
func (rh *RoomHandler) List(c *gin.Context) {
	policies, err := rh.policyService.List(c.Request.Context(), false)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	rooms := make([]roomSummary, 0, len(policies))
	for _, policy := range policies {
		equipment := make([]string, 0, policy.EquipmentWeights.Len())
		for _, e := range policy.EquipmentWeights.Entries() {
			equipment = append(equipment, e.Item)
		}
		rooms = append(rooms, roomSummary{
			RoomName:          policy.RoomName,
			EntryThreshold:    policy.EntryThreshold,
			RequiredEquipment: equipment,
			Description:       policy.Description,
		})
	}
	RespondOK(c, rooms)
}

// GET /api/rooms/:room/config
func (rh *RoomHandler) GetConfig(c *gin.Context) {
	policy, err := rh.policyService.GetByRoom(c.Request.Context(), c.Param("room"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, policy)
}

// GET /api/rooms/:room/entries
func (rh *RoomHandler) ListEntries(c *gin.Context) {
	// resolve the policy first so unknown rooms 404 instead of listing nothing
	policy, err := rh.policyService.GetByRoom(c.Request.Context(), c.Param("room"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	entries, err := rh.entryService.List(c.Request.Context(), repos.EntryFilter{RoomName: policy.RoomName})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, entries)
}
