package types

import (
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/safefloor/safefloor-backend/internal/pkg/errors"
)

type RoomPolicy struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomName         string    `gorm:"uniqueIndex;not null;size:100;column:room_name" json:"room_name"`
	EquipmentWeights WeightMap `gorm:"type:jsonb;not null;column:equipment_weights" json:"equipment_weights"`
	EntryThreshold   float64   `gorm:"not null;default:70;column:entry_threshold" json:"entry_threshold"`
	IsActive         bool      `gorm:"not null;default:true;index;column:is_active" json:"is_active"`
	Description      string    `gorm:"size:500;column:description" json:"description,omitempty"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (RoomPolicy) TableName() string {
	return "room_equipment_configurations"
}

// NormalizeRoomName maps user-facing room labels onto the canonical key form:
// lowercase, trimmed, spaces and underscores collapsed to hyphens.
// "Production Floor" and "production-floor" address the same policy.
func NormalizeRoomName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", " ")
	n = strings.Join(strings.Fields(n), "-")
	return n
}

// Validate enforces the upsert-time invariants: non-empty room name, threshold
// within [0,100], and no negative numeric weights.
func (rp *RoomPolicy) Validate() error {
	if NormalizeRoomName(rp.RoomName) == "" {
		return fmt.Errorf("%w: room_name is empty", pkgerrors.ErrValidation)
	}
	if rp.EntryThreshold < 0 || rp.EntryThreshold > 100 {
		return fmt.Errorf("%w: entry_threshold %.1f outside [0,100]", pkgerrors.ErrValidation, rp.EntryThreshold)
	}
	for _, e := range rp.EquipmentWeights.Entries() {
		if strings.TrimSpace(e.Item) == "" {
			return fmt.Errorf("%w: equipment item name is empty", pkgerrors.ErrValidation)
		}
		if !e.Spec.Required && e.Spec.Value < 0 {
			return fmt.Errorf("%w: weight for %q is negative", pkgerrors.ErrValidation, e.Item)
		}
	}
	return nil
}
