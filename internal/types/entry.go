package types

import (
	"time"

	"gorm.io/datatypes"
)

// Entry is one recorded room entry with the observation the detector produced
// and the compliance snapshot computed at scoring time. Score, IsApproved,
// Reason and MissingEquipment are snapshots, not live derivations: policy edits
// after creation leave them untouched until an explicit recalculation.
type Entry struct {
	ID               int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           *int64                      `gorm:"index;column:user_id" json:"user_id,omitempty"`
	RoomName         string                      `gorm:"not null;index;size:100;column:room_name" json:"room_name"`
	ImageURL         string                      `gorm:"size:500;column:image_url" json:"image_url,omitempty"`
	Equipment        EquipmentMap                `gorm:"type:jsonb;not null;column:equipment" json:"equipment"`
	EnteredAt        time.Time                   `gorm:"not null;index;column:entered_at" json:"entered_at"`
	CreatedAt        time.Time                   `gorm:"not null" json:"created_at"`
	Score            float64                     `gorm:"column:equipment_score" json:"score"`
	IsApproved       *bool                       `gorm:"index;column:is_approved" json:"is_approved"`
	Reason           string                      `gorm:"size:500;column:approval_reason" json:"reason"`
	MissingEquipment datatypes.JSONSlice[string] `gorm:"column:missing_equipment" json:"missing_equipment"`
}

func (Entry) TableName() string {
	return "personal_entries"
}
