package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// EquipmentMap is the per-entry observation from the vision detector:
// equipment item name -> present. Items the detector never mentioned are
// treated as absent; Present encodes that default in one place.
type EquipmentMap map[string]bool

func (em EquipmentMap) Present(item string) bool {
	return em[item]
}

func (em EquipmentMap) Value() (driver.Value, error) {
	if em == nil {
		em = EquipmentMap{}
	}
	b, err := json.Marshal(em)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (em *EquipmentMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*em = EquipmentMap{}
		return nil
	case []byte:
		return json.Unmarshal(v, em)
	case string:
		return json.Unmarshal([]byte(v), em)
	default:
		return fmt.Errorf("cannot scan %T into EquipmentMap", src)
	}
}
