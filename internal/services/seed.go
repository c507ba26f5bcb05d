package services

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/safefloor/safefloor-backend/internal/logger"
	"github.com/safefloor/safefloor-backend/internal/types"
)

// seedFile is the on-disk override for the built-in seed table. Weights are a
// list so the file order becomes the policy's equipment order.
//
//	policies:
//	  - room_name: production-floor
//	    entry_threshold: 80
//	    equipment_weights:
//	      - item: mask
//	        weight: 35
//	      - item: gloves
//	        weight: required
type seedFile struct {
	Policies []seedPolicy `yaml:"policies"`
}

type seedPolicy struct {
	RoomName         string       `yaml:"room_name"`
	EntryThreshold   float64      `yaml:"entry_threshold"`
	IsActive         *bool        `yaml:"is_active"`
	Description      string       `yaml:"description"`
	EquipmentWeights []seedWeight `yaml:"equipment_weights"`
}

type seedWeight struct {
	Item string
	Spec types.WeightSpec
}

func (sw *seedWeight) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Item   string    `yaml:"item"`
		Weight yaml.Node `yaml:"weight"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	sw.Item = raw.Item

	var num float64
	if err := raw.Weight.Decode(&num); err == nil {
		sw.Spec = types.Numeric(num)
		return nil
	}
	var s string
	if err := raw.Weight.Decode(&s); err == nil {
		if strings.TrimSpace(strings.ToLower(s)) == "required" {
			sw.Spec = types.Required()
			return nil
		}
		return fmt.Errorf("item %q: weight must be a number or \"required\", got %q", raw.Item, s)
	}
	return fmt.Errorf("item %q: undecodable weight", raw.Item)
}

// LoadSeedPolicies reads the seed override file named by SEED_POLICIES_PATH.
// Returns nil when the variable is unset; the built-in table applies then.
func LoadSeedPolicies(log *logger.Logger) ([]PolicyInput, error) {
	path := strings.TrimSpace(os.Getenv("SEED_POLICIES_PATH"))
	if path == "" {
		return nil, nil
	}
	log.Info("Loading seed policies", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(file.Policies) == 0 {
		return nil, fmt.Errorf("seed file %q has no policies", path)
	}

	seeds := make([]PolicyInput, 0, len(file.Policies))
	for _, p := range file.Policies {
		weights := types.NewWeightMap()
		for _, w := range p.EquipmentWeights {
			weights.Set(w.Item, w.Spec)
		}
		seeds = append(seeds, PolicyInput{
			RoomName:         p.RoomName,
			EquipmentWeights: weights,
			EntryThreshold:   p.EntryThreshold,
			IsActive:         p.IsActive,
			Description:      p.Description,
		})
	}
	return seeds, nil
}
