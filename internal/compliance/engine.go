// Package compliance scores an observed equipment map against a room policy.
// It is a pure computation: no storage, no clock, no side effects. The same
// (policy, observation) pair always produces the same Result.
package compliance

import (
	"fmt"
	"math"
	"strings"

	pkgerrors "github.com/safefloor/safefloor-backend/internal/pkg/errors"
	"github.com/safefloor/safefloor-backend/internal/types"
)

const (
	ReasonApproved    = "All required items present"
	reasonGateFormat  = "Missing required items: %s"
	reasonScoreFormat = "Equipment score %.1f below threshold %.1f"
)

type Result struct {
	Score            float64  `json:"score"`
	Approved         bool     `json:"is_approved"`
	MissingEquipment []string `json:"missing_equipment"`
	Reason           string   `json:"reason"`
}

// Score evaluates one observation against one policy.
//
// Numeric weights form a weighted average on a 0-100 scale; "required" items
// are gates only: they never enter the average, but any absent one denies the
// entry regardless of score. With no numeric weights at all, the score is 100
// when every gate passes and 0 otherwise. The threshold is inclusive.
//
// Missing items are reported in the policy's configuration order. Observation
// keys the policy does not mention are ignored.
func Score(policy *types.RoomPolicy, observation types.EquipmentMap) (Result, error) {
	if err := checkPolicy(policy); err != nil {
		return Result{}, err
	}

	var achieved, possible float64
	var missing []string
	var missingRequired []string

	for _, e := range policy.EquipmentWeights.Entries() {
		present := observation.Present(e.Item)
		if e.Spec.Required {
			if !present {
				missing = append(missing, e.Item)
				missingRequired = append(missingRequired, e.Item)
			}
			continue
		}
		possible += e.Spec.Value
		if present {
			achieved += e.Spec.Value
		} else {
			missing = append(missing, e.Item)
		}
	}

	var score float64
	if possible > 0 {
		score = round1(100 * achieved / possible)
	} else if len(missingRequired) == 0 {
		score = 100
	}

	gatePassed := len(missingRequired) == 0
	approved := gatePassed && score >= policy.EntryThreshold

	var reason string
	switch {
	case approved:
		reason = ReasonApproved
	case !gatePassed:
		reason = fmt.Sprintf(reasonGateFormat, strings.Join(missingRequired, ", "))
	default:
		reason = fmt.Sprintf(reasonScoreFormat, score, policy.EntryThreshold)
	}

	if missing == nil {
		missing = []string{}
	}
	return Result{
		Score:            score,
		Approved:         approved,
		MissingEquipment: missing,
		Reason:           reason,
	}, nil
}

// checkPolicy guards against structurally broken stored policies. Upsert
// validation should make this unreachable; failing loudly beats scoring
// garbage.
func checkPolicy(policy *types.RoomPolicy) error {
	if policy == nil {
		return fmt.Errorf("%w: policy is nil", pkgerrors.ErrInvalidPolicy)
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %v", pkgerrors.ErrInvalidPolicy, policy.RoomName, err)
	}
	return nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
