package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/safefloor/safefloor-backend/internal/compliance"
	"github.com/safefloor/safefloor-backend/internal/logger"
	pkgerrors "github.com/safefloor/safefloor-backend/internal/pkg/errors"
	"github.com/safefloor/safefloor-backend/internal/repos"
	"github.com/safefloor/safefloor-backend/internal/types"
)

// PolicyInput is the administrative wire shape for creating or replacing a
// room policy. Upsert is a full replace keyed by normalized room name; partial
// updates are a caller-level read-modify-write.
type PolicyInput struct {
	RoomName         string          `json:"room_name"`
	EquipmentWeights types.WeightMap `json:"equipment_weights"`
	EntryThreshold   float64         `json:"entry_threshold"`
	IsActive         *bool           `json:"is_active"`
	Description      string          `json:"description"`
}

type PolicyService interface {
	Upsert(ctx context.Context, in PolicyInput) (*types.RoomPolicy, error)
	GetByRoom(ctx context.Context, roomName string) (*types.RoomPolicy, error)
	List(ctx context.Context, includeInactive bool) ([]*types.RoomPolicy, error)
	Deactivate(ctx context.Context, roomName string) error
	TestObservation(ctx context.Context, roomName string, observation types.EquipmentMap) (*compliance.Result, *types.RoomPolicy, error)
	SeedDefaults(ctx context.Context, seeds []PolicyInput) (int, error)
}

type policyService struct {
	db         *gorm.DB
	log        *logger.Logger
	policyRepo repos.RoomPolicyRepo
	cache      PolicyCache
}

// NewPolicyService wires the room policy store. cache may be nil; lookups then
// always hit the database.
func NewPolicyService(db *gorm.DB, log *logger.Logger, policyRepo repos.RoomPolicyRepo, cache PolicyCache) PolicyService {
	serviceLog := log.With("service", "PolicyService")
	return &policyService{
		db:         db,
		log:        serviceLog,
		policyRepo: policyRepo,
		cache:      cache,
	}
}

// DefaultPolicies is the seed table for the three standard factory rooms.
// Applied through Upsert at bootstrap, never hidden inside migrations.
func DefaultPolicies() []PolicyInput {
	return []PolicyInput{
		{
			RoomName: "production-floor",
			EquipmentWeights: types.NewWeightMap(
				types.WeightEntry{Item: "mask", Spec: types.Numeric(35)},
				types.WeightEntry{Item: "gloves", Spec: types.Numeric(30)},
				types.WeightEntry{Item: "hairnet", Spec: types.Numeric(35)},
			),
			EntryThreshold: 80,
			Description:    "Production Floor - High safety requirements with mask, gloves, and hairnet",
		},
		{
			RoomName: "assembly-line",
			EquipmentWeights: types.NewWeightMap(
				types.WeightEntry{Item: "gloves", Spec: types.Numeric(50)},
				types.WeightEntry{Item: "hairnet", Spec: types.Numeric(50)},
			),
			EntryThreshold: 70,
			Description:    "Assembly Line - Moderate requirements with gloves and hairnet",
		},
		{
			RoomName: "packaging-area",
			EquipmentWeights: types.NewWeightMap(
				types.WeightEntry{Item: "gloves", Spec: types.Numeric(100)},
			),
			EntryThreshold: 60,
			Description:    "Packaging Area - Basic hygiene requirements with gloves",
		},
	}
}

func (ps *policyService) Upsert(ctx context.Context, in PolicyInput) (*types.RoomPolicy, error) {
	roomName := types.NormalizeRoomName(in.RoomName)
	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	policy := &types.RoomPolicy{
		RoomName:         roomName,
		EquipmentWeights: in.EquipmentWeights,
		EntryThreshold:   in.EntryThreshold,
		IsActive:         isActive,
		Description:      in.Description,
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	if err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := ps.policyRepo.GetByRoom(ctx, tx, roomName)
		if err == nil {
			policy.ID = existing.ID
			policy.CreatedAt = existing.CreatedAt
		} else if !pkgerrors.IsNotFound(err) {
			return err
		}
		_, err = ps.policyRepo.Save(ctx, tx, policy)
		return err
	}); err != nil {
		ps.log.Warn("Upsert transaction error", "room_name", roomName, "error", err)
		return nil, err
	}

	ps.invalidateCache(ctx, roomName)
	ps.log.Info("Room policy upserted", "room_name", roomName, "entry_threshold", policy.EntryThreshold, "is_active", policy.IsActive)
	return policy, nil
}

func (ps *policyService) GetByRoom(ctx context.Context, roomName string) (*types.RoomPolicy, error) {
	normalized := types.NormalizeRoomName(roomName)
	if normalized == "" {
		return nil, fmt.Errorf("%w: room_name is empty", pkgerrors.ErrValidation)
	}

	if ps.cache != nil {
		if cached, ok := ps.cache.Get(ctx, normalized); ok {
			return cached, nil
		}
	}

	policy, err := ps.policyRepo.GetByRoom(ctx, nil, normalized)
	if err != nil {
		return nil, err
	}

	if ps.cache != nil {
		ps.cache.Set(ctx, normalized, policy)
	}
	return policy, nil
}

func (ps *policyService) List(ctx context.Context, includeInactive bool) ([]*types.RoomPolicy, error) {
	return ps.policyRepo.List(ctx, nil, includeInactive)
}

// Deactivate hides a policy from default listings without deleting it, so
// historical entries keep a resolvable room reference.
func (ps *policyService) Deactivate(ctx context.Context, roomName string) error {
	normalized := types.NormalizeRoomName(roomName)
	if err := ps.policyRepo.SetActive(ctx, nil, normalized, false); err != nil {
		return err
	}
	ps.invalidateCache(ctx, normalized)
	ps.log.Info("Room policy deactivated", "room_name", normalized)
	return nil
}

// TestObservation dry-runs the engine against a sample observation. Nothing is
// persisted; admins use it to preview approval outcomes while tuning weights.
func (ps *policyService) TestObservation(ctx context.Context, roomName string, observation types.EquipmentMap) (*compliance.Result, *types.RoomPolicy, error) {
	policy, err := ps.GetByRoom(ctx, roomName)
	if err != nil {
		return nil, nil, err
	}
	result, err := compliance.Score(policy, observation)
	if err != nil {
		return nil, nil, err
	}
	return &result, policy, nil
}

// SeedDefaults applies seed policies through Upsert, skipping rooms that
// already have one. Returns the number created.
func (ps *policyService) SeedDefaults(ctx context.Context, seeds []PolicyInput) (int, error) {
	if len(seeds) == 0 {
		seeds = DefaultPolicies()
	}
	created := 0
	for _, seed := range seeds {
		roomName := types.NormalizeRoomName(seed.RoomName)
		if _, err := ps.policyRepo.GetByRoom(ctx, nil, roomName); err == nil {
			continue
		} else if !pkgerrors.IsNotFound(err) {
			return created, err
		}
		if _, err := ps.Upsert(ctx, seed); err != nil {
			return created, fmt.Errorf("seeding %q: %w", roomName, err)
		}
		created++
	}
	return created, nil
}

func (ps *policyService) invalidateCache(ctx context.Context, roomName string) {
	if ps.cache == nil {
		return
	}
	ps.cache.Invalidate(ctx, roomName)
}
