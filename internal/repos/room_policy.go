package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/safefloor/safefloor-backend/internal/logger"
	pkgerrors "github.com/safefloor/safefloor-backend/internal/pkg/errors"
	"github.com/safefloor/safefloor-backend/internal/types"
)

type RoomPolicyRepo interface {
	GetByRoom(ctx context.Context, tx *gorm.DB, roomName string) (*types.RoomPolicy, error)
	List(ctx context.Context, tx *gorm.DB, includeInactive bool) ([]*types.RoomPolicy, error)
	Save(ctx context.Context, tx *gorm.DB, policy *types.RoomPolicy) (*types.RoomPolicy, error)
	SetActive(ctx context.Context, tx *gorm.DB, roomName string, active bool) error
}

type roomPolicyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRoomPolicyRepo(db *gorm.DB, baseLog *logger.Logger) RoomPolicyRepo {
	repoLog := baseLog.With("repo", "RoomPolicyRepo")
	return &roomPolicyRepo{db: db, log: repoLog}
}

func (rp *roomPolicyRepo) GetByRoom(ctx context.Context, tx *gorm.DB, roomName string) (*types.RoomPolicy, error) {
	transaction := tx
	if transaction == nil {
		transaction = rp.db
	}

	var result types.RoomPolicy
	if err := transaction.WithContext(ctx).
		Where("room_name = ?", roomName).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: room policy %q", pkgerrors.ErrNotFound, roomName)
		}
		return nil, err
	}
	return &result, nil
}

func (rp *roomPolicyRepo) List(ctx context.Context, tx *gorm.DB, includeInactive bool) ([]*types.RoomPolicy, error) {
	transaction := tx
	if transaction == nil {
		transaction = rp.db
	}

	var results []*types.RoomPolicy
	query := transaction.WithContext(ctx).Order("room_name ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rp *roomPolicyRepo) Save(ctx context.Context, tx *gorm.DB, policy *types.RoomPolicy) (*types.RoomPolicy, error) {
	transaction := tx
	if transaction == nil {
		transaction = rp.db
	}

	if err := transaction.WithContext(ctx).Save(policy).Error; err != nil {
		return nil, err
	}
	return policy, nil
}

func (rp *roomPolicyRepo) SetActive(ctx context.Context, tx *gorm.DB, roomName string, active bool) error {
	transaction := tx
	if transaction == nil {
		transaction = rp.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.RoomPolicy{}).
		Where("room_name = ?", roomName).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: room policy %q", pkgerrors.ErrNotFound, roomName)
	}
	return nil
}
