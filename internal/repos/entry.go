package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/safefloor/safefloor-backend/internal/logger"
	pkgerrors "github.com/safefloor/safefloor-backend/internal/pkg/errors"
	"github.com/safefloor/safefloor-backend/internal/types"
)

type EntryFilter struct {
	UserID   *int64
	RoomName string
	Limit    int
}

// Snapshot carries the compliance fields written back onto an entry.
// UpdateSnapshot is the only mutation path for these columns after creation.
type Snapshot struct {
	Score            float64
	IsApproved       *bool
	Reason           string
	MissingEquipment []string
}

// ApprovalCounts is the per-room approval breakdown, aggregated in SQL so
// analytics never loads entry rows.
type ApprovalCounts struct {
	Total    int
	Approved int
	Denied   int
	Pending  int
}

type EntryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.Entry) (*types.Entry, error)
	GetByID(ctx context.Context, tx *gorm.DB, entryID int64) (*types.Entry, error)
	List(ctx context.Context, tx *gorm.DB, filter EntryFilter) ([]*types.Entry, error)
	CountByRoom(ctx context.Context, tx *gorm.DB, roomName string) (ApprovalCounts, error)
	UpdateSnapshot(ctx context.Context, tx *gorm.DB, entryID int64, snap Snapshot) error
	Delete(ctx context.Context, tx *gorm.DB, entryID int64) error
}

type entryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntryRepo(db *gorm.DB, baseLog *logger.Logger) EntryRepo {
	repoLog := baseLog.With("repo", "EntryRepo")
	return &entryRepo{db: db, log: repoLog}
}

func (er *entryRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.Entry) (*types.Entry, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (er *entryRepo) GetByID(ctx context.Context, tx *gorm.DB, entryID int64) (*types.Entry, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var result types.Entry
	if err := transaction.WithContext(ctx).
		Where("id = ?", entryID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: entry %d", pkgerrors.ErrNotFound, entryID)
		}
		return nil, err
	}
	return &result, nil
}

func (er *entryRepo) List(ctx context.Context, tx *gorm.DB, filter EntryFilter) ([]*types.Entry, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var results []*types.Entry
	query := transaction.WithContext(ctx).Order("entered_at DESC")
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.RoomName != "" {
		query = query.Where("room_name = ?", filter.RoomName)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *entryRepo) CountByRoom(ctx context.Context, tx *gorm.DB, roomName string) (ApprovalCounts, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var rows []struct {
		IsApproved *bool
		N          int
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Entry{}).
		Select("is_approved, COUNT(*) AS n").
		Where("room_name = ?", roomName).
		Group("is_approved").
		Scan(&rows).Error; err != nil {
		return ApprovalCounts{}, err
	}

	var counts ApprovalCounts
	for _, row := range rows {
		counts.Total += row.N
		switch {
		case row.IsApproved == nil:
			counts.Pending += row.N
		case *row.IsApproved:
			counts.Approved += row.N
		default:
			counts.Denied += row.N
		}
	}
	return counts, nil
}

func (er *entryRepo) UpdateSnapshot(ctx context.Context, tx *gorm.DB, entryID int64, snap Snapshot) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	result := transaction.WithContext(ctx).
		Model(&types.Entry{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{
			"equipment_score":   snap.Score,
			"is_approved":       snap.IsApproved,
			"approval_reason":   snap.Reason,
			"missing_equipment": datatypes.NewJSONSlice(snap.MissingEquipment),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: entry %d", pkgerrors.ErrNotFound, entryID)
	}
	return nil
}

// Delete is delete-if-exists: removing an entry that is already gone is not an
// error.
func (er *entryRepo) Delete(ctx context.Context, tx *gorm.DB, entryID int64) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	if err := transaction.WithContext(ctx).
		Where("id = ?", entryID).
		Delete(&types.Entry{}).Error; err != nil {
		return err
	}
	return nil
}
