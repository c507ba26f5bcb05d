package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/safefloor/safefloor-backend/internal/compliance"
	"github.com/safefloor/safefloor-backend/internal/logger"
	pkgerrors "github.com/safefloor/safefloor-backend/internal/pkg/errors"
	"github.com/safefloor/safefloor-backend/internal/repos"
	"github.com/safefloor/safefloor-backend/internal/types"
)

type CreateEntryInput struct {
	UserID    int64              `json:"user_id"`
	RoomName  string             `json:"room_name"`
	Equipment types.EquipmentMap `json:"equipment"`
	ImageURL  string             `json:"image_url"`
	EnteredAt *time.Time         `json:"entered_at"`
}

type ImageEntryInput struct {
	UserID   int64
	RoomName string
	Image    []byte
	Filename string
}

type RecalcFailure struct {
	EntryID int64  `json:"entry_id"`
	Error   string `json:"error"`
}

type RecalcReport struct {
	RoomName       string          `json:"room_name"`
	TotalEntries   int             `json:"total_entries"`
	UpdatedEntries int             `json:"updated_entries"`
	Failures       []RecalcFailure `json:"failures,omitempty"`
}

type RoomAnalytics struct {
	RoomName        string  `json:"room_name"`
	IsActive        bool    `json:"is_active"`
	EntryThreshold  float64 `json:"entry_threshold"`
	TotalEntries    int     `json:"total_entries"`
	ApprovedEntries int     `json:"approved_entries"`
	DeniedEntries   int     `json:"denied_entries"`
	PendingEntries  int     `json:"pending_entries"`
	ApprovalRate    float64 `json:"approval_rate"`
}

type AnalyticsSummary struct {
	TotalConfigurations    int             `json:"total_configurations"`
	ActiveConfigurations   int             `json:"active_configurations"`
	InactiveConfigurations int             `json:"inactive_configurations"`
	Rooms                  []RoomAnalytics `json:"rooms"`
}

type EntryService interface {
	Create(ctx context.Context, in CreateEntryInput) (*types.Entry, error)
	CreateFromImage(ctx context.Context, in ImageEntryInput) (*types.Entry, error)
	GetByID(ctx context.Context, entryID int64) (*types.Entry, error)
	List(ctx context.Context, filter repos.EntryFilter) ([]*types.Entry, error)
	RecalculateForRoom(ctx context.Context, roomName string) (*RecalcReport, error)
	Delete(ctx context.Context, entryID int64) error
	Analytics(ctx context.Context) (*AnalyticsSummary, error)
}

type entryService struct {
	db            *gorm.DB
	log           *logger.Logger
	entryRepo     repos.EntryRepo
	userRepo      repos.UserRepo
	policyService PolicyService
	detector      DetectorService
	bucketService BucketService
}

// NewEntryService wires the entry recorder. detector and bucketService may be
// nil; the image path then records an empty observation and no image URL.
func NewEntryService(db *gorm.DB, log *logger.Logger, entryRepo repos.EntryRepo, userRepo repos.UserRepo, policyService PolicyService, detector DetectorService, bucketService BucketService) EntryService {
	serviceLog := log.With("service", "EntryService")
	return &entryService{
		db:            db,
		log:           serviceLog,
		entryRepo:     entryRepo,
		userRepo:      userRepo,
		policyService: policyService,
		detector:      detector,
		bucketService: bucketService,
	}
}

// Create scores the observation against the room's current policy and
// persists the entry with the resulting snapshot. Unconfigured rooms fail
// strictly: the NotFound from the policy lookup propagates and nothing is
// persisted.
func (es *entryService) Create(ctx context.Context, in CreateEntryInput) (*types.Entry, error) {
	roomName := types.NormalizeRoomName(in.RoomName)
	if roomName == "" {
		return nil, fmt.Errorf("%w: room_name is empty", pkgerrors.ErrValidation)
	}
	if in.UserID <= 0 {
		return nil, fmt.Errorf("%w: user_id is missing", pkgerrors.ErrValidation)
	}
	if _, err := es.userRepo.GetByID(ctx, nil, in.UserID); err != nil {
		return nil, err
	}

	policy, err := es.policyService.GetByRoom(ctx, roomName)
	if err != nil {
		return nil, err
	}

	observation := in.Equipment
	if observation == nil {
		observation = types.EquipmentMap{}
	}
	result, err := compliance.Score(policy, observation)
	if err != nil {
		return nil, err
	}

	enteredAt := time.Now().UTC()
	if in.EnteredAt != nil {
		enteredAt = in.EnteredAt.UTC()
	}
	approved := result.Approved
	entry := &types.Entry{
		UserID:           &in.UserID,
		RoomName:         roomName,
		ImageURL:         in.ImageURL,
		Equipment:        observation,
		EnteredAt:        enteredAt,
		Score:            result.Score,
		IsApproved:       &approved,
		Reason:           result.Reason,
		MissingEquipment: datatypes.NewJSONSlice(result.MissingEquipment),
	}

	if err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := es.entryRepo.Create(ctx, tx, entry)
		return err
	}); err != nil {
		es.log.Warn("Create entry transaction error", "room_name", roomName, "user_id", in.UserID, "error", err)
		return nil, err
	}

	es.log.Info("Entry recorded",
		"entry_id", entry.ID,
		"room_name", roomName,
		"user_id", in.UserID,
		"score", result.Score,
		"approved", result.Approved,
	)
	return entry, nil
}

// CreateFromImage runs the detector and the image upload concurrently, then
// records the entry with whatever observation came back. Detector failure
// degrades to an empty observation rather than blocking the door station;
// upload failure just drops the image URL.
func (es *entryService) CreateFromImage(ctx context.Context, in ImageEntryInput) (*types.Entry, error) {
	roomName := types.NormalizeRoomName(in.RoomName)
	if roomName == "" {
		return nil, fmt.Errorf("%w: room_name is empty", pkgerrors.ErrValidation)
	}
	if len(in.Image) == 0 {
		return nil, fmt.Errorf("%w: image is empty", pkgerrors.ErrValidation)
	}
	if in.UserID <= 0 {
		return nil, fmt.Errorf("%w: user_id is missing", pkgerrors.ErrValidation)
	}
	if _, err := es.userRepo.GetByID(ctx, nil, in.UserID); err != nil {
		return nil, err
	}

	policy, err := es.policyService.GetByRoom(ctx, roomName)
	if err != nil {
		return nil, err
	}
	items := make([]string, 0, policy.EquipmentWeights.Len())
	for _, e := range policy.EquipmentWeights.Entries() {
		items = append(items, e.Item)
	}

	observation := types.EquipmentMap{}
	imageURL := ""

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if es.detector == nil {
			es.log.Warn("Detector not configured, recording empty observation", "room_name", roomName)
			return nil
		}
		detected, err := es.detector.DetectEquipment(gctx, in.Image, items)
		if err != nil {
			return fmt.Errorf("equipment detection: %w", err)
		}
		observation = detected
		return nil
	})
	g.Go(func() error {
		if es.bucketService == nil {
			return nil
		}
		key := entryImageKey(in.Filename)
		if err := es.bucketService.UploadBytes(gctx, key, in.Image); err != nil {
			es.log.Warn("Image upload failed, continuing without image URL", "key", key, "error", err)
			return nil
		}
		imageURL = es.bucketService.GetPublicURL(key)
		return nil
	})
	if err := g.Wait(); err != nil {
		es.log.Warn("Detection failed, recording empty observation", "room_name", roomName, "error", err)
		observation = types.EquipmentMap{}
	}

	return es.Create(ctx, CreateEntryInput{
		UserID:    in.UserID,
		RoomName:  roomName,
		Equipment: observation,
		ImageURL:  imageURL,
	})
}

func entryImageKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("entries/%s%s", uuid.NewString(), ext)
}

func (es *entryService) GetByID(ctx context.Context, entryID int64) (*types.Entry, error) {
	return es.entryRepo.GetByID(ctx, nil, entryID)
}

func (es *entryService) List(ctx context.Context, filter repos.EntryFilter) ([]*types.Entry, error) {
	if filter.RoomName != "" {
		filter.RoomName = types.NormalizeRoomName(filter.RoomName)
	}
	return es.entryRepo.List(ctx, nil, filter)
}

// RecalculateForRoom re-scores every stored entry for the room against its
// current policy, overwriting the persisted snapshots. The original
// observations stay untouched. Each entry updates in its own transaction; one
// bad row is reported, not fatal to the batch.
func (es *entryService) RecalculateForRoom(ctx context.Context, roomName string) (*RecalcReport, error) {
	normalized := types.NormalizeRoomName(roomName)
	policy, err := es.policyService.GetByRoom(ctx, normalized)
	if err != nil {
		return nil, err
	}

	entries, err := es.entryRepo.List(ctx, nil, repos.EntryFilter{RoomName: normalized})
	if err != nil {
		return nil, err
	}

	report := &RecalcReport{RoomName: normalized, TotalEntries: len(entries)}
	for _, entry := range entries {
		result, err := compliance.Score(policy, entry.Equipment)
		if err != nil {
			report.Failures = append(report.Failures, RecalcFailure{EntryID: entry.ID, Error: err.Error()})
			continue
		}
		approved := result.Approved
		err = es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return es.entryRepo.UpdateSnapshot(ctx, tx, entry.ID, repos.Snapshot{
				Score:            result.Score,
				IsApproved:       &approved,
				Reason:           result.Reason,
				MissingEquipment: result.MissingEquipment,
			})
		})
		if err != nil {
			es.log.Warn("Recalculation failed for entry", "entry_id", entry.ID, "error", err)
			report.Failures = append(report.Failures, RecalcFailure{EntryID: entry.ID, Error: err.Error()})
			continue
		}
		report.UpdatedEntries++
	}

	es.log.Info("Recalculated entries for room",
		"room_name", normalized,
		"total", report.TotalEntries,
		"updated", report.UpdatedEntries,
		"failed", len(report.Failures),
	)
	return report, nil
}

func (es *entryService) Delete(ctx context.Context, entryID int64) error {
	return es.entryRepo.Delete(ctx, nil, entryID)
}

// Analytics aggregates per-room approval statistics. Counts come from grouped
// COUNT queries, so rooms with any number of entries report exact totals.
func (es *entryService) Analytics(ctx context.Context) (*AnalyticsSummary, error) {
	policies, err := es.policyService.List(ctx, true)
	if err != nil {
		return nil, err
	}

	summary := &AnalyticsSummary{TotalConfigurations: len(policies), Rooms: []RoomAnalytics{}}
	for _, policy := range policies {
		if policy.IsActive {
			summary.ActiveConfigurations++
		} else {
			summary.InactiveConfigurations++
		}

		counts, err := es.entryRepo.CountByRoom(ctx, nil, policy.RoomName)
		if err != nil {
			return nil, err
		}

		room := RoomAnalytics{
			RoomName:        policy.RoomName,
			IsActive:        policy.IsActive,
			EntryThreshold:  policy.EntryThreshold,
			TotalEntries:    counts.Total,
			ApprovedEntries: counts.Approved,
			DeniedEntries:   counts.Denied,
			PendingEntries:  counts.Pending,
		}
		if room.TotalEntries > 0 {
			room.ApprovalRate = 100 * float64(room.ApprovedEntries) / float64(room.TotalEntries)
		}
		summary.Rooms = append(summary.Rooms, room)
	}
	return summary, nil
}
