package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/safefloor/safefloor-backend/internal/logger"
	pkgerrors "github.com/safefloor/safefloor-backend/internal/pkg/errors"
	"github.com/safefloor/safefloor-backend/internal/repos"
	"github.com/safefloor/safefloor-backend/internal/types"
)

type UserService interface {
	Create(ctx context.Context, name string) (*types.User, error)
	GetByID(ctx context.Context, userID int64) (*types.User, error)
	List(ctx context.Context) ([]*types.User, error)
	Rename(ctx context.Context, userID int64, name string) (*types.User, error)
	Delete(ctx context.Context, userID int64) error
}

type userService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	badgeService BadgeService
}

// NewUserService wires the worker directory. badgeService may be nil; users
// are then created without a stored badge image.
func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, badgeService BadgeService) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:           db,
		log:          serviceLog,
		userRepo:     userRepo,
		badgeService: badgeService,
	}
}

func (us *userService) Create(ctx context.Context, name string) (*types.User, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: name is empty", pkgerrors.ErrValidation)
	}

	user := &types.User{Name: trimmed}
	if err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := us.userRepo.Create(ctx, tx, user)
		return err
	}); err != nil {
		us.log.Warn("Create user transaction error", "error", err)
		return nil, err
	}

	if us.badgeService != nil {
		if err := us.badgeService.CreateAndUploadBadge(ctx, user); err != nil {
			us.log.Warn("Badge generation failed, user created without badge", "user_id", user.ID, "error", err)
		}
	}

	us.log.Info("User created", "user_id", user.ID)
	return user, nil
}

func (us *userService) GetByID(ctx context.Context, userID int64) (*types.User, error) {
	return us.userRepo.GetByID(ctx, nil, userID)
}

func (us *userService) List(ctx context.Context) ([]*types.User, error) {
	return us.userRepo.List(ctx, nil)
}

func (us *userService) Rename(ctx context.Context, userID int64, name string) (*types.User, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: name is empty", pkgerrors.ErrValidation)
	}

	var updated *types.User
	if err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := us.userRepo.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		user.Name = trimmed
		updated, err = us.userRepo.Save(ctx, tx, user)
		return err
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

func (us *userService) Delete(ctx context.Context, userID int64) error {
	user, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return err
	}
	if err := us.userRepo.Delete(ctx, nil, userID); err != nil {
		return err
	}
	us.log.Info("User deleted", "user_id", user.ID)
	return nil
}
