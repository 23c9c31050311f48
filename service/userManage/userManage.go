package userManage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/querybuilder"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
)

var userQueryOptions = querybuilder.Options{
	AllowedSortFields:   []string{"created_at", "updated_at"},
	AllowedFilterFields: []string{"role", "status", "created_at", "city", "province"},
	AllowedSearchFields: []string{"nickname"},
}

// UserManageService 管理员对租户内用户的管理：列表、查看、修改角色状态、拉黑和删除。
type UserManageService interface {
	// ListUsers 分页查询用户，未指定 include 时默认带上资料。
	ListUsers(ctx context.Context, tenantID string, q querybuilder.QueryOptions) (*querybuilder.PaginatedResult[entities.User], error)

	GetUser(ctx context.Context, tenantID, userID string) (*entities.User, error)

	// UpdateUser 更新角色和/或状态，返回更新后的用户。
	UpdateUser(ctx context.Context, tenantID, userID string, data dto.UpdateUserDTO) (*entities.User, error)

	BlackUser(ctx context.Context, tenantID, userID string) error

	// DeleteUser 在一个事务中软删除用户、身份和资料。
	DeleteUser(ctx context.Context, tenantID, userID string) error
}

type userService struct {
	userRepo     mysql.UserRepository
	identityRepo mysql.IdentityRepository
	profileRepo  mysql.ProfileRepository
	db           *gorm.DB
	queryOpts    querybuilder.Options
	logger       *zap.Logger
}

func NewUserManageService(
	userRepo mysql.UserRepository,
	identityRepo mysql.IdentityRepository,
	profileRepo mysql.ProfileRepository,
	db *gorm.DB,
	defaults querybuilder.Options,
	logger *zap.Logger,
) UserManageService {
	return &userService{
		userRepo:     userRepo,
		identityRepo: identityRepo,
		profileRepo:  profileRepo,
		db:           db,
		queryOpts:    defaults.Merge(userQueryOptions),
		logger:       logger,
	}
}

func (s *userService) ListUsers(ctx context.Context, tenantID string, q querybuilder.QueryOptions) (*querybuilder.PaginatedResult[entities.User], error) {
	if q.Include == nil {
		q.Include = map[string]any{"profile": true}
	}
	return querybuilder.Build[entities.User](ctx, s.userRepo.Lister(tenantID), q, s.queryOpts)
}

func (s *userService) GetUser(ctx context.Context, tenantID, userID string) (*entities.User, error) {
	user, err := s.userRepo.GetUserWithProfile(ctx, tenantID, userID)
	if err != nil {
		return nil, s.userError("UserManageService.GetUser", userID, err)
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, tenantID, userID string, data dto.UpdateUserDTO) (*entities.User, error) {
	const operation = "UserManageService.UpdateUser"

	// 仓库层不检查影响行数，先确认用户存在
	if _, err := s.userRepo.GetUserByID(ctx, tenantID, userID); err != nil {
		return nil, s.userError(operation, userID, err)
	}
	if err := s.userRepo.UpdateRoleAndStatus(ctx, tenantID, userID, data.UserRole, data.Status); err != nil {
		s.logger.Error("更新用户角色或状态失败", zap.String("operation", operation), zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("用户信息已更新",
		zap.String("operation", operation),
		zap.String("tenantID", tenantID),
		zap.String("userID", userID),
		zap.Any("role", data.UserRole),
		zap.Any("status", data.Status),
	)
	return s.GetUser(ctx, tenantID, userID)
}

func (s *userService) BlackUser(ctx context.Context, tenantID, userID string) error {
	const operation = "UserManageService.BlackUser"

	if _, err := s.userRepo.GetUserByID(ctx, tenantID, userID); err != nil {
		return s.userError(operation, userID, err)
	}
	if err := s.userRepo.BlackUser(ctx, tenantID, userID); err != nil {
		s.logger.Error("拉黑用户失败", zap.String("operation", operation), zap.String("userID", userID), zap.Error(err))
		return fmt.Errorf("%s: %w", operation, err)
	}
	s.logger.Info("用户已拉黑", zap.String("operation", operation), zap.String("userID", userID), zap.Any("status", enums.StatusBlacklisted))
	return nil
}

func (s *userService) DeleteUser(ctx context.Context, tenantID, userID string) error {
	const operation = "UserManageService.DeleteUser"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.DeleteUser(ctx, tx, tenantID, userID); err != nil {
			return err
		}
		if err := s.identityRepo.DeleteIdentitiesByUserID(ctx, tx, userID); err != nil {
			return err
		}
		return s.profileRepo.DeleteProfile(ctx, tx, userID)
	})
	if err != nil {
		return s.userError(operation, userID, err)
	}
	s.logger.Info("用户及其身份、资料已删除", zap.String("operation", operation), zap.String("tenantID", tenantID), zap.String("userID", userID))
	return nil
}

func (s *userService) userError(operation, userID string, err error) error {
	if errors.Is(err, commonerrors.ErrRepoNotFound) {
		s.logger.Warn("用户不存在", zap.String("operation", operation), zap.String("userID", userID))
		return apperrors.ErrUserNotFound
	}
	s.logger.Error("操作用户失败", zap.String("operation", operation), zap.String("userID", userID), zap.Error(err))
	return fmt.Errorf("%s: %w", operation, err)
}
