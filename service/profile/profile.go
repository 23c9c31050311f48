package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/commonerrors"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/utils"
)

// UserProfileService 当前登录用户对自己账号的操作：查看、修改资料、修改密码、查看登录方式。
type UserProfileService interface {
	// GetMyAccount 返回用户及其资料和全部登录方式。
	GetMyAccount(ctx context.Context, tenantID, userID string) (*entities.User, error)

	// UpdateMyProfile 只更新 DTO 中出现的字段，返回更新后的资料。
	UpdateMyProfile(ctx context.Context, tenantID, userID string, data dto.UpdateProfileDTO) (*entities.UserProfile, error)

	// ChangePassword 校验旧密码后替换账号密码身份的凭证。
	ChangePassword(ctx context.Context, tenantID, userID string, data dto.ChangePasswordDTO) error

	ListIdentities(ctx context.Context, tenantID, userID string) ([]entities.UserIdentity, error)
}

type userProfileService struct {
	userRepo     mysql.UserRepository
	profileRepo  mysql.ProfileRepository
	identityRepo mysql.IdentityRepository
	logger       *zap.Logger
}

func NewUserProfileService(
	userRepo mysql.UserRepository,
	profileRepo mysql.ProfileRepository,
	identityRepo mysql.IdentityRepository,
	logger *zap.Logger,
) UserProfileService {
	return &userProfileService{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		identityRepo: identityRepo,
		logger:       logger,
	}
}

func (s *userProfileService) GetMyAccount(ctx context.Context, tenantID, userID string) (*entities.User, error) {
	const operation = "UserProfileService.GetMyAccount"

	user, err := s.userRepo.GetUserWithProfile(ctx, tenantID, userID)
	if err != nil {
		return nil, s.userError(operation, userID, err)
	}
	if user.Profile == nil {
		s.logger.Warn("用户缺少资料记录", zap.String("operation", operation), zap.String("userID", userID))
		return nil, apperrors.ErrProfileNotFound
	}

	identities, err := s.identityRepo.GetIdentitiesByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("查询用户身份失败", zap.String("operation", operation), zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	user.Identities = make([]entities.UserIdentity, 0, len(identities))
	for _, identity := range identities {
		user.Identities = append(user.Identities, *identity)
	}
	return user, nil
}

func (s *userProfileService) UpdateMyProfile(ctx context.Context, tenantID, userID string, data dto.UpdateProfileDTO) (*entities.UserProfile, error) {
	const operation = "UserProfileService.UpdateMyProfile"

	if _, err := s.userRepo.GetUserByID(ctx, tenantID, userID); err != nil {
		return nil, s.userError(operation, userID, err)
	}

	fields := make(map[string]interface{})
	if data.Nickname != nil {
		fields["nickname"] = *data.Nickname
	}
	if data.Email != nil {
		fields["email"] = *data.Email
	}
	if data.Gender != nil {
		fields["gender"] = *data.Gender
	}
	if data.Province != nil {
		fields["province"] = *data.Province
	}
	if data.City != nil {
		fields["city"] = *data.City
	}
	if data.AvatarKey != nil {
		if !utils.OwnsObjectKey(*data.AvatarKey, tenantID, userID, "avatar") {
			s.logger.Warn("头像 key 不属于当前用户", zap.String("operation", operation), zap.String("userID", userID), zap.String("key", *data.AvatarKey))
			return nil, apperrors.ErrPermissionDenied
		}
		fields["avatar_url"] = *data.AvatarKey
	}

	if err := s.profileRepo.UpdateProfile(ctx, userID, fields); err != nil {
		s.logger.Error("更新用户资料失败", zap.String("operation", operation), zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	profile, err := s.profileRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	s.logger.Info("用户资料更新成功", zap.String("operation", operation), zap.String("userID", userID), zap.Int("fields", len(fields)))
	return profile, nil
}

func (s *userProfileService) ChangePassword(ctx context.Context, tenantID, userID string, data dto.ChangePasswordDTO) error {
	const operation = "UserProfileService.ChangePassword"

	if data.NewPassword != data.ConfirmPassword {
		return apperrors.ErrPasswordMismatch
	}
	identities, err := s.ListIdentities(ctx, tenantID, userID)
	if err != nil {
		return err
	}

	var current *entities.UserIdentity
	for i := range identities {
		if identities[i].IdentityType == enums.AccountPassword {
			current = &identities[i]
			break
		}
	}
	// 只用手机号登录的用户没有密码可改
	if current == nil || utils.CheckPassword(current.Credential, data.OldPassword) != nil {
		s.logger.Warn("修改密码时旧密码校验失败", zap.String("operation", operation), zap.String("userID", userID))
		return apperrors.ErrInvalidCredentials
	}

	hashed, err := utils.SetPassword(data.NewPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if err := s.identityRepo.UpdateCredential(ctx, userID, enums.AccountPassword, hashed); err != nil {
		s.logger.Error("更新密码失败", zap.String("operation", operation), zap.String("userID", userID), zap.Error(err))
		return fmt.Errorf("%s: %w", operation, err)
	}
	s.logger.Info("密码修改成功", zap.String("operation", operation), zap.String("userID", userID))
	return nil
}

func (s *userProfileService) ListIdentities(ctx context.Context, tenantID, userID string) ([]entities.UserIdentity, error) {
	const operation = "UserProfileService.ListIdentities"

	if _, err := s.userRepo.GetUserByID(ctx, tenantID, userID); err != nil {
		return nil, s.userError(operation, userID, err)
	}
	identities, err := s.identityRepo.GetIdentitiesByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("查询用户身份失败", zap.String("operation", operation), zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	out := make([]entities.UserIdentity, 0, len(identities))
	for _, identity := range identities {
		out = append(out, *identity)
	}
	return out, nil
}

func (s *userProfileService) userError(operation, userID string, err error) error {
	if errors.Is(err, commonerrors.ErrRepoNotFound) {
		s.logger.Warn("用户不存在", zap.String("operation", operation), zap.String("userID", userID))
		return apperrors.ErrUserNotFound
	}
	s.logger.Error("查询用户失败", zap.String("operation", operation), zap.String("userID", userID), zap.Error(err))
	return fmt.Errorf("%s: %w", operation, err)
}
