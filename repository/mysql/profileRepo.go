package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/commonerrors"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/models/entities"
)

// ProfileRepository 定义了用户资料（UserProfile）的数据访问接口。
// - 资料与用户一对一，租户隔离由调用方先校验用户归属来保证。
type ProfileRepository interface {
	CreateProfile(ctx context.Context, db *gorm.DB, profile *entities.UserProfile) error

	// GetProfileByUserID 未找到时返回 commonerrors.ErrRepoNotFound。
	GetProfileByUserID(ctx context.Context, userID string) (*entities.UserProfile, error)

	// UpdateProfile 只更新 fields 中给出的列，fields 为空时什么也不做。
	UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) error

	DeleteProfile(ctx context.Context, db *gorm.DB, userID string) error
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建 ProfileRepository。
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) CreateProfile(ctx context.Context, db *gorm.DB, profile *entities.UserProfile) error {
	if err := db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("profileRepo.CreateProfile: 创建用户资料失败 (UserID: %s): %w", profile.UserID, err)
	}
	return nil
}

func (r *profileRepository) GetProfileByUserID(ctx context.Context, userID string) (*entities.UserProfile, error) {
	var profile entities.UserProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("profileRepo.GetProfileByUserID: 查询用户资料失败 (UserID: %s): %w", userID, err)
	}
	return &profile, nil
}

func (r *profileRepository) UpdateProfile(ctx context.Context, userID string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&entities.UserProfile{}).Where("user_id = ?", userID).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("profileRepo.UpdateProfile: 更新用户资料失败 (UserID: %s): %w", userID, result.Error)
	}
	return nil
}

func (r *profileRepository) DeleteProfile(ctx context.Context, db *gorm.DB, userID string) error {
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entities.UserProfile{}).Error; err != nil {
		return fmt.Errorf("profileRepo.DeleteProfile: 删除用户资料失败 (UserID: %s): %w", userID, err)
	}
	return nil
}
