package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/commonerrors"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/models/enums"
)

// IdentityRepository 定义了用户登录身份（UserIdentity）的数据访问接口。
// - (租户, 身份类型, 标识符) 全局唯一，同一个账号可以分别注册在不同租户下。
type IdentityRepository interface {
	// CreateIdentity 持久化一个新身份，db 可以是事务对象。
	// - 唯一约束冲突时返回的错误满足 errors.Is(err, gorm.ErrDuplicatedKey)。
	CreateIdentity(ctx context.Context, db *gorm.DB, identity *entities.UserIdentity) error

	// GetIdentityByTypeAndIdentifier 查找登录所需的最小凭证信息。
	// - 未找到时返回 commonerrors.ErrRepoNotFound。
	GetIdentityByTypeAndIdentifier(ctx context.Context, tenantID string, identityType enums.IdentityType, identifier string) (*dto.IdentityCredential, error)

	// GetIdentitiesByUserID 返回用户的全部身份，没有时返回空列表。
	GetIdentitiesByUserID(ctx context.Context, userID string) ([]*entities.UserIdentity, error)

	// UpdateCredential 更新某个身份的凭证（例如修改密码后的新哈希）。
	UpdateCredential(ctx context.Context, userID string, identityType enums.IdentityType, credential string) error

	// DeleteIdentitiesByUserID 软删除用户的全部身份，用户没有身份时不视为错误。
	DeleteIdentitiesByUserID(ctx context.Context, db *gorm.DB, userID string) error
}

type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository 创建 IdentityRepository。
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) CreateIdentity(ctx context.Context, db *gorm.DB, identity *entities.UserIdentity) error {
	if err := db.WithContext(ctx).Create(identity).Error; err != nil {
		return fmt.Errorf("identityRepo.CreateIdentity: 创建身份失败: %w", err)
	}
	return nil
}

func (r *identityRepository) GetIdentityByTypeAndIdentifier(ctx context.Context, tenantID string, identityType enums.IdentityType, identifier string) (*dto.IdentityCredential, error) {
	var cred dto.IdentityCredential
	// 通过 Model 查询，软删除条件才会生效
	err := r.db.WithContext(ctx).
		Model(&entities.UserIdentity{}).
		Select("user_id, credential").
		Where("tenant_id = ? AND identity_type = ? AND identifier = ?", tenantID, identityType, identifier).
		Take(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("identityRepo.GetIdentityByTypeAndIdentifier: 查询凭证失败 (类型: %d, 标识符: %s): %w", identityType, identifier, err)
	}
	return &cred, nil
}

func (r *identityRepository) GetIdentitiesByUserID(ctx context.Context, userID string) ([]*entities.UserIdentity, error) {
	var identities []*entities.UserIdentity
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("identity_id").Find(&identities).Error
	if err != nil {
		return nil, fmt.Errorf("identityRepo.GetIdentitiesByUserID: 查询用户身份列表失败 (UserID: %s): %w", userID, err)
	}
	return identities, nil
}

func (r *identityRepository) UpdateCredential(ctx context.Context, userID string, identityType enums.IdentityType, credential string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.UserIdentity{}).
		Where("user_id = ? AND identity_type = ?", userID, identityType).
		Update("credential", credential)
	if result.Error != nil {
		return fmt.Errorf("identityRepo.UpdateCredential: 更新凭证失败 (UserID: %s): %w", userID, result.Error)
	}
	return nil
}

func (r *identityRepository) DeleteIdentitiesByUserID(ctx context.Context, db *gorm.DB, userID string) error {
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entities.UserIdentity{}).Error; err != nil {
		return fmt.Errorf("identityRepo.DeleteIdentitiesByUserID: 删除用户的所有身份记录失败 (UserID: %s): %w", userID, err)
	}
	return nil
}
