package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/querybuilder"
)

// UserRepository 定义了核心用户（User）的数据访问接口。
// - 除创建外，所有读写都限定在租户内，跨租户访问一律视为不存在。
type UserRepository interface {
	// CreateUser 持久化一个新用户，db 可以是事务对象。
	CreateUser(ctx context.Context, db *gorm.DB, user *entities.User) error

	// GetUserByID 在租户内按 ID 查找用户，未找到返回 commonerrors.ErrRepoNotFound。
	GetUserByID(ctx context.Context, tenantID, userID string) (*entities.User, error)

	// GetUserWithProfile 同 GetUserByID，但同时预加载资料。
	GetUserWithProfile(ctx context.Context, tenantID, userID string) (*entities.User, error)

	// UpdateRoleAndStatus 更新用户的角色和/或状态，nil 表示不修改。
	// - 使用 map 更新，零值枚举也能被正确写入。
	// - 不检查影响行数（值未变化时 MySQL 返回 0），调用方应先确认用户存在。
	UpdateRoleAndStatus(ctx context.Context, tenantID, userID string, role *enums.UserRole, status *enums.UserStatus) error

	// BlackUser 将用户状态设置为拉黑。
	BlackUser(ctx context.Context, tenantID, userID string) error

	// DeleteUser 软删除用户，db 可以是事务对象。
	DeleteUser(ctx context.Context, db *gorm.DB, tenantID, userID string) error

	// Lister 返回租户内用户列表的查询委托，交给 querybuilder 使用。
	Lister(tenantID string) querybuilder.CursorDelegate[entities.User]
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建 UserRepository。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, db *gorm.DB, user *entities.User) error {
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("userRepo.CreateUser: 创建用户失败: %w", err)
	}
	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, tenantID, userID string) (*entities.User, error) {
	return r.getUser(ctx, r.db.WithContext(ctx), tenantID, userID)
}

func (r *userRepository) GetUserWithProfile(ctx context.Context, tenantID, userID string) (*entities.User, error) {
	return r.getUser(ctx, r.db.WithContext(ctx).Preload("Profile"), tenantID, userID)
}

func (r *userRepository) getUser(ctx context.Context, db *gorm.DB, tenantID, userID string) (*entities.User, error) {
	var user entities.User
	err := db.Where("tenant_id = ? AND user_id = ?", tenantID, userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, commonerrors.ErrRepoNotFound
		}
		return nil, fmt.Errorf("userRepo.GetUserByID: 查询用户失败 (UserID: %s): %w", userID, err)
	}
	return &user, nil
}

func (r *userRepository) UpdateRoleAndStatus(ctx context.Context, tenantID, userID string, role *enums.UserRole, status *enums.UserStatus) error {
	fields := make(map[string]interface{}, 2)
	if role != nil {
		fields["user_role"] = *role
	}
	if status != nil {
		fields["status"] = *status
	}
	if len(fields) == 0 {
		return nil
	}
	return r.updateFields(ctx, tenantID, userID, fields, "userRepo.UpdateRoleAndStatus")
}

func (r *userRepository) BlackUser(ctx context.Context, tenantID, userID string) error {
	return r.updateFields(ctx, tenantID, userID, map[string]interface{}{"status": enums.StatusBlacklisted}, "userRepo.BlackUser")
}

func (r *userRepository) updateFields(ctx context.Context, tenantID, userID string, fields map[string]interface{}, op string) error {
	result := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("tenant_id = ? AND user_id = ?", tenantID, userID).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("%s: 更新用户失败 (UserID: %s): %w", op, userID, result.Error)
	}
	return nil
}

func (r *userRepository) DeleteUser(ctx context.Context, db *gorm.DB, tenantID, userID string) error {
	result := db.WithContext(ctx).Where("tenant_id = ? AND user_id = ?", tenantID, userID).Delete(&entities.User{})
	if result.Error != nil {
		return fmt.Errorf("userRepo.DeleteUser: 删除用户失败 (UserID: %s): %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return commonerrors.ErrRepoNotFound
	}
	return nil
}

func (r *userRepository) Lister(tenantID string) querybuilder.CursorDelegate[entities.User] {
	return NewDelegate[entities.User](r.db, UserModel, TenantScope(UserModel.Table, tenantID))
}
