package auth

import (
	"context"
	"fmt"

	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/events"
	"github.com/Xushengqwer/starter_hub/models/entities"
	myenums "github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
)

// accountCreator 在一个事务中创建用户、登录身份和初始资料，供各种登录方式复用。
type accountCreator struct {
	db           *gorm.DB
	userRepo     mysql.UserRepository
	identityRepo mysql.IdentityRepository
	profileRepo  mysql.ProfileRepository
	bus          *events.Bus
}

type newAccount struct {
	tenantID     string
	identityType myenums.IdentityType
	identifier   string
	credential   string
	profile      entities.UserProfile
}

// create 成功后发布 UserRegistered 事件。
// - 身份唯一约束冲突时返回的错误满足 errors.Is(err, gorm.ErrDuplicatedKey)。
func (c *accountCreator) create(ctx context.Context, acct newAccount) (*entities.User, error) {
	userID := uuid.NewString()
	user := &entities.User{
		UserID:   userID,
		TenantID: acct.tenantID,
		UserRole: enums.RoleUser,
		Status:   enums.StatusActive,
	}
	identity := &entities.UserIdentity{
		TenantID:     acct.tenantID,
		UserID:       userID,
		IdentityType: acct.identityType,
		Identifier:   acct.identifier,
		Credential:   acct.credential,
	}
	profile := acct.profile
	profile.UserID = userID

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := c.userRepo.CreateUser(ctx, tx, user); err != nil {
			return fmt.Errorf("事务中创建用户失败: %w", err)
		}
		if err := c.identityRepo.CreateIdentity(ctx, tx, identity); err != nil {
			return fmt.Errorf("事务中创建身份失败: %w", err)
		}
		if err := c.profileRepo.CreateProfile(ctx, tx, &profile); err != nil {
			return fmt.Errorf("事务中创建初始用户资料失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.Profile = &profile
	c.bus.PublishUserRegistered(events.UserRegistered{
		TenantID: acct.tenantID,
		UserID:   userID,
		Nickname: profile.Nickname,
		Email:    profile.Email,
		Phone:    profile.Phone,
	})
	return user, nil
}
