package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/dependencies"
	"github.com/Xushengqwer/starter_hub/events"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/entities"
	myenums "github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/models/vo"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/service/token"
	"github.com/Xushengqwer/starter_hub/utils"
)

// AccountService 定义了基于账号密码的认证服务接口，所有操作都限定在租户内。
type AccountService interface {
	// Register 注册账号，注册成功后不自动登录，不返回令牌。
	Register(ctx context.Context, tenantID string, data dto.AccountRegisterData) (vo.Userinfo, error)

	// Login 校验账号密码并签发令牌。
	Login(ctx context.Context, tenantID string, data dto.AccountLoginData, platform enums.Platform) (vo.Userinfo, vo.TokenPair, error)
}

type accountService struct {
	creator      *accountCreator
	identityRepo mysql.IdentityRepository
	userRepo     mysql.UserRepository
	jwtUtil      dependencies.JWTTokenInterface
	logger       *zap.Logger
}

func NewAccountService(
	identityRepo mysql.IdentityRepository,
	userRepo mysql.UserRepository,
	profileRepo mysql.ProfileRepository,
	jwtUtil dependencies.JWTTokenInterface,
	bus *events.Bus,
	db *gorm.DB,
	logger *zap.Logger,
) AccountService {
	return &accountService{
		creator: &accountCreator{
			db:           db,
			userRepo:     userRepo,
			identityRepo: identityRepo,
			profileRepo:  profileRepo,
			bus:          bus,
		},
		identityRepo: identityRepo,
		userRepo:     userRepo,
		jwtUtil:      jwtUtil,
		logger:       logger,
	}
}

func (s *accountService) Register(ctx context.Context, tenantID string, data dto.AccountRegisterData) (vo.Userinfo, error) {
	const operation = "AccountService.Register"

	if data.Password != data.ConfirmPassword {
		return vo.Userinfo{}, apperrors.ErrPasswordMismatch
	}

	// 1. 提前检查账号是否存在，唯一索引兜底并发注册
	_, err := s.identityRepo.GetIdentityByTypeAndIdentifier(ctx, tenantID, myenums.AccountPassword, data.Account)
	if err == nil {
		s.logger.Warn("尝试注册已存在的账号", zap.String("operation", operation), zap.String("tenantID", tenantID), zap.String("account", data.Account))
		return vo.Userinfo{}, apperrors.ErrAccountTaken
	}
	if !errors.Is(err, commonerrors.ErrRepoNotFound) {
		s.logger.Error("检查账号是否存在时出错", zap.String("operation", operation), zap.String("account", data.Account), zap.Error(err))
		return vo.Userinfo{}, fmt.Errorf("%s: %w", operation, err)
	}

	// 2. 哈希密码
	hashedPassword, err := utils.SetPassword(data.Password)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.String("operation", operation), zap.Error(err))
		return vo.Userinfo{}, fmt.Errorf("%s: %w", operation, err)
	}

	nickname := data.Nickname
	if nickname == "" {
		nickname = data.Account
	}

	// 3. 事务中创建用户、身份和资料
	user, err := s.creator.create(ctx, newAccount{
		tenantID:     tenantID,
		identityType: myenums.AccountPassword,
		identifier:   data.Account,
		credential:   hashedPassword,
		profile:      entities.UserProfile{Nickname: nickname, Email: data.Email},
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Warn("并发注册导致账号冲突", zap.String("operation", operation), zap.String("account", data.Account))
			return vo.Userinfo{}, apperrors.ErrAccountTaken
		}
		s.logger.Error("注册事务失败", zap.String("operation", operation), zap.String("account", data.Account), zap.Error(err))
		return vo.Userinfo{}, fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("账号注册成功",
		zap.String("operation", operation),
		zap.String("tenantID", tenantID),
		zap.String("userID", user.UserID),
	)
	return vo.Userinfo{UserID: user.UserID, TenantID: tenantID}, nil
}

func (s *accountService) Login(ctx context.Context, tenantID string, data dto.AccountLoginData, platform enums.Platform) (vo.Userinfo, vo.TokenPair, error) {
	const operation = "AccountService.Login"

	cred, err := s.identityRepo.GetIdentityByTypeAndIdentifier(ctx, tenantID, myenums.AccountPassword, data.Account)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			s.logger.Warn("登录账号不存在", zap.String("operation", operation), zap.String("tenantID", tenantID), zap.String("account", data.Account))
			return vo.Userinfo{}, vo.TokenPair{}, apperrors.ErrInvalidCredentials
		}
		s.logger.Error("查询账号失败", zap.String("operation", operation), zap.String("account", data.Account), zap.Error(err))
		return vo.Userinfo{}, vo.TokenPair{}, fmt.Errorf("%s: %w", operation, err)
	}

	if err := utils.CheckPassword(cred.Credential, data.Password); err != nil {
		s.logger.Warn("密码错误", zap.String("operation", operation), zap.String("userID", cred.UserID))
		return vo.Userinfo{}, vo.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetUserByID(ctx, tenantID, cred.UserID)
	if err != nil {
		// 身份存在但用户已被删除同样按凭证无效处理
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			s.logger.Warn("身份对应的用户不存在", zap.String("operation", operation), zap.String("userID", cred.UserID))
			return vo.Userinfo{}, vo.TokenPair{}, apperrors.ErrInvalidCredentials
		}
		s.logger.Error("获取用户信息失败", zap.String("operation", operation), zap.String("userID", cred.UserID), zap.Error(err))
		return vo.Userinfo{}, vo.TokenPair{}, fmt.Errorf("%s: %w", operation, err)
	}
	if user.Status != enums.StatusActive {
		s.logger.Warn("被拉黑的用户尝试登录", zap.String("operation", operation), zap.String("userID", user.UserID))
		return vo.Userinfo{}, vo.TokenPair{}, apperrors.ErrUserBlacklisted
	}

	pair, err := token.IssueTokenPair(s.jwtUtil, user, platform)
	if err != nil {
		s.logger.Error("签发令牌失败", zap.String("operation", operation), zap.String("userID", user.UserID), zap.Error(err))
		return vo.Userinfo{}, vo.TokenPair{}, fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("账号登录成功",
		zap.String("operation", operation),
		zap.String("tenantID", tenantID),
		zap.String("userID", user.UserID),
		zap.Any("platform", platform),
	)
	return vo.Userinfo{UserID: user.UserID, TenantID: tenantID}, pair, nil
}
