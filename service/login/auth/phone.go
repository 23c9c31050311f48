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
	"github.com/Xushengqwer/starter_hub/constants"
	"github.com/Xushengqwer/starter_hub/dependencies"
	"github.com/Xushengqwer/starter_hub/events"
	"github.com/Xushengqwer/starter_hub/i18n"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/entities"
	myenums "github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/models/vo"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/repository/redis"
	"github.com/Xushengqwer/starter_hub/service/notification"
	"github.com/Xushengqwer/starter_hub/service/token"
	"github.com/Xushengqwer/starter_hub/utils"
)

// PhoneAuthService 定义了基于手机号和验证码认证的服务接口。
type PhoneAuthService interface {
	// SendCode 生成验证码并通过通知队列以短信发送，同一手机号受发送间隔限制。
	SendCode(ctx context.Context, tenantID, phone, lang string) error

	// LoginOrRegister 校验验证码，手机号未注册时自动注册；Created 表示是否新建了账号。
	LoginOrRegister(ctx context.Context, tenantID string, data dto.PhoneLoginOrRegisterData, platform enums.Platform) (vo.LoginResponse, error)
}

type phoneAuthService struct {
	creator      *accountCreator
	identityRepo mysql.IdentityRepository
	userRepo     mysql.UserRepository
	codeRepo     redis.CodeRepo
	dispatcher   notification.Dispatcher
	translator   i18n.Translator
	jwtUtil      dependencies.JWTTokenInterface
	logger       *zap.Logger
}

func NewPhoneAuthService(
	identityRepo mysql.IdentityRepository,
	userRepo mysql.UserRepository,
	profileRepo mysql.ProfileRepository,
	codeRepo redis.CodeRepo,
	dispatcher notification.Dispatcher,
	translator i18n.Translator,
	jwtUtil dependencies.JWTTokenInterface,
	bus *events.Bus,
	db *gorm.DB,
	logger *zap.Logger,
) PhoneAuthService {
	return &phoneAuthService{
		creator: &accountCreator{
			db:           db,
			userRepo:     userRepo,
			identityRepo: identityRepo,
			profileRepo:  profileRepo,
			bus:          bus,
		},
		identityRepo: identityRepo,
		userRepo:     userRepo,
		codeRepo:     codeRepo,
		dispatcher:   dispatcher,
		translator:   translator,
		jwtUtil:      jwtUtil,
		logger:       logger,
	}
}

func (s *phoneAuthService) SendCode(ctx context.Context, tenantID, phone, lang string) error {
	const operation = "PhoneAuthService.SendCode"

	ok, err := s.codeRepo.AcquireSendSlot(ctx, tenantID, phone, constants.PhoneCodeCooldown)
	if err != nil {
		s.logger.Error("检查验证码发送间隔失败", zap.String("operation", operation), zap.String("phone", phone), zap.Error(err))
		return fmt.Errorf("%s: %w", operation, err)
	}
	if !ok {
		s.logger.Warn("验证码发送过于频繁", zap.String("operation", operation), zap.String("phone", phone))
		return apperrors.ErrTooManyRequests
	}

	code, err := utils.GenerateCaptcha()
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if err := s.codeRepo.SetCaptcha(ctx, tenantID, phone, code, constants.PhoneCodeTTL); err != nil {
		s.logger.Error("保存验证码失败", zap.String("operation", operation), zap.String("phone", phone), zap.Error(err))
		return fmt.Errorf("%s: %w", operation, err)
	}

	body := s.translator.Translate("sms.code", i18n.Options{Lang: lang, Args: map[string]any{"code": code}})
	if _, err := s.dispatcher.Dispatch(ctx, notification.DispatchRequest{
		TenantID:  tenantID,
		Channel:   myenums.ChannelSMS,
		Recipient: phone,
		Body:      body,
	}); err != nil {
		s.logger.Error("验证码短信入队失败", zap.String("operation", operation), zap.String("phone", phone), zap.Error(err))
		return apperrors.ErrThirdPartyUnavailable.Wrap(err)
	}

	s.logger.Info("验证码已生成并加入发送队列", zap.String("operation", operation), zap.String("tenantID", tenantID), zap.String("phone", phone))
	return nil
}

func (s *phoneAuthService) LoginOrRegister(ctx context.Context, tenantID string, data dto.PhoneLoginOrRegisterData, platform enums.Platform) (vo.LoginResponse, error) {
	const operation = "PhoneAuthService.LoginOrRegister"

	// 1. 校验验证码，通过后立即删除，保证一次性使用
	storedCode, err := s.codeRepo.GetCaptcha(ctx, tenantID, data.Phone)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			s.logger.Warn("验证码不存在或已过期", zap.String("operation", operation), zap.String("phone", data.Phone))
			return vo.LoginResponse{}, apperrors.ErrCodeInvalid
		}
		s.logger.Error("获取验证码失败", zap.String("operation", operation), zap.String("phone", data.Phone), zap.Error(err))
		return vo.LoginResponse{}, fmt.Errorf("%s: %w", operation, err)
	}
	if storedCode != data.Code {
		s.logger.Warn("用户提交的验证码不匹配", zap.String("operation", operation), zap.String("phone", data.Phone))
		return vo.LoginResponse{}, apperrors.ErrCodeInvalid
	}
	if err := s.codeRepo.DeleteCaptcha(ctx, tenantID, data.Phone); err != nil {
		s.logger.Error("删除已使用的验证码失败", zap.String("operation", operation), zap.String("phone", data.Phone), zap.Error(err))
	}

	// 2. 查找或创建用户
	user, created, err := s.findOrCreate(ctx, tenantID, data.Phone)
	if err != nil {
		s.logger.Error("查找或创建手机号用户失败", zap.String("operation", operation), zap.String("phone", data.Phone), zap.Error(err))
		return vo.LoginResponse{}, fmt.Errorf("%s: %w", operation, err)
	}
	if created {
		s.logger.Info("手机号用户自动注册成功", zap.String("operation", operation), zap.String("userID", user.UserID))
	}

	// 3. 检查状态并签发令牌
	if user.Status != enums.StatusActive {
		s.logger.Warn("被拉黑的用户尝试登录", zap.String("operation", operation), zap.String("userID", user.UserID))
		return vo.LoginResponse{}, apperrors.ErrUserBlacklisted
	}
	pair, err := token.IssueTokenPair(s.jwtUtil, user, platform)
	if err != nil {
		s.logger.Error("签发令牌失败", zap.String("operation", operation), zap.String("userID", user.UserID), zap.Error(err))
		return vo.LoginResponse{}, fmt.Errorf("%s: %w", operation, err)
	}

	s.logger.Info("手机号登录/注册成功",
		zap.String("operation", operation),
		zap.String("userID", user.UserID),
		zap.Bool("created", created),
		zap.Any("platform", platform),
	)
	return vo.LoginResponse{
		User:    vo.Userinfo{UserID: user.UserID, TenantID: tenantID},
		Token:   pair,
		Created: created,
	}, nil
}

// findOrCreate 按手机号身份查找用户，不存在时自动注册。
// - 并发首次登录时唯一索引冲突的一方回退为查找。
func (s *phoneAuthService) findOrCreate(ctx context.Context, tenantID, phone string) (*entities.User, bool, error) {
	cred, err := s.identityRepo.GetIdentityByTypeAndIdentifier(ctx, tenantID, myenums.Phone, phone)
	if err == nil {
		user, err := s.userRepo.GetUserByID(ctx, tenantID, cred.UserID)
		return user, false, err
	}
	if !errors.Is(err, commonerrors.ErrRepoNotFound) {
		return nil, false, err
	}

	user, err := s.creator.create(ctx, newAccount{
		tenantID:     tenantID,
		identityType: myenums.Phone,
		identifier:   phone,
		profile:      entities.UserProfile{Nickname: phone, Phone: phone},
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		cred, err = s.identityRepo.GetIdentityByTypeAndIdentifier(ctx, tenantID, myenums.Phone, phone)
		if err != nil {
			return nil, false, err
		}
		user, err = s.userRepo.GetUserByID(ctx, tenantID, cred.UserID)
		return user, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
