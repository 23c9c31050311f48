package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/models/enums"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/dependencies"
	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/models/vo"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/repository/redis"
)

// AuthTokenService 管理登录之后的令牌生命周期：续期和吊销。
// - 与具体登录方式解耦，登录服务只通过 IssueTokenPair 生成初始令牌。
type AuthTokenService interface {
	// Logout 把当前访问令牌的 JTI 加入黑名单直到其自然过期；
	// refreshToken 非空时一并吊销，解析失败的刷新令牌视为已失效，直接忽略。
	Logout(ctx context.Context, access *dependencies.CustomClaims, refreshToken string) error

	// RefreshToken 用有效的刷新令牌换取新的令牌对，旧的刷新令牌随即吊销（轮换）。
	RefreshToken(ctx context.Context, refreshToken string) (vo.TokenPair, error)
}

type authTokenService struct {
	tokenBlackRepo redis.TokenBlackRepo
	userRepo       mysql.UserRepository
	jwtUtil        dependencies.JWTTokenInterface
	now            func() time.Time
	logger         *zap.Logger
}

func NewAuthTokenService(
	tokenBlackRepo redis.TokenBlackRepo,
	userRepo mysql.UserRepository,
	jwtUtil dependencies.JWTTokenInterface,
	logger *zap.Logger,
) AuthTokenService {
	return &authTokenService{
		tokenBlackRepo: tokenBlackRepo,
		userRepo:       userRepo,
		jwtUtil:        jwtUtil,
		now:            time.Now,
		logger:         logger,
	}
}

// IssueTokenPair 为用户生成访问令牌和刷新令牌。
func IssueTokenPair(jwtUtil dependencies.JWTTokenInterface, user *entities.User, platform enums.Platform) (vo.TokenPair, error) {
	accessToken, err := jwtUtil.GenerateAccessToken(user.TenantID, user.UserID, user.UserRole, user.Status, platform)
	if err != nil {
		return vo.TokenPair{}, fmt.Errorf("生成访问令牌失败: %w", err)
	}
	refreshToken, err := jwtUtil.GenerateRefreshToken(user.TenantID, user.UserID, platform)
	if err != nil {
		return vo.TokenPair{}, fmt.Errorf("生成刷新令牌失败: %w", err)
	}
	return vo.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *authTokenService) Logout(ctx context.Context, access *dependencies.CustomClaims, refreshToken string) error {
	const operation = "AuthTokenService.Logout"

	if err := s.revoke(ctx, access); err != nil {
		s.logger.Error("将访问令牌加入黑名单失败",
			zap.String("operation", operation),
			zap.String("jti", access.ID),
			zap.String("userID", access.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", operation, err)
	}

	if refreshToken != "" {
		claims, err := s.jwtUtil.ParseRefreshToken(refreshToken)
		if err != nil {
			s.logger.Warn("退出登录时刷新令牌无效，跳过吊销", zap.String("operation", operation), zap.Error(err))
		} else if claims.UserID == access.UserID && claims.TenantID == access.TenantID {
			// 刷新令牌很快会自然过期，吊销失败不阻塞退出
			if err := s.revoke(ctx, claims); err != nil {
				s.logger.Error("将刷新令牌加入黑名单失败", zap.String("operation", operation), zap.String("jti", claims.ID), zap.Error(err))
			}
		}
	}

	s.logger.Info("用户退出登录",
		zap.String("operation", operation),
		zap.String("tenantID", access.TenantID),
		zap.String("userID", access.UserID),
	)
	return nil
}

// revoke 在令牌剩余有效期内把 JTI 加入黑名单，已过期的令牌不需要处理。
func (s *authTokenService) revoke(ctx context.Context, claims *dependencies.CustomClaims) error {
	ttl := claims.RemainingTTL(s.now())
	if ttl <= 0 || claims.ID == "" {
		return nil
	}
	return s.tokenBlackRepo.AddJtiToBlacklist(ctx, claims.ID, ttl)
}

func (s *authTokenService) RefreshToken(ctx context.Context, refreshToken string) (vo.TokenPair, error) {
	const operation = "AuthTokenService.RefreshToken"

	if refreshToken == "" {
		return vo.TokenPair{}, apperrors.ErrTokenMissing
	}
	claims, err := s.jwtUtil.ParseRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("刷新令牌无效", zap.String("operation", operation), zap.Error(err))
		return vo.TokenPair{}, apperrors.ErrTokenInvalid.Wrap(err)
	}

	revoked, err := s.tokenBlackRepo.IsJtiBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error("检查刷新令牌黑名单失败", zap.String("operation", operation), zap.String("jti", claims.ID), zap.Error(err))
		return vo.TokenPair{}, fmt.Errorf("%s: %w", operation, err)
	}
	if revoked {
		s.logger.Warn("使用已吊销的刷新令牌", zap.String("operation", operation), zap.String("jti", claims.ID), zap.String("userID", claims.UserID))
		return vo.TokenPair{}, apperrors.ErrTokenRevoked
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.TenantID, claims.UserID)
	if err != nil {
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			s.logger.Warn("刷新令牌对应的用户不存在", zap.String("operation", operation), zap.String("userID", claims.UserID))
			return vo.TokenPair{}, apperrors.ErrTokenInvalid
		}
		s.logger.Error("查询用户失败", zap.String("operation", operation), zap.String("userID", claims.UserID), zap.Error(err))
		return vo.TokenPair{}, fmt.Errorf("%s: %w", operation, err)
	}
	if user.Status != enums.StatusActive {
		s.logger.Warn("被拉黑的用户尝试刷新令牌", zap.String("operation", operation), zap.String("userID", user.UserID))
		return vo.TokenPair{}, apperrors.ErrUserBlacklisted
	}

	pair, err := IssueTokenPair(s.jwtUtil, user, claims.Platform)
	if err != nil {
		s.logger.Error("生成新令牌失败", zap.String("operation", operation), zap.String("userID", user.UserID), zap.Error(err))
		return vo.TokenPair{}, fmt.Errorf("%s: %w", operation, err)
	}
	if err := s.revoke(ctx, claims); err != nil {
		s.logger.Error("吊销旧刷新令牌失败", zap.String("operation", operation), zap.String("jti", claims.ID), zap.Error(err))
	}

	s.logger.Info("令牌刷新成功", zap.String("operation", operation), zap.String("userID", user.UserID))
	return pair, nil
}
