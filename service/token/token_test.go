package token

import (
	"context"
	"testing"

	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/dependencies"
	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/repository/mysql/mysqltest"
	"github.com/Xushengqwer/starter_hub/repository/redis"
)

type fixture struct {
	db        *gorm.DB
	jwt       dependencies.JWTTokenInterface
	blacklist redis.TokenBlackRepo
	svc       AuthTokenService
	user      *entities.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := mysqltest.NewDB(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		db:        db,
		jwt:       dependencies.NewJWTUtility(&config.JWTConfig{SecretKey: "access", RefreshSecret: "refresh", Issuer: "test"}),
		blacklist: redis.NewTokenBlacklistRepo(client),
		user: &entities.User{
			UserID:   uuid.NewString(),
			TenantID: uuid.NewString(),
			UserRole: enums.RoleUser,
			Status:   enums.StatusActive,
		},
	}
	require.NoError(t, db.Create(f.user).Error)
	f.svc = NewAuthTokenService(f.blacklist, mysql.NewUserRepository(db), f.jwt, zap.NewNop())
	return f
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair, err := IssueTokenPair(f.jwt, f.user, enums.PlatformApp)
	require.NoError(t, err)

	next, err := f.svc.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	claims, err := f.jwt.ParseAccessToken(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, f.user.TenantID, claims.TenantID)
	assert.Equal(t, enums.PlatformApp, claims.Platform)

	_, err = f.svc.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	_, err = f.svc.RefreshToken(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrTokenMissing)

	// 访问令牌不能当作刷新令牌使用
	_, err = f.svc.RefreshToken(ctx, next.AccessToken)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrTokenInvalid.Key, appErr.Key)
}

func TestRefreshTokenRejectsBlacklistedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := IssueTokenPair(f.jwt, f.user, enums.PlatformWeb)
	require.NoError(t, err)

	require.NoError(t, mysql.NewUserRepository(f.db).BlackUser(ctx, f.user.TenantID, f.user.UserID))
	_, err = f.svc.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUserBlacklisted)
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pair, err := IssueTokenPair(f.jwt, f.user, enums.PlatformWeb)
	require.NoError(t, err)
	access, err := f.jwt.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := f.jwt.ParseRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, access, pair.RefreshToken))

	revoked, err := f.blacklist.IsJtiBlacklisted(ctx, access.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = f.blacklist.IsJtiBlacklisted(ctx, refresh.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	// 无效的刷新令牌不影响退出
	require.NoError(t, f.svc.Logout(ctx, access, "garbage"))
}
