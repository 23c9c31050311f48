package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	commonenums "github.com/Xushengqwer/go-common/models/enums"
	"github.com/alicebob/miniredis/v2"
	"github.com/gavv/httpexpect/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/dependencies"
	"github.com/Xushengqwer/starter_hub/i18n"
	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/repository/redis"
	"github.com/Xushengqwer/starter_hub/response"
)

type stubTenants map[string]bool

func (s stubTenants) ResolveActive(_ context.Context, tenantID string) (*entities.Tenant, error) {
	if tenantID == "" {
		return nil, apperrors.ErrTenantRequired
	}
	if !s[tenantID] {
		return nil, apperrors.ErrTenantNotFound
	}
	return &entities.Tenant{ID: tenantID}, nil
}

type fixture struct {
	engine    *gin.Engine
	norm      *response.Normalizer
	jwt       dependencies.JWTTokenInterface
	blacklist redis.TokenBlackRepo
	auth      *Authenticator
	tenantA   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bundle, err := i18n.NewBundle(config.I18nConfig{DefaultLanguage: "en", SupportedLanguages: []string{"en", "zh"}})
	require.NoError(t, err)
	norm := response.NewNormalizer(bundle, zap.NewNop())

	jwtUtil := dependencies.NewJWTUtility(&config.JWTConfig{SecretKey: "access", RefreshSecret: "refresh", Issuer: "test"})
	blacklist := redis.NewTokenBlacklistRepo(client)

	engine := gin.New()
	engine.Use(i18n.LanguageMiddleware(bundle), norm.ErrorHandler())
	return &fixture{
		engine:    engine,
		norm:      norm,
		jwt:       jwtUtil,
		blacklist: blacklist,
		auth:      NewAuthenticator(jwtUtil, blacklist, norm, zap.NewNop()),
		tenantA:   uuid.NewString(),
	}
}

func (f *fixture) expect(t *testing.T) *httpexpect.Expect {
	server := httptest.NewServer(f.engine)
	t.Cleanup(server.Close)
	return httpexpect.Default(t, server.URL)
}

func (f *fixture) token(t *testing.T, tenantID string, role commonenums.UserRole, status commonenums.UserStatus) string {
	t.Helper()
	tok, err := f.jwt.GenerateAccessToken(tenantID, uuid.NewString(), role, status, commonenums.PlatformWeb)
	require.NoError(t, err)
	return tok
}

func whoami(c *gin.Context) {
	claims, _ := ClaimsFrom(c)
	c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID, "tenant": TenantFrom(c)})
}

func TestRequiredAuthentication(t *testing.T) {
	f := newFixture(t)
	f.engine.GET("/me", f.auth.Required(), whoami)
	e := f.expect(t)

	e.GET("/me").Expect().Status(http.StatusUnauthorized).
		JSON().Object().HasValue("statusCode", 401).NotContainsKey("error")

	e.GET("/me").WithHeader("Authorization", "Bearer not-a-jwt").
		Expect().Status(http.StatusUnauthorized)

	tok := f.token(t, f.tenantA, commonenums.RoleUser, commonenums.StatusActive)
	e.GET("/me").WithHeader("Authorization", "Bearer "+tok).
		Expect().Status(http.StatusOK).JSON().Object().Value("user_id").String().NotEmpty()

	blocked := f.token(t, f.tenantA, commonenums.RoleUser, commonenums.StatusBlacklisted)
	e.GET("/me").WithHeader("Authorization", "Bearer "+blocked).
		Expect().Status(http.StatusForbidden)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	f := newFixture(t)
	f.engine.GET("/me", f.auth.Required(), whoami)
	e := f.expect(t)

	tok := f.token(t, f.tenantA, commonenums.RoleUser, commonenums.StatusActive)
	claims, err := f.jwt.ParseAccessToken(tok)
	require.NoError(t, err)
	require.NoError(t, f.blacklist.AddJtiToBlacklist(context.Background(), claims.ID, time.Minute))

	e.GET("/me").WithHeader("Authorization", "bearer "+tok).
		Expect().Status(http.StatusUnauthorized)
}

func TestOptionalAuthentication(t *testing.T) {
	f := newFixture(t)
	f.engine.GET("/posts", f.auth.Optional(), func(c *gin.Context) {
		_, ok := ClaimsFrom(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})
	e := f.expect(t)

	e.GET("/posts").Expect().Status(http.StatusOK).JSON().Object().HasValue("authenticated", false)

	tok := f.token(t, f.tenantA, commonenums.RoleUser, commonenums.StatusActive)
	e.GET("/posts").WithHeader("Authorization", "Bearer "+tok).
		Expect().Status(http.StatusOK).JSON().Object().HasValue("authenticated", true)

	e.GET("/posts").WithHeader("Authorization", "Bearer broken").
		Expect().Status(http.StatusUnauthorized)
}

func TestRoleGuards(t *testing.T) {
	f := newFixture(t)
	platform := uuid.NewString()
	f.engine.GET("/admin", f.auth.Required(), RequireRole(f.norm, commonenums.RoleAdmin), whoami)
	f.engine.GET("/tenants", f.auth.Required(), RequirePlatformAdmin(f.norm, platform), whoami)
	e := f.expect(t)

	user := f.token(t, f.tenantA, commonenums.RoleUser, commonenums.StatusActive)
	admin := f.token(t, f.tenantA, commonenums.RoleAdmin, commonenums.StatusActive)
	platformAdmin := f.token(t, platform, commonenums.RoleAdmin, commonenums.StatusActive)

	e.GET("/admin").WithHeader("Authorization", "Bearer "+user).Expect().Status(http.StatusForbidden)
	e.GET("/admin").WithHeader("Authorization", "Bearer "+admin).Expect().Status(http.StatusOK)

	e.GET("/tenants").WithHeader("Authorization", "Bearer "+admin).Expect().Status(http.StatusForbidden)
	e.GET("/tenants").WithHeader("Authorization", "Bearer "+platformAdmin).Expect().Status(http.StatusOK)
}

func TestResolveTenant(t *testing.T) {
	f := newFixture(t)
	tenantB := uuid.NewString()
	tenants := stubTenants{f.tenantA: true, tenantB: true}
	f.engine.GET("/public", ResolveTenant(tenants, f.norm, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tenant": TenantFrom(c)})
	})
	f.engine.GET("/me", f.auth.Required(), ResolveTenant(tenants, f.norm, zap.NewNop()), whoami)
	e := f.expect(t)

	e.GET("/public").Expect().Status(http.StatusBadRequest)
	e.GET("/public").WithHeader("X-Tenant-ID", uuid.NewString()).Expect().Status(http.StatusNotFound)
	e.GET("/public").WithHeader("X-Tenant-ID", f.tenantA).
		Expect().Status(http.StatusOK).JSON().Object().HasValue("tenant", f.tenantA)

	// 已登录时忽略请求头，始终使用令牌中的租户
	tok := f.token(t, f.tenantA, commonenums.RoleUser, commonenums.StatusActive)
	e.GET("/me").WithHeader("Authorization", "Bearer "+tok).WithHeader("X-Tenant-ID", tenantB).
		Expect().Status(http.StatusOK).JSON().Object().HasValue("tenant", f.tenantA)

	gone := f.token(t, uuid.NewString(), commonenums.RoleUser, commonenums.StatusActive)
	e.GET("/me").WithHeader("Authorization", "Bearer "+gone).Expect().Status(http.StatusNotFound)
}

func TestRateLimiter(t *testing.T) {
	f := newFixture(t)
	limiter := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2}, f.norm)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }
	f.engine.POST("/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	e := f.expect(t)

	e.POST("/login").Expect().Status(http.StatusNoContent)
	e.POST("/login").Expect().Status(http.StatusNoContent)
	resp := e.POST("/login").Expect().Status(http.StatusTooManyRequests)
	resp.Header("Retry-After").IsEqual("1")
	resp.JSON().Object().HasValue("statusCode", 429)

	clock = clock.Add(time.Second)
	e.POST("/login").Expect().Status(http.StatusNoContent)
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{}, nil)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	require.True(t, limiter.Allow("10.0.0.1"))
	clock = clock.Add(limiterIdleTTL + limiterSweepPeriod)
	require.True(t, limiter.Allow("10.0.0.2"))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	require.Len(t, limiter.limiters, 1)
	require.Contains(t, limiter.limiters, "10.0.0.2")
}
