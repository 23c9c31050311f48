package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	commonenums "github.com/Xushengqwer/go-common/models/enums"
	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/gavv/httpexpect/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/constants"
	"github.com/Xushengqwer/starter_hub/dependencies"
	"github.com/Xushengqwer/starter_hub/events"
	"github.com/Xushengqwer/starter_hub/i18n"
	"github.com/Xushengqwer/starter_hub/middleware"
	"github.com/Xushengqwer/starter_hub/querybuilder"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/repository/mysql/mysqltest"
	"github.com/Xushengqwer/starter_hub/repository/redis"
	"github.com/Xushengqwer/starter_hub/response"
	"github.com/Xushengqwer/starter_hub/service/login/auth"
	"github.com/Xushengqwer/starter_hub/service/post"
	"github.com/Xushengqwer/starter_hub/service/profile"
	"github.com/Xushengqwer/starter_hub/service/tenant"
	"github.com/Xushengqwer/starter_hub/service/token"
	"github.com/Xushengqwer/starter_hub/utils"
)

const prefix = "/api/v1/starter-hub"

type apiFixture struct {
	e                *httpexpect.Expect
	jwt              dependencies.JWTTokenInterface
	platformTenantID string
	cookies          config.CookieConfig
}

// newAPI 用真实的服务、内存 SQLite 和 miniredis 组装出与生产一致的路由。
func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, utils.RegisterCustomValidators())

	db := mysqltest.NewDB(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	bundle, err := i18n.NewBundle(config.I18nConfig{DefaultLanguage: "en", SupportedLanguages: []string{"en", "zh"}})
	require.NoError(t, err)
	norm := response.NewNormalizer(bundle, logger)
	jwtUtil := dependencies.NewJWTUtility(&config.JWTConfig{SecretKey: "access", RefreshSecret: "refresh", Issuer: "test"})
	bus := events.NewBus(logger)
	t.Cleanup(bus.Wait)
	defaults := querybuilder.Options{DefaultLimit: 10, MaxLimit: 50}
	cookies := config.CookieConfig{Path: "/", HttpOnly: true}

	tenantRepo := mysql.NewTenantRepository(db)
	identityRepo := mysql.NewIdentityRepository(db)
	userRepo := mysql.NewUserRepository(db)
	profileRepo := mysql.NewProfileRepository(db)
	blacklist := redis.NewTokenBlacklistRepo(client)

	tenants := tenant.NewTenantService(tenantRepo, defaults, logger)
	authenticator := middleware.NewAuthenticator(jwtUtil, blacklist, norm, logger)
	platformTenantID := uuid.NewString()
	guards := Guards{
		Auth:          authenticator.Required(),
		OptionalAuth:  authenticator.Optional(),
		Tenant:        middleware.ResolveTenant(tenants, norm, logger),
		Admin:         middleware.RequireRole(norm, commonenums.RoleAdmin),
		PlatformAdmin: middleware.RequirePlatformAdmin(norm, platformTenantID),
		RateLimit:     middleware.NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100}, norm).Middleware(),
	}

	engine := gin.New()
	engine.Use(norm.ErrorHandler(), i18n.LanguageMiddleware(bundle))
	v1 := engine.Group(prefix)
	NewTenantController(tenants, norm, logger).RegisterRoutes(v1, guards)
	NewAccountController(auth.NewAccountService(identityRepo, userRepo, profileRepo, jwtUtil, bus, db, logger), norm, logger, cookies).
		RegisterRoutes(v1, guards)
	NewAuthTokenController(token.NewAuthTokenService(blacklist, userRepo, jwtUtil, logger), norm, logger, cookies).
		RegisterRoutes(v1, guards)
	NewUserProfileController(profile.NewUserProfileService(userRepo, profileRepo, identityRepo, logger), norm, logger).
		RegisterRoutes(v1, guards)
	NewPostController(post.NewPostService(mysql.NewPostRepository(db), db, bus, defaults, logger), norm, logger).
		RegisterRoutes(v1, guards)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return &apiFixture{
		e:                httpexpect.Default(t, server.URL),
		jwt:              jwtUtil,
		platformTenantID: platformTenantID,
		cookies:          cookies,
	}
}

func (f *apiFixture) platformAdminToken(t *testing.T) string {
	t.Helper()
	tok, err := f.jwt.GenerateAccessToken(f.platformTenantID, uuid.NewString(), commonenums.RoleAdmin, commonenums.StatusActive, commonenums.PlatformWeb)
	require.NoError(t, err)
	return tok
}

func (f *apiFixture) createTenant(t *testing.T) string {
	t.Helper()
	return f.e.POST(prefix+"/tenants").
		WithHeader("Authorization", "Bearer "+f.platformAdminToken(t)).
		WithJSON(map[string]string{"slug": "acme-" + strings.ToLower(gofakeit.LetterN(6)), "name": gofakeit.Company()}).
		Expect().Status(http.StatusCreated).
		JSON().Object().Value("data").Object().Value("id").String().NotEmpty().Raw()
}

func TestTenantRoutesRequirePlatformAdmin(t *testing.T) {
	f := newAPI(t)

	f.e.POST(prefix + "/tenants").WithJSON(map[string]string{"slug": "acme", "name": "Acme"}).
		Expect().Status(http.StatusUnauthorized)

	userToken, err := f.jwt.GenerateAccessToken(uuid.NewString(), uuid.NewString(), commonenums.RoleAdmin, commonenums.StatusActive, commonenums.PlatformWeb)
	require.NoError(t, err)
	f.e.POST(prefix+"/tenants").WithHeader("Authorization", "Bearer "+userToken).
		WithJSON(map[string]string{"slug": "acme", "name": "Acme"}).
		Expect().Status(http.StatusForbidden)

	tenantID := f.createTenant(t)
	f.e.GET(prefix+"/tenants/"+tenantID).WithHeader("Authorization", "Bearer "+f.platformAdminToken(t)).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object().HasValue("id", tenantID)
}

func TestAccountLifecycle(t *testing.T) {
	f := newAPI(t)
	tenantID := f.createTenant(t)
	account := "user_" + gofakeit.LetterN(6)

	// 缺少租户头
	f.e.POST(prefix + "/account/register").
		WithJSON(map[string]string{"account": account, "password": "abc123", "confirmPassword": "abc123"}).
		Expect().Status(http.StatusBadRequest)

	// 校验错误带逐字段消息
	f.e.POST(prefix+"/account/register").WithHeader(constants.HeaderTenantID, tenantID).
		WithJSON(map[string]string{"account": account}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().Value("error").Array().NotEmpty()

	f.e.POST(prefix+"/account/register").WithHeader(constants.HeaderTenantID, tenantID).
		WithJSON(map[string]string{"account": account, "password": "abc123", "confirmPassword": "abc123"}).
		Expect().Status(http.StatusCreated).
		JSON().Object().Value("data").Object().HasValue("tenant_id", tenantID)

	f.e.POST(prefix+"/account/register").WithHeader(constants.HeaderTenantID, tenantID).
		WithJSON(map[string]string{"account": account, "password": "abc123", "confirmPassword": "abc123"}).
		Expect().Status(http.StatusConflict)

	f.e.POST(prefix+"/account/login").WithHeader(constants.HeaderTenantID, tenantID).
		WithHeader(HeaderPlatform, "desktop").
		WithJSON(map[string]string{"account": account, "password": "abc123"}).
		Expect().Status(http.StatusBadRequest)

	f.e.POST(prefix+"/account/login").WithHeader(constants.HeaderTenantID, tenantID).
		WithJSON(map[string]string{"account": account, "password": "wrong1"}).
		Expect().Status(http.StatusUnauthorized)

	// Web 端：刷新令牌只出现在 Cookie 中
	login := f.e.POST(prefix+"/account/login").WithHeader(constants.HeaderTenantID, tenantID).
		WithJSON(map[string]string{"account": account, "password": "abc123"}).
		Expect().Status(http.StatusOK)
	tokenObj := login.JSON().Object().Value("data").Object().Value("token").Object()
	tokenObj.NotContainsKey("refresh_token")
	access := tokenObj.Value("access_token").String().NotEmpty().Raw()
	refresh := login.Cookie(f.cookies.TokenCookieName()).Value().NotEmpty().Raw()

	bearer := "Bearer " + access
	f.e.GET(prefix+"/me/profile").WithHeader("Authorization", bearer).WithHeader(constants.HeaderTenantID, tenantID).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object().NotEmpty()

	refreshed := f.e.POST(prefix+"/auth/refresh-token").
		WithCookie(f.cookies.TokenCookieName(), refresh).
		Expect().Status(http.StatusOK)
	refreshed.JSON().Object().Value("data").Object().Value("access_token").String().NotEmpty()
	refreshed.Cookie(f.cookies.TokenCookieName()).Value().NotEqual(refresh)

	// 旧刷新令牌已被吊销
	f.e.POST(prefix+"/auth/refresh-token").WithCookie(f.cookies.TokenCookieName(), refresh).
		Expect().Status(http.StatusUnauthorized)

	f.e.POST(prefix+"/auth/logout").WithHeader("Authorization", bearer).
		Expect().Status(http.StatusOK)
	f.e.GET(prefix+"/me/profile").WithHeader("Authorization", bearer).WithHeader(constants.HeaderTenantID, tenantID).
		Expect().Status(http.StatusUnauthorized)
}

func TestPostsArePaginatedPerTenant(t *testing.T) {
	f := newAPI(t)
	tenantA := f.createTenant(t)
	tenantB := f.createTenant(t)

	author, err := f.jwt.GenerateAccessToken(tenantA, uuid.NewString(), commonenums.RoleUser, commonenums.StatusActive, commonenums.PlatformWeb)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		f.e.POST(prefix+"/posts").
			WithHeader("Authorization", "Bearer "+author).
			WithJSON(map[string]any{"title": gofakeit.Sentence(4), "category": "news", "publish": true}).
			Expect().Status(http.StatusCreated).
			JSON().Object().Value("data").Object().HasValue("status", "published")
	}

	page := f.e.GET(prefix+"/posts").WithHeader(constants.HeaderTenantID, tenantA).
		WithQuery("limit", 2).WithQuery("sortBy", "created_at").WithQuery("sortOrder", "desc").
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object()
	page.Value("items").Array().Length().IsEqual(2)
	page.Value("metadata").Object().
		HasValue("totalItems", 3).
		HasValue("totalPages", 2).
		HasValue("hasNextPage", true)

	f.e.GET(prefix+"/posts").WithHeader(constants.HeaderTenantID, tenantB).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object().Value("items").Array().IsEmpty()

	f.e.GET(prefix+"/posts").WithHeader(constants.HeaderTenantID, tenantA).WithQuery("sortBy", "password").
		Expect().Status(http.StatusBadRequest)

	feed := f.e.GET(prefix+"/posts/feed").WithHeader(constants.HeaderTenantID, tenantA).WithQuery("limit", 2).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object()
	feed.Value("data").Array().Length().IsEqual(2)
	feed.Value("nextCursor").NotNull()
}

func TestPostListFiltersThroughQueryString(t *testing.T) {
	f := newAPI(t)
	tenantID := f.createTenant(t)

	author, err := f.jwt.GenerateAccessToken(tenantID, uuid.NewString(), commonenums.RoleUser, commonenums.StatusActive, commonenums.PlatformWeb)
	require.NoError(t, err)
	for _, p := range []map[string]any{
		{"title": "secret launch", "category": "news", "publish": true},
		{"title": "secret draft", "category": "news"},
		{"title": "weekly digest", "category": "life", "publish": true},
	} {
		f.e.POST(prefix+"/posts").WithHeader("Authorization", "Bearer "+author).WithJSON(p).
			Expect().Status(http.StatusCreated)
	}

	list := func() *httpexpect.Request {
		return f.e.GET(prefix+"/posts").WithHeader(constants.HeaderTenantID, tenantID)
	}

	list().WithQuery("filters", `{"category":{"in":["news","life"]}}`).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object().Value("metadata").Object().HasValue("totalItems", 2)

	items := list().WithQuery("searchQuery", "secret").WithQuery("searchFields", "title").
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object().Value("items").Array()
	items.Length().IsEqual(1)
	items.Value(0).Object().HasValue("title", "secret launch")

	list().WithQuery("filters", `{"AND":1}`).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().
		HasValue("statusCode", 400).
		HasValue("message", "Query parameter filters.AND is malformed")

	list().WithQuery("filters", `{"view_count":{"between":[1,2]}}`).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().HasValue("message", "Query parameter filters.view_count.between is malformed")
}
