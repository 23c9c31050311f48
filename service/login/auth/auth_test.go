package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	commonenums "github.com/Xushengqwer/go-common/models/enums"
	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/starter_hub/apperrors"
	"github.com/Xushengqwer/starter_hub/config"
	"github.com/Xushengqwer/starter_hub/dependencies"
	"github.com/Xushengqwer/starter_hub/events"
	"github.com/Xushengqwer/starter_hub/i18n"
	"github.com/Xushengqwer/starter_hub/models/dto"
	"github.com/Xushengqwer/starter_hub/models/entities"
	"github.com/Xushengqwer/starter_hub/models/enums"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/repository/mysql/mysqltest"
	"github.com/Xushengqwer/starter_hub/repository/redis"
	"github.com/Xushengqwer/starter_hub/service/notification"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	reqs []notification.DispatchRequest
}

func (d *recordingDispatcher) Dispatch(_ context.Context, req notification.DispatchRequest) (*entities.Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reqs = append(d.reqs, req)
	return &entities.Notification{ID: uuid.NewString()}, nil
}

type fixture struct {
	db         *gorm.DB
	mr         *miniredis.Miniredis
	jwt        dependencies.JWTTokenInterface
	bus        *events.Bus
	dispatcher *recordingDispatcher
	account    AccountService
	phone      PhoneAuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := mysqltest.NewDB(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bundle, err := i18n.NewBundle(config.I18nConfig{DefaultLanguage: "en", SupportedLanguages: []string{"en", "zh"}})
	require.NoError(t, err)

	f := &fixture{
		db:         db,
		mr:         mr,
		jwt:        dependencies.NewJWTUtility(&config.JWTConfig{SecretKey: "access", RefreshSecret: "refresh", Issuer: "test"}),
		bus:        events.NewBus(zap.NewNop()),
		dispatcher: &recordingDispatcher{},
	}
	userRepo := mysql.NewUserRepository(db)
	identityRepo := mysql.NewIdentityRepository(db)
	profileRepo := mysql.NewProfileRepository(db)
	f.account = NewAccountService(identityRepo, userRepo, profileRepo, f.jwt, f.bus, db, zap.NewNop())
	f.phone = NewPhoneAuthService(identityRepo, userRepo, profileRepo, redis.NewCodeRepo(client), f.dispatcher, bundle, f.jwt, f.bus, db, zap.NewNop())
	return f
}

func registerData(account string) dto.AccountRegisterData {
	return dto.AccountRegisterData{
		Account:         account,
		Password:        "abc123",
		ConfirmPassword: "abc123",
		Email:           gofakeit.Email(),
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenant := uuid.NewString()

	var (
		mu       sync.Mutex
		received []events.UserRegistered
	)
	require.NoError(t, f.bus.OnUserRegistered(func(evt events.UserRegistered) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, evt)
	}))

	data := registerData("alice_01")
	info, err := f.account.Register(ctx, tenant, data)
	require.NoError(t, err)
	assert.Equal(t, tenant, info.TenantID)

	f.bus.Wait()
	mu.Lock()
	require.Len(t, received, 1)
	assert.Equal(t, info.UserID, received[0].UserID)
	assert.Equal(t, data.Email, received[0].Email)
	assert.Equal(t, "alice_01", received[0].Nickname)
	mu.Unlock()

	_, err = f.account.Register(ctx, tenant, registerData("alice_01"))
	assert.ErrorIs(t, err, apperrors.ErrAccountTaken)

	// 同一账号可以注册在另一个租户下
	_, err = f.account.Register(ctx, uuid.NewString(), registerData("alice_01"))
	require.NoError(t, err)

	loggedIn, pair, err := f.account.Login(ctx, tenant, dto.AccountLoginData{Account: "alice_01", Password: "abc123"}, commonenums.PlatformWeb)
	require.NoError(t, err)
	assert.Equal(t, info.UserID, loggedIn.UserID)
	claims, err := f.jwt.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tenant, claims.TenantID)
	assert.Equal(t, commonenums.RoleUser, claims.Role)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	f := newFixture(t)
	data := registerData("bob")
	data.ConfirmPassword = "other123"
	_, err := f.account.Register(context.Background(), uuid.NewString(), data)
	assert.ErrorIs(t, err, apperrors.ErrPasswordMismatch)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenant := uuid.NewString()
	info, err := f.account.Register(ctx, tenant, registerData("carol"))
	require.NoError(t, err)

	_, _, err = f.account.Login(ctx, tenant, dto.AccountLoginData{Account: "carol", Password: "wrong123"}, commonenums.PlatformWeb)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, _, err = f.account.Login(ctx, uuid.NewString(), dto.AccountLoginData{Account: "carol", Password: "abc123"}, commonenums.PlatformWeb)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, mysql.NewUserRepository(f.db).BlackUser(ctx, tenant, info.UserID))
	_, _, err = f.account.Login(ctx, tenant, dto.AccountLoginData{Account: "carol", Password: "abc123"}, commonenums.PlatformWeb)
	assert.ErrorIs(t, err, apperrors.ErrUserBlacklisted)
}

func sentCode(t *testing.T, d *recordingDispatcher) string {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.reqs)
	last := d.reqs[len(d.reqs)-1]
	assert.Equal(t, enums.ChannelSMS, last.Channel)
	fields := strings.FieldsFunc(last.Body, func(r rune) bool { return r < '0' || r > '9' })
	for _, f := range fields {
		if len(f) == 6 {
			return f
		}
	}
	t.Fatalf("短信内容中没有验证码: %q", last.Body)
	return ""
}

func TestPhoneLoginOrRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenant := uuid.NewString()
	phone := "13812345678"

	require.NoError(t, f.phone.SendCode(ctx, tenant, phone, "zh"))
	code := sentCode(t, f.dispatcher)

	err := f.phone.SendCode(ctx, tenant, phone, "zh")
	assert.ErrorIs(t, err, apperrors.ErrTooManyRequests)

	_, err = f.phone.LoginOrRegister(ctx, tenant, dto.PhoneLoginOrRegisterData{Phone: phone, Code: "000000"}, commonenums.PlatformApp)
	if code != "000000" {
		assert.ErrorIs(t, err, apperrors.ErrCodeInvalid)
	}

	resp, err := f.phone.LoginOrRegister(ctx, tenant, dto.PhoneLoginOrRegisterData{Phone: phone, Code: code}, commonenums.PlatformApp)
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.NotEmpty(t, resp.Token.AccessToken)

	// 验证码只能使用一次
	_, err = f.phone.LoginOrRegister(ctx, tenant, dto.PhoneLoginOrRegisterData{Phone: phone, Code: code}, commonenums.PlatformApp)
	assert.ErrorIs(t, err, apperrors.ErrCodeInvalid)

	f.mr.FastForward(2 * time.Minute)
	require.NoError(t, f.phone.SendCode(ctx, tenant, phone, "en"))
	code = sentCode(t, f.dispatcher)
	again, err := f.phone.LoginOrRegister(ctx, tenant, dto.PhoneLoginOrRegisterData{Phone: phone, Code: code}, commonenums.PlatformApp)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, resp.User.UserID, again.User.UserID)

	profile, err := mysql.NewProfileRepository(f.db).GetProfileByUserID(ctx, resp.User.UserID)
	require.NoError(t, err)
	assert.Equal(t, phone, profile.Phone)
}
