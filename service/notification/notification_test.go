package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	commonenums "github.com/Xushengqwer/go-common/models/enums"
	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
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
	"github.com/Xushengqwer/starter_hub/querybuilder"
	"github.com/Xushengqwer/starter_hub/repository/mysql"
	"github.com/Xushengqwer/starter_hub/repository/mysql/mysqltest"
	"github.com/Xushengqwer/starter_hub/repository/redis"
)

type fakeEmail struct {
	mu   sync.Mutex
	sent []dependencies.EmailMessage
	err  error
}

func (f *fakeEmail) Send(_ context.Context, msg dependencies.EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeEmail) messages() []dependencies.EmailMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dependencies.EmailMessage(nil), f.sent...)
}

type fakeSMS struct {
	mu    sync.Mutex
	texts map[string]string
}

func (f *fakeSMS) SendCode(context.Context, string, string) error { return nil }

func (f *fakeSMS) SendText(_ context.Context, phone, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts[phone] = content
	return nil
}

func (f *fakeSMS) text(phone string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.texts[phone]
}

type fixture struct {
	db      *gorm.DB
	repo    mysql.NotificationRepository
	queue   redis.NotificationQueue
	svc     NotificationService
	email   *fakeEmail
	sms     *fakeSMS
	metrics *Metrics
	worker  *Worker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := mysqltest.NewDB(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		db:    db,
		repo:  mysql.NewNotificationRepository(db),
		queue: redis.NewNotificationQueue(client),
		email: &fakeEmail{},
		sms:   &fakeSMS{texts: map[string]string{}},
	}
	var err error
	f.metrics, err = NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	f.svc = NewNotificationService(f.repo, mysql.NewUserRepository(db), f.queue, querybuilder.Options{}, zap.NewNop())
	f.worker = NewWorker(f.repo, f.queue, f.email, f.sms, f.metrics, config.NotificationConfig{MaxAttempts: 2}, zap.NewNop())
	return f
}

func seedUser(t *testing.T, db *gorm.DB, tenantID string) *entities.User {
	t.Helper()
	u := &entities.User{
		UserID:   uuid.NewString(),
		TenantID: tenantID,
		UserRole: commonenums.RoleUser,
		Status:   commonenums.StatusActive,
		Profile: &entities.UserProfile{
			Nickname: gofakeit.Name(),
			Email:    gofakeit.Email(),
			Phone:    "13800000000",
		},
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestDispatchAndDeliver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenant := uuid.NewString()
	user := seedUser(t, f.db, tenant)

	n, err := f.svc.SendToUser(ctx, tenant, dto.SendNotificationDTO{
		UserID:  user.UserID,
		Channel: enums.ChannelEmail,
		Subject: "hello",
		Body:    "world",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.NotificationPending, n.Status)
	assert.Equal(t, user.Profile.Email, n.Recipient)

	id, err := f.queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, n.ID, id)
	require.NoError(t, f.worker.Deliver(ctx, id))

	got, err := f.repo.GetNotificationByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.NotificationSent, got.Status)
	assert.Equal(t, 1, got.Attempts)
	require.NotNil(t, got.SentAt)
	require.Len(t, f.email.messages(), 1)
	assert.Equal(t, "hello", f.email.messages()[0].Subject)

	// 已发送的通知再次出队时跳过
	require.NoError(t, f.worker.Deliver(ctx, id))
	assert.Len(t, f.email.messages(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.deliveries.WithLabelValues("email", outcomeSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.deliveries.WithLabelValues("email", outcomeSkipped)))
}

func TestSendToUserValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenant := uuid.NewString()

	_, err := f.svc.SendToUser(ctx, tenant, dto.SendNotificationDTO{UserID: uuid.NewString(), Channel: enums.ChannelSMS, Body: "x"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	user := seedUser(t, f.db, tenant)
	require.NoError(t, f.db.Model(&entities.UserProfile{}).Where("user_id = ?", user.UserID).Update("phone", "").Error)
	_, err = f.svc.SendToUser(ctx, tenant, dto.SendNotificationDTO{UserID: user.UserID, Channel: enums.ChannelSMS, Body: "x"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.True(t, appErr.IsValidation())
}

func TestFailedDeliveryIsRetriedUntilMaxAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.email.err = errors.New("smtp down")

	n, err := f.svc.Dispatch(ctx, DispatchRequest{TenantID: uuid.NewString(), Channel: enums.ChannelEmail, Recipient: gofakeit.Email(), Body: "x"})
	require.NoError(t, err)

	retry, err := NewRetryScheduler(f.repo, f.queue, config.NotificationConfig{MaxAttempts: 2}, zap.NewNop())
	require.NoError(t, err)

	for attempt := 1; attempt <= 2; attempt++ {
		id, err := f.queue.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NoError(t, f.worker.Deliver(ctx, id))

		got, err := f.repo.GetNotificationByID(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, enums.NotificationFailed, got.Status)
		assert.Equal(t, attempt, got.Attempts)
		assert.Equal(t, "smtp down", got.LastError)

		count, err := retry.Sweep(ctx)
		require.NoError(t, err)
		if attempt < 2 {
			assert.Equal(t, 1, count)
		} else {
			assert.Zero(t, count)
		}
	}
	length, err := f.queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestRetrySchedulerRejectsBadSchedule(t *testing.T) {
	f := newFixture(t)
	_, err := NewRetryScheduler(f.repo, f.queue, config.NotificationConfig{RetrySchedule: "every now and then"}, zap.NewNop())
	assert.Error(t, err)
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	n, err := f.svc.Dispatch(ctx, DispatchRequest{TenantID: uuid.NewString(), Channel: enums.ChannelSMS, Recipient: "13900000000", Body: "code 1"})
	require.NoError(t, err)

	worker := NewWorker(f.repo, f.queue, f.email, f.sms, nil, config.NotificationConfig{Workers: 2, PopTimeout: 100 * time.Millisecond}, zap.NewNop())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	assert.Eventually(t, func() bool {
		got, err := f.repo.GetNotificationByID(context.Background(), n.ID)
		return err == nil && got.Status == enums.NotificationSent
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, "code 1", f.sms.text("13900000000"))
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("worker 没有在取消后退出")
	}
}

func TestListMineAndMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenant := uuid.NewString()
	user := seedUser(t, f.db, tenant)

	var ids []string
	for i := 0; i < 3; i++ {
		n, err := f.svc.Dispatch(ctx, DispatchRequest{TenantID: tenant, UserID: user.UserID, Channel: enums.ChannelEmail, Recipient: user.Profile.Email, Body: gofakeit.Sentence(5)})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	_, err := f.svc.Dispatch(ctx, DispatchRequest{TenantID: tenant, UserID: uuid.NewString(), Channel: enums.ChannelEmail, Recipient: gofakeit.Email(), Body: "other"})
	require.NoError(t, err)

	page, err := f.svc.ListMine(ctx, tenant, user.UserID, querybuilder.QueryOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 3, page.Metadata.TotalItems)

	n, err := f.svc.MarkRead(ctx, tenant, user.UserID, ids[0])
	require.NoError(t, err)
	assert.NotNil(t, n.ReadAt)

	_, err = f.svc.MarkRead(ctx, tenant, uuid.NewString(), ids[0])
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
}

type stubTranslator struct{}

func (stubTranslator) Translate(key string, opts i18n.Options) string {
	return key + ":" + opts.Args["tenant"].(string) + ":" + opts.Args["name"].(string)
}

func TestWelcomeMailerDispatchesOnRegistration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenantRepo := mysql.NewTenantRepository(f.db)
	tenant := &entities.Tenant{ID: uuid.NewString(), Slug: "acme", Name: "Acme", Status: enums.TenantActive}
	require.NoError(t, tenantRepo.CreateTenant(ctx, tenant))

	bus := events.NewBus(zap.NewNop())
	mailer := NewWelcomeMailer(f.svc, tenantRepo, stubTranslator{}, "en", zap.NewNop())
	require.NoError(t, mailer.Subscribe(bus))

	bus.PublishUserRegistered(events.UserRegistered{TenantID: tenant.ID, UserID: uuid.NewString(), Nickname: "alice", Email: "alice@example.com"})
	bus.PublishUserRegistered(events.UserRegistered{TenantID: tenant.ID, UserID: uuid.NewString(), Phone: "13800000000"})
	bus.Wait()

	length, err := f.queue.Len(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, length)

	id, err := f.queue.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	n, err := f.repo.GetNotificationByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", n.Recipient)
	assert.Equal(t, "mail.welcome.subject:Acme:alice", n.Subject)
}
