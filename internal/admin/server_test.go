package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ledger"
	"coursebot/internal/core/ports"
	"coursebot/internal/shared/config"
)

// --- Mocks ---

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *MockUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	args := m.Called(ctx, telegramID)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}
func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}
func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]*domain.User)
	return users, args.Error(1)
}
func (m *MockUserRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error {
	return m.Called(ctx, id, status).Error(0)
}
func (m *MockUserRepository) SetLessonDay(ctx context.Context, id uuid.UUID, day int) error {
	return m.Called(ctx, id, day).Error(0)
}
func (m *MockUserRepository) TouchActivity(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockUserRepository) ListBySlot(ctx context.Context, slot string) ([]*domain.User, error) {
	args := m.Called(ctx, slot)
	users, _ := args.Get(0).([]*domain.User)
	return users, args.Error(1)
}
func (m *MockUserRepository) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]*domain.User, error) {
	args := m.Called(ctx, cutoff)
	users, _ := args.Get(0).([]*domain.User)
	return users, args.Error(1)
}
func (m *MockUserRepository) CountByStatus(ctx context.Context) (map[domain.UserStatus]int, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[domain.UserStatus]int)
	return counts, args.Error(1)
}

type MockSubscriptionRepository struct{ mock.Mock }

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}
func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	sub, _ := args.Get(0).(*domain.Subscription)
	return sub, args.Error(1)
}
func (m *MockSubscriptionRepository) ActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Subscription, error) {
	args := m.Called(ctx, userID, now)
	sub, _ := args.Get(0).(*domain.Subscription)
	return sub, args.Error(1)
}
func (m *MockSubscriptionRepository) ListActive(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	args := m.Called(ctx, now)
	subs, _ := args.Get(0).([]*domain.Subscription)
	return subs, args.Error(1)
}
func (m *MockSubscriptionRepository) ListOverdue(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	args := m.Called(ctx, now)
	subs, _ := args.Get(0).([]*domain.Subscription)
	return subs, args.Error(1)
}
func (m *MockSubscriptionRepository) ConfirmTx(ctx context.Context, id uuid.UUID, paymentID string, start, end time.Time) error {
	return m.Called(ctx, id, paymentID, start, end).Error(0)
}
func (m *MockSubscriptionRepository) CreateCompletedTx(ctx context.Context, sub *domain.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}
func (m *MockSubscriptionRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockSubscriptionRepository) SetPaymentID(ctx context.Context, id uuid.UUID, paymentID string) error {
	return m.Called(ctx, id, paymentID).Error(0)
}
func (m *MockSubscriptionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockSubscriptionRepository) Stats(ctx context.Context, now time.Time) (*ports.SubscriptionStats, error) {
	args := m.Called(ctx, now)
	stats, _ := args.Get(0).(*ports.SubscriptionStats)
	return stats, args.Error(1)
}

type MockSettingsRepository struct{ mock.Mock }

func (m *MockSettingsRepository) Get(ctx context.Context) (*domain.BotSettings, error) {
	args := m.Called(ctx)
	settings, _ := args.Get(0).(*domain.BotSettings)
	return settings, args.Error(1)
}
func (m *MockSettingsRepository) Save(ctx context.Context, settings *domain.BotSettings) error {
	return m.Called(ctx, settings).Error(0)
}

type MockEventBus struct{ mock.Mock }

func (m *MockEventBus) Publish(ctx context.Context, topic string, data interface{}) error {
	return m.Called(ctx, topic, data).Error(0)
}
func (m *MockEventBus) Subscribe(topic string, handler ports.EventHandler) {
	m.Called(topic, handler)
}

// --- Helpers ---

type testEnv struct {
	server   *Server
	users    *MockUserRepository
	subs     *MockSubscriptionRepository
	settings *MockSettingsRepository
	bus      *MockEventBus
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:    new(MockUserRepository),
		subs:     new(MockSubscriptionRepository),
		settings: new(MockSettingsRepository),
		bus:      new(MockEventBus),
		now:      time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}

	log := zerolog.Nop()
	led := ledger.NewService(env.subs, env.users, env.settings, nil, ledger.Defaults{
		Price:        4000,
		Currency:     "KZT",
		DurationDays: 30,
	}, &log).WithClock(func() time.Time { return env.now })

	cfg := &config.Config{
		AppEnv: "test",
		Admin:  config.AdminConfig{Port: 8080, Secret: "test-secret"},
		Payment: config.PaymentConfig{
			Price:        4000,
			Currency:     "KZT",
			DurationDays: 30,
		},
		Upload: config.UploadConfig{MaxFileBytes: 1 << 20},
	}

	env.server = New(Deps{
		Cfg:      cfg,
		Users:    env.users,
		Settings: env.settings,
		Ledger:   led,
		Bus:      env.bus,
		Log:      &log,
	})
	return env
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.server.App().Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func pendingSubscription(userID uuid.UUID) *domain.Subscription {
	return &domain.Subscription{
		ID:       uuid.New(),
		UserID:   userID,
		Status:   domain.SubscriptionPending,
		Price:    4000,
		Currency: "KZT",
		Provider: "kaspi",
	}
}

// --- Tests ---

func TestAPIRequiresBearerToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	resp, err := env.server.App().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer wrong-secret")
	resp, err = env.server.App().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPIAcceptsValidToken(t *testing.T) {
	env := newTestEnv(t)
	env.users.On("List", mock.Anything).Return([]*domain.User{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer test-secret")
	resp, err := env.server.App().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestKaspiWebhookConfirmsSubscription(t *testing.T) {
	env := newTestEnv(t)

	userID := uuid.New()
	sub := pendingSubscription(userID)
	completed := *sub
	completed.Status = domain.SubscriptionCompleted

	user := &domain.User{ID: userID, TelegramID: 777}

	env.settings.On("Get", mock.Anything).Return(domain.DefaultSettings(), nil)
	env.subs.On("GetByID", mock.Anything, sub.ID).Return(sub, nil).Once()
	env.subs.On("ConfirmTx", mock.Anything, sub.ID, "PAY-123",
		env.now, env.now.AddDate(0, 0, 30)).Return(nil).Once()
	env.subs.On("GetByID", mock.Anything, sub.ID).Return(&completed, nil).Once()
	env.users.On("GetByID", mock.Anything, userID).Return(user, nil)
	env.bus.On("Publish", mock.Anything, ports.TopicPaymentSucceeded, ports.PaymentOutcome{
		SubscriptionID: sub.ID,
		UserID:         userID,
		ChatID:         777,
	}).Return(nil)

	resp := env.postJSON(t, "/webhooks/kaspi", map[string]string{
		"order_id":   sub.ID.String(),
		"status":     "success",
		"payment_id": "PAY-123",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env.subs.AssertExpectations(t)
	env.bus.AssertExpectations(t)
}

func TestKaspiWebhookReplayDoesNotConfirmTwice(t *testing.T) {
	env := newTestEnv(t)

	userID := uuid.New()
	sub := pendingSubscription(userID)
	sub.Status = domain.SubscriptionCompleted

	env.subs.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
	env.users.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID, TelegramID: 777}, nil)
	env.bus.On("Publish", mock.Anything, ports.TopicPaymentSucceeded, mock.Anything).Return(nil)

	resp := env.postJSON(t, "/webhooks/kaspi", map[string]string{
		"order_id": sub.ID.String(),
		"status":   "completed",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env.subs.AssertNotCalled(t, "ConfirmTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestKaspiWebhookUnknownStatusIgnored(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/webhooks/kaspi", map[string]string{
		"order_id": uuid.NewString(),
		"status":   "processing",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env.subs.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestWebhookBadOrderIDIgnored(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/webhooks/prodamus", map[string]string{
		"order_id":       "not-a-uuid",
		"payment_status": "paid",
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env.subs.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestYookassaCancelMarksPendingFailed(t *testing.T) {
	env := newTestEnv(t)

	userID := uuid.New()
	sub := pendingSubscription(userID)
	failed := *sub
	failed.Status = domain.SubscriptionFailed

	env.subs.On("GetByID", mock.Anything, sub.ID).Return(sub, nil).Once()
	env.subs.On("MarkFailed", mock.Anything, sub.ID).Return(nil).Once()
	env.subs.On("GetByID", mock.Anything, sub.ID).Return(&failed, nil).Once()
	env.users.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID, TelegramID: 555}, nil)
	env.bus.On("Publish", mock.Anything, ports.TopicPaymentFailed, ports.PaymentOutcome{
		SubscriptionID: sub.ID,
		UserID:         userID,
		ChatID:         555,
	}).Return(nil)

	body := map[string]any{
		"event": "payment.canceled",
		"object": map[string]any{
			"id":       "yk-1",
			"status":   "canceled",
			"metadata": map[string]string{"subscription_id": sub.ID.String()},
		},
	}
	resp := env.postJSON(t, "/webhooks/yookassa", body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env.subs.AssertExpectations(t)
	env.bus.AssertExpectations(t)
}

func TestTestSuccessEndpointRunsSettlement(t *testing.T) {
	env := newTestEnv(t)

	userID := uuid.New()
	sub := pendingSubscription(userID)
	sub.Provider = "yukassa"
	completed := *sub
	completed.Status = domain.SubscriptionCompleted

	env.settings.On("Get", mock.Anything).Return(domain.DefaultSettings(), nil)
	env.subs.On("GetByID", mock.Anything, sub.ID).Return(sub, nil).Once()
	env.subs.On("ConfirmTx", mock.Anything, sub.ID, "TEST-"+sub.ID.String(),
		env.now, env.now.AddDate(0, 0, 30)).Return(nil).Once()
	env.subs.On("GetByID", mock.Anything, sub.ID).Return(&completed, nil).Once()
	env.users.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID, TelegramID: 42}, nil)
	env.bus.On("Publish", mock.Anything, ports.TopicPaymentSucceeded, mock.Anything).Return(nil)

	raw, _ := json.Marshal(map[string]string{"subscription_id": sub.ID.String()})
	req := httptest.NewRequest(http.MethodPost, "/api/test/yukassa/success", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-secret")

	resp, err := env.server.App().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env.subs.AssertExpectations(t)
}

func TestManualSubscriptionEndpoint(t *testing.T) {
	env := newTestEnv(t)

	userID := uuid.New()
	user := &domain.User{ID: userID, TelegramID: 99}

	env.settings.On("Get", mock.Anything).Return(domain.DefaultSettings(), nil)
	env.users.On("GetByID", mock.Anything, userID).Return(user, nil)
	env.subs.On("CreateCompletedTx", mock.Anything, mock.MatchedBy(func(sub *domain.Subscription) bool {
		return sub.UserID == userID &&
			sub.Status == domain.SubscriptionCompleted &&
			sub.Provider == domain.ProviderManual &&
			sub.Price == 0
	})).Return(nil)
	env.bus.On("Publish", mock.Anything, ports.TopicManualGrant, mock.MatchedBy(func(grant ports.ManualGrant) bool {
		return grant.UserID == userID && grant.ChatID == 99 && grant.DurationDays == 14
	})).Return(nil)

	raw, _ := json.Marshal(map[string]any{"user_id": userID.String(), "duration_days": 14})
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/manual", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-secret")

	resp, err := env.server.App().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	env.subs.AssertExpectations(t)

	var body struct {
		Status   string `json:"status"`
		Provider string `json:"provider"`
		EndDate  string `json:"end_date"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "completed", body.Status)
	assert.Equal(t, "manual", body.Provider)
	assert.Equal(t, env.now.AddDate(0, 0, 14).Format(time.RFC3339), body.EndDate)
}

func TestManualSubscriptionRejectsBadDuration(t *testing.T) {
	env := newTestEnv(t)

	raw, _ := json.Marshal(map[string]any{"user_id": uuid.NewString(), "duration_days": 0})
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/manual", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-secret")

	resp, err := env.server.App().Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
