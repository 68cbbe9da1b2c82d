package broker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"coursebot/internal/core/domain"
)

// --- Mocks ---

type MockPaymentRequestRepository struct {
	mock.Mock
}

func (m *MockPaymentRequestRepository) Create(ctx context.Context, req *domain.PaymentRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
func (m *MockPaymentRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRequest), args.Error(1)
}
func (m *MockPaymentRequestRepository) PendingForUser(ctx context.Context, userID uuid.UUID) (*domain.PaymentRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRequest), args.Error(1)
}
func (m *MockPaymentRequestRepository) ListPending(ctx context.Context) ([]*domain.PaymentRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentRequest), args.Error(1)
}
func (m *MockPaymentRequestRepository) List(ctx context.Context) ([]*domain.PaymentRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentRequest), args.Error(1)
}
func (m *MockPaymentRequestRepository) MarkNotified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockPaymentRequestRepository) Transition(ctx context.Context, id uuid.UUID, to domain.PaymentRequestStatus, actor *string) (*domain.PaymentRequest, error) {
	args := m.Called(ctx, id, to, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentRequest), args.Error(1)
}
func (m *MockPaymentRequestRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockPaymentRequestRepository) CountConfirmed(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockPaymentMethodRepository struct {
	mock.Mock
}

func (m *MockPaymentMethodRepository) ListActive(ctx context.Context) ([]*domain.PaymentMethod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentMethod), args.Error(1)
}
func (m *MockPaymentMethodRepository) List(ctx context.Context) ([]*domain.PaymentMethod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentMethod), args.Error(1)
}
func (m *MockPaymentMethodRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentMethod), args.Error(1)
}
func (m *MockPaymentMethodRepository) Create(ctx context.Context, method *domain.PaymentMethod) error {
	args := m.Called(ctx, method)
	return args.Error(0)
}
func (m *MockPaymentMethodRepository) Update(ctx context.Context, method *domain.PaymentMethod) error {
	args := m.Called(ctx, method)
	return args.Error(0)
}
func (m *MockPaymentMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context) (*domain.BotSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BotSettings), args.Error(1)
}
func (m *MockSettingsRepository) Save(ctx context.Context, settings *domain.BotSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}
func (m *MockLocker) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// --- Helpers ---

var testDefaults = Defaults{Price: 4000, Currency: "KZT"}

type testDeps struct {
	reqs     *MockPaymentRequestRepository
	methods  *MockPaymentMethodRepository
	settings *MockSettingsRepository
	locker   *MockLocker
}

func newTestService() (*Service, testDeps) {
	deps := testDeps{
		reqs:     new(MockPaymentRequestRepository),
		methods:  new(MockPaymentMethodRepository),
		settings: new(MockSettingsRepository),
		locker:   new(MockLocker),
	}
	nopLogger := zerolog.Nop()
	svc := NewService(deps.reqs, deps.methods, deps.settings, deps.locker, testDefaults, &nopLogger)
	return svc, deps
}

func openLock(deps testDeps) {
	deps.locker.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	deps.locker.On("Release", mock.Anything, mock.Anything).Return(nil)
}

// --- Tests ---

func TestEnsurePending_CreatesWithSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, deps := newTestService()
	openLock(deps)

	user := &domain.User{ID: uuid.New(), TelegramID: 42}
	methodPrice := 5500
	method := &domain.PaymentMethod{
		ID:         uuid.New(),
		Name:       "Kaspi перевод",
		PaymentURL: "https://kaspi.kz/pay?amount={price}",
		ButtonText: "💳 Kaspi",
		Price:      &methodPrice,
		IsActive:   true,
	}

	deps.reqs.On("PendingForUser", ctx, user.ID).Return(nil, nil).Once()
	deps.methods.On("GetByID", ctx, method.ID).Return(method, nil).Once()
	deps.settings.On("Get", ctx).Return(domain.DefaultSettings(), nil)
	deps.reqs.On("Create", ctx, mock.MatchedBy(func(req *domain.PaymentRequest) bool {
		return req.UserID == user.ID &&
			req.MethodName == "Kaspi перевод" &&
			req.PaymentURL == "https://kaspi.kz/pay?amount=5500" &&
			req.Price == 5500 &&
			req.Currency == "KZT" &&
			req.Status == domain.PaymentRequestPending
	})).Return(nil).Once()

	req, created, err := svc.EnsurePending(ctx, user, method.ID)
	assert.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 5500, req.Price)
	deps.reqs.AssertExpectations(t)
}

func TestEnsurePending_ReusesExisting(t *testing.T) {
	ctx := context.Background()
	svc, deps := newTestService()
	openLock(deps)

	user := &domain.User{ID: uuid.New()}
	existing := &domain.PaymentRequest{
		ID:     uuid.New(),
		UserID: user.ID,
		Status: domain.PaymentRequestPending,
	}
	deps.reqs.On("PendingForUser", ctx, user.ID).Return(existing, nil)

	req, created, err := svc.EnsurePending(ctx, user, uuid.New())
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, existing, req)

	// A repeated tap still lands on the same request
	again, created, err := svc.EnsurePending(ctx, user, uuid.New())
	assert.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, existing, again)

	deps.methods.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	deps.reqs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEnsurePending_SettingsPriceWhenMethodHasNone(t *testing.T) {
	ctx := context.Background()
	svc, deps := newTestService()
	openLock(deps)

	user := &domain.User{ID: uuid.New()}
	method := &domain.PaymentMethod{
		ID:         uuid.New(),
		Name:       "Перевод на карту",
		PaymentURL: "https://example.com/pay",
		IsActive:   true,
	}
	settingsPrice := 3000
	settings := domain.DefaultSettings()
	settings.PaymentPrice = &settingsPrice

	deps.reqs.On("PendingForUser", ctx, user.ID).Return(nil, nil).Once()
	deps.methods.On("GetByID", ctx, method.ID).Return(method, nil).Once()
	deps.settings.On("Get", ctx).Return(settings, nil)
	deps.reqs.On("Create", ctx, mock.MatchedBy(func(req *domain.PaymentRequest) bool {
		return req.Price == 3000
	})).Return(nil).Once()

	_, created, err := svc.EnsurePending(ctx, user, method.ID)
	assert.NoError(t, err)
	assert.True(t, created)
	deps.reqs.AssertExpectations(t)
}

func TestConfirm_AlreadyProcessed(t *testing.T) {
	ctx := context.Background()
	svc, deps := newTestService()

	admin := "admin"
	reqID := uuid.New()
	confirmed := &domain.PaymentRequest{ID: reqID, Status: domain.PaymentRequestConfirmed}

	deps.reqs.On("Transition", ctx, reqID, domain.PaymentRequestConfirmed, &admin).
		Return(confirmed, domain.ErrAlreadyProcessed).Once()

	req, err := svc.Confirm(ctx, reqID, admin)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	// The caller still sees the current row to report what happened
	assert.Equal(t, domain.PaymentRequestConfirmed, req.Status)
}

func TestRejectAndCancel(t *testing.T) {
	ctx := context.Background()
	svc, deps := newTestService()

	admin := "admin"
	reqID := uuid.New()
	rejected := &domain.PaymentRequest{ID: reqID, Status: domain.PaymentRequestRejected}
	cancelled := &domain.PaymentRequest{ID: reqID, Status: domain.PaymentRequestCancelled}

	deps.reqs.On("Transition", ctx, reqID, domain.PaymentRequestRejected, &admin).Return(rejected, nil).Once()
	deps.reqs.On("Transition", ctx, reqID, domain.PaymentRequestCancelled, (*string)(nil)).Return(cancelled, nil).Once()

	req, err := svc.Reject(ctx, reqID, admin)
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentRequestRejected, req.Status)

	req, err = svc.Cancel(ctx, reqID)
	assert.NoError(t, err)
	assert.Equal(t, domain.PaymentRequestCancelled, req.Status)
	deps.reqs.AssertExpectations(t)
}
