package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"coursebot/internal/bot"
	"coursebot/internal/bot/messages"
	"coursebot/internal/core/access"
	"coursebot/internal/core/domain"
	"coursebot/internal/core/ledger"
	"coursebot/internal/core/ports"
	"coursebot/internal/shared/config"
)

// --- Mocks ---

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}
func (m *MockUserRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
func (m *MockUserRepository) SetLessonDay(ctx context.Context, id uuid.UUID, day int) error {
	args := m.Called(ctx, id, day)
	return args.Error(0)
}
func (m *MockUserRepository) TouchActivity(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockUserRepository) ListBySlot(ctx context.Context, slot string) ([]*domain.User, error) {
	args := m.Called(ctx, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}
func (m *MockUserRepository) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]*domain.User, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}
func (m *MockUserRepository) CountByStatus(ctx context.Context) (map[domain.UserStatus]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.UserStatus]int), args.Error(1)
}

type MockLessonRepository struct {
	mock.Mock
}

func (m *MockLessonRepository) GetByNumber(ctx context.Context, number int) (*domain.Lesson, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lesson), args.Error(1)
}
func (m *MockLessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lesson), args.Error(1)
}
func (m *MockLessonRepository) ListActive(ctx context.Context) ([]*domain.Lesson, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Lesson), args.Error(1)
}
func (m *MockLessonRepository) ListByType(ctx context.Context, lessonType domain.LessonType) ([]*domain.Lesson, error) {
	args := m.Called(ctx, lessonType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Lesson), args.Error(1)
}
func (m *MockLessonRepository) List(ctx context.Context) ([]*domain.Lesson, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Lesson), args.Error(1)
}
func (m *MockLessonRepository) Create(ctx context.Context, lesson *domain.Lesson) error {
	args := m.Called(ctx, lesson)
	return args.Error(0)
}
func (m *MockLessonRepository) Update(ctx context.Context, lesson *domain.Lesson) error {
	args := m.Called(ctx, lesson)
	return args.Error(0)
}
func (m *MockLessonRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockLessonRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}
func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}
func (m *MockSubscriptionRepository) ActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Subscription, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}
func (m *MockSubscriptionRepository) ListActive(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Subscription), args.Error(1)
}
func (m *MockSubscriptionRepository) ListOverdue(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Subscription), args.Error(1)
}
func (m *MockSubscriptionRepository) ConfirmTx(ctx context.Context, id uuid.UUID, paymentID string, start, end time.Time) error {
	args := m.Called(ctx, id, paymentID, start, end)
	return args.Error(0)
}
func (m *MockSubscriptionRepository) CreateCompletedTx(ctx context.Context, sub *domain.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}
func (m *MockSubscriptionRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockSubscriptionRepository) SetPaymentID(ctx context.Context, id uuid.UUID, paymentID string) error {
	args := m.Called(ctx, id, paymentID)
	return args.Error(0)
}
func (m *MockSubscriptionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockSubscriptionRepository) Stats(ctx context.Context, now time.Time) (*ports.SubscriptionStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.SubscriptionStats), args.Error(1)
}

type MockDrawingRepository struct {
	mock.Mock
}

func (m *MockDrawingRepository) Create(ctx context.Context, drawing *domain.Drawing) error {
	args := m.Called(ctx, drawing)
	return args.Error(0)
}
func (m *MockDrawingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Drawing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Drawing), args.Error(1)
}
func (m *MockDrawingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Drawing, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Drawing), args.Error(1)
}
func (m *MockDrawingRepository) ListUncommented(ctx context.Context) ([]*domain.Drawing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Drawing), args.Error(1)
}
func (m *MockDrawingRepository) ListPage(ctx context.Context, limit, offset int) ([]*domain.Drawing, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Drawing), args.Int(1), args.Error(2)
}
func (m *MockDrawingRepository) AddComment(ctx context.Context, id uuid.UUID, comment, admin string) error {
	args := m.Called(ctx, id, comment, admin)
	return args.Error(0)
}
func (m *MockDrawingRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
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

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Step(ctx context.Context, telegramID int64) (string, error) {
	args := m.Called(ctx, telegramID)
	return args.String(0), args.Error(1)
}
func (m *MockSessionStore) SetStep(ctx context.Context, telegramID int64, step string) error {
	args := m.Called(ctx, telegramID, step)
	return args.Error(0)
}
func (m *MockSessionStore) Clear(ctx context.Context, telegramID int64) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

type MockBotClient struct {
	mock.Mock
}

func (m *MockBotClient) SendMessage(ctx context.Context, params ports.SendMessageParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
func (m *MockBotClient) SendPhoto(ctx context.Context, params ports.SendPhotoParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
func (m *MockBotClient) SendVideo(ctx context.Context, params ports.SendVideoParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
func (m *MockBotClient) EditMessageText(ctx context.Context, params ports.EditMessageParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
func (m *MockBotClient) AnswerCallbackQuery(ctx context.Context, params ports.AnswerCallbackParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
func (m *MockBotClient) SetMenuCommands(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Helpers ---

type testEnv struct {
	users    *MockUserRepository
	lessons  *MockLessonRepository
	subs     *MockSubscriptionRepository
	drawings *MockDrawingRepository
	settings *MockSettingsRepository
	methods  *MockPaymentMethodRepository
	sessions *MockSessionStore
	client   *MockBotClient
	now      time.Time
	deps     *bot.Deps
}

func newTestEnv() *testEnv {
	nopLogger := zerolog.Nop()
	env := &testEnv{
		users:    new(MockUserRepository),
		lessons:  new(MockLessonRepository),
		subs:     new(MockSubscriptionRepository),
		drawings: new(MockDrawingRepository),
		settings: new(MockSettingsRepository),
		methods:  new(MockPaymentMethodRepository),
		sessions: new(MockSessionStore),
		client:   new(MockBotClient),
		now:      time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }
	ledgerSvc := ledger.NewService(
		env.subs, env.users, env.settings,
		nil, ledger.Defaults{Price: 4000, Currency: "KZT", DurationDays: 30},
		&nopLogger,
	).WithClock(clock)
	env.deps = &bot.Deps{
		Cfg: &config.Config{
			AppEnv: "dev",
			Bot:    config.BotConfig{AdminID: 999},
			Payment: config.PaymentConfig{
				Price: 4000, Currency: "KZT", DurationDays: 30,
			},
		},
		Users:    env.users,
		Lessons:  env.lessons,
		Methods:  env.methods,
		Drawings: env.drawings,
		Settings: env.settings,
		Ledger:   ledgerSvc,
		Access:   access.NewChecker(env.subs).WithClock(clock),
		Sessions: env.sessions,
		Client:   env.client,
		Log:      &nopLogger,
	}
	return env
}

func liveSub(now time.Time) *domain.Subscription {
	start := now.AddDate(0, 0, -5)
	end := now.AddDate(0, 0, 25)
	return &domain.Subscription{
		ID:        uuid.New(),
		Status:    domain.SubscriptionCompleted,
		StartDate: &start,
		EndDate:   &end,
	}
}

func hasButton(params ports.SendMessageParams, data string) bool {
	if params.ReplyMarkup == nil {
		return false
	}
	for _, row := range params.ReplyMarkup.Buttons {
		for _, btn := range row {
			if btn.Data == data {
				return true
			}
		}
	}
	return false
}

// --- Tests ---

func TestStartHandler_NewUserGetsPolicyScreen(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	env.users.On("GetByTelegramID", mock.Anything, int64(42)).Return(nil, nil).Once()
	env.users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.TelegramID == 42 && u.Status == domain.StatusNew && !u.AcceptedPolicy
	})).Return(nil).Once()
	env.settings.On("Get", mock.Anything).Return(domain.DefaultSettings(), nil)
	env.client.On("SendMessage", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return hasButton(p, "accept_policy")
	})).Return(nil).Once()

	handler := NewStartHandler(env.deps)
	err := handler.Handle(ctx, &ports.BotUpdate{ChatID: 42, UserID: 42})
	assert.NoError(t, err)
	env.users.AssertExpectations(t)
	env.client.AssertExpectations(t)
}

func TestStartHandler_ConsentedUserGetsWelcomeQuestion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	user := &domain.User{ID: uuid.New(), TelegramID: 42, AcceptedPolicy: true, Status: domain.StatusNew}
	env.users.On("GetByTelegramID", mock.Anything, int64(42)).Return(user, nil).Once()
	env.users.On("TouchActivity", mock.Anything, user.ID).Return(nil)
	env.settings.On("Get", mock.Anything).Return(domain.DefaultSettings(), nil)
	env.client.On("SendMessage", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return hasButton(p, "select_newbie_yes") && hasButton(p, "select_newbie_no")
	})).Return(nil).Once()

	handler := NewStartHandler(env.deps)
	err := handler.Handle(ctx, &ports.BotUpdate{ChatID: 42, UserID: 42})
	assert.NoError(t, err)
	env.client.AssertExpectations(t)
}

func TestNewbieHandler_RequiresConsent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	user := &domain.User{ID: uuid.New(), TelegramID: 42, AcceptedPolicy: false}
	env.users.On("GetByTelegramID", mock.Anything, int64(42)).Return(user, nil).Once()
	env.users.On("TouchActivity", mock.Anything, user.ID).Return(nil)
	env.client.On("AnswerCallbackQuery", mock.Anything, mock.MatchedBy(func(p ports.AnswerCallbackParams) bool {
		return p.ShowAlert
	})).Return(nil).Once()

	handler := NewNewbieHandler(env.deps)
	data := "select_newbie_yes"
	err := handler.Handle(ctx, &ports.BotUpdate{ChatID: 42, UserID: 42, CallbackData: &data, CallbackQueryID: "cb1"})
	assert.NoError(t, err)
	env.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDrawingHandler_PremiumLessonNeedsSubscription(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	user := &domain.User{ID: uuid.New(), TelegramID: 42, AcceptedPolicy: true, Status: domain.StatusTrial, CurrentLessonDay: 2}
	lesson := &domain.Lesson{ID: uuid.New(), LessonNumber: 2, Type: domain.LessonPremium, IsActive: true}

	env.users.On("GetByTelegramID", mock.Anything, int64(42)).Return(user, nil).Once()
	env.users.On("TouchActivity", mock.Anything, user.ID).Return(nil)
	env.sessions.On("Step", mock.Anything, int64(42)).Return(ports.StepAwaitingDrawing, nil).Once()
	env.lessons.On("GetByNumber", mock.Anything, 2).Return(lesson, nil).Once()
	env.subs.On("ActiveForUser", mock.Anything, user.ID, mock.Anything).Return(nil, nil).Once()
	env.client.On("SendMessage", mock.Anything, mock.Anything).Return(nil).Once()

	handler := NewDrawingHandler(env.deps)
	err := handler.Handle(ctx, &ports.BotUpdate{ChatID: 42, UserID: 42, PhotoFileID: "photo-1"})
	assert.NoError(t, err)
	env.drawings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDrawingHandler_SavesAgainstCurrentLesson(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	newbie := true
	user := &domain.User{ID: uuid.New(), TelegramID: 42, AcceptedPolicy: true, IsNewbie: &newbie, Status: domain.StatusTrial, CurrentLessonDay: 1}
	lesson := &domain.Lesson{ID: uuid.New(), LessonNumber: 1, Type: domain.LessonFree, IsActive: true}

	env.users.On("GetByTelegramID", mock.Anything, int64(42)).Return(user, nil).Once()
	env.users.On("TouchActivity", mock.Anything, user.ID).Return(nil)
	env.sessions.On("Step", mock.Anything, int64(42)).Return(ports.StepAwaitingDrawing, nil).Once()
	env.lessons.On("GetByNumber", mock.Anything, 1).Return(lesson, nil).Once()
	env.drawings.On("Create", mock.Anything, mock.MatchedBy(func(d *domain.Drawing) bool {
		return d.UserID == user.ID && d.LessonID == lesson.ID && d.FileID == "photo-1"
	})).Return(nil).Once()
	env.sessions.On("Clear", mock.Anything, int64(42)).Return(nil)
	env.client.On("SendMessage", mock.Anything, mock.Anything).Return(nil).Once()

	handler := NewDrawingHandler(env.deps)
	err := handler.Handle(ctx, &ports.BotUpdate{ChatID: 42, UserID: 42, PhotoFileID: "photo-1"})
	assert.NoError(t, err)
	env.drawings.AssertExpectations(t)
}

func TestDrawingHandler_RejectsPhotoWithoutAssignment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	newbie := true
	user := &domain.User{ID: uuid.New(), TelegramID: 42, AcceptedPolicy: true, IsNewbie: &newbie, Status: domain.StatusTrial, CurrentLessonDay: 1}

	env.users.On("GetByTelegramID", mock.Anything, int64(42)).Return(user, nil).Once()
	env.users.On("TouchActivity", mock.Anything, user.ID).Return(nil)
	env.sessions.On("Step", mock.Anything, int64(42)).Return("", nil).Once()
	env.client.On("SendMessage", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return p.Text == messages.DrawingUnexpectedText
	})).Return(nil).Once()

	handler := NewDrawingHandler(env.deps)
	err := handler.Handle(ctx, &ports.BotUpdate{ChatID: 42, UserID: 42, PhotoFileID: "photo-1"})
	assert.NoError(t, err)
	env.drawings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	env.lessons.AssertNotCalled(t, "GetByNumber", mock.Anything, mock.Anything)
	env.client.AssertExpectations(t)
}

func TestTimeHandler_SavesSlot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	newbie := true
	user := &domain.User{ID: uuid.New(), TelegramID: 42, AcceptedPolicy: true, IsNewbie: &newbie, Status: domain.StatusTrial}

	env.users.On("GetByTelegramID", mock.Anything, int64(42)).Return(user, nil).Once()
	env.users.On("TouchActivity", mock.Anything, user.ID).Return(nil)
	env.users.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.PreferredTime != nil && *u.PreferredTime == "10:00"
	})).Return(nil).Once()
	env.sessions.On("Step", mock.Anything, int64(42)).Return(ports.StepChoosingTime, nil).Once()
	env.sessions.On("Clear", mock.Anything, int64(42)).Return(nil).Once()
	env.client.On("AnswerCallbackQuery", mock.Anything, mock.Anything).Return(nil)
	env.client.On("SendMessage", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return strings.Contains(p.Text, "10:00")
	})).Return(nil).Once()

	handler := NewTimeHandler(env.deps)
	data := "time_10:00"
	err := handler.Handle(ctx, &ports.BotUpdate{ChatID: 42, UserID: 42, CallbackData: &data, CallbackQueryID: "cb2"})
	assert.NoError(t, err)
	env.users.AssertExpectations(t)
	env.client.AssertExpectations(t)
}

func TestTimeHandler_KeepsOpenAssignment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	newbie := true
	user := &domain.User{ID: uuid.New(), TelegramID: 42, AcceptedPolicy: true, IsNewbie: &newbie, Status: domain.StatusTrial}

	env.users.On("GetByTelegramID", mock.Anything, int64(42)).Return(user, nil).Once()
	env.users.On("TouchActivity", mock.Anything, user.ID).Return(nil)
	env.users.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
	// A pending practice assignment survives picking a delivery time.
	env.sessions.On("Step", mock.Anything, int64(42)).Return(ports.StepAwaitingDrawing, nil).Once()
	env.client.On("AnswerCallbackQuery", mock.Anything, mock.Anything).Return(nil)
	env.client.On("SendMessage", mock.Anything, mock.Anything).Return(nil).Once()

	handler := NewTimeHandler(env.deps)
	data := "time_10:00"
	err := handler.Handle(ctx, &ports.BotUpdate{ChatID: 42, UserID: 42, CallbackData: &data, CallbackQueryID: "cb2"})
	assert.NoError(t, err)
	env.sessions.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
}

func TestMenuHandler_NoSubscriptionShowsPaymentOffer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	user := &domain.User{ID: uuid.New(), TelegramID: 42, AcceptedPolicy: true, Status: domain.StatusTrial}
	method := &domain.PaymentMethod{ID: uuid.New(), Name: "Kaspi", ButtonText: "Kaspi 🏦", IsActive: true}

	env.users.On("GetByTelegramID", mock.Anything, int64(42)).Return(user, nil).Once()
	env.users.On("TouchActivity", mock.Anything, user.ID).Return(nil)
	env.subs.On("ActiveForUser", mock.Anything, user.ID, env.now).Return(nil, nil).Once()
	env.settings.On("Get", mock.Anything).Return(domain.DefaultSettings(), nil)
	env.methods.On("ListActive", mock.Anything).Return([]*domain.PaymentMethod{method}, nil).Once()
	env.client.On("SendMessage", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return p.Text == messages.NoSubscriptionText
	})).Return(nil).Once()
	env.client.On("SendMessage", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return hasButton(p, "pay_"+method.ID.String())
	})).Return(nil).Once()

	handler := NewMenuHandler(env.deps)
	err := handler.Handle(ctx, &ports.BotUpdate{ChatID: 42, UserID: 42})
	assert.NoError(t, err)
	env.client.AssertExpectations(t)
}

func TestMenuHandler_SubscriberGetsMenu(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	user := &domain.User{ID: uuid.New(), TelegramID: 42, AcceptedPolicy: true, Status: domain.StatusActive}

	env.users.On("GetByTelegramID", mock.Anything, int64(42)).Return(user, nil).Once()
	env.users.On("TouchActivity", mock.Anything, user.ID).Return(nil)
	env.subs.On("ActiveForUser", mock.Anything, user.ID, env.now).Return(liveSub(env.now), nil).Once()
	env.client.On("SendMessage", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return hasButton(p, "menu_lessons") && hasButton(p, "menu_subscription")
	})).Return(nil).Once()

	handler := NewMenuHandler(env.deps)
	err := handler.Handle(ctx, &ports.BotUpdate{ChatID: 42, UserID: 42})
	assert.NoError(t, err)
	env.client.AssertExpectations(t)
}

func TestMenuCallback_NoSubscriptionShowsPaymentOffer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	user := &domain.User{ID: uuid.New(), TelegramID: 42, AcceptedPolicy: true, Status: domain.StatusTrial}

	env.users.On("GetByTelegramID", mock.Anything, int64(42)).Return(user, nil).Once()
	env.users.On("TouchActivity", mock.Anything, user.ID).Return(nil)
	env.client.On("AnswerCallbackQuery", mock.Anything, mock.Anything).Return(nil)
	env.subs.On("ActiveForUser", mock.Anything, user.ID, env.now).Return(nil, nil).Once()
	env.settings.On("Get", mock.Anything).Return(domain.DefaultSettings(), nil)
	env.methods.On("ListActive", mock.Anything).Return(nil, nil).Once()
	env.client.On("SendMessage", mock.Anything, mock.MatchedBy(func(p ports.SendMessageParams) bool {
		return p.Text == messages.NoSubscriptionText
	})).Return(nil).Once()
	env.client.On("SendMessage", mock.Anything, mock.Anything).Return(nil).Once()

	handler := NewMenuCallbackHandler(env.deps)
	data := "menu_lessons"
	err := handler.Handle(ctx, &ports.BotUpdate{ChatID: 42, UserID: 42, CallbackData: &data, CallbackQueryID: "cb3"})
	assert.NoError(t, err)
	env.lessons.AssertNotCalled(t, "Count", mock.Anything)
	env.client.AssertExpectations(t)
}
