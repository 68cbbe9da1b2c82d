package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"coursebot/internal/core/broker"
	"coursebot/internal/core/ledger"
	"coursebot/internal/core/ports"
	"coursebot/internal/shared/config"
)

// Deps is everything the admin panel needs from the rest of the app.
type Deps struct {
	Cfg      *config.Config
	Users    ports.UserRepository
	Lessons  ports.LessonRepository
	Drawings ports.DrawingRepository
	Methods  ports.PaymentMethodRepository
	Settings ports.SettingsRepository
	Ledger   *ledger.Service
	Broker   *broker.Service
	Bus      ports.EventBus
	Notifier ports.Notifier
	Log      *zerolog.Logger
}

// Server is the admin HTTP panel plus the provider webhook endpoints.
type Server struct {
	app  *fiber.App
	deps Deps
	log  zerolog.Logger
}

// New builds the fiber app and registers all routes.
func New(deps Deps) *Server {
	s := &Server{
		deps: deps,
		log:  deps.Log.With().Str("component", "admin_server").Logger(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:   "coursebot admin",
		BodyLimit: int(deps.Cfg.Upload.MaxFileBytes) + 1024,
		// Fiber's default error page leaks handler errors, keep it terse.
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Provider callbacks authenticate themselves through their own
	// payload conventions, they cannot carry our bearer token.
	hooks := s.app.Group("/webhooks")
	hooks.Post("/kaspi", s.handleKaspiWebhook)
	hooks.Post("/yookassa", s.handleYookassaWebhook)
	hooks.Post("/prodamus", s.handleProdamusWebhook)

	api := s.app.Group("/api", s.requireBearer)

	api.Get("/stats", s.handleStats)
	api.Get("/users", s.handleListUsers)
	api.Get("/users/:id", s.handleGetUser)

	api.Get("/lessons", s.handleListLessons)
	api.Post("/lessons", s.handleCreateLesson)
	api.Put("/lessons/:id", s.handleUpdateLesson)
	api.Delete("/lessons/:id", s.handleDeactivateLesson)

	api.Get("/drawings", s.handleListDrawings)
	api.Get("/drawings/uncommented", s.handleListUncommented)
	api.Post("/drawings/:id/comment", s.handleCommentDrawing)

	api.Get("/subscriptions", s.handleListSubscriptions)
	api.Post("/subscriptions/manual", s.handleManualSubscription)
	api.Delete("/subscriptions/:id", s.handleDeleteSubscription)

	api.Get("/payment-requests", s.handleListPaymentRequests)
	api.Get("/payment-requests/pending", s.handleListPendingRequests)
	api.Post("/payment-requests/:id/confirm", s.handleConfirmRequest)
	api.Post("/payment-requests/:id/reject", s.handleRejectRequest)
	api.Post("/payment-requests/:id/notify", s.handleNotifyRequest)
	api.Delete("/payment-requests/:id", s.handleDeleteRequest)

	api.Get("/payment-methods", s.handleListMethods)
	api.Post("/payment-methods", s.handleCreateMethod)
	api.Put("/payment-methods/:id", s.handleUpdateMethod)
	api.Delete("/payment-methods/:id", s.handleDeleteMethod)

	api.Get("/settings/welcome", s.handleGetWelcomeSettings)
	api.Put("/settings/welcome", s.handlePutWelcomeSettings)
	api.Get("/settings/payment", s.handleGetPaymentSettings)
	api.Put("/settings/payment", s.handlePutPaymentSettings)

	api.Post("/uploads/video", s.handleUploadVideo)
	api.Post("/uploads/welcome-photo", s.handleUploadWelcomePhoto)

	// Webhook simulation for staging, same code path as the real hooks.
	api.Post("/test/:provider/success", s.handleTestSuccess)
}

// requireBearer guards the /api group with the shared admin secret.
func (s *Server) requireBearer(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header || token != s.deps.Cfg.Admin.Secret {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid or missing token")
	}
	return c.Next()
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%d", s.deps.Cfg.Admin.Port)
	s.log.Info().Str("addr", addr).Msg("Admin panel listening")
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
