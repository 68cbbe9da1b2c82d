package bot

import (
	"github.com/rs/zerolog"

	"coursebot/internal/adapters/telegram"
	"coursebot/internal/core/access"
	"coursebot/internal/core/broker"
	"coursebot/internal/core/ledger"
	"coursebot/internal/core/ports"
	"coursebot/internal/shared/config"
)

// Deps is the dependency bundle every handler constructor receives.
type Deps struct {
	Cfg      *config.Config
	Users    ports.UserRepository
	Lessons  ports.LessonRepository
	Methods  ports.PaymentMethodRepository
	Drawings ports.DrawingRepository
	Settings ports.SettingsRepository
	Ledger   *ledger.Service
	Broker   *broker.Service
	Access   *access.Checker
	Notifier ports.Notifier
	Sessions ports.SessionStore
	Client   ports.BotClientPort
	Bus      ports.EventBus
	Log      *zerolog.Logger
}

// --- Define types for handler "constructors" ---
// This allows us to pass dependencies from main.go

type CommandHandlerConstructor func(deps *Deps) ports.CommandHandler
type CallbackHandlerConstructor func(deps *Deps) ports.CallbackHandler
type MediaHandlerConstructor func(deps *Deps) ports.MediaHandler

// --- Create the global registries ---
var (
	commandRegistry  []CommandHandlerConstructor
	callbackRegistry []CallbackHandlerConstructor
	mediaHandler     MediaHandlerConstructor
)

// RegisterCommand is called by handlers in their init() function
func RegisterCommand(constructor CommandHandlerConstructor) {
	commandRegistry = append(commandRegistry, constructor)
}

// RegisterCallback is called by callback handlers in their init()
func RegisterCallback(constructor CallbackHandlerConstructor) {
	callbackRegistry = append(callbackRegistry, constructor)
}

// RegisterMedia is called by the media handler in its init()
func RegisterMedia(constructor MediaHandlerConstructor) {
	// We only allow one global media handler
	mediaHandler = constructor
}

// RegisterAllHandlers is the single function called by main.go
// It builds all registered handlers and passes them to the router.
func RegisterAllHandlers(router *telegram.Router, deps *Deps) {
	log := deps.Log.With().Str("component", "handler_registry").Logger()

	// Register all commands
	for _, constructor := range commandRegistry {
		router.RegisterCommandHandler(constructor(deps))
	}

	// Register all callbacks
	for _, constructor := range callbackRegistry {
		router.RegisterCallbackHandler(constructor(deps))
	}

	// Register the single media handler
	if mediaHandler != nil {
		router.SetMediaHandler(mediaHandler(deps))
		log.Info().Msg("Registered media handler")
	}
}
