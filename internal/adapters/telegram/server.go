package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"coursebot/internal/shared/config"
)

// BotServer runs the bot in long polling mode with a worker pool.
type BotServer struct {
	api    *tgbotapi.BotAPI
	router *Router
	cfg    *config.BotConfig
	log    zerolog.Logger
}

// NewBotServer creates a new server instance
func NewBotServer(
	api *tgbotapi.BotAPI,
	router *Router,
	cfg *config.BotConfig,
	baseLogger *zerolog.Logger,
) *BotServer {
	return &BotServer{
		api:    api,
		router: router,
		cfg:    cfg,
		log:    baseLogger.With().Str("component", "bot_server").Logger(),
	}
}

// Start blocks until the context is cancelled.
func (s *BotServer) Start(ctx context.Context) error {
	s.log.Info().Int("workers", s.cfg.WorkerPoolSize).Msg("Starting bot in polling mode")

	// 1. Clear any existing webhook, polling and webhooks are exclusive.
	deleteWebhookConfig := tgbotapi.DeleteWebhookConfig{
		DropPendingUpdates: false,
	}
	if _, err := s.api.Request(deleteWebhookConfig); err != nil {
		s.log.Warn().Err(err).Msg("Failed to delete webhook (continuing anyway)")
	}

	// 2. Create the channel for updates
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.api.GetUpdatesChan(u)

	// 3. Create the job channel
	jobs := make(chan tgbotapi.Update, 100) // Buffered channel

	// 4. Start the worker pool
	var wg sync.WaitGroup
	for w := 1; w <= s.cfg.WorkerPoolSize; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			log := s.router.log.With().Int("worker_id", id).Logger()
			log.Info().Msg("Starting polling worker")
			for {
				select {
				case <-ctx.Done(): // Context cancelled
					log.Info().Msg("Stopping polling worker (context done)")
					return
				case job, ok := <-jobs:
					if !ok {
						log.Info().Msg("Stopping polling worker (channel closed)")
						return
					}
					// In-flight updates finish even during shutdown.
					s.router.HandleUpdate(context.Background(), &job)
				}
			}
		}(w)
	}

	s.log.Info().Msg("Polling update listener started")

	// 5. Main loop: Listen for updates and dispatch jobs
	for {
		select {
		case <-ctx.Done(): // Shutdown signal received
			close(jobs)                  // Close the jobs channel to signal workers
			s.api.StopReceivingUpdates() // Stop the bot API
			wg.Wait()                    // Wait for all workers to finish
			s.log.Info().Msg("Polling stopped gracefully")
			return nil // Return nil on graceful shutdown
		case update := <-updates:
			// Send the update to the worker pool
			jobs <- update
		}
	}
}
