package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

type subscriptionRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.SubscriptionRepository = (*subscriptionRepository)(nil) // Ensure compliance

// NewSubscriptionRepository creates a new repository for subscription operations.
func NewSubscriptionRepository(db *DB, baseLogger *zerolog.Logger) ports.SubscriptionRepository {
	return &subscriptionRepository{
		db:  db,
		log: baseLogger.With().Str("component", "subscription_repo").Logger(),
	}
}

const subscriptionQueryCols = `
	id, user_id, status, price, currency, provider, payment_id,
	start_date, end_date, deleted_at, created_at, updated_at
`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Status,
		&s.Price,
		&s.Currency,
		&s.Provider,
		&s.PaymentID,
		&s.StartDate,
		&s.EndDate,
		&s.DeletedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new subscription row.
func (r *subscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, user_id, status, price, currency, provider, payment_id, start_date, end_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.pool.Exec(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Status,
		sub.Price,
		sub.Currency,
		sub.Provider,
		sub.PaymentID,
		sub.StartDate,
		sub.EndDate,
	)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", sub.UserID.String()).Msg("Failed to insert subscription")
	}
	return err
}

// GetByID finds a subscription by its UUID.
func (r *subscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionQueryCols + ` FROM subscriptions WHERE id = $1`

	sub, err := scanSubscription(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("subscription_id", id.String()).Msg("Failed to scan subscription row")
		return nil, err
	}
	return sub, nil
}

// ActiveForUser returns the user's live subscription, if any.
func (r *subscriptionRepository) ActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionQueryCols + ` FROM subscriptions
		WHERE user_id = $1 AND status = 'completed' AND end_date >= $2 AND deleted_at IS NULL
		ORDER BY end_date DESC
		LIMIT 1
	`
	sub, err := scanSubscription(r.db.pool.QueryRow(ctx, query, userID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to scan subscription row")
		return nil, err
	}
	return sub, nil
}

// ListActive returns all live subscriptions.
func (r *subscriptionRepository) ListActive(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionQueryCols + ` FROM subscriptions
		WHERE status = 'completed' AND end_date >= $1 AND deleted_at IS NULL
		ORDER BY end_date
	`
	return r.querySubscriptions(ctx, query, now)
}

// ListOverdue returns ended subscriptions whose owner is not EXPIRED yet.
func (r *subscriptionRepository) ListOverdue(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	query := `
		SELECT ` + subscriptionCols("s") + ` FROM subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE s.status = 'completed' AND s.end_date < $1
		  AND s.deleted_at IS NULL AND u.status <> 'EXPIRED'
	`
	return r.querySubscriptions(ctx, query, now)
}

// ConfirmTx completes the subscription and activates its owner
// atomically. The status predicate makes replays a no-op at the row
// level, two concurrent confirmations cannot both move the dates.
func (r *subscriptionRepository) ConfirmTx(ctx context.Context, id uuid.UUID, paymentID string, start, end time.Time) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE subscriptions SET
			status = 'completed', payment_id = $2, start_date = $3, end_date = $4, updated_at = NOW()
		WHERE id = $1 AND status <> 'completed'
		RETURNING user_id
	`
	var userID uuid.UUID
	if err := tx.QueryRow(ctx, query, id, paymentID, start, end).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the row does not exist or another writer already
			// completed it.
			var status domain.SubscriptionStatus
			switch err := tx.QueryRow(ctx,
				`SELECT status FROM subscriptions WHERE id = $1`, id).Scan(&status); {
			case errors.Is(err, pgx.ErrNoRows):
				return domain.ErrNotFound
			case err != nil:
				return err
			}
			return nil
		}
		r.log.Error().Err(err).Str("subscription_id", id.String()).Msg("Failed to confirm subscription")
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET status = 'ACTIVE', updated_at = NOW() WHERE id = $1`, userID); err != nil {
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to activate user")
		return err
	}
	return tx.Commit(ctx)
}

// CreateCompletedTx inserts a completed subscription and activates its owner atomically.
func (r *subscriptionRepository) CreateCompletedTx(ctx context.Context, sub *domain.Subscription) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO subscriptions (
			id, user_id, status, price, currency, provider, payment_id, start_date, end_date
		) VALUES ($1, $2, 'completed', $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.Exec(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Price,
		sub.Currency,
		sub.Provider,
		sub.PaymentID,
		sub.StartDate,
		sub.EndDate,
	)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", sub.UserID.String()).Msg("Failed to insert completed subscription")
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET status = 'ACTIVE', updated_at = NOW() WHERE id = $1`, sub.UserID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MarkFailed flips a subscription to failed.
func (r *subscriptionRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.pool.Exec(ctx,
		`UPDATE subscriptions SET status = 'failed', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		r.log.Error().Err(err).Str("subscription_id", id.String()).Msg("Failed to mark subscription failed")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetPaymentID stores the provider payment reference.
func (r *subscriptionRepository) SetPaymentID(ctx context.Context, id uuid.UUID, paymentID string) error {
	_, err := r.db.pool.Exec(ctx,
		`UPDATE subscriptions SET payment_id = $2, updated_at = NOW() WHERE id = $1`, id, paymentID)
	if err != nil {
		r.log.Error().Err(err).Str("subscription_id", id.String()).Msg("Failed to set payment id")
	}
	return err
}

// SoftDelete hides the subscription without losing history.
func (r *subscriptionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.pool.Exec(ctx,
		`UPDATE subscriptions SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		r.log.Error().Err(err).Str("subscription_id", id.String()).Msg("Failed to soft delete subscription")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Stats aggregates completed subscriptions for the admin dashboard.
func (r *subscriptionRepository) Stats(ctx context.Context, now time.Time) (*ports.SubscriptionStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(price), 0),
			COUNT(*) FILTER (WHERE end_date >= $1 AND deleted_at IS NULL),
			COALESCE(SUM(price) FILTER (WHERE created_at >= $2), 0)
		FROM subscriptions
		WHERE status = 'completed'
	`
	monthAgo := now.AddDate(0, 0, -30)

	var stats ports.SubscriptionStats
	err := r.db.pool.QueryRow(ctx, query, now, monthAgo).Scan(
		&stats.TotalCompleted,
		&stats.TotalRevenue,
		&stats.ActiveCount,
		&stats.MonthlyRevenue,
	)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to aggregate subscription stats")
		return nil, err
	}
	return &stats, nil
}

func subscriptionCols(alias string) string {
	return alias + `.id, ` + alias + `.user_id, ` + alias + `.status, ` + alias + `.price, ` +
		alias + `.currency, ` + alias + `.provider, ` + alias + `.payment_id, ` + alias + `.start_date, ` +
		alias + `.end_date, ` + alias + `.deleted_at, ` + alias + `.created_at, ` + alias + `.updated_at`
}

func (r *subscriptionRepository) querySubscriptions(ctx context.Context, query string, args ...any) ([]*domain.Subscription, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query subscriptions")
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
