package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

type paymentRequestRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.PaymentRequestRepository = (*paymentRequestRepository)(nil) // Ensure compliance

// NewPaymentRequestRepository creates a new repository for payment requests.
func NewPaymentRequestRepository(db *DB, baseLogger *zerolog.Logger) ports.PaymentRequestRepository {
	return &paymentRequestRepository{
		db:  db,
		log: baseLogger.With().Str("component", "payment_request_repo").Logger(),
	}
}

const paymentRequestQueryCols = `
	id, user_id, payment_method_id, method_name, payment_url, price, currency,
	status, admin_notified, confirmed_by, confirmed_at, deleted_at, created_at, updated_at
`

func scanPaymentRequest(row pgx.Row) (*domain.PaymentRequest, error) {
	var p domain.PaymentRequest
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.PaymentMethodID,
		&p.MethodName,
		&p.PaymentURL,
		&p.Price,
		&p.Currency,
		&p.Status,
		&p.AdminNotified,
		&p.ConfirmedBy,
		&p.ConfirmedAt,
		&p.DeletedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new payment request. The partial unique index on
// (user_id) rejects a second live pending row.
func (r *paymentRequestRepository) Create(ctx context.Context, req *domain.PaymentRequest) error {
	query := `
		INSERT INTO payment_requests (
			id, user_id, payment_method_id, method_name, payment_url,
			price, currency, status, admin_notified
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.pool.Exec(ctx, query,
		req.ID,
		req.UserID,
		req.PaymentMethodID,
		req.MethodName,
		req.PaymentURL,
		req.Price,
		req.Currency,
		req.Status,
		req.AdminNotified,
	)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", req.UserID.String()).Msg("Failed to insert payment request")
	}
	return err
}

// GetByID finds a payment request by its UUID.
func (r *paymentRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRequest, error) {
	query := `SELECT ` + paymentRequestQueryCols + ` FROM payment_requests WHERE id = $1`

	req, err := scanPaymentRequest(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("request_id", id.String()).Msg("Failed to scan payment request row")
		return nil, err
	}
	return req, nil
}

// PendingForUser returns the user's single live pending request, if any.
func (r *paymentRequestRepository) PendingForUser(ctx context.Context, userID uuid.UUID) (*domain.PaymentRequest, error) {
	query := `
		SELECT ` + paymentRequestQueryCols + ` FROM payment_requests
		WHERE user_id = $1 AND status = 'pending' AND deleted_at IS NULL
		LIMIT 1
	`
	req, err := scanPaymentRequest(r.db.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to scan payment request row")
		return nil, err
	}
	return req, nil
}

// ListPending returns all live pending requests, oldest first.
func (r *paymentRequestRepository) ListPending(ctx context.Context) ([]*domain.PaymentRequest, error) {
	query := `
		SELECT ` + paymentRequestQueryCols + ` FROM payment_requests
		WHERE status = 'pending' AND deleted_at IS NULL
		ORDER BY created_at
	`
	return r.queryRequests(ctx, query)
}

// List returns all non-deleted requests, newest first.
func (r *paymentRequestRepository) List(ctx context.Context) ([]*domain.PaymentRequest, error) {
	query := `
		SELECT ` + paymentRequestQueryCols + ` FROM payment_requests
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`
	return r.queryRequests(ctx, query)
}

// MarkNotified flags that the admin alert went out.
func (r *paymentRequestRepository) MarkNotified(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.pool.Exec(ctx,
		`UPDATE payment_requests SET admin_notified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		r.log.Error().Err(err).Str("request_id", id.String()).Msg("Failed to mark request notified")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Transition moves a request out of pending with a conditional update,
// so two racing admins cannot both win.
func (r *paymentRequestRepository) Transition(ctx context.Context, id uuid.UUID, to domain.PaymentRequestStatus, actor *string) (*domain.PaymentRequest, error) {
	query := `
		UPDATE payment_requests SET
			status = $2, confirmed_by = $3, confirmed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + paymentRequestQueryCols

	req, err := scanPaymentRequest(r.db.pool.QueryRow(ctx, query, id, to, actor))
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.log.Error().Err(err).Str("request_id", id.String()).Msg("Failed to transition payment request")
		return nil, err
	}

	// The guard did not match: distinguish missing from already processed.
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}
	return existing, domain.ErrAlreadyProcessed
}

// SoftDelete hides the request without losing history.
func (r *paymentRequestRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.pool.Exec(ctx,
		`UPDATE payment_requests SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		r.log.Error().Err(err).Str("request_id", id.String()).Msg("Failed to soft delete payment request")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountConfirmed counts confirmed requests for the admin dashboard.
func (r *paymentRequestRepository) CountConfirmed(ctx context.Context) (int, error) {
	var n int
	err := r.db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payment_requests WHERE status = 'confirmed'`).Scan(&n)
	return n, err
}

func (r *paymentRequestRepository) queryRequests(ctx context.Context, query string, args ...any) ([]*domain.PaymentRequest, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query payment requests")
		return nil, err
	}
	defer rows.Close()

	var reqs []*domain.PaymentRequest
	for rows.Next() {
		req, err := scanPaymentRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
