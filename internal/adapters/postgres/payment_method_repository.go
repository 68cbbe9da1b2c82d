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

type paymentMethodRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.PaymentMethodRepository = (*paymentMethodRepository)(nil) // Ensure compliance

// NewPaymentMethodRepository creates a new repository for payment methods.
func NewPaymentMethodRepository(db *DB, baseLogger *zerolog.Logger) ports.PaymentMethodRepository {
	return &paymentMethodRepository{
		db:  db,
		log: baseLogger.With().Str("component", "payment_method_repo").Logger(),
	}
}

const paymentMethodQueryCols = `
	id, name, payment_url, button_text, price, currency, is_active,
	sort_order, created_at, updated_at
`

func scanPaymentMethod(row pgx.Row) (*domain.PaymentMethod, error) {
	var m domain.PaymentMethod
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.PaymentURL,
		&m.ButtonText,
		&m.Price,
		&m.Currency,
		&m.IsActive,
		&m.SortOrder,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListActive returns methods shown to users, in display order.
func (r *paymentMethodRepository) ListActive(ctx context.Context) ([]*domain.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodQueryCols + ` FROM payment_methods WHERE is_active ORDER BY sort_order, created_at`
	return r.queryMethods(ctx, query)
}

// List returns all methods for the admin panel.
func (r *paymentMethodRepository) List(ctx context.Context) ([]*domain.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodQueryCols + ` FROM payment_methods ORDER BY sort_order, created_at`
	return r.queryMethods(ctx, query)
}

// GetByID finds a method by its UUID.
func (r *paymentMethodRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodQueryCols + ` FROM payment_methods WHERE id = $1`

	method, err := scanPaymentMethod(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("method_id", id.String()).Msg("Failed to scan payment method row")
		return nil, err
	}
	return method, nil
}

// Create inserts a new payment method.
func (r *paymentMethodRepository) Create(ctx context.Context, method *domain.PaymentMethod) error {
	query := `
		INSERT INTO payment_methods (
			id, name, payment_url, button_text, price, currency, is_active, sort_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.pool.Exec(ctx, query,
		method.ID,
		method.Name,
		method.PaymentURL,
		method.ButtonText,
		method.Price,
		method.Currency,
		method.IsActive,
		method.SortOrder,
	)
	if err != nil {
		r.log.Error().Err(err).Str("name", method.Name).Msg("Failed to insert payment method")
	}
	return err
}

// Update rewrites a payment method row.
func (r *paymentMethodRepository) Update(ctx context.Context, method *domain.PaymentMethod) error {
	query := `
		UPDATE payment_methods SET
			name = $2, payment_url = $3, button_text = $4, price = $5,
			currency = $6, is_active = $7, sort_order = $8, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.pool.Exec(ctx, query,
		method.ID,
		method.Name,
		method.PaymentURL,
		method.ButtonText,
		method.Price,
		method.Currency,
		method.IsActive,
		method.SortOrder,
	)
	if err != nil {
		r.log.Error().Err(err).Str("method_id", method.ID.String()).Msg("Failed to update payment method")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a payment method. Existing requests keep their snapshots.
func (r *paymentMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		r.log.Error().Err(err).Str("method_id", id.String()).Msg("Failed to delete payment method")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *paymentMethodRepository) queryMethods(ctx context.Context, query string, args ...any) ([]*domain.PaymentMethod, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query payment methods")
		return nil, err
	}
	defer rows.Close()

	var methods []*domain.PaymentMethod
	for rows.Next() {
		method, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}
	return methods, rows.Err()
}
