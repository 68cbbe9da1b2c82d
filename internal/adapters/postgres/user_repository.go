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

type userRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.UserRepository = (*userRepository)(nil) // Ensure compliance

// NewUserRepository creates a new repository for user operations.
func NewUserRepository(db *DB, baseLogger *zerolog.Logger) ports.UserRepository {
	return &userRepository{
		db:  db,
		log: baseLogger.With().Str("component", "user_repo").Logger(),
	}
}

const userQueryCols = `
	id, telegram_id, username, first_name, last_name, is_newbie,
	accepted_policy, status, current_lesson_day, preferred_time,
	last_activity_at, created_at, updated_at
`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.IsNewbie,
		&user.AcceptedPolicy,
		&user.Status,
		&user.CurrentLessonDay,
		&user.PreferredTime,
		&user.LastActivityAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create saves a new user.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			id, telegram_id, username, first_name, last_name, is_newbie,
			accepted_policy, status, current_lesson_day, preferred_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.pool.Exec(ctx, query,
		user.ID,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.IsNewbie,
		user.AcceptedPolicy,
		user.Status,
		user.CurrentLessonDay,
		user.PreferredTime,
	)
	if err != nil {
		r.log.Error().Err(err).Int64("telegram_id", user.TelegramID).Msg("Failed to insert new user")
	}
	return err
}

// GetByTelegramID finds a user by their Telegram ID.
func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	query := `SELECT ` + userQueryCols + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.db.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Return nil, nil for "not found"
		}
		r.log.Error().Err(err).Int64("telegram_id", telegramID).Msg("Failed to scan user row")
		return nil, err
	}
	return user, nil
}

// GetByID finds a user by their internal UUID.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userQueryCols + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to scan user row")
		return nil, err
	}
	return user, nil
}

// Update rewrites the full user row.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users SET
			username = $2, first_name = $3, last_name = $4, is_newbie = $5,
			accepted_policy = $6, status = $7, current_lesson_day = $8,
			preferred_time = $9, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.IsNewbie,
		user.AcceptedPolicy,
		user.Status,
		user.CurrentLessonDay,
		user.PreferredTime,
	)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to update user")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all users, newest first.
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userQueryCols + ` FROM users ORDER BY created_at DESC`
	return r.queryUsers(ctx, query)
}

// SetStatus updates only the lifecycle status.
func (r *userRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error {
	tag, err := r.db.pool.Exec(ctx,
		`UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to set user status")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetLessonDay updates only the delivery pointer.
func (r *userRepository) SetLessonDay(ctx context.Context, id uuid.UUID, day int) error {
	tag, err := r.db.pool.Exec(ctx,
		`UPDATE users SET current_lesson_day = $2, updated_at = NOW() WHERE id = $1`, id, day)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to set lesson day")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TouchActivity bumps last_activity_at to now.
func (r *userRepository) TouchActivity(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.pool.Exec(ctx,
		`UPDATE users SET last_activity_at = NOW() WHERE id = $1`, id)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", id.String()).Msg("Failed to touch activity")
	}
	return err
}

// ListBySlot returns ACTIVE/TRIAL users scheduled for the given HH:00 slot.
func (r *userRepository) ListBySlot(ctx context.Context, slot string) ([]*domain.User, error) {
	query := `
		SELECT ` + userQueryCols + ` FROM users
		WHERE status IN ('ACTIVE', 'TRIAL') AND preferred_time = $1
		ORDER BY created_at
	`
	return r.queryUsers(ctx, query, slot)
}

// ListInactiveSince returns ACTIVE/TRIAL users idle since before the cutoff.
func (r *userRepository) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]*domain.User, error) {
	query := `
		SELECT ` + userQueryCols + ` FROM users
		WHERE status IN ('ACTIVE', 'TRIAL') AND last_activity_at < $1
	`
	return r.queryUsers(ctx, query, cutoff)
}

// CountByStatus aggregates users per lifecycle status.
func (r *userRepository) CountByStatus(ctx context.Context) (map[domain.UserStatus]int, error) {
	rows, err := r.db.pool.Query(ctx, `SELECT status, COUNT(*) FROM users GROUP BY status`)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to count users")
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.UserStatus]int)
	for rows.Next() {
		var status domain.UserStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *userRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query users")
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.log.Error().Err(err).Msg("Failed to scan user row")
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
