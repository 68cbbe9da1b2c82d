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

type drawingRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.DrawingRepository = (*drawingRepository)(nil) // Ensure compliance

// NewDrawingRepository creates a new repository for practice submissions.
func NewDrawingRepository(db *DB, baseLogger *zerolog.Logger) ports.DrawingRepository {
	return &drawingRepository{
		db:  db,
		log: baseLogger.With().Str("component", "drawing_repo").Logger(),
	}
}

const drawingQueryCols = `
	id, user_id, lesson_id, file_id, file_name, comment, commented_by, commented_at, created_at
`

func scanDrawing(row pgx.Row) (*domain.Drawing, error) {
	var d domain.Drawing
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.LessonID,
		&d.FileID,
		&d.FileName,
		&d.Comment,
		&d.CommentedBy,
		&d.CommentedAt,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create saves a new submission.
func (r *drawingRepository) Create(ctx context.Context, drawing *domain.Drawing) error {
	query := `
		INSERT INTO drawings (id, user_id, lesson_id, file_id, file_name)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.pool.Exec(ctx, query,
		drawing.ID,
		drawing.UserID,
		drawing.LessonID,
		drawing.FileID,
		drawing.FileName,
	)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", drawing.UserID.String()).Msg("Failed to insert drawing")
	}
	return err
}

// GetByID finds a submission by its UUID.
func (r *drawingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Drawing, error) {
	query := `SELECT ` + drawingQueryCols + ` FROM drawings WHERE id = $1`

	drawing, err := scanDrawing(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("drawing_id", id.String()).Msg("Failed to scan drawing row")
		return nil, err
	}
	return drawing, nil
}

// ListByUser returns a user's submissions, newest first.
func (r *drawingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Drawing, error) {
	query := `SELECT ` + drawingQueryCols + ` FROM drawings WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryDrawings(ctx, query, userID)
}

// ListUncommented returns submissions awaiting feedback, oldest first.
func (r *drawingRepository) ListUncommented(ctx context.Context) ([]*domain.Drawing, error) {
	query := `SELECT ` + drawingQueryCols + ` FROM drawings WHERE comment IS NULL ORDER BY created_at`
	return r.queryDrawings(ctx, query)
}

// ListPage returns one page plus the total row count.
func (r *drawingRepository) ListPage(ctx context.Context, limit, offset int) ([]*domain.Drawing, int, error) {
	var total int
	if err := r.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM drawings`).Scan(&total); err != nil {
		r.log.Error().Err(err).Msg("Failed to count drawings")
		return nil, 0, err
	}

	query := `SELECT ` + drawingQueryCols + ` FROM drawings ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	drawings, err := r.queryDrawings(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return drawings, total, nil
}

// AddComment records admin feedback on a submission.
func (r *drawingRepository) AddComment(ctx context.Context, id uuid.UUID, comment, admin string) error {
	query := `
		UPDATE drawings SET comment = $2, commented_by = $3, commented_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.pool.Exec(ctx, query, id, comment, admin)
	if err != nil {
		r.log.Error().Err(err).Str("drawing_id", id.String()).Msg("Failed to comment drawing")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the total number of submissions.
func (r *drawingRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM drawings`).Scan(&n)
	return n, err
}

func (r *drawingRepository) queryDrawings(ctx context.Context, query string, args ...any) ([]*domain.Drawing, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query drawings")
		return nil, err
	}
	defer rows.Close()

	var drawings []*domain.Drawing
	for rows.Next() {
		drawing, err := scanDrawing(rows)
		if err != nil {
			return nil, err
		}
		drawings = append(drawings, drawing)
	}
	return drawings, rows.Err()
}
