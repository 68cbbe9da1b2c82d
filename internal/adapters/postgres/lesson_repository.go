package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

type lessonRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.LessonRepository = (*lessonRepository)(nil) // Ensure compliance

// NewLessonRepository creates a new repository for lesson operations.
func NewLessonRepository(db *DB, baseLogger *zerolog.Logger) ports.LessonRepository {
	return &lessonRepository{
		db:  db,
		log: baseLogger.With().Str("component", "lesson_repo").Logger(),
	}
}

const lessonQueryCols = `
	id, lesson_number, type, title, description, preview_video_url,
	full_video_url, practice_text, sort_order, is_active, created_at, updated_at
`

func scanLesson(row pgx.Row) (*domain.Lesson, error) {
	var l domain.Lesson
	err := row.Scan(
		&l.ID,
		&l.LessonNumber,
		&l.Type,
		&l.Title,
		&l.Description,
		&l.PreviewVideoURL,
		&l.FullVideoURL,
		&l.PracticeText,
		&l.SortOrder,
		&l.IsActive,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetByNumber loads a lesson with its videos.
func (r *lessonRepository) GetByNumber(ctx context.Context, number int) (*domain.Lesson, error) {
	query := `SELECT ` + lessonQueryCols + ` FROM lessons WHERE lesson_number = $1`

	lesson, err := scanLesson(r.db.pool.QueryRow(ctx, query, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Int("lesson_number", number).Msg("Failed to scan lesson row")
		return nil, err
	}
	if err := r.loadVideos(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// GetByID loads a lesson with its videos by UUID.
func (r *lessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	query := `SELECT ` + lessonQueryCols + ` FROM lessons WHERE id = $1`

	lesson, err := scanLesson(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("lesson_id", id.String()).Msg("Failed to scan lesson row")
		return nil, err
	}
	if err := r.loadVideos(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// ListActive returns active lessons in course order, with videos.
func (r *lessonRepository) ListActive(ctx context.Context) ([]*domain.Lesson, error) {
	query := `SELECT ` + lessonQueryCols + ` FROM lessons WHERE is_active ORDER BY sort_order, lesson_number`
	return r.queryLessons(ctx, query)
}

// ListByType returns active lessons of one type in course order.
func (r *lessonRepository) ListByType(ctx context.Context, t domain.LessonType) ([]*domain.Lesson, error) {
	query := `SELECT ` + lessonQueryCols + ` FROM lessons WHERE is_active AND type = $1 ORDER BY sort_order, lesson_number`
	return r.queryLessons(ctx, query, t)
}

// List returns every lesson, including deactivated ones.
func (r *lessonRepository) List(ctx context.Context) ([]*domain.Lesson, error) {
	query := `SELECT ` + lessonQueryCols + ` FROM lessons ORDER BY sort_order, lesson_number`
	return r.queryLessons(ctx, query)
}

// Create inserts the lesson and its videos.
func (r *lessonRepository) Create(ctx context.Context, lesson *domain.Lesson) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO lessons (
			id, lesson_number, type, title, description, preview_video_url,
			full_video_url, practice_text, sort_order, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, query,
		lesson.ID,
		lesson.LessonNumber,
		lesson.Type,
		lesson.Title,
		lesson.Description,
		lesson.PreviewVideoURL,
		lesson.FullVideoURL,
		lesson.PracticeText,
		lesson.SortOrder,
		lesson.IsActive,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateLesson
		}
		r.log.Error().Err(err).Int("lesson_number", lesson.LessonNumber).Msg("Failed to insert lesson")
		return err
	}

	if err := insertVideos(ctx, tx, lesson); err != nil {
		r.log.Error().Err(err).Str("lesson_id", lesson.ID.String()).Msg("Failed to insert lesson videos")
		return err
	}
	return tx.Commit(ctx)
}

// Update rewrites the lesson row and replaces its video list.
func (r *lessonRepository) Update(ctx context.Context, lesson *domain.Lesson) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE lessons SET
			lesson_number = $2, type = $3, title = $4, description = $5,
			preview_video_url = $6, full_video_url = $7, practice_text = $8,
			sort_order = $9, is_active = $10, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, query,
		lesson.ID,
		lesson.LessonNumber,
		lesson.Type,
		lesson.Title,
		lesson.Description,
		lesson.PreviewVideoURL,
		lesson.FullVideoURL,
		lesson.PracticeText,
		lesson.SortOrder,
		lesson.IsActive,
	)
	if err != nil {
		r.log.Error().Err(err).Str("lesson_id", lesson.ID.String()).Msg("Failed to update lesson")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM lesson_videos WHERE lesson_id = $1`, lesson.ID); err != nil {
		return err
	}
	if err := insertVideos(ctx, tx, lesson); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Deactivate soft-disables a lesson.
func (r *lessonRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.pool.Exec(ctx,
		`UPDATE lessons SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		r.log.Error().Err(err).Str("lesson_id", id.String()).Msg("Failed to deactivate lesson")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the total number of lessons.
func (r *lessonRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lessons`).Scan(&n)
	return n, err
}

func insertVideos(ctx context.Context, tx pgx.Tx, lesson *domain.Lesson) error {
	for i, video := range lesson.Videos {
		if video.ID == uuid.Nil {
			video.ID = uuid.New()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO lesson_videos (id, lesson_id, title, video_url, sort_order)
			 VALUES ($1, $2, $3, $4, $5)`,
			video.ID, lesson.ID, video.Title, video.VideoURL, i,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *lessonRepository) loadVideos(ctx context.Context, lesson *domain.Lesson) error {
	rows, err := r.db.pool.Query(ctx,
		`SELECT id, lesson_id, title, video_url, sort_order
		 FROM lesson_videos WHERE lesson_id = $1 ORDER BY sort_order`, lesson.ID)
	if err != nil {
		r.log.Error().Err(err).Str("lesson_id", lesson.ID.String()).Msg("Failed to query lesson videos")
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.LessonVideo
		if err := rows.Scan(&v.ID, &v.LessonID, &v.Title, &v.VideoURL, &v.SortOrder); err != nil {
			return err
		}
		lesson.Videos = append(lesson.Videos, v)
	}
	return rows.Err()
}

func (r *lessonRepository) queryLessons(ctx context.Context, query string, args ...any) ([]*domain.Lesson, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query lessons")
		return nil, err
	}
	defer rows.Close()

	var lessons []*domain.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, lesson := range lessons {
		if err := r.loadVideos(ctx, lesson); err != nil {
			return nil, err
		}
	}
	return lessons, nil
}
