package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"coursebot/internal/core/domain"
)

type lessonVideoPayload struct {
	Title    string `json:"title"`
	VideoURL string `json:"video_url"`
}

type lessonPayload struct {
	LessonNumber    int                  `json:"lesson_number"`
	Type            string               `json:"type"`
	Title           *string              `json:"title"`
	Description     *string              `json:"description"`
	PreviewVideoURL *string              `json:"preview_video_url"`
	FullVideoURL    *string              `json:"full_video_url"`
	PracticeText    *string              `json:"practice_text"`
	SortOrder       int                  `json:"sort_order"`
	IsActive        *bool                `json:"is_active"`
	Videos          []lessonVideoPayload `json:"videos"`
}

type lessonResponse struct {
	ID              string               `json:"id"`
	LessonNumber    int                  `json:"lesson_number"`
	Type            string               `json:"type"`
	Title           *string              `json:"title"`
	Description     *string              `json:"description"`
	PreviewVideoURL *string              `json:"preview_video_url"`
	FullVideoURL    *string              `json:"full_video_url"`
	PracticeText    *string              `json:"practice_text"`
	SortOrder       int                  `json:"sort_order"`
	IsActive        bool                 `json:"is_active"`
	Videos          []lessonVideoPayload `json:"videos"`
}

func toLessonResponse(l *domain.Lesson) lessonResponse {
	videos := make([]lessonVideoPayload, 0, len(l.Videos))
	for _, v := range l.Videos {
		videos = append(videos, lessonVideoPayload{Title: v.Title, VideoURL: v.VideoURL})
	}
	return lessonResponse{
		ID:              l.ID.String(),
		LessonNumber:    l.LessonNumber,
		Type:            string(l.Type),
		Title:           l.Title,
		Description:     l.Description,
		PreviewVideoURL: l.PreviewVideoURL,
		FullVideoURL:    l.FullVideoURL,
		PracticeText:    l.PracticeText,
		SortOrder:       l.SortOrder,
		IsActive:        l.IsActive,
		Videos:          videos,
	}
}

func (p *lessonPayload) validate() error {
	if p.LessonNumber < 1 {
		return errors.New("lesson_number must be positive")
	}
	switch domain.LessonType(p.Type) {
	case domain.LessonIntro, domain.LessonFree, domain.LessonPremium, domain.LessonFinal:
	default:
		return errors.New("unknown lesson type")
	}
	return nil
}

func (p *lessonPayload) toDomain(id uuid.UUID) *domain.Lesson {
	lesson := &domain.Lesson{
		ID:              id,
		LessonNumber:    p.LessonNumber,
		Type:            domain.LessonType(p.Type),
		Title:           p.Title,
		Description:     p.Description,
		PreviewVideoURL: p.PreviewVideoURL,
		FullVideoURL:    p.FullVideoURL,
		PracticeText:    p.PracticeText,
		SortOrder:       p.SortOrder,
		IsActive:        true,
	}
	if p.IsActive != nil {
		lesson.IsActive = *p.IsActive
	}
	for _, v := range p.Videos {
		lesson.Videos = append(lesson.Videos, domain.LessonVideo{
			LessonID: id,
			Title:    v.Title,
			VideoURL: v.VideoURL,
		})
	}
	return lesson
}

func (s *Server) handleListLessons(c *fiber.Ctx) error {
	lessons, err := s.deps.Lessons.List(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list lessons")
	}

	out := make([]lessonResponse, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, toLessonResponse(l))
	}
	return c.JSON(out)
}

func (s *Server) handleCreateLesson(c *fiber.Ctx) error {
	var payload lessonPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := payload.validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	lesson := payload.toDomain(uuid.New())
	if err := s.deps.Lessons.Create(c.UserContext(), lesson); err != nil {
		if errors.Is(err, domain.ErrDuplicateLesson) {
			return fiber.NewError(fiber.StatusConflict, "lesson number already exists")
		}
		s.log.Error().Err(err).Msg("Failed to create lesson")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create lesson")
	}
	return c.Status(fiber.StatusCreated).JSON(toLessonResponse(lesson))
}

func (s *Server) handleUpdateLesson(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid lesson id")
	}

	var payload lessonPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := payload.validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	lesson := payload.toDomain(id)
	if err := s.deps.Lessons.Update(c.UserContext(), lesson); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "lesson not found")
		}
		if errors.Is(err, domain.ErrDuplicateLesson) {
			return fiber.NewError(fiber.StatusConflict, "lesson number already exists")
		}
		s.log.Error().Err(err).Msg("Failed to update lesson")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update lesson")
	}
	return c.JSON(toLessonResponse(lesson))
}

func (s *Server) handleDeactivateLesson(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid lesson id")
	}

	if err := s.deps.Lessons.Deactivate(c.UserContext(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "lesson not found")
		}
		s.log.Error().Err(err).Msg("Failed to deactivate lesson")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to deactivate lesson")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
