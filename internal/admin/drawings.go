package admin

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"coursebot/internal/core/domain"
)

type drawingResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	LessonID    string  `json:"lesson_id"`
	FileID      string  `json:"file_id"`
	FileName    *string `json:"file_name"`
	Comment     *string `json:"comment"`
	CommentedBy *string `json:"commented_by"`
	CommentedAt *string `json:"commented_at"`
	CreatedAt   string  `json:"created_at"`
}

func toDrawingResponse(d *domain.Drawing) drawingResponse {
	resp := drawingResponse{
		ID:          d.ID.String(),
		UserID:      d.UserID.String(),
		LessonID:    d.LessonID.String(),
		FileID:      d.FileID,
		FileName:    d.FileName,
		Comment:     d.Comment,
		CommentedBy: d.CommentedBy,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
	}
	if d.CommentedAt != nil {
		at := d.CommentedAt.Format(time.RFC3339)
		resp.CommentedAt = &at
	}
	return resp
}

func (s *Server) handleListDrawings(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	drawings, total, err := s.deps.Drawings.ListPage(c.UserContext(), limit, (page-1)*limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list drawings")
	}

	out := make([]drawingResponse, 0, len(drawings))
	for _, d := range drawings {
		out = append(out, toDrawingResponse(d))
	}
	return c.JSON(fiber.Map{
		"drawings": out,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

func (s *Server) handleListUncommented(c *fiber.Ctx) error {
	drawings, err := s.deps.Drawings.ListUncommented(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list drawings")
	}

	out := make([]drawingResponse, 0, len(drawings))
	for _, d := range drawings {
		out = append(out, toDrawingResponse(d))
	}
	return c.JSON(out)
}

func (s *Server) handleCommentDrawing(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid drawing id")
	}

	var payload struct {
		Comment string `json:"comment"`
		Admin   string `json:"admin"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(payload.Comment) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "comment is required")
	}
	if payload.Admin == "" {
		payload.Admin = "admin"
	}

	if err := s.deps.Drawings.AddComment(c.UserContext(), id, payload.Comment, payload.Admin); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "drawing not found")
		}
		s.log.Error().Err(err).Msg("Failed to comment drawing")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to comment drawing")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
