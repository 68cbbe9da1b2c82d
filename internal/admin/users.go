package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"coursebot/internal/core/domain"
)

type userResponse struct {
	ID               string  `json:"id"`
	TelegramID       int64   `json:"telegram_id"`
	Username         *string `json:"username"`
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	IsNewbie         *bool   `json:"is_newbie"`
	AcceptedPolicy   bool    `json:"accepted_policy"`
	Status           string  `json:"status"`
	CurrentLessonDay int     `json:"current_lesson_day"`
	PreferredTime    *string `json:"preferred_time"`
	LastActivityAt   string  `json:"last_activity_at"`
	CreatedAt        string  `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:               u.ID.String(),
		TelegramID:       u.TelegramID,
		Username:         u.Username,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		IsNewbie:         u.IsNewbie,
		AcceptedPolicy:   u.AcceptedPolicy,
		Status:           string(u.Status),
		CurrentLessonDay: u.CurrentLessonDay,
		PreferredTime:    u.PreferredTime,
		LastActivityAt:   u.LastActivityAt.Format(time.RFC3339),
		CreatedAt:        u.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleGetUser(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	user, err := s.deps.Users.GetByID(c.UserContext(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load user")
	}
	if user == nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}
	return c.JSON(toUserResponse(user))
}

func (s *Server) handleListUsers(c *fiber.Ctx) error {
	users, err := s.deps.Users.List(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list users")
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return c.JSON(out)
}
