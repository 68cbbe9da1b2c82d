package admin

import (
	"github.com/gofiber/fiber/v2"

	"coursebot/internal/core/domain"
)

// handleStats aggregates the dashboard numbers.
func (s *Server) handleStats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	byStatus, err := s.deps.Users.CountByStatus(ctx)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to count users")
	}

	subStats, err := s.deps.Ledger.Stats(ctx)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load subscription stats")
	}

	lessonCount, err := s.deps.Lessons.Count(ctx)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to count lessons")
	}

	drawingCount, err := s.deps.Drawings.Count(ctx)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to count drawings")
	}

	confirmedRequests, err := s.deps.Broker.CountConfirmed(ctx)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to count confirmed requests")
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}

	return c.JSON(fiber.Map{
		"users": fiber.Map{
			"total":   total,
			"new":     byStatus[domain.StatusNew],
			"trial":   byStatus[domain.StatusTrial],
			"active":  byStatus[domain.StatusActive],
			"expired": byStatus[domain.StatusExpired],
		},
		"subscriptions": fiber.Map{
			"completed":       subStats.TotalCompleted,
			"active":          subStats.ActiveCount,
			"total_revenue":   subStats.TotalRevenue,
			"monthly_revenue": subStats.MonthlyRevenue,
		},
		"lessons":            lessonCount,
		"drawings":           drawingCount,
		"confirmed_requests": confirmedRequests,
	})
}
