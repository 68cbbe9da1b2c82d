package admin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".avi": true}
	photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
)

func (s *Server) handleUploadVideo(c *fiber.Ctx) error {
	return s.saveUpload(c, "video", videoExtensions, "videos")
}

func (s *Server) handleUploadWelcomePhoto(c *fiber.Ctx) error {
	return s.saveUpload(c, "photo", photoExtensions, "photos")
}

func (s *Server) saveUpload(c *fiber.Ctx, field string, allowed map[string]bool, subdir string) error {
	file, err := c.FormFile(field)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("missing %q file", field))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowed[ext] {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("unsupported file type %q", ext))
	}
	if max := s.deps.Cfg.Upload.MaxFileBytes; max > 0 && file.Size > max {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file too large")
	}

	dir := filepath.Join(s.deps.Cfg.Upload.Dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Error().Err(err).Str("dir", dir).Msg("Failed to create upload dir")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to store file")
	}

	name := uuid.New().String() + ext
	dest := filepath.Join(dir, name)
	if err := c.SaveFile(file, dest); err != nil {
		s.log.Error().Err(err).Str("path", dest).Msg("Failed to save upload")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to store file")
	}

	s.log.Info().Str("path", dest).Int64("size", file.Size).Msg("File uploaded")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"path": dest,
		"name": name,
	})
}
