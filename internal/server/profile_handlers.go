package server

import (
	"encoding/json"
	"time"

	"mix/internal/models"
	"mix/internal/service"

	"github.com/gofiber/fiber/v2"
)

// profileRequest is the JSON body for profile create and update.
type profileRequest struct {
	DisplayName string          `json:"display_name"`
	BirthDate   string          `json:"birth_date"` // YYYY-MM-DD
	Gender      string          `json:"gender"`
	Bio         string          `json:"bio"`
	City        string          `json:"city"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	Interests   json.RawMessage `json:"interests"`
	Lifestyle   json.RawMessage `json:"lifestyle"`
}

func (r *profileRequest) toInput(userID uint) (service.ProfileInput, error) {
	in := service.ProfileInput{
		UserID:      userID,
		DisplayName: r.DisplayName,
		Gender:      r.Gender,
		Bio:         r.Bio,
		City:        r.City,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Interests:   r.Interests,
		Lifestyle:   r.Lifestyle,
	}
	if r.BirthDate != "" {
		birthDate, err := time.Parse("2006-01-02", r.BirthDate)
		if err != nil {
			return in, models.NewValidationError("Invalid birth_date, expected YYYY-MM-DD")
		}
		in.BirthDate = birthDate
	}
	return in, nil
}

// GetMe handles GET /api/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// CreateMyProfile handles POST /api/me/profile
func (s *Server) CreateMyProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in, err := req.toInput(currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	profile, err := s.userService.CreateProfile(c.Context(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// UpdateMyProfile handles PUT /api/me/profile
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in, err := req.toInput(currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	profile, err := s.userService.UpdateProfile(c.Context(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUser(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	// Suspended and banned accounts are invisible to everyone but themselves.
	if user.Status != models.UserStatusActive && user.ID != currentUserID(c) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", id))
	}

	return c.JSON(user)
}

// UploadMyPhoto handles POST /api/me/photos
//
// The body carries the image inline as base64 (optionally a full data URL),
// matching how image messages are sent. The processed image is stored
// content-addressed and served from /api/media/:hash.
func (s *Server) UploadMyPhoto(c *fiber.Ctx) error {
	var req struct {
		ImageBase64 string `json:"image_base64"`
	}
	if err := c.BodyParser(&req); err != nil || req.ImageBase64 == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("image_base64 is required"))
	}

	data, err := decodeImageBase64(req.ImageBase64)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("image_base64 is not valid base64"))
	}

	userID := currentUserID(c)
	blob, err := s.photoService.Process(c.Context(), userID, data)
	if err != nil {
		return respondServiceError(c, err)
	}

	photo, err := s.userService.AddProfilePhoto(c.Context(), userID, blob.Hash)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(photo)
}

// DeleteMyPhoto handles DELETE /api/me/photos/:id
func (s *Server) DeleteMyPhoto(c *fiber.Ctx) error {
	photoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.userService.RemoveProfilePhoto(c.Context(), currentUserID(c), photoID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
