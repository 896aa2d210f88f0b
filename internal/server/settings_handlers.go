package server

import (
	"azox/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ChangeEmail handles PUT /api/settings/email
// @Summary Change your email address
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{current_password=string,new_email=string} true "Email change"
// @Success 200 {object} models.ActionResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /settings/email [put]
func (s *Server) ChangeEmail(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewEmail        string `json:"new_email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.settingsService.ChangeEmail(c.UserContext(), s.userID(c), req.CurrentPassword, req.NewEmail); err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOK(c, "Email updated")
}

// ChangePassword handles PUT /api/settings/password
// @Summary Change your password
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{current_password=string,new_password=string} true "Password change"
// @Success 200 {object} models.ActionResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /settings/password [put]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.settingsService.ChangePassword(c.UserContext(), s.userID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOK(c, "Password updated")
}

// DeleteOwnAccount handles POST /api/settings/delete-account
// @Summary Delete your own account
// @Description Deactivates the account and hides its content. Staff accounts must go through the owner.
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{password=string} true "Confirmation"
// @Success 200 {object} models.ActionResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /settings/delete-account [post]
func (s *Server) DeleteOwnAccount(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.settingsService.DeleteAccount(c.UserContext(), s.userID(c), req.Password); err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOK(c, "Account deleted")
}
