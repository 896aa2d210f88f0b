package server

import (
	"azox/internal/cache"
	"azox/internal/models"
	"azox/internal/moderation"

	"github.com/gofiber/fiber/v2"
)

// AdminStats is the dashboard payload for the moderation console.
type AdminStats struct {
	Users       int64 `json:"users"`
	BannedUsers int64 `json:"banned_users"`
	Threads     int64 `json:"threads"`
	Posts       int64 `json:"posts"`
	Messages    int64 `json:"messages"`
}

// GetAdminStats handles GET /api/admin/stats
// @Summary Dashboard counters
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AdminStats
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/stats [get]
func (s *Server) GetAdminStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	var stats AdminStats
	err := cache.Aside(ctx, cache.AdminStatsKey, &stats, cache.AdminStatsTTL, func() error {
		var err error
		if stats.Users, err = s.userRepo.Count(ctx); err != nil {
			return err
		}
		if stats.BannedUsers, err = s.userRepo.CountBanned(ctx); err != nil {
			return err
		}
		if stats.Threads, err = s.threadRepo.Count(ctx); err != nil {
			return err
		}
		if stats.Posts, err = s.postRepo.Count(ctx); err != nil {
			return err
		}
		stats.Messages, err = s.messageRepo.Count(ctx)
		return err
	})
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(stats)
}

// SearchUsers handles GET /api/admin/users
// @Summary Search users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Username or email filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	users, err := s.userRepo.Search(c.UserContext(), c.Query("q"), p.Limit, p.Offset)
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(users)
}

// AdminDeleteUser handles POST /api/admin/users/:id/delete
// @Summary Deactivate a user and hide their content
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users/{id}/delete [post]
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.executor.DeleteUser(c.UserContext(), s.actor(c), targetID)
	if err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}

// AdminBanUser handles POST /api/admin/users/:id/ban
// @Summary Ban a user
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users/{id}/ban [post]
func (s *Server) AdminBanUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.executor.BanUser(c.UserContext(), s.actor(c), targetID)
	if err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}

// AdminUnbanUser handles POST /api/admin/users/:id/unban
// @Summary Lift a ban
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users/{id}/unban [post]
func (s *Server) AdminUnbanUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.executor.UnbanUser(c.UserContext(), s.actor(c), targetID)
	if err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}

// AdminSetRole handles POST /api/admin/users/:id/role
// @Summary Promote or demote a user
// @Description The owner role can never be assigned this way
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body object{role=string} true "New role"
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users/{id}/role [post]
func (s *Server) AdminSetRole(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.executor.SetRole(c.UserContext(), s.actor(c), targetID, models.Role(req.Role))
	if err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}

// AdminDeleteThread handles DELETE /api/admin/threads/:id
// @Summary Delete a thread and its posts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/threads/{id} [delete]
func (s *Server) AdminDeleteThread(c *fiber.Ctx) error {
	return s.DeleteThread(c)
}

// AdminDeletePost handles DELETE /api/admin/posts/:id
// @Summary Delete a single post
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/posts/{id} [delete]
func (s *Server) AdminDeletePost(c *fiber.Ctx) error {
	return s.DeletePost(c)
}

// AdminBulkDeleteThreads handles POST /api/admin/bulk/threads/delete
// @Summary Bulk delete threads by filter
// @Description Filters combine with AND. Set match_all to wipe every thread instead.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{category_id=int,older_than=string,match_all=bool} true "Filter"
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/bulk/threads/delete [post]
func (s *Server) AdminBulkDeleteThreads(c *fiber.Ctx) error {
	var req struct {
		CategoryID uint   `json:"category_id"`
		OlderThan  string `json:"older_than"`
		MatchAll   bool   `json:"match_all"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	var filter moderation.ThreadFilter
	if req.MatchAll {
		filter = moderation.MatchAllThreads()
	}
	if req.CategoryID > 0 {
		filter.CategoryID = &req.CategoryID
	}
	cutoff, err := moderation.ParseCutoffDate(req.OlderThan)
	if err != nil {
		return respondActionError(c, err)
	}
	filter.OlderThan = cutoff

	result, err := s.executor.BulkDeleteThreads(c.UserContext(), s.actor(c), filter)
	if err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}

// AdminClearChat handles POST /api/admin/bulk/chat/clear
// @Summary Clear chat history
// @Description channel may be a single channel or "all"; older_than narrows the wipe
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{channel=string,older_than=string} true "Filter"
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/bulk/chat/clear [post]
func (s *Server) AdminClearChat(c *fiber.Ctx) error {
	var req struct {
		Channel   string `json:"channel"`
		OlderThan string `json:"older_than"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	cutoff, err := moderation.ParseCutoffDate(req.OlderThan)
	if err != nil {
		return respondActionError(c, err)
	}

	result, err := s.executor.ClearChat(c.UserContext(), s.actor(c), moderation.ChatFilter{
		Channel:   req.Channel,
		OlderThan: cutoff,
	})
	if err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}

// AdminBulkBanUsers handles POST /api/admin/bulk/users/ban
// @Summary Bulk ban regular users by window
// @Description Provide days for an inactivity window or start_date/end_date for a registration window
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{days=int,start_date=string,end_date=string} true "Window"
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/bulk/users/ban [post]
func (s *Server) AdminBulkBanUsers(c *fiber.Ctx) error {
	window, err := s.parseUserWindow(c)
	if err != nil {
		return nil
	}
	result, execErr := s.executor.BulkBanUsers(c.UserContext(), s.actor(c), window)
	if execErr != nil {
		return respondActionError(c, execErr)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}

// AdminBulkDeleteUsers handles POST /api/admin/bulk/users/delete
// @Summary Bulk deactivate regular users by window
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{days=int,start_date=string,end_date=string} true "Window"
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/bulk/users/delete [post]
func (s *Server) AdminBulkDeleteUsers(c *fiber.Ctx) error {
	window, err := s.parseUserWindow(c)
	if err != nil {
		return nil
	}
	result, execErr := s.executor.BulkDeleteUsers(c.UserContext(), s.actor(c), window)
	if execErr != nil {
		return respondActionError(c, execErr)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}

// parseUserWindow reads a bulk user window from the request body. On failure
// the response has already been written and errResponseWritten is returned.
func (s *Server) parseUserWindow(c *fiber.Ctx) (moderation.UserWindow, error) {
	var req struct {
		Days      int    `json:"days"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := c.BodyParser(&req); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return moderation.UserWindow{}, errResponseWritten
	}

	var window moderation.UserWindow
	var err error
	switch {
	case req.Days > 0 && (req.StartDate != "" || req.EndDate != ""):
		err = models.NewValidationError("Provide either days or a date range, not both")
	case req.Days > 0:
		window, err = moderation.InactiveWindow(req.Days)
	case req.StartDate != "" && req.EndDate != "":
		window, err = moderation.RegistrationWindow(req.StartDate, req.EndDate)
	default:
		err = models.NewValidationError("Provide days or start_date and end_date")
	}
	if err != nil {
		_ = respondActionError(c, err)
		return moderation.UserWindow{}, errResponseWritten
	}
	return window, nil
}

// AdminGetConversation handles GET /api/admin/dms/conversation
// @Summary Read a DM conversation between two users
// @Description Audit-logged when the caller is not a participant
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param user_a query string true "First participant"
// @Param user_b query string true "Second participant"
// @Param limit query int false "Page size (max 50)"
// @Success 200 {array} models.Message
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/dms/conversation [get]
func (s *Server) AdminGetConversation(c *fiber.Ctx) error {
	userA := c.Query("user_a")
	userB := c.Query("user_b")
	if userA == "" || userB == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_a and user_b are required"))
	}

	messages, err := s.chatService.ConversationBetween(c.UserContext(), s.actor(c), userA, userB, c.QueryInt("limit", 50))
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(messages)
}

// AdminGetUserDMs handles GET /api/admin/dms/:username
// @Summary List every DM a user sent or received
// @Description Always audit-logged
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Param limit query int false "Page size (max 50)"
// @Success 200 {array} models.Message
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/dms/{username} [get]
func (s *Server) AdminGetUserDMs(c *fiber.Ctx) error {
	messages, err := s.chatService.UserDMs(c.UserContext(), s.actor(c), c.Params("username"), c.QueryInt("limit", 50))
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(messages)
}

// AdminHardDeleteUser handles POST /api/admin/users/hard-delete
// @Summary Physically erase a user and everything they wrote
// @Description Owner only. The username is required as confirmation.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{username=string} true "Target"
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users/hard-delete [post]
func (s *Server) AdminHardDeleteUser(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.BodyParser(&req); err != nil || req.Username == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username is required"))
	}

	result, err := s.executor.HardDeleteUser(c.UserContext(), s.actor(c), req.Username)
	if err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}

// AdminPurgeInactive handles POST /api/admin/users/purge-inactive
// @Summary Physically erase all deactivated accounts
// @Description Owner only
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ActionResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users/purge-inactive [post]
func (s *Server) AdminPurgeInactive(c *fiber.Ctx) error {
	result, err := s.executor.PurgeAllInactive(c.UserContext(), s.actor(c))
	if err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}
