package server

import (
	"time"

	"azox/internal/models"
	"azox/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetChannels handles GET /api/chat/channels
// @Summary List chat channels
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} string
// @Router /chat/channels [get]
func (s *Server) GetChannels(c *fiber.Ctx) error {
	return c.JSON(models.ChatChannels)
}

// GetChannelMessages handles GET /api/chat/messages
// @Summary Read channel messages
// @Description Returns messages oldest first. Pass after=<id> to poll for newer ones.
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param channel query string true "Channel name"
// @Param after query int false "Return messages with a greater ID"
// @Param limit query int false "Page size (max 50)"
// @Success 200 {array} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Router /chat/messages [get]
func (s *Server) GetChannelMessages(c *fiber.Ctx) error {
	channel := c.Query("channel")
	afterID := uint(c.QueryInt("after", 0))
	limit := c.QueryInt("limit", 50)

	messages, err := s.chatService.ChannelMessages(c.UserContext(), channel, afterID, limit)
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(messages)
}

// SendChatMessage handles POST /api/chat/messages
// @Summary Send a channel or direct message
// @Description Set channel for broadcasts or receiver for a DM, never both
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{channel=string,receiver=string,content=string} true "Message"
// @Success 201 {object} object{success=bool,message=models.Message}
// @Failure 401 {object} models.ErrorResponse
// @Router /chat/messages [post]
func (s *Server) SendChatMessage(c *fiber.Ctx) error {
	var req struct {
		Channel  string `json:"channel"`
		Receiver string `json:"receiver"`
		Content  string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.chatService.SendMessage(c.UserContext(), service.SendMessageInput{
		SenderID:         s.userID(c),
		Channel:          req.Channel,
		ReceiverUsername: req.Receiver,
		Content:          req.Content,
	})
	if err != nil {
		return respondActionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}

// DeleteChatMessage handles DELETE /api/chat/messages/:id
// @Summary Delete a chat message
// @Description Senders delete their own messages; staff delete messages of users they outrank
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} models.ActionResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /chat/messages/{id} [delete]
func (s *Server) DeleteChatMessage(c *fiber.Ctx) error {
	messageID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.executor.DeleteMessage(c.UserContext(), s.actor(c), messageID)
	if err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}

// GetDirectMessages handles GET /api/chat/dms/:username
// @Summary Read a DM conversation
// @Description Participants see their own conversations; staff reads are audit-logged
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param username path string true "Other participant"
// @Param limit query int false "Page size (max 50)"
// @Success 200 {array} models.Message
// @Failure 403 {object} models.ErrorResponse
// @Router /chat/dms/{username} [get]
func (s *Server) GetDirectMessages(c *fiber.Ctx) error {
	username := c.Params("username")
	limit := c.QueryInt("limit", 50)

	messages, err := s.chatService.DirectMessages(c.UserContext(), s.actor(c), username, limit)
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(messages)
}

// CheckNewDMs handles GET /api/chat/dms/check-new
// @Summary Poll for new direct messages
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param since query string false "RFC 3339 timestamp of the last check"
// @Success 200 {array} models.Message
// @Router /chat/dms/check-new [get]
func (s *Server) CheckNewDMs(c *fiber.Ctx) error {
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid since timestamp"))
		}
		since = &parsed
	}

	messages, err := s.chatService.CheckNewDMs(c.UserContext(), s.userID(c), since)
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(messages)
}

// GetOnlineUsers handles GET /api/chat/online
// @Summary List online users
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.UserPresence
// @Router /chat/online [get]
func (s *Server) GetOnlineUsers(c *fiber.Ctx) error {
	users, err := s.chatService.OnlineUsers(c.UserContext())
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(users)
}

// GetChatUsers handles GET /api/chat/users
// @Summary List users with presence
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param q query string false "Username or email filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} service.UserPresence
// @Router /chat/users [get]
func (s *Server) GetChatUsers(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	users, err := s.chatService.AllUsers(c.UserContext(), c.Query("q"), p.Limit, p.Offset)
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(users)
}

// UpdateActivity handles POST /api/chat/activity
// @Summary Refresh presence
// @Description Stamps the caller's last_active so they count as online
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ActionResponse
// @Router /chat/activity [post]
func (s *Server) UpdateActivity(c *fiber.Ctx) error {
	if err := s.chatService.TouchActivity(c.UserContext(), s.userID(c)); err != nil {
		return respondReadError(c, err)
	}
	return models.RespondOK(c, "Activity updated")
}
