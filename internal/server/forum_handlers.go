package server

import (
	"azox/internal/models"
	"azox/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetCategories handles GET /api/forum/categories
// @Summary List forum categories with thread and reply totals
// @Tags forum
// @Produce json
// @Success 200 {array} service.CategorySummary
// @Router /forum/categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.forumService.ListCategories(c.UserContext())
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(categories)
}

// GetCategoryThreads handles GET /api/forum/categories/:id/threads
// @Summary List threads in a category
// @Tags forum
// @Produce json
// @Param id path int true "Category ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.Thread
// @Failure 404 {object} models.ErrorResponse
// @Router /forum/categories/{id}/threads [get]
func (s *Server) GetCategoryThreads(c *fiber.Ctx) error {
	categoryID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)

	threads, err := s.forumService.ListThreads(c.UserContext(), categoryID, p.Limit, p.Offset)
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(threads)
}

// GetRecentThreads handles GET /api/forum/threads/recent
// @Summary List recently active threads across categories
// @Tags forum
// @Produce json
// @Param limit query int false "Page size"
// @Success 200 {array} models.Thread
// @Router /forum/threads/recent [get]
func (s *Server) GetRecentThreads(c *fiber.Ctx) error {
	p := parsePagination(c, 10)
	threads, err := s.forumService.ListRecentThreads(c.UserContext(), p.Limit)
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(threads)
}

// GetThread handles GET /api/forum/threads/:id
// @Summary View a thread with one page of posts
// @Tags forum
// @Produce json
// @Param id path int true "Thread ID"
// @Param limit query int false "Posts per page"
// @Param offset query int false "Post offset"
// @Success 200 {object} service.ThreadPage
// @Failure 404 {object} models.ErrorResponse
// @Router /forum/threads/{id} [get]
func (s *Server) GetThread(c *fiber.Ctx) error {
	threadID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)

	page, err := s.forumService.GetThread(c.UserContext(), threadID, p.Limit, p.Offset)
	if err != nil {
		return respondReadError(c, err)
	}
	return c.JSON(page)
}

// CreateThread handles POST /api/forum/threads
// @Summary Create a thread
// @Description Creates the thread and its opening post together
// @Tags forum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{category_id=int,title=string,content=string} true "New thread"
// @Success 201 {object} object{success=bool,thread=models.Thread}
// @Failure 401 {object} models.ErrorResponse
// @Router /forum/threads [post]
func (s *Server) CreateThread(c *fiber.Ctx) error {
	var req struct {
		CategoryID uint   `json:"category_id"`
		Title      string `json:"title"`
		Content    string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	thread, err := s.forumService.CreateThread(c.UserContext(), service.CreateThreadInput{
		AuthorID:   s.userID(c),
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Content:    req.Content,
	})
	if err != nil {
		return respondActionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"thread":  thread,
	})
}

// CreateReply handles POST /api/forum/threads/:id/replies
// @Summary Reply to a thread
// @Tags forum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Param request body object{content=string} true "Reply body"
// @Success 201 {object} object{success=bool,post=models.Post}
// @Failure 401 {object} models.ErrorResponse
// @Router /forum/threads/{id}/replies [post]
func (s *Server) CreateReply(c *fiber.Ctx) error {
	threadID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.forumService.Reply(c.UserContext(), service.ReplyInput{
		AuthorID: s.userID(c),
		ThreadID: threadID,
		Content:  req.Content,
	})
	if err != nil {
		return respondActionError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"post":    post,
	})
}

// EditPost handles PUT /api/forum/posts/:id
// @Summary Edit your own post
// @Tags forum
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{content=string} true "New body"
// @Success 200 {object} object{success=bool,post=models.Post}
// @Failure 401 {object} models.ErrorResponse
// @Router /forum/posts/{id} [put]
func (s *Server) EditPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.forumService.EditPost(c.UserContext(), service.EditPostInput{
		AuthorID: s.userID(c),
		PostID:   postID,
		Content:  req.Content,
	})
	if err != nil {
		return respondActionError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"post":    post,
	})
}

// DeleteThread handles DELETE /api/forum/threads/:id
// @Summary Delete a thread
// @Description Authors may delete their own threads; staff may delete threads of users they outrank
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID"
// @Success 200 {object} models.ActionResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /forum/threads/{id} [delete]
func (s *Server) DeleteThread(c *fiber.Ctx) error {
	threadID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.executor.DeleteThread(c.UserContext(), s.actor(c), threadID)
	if err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}

// DeletePost handles DELETE /api/forum/posts/:id
// @Summary Delete a post
// @Tags forum
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.ActionResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /forum/posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	result, err := s.executor.DeletePost(c.UserContext(), s.actor(c), postID)
	if err != nil {
		return respondActionError(c, err)
	}
	return models.RespondOKAffected(c, result.Message, result.Affected)
}
