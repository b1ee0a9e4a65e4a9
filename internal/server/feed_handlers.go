package server

import (
	"moneyshelf/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListFeed handles GET /api/feed
// @Summary List the feed
// @Description Every post, newest first, with comments and counts. A bearer token adds the viewer's liked flag.
// @Tags feed
// @Produce json
// @Success 200 {array} models.Post
// @Router /feed [get]
func (s *Server) ListFeed(c *fiber.Ctx) error {
	posts, err := s.feedService.ListFeed(c.UserContext(), s.optionalUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags feed
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,content=string,image=string} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Image   string `json:"image"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.feedService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:        c.Locals("userID").(uint),
		Title:         req.Title,
		Content:       req.Content,
		ImageFilename: req.Image,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags feed
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.feedService.GetPost(c.UserContext(), postID, s.optionalUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// ToggleLike handles POST /api/posts/:id/like
// @Summary Like or unlike a post
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} service.LikeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.feedService.ToggleLike(c.UserContext(), c.Locals("userID").(uint), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}

// AddComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Description Returns the post's comments, oldest first.
// @Tags feed
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {array} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comments, err := s.feedService.AddComment(c.UserContext(), c.Locals("userID").(uint), postID, req.Content)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comments)
}

// Repost handles POST /api/posts/:id/repost
// @Summary Repost a post
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 201 {object} models.Repost
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/repost [post]
func (s *Server) Repost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	repost, err := s.feedService.AddRepost(c.UserContext(), c.Locals("userID").(uint), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(repost)
}
