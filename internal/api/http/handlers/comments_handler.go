package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sellerdesk/support-portal/internal/api/dto"
	"github.com/sellerdesk/support-portal/internal/domain"
	"github.com/sellerdesk/support-portal/internal/service"
)

// CommentsHandler manages ticket comment endpoints.
type CommentsHandler struct {
	service *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{service: commentService}
}

// List GET /tickets/:id/comments.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	comments, err := h.service.List(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Add POST /tickets/:id/comments.
func (h *CommentsHandler) Add(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.service.Add(c.UserContext(), user, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	mentions := comment.Mentions
	if mentions == nil {
		mentions = []string{}
	}
	return dto.CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		AuthorID:  comment.AuthorID,
		Body:      comment.Body,
		Mentions:  mentions,
		CreatedAt: comment.CreatedAt,
	}
}
