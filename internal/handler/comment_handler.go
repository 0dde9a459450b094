package handler

import (
	"context"
	"errors"
	"net/http"

	"retroboard/internal/event"
	"retroboard/internal/model"
	"retroboard/internal/permission"
	"retroboard/internal/pipeline"
	"retroboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CommentHandler struct {
	commentRepo *repository.CommentRepository
	cardRepo    *repository.CardRepository
	boardRepo   *repository.BoardRepository
	userRepo    *repository.UserRepository
	pipeline    *pipeline.Pipeline
}

func NewCommentHandler(
	commentRepo *repository.CommentRepository,
	cardRepo *repository.CardRepository,
	boardRepo *repository.BoardRepository,
	userRepo *repository.UserRepository,
	p *pipeline.Pipeline,
) *CommentHandler {
	return &CommentHandler{
		commentRepo: commentRepo,
		cardRepo:    cardRepo,
		boardRepo:   boardRepo,
		userRepo:    userRepo,
		pipeline:    p,
	}
}

type CreateCommentRequest struct {
	Content       string `json:"content"`
	CorrelationID string `json:"correlation_id"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type CommentResponse struct {
	ID            string `json:"id"`
	CardID        string `json:"card_id"`
	AuthorID      string `json:"author_id"`
	Content       string `json:"content"`
	Likes         int    `json:"likes"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func commentResponse(comment *model.Comment, correlationID string) CommentResponse {
	return CommentResponse{
		ID:            comment.ID.String(),
		CardID:        comment.CardID.String(),
		AuthorID:      comment.AuthorID.String(),
		Content:       comment.Content,
		Likes:         comment.Likes,
		CorrelationID: correlationID,
	}
}

// Create adds a comment to the :id card.
func (h *CommentHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid card ID format"})
		return
	}

	card, err := h.cardRepo.GetByID(c.Request.Context(), cardID)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			respondMutationError(c, &pipeline.NotFoundError{Resource: "card"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve card"})
		}
		return
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), card.BoardID)
	if err != nil || board == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.CreateComments,
		Target:     permission.CardTarget{Card: card},
		Validate: func() *pipeline.ValidationError {
			verr := pipeline.NewValidationError()
			if req.Content == "" {
				verr.Add("content", "can't be blank")
			}
			return verr
		},
		Commit: func(ctx context.Context) (any, error) {
			comment := &model.Comment{
				CardID:   card.ID,
				AuthorID: user.ID,
				Content:  req.Content,
			}
			if err := h.commentRepo.Create(ctx, comment); err != nil {
				return nil, err
			}
			return comment, nil
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New(board.Slug, event.ActionAdded, event.KindComment, commentResponse(entity.(*model.Comment), req.CorrelationID))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, commentResponse(entity.(*model.Comment), req.CorrelationID))
}

// GetByCard lists the :id card's comments, newest first.
func (h *CommentHandler) GetByCard(c *gin.Context) {
	if _, ok := currentUser(c, h.userRepo); !ok {
		return
	}

	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid card ID format"})
		return
	}

	comments, err := h.commentRepo.GetByCardID(c.Request.Context(), cardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}

	response := make([]CommentResponse, len(comments))
	for i := range comments {
		response[i] = commentResponse(&comments[i], "")
	}
	c.JSON(http.StatusOK, response)
}

// Update edits a comment's content.
func (h *CommentHandler) Update(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	comment, board, ok := h.lookupComment(c)
	if !ok {
		return
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.UpdateComments,
		Target:     permission.CommentTarget{Comment: comment, BoardID: board.ID},
		Commit: func(ctx context.Context) (any, error) {
			comment.Content = req.Content
			if err := h.commentRepo.Update(ctx, comment); err != nil {
				return nil, err
			}
			return comment, nil
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New(board.Slug, event.ActionUpdated, event.KindComment, commentResponse(entity.(*model.Comment), ""))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, commentResponse(entity.(*model.Comment), ""))
}

// Destroy removes a comment.
func (h *CommentHandler) Destroy(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	comment, board, ok := h.lookupComment(c)
	if !ok {
		return
	}

	_, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.DestroyComments,
		Target:     permission.CommentTarget{Comment: comment, BoardID: board.ID},
		Commit: func(ctx context.Context) (any, error) {
			if err := h.commentRepo.Delete(ctx, comment.ID); err != nil {
				return nil, err
			}
			return comment, nil
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New(board.Slug, event.ActionDestroyed, event.KindComment, commentResponse(entity.(*model.Comment), ""))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": comment.ID})
}

// Like bumps the comment's likes counter. The gate denies authors liking
// their own comments.
func (h *CommentHandler) Like(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	comment, board, ok := h.lookupComment(c)
	if !ok {
		return
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.LikeComments,
		Target:     permission.CommentTarget{Comment: comment, BoardID: board.ID},
		Commit: func(ctx context.Context) (any, error) {
			return h.commentRepo.Like(ctx, comment.ID)
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New(board.Slug, event.ActionUpdated, event.KindComment, commentResponse(entity.(*model.Comment), ""))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, commentResponse(entity.(*model.Comment), ""))
}

func (h *CommentHandler) lookupComment(c *gin.Context) (*model.Comment, *model.Board, bool) {
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID format"})
		return nil, nil, false
	}

	comment, err := h.commentRepo.GetByID(c.Request.Context(), commentID)
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			respondMutationError(c, &pipeline.NotFoundError{Resource: "comment"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comment"})
		}
		return nil, nil, false
	}

	card, err := h.cardRepo.GetByID(c.Request.Context(), comment.CardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve card"})
		return nil, nil, false
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), card.BoardID)
	if err != nil || board == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return nil, nil, false
	}
	return comment, board, true
}
