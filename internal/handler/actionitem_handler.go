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

type ActionItemHandler struct {
	itemRepo  *repository.ActionItemRepository
	boardRepo *repository.BoardRepository
	userRepo  *repository.UserRepository
	pipeline  *pipeline.Pipeline
}

func NewActionItemHandler(
	itemRepo *repository.ActionItemRepository,
	boardRepo *repository.BoardRepository,
	userRepo *repository.UserRepository,
	p *pipeline.Pipeline,
) *ActionItemHandler {
	return &ActionItemHandler{
		itemRepo:  itemRepo,
		boardRepo: boardRepo,
		userRepo:  userRepo,
		pipeline:  p,
	}
}

type CreateActionItemRequest struct {
	BoardSlug     string `json:"board_slug" binding:"required"`
	Body          string `json:"body"`
	AssigneeID    string `json:"assignee_id"`
	CorrelationID string `json:"correlation_id"`
}

type UpdateActionItemRequest struct {
	Body       string  `json:"body" binding:"required"`
	AssigneeID *string `json:"assignee_id"`
}

type MoveActionItemRequest struct {
	TargetBoardSlug string `json:"target_board_slug" binding:"required"`
}

type ActionItemResponse struct {
	ID            string `json:"id"`
	BoardSlug     string `json:"board_slug"`
	Body          string `json:"body"`
	AuthorID      string `json:"author_id"`
	AssigneeID    string `json:"assignee_id,omitempty"`
	Status        string `json:"status"`
	TimesMoved    int    `json:"times_moved"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func actionItemResponse(item *model.ActionItem, boardSlug, correlationID string) ActionItemResponse {
	resp := ActionItemResponse{
		ID:            item.ID.String(),
		BoardSlug:     boardSlug,
		Body:          item.Body,
		AuthorID:      item.AuthorID.String(),
		Status:        item.Status,
		TimesMoved:    item.TimesMoved,
		CorrelationID: correlationID,
	}
	if item.AssigneeID != nil {
		resp.AssigneeID = item.AssigneeID.String()
	}
	return resp
}

// Create adds an action item to the board named by the request's slug.
func (h *ActionItemHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	var req CreateActionItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	board, err := h.boardRepo.GetBySlug(c.Request.Context(), req.BoardSlug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if board == nil {
		respondMutationError(c, &pipeline.NotFoundError{Resource: "board"})
		return
	}

	var assigneeID *uuid.UUID
	if req.AssigneeID != "" {
		parsed, err := uuid.Parse(req.AssigneeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee ID format"})
			return
		}
		assigneeID = &parsed
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.CreateActionItems,
		Target:     permission.BoardTarget{Board: board},
		Validate: func() *pipeline.ValidationError {
			verr := pipeline.NewValidationError()
			if req.Body == "" {
				verr.Add("body", "can't be blank")
			}
			return verr
		},
		Commit: func(ctx context.Context) (any, error) {
			item := &model.ActionItem{
				BoardID:    board.ID,
				Body:       req.Body,
				AuthorID:   user.ID,
				AssigneeID: assigneeID,
				Status:     model.StatusPending,
			}
			if err := h.itemRepo.Create(ctx, item); err != nil {
				return nil, err
			}
			return item, nil
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New(board.Slug, event.ActionAdded, event.KindActionItem, actionItemResponse(entity.(*model.ActionItem), board.Slug, req.CorrelationID))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, actionItemResponse(entity.(*model.ActionItem), board.Slug, req.CorrelationID))
}

// GetByBoard lists the :slug board's action items, pending first.
func (h *ActionItemHandler) GetByBoard(c *gin.Context) {
	if _, ok := currentUser(c, h.userRepo); !ok {
		return
	}

	board, err := h.boardRepo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return
	}

	items, err := h.itemRepo.GetByBoardID(c.Request.Context(), board.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve action items"})
		return
	}

	response := make([]ActionItemResponse, len(items))
	for i := range items {
		response[i] = actionItemResponse(&items[i], board.Slug, "")
	}
	c.JSON(http.StatusOK, response)
}

// GetMine lists the action items assigned to the authenticated user across
// all boards.
func (h *ActionItemHandler) GetMine(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	items, err := h.itemRepo.GetByAssignee(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve action items"})
		return
	}

	response := make([]ActionItemResponse, len(items))
	for i := range items {
		board, err := h.boardRepo.GetByID(c.Request.Context(), items[i].BoardID)
		if err != nil || board == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
			return
		}
		response[i] = actionItemResponse(&items[i], board.Slug, "")
	}
	c.JSON(http.StatusOK, response)
}

// Update edits an action item's body and assignee.
func (h *ActionItemHandler) Update(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	var req UpdateActionItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	item, board, ok := h.lookupItem(c)
	if !ok {
		return
	}

	var assigneeID *uuid.UUID
	if req.AssigneeID != nil && *req.AssigneeID != "" {
		parsed, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee ID format"})
			return
		}
		assigneeID = &parsed
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.UpdateActionItems,
		Target:     permission.BoardTarget{Board: board},
		Commit: func(ctx context.Context) (any, error) {
			item.Body = req.Body
			item.AssigneeID = assigneeID
			if err := h.itemRepo.Update(ctx, item); err != nil {
				return nil, err
			}
			return item, nil
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New(board.Slug, event.ActionUpdated, event.KindActionItem, actionItemResponse(entity.(*model.ActionItem), board.Slug, ""))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, actionItemResponse(entity.(*model.ActionItem), board.Slug, ""))
}

// Destroy removes an action item.
func (h *ActionItemHandler) Destroy(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	item, board, ok := h.lookupItem(c)
	if !ok {
		return
	}

	_, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.DestroyActionItems,
		Target:     permission.BoardTarget{Board: board},
		Commit: func(ctx context.Context) (any, error) {
			if err := h.itemRepo.Delete(ctx, item.ID); err != nil {
				return nil, err
			}
			return item, nil
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New(board.Slug, event.ActionDestroyed, event.KindActionItem, actionItemResponse(entity.(*model.ActionItem), board.Slug, ""))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": item.ID})
}

// Complete marks a pending action item done.
func (h *ActionItemHandler) Complete(c *gin.Context) {
	h.setStatus(c, permission.CompleteActionItems, model.StatusDone)
}

// Close abandons a pending action item.
func (h *ActionItemHandler) Close(c *gin.Context) {
	h.setStatus(c, permission.CloseActionItems, model.StatusClosed)
}

// Reopen returns a done or closed action item to pending.
func (h *ActionItemHandler) Reopen(c *gin.Context) {
	h.setStatus(c, permission.ReopenActionItems, model.StatusPending)
}

func (h *ActionItemHandler) setStatus(c *gin.Context, identifier, target string) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	item, board, ok := h.lookupItem(c)
	if !ok {
		return
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: identifier,
		Target:     permission.BoardTarget{Board: board},
		StateCheck: func() error {
			return pipeline.CheckTransition(item.Status, target)
		},
		Commit: func(ctx context.Context) (any, error) {
			return h.itemRepo.SetStatus(ctx, item.ID, target)
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New(board.Slug, event.ActionUpdated, event.KindActionItem, actionItemResponse(entity.(*model.ActionItem), board.Slug, ""))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, actionItemResponse(entity.(*model.ActionItem), board.Slug, ""))
}

// Move carries an action item to another board. Authorization runs against
// the destination board. Subscribers of the origin board see a destroy,
// subscribers of the destination see an add.
func (h *ActionItemHandler) Move(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	var req MoveActionItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	item, origin, ok := h.lookupItem(c)
	if !ok {
		return
	}

	target, err := h.boardRepo.GetBySlug(c.Request.Context(), req.TargetBoardSlug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if target == nil {
		respondMutationError(c, &pipeline.NotFoundError{Resource: "board"})
		return
	}
	// A same-board move would publish added and destroyed on one topic,
	// making subscribers drop an item that still exists.
	if target.ID == origin.ID {
		respondMutationError(c, pipeline.NewValidationError().Add("target_board_slug", "is already this item's board"))
		return
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.MoveActionItems,
		Target:     permission.BoardTarget{Board: target},
		Commit: func(ctx context.Context) (any, error) {
			return h.itemRepo.Move(ctx, item.ID, target.ID)
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New(target.Slug, event.ActionAdded, event.KindActionItem, actionItemResponse(entity.(*model.ActionItem), target.Slug, ""))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	moved := entity.(*model.ActionItem)
	h.pipeline.PublishDestroyed(c.Request.Context(), origin.Slug, event.KindActionItem, actionItemResponse(moved, origin.Slug, ""))

	c.JSON(http.StatusOK, actionItemResponse(moved, target.Slug, ""))
}

func (h *ActionItemHandler) lookupItem(c *gin.Context) (*model.ActionItem, *model.Board, bool) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action item ID format"})
		return nil, nil, false
	}

	item, err := h.itemRepo.GetByID(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, repository.ErrActionItemNotFound) {
			respondMutationError(c, &pipeline.NotFoundError{Resource: "action item"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve action item"})
		}
		return nil, nil, false
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), item.BoardID)
	if err != nil || board == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return nil, nil, false
	}
	return item, board, true
}
