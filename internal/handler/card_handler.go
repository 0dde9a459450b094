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

type CardHandler struct {
	cardRepo  *repository.CardRepository
	boardRepo *repository.BoardRepository
	userRepo  *repository.UserRepository
	pipeline  *pipeline.Pipeline
}

func NewCardHandler(
	cardRepo *repository.CardRepository,
	boardRepo *repository.BoardRepository,
	userRepo *repository.UserRepository,
	p *pipeline.Pipeline,
) *CardHandler {
	return &CardHandler{
		cardRepo:  cardRepo,
		boardRepo: boardRepo,
		userRepo:  userRepo,
		pipeline:  p,
	}
}

type CreateCardRequest struct {
	BoardSlug string `json:"board_slug" binding:"required"`
	Kind      string `json:"kind" binding:"required"`
	Body      string `json:"body"`
	// CorrelationID ties the created card to the client's optimistic
	// placeholder; it is echoed back in the response and in the broadcast
	// payload so the creating client can suppress its own event.
	CorrelationID string `json:"correlation_id"`
}

type UpdateCardRequest struct {
	Body string `json:"body" binding:"required"`
}

type MoveCardRequest struct {
	BoardSlug string `json:"board_slug" binding:"required"`
}

// CardResponse doubles as the event payload for card broadcasts. AuthorID
// and CorrelationID give subscribing clients what they need for echo
// suppression.
type CardResponse struct {
	ID            string `json:"id"`
	BoardSlug     string `json:"board_slug"`
	Kind          string `json:"kind"`
	Body          string `json:"body"`
	AuthorID      string `json:"author_id"`
	Status        string `json:"status"`
	Likes         int    `json:"likes"`
	TimesMoved    int    `json:"times_moved"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func cardResponse(card *model.Card, boardSlug, correlationID string) CardResponse {
	return CardResponse{
		ID:            card.ID.String(),
		BoardSlug:     boardSlug,
		Kind:          card.Kind,
		Body:          card.Body,
		AuthorID:      card.AuthorID.String(),
		Status:        card.Status,
		Likes:         card.Likes,
		TimesMoved:    card.TimesMoved,
		CorrelationID: correlationID,
	}
}

func cardEvent(topic, action string, resp CardResponse) (event.DomainEvent, error) {
	return event.New(topic, action, event.KindCard, resp)
}

// Create adds a card to a board column.
func (h *CardHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	var req CreateCardRequest
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

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.CreateCards,
		Target:     permission.BoardTarget{Board: board},
		Validate: func() *pipeline.ValidationError {
			verr := pipeline.NewValidationError()
			if req.Body == "" {
				verr.Add("body", "can't be blank")
			}
			return verr
		},
		Commit: func(ctx context.Context) (any, error) {
			card := &model.Card{
				BoardID:  board.ID,
				Kind:     req.Kind,
				Body:     req.Body,
				AuthorID: user.ID,
				Status:   model.StatusPending,
			}
			if err := h.cardRepo.Create(ctx, card); err != nil {
				return nil, err
			}
			return card, nil
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return cardEvent(board.Slug, event.ActionAdded, cardResponse(entity.(*model.Card), board.Slug, req.CorrelationID))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, cardResponse(entity.(*model.Card), board.Slug, req.CorrelationID))
}

// GetByBoardAndKind returns one column's cards, newest first, as the
// bootstrap snapshot for a subscribing client.
func (h *CardHandler) GetByBoardAndKind(c *gin.Context) {
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

	cards, err := h.cardRepo.GetByBoardAndKind(c.Request.Context(), board.ID, c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve cards"})
		return
	}

	response := make([]CardResponse, len(cards))
	for i := range cards {
		response[i] = cardResponse(&cards[i], board.Slug, "")
	}
	c.JSON(http.StatusOK, response)
}

// GetByBoard returns every card on a board regardless of column.
func (h *CardHandler) GetByBoard(c *gin.Context) {
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

	cards, err := h.cardRepo.GetByBoardID(c.Request.Context(), board.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve cards"})
		return
	}

	response := make([]CardResponse, len(cards))
	for i := range cards {
		response[i] = cardResponse(&cards[i], board.Slug, "")
	}
	c.JSON(http.StatusOK, response)
}

// Update edits a card's body.
func (h *CardHandler) Update(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	var req UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	card, board, ok := h.lookupCard(c)
	if !ok {
		return
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.UpdateCards,
		Target:     permission.CardTarget{Card: card},
		Commit: func(ctx context.Context) (any, error) {
			card.Body = req.Body
			if err := h.cardRepo.Update(ctx, card); err != nil {
				return nil, err
			}
			return card, nil
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return cardEvent(board.Slug, event.ActionUpdated, cardResponse(entity.(*model.Card), board.Slug, ""))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, cardResponse(entity.(*model.Card), board.Slug, ""))
}

// Destroy removes a card. Comments and grants go with it.
func (h *CardHandler) Destroy(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	card, board, ok := h.lookupCard(c)
	if !ok {
		return
	}

	_, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.DestroyCards,
		Target:     permission.CardTarget{Card: card},
		Commit: func(ctx context.Context) (any, error) {
			if err := h.cardRepo.Delete(ctx, card.ID); err != nil {
				return nil, err
			}
			return card, nil
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return cardEvent(board.Slug, event.ActionDestroyed, cardResponse(entity.(*model.Card), board.Slug, ""))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": card.ID})
}

// Like bumps the card's likes counter. Clients may fire this repeatedly
// while a pointer is held down; each call is an independent mutation.
func (h *CardHandler) Like(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	card, board, ok := h.lookupCard(c)
	if !ok {
		return
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.LikeCards,
		Target:     permission.CardTarget{Card: card},
		Commit: func(ctx context.Context) (any, error) {
			return h.cardRepo.Like(ctx, card.ID)
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return cardEvent(board.Slug, event.ActionUpdated, cardResponse(entity.(*model.Card), board.Slug, ""))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, cardResponse(entity.(*model.Card), board.Slug, ""))
}

// Move reassigns the card to another board.
func (h *CardHandler) Move(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	var req MoveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	card, board, ok := h.lookupCard(c)
	if !ok {
		return
	}

	targetBoard, err := h.boardRepo.GetBySlug(c.Request.Context(), req.BoardSlug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if targetBoard == nil {
		respondMutationError(c, &pipeline.NotFoundError{Resource: "board"})
		return
	}
	// A same-board move would publish added and destroyed on one topic,
	// making subscribers drop a card that still exists.
	if targetBoard.ID == board.ID {
		respondMutationError(c, pipeline.NewValidationError().Add("board_slug", "is already this card's board"))
		return
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.MoveCards,
		Target:     permission.BoardTarget{Board: targetBoard},
		Commit: func(ctx context.Context) (any, error) {
			return h.cardRepo.Move(ctx, card.ID, targetBoard.ID)
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return cardEvent(targetBoard.Slug, event.ActionAdded, cardResponse(entity.(*model.Card), targetBoard.Slug, ""))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	// The origin board sees the card leave; the target board sees it arrive.
	h.pipeline.PublishDestroyed(c.Request.Context(), board.Slug, event.KindCard, cardResponse(card, board.Slug, ""))

	c.JSON(http.StatusOK, cardResponse(entity.(*model.Card), targetBoard.Slug, ""))
}

// lookupCard resolves the :id card and its owning board, writing the error
// response on failure.
func (h *CardHandler) lookupCard(c *gin.Context) (*model.Card, *model.Board, bool) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid card ID format"})
		return nil, nil, false
	}

	card, err := h.cardRepo.GetByID(c.Request.Context(), cardID)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			respondMutationError(c, &pipeline.NotFoundError{Resource: "card"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve card"})
		}
		return nil, nil, false
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), card.BoardID)
	if err != nil || board == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return nil, nil, false
	}
	return card, board, true
}
