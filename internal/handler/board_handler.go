package handler

import (
	"context"
	"net/http"

	"retroboard/internal/boards"
	"retroboard/internal/model"
	"retroboard/internal/permission"
	"retroboard/internal/pipeline"
	"retroboard/internal/repository"

	"github.com/gin-gonic/gin"
)

type BoardHandler struct {
	boardRepo *repository.BoardRepository
	userRepo  *repository.UserRepository
	continuer *boards.Continuer
	pipeline  *pipeline.Pipeline
}

func NewBoardHandler(
	boardRepo *repository.BoardRepository,
	userRepo *repository.UserRepository,
	continuer *boards.Continuer,
	p *pipeline.Pipeline,
) *BoardHandler {
	return &BoardHandler{
		boardRepo: boardRepo,
		userRepo:  userRepo,
		continuer: continuer,
		pipeline:  p,
	}
}

type CreateBoardRequest struct {
	Title   string `json:"title"`
	Private bool   `json:"private"`
}

type UpdateBoardRequest struct {
	Title   string `json:"title" binding:"required"`
	Private bool   `json:"private"`
}

type BoardResponse struct {
	ID              string `json:"id"`
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	Private         bool   `json:"private"`
	PreviousBoardID string `json:"previous_board_id,omitempty"`
	ContinuedBy     string `json:"continued_by,omitempty"`
}

func boardResponse(board *model.Board) BoardResponse {
	resp := BoardResponse{
		ID:      board.ID.String(),
		Slug:    board.Slug,
		Title:   board.Title,
		Private: board.Private,
	}
	if board.PreviousBoardID != nil {
		resp.PreviousBoardID = board.PreviousBoardID.String()
	}
	return resp
}

// Create makes a new board with the caller as its creator.
func (h *BoardHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Title == "" {
		respondMutationError(c, pipeline.NewValidationError().Add("title", "can't be blank"))
		return
	}

	board := &model.Board{
		Slug:    boards.NewSlug(req.Title),
		Title:   req.Title,
		Private: req.Private,
	}
	if err := h.boardRepo.Create(c.Request.Context(), board, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board"})
		return
	}

	c.JSON(http.StatusCreated, boardResponse(board))
}

// GetBySlug returns one board.
func (h *BoardHandler) GetBySlug(c *gin.Context) {
	if _, ok := currentUser(c, h.userRepo); !ok {
		return
	}

	board, ok := h.lookupBoard(c)
	if !ok {
		return
	}

	resp := boardResponse(board)
	successor, err := h.boardRepo.GetContinuation(c.Request.Context(), board.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if successor != nil {
		resp.ContinuedBy = successor.Slug
	}
	c.JSON(http.StatusOK, resp)
}

// GetMine lists boards the caller created.
func (h *BoardHandler) GetMine(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	list, err := h.boardRepo.GetCreatorBoards(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve boards"})
		return
	}
	c.JSON(http.StatusOK, boardList(list))
}

// GetParticipating lists every board the caller is a member of.
func (h *BoardHandler) GetParticipating(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	list, err := h.boardRepo.GetMemberBoards(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve boards"})
		return
	}
	c.JSON(http.StatusOK, boardList(list))
}

func boardList(list []model.Board) []BoardResponse {
	response := make([]BoardResponse, len(list))
	for i := range list {
		response[i] = boardResponse(&list[i])
	}
	return response
}

// Update edits a board's title and privacy.
func (h *BoardHandler) Update(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	board, ok := h.lookupBoard(c)
	if !ok {
		return
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.UpdateBoard,
		Target:     permission.BoardTarget{Board: board},
		Commit: func(ctx context.Context) (any, error) {
			board.Title = req.Title
			board.Private = req.Private
			if err := h.boardRepo.Update(ctx, board); err != nil {
				return nil, err
			}
			return board, nil
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, boardResponse(entity.(*model.Board)))
}

// Destroy deletes a board with everything on it. Only the creator role
// passes the gate; admins explicitly do not.
func (h *BoardHandler) Destroy(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	board, ok := h.lookupBoard(c)
	if !ok {
		return
	}

	_, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.DestroyBoard,
		Target:     permission.BoardTarget{Board: board},
		Commit: func(ctx context.Context) (any, error) {
			if err := h.boardRepo.Delete(ctx, board.ID); err != nil {
				return nil, err
			}
			return board, nil
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"slug": board.Slug})
}

// Continue clones the board into its successor. A board can be continued at
// most once.
func (h *BoardHandler) Continue(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	board, ok := h.lookupBoard(c)
	if !ok {
		return
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.ContinueBoard,
		Target:     permission.BoardTarget{Board: board},
		Commit: func(ctx context.Context) (any, error) {
			return h.continuer.Continue(ctx, board)
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, boardResponse(entity.(*model.Board)))
}

func (h *BoardHandler) lookupBoard(c *gin.Context) (*model.Board, bool) {
	board, err := h.boardRepo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return nil, false
	}
	if board == nil {
		respondMutationError(c, &pipeline.NotFoundError{Resource: "board"})
		return nil, false
	}
	return board, true
}
