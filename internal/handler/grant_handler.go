package handler

import (
	"context"
	"errors"
	"net/http"

	"retroboard/internal/model"
	"retroboard/internal/permission"
	"retroboard/internal/pipeline"
	"retroboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GrantHandler manages explicit permission grants, the way a board creator
// delegates single capabilities to members without changing their role.
type GrantHandler struct {
	permissionRepo *repository.PermissionRepository
	boardRepo      *repository.BoardRepository
	cardRepo       *repository.CardRepository
	commentRepo    *repository.CommentRepository
	userRepo       *repository.UserRepository
	pipeline       *pipeline.Pipeline
}

func NewGrantHandler(
	permissionRepo *repository.PermissionRepository,
	boardRepo *repository.BoardRepository,
	cardRepo *repository.CardRepository,
	commentRepo *repository.CommentRepository,
	userRepo *repository.UserRepository,
	p *pipeline.Pipeline,
) *GrantHandler {
	return &GrantHandler{
		permissionRepo: permissionRepo,
		boardRepo:      boardRepo,
		cardRepo:       cardRepo,
		commentRepo:    commentRepo,
		userRepo:       userRepo,
		pipeline:       p,
	}
}

type CreateGrantRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	Identifier string `json:"identifier" binding:"required"`
	// Optional narrower scopes. When both are empty the grant is
	// board-scoped.
	CardID    string `json:"card_id"`
	CommentID string `json:"comment_id"`
}

type GrantResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Identifier string `json:"identifier"`
	Scope      string `json:"scope"`
}

// Create grants a permission identifier to a user, scoped to the board, a
// card or a comment.
func (h *GrantHandler) Create(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	var req CreateGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	board, err := h.boardRepo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if board == nil {
		respondMutationError(c, &pipeline.NotFoundError{Resource: "board"})
		return
	}

	granteeID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	perm, err := h.permissionRepo.FindByIdentifier(c.Request.Context(), req.Identifier)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve permission"})
		return
	}
	if perm == nil {
		respondMutationError(c, pipeline.NewValidationError().Add("identifier", "is unknown"))
		return
	}

	entity, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.EditBoard,
		Target:     permission.BoardTarget{Board: board},
		Validate: func() *pipeline.ValidationError {
			verr := pipeline.NewValidationError()
			if req.CardID != "" && req.CommentID != "" {
				verr.Add("scope", "must name a card or a comment, not both")
			}
			return verr
		},
		Commit: func(ctx context.Context) (any, error) {
			switch {
			case req.CardID != "":
				return h.createCardGrant(ctx, req.CardID, granteeID, perm)
			case req.CommentID != "":
				return h.createCommentGrant(ctx, req.CommentID, granteeID, perm)
			default:
				grant := &model.BoardPermission{
					BoardID:      board.ID,
					UserID:       granteeID,
					PermissionID: perm.ID,
				}
				if err := h.permissionRepo.CreateBoardGrant(ctx, grant); err != nil {
					return nil, err
				}
				return GrantResponse{ID: grant.ID.String(), UserID: req.UserID, Identifier: req.Identifier, Scope: "board"}, nil
			}
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity)
}

func (h *GrantHandler) createCardGrant(ctx context.Context, cardID string, granteeID uuid.UUID, perm *model.Permission) (any, error) {
	id, err := uuid.Parse(cardID)
	if err != nil {
		return nil, pipeline.NewValidationError().Add("card_id", "is invalid")
	}
	if _, err := h.cardRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return nil, &pipeline.NotFoundError{Resource: "card"}
		}
		return nil, err
	}
	grant := &model.CardPermission{CardID: id, UserID: granteeID, PermissionID: perm.ID}
	if err := h.permissionRepo.CreateCardGrant(ctx, grant); err != nil {
		return nil, err
	}
	return GrantResponse{ID: grant.ID.String(), UserID: granteeID.String(), Identifier: perm.Identifier, Scope: "card"}, nil
}

func (h *GrantHandler) createCommentGrant(ctx context.Context, commentID string, granteeID uuid.UUID, perm *model.Permission) (any, error) {
	id, err := uuid.Parse(commentID)
	if err != nil {
		return nil, pipeline.NewValidationError().Add("comment_id", "is invalid")
	}
	if _, err := h.commentRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, &pipeline.NotFoundError{Resource: "comment"}
		}
		return nil, err
	}
	grant := &model.CommentPermission{CommentID: id, UserID: granteeID, PermissionID: perm.ID}
	if err := h.permissionRepo.CreateCommentGrant(ctx, grant); err != nil {
		return nil, err
	}
	return GrantResponse{ID: grant.ID.String(), UserID: granteeID.String(), Identifier: perm.Identifier, Scope: "comment"}, nil
}

// GetByBoard lists a board's board-scoped grants.
func (h *GrantHandler) GetByBoard(c *gin.Context) {
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

	grants, err := h.permissionRepo.GetBoardGrants(c.Request.Context(), board.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve grants"})
		return
	}

	response := make([]GrantResponse, len(grants))
	for i := range grants {
		response[i] = GrantResponse{
			ID:         grants[i].ID.String(),
			UserID:     grants[i].UserID.String(),
			Identifier: grants[i].Permission.Identifier,
			Scope:      "board",
		}
	}
	c.JSON(http.StatusOK, response)
}
