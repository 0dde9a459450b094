package handler

import (
	"context"
	"net/http"

	"retroboard/internal/event"
	"retroboard/internal/model"
	"retroboard/internal/permission"
	"retroboard/internal/pipeline"
	"retroboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MembershipHandler struct {
	membershipRepo *repository.MembershipRepository
	boardRepo      *repository.BoardRepository
	userRepo       *repository.UserRepository
	pipeline       *pipeline.Pipeline
}

func NewMembershipHandler(
	membershipRepo *repository.MembershipRepository,
	boardRepo *repository.BoardRepository,
	userRepo *repository.UserRepository,
	p *pipeline.Pipeline,
) *MembershipHandler {
	return &MembershipHandler{
		membershipRepo: membershipRepo,
		boardRepo:      boardRepo,
		userRepo:       userRepo,
		pipeline:       p,
	}
}

type InviteMembersRequest struct {
	Emails []string `json:"emails" binding:"required"`
}

type MembershipResponse struct {
	ID        string `json:"id"`
	BoardSlug string `json:"board_slug"`
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname,omitempty"`
	Role      string `json:"role"`
	Ready     bool   `json:"ready"`
}

func membershipResponse(membership *model.Membership, boardSlug, nickname string) MembershipResponse {
	return MembershipResponse{
		ID:        membership.ID.String(),
		BoardSlug: boardSlug,
		UserID:    membership.UserID.String(),
		Nickname:  nickname,
		Role:      membership.Role,
		Ready:     membership.Ready,
	}
}

// Invite adds users to the :slug board by email. Unknown emails are
// reported back; known ones become member-role memberships. Inviting an
// existing member is a no-op.
func (h *MembershipHandler) Invite(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	var req InviteMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	board, ok := h.lookupBoard(c)
	if !ok {
		return
	}

	var invited []MembershipResponse
	var unknown []string
	_, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.InviteMembers,
		Target:     permission.BoardTarget{Board: board},
		Validate: func() *pipeline.ValidationError {
			verr := pipeline.NewValidationError()
			if len(req.Emails) == 0 {
				verr.Add("emails", "can't be blank")
			}
			return verr
		},
		Commit: func(ctx context.Context) (any, error) {
			memberships, missing, err := h.membershipRepo.InviteByEmails(ctx, board.ID, req.Emails)
			if err != nil {
				return nil, err
			}
			unknown = missing
			for i := range memberships {
				invited = append(invited, membershipResponse(&memberships[i], board.Slug, memberships[i].User.Nickname))
			}
			return invited, nil
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New(board.Slug, event.ActionAdded, event.KindMembership, entity)
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invited": invited, "unknown": unknown})
}

// GetByBoard lists the :slug board's members.
func (h *MembershipHandler) GetByBoard(c *gin.Context) {
	if _, ok := currentUser(c, h.userRepo); !ok {
		return
	}

	board, ok := h.lookupBoard(c)
	if !ok {
		return
	}

	memberships, err := h.membershipRepo.GetByBoardID(c.Request.Context(), board.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve memberships"})
		return
	}

	response := make([]MembershipResponse, len(memberships))
	for i := range memberships {
		response[i] = membershipResponse(&memberships[i], board.Slug, memberships[i].User.Nickname)
	}
	c.JSON(http.StatusOK, response)
}

// Destroy removes a member from a board.
func (h *MembershipHandler) Destroy(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	membership, board, ok := h.lookupMembership(c)
	if !ok {
		return
	}

	_, err := h.pipeline.Mutate(c.Request.Context(), user, pipeline.Action{
		Identifier: permission.DestroyMembership,
		Target:     permission.BoardTarget{Board: board},
		Commit: func(ctx context.Context) (any, error) {
			if err := h.membershipRepo.Delete(ctx, membership.ID); err != nil {
				return nil, err
			}
			return membership, nil
		},
		Event: func(entity any) (event.DomainEvent, error) {
			return event.New(board.Slug, event.ActionDestroyed, event.KindMembership, membershipResponse(entity.(*model.Membership), board.Slug, ""))
		},
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": membership.ID})
}

// ToggleReady flips the caller's own readiness flag on the :slug board.
// Members always may toggle themselves, so the gate is not consulted.
func (h *MembershipHandler) ToggleReady(c *gin.Context) {
	user, ok := currentUser(c, h.userRepo)
	if !ok {
		return
	}

	board, ok := h.lookupBoard(c)
	if !ok {
		return
	}

	membership, err := h.membershipRepo.GetByBoardAndUser(c.Request.Context(), board.ID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve membership"})
		return
	}
	if membership == nil {
		respondMutationError(c, &pipeline.AuthorizationError{})
		return
	}

	membership.Ready = !membership.Ready
	if err := h.membershipRepo.SetReady(c.Request.Context(), membership.ID, membership.Ready); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update membership"})
		return
	}

	ev, err := event.New(board.Slug, event.ActionUpdated, event.KindMembership, membershipResponse(membership, board.Slug, user.Nickname))
	if err == nil {
		h.pipeline.Publish(c.Request.Context(), ev)
	}

	c.JSON(http.StatusOK, membershipResponse(membership, board.Slug, user.Nickname))
}

func (h *MembershipHandler) lookupBoard(c *gin.Context) (*model.Board, bool) {
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

func (h *MembershipHandler) lookupMembership(c *gin.Context) (*model.Membership, *model.Board, bool) {
	membershipID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership ID format"})
		return nil, nil, false
	}

	membership, err := h.membershipRepo.GetByID(c.Request.Context(), membershipID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve membership"})
		return nil, nil, false
	}
	if membership == nil {
		respondMutationError(c, &pipeline.NotFoundError{Resource: "membership"})
		return nil, nil, false
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), membership.BoardID)
	if err != nil || board == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return nil, nil, false
	}
	return membership, board, true
}
