package permission

import (
	"context"

	"retroboard/internal/model"

	"github.com/google/uuid"
)

// Permission identifiers. Every mutation entry point is gated by one of
// these.
const (
	CreateCards  = "create_cards"
	UpdateCards  = "update_cards"
	DestroyCards = "destroy_cards"
	MoveCards    = "move_cards"
	LikeCards    = "like_cards"

	CreateComments  = "create_comments"
	UpdateComments  = "update_comments"
	DestroyComments = "destroy_comments"
	LikeComments    = "like_comment"

	CreateActionItems   = "create_action_items"
	UpdateActionItems   = "update_action_items"
	DestroyActionItems  = "destroy_action_items"
	MoveActionItems     = "move_action_items"
	CloseActionItems    = "close_action_items"
	CompleteActionItems = "complete_action_items"
	ReopenActionItems   = "reopen_action_items"

	EditBoard         = "edit_board"
	UpdateBoard       = "update_board"
	DestroyBoard      = "destroy_board"
	ContinueBoard     = "continue_board"
	InviteMembers     = "invite_members"
	DestroyMembership = "destroy_membership"
	ToggleReadyStatus = "toggle_ready_status"
	Suggestions       = "suggestions"
)

// Identifiers is the full identifier set, in one place for seeding the
// permission table at startup.
var Identifiers = []string{
	CreateCards, UpdateCards, DestroyCards, MoveCards, LikeCards,
	CreateComments, UpdateComments, DestroyComments, LikeComments,
	CreateActionItems, UpdateActionItems, DestroyActionItems,
	MoveActionItems, CloseActionItems, CompleteActionItems,
	ReopenActionItems,
	EditBoard, UpdateBoard, DestroyBoard, ContinueBoard,
	InviteMembers, DestroyMembership, ToggleReadyStatus, Suggestions,
}

// roleImplied is the fixed role to implied-identifier-set table. The creator
// role is handled separately: it implies every identifier.
var roleImplied = map[string]map[string]bool{
	model.RoleAdmin: {
		EditBoard:     true,
		UpdateBoard:   true,
		InviteMembers: true,
		Suggestions:   true,
	},
	model.RoleHost: {
		ContinueBoard: true,
	},
}

// Target is the entity a permission check runs against.
type Target interface {
	boardID() uuid.UUID
}

type BoardTarget struct {
	Board *model.Board
}

func (t BoardTarget) boardID() uuid.UUID { return t.Board.ID }

type CardTarget struct {
	Card *model.Card
}

func (t CardTarget) boardID() uuid.UUID { return t.Card.BoardID }

type CommentTarget struct {
	Comment *model.Comment
	// Board owning the comment's card, for delegation when no
	// comment-scoped grant exists.
	BoardID uuid.UUID
}

func (t CommentTarget) boardID() uuid.UUID { return t.BoardID }

// GrantReader resolves permission identifiers and explicit grants.
type GrantReader interface {
	FindByIdentifier(ctx context.Context, identifier string) (*model.Permission, error)
	HasBoardGrant(ctx context.Context, userID, permissionID, boardID uuid.UUID) (bool, error)
	HasCardGrant(ctx context.Context, userID, permissionID, cardID uuid.UUID) (bool, error)
	HasCommentGrant(ctx context.Context, userID, permissionID, commentID uuid.UUID) (bool, error)
}

// RoleReader resolves a user's role on a board.
type RoleReader interface {
	GetUserRole(ctx context.Context, boardID, userID uuid.UUID) (string, error)
}

// Gate answers "may this user perform this action on this target". It has
// no side effects and may be called any number of times per request, both
// for UI affordance checks and as the authorization step of a mutation.
type Gate struct {
	grants GrantReader
	roles  RoleReader
}

func NewGate(grants GrantReader, roles RoleReader) *Gate {
	return &Gate{grants: grants, roles: roles}
}

// Allowed reports whether the user may perform the identified action on the
// target. Unknown identifiers fail closed. A comment's author is never
// allowed to like their own comment, regardless of grants.
func (g *Gate) Allowed(ctx context.Context, user *model.User, identifier string, target Target) (bool, error) {
	permission, err := g.grants.FindByIdentifier(ctx, identifier)
	if err != nil {
		return false, err
	}
	if permission == nil {
		return false, nil
	}

	if t, ok := target.(CommentTarget); ok {
		if identifier == LikeComments && t.Comment.AuthorID == user.ID {
			return false, nil
		}
	}

	// Entity-scoped grant first.
	switch t := target.(type) {
	case CardTarget:
		granted, err := g.grants.HasCardGrant(ctx, user.ID, permission.ID, t.Card.ID)
		if err != nil {
			return false, err
		}
		if granted {
			return true, nil
		}
	case CommentTarget:
		granted, err := g.grants.HasCommentGrant(ctx, user.ID, permission.ID, t.Comment.ID)
		if err != nil {
			return false, err
		}
		if granted {
			return true, nil
		}
	}

	// Board-scoped grant, also the delegation path for cards and comments.
	granted, err := g.grants.HasBoardGrant(ctx, user.ID, permission.ID, target.boardID())
	if err != nil {
		return false, err
	}
	if granted {
		return true, nil
	}

	// Role-implied permissions.
	role, err := g.roles.GetUserRole(ctx, target.boardID(), user.ID)
	if err != nil {
		return false, err
	}
	if role == model.RoleCreator {
		return true, nil
	}
	return roleImplied[role][identifier], nil
}
