package repository

import "errors"

// Common repository errors
var (
	ErrBoardNotFound      = errors.New("board not found")
	ErrCardNotFound       = errors.New("card not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrActionItemNotFound = errors.New("action item not found")
	ErrMembershipNotFound = errors.New("membership not found")
)
