package boards

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"retroboard/internal/model"
	"retroboard/internal/pipeline"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlreadyContinuedMessage is returned when a board is continued twice.
const AlreadyContinuedMessage = "This board was already continued! Only one continuation per board is allowed!"

// Continuer clones a finished board into its successor: memberships with
// readiness reset, board-scoped permission grants, privacy and lineage.
type Continuer struct {
	db *gorm.DB
}

func NewContinuer(db *gorm.DB) *Continuer {
	return &Continuer{db: db}
}

// Continue creates the successor of prevBoard. A board can be continued at
// most once; the application-level check is backed by the unique index on
// previous_board_id, which closes the check-then-act race window.
func (c *Continuer) Continue(ctx context.Context, prevBoard *model.Board) (*model.Board, error) {
	var existing model.Board
	err := c.db.WithContext(ctx).
		Where("previous_board_id = ?", prevBoard.ID).
		First(&existing).Error
	if err == nil {
		return nil, &pipeline.ConflictError{Message: AlreadyContinuedMessage}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	board := &model.Board{
		Slug:            NewSlug(continuedTitle(prevBoard.Title)),
		Title:           continuedTitle(prevBoard.Title),
		Private:         prevBoard.Private,
		PreviousBoardID: &prevBoard.ID,
	}

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(board).Error; err != nil {
			return err
		}

		var memberships []model.Membership
		if err := tx.Where("board_id = ?", prevBoard.ID).Find(&memberships).Error; err != nil {
			return err
		}
		for _, membership := range memberships {
			clone := model.Membership{
				BoardID: board.ID,
				UserID:  membership.UserID,
				Role:    membership.Role,
				Ready:   false,
			}
			if err := tx.Create(&clone).Error; err != nil {
				return err
			}
		}

		var grants []model.BoardPermission
		if err := tx.Where("board_id = ?", prevBoard.ID).Find(&grants).Error; err != nil {
			return err
		}
		for _, grant := range grants {
			clone := model.BoardPermission{
				BoardID:      board.ID,
				UserID:       grant.UserID,
				PermissionID: grant.PermissionID,
			}
			if err := tx.Create(&clone).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

var titleSuffix = regexp.MustCompile(`^(.*) #(\d+)$`)

// continuedTitle appends " #2" to the title, or bumps an existing numeric
// suffix so repeated lineage reads "Sprint 7 #3" rather than
// "Sprint 7 #2 #2".
func continuedTitle(title string) string {
	if m := titleSuffix.FindStringSubmatch(title); m != nil {
		n, err := strconv.Atoi(m[2])
		if err == nil {
			return fmt.Sprintf("%s #%d", m[1], n+1)
		}
	}
	return title + " #2"
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// NewSlug derives a fresh, unique slug from the title.
func NewSlug(title string) string {
	base := slugCleaner.ReplaceAllString(strings.ToLower(title), "-")
	base = strings.Trim(base, "-")
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
