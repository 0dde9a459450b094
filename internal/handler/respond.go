package handler

import (
	"errors"
	"net/http"

	"retroboard/internal/middleware"
	"retroboard/internal/model"
	"retroboard/internal/pipeline"
	"retroboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUser resolves the authenticated user set by the JWT middleware.
// It writes the error response itself and returns false when unresolved.
func currentUser(c *gin.Context, users repository.UserRepositoryInterface) (*model.User, bool) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}

	id, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return nil, false
	}

	user, err := users.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return nil, false
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}
	return user, true
}

// respondMutationError maps pipeline errors onto HTTP statuses with a
// structured error list.
func respondMutationError(c *gin.Context, err error) {
	var verr *pipeline.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Messages()})
		return
	}

	var aerr *pipeline.AuthorizationError
	if errors.As(err, &aerr) {
		c.JSON(http.StatusUnauthorized, gin.H{"errors": []string{aerr.Error()}})
		return
	}

	var serr *pipeline.InvalidStateError
	if errors.As(err, &serr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{serr.Error()}})
		return
	}

	var nerr *pipeline.NotFoundError
	if errors.As(err, &nerr) {
		c.JSON(http.StatusNotFound, gin.H{"errors": []string{nerr.Error()}})
		return
	}

	var cerr *pipeline.ConflictError
	if errors.As(err, &cerr) {
		c.JSON(http.StatusConflict, gin.H{"errors": []string{cerr.Error()}})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}
