package handler

import (
	"encoding/json"
	"net/http"

	"retroboard/internal/event"
	"retroboard/internal/repository"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// StreamHandler serves the per-board live event feed over SSE.
type StreamHandler struct {
	registry  *event.Registry
	boardRepo *repository.BoardRepository
	userRepo  *repository.UserRepository
}

func NewStreamHandler(registry *event.Registry, boardRepo *repository.BoardRepository, userRepo *repository.UserRepository) *StreamHandler {
	return &StreamHandler{registry: registry, boardRepo: boardRepo, userRepo: userRepo}
}

// Stream attaches the client to the :slug board's topic and forwards every
// domain event as an SSE data frame until the client disconnects.
func (h *StreamHandler) Stream(c *gin.Context) {
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

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming unsupported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.registry.Subscribe(board.Slug)
	defer h.registry.Unsubscribe(board.Slug, ch)

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.WithError(err).Error("marshal stream event")
				continue
			}
			if _, err := c.Writer.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
