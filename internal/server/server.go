package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"retroboard/internal/boards"
	"retroboard/internal/config"
	"retroboard/internal/event"
	"retroboard/internal/handler"
	"retroboard/internal/middleware"
	"retroboard/internal/model"
	"retroboard/internal/permission"
	"retroboard/internal/pipeline"
	"retroboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config

	relayCancel context.CancelFunc
}

func Init(cfg *config.Config) (*Server, error) {
	// Setup GORM
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Info("✅ Connected to database")

	if err := db.AutoMigrate(
		&model.User{},
		&model.Board{},
		&model.Membership{},
		&model.Card{},
		&model.Comment{},
		&model.ActionItem{},
		&model.Permission{},
		&model.BoardPermission{},
		&model.CardPermission{},
		&model.CommentPermission{},
	); err != nil {
		return nil, fmt.Errorf("❌ failed to migrate schema: %w", err)
	}

	// Setup Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("❌ failed to connect to redis: %w", err)
	}
	log.Info("✅ Connected to redis")

	// Setup Gin
	r := gin.Default()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	cardRepo := repository.NewCardRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	actionItemRepo := repository.NewActionItemRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)

	// Seed the permission table with every known identifier.
	for _, identifier := range permission.Identifiers {
		if _, err := permissionRepo.EnsureIdentifier(context.Background(), identifier); err != nil {
			return nil, fmt.Errorf("❌ failed to seed permission %q: %w", identifier, err)
		}
	}

	// Realtime plumbing: local registry, redis fan-out, relay from other
	// server instances.
	registry := event.NewRegistry()
	publisher := event.NewPublisher(registry, rdb)
	relayCtx, relayCancel := context.WithCancel(context.Background())
	go publisher.Relay(relayCtx)

	gate := permission.NewGate(permissionRepo, membershipRepo)
	pipe := pipeline.New(gate, publisher)
	continuer := boards.NewContinuer(db)

	jwtExpiryHours, err := strconv.Atoi(cfg.JWTExpiryHours)
	if err != nil {
		relayCancel()
		return nil, fmt.Errorf("❌ invalid JWT_EXPIRY_HOURS: %w", err)
	}
	jwtExpiry := time.Duration(jwtExpiryHours) * time.Hour

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo, cfg.JWTSecret, jwtExpiry)
	boardHandler := handler.NewBoardHandler(boardRepo, userRepo, continuer, pipe)
	cardHandler := handler.NewCardHandler(cardRepo, boardRepo, userRepo, pipe)
	commentHandler := handler.NewCommentHandler(commentRepo, cardRepo, boardRepo, userRepo, pipe)
	actionItemHandler := handler.NewActionItemHandler(actionItemRepo, boardRepo, userRepo, pipe)
	membershipHandler := handler.NewMembershipHandler(membershipRepo, boardRepo, userRepo, pipe)
	streamHandler := handler.NewStreamHandler(registry, boardRepo, userRepo)
	grantHandler := handler.NewGrantHandler(permissionRepo, boardRepo, cardRepo, commentRepo, userRepo, pipe)

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Board routes
		authorized.POST("/boards", boardHandler.Create)
		authorized.GET("/boards", boardHandler.GetMine)
		authorized.GET("/participating-boards", boardHandler.GetParticipating)
		authorized.GET("/boards/:slug", boardHandler.GetBySlug)
		authorized.PUT("/boards/:slug", boardHandler.Update)
		authorized.DELETE("/boards/:slug", boardHandler.Destroy)
		authorized.POST("/boards/:slug/continue", boardHandler.Continue)
		authorized.GET("/boards/:slug/stream", streamHandler.Stream)

		// Membership routes
		authorized.POST("/boards/:slug/memberships", membershipHandler.Invite)
		authorized.GET("/boards/:slug/memberships", membershipHandler.GetByBoard)
		authorized.POST("/boards/:slug/ready", membershipHandler.ToggleReady)
		authorized.DELETE("/memberships/:id", membershipHandler.Destroy)

		// Permission grants
		authorized.POST("/boards/:slug/grants", grantHandler.Create)
		authorized.GET("/boards/:slug/grants", grantHandler.GetByBoard)

		// Card routes
		authorized.POST("/cards", cardHandler.Create)
		authorized.GET("/boards/:slug/cards", cardHandler.GetByBoard)
		authorized.GET("/boards/:slug/cards/:kind", cardHandler.GetByBoardAndKind)
		authorized.PUT("/cards/:id", cardHandler.Update)
		authorized.DELETE("/cards/:id", cardHandler.Destroy)
		authorized.POST("/cards/:id/like", cardHandler.Like)
		authorized.POST("/cards/:id/move", cardHandler.Move)

		// Comment routes
		authorized.POST("/cards/:id/comments", commentHandler.Create)
		authorized.GET("/cards/:id/comments", commentHandler.GetByCard)
		authorized.PUT("/comments/:id", commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Destroy)
		authorized.POST("/comments/:id/like", commentHandler.Like)

		// Action item routes
		authorized.POST("/action-items", actionItemHandler.Create)
		authorized.GET("/boards/:slug/action-items", actionItemHandler.GetByBoard)
		authorized.GET("/action-items/assigned", actionItemHandler.GetMine)
		authorized.PUT("/action-items/:id", actionItemHandler.Update)
		authorized.DELETE("/action-items/:id", actionItemHandler.Destroy)
		authorized.POST("/action-items/:id/complete", actionItemHandler.Complete)
		authorized.POST("/action-items/:id/close", actionItemHandler.Close)
		authorized.POST("/action-items/:id/reopen", actionItemHandler.Reopen)
		authorized.POST("/action-items/:id/move", actionItemHandler.Move)
	}

	return &Server{
		Engine:      r,
		DB:          db,
		Redis:       rdb,
		Config:      cfg,
		relayCancel: relayCancel,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 Shutting down server...")

	s.relayCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}
	if err := s.Redis.Close(); err != nil {
		log.WithError(err).Warn("closing redis client")
	}

	log.Info("✅ Server exited properly")
}
