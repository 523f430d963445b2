package server

import (
	"fmt"
	"os"

	"github.com/farellandr/msgx/config"
	"github.com/farellandr/msgx/internal/crypto"
	"github.com/farellandr/msgx/internal/handlers"
	"github.com/farellandr/msgx/internal/middleware"
	"github.com/farellandr/msgx/internal/tickets"
	"github.com/gin-gonic/gin"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	store := tickets.NewGormStore(db)
	anonymizer := crypto.NewAnonymizer(cfg.IPPepper)
	service := tickets.NewService(store, anonymizer)

	r := gin.Default()

	setupRoutes(r, service, cfg)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

func setupRoutes(r *gin.Engine, service *tickets.Service, cfg *config.Config) {
	r.Use(middleware.TicketServiceMiddleware(service))

	public := r.Group("/v1")
	{
		ticketPublic := public.Group("/tickets")
		{
			ticketPublic.POST("", handlers.CreateTicket)
			ticketPublic.POST("/view", handlers.ViewTicket)
			ticketPublic.POST("/reply", handlers.PostReply)
		}
	}

	creator := r.Group("/v1/tickets")
	creator.Use(middleware.CreatorAuthMiddleware(cfg.JWTSecret))
	{
		creator.DELETE("/:id", handlers.DeleteTicket)
		creator.POST("/:id/revoke", handlers.RevokeTicket)
		creator.POST("/:id/reopen", handlers.ReopenTicket)
	}
}
