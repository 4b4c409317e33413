package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/leePettigrew/it-triage-demo/internal/corpus"
	"github.com/leePettigrew/it-triage-demo/internal/events"
	"github.com/leePettigrew/it-triage-demo/internal/handler"
	"github.com/leePettigrew/it-triage-demo/internal/repository"
)

type Server struct {
	router *gin.Engine
	logger *zap.Logger
}

// NewServer wires repositories and handlers onto a gin router.
func NewServer(db *sqlx.DB, prototypes *corpus.Store, queue handler.Enqueuer, hub *events.Hub, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	router.Use(corsMiddleware())

	s := &Server{
		router: router,
		logger: logger,
	}

	ticketRepo := repository.NewTicketRepository(db, logger)
	commentRepo := repository.NewCommentRepository(db, logger)

	ticketHandler := handler.NewTicketHandler(ticketRepo, prototypes, queue, logger)
	commentHandler := handler.NewCommentHandler(commentRepo, ticketRepo, logger)

	// Ping route for health check
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := router.Group("/api")
	{
		api.POST("/tickets", ticketHandler.CreateTicket)
		api.GET("/tickets", ticketHandler.GetAllTickets)
		api.GET("/tickets/:id", ticketHandler.GetTicketByID)
		api.PATCH("/tickets/:id", ticketHandler.PatchTicket)
		api.DELETE("/tickets/:id", ticketHandler.DeleteTicket)
		api.POST("/tickets/:id/classify", ticketHandler.Reclassify)

		api.GET("/tickets/:id/comments", commentHandler.GetComments)
		api.POST("/tickets/:id/comments", commentHandler.CreateComment)
		api.DELETE("/comments/:id", commentHandler.DeleteComment)
	}

	// Real-time ticket_routed events
	router.GET("/ws", func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	})

	return s
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) Run(port string) error {
	s.logger.Info("Server starting", zap.String("port", port))
	return s.router.Run(":" + port)
}
