package server

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stackitdev/stackit/backend/internal/database"
	"github.com/stackitdev/stackit/backend/internal/handlers"
	"github.com/stackitdev/stackit/backend/internal/middleware"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
}

// New wires the handlers to an already-opened database service. The caller
// owns the service lifecycle.
func New(db database.Service) *Server {
	return &Server{
		db:      db,
		handler: handlers.NewHandler(db.GetDB()),
	}
}

// NewServer creates and configures a new HTTP server
func NewServer(db database.Service) *http.Server {
	newServer := New(db)

	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	return &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/auth/register", s.handler.Auth.Register)
		api.POST("/auth/login", s.handler.Auth.Login)

		// Question routes (public reads)
		api.GET("/questions", s.handler.Question.GetQuestions)
		api.GET("/questions/trending", s.handler.Question.GetTrendingQuestions)
		api.GET("/questions/unanswered", s.handler.Question.GetUnansweredQuestions)
		api.GET("/questions/:id", s.handler.Question.GetQuestion)

		// Answer routes (public reads)
		api.GET("/answers/question/:questionId", s.handler.Answer.GetAnswersByQuestion)
		api.GET("/answers/user/:userId", s.handler.Answer.GetUserAnswers)

		// User routes (public reads)
		api.GET("/users/:id", s.handler.User.GetUserProfile)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Auth protected routes
			protected.GET("/auth/me", s.handler.Auth.GetMe)

			// Question protected routes
			protected.POST("/questions", s.handler.Question.CreateQuestion)
			protected.PUT("/questions/:id", s.handler.Question.UpdateQuestion)
			protected.DELETE("/questions/:id", s.handler.Question.DeleteQuestion)

			// Answer protected routes
			protected.POST("/answers/:questionId", s.handler.Answer.CreateAnswer)
			protected.PUT("/answers/:id", s.handler.Answer.UpdateAnswer)
			protected.PUT("/answers/:id/accept", s.handler.Answer.AcceptAnswer)
			protected.DELETE("/answers/:id", s.handler.Answer.DeleteAnswer)

			// Vote protected routes
			protected.POST("/votes/question/:id", s.handler.Vote.VoteQuestion)
			protected.POST("/votes/answer/:id", s.handler.Vote.VoteAnswer)
			protected.GET("/votes/user", s.handler.Vote.GetUserVotes)
		}
	}

	return r
}
