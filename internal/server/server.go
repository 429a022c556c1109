package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskflow/internal/config"
	"taskflow/internal/handler"
	"taskflow/internal/middleware"
	"taskflow/internal/model"
	"taskflow/internal/recurrence"
	"taskflow/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Config *config.Config
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
	log.Println("✅ Connected to database")

	if err := db.AutoMigrate(
		&model.User{},
		&model.Project{},
		&model.ProjectMember{},
		&model.Task{},
		&model.Subtask{},
		&model.RecurrenceHistory{},
	); err != nil {
		return nil, fmt.Errorf("❌ failed to migrate schema: %w", err)
	}

	// Setup Gin
	r := gin.Default()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	subtaskRepo := repository.NewSubtaskRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	// Recurrence lifecycle service
	recurrenceSvc := recurrence.NewService(taskRepo, historyRepo, subtaskRepo)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userRepo)
	projectHandler := handler.NewProjectHandler(projectRepo, memberRepo)
	memberHandler := handler.NewMemberHandler(projectRepo, userRepo, memberRepo)
	taskHandler := handler.NewTaskHandler(taskRepo, memberRepo, recurrenceSvc)
	subtaskHandler := handler.NewSubtaskHandler(subtaskRepo, taskRepo)
	recurrenceHandler := handler.NewRecurrenceHandler(recurrenceSvc, taskRepo)

	// Public routes
	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		// Project routes
		authorized.POST("/projects", projectHandler.Create)
		authorized.GET("/projects", projectHandler.GetAll)
		authorized.GET("/projects/:id", projectHandler.GetByID)
		authorized.PUT("/projects/:id", projectHandler.Update)

		// Project membership routes
		authorized.POST("/projects/:id/members", memberHandler.AddMember)
		authorized.DELETE("/projects/:id/members/:user_id", memberHandler.RemoveMember)
		authorized.GET("/projects/:id/members", memberHandler.GetMembers)
		authorized.GET("/shared-projects", memberHandler.GetSharedProjects)

		// Task routes
		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks", taskHandler.GetMine)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.POST("/tasks/:id/complete", taskHandler.Complete)

		// Subtask routes
		authorized.POST("/tasks/:id/subtasks", subtaskHandler.Create)
		authorized.GET("/tasks/:id/subtasks", subtaskHandler.GetByTaskID)
		authorized.PUT("/subtasks/:subtask_id", subtaskHandler.Update)
		authorized.DELETE("/subtasks/:subtask_id", subtaskHandler.Delete)

		// Recurrence routes
		authorized.POST("/tasks/recurring", recurrenceHandler.Create)
		authorized.GET("/tasks/recurring", recurrenceHandler.GetActiveTemplates)
		authorized.PUT("/tasks/recurring/:id", recurrenceHandler.Update)
		authorized.DELETE("/tasks/recurring/:id", recurrenceHandler.Delete)
		authorized.GET("/tasks/recurring/:id/history", recurrenceHandler.GetHistory)
		authorized.GET("/tasks/recurring/:id/instances", recurrenceHandler.GetInstances)
	}

	return &Server{
		Engine: r,
		DB:     db,
		Config: cfg,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		log.Printf("🚀 Server running on port %s\n", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %s", err)
	}

	log.Println("✅ Server exited properly")
}
