package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"ecolearn/internal/config"
	"ecolearn/internal/database"
	"ecolearn/internal/handlers"
	"ecolearn/internal/models"
	"ecolearn/internal/repository"
	"ecolearn/internal/security"
	"ecolearn/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	tokens, err := security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenDuration)
	if err != nil {
		log.Fatalf("Failed to initialize token issuer: %v", err)
	}

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	levelTestRepo := repository.NewLevelTestRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, tokens)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, emailService)
	progressService := service.NewProgressService(db, userRepo, progressRepo, activityRepo, assignmentRepo, notificationService)
	courseService := service.NewCourseService(courseRepo, progressRepo, userRepo, progressService, notificationService)
	activityService := service.NewActivityService(activityRepo)
	quizService := service.NewQuizService(quizRepo)
	teacherService := service.NewTeacherService(db, userRepo, progressRepo, quizRepo, assignmentRepo, activityRepo, courseRepo, notificationService)
	parentService := service.NewParentService(userRepo, progressRepo)
	userService := service.NewUserService(userRepo, progressRepo)
	placementService := service.NewPlacementService(userRepo, levelTestRepo)

	// Seed built-in courses
	if cfg.SeedOnStartup {
		if err := courseService.EnsureSeeded(); err != nil {
			log.Printf("Warning: Failed to seed courses: %v", err)
		}
	}

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
	}

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService)
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(authService, userService)
	oauthHandler := handlers.NewOAuthHandler(authService, oauthProviders, cfg.OAuthRedirectBaseURL)
	courseHandler := handlers.NewCourseHandler(courseService)
	activityHandler := handlers.NewActivityHandler(activityService, progressService)
	quizHandler := handlers.NewQuizHandler(quizService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	teacherHandler := handlers.NewTeacherHandler(teacherService)
	parentHandler := handlers.NewParentHandler(parentService)
	userHandler := handlers.NewUserHandler(userService, progressService)
	placementHandler := handlers.NewPlacementHandler(placementService)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /api/health", healthHandler.Check)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/auth/oauth", oauthHandler.Providers)
	mux.HandleFunc("GET /auth/{provider}/start", oauthHandler.Start)
	mux.HandleFunc("GET /auth/{provider}/callback", oauthHandler.Callback)

	// Profile
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("PUT /api/auth/me", middleware.RequireAuth(authHandler.UpdateProfile))

	// Courses and section submissions
	mux.HandleFunc("GET /api/courses", middleware.RequireAuth(courseHandler.List))
	mux.HandleFunc("GET /api/courses/{ref}", middleware.RequireAuth(courseHandler.Get))
	mux.HandleFunc("POST /api/courses/{ref}/video", middleware.RequireRole(models.RoleStudent, courseHandler.WatchVideo))
	mux.HandleFunc("POST /api/courses/{ref}/exercises/{sectionID}", middleware.RequireRole(models.RoleStudent, courseHandler.SubmitExercise))
	mux.HandleFunc("POST /api/courses/{ref}/games/{sectionID}", middleware.RequireRole(models.RoleStudent, courseHandler.SubmitGame))

	// Standalone lessons and games
	mux.HandleFunc("GET /api/lessons", middleware.RequireAuth(activityHandler.ListLessons))
	mux.HandleFunc("POST /api/lessons", middleware.RequireRole(models.RoleTeacher, activityHandler.CreateLesson))
	mux.HandleFunc("GET /api/lessons/{id}", middleware.RequireAuth(activityHandler.GetLesson))
	mux.HandleFunc("POST /api/lessons/{id}/start", middleware.RequireRole(models.RoleStudent, activityHandler.StartLesson))
	mux.HandleFunc("POST /api/lessons/{id}/submit", middleware.RequireRole(models.RoleStudent, activityHandler.SubmitLesson))
	mux.HandleFunc("GET /api/games", middleware.RequireAuth(activityHandler.ListGames))
	mux.HandleFunc("POST /api/games", middleware.RequireRole(models.RoleTeacher, activityHandler.CreateGame))
	mux.HandleFunc("GET /api/games/{id}", middleware.RequireAuth(activityHandler.GetGame))
	mux.HandleFunc("POST /api/games/{id}/submit", middleware.RequireRole(models.RoleStudent, activityHandler.SubmitGame))

	// Quizzes
	mux.HandleFunc("GET /api/quizzes", middleware.RequireAuth(quizHandler.List))
	mux.HandleFunc("POST /api/quizzes", middleware.RequireRole(models.RoleTeacher, quizHandler.Create))
	mux.HandleFunc("GET /api/quizzes/attempts", middleware.RequireAuth(quizHandler.MyAttempts))
	mux.HandleFunc("GET /api/quizzes/{id}", middleware.RequireAuth(quizHandler.Get))
	mux.HandleFunc("PUT /api/quizzes/{id}", middleware.RequireRole(models.RoleTeacher, quizHandler.Update))
	mux.HandleFunc("DELETE /api/quizzes/{id}", middleware.RequireRole(models.RoleTeacher, quizHandler.Delete))
	mux.HandleFunc("POST /api/quizzes/{id}/publish", middleware.RequireRole(models.RoleTeacher, quizHandler.Publish))
	mux.HandleFunc("POST /api/quizzes/{id}/archive", middleware.RequireRole(models.RoleTeacher, quizHandler.Archive))
	mux.HandleFunc("POST /api/quizzes/{id}/attempts", middleware.RequireRole(models.RoleStudent, quizHandler.Submit))
	mux.HandleFunc("GET /api/quizzes/{id}/attempts", middleware.RequireRole(models.RoleTeacher, quizHandler.QuizAttempts))

	// Dashboard, progress and leaderboard
	mux.HandleFunc("GET /api/dashboard", middleware.RequireAuth(userHandler.Dashboard))
	mux.HandleFunc("GET /api/progress", middleware.RequireAuth(userHandler.MyProgress))
	mux.HandleFunc("GET /api/progress/recent", middleware.RequireAuth(userHandler.RecentProgress))
	mux.HandleFunc("GET /api/progress/stats", middleware.RequireAuth(userHandler.Stats))
	mux.HandleFunc("GET /api/leaderboard", middleware.RequireAuth(userHandler.Leaderboard))
	mux.HandleFunc("POST /api/users/points", middleware.RequireRole(models.RoleStudent, userHandler.AddPoints))
	mux.HandleFunc("PUT /api/users/grade", middleware.RequireRole(models.RoleStudent, userHandler.UpdateGrade))

	// Grade placement test
	mux.HandleFunc("GET /api/level-test/{level}", middleware.RequireRole(models.RoleStudent, placementHandler.Status))
	mux.HandleFunc("POST /api/level-test", middleware.RequireRole(models.RoleStudent, placementHandler.Submit))

	// Notifications
	mux.HandleFunc("GET /api/notifications", middleware.RequireAuth(notificationHandler.List))
	mux.HandleFunc("GET /api/notifications/unread-count", middleware.RequireAuth(notificationHandler.UnreadCount))
	mux.HandleFunc("PUT /api/notifications/read-all", middleware.RequireAuth(notificationHandler.MarkAllRead))
	mux.HandleFunc("PUT /api/notifications/{id}/read", middleware.RequireAuth(notificationHandler.MarkRead))

	// Teacher routes
	mux.HandleFunc("GET /api/teacher/class-code", middleware.RequireRole(models.RoleTeacher, teacherHandler.ClassCode))
	mux.HandleFunc("GET /api/teacher/students", middleware.RequireRole(models.RoleTeacher, teacherHandler.Roster))
	mux.HandleFunc("POST /api/teacher/students", middleware.RequireRole(models.RoleTeacher, teacherHandler.AddStudent))
	mux.HandleFunc("GET /api/teacher/overview", middleware.RequireRole(models.RoleTeacher, teacherHandler.Overview))
	mux.HandleFunc("GET /api/teacher/students/{id}/progress", middleware.RequireRole(models.RoleTeacher, teacherHandler.StudentProgress))
	mux.HandleFunc("GET /api/teacher/students/{id}/profile", middleware.RequireRole(models.RoleTeacher, teacherHandler.StudentProfile))
	mux.HandleFunc("DELETE /api/teacher/students/{id}", middleware.RequireRole(models.RoleTeacher, teacherHandler.RemoveStudent))
	mux.HandleFunc("POST /api/teacher/students/{id}/reset", middleware.RequireRole(models.RoleTeacher, teacherHandler.ResetStudent))
	mux.HandleFunc("POST /api/teacher/students/{id}/notes", middleware.RequireRole(models.RoleTeacher, teacherHandler.AddNote))
	mux.HandleFunc("DELETE /api/teacher/students/{id}/badges/{badge}", middleware.RequireRole(models.RoleTeacher, teacherHandler.RemoveBadge))
	mux.HandleFunc("POST /api/teacher/students/{id}/course-access", middleware.RequireRole(models.RoleTeacher, teacherHandler.ToggleCourseAccess))
	mux.HandleFunc("POST /api/teacher/students/{id}/reassign-quiz", middleware.RequireRole(models.RoleTeacher, teacherHandler.ReassignQuiz))
	mux.HandleFunc("POST /api/teacher/progress/{id}/feedback", middleware.RequireRole(models.RoleTeacher, teacherHandler.GiveFeedback))
	mux.HandleFunc("POST /api/teacher/feedback", middleware.RequireRole(models.RoleTeacher, teacherHandler.SendFeedback))
	mux.HandleFunc("POST /api/teacher/assignments", middleware.RequireRole(models.RoleTeacher, teacherHandler.Assign))
	mux.HandleFunc("GET /api/teacher/assignments", middleware.RequireRole(models.RoleTeacher, teacherHandler.Assignments))
	mux.HandleFunc("GET /api/assignments", middleware.RequireRole(models.RoleStudent, teacherHandler.MyAssignments))

	// Messaging
	mux.HandleFunc("POST /api/messages", middleware.RequireAuth(teacherHandler.SendMessage))
	mux.HandleFunc("GET /api/messages/{userID}", middleware.RequireAuth(teacherHandler.Conversation))

	// Parent routes
	mux.HandleFunc("POST /api/parent/children", middleware.RequireRole(models.RoleParent, parentHandler.LinkChild))
	mux.HandleFunc("GET /api/parent/children", middleware.RequireRole(models.RoleParent, parentHandler.Children))
	mux.HandleFunc("GET /api/parent/dashboard", middleware.RequireRole(models.RoleParent, parentHandler.Dashboard))
	mux.HandleFunc("GET /api/parent/children/{id}/progress", middleware.RequireRole(models.RoleParent, parentHandler.ChildProgress))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
