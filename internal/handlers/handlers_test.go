package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taskhub/server/internal/events"
	"github.com/taskhub/server/internal/metrics"
	"github.com/taskhub/server/internal/middleware"
	"github.com/taskhub/server/internal/models"
	"github.com/taskhub/server/internal/repository"
	"github.com/taskhub/server/internal/response"
	"github.com/taskhub/server/internal/services"
	"github.com/taskhub/server/internal/token"
)

type handlerTestEnv struct {
	db     *gorm.DB
	router *gin.Engine
	tokens *token.Manager
	auth   *services.AuthService
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.TeamInvitation{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.Notification{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	publisher := events.NopPublisher{}
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	tokens := token.NewManager("test-secret", time.Hour)

	authService := services.NewAuthService(userRepo, tokens)
	userService := services.NewUserService(userRepo)
	taskService := services.NewTaskService(taskRepo, teamRepo, userRepo, notificationRepo, publisher)
	teamService := services.NewTeamService(teamRepo, taskRepo, userRepo, notificationRepo, publisher)
	notificationService := services.NewNotificationService(notificationRepo)

	m := metrics.New("test", prometheus.NewRegistry())
	authHandler := NewAuthHandler(authService, m, 3600, false)
	userHandler := NewUserHandler(userService)
	taskHandler := NewTaskHandler(taskService)
	teamHandler := NewTeamHandler(teamService)
	notificationHandler := NewNotificationHandler(notificationService)

	r := gin.New()
	requireAuth := middleware.RequireAuth(tokens)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.Me)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/search", userHandler.SearchUser)
			users.GET("/profile", userHandler.GetProfile)
			users.PUT("/profile", userHandler.UpdateProfile)
			users.DELETE("/profile", userHandler.DeleteAccount)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/dashboard", taskHandler.GetDashboard)
			tasks.GET("/my/assigned", taskHandler.ListAssignedTasks)
			tasks.GET("/my/created", taskHandler.ListCreatedTasks)
			tasks.GET("/overdue", taskHandler.ListOverdueTasks)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		teams := api.Group("/teams")
		teams.Use(requireAuth)
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.GET("", teamHandler.ListTeams)
			teams.GET("/:id", teamHandler.GetTeam)
			teams.PUT("/:id", teamHandler.UpdateTeam)
			teams.DELETE("/:id", teamHandler.DeleteTeam)
			teams.POST("/:id/members", teamHandler.AddMember)
			teams.DELETE("/:id/members/:userId", teamHandler.RemoveMember)
			teams.POST("/:id/invitations", teamHandler.InviteMember)
		}

		invitations := api.Group("/invitations")
		invitations.Use(requireAuth)
		{
			invitations.GET("", teamHandler.ListInvitations)
			invitations.PUT("/:id/accept", teamHandler.AcceptInvitation)
			invitations.PUT("/:id/reject", teamHandler.RejectInvitation)
		}

		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.DELETE("/:id", notificationHandler.DeleteNotification)
			notifications.DELETE("", notificationHandler.DeleteAllNotifications)
		}
	}

	return &handlerTestEnv{
		db:     db,
		router: r,
		tokens: tokens,
		auth:   authService,
	}
}

// registerUser creates an account through the service layer and returns the
// user with a bearer token.
func (env *handlerTestEnv) registerUser(t *testing.T, email, name string) (*models.User, string) {
	t.Helper()

	user, tok, err := env.auth.Register(services.RegisterInput{
		Email:    email,
		Password: "supersecret",
		Name:     name,
	})
	require.NoError(t, err)
	return user, tok
}

// do performs a request against the router and decodes the envelope.
func (env *handlerTestEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	var envelope response.Envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope
}

// dataAs re-marshals the envelope data into out.
func dataAs(t *testing.T, envelope response.Envelope, out interface{}) {
	t.Helper()

	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

// doRaw serves a prebuilt request, for tests that need full header control.
func doRaw(env *handlerTestEnv, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}
