package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taskhub/server/internal/events"
	"github.com/taskhub/server/internal/models"
	"github.com/taskhub/server/internal/repository"
	"github.com/taskhub/server/internal/token"
	"golang.org/x/crypto/bcrypt"
)

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu        sync.Mutex
	userSends map[uint64][]events.Event
	broadcast []events.Event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{userSends: make(map[uint64][]events.Event)}
}

func (p *recordingPublisher) PublishToUser(userID uint64, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userSends[userID] = append(p.userSends[userID], event)
}

func (p *recordingPublisher) Broadcast(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcast = append(p.broadcast, event)
}

func (p *recordingPublisher) broadcastNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.broadcast))
	for i, e := range p.broadcast {
		names[i] = e.Event
	}
	return names
}

func (p *recordingPublisher) sentTo(userID uint64) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userSends[userID]
}

type testEnv struct {
	db        *gorm.DB
	publisher *recordingPublisher

	userRepo         repository.UserRepository
	taskRepo         repository.TaskRepository
	teamRepo         repository.TeamRepository
	notificationRepo repository.NotificationRepository

	auth          *AuthService
	users         *UserService
	tasks         *TaskService
	teams         *TeamService
	notifications *NotificationService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

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

	publisher := newRecordingPublisher()
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	tokens := token.NewManager("test-secret", time.Hour)

	return &testEnv{
		db:               db,
		publisher:        publisher,
		userRepo:         userRepo,
		taskRepo:         taskRepo,
		teamRepo:         teamRepo,
		notificationRepo: notificationRepo,
		auth:             NewAuthService(userRepo, tokens),
		users:            NewUserService(userRepo),
		tasks:            NewTaskService(taskRepo, teamRepo, userRepo, notificationRepo, publisher),
		teams:            NewTeamService(teamRepo, taskRepo, userRepo, notificationRepo, publisher),
		notifications:    NewNotificationService(notificationRepo),
	}
}

func (env *testEnv) createUser(t *testing.T, email, name string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{Email: email, PasswordHash: string(hash), Name: name}
	require.NoError(t, env.userRepo.Create(user))
	return user
}

func (env *testEnv) createTask(t *testing.T, creator *models.User, assigneeIDs ...uint64) *models.Task {
	t.Helper()

	task, err := env.tasks.CreateTask(CreateTaskInput{
		Title:       "write report",
		Description: "quarterly report",
		DueDate:     time.Now().Add(24 * time.Hour),
		Priority:    models.TaskPriorityMedium,
		AssigneeIDs: assigneeIDs,
		CreatorID:   creator.ID,
	})
	require.NoError(t, err)
	return task
}

func (env *testEnv) createTeam(t *testing.T, creator *models.User, memberIDs ...uint64) *models.Team {
	t.Helper()

	team, err := env.teams.CreateTeam(CreateTeamInput{
		Name:      "platform",
		MemberIDs: memberIDs,
		CreatorID: creator.ID,
	})
	require.NoError(t, err)
	return team
}
