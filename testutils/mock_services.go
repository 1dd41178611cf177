package testutils

import (
	"sync"

	"taskdeck/config"
	"taskdeck/database"
	"taskdeck/models"
	"taskdeck/utils/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTaskService mocks the TaskServiceInterface for testing
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) CreateTask(db *database.Database, ownerID uuid.UUID, input models.CreateTaskInput) (models.Task, error) {
	args := m.Called(db, ownerID, input)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *MockTaskService) GetTasks(db *database.Database, params map[string]interface{}) ([]models.Task, error) {
	args := m.Called(db, params)
	return args.Get(0).([]models.Task), args.Error(1)
}

func (m *MockTaskService) GetTaskById(db *database.Database, id string) (models.Task, error) {
	args := m.Called(db, id)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(db *database.Database, id string, input models.UpdateTaskInput) (models.Task, error) {
	args := m.Called(db, id, input)
	return args.Get(0).(models.Task), args.Error(1)
}

func (m *MockTaskService) DeleteTask(db *database.Database, id string) error {
	args := m.Called(db, id)
	return args.Error(0)
}

// MockAuthService mocks the AuthServiceInterface for testing
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(db *database.Database, email, password string) (string, models.User, error) {
	args := m.Called(db, email, password)
	return args.String(0), args.Get(1).(models.User), args.Error(2)
}

func (m *MockAuthService) Register(db *database.Database, email, password, displayName string) (string, models.User, error) {
	args := m.Called(db, email, password, displayName)
	return args.String(0), args.Get(1).(models.User), args.Error(2)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*token.JWTClaims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*token.JWTClaims), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ComparePasswords(hashedPassword, password string) error {
	args := m.Called(hashedPassword, password)
	return args.Error(0)
}

// MockUserService is a mock implementation of UserServiceInterface
type MockUserService struct{}

func (m *MockUserService) CreateUser(db *database.Database, user models.User) (models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return user, nil
}

func (m *MockUserService) GetUserById(db *database.Database, id string) (models.User, error) {
	return models.User{
		ID:    uuid.MustParse(id),
		Email: "test@example.com",
	}, nil
}

func (m *MockUserService) UpdateUser(db *database.Database, id string, user models.User) (models.User, error) {
	user.ID = uuid.MustParse(id)
	return user, nil
}

func (m *MockUserService) GetUsers(db *database.Database, params map[string]interface{}) ([]models.User, error) {
	return []models.User{
		{ID: uuid.New(), Email: "test1@example.com"},
		{ID: uuid.New(), Email: "test2@example.com"},
	}, nil
}

// MockTaskStreamService is a channel-backed stream double. Snapshots pushed
// through Push show up on every live subscriber channel.
type MockTaskStreamService struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]chan []models.Task
	Cancelled   int
}

func (m *MockTaskStreamService) Start(cfg config.Config) {}

func (m *MockTaskStreamService) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
}

func (m *MockTaskStreamService) Subscribe(ownerID uuid.UUID) (<-chan []models.Task, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.subscribers == nil {
		m.subscribers = make(map[int]chan []models.Task)
	}

	ch := make(chan []models.Task, 8)
	id := m.nextID
	m.nextID++
	m.subscribers[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(ch)
			m.Cancelled++
		}
	}
	return ch, cancel
}

func (m *MockTaskStreamService) NotifyOwner(ownerID string) {}

func (m *MockTaskStreamService) Push(tasks []models.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers {
		ch <- tasks
	}
}
