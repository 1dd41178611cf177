package routes

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskdeck/database"
	"taskdeck/models"
	"taskdeck/services"
	"taskdeck/utils/token"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type MockAuthService struct{}

func (m *MockAuthService) Login(db *database.Database, email, password string) (string, models.User, error) {
	if email == "test@example.com" && password == "correct-password" {
		return "mock-token", models.User{ID: uuid.New(), Email: email}, nil
	}
	return "", models.User{}, services.ErrInvalidCredentials
}

func (m *MockAuthService) Register(db *database.Database, email, password, displayName string) (string, models.User, error) {
	if email == "taken@example.com" {
		return "", models.User{}, services.ErrResourceExists
	}
	return "mock-token", models.User{ID: uuid.New(), Email: email, DisplayName: displayName}, nil
}

func (m *MockAuthService) ValidateToken(tokenString string) (*token.JWTClaims, error) {
	if tokenString == "mock-token" {
		return &token.JWTClaims{UserID: uuid.New(), Email: "test@example.com"}, nil
	}
	return nil, services.ErrInvalidToken
}

func (m *MockAuthService) HashPassword(password string) (string, error) {
	return "hashed-" + password, nil
}

func (m *MockAuthService) ComparePasswords(hashedPassword, password string) error {
	if hashedPassword != "hashed-"+password {
		return services.ErrInvalidCredentials
	}
	return nil
}

func setupAuthRouter() *gin.Engine {
	router := gin.Default()
	RegisterAuthRoutes(router, &database.Database{}, &MockAuthService{})
	return router
}

func TestLogin(t *testing.T) {
	router := setupAuthRouter()

	t.Run("Valid Credentials", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := []byte(`{"email":"test@example.com","password":"correct-password"}`)
		req, _ := http.NewRequest("POST", "/api/v1/auth/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "mock-token")
	})

	t.Run("Wrong Password", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := []byte(`{"email":"test@example.com","password":"wrong-password"}`)
		req, _ := http.NewRequest("POST", "/api/v1/auth/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Missing Email", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := []byte(`{"password":"correct-password"}`)
		req, _ := http.NewRequest("POST", "/api/v1/auth/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRegister(t *testing.T) {
	router := setupAuthRouter()

	t.Run("New Account", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := []byte(`{"email":"new@example.com","password":"long-enough-password","display_name":"New User"}`)
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "new@example.com")
	})

	t.Run("Email Taken", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := []byte(`{"email":"taken@example.com","password":"long-enough-password"}`)
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Short Password", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := []byte(`{"email":"new@example.com","password":"short"}`)
		req, _ := http.NewRequest("POST", "/api/v1/auth/register", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogout(t *testing.T) {
	router := setupAuthRouter()

	// Logout is stateless; repeating it changes nothing
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/auth/logout", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
