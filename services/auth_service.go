package services

import (
	"errors"
	"time"

	"taskdeck/database"
	"taskdeck/models"
	"taskdeck/utils/token"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Use the JWTClaims from token package
type JWTClaims = token.JWTClaims

type AuthServiceInterface interface {
	Login(db *database.Database, email, password string) (string, models.User, error)
	Register(db *database.Database, email, password, displayName string) (string, models.User, error)
	ValidateToken(tokenString string) (*JWTClaims, error)
	HashPassword(password string) (string, error)
	ComparePasswords(hashedPassword, password string) error
}

type AuthService struct {
	jwtSecret     []byte
	jwtExpiration time.Duration
	userService   UserServiceInterface
}

func NewAuthService(jwtSecret string, jwtExpirationHours int, userService UserServiceInterface) *AuthService {
	return &AuthService{
		jwtSecret:     []byte(jwtSecret),
		jwtExpiration: time.Duration(jwtExpirationHours) * time.Hour,
		userService:   userService,
	}
}

// Login checks credentials and returns a signed token with the user.
// All failures come back as error values; bad email and bad password are
// indistinguishable to the caller.
func (s *AuthService) Login(db *database.Database, email, password string) (string, models.User, error) {
	var user models.User
	if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}

	if err := s.ComparePasswords(user.PasswordHash, password); err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}

	tokenString, err := token.GenerateToken(user.ID, user.Email, user.DisplayName, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		return "", models.User{}, err
	}

	return tokenString, user, nil
}

// Register creates a new account and logs it in. The display name is
// optional; an empty string leaves it unset.
func (s *AuthService) Register(db *database.Database, email, password, displayName string) (string, models.User, error) {
	var count int64
	if err := db.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return "", models.User{}, err
	}
	if count > 0 {
		return "", models.User{}, ErrResourceExists
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return "", models.User{}, err
	}

	user, err := s.userService.CreateUser(db, models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", models.User{}, ErrResourceExists
		}
		return "", models.User{}, err
	}

	tokenString, err := token.GenerateToken(user.ID, user.Email, user.DisplayName, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		return "", models.User{}, err
	}

	return tokenString, user, nil
}

// ValidateToken uses the token utility to validate tokens
func (s *AuthService) ValidateToken(tokenString string) (*JWTClaims, error) {
	return token.ValidateToken(tokenString, s.jwtSecret)
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

var AuthServiceInstance AuthServiceInterface
