package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ms-booking/internal/apperr"
	"ms-booking/internal/auth"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	userdb "ms-booking/internal/users/db"
	"ms-booking/internal/utils"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 20
	minPasswordLen = 6
)

type UserDBLayer interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type TokenIssuer interface {
	IssueToken(user *models.User) (string, error)
}

type UserService struct {
	DB     UserDBLayer
	Tokens TokenIssuer
	Logger *logger.Logger
	// Hash is swappable so hashing failures can be exercised.
	Hash func(password string) (string, error)
}

func NewUserService(db UserDBLayer, tokens TokenIssuer, log *logger.Logger) *UserService {
	return &UserService{DB: db, Tokens: tokens, Logger: log, Hash: auth.HashPassword}
}

func invalidCredentials() *apperr.Error {
	return apperr.Validation(apperr.CodeInvalidCredentials, "Invalid credentials")
}

// Register creates a user. A taken username leaves the stored record untouched.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, apperr.Validation(apperr.CodeValidation,
			fmt.Sprintf("Username must be between %d and %d characters", minUsernameLen, maxUsernameLen))
	}
	if len(req.Password) < minPasswordLen {
		return nil, apperr.Validation(apperr.CodeValidation,
			fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	}

	exists, err := s.DB.UsernameExists(ctx, username)
	if err != nil {
		return nil, apperr.Internal("", "Failed to register user", err)
	}
	if exists {
		return nil, apperr.Validation(apperr.CodeUsernameTaken, "Username already exists")
	}

	hash, err := s.Hash(req.Password)
	if err != nil {
		return nil, apperr.Internal(apperr.CodePasswordHash, "Failed to hash password", err)
	}

	user := &models.User{
		ID:           utils.GenerateID(),
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      req.IsAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.DB.CreateUser(ctx, user); err != nil {
		if errors.Is(err, userdb.ErrDuplicate) {
			return nil, apperr.Validation(apperr.CodeUsernameTaken, "Username already exists")
		}
		return nil, apperr.Internal("", "Failed to register user", err)
	}

	s.Logger.Info("AUTH", fmt.Sprintf("Registered user %s (admin=%t)", user.Username, user.IsAdmin))
	return user, nil
}

// Login returns a token. Unknown users and wrong passwords get the same error.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, invalidCredentials()
	}

	user, err := s.DB.GetUserByUsername(ctx, username)
	if errors.Is(err, userdb.ErrNotFound) {
		s.Logger.LogSecurity("LOGIN", "unknown user "+username)
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, apperr.Internal("", "Failed to log in", err)
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.Logger.LogSecurity("LOGIN", "invalid password for "+username)
		return nil, invalidCredentials()
	}

	token, err := s.Tokens.IssueToken(user)
	if err != nil {
		return nil, apperr.Internal("", "Failed to issue token", err)
	}
	return &models.TokenResponse{Token: token}, nil
}
