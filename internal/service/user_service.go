package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"

	"grocery-service/internal/entity"
)

// UserRepo is the user storage surface.
type UserRepo interface {
	UserDirectory
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	GetUserByEmailAndPassword(ctx context.Context, email, password string) (*entity.User, error)
}

type UserService struct {
	repo      UserRepo
	rdb       *redis.Client
	jwtSecret []byte
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserRepo, rdb *redis.Client, jwtSecret string) *UserService {
	return &UserService{repo: repo, rdb: rdb, jwtSecret: []byte(jwtSecret)}
}

type JwtCustomClaims struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GetUserByID retrieves a user by ID.
func (s *UserService) GetUserByID(ctx context.Context, id int) (*entity.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting user by ID %d", id)
		return nil, err
	}

	return user, nil
}

// CreateUser creates a new user.
func (s *UserService) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	createdUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}

	return createdUser, nil
}

// Login validates credentials and issues a signed JWT, cached in redis so a
// session can be revoked server-side before it expires.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.GetUserByEmailAndPassword(ctx, email, password)
	if err != nil {
		return "", err
	}

	claims := &JwtCustomClaims{
		UserID: user.ID,
		Name:   user.Username,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)),
		},
	}

	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := tkn.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, fmt.Sprintf("session:%s", email), t, time.Hour*24).Err(); err != nil {
			return "", err
		}
	}

	return t, nil
}

// ValidateToken checks that the session for email is still live in redis.
func (s *UserService) ValidateToken(ctx context.Context, email string) (string, error) {
	if s.rdb == nil {
		return "", fmt.Errorf("session store not configured")
	}

	token, err := s.rdb.Get(ctx, fmt.Sprintf("session:%s", email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("session not found")
		}
		return "", err
	}

	return token, nil
}
