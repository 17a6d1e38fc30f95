package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Evgen-Mutagen/wager-custody/internal/core"
	"github.com/Evgen-Mutagen/wager-custody/internal/model"
	"github.com/Evgen-Mutagen/wager-custody/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidLogin       = errors.New("login must be non-empty and must not start with house:")
)

type authService struct {
	userRepo     repository.UserRepository
	jwtSecretKey string
}

func NewAuthService(userRepo repository.UserRepository, jwtSecretKey string) core.AuthService {
	return &authService{
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
	}
}

func (s *authService) Register(ctx context.Context, login, password string) (*model.User, string, error) {
	// house identities are derived, never registered
	if login == "" || strings.HasPrefix(login, "house:") || password == "" {
		return nil, "", ErrInvalidLogin
	}

	existingUser, err := s.userRepo.GetByLogin(ctx, login)
	if err != nil {
		return nil, "", err
	}
	if existingUser != nil {
		return nil, "", ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		Login:        login,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, "", ErrUserAlreadyExists
		}
		return nil, "", err
	}

	token, err := s.generateToken(user.Identity())
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *authService) Login(ctx context.Context, login, password string) (*model.User, string, error) {
	user, err := s.userRepo.GetByLogin(ctx, login)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.generateToken(user.Identity())
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *authService) ValidateToken(tokenString string) (model.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return "", fmt.Errorf("token has no subject: %w", jwt.ErrSignatureInvalid)
		}
		return model.Identity(sub), nil
	}

	return "", jwt.ErrSignatureInvalid
}

func (s *authService) generateToken(identity model.Identity) (string, error) {
	claims := jwt.MapClaims{
		"sub": string(identity),
		"exp": time.Now().Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecretKey))
}
