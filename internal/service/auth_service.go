package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatapp/internal/cache"
	"chatapp/internal/config"
	"chatapp/internal/middleware"
	"chatapp/internal/models"
	"chatapp/internal/observability"
	"chatapp/internal/repository"
	"chatapp/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer   = "chatapp-api"
	TokenAudience = "chatapp-client"
	TokenType     = "bearer"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=3,max=100"`
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

// Token is the login response body.
type Token struct {
	Type      string       `json:"type"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// AuthService registers users and issues, verifies and revokes tokens.
type AuthService struct {
	users       repository.UserRepository
	revocations *cache.RevocationStore
	secret      []byte
	ttl         time.Duration
	failureMode string
	bcryptCost  int
	now         func() time.Time
}

// NewAuthService builds an AuthService from configuration.
func NewAuthService(users repository.UserRepository, revocations *cache.RevocationStore, cfg *config.Config) *AuthService {
	ttl := time.Duration(cfg.JWTTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	mode := strings.ToLower(cfg.LoginFailureMode)
	if mode == "" {
		mode = config.LoginFailureValidation
	}
	return &AuthService{
		users:       users,
		revocations: revocations,
		secret:      []byte(cfg.JWTSecret),
		ttl:         ttl,
		failureMode: mode,
		bcryptCost:  bcrypt.DefaultCost,
		now:         time.Now,
	}
}

// SetBcryptCost overrides the hashing cost, mainly for tests.
func (s *AuthService) SetBcryptCost(cost int) {
	s.bcryptCost = cost
}

// Register validates in, enforces unique username and email, and creates the user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := validation.Struct(in); err != nil {
		observability.AuthEvents.WithLabelValues("register", "invalid").Inc()
		return nil, err
	}

	var taken []models.FieldError
	usernameTaken, err := s.users.UsernameTaken(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if usernameTaken {
		taken = append(taken, models.FieldError{Field: "username", Rule: "unique", Message: "Username is already taken"})
	}
	emailTaken, err := s.users.EmailTaken(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if emailTaken {
		taken = append(taken, models.FieldError{Field: "email", Rule: "unique", Message: "Email is already taken"})
	}
	if len(taken) > 0 {
		observability.AuthEvents.WithLabelValues("register", "taken").Inc()
		return nil, models.NewFieldValidationError(taken...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:     in.Name,
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	observability.AuthEvents.WithLabelValues("register", "success").Inc()
	return user, nil
}

// Login checks credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Token, error) {
	in.Username = strings.TrimSpace(in.Username)

	if err := validation.Struct(in); err != nil {
		observability.AuthEvents.WithLabelValues("login", "invalid").Inc()
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil && !models.IsNotFound(err) {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		observability.AuthEvents.WithLabelValues("login", "failed").Inc()
		return nil, s.credentialsError()
	}

	token, expiresAt, err := s.IssueToken(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	observability.AuthEvents.WithLabelValues("login", "success").Inc()
	return &Token{Type: TokenType, Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) credentialsError() error {
	if s.failureMode == config.LoginFailureUnauthorized {
		return models.NewUnauthorizedError("Invalid credentials")
	}
	return validation.Field("username", "credentials", "Invalid username or password")
}

// IssueToken signs an HS256 token for user.
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("JWT secret not configured")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature, issuer, audience, lifetime and revocation.
func (s *AuthService) ParseToken(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthorizedError("Unauthorized access please login")
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, models.NewUnauthorizedError("Unauthorized access please login")
	}
	if s.revocations != nil && s.revocations.IsRevoked(ctx, claims.ID) {
		return nil, models.NewUnauthorizedError("Unauthorized access please login")
	}
	return claims, nil
}

// Logout revokes the token described by claims for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return models.NewUnauthorizedError("Unauthorized access please login")
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(s.now()); remaining > 0 {
			ttl = remaining
		}
	}
	if s.revocations == nil {
		return models.NewInternalError(fmt.Errorf("no revocation store configured"))
	}
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		// The in-process copy still holds the revocation.
		middleware.Logger.WarnContext(ctx, "token revocation not persisted", "jti", claims.ID, "error", err)
	}
	observability.AuthEvents.WithLabelValues("logout", "success").Inc()
	return nil
}
