package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/domain"
	"github.com/parentingo/parentingo/internal/repository"
	"github.com/parentingo/parentingo/internal/session"
	"github.com/parentingo/parentingo/pkg/validator"
	"golang.org/x/crypto/argon2"
)

const (
	msgInvalidForm     = "Invalid form data - see 'errors' for detail"
	msgSessionExists   = "Authenticated session already exists - log out to create new user"
	msgAlreadyLoggedIn = "User already authenticated"
	msgBadCredentials  = "Unauthorized"
)

type AuthService struct {
	userRepo  repository.UserRepository
	sessions  session.Store
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(userRepo repository.UserRepository, sessions session.Store, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		sessions:  sessions,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

// Session identifies the token a request was authenticated with.
type Session struct {
	TokenID   string
	ExpiresAt time.Time
}

// Authenticator resolves a bearer token to the current user snapshot. The
// HTTP middleware and the WebSocket upgrade both authenticate through it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, Session, error)
}

var _ Authenticator = (*AuthService)(nil)

// Register creates an account and signs the new user in. actor is the
// already authenticated user of the request, if any.
func (s *AuthService) Register(ctx context.Context, actor *domain.User, input RegisterInput) (*AuthResponse, error) {
	if actor != nil {
		return nil, apperror.Validation(msgSessionExists)
	}

	input.Email = strings.TrimSpace(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	input.Name = strings.TrimSpace(input.Name)

	errs := validator.ValidateRegister(input.Email, input.Username, input.Name, input.Password)
	if _, bad := errs["email"]; !bad {
		existing, err := s.userRepo.GetByEmail(ctx, input.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			errs.Add("email", "Email already in use")
		}
	}
	if _, bad := errs["username"]; !bad {
		existing, err := s.userRepo.GetByUsername(ctx, input.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			errs.Add("username", "Username already taken")
		}
	}
	if errs.HasErrors() {
		return nil, apperror.ValidationFields(msgInvalidInput, errs)
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		Username:     input.Username,
		Name:         input.Name,
		PasswordHash: hash,
		Followers:    []uuid.UUID{},
		Following:    []uuid.UUID{},
		CreatedAt:    now,
		LastLogin:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.ValidationFields(msgInvalidInput, map[string]string{"username": "Username already taken"})
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

func (s *AuthService) Login(ctx context.Context, actor *domain.User, input LoginInput) (*AuthResponse, error) {
	if actor != nil {
		return nil, apperror.Forbidden(msgAlreadyLoggedIn)
	}

	if errs := validator.ValidateLogin(input.Username, input.Password); errs.HasErrors() {
		return nil, apperror.ValidationFields(msgInvalidForm, errs)
	}

	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		return nil, err
	}
	if user == nil || !verifyPassword(input.Password, user.PasswordHash) {
		return nil, apperror.Unauthenticated(msgBadCredentials)
	}

	user.LastLogin = time.Now().UTC()
	if err := s.userRepo.TouchLastLogin(ctx, user); err != nil {
		return nil, fmt.Errorf("updating last login: %w", err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &AuthResponse{User: user, AccessToken: token}, nil
}

// Logout revokes the token of sess until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, actor *domain.User, sess Session) (*Result, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated(msgAuthRequired)
	}
	if err := s.sessions.Revoke(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return nil, fmt.Errorf("revoking token: %w", err)
	}
	return message("User logged out"), nil
}

// Authenticate verifies tokenStr and loads the current snapshot of its
// user. Any failure is reported as unauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, tokenStr string) (*domain.User, Session, error) {
	unauthenticated := apperror.Unauthenticated(msgAuthRequired)

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, Session{}, unauthenticated
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || claims.ID == "" {
		return nil, Session{}, unauthenticated
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, Session{}, fmt.Errorf("checking revocation: %w", err)
	}
	if revoked {
		return nil, Session{}, unauthenticated
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, Session{}, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, Session{}, unauthenticated
	}

	return user, Session{TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *AuthService) generateToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	return fmt.Sprintf("%s:%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPassword(password, encoded string) bool {
	saltB64, hashB64, ok := strings.Cut(encoded, ":")
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expectedHash) == 1
}
