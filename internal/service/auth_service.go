package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/appointment-service/internal/auth"
	"github.com/spec-kit/appointment-service/internal/config"
	"github.com/spec-kit/appointment-service/internal/domain"
	"github.com/spec-kit/appointment-service/internal/events"
	"github.com/spec-kit/appointment-service/internal/repository"
	"github.com/spec-kit/appointment-service/pkg/util"
)

// AuthService coordinates registration, login and session revocation.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Dispatcher  events.Dispatcher
}

// RegisterInput describes a registration payload.
type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	Role           string
	Specialization *string
	Experience     *int
	TimeSlots      []string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   deps.SessionRepo,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a new identity and issues a session token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, time.Time, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" || input.Password == "" {
		return nil, "", time.Time{}, util.NewValidationError("name, email, password required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, util.NewValidationError("user already exists", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, util.MapError(err)
	}

	role := domain.ParseRole(input.Role)
	var slots []domain.TimeSlot
	if role == domain.RoleDoctor {
		parsed, bad := domain.ParseTimeSlots(input.TimeSlots)
		if bad != "" {
			return nil, "", time.Time{}, util.NewValidationError("invalid time slot", map[string]any{"slot": bad})
		}
		slots = parsed
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, util.MapError(err)
	}

	user := &domain.User{
		Name:           name,
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
		Specialization: input.Specialization,
		Experience:     input.Experience,
		DeclaredSlots:  slots,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if util.IsUniqueViolation(err, "") {
			return nil, "", time.Time{}, util.NewValidationError("user already exists", map[string]any{"email": email})
		}
		return nil, "", time.Time{}, util.MapError(err)
	}

	s.publishRegistered(ctx, user)
	return s.issueToken(user)
}

// Login authenticates an identity. An unseen email registers a new patient
// on the spot; a known email must present its password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", time.Time{}, util.NewValidationError("email and password required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.Register(ctx, RegisterInput{
			Name:     localPart(email),
			Email:    email,
			Password: password,
		})
	}
	if err != nil {
		return nil, "", time.Time{}, util.MapError(err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, util.NewUnauthorized("invalid credentials")
	}
	return s.issueToken(user)
}

// Logout revokes the presented session until its token expires.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.sessions == nil || claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.sessions.Revoke(ctx, claims.ID, ttl); err != nil {
		return util.MapError(err)
	}
	return nil
}

func (s *AuthService) issueToken(user *domain.User) (*domain.User, string, time.Time, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, util.MapError(err)
	}
	return user, token, exp, nil
}

func (s *AuthService) publishRegistered(ctx context.Context, user *domain.User) {
	if s.dispatcher == nil {
		return
	}
	userID := user.ID
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventUserRegistered,
		Actor:     events.Actor{Role: user.Role, UserID: &userID},
		Timestamp: time.Now(),
		Payload:   events.UserRegisteredPayload{UserID: user.ID, Role: user.Role},
	})
}

func localPart(email string) string {
	if idx := strings.Index(email, "@"); idx > 0 {
		return email[:idx]
	}
	return email
}
