package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkpress/content-platform/internal/domain"
	"github.com/inkpress/content-platform/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotConfirmed   = errors.New("registration not confirmed")
	ErrInvalidCode        = errors.New("invalid confirmation code")
)

// AuthService is host-layer glue: it verifies credentials and delegates all
// session work to SessionService. Email delivery is the host's concern; the
// confirmation code is stored and handed back to the caller.
type AuthService struct {
	users    repository.UserRepository
	sessions *SessionService
	now      Clock
}

func NewAuthService(users repository.UserRepository, sessions *SessionService, now Clock) *AuthService {
	return &AuthService{users: users, sessions: sessions, now: orSystemClock(now)}
}

func (s *AuthService) Register(ctx context.Context, login, email, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	code := uuid.NewString()
	user := &domain.User{
		ID:               uuid.NewString(),
		Login:            login,
		Email:            email,
		PasswordHash:     string(hash),
		ConfirmationCode: &code,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, loginOrEmail, password, ip, deviceTitle string) (*domain.Session, TokenPair, error) {
	user, err := s.users.FindByLoginOrEmail(ctx, loginOrEmail)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if user.ConfirmedAt == nil {
		return nil, TokenPair{}, ErrUserNotConfirmed
	}
	return s.sessions.Create(ctx, user.ID, ip, deviceTitle)
}

// ConfirmRegistration marks the account confirmed and logs the device in,
// mirroring the login path.
func (s *AuthService) ConfirmRegistration(ctx context.Context, code, ip, deviceTitle string) (*domain.Session, TokenPair, error) {
	user, err := s.users.FindByConfirmationCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, TokenPair{}, ErrInvalidCode
		}
		return nil, TokenPair{}, err
	}
	if err := s.users.MarkConfirmed(ctx, user.ID, s.now()); err != nil {
		return nil, TokenPair{}, err
	}
	return s.sessions.Create(ctx, user.ID, ip, deviceTitle)
}

func (s *AuthService) UserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}
