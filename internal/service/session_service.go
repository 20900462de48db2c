package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/inkpress/content-platform/internal/domain"
	"github.com/inkpress/content-platform/internal/observability"
	"github.com/inkpress/content-platform/internal/repository"
	"github.com/inkpress/content-platform/internal/security"
)

var (
	ErrMalformedToken = errors.New("malformed refresh token")
	// ErrReplayDetected means an already-rotated refresh token was presented.
	// The device session is revoked before this is returned.
	ErrReplayDetected = errors.New("refresh token replay detected")
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type DeviceView struct {
	DeviceID     string    `json:"device_id"`
	IP           string    `json:"ip"`
	DeviceTitle  string    `json:"title"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// SessionService owns the device-session state machine: issue, rotate,
// revoke. Rotation is the only mutation path for token_version and the store
// performs it as a per-device compare-and-swap, so of two concurrent
// rotations presenting the same token exactly one succeeds.
type SessionService struct {
	sessions   repository.SessionRepository
	jwtMgr     *security.JWTManager
	sessionTTL time.Duration
	accessTTL  time.Duration
	now        Clock
}

func NewSessionService(sessions repository.SessionRepository, jwtMgr *security.JWTManager, sessionTTL, accessTTL time.Duration, now Clock) *SessionService {
	return &SessionService{
		sessions:   sessions,
		jwtMgr:     jwtMgr,
		sessionTTL: sessionTTL,
		accessTTL:  accessTTL,
		now:        orSystemClock(now),
	}
}

func (s *SessionService) Create(ctx context.Context, userID, ip, deviceTitle string) (*domain.Session, TokenPair, error) {
	now := s.now()
	session := &domain.Session{
		DeviceID:     uuid.NewString(),
		UserID:       userID,
		IP:           ip,
		DeviceTitle:  deviceTitle,
		TokenVersion: 0,
		IssuedAt:     now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		observability.RecordSessionLifecycle(ctx, "create", "error")
		return nil, TokenPair{}, err
	}
	pair, err := s.mintPair(session)
	if err != nil {
		observability.RecordSessionLifecycle(ctx, "create", "error")
		return nil, TokenPair{}, err
	}
	observability.RecordSessionLifecycle(ctx, "create", "success")
	return session, pair, nil
}

// Rotate exchanges a valid refresh token for a fresh pair. Failure modes, in
// order: ErrMalformedToken, repository.ErrSessionNotFound,
// repository.ErrSessionExpired, ErrReplayDetected. Replay revokes the device
// so a stolen token cannot be retried indefinitely.
func (s *SessionService) Rotate(ctx context.Context, refreshToken string) (*domain.Session, TokenPair, error) {
	claims, err := s.jwtMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			observability.RecordSessionRotation(ctx, "expired")
			return nil, TokenPair{}, repository.ErrSessionExpired
		}
		observability.RecordSessionRotation(ctx, "malformed")
		return nil, TokenPair{}, ErrMalformedToken
	}
	now := s.now()
	session, err := s.sessions.Rotate(ctx, claims.DeviceID, claims.TokenVersion, now, now.Add(s.sessionTTL))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTokenVersionConflict):
			if _, delErr := s.sessions.DeleteByDeviceID(ctx, claims.DeviceID); delErr != nil {
				slog.ErrorContext(ctx, "revoke replayed session", "device_id", claims.DeviceID, "error", delErr)
			}
			slog.WarnContext(ctx, "refresh token replay detected", "device_id", claims.DeviceID, "user_id", claims.Subject)
			observability.RecordSessionRotation(ctx, "replay")
			return nil, TokenPair{}, ErrReplayDetected
		case errors.Is(err, repository.ErrSessionNotFound):
			observability.RecordSessionRotation(ctx, "not_found")
			return nil, TokenPair{}, err
		case errors.Is(err, repository.ErrSessionExpired):
			observability.RecordSessionRotation(ctx, "expired")
			return nil, TokenPair{}, err
		}
		observability.RecordSessionRotation(ctx, "error")
		return nil, TokenPair{}, err
	}
	pair, err := s.mintPair(session)
	if err != nil {
		observability.RecordSessionRotation(ctx, "error")
		return nil, TokenPair{}, err
	}
	observability.RecordSessionRotation(ctx, "success")
	return session, pair, nil
}

// Revoke deletes the device session. Deletion is terminal: the device id is
// never resurrected.
func (s *SessionService) Revoke(ctx context.Context, deviceID string) (bool, error) {
	existed, err := s.sessions.DeleteByDeviceID(ctx, deviceID)
	if err != nil {
		observability.RecordSessionLifecycle(ctx, "revoke", "error")
		return false, err
	}
	observability.RecordSessionLifecycle(ctx, "revoke", "success")
	return existed, nil
}

func (s *SessionService) RevokeOthers(ctx context.Context, userID, keepDeviceID string) (int64, error) {
	removed, err := s.sessions.DeleteOthersByUser(ctx, userID, keepDeviceID)
	if err != nil {
		observability.RecordSessionLifecycle(ctx, "revoke_others", "error")
		return removed, err
	}
	observability.RecordSessionLifecycle(ctx, "revoke_others", "success")
	return removed, nil
}

func (s *SessionService) ListDevices(ctx context.Context, userID string) ([]DeviceView, error) {
	sessions, err := s.sessions.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]DeviceView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, DeviceView{
			DeviceID:     session.DeviceID,
			IP:           session.IP,
			DeviceTitle:  session.DeviceTitle,
			LastActiveAt: session.LastActiveAt,
		})
	}
	return views, nil
}

// CurrentDevice resolves the device session a refresh token names, without
// rotating it. Used by the device-management endpoints, which authenticate
// with the refresh credential. No revocation side effects here; replay
// policing happens only at rotation.
func (s *SessionService) CurrentDevice(ctx context.Context, refreshToken string) (*domain.Session, error) {
	claims, err := s.jwtMgr.ParseRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, repository.ErrSessionExpired
		}
		return nil, ErrMalformedToken
	}
	session, err := s.sessions.FindByDeviceID(ctx, claims.DeviceID)
	if err != nil {
		return nil, err
	}
	if !session.ExpiresAt.After(s.now()) {
		return nil, repository.ErrSessionExpired
	}
	if session.TokenVersion != claims.TokenVersion {
		return nil, repository.ErrTokenVersionConflict
	}
	return session, nil
}

// Device looks up a session by device id.
func (s *SessionService) Device(ctx context.Context, deviceID string) (*domain.Session, error) {
	return s.sessions.FindByDeviceID(ctx, deviceID)
}

// DeleteExpired is the peripheral janitor; validation-time expiry checks do
// not depend on it.
func (s *SessionService) DeleteExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

func (s *SessionService) mintPair(session *domain.Session) (TokenPair, error) {
	access, err := s.jwtMgr.SignAccessToken(session.UserID, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.jwtMgr.SignRefreshToken(session.UserID, session.DeviceID, session.TokenVersion, s.sessionTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
