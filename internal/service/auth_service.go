package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/auditgate/auditgate/internal/audit"
	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/pkg/apperrors"
	"github.com/auditgate/auditgate/internal/pkg/metrics"
	"github.com/auditgate/auditgate/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthService struct {
	users    *repository.UserRepo
	recorder *audit.Recorder
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(users *repository.UserRepo, recorder *audit.Recorder, secret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:    users,
		recorder: recorder,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Login verifies credentials and issues a signed token. Both outcomes are
// written to the audit trail through the fail-safe facade.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logLogin(ctx, nil, model.StatusFailed, fmt.Sprintf("login failed for %q: unknown user", username))
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !user.IsActive || !user.CheckPassword(password) {
		s.logLogin(ctx, user, model.StatusFailed, fmt.Sprintf("login failed for %q", username))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	s.logLogin(ctx, user, model.StatusSuccess, fmt.Sprintf("%q logged in", username))
	return token, user, nil
}

// Logout is advisory with stateless tokens; it exists so the trail records
// the event.
func (s *AuthService) Logout(ctx context.Context, user *model.User) {
	s.recorder.Log(ctx, audit.Entry{
		Action:      model.ActionLogout,
		Resource:    model.UserResourceName,
		Actor:       user,
		Status:      model.StatusInfo,
		Description: fmt.Sprintf("%q logged out", user.Username),
	})
}

func (s *AuthService) logLogin(ctx context.Context, user *model.User, status, description string) {
	s.recorder.Log(ctx, audit.Entry{
		Action:      model.ActionLogin,
		Resource:    model.UserResourceName,
		Actor:       user,
		Status:      status,
		Description: description,
	})
	metrics.LoginTotal.WithLabelValues(status).Inc()
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *AuthService) issueToken(user *model.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Authenticate resolves a bearer token back to its user.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.New(apperrors.ErrAuthFailed, "invalid or expired token", err)
	}

	var id uint
	if _, err := fmt.Sscanf(claims.Subject, "%d", &id); err != nil {
		return nil, apperrors.New(apperrors.ErrAuthFailed, "malformed token subject", err)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil || !user.IsActive {
		return nil, apperrors.New(apperrors.ErrAuthFailed, "unknown or inactive user", err)
	}
	return user, nil
}
