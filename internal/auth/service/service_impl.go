package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/quizhive/quizhive/internal/auth/domain"
	"github.com/quizhive/quizhive/internal/auth/password"
	"github.com/quizhive/quizhive/internal/auth/token"
	userdomain "github.com/quizhive/quizhive/internal/user/domain"
	"github.com/quizhive/quizhive/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour
)

type Service struct {
	log         *zap.Logger
	users       userdomain.Repository
	sessions    domain.SessionRepository
	tokenIssuer *token.Issuer
	genID       *snowflake.Node
}

func New(log *zap.Logger, users userdomain.Repository, sessions domain.SessionRepository, tokenIssuer *token.Issuer, genID *snowflake.Node) domain.Service {
	return &Service{
		log:         log.Named("auth.service"),
		users:       users,
		sessions:    sessions,
		tokenIssuer: tokenIssuer,
		genID:       genID,
	}
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: now.Add(sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	accessToken, _, err := s.tokenIssuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		User: &userdomain.UserResponse{
			ID:          user.ID.String(),
			Email:       user.Email,
			FirstName:   user.FirstName,
			LastName:    user.LastName,
			IsSuperuser: user.IsSuperuser,
			CreatedAt:   user.CreatedAt,
		},
		RawToken:    rawToken,
		AccessToken: accessToken,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	tok := strings.TrimSpace(rawToken)
	if tok == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(tok))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}

	return s.sessions.DeleteSession(ctx, session.ID)
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*userdomain.User, error) {
	tok := strings.TrimSpace(rawToken)
	if tok == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(tok))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) AuthenticateBearer(ctx context.Context, rawToken string) (*userdomain.User, error) {
	claims, err := s.tokenIssuer.Parse(rawToken)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	email, err := normalizeEmail(claims.Email)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, userdomain.ErrUserNotFound) {
		return nil, err
	}

	return s.provision(ctx, email)
}

// provision creates an account for a trusted identity seen for the first time.
// The generated password is never disclosed; the account is only reachable
// through bearer tokens until the user resets it.
func (s *Service) provision(ctx context.Context, email string) (*userdomain.User, error) {
	random, err := password.Random()
	if err != nil {
		return nil, err
	}
	hashed, err := password.Hash(random)
	if err != nil {
		return nil, err
	}

	user := &userdomain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: hashed,
		Links:        datatypes.JSON([]byte("[]")),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent request may have provisioned the same identity.
		if db.IsDuplicateKeyErr(err) {
			return s.users.FindByEmail(ctx, email)
		}
		return nil, err
	}

	s.log.Info("provisioned user from bearer identity", zap.String("user_id", user.ID.String()))
	return user, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
