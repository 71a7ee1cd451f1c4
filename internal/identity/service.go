package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"seacert/internal/audit"
	"seacert/internal/jwttoken"
	id "seacert/pkg/domain"
	dErrors "seacert/pkg/domain-errors"
	"seacert/pkg/platform/sentinel"
	"seacert/pkg/requestcontext"
)

// accessTokenTTL bounds how long an issued portal token stays valid.
const accessTokenTTL = 8 * time.Hour

// Store persists portal accounts.
type Store interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// Service registers accounts and exchanges credentials for access tokens.
type Service struct {
	store   Store
	tokens  *jwttoken.JWTService
	auditor audit.Recorder
}

func NewService(store Store, tokens *jwttoken.JWTService, auditor audit.Recorder) *Service {
	return &Service{store: store, tokens: tokens, auditor: auditor}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password, role, institutionID string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeBadRequest, "a valid email is required")
	}
	if len(password) < 8 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}
	if !validRoles[role] {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown role "+role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "hash password", err)
	}

	user := &User{
		ID:            id.NewUserID(),
		Email:         email,
		PasswordHash:  hash,
		Role:          role,
		InstitutionID: institutionID,
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create account", err)
	}
	return user, nil
}

// Login checks credentials and issues an access token. Failures are audited
// but indistinguishable to the caller: unknown email and wrong password both
// return the same unauthorized error.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		s.recordLoginFailure(ctx, email, "unknown account")
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		s.recordLoginFailure(ctx, email, "wrong password")
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(uuid.UUID(user.ID), user.Role, accessTokenTTL)
	if err != nil {
		return "", nil, dErrors.Wrap(dErrors.CodeInternal, "issue token", err)
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionLoginSucceeded,
		ActorID:   user.ID,
		Role:      user.Role,
		Subject:   email,
		RequestID: requestcontext.RequestID(ctx),
	})
	return token, user, nil
}

func (s *Service) recordLoginFailure(ctx context.Context, email, reason string) {
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionLoginFailed,
		Subject:   email,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
}

var validRoles = map[string]bool{
	"admin":       true,
	"reviewer":    true,
	"submitter":   true,
	"institution": true,
}
