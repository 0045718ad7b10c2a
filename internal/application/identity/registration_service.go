package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/application/notification"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/domain/loyalty"
	"github.com/pluvyt/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// selfRegistrationActor is recorded as created_by on self-registered rows
const selfRegistrationActor = "self-registration"

// verificationTokenBytes is the entropy of a verification token
const verificationTokenBytes = 32

var (
	// ErrRegistrationDisabled is returned when no registration tenant is configured
	ErrRegistrationDisabled = shared.ErrNotFound.WithMessage("Self-registration is not available")
	errEmailTaken           = shared.ErrAlreadyExists.WithMessage("E-mail is already registered")
)

// Announcer delivers best-effort notifications after a commit
type Announcer interface {
	Announce(ctx context.Context, tenantID uuid.UUID, event string, payload any)
}

// RegistrationRepositories are the stores a self-registration writes
type RegistrationRepositories interface {
	Users() identity.UserRepository
	Clients() loyalty.ClientRepository
}

// RegistrationScope runs fn in one database transaction. The user, its
// person link and the loyalty client commit or roll back together.
type RegistrationScope interface {
	Execute(ctx context.Context, fn func(repos RegistrationRepositories) error) error
}

// RegistrationOptions configures self-registration
type RegistrationOptions struct {
	// TenantID receives new members; uuid.Nil disables Register
	TenantID        uuid.UUID
	VerificationTTL time.Duration
	ResendCooldown  time.Duration
}

// RegistrationService enrolls members from the public app. New accounts
// start pending e-mail verification; the token leaves the service only
// through the account.verification_requested event.
type RegistrationService struct {
	userRepo  identity.UserRepository
	txScope   RegistrationScope
	announcer Announcer
	opts      RegistrationOptions
	logger    *zap.Logger
	now       func() time.Time
	newToken  func() (string, error)
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(
	userRepo identity.UserRepository,
	txScope RegistrationScope,
	announcer Announcer,
	opts RegistrationOptions,
	logger *zap.Logger,
) *RegistrationService {
	if opts.VerificationTTL <= 0 {
		opts.VerificationTTL = 24 * time.Hour
	}
	if opts.ResendCooldown <= 0 {
		opts.ResendCooldown = time.Minute
	}
	return &RegistrationService{
		userRepo:  userRepo,
		txScope:   txScope,
		announcer: announcer,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		newToken:  newVerificationToken,
	}
}

// Register creates the account, its person link and the loyalty client in
// one transaction. An existing account of the tenant is enrolled after its
// password is checked; it keeps its verification state.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if s.opts.TenantID == uuid.Nil {
		return nil, ErrRegistrationDisabled
	}
	tenantID := s.opts.TenantID

	var (
		result  *RegisterResult
		pending *identity.User
	)
	err := s.txScope.Execute(ctx, func(repos RegistrationRepositories) error {
		users := repos.Users()
		user, err := users.FindByLoginOrEmail(ctx, req.Email)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			user, err = s.newMember(ctx, users, tenantID, req)
			if err != nil {
				return err
			}
			pending = user
		case err != nil:
			return err
		default:
			if err := s.linkExisting(ctx, users, user, tenantID, req); err != nil {
				return err
			}
		}

		client, err := loyalty.NewClient(tenantID, *user.PersonID, selfRegistrationActor)
		if err != nil {
			return err
		}
		if err := repos.Clients().Create(ctx, client); err != nil {
			return err
		}
		result = toRegisterResult(user, client)
		return nil
	})
	if err != nil {
		return nil, shared.AsStorageError(err)
	}

	s.logger.Info("Member registered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", result.UserID.String()),
		zap.String("client_id", result.ClientID.String()),
		zap.Bool("pending_verification", pending != nil))
	if pending != nil {
		s.announceVerification(ctx, pending)
	}
	return result, nil
}

func (s *RegistrationService) newMember(ctx context.Context, users identity.UserRepository, tenantID uuid.UUID, req RegisterRequest) (*identity.User, error) {
	login := req.Login
	if login == "" {
		login = req.Email
	}
	user, err := identity.NewUser(tenantID, login, req.Email, req.Password, selfRegistrationActor)
	if err != nil {
		return nil, err
	}
	user.FullName = req.FullName
	user.LinkPerson(uuid.New())

	token, err := s.newToken()
	if err != nil {
		return nil, err
	}
	user.RequestVerification(token, s.now().Add(s.opts.VerificationTTL))

	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *RegistrationService) linkExisting(ctx context.Context, users identity.UserRepository, user *identity.User, tenantID uuid.UUID, req RegisterRequest) error {
	if user.TenantID != tenantID {
		return errEmailTaken
	}
	if !user.CanLogin() || !user.VerifyPassword(req.Password) {
		return ErrInvalidCredentials
	}
	if user.PersonID != nil {
		return nil
	}
	user.LinkPerson(uuid.New())
	return users.UpdatePerson(ctx, user)
}

// ResendVerification issues a new token for a pending account. Unknown
// addresses and accounts that never required verification succeed silently.
func (s *RegistrationService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByLoginOrEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return shared.AsStorageError(err)
	}
	if user.Email != normalizeEmail(email) {
		return nil
	}
	if user.IsEmailVerified() {
		return identity.ErrAlreadyVerified
	}
	if !user.IsPendingVerification() {
		return nil
	}

	now := s.now()
	if !user.CanResendVerification(now, s.opts.VerificationTTL, s.opts.ResendCooldown) {
		return identity.ErrResendTooSoon
	}
	token, err := s.newToken()
	if err != nil {
		return err
	}
	user.RequestVerification(token, now.Add(s.opts.VerificationTTL))
	if err := s.userRepo.UpdateVerification(ctx, user); err != nil {
		s.logger.Error("Failed to store verification token", zap.Error(err))
		return shared.AsStorageError(err)
	}

	s.announceVerification(ctx, user)
	return nil
}

// VerifyEmail confirms the account holding token. It needs no session: the
// token is the proof of ownership.
func (s *RegistrationService) VerifyEmail(ctx context.Context, token string) (*VerifiedEmailResult, error) {
	user, err := s.userRepo.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, identity.ErrInvalidVerificationToken
		}
		return nil, shared.AsStorageError(err)
	}
	if err := user.ConfirmEmail(token, s.now()); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateVerification(ctx, user); err != nil {
		s.logger.Error("Failed to store e-mail verification", zap.Error(err))
		return nil, shared.AsStorageError(err)
	}

	s.logger.Info("E-mail verified",
		zap.String("user_id", user.ID.String()),
		zap.String("tenant_id", user.TenantID.String()))
	return &VerifiedEmailResult{UserID: user.ID, Email: user.Email}, nil
}

func (s *RegistrationService) announceVerification(ctx context.Context, user *identity.User) {
	s.announcer.Announce(ctx, user.TenantID, notification.EventVerificationRequested, VerificationRequestedPayload{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Token:     user.EmailVerificationToken,
		ExpiresAt: *user.EmailVerificationExpiresAt,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newVerificationToken() (string, error) {
	buf := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", shared.NewDomainError("TOKEN_GENERATION_ERROR", "Failed to generate verification token")
	}
	return hex.EncodeToString(buf), nil
}
