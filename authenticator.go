package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Auther orchestrates the account lifecycle: registration with email
// verification, login, and verification-token consumption.
type Auther struct {
	repo            RepositoryManager
	tokenService    TokenService
	mailer          Mailer
	logger          Logger
	verificationTTL time.Duration
	baseURL         string
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	verificationTTL := time.Hour
	if hours := opts.GetVerificationExpiration(); hours > 0 {
		verificationTTL = time.Duration(hours) * time.Hour
	}

	return &Auther{
		repo:            repo,
		tokenService:    tokenService,
		mailer:          NewLogMailer(defLogger{}),
		logger:          defLogger{},
		verificationTTL: verificationTTL,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Auther) WithMailer(mailer Mailer) *Auther {
	if mailer != nil {
		s.mailer = mailer
	}
	return s
}

func (s *Auther) WithTokenService(tokenService TokenService) *Auther {
	if tokenService != nil {
		s.tokenService = tokenService
	}
	return s
}

// WithBaseURL sets the public origin used to build verification links,
// e.g. https://accounts.example.com
func (s *Auther) WithBaseURL(baseURL string) *Auther {
	s.baseURL = strings.TrimRight(baseURL, "/")
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Register creates an unverified account and sends the verification email.
// Email delivery is best effort, a failed send never fails the registration.
func (s *Auther) Register(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := HashPassword(password)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category == errors.CategoryValidation {
			return nil, ErrMissingFields
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	token, _, err := MintVerificationToken(s.tokenService, email, VerificationTokenOptions{
		TTL: s.verificationTTL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to mint verification token")
	}

	user := &User{
		Email:             email,
		PasswordHash:      hash,
		Role:              RoleUser,
		VerificationToken: &token,
	}

	deterministicID := false
	if id, err := hashid.NewUUID(email); err == nil {
		user.ID = id
		deterministicID = true
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Users().GetByEmailTx(ctx, tx, email); err == nil {
			return ErrDuplicateAccount
		} else if !repository.IsRecordNotFound(err) {
			return errors.Wrap(err, errors.CategoryInternal, "failed to check for existing account")
		}

		created, err := s.repo.Users().RegisterTx(ctx, tx, user)
		if err != nil && isUniqueViolation(err) && deterministicID {
			// a soft deleted row can still hold the email-derived id even
			// though the partial index no longer guards its email
			retry := *user
			retry.ID = uuid.New()
			created, err = s.repo.Users().RegisterTx(ctx, tx, &retry)
		}
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateAccount
			}
			return errors.Wrap(err, errors.CategoryInternal, "could not create user")
		}

		user = created
		return nil
	})

	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "registration transaction failed")
	}

	if err := s.mailer.SendVerificationEmail(ctx, email, s.verificationURL(token)); err != nil {
		deliveryErr := errors.Wrap(err, errors.CategoryOperation, "verification email delivery failed").
			WithTextCode(TextCodeEmailDeliveryFailed)
		s.logger.Error("Register failed to send verification email to %s: %v", email, deliveryErr)
	}

	return user, nil
}

// Login checks the credential and returns a signed access token with the
// account. Unknown emails and wrong passwords produce the same error.
func (s *Auther) Login(ctx context.Context, email, password string) (string, *User, error) {
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return "", nil, ErrEmailNotVerified
	}

	token, err := s.tokenService.Generate(userIdentity(user))
	if err != nil {
		s.logger.Error("Login failed to sign access token: %v", err)
		return "", nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue access token")
	}

	return token, user, nil
}

// VerifyEmail consumes a verification token. The token envelope must still
// be valid and the exact string must match an unverified account; the match
// is cleared in the same update so a link works once.
func (s *Auther) VerifyEmail(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidOrExpiredLink
	}

	if _, err := s.tokenService.Validate(token); err != nil {
		s.logger.Debug("VerifyEmail token rejected: %v", err)
		return nil, ErrInvalidOrExpiredLink
	}

	var user *User

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error

		if user, err = s.repo.Users().GetByVerificationTokenTx(ctx, tx, token); err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrInvalidOrExpiredLink
			}
			return errors.Wrap(err, errors.CategoryInternal, "failed to look up verification token")
		}

		if err = s.repo.Users().MarkVerifiedTx(ctx, tx, user.ID); err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrInvalidOrExpiredLink
			}
			return errors.Wrap(err, errors.CategoryInternal, "failed to mark account verified")
		}

		return nil
	})

	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "verification transaction failed")
	}

	user.EmailVerified = true
	user.VerificationToken = nil

	return user, nil
}

func (s *Auther) verificationURL(token string) string {
	if s.baseURL == "" {
		return fmt.Sprintf("/api/auth/verify/%s", token)
	}
	return fmt.Sprintf("%s/api/auth/verify/%s", s.baseURL, token)
}

type authIdentity struct {
	id    string
	email string
	role  string
}

func (a authIdentity) ID() string    { return a.id }
func (a authIdentity) Email() string { return a.email }
func (a authIdentity) Role() string  { return a.role }

var _ Identity = authIdentity{}

func userIdentity(user *User) Identity {
	return authIdentity{
		id:    user.ID.String(),
		email: user.Email,
		role:  string(user.Role),
	}
}

// isUniqueViolation sniffs driver errors for a unique constraint collision.
// The sqlite and postgres messages differ, neither exposes a typed error
// here, and the modernc driver prefixes its own "constraint failed" text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return (strings.Contains(msg, "unique") && strings.Contains(msg, "constraint")) ||
		strings.Contains(msg, "duplicate key value")
}
