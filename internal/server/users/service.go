package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/lorekeeper/internal/common"
	"github.com/dmitrijs2005/lorekeeper/internal/dbx"
	"github.com/dmitrijs2005/lorekeeper/internal/logging"
	"github.com/dmitrijs2005/lorekeeper/internal/server/auth"
	"github.com/dmitrijs2005/lorekeeper/internal/server/mailer"
	"github.com/dmitrijs2005/lorekeeper/internal/server/models"
	"github.com/dmitrijs2005/lorekeeper/internal/server/resettokens"
)

// dummyHash is compared against when the email is unknown, so failed
// sign-ins take the same time whether or not the account exists.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AuthResult is what a successful sign-in or sign-up produces: the account
// identity plus a bearer token and its expiry.
type AuthResult struct {
	UserID        string
	Email         string
	Token         string
	ExpiresAt     time.Time
	EmailVerified bool
}

// Service implements the account operations behind the auth endpoints:
// sign-up, sign-in, password reset, and the verification flag.
type Service struct {
	db     *sql.DB
	repo   func(dbx.DBTX) Repository
	resets func(dbx.DBTX) resettokens.Repository
	mailer mailer.Mailer
	logger logging.Logger

	jwtSecret          []byte
	tokenValidity      time.Duration
	rememberMeValidity time.Duration
	resetValidity      time.Duration
}

type ServiceOptions struct {
	JWTSecret          []byte
	TokenValidity      time.Duration
	RememberMeValidity time.Duration
	ResetValidity      time.Duration
}

func NewService(db *sql.DB, m mailer.Mailer, logger logging.Logger, opts ServiceOptions) *Service {
	return &Service{
		db:                 db,
		repo:               func(tx dbx.DBTX) Repository { return NewPostgresRepository(tx) },
		resets:             func(tx dbx.DBTX) resettokens.Repository { return resettokens.NewPostgresRepository(tx) },
		mailer:             m,
		logger:             logger,
		jwtSecret:          opts.JWTSecret,
		tokenValidity:      opts.TokenValidity,
		rememberMeValidity: opts.RememberMeValidity,
		resetValidity:      opts.ResetValidity,
	}
}

// SignUp creates the account and signs the user in right away. The
// verification mail goes out in the background; registration never blocks
// on mail delivery.
func (s *Service) SignUp(ctx context.Context, email string, password []byte) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.repo(s.db).Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, common.ErrEmailTaken
		}
		s.logger.Error(ctx, "error creating user", "error", err)
		return nil, common.ErrInternal
	}

	go s.sendVerificationMail(user.ID, user.Email)

	return s.authResult(user, false)
}

// SignIn verifies the credentials and mints a token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email string, password []byte, rememberMe bool) (*AuthResult, error) {
	user, err := s.repo(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, password)
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "error loading user", "error", err)
		return nil, common.ErrInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, password) != nil {
		return nil, common.ErrInvalidCredentials
	}

	return s.authResult(user, rememberMe)
}

// RequestPasswordReset issues a single-use token and mails the link. For an
// unknown email it does nothing and reports success, so the endpoint cannot
// be used to probe which addresses have accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		s.logger.Error(ctx, "error loading user", "error", err)
		return common.ErrInternal
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return common.ErrInternal
	}
	if err := s.resets(s.db).Create(ctx, user.ID, token, s.resetValidity); err != nil {
		s.logger.Error(ctx, "error storing reset token", "error", err)
		return common.ErrInternal
	}

	go s.sendResetMail(user.Email, token)

	return nil
}

// ResetPassword consumes the token and replaces the password hash. The
// token and the hash swap happen in one transaction; any other outstanding
// tokens for the account are revoked with it.
func (s *Service) ResetPassword(ctx context.Context, token string, newPassword []byte) error {
	hash, err := bcrypt.GenerateFromPassword(newPassword, bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rt, err := s.resets(tx).Consume(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error consuming reset token: %w", err)
		}
		if rt.Expires.Before(time.Now()) {
			return common.ErrResetTokenExpired
		}
		if err := s.repo(tx).SetPasswordHash(ctx, rt.UserID, hash); err != nil {
			return fmt.Errorf("error updating password: %w", err)
		}
		return s.resets(tx).DeleteForUser(ctx, rt.UserID)
	})
}

// VerifyEmail flips the verification flag for the account in the claims of
// the mailed link token.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return common.ErrInvalidToken
	}
	return s.repo(s.db).SetEmailVerified(ctx, claims.UserID)
}

// Verification reports whether the account's email address is verified.
func (s *Service) Verification(ctx context.Context, userID string) (bool, error) {
	user, err := s.repo(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, common.ErrUnauthorized
		}
		return false, common.ErrInternal
	}
	return user.EmailVerified, nil
}

func (s *Service) authResult(user *models.User, rememberMe bool) (*AuthResult, error) {
	validity := s.tokenValidity
	if rememberMe {
		validity = s.rememberMeValidity
	}
	expiresAt := time.Now().Add(validity)

	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, validity)
	if err != nil {
		return nil, common.ErrInternal
	}

	return &AuthResult{
		UserID:        user.ID,
		Email:         user.Email,
		Token:         token,
		ExpiresAt:     expiresAt,
		EmailVerified: user.EmailVerified,
	}, nil
}

func (s *Service) sendVerificationMail(userID, email string) {
	ctx := context.Background()
	token, err := auth.GenerateToken(userID, email, s.jwtSecret, s.resetValidity)
	if err != nil {
		s.logger.Error(ctx, "error minting verification token", "error", err)
		return
	}
	if err := s.mailer.SendVerification(ctx, email, token); err != nil {
		s.logger.Warn(ctx, "verification mail failed", "to", email, "error", err)
	}
}

func (s *Service) sendResetMail(email, token string) {
	ctx := context.Background()
	if err := s.mailer.SendPasswordReset(ctx, email, token); err != nil {
		s.logger.Warn(ctx, "password reset mail failed", "to", email, "error", err)
	}
}
