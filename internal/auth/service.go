package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/storefront/storefront/internal/shared"
	"github.com/storefront/storefront/internal/users"
)

// Login outcomes reported to the metrics recorder.
const (
	LoginSuccess = "success"
	LoginFailure = "invalid_credentials"
	LoginError   = "error"
)

// AccountStore is the credential store used by signup and login.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*users.Account, error)
	Create(ctx context.Context, account *users.Account) (*users.Account, error)
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) bool
}

// Issuer mints access tokens.
type Issuer interface {
	Issue(userID string, role shared.Role) (string, error)
}

// Service orchestrates signup, login and logout.
type Service struct {
	accounts    AccountStore
	hasher      Hasher
	issuer      Issuer
	revocations RevocationStore
	logger      *slog.Logger
	metrics     Recorder

	dummyOnce sync.Once
	dummy     string
}

// NewService constructs Service. revocations and metrics may be nil.
func NewService(accounts AccountStore, hasher Hasher, issuer Issuer, revocations RevocationStore, logger *slog.Logger, metrics Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Service{
		accounts:    accounts,
		hasher:      hasher,
		issuer:      issuer,
		revocations: revocations,
		logger:      logger,
		metrics:     metrics,
	}
}

// Signup registers a new User account.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*users.Account, error) {
	in.Email = shared.CleanText(in.Email)
	in.FirstName = shared.CleanText(in.FirstName)
	in.LastName = shared.CleanText(in.LastName)
	in.Phone = shared.CleanText(in.Phone)
	if in.Email == "" || in.FirstName == "" || in.Password == "" || in.Phone == "" || !in.Gender.Valid() {
		return nil, fmt.Errorf("%w: firstName, email, password, phone and gender are required", shared.ErrValidation)
	}
	if _, err := s.accounts.FindByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("account with this email: %w", shared.ErrConflict)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	digest, err := s.hasher.Hash(ctx, in.Password)
	if errors.Is(err, shared.ErrValidation) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.accounts.Create(ctx, &users.Account{
		ID:           uuid.NewString(),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: digest,
		Phone:        in.Phone,
		Gender:       in.Gender,
		Role:         shared.RoleUser,
	})
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password both yield shared.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	account, err := s.accounts.FindByEmail(ctx, shared.CleanText(email))
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.metrics.RecordLogin(LoginError)
			return LoginResult{}, fmt.Errorf("lookup account: %w", err)
		}
		// Spend the same bcrypt time as a real mismatch.
		s.hasher.Verify(ctx, password, s.dummyDigest(ctx))
		s.metrics.RecordLogin(LoginFailure)
		return LoginResult{}, shared.ErrInvalidCredentials
	}
	if account.PasswordHash == "" || !s.hasher.Verify(ctx, password, account.PasswordHash) {
		s.metrics.RecordLogin(LoginFailure)
		return LoginResult{}, shared.ErrInvalidCredentials
	}
	token, err := s.issuer.Issue(account.ID, account.Role)
	if err != nil {
		s.metrics.RecordLogin(LoginError)
		return LoginResult{}, err
	}
	s.metrics.RecordLogin(LoginSuccess)
	s.logger.Info("login", slog.String("user_id", account.ID))
	return LoginResult{AccessToken: token}, nil
}

// Logout revokes the token behind identity. Without a revocation store it is
// a no-op and the token stays valid until expiry.
func (s *Service) Logout(ctx context.Context, identity shared.Identity) error {
	if s.revocations == nil || identity.TokenID == "" {
		return nil
	}
	if err := s.revocations.Revoke(ctx, identity.TokenID, identity.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *Service) dummyDigest(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(context.WithoutCancel(ctx), uuid.NewString())
		if err != nil {
			s.logger.Warn("dummy digest", slog.Any("error", err))
			return
		}
		s.dummy = digest
	})
	return s.dummy
}
