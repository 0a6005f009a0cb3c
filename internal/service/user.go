// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories, external APIs,
// and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Transaction coordination
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kitasuro/kitasuro/internal/domain"
	"github.com/kitasuro/kitasuro/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// Cost 12 takes roughly 250ms on current hardware, slow enough to resist
	// offline cracking while keeping login flows responsive.
	BcryptCost = 12

	// SessionTokenBytes is the number of random bytes for session tokens.
	// 32 bytes = 256 bits of entropy; hex-encoded to 64 characters.
	SessionTokenBytes = 32

	// SessionDuration is how long a session remains valid.
	SessionDuration = 7 * 24 * time.Hour

	// TrialDuration is the pro-feature trial every new organization starts on.
	TrialDuration = 14 * 24 * time.Hour

	// MinPasswordLength follows NIST SP 800-63B's 8+ character minimum.
	MinPasswordLength = 8

	// MaxPasswordLength caps input before bcrypt's own 72-byte limit truncates.
	MaxPasswordLength = 72
)

// =============================================================================
// Interface Definition
// =============================================================================

// UserService defines the interface for user and session operations.
type UserService interface {
	// Register creates a new user account together with their organization.
	// The user becomes the organization's owner and the organization starts a
	// 14-day trial. Returns domain.ECONFLICT if the email is taken.
	Register(ctx context.Context, params domain.RegisterParams) (*domain.User, *domain.Organization, error)

	// Login authenticates a user and creates a new session.
	// Returns the user and raw session token on success.
	// Returns domain.EUNAUTHORIZED for invalid credentials.
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)

	// Logout invalidates a session by its raw token. Idempotent.
	Logout(ctx context.Context, token string) error

	// GetByID retrieves a user by their ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetBySessionToken validates a raw session token and returns the user.
	// Returns domain.EUNAUTHORIZED if the token is invalid or expired.
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)

	// DeleteExpiredSessions removes expired sessions. Run periodically.
	DeleteExpiredSessions(ctx context.Context) error
}

// =============================================================================
// Implementation
// =============================================================================

type userService struct {
	db      *sql.DB
	queries *repository.Queries
	logger  *slog.Logger
}

// NewUserService creates a new UserService. The *sql.DB is needed because
// registration writes the user, organization, and membership in one
// transaction.
func NewUserService(db *sql.DB, queries *repository.Queries, logger *slog.Logger) UserService {
	return &userService{
		db:      db,
		queries: queries,
		logger:  logger,
	}
}

// Register creates a user, their organization, and the owner membership.
//
// Security notes:
// - A bcrypt comparison runs even when the email is taken so response timing
//   does not reveal which addresses exist.
// - The raw password is never logged or stored.
func (s *userService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, *domain.Organization, error) {
	const op = "UserService.Register"

	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Name = strings.TrimSpace(params.Name)
	params.OrgName = strings.TrimSpace(params.OrgName)

	if err := validateEmail(params.Email); err != nil {
		return nil, nil, domain.Wrap(err, domain.EINVALID, op, "Invalid email address")
	}
	if params.Name == "" {
		return nil, nil, domain.Invalid(op, "Name is required")
	}
	if params.OrgName == "" {
		return nil, nil, domain.Invalid(op, "Organization name is required")
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, nil, domain.Wrap(err, domain.EINVALID, op, "Invalid password")
	}

	_, err := s.queries.GetUserByEmail(ctx, params.Email)
	if err == nil {
		_, _ = bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
		return nil, nil, domain.Conflict(op, "Email already registered")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.Internal(err, op, "Failed to check email availability")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, nil, domain.Internal(err, op, "Failed to hash password")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, domain.Internal(err, op, "Failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	repoUser, err := qtx.CreateUser(ctx, repository.CreateUserParams{
		Email:        params.Email,
		PasswordHash: string(passwordHash),
		Name:         params.Name,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, domain.Conflict(op, "Email already registered")
		}
		return nil, nil, domain.Internal(err, op, "Failed to create user")
	}

	trialEndsAt := time.Now().Add(TrialDuration)
	repoOrg, err := qtx.CreateOrganization(ctx, repository.CreateOrganizationParams{
		Name:        params.OrgName,
		PlanTier:    domain.PlanTierFree.String(),
		TrialEndsAt: sql.NullTime{Time: trialEndsAt, Valid: true},
	})
	if err != nil {
		return nil, nil, domain.Internal(err, op, "Failed to create organization")
	}

	_, err = qtx.CreateMember(ctx, repository.CreateMemberParams{
		OrgID:  repoOrg.ID,
		UserID: repoUser.ID,
		Role:   string(domain.MemberRoleOwner),
	})
	if err != nil {
		return nil, nil, domain.Internal(err, op, "Failed to create owner membership")
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, domain.Internal(err, op, "Failed to commit registration")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	org := repoOrgToDomain(repoOrg)

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email, "org_id", org.ID)

	return user, org, nil
}

// Login authenticates a user and creates a new session.
//
// The raw token is returned exactly once; only its SHA-256 hash is stored, so
// a database leak does not hand out usable sessions.
func (s *userService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "UserService.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	repoUser, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Compare against a dummy hash so missing accounts take as long
			// as wrong passwords.
			dummyHash := "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, domain.Unauthorized(op, "Invalid email or password")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(repoUser.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthorized(op, "Invalid email or password")
	}

	token, err := generateSessionToken()
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to generate session token")
	}

	_, err = s.queries.CreateSession(ctx, repository.CreateSessionParams{
		UserID:    repoUser.ID,
		TokenHash: hashSessionToken(token),
		ExpiresAt: time.Now().Add(SessionDuration),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create session")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	s.logger.Info("user logged in", "user_id", user.ID, "email", user.Email)

	return &domain.LoginResult{
		User:  user,
		Token: token,
	}, nil
}

// Logout invalidates a session. Calling it with an invalid or already-deleted
// token is not an error.
func (s *userService) Logout(ctx context.Context, token string) error {
	if len(token) != 64 {
		return nil
	}

	if err := s.queries.DeleteSessionByTokenHash(ctx, hashSessionToken(token)); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to delete session", "error", err)
		}
	}

	s.logger.Debug("session invalidated")
	return nil
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "UserService.GetByID"

	repoUser, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// GetBySessionToken validates a raw token and returns the session's user.
// The session query already filters expired rows.
func (s *userService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "UserService.GetBySessionToken"

	if len(token) != 64 {
		return nil, domain.Unauthorized(op, "Invalid or expired session")
	}

	session, err := s.queries.GetSessionByTokenHash(ctx, hashSessionToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve session")
	}

	repoUser, err := s.queries.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""
	return user, nil
}

// DeleteExpiredSessions removes all expired sessions.
func (s *userService) DeleteExpiredSessions(ctx context.Context) error {
	const op = "UserService.DeleteExpiredSessions"

	count, err := s.queries.DeleteExpiredSessions(ctx)
	if err != nil {
		return domain.Internal(err, op, "Failed to delete expired sessions")
	}

	if count > 0 {
		s.logger.Info("expired sessions cleaned up", "count", count)
	}
	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// generateSessionToken creates a cryptographically secure random token,
// hex-encoded to 64 characters.
func generateSessionToken() (string, error) {
	bytes := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashSessionToken hashes a token with SHA-256 for storage. Tokens are
// high-entropy random values, so a fast hash is sufficient; bcrypt would only
// slow down per-request validation.
func hashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// isUniqueViolation detects a unique-constraint failure without depending on
// driver-specific error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func repoUserToDomain(u repository.User) *domain.User {
	var verifiedAt *time.Time
	if u.EmailVerifiedAt.Valid {
		t := u.EmailVerifiedAt.Time
		verifiedAt = &t
	}

	return &domain.User{
		ID:              u.ID,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		Name:            u.Name,
		EmailVerified:   u.EmailVerified,
		EmailVerifiedAt: verifiedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func repoOrgToDomain(o repository.Organization) *domain.Organization {
	var trialEndsAt *time.Time
	if o.TrialEndsAt.Valid {
		t := o.TrialEndsAt.Time
		trialEndsAt = &t
	}

	return &domain.Organization{
		ID:                   o.ID,
		Name:                 o.Name,
		PlanTier:             domain.PlanTier(o.PlanTier),
		TrialEndsAt:          trialEndsAt,
		StripeCustomerID:     o.StripeCustomerID,
		StripeSubscriptionID: o.StripeSubscriptionID,
		SubscriptionStatus:   domain.SubscriptionStatus(o.SubscriptionStatus),
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

// validateEmail performs basic structural validation and length limits
// (RFC 5321 caps addresses at 254 characters).
func validateEmail(email string) error {
	if email == "" {
		return domain.Invalid("", "Email is required")
	}
	if len(email) > 254 {
		return domain.Invalid("", "Email must be 254 characters or less")
	}

	at := strings.Count(email, "@")
	if at != 1 {
		return domain.Invalid("", "Email must contain exactly one @ symbol")
	}
	idx := strings.Index(email, "@")
	if idx == 0 || idx == len(email)-1 {
		return domain.Invalid("", "Email must have a local part and a domain")
	}
	if !strings.Contains(email[idx+1:], ".") {
		return domain.Invalid("", "Email domain must contain a dot")
	}
	if strings.Contains(email, "..") {
		return domain.Invalid("", "Email cannot contain consecutive dots")
	}
	return nil
}

// validatePassword enforces the length bounds above.
func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.Invalid("", "Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return domain.Invalid("", "Password must be 72 characters or less")
	}
	return nil
}

// Ensure userService implements UserService
var _ UserService = (*userService)(nil)
