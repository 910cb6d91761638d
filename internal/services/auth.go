package services

import (
	"context"
	"errors"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/grocerly/authserver/config"
	"github.com/grocerly/authserver/internal/auth"
	"github.com/grocerly/authserver/internal/events"
	"github.com/grocerly/authserver/internal/storage"
	"github.com/grocerly/authserver/internal/store"
	"github.com/grocerly/authserver/types"
)

const defaultUserRole = "user"

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// CredentialStore defines persistence operations for user accounts.
type CredentialStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (types.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// AuditLog records signup and login events.
type AuditLog interface {
	RecordSignup(ctx context.Context, userID uuid.UUID, at time.Time) (types.AuditEvent, error)
	RecordLogin(ctx context.Context, userID uuid.UUID, success bool, at time.Time) (types.AuditEvent, error)
}

// AuthService orchestrates registration, login, and resource
// authorization over the credential store, lockout tracker, and token
// issuer.
type AuthService struct {
	store   CredentialStore
	audit   AuditLog
	tracker auth.Tracker
	issuer  *auth.TokenIssuer

	tokenTTL       time.Duration
	uniqueUsername bool

	publisher *events.Publisher
	avatars   *storage.AvatarStore
}

func NewAuthService(credStore CredentialStore, audit AuditLog, tracker auth.Tracker, issuer *auth.TokenIssuer, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		store:          credStore,
		audit:          audit,
		tracker:        tracker,
		issuer:         issuer,
		tokenTTL:       cfg.TokenTTL,
		uniqueUsername: cfg.UniqueUsername,
	}
}

// SetPublisher enables audit-event fan-out to a broker.
func (s *AuthService) SetPublisher(p *events.Publisher) {
	s.publisher = p
}

// SetAvatarStore enables the avatar operations.
func (s *AuthService) SetAvatarStore(avatars *storage.AvatarStore) {
	s.avatars = avatars
}

// RegisterInput carries the registration fields. Username, Email, and
// Password are required; the contact fields are optional.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Phone    string
	Address  string
	City     string
	State    string
	Zipcode  string
}

// Register validates the input, hashes the password, and persists a new
// account. The returned user never carries the password in clear; the
// hash is excluded from serialization by the type.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Username == "" || in.Email == "" || in.Password == "" {
		return types.User{}, &ValidationError{Message: "missing required fields (username, email, password)"}
	}
	if !emailPattern.MatchString(in.Email) {
		return types.User{}, &ValidationError{Message: "invalid email address"}
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return types.User{}, &ValidationError{Message: err.Error()}
	}

	if err := s.checkUnique(ctx, in.Email); err != nil {
		return types.User{}, err
	}
	if s.uniqueUsername {
		if err := s.checkUnique(ctx, in.Username); err != nil {
			return types.User{}, err
		}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return types.User{}, err
	}

	user, err := s.store.Create(ctx, types.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		Role:         defaultUserRole,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		City:         strings.TrimSpace(in.City),
		State:        strings.TrimSpace(in.State),
		Zipcode:      strings.TrimSpace(in.Zipcode),
	})
	if err != nil {
		return types.User{}, err
	}

	s.recordSignup(ctx, user.ID)
	return user, nil
}

// Login authenticates a raw identifier (username or email) and password
// and returns a signed token plus the account. The lockout tracker is
// consulted before any store or hashing work; unknown identifiers and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (string, types.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return "", types.User{}, &ValidationError{Message: "missing required fields (identifier and password)"}
	}

	locked, remaining, err := s.tracker.IsLocked(ctx, identifier)
	if err != nil {
		// Tracker trouble must not lock the whole site out; proceed as
		// unlocked and leave a trace.
		log.Printf("lockout check failed for identifier: %v", err)
	}
	if locked {
		return "", types.User{}, &AccountLockedError{Remaining: remaining}
	}

	user, err := s.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.noteFailure(ctx, identifier)
			return "", types.User{}, ErrInvalidCredentials
		}
		return "", types.User{}, err
	}

	match, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return "", types.User{}, err
	}
	if !match {
		s.noteFailure(ctx, identifier)
		s.recordLogin(ctx, user.ID, false)
		return "", types.User{}, ErrInvalidCredentials
	}

	if err := s.tracker.Reset(ctx, identifier); err != nil {
		log.Printf("lockout reset failed for identifier: %v", err)
	}

	role := user.Role
	if role == "" {
		role = defaultUserRole
	}
	token, err := s.issuer.Issue(user.ID.String(), []string{role}, s.tokenTTL)
	if err != nil {
		return "", types.User{}, err
	}

	s.recordLogin(ctx, user.ID, true)
	return token, user, nil
}

// VerifyToken validates a bearer token and returns its claims.
func (s *AuthService) VerifyToken(tokenString string) (*auth.Claims, error) {
	return s.issuer.Verify(tokenString)
}

// AuthorizeOwner checks that verified claims belong to the owner of the
// requested resource.
func (s *AuthService) AuthorizeOwner(claims *auth.Claims, ownerID uuid.UUID) error {
	if claims == nil || claims.Subject != ownerID.String() {
		return ErrForbidden
	}
	return nil
}

// Authorize verifies a token and binds its subject to the resource
// owner. Token errors propagate; a subject mismatch is ErrForbidden.
func (s *AuthService) Authorize(tokenString string, ownerID uuid.UUID) (*auth.Claims, error) {
	claims, err := s.issuer.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if err := s.AuthorizeOwner(claims, ownerID); err != nil {
		return nil, err
	}
	return claims, nil
}

// GetUser loads an account by id.
func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (types.User, error) {
	return s.store.GetByID(ctx, id)
}

// UpdateInput carries the editable profile fields. Nil means "leave
// unchanged".
type UpdateInput struct {
	Username *string
	Email    *string
	Phone    *string
	Address  *string
	City     *string
	State    *string
	Zipcode  *string
}

// UpdateUser applies a partial profile update after validating the
// changed fields.
func (s *AuthService) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateInput) (types.User, error) {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return types.User{}, &ValidationError{Message: "username must not be blank"}
		}
		if s.uniqueUsername && username != user.Username {
			if err := s.checkUniqueExcept(ctx, username, id); err != nil {
				return types.User{}, err
			}
		}
		user.Username = username
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if !emailPattern.MatchString(email) {
			return types.User{}, &ValidationError{Message: "invalid email address"}
		}
		if email != user.Email {
			if err := s.checkUniqueExcept(ctx, email, id); err != nil {
				return types.User{}, err
			}
		}
		user.Email = email
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		user.Address = strings.TrimSpace(*in.Address)
	}
	if in.City != nil {
		user.City = strings.TrimSpace(*in.City)
	}
	if in.State != nil {
		user.State = strings.TrimSpace(*in.State)
	}
	if in.Zipcode != nil {
		user.Zipcode = strings.TrimSpace(*in.Zipcode)
	}

	return s.store.Update(ctx, user)
}

// SetAvatar stores the user's avatar object and records its key on the
// account.
func (s *AuthService) SetAvatar(ctx context.Context, id uuid.UUID, r io.Reader, size int64, contentType string) (types.User, error) {
	if s.avatars == nil {
		return types.User{}, ErrAvatarStorageDisabled
	}

	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	key, err := s.avatars.Save(ctx, id, r, size, contentType)
	if err != nil {
		return types.User{}, err
	}

	user.AvatarKey = key
	return s.store.Update(ctx, user)
}

// GetAvatar opens the user's stored avatar.
func (s *AuthService) GetAvatar(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	if s.avatars == nil {
		return nil, ErrAvatarStorageDisabled
	}

	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.AvatarKey == "" {
		return nil, store.ErrNotFound
	}
	return s.avatars.Open(ctx, id)
}

func (s *AuthService) checkUnique(ctx context.Context, identifier string) error {
	_, err := s.store.GetByIdentifier(ctx, identifier)
	if err == nil {
		return store.ErrDuplicate
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func (s *AuthService) checkUniqueExcept(ctx context.Context, identifier string, id uuid.UUID) error {
	existing, err := s.store.GetByIdentifier(ctx, identifier)
	if err == nil {
		if existing.ID != id {
			return store.ErrDuplicate
		}
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// noteFailure updates lockout state. State updates never fail a login
// decision; errors only get logged.
func (s *AuthService) noteFailure(ctx context.Context, identifier string) {
	if err := s.tracker.RecordFailure(ctx, identifier); err != nil {
		log.Printf("lockout record failed for identifier: %v", err)
	}
}

func (s *AuthService) recordSignup(ctx context.Context, userID uuid.UUID) {
	if s.audit == nil {
		return
	}
	event, err := s.audit.RecordSignup(ctx, userID, time.Now())
	if err != nil {
		log.Printf("record signup event for %s: %v", userID, err)
		return
	}
	s.publish(ctx, event)
}

func (s *AuthService) recordLogin(ctx context.Context, userID uuid.UUID, success bool) {
	if s.audit == nil {
		return
	}
	event, err := s.audit.RecordLogin(ctx, userID, success, time.Now())
	if err != nil {
		log.Printf("record login event for %s: %v", userID, err)
		return
	}
	s.publish(ctx, event)
}

func (s *AuthService) publish(ctx context.Context, event types.AuditEvent) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.PublishAudit(ctx, event); err != nil {
		log.Printf("publish audit event: %v", err)
	}
}
