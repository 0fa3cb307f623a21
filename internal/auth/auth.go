package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"uniportal/internal/kv"
)

// Portal roles.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var (
	// ErrInvalidCredentials is returned when email, password and role
	// do not match a row of the fixed account table.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRegistrationDisabled is returned by Register unconditionally.
	ErrRegistrationDisabled = errors.New("registration is disabled, use one of the predefined accounts")
)

// Account is one row of the static credential table.
type Account struct {
	Email    string
	Password string
	Role     string
}

// The portal ships with one fixed teacher and five fixed student
// accounts. The table is immutable at run time; login never creates
// or mutates entries.
var accounts = []Account{
	{Email: "teacher@email.com", Password: "teacher", Role: RoleTeacher},
	{Email: "student1@example.com", Password: "student1", Role: RoleStudent},
	{Email: "student2@example.com", Password: "student2", Role: RoleStudent},
	{Email: "student3@example.com", Password: "student3", Role: RoleStudent},
	{Email: "student4@example.com", Password: "student4", Role: RoleStudent},
	{Email: "student5@example.com", Password: "student5", Role: RoleStudent},
}

// User is the persisted session identity.
type User struct {
	Email string `json:"email"`
	Role  string `json:"user_type"`
}

// Session is an authenticated identity plus its opaque token.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Storage keys for the active session.
const (
	tokenKey = "token"
	userKey  = "user"
)

// Service validates logins against the fixed account table and keeps
// at most one active session in the backing store.
type Service struct {
	store      kv.Store
	issuer     string
	signingKey string
	tokenTTL   time.Duration
}

// NewService creates an auth service persisting sessions in store.
func NewService(store kv.Store, issuer, signingKey string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Service{store: store, issuer: issuer, signingKey: signingKey, tokenTTL: tokenTTL}
}

// Authenticate checks the credentials against the fixed table for the
// requested role. On success it issues a token and overwrites any
// previous session; on failure session state is left untouched.
func (s *Service) Authenticate(ctx context.Context, email, password, role string) (Session, error) {
	var match *Account
	for i := range accounts {
		a := &accounts[i]
		if a.Role == role && a.Email == email && a.Password == password {
			match = a
			break
		}
	}
	if match == nil {
		return Session{}, ErrInvalidCredentials
	}

	token, _, err := Issue(match.Email, match.Role, s.issuer, s.signingKey, s.tokenTTL)
	if err != nil {
		return Session{}, err
	}

	user := User{Email: match.Email, Role: match.Role}
	if err := s.store.Set(ctx, tokenKey, token); err != nil {
		return Session{}, err
	}
	if err := kv.SetJSON(ctx, s.store, userKey, user); err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

// Register always fails; the portal only accepts the fixed accounts.
func (s *Service) Register(ctx context.Context, email, password, role string) error {
	return ErrRegistrationDisabled
}

// Logout clears the session unconditionally. Logging out twice is a
// no-op, not an error.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx, tokenKey); err != nil {
		return err
	}
	return s.store.Remove(ctx, userKey)
}

// Current returns the active session identity, if any. A corrupt user
// entry is treated as no session.
func (s *Service) Current(ctx context.Context) (User, bool, error) {
	if _, err := s.store.Get(ctx, tokenKey); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return User{}, false, nil
		}
		return User{}, false, err
	}
	var user User
	if err := kv.GetJSON(ctx, s.store, userKey, &user); err != nil {
		if errors.Is(err, kv.ErrCorrupt) {
			log.Printf("auth: %v, treating as logged out", err)
			return User{}, false, nil
		}
		return User{}, false, err
	}
	if user.Email == "" {
		return User{}, false, nil
	}
	return user, true, nil
}
