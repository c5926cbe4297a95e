package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"carbon/internal/domain"

	"github.com/google/uuid"
)

const minPasswordLen = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Notices returned to presentation callers after account operations.
var (
	NoticeRegistered = Notice{Kind: NoticeSuccess, Message: "Account created"}
	NoticeSignedIn   = Notice{Kind: NoticeSuccess, Message: "Signed in"}
	NoticeSignedOut  = Notice{Kind: NoticeInfo, Message: "Signed out"}
)

// FootprintLoader receives a user's stored footprint whenever the current
// session changes.
type FootprintLoader interface {
	LoadUserData(f domain.Footprint, h domain.History)
}

// AccountService handles registration, login and the current session, and
// persists footprint state for the signed-in user.
type AccountService struct {
	// switchMu is held while the current session and the loaded footprint
	// change together. Tracker mutations hold it too, see SessionLock.
	switchMu sync.Mutex

	users     domain.UserRepository
	sessions  domain.SessionStore
	passwords PasswordPolicy
	loader    FootprintLoader
	metrics   Recorder
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// AccountOption customizes an AccountService.
type AccountOption func(*AccountService)

// WithAccountLogger sets the logger used for account events.
func WithAccountLogger(l *slog.Logger) AccountOption {
	return func(s *AccountService) { s.logger = l }
}

// WithAccountMetrics sets the metrics recorder.
func WithAccountMetrics(r Recorder) AccountOption {
	return func(s *AccountService) { s.metrics = r }
}

// WithIDGenerator overrides how new user ids are minted.
func WithIDGenerator(fn func() string) AccountOption {
	return func(s *AccountService) { s.newID = fn }
}

// NewAccountService creates a new account service.
func NewAccountService(users domain.UserRepository, sessions domain.SessionStore, passwords PasswordPolicy, opts ...AccountOption) *AccountService {
	if passwords == nil {
		passwords = PlaintextPasswords{}
	}
	s := &AccountService{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		metrics:   nopRecorder{},
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach sets the loader that is refreshed on every session change.
func (s *AccountService) Attach(l FootprintLoader) {
	s.loader = l
}

// SessionLock returns the lock that serializes session switches. A Tracker
// holds it across each save so state is never written to a user who signed
// in after the state was computed.
func (s *AccountService) SessionLock() sync.Locker {
	return &s.switchMu
}

// Register validates the form, creates the user and signs them in.
func (s *AccountService) Register(ctx context.Context, name, email, password, confirmPassword string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" || password == "" || confirmPassword == "" {
		return nil, invalid(ReasonEmptyFields)
	}
	if !ValidEmail(email) {
		return nil, invalid(ReasonInvalidEmail)
	}
	if len(password) < minPasswordLen {
		return nil, invalid(ReasonWeakPassword)
	}
	if password != confirmPassword {
		return nil, invalid(ReasonPasswordMismatch)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, invalid(ReasonDuplicateEmail)
	}

	stored, err := s.passwords.Hash(password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		ID:        s.newID(),
		Name:      name,
		Email:     email,
		Password:  stored,
		History:   domain.History{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, invalid(ReasonDuplicateEmail)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	if err := s.sessions.Set(ctx, domain.SessionFor(u)); err != nil {
		err = fmt.Errorf("start session: %w", err)
		if derr := s.users.Delete(ctx, u.ID); derr != nil {
			s.logger.Error("registration rollback failed", slog.String("user_id", u.ID), slog.Any("error", derr))
			return nil, errors.Join(err, fmt.Errorf("remove user: %w", derr))
		}
		return nil, err
	}
	s.load(u.Footprint, u.History)

	s.metrics.RecordRegistration()
	s.logger.Info("user registered", slog.String("user_id", u.ID), slog.String("email", u.Email))
	return u, nil
}

// Login checks the credentials and makes the matching user current. On
// failure any existing session is left untouched.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Session{}, invalid(ReasonEmptyFields)
	}
	if !ValidEmail(email) {
		return domain.Session{}, invalid(ReasonInvalidEmail)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return domain.Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil || !s.passwords.Matches(u.Password, password) {
		s.metrics.RecordLogin(false)
		s.logger.Warn("login failed", slog.String("email", email))
		return domain.Session{}, ErrInvalidCredentials
	}

	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	sess := domain.SessionFor(u)
	if err := s.sessions.Set(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("start session: %w", err)
	}
	s.load(u.Footprint, u.History)

	s.metrics.RecordLogin(true)
	s.logger.Info("user logged in", slog.String("user_id", u.ID))
	return sess, nil
}

// Logout clears the current session. Logging out twice is not an error.
func (s *AccountService) Logout(ctx context.Context) error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	return s.logout(ctx)
}

func (s *AccountService) logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.load(domain.Footprint{}, nil)
	return nil
}

// CurrentSession returns the signed-in user, or nil.
func (s *AccountService) CurrentSession(ctx context.Context) (*domain.Session, error) {
	return s.sessions.Current(ctx)
}

// Restore resumes a session persisted by an earlier process and loads its
// footprint. A session pointing at a missing user is cleared.
func (s *AccountService) Restore(ctx context.Context) (*domain.Session, error) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	sess, err := s.sessions.Current(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		s.logger.Warn("dropping session for unknown user", slog.String("user_id", sess.UserID))
		return nil, s.logout(ctx)
	}
	s.load(u.Footprint, u.History)
	return sess, nil
}

// SaveUserData stores f and h on the current user's record. Without a
// session it does nothing.
func (s *AccountService) SaveUserData(ctx context.Context, f domain.Footprint, h domain.History) error {
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if sess == nil {
		return nil
	}
	if _, err := s.users.SaveFootprint(ctx, sess.UserID, f, h.Normalize()); err != nil {
		return fmt.Errorf("save footprint: %w", err)
	}
	return nil
}

// LoadUserData returns the current user's stored footprint and history,
// or empty defaults when there is no session or no stored data.
func (s *AccountService) LoadUserData(ctx context.Context) (domain.Footprint, domain.History, error) {
	sess, err := s.sessions.Current(ctx)
	if err != nil {
		return domain.Footprint{}, nil, fmt.Errorf("read session: %w", err)
	}
	if sess == nil {
		return domain.Footprint{}, domain.History{}, nil
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return domain.Footprint{}, nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return domain.Footprint{}, domain.History{}, nil
	}
	return u.Footprint, u.History.Normalize(), nil
}

func (s *AccountService) load(f domain.Footprint, h domain.History) {
	if s.loader != nil {
		s.loader.LoadUserData(f, h)
	}
}

// ValidEmail reports whether email has the local@domain.tld shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
