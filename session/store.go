package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bloodlink/models"

	"go.uber.org/zap"
)

// ProfileFetcher resolves the current token to a user.
type ProfileFetcher interface {
	Profile(ctx context.Context) (*models.User, error)
}

// Store is the single writer of the auth session: the bearer token and the
// cached user profile. Views hold a reference and only read from it.
type Store struct {
	mu      sync.RWMutex
	tokens  TokenStore
	logger  *zap.Logger
	token   string
	user    *models.User
	loading bool
}

// NewStore reads the persisted token, if any. The store stays Loading until
// Restore resolves that token.
func NewStore(ctx context.Context, tokens TokenStore, logger *zap.Logger) (*Store, error) {
	token, err := tokens.Load(ctx)
	if err != nil && !errors.Is(err, ErrNoToken) {
		return nil, fmt.Errorf("load session token: %w", err)
	}
	return &Store{
		tokens:  tokens,
		logger:  logger,
		token:   token,
		loading: token != "",
	}, nil
}

// Restore resolves a persisted token to its user profile. Any failure drops
// the token and leaves the session logged out; the caller only sees a nil user.
func (s *Store) Restore(ctx context.Context, fetcher ProfileFetcher) *models.User {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		return nil
	}

	user, err := fetcher.Profile(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if s.token != token {
		// a login or logout happened meanwhile
		return s.copyUser()
	}
	if err != nil {
		s.logger.Info("stored session rejected, logging out", zap.Error(err))
		s.token = ""
		s.user = nil
		if cerr := s.tokens.Clear(ctx); cerr != nil {
			s.logger.Warn("failed to clear stored token", zap.Error(cerr))
		}
		return nil
	}
	s.user = user
	return s.copyUser()
}

// Login installs a new session and persists its token. The in-memory session
// is active even when persisting fails; the returned error reports that.
func (s *Store) Login(ctx context.Context, token string, user models.User) error {
	s.mu.Lock()
	s.token = token
	s.user = &user
	s.loading = false
	s.mu.Unlock()

	s.logger.Info("session started",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	if err := s.tokens.Save(ctx, token); err != nil {
		return fmt.Errorf("persist session token: %w", err)
	}
	return nil
}

// Logout drops the in-memory session and the persisted token.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}

// Expire ends the session because the backend no longer accepts its token.
func (s *Store) Expire(ctx context.Context, reason error) {
	s.logger.Info("session expired", zap.Error(reason))
	if err := s.Logout(ctx); err != nil {
		s.logger.Warn("failed to clear expired session", zap.Error(err))
	}
}

// Token returns the bearer token, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyUser()
}

// Loading is true only while Restore is pending.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) copyUser() *models.User {
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}
