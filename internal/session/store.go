package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/etfuel/etfuel-backend/internal/auth"
	"github.com/etfuel/etfuel-backend/internal/users"
	pkgauth "github.com/etfuel/etfuel-backend/pkg/auth"
	"github.com/etfuel/etfuel-backend/pkg/config"
	"github.com/etfuel/etfuel-backend/pkg/enums"
	"github.com/etfuel/etfuel-backend/pkg/logger"
)

// Snapshot is the current authenticated state held by the store.
type Snapshot struct {
	UID          uuid.UUID
	Email        string
	Role         enums.Role
	Profile      *users.UserDTO
	IDToken      string
	RefreshToken string
}

// Listener receives the new snapshot on every session change. A nil snapshot
// means the session was cleared.
type Listener func(*Snapshot)

type tokenRefresher interface {
	RefreshSession(ctx context.Context, idToken, refreshToken string) (*auth.SessionResult, error)
}

type profileLoader interface {
	GetUser(ctx context.Context, uid uuid.UUID) (*users.UserDTO, error)
}

// Store holds the single current-session slot. It replaces the ambient
// module-level session state of older clients with a constructed object:
// build it at startup, subscribe listeners, tear it down on shutdown.
type Store struct {
	refresher tokenRefresher
	profiles  profileLoader
	jwtCfg    config.JWTConfig
	logg      *logger.Logger

	mu        sync.RWMutex
	current   *Snapshot
	listeners map[int]Listener
	nextID    int
	closed    bool
}

// StoreParams bundles the dependencies for NewStore.
type StoreParams struct {
	Refresher tokenRefresher
	Profiles  profileLoader
	JWT       config.JWTConfig
	Logger    *logger.Logger
}

// NewStore builds an empty store. No session is active until SetSession.
func NewStore(params StoreParams) (*Store, error) {
	if params.Refresher == nil {
		return nil, fmt.Errorf("token refresher required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile loader required")
	}
	return &Store{
		refresher: params.Refresher,
		profiles:  params.Profiles,
		jwtCfg:    params.JWT,
		logg:      params.Logger,
		listeners: make(map[int]Listener),
	}, nil
}

// SetSession installs a new session. The token pair is force-refreshed first
// so the decoded role claim reflects any claim write that happened after the
// tokens were minted; the profile record is fetched separately. A profile
// fetch failure is logged and leaves the profile slot empty rather than
// rejecting the session.
func (s *Store) SetSession(ctx context.Context, idToken, refreshToken string) (*Snapshot, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("session store is closed")
	}

	refreshed, err := s.refresher.RefreshSession(ctx, idToken, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	claims, err := pkgauth.ParseIDToken(s.jwtCfg, refreshed.IDToken)
	if err != nil {
		return nil, fmt.Errorf("decode session token: %w", err)
	}

	snapshot := &Snapshot{
		UID:          claims.UID,
		Email:        claims.Email,
		Role:         enums.RoleOrBaseline(claims.Role.String()),
		IDToken:      refreshed.IDToken,
		RefreshToken: refreshed.RefreshToken,
	}

	profile, err := s.profiles.GetUser(ctx, claims.UID)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithUID(ctx, claims.UID.String()), "profile fetch failed on session change", err)
		}
	} else {
		snapshot.Profile = profile
	}

	s.publish(snapshot)
	return snapshot, nil
}

// Clear drops the current session and notifies listeners with nil.
func (s *Store) Clear() {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return
	}
	s.publish(nil)
}

// Current returns the active snapshot, or nil when signed out.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	copied := *s.current
	return &copied
}

// Role returns the active session's role, or the empty role when signed out.
func (s *Store) Role() enums.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Role
}

// Subscribe registers a listener for session changes and returns its
// unsubscribe function. The listener immediately receives the current state.
func (s *Store) Subscribe(listener Listener) func() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	current := s.current
	s.mu.Unlock()

	listener(current)

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close tears the store down: the session is cleared and all listeners are
// dropped. Further SetSession calls fail.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.current = nil
	s.listeners = make(map[int]Listener)
	s.mu.Unlock()
}

func (s *Store) publish(snapshot *Snapshot) {
	s.mu.Lock()
	s.current = snapshot
	targets := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		targets = append(targets, l)
	}
	s.mu.Unlock()

	for _, l := range targets {
		l(snapshot)
	}
}
