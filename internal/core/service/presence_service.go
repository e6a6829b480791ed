package service

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/worth-collab/worth-server/internal/core/domain"
	"github.com/worth-collab/worth-server/internal/core/ports"
)

// PresenceService keeps the registry of users and their Online/Offline
// state. Registration arrives from the HTTP callback channel while
// login/logout arrive from the TCP dispatch goroutine, so the registry is
// mutex-guarded.
type PresenceService struct {
	store     ports.Store
	publisher ports.PresencePublisher
	mirror    ports.PresenceMirror // optional, may be nil
	logger    zerolog.Logger

	mu    sync.Mutex
	users []*domain.User // registration order
}

func NewPresenceService(store ports.Store, publisher ports.PresencePublisher, mirror ports.PresenceMirror, logger zerolog.Logger) *PresenceService {
	return &PresenceService{
		store:     store,
		publisher: publisher,
		mirror:    mirror,
		logger:    logger,
	}
}

// Seed installs users recovered from a snapshot. Every seeded user starts
// Offline with no endpoint, whatever the snapshot claims.
func (s *PresenceService) Seed(users []*domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		u.Presence = domain.Offline
		u.Endpoint = ""
		s.users = append(s.users, u)
	}
}

// Register creates an Offline user, persists the registry and broadcasts
// the new presence snapshot. The save happens under the same lock that
// ordered the mutation: concurrent registrations must write the registry in
// the order they were admitted, or a smaller, older copy can land last.
func (s *PresenceService) Register(ctx context.Context, nick, password string) error {
	s.mu.Lock()
	if s.find(nick) != nil {
		s.mu.Unlock()
		return domain.ErrDuplicateUser
	}
	s.users = append(s.users, domain.NewUser(nick, password))
	if err := s.store.SaveUsers(ctx, s.usersCopy()); err != nil {
		s.users = s.users[:len(s.users)-1]
		s.mu.Unlock()
		s.logger.Error().Err(err).Str("nick", nick).Msg("failed to persist user registry")
		return err
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info().Str("nick", nick).Msg("user registered")
	s.broadcast(ctx, snapshot)
	return nil
}

// Login binds the endpoint to the user, marks it Online and returns the
// presence snapshot for client-side caching.
func (s *PresenceService) Login(ctx context.Context, nick, password, endpoint string) (string, error) {
	s.mu.Lock()
	u := s.find(nick)
	if u == nil || u.Password != password {
		s.mu.Unlock()
		return "", domain.ErrAuthFailure
	}
	u.Presence = domain.Online
	u.Endpoint = endpoint
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info().Str("nick", nick).Str("endpoint", endpoint).Msg("user logged in")
	s.broadcast(ctx, snapshot)
	return snapshot, nil
}

// Logout resolves the endpoint, marks the user Offline and unbinds the
// endpoint so it can never resolve again.
func (s *PresenceService) Logout(ctx context.Context, endpoint string) (string, error) {
	s.mu.Lock()
	u := s.resolveLocked(endpoint)
	if u == nil {
		s.mu.Unlock()
		return "", domain.ErrNotLoggedIn
	}
	u.Presence = domain.Offline
	u.Endpoint = ""
	nick := u.NickName
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info().Str("nick", nick).Msg("user logged out")
	s.broadcast(ctx, snapshot)
	return nick, nil
}

// Resolve maps an endpoint to its Online user. Stale endpoints of Offline
// users never match.
func (s *PresenceService) Resolve(endpoint string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.resolveLocked(endpoint); u != nil {
		return u, nil
	}
	return nil, domain.ErrNotLoggedIn
}

// Lookup finds a registered user by nick, Online or not.
func (s *PresenceService) Lookup(nick string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.find(nick); u != nil {
		return u, nil
	}
	return nil, domain.ErrUnknownUser
}

// Snapshot renders every user as "nick;State" pairs, space-joined, in
// registration order.
func (s *PresenceService) Snapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Users returns a copy of the registry, for persistence.
func (s *PresenceService) Users() []*domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersCopy()
}

func (s *PresenceService) find(nick string) *domain.User {
	for _, u := range s.users {
		if u.NickName == nick {
			return u
		}
	}
	return nil
}

func (s *PresenceService) resolveLocked(endpoint string) *domain.User {
	for _, u := range s.users {
		if u.Presence == domain.Online && u.Endpoint == endpoint {
			return u
		}
	}
	return nil
}

func (s *PresenceService) snapshotLocked() string {
	pairs := make([]string, 0, len(s.users))
	for _, u := range s.users {
		pairs = append(pairs, u.NickName+";"+string(u.Presence))
	}
	return strings.Join(pairs, " ")
}

func (s *PresenceService) usersCopy() []*domain.User {
	out := make([]*domain.User, len(s.users))
	copy(out, s.users)
	return out
}

// broadcast pushes the snapshot to callback subscribers and, when
// configured, mirrors it. Both are best-effort.
func (s *PresenceService) broadcast(ctx context.Context, snapshot string) {
	if s.publisher != nil {
		s.publisher.Publish(snapshot)
	}
	if s.mirror == nil {
		return
	}
	presence := make(map[string]string)
	for _, pair := range strings.Fields(snapshot) {
		if nick, state, ok := strings.Cut(pair, ";"); ok {
			presence[nick] = state
		}
	}
	if err := s.mirror.Mirror(ctx, presence); err != nil {
		s.logger.Warn().Err(err).Msg("presence mirror update failed")
	}
}
