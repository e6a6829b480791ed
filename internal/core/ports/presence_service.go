package ports

import (
	"context"

	"github.com/worth-collab/worth-server/internal/core/domain"
)

// PresenceService is the authenticated user directory: registration,
// login/logout and endpoint-to-identity resolution.
type PresenceService interface {
	// Register creates an Offline user. Nick comparison is case-sensitive.
	Register(ctx context.Context, nick, password string) error
	// Login authenticates with a plaintext password compare, marks the user
	// Online, binds the endpoint and returns the full presence snapshot.
	Login(ctx context.Context, nick, password, endpoint string) (string, error)
	// Logout resolves the endpoint to its Online user, marks the user
	// Offline and unbinds the endpoint. It returns the nick logged out.
	Logout(ctx context.Context, endpoint string) (string, error)
	// Resolve maps a live endpoint to its Online user. Offline users never
	// resolve, even if their last endpoint matches.
	Resolve(endpoint string) (*domain.User, error)
	// Lookup finds a registered user by nick regardless of presence.
	Lookup(nick string) (*domain.User, error)
	// Snapshot renders every registered user as space-joined "nick;State"
	// pairs in registration order.
	Snapshot() string
}

// UserDirectory is the read-only slice of PresenceService the board needs
// to check that a nick is registered.
type UserDirectory interface {
	Lookup(nick string) (*domain.User, error)
}

// PresencePublisher receives the presence snapshot after every registration,
// login and logout. Delivery is best-effort.
type PresencePublisher interface {
	Publish(snapshot string)
}

// PresenceMirror optionally copies the presence snapshot to an external
// store for operational visibility.
type PresenceMirror interface {
	Mirror(ctx context.Context, presence map[string]string) error
}
