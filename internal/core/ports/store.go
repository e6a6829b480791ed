package ports

import (
	"context"

	"github.com/worth-collab/worth-server/internal/core/domain"
)

// Snapshot is everything the server recovers at boot: the registered users
// and the projects with their members and cards. Loaded users are Offline
// and loaded projects carry no chat address yet; both are fixed up by the
// caller.
type Snapshot struct {
	Users    []*domain.User
	Projects []*domain.Project
}

// Store is the persistence gateway. The core never depends on the storage
// layout; it only promises to persist the affected entity on every mutation
// and to load the full snapshot once at startup.
type Store interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	// SaveUsers persists the complete user registry.
	SaveUsers(ctx context.Context, users []*domain.User) error
	// SaveProjectMembers persists the project's member list, creating the
	// project's storage location on first call.
	SaveProjectMembers(ctx context.Context, p *domain.Project) error
	// SaveCard persists one card of the named project.
	SaveCard(ctx context.Context, projectName string, c *domain.Card) error
	// DeleteProject removes the project and all its cards.
	DeleteProject(ctx context.Context, projectName string) error
}
