package ports

import (
	"context"

	"github.com/worth-collab/worth-server/internal/core/domain"
)

// BoardService covers the project and card workflow. Every operation that
// reads or mutates a project authorizes the caller by membership first.
type BoardService interface {
	// CreateProject creates a project with a unique name, the caller as
	// first member and a freshly allocated chat group.
	CreateProject(ctx context.Context, name, creator string) (*domain.Project, error)
	// ProjectsOf lists the names of the projects nick is a member of.
	ProjectsOf(nick string) []string
	// Members returns the member list of the project.
	Members(projectName, caller string) ([]string, error)
	// Project returns the named project for read-only rendering.
	Project(projectName, caller string) (*domain.Project, error)
	// AddMember adds a registered user to the project's member set.
	AddMember(ctx context.Context, projectName, caller, nick string) error
	// AddCard creates a card in TODO with history ["TODO"].
	AddCard(ctx context.Context, projectName, caller, cardName, description string) (*domain.Card, error)
	// MoveCard applies one legal workflow transition.
	MoveCard(ctx context.Context, projectName, caller, cardName, src, dst string) (*domain.Card, error)
	// Card returns a single card of the project.
	Card(projectName, caller, cardName string) (*domain.Card, error)
	// JoinChat returns the project's multicast group for the caller.
	JoinChat(projectName, caller string) (domain.ChatAddr, error)
	// DeleteProject removes a finished project (only DONE may hold cards),
	// announces the close sentinel and releases the chat address for reuse.
	DeleteProject(ctx context.Context, projectName, caller string) error
}

// AddressAllocator hands out multicast chat groups and takes them back when
// a project dies. The pool owns the addresses, not the projects.
type AddressAllocator interface {
	Allocate() string
	Release(ip string)
	// Port is the UDP port shared by every chat group.
	Port() int
}

// ChatAnnouncer delivers server-authored system messages to a project's
// multicast group.
type ChatAnnouncer interface {
	Announce(addr domain.ChatAddr, text string) error
}
