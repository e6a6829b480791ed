package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/worth-collab/worth-server/internal/core/domain"
	"github.com/worth-collab/worth-server/internal/core/ports"
)

// BoardService owns the project list and the card workflow. All of its
// mutating operations are invoked from the single TCP dispatch goroutine,
// strictly one request at a time, so the project list needs no lock.
type BoardService struct {
	store  ports.Store
	alloc  ports.AddressAllocator
	chat   ports.ChatAnnouncer
	users  ports.UserDirectory
	logger zerolog.Logger

	projects []*domain.Project // creation order
}

func NewBoardService(store ports.Store, alloc ports.AddressAllocator, chat ports.ChatAnnouncer, users ports.UserDirectory, logger zerolog.Logger) *BoardService {
	return &BoardService{
		store:  store,
		alloc:  alloc,
		chat:   chat,
		users:  users,
		logger: logger,
	}
}

// Seed installs projects recovered from a snapshot. Recovered projects get a
// fresh chat group; the original one died with the previous process.
func (s *BoardService) Seed(projects []*domain.Project) {
	for _, p := range projects {
		p.ChatAddr = domain.ChatAddr{IP: s.alloc.Allocate(), Port: s.alloc.Port()}
		s.projects = append(s.projects, p)
	}
}

// CreateProject creates a project with the caller as first member and a
// dedicated multicast chat group.
func (s *BoardService) CreateProject(ctx context.Context, name, creator string) (*domain.Project, error) {
	if s.findProject(name) != nil {
		return nil, domain.ErrDuplicateProject
	}

	p := domain.NewProject(name, creator)
	p.ChatAddr = domain.ChatAddr{IP: s.alloc.Allocate(), Port: s.alloc.Port()}

	if err := s.store.SaveProjectMembers(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("project", name).Msg("failed to persist new project")
		s.alloc.Release(p.ChatAddr.IP)
		return nil, err
	}
	s.projects = append(s.projects, p)

	s.logger.Info().Str("project", name).Str("creator", creator).Str("chat_ip", p.ChatAddr.IP).Msg("project created")
	return p, nil
}

// ProjectsOf lists the names of every project nick belongs to.
func (s *BoardService) ProjectsOf(nick string) []string {
	var names []string
	for _, p := range s.projects {
		if p.HasMember(nick) {
			names = append(names, p.Name)
		}
	}
	return names
}

// Members returns the project's member list, creator first.
func (s *BoardService) Members(projectName, caller string) ([]string, error) {
	p, err := s.authorized(projectName, caller)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(p.Members))
	copy(out, p.Members)
	return out, nil
}

// Project returns the named project for rendering.
func (s *BoardService) Project(projectName, caller string) (*domain.Project, error) {
	return s.authorized(projectName, caller)
}

// AddMember adds a registered user to the project and announces it on the
// project chat.
func (s *BoardService) AddMember(ctx context.Context, projectName, caller, nick string) error {
	p, err := s.authorized(projectName, caller)
	if err != nil {
		return err
	}
	if _, err := s.users.Lookup(nick); err != nil {
		return err
	}
	if err := p.AddMember(nick); err != nil {
		return err
	}
	if err := s.store.SaveProjectMembers(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("project", projectName).Msg("failed to persist member list")
		return err
	}
	s.logger.Info().Str("project", projectName).Str("nick", nick).Msg("member added")
	s.announce(p, caller+" added "+nick+" to the project")
	return nil
}

// AddCard creates a card in TODO.
func (s *BoardService) AddCard(ctx context.Context, projectName, caller, cardName, description string) (*domain.Card, error) {
	p, err := s.authorized(projectName, caller)
	if err != nil {
		return nil, err
	}
	card := domain.NewCard(cardName, description)
	if err := p.AddCard(card); err != nil {
		return nil, err
	}
	if err := s.store.SaveCard(ctx, projectName, card); err != nil {
		s.logger.Error().Err(err).Str("project", projectName).Str("card", cardName).Msg("failed to persist card")
		return nil, err
	}
	s.logger.Info().Str("project", projectName).Str("card", cardName).Msg("card added")
	s.announce(p, caller+" added card "+cardName+" to the project")
	return card, nil
}

// MoveCard applies one workflow transition and persists the updated card.
func (s *BoardService) MoveCard(ctx context.Context, projectName, caller, cardName, src, dst string) (*domain.Card, error) {
	p, err := s.authorized(projectName, caller)
	if err != nil {
		return nil, err
	}
	card, err := p.MoveCard(cardName, src, dst)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveCard(ctx, projectName, card); err != nil {
		s.logger.Error().Err(err).Str("project", projectName).Str("card", cardName).Msg("failed to persist card move")
		return nil, err
	}
	s.logger.Info().Str("project", projectName).Str("card", cardName).Str("from", src).Str("to", dst).Msg("card moved")
	s.announce(p, caller+" moved card "+cardName+" from "+src+" to "+dst)
	return card, nil
}

// Card returns one card of the project, whatever list it sits in.
func (s *BoardService) Card(projectName, caller, cardName string) (*domain.Card, error) {
	p, err := s.authorized(projectName, caller)
	if err != nil {
		return nil, err
	}
	card := p.FindCard(cardName)
	if card == nil {
		return nil, domain.ErrCardNotFound
	}
	return card, nil
}

// JoinChat hands the caller the project's multicast group.
func (s *BoardService) JoinChat(projectName, caller string) (domain.ChatAddr, error) {
	p, err := s.authorized(projectName, caller)
	if err != nil {
		return domain.ChatAddr{}, err
	}
	return p.ChatAddr, nil
}

// DeleteProject removes a finished project: the close sentinel is announced
// to chat participants, the chat address returns to the pool and the
// project's name becomes immediately reusable.
func (s *BoardService) DeleteProject(ctx context.Context, projectName, caller string) error {
	p, err := s.authorized(projectName, caller)
	if err != nil {
		return err
	}
	if !p.Deletable() {
		return domain.ErrProjectNotEmpty
	}

	s.announce(p, "close")
	s.alloc.Release(p.ChatAddr.IP)
	for i, q := range s.projects {
		if q == p {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			break
		}
	}
	if err := s.store.DeleteProject(ctx, projectName); err != nil {
		s.logger.Error().Err(err).Str("project", projectName).Msg("failed to delete project storage")
		return err
	}
	s.logger.Info().Str("project", projectName).Msg("project deleted")
	return nil
}

func (s *BoardService) findProject(name string) *domain.Project {
	for _, p := range s.projects {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// authorized looks the project up and checks the caller's membership.
func (s *BoardService) authorized(projectName, caller string) (*domain.Project, error) {
	p := s.findProject(projectName)
	if p == nil {
		return nil, domain.ErrProjectNotFound
	}
	if !p.HasMember(caller) {
		return nil, domain.ErrNotAMember
	}
	return p, nil
}

// announce sends a server-authored chat message; failures are logged, never
// surfaced to the requesting client.
func (s *BoardService) announce(p *domain.Project, text string) {
	if s.chat == nil {
		return
	}
	if err := s.chat.Announce(p.ChatAddr, text); err != nil {
		s.logger.Warn().Err(err).Str("project", p.Name).Msg("chat announcement failed")
	}
}
