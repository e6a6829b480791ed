// Package jsonfile persists the board as plain JSON files under a recovery
// directory: registeredUsers.json at the root, one subdirectory per project
// holding projectMembers.json plus one file per card. Humans can inspect and
// repair the state with a text editor.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/worth-collab/worth-server/internal/core/domain"
	"github.com/worth-collab/worth-server/internal/core/ports"
)

const (
	usersFile   = "registeredUsers.json"
	membersFile = "projectMembers.json"
	dirPerm     = 0o755
	filePerm    = 0o644
)

type Store struct {
	dir    string
	logger zerolog.Logger
}

// New prepares the recovery directory, creating it when absent.
func New(dir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create recovery dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// LoadSnapshot rebuilds the full server state from disk. A missing users
// file means a first boot and yields an empty snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (*ports.Snapshot, error) {
	snap := &ports.Snapshot{}

	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	snap.Users = users

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read recovery dir: %w", err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() {
			continue
		}
		p, err := s.loadProject(e.Name())
		if err != nil {
			return nil, err
		}
		snap.Projects = append(snap.Projects, p)
	}

	s.logger.Info().
		Int("users", len(snap.Users)).
		Int("projects", len(snap.Projects)).
		Str("dir", s.dir).
		Msg("recovery snapshot loaded")
	return snap, nil
}

func (s *Store) loadUsers() ([]*domain.User, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, usersFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", usersFile, err)
	}

	var users []*domain.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode %s: %w", usersFile, err)
	}
	return users, nil
}

func (s *Store) loadProject(name string) (*domain.Project, error) {
	projectDir := filepath.Join(s.dir, name)

	data, err := os.ReadFile(filepath.Join(projectDir, membersFile))
	if err != nil {
		return nil, fmt.Errorf("read members of %s: %w", name, err)
	}
	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("decode members of %s: %w", name, err)
	}

	p := domain.NewProject(name, "")
	p.Members = members

	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf("read project dir %s: %w", name, err)
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == membersFile || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		card, err := s.loadCard(filepath.Join(projectDir, e.Name()))
		if err != nil {
			return nil, err
		}
		if err := p.PlaceCard(card.CurrentState(), card); err != nil {
			return nil, fmt.Errorf("place card %s of %s: %w", card.Name, name, err)
		}
	}
	return p, nil
}

func (s *Store) loadCard(path string) (*domain.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card %s: %w", path, err)
	}
	var c domain.Card
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode card %s: %w", path, err)
	}
	return &c, nil
}

// SaveUsers rewrites the complete registry in one shot. The file is small;
// writing it whole keeps the format trivially recoverable.
func (s *Store) SaveUsers(_ context.Context, users []*domain.User) error {
	return s.writeJSON(filepath.Join(s.dir, usersFile), users)
}

// SaveProjectMembers creates the project directory on first call and
// rewrites its member list.
func (s *Store) SaveProjectMembers(_ context.Context, p *domain.Project) error {
	projectDir := filepath.Join(s.dir, p.Name)
	if err := os.MkdirAll(projectDir, dirPerm); err != nil {
		return fmt.Errorf("create project dir %s: %w", p.Name, err)
	}
	return s.writeJSON(filepath.Join(projectDir, membersFile), p.Members)
}

// SaveCard rewrites the card's own file inside the project directory.
func (s *Store) SaveCard(_ context.Context, projectName string, c *domain.Card) error {
	return s.writeJSON(filepath.Join(s.dir, projectName, c.Name+".json"), c)
}

// DeleteProject removes the project directory with every card in it.
func (s *Store) DeleteProject(_ context.Context, projectName string) error {
	if err := os.RemoveAll(filepath.Join(s.dir, projectName)); err != nil {
		return fmt.Errorf("delete project %s: %w", projectName, err)
	}
	return nil
}

// writeJSON writes via a temp file and rename so a crash mid-write never
// leaves a truncated document behind.
func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
