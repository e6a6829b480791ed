package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/worth-collab/worth-server/internal/core/domain"
	"github.com/worth-collab/worth-server/internal/core/ports"
)

const (
	collectionUsers    = "users"
	collectionProjects = "projects"
	collectionCards    = "cards"
)

// Store keeps users, projects and cards in three collections. Cards carry
// the project name so DeleteProject can sweep them with a single filter.
type Store struct {
	users    *mongo.Collection
	projects *mongo.Collection
	cards    *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		users:    db.Collection(collectionUsers),
		projects: db.Collection(collectionProjects),
		cards:    db.Collection(collectionCards),
	}
}

type projectDoc struct {
	Name    string   `bson:"name"`
	Members []string `bson:"members"`
}

type cardDoc struct {
	Project string   `bson:"project"`
	Name    string   `bson:"card_name"`
	Desc    string   `bson:"description"`
	History []string `bson:"history"`
}

// LoadSnapshot reads every collection and rebuilds the project boards,
// placing each card per the last entry of its history.
func (s *Store) LoadSnapshot(ctx context.Context) (*ports.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	snap := &ports.Snapshot{}

	cur, err := s.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if err := cur.All(ctx, &snap.Users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	var docs []projectDoc
	cur, err = s.projects.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}

	for _, doc := range docs {
		p := domain.NewProject(doc.Name, "")
		p.Members = doc.Members
		if err := s.loadCards(ctx, p); err != nil {
			return nil, err
		}
		snap.Projects = append(snap.Projects, p)
	}
	return snap, nil
}

func (s *Store) loadCards(ctx context.Context, p *domain.Project) error {
	cur, err := s.cards.Find(ctx, bson.M{"project": p.Name})
	if err != nil {
		return fmt.Errorf("load cards of %s: %w", p.Name, err)
	}
	var docs []cardDoc
	if err := cur.All(ctx, &docs); err != nil {
		return fmt.Errorf("decode cards of %s: %w", p.Name, err)
	}
	for _, doc := range docs {
		card := &domain.Card{Name: doc.Name, Description: doc.Desc, History: doc.History}
		if err := p.PlaceCard(card.CurrentState(), card); err != nil {
			return fmt.Errorf("place card %s of %s: %w", card.Name, p.Name, err)
		}
	}
	return nil
}

// SaveUsers upserts every user by nickname. Accounts are never removed, so
// no deletion pass is needed.
func (s *Store) SaveUsers(ctx context.Context, users []*domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for _, u := range users {
		_, err := s.users.UpdateOne(ctx,
			bson.M{"nick_name": u.NickName},
			bson.M{"$set": u},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", u.NickName, err)
		}
	}
	return nil
}

// SaveProjectMembers upserts the project document by name.
func (s *Store) SaveProjectMembers(ctx context.Context, p *domain.Project) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.projects.UpdateOne(ctx,
		bson.M{"name": p.Name},
		bson.M{"$set": projectDoc{Name: p.Name, Members: p.Members}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert project %s: %w", p.Name, err)
	}
	return nil
}

// SaveCard upserts the card by (project, card name).
func (s *Store) SaveCard(ctx context.Context, projectName string, c *domain.Card) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := cardDoc{Project: projectName, Name: c.Name, Desc: c.Description, History: c.History}
	_, err := s.cards.UpdateOne(ctx,
		bson.M{"project": projectName, "card_name": c.Name},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert card %s of %s: %w", c.Name, projectName, err)
	}
	return nil
}

// DeleteProject removes the project document and all of its cards.
func (s *Store) DeleteProject(ctx context.Context, projectName string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.cards.DeleteMany(ctx, bson.M{"project": projectName}); err != nil {
		return fmt.Errorf("delete cards of %s: %w", projectName, err)
	}
	if _, err := s.projects.DeleteOne(ctx, bson.M{"name": projectName}); err != nil {
		return fmt.Errorf("delete project %s: %w", projectName, err)
	}
	return nil
}

// EnsureIndexes creates the lookup indexes used by the snapshot load and
// the per-mutation upserts.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "nick_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	if _, err := s.projects.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := s.cards.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project", Value: 1}, {Key: "card_name", Value: 1}},
	})
	return err
}
