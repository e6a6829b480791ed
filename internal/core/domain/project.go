package domain

// ChatAddr is the multicast group bound 1:1 to a project for its lifetime.
type ChatAddr struct {
	IP   string
	Port int
}

// Project is the aggregate root of the board. Cards live in exactly one of
// the four lists at a time; Members holds nicknames with the creator first.
type Project struct {
	Name     string
	Members  []string
	ChatAddr ChatAddr

	lists map[string][]*Card
}

// NewProject creates an empty project whose first member is the creator.
func NewProject(name, creator string) *Project {
	p := &Project{
		Name:  name,
		lists: make(map[string][]*Card, len(ListNames)),
	}
	for _, l := range ListNames {
		p.lists[l] = nil
	}
	if creator != "" {
		p.Members = append(p.Members, creator)
	}
	return p
}

// List returns the cards currently in the named list, in insertion order.
// The returned slice is the project's own; callers must not mutate it.
func (p *Project) List(name string) []*Card {
	return p.lists[name]
}

// HasMember reports whether nick is a member, by exact match.
func (p *Project) HasMember(nick string) bool {
	for _, m := range p.Members {
		if m == nick {
			return true
		}
	}
	return false
}

// AddMember appends nick to the member set.
func (p *Project) AddMember(nick string) error {
	if p.HasMember(nick) {
		return ErrAlreadyMember
	}
	p.Members = append(p.Members, nick)
	return nil
}

// FindCard looks a card up by name across every list.
func (p *Project) FindCard(name string) *Card {
	for _, l := range ListNames {
		for _, c := range p.lists[l] {
			if c.Name == name {
				return c
			}
		}
	}
	return nil
}

// AddCard inserts a fresh card into TODO. Names are unique across the whole
// project, not just the target list.
func (p *Project) AddCard(card *Card) error {
	if p.FindCard(card.Name) != nil {
		return ErrDuplicateCard
	}
	p.lists[ListTodo] = append(p.lists[ListTodo], card)
	return nil
}

// PlaceCard inserts a recovered card directly into the named list without
// touching its history. Used only when rebuilding a project from a snapshot.
func (p *Project) PlaceCard(listName string, card *Card) error {
	if !KnownList(listName) {
		return ErrUnknownList
	}
	p.lists[listName] = append(p.lists[listName], card)
	return nil
}

// MoveCard applies one workflow transition: the card leaves src, dst is
// appended to its history and the card joins dst. The project is left
// untouched when the move fails.
func (p *Project) MoveCard(cardName, src, dst string) (*Card, error) {
	if !CanMove(src, dst) {
		return nil, ErrInvalidTransition
	}

	idx := -1
	for i, c := range p.lists[src] {
		if c.Name == cardName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrCardNotFound
	}

	card := p.lists[src][idx]
	p.lists[src] = append(p.lists[src][:idx], p.lists[src][idx+1:]...)
	card.History = append(card.History, dst)
	p.lists[dst] = append(p.lists[dst], card)
	return card, nil
}

// Deletable reports whether the project may be removed: every list except
// DONE must be empty.
func (p *Project) Deletable() bool {
	return len(p.lists[ListTodo]) == 0 &&
		len(p.lists[ListInProgress]) == 0 &&
		len(p.lists[ListToBeRevised]) == 0
}

// Cards returns every card of the project in list order: TODO first, then
// INPROGRESS, TOBEREVISED and DONE.
func (p *Project) Cards() []*Card {
	var out []*Card
	for _, l := range ListNames {
		out = append(out, p.lists[l]...)
	}
	return out
}
