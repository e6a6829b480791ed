package domain

import "strings"

// Names of the four card lists every project carries.
const (
	ListTodo        = "TODO"
	ListInProgress  = "INPROGRESS"
	ListToBeRevised = "TOBEREVISED"
	ListDone        = "DONE"
)

// ListNames enumerates the lists in workflow order.
var ListNames = []string{ListTodo, ListInProgress, ListToBeRevised, ListDone}

// validTransitions defines the allowed workflow moves. DONE is terminal.
var validTransitions = map[string][]string{
	ListTodo:        {ListInProgress},
	ListInProgress:  {ListToBeRevised, ListDone},
	ListToBeRevised: {ListInProgress},
}

// CanMove reports whether moving a card from src to dst is a legal
// workflow transition.
func CanMove(src, dst string) bool {
	for _, allowed := range validTransitions[src] {
		if allowed == dst {
			return true
		}
	}
	return false
}

// KnownList reports whether name is one of the four workflow lists.
func KnownList(name string) bool {
	for _, n := range ListNames {
		if n == name {
			return true
		}
	}
	return false
}

// Card is a single task on a project board. History records every list the
// card has visited, in order, and is append-only; the current list is always
// the last entry. Cards are never deleted once created.
type Card struct {
	Name        string   `json:"cardName" bson:"card_name"`
	Description string   `json:"description" bson:"description"`
	History     []string `json:"history" bson:"history"`
}

// NewCard creates a card whose history starts in TODO.
func NewCard(name, description string) *Card {
	return &Card{
		Name:        name,
		Description: description,
		History:     []string{ListTodo},
	}
}

// CurrentState returns the list the card currently sits in, derived from the
// last history entry.
func (c *Card) CurrentState() string {
	return c.History[len(c.History)-1]
}

// HistoryLine renders the visited lists space-joined, oldest first.
func (c *Card) HistoryLine() string {
	return strings.Join(c.History, " ")
}
