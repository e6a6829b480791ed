package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/worth-collab/worth-server/internal/api/metrics"
	"github.com/worth-collab/worth-server/internal/core/domain"
)

type handlerFunc func(ctx context.Context, endpoint string, args []string) string

// usages maps each verb to the hint returned when its arguments are
// missing or malformed. Malformed input is answered, never treated as a
// protocol violation.
var usages = map[string]string{
	"login":            "usage: login <nick> <password>",
	"logout":           "usage: logout",
	"list_projects":    "usage: list_projects",
	"create_project":   "usage: create_project <project>",
	"add_member":       "usage: add_member <project> <nick>",
	"show_members":     "usage: show_members <project>",
	"show_cards":       "usage: show_cards <project>",
	"show_card":        "usage: show_card <project> <card>",
	"add_card":         "usage: add_card <project> <card> <description>",
	"move_card":        "usage: move_card <project> <card> <src-list> <dst-list>",
	"join_chat":        "usage: join_chat <project>",
	"get_card_history": "usage: get_card_history <project> <card>",
	"cancel_project":   "usage: cancel_project <project>",
}

var usageHint = buildUsageHint()

func buildUsageHint() string {
	verbs := []string{
		"login", "logout", "list_projects", "create_project", "add_member",
		"show_members", "show_cards", "show_card", "add_card", "move_card",
		"join_chat", "get_card_history", "cancel_project",
	}
	return "< unknown command. available: " + strings.Join(verbs, ", ")
}

func (s *Server) handlerTable() map[string]handlerFunc {
	return map[string]handlerFunc{
		"login":            s.handleLogin,
		"logout":           s.handleLogout,
		"list_projects":    s.handleListProjects,
		"create_project":   s.handleCreateProject,
		"add_member":       s.handleAddMember,
		"show_members":     s.handleShowMembers,
		"show_cards":       s.handleShowCards,
		"show_card":        s.handleShowCard,
		"add_card":         s.handleAddCard,
		"move_card":        s.handleMoveCard,
		"join_chat":        s.handleJoinChat,
		"get_card_history": s.handleGetCardHistory,
		"cancel_project":   s.handleCancelProject,
	}
}

// fail records the error for the verb and returns the response line.
func fail(verb, line string) string {
	metrics.RequestErrorsTotal.WithLabelValues(verb).Inc()
	return line
}

// caller resolves the connection's endpoint to its logged-in user. The
// returned line is non-empty when resolution fails.
func (s *Server) caller(endpoint string) (nick string, errLine string) {
	u, err := s.presence.Resolve(endpoint)
	if err != nil {
		return "", "< Error. login required"
	}
	return u.NickName, ""
}

func (s *Server) handleLogin(ctx context.Context, endpoint string, args []string) string {
	if len(args) != 2 {
		return fail("login", "< "+usages["login"])
	}
	nick, password := args[0], args[1]
	snapshot, err := s.presence.Login(ctx, nick, password, endpoint)
	if err != nil {
		return fail("login", "< Error. unknown user "+nick+" or wrong password")
	}
	return "< " + nick + " logged in\n" + snapshot
}

func (s *Server) handleLogout(ctx context.Context, endpoint string, args []string) string {
	if len(args) != 0 {
		return fail("logout", "< "+usages["logout"])
	}
	nick, err := s.presence.Logout(ctx, endpoint)
	if err != nil {
		return fail("logout", "< Error. no user logged in from this connection")
	}
	return "< " + nick + " logged out"
}

func (s *Server) handleListProjects(_ context.Context, endpoint string, args []string) string {
	if len(args) != 0 {
		return fail("list_projects", "< "+usages["list_projects"])
	}
	nick, errLine := s.caller(endpoint)
	if errLine != "" {
		return fail("list_projects", errLine)
	}
	names := s.board.ProjectsOf(nick)
	if len(names) == 0 {
		return "user " + nick + " is not a member of any project"
	}
	return strings.Join(names, "\n")
}

func (s *Server) handleCreateProject(ctx context.Context, endpoint string, args []string) string {
	if len(args) != 1 {
		return fail("create_project", "< "+usages["create_project"])
	}
	nick, errLine := s.caller(endpoint)
	if errLine != "" {
		return fail("create_project", errLine)
	}
	name := args[0]
	if _, err := s.board.CreateProject(ctx, name, nick); err != nil {
		if errors.Is(err, domain.ErrDuplicateProject) {
			return fail("create_project", "< Error. name '"+name+"' already in use")
		}
		return fail("create_project", "< Error. "+err.Error())
	}
	return "< " + name + " created"
}

func (s *Server) handleAddMember(ctx context.Context, endpoint string, args []string) string {
	if len(args) != 2 {
		return fail("add_member", "< "+usages["add_member"])
	}
	nick, errLine := s.caller(endpoint)
	if errLine != "" {
		return fail("add_member", errLine)
	}
	project, newMember := args[0], args[1]
	switch err := s.board.AddMember(ctx, project, nick, newMember); {
	case err == nil:
		return "< " + newMember + " added to project " + project
	case errors.Is(err, domain.ErrAlreadyMember):
		return fail("add_member", "< "+newMember+" already a member of project "+project)
	case errors.Is(err, domain.ErrUnknownUser):
		return fail("add_member", "< Error. "+newMember+" is not registered")
	default:
		return fail("add_member", projectErrLine(project, err))
	}
}

func (s *Server) handleShowMembers(_ context.Context, endpoint string, args []string) string {
	if len(args) != 1 {
		return fail("show_members", "< "+usages["show_members"])
	}
	nick, errLine := s.caller(endpoint)
	if errLine != "" {
		return fail("show_members", errLine)
	}
	members, err := s.board.Members(args[0], nick)
	if err != nil {
		return fail("show_members", projectErrLine(args[0], err))
	}
	return strings.Join(members, "\n")
}

func (s *Server) handleShowCards(_ context.Context, endpoint string, args []string) string {
	if len(args) != 1 {
		return fail("show_cards", "< "+usages["show_cards"])
	}
	nick, errLine := s.caller(endpoint)
	if errLine != "" {
		return fail("show_cards", errLine)
	}
	p, err := s.board.Project(args[0], nick)
	if err != nil {
		return fail("show_cards", projectErrLine(args[0], err))
	}
	var b strings.Builder
	for _, list := range domain.ListNames {
		b.WriteString(list + ":\n")
		for _, c := range p.List(list) {
			b.WriteString(c.Name + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Server) handleShowCard(_ context.Context, endpoint string, args []string) string {
	if len(args) != 2 {
		return fail("show_card", "< "+usages["show_card"])
	}
	nick, errLine := s.caller(endpoint)
	if errLine != "" {
		return fail("show_card", errLine)
	}
	project, cardName := args[0], args[1]
	card, err := s.board.Card(project, nick, cardName)
	if err != nil {
		if errors.Is(err, domain.ErrCardNotFound) {
			return fail("show_card", "Error. card not present in project "+project)
		}
		return fail("show_card", projectErrLine(project, err))
	}
	return "name: " + card.Name + "\n" +
		"description: " + card.Description + "\n" +
		"current state: " + card.CurrentState()
}

func (s *Server) handleAddCard(ctx context.Context, endpoint string, args []string) string {
	if len(args) < 3 {
		return fail("add_card", "< "+usages["add_card"])
	}
	nick, errLine := s.caller(endpoint)
	if errLine != "" {
		return fail("add_card", errLine)
	}
	project, cardName := args[0], args[1]
	description := strings.Join(args[2:], " ")
	if _, err := s.board.AddCard(ctx, project, nick, cardName, description); err != nil {
		if errors.Is(err, domain.ErrDuplicateCard) {
			return fail("add_card", "< card "+cardName+" already present in project "+project)
		}
		return fail("add_card", projectErrLine(project, err))
	}
	return "< card " + cardName + " added to project " + project
}

func (s *Server) handleMoveCard(ctx context.Context, endpoint string, args []string) string {
	if len(args) != 4 {
		return fail("move_card", "< "+usages["move_card"])
	}
	nick, errLine := s.caller(endpoint)
	if errLine != "" {
		return fail("move_card", errLine)
	}
	project, cardName, src, dst := args[0], args[1], args[2], args[3]
	switch _, err := s.board.MoveCard(ctx, project, nick, cardName, src, dst); {
	case err == nil:
		return "< card " + cardName + " moved from " + src + " to " + dst
	case errors.Is(err, domain.ErrInvalidTransition):
		return fail("move_card", "< cannot move card "+cardName+": move from "+src+" to "+dst+" not allowed")
	case errors.Is(err, domain.ErrCardNotFound):
		return fail("move_card", "< cannot move card "+cardName+": card not found in "+src)
	default:
		return fail("move_card", projectErrLine(project, err))
	}
}

func (s *Server) handleJoinChat(_ context.Context, endpoint string, args []string) string {
	if len(args) != 1 {
		return fail("join_chat", "< "+usages["join_chat"])
	}
	nick, errLine := s.caller(endpoint)
	if errLine != "" {
		return fail("join_chat", errLine)
	}
	addr, err := s.board.JoinChat(args[0], nick)
	if err != nil {
		return fail("join_chat", projectErrLine(args[0], err))
	}
	return fmt.Sprintf("%s %d %s", addr.IP, addr.Port, nick)
}

func (s *Server) handleGetCardHistory(_ context.Context, endpoint string, args []string) string {
	if len(args) != 2 {
		return fail("get_card_history", "< "+usages["get_card_history"])
	}
	nick, errLine := s.caller(endpoint)
	if errLine != "" {
		return fail("get_card_history", errLine)
	}
	project, cardName := args[0], args[1]
	card, err := s.board.Card(project, nick, cardName)
	if err != nil {
		if errors.Is(err, domain.ErrCardNotFound) {
			return fail("get_card_history", "< cannot show history of card "+cardName+" of project "+project)
		}
		return fail("get_card_history", projectErrLine(project, err))
	}
	return "< " + card.HistoryLine()
}

func (s *Server) handleCancelProject(ctx context.Context, endpoint string, args []string) string {
	if len(args) != 1 {
		return fail("cancel_project", "< "+usages["cancel_project"])
	}
	nick, errLine := s.caller(endpoint)
	if errLine != "" {
		return fail("cancel_project", errLine)
	}
	project := args[0]
	switch err := s.board.DeleteProject(ctx, project, nick); {
	case err == nil:
		return "< project " + project + " removed"
	case errors.Is(err, domain.ErrProjectNotEmpty):
		return fail("cancel_project", "< cannot delete project "+project+": project not finished")
	default:
		return fail("cancel_project", projectErrLine(project, err))
	}
}

// projectErrLine renders the shared project-level failures.
func projectErrLine(projectName string, err error) string {
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		return "< Error. project " + projectName + " not found"
	case errors.Is(err, domain.ErrNotAMember):
		return "< Error. caller is not a member of the project"
	}
	return "< Error. " + err.Error()
}
