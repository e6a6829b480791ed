package server

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/worth-collab/worth-server/internal/core/domain"
	"github.com/worth-collab/worth-server/internal/core/ports"
	"github.com/worth-collab/worth-server/internal/core/service"
	"github.com/worth-collab/worth-server/internal/multicast"
)

// ---------------------------------------------------------------------------
// Fixture: real services over a no-op store
// ---------------------------------------------------------------------------

type nopStore struct{}

func (nopStore) LoadSnapshot(context.Context) (*ports.Snapshot, error) {
	return &ports.Snapshot{}, nil
}
func (nopStore) SaveUsers(context.Context, []*domain.User) error           { return nil }
func (nopStore) SaveProjectMembers(context.Context, *domain.Project) error { return nil }
func (nopStore) SaveCard(context.Context, string, *domain.Card) error      { return nil }
func (nopStore) DeleteProject(context.Context, string) error               { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := zerolog.Nop()
	alloc, err := multicast.NewAllocator("239.0.0.0", 5002)
	if err != nil {
		t.Fatalf("allocator: %v", err)
	}
	presence := service.NewPresenceService(nopStore{}, nil, nil, log)
	board := service.NewBoardService(nopStore{}, alloc, nil, presence, log)
	return New(":0", presence, board, log)
}

// exec pushes one command line through the dispatch path the way the
// dispatch goroutine would, bound to the given endpoint.
func exec(s *Server, endpoint, line string) string {
	parts := strings.Split(line, " ")
	return s.dispatch(context.Background(), request{
		endpoint: endpoint,
		verb:     parts[0],
		args:     parts[1:],
	})
}

func mustRegister(t *testing.T, s *Server, nick, password string) {
	t.Helper()
	if err := s.presence.Register(context.Background(), nick, password); err != nil {
		t.Fatalf("register %s: %v", nick, err)
	}
}

const (
	adaConn = "10.0.0.1:40001"
	bobConn = "10.0.0.2:40002"
)

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

func TestHandlers_LoginLogout(t *testing.T) {
	s := newTestServer(t)
	mustRegister(t, s, "ada", "secret")
	mustRegister(t, s, "bob", "hunter2")

	got := exec(s, adaConn, "login ada secret")
	want := "< ada logged in\nada;Online bob;Offline"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := exec(s, adaConn, "logout"); got != "< ada logged out" {
		t.Errorf("unexpected logout response: %q", got)
	}
	if got := exec(s, adaConn, "logout"); !strings.HasPrefix(got, "< Error.") {
		t.Errorf("double logout must fail, got %q", got)
	}
}

func TestHandlers_LoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)
	mustRegister(t, s, "ada", "secret")

	got := exec(s, adaConn, "login ada wrong")
	if got != "< Error. unknown user ada or wrong password" {
		t.Errorf("unexpected response: %q", got)
	}
	got = exec(s, adaConn, "login ghost secret")
	if got != "< Error. unknown user ghost or wrong password" {
		t.Errorf("unexpected response: %q", got)
	}
}

func TestHandlers_LoginRequired(t *testing.T) {
	s := newTestServer(t)

	for _, line := range []string{
		"list_projects",
		"create_project web",
		"show_cards web",
		"join_chat web",
	} {
		if got := exec(s, adaConn, line); got != "< Error. login required" {
			t.Errorf("%s: expected login required, got %q", line, got)
		}
	}
}

func TestHandlers_SessionIsPerEndpoint(t *testing.T) {
	s := newTestServer(t)
	mustRegister(t, s, "ada", "secret")
	exec(s, adaConn, "login ada secret")

	// bob's connection has no session even while ada is online.
	if got := exec(s, bobConn, "list_projects"); got != "< Error. login required" {
		t.Errorf("expected login required on foreign endpoint, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

func TestHandlers_ProjectLifecycle(t *testing.T) {
	s := newTestServer(t)
	mustRegister(t, s, "ada", "secret")
	mustRegister(t, s, "bob", "hunter2")
	exec(s, adaConn, "login ada secret")

	if got := exec(s, adaConn, "create_project web"); got != "< web created" {
		t.Fatalf("unexpected response: %q", got)
	}
	if got := exec(s, adaConn, "create_project web"); got != "< Error. name 'web' already in use" {
		t.Errorf("unexpected response: %q", got)
	}

	if got := exec(s, adaConn, "add_member web bob"); got != "< bob added to project web" {
		t.Errorf("unexpected response: %q", got)
	}
	if got := exec(s, adaConn, "add_member web bob"); got != "< bob already a member of project web" {
		t.Errorf("unexpected response: %q", got)
	}
	if got := exec(s, adaConn, "add_member web ghost"); got != "< Error. ghost is not registered" {
		t.Errorf("unexpected response: %q", got)
	}

	if got := exec(s, adaConn, "show_members web"); got != "ada\nbob" {
		t.Errorf("unexpected response: %q", got)
	}
	if got := exec(s, adaConn, "list_projects"); got != "web" {
		t.Errorf("unexpected response: %q", got)
	}
}

func TestHandlers_ListProjectsEmpty(t *testing.T) {
	s := newTestServer(t)
	mustRegister(t, s, "ada", "secret")
	exec(s, adaConn, "login ada secret")

	if got := exec(s, adaConn, "list_projects"); got != "user ada is not a member of any project" {
		t.Errorf("unexpected response: %q", got)
	}
}

func TestHandlers_MembershipEnforced(t *testing.T) {
	s := newTestServer(t)
	mustRegister(t, s, "ada", "secret")
	mustRegister(t, s, "bob", "hunter2")
	exec(s, adaConn, "login ada secret")
	exec(s, bobConn, "login bob hunter2")
	exec(s, adaConn, "create_project web")

	if got := exec(s, bobConn, "show_cards web"); got != "< Error. caller is not a member of the project" {
		t.Errorf("unexpected response: %q", got)
	}
	if got := exec(s, bobConn, "show_cards nope"); got != "< Error. project nope not found" {
		t.Errorf("unexpected response: %q", got)
	}
}

// ---------------------------------------------------------------------------
// Cards
// ---------------------------------------------------------------------------

func TestHandlers_CardWorkflow(t *testing.T) {
	s := newTestServer(t)
	mustRegister(t, s, "ada", "secret")
	exec(s, adaConn, "login ada secret")
	exec(s, adaConn, "create_project web")

	if got := exec(s, adaConn, "add_card web deploy ship the new site"); got != "< card deploy added to project web" {
		t.Fatalf("unexpected response: %q", got)
	}
	if got := exec(s, adaConn, "add_card web deploy again"); got != "< card deploy already present in project web" {
		t.Errorf("unexpected response: %q", got)
	}

	want := "name: deploy\ndescription: ship the new site\ncurrent state: TODO"
	if got := exec(s, adaConn, "show_card web deploy"); got != want {
		t.Errorf("unexpected response: %q", got)
	}

	if got := exec(s, adaConn, "move_card web deploy TODO INPROGRESS"); got != "< card deploy moved from TODO to INPROGRESS" {
		t.Errorf("unexpected response: %q", got)
	}
	if got := exec(s, adaConn, "move_card web deploy TODO DONE"); got != "< cannot move card deploy: card not found in TODO" {
		t.Errorf("unexpected response: %q", got)
	}
	if got := exec(s, adaConn, "move_card web deploy INPROGRESS TODO"); got != "< cannot move card deploy: move from INPROGRESS to TODO not allowed" {
		t.Errorf("unexpected response: %q", got)
	}

	if got := exec(s, adaConn, "get_card_history web deploy"); got != "< TODO INPROGRESS" {
		t.Errorf("unexpected response: %q", got)
	}
	if got := exec(s, adaConn, "get_card_history web ghost"); got != "< cannot show history of card ghost of project web" {
		t.Errorf("unexpected response: %q", got)
	}
}

func TestHandlers_ShowCardsGroupsByList(t *testing.T) {
	s := newTestServer(t)
	mustRegister(t, s, "ada", "secret")
	exec(s, adaConn, "login ada secret")
	exec(s, adaConn, "create_project web")
	exec(s, adaConn, "add_card web deploy ship it")
	exec(s, adaConn, "add_card web design make it pretty")
	exec(s, adaConn, "move_card web deploy TODO INPROGRESS")

	want := "TODO:\ndesign\nINPROGRESS:\ndeploy\nTOBEREVISED:\nDONE:"
	if got := exec(s, adaConn, "show_cards web"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHandlers_ShowCardMissing(t *testing.T) {
	s := newTestServer(t)
	mustRegister(t, s, "ada", "secret")
	exec(s, adaConn, "login ada secret")
	exec(s, adaConn, "create_project web")

	if got := exec(s, adaConn, "show_card web ghost"); got != "Error. card not present in project web" {
		t.Errorf("unexpected response: %q", got)
	}
}

// ---------------------------------------------------------------------------
// Chat and deletion
// ---------------------------------------------------------------------------

func TestHandlers_JoinChat(t *testing.T) {
	s := newTestServer(t)
	mustRegister(t, s, "ada", "secret")
	exec(s, adaConn, "login ada secret")
	exec(s, adaConn, "create_project web")

	if got := exec(s, adaConn, "join_chat web"); got != "239.0.0.1 5002 ada" {
		t.Errorf("unexpected response: %q", got)
	}
}

func TestHandlers_CancelProject(t *testing.T) {
	s := newTestServer(t)
	mustRegister(t, s, "ada", "secret")
	exec(s, adaConn, "login ada secret")
	exec(s, adaConn, "create_project web")
	exec(s, adaConn, "add_card web deploy ship it")

	if got := exec(s, adaConn, "cancel_project web"); got != "< cannot delete project web: project not finished" {
		t.Fatalf("unexpected response: %q", got)
	}

	exec(s, adaConn, "move_card web deploy TODO INPROGRESS")
	exec(s, adaConn, "move_card web deploy INPROGRESS DONE")

	if got := exec(s, adaConn, "cancel_project web"); got != "< project web removed" {
		t.Fatalf("unexpected response: %q", got)
	}
	if got := exec(s, adaConn, "show_cards web"); got != "< Error. project web not found" {
		t.Errorf("deleted project still visible: %q", got)
	}
}

// ---------------------------------------------------------------------------
// Malformed input
// ---------------------------------------------------------------------------

func TestHandlers_UnknownVerb(t *testing.T) {
	s := newTestServer(t)

	got := exec(s, adaConn, "frobnicate")
	if !strings.HasPrefix(got, "< unknown command.") {
		t.Errorf("unexpected response: %q", got)
	}
}

func TestHandlers_UsageHints(t *testing.T) {
	s := newTestServer(t)
	mustRegister(t, s, "ada", "secret")
	exec(s, adaConn, "login ada secret")

	cases := map[string]string{
		"login ada":          "< usage: login <nick> <password>",
		"create_project":     "< usage: create_project <project>",
		"add_member web":     "< usage: add_member <project> <nick>",
		"move_card web card": "< usage: move_card <project> <card> <src-list> <dst-list>",
		"add_card web card":  "< usage: add_card <project> <card> <description>",
	}
	for line, want := range cases {
		if got := exec(s, adaConn, line); got != want {
			t.Errorf("%s: expected %q, got %q", line, want, got)
		}
	}
}
