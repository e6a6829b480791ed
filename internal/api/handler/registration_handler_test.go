package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/worth-collab/worth-server/internal/core/domain"
)

type stubPresence struct {
	registerFn func(ctx context.Context, nick, password string) error
}

func (s *stubPresence) Register(ctx context.Context, nick, password string) error {
	return s.registerFn(ctx, nick, password)
}

func (s *stubPresence) Login(context.Context, string, string, string) (string, error) {
	return "", nil
}
func (s *stubPresence) Logout(context.Context, string) (string, error) { return "", nil }
func (s *stubPresence) Resolve(string) (*domain.User, error)           { return nil, domain.ErrNotLoggedIn }
func (s *stubPresence) Lookup(string) (*domain.User, error)            { return nil, domain.ErrUnknownUser }
func (s *stubPresence) Snapshot() string                               { return "" }

func postRegister(t *testing.T, h *RegistrationHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRegistrationHandler_Success(t *testing.T) {
	var gotNick, gotPassword string
	h := NewRegistrationHandler(&stubPresence{
		registerFn: func(_ context.Context, nick, password string) error {
			gotNick, gotPassword = nick, password
			return nil
		},
	})

	rec := postRegister(t, h, `{"nick":"ada","password":"secret"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotNick != "ada" || gotPassword != "secret" {
		t.Errorf("service called with %q %q", gotNick, gotPassword)
	}
}

func TestRegistrationHandler_DuplicateNick(t *testing.T) {
	h := NewRegistrationHandler(&stubPresence{
		registerFn: func(context.Context, string, string) error {
			return domain.ErrDuplicateUser
		},
	})

	rec := postRegister(t, h, `{"nick":"ada","password":"secret"}`)

	// The domain error propagates; the API error handler maps it to 409.
	if rec.Code == http.StatusCreated {
		t.Fatal("duplicate registration must not return 201")
	}
}

func TestRegistrationHandler_RejectsReservedCharacters(t *testing.T) {
	h := NewRegistrationHandler(&stubPresence{
		registerFn: func(context.Context, string, string) error {
			t.Fatal("service must not be reached")
			return nil
		},
	})

	for _, body := range []string{
		`{"nick":"ada lovelace","password":"secret"}`,
		`{"nick":"ada;Online","password":"secret"}`,
		`{"nick":"ada","password":"open sesame"}`,
	} {
		rec := postRegister(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestRegistrationHandler_RejectsMissingFields(t *testing.T) {
	h := NewRegistrationHandler(&stubPresence{
		registerFn: func(context.Context, string, string) error {
			t.Fatal("service must not be reached")
			return nil
		},
	})

	for _, body := range []string{
		`{}`,
		`{"nick":"ada"}`,
		`{"password":"secret"}`,
		`not json`,
	} {
		rec := postRegister(t, h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}
