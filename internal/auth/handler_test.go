package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/vivenda-app/vivenda/internal/auth"
	"github.com/vivenda-app/vivenda/internal/authstate"
	"github.com/vivenda-app/vivenda/internal/shared"
	"github.com/vivenda-app/vivenda/internal/view"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

type fixture struct {
	handler  *auth.Handler
	sessions *shared.SessionManager
	events   *redis.Client
}

func newFixture(t *testing.T, repo auth.Repository) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	handler := auth.NewHandler(nil, auth.NewService(repo), templates, sessions, csrf, client)
	return fixture{handler: handler, sessions: sessions, events: client}
}

func (f fixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, *shared.Session) {
	t.Helper()
	sess, err := f.sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)
	res := httptest.NewRecorder()
	router := newRouter(f.handler)
	router.ServeHTTP(res, req)
	if err := f.sessions.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res, sess
}

func newRouter(h *auth.Handler) http.Handler {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func confirmedUser(t *testing.T, password string) *auth.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &auth.User{
		ID:             1,
		Email:          "maria@vivenda.local",
		PasswordHash:   string(hashed),
		IsActive:       true,
		EmailConfirmed: true,
	}
}

func TestLoginPageRendersForm(t *testing.T) {
	f := newFixture(t, &stubRepo{})
	res, _ := f.do(t, httptest.NewRequest(http.MethodGet, "/login", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "<form") {
		t.Fatal("expected login form in body")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t, &stubRepo{user: confirmedUser(t, "correct-password")})

	form := url.Values{}
	form.Set("email", "maria@vivenda.local")
	form.Set("password", "wrong-password")
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, _ := f.do(t, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Email ou senha inválidos") {
		t.Fatal("expected translated credential error")
	}
}

func TestLoginUnconfirmedEmail(t *testing.T) {
	user := confirmedUser(t, "correct-password")
	user.EmailConfirmed = false
	f := newFixture(t, &stubRepo{user: user})

	form := url.Values{}
	form.Set("email", "maria@vivenda.local")
	form.Set("password", "correct-password")
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, _ := f.do(t, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Confirme seu email") {
		t.Fatal("expected unconfirmed email message")
	}
}

func TestLoginSuccessSetsUserAndPublishesEvent(t *testing.T) {
	f := newFixture(t, &stubRepo{user: confirmedUser(t, "correct-password")})

	sub := f.events.Subscribe(context.Background(), authstate.EventChannel)
	defer sub.Close()
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	ch := sub.Channel()

	form := url.Values{}
	form.Set("email", "maria@vivenda.local")
	form.Set("password", "correct-password")
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, sess := f.do(t, req)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %s", loc)
	}
	if sess.User() != "1" {
		t.Fatalf("expected session user 1, got %q", sess.User())
	}

	select {
	case msg := <-ch:
		if !strings.Contains(msg.Payload, string(authstate.KindSignedIn)) {
			t.Fatalf("expected signed-in event, got %s", msg.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a signed-in event")
	}
}

func TestLogoutRedirectsOnceWithNotice(t *testing.T) {
	f := newFixture(t, &stubRepo{user: confirmedUser(t, "correct-password")})

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	sess, err := f.sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetUser("1")
	ctx := shared.ContextWithSession(req.Context(), sess)
	res := httptest.NewRecorder()
	newRouter(f.handler).ServeHTTP(res, req.WithContext(ctx))

	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/login?encerrada=1" {
		t.Fatalf("expected login redirect with notice, got %s", loc)
	}
}
