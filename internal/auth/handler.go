package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/vivenda-app/vivenda/internal/authstate"
	"github.com/vivenda-app/vivenda/internal/shared"
	"github.com/vivenda-app/vivenda/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	events         *redis.Client
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager, events *redis.Client) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		events:         events,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Post("/recuperar-senha", h.handleRecovery)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
	Info   string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	data := loginPageData{Form: loginForm{}}
	if r.URL.Query().Get("encerrada") == "1" {
		data.Info = "Sua sessão foi encerrada"
	}
	h.render(w, r, data, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	formErrors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			for _, fieldErr := range validationErrs {
				formErrors[fieldErr.Field()] = "Campo inválido"
			}
		}
	}

	if len(formErrors) == 0 {
		user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err != nil {
			formErrors["general"] = h.loginErrorMessage(err)
		} else {
			h.establishSession(w, r, sess, user)
			return
		}
	}

	h.render(w, r, loginPageData{Form: loginForm{Email: form.Email}, Errors: formErrors}, http.StatusBadRequest)
}

// loginErrorMessage translates structured auth error kinds. No message text
// from the credential store is ever matched or echoed.
func (h *Handler) loginErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmailNotConfirmed):
		return "Confirme seu email antes de entrar"
	case errors.Is(err, ErrInvalidCredentials):
		return "Email ou senha inválidos"
	default:
		h.logger.Error("authenticate", slog.Any("error", err))
		return "Não foi possível entrar, tente novamente"
	}
}

func (h *Handler) establishSession(w http.ResponseWriter, r *http.Request, sess *shared.Session, user *User) {
	userID := strconv.FormatInt(user.ID, 10)
	if sess != nil {
		sess.SetUser(userID)
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Bem-vindo de volta"})
		if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, time.Now().Add(h.sessionManager.TTL()), r.RemoteAddr, r.UserAgent()); err != nil {
			h.logger.Warn("register session", slog.Any("error", err))
		}
	} else {
		h.logger.Error("session missing during login")
	}
	h.publish(r, authstate.Event{Kind: authstate.KindSignedIn, UserID: userID})
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	userID := ""
	if sess != nil {
		userID = sess.User()
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	if userID != "" {
		h.publish(r, authstate.Event{Kind: authstate.KindSignedOut, UserID: userID})
	}
	http.Redirect(w, r, "/login?encerrada=1", http.StatusSeeOther)
}

// handleRecovery accepts a recovery request and always answers the same way,
// whether or not the email exists. The actual reset flow lives elsewhere.
func (h *Handler) handleRecovery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	h.publish(r, authstate.Event{Kind: authstate.KindPasswordRecovery})
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "info", Message: "Se o email existir, enviaremos instruções de recuperação"})
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) publish(r *http.Request, ev authstate.Event) {
	if h.events == nil {
		return
	}
	if err := authstate.PublishEvent(r.Context(), h.events, ev); err != nil {
		h.logger.Warn("publish auth event", slog.String("kind", string(ev.Kind)), slog.Any("error", err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data loginPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Entrar",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
	}
}
