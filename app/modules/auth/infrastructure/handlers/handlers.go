package authhandlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	authservice "github.com/polp-online/schedule-service/app/modules/auth/application"
)

// Handlers carries the login endpoints.
type Handlers struct {
	service *authservice.Service
	logger  *slog.Logger
}

// NewHandlers creates the auth HTTP handlers.
func NewHandlers(service *authservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

// HandleLogin redirects the client to the OAuth provider.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.LoginURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth flow and returns a bearer token.
func (h *Handlers) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "invalid oauth state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "login failed", slog.Any("error", err))
		http.Error(w, "login failed", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
}
