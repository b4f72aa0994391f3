package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zgoda02/LasCartasZamow/internal/auth/config"
	"github.com/zgoda02/LasCartasZamow/internal/token"
)

// Auth - единственный администратор с общим секретом.
// Логин обменивает пароль на подписанный токен,
// middleware пропускает мутации каталога только с таким токеном
type Auth interface {
	Login(w http.ResponseWriter, r *http.Request)
	Middleware(h http.HandlerFunc) http.HandlerFunc
}

type auth struct {
	cfg config.Config
}

func NewAuth(cfg config.Config) Auth {
	return &auth{cfg: cfg}
}

type loginJSONRequest struct {
	Password string `json:"password"`
}

type loginJSONResponse struct {
	Token string `json:"token"`
}

func (a *auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginJSONRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}

	if req.Password != a.cfg.AdminPassword {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	t, err := token.Build(a.cfg.AdminPassword, a.cfg.TokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginJSONResponse{Token: t})
}

func (a *auth) Middleware(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if t == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := token.Verify(a.cfg.AdminPassword, t); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		h.ServeHTTP(w, r)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
