package http

import (
	"context"
	"net/http"

	"github.com/BITS4/babyshop/internal/domain"
)

// AuthService is the slice of the session store the handlers need.
type AuthService interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (string, *domain.Session, error)
	FederatedLogin(ctx context.Context, providerID, idToken, requestURI string) (string, *domain.Session, error)
	Refresh(ctx context.Context, email string) (string, *domain.Session, error)
	ResendVerification(ctx context.Context, email string) error
	Logout(ctx context.Context, email string)
}

type AuthHandler struct {
	auth   AuthService
	secure bool
}

func NewAuthHandler(auth AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: auth, secure: secureCookies}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token   string          `json:"token,omitempty"`
	Session *domain.Session `json:"session"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
		return
	}

	if err := h.auth.Register(r.Context(), req.Email, req.Password); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	respondJSON(w, http.StatusOK, sessionResponse{Token: token, Session: session})
}

type federatedRequest struct {
	ProviderID string `json:"provider_id"`
	IDToken    string `json:"id_token"`
	RequestURI string `json:"request_uri"`
}

func (h *AuthHandler) FederatedLogin(w http.ResponseWriter, r *http.Request) {
	var req federatedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProviderID == "" || req.IDToken == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "provider_id and id_token are required"})
		return
	}

	token, session, err := h.auth.FederatedLogin(r.Context(), req.ProviderID, req.IDToken, req.RequestURI)
	if err != nil {
		respondError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	respondJSON(w, http.StatusOK, sessionResponse{Token: token, Session: session})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := SessionFrom(r.Context()); session != nil {
		h.auth.Logout(r.Context(), session.Email)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   h.secure,
		HttpOnly: true,
	})
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Session returns the current session, re-synchronized with the identity
// provider so a freshly confirmed email is picked up.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, ok := mustSession(w, r)
	if !ok {
		return
	}

	token, refreshed, err := h.auth.Refresh(r.Context(), session.Email)
	if err != nil {
		respondError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	respondJSON(w, http.StatusOK, sessionResponse{Token: token, Session: refreshed})
}

type resendRequest struct {
	Email string `json:"email"`
}

// ResendVerification is open to unauthenticated callers: an account that
// failed login over an unconfirmed email has no session to present.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "email is required"})
		return
	}

	if err := h.auth.ResendVerification(r.Context(), req.Email); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		Secure:   h.secure,
		HttpOnly: true,
	})
}
