// Package httpapi exposes the Lorekeeper backend over HTTP/JSON: the auth
// endpoints the client signs in against, the verification flag, and the
// project CRUD.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/lorekeeper/internal/common"
	"github.com/dmitrijs2005/lorekeeper/internal/logging"
	"github.com/dmitrijs2005/lorekeeper/internal/server/models"
	"github.com/dmitrijs2005/lorekeeper/internal/server/projects"
	"github.com/dmitrijs2005/lorekeeper/internal/server/users"
)

const minPasswordLength = 6

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type authResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type verificationResponse struct {
	EmailVerified bool `json:"email_verified"`
}

type projectResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Genre     string    `json:"genre"`
	UpdatedAt time.Time `json:"updated_at"`
}

type createProjectRequest struct {
	Name  string `json:"name"`
	Genre string `json:"genre"`
}

// UserService is the slice of the account service the API needs.
type UserService interface {
	SignUp(ctx context.Context, email string, password []byte) (*users.AuthResult, error)
	SignIn(ctx context.Context, email string, password []byte, rememberMe bool) (*users.AuthResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, newPassword []byte) error
	VerifyEmail(ctx context.Context, token string) error
	Verification(ctx context.Context, userID string) (bool, error)
}

// ProjectService is the slice of the project service the API needs.
type ProjectService interface {
	List(ctx context.Context, ownerID string) ([]models.Project, error)
	Create(ctx context.Context, ownerID, name, genre string) (*models.Project, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Handlers owns the route table and translates between wire shapes and the
// services.
type Handlers struct {
	users     UserService
	projects  ProjectService
	logger    logging.Logger
	jwtSecret []byte
}

func NewHandlers(u UserService, p ProjectService, logger logging.Logger, jwtSecret []byte) *Handlers {
	return &Handlers{users: u, projects: p, logger: logger, jwtSecret: jwtSecret}
}

// Router assembles the mux with logging and panic recovery around every
// route and bearer auth around the protected ones.
func (h *Handlers) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", h.ping)
	mux.HandleFunc("POST /api/auth/signup", h.signUp)
	mux.HandleFunc("POST /api/auth/signin", h.signIn)
	mux.HandleFunc("POST /api/auth/password-reset", h.passwordReset)
	mux.HandleFunc("POST /api/auth/password-reset/confirm", h.passwordResetConfirm)
	mux.HandleFunc("POST /api/auth/verify-email", h.verifyEmail)

	authed := requireAuth(h.jwtSecret)
	mux.Handle("POST /api/auth/signout", authed(http.HandlerFunc(h.signOut)))
	mux.Handle("GET /api/auth/verification", authed(http.HandlerFunc(h.verification)))
	mux.Handle("GET /api/projects", authed(http.HandlerFunc(h.listProjects)))
	mux.Handle("POST /api/projects", authed(http.HandlerFunc(h.createProject)))
	mux.Handle("DELETE /api/projects/{id}", authed(http.HandlerFunc(h.deleteProject)))

	var handler http.Handler = mux
	handler = recoverer(h.logger)(handler)
	handler = requestLogger(h.logger)(handler)
	return handler
}

func (h *Handlers) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (h *Handlers) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "invalid email or password")
		return
	}

	res, err := h.users.SignUp(r.Context(), req.Email, []byte(req.Password))
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, authFromResult(res))
}

func (h *Handlers) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.users.SignIn(r.Context(), req.Email, []byte(req.Password), req.RememberMe)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, authFromResult(res))
}

// signOut acknowledges the client's session teardown. Tokens are stateless,
// so there is nothing to revoke server-side.
func (h *Handlers) signOut(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) passwordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.users.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// 202 whether or not the address has an account
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) passwordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" || len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "invalid token or password")
		return
	}

	if err := h.users.ResetPassword(r.Context(), req.Token, []byte(req.Password)); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrResetTokenExpired):
			writeError(w, http.StatusBadRequest, "invalid or expired token")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.users.VerifyEmail(r.Context(), req.Token); err != nil {
		writeError(w, http.StatusBadRequest, "invalid or expired token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) verification(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	verified, err := h.users.Verification(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, verificationResponse{EmailVerified: verified})
}

func (h *Handlers) listProjects(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	items, err := h.projects.List(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]projectResponse, 0, len(items))
	for _, p := range items {
		out = append(out, projectFromModel(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createProject(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req createProjectRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.projects.Create(r.Context(), claims.UserID, req.Name, req.Genre)
	if err != nil {
		if errors.Is(err, projects.ErrNameRequired) {
			writeError(w, http.StatusBadRequest, "project name is required")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, projectFromModel(*p))
}

func (h *Handlers) deleteProject(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	if err := h.projects.Delete(r.Context(), claims.UserID, r.PathValue("id")); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func authFromResult(res *users.AuthResult) authResponse {
	return authResponse{
		UserID:    res.UserID,
		Email:     res.Email,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	}
}

func projectFromModel(p models.Project) projectResponse {
	return projectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Genre:     p.Genre,
		UpdatedAt: p.UpdatedAt,
	}
}
