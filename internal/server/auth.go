package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/lakshminarasimha6802/sheetsql/internal/logging"
	"github.com/lakshminarasimha6802/sheetsql/internal/storage"
)

const (
	sessionName    = "sheetsql_session"
	sessionUserKey = "uid"
)

type contextKey string

const userContextKey contextKey = "sheetsql.user"

// userFrom returns the signed-in user placed on the context by
// requireUser, or nil outside an authenticated route.
func userFrom(ctx context.Context) *storage.User {
	u, _ := ctx.Value(userContextKey).(*storage.User)
	return u
}

// requireUser loads the account referenced by the session cookie and
// attaches it to the request context. Requests without a valid session
// get a 401; a session pointing at a deleted account is cleared.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := s.sessions.Get(r, sessionName)
		id, ok := sess.Values[sessionUserKey].(int64)
		if !ok {
			s.respondErrorMsg(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := s.Store.UserByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				logging.SecurityEvent("stale_session", r.RemoteAddr, "user_id", id)
				s.clearSession(w, r, sess)
				s.respondErrorMsg(w, http.StatusUnauthorized, "authentication required")
				return
			}
			s.respondError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) clearSession(w http.ResponseWriter, r *http.Request, sess *sessions.Session) {
	delete(sess.Values, sessionUserKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		logging.WarnContext(r.Context(), "clear session", "error", err)
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type userResponse struct {
	User *storage.User `json:"user"`
}

// handleRegister creates an account. Registering does not sign the
// account in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorMsg(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		s.respondErrorMsg(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.Store.CreateUser(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	respondJSON(w, http.StatusCreated, userResponse{User: user})
}

// handleLogin verifies the credentials and issues a session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorMsg(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.Store.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCredentials) {
			logging.SecurityEvent("login_failed", r.RemoteAddr, "email", sanitizeForLog(req.Email))
		}
		s.respondError(w, r, err)
		return
	}

	sess, _ := s.sessions.Get(r, sessionName)
	sess.Values[sessionUserKey] = user.ID
	if err := sess.Save(r, w); err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.InfoContext(r.Context(), "user signed in", "user_id", user.ID)
	respondJSON(w, http.StatusOK, userResponse{User: user})
}

// handleLogout drops the session. Logging out while signed out is not
// an error.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.sessions.Get(r, sessionName)
	s.clearSession(w, r, sess)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the signed-in account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, userResponse{User: userFrom(r.Context())})
}
