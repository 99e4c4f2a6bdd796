package api

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"membership-signup/internal/admin/export"
	"membership-signup/internal/common/errors"
	"membership-signup/internal/models"
)

type ctxKey int

const sessionKey ctxKey = iota

type loginResponse struct {
	Token   string               `json:"token"`
	Session *models.AdminSession `json:"session"`
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// requireAdmin rejects requests without a live admin session.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, s.logger, errors.NewAuthenticationError("missing bearer token"), nil)
			return
		}
		sess, err := s.deps.Auth.Session(r.Context(), token)
		if err != nil {
			writeError(w, s.logger, err, nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func sessionFrom(ctx context.Context) *models.AdminSession {
	sess, _ := ctx.Value(sessionKey).(*models.AdminSession)
	return sess
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, loginSchema, &req); err != nil {
		writeError(w, s.logger, err, nil)
		return
	}
	token, sess, err := s.deps.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, s.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Session: sess})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Auth.SignOut(r.Context(), bearerToken(r)); err != nil {
		writeError(w, s.logger, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()))
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Submissions.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, s.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// exportSubmissions streams every submission, regardless of the table's
// current search term.
func (s *Server) exportSubmissions(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Submissions.All(r.Context())
	if err != nil {
		writeError(w, s.logger, err, nil)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, rows, s.location); err != nil {
		writeError(w, s.logger, errors.NewInternalError(err), nil)
		return
	}

	filename := export.Filename(s.now().In(s.location))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())

	s.logger.Info("submissions exported", map[string]interface{}{
		"rows":    len(rows),
		"adminId": sessionFrom(r.Context()).UserID,
	})
}
