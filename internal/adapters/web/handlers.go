package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/bnema/leasehold/internal/application"
	"github.com/bnema/leasehold/internal/domain"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 64 << 10

type loginRequest struct {
	AccountID    *int64 `json:"accountId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber"`
	IsSubscribed bool   `json:"isSubscribed"`
	TokenRef     string `json:"tokenRef"`
}

func (req loginRequest) fields() domain.Fields {
	fields := domain.Fields{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PhoneNumber:  req.PhoneNumber,
		IsSubscribed: req.IsSubscribed,
		TokenRef:     req.TokenRef,
	}
	if req.AccountID != nil {
		fields.AccountID = domain.NewAccountID(*req.AccountID)
	}
	return fields
}

type sessionResponse struct {
	Kind        string               `json:"kind"`
	Key         string               `json:"key"`
	LoginRoute  string               `json:"loginRoute"`
	Snapshot    domain.Snapshot      `json:"snapshot"`
	Rehydration *rehydrationResponse `json:"rehydration,omitempty"`
	CapturedAt  time.Time            `json:"capturedAt"`
}

type rehydrationResponse struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

func toSessionResponse(status application.Status) sessionResponse {
	resp := sessionResponse{
		Kind:       string(status.Kind),
		Key:        status.Key,
		LoginRoute: status.LoginRoute,
		Snapshot:   status.Snapshot,
		CapturedAt: status.CapturedAt,
	}
	if status.Rehydration != nil {
		resp.Rehydration = &rehydrationResponse{
			Outcome: string(status.Rehydration.Outcome),
			Reason:  status.Rehydration.Reason,
		}
	}
	return resp
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	statuses := serviceFrom(r.Context()).GetStatusAll()

	resp := make([]sessionResponse, 0, len(statuses))
	for _, status := range statuses {
		resp = append(resp, toSessionResponse(status))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	status, err := serviceFrom(r.Context()).GetStatus(kind)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(status))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	service := serviceFrom(r.Context())
	if _, err := service.Login(r.Context(), application.LoginCommand{Kind: kind, Fields: req.fields()}); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeStatus(w, r, kind, http.StatusOK)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	var patch domain.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	service := serviceFrom(r.Context())
	if _, err := service.Update(r.Context(), application.UpdateCommand{Kind: kind, Patch: patch}); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeStatus(w, r, kind, http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r)
	if !ok {
		return
	}

	if err := serviceFrom(r.Context()).Logout(r.Context(), application.LogoutCommand{Kind: kind}); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoginPage(kind domain.AccountKind) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeHTML(w, http.StatusOK, fmt.Sprintf("<h1>%s sign in</h1>", html.EscapeString(kind.Label())))
	}
}

func (s *Server) handleDashboard(kind domain.AccountKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := serviceFrom(r.Context()).GetStatus(kind)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		name := status.Snapshot.FirstName
		if name == "" {
			name = fmt.Sprintf("account %d", int64(*status.Snapshot.AccountID))
		}
		writeHTML(w, http.StatusOK, fmt.Sprintf("<h1>%s dashboard</h1><p>Welcome back, %s.</p>",
			html.EscapeString(kind.Label()), html.EscapeString(name)))
	}
}

func (s *Server) writeStatus(w http.ResponseWriter, r *http.Request, kind domain.AccountKind, code int) {
	status, err := serviceFrom(r.Context()).GetStatus(kind)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, code, toSessionResponse(status))
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownAccountKind):
		writeError(w, http.StatusNotFound, "unknown_account_kind")
	case errors.Is(err, domain.ErrMissingAccountID):
		writeError(w, http.StatusBadRequest, "missing_account_id")
	case errors.Is(err, domain.ErrNotLoggedIn):
		writeError(w, http.StatusConflict, "not_logged_in")
	default:
		s.logger.Error("session request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "persistence_failed")
	}
}

func kindParam(w http.ResponseWriter, r *http.Request) (domain.AccountKind, bool) {
	kind, err := domain.ParseAccountKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_account_kind")
		return "", false
	}
	return kind, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
