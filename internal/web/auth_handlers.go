package web

import (
	"net/http"
	"strconv"

	"github.com/chronique-jdr/chronique/internal/auth"
	"github.com/chronique-jdr/chronique/internal/storage/postgres"
)

// credentialsRequest is the body of register and login calls.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// accountView is the public projection of an account.
type accountView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// tokenResponse carries a signed access token with its account.
type tokenResponse struct {
	Token   string      `json:"token"`
	Account accountView `json:"account"`
}

func newAccountView(a postgres.Account) accountView {
	return accountView{ID: a.ID, Username: a.Username, Role: a.Role}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}
	if req.Username == "" || len(req.Password) < 8 {
		respondError(w, s.logger, invalidf("username must not be empty and password must be at least 8 characters"))
		return
	}

	acct, err := s.accounts.Create(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	s.respondToken(w, http.StatusCreated, acct)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, s.logger, err)
		return
	}

	acct, err := s.accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	s.respondToken(w, http.StatusOK, acct)
}

func (s *Server) respondToken(w http.ResponseWriter, status int, acct postgres.Account) {
	token, err := s.tokens.Issue(auth.Identity{
		AccountID: acct.ID,
		Username:  acct.Username,
		Role:      acct.Role,
	})
	if err != nil {
		respondError(w, s.logger, err)
		return
	}
	respondJSON(w, status, tokenResponse{Token: token, Account: newAccountView(acct)})
}

// pathID parses a numeric path segment registered with the given name.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidf("path parameter %q must be a positive integer", name)
	}
	return id, nil
}

// requireMember resolves the membership check shared by the campaign-scoped
// handlers. Admins pass regardless of enrolment.
func (s *Server) requireMember(r *http.Request, campaignID int64, ident auth.Identity) error {
	if ident.Role == auth.RoleAdmin {
		return nil
	}
	member, err := s.campaigns.IsMember(r.Context(), campaignID, ident.AccountID)
	if err != nil {
		return err
	}
	if !member {
		return forbiddenf("not a member of campaign %d", campaignID)
	}
	return nil
}
