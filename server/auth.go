package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/finsim/papertrader/ledger"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string `json:"token"`
	Account  int64  `json:"account_id"`
	Username string `json:"username"`
	Cash     string `json:"cash"`
}

// handleRegister creates an account with the configured opening cash and
// returns a session token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required", "invalid_input")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters", "invalid_input")
		return
	}

	if _, err := s.store.AccountByUsername(r.Context(), req.Username); err == nil {
		writeError(w, http.StatusConflict, "username already taken", "username_taken")
		return
	} else if !errors.Is(err, ledger.ErrNoAccount) {
		s.logger.Error().Err(err).Msg("register: lookup username")
		writeError(w, http.StatusInternalServerError, "internal server error", "internal")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("register: hash password")
		writeError(w, http.StatusInternalServerError, "internal server error", "internal")
		return
	}

	cash, err := decimal.NewFromString(s.openingCash)
	if err != nil {
		s.logger.Error().Err(err).Str("opening_cash", s.openingCash).Msg("register: bad opening cash")
		writeError(w, http.StatusInternalServerError, "internal server error", "internal")
		return
	}

	acct, err := s.store.CreateAccount(r.Context(), req.Username, string(hash), cash)
	if err != nil {
		s.logger.Error().Err(err).Msg("register: create account")
		writeError(w, http.StatusInternalServerError, "internal server error", "internal")
		return
	}

	token, err := s.signToken(acct.ID, acct.Username)
	if err != nil {
		s.logger.Error().Err(err).Msg("register: sign token")
		writeError(w, http.StatusInternalServerError, "internal server error", "internal")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Token:    token,
		Account:  acct.ID,
		Username: acct.Username,
		Cash:     acct.Cash.String(),
	})
}

// handleLogin checks credentials and returns a session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acct, err := s.store.AccountByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, ledger.ErrNoAccount) {
			writeError(w, http.StatusUnauthorized, "invalid username or password", "unauthorized")
			return
		}
		s.logger.Error().Err(err).Msg("login: lookup username")
		writeError(w, http.StatusInternalServerError, "internal server error", "internal")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password", "unauthorized")
		return
	}

	token, err := s.signToken(acct.ID, acct.Username)
	if err != nil {
		s.logger.Error().Err(err).Msg("login: sign token")
		writeError(w, http.StatusInternalServerError, "internal server error", "internal")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token:    token,
		Account:  acct.ID,
		Username: acct.Username,
		Cash:     acct.Cash.String(),
	})
}
