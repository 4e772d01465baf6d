package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"kodbank/internal/assistant"
	"kodbank/internal/auth"
	"kodbank/internal/ledger"
	"kodbank/models"
	"kodbank/repository"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	u, err := s.Issuer.Register(r.Context(), req.Username, req.Password, req.Email, req.Phone, req.Role)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	case errors.Is(err, auth.ErrRoleNotAllowed):
		writeError(w, http.StatusBadRequest, "Only 'Customer' role is allowed")
		return
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "Username or email already exists")
		return
	default:
		log.Printf("register error: %v", err)
		writeError(w, http.StatusInternalServerError, "Registration failed. Please try again.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user": map[string]any{
			"uid":      u.UID,
			"username": u.Username,
			"email":    u.Email,
			"role":     u.Role,
		},
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	sess, u, err := s.Issuer.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		log.Printf("login error: %v", err)
		writeError(w, http.StatusInternalServerError, "Login failed. Please try again.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "kodbank_token",
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(auth.TokenLifetime.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"token":    sess.Token,
		"username": u.Username,
		"role":     u.Role,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	p, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if err := s.Issuer.Logout(r.Context(), r.Header.Get(tokenHeader)); err != nil {
		log.Printf("logout error for %s: %v", p.Username, err)
		writeError(w, http.StatusInternalServerError, "Logout failed. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out."})
}

// authenticate resolves the session token and writes the appropriate 401 on
// failure. The wording distinguishes expiry from other failures so the
// frontend can force a re-login.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, err := s.Verifier.Authenticate(r.Context(), r.Header.Get(tokenHeader))
	if err == nil {
		return p, true
	}
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, "Authentication required. Please login.")
	case errors.Is(err, auth.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "Session expired. Please login again.")
	case errors.Is(err, auth.ErrSessionRevoked):
		writeError(w, http.StatusUnauthorized, "Invalid session. Please login again.")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Invalid token. Please login again.")
	default:
		log.Printf("authenticate error: %v", err)
		writeError(w, http.StatusInternalServerError, "Authentication failed. Please try again.")
	}
	return nil, false
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	p, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	bal, err := s.Engine.CheckBalance(r.Context(), p.Username)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}
		log.Printf("balance error for %s: %v", p.Username, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch balance. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"balance":  bal,
		"username": p.Username,
	})
}

type depositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	p, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount. Must be between 1 and 10,00,000.")
		return
	}

	newBal, err := s.Engine.Deposit(r.Context(), p.Username, req.Amount)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "Invalid amount. Must be between 1 and 10,00,000.")
		return
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "User not found.")
		return
	default:
		log.Printf("deposit error for %s: %v", p.Username, err)
		writeError(w, http.StatusInternalServerError, "Deposit failed.")
		return
	}

	amount, _ := models.PaiseFromDecimal(req.Amount)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"newBalance": newBal,
		"message":    fmt.Sprintf("%s deposited successfully.", amount.Display()),
	})
}

type transferRequest struct {
	ToUsername string          `json:"to_username"`
	Amount     decimal.Decimal `json:"amount"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	p, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	newBal, recipient, err := s.Engine.Transfer(r.Context(), p.Username, req.ToUsername, req.Amount)
	switch {
	case err == nil:
	case errors.Is(err, ledger.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "Invalid amount. Must be between 1 and 10,00,000.")
		return
	case errors.Is(err, ledger.ErrMissingRecipient):
		writeError(w, http.StatusBadRequest, "Recipient username is required.")
		return
	case errors.Is(err, ledger.ErrSelfTransfer):
		writeError(w, http.StatusBadRequest, "Cannot transfer to yourself.")
		return
	case errors.Is(err, ledger.ErrRecipientNotFound):
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("Recipient '%s' not found.", strings.TrimSpace(req.ToUsername)))
		return
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "Sender not found.")
		return
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusBadRequest, "Insufficient balance.")
		return
	default:
		log.Printf("transfer error for %s: %v", p.Username, err)
		writeError(w, http.StatusInternalServerError, "Transfer failed.")
		return
	}

	amount, _ := models.PaiseFromDecimal(req.Amount)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"newBalance": newBal,
		"recipient":  recipient,
		"message":    fmt.Sprintf("%s transferred to %s successfully.", amount.Display(), recipient),
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	p, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	list, err := s.Engine.History(r.Context(), p.Username, ledger.HistoryLimit)
	if err != nil {
		log.Printf("transactions error for %s: %v", p.Username, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch transactions.")
		return
	}
	if list == nil {
		list = []models.Transaction{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"transactions": list,
	})
}

type chatRequest struct {
	Messages []assistant.Message `json:"messages"`
}

// handleChat runs one assistant turn. Unlike the other endpoints the token is
// optional here: without one the assistant answers general questions only.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.Assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "AI assistant is not configured.")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "Messages are required.")
		return
	}

	var username string
	if p, err := s.Verifier.Authenticate(r.Context(), r.Header.Get(tokenHeader)); err == nil {
		username = p.Username
	}

	reply, err := s.Assistant.Chat(r.Context(), username, req.Messages)
	if err != nil {
		log.Printf("chat error: %v", err)
		writeError(w, http.StatusInternalServerError, "AI service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": reply})
}
