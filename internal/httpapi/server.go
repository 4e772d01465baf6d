// Package httpapi exposes the bank's boundary operations over HTTP+JSON.
// Routes, headers, status codes and error wording follow the original
// kodbank edge functions; the session token travels in the X-Kodbank-Token
// header.
package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"kodbank/internal/assistant"
	"kodbank/internal/auth"
	"kodbank/internal/ledger"
)

// Server bundles dependencies and implements the HTTP handlers.
type Server struct {
	Verifier  *auth.Verifier
	Issuer    *auth.Issuer
	Engine    *ledger.Engine
	Assistant *assistant.Assistant // nil disables /chat
}

// Router wires all routes with CORS handling.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/balance", s.handleBalance).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/deposit", s.handleDeposit).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/transfer", s.handleTransfer).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/transactions", s.handleTransactions).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost, http.MethodOptions)

	return r
}

// Start listens on addr and returns a shutdown function.
func (s *Server) Start(addr string) (func(context.Context) error, error) {
	if addr == "" {
		addr = ":8080"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() { _ = srv.Serve(lis) }()

	return srv.Shutdown, nil
}

// tokenHeader is the header the frontend sends the session token in.
const tokenHeader = "X-Kodbank-Token"

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers",
			"authorization, x-client-info, apikey, content-type, x-kodbank-token")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
