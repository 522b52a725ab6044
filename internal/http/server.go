// Package http is the JSON API surface over the budget and sync engine. The
// actual screens are a thin client elsewhere; everything stateful happens
// behind these handlers.
package http

import (
	"net/http"

	"dailymoney/internal/budget"
	"dailymoney/internal/store"
	"dailymoney/internal/syncer"
)

type Server struct {
	http.Server
	store     *store.Store
	allocator *budget.Allocator
	syncer    *syncer.Syncer
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, st *store.Store, allocator *budget.Allocator, sy *syncer.Syncer) *Server {
	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:     st,
		allocator: allocator,
		syncer:    sy,
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/transactions/", s.handleTransactionByID)
	mux.HandleFunc("/api/budget", s.handleBudget)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/sync", s.handleSync)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/export", s.handleExport)

	return s
}
