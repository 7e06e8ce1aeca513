package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Scanning and product history
	mux.HandleFunc("/api/scan", s.app.ProductHandler.ScanHandler)      // POST - scan a barcode
	mux.HandleFunc("/api/products", s.app.ProductHandler.ProductsHandler) // GET (list), DELETE (clear history)
	mux.HandleFunc("/api/products/", s.app.ProductHandler.ProductRoutes)  // GET/DELETE /{id}, POST /{id}/enrich, GET /{id}/enrichment

	// API routes - Statistics
	mux.HandleFunc("/api/stats/daily", s.app.StatsHandler.DailyHandler)

	// API routes - Chat
	mux.HandleFunc("/api/chat", s.app.ChatHandler.SendHandler)
	mux.HandleFunc("/api/chat/history", s.app.ChatHandler.HistoryHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	return mux
}
