// Package http exposes the JSON API: entity CRUD, the dashboard summary and
// the on-demand alert report.
package http

import (
	"container/list"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"saldo/internal/core"
	"saldo/internal/services"
)

// LRU cache with TTL and size-based eviction
type lruCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func newLRUCache[T any](maxSize int, ttl time.Duration) *lruCache[T] {
	return &lruCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *lruCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return item.data, true
}

func (c *lruCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

func (c *lruCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

func (c *lruCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries
func (c *lruCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		item := elem.Value.(*cacheItem[T])
		if now.After(item.expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

type Server struct {
	http.Server

	accounts    *services.AccountService
	categories  *services.CategoryService
	ledger      *services.LedgerService
	budgets     *services.BudgetService
	dashboard   *services.DashboardService
	currency    string
	rateLimiter *rateLimiter

	// per-owner caches for the two expensive read projections
	summaryCache *lruCache[core.DashboardSummary]
	alertCache   *lruCache[core.AlertReport]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

type Deps struct {
	Accounts   *services.AccountService
	Categories *services.CategoryService
	Ledger     *services.LedgerService
	Budgets    *services.BudgetService
	Dashboard  *services.DashboardService
	Currency   string
}

func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		accounts:         deps.Accounts,
		categories:       deps.Categories,
		ledger:           deps.Ledger,
		budgets:          deps.Budgets,
		dashboard:        deps.Dashboard,
		currency:         deps.Currency,
		rateLimiter:      newRateLimiter(),
		summaryCache:     newLRUCache[core.DashboardSummary](500, time.Minute),
		alertCache:       newLRUCache[core.AlertReport](500, time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/accounts", s.with(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.with(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts/{id}", s.with(s.handleGetAccount))
	mux.HandleFunc("PATCH /api/accounts/{id}", s.with(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.with(s.handleDeleteAccount))

	mux.HandleFunc("GET /api/categories", s.with(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.with(s.handleCreateCategory))
	mux.HandleFunc("GET /api/categories/{id}", s.with(s.handleGetCategory))
	mux.HandleFunc("PATCH /api/categories/{id}", s.with(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.with(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/transactions", s.with(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.with(s.handlePostTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.with(s.handleGetTransaction))
	mux.HandleFunc("PATCH /api/transactions/{id}", s.with(s.handleAmendTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.with(s.handleRetractTransaction))

	mux.HandleFunc("GET /api/budgets", s.with(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.with(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets/{id}", s.with(s.handleGetBudget))
	mux.HandleFunc("PATCH /api/budgets/{id}", s.with(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.with(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/dashboard", s.with(s.handleDashboard))
	mux.HandleFunc("GET /api/alerts", s.with(s.handleAlerts))

	return s
}

// purgeOwner drops an owner's cached projections. Every mutation calls this
// so reads after a write never see a stale summary.
func (s *Server) purgeOwner(ownerID string) {
	s.summaryCache.Delete(ownerID)
	s.alertCache.Delete(ownerID)
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			summaries := s.summaryCache.CleanExpired()
			alerts := s.alertCache.CleanExpired()
			if summaries > 0 || alerts > 0 {
				slog.Debug("Cache cleanup completed",
					"summary_entries_removed", summaries,
					"alert_entries_removed", alerts)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// with adds request tracing, logging and write rate limiting.
func (s *Server) with(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.DebugContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		setSecurityHeaders(w)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

func setSecurityHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	h.Set("Cross-Origin-Resource-Policy", "same-origin")
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Simple in-memory rate limiter for mutating requests.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

const (
	rateLimitWindow   = time.Minute
	rateLimitRequests = 120
)

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.lastRequest) > rateLimitWindow {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	client.lastRequest = now
	client.requests++
	return client.requests <= rateLimitRequests
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}
