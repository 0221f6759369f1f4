// Package http serves the shop frontend: server-rendered pages over the
// gateway-backed services, one workspace per login session.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"shopledger/internal/core"
	"shopledger/internal/log"
	"shopledger/internal/services"
	"shopledger/internal/session"
	appweb "shopledger/web"
)

type Server struct {
	http.Server
	templates   *template.Template
	sessions    *session.Manager
	snapshots   services.SnapshotStore
	logger      *log.Logger
	rateLimiter *rateLimiter

	mu         sync.Mutex
	workspaces map[string]*services.Workspace

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
// snapshots may be nil when persistence is disabled.
func NewServer(addr string, sessions *session.Manager, snapshots services.SnapshotStore, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		sessions:    sessions,
		snapshots:   snapshots,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
		workspaces:  make(map[string]*services.Workspace),
	}

	funcs := template.FuncMap{
		"money": func(m core.Money) string { return m.String() },
		"date":  func(t time.Time) string { return t.Format("02/01/2006") },
		"datetime": func(t time.Time) string {
			return t.Format("02/01/2006 15:04")
		},
		"datetimep": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("02/01/2006 15:04")
		},
		"lineTotal": func(l core.CartLine) core.Money {
			return core.Money{Amount: l.Price.Amount * l.Quantity}
		},
	}
	t, err := template.New("").Funcs(funcs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("failed parsing templates", log.FieldError, err.Error())
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("/logout", s.withSecurityHeaders(s.requireAuth(s.handleLogout)))

	mux.HandleFunc("/", s.withSecurityHeaders(s.requireAuth(s.handleHome)))

	mux.HandleFunc("/products", s.withSecurityHeaders(s.requireAuth(s.handleProducts)))
	mux.HandleFunc("/cart/add", s.withSecurityHeaders(s.requireAuth(s.handleCartAdd)))
	mux.HandleFunc("/cart/update", s.withSecurityHeaders(s.requireAuth(s.handleCartUpdate)))
	mux.HandleFunc("/cart/remove", s.withSecurityHeaders(s.requireAuth(s.handleCartRemove)))
	mux.HandleFunc("/cart/checkout", s.withSecurityHeaders(s.requireAuth(s.handleCheckout)))

	mux.HandleFunc("/products/create", s.withSecurityHeaders(s.requireAdmin(s.handleProductCreate)))
	mux.HandleFunc("/products/update", s.withSecurityHeaders(s.requireAdmin(s.handleProductUpdate)))
	mux.HandleFunc("/products/delete", s.withSecurityHeaders(s.requireAdmin(s.handleProductDelete)))

	mux.HandleFunc("/categories", s.withSecurityHeaders(s.requireAuth(s.handleCategories)))
	mux.HandleFunc("/categories/create", s.withSecurityHeaders(s.requireAdmin(s.handleCategoryCreate)))
	mux.HandleFunc("/categories/delete", s.withSecurityHeaders(s.requireAdmin(s.handleCategoryDelete)))

	mux.HandleFunc("/transactions", s.withSecurityHeaders(s.requireAuth(s.handleTransactions)))
	mux.HandleFunc("/transactions/status", s.withSecurityHeaders(s.requireAdmin(s.handleTransactionStatus)))
	mux.HandleFunc("/transactions/manual", s.withSecurityHeaders(s.requireAdmin(s.handleManualDebt)))

	mux.HandleFunc("/debts", s.withSecurityHeaders(s.requireAdmin(s.handleDebts)))
	mux.HandleFunc("/debts/edit", s.withSecurityHeaders(s.requireAdmin(s.handleDebtEdit)))
	mux.HandleFunc("/debts/cancel", s.withSecurityHeaders(s.requireAdmin(s.handleDebtCancel)))
	mux.HandleFunc("/debts/save", s.withSecurityHeaders(s.requireAdmin(s.handleDebtSave)))
	mux.HandleFunc("/debts/add", s.withSecurityHeaders(s.requireAdmin(s.handleDebtAdd)))
	mux.HandleFunc("/debts/delete", s.withSecurityHeaders(s.requireAdmin(s.handleDebtDelete)))
	mux.HandleFunc("/debts/history", s.withSecurityHeaders(s.requireAdmin(s.handleDebtHistory)))

	mux.HandleFunc("/debt-list", s.withSecurityHeaders(s.requireAdmin(s.handleDebtList)))
	mux.HandleFunc("/debt-list/paid", s.withSecurityHeaders(s.requireAdmin(s.handleInvoicePaid)))

	mux.HandleFunc("/users", s.withSecurityHeaders(s.requireAdmin(s.handleUsers)))
	mux.HandleFunc("/users/add", s.withSecurityHeaders(s.requireAdmin(s.handleUserAdd)))
	mux.HandleFunc("/users/delete", s.withSecurityHeaders(s.requireAdmin(s.handleUserDelete)))

	return s
}

// sessionHandler is a handler with the resolved session and its workspace.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace)

// workspace returns the session's service set, creating it on first use.
func (s *Server) workspace(sess *session.Session) *services.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[sess.ID]
	if !ok {
		ws = services.NewWorkspace(sess.Backend, s.snapshots, s.logger)
		s.workspaces[sess.ID] = ws
	}
	return ws
}

func (s *Server) dropWorkspace(sessionID string) {
	s.mu.Lock()
	delete(s.workspaces, sessionID)
	s.mu.Unlock()
}

// requireAuth resolves the session cookie; anonymous requests are redirected
// to the login page.
func (s *Server) requireAuth(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.FromRequest(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, sess, s.workspace(sess))
	}
}

// requireAdmin renders a blocking "not permitted" page for authenticated
// non-admin users.
func (s *Server) requireAdmin(next sessionHandler) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
		if !sess.IsAdmin() {
			s.logger.WarnContext(r.Context(), "admin page refused",
				log.FieldUsername, sess.Username,
				log.FieldPath, r.URL.Path)
			w.WriteHeader(http.StatusForbidden)
			s.render(w, r, "notpermitted.html", s.pageData(sess, nil))
			return
		}
		next(w, r, sess, ws)
	})
}

// withSecurityHeaders adds security headers, rate limiting on posts and
// request logging.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		reqLogger := s.logger.With(log.FieldRequestID, requestID)
		s.logger.DebugContext(r.Context(), "request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			reqLogger.WarnContext(r.Context(), "rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		reqLogger.InfoContext(r.Context(), "request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// responseWriter captures the status code for the completion log line.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// Shutdown stops the server and the limiter's cleanup goroutine exactly once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
