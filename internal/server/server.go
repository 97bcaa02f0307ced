// package server contains the middleware & handlers for the local web front
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/gorilla/csrf"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows the patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Opts configures a [Server].
type Opts struct {
	BaseURL       string        // Lending API root
	HTTPClient    *http.Client  // Client used for backend calls (default: one with Timeout)
	Timeout       time.Duration // Backend request timeout
	CSRFKey       []byte        // 32-byte key; random per process when empty
	SecureCookies bool          // Mark cookies Secure (serve behind TLS)
	ToastTTL      time.Duration // How long flash toasts stay relevant
	Logger        *log.Logger
}

// Server is the server-rendered rendition of the lending frontend.
//
// Each request gets its own session manager backed by the token cookie, so
// several browsers can be logged in as different users at once.
type Server struct {
	router     *BasicRouter
	handler    http.Handler
	pages      *templates
	baseURL    string
	httpClient *http.Client
	csrfKey    []byte
	secure     bool
	toastTTL   time.Duration
	logger     *log.Logger
}

// New builds the server and registers every route.
func New(opts Opts) (*Server, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = shared.DefaultBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.ToastTTL <= 0 {
		opts.ToastTTL = 4 * time.Second
	}
	if len(opts.CSRFKey) == 0 {
		opts.CSRFKey = make([]byte, 32)
		if _, err := rand.Read(opts.CSRFKey); err != nil {
			return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
		}
	}
	if len(opts.CSRFKey) != 32 {
		return nil, fmt.Errorf("%w: CSRF key must be 32 bytes, got %d", shared.ErrInvalidConfig, len(opts.CSRFKey))
	}

	pages, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:     NewBasicRouter(),
		pages:      pages,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		csrfKey:    opts.CSRFKey,
		secure:     opts.SecureCookies,
		toastTTL:   opts.ToastTTL,
		logger:     opts.Logger,
	}
	s.routes()
	s.handler = s.protect(s.router)
	return s, nil
}

// ServeHTTP implements [http.Handler]; every request passes CSRF protection first.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Handler returns the router wrapped in CSRF protection.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) protect(next http.Handler) http.Handler {
	protect := csrf.Protect(
		s.csrfKey,
		csrf.Secure(s.secure),
		csrf.Path("/"),
		csrf.CookieName("equipx_csrf"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(s.csrfFailure)),
	)
	return protect(next)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", addr, "api", s.baseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) csrfFailure(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn("csrf check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
	http.Error(w, "Forbidden - invalid CSRF token", http.StatusForbidden)
}
