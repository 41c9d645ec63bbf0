package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pokecounter/pokecounter/internal/backend"
	"github.com/pokecounter/pokecounter/internal/utils"
	"github.com/pokecounter/pokecounter/pkg/auth"
	"github.com/pokecounter/pokecounter/pkg/names"
	"github.com/pokecounter/pokecounter/pkg/tracker"
	"github.com/sirupsen/logrus"
)

const sessionCookie = "pokecounter_session"

// SpriteLookup resolves a sprite URL for a Pokémon name.
type SpriteLookup interface {
	Lookup(ctx context.Context, name string) (string, bool)
}

type Options struct {
	Backend backend.Backend
	Names   *names.Registry
	// Sprites may be nil to disable sprite images.
	Sprites SpriteLookup

	// Username and Password enable HTTP basic auth in front of everything.
	Username string
	Password string

	// SiteURL is the public base URL used in password reset links. When
	// empty it is derived from the request.
	SiteURL string
}

type Server struct {
	backend  backend.Backend
	names    *names.Registry
	sprites  SpriteLookup
	auth     *auth.Manager
	sessions *registry
	log      logrus.FieldLogger

	Username string
	Password string
	siteURL  string
}

func New(opts Options) *Server {
	reg := opts.Names
	if reg == nil {
		reg = names.Default()
	}
	return &Server{
		backend:  opts.Backend,
		names:    reg,
		sprites:  opts.Sprites,
		auth:     auth.NewManager(opts.Backend.Auth()),
		sessions: newRegistry(),
		log:      utils.Log.WithField("component", "server"),
		Username: opts.Username,
		Password: opts.Password,
		siteURL:  strings.TrimRight(opts.SiteURL, "/"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Pages
	mux.HandleFunc("GET /{$}", s.requireUser(s.handleIndex))
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /password-reset", s.handleResetPage)
	mux.HandleFunc("POST /password-reset", s.handleReset)
	mux.HandleFunc("GET /about", s.handleAbout)

	// htmx fragments
	mux.HandleFunc("POST /hunts", s.requireUser(s.handleCreate))
	mux.HandleFunc("POST /hunts/{id}/inc", s.requireUser(s.huntAction(true, adjustBy(1))))
	mux.HandleFunc("POST /hunts/{id}/dec", s.requireUser(s.huntAction(true, adjustBy(-1))))
	mux.HandleFunc("PUT /hunts/{id}/count", s.requireUser(s.huntAction(true, editCount)))
	mux.HandleFunc("PUT /hunts/{id}/method", s.requireUser(s.huntAction(true, setField(tracker.ColumnMethod))))
	mux.HandleFunc("PUT /hunts/{id}/game", s.requireUser(s.huntAction(true, setField(tracker.ColumnGame))))
	mux.HandleFunc("POST /hunts/{id}/status", s.requireUser(s.huntAction(false, toggleStatus)))
	mux.HandleFunc("POST /hunts/{id}/delete", s.requireUser(s.huntAction(false, markDelete)))
	mux.HandleFunc("POST /hunts/{id}/delete/cancel", s.requireUser(s.huntAction(false, cancelDelete)))
	mux.HandleFunc("DELETE /hunts/{id}", s.requireUser(s.handleConfirmDelete))
	mux.HandleFunc("GET /sprites/{name}", s.requireUser(s.handleSprite))

	// API
	mux.HandleFunc("POST /api/login", s.handleAPILogin)
	mux.HandleFunc("POST /api/logout", s.handleAPILogout)
	mux.HandleFunc("GET /api/hunts", s.requireAPIUser(s.handleAPIList))
	mux.HandleFunc("POST /api/hunts", s.requireAPIUser(s.handleAPICreate))
	mux.HandleFunc("PATCH /api/hunts/{id}", s.requireAPIUser(s.handleAPIPatch))
	mux.HandleFunc("DELETE /api/hunts/{id}", s.requireAPIUser(s.handleAPIDelete))
	mux.HandleFunc("GET /api/names/{name}", s.handleAPIName)

	return s.basicAuth(mux)
}

func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Infof("Starting server on %s", addr)
	return srv.ListenAndServe()
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionIdle is how long a signed-in cookie survives without requests.
const sessionIdle = 24 * time.Hour

// userSession is what one browser cookie maps to.
type userSession struct {
	auth *auth.Session

	mu   sync.Mutex
	list *tracker.List

	// guarded by registry.mu
	token    string
	lastSeen time.Time
}

// registry holds signed-in sessions only. Anonymous visitors get a
// throwaway session that is registered once sign-in succeeds.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*userSession
	idle     time.Duration
	now      func() time.Time
}

func newRegistry() *registry {
	return &registry{
		sessions: make(map[string]*userSession),
		idle:     sessionIdle,
		now:      time.Now,
	}
}

func (r *registry) get(token string) (*userSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	us, ok := r.sessions[token]
	if !ok {
		return nil, false
	}
	now := r.now()
	if now.Sub(us.lastSeen) > r.idle {
		delete(r.sessions, token)
		return nil, false
	}
	us.lastSeen = now
	return us, true
}

// add registers us under a fresh token and drops idle sessions.
func (r *registry) add(us *userSession) string {
	token := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for t, other := range r.sessions {
		if now.Sub(other.lastSeen) > r.idle {
			delete(r.sessions, t)
		}
	}
	us.token = token
	us.lastSeen = now
	r.sessions[token] = us
	return token
}

func (r *registry) remove(us *userSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if us.token != "" {
		delete(r.sessions, us.token)
		us.token = ""
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// lookup returns the caller's session, if the cookie names a live one.
func (s *Server) lookup(r *http.Request) (*userSession, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	return s.sessions.get(c.Value)
}

// session returns the caller's session or an unregistered anonymous one.
func (s *Server) session(r *http.Request) *userSession {
	if us, ok := s.lookup(r); ok {
		return us
	}
	return &userSession{auth: auth.NewSession()}
}

// remember registers a freshly signed-in session and hands out its cookie.
func (s *Server) remember(w http.ResponseWriter, us *userSession) {
	if !us.auth.Authenticated() {
		return
	}
	s.sessions.mu.Lock()
	registered := us.token != ""
	s.sessions.mu.Unlock()
	if registered {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    s.sessions.add(us),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// forget drops the session and expires its cookie.
func (s *Server) forget(w http.ResponseWriter, us *userSession) {
	s.sessions.remove(us)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// listFor returns the session's list, creating it against the backend table
// the session's credentials select.
func (s *Server) listFor(us *userSession) *tracker.List {
	us.mu.Lock()
	defer us.mu.Unlock()
	if us.list == nil {
		us.list = tracker.NewList(
			s.backend.Table(us.auth),
			s.names,
			tracker.WithLogger(s.log.WithField("user", us.auth.Identity().Email)),
		)
	}
	return us.list
}

func (us *userSession) dropList() {
	us.mu.Lock()
	us.list = nil
	us.mu.Unlock()
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, us *userSession)

// requireUser sends anonymous visitors to the login page.
func (s *Server) requireUser(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		us, ok := s.lookup(r)
		if !ok || !us.auth.Authenticated() {
			redirect(w, r, "/login")
			return
		}
		next(w, r, us)
	}
}

func (s *Server) requireAPIUser(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		us, ok := s.lookup(r)
		if !ok || !us.auth.Authenticated() {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "not signed in"})
			return
		}
		next(w, r, us)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends htmx requests a client-side redirect and everything else a 303.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (s *Server) resetRedirect(r *http.Request) string {
	base := s.siteURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/password-reset"
}
