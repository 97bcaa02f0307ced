// Package router maps page paths to routes and decides, per navigation, which
// page may render for the current session.
package router

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/equipx/internal/session"
	"github.com/desertthunder/equipx/internal/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Access is the level a route requires.
type Access int

const (
	Public Access = iota
	Protected
	AdminOnly
)

// Route is a navigable page.
type Route struct {
	Path   string
	Label  string
	Access Access
	// AuthPage marks login-style pages that render without the navigation chrome.
	AuthPage bool
}

const (
	Landing           = ""
	Login             = "login"
	Register          = "register"
	ForgotPassword    = "forgot-password"
	Dashboard         = "dashboard"
	Activity          = "activity"
	Reservations      = "reservations"
	Profile           = "profile"
	Admin             = "admin"
	AdminEquipment    = "admin/equipment"
	AdminUsers        = "admin/users"
	AdminLoans        = "admin/loans"
	AdminMaintenance  = "admin/maintenance"
	AdminReservations = "admin/reservations"
)

var routes = []Route{
	{Path: Landing, Label: "Home", Access: Public},
	{Path: Login, Label: "Login", Access: Public, AuthPage: true},
	{Path: Register, Label: "Register", Access: Public, AuthPage: true},
	{Path: ForgotPassword, Label: "Forgot Password", Access: Public, AuthPage: true},
	{Path: Dashboard, Label: "Dashboard", Access: Protected},
	{Path: Activity, Label: "Activity", Access: Protected},
	{Path: Reservations, Label: "Reservations", Access: Protected},
	{Path: Profile, Label: "Profile", Access: Protected},
	{Path: Admin, Label: "Overview", Access: AdminOnly},
	{Path: AdminEquipment, Label: "Equipment", Access: AdminOnly},
	{Path: AdminUsers, Label: "Users", Access: AdminOnly},
	{Path: AdminLoans, Label: "Loans", Access: AdminOnly},
	{Path: AdminMaintenance, Label: "Maintenance", Access: AdminOnly},
	{Path: AdminReservations, Label: "Reservations", Access: AdminOnly},
}

// Routes returns the route table in navigation order.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Lookup finds the route for a normalized path.
func Lookup(path string) (Route, bool) {
	for _, r := range routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Normalize turns "#/admin/users/", "/admin/users" and "admin/users" into "admin/users".
// Query strings are dropped.
func Normalize(path string) string {
	path = strings.TrimSpace(path)
	path, _, _ = strings.Cut(path, "?")
	path = strings.TrimLeft(path, "#/")
	return strings.TrimRight(path, "/")
}

// Nav lists the routes shown in the navigation for s; nil s yields the public entries.
func Nav(s *session.Session) []Route {
	var out []Route
	for _, r := range routes {
		switch {
		case r.Path == Landing:
			continue
		case s == nil && r.Access == Public:
			out = append(out, r)
		case s != nil && r.Access == Protected:
			out = append(out, r)
		case s != nil && r.Access == AdminOnly && s.IsAdmin():
			out = append(out, r)
		}
	}
	return out
}

var titleCaser = cases.Title(language.English)

// Title is the window/document title for path.
func Title(path string) string {
	const prefix = "Equipment Management"
	path = Normalize(path)
	if path == "" {
		return prefix
	}

	words := strings.FieldsFunc(path, func(r rune) bool { return r == '-' || r == '/' })
	return prefix + " | " + titleCaser.String(strings.Join(words, " "))
}

// Authenticator reports the current session.
type Authenticator interface {
	Current(ctx context.Context) (*session.Session, error)
}

// Decision is the outcome of a navigation.
//
// When Redirect is set the caller navigates there instead of Route; Next is
// the originally requested path to return to after login.
type Decision struct {
	Route    Route
	Redirect string
	Next     string
	Session  *session.Session
	Chrome   bool
	NotFound bool
	// Expired is set when a stale token was found and cleared.
	Expired bool
	// Forbidden is set when a non-admin asked for an admin page.
	Forbidden bool
}

// Allowed reports whether the requested page may render.
func (d Decision) Allowed() bool { return d.Redirect == "" && !d.NotFound }

// Guard resolves navigations against the session.
type Guard struct {
	auth   Authenticator
	logger *log.Logger
}

func NewGuard(auth Authenticator, logger *log.Logger) *Guard {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Guard{auth: auth, logger: logger}
}

// Resolve decides what renders for path.
//
// The session is checked before the route table so that unknown paths also
// send anonymous visitors to login.
func (g *Guard) Resolve(ctx context.Context, path string) Decision {
	p := Normalize(path)

	sess, err := g.auth.Current(ctx)
	expired := errors.Is(err, shared.ErrSessionExpired)
	if err != nil && !shared.IsUnauthenticated(err) {
		g.logger.Warn("session lookup failed", "error", err)
	}
	if err != nil {
		sess = nil
	}

	if p == Landing {
		r, _ := Lookup(Landing)
		return Decision{Route: r, Session: sess, Chrome: true, Expired: expired}
	}

	route, known := Lookup(p)
	if sess == nil && (!known || route.Access != Public) {
		login, _ := Lookup(Login)
		return Decision{Route: login, Redirect: Login, Next: p, Expired: expired}
	}
	if !known {
		return Decision{Session: sess, Chrome: true, NotFound: true}
	}

	if sess != nil && route.AuthPage {
		dash, _ := Lookup(Dashboard)
		return Decision{Route: dash, Redirect: Dashboard, Session: sess, Chrome: true}
	}
	if route.Access == AdminOnly && !sess.IsAdmin() {
		dash, _ := Lookup(Dashboard)
		return Decision{Route: dash, Redirect: Dashboard, Session: sess, Chrome: true, Forbidden: true}
	}

	return Decision{Route: route, Session: sess, Chrome: !route.AuthPage, Expired: expired}
}
