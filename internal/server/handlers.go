package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/equipx/internal/formatter"
	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/router"
	"github.com/desertthunder/equipx/internal/services"
	"github.com/desertthunder/equipx/internal/session"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/desertthunder/equipx/internal/tasks"
	"github.com/gorilla/csrf"
)

const sessionExpiredMessage = shared.SessionExpiredMessage

// request bundles the per-request session, client and toasts.
type request struct {
	store    *CookieStore
	sessions *session.Manager
	client   *services.Client
	engine   *tasks.LendingEngine
	guard    *router.Guard
	toasts   *notify.Queue
	decision router.Decision
}

type pageFunc func(w http.ResponseWriter, r *http.Request, req *request)

func (s *Server) routes() {
	s.router.Use(Recover(s.logger), Logging(s.logger), NoCache)

	s.router.Handler(healthHandler{})
	s.router.HandleFunc(http.MethodGet, "/{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	s.router.Handle(http.MethodGet, "/login", s.page(router.Login, s.loginForm))
	s.router.Handle(http.MethodPost, "/login", s.page(router.Login, s.login))
	s.router.Handle(http.MethodPost, "/logout", s.page(router.Dashboard, s.logout))

	s.router.Handle(http.MethodGet, "/dashboard", s.page(router.Dashboard, s.dashboard))
	s.router.Handle(http.MethodPost, "/equipment/{id}/borrow", s.page(router.Dashboard, s.borrow))
	s.router.Handle(http.MethodPost, "/loans/{id}/return", s.page(router.Activity, s.returnLoan))
	s.router.Handle(http.MethodPost, "/loans/return-all", s.page(router.Activity, s.returnAll))

	s.router.Handle(http.MethodGet, "/activity", s.page(router.Activity, s.activity))

	s.router.Handle(http.MethodGet, "/reservations", s.page(router.Reservations, s.reservations))
	s.router.Handle(http.MethodPost, "/reservations", s.page(router.Reservations, s.createReservation))
	s.router.Handle(http.MethodPost, "/reservations/{id}/cancel", s.page(router.Reservations, s.cancelReservation))

	s.router.Handle(http.MethodGet, "/admin", s.page(router.Admin, s.adminOverview))
	s.router.Handle(http.MethodGet, "/export/{file}", s.page(router.Dashboard, s.export))

	s.router.HandleFunc(http.MethodGet, "/", s.notFound)
}

// newRequest builds the session stack for one request from its token cookie.
func (s *Server) newRequest(w http.ResponseWriter, r *http.Request) *request {
	store := NewCookieStore(w, r, s.secure)
	sessions := session.NewManager(session.ManagerOpts{Store: store, Logger: s.logger})
	client := services.NewClient(services.ClientOpts{
		BaseURL:    s.baseURL,
		Sessions:   sessions,
		HTTPClient: s.httpClient,
		Logger:     s.logger,
	})

	req := &request{
		store:    store,
		sessions: sessions,
		client:   client,
		engine:   tasks.NewLendingEngine(client, client, tasks.EngineOpts{Logger: s.logger}),
		guard:    router.NewGuard(sessions, s.logger),
		toasts:   notify.NewQueue(notify.QueueOpts{TTL: s.toastTTL}),
	}
	for _, f := range takeFlash(w, r) {
		req.toasts.Push(f.Kind, f.Message)
	}
	return req
}

// page runs the route guard for route before fn.
//
// Anonymous visitors are sent to /login?next=<path>; non-admins asking for an
// admin page go back to the dashboard.
func (s *Server) page(route string, fn pageFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := s.newRequest(w, r)
		d := req.guard.Resolve(r.Context(), route)
		if s.follow(w, r, d) {
			return
		}
		for _, f := range guardFlash(d) {
			req.toasts.Push(f.Kind, f.Message)
		}

		req.decision = d
		fn(w, r, req)
	})
}

// guardFlash is the toasts explaining a guard decision.
func guardFlash(d router.Decision) []flash {
	var out []flash
	if d.Expired {
		out = append(out, flash{notify.Error, sessionExpiredMessage})
	}
	if d.Forbidden {
		out = append(out, flash{notify.Error, "Access denied: administrator role required"})
	}
	return out
}

// follow performs the redirect d asks for, if any, and reports whether it did.
// Only redirects to login carry the requested page as next.
func (s *Server) follow(w http.ResponseWriter, r *http.Request, d router.Decision) bool {
	if d.Redirect == "" {
		return false
	}
	target := "/" + d.Redirect
	if d.Redirect == router.Login && r.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	s.redirect(w, r, target, guardFlash(d)...)
	return true
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, req *request, status int, name string, data any) {
	path := req.decision.Route.Path
	pd := pageData{
		Title:     router.Title(path),
		Path:      path,
		Chrome:    req.decision.Chrome,
		Session:   req.decision.Session,
		Nav:       router.Nav(req.decision.Session),
		Toasts:    req.toasts.Drain(),
		CSRFField: csrf.TemplateField(r),
		Data:      data,
	}
	if err := s.pages.render(w, status, name, pd); err != nil {
		s.logger.Error("render failed", "page", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// redirect sends the browser to target with toasts for the next page.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, target string, toasts ...flash) {
	setFlash(w, s.secure, s.toastTTL, toasts...)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// fail handles an error from a mutating call: a lost session goes to login,
// anything else is reported on back.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, back string, err error) {
	if shared.IsUnauthenticated(err) {
		s.redirect(w, r, "/login?next="+url.QueryEscape(back), flash{notify.Error, sessionExpiredMessage})
		return
	}
	s.logger.Warn("request failed", "path", r.URL.Path, "error", err)
	s.redirect(w, r, back, flash{notify.Error, errorMessage(err)})
}

// loadFailed handles an error while loading a page. Returns true when a response was written.
func (s *Server) loadFailed(w http.ResponseWriter, r *http.Request, req *request, err error) bool {
	if err == nil {
		return false
	}
	if shared.IsUnauthenticated(err) {
		s.redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), flash{notify.Error, sessionExpiredMessage})
		return true
	}
	s.logger.Warn("page load failed", "path", r.URL.Path, "error", err)
	req.toasts.Error(errorMessage(err))
	return false
}

func errorMessage(err error) string { return services.Message(err) }

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", shared.ErrInvalidArgument, r.PathValue("id"))
	}
	return id, nil
}

// safeNext keeps post-login redirects on this site and on known pages.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/dashboard"
	}
	route, ok := router.Lookup(router.Normalize(next))
	if !ok || route.AuthPage || route.Path == router.Landing {
		return "/dashboard"
	}
	return next
}

type healthHandler struct{}

func (healthHandler) Routes() []string { return []string{"GET /healthz"} }

func (healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// elsewhere maps routes without a web page to where the browser goes instead,
// with a hint pointing at the command that covers them.
var elsewhere = map[string]struct {
	target string
	hint   string
}{
	router.Register:          {"/login", "Create an account with: equipx auth register"},
	router.ForgotPassword:    {"/login", "Reset your password with: equipx auth reset-password"},
	router.Profile:           {"/dashboard", "Your profile is available with: equipx profile show"},
	router.AdminEquipment:    {"/admin", "Manage equipment with: equipx admin equipment"},
	router.AdminUsers:        {"/admin", "Manage users with: equipx admin users"},
	router.AdminLoans:        {"/admin", "Review loans with: equipx admin loans"},
	router.AdminMaintenance:  {"/admin", "Schedule maintenance with: equipx admin maintenance"},
	router.AdminReservations: {"/admin", "Confirm reservations with: equipx admin reservations"},
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	req := s.newRequest(w, r)
	d := req.guard.Resolve(r.Context(), r.URL.Path)
	if s.follow(w, r, d) {
		return
	}
	if !d.NotFound {
		if alt, ok := elsewhere[d.Route.Path]; ok {
			s.redirect(w, r, alt.target, append(guardFlash(d), flash{notify.Info, alt.hint})...)
			return
		}
	}
	for _, f := range guardFlash(d) {
		req.toasts.Push(f.Kind, f.Message)
	}
	d.Route.Path = router.Normalize(r.URL.Path)
	req.decision = d
	s.render(w, r, req, http.StatusNotFound, "notfound", nil)
}

type loginPage struct {
	Next     string
	Username string
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request, req *request) {
	s.render(w, r, req, http.StatusOK, "login", loginPage{Next: r.URL.Query().Get("next")})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, req *request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	creds := models.Credentials{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	if code := strings.TrimSpace(r.PostFormValue("totpCode")); code != "" {
		n, err := strconv.Atoi(code)
		if err != nil {
			req.toasts.Error("2FA code must be numeric")
			s.render(w, r, req, http.StatusBadRequest, "login", loginPage{Next: r.PostFormValue("next"), Username: creds.Username})
			return
		}
		creds.TOTPCode = n
	}

	sess, err := req.client.Login(r.Context(), creds)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, shared.ErrAuthFailed) {
			status = http.StatusUnauthorized
		} else if errors.Is(err, shared.ErrServiceUnavailable) || errors.Is(err, shared.ErrTimeout) {
			status = http.StatusBadGateway
		}
		s.logger.Info("login failed", "user", creds.Username, "error", err)
		req.toasts.Error(errorMessage(err))
		s.render(w, r, req, status, "login", loginPage{Next: r.PostFormValue("next"), Username: creds.Username})
		return
	}

	s.redirect(w, r, safeNext(r.PostFormValue("next")), flash{notify.Success, "Welcome back, " + sess.Username() + "!"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request, req *request) {
	if err := req.client.Logout(r.Context()); err != nil {
		s.logger.Warn("logout failed", "error", err)
	}
	s.redirect(w, r, "/login", flash{notify.Info, "You have been logged out."})
}

type dashboardPage struct {
	*tasks.Dashboard
	Active        []models.Loan
	Category      string
	Query         string
	DefaultReturn string
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request, req *request) {
	q := r.URL.Query()
	page := dashboardPage{
		Dashboard:     &tasks.Dashboard{Categories: []string{tasks.AllCategories}},
		Category:      q.Get("category"),
		Query:         q.Get("q"),
		DefaultReturn: models.LoanRules{}.DefaultReturnDate(time.Now()).Format(models.DateLayout),
	}
	if page.Category == "" {
		page.Category = tasks.AllCategories
	}

	d, err := req.engine.LoadDashboard(r.Context())
	if s.loadFailed(w, r, req, err) {
		return
	}
	if d != nil {
		page.Dashboard = d
		page.Equipment = tasks.FilterEquipment(d.Equipment, tasks.EquipmentFilter{Category: page.Category, Query: page.Query})
		page.Active = tasks.ActiveLoans(d.Loans)
	}
	s.render(w, r, req, http.StatusOK, "dashboard", page)
}

func (s *Server) borrow(w http.ResponseWriter, r *http.Request, req *request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, "/dashboard", err)
		return
	}
	if err := req.client.Borrow(r.Context(), id, strings.TrimSpace(r.PostFormValue("returnDate"))); err != nil {
		s.fail(w, r, "/dashboard", err)
		return
	}
	s.redirect(w, r, "/dashboard", flash{notify.Success, "Equipment borrowed successfully"})
}

func (s *Server) returnLoan(w http.ResponseWriter, r *http.Request, req *request) {
	back := "/activity"
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path == "/dashboard" {
		back = "/dashboard"
	}

	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, back, err)
		return
	}
	if err := req.client.Return(r.Context(), id); err != nil {
		s.fail(w, r, back, err)
		return
	}
	s.redirect(w, r, back, flash{notify.Success, "Equipment returned successfully"})
}

func (s *Server) returnAll(w http.ResponseWriter, r *http.Request, req *request) {
	res, err := req.engine.ReturnAll(r.Context(), nil)
	if err != nil {
		s.fail(w, r, "/activity", err)
		return
	}

	switch {
	case res.Total == 0:
		s.redirect(w, r, "/activity", flash{notify.Info, "No active loans to return"})
	case res.Failed == 0:
		s.redirect(w, r, "/activity", flash{notify.Success, fmt.Sprintf("Returned %d items", res.Succeeded)})
	default:
		s.redirect(w, r, "/activity", flash{notify.Warning, fmt.Sprintf("Returned %d of %d items; %d failed", res.Succeeded, res.Total, res.Failed)})
	}
}

type activityPage struct {
	Tabs      []tasks.LoanTab
	Tab       tasks.LoanTab
	Query     string
	Loans     []models.Loan
	HasActive bool
}

func (s *Server) activity(w http.ResponseWriter, r *http.Request, req *request) {
	q := r.URL.Query()
	tab, err := tasks.ParseLoanTab(q.Get("tab"))
	if err != nil {
		req.toasts.Error(err.Error())
		tab = tasks.TabAll
	}

	page := activityPage{Tabs: tasks.LoanTabs, Tab: tab, Query: q.Get("q")}
	loans, err := req.client.MyLoans(r.Context())
	if s.loadFailed(w, r, req, err) {
		return
	}
	loans = tasks.SortLoans(loans, tasks.SortOption{Key: tasks.SortByDate, Direction: models.Desc})
	page.Loans = tasks.FilterLoans(loans, tab, page.Query)
	page.HasActive = len(tasks.ActiveLoans(loans)) > 0
	s.render(w, r, req, http.StatusOK, "activity", page)
}

type reservationsPage struct {
	Reservations []models.Reservation
}

func (s *Server) reservations(w http.ResponseWriter, r *http.Request, req *request) {
	items, err := req.client.MyReservations(r.Context())
	if s.loadFailed(w, r, req, err) {
		return
	}
	items = tasks.SortReservations(items, tasks.SortOption{Key: tasks.SortByDate})
	s.render(w, r, req, http.StatusOK, "reservations", reservationsPage{Reservations: items})
}

func (s *Server) createReservation(w http.ResponseWriter, r *http.Request, req *request) {
	equipmentID, err := strconv.Atoi(r.PostFormValue("equipmentId"))
	if err != nil {
		s.fail(w, r, "/reservations", fmt.Errorf("%w: equipment id must be a number", shared.ErrInvalidInput))
		return
	}

	in := models.ReservationRequest{
		EquipmentID: equipmentID,
		StartDate:   r.PostFormValue("startDate"),
		EndDate:     r.PostFormValue("endDate"),
		Notes:       strings.TrimSpace(r.PostFormValue("notes")),
	}
	if _, err := req.client.CreateReservation(r.Context(), in); err != nil {
		s.fail(w, r, "/reservations", err)
		return
	}
	s.redirect(w, r, "/reservations", flash{notify.Success, "Reservation created"})
}

func (s *Server) cancelReservation(w http.ResponseWriter, r *http.Request, req *request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, "/reservations", err)
		return
	}
	if err := req.client.CancelReservation(r.Context(), id); err != nil {
		s.fail(w, r, "/reservations", err)
		return
	}
	s.redirect(w, r, "/reservations", flash{notify.Success, "Reservation cancelled"})
}

func (s *Server) adminOverview(w http.ResponseWriter, r *http.Request, req *request) {
	res, err := req.engine.Overview(r.Context(), nil)
	if s.loadFailed(w, r, req, err) {
		return
	}
	if res == nil {
		res = &tasks.OverviewResult{}
	}
	for _, e := range res.Errors {
		s.logger.Warn("overview endpoint failed", "endpoint", e.Endpoint, "error", e.Error)
	}
	s.render(w, r, req, http.StatusOK, "admin", res)
}

// export streams /export/{dataset}.csv. Admins get the full lists with ?all=1
// and may export users and maintenance.
func (s *Server) export(w http.ResponseWriter, r *http.Request, req *request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".csv")
	if !ok {
		s.notFound(w, r)
		return
	}
	ds, err := tasks.ParseDataset(name)
	if err != nil {
		s.notFound(w, r)
		return
	}

	sess := req.decision.Session
	admin := sess != nil && sess.IsAdmin() && (ds.AdminOnly() || r.URL.Query().Get("all") == "1")

	back := "/dashboard"
	if admin {
		back = "/admin"
	}

	res, err := req.engine.FetchDataset(r.Context(), ds, admin)
	if err != nil {
		s.fail(w, r, back, err)
		return
	}

	data, err := formatter.ToCSV(res.Table)
	if errors.Is(err, shared.ErrNoData) {
		s.redirect(w, r, back, flash{notify.Warning, "No data to export"})
		return
	} else if err != nil {
		s.fail(w, r, back, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s.csv"`, ds, time.Now().Format(models.DateLayout)))
	_, _ = w.Write(data)
}
