package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/services"
	"github.com/desertthunder/equipx/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// LoanReturnResult is the outcome of returning a single loan.
type LoanReturnResult struct {
	Loan  models.Loan
	Error error
}

// ReturnAllResult summarizes a [LendingEngine.ReturnAll] run.
type ReturnAllResult struct {
	Results   []LoanReturnResult
	Total     int
	Succeeded int
	Failed    int
}

// Dashboard is the data behind the dashboard page.
type Dashboard struct {
	Equipment    []models.Equipment
	Loans        []models.Loan
	Reservations []models.Reservation
	Categories   []string
	DueSoon      []models.Loan
	Stats        Stats
}

// DueSoonWindow is how close to its expected return date a loan must be to be flagged.
const DueSoonWindow = 48 * time.Hour

// EndpointResult records a failed fetch during [LendingEngine.Overview].
type EndpointResult struct {
	Endpoint string
	Error    error
}

// OverviewResult is the admin dump of every list the backend exposes.
type OverviewResult struct {
	Equipment            []models.Equipment         `json:"equipment,omitempty"`
	Users                []models.User              `json:"users,omitempty"`
	CurrentLoans         []models.Loan              `json:"currentLoans,omitempty"`
	OverdueLoans         []models.Loan              `json:"overdueLoans,omitempty"`
	ScheduledMaintenance []models.MaintenanceRecord `json:"scheduledMaintenance,omitempty"`
	OverdueMaintenance   []models.MaintenanceRecord `json:"overdueMaintenance,omitempty"`
	Reservations         []models.Reservation       `json:"reservations,omitempty"`
	Errors               []EndpointResult           `json:"-"`
}

type endpointOperation struct {
	name    string
	fetch   func(ctx context.Context) error
	phase   Phase
	message string
}

// EngineOpts configures a [LendingEngine].
type EngineOpts struct {
	Workers   int         // Concurrent workers for bulk operations (default: 4)
	RateLimit float64     // Requests per second for bulk operations (default: 5)
	Logger    *log.Logger // Optional
	Now       func() time.Time
}

// LendingEngine orchestrates operations that span several backend calls.
type LendingEngine struct {
	member  services.Service
	admin   services.AdminService
	workers int
	limit   float64
	logger  *log.Logger
	now     func() time.Time
}

// NewLendingEngine creates a LendingEngine. admin may be nil for member-only use.
func NewLendingEngine(member services.Service, admin services.AdminService, opts EngineOpts) *LendingEngine {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &LendingEngine{
		member:  member,
		admin:   admin,
		workers: opts.Workers,
		limit:   opts.RateLimit,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *LendingEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *LendingEngine) debug(msg string, kv ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, kv...)
	}
}

// LoadDashboard fetches the available equipment and the user's loans in
// parallel. Reservations are loaded alongside but their failure is not fatal.
func (e *LendingEngine) LoadDashboard(ctx context.Context) (*Dashboard, error) {
	if e.member == nil {
		return nil, fmt.Errorf("%w: client not initialized", shared.ErrServiceUnavailable)
	}

	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := e.member.AvailableEquipment(gctx)
		if err != nil {
			return fmt.Errorf("failed to load equipment: %w", err)
		}
		d.Equipment = items
		return nil
	})
	g.Go(func() error {
		loans, err := e.member.MyLoans(gctx)
		if err != nil {
			return fmt.Errorf("failed to load loans: %w", err)
		}
		d.Loans = loans
		return nil
	})
	g.Go(func() error {
		items, err := e.member.MyReservations(gctx)
		if err != nil {
			if shared.IsUnauthenticated(err) {
				return err
			}
			e.debug("reservations unavailable", "error", err)
			return nil
		}
		d.Reservations = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Categories = Categories(d.Equipment)
	d.Stats = ComputeStats(d.Equipment, d.Loans)
	d.DueSoon = DueSoon(d.Loans, e.now(), DueSoonWindow)
	return d, nil
}

// ReturnAll returns every active or overdue loan of the current user.
//
// Returns run on a bounded worker pool behind a rate limiter. A failed return
// is recorded in the result and does not stop the others; an expired session
// aborts the run.
func (e *LendingEngine) ReturnAll(ctx context.Context, progress chan<- ProgressUpdate) (*ReturnAllResult, error) {
	if e.member == nil {
		return nil, fmt.Errorf("%w: client not initialized", shared.ErrServiceUnavailable)
	}

	loans, err := e.member.MyLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans: %w", err)
	}

	pending := ActiveLoans(loans)
	result := &ReturnAllResult{
		Total:   len(pending),
		Results: make([]LoanReturnResult, 0, len(pending)),
	}
	if len(pending) == 0 {
		return result, nil
	}

	e.sendProgress(progress, returnStartUpdate(len(pending)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(e.limit), 1)
	jobs := make(chan models.Loan, len(pending))
	results := make(chan LoanReturnResult, len(pending))

	var wg sync.WaitGroup
	for i := 0; i < min(e.workers, len(pending)); i++ {
		wg.Add(1)
		go e.returnWorker(ctx, &wg, jobs, results)
	}

	go func() {
		defer close(jobs)
		for _, loan := range pending {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			select {
			case jobs <- loan:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var sessionErr error
	for res := range results {
		result.Results = append(result.Results, res)
		step := len(result.Results)
		if res.Error != nil {
			result.Failed++
			e.sendProgress(progress, returnFailedUpdate(step, result.Total, res.Loan, res.Error))
			if shared.IsUnauthenticated(res.Error) && sessionErr == nil {
				sessionErr = res.Error
				cancel()
			}
			continue
		}
		result.Succeeded++
		e.sendProgress(progress, returnedUpdate(step, result.Total, res.Loan))
	}

	if sessionErr != nil {
		return result, sessionErr
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (e *LendingEngine) returnWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan models.Loan, results chan<- LoanReturnResult) {
	defer wg.Done()

	for loan := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := e.member.Return(ctx, loan.EquipmentID)
		if err != nil {
			e.debug("return failed", "equipment", loan.EquipmentID, "error", err)
		}
		results <- LoanReturnResult{Loan: loan, Error: err}
	}
}

// Overview fetches every admin list concurrently. Failing endpoints are
// collected in [OverviewResult.Errors]; only a lost session is fatal.
func (e *LendingEngine) Overview(ctx context.Context, progress chan<- ProgressUpdate) (*OverviewResult, error) {
	if e.admin == nil {
		return nil, fmt.Errorf("%w: admin client not initialized", shared.ErrServiceUnavailable)
	}

	result := &OverviewResult{}
	endpoints := []endpointOperation{
		{name: "equipment", phase: FetchEquipment, message: "Fetching equipment...", fetch: func(ctx context.Context) (err error) {
			result.Equipment, err = e.admin.AllEquipment(ctx)
			return
		}},
		{name: "users", phase: FetchUsers, message: "Fetching users...", fetch: func(ctx context.Context) (err error) {
			result.Users, err = e.admin.Users(ctx)
			return
		}},
		{name: "current_loans", phase: FetchLoans, message: "Fetching current loans...", fetch: func(ctx context.Context) (err error) {
			result.CurrentLoans, err = e.admin.CurrentLoans(ctx)
			return
		}},
		{name: "overdue_loans", phase: FetchLoans, message: "Fetching overdue loans...", fetch: func(ctx context.Context) (err error) {
			result.OverdueLoans, err = e.admin.OverdueLoans(ctx)
			return
		}},
		{name: "scheduled_maintenance", phase: FetchMaintenance, message: "Fetching scheduled maintenance...", fetch: func(ctx context.Context) (err error) {
			result.ScheduledMaintenance, err = e.admin.ScheduledMaintenance(ctx)
			return
		}},
		{name: "overdue_maintenance", phase: FetchMaintenance, message: "Fetching overdue maintenance...", fetch: func(ctx context.Context) (err error) {
			result.OverdueMaintenance, err = e.admin.OverdueMaintenance(ctx)
			return
		}},
		{name: "reservations", phase: FetchReservations, message: "Fetching reservations...", fetch: func(ctx context.Context) (err error) {
			result.Reservations, err = e.admin.AllReservations(ctx)
			return
		}},
	}

	total := len(endpoints)
	errs := make([]error, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, op := range endpoints {
		e.sendProgress(progress, operationUpdate(op, i+1, total))
		g.Go(func() error {
			err := op.fetch(gctx)
			if err != nil && shared.IsUnauthenticated(err) {
				return err
			}
			errs[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, err := range errs {
		if err != nil {
			result.Errors = append(result.Errors, EndpointResult{Endpoint: endpoints[i].name, Error: err})
		}
	}
	return result, nil
}
