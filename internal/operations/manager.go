package operations

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"expenditure/internal/infrastructure"
	"expenditure/pkg/contracts/domain"
)

// ManagerOptions configures a Manager
type ManagerOptions struct {
	Logger      *slog.Logger
	RunTimeout  time.Duration
	HistorySize int
}

// Manager executes batch runs in the background and tracks their status
type Manager struct {
	run      RunFunc
	store    *MemoryRunStore
	logger   *slog.Logger
	timeout  time.Duration
	validate *validator.Validate

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	active string
	closed bool
}

// NewManager creates a run manager around run
func NewManager(run RunFunc, opts ManagerOptions) *Manager {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 30 * time.Minute
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = 20
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		run:      run,
		store:    NewMemoryRunStore(opts.HistorySize),
		logger:   infrastructure.WithComponent(opts.Logger, "run_manager"),
		timeout:  opts.RunTimeout,
		validate: validator.New(),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Start validates req, records a pending run and executes it in the
// background. It returns ErrRunInProgress while another run is active.
func (m *Manager) Start(ctx context.Context, req domain.RunRequest) (*domain.Run, error) {
	if err := m.validate.Struct(req); err != nil {
		return nil, NewValidationError("invalid run request", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if m.active != "" {
		active := m.active
		m.mu.Unlock()
		m.logger.WarnContext(ctx, "Run rejected, another run is active", slog.String("active_run", active))
		return nil, ErrRunInProgress
	}

	run := &domain.Run{
		ID:        uuid.NewString(),
		Status:    domain.RunStatusPending,
		Request:   req,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Create(run); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.active = run.ID
	m.wg.Add(1)
	m.mu.Unlock()

	// The run outlives the request; keep only its trace ID.
	runCtx := infrastructure.WithTraceID(m.baseCtx, run.ID)
	if traceID := infrastructure.GetTraceID(ctx); traceID != "" {
		runCtx = infrastructure.WithTraceID(m.baseCtx, traceID)
	}

	snapshot := cloneRun(run)
	m.logger.InfoContext(ctx, "Run accepted", slog.String("run_id", run.ID))
	go m.execute(runCtx, run)

	return snapshot, nil
}

func (m *Manager) execute(ctx context.Context, run *domain.Run) {
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	started := time.Now().UTC()
	run.Status = domain.RunStatusRunning
	run.StartedAt = &started
	m.save(run)

	result, err := m.run(ctx, run.Request)
	if err == nil {
		// A batch that ran past its deadline is reported as timed out
		err = ctx.Err()
	}

	completed := time.Now().UTC()
	run.CompletedAt = &completed

	if err != nil {
		opErr := classifyRunError(run.ID, err)
		run.Status = domain.RunStatusFailed
		run.Error = opErr.Error()
		m.logger.ErrorContext(ctx, "Run failed",
			slog.String("run_id", run.ID),
			slog.String("error_type", string(opErr.Type)),
			slog.String("error", opErr.Error()))
	} else {
		run.Status = domain.RunStatusCompleted
		m.logger.InfoContext(ctx, "Run completed",
			slog.String("run_id", run.ID),
			slog.Int("tables", len(result.Tables)),
			slog.Int("skipped", len(result.Report.Skipped)),
			slog.Duration("duration", completed.Sub(started)))
	}
	if result != nil {
		run.Report = result.Report
		for _, table := range result.Ordered() {
			run.Tables = append(run.Tables, domain.TableResult{
				Category: table.Category,
				Source:   table.Source,
				Summary:  table.Summary,
			})
		}
	}

	// A run reported as finished must not hold the active slot
	m.mu.Lock()
	m.active = ""
	m.save(run)
	m.mu.Unlock()
}

func (m *Manager) save(run *domain.Run) {
	if err := m.store.Update(run); err != nil {
		m.logger.Error("Failed to update run", slog.String("run_id", run.ID), slog.String("error", err.Error()))
	}
}

// Get returns a run by ID
func (m *Manager) Get(id string) (*domain.Run, error) {
	return m.store.Get(id)
}

// List returns the retained runs, newest first
func (m *Manager) List() []*domain.Run {
	return m.store.List()
}

// Active returns the ID of the run in progress, if any
func (m *Manager) Active() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, m.active != ""
}

// Wait blocks until no run is executing
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown cancels the active run and waits for it, or for ctx to expire
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
