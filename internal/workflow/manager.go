package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mediabox/internal/config"
	"mediabox/internal/logging"
	"mediabox/internal/queue"
	"mediabox/internal/stage"
)

// EventFunc receives lifecycle notifications for pushing to clients.
type EventFunc func(event string, item *queue.Item)

// Manager coordinates queue processing using registered task handlers.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	handlers map[queue.TaskType]stage.Handler
	notify   EventFunc

	mu           sync.Mutex
	running      bool
	halted       bool
	haltReason   string
	cancel       context.CancelFunc
	activeItem   *queue.Item
	activeCancel context.CancelFunc
	wg           sync.WaitGroup
	lastErr      error
}

// NewManager constructs a workflow manager. notify may be nil.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, notify EventFunc) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notify == nil {
		notify = func(string, *queue.Item) {}
	}
	return &Manager{
		cfg:      cfg,
		store:    store,
		logger:   logging.WithComponent(logger, "workflow"),
		handlers: make(map[queue.TaskType]stage.Handler),
		notify:   notify,
	}
}

// Register binds a handler to a task type. Must be called before Start.
func (m *Manager) Register(task queue.TaskType, handler stage.Handler) {
	m.handlers[task] = handler
}

// Start launches the processing loop. Items left running by a previous
// daemon are reset to pending first.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow manager already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	if reset, err := m.store.ResetStuckRunning(ctx); err != nil {
		m.logger.Warn("reset stuck items failed", logging.Error(err))
	} else if reset > 0 {
		m.logger.Info("reset orphaned running items", logging.Int64("count", reset))
	}

	m.wg.Add(1)
	go m.runLoop(runCtx)
	return nil
}

// Stop halts the loop and waits for the active item to wind down.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}

// Pause halts auto-advance without touching the active item.
func (m *Manager) Pause(reason string) {
	m.mu.Lock()
	m.halted = true
	m.haltReason = reason
	m.mu.Unlock()
	m.logger.Info("queue paused", logging.String("reason", reason))
}

// Resume re-enables auto-advance after a pause or failure halt.
func (m *Manager) Resume() {
	m.mu.Lock()
	m.halted = false
	m.haltReason = ""
	m.mu.Unlock()
	m.logger.Info("queue resumed")
}

// CancelActive stops the in-flight item, returning it to pending. It
// reports false when nothing was running.
func (m *Manager) CancelActive() bool {
	m.mu.Lock()
	cancel := m.activeCancel
	item := m.activeItem
	m.mu.Unlock()
	if cancel == nil || item == nil {
		return false
	}
	m.logger.Info("cancelling active item", logging.Int64(logging.FieldItemID, item.ID))
	cancel()
	return true
}

// Status is a snapshot of the manager state.
type Status struct {
	Running    bool
	Halted     bool
	HaltReason string
	ActiveItem *queue.Item
	LastError  string
}

// Status reports the current manager state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := Status{
		Running:    m.running,
		Halted:     m.halted,
		HaltReason: m.haltReason,
		ActiveItem: m.activeItem,
	}
	if m.lastErr != nil {
		status.LastError = m.lastErr.Error()
	}
	return status
}

// Health checks every registered handler.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(m.handlers))
	for _, handler := range m.handlers {
		out = append(out, handler.HealthCheck(ctx))
	}
	return out
}

func (m *Manager) runLoop(ctx context.Context) {
	defer m.wg.Done()

	poll := m.cfg.PollInterval()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		m.reclaimStale(ctx)

		if !m.isHalted() {
			if err := m.processNext(ctx); err != nil && ctx.Err() == nil {
				m.setLastErr(err)
				m.logger.Error("queue iteration failed", logging.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(m.cfg.ErrorRetryInterval()):
				}
				continue
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// processNext runs at most one pending item to completion.
func (m *Manager) processNext(ctx context.Context) error {
	item, err := m.store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil || item == nil {
		return err
	}

	handler, ok := m.handlers[item.TaskType]
	if !ok {
		_, markErr := m.store.MarkFailed(ctx, item.ID, fmt.Sprintf("no handler for task type %q", item.TaskType))
		return markErr
	}

	item, err = m.store.MarkRunning(ctx, item.ID, string(item.TaskType))
	if err != nil {
		return err
	}
	m.notify("item_started", item)
	m.logger.Info("task started",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldTaskType, string(item.TaskType)))

	itemCtx, cancelItem := context.WithCancel(ctx)
	m.mu.Lock()
	m.activeItem = item
	m.activeCancel = cancelItem
	m.mu.Unlock()

	stopHeartbeat := m.startHeartbeat(ctx, item.ID)
	runErr := m.runItem(itemCtx, handler, item)
	stopHeartbeat()

	m.mu.Lock()
	m.activeItem = nil
	m.activeCancel = nil
	m.mu.Unlock()
	cancelItem()

	switch {
	case runErr == nil:
		completed, err := m.store.MarkCompleted(ctx, item.ID, item.OutputPath)
		if err != nil {
			return err
		}
		m.notify("item_completed", completed)
		m.logger.Info("task completed",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String("output", completed.OutputPath))
		return nil

	case errors.Is(runErr, context.Canceled) && ctx.Err() == nil:
		// Cancelled by the operator, not by shutdown. Halt auto-advance so
		// the reverted item is not immediately re-claimed; Resume restarts it.
		reverted, err := m.store.RevertToPending(ctx, item.ID)
		if err != nil {
			return err
		}
		m.Pause(fmt.Sprintf("item %d cancelled", item.ID))
		m.notify("item_cancelled", reverted)
		m.logger.Info("task cancelled", logging.Int64(logging.FieldItemID, item.ID))
		return nil

	case ctx.Err() != nil:
		// Daemon shutdown; leave the item for the startup reset.
		return nil

	default:
		failed, err := m.store.MarkFailed(ctx, item.ID, runErr.Error())
		if err != nil {
			return err
		}
		m.Pause(fmt.Sprintf("item %d failed", item.ID))
		m.notify("item_failed", failed)
		m.logger.Error("task failed",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.Error(runErr))
		return nil
	}
}

func (m *Manager) runItem(ctx context.Context, handler stage.Handler, item *queue.Item) error {
	if err := handler.Prepare(ctx, item); err != nil {
		return err
	}
	if err := m.store.Update(ctx, item); err != nil {
		return err
	}
	return handler.Execute(ctx, item)
}

// startHeartbeat refreshes the item heartbeat until the returned stop
// function is called.
func (m *Manager) startHeartbeat(ctx context.Context, itemID int64) func() {
	done := make(chan struct{})
	var once sync.Once
	interval := m.cfg.HeartbeatInterval()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.store.UpdateHeartbeat(ctx, itemID); err != nil && ctx.Err() == nil {
					m.logger.Warn("heartbeat update failed",
						logging.Int64(logging.FieldItemID, itemID),
						logging.Error(err))
				}
			}
		}
	}()
	return func() { once.Do(func() { close(done) }) }
}

func (m *Manager) reclaimStale(ctx context.Context) {
	cutoff := time.Now().Add(-m.cfg.HeartbeatTimeout())
	reclaimed, err := m.store.ReclaimStale(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Warn("reclaim stale items failed", logging.Error(err))
		}
		return
	}
	if reclaimed > 0 {
		m.logger.Warn("reclaimed stale items", logging.Int64("count", reclaimed))
	}
}

func (m *Manager) isHalted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}

func (m *Manager) setLastErr(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
