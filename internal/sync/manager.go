package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"solum-sync-service/internal/logger"
	"solum-sync-service/internal/model"
	"solum-sync-service/internal/spaces"
	"solum-sync-service/internal/store"
)

// ErrSyncInFlight is returned when a sync operation is requested while
// another one is still running.
var ErrSyncInFlight = errors.New("sync already in flight")

// Manager orchestrates adapter calls against the registry, keeps the
// persisted sync state and history current, and enforces a single-flight
// guard: overlapping sync operations are rejected, never interleaved.
type Manager struct {
	adapter  Adapter
	registry *spaces.Registry
	store    store.Store // optional
	source   string

	mu      sync.Mutex
	syncing bool
}

func NewManager(adapter Adapter, registry *spaces.Registry, st store.Store, source string) *Manager {
	return &Manager{
		adapter:  adapter,
		registry: registry,
		store:    st,
		source:   source,
	}
}

func (m *Manager) Connect(ctx context.Context) error {
	return m.adapter.Connect(ctx)
}

func (m *Manager) Disconnect(ctx context.Context) error {
	return m.adapter.Disconnect(ctx)
}

func (m *Manager) State() model.SyncState {
	return m.adapter.State()
}

func (m *Manager) Registry() *spaces.Registry {
	return m.registry
}

// Pull downloads the remote entity set and replaces the local one.
func (m *Manager) Pull(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	return m.run(ctx, store.DirectionPull, func(ctx context.Context) (int, error) {
		res, err := m.adapter.Download(ctx)
		if err != nil {
			return 0, err
		}
		m.registry.ReplaceAll(res.Spaces, res.Rooms)
		if m.store != nil {
			if err := m.store.SaveSpaces(ctx, res.Spaces); err != nil {
				logger.Log.Warn("Failed to persist downloaded spaces", zap.Error(err))
			}
		}
		return len(res.Spaces), nil
	})
}

// Push uploads the local set verbatim (full overwrite).
func (m *Manager) Push(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	return m.run(ctx, store.DirectionPush, func(ctx context.Context) (int, error) {
		list := m.registry.ListSpaces()
		if err := m.adapter.Upload(ctx, list, m.registry.ListRooms()); err != nil {
			return 0, err
		}
		m.registry.MarkSynced("synced")
		return len(list), nil
	})
}

// FullSync safe-uploads local changes, then downloads the merged remote set
// so the registry reflects what the server now holds.
func (m *Manager) FullSync(ctx context.Context) error {
	if err := m.begin(); err != nil {
		return err
	}
	defer m.end()

	return m.run(ctx, store.DirectionFull, func(ctx context.Context) (int, error) {
		if err := m.adapter.SafeUpload(ctx, m.registry.ListSpaces(), m.registry.ListRooms()); err != nil {
			return 0, err
		}
		res, err := m.adapter.Download(ctx)
		if err != nil {
			return 0, err
		}
		m.registry.ReplaceAll(res.Spaces, res.Rooms)
		if m.store != nil {
			if err := m.store.SaveSpaces(ctx, res.Spaces); err != nil {
				logger.Log.Warn("Failed to persist synced spaces", zap.Error(err))
			}
		}
		return len(res.Spaces), nil
	})
}

// AutoSync is the scheduler entry point: a full sync that silently skips
// the tick when one is already in flight.
func (m *Manager) AutoSync(ctx context.Context) {
	err := m.FullSync(ctx)
	if errors.Is(err, ErrSyncInFlight) {
		logger.Log.Info("Sync already running, skipping scheduled run")
		return
	}
	if err != nil {
		logger.Log.Error("Scheduled sync failed", zap.Error(err))
	}
}

func (m *Manager) History(ctx context.Context, limit, offset int) ([]*store.SyncHistory, error) {
	if m.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return m.store.GetSyncHistory(ctx, limit, offset)
}

func (m *Manager) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.syncing {
		return ErrSyncInFlight
	}
	m.syncing = true
	return nil
}

func (m *Manager) end() {
	m.mu.Lock()
	m.syncing = false
	m.mu.Unlock()
}

// run wraps one sync operation with history and state bookkeeping.
func (m *Manager) run(ctx context.Context, direction string, op func(ctx context.Context) (int, error)) error {
	hist := &store.SyncHistory{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Direction: direction,
		Status:    "running",
	}
	if m.store != nil {
		if err := m.store.CreateSyncHistory(ctx, hist); err != nil {
			logger.Log.Warn("Failed to record sync history", zap.Error(err))
		}
	}

	count, opErr := op(ctx)

	hist.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	hist.SpacesSynced = int64(count)
	state := &store.SyncState{
		Source:    m.source,
		Direction: direction,
	}
	if opErr != nil {
		hist.Status = "failed"
		hist.ErrorMessage = sql.NullString{String: opErr.Error(), Valid: true}
		state.Status = "error"
		state.ErrorMessage = hist.ErrorMessage
	} else {
		hist.Status = "completed"
		state.Status = "success"
		state.LastSyncTime = sql.NullTime{Time: time.Now(), Valid: true}
		state.SpacesSynced = int64(count)
	}

	if m.store != nil {
		if err := m.store.UpdateSyncHistory(ctx, hist); err != nil {
			logger.Log.Warn("Failed to update sync history", zap.Error(err))
		}
		if err := m.store.UpdateSyncState(ctx, state); err != nil {
			logger.Log.Warn("Failed to update sync state", zap.Error(err))
		}
	}

	if opErr != nil {
		return fmt.Errorf("%s sync failed: %w", direction, opErr)
	}
	return nil
}
