package store

import (
	"context"

	"solum-sync-service/internal/model"
)

type Store interface {
	// Sync state (one row per adapter source: "solum" or "csv")
	GetSyncState(ctx context.Context, source string) (*SyncState, error)
	UpdateSyncState(ctx context.Context, state *SyncState) error

	// History
	CreateSyncHistory(ctx context.Context, history *SyncHistory) error
	UpdateSyncHistory(ctx context.Context, history *SyncHistory) error
	GetSyncHistory(ctx context.Context, limit, offset int) ([]*SyncHistory, error)

	// Space snapshots
	SaveSpaces(ctx context.Context, spaces []*model.Space) error
	LoadSpaces(ctx context.Context) ([]*model.Space, error)

	// General
	Close() error
}
