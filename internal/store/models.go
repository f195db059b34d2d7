package store

import (
	"database/sql"
	"time"
)

type SyncState struct {
	Source       string         `db:"source"`
	LastSyncTime sql.NullTime   `db:"last_sync_time"`
	SpacesSynced int64          `db:"spaces_synced"`
	Direction    string         `db:"direction"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

type SyncHistory struct {
	ID           string         `db:"id"`
	StartedAt    time.Time      `db:"started_at"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
	Direction    string         `db:"direction"`
	SpacesSynced int64          `db:"spaces_synced"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
}

// Sync directions recorded in state and history rows.
const (
	DirectionPull = "pull"
	DirectionPush = "push"
	DirectionFull = "full"
)
