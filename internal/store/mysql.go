package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"solum-sync-service/internal/config"
	"solum-sync-service/internal/logger"
	"solum-sync-service/internal/model"
)

type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(cfg config.StateStorage) (*MySQLStore, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql connection: %w", err)
	}

	// Retry loop for Ping
	maxRetries := 30
	for i := 0; i < maxRetries; i++ {
		err = db.Ping()
		if err == nil {
			break
		}
		logger.Log.Info("Waiting for state DB...", zap.Error(err), zap.Int("attempt", i+1))
		time.Sleep(1 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to ping mysql after retries: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func (s *MySQLStore) GetSyncState(ctx context.Context, source string) (*SyncState, error) {
	query := `SELECT source, last_sync_time, spaces_synced, direction, status, error_message, updated_at
			  FROM sync_state WHERE source = ?`

	row := s.db.QueryRowContext(ctx, query, source)

	var state SyncState
	err := row.Scan(
		&state.Source,
		&state.LastSyncTime,
		&state.SpacesSynced,
		&state.Direction,
		&state.Status,
		&state.ErrorMessage,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &state, nil
}

func (s *MySQLStore) UpdateSyncState(ctx context.Context, state *SyncState) error {
	query := `INSERT INTO sync_state (source, last_sync_time, spaces_synced, direction, status, error_message, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, NOW())
			  ON DUPLICATE KEY UPDATE
			  last_sync_time = VALUES(last_sync_time),
			  spaces_synced = VALUES(spaces_synced),
			  direction = VALUES(direction),
			  status = VALUES(status),
			  error_message = VALUES(error_message),
			  updated_at = NOW()`

	_, err := s.db.ExecContext(ctx, query,
		state.Source,
		state.LastSyncTime,
		state.SpacesSynced,
		state.Direction,
		state.Status,
		state.ErrorMessage,
	)

	return err
}

func (s *MySQLStore) CreateSyncHistory(ctx context.Context, history *SyncHistory) error {
	query := `INSERT INTO sync_history (id, started_at, completed_at, direction, spaces_synced, status, error_message)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		history.ID,
		history.StartedAt,
		history.CompletedAt,
		history.Direction,
		history.SpacesSynced,
		history.Status,
		history.ErrorMessage,
	)

	return err
}

func (s *MySQLStore) UpdateSyncHistory(ctx context.Context, history *SyncHistory) error {
	query := `UPDATE sync_history SET completed_at = ?, spaces_synced = ?, status = ?, error_message = ? WHERE id = ?`

	_, err := s.db.ExecContext(ctx, query,
		history.CompletedAt,
		history.SpacesSynced,
		history.Status,
		history.ErrorMessage,
		history.ID,
	)

	return err
}

func (s *MySQLStore) GetSyncHistory(ctx context.Context, limit, offset int) ([]*SyncHistory, error) {
	query := `SELECT id, started_at, completed_at, direction, spaces_synced, status, error_message
			  FROM sync_history ORDER BY started_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*SyncHistory
	for rows.Next() {
		var h SyncHistory
		err := rows.Scan(
			&h.ID,
			&h.StartedAt,
			&h.CompletedAt,
			&h.Direction,
			&h.SpacesSynced,
			&h.Status,
			&h.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}
		history = append(history, &h)
	}

	return history, rows.Err()
}

func (s *MySQLStore) SaveSpaces(ctx context.Context, spaces []*model.Space) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM spaces`); err != nil {
		tx.Rollback()
		return err
	}

	query := `INSERT INTO spaces (id, data, label_code, template_name, sync_status, updated_at)
			  VALUES (?, ?, ?, ?, ?, NOW())`

	for _, sp := range spaces {
		data, err := json.Marshal(sp.Data)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to marshal space %q: %w", sp.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, sp.ID, data, sp.LabelCode, sp.TemplateName, sp.SyncStatus); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (s *MySQLStore) LoadSpaces(ctx context.Context) ([]*model.Space, error) {
	query := `SELECT id, data, label_code, template_name, sync_status FROM spaces ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []*model.Space
	for rows.Next() {
		var (
			sp   model.Space
			data []byte
		)
		if err := rows.Scan(&sp.ID, &data, &sp.LabelCode, &sp.TemplateName, &sp.SyncStatus); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &sp.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal space %q: %w", sp.ID, err)
		}
		spaces = append(spaces, &sp)
	}

	return spaces, rows.Err()
}
