package sync

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"solum-sync-service/internal/config"
	"solum-sync-service/internal/logger"
	"solum-sync-service/internal/mapping"
	"solum-sync-service/internal/model"
)

// CSVAdapter is the legacy sync path: spaces are exchanged as a delimiter-
// configurable CSV file over SFTP. Unlike the REST adapter, every remote
// operation is retried with exponential backoff and jitter. Conference
// rooms are not part of the legacy format and are ignored on upload.
type CSVAdapter struct {
	cfg   config.CSVConfig
	codec *mapping.CSVCodec

	mu     sync.Mutex
	client *sftp.Client
	closer io.Closer
	state  model.SyncState
}

func NewCSVAdapter(cfg config.CSVConfig, codec *mapping.CSVCodec) *CSVAdapter {
	return &CSVAdapter{
		cfg:   cfg,
		codec: codec,
		state: model.SyncState{Status: model.StatusIdle},
	}
}

func (a *CSVAdapter) Connect(ctx context.Context) error {
	a.setStatus(model.StatusConnecting)

	sshCfg := &ssh.ClientConfig{
		User:            a.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(a.cfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}
	addr := fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port)

	err := withRetry(ctx, a.cfg.MaxRetries, a.cfg.GetRetryBase(), func() error {
		conn, err := ssh.Dial("tcp", addr, sshCfg)
		if err != nil {
			return fmt.Errorf("ssh dial %s: %w", addr, err)
		}
		client, err := sftp.NewClient(conn)
		if err != nil {
			conn.Close()
			return fmt.Errorf("sftp session: %w", err)
		}

		a.mu.Lock()
		a.client = client
		a.closer = conn
		a.mu.Unlock()
		return nil
	})
	if err != nil {
		return a.fail(fmt.Errorf("connect failed: %w", err))
	}

	a.mu.Lock()
	a.state.Status = model.StatusConnected
	a.state.IsConnected = true
	a.state.LastError = ""
	a.mu.Unlock()

	logger.Log.Info("Connected to SFTP host", zap.String("addr", addr))
	return nil
}

func (a *CSVAdapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		a.client.Close()
		a.client = nil
	}
	if a.closer != nil {
		a.closer.Close()
		a.closer = nil
	}
	a.state.Status = model.StatusDisconnected
	a.state.IsConnected = false
	return nil
}

func (a *CSVAdapter) Download(ctx context.Context) (*DownloadResult, error) {
	a.setStatus(model.StatusSyncing)

	var spacesList []*model.Space
	err := withRetry(ctx, a.cfg.MaxRetries, a.cfg.GetRetryBase(), func() error {
		rows, err := a.readRemote()
		if err != nil {
			return err
		}
		spacesList, err = a.codec.ParseRows(rows)
		return err
	})
	if err != nil {
		return nil, a.fail(fmt.Errorf("download failed: %w", err))
	}

	a.succeed(len(spacesList))
	logger.Log.Info("Downloaded spaces from CSV", zap.Int("spaces", len(spacesList)))
	return &DownloadResult{Spaces: spacesList}, nil
}

func (a *CSVAdapter) Upload(ctx context.Context, spacesList []*model.Space, _ []*model.ConferenceRoom) error {
	a.setStatus(model.StatusSyncing)

	err := withRetry(ctx, a.cfg.MaxRetries, a.cfg.GetRetryBase(), func() error {
		return a.writeRemote(a.codec.FormatRows(spacesList))
	})
	if err != nil {
		return a.fail(fmt.Errorf("upload failed: %w", err))
	}

	a.succeed(len(spacesList))
	return nil
}

// SafeUpload merges the local set over the remote file per id and field
// before writing: remote rows are the base, non-empty local fields win, and
// remote-only rows survive.
func (a *CSVAdapter) SafeUpload(ctx context.Context, spacesList []*model.Space, _ []*model.ConferenceRoom) error {
	a.setStatus(model.StatusSyncing)

	err := withRetry(ctx, a.cfg.MaxRetries, a.cfg.GetRetryBase(), func() error {
		rows, err := a.readRemote()
		if err != nil {
			return err
		}
		remote, err := a.codec.ParseRows(rows)
		if err != nil {
			return err
		}

		merged := mergeSpaces(remote, spacesList)
		return a.writeRemote(a.codec.FormatRows(merged))
	})
	if err != nil {
		return a.fail(fmt.Errorf("safe upload failed: %w", err))
	}

	a.succeed(len(spacesList))
	return nil
}

func (a *CSVAdapter) State() model.SyncState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *CSVAdapter) sftpClient() (*sftp.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		return nil, fmt.Errorf("not connected")
	}
	return a.client, nil
}

func (a *CSVAdapter) readRemote() ([][]string, error) {
	client, err := a.sftpClient()
	if err != nil {
		return nil, err
	}

	f, err := client.Open(a.cfg.RemotePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.cfg.RemotePath, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = a.cfg.GetDelimiter()
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", a.cfg.RemotePath, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 && rows[0][0] == a.codec.Columns[0] {
		rows = rows[1:] // header row
	}
	return rows, nil
}

// writeRemote writes to a temp file next to the target and renames it so
// consumers never observe a half-written export.
func (a *CSVAdapter) writeRemote(rows [][]string) error {
	client, err := a.sftpClient()
	if err != nil {
		return err
	}

	tmp := path.Join(path.Dir(a.cfg.RemotePath), "."+path.Base(a.cfg.RemotePath)+".tmp")
	f, err := client.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	w.Comma = a.cfg.GetDelimiter()
	if err := w.Write(a.codec.Header()); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := client.PosixRename(tmp, a.cfg.RemotePath); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func (a *CSVAdapter) setStatus(s model.Status) {
	a.mu.Lock()
	a.state.Status = s
	a.mu.Unlock()
}

func (a *CSVAdapter) succeed(count int) {
	now := time.Now()
	a.mu.Lock()
	a.state.Status = model.StatusSuccess
	a.state.LastSync = &now
	a.state.LastError = ""
	a.state.Progress = count
	a.mu.Unlock()
}

func (a *CSVAdapter) fail(err error) error {
	a.mu.Lock()
	a.state.Status = model.StatusError
	a.state.LastError = err.Error()
	a.mu.Unlock()

	logger.Log.Error("CSV sync operation failed", zap.Error(err))
	return err
}

// mergeSpaces overlays local spaces onto the remote set per id: non-empty
// local fields win, remote-only rows and fields survive.
func mergeSpaces(remote, local []*model.Space) []*model.Space {
	byID := make(map[string]*model.Space, len(remote))
	order := make([]*model.Space, 0, len(remote)+len(local))
	for _, sp := range remote {
		cp := sp.Clone()
		byID[cp.ID] = cp
		order = append(order, cp)
	}

	for _, sp := range local {
		base, ok := byID[sp.ID]
		if !ok {
			cp := sp.Clone()
			byID[cp.ID] = cp
			order = append(order, cp)
			continue
		}
		for k, v := range sp.Data {
			if v != "" {
				base.Data[k] = v
			}
		}
		if sp.LabelCode != "" {
			base.LabelCode = sp.LabelCode
		}
	}

	return order
}
