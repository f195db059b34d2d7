package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"solum-sync-service/internal/config"
	"solum-sync-service/internal/logger"
	"solum-sync-service/internal/mapping"
	"solum-sync-service/internal/model"
	"solum-sync-service/internal/solum"
)

// SolumAPI is the vendor client surface the adapter drives. *solum.Client
// implements it; tests substitute a fake.
type SolumAPI interface {
	Login(ctx context.Context, creds solum.Credentials) (*model.Tokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (*model.Tokens, error)
	FetchArticles(ctx context.Context, accessToken string, page, size int) ([]model.Article, error)
	PutArticles(ctx context.Context, accessToken string, articles []model.Article) error
	GetLabels(ctx context.Context, accessToken string) ([]model.Label, error)
	AssignLabel(ctx context.Context, accessToken, labelCode, articleID string) error
	UpdateLabelPage(ctx context.Context, accessToken, labelCode string, page int) error
}

// TokenPersister stores the token pair across restarts. *store.TokenStore
// implements it; nil disables persistence.
type TokenPersister interface {
	Save(ctx context.Context, tokens model.Tokens) error
	Load(ctx context.Context) (*model.Tokens, error)
	Clear(ctx context.Context) error
}

// SolumAdapter syncs the local entity set against the AIMS REST API.
type SolumAdapter struct {
	api     SolumAPI
	mapper  *mapping.Mapper
	cfg     config.SolumConfig
	tokens  TokenPersister
	current *model.Tokens

	mu    sync.Mutex
	state model.SyncState
}

func NewSolumAdapter(api SolumAPI, mapper *mapping.Mapper, cfg config.SolumConfig, tokens TokenPersister) *SolumAdapter {
	return &SolumAdapter{
		api:    api,
		mapper: mapper,
		cfg:    cfg,
		tokens: tokens,
		state:  model.SyncState{Status: model.StatusIdle},
	}
}

// RestoreTokens loads a persisted token pair, if any. Called once at startup
// so a restart doesn't force a re-login.
func (a *SolumAdapter) RestoreTokens(ctx context.Context) error {
	if a.tokens == nil {
		return nil
	}
	tokens, err := a.tokens.Load(ctx)
	if err != nil {
		return err
	}
	if tokens != nil {
		a.mu.Lock()
		a.current = tokens
		a.state.Status = model.StatusConnected
		a.state.IsConnected = true
		a.mu.Unlock()
		logger.Log.Info("Restored AIMS tokens from store")
	}
	return nil
}

func (a *SolumAdapter) Connect(ctx context.Context) error {
	a.setStatus(model.StatusConnecting)

	tokens, err := a.api.Login(ctx, solum.Credentials{
		Username: a.cfg.Username,
		Password: a.cfg.Password,
	})
	if err != nil {
		return a.fail(fmt.Errorf("connect failed: %w", err))
	}

	a.storeTokens(ctx, tokens)

	a.mu.Lock()
	a.state.Status = model.StatusConnected
	a.state.IsConnected = true
	a.state.LastError = ""
	a.mu.Unlock()
	return nil
}

func (a *SolumAdapter) Disconnect(ctx context.Context) error {
	a.mu.Lock()
	a.current = nil
	a.state.Status = model.StatusDisconnected
	a.state.IsConnected = false
	a.mu.Unlock()

	if a.tokens != nil {
		if err := a.tokens.Clear(ctx); err != nil {
			logger.Log.Warn("Failed to clear stored tokens", zap.Error(err))
		}
	}
	return nil
}

func (a *SolumAdapter) Download(ctx context.Context) (*DownloadResult, error) {
	a.setStatus(model.StatusSyncing)

	articles, err := a.fetchAllArticles(ctx)
	if err != nil {
		return nil, a.fail(fmt.Errorf("download failed: %w", err))
	}

	token, err := a.getValidToken(ctx)
	if err != nil {
		return nil, a.fail(err)
	}
	labels, err := a.api.GetLabels(ctx, token)
	if err != nil {
		return nil, a.fail(fmt.Errorf("download failed: %w", err))
	}

	res := &DownloadResult{
		Spaces: a.mapper.ArticlesToSpaces(articles),
		Rooms:  a.mapper.ConferenceRooms(articles),
	}
	mapping.ApplyLabels(res.Spaces, labels)

	a.succeed(len(res.Spaces))
	logger.Log.Info("Downloaded entities from AIMS",
		zap.Int("spaces", len(res.Spaces)),
		zap.Int("rooms", len(res.Rooms)),
	)
	return res, nil
}

func (a *SolumAdapter) Upload(ctx context.Context, spacesList []*model.Space, rooms []*model.ConferenceRoom) error {
	a.setStatus(model.StatusSyncing)

	articles := a.mapper.SpacesToArticles(a.uploadSet(spacesList, rooms))

	token, err := a.getValidToken(ctx)
	if err != nil {
		return a.fail(err)
	}
	if err := a.api.PutArticles(ctx, token, articles); err != nil {
		return a.fail(fmt.Errorf("upload failed: %w", err))
	}

	a.succeed(len(articles))
	return nil
}

// SafeUpload is the fetch-merge-push strategy: all remote articles are
// fetched first, each local article is overlaid onto its remote match
// (remote as base, local fields win), locals without a match pass through
// as-is, and the merged set is pushed. Label assignment is then re-applied
// for every space carrying a label code.
func (a *SolumAdapter) SafeUpload(ctx context.Context, spacesList []*model.Space, rooms []*model.ConferenceRoom) error {
	a.setStatus(model.StatusSyncing)

	remote, err := a.fetchAllArticles(ctx)
	if err != nil {
		return a.fail(fmt.Errorf("safe upload failed: %w", err))
	}
	remoteByID := make(map[string]model.Article, len(remote))
	for _, art := range remote {
		remoteByID[art.ArticleID] = art
	}

	all := a.uploadSet(spacesList, rooms)
	merged := make([]model.Article, 0, len(all))
	for _, local := range a.mapper.SpacesToArticles(all) {
		if base, ok := remoteByID[local.ArticleID]; ok {
			merged = append(merged, mapping.MergeArticle(base, local))
		} else {
			merged = append(merged, local)
		}
	}

	token, err := a.getValidToken(ctx)
	if err != nil {
		return a.fail(err)
	}
	if err := a.api.PutArticles(ctx, token, merged); err != nil {
		return a.fail(fmt.Errorf("safe upload failed: %w", err))
	}

	for _, sp := range all {
		if sp.LabelCode == "" {
			continue
		}
		art := a.mapper.BuildAimsArticle(sp)
		if err := a.api.AssignLabel(ctx, token, sp.LabelCode, art.ArticleID); err != nil {
			return a.fail(fmt.Errorf("label assignment failed for %s: %w", sp.LabelCode, err))
		}
	}

	a.succeed(len(merged))
	return nil
}

func (a *SolumAdapter) State() model.SyncState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// fetchAllArticles paginates until a page comes back short.
func (a *SolumAdapter) fetchAllArticles(ctx context.Context) ([]model.Article, error) {
	size := a.cfg.PageSize
	if size <= 0 {
		size = 100
	}

	var all []model.Article
	for page := 0; ; page++ {
		token, err := a.getValidToken(ctx)
		if err != nil {
			return nil, err
		}
		batch, err := a.api.FetchArticles(ctx, token, page, size)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < size {
			break
		}
	}
	return all, nil
}

// getValidToken returns a usable access token, logging in when no token is
// held and proactively refreshing when the token is close to expiry. A
// failed refresh falls back to a fresh login.
func (a *SolumAdapter) getValidToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	current := a.current
	a.mu.Unlock()

	creds := solum.Credentials{Username: a.cfg.Username, Password: a.cfg.Password}

	if current == nil {
		tokens, err := a.api.Login(ctx, creds)
		if err != nil {
			return "", fmt.Errorf("login failed: %w", err)
		}
		a.storeTokens(ctx, tokens)
		return tokens.AccessToken, nil
	}

	if !current.ExpiresWithin(a.cfg.GetTokenRefreshWindow()) {
		return current.AccessToken, nil
	}

	tokens, err := a.api.RefreshToken(ctx, current.RefreshToken)
	if err != nil {
		logger.Log.Warn("Token refresh failed, falling back to login", zap.Error(err))
		tokens, err = a.api.Login(ctx, creds)
		if err != nil {
			return "", fmt.Errorf("re-login after failed refresh: %w", err)
		}
	}
	a.storeTokens(ctx, tokens)
	return tokens.AccessToken, nil
}

func (a *SolumAdapter) storeTokens(ctx context.Context, tokens *model.Tokens) {
	a.mu.Lock()
	a.current = tokens
	a.mu.Unlock()

	if a.tokens != nil {
		if err := a.tokens.Save(ctx, *tokens); err != nil {
			logger.Log.Warn("Failed to persist tokens", zap.Error(err))
		}
	}
}

// uploadSet folds conference rooms into the outgoing space set.
func (a *SolumAdapter) uploadSet(spacesList []*model.Space, rooms []*model.ConferenceRoom) []*model.Space {
	all := make([]*model.Space, 0, len(spacesList)+len(rooms))
	all = append(all, spacesList...)
	for _, room := range rooms {
		all = append(all, a.mapper.ConferenceRoomToSpace(room))
	}
	return all
}

func (a *SolumAdapter) setStatus(s model.Status) {
	a.mu.Lock()
	a.state.Status = s
	a.mu.Unlock()
}

func (a *SolumAdapter) succeed(count int) {
	now := time.Now()
	a.mu.Lock()
	a.state.Status = model.StatusSuccess
	a.state.LastSync = &now
	a.state.LastError = ""
	a.state.Progress = count
	a.mu.Unlock()
}

// fail records the error on the adapter state and returns it. Auth failures
// flip the state to disconnected instead of error so callers can prompt for
// reauthentication rather than surface a generic sync failure.
func (a *SolumAdapter) fail(err error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if solum.IsAuthError(err) {
		a.state.Status = model.StatusDisconnected
		a.state.IsConnected = false
		a.current = nil
	} else {
		a.state.Status = model.StatusError
	}
	a.state.LastError = err.Error()

	logger.Log.Error("AIMS sync operation failed", zap.Error(err))
	return err
}
