package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solum-sync-service/internal/model"
	"solum-sync-service/internal/spaces"
	"solum-sync-service/internal/sync"
)

type nopAdapter struct {
	state model.SyncState
}

func (n *nopAdapter) Connect(ctx context.Context) error    { return nil }
func (n *nopAdapter) Disconnect(ctx context.Context) error { return nil }
func (n *nopAdapter) Download(ctx context.Context) (*sync.DownloadResult, error) {
	return &sync.DownloadResult{}, nil
}
func (n *nopAdapter) Upload(ctx context.Context, _ []*model.Space, _ []*model.ConferenceRoom) error {
	return nil
}
func (n *nopAdapter) SafeUpload(ctx context.Context, _ []*model.Space, _ []*model.ConferenceRoom) error {
	return nil
}
func (n *nopAdapter) State() model.SyncState { return n.state }

func newTestServer(t *testing.T, authToken string) (*httptest.Server, *spaces.Registry) {
	t.Helper()
	registry := spaces.NewRegistry()
	manager := sync.NewManager(&nopAdapter{state: model.SyncState{Status: model.StatusIdle}}, registry, nil, "solum")
	srv := httptest.NewServer(NewHandler(manager, authToken).Routes())
	t.Cleanup(srv.Close)
	return srv, registry
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetSyncStatus(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/api/v1/sync/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestAuthMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, "secret")

	resp, err := http.Get(srv.URL + "/api/v1/sync/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/sync/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// /health stays open.
	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateSpace_DuplicateConflict(t *testing.T) {
	srv, _ := newTestServer(t, "")
	body := `{"id":"001","data":{"roomName":"Boardroom"}}`

	resp, err := http.Post(srv.URL+"/api/v1/spaces/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/v1/spaces/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	assert.Contains(t, string(buf[:n]), "already exists")
}

func TestSpaceLifecycle(t *testing.T) {
	srv, registry := newTestServer(t, "")

	resp, err := http.Post(srv.URL+"/api/v1/spaces/", "application/json",
		strings.NewReader(`{"id":"001","data":{"floor":"3"}}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/spaces/001")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/spaces/001", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Empty(t, registry.ListSpaces())

	resp, err = http.Get(srv.URL + "/api/v1/spaces/001")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestToggleMeetingEndpoint(t *testing.T) {
	srv, registry := newTestServer(t, "")
	require.NoError(t, registry.AddRoom(&model.ConferenceRoom{ID: "C001", Data: map[string]string{}}))

	resp, err := http.Post(srv.URL+"/api/v1/rooms/C001/meeting", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	room, err := registry.GetRoom("C001")
	require.NoError(t, err)
	assert.True(t, room.HasMeeting)
}

func TestCreateRoom_RejectsBadPrefix(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp, err := http.Post(srv.URL+"/api/v1/rooms/", "application/json",
		strings.NewReader(`{"id":"001"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
