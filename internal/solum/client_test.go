package solum

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"solum-sync-service/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "1001", 5*time.Second, zap.NewNop())
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v2/auth/login", r.URL.Path)

		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "user", creds.Username)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"accessToken":  "acc",
			"refreshToken": "ref",
			"expiresIn":    3600,
		})
	})

	tokens, err := client.Login(context.Background(), Credentials{Username: "user", Password: "pass"})
	require.NoError(t, err)
	assert.Equal(t, "acc", tokens.AccessToken)
	assert.Equal(t, "ref", tokens.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tokens.ExpiresAt, 5*time.Second)
}

func TestLogin_Non2xxReturnsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials: unauthorized", http.StatusUnauthorized)
	})

	_, err := client.Login(context.Background(), Credentials{})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad credentials")
	assert.True(t, IsAuthError(err))
}

func TestFetchArticles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/stores/1001/articles", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("size"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"articleList":[
			{"articleId":"001","articleName":"Room 1","data":{"floor":"3"},"storeNumber":7},
			{"articleId":"002","articleName":"Room 2","articleData":{"floor":"4"}}
		],"totalCount":2}`)
	})

	articles, err := client.FetchArticles(context.Background(), "tok", 2, 50)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "001", articles[0].ArticleID)
	assert.Equal(t, "3", articles[0].Data["floor"])
	// Numeric root fields are stringified into Extra.
	assert.Equal(t, "7", articles[0].Extra["storeNumber"])

	v, ok := articles[1].Field("floor")
	assert.True(t, ok)
	assert.Equal(t, "4", v)
}

func TestPutArticles(t *testing.T) {
	var got struct {
		ArticleList []model.Article `json:"articleList"`
	}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	articles := []model.Article{{
		ArticleID:   "001",
		ArticleName: "Room 1",
		Data:        map[string]string{"floor": "3"},
		ArticleData: map[string]string{"floor": "3"},
		Extra:       map[string]string{"floor": "3"},
	}}
	require.NoError(t, client.PutArticles(context.Background(), "tok", articles))

	require.Len(t, got.ArticleList, 1)
	assert.Equal(t, "001", got.ArticleList[0].ArticleID)
	assert.Equal(t, "3", got.ArticleList[0].Data["floor"])
	assert.Equal(t, "3", got.ArticleList[0].ArticleData["floor"])
	assert.Equal(t, "3", got.ArticleList[0].Extra["floor"])
}

func TestAssignLabelAndUpdatePage(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.AssignLabel(context.Background(), "tok", "ESL-1", "001"))
	require.NoError(t, client.UpdateLabelPage(context.Background(), "tok", "ESL-1", 2))

	assert.Equal(t, []string{
		"POST /api/v2/stores/1001/labels/ESL-1/assign",
		"PUT /api/v2/stores/1001/labels/ESL-1/page",
	}, paths)
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(&APIError{StatusCode: 401}))
	assert.True(t, IsAuthError(&APIError{StatusCode: 403}))
	assert.True(t, IsAuthError(&APIError{StatusCode: 200, Body: "Invalid Token supplied"}))
	assert.True(t, IsAuthError(fmt.Errorf("wrapped: %w", &APIError{StatusCode: 401})))
	assert.False(t, IsAuthError(&APIError{StatusCode: 500, Body: "boom"}))
	assert.False(t, IsAuthError(fmt.Errorf("plain error")))
}
