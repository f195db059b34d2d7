package solum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"solum-sync-service/internal/model"
)

// APIError is returned for any non-2xx response, with the raw status and
// body attached. No retry happens at this layer.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("aims api: status %d: %s", e.StatusCode, e.Body)
}

// IsAuthError reports whether err is an authentication/authorization
// failure. The vendor is inconsistent: some deployments return 401/403,
// others a 200-wrapped error message, so the message is sniffed too.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 401 || apiErr.StatusCode == 403 {
			return true
		}
		body := strings.ToLower(apiErr.Body)
		return strings.Contains(body, "unauthorized") || strings.Contains(body, "invalid token")
	}
	return false
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type articlesResponse struct {
	ArticleList []model.Article `json:"articleList"`
	TotalCount  int             `json:"totalCount"`
}

type labelsResponse struct {
	LabelList []model.Label `json:"labelList"`
}

// Client talks to the SoluM/AIMS REST API. One method per endpoint; callers
// own token lifecycle and pass the access token in.
type Client struct {
	httpClient *resty.Client
	storeID    string
	logger     *zap.Logger
}

func NewClient(baseURL, storeID string, timeout time.Duration, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		storeID:    storeID,
		logger:     logger,
	}
}

func (c *Client) Login(ctx context.Context, creds Credentials) (*model.Tokens, error) {
	var result tokenResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(creds).
		SetResult(&result).
		Post("/api/v2/auth/login")
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	c.logger.Info("Logged in to AIMS", zap.String("store_id", c.storeID))
	return tokensFrom(result), nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*model.Tokens, error) {
	var result tokenResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"refreshToken": refreshToken}).
		SetResult(&result).
		Post("/api/v2/auth/refresh")
	if err != nil {
		return nil, fmt.Errorf("token refresh request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	c.logger.Debug("Refreshed AIMS token")
	return tokensFrom(result), nil
}

// FetchArticles requests one page of articles. Pagination is the caller's
// loop: request page N, stop when the result count is below size.
func (c *Client) FetchArticles(ctx context.Context, accessToken string, page, size int) ([]model.Article, error) {
	var result articlesResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("page", fmt.Sprintf("%d", page)).
		SetQueryParam("size", fmt.Sprintf("%d", size)).
		SetResult(&result).
		Get(fmt.Sprintf("/api/v2/stores/%s/articles", c.storeID))
	if err != nil {
		return nil, fmt.Errorf("fetch articles request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return result.ArticleList, nil
}

func (c *Client) PutArticles(ctx context.Context, accessToken string, articles []model.Article) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(map[string]interface{}{"articleList": articles}).
		Put(fmt.Sprintf("/api/v2/stores/%s/articles", c.storeID))
	if err != nil {
		return fmt.Errorf("put articles request failed: %w", err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	c.logger.Info("Pushed articles to AIMS", zap.Int("count", len(articles)))
	return nil
}

func (c *Client) GetLabels(ctx context.Context, accessToken string) ([]model.Label, error) {
	var result labelsResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&result).
		Get(fmt.Sprintf("/api/v2/stores/%s/labels", c.storeID))
	if err != nil {
		return nil, fmt.Errorf("get labels request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return result.LabelList, nil
}

func (c *Client) AssignLabel(ctx context.Context, accessToken, labelCode, articleID string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(map[string]string{"articleId": articleID}).
		Post(fmt.Sprintf("/api/v2/stores/%s/labels/%s/assign", c.storeID, labelCode))
	if err != nil {
		return fmt.Errorf("assign label request failed: %w", err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return nil
}

func (c *Client) UpdateLabelPage(ctx context.Context, accessToken, labelCode string, page int) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(map[string]int{"page": page}).
		Put(fmt.Sprintf("/api/v2/stores/%s/labels/%s/page", c.storeID, labelCode))
	if err != nil {
		return fmt.Errorf("update label page request failed: %w", err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	return nil
}

func tokensFrom(r tokenResponse) *model.Tokens {
	return &model.Tokens{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(r.ExpiresIn) * time.Second),
	}
}
