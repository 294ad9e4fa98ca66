package identity

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/config"
)

// Client 是托管身份提供方的REST客户端。
// 注册、确认、认证全部委托给提供方，本地只做请求组装和响应解码。
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewClient 根据配置创建一个身份提供方客户端。
func NewClient(cfg config.IdentityConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:      cfg.ProviderURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// computeSecretHash 计算提供方要求的keyed-hash校验值：
// base64(HMAC-SHA256(clientSecret, username + clientID))。
// 未配置client secret时返回空字符串，请求中省略该字段。
func (c *Client) computeSecretHash(username string) string {
	if c.clientSecret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(c.clientSecret))
	mac.Write([]byte(username + c.clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// --- 请求体 ---

type signUpRequest struct {
	ClientID          string `json:"client_id"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	SecretHash        string `json:"secret_hash,omitempty"`
}

type confirmRequest struct {
	ClientID         string `json:"client_id"`
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
	SecretHash       string `json:"secret_hash,omitempty"`
}

type authenticateRequest struct {
	ClientID   string `json:"client_id"`
	GrantType  string `json:"grant_type"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	SecretHash string `json:"secret_hash,omitempty"`
}

// providerErrorBody 是提供方错误响应的通用结构
type providerErrorBody struct {
	Message string `json:"message"`
}

// SignUp 在身份提供方注册一个新用户。
func (c *Client) SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error) {
	body := signUpRequest{
		ClientID:          c.clientID,
		Username:          input.Username,
		Password:          input.Password,
		Email:             input.Email,
		Name:              input.Name,
		PreferredUsername: input.PreferredUsername,
		SecretHash:        c.computeSecretHash(input.Username),
	}

	var result SignUpResult
	status, err := c.post(ctx, "/signup", body, &result)
	if err != nil {
		return nil, err
	}
	result.Status = status
	return &result, nil
}

// Confirm 使用确认码完成用户的自助确认。
func (c *Client) Confirm(ctx context.Context, username, code string) error {
	body := confirmRequest{
		ClientID:         c.clientID,
		Username:         username,
		ConfirmationCode: code,
		SecretHash:       c.computeSecretHash(username),
	}
	_, err := c.post(ctx, "/confirm", body, nil)
	return err
}

// Authenticate 用用户名和密码执行一次password grant认证。
func (c *Client) Authenticate(ctx context.Context, username, password string) (*AuthenticationResult, error) {
	body := authenticateRequest{
		ClientID:   c.clientID,
		GrantType:  "password",
		Username:   username,
		Password:   password,
		SecretHash: c.computeSecretHash(username),
	}

	var result AuthenticationResult
	if _, err := c.post(ctx, "/token", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// post 发送一个JSON请求并把成功响应解码到out中。
// 非2xx响应被转换为携带提供方状态码的ProviderError。
func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) (int, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}

	if resp.StatusCode >= 300 {
		var pe providerErrorBody
		if err := json.Unmarshal(respBody, &pe); err != nil || pe.Message == "" {
			pe.Message = fmt.Sprintf("身份提供方请求 %s 失败: 状态码 %d", path, resp.StatusCode)
		}
		return resp.StatusCode, &ProviderError{StatusCode: resp.StatusCode, Message: pe.Message}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("解码身份提供方响应失败: %w", err)
		}
	}
	return resp.StatusCode, nil
}
