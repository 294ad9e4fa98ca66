package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client 是访问日志搜索索引的最小REST客户端。
// 只封装本服务需要的三个操作：确保索引存在、写入文档、刷新索引。
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// indexSettings 是创建索引时下发的设置和映射。
// 字段数上限放宽到5000，time字段固定为date类型。
type indexSettings struct {
	Settings map[string]interface{} `json:"settings"`
	Mappings map[string]interface{} `json:"mappings"`
}

// NewClient 创建一个搜索索引客户端。
func NewClient(baseURL, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// EnsureIndex 确保目标索引存在，不存在时创建。
func (c *Client) EnsureIndex(ctx context.Context, index string) error {
	// 1. HEAD探测索引是否存在
	status, _, err := c.do(ctx, http.MethodHead, "/"+index, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("探测索引 %s 失败: 状态码 %d", index, status)
	}

	// 2. 不存在则创建
	body := indexSettings{
		Settings: map[string]interface{}{
			"index.mapping.total_fields.limit": 5000,
		},
		Mappings: map[string]interface{}{
			"properties": map[string]interface{}{
				"time": map[string]interface{}{"type": "date"},
			},
		},
	}
	status, respBody, err := c.do(ctx, http.MethodPut, "/"+index, body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("创建索引 %s 失败: 状态码 %d, 响应 %s", index, status, respBody)
	}
	return nil
}

// IndexDocument 向索引写入一个文档，并自动附加RFC3339格式的time字段。
func (c *Client) IndexDocument(ctx context.Context, index string, doc map[string]interface{}) error {
	payload := make(map[string]interface{}, len(doc)+1)
	for k, v := range doc {
		payload[k] = v
	}
	payload["time"] = time.Now().UTC().Format(time.RFC3339)

	status, respBody, err := c.do(ctx, http.MethodPost, "/"+index+"/_doc", payload)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("写入索引 %s 失败: 状态码 %d, 响应 %s", index, status, respBody)
	}
	return nil
}

// Refresh 刷新索引，使新写入的文档立即可检索。
func (c *Client) Refresh(ctx context.Context, index string) error {
	status, respBody, err := c.do(ctx, http.MethodPost, "/"+index+"/_refresh", nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("刷新索引 %s 失败: 状态码 %d, 响应 %s", index, status, respBody)
	}
	return nil
}

// do 执行一次REST调用，返回状态码和响应体。
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}
