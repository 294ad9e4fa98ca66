package realtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrConnectionGone 表示目标连接已经失效（客户端断开后未重连）。
// 调用方对这种错误只做告警，连接的清理由连接方自己负责。
var ErrConnectionGone = errors.New("realtime: 连接已失效")

// ManagementClient 通过托管websocket网关的管理接口向指定连接投递消息。
// 网关用 POST {endpoint}/@connections/{id} 接收投递，连接失效时返回410。
type ManagementClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewManagementClient 创建一个网关管理接口客户端。
func NewManagementClient(endpoint string, timeout time.Duration) *ManagementClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ManagementClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PostToConnection 向指定的连接投递一段数据。
func (c *ManagementClient) PostToConnection(ctx context.Context, connectionID string, data []byte) error {
	url := fmt.Sprintf("%s/@connections/%s", c.endpoint, connectionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: %s", ErrConnectionGone, connectionID)
	case resp.StatusCode >= 300:
		return fmt.Errorf("网关投递到连接 %s 失败: 状态码 %d", connectionID, resp.StatusCode)
	}
	return nil
}
