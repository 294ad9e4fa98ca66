package logger

import (
	"time"

	"github.com/gin-gonic/gin"
)

// AccessEntry 是一条访问日志记录。
// 除了写控制台外，它还会被投递给可选的外送器（搜索索引）。
type AccessEntry struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	ClientIP  string `json:"client_ip"`
	UserAgent string `json:"user_agent"`
	LatencyMS int64  `json:"latency_ms"`
	BodySize  int    `json:"body_size"`
}

// AccessSink 接收访问日志记录的外送端。
// 实现必须是非阻塞的：请求路径不允许等待外送完成。
type AccessSink interface {
	Submit(entry AccessEntry)
}

// AccessLogMiddleware 记录每个请求的访问日志。
// sink 可以为nil，此时只写控制台日志。
func AccessLogMiddleware(sink AccessSink) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		entry := AccessEntry{
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Status:    c.Writer.Status(),
			ClientIP:  c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			LatencyMS: time.Since(start).Milliseconds(),
			BodySize:  c.Writer.Size(),
		}

		event := Log.Info()
		if entry.Status >= 400 {
			event = Log.Error()
		}
		event.
			Str("method", entry.Method).
			Str("path", entry.Path).
			Int("status", entry.Status).
			Str("ip", entry.ClientIP).
			Int64("latency_ms", entry.LatencyMS).
			Int("body_size", entry.BodySize).
			Msg("access")

		if sink != nil {
			sink.Submit(entry)
		}
	}
}
