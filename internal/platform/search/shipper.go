package search

import (
	"context"
	"time"

	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/logger"
	"github.com/SlpAus/nebula-leaderboard-backend/pkg/lifecycle"
)

// shipTimeout 是单条日志外送的超时上限
const shipTimeout = 5 * time.Second

// Shipper 把访问日志异步外送到搜索索引。
// 它实现了 logger.AccessSink：Submit永不阻塞，队列满时直接丢弃。
// 外送是纯尽力而为的可观测性通道，任何失败都只记日志。
type Shipper struct {
	client *Client
	index  string
	queue  chan logger.AccessEntry

	indexReady bool
}

// NewShipper 创建一个访问日志外送器。
func NewShipper(client *Client, indexPrefix string) *Shipper {
	return &Shipper{
		client: client,
		index:  indexPrefix + "-access",
		queue:  make(chan logger.AccessEntry, 256),
	}
}

// Submit 把一条访问日志放入外送队列。队列满时丢弃并计数。
func (s *Shipper) Submit(entry logger.AccessEntry) {
	select {
	case s.queue <- entry:
	default:
		logger.Log.Warn().Msg("访问日志外送队列已满，丢弃一条记录")
	}
}

// Run 是外送器的后台主循环，应该在独立的Goroutine中运行。
// 收到停机信号后会把队列中剩余的记录发完再退出。
func (s *Shipper) Run(handle *lifecycle.Handle) {
	defer handle.Close()

	for {
		select {
		case entry := <-s.queue:
			s.ship(entry)
		case <-handle.Done():
			// 停机阶段：清空队列中已经接收的记录
			for {
				select {
				case entry := <-s.queue:
					s.ship(entry)
				default:
					return
				}
			}
		}
	}
}

// ship 外送一条记录：确保索引存在、写入文档、刷新索引。
func (s *Shipper) ship(entry logger.AccessEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), shipTimeout)
	defer cancel()

	if !s.indexReady {
		if err := s.client.EnsureIndex(ctx, s.index); err != nil {
			logger.Log.Warn().Err(err).Str("index", s.index).Msg("初始化访问日志索引失败")
			return
		}
		s.indexReady = true
	}

	doc := map[string]interface{}{
		"method":     entry.Method,
		"path":       entry.Path,
		"status":     entry.Status,
		"client_ip":  entry.ClientIP,
		"user_agent": entry.UserAgent,
		"latency_ms": entry.LatencyMS,
		"body_size":  entry.BodySize,
	}
	if err := s.client.IndexDocument(ctx, s.index, doc); err != nil {
		logger.Log.Warn().Err(err).Str("index", s.index).Msg("外送访问日志失败")
		return
	}
	if err := s.client.Refresh(ctx, s.index); err != nil {
		logger.Log.Warn().Err(err).Str("index", s.index).Msg("刷新访问日志索引失败")
	}
}
