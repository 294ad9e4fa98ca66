package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/logger"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/realtime"
)

// HighScoreThreshold 是触发实时祝贺推送的分数下限（不含）。
const HighScoreThreshold = 1000

// notifyTimeout 是单次投递的超时上限
const notifyTimeout = 10 * time.Second

// ConnectionPoster 是按连接投递消息的通道。
// 由内置Hub或托管网关的管理客户端实现。
type ConnectionPoster interface {
	PostToConnection(ctx context.Context, connectionID string, data []byte) error
}

// Recorder 接收通知投递结果的指标记录。
type Recorder interface {
	RecordNotification(result string)
}

// highScoreMessage 是推送给客户端的消息体。
type highScoreMessage struct {
	Message string `json:"message"`
}

// Notifier 负责高分祝贺消息的组装和投递。
// 投递是严格尽力而为的：任何失败都只记日志，绝不向调用方返回错误。
type Notifier struct {
	poster  ConnectionPoster
	metrics Recorder
}

// NewNotifier 创建一个通知适配器。metrics可以为nil。
func NewNotifier(poster ConnectionPoster, metrics Recorder) *Notifier {
	return &Notifier{poster: poster, metrics: metrics}
}

// NotifyHighScore 在分数超过阈值时向提交者的实时连接推送祝贺消息。
// 分数不超过阈值或连接ID缺失时不做任何事。
func (n *Notifier) NotifyHighScore(ctx context.Context, userID, userName string, score float64, connectionID string) {
	if score <= HighScoreThreshold {
		return
	}
	if connectionID == "" {
		logger.Log.Warn().Str("user_id", userID).Msg("用户没有可用的连接ID，跳过高分通知")
		return
	}

	msg := highScoreMessage{
		Message: fmt.Sprintf("Congratulations %s, you have a new high score of %s!",
			userName, strconv.FormatFloat(score, 'f', -1, 64)),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Error().Err(err).Msg("序列化高分通知失败")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	err = n.poster.PostToConnection(ctx, connectionID, data)
	switch {
	case err == nil:
		n.record("sent")
		logger.Log.Info().Str("user_id", userID).Str("connection_id", connectionID).Msg("高分通知已发送")
	case errors.Is(err, realtime.ErrConnectionGone):
		// 失效连接的清理由连接方负责，这里只告警
		n.record("stale")
		logger.Log.Warn().Str("connection_id", connectionID).Msg("目标连接已失效，放弃高分通知")
	default:
		n.record("failed")
		logger.Log.Error().Err(err).Str("connection_id", connectionID).Msg("发送高分通知失败")
	}
}

func (n *Notifier) record(result string) {
	if n.metrics != nil {
		n.metrics.RecordNotification(result)
	}
}
