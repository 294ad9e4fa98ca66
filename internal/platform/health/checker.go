package health

import (
	"context"
	"time"

	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/database"
	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/logger"
	"github.com/SlpAus/nebula-leaderboard-backend/pkg/lifecycle"
)

const (
	checkInterval = 5 * time.Second
	pingTimeout   = 2 * time.Second
)

// PerformCheck 执行一次针对外部存储的健康检查并更新全局状态。
// 本服务不持有本地缓存，检查只关心存储是否可达，不涉及任何重建。
func PerformCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	err := database.RDB.Ping(ctx).Err()
	globalStatus.update(err == nil)
}

// StartStoreHealthCheck 启动后台Goroutine定期执行健康检查。
// 收到停机信号后退出。
func StartStoreHealthCheck(handle *lifecycle.Handle) {
	defer handle.Close()
	logger.Log.Info().Msg("存储健康检查器已启动")

	for {
		if err := handle.Sleep(checkInterval); err != nil {
			return
		}
		PerformCheck()
	}
}
