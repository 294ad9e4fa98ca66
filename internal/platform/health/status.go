package health

import (
	"sync"

	"github.com/SlpAus/nebula-leaderboard-backend/internal/platform/logger"
)

// State 定义了系统健康状态的枚举类型
type State int

const (
	StateHealthy State = iota
	StateDegraded
)

// statusManager 负责线程安全地管理和提供系统的健康状态。
type statusManager struct {
	mu           sync.RWMutex
	currentState State
}

var globalStatus = &statusManager{
	currentState: StateHealthy,
}

// GetState 返回当前的系统健康状态。
func GetState() State {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.currentState
}

// update 根据最新一次检查的结果迁移状态，只在状态变化时记日志。
func (sm *statusManager) update(connected bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch {
	case connected && sm.currentState == StateDegraded:
		sm.currentState = StateHealthy
		logger.Log.Info().Msg("健康检查: 存储连接已恢复，系统状态 -> [健康]")
	case !connected && sm.currentState == StateHealthy:
		sm.currentState = StateDegraded
		logger.Log.Error().Msg("健康检查: 存储连接丢失，系统状态 -> [降级]")
	}
}
