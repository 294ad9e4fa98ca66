package notify

import (
	"context"
	"sync"

	"github.com/SlpAus/nebula-leaderboard-backend/pkg/lifecycle"
)

// Dispatcher 把通知投递从请求路径上剥离为独立的异步任务。
// 请求处理绝不等待投递完成；停机时会把已派发的任务排空。
type Dispatcher struct {
	notifier *Notifier
	wg       sync.WaitGroup
}

// NewDispatcher 创建一个异步通知分发器。
func NewDispatcher(notifier *Notifier) *Dispatcher {
	return &Dispatcher{notifier: notifier}
}

// Dispatch 异步派发一次高分通知。
// 投递结果（包括失败）都在Notifier内部消化，不会影响调用方。
func (d *Dispatcher) Dispatch(userID, userName string, score float64, connectionID string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		// 请求的context在响应返回后即失效，投递使用独立的context
		d.notifier.NotifyHighScore(context.Background(), userID, userName, score, connectionID)
	}()
}

// Drain 阻塞直到所有已派发的通知完成。
func (d *Dispatcher) Drain() {
	d.wg.Wait()
}

// RunUntilShutdown 持有生命周期句柄，在收到停机信号后排空在途通知。
// 应该在独立的Goroutine中运行。
func (d *Dispatcher) RunUntilShutdown(handle *lifecycle.Handle) {
	defer handle.Close()
	<-handle.Done()
	d.Drain()
}
