package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/SlpAus/nebula-leaderboard-backend/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPoster struct {
	mu    sync.Mutex
	err   error
	calls []string
	data  []string
}

func (p *stubPoster) PostToConnection(ctx context.Context, connectionID string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, connectionID)
	p.data = append(p.data, string(data))
	return p.err
}

type stubRecorder struct {
	mu      sync.Mutex
	results []string
}

func (r *stubRecorder) RecordNotification(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func TestNotifyHighScoreBelowThreshold(t *testing.T) {
	poster := &stubPoster{}
	n := NewNotifier(poster, nil)

	// 阈值是严格大于：恰好1000分不触发
	n.NotifyHighScore(context.Background(), "u1", "Ada", 1000, "c1")
	n.NotifyHighScore(context.Background(), "u1", "Ada", 10, "c1")

	assert.Empty(t, poster.calls)
}

func TestNotifyHighScoreMissingConnectionID(t *testing.T) {
	poster := &stubPoster{}
	n := NewNotifier(poster, nil)

	n.NotifyHighScore(context.Background(), "u1", "Ada", 1500, "")

	assert.Empty(t, poster.calls)
}

func TestNotifyHighScoreSendsOnce(t *testing.T) {
	poster := &stubPoster{}
	recorder := &stubRecorder{}
	n := NewNotifier(poster, recorder)

	n.NotifyHighScore(context.Background(), "u1", "Ada", 1200, "c1")

	require.Len(t, poster.calls, 1)
	assert.Equal(t, "c1", poster.calls[0])
	assert.Contains(t, poster.data[0], "Congratulations Ada")
	assert.Contains(t, poster.data[0], "1200")
	assert.Equal(t, []string{"sent"}, recorder.results)
}

func TestNotifyHighScoreStaleConnectionSwallowed(t *testing.T) {
	poster := &stubPoster{err: fmt.Errorf("%w: c1", realtime.ErrConnectionGone)}
	recorder := &stubRecorder{}
	n := NewNotifier(poster, recorder)

	// 失效连接只告警，不向调用方暴露任何错误
	n.NotifyHighScore(context.Background(), "u1", "Ada", 1500, "c1")

	require.Len(t, poster.calls, 1)
	assert.Equal(t, []string{"stale"}, recorder.results)
}

func TestNotifyHighScoreOtherFailureSwallowed(t *testing.T) {
	poster := &stubPoster{err: errors.New("gateway timeout")}
	recorder := &stubRecorder{}
	n := NewNotifier(poster, recorder)

	n.NotifyHighScore(context.Background(), "u1", "Ada", 1500, "c1")

	require.Len(t, poster.calls, 1)
	assert.Equal(t, []string{"failed"}, recorder.results)
}

func TestDispatcherDrainWaitsForInflight(t *testing.T) {
	poster := &stubPoster{}
	d := NewDispatcher(NewNotifier(poster, nil))

	for i := 0; i < 10; i++ {
		d.Dispatch("u1", "Ada", 2000, "c1")
	}
	d.Drain()

	assert.Len(t, poster.calls, 10)
}
