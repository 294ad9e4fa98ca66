package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore 是Store的内存假实现，遍历顺序为插入顺序。
type fakeStore struct {
	mu       sync.Mutex
	order    []string
	records  map[string]ScoreRecord
	putErr   error
	putCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]ScoreRecord)}
}

func (f *fakeStore) Put(ctx context.Context, record ScoreRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	if _, ok := f.records[record.ID]; !ok {
		f.order = append(f.order, record.ID)
	}
	f.records[record.ID] = record
	return nil
}

func (f *fakeStore) DeleteByID(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return nil
	}
	delete(f.records, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) Scan(ctx context.Context, limit int64, token string) ([]ScoreRecord, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var offset int64
	if token != "" {
		parsed, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("无效的翻页游标")
		}
		offset = parsed
	}

	end := offset + limit
	if end > int64(len(f.order)) {
		end = int64(len(f.order))
	}
	if offset >= int64(len(f.order)) {
		return []ScoreRecord{}, "", nil
	}

	page := make([]ScoreRecord, 0, end-offset)
	for _, id := range f.order[offset:end] {
		page = append(page, f.records[id])
	}

	next := ""
	if end < int64(len(f.order)) {
		next = strconv.FormatInt(end, 10)
	}
	return page, next, nil
}

func (f *fakeStore) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.records)), nil
}

// fakeDispatcher 记录每次派发的参数。
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

type dispatchCall struct {
	userID       string
	userName     string
	score        float64
	connectionID string
}

func (f *fakeDispatcher) Dispatch(userID, userName string, score float64, connectionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{userID, userName, score, connectionID})
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSubmitScoreGeneratesUniqueIDsAndMonotonicTimestamps(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeDispatcher{})

	seen := make(map[string]bool)
	var lastTimestamp int64
	for i := 0; i < 20; i++ {
		record, err := svc.SubmitScore(context.Background(), "u1", "Ada", float64(i), "c1")
		require.NoError(t, err)
		assert.False(t, seen[record.ID], "记录ID必须全局唯一")
		seen[record.ID] = true
		assert.GreaterOrEqual(t, record.Timestamp, lastTimestamp)
		lastTimestamp = record.Timestamp
	}
}

func TestSubmitScoreDispatchesNotification(t *testing.T) {
	store := newFakeStore()
	dispatcher := &fakeDispatcher{}
	svc := NewService(store, dispatcher)

	_, err := svc.SubmitScore(context.Background(), "u1", "Ada", 1200, "c1")
	require.NoError(t, err)

	require.Equal(t, 1, dispatcher.callCount())
	call := dispatcher.calls[0]
	assert.Equal(t, "u1", call.userID)
	assert.Equal(t, "Ada", call.userName)
	assert.Equal(t, float64(1200), call.score)
	assert.Equal(t, "c1", call.connectionID)
}

func TestSubmitScoreStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("store unavailable")
	dispatcher := &fakeDispatcher{}
	svc := NewService(store, dispatcher)

	_, err := svc.SubmitScore(context.Background(), "u1", "Ada", 100, "c1")
	require.Error(t, err)
	// 持久化失败时不派发通知
	assert.Equal(t, 0, dispatcher.callCount())
}

func TestDeleteScoreIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeDispatcher{})

	// 删除不存在的ID同样成功
	require.NoError(t, svc.DeleteScore(context.Background(), "no-such-id"))

	record, err := svc.SubmitScore(context.Background(), "u1", "Ada", 100, "c1")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteScore(context.Background(), record.ID))
	require.NoError(t, svc.DeleteScore(context.Background(), record.ID))
}

func TestTopScoreEmptyTable(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeDispatcher{})

	top, count, err := svc.TopScore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, top)
	assert.Equal(t, int64(0), count)
}

func TestTopScoreReturnsHighest(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeDispatcher{})

	for _, score := range []float64{10, 1500, 300} {
		_, err := svc.SubmitScore(context.Background(), "u1", "Ada", score, "c1")
		require.NoError(t, err)
	}

	top, count, err := svc.TopScore(context.Background())
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, float64(1500), top.Score)
	assert.Equal(t, int64(3), count)
}

func TestListScoresPagination(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeDispatcher{})

	for i := 0; i < 5; i++ {
		_, err := svc.SubmitScore(context.Background(), "u1", "Ada", float64(i), "c1")
		require.NoError(t, err)
	}

	// 第一页：2条记录和非空游标，总数始终是5
	page1, count1, token, err := svc.ListScores(context.Background(), 2, "")
	require.NoError(t, err)
	assert.Len(t, page1, 2)
	assert.Equal(t, int64(5), count1)
	require.NotEmpty(t, token)

	// 用游标取剩下的3条，游标耗尽
	page2, count2, token2, err := svc.ListScores(context.Background(), 5, token)
	require.NoError(t, err)
	assert.Len(t, page2, 3)
	assert.Equal(t, int64(5), count2)
	assert.Empty(t, token2)

	// 两页合起来恰好覆盖全部记录，无重复
	seen := make(map[string]bool)
	for _, record := range append(page1, page2...) {
		assert.False(t, seen[record.ID])
		seen[record.ID] = true
	}
	assert.Len(t, seen, 5)
}
